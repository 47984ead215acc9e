// Package notifications delivers optional run lifecycle pushes via ntfy.
//
// A configured topic enables HTTP posts for run start, completion, and
// failure; without one the service degrades to a noop so callers never
// branch on configuration.
package notifications
