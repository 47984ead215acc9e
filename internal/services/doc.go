// Package services defines the error taxonomy shared by the components that
// talk to external collaborators (the remote session, image sources, local
// storage).
//
// Errors are tagged with sentinel markers via Wrap so callers can classify a
// failure with errors.Is without parsing messages: state mismatches and
// rejected session commands halt the run, fetch failures degrade to skipped
// images, timeouts are retried at the wait site that observed them.
package services
