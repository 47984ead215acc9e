// Package progress tracks and renders the run's download/upload counters.
//
// The Tracker is the single source the pipeline and sequencer increment;
// renderers only read snapshots, so reporting can never block or reorder the
// work it observes. Interactive runs get live terminal bars, piped output
// gets periodic log lines.
package progress
