// Package ledger persists per-run fetch outcomes in SQLite.
//
// One row is written per image per run: delivered or skipped, with the
// failure message when a fetch failed. The run command reads it back for the
// end-of-run failure report. The ledger holds no workflow state; the run
// never depends on it to make progress.
package ledger
