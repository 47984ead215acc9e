// Package download runs the concurrent image acquisition pipeline.
//
// A fixed pool of workers fetches each collection's images (skipping ones
// already cached on disk), marks the downloaded flag, and publishes a typed
// outcome into the collection's delivery queue for the sequencer. Fetch
// failures are soft: they surface as skipped deliveries, a skip counter
// increment, and a ledger row, never as a run abort.
package download
