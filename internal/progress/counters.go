package progress

import "sync/atomic"

// Counter names the monotonic counters a run maintains.
type Counter string

const (
	// CounterDownloaded counts images that reached a terminal download
	// outcome (fetched, cached, or failed).
	CounterDownloaded Counter = "downloaded"
	// CounterUploaded counts images the sequencer has finished handling,
	// whether placed or skipped.
	CounterUploaded Counter = "uploaded"
	// CounterSkipped counts images dropped because their fetch failed.
	CounterSkipped Counter = "skipped"
)

// Reporter is the fire-and-forget counter surface handed to the pipeline and
// sequencer. Implementations must never block the caller.
type Reporter interface {
	Increment(counter Counter)
}

// Tracker holds the run's counters. Increments are atomic so download
// workers and the sequencer can report concurrently.
type Tracker struct {
	total      int64
	downloaded atomic.Int64
	uploaded   atomic.Int64
	skipped    atomic.Int64
}

// NewTracker builds a tracker for a run covering total images.
func NewTracker(total int) *Tracker {
	return &Tracker{total: int64(total)}
}

// Increment advances the named counter by one.
func (t *Tracker) Increment(counter Counter) {
	switch counter {
	case CounterDownloaded:
		t.downloaded.Add(1)
	case CounterUploaded:
		t.uploaded.Add(1)
	case CounterSkipped:
		t.skipped.Add(1)
	}
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	Total      int64
	Downloaded int64
	Uploaded   int64
	Skipped    int64
}

// Snapshot returns the current counter values.
func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{
		Total:      t.total,
		Downloaded: t.downloaded.Load(),
		Uploaded:   t.uploaded.Load(),
		Skipped:    t.skipped.Load(),
	}
}

// Done reports whether every image has been both downloaded and handled by
// the sequencer.
func (s Snapshot) Done() bool {
	return s.Downloaded >= s.Total && s.Uploaded >= s.Total
}
