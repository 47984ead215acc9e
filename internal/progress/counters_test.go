package progress

import (
	"sync"
	"testing"
)

func TestTrackerIncrementsConcurrently(t *testing.T) {
	tracker := NewTracker(100)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Increment(CounterDownloaded)
			tracker.Increment(CounterUploaded)
		}()
	}
	wg.Wait()

	snapshot := tracker.Snapshot()
	if snapshot.Downloaded != 100 || snapshot.Uploaded != 100 {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
	if !snapshot.Done() {
		t.Fatal("expected Done after all counters reached total")
	}
}

func TestTrackerSkippedCounter(t *testing.T) {
	tracker := NewTracker(3)
	tracker.Increment(CounterSkipped)
	tracker.Increment(Counter("unknown")) // ignored

	snapshot := tracker.Snapshot()
	if snapshot.Skipped != 1 {
		t.Fatalf("expected 1 skipped, got %d", snapshot.Skipped)
	}
	if snapshot.Done() {
		t.Fatal("run should not be done")
	}
}
