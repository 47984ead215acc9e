package ledger

import (
	"context"
	"testing"

	"deckhand/internal/order"
)

func TestRecordAndSummarize(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	entries := []Entry{
		{RunID: "run-1", Name: "Island.png", Source: "s1", Face: order.FaceFront, Outcome: order.OutcomeDelivered},
		{RunID: "run-1", Name: "Forest.png", Source: "s2", Face: order.FaceFront, Outcome: order.OutcomeSkipped, Error: "status 404"},
		{RunID: "run-1", Name: "cardback", Source: "s3", Face: order.FaceBack, Outcome: order.OutcomeDelivered},
		{RunID: "run-2", Name: "Island.png", Source: "s1", Face: order.FaceFront, Outcome: order.OutcomeDelivered},
	}
	for _, entry := range entries {
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	summary, err := store.RunSummary(ctx, "run-1")
	if err != nil {
		t.Fatalf("RunSummary: %v", err)
	}
	if summary.Total != 3 || summary.Delivered != 2 || summary.Skipped != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	failures, err := store.Failures(ctx, "run-1")
	if err != nil {
		t.Fatalf("Failures: %v", err)
	}
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failures))
	}
	if failures[0].Name != "Forest.png" || failures[0].Error != "status 404" {
		t.Fatalf("unexpected failure entry %+v", failures[0])
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	first, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer second.Close()

	summary, err := second.RunSummary(context.Background(), "none")
	if err != nil {
		t.Fatalf("RunSummary on empty run: %v", err)
	}
	if summary.Total != 0 {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
}
