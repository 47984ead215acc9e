package download

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"deckhand/internal/fetch"
	"deckhand/internal/ledger"
	"deckhand/internal/logging"
	"deckhand/internal/order"
	"deckhand/internal/progress"
)

// Recorder receives one ledger entry per terminal fetch outcome. The store
// in internal/ledger satisfies it; a nil Recorder disables recording.
type Recorder interface {
	Record(ctx context.Context, entry ledger.Entry) error
}

// Pipeline fetches every image of the given collections on a bounded worker
// pool and publishes each terminal outcome into its collection's delivery
// queue. Workers never touch the remote session.
type Pipeline struct {
	fetcher  fetch.Fetcher
	workers  int
	reporter progress.Reporter
	recorder Recorder
	logger   *slog.Logger
	runID    string
}

// New constructs a pipeline. workers below 1 is clamped to 1.
func New(fetcher fetch.Fetcher, workers int, reporter progress.Reporter, recorder Recorder, logger *slog.Logger, runID string) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		fetcher:  fetcher,
		workers:  workers,
		reporter: reporter,
		recorder: recorder,
		logger:   logging.WithComponent(logger, "download"),
		runID:    runID,
	}
}

type job struct {
	collection *order.CardImageCollection
	image      *order.CardImage
}

// Start launches the workers over every image of the given collections and
// returns a channel closed once all images have reached a terminal outcome.
func (p *Pipeline) Start(ctx context.Context, collections ...*order.CardImageCollection) <-chan struct{} {
	jobs := make(chan job)
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				p.process(ctx, j)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, collection := range collections {
			for _, image := range collection.Cards() {
				select {
				case jobs <- job{collection: collection, image: image}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	return done
}

func (p *Pipeline) process(ctx context.Context, j job) {
	image := j.image
	outcome := order.OutcomeDelivered
	var fetchErr error

	if fileExists(image.LocalPath) {
		// Cached from an earlier run; no network activity.
		image.MarkDownloaded()
		p.logger.Debug("image already cached",
			logging.String(logging.FieldImage, image.Name),
			logging.String(logging.FieldFace, string(image.Face)),
		)
	} else if fetchErr = p.fetcher.Fetch(ctx, image.Source, image.LocalPath); fetchErr == nil {
		image.MarkDownloaded()
	} else {
		// Soft failure: the image's slots stay empty, the run continues.
		outcome = order.OutcomeSkipped
		p.reporter.Increment(progress.CounterSkipped)
		p.logger.Warn("image fetch failed",
			logging.String(logging.FieldImage, image.Name),
			logging.String(logging.FieldFace, string(image.Face)),
			logging.Error(fetchErr),
		)
	}

	if err := j.collection.Push(image, outcome); err != nil {
		p.logger.Error("delivery queue rejected image",
			logging.String(logging.FieldImage, image.Name),
			logging.Error(err),
		)
		return
	}
	p.reporter.Increment(progress.CounterDownloaded)
	p.record(ctx, image, outcome, fetchErr)
}

func (p *Pipeline) record(ctx context.Context, image *order.CardImage, outcome order.Outcome, fetchErr error) {
	if p.recorder == nil {
		return
	}
	entry := ledger.Entry{
		RunID:     p.runID,
		Name:      image.Name,
		Source:    image.Source,
		LocalPath: image.LocalPath,
		Face:      image.Face,
		Outcome:   outcome,
	}
	if fetchErr != nil {
		entry.Error = fetchErr.Error()
	}
	if err := p.recorder.Record(ctx, entry); err != nil {
		p.logger.Warn("ledger write failed",
			logging.String(logging.FieldImage, image.Name),
			logging.Error(err),
		)
	}
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
