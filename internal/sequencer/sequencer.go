package sequencer

import (
	"context"
	"fmt"
	"log/slog"

	"deckhand/internal/logging"
	"deckhand/internal/order"
	"deckhand/internal/progress"
)

// Placer is the slice of the designer client the sequencer needs: submit a
// local file and place the resulting upload into slots. internal/mpc's
// Client satisfies it.
type Placer interface {
	Upload(ctx context.Context, name, localPath string) (string, error)
	Insert(ctx context.Context, id string, slots []int) error
}

// Result summarizes one face's sequencing.
type Result struct {
	Placed  int
	Skipped int
}

// Sequencer is the single consumer of a face's delivery queue. It pops
// exactly the collection's image count, uploading and inserting each
// delivered image in arrival order. It owns the remote session for the
// duration of a face and must never run concurrently with other session
// users.
type Sequencer struct {
	placer   Placer
	reporter progress.Reporter
	logger   *slog.Logger
}

// New constructs a sequencer.
func New(placer Placer, reporter progress.Reporter, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sequencer{
		placer:   placer,
		reporter: reporter,
		logger:   logging.WithComponent(logger, "sequencer"),
	}
}

// Drain consumes the whole collection. Skipped deliveries drop their image
// silently apart from counters; an upload or insert failure aborts the face
// and propagates, since the session's face state is unknown after a rejected
// command.
func (s *Sequencer) Drain(ctx context.Context, collection *order.CardImageCollection) (Result, error) {
	var result Result
	total := collection.Count()

	for i := 0; i < total; i++ {
		delivery, err := collection.Next(ctx)
		if err != nil {
			return result, fmt.Errorf("sequencer: waiting for %s delivery %d/%d: %w", collection.Face(), i+1, total, err)
		}
		image := delivery.Image

		if delivery.Outcome != order.OutcomeDelivered || !image.Downloaded() {
			result.Skipped++
			s.reporter.Increment(progress.CounterUploaded)
			s.logger.Warn("image skipped, slots stay empty",
				logging.String(logging.FieldImage, image.Name),
				logging.String("card", image.DisplayName()),
				logging.String(logging.FieldFace, string(image.Face)),
				logging.Any("slots", image.Slots),
			)
			continue
		}

		s.logger.Info("uploading image",
			logging.String(logging.FieldImage, image.Name),
			logging.String("card", image.DisplayName()),
			logging.String(logging.FieldFace, string(image.Face)),
		)
		id, err := s.placer.Upload(ctx, image.Name, image.LocalPath)
		if err != nil {
			return result, fmt.Errorf("sequencer: upload %q: %w", image.Name, err)
		}

		if err := s.placer.Insert(ctx, id, image.Slots); err != nil {
			return result, fmt.Errorf("sequencer: insert %q: %w", image.Name, err)
		}

		result.Placed++
		s.reporter.Increment(progress.CounterUploaded)
	}

	return result, nil
}
