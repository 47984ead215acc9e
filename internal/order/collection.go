package order

import (
	"context"
	"fmt"
	"sync"
)

// CardImageCollection holds one face's images in their canonical order plus
// the delivery queue the download pipeline publishes into. The queue is
// sized to the image count and accepts each image at most once, so producers
// never block and the single consumer can pop exactly Count entries.
type CardImageCollection struct {
	face   Face
	cards  []*CardImage
	queue  chan Delivery
	mu     sync.Mutex
	pushed map[*CardImage]struct{}
}

// NewCollection builds a collection for one face. The slice defines the
// canonical count and order; it is not copied defensively because the order
// loader owns construction.
func NewCollection(face Face, cards []*CardImage) *CardImageCollection {
	return &CardImageCollection{
		face:   face,
		cards:  cards,
		queue:  make(chan Delivery, len(cards)),
		pushed: make(map[*CardImage]struct{}, len(cards)),
	}
}

// Face returns the print side this collection belongs to.
func (c *CardImageCollection) Face() Face { return c.face }

// Cards returns the canonical image sequence.
func (c *CardImageCollection) Cards() []*CardImage { return c.cards }

// Count returns the number of images in the collection.
func (c *CardImageCollection) Count() int { return len(c.cards) }

// Push publishes an image's terminal outcome onto the delivery queue.
// A delivered outcome requires the downloaded flag to be set first, and no
// image may be published twice.
func (c *CardImageCollection) Push(img *CardImage, outcome Outcome) error {
	if img == nil {
		return fmt.Errorf("collection %s: push of nil image", c.face)
	}
	if outcome == OutcomeDelivered && !img.Downloaded() {
		return fmt.Errorf("collection %s: image %q delivered before download completed", c.face, img.Name)
	}

	c.mu.Lock()
	if _, dup := c.pushed[img]; dup {
		c.mu.Unlock()
		return fmt.Errorf("collection %s: image %q pushed twice", c.face, img.Name)
	}
	c.pushed[img] = struct{}{}
	c.mu.Unlock()

	select {
	case c.queue <- Delivery{Image: img, Outcome: outcome}:
		return nil
	default:
		// Unreachable while the at-most-once guard holds; the queue is sized
		// to the image count.
		return fmt.Errorf("collection %s: delivery queue full", c.face)
	}
}

// Next blocks until the pipeline publishes the next delivery or the context
// is cancelled. This is the suspension point that couples download speed to
// sequencer progress.
func (c *CardImageCollection) Next(ctx context.Context) (Delivery, error) {
	select {
	case d := <-c.queue:
		return d, nil
	case <-ctx.Done():
		return Delivery{}, ctx.Err()
	}
}

// Pending returns how many deliveries are queued but not yet consumed.
func (c *CardImageCollection) Pending() int { return len(c.queue) }
