// Package order models a card order: per-image records, the per-face image
// collections with their delivery queues, and the XML order-file loader.
//
// A CardImage is immutable apart from its downloaded flag, which the
// download pipeline sets exactly once. Each face's CardImageCollection owns
// a FIFO delivery queue sized to its image count; the pipeline's workers
// publish typed outcomes (delivered or skipped) into it and the sequencer is
// the single consumer. The collection enforces the queue invariants:
// at most one entry per image, delivered only after the download flag is set.
package order
