package order

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Face identifies which print side of the order an image belongs to.
type Face string

const (
	FaceFront Face = "front"
	FaceBack  Face = "back"
)

// Outcome is the typed result a delivery carries through the queue, so the
// sequencer can tell a skipped image from one that is ready to upload.
type Outcome string

const (
	// OutcomeDelivered means the image bytes are present locally.
	OutcomeDelivered Outcome = "delivered"
	// OutcomeSkipped means the fetch failed and the image's slots stay empty.
	OutcomeSkipped Outcome = "skipped"
)

// CardImage is the canonical record for one image to be placed. Identity
// fields are fixed at construction; only the downloaded flag changes, set
// exactly once by the download pipeline.
type CardImage struct {
	Name      string
	Source    string
	LocalPath string
	Face      Face
	Slots     []int

	downloaded atomic.Bool
}

// NewCardImage validates and constructs a card image. Slots must be
// non-negative and unique within one image.
func NewCardImage(name, source, localPath string, face Face, slots []int) (*CardImage, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("card image: name is required")
	}
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("card image %q: source is required", name)
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("card image %q: at least one slot is required", name)
	}
	seen := make(map[int]struct{}, len(slots))
	for _, slot := range slots {
		if slot < 0 {
			return nil, fmt.Errorf("card image %q: slot %d is negative", name, slot)
		}
		if _, dup := seen[slot]; dup {
			return nil, fmt.Errorf("card image %q: slot %d appears more than once", name, slot)
		}
		seen[slot] = struct{}{}
	}
	return &CardImage{
		Name:      name,
		Source:    source,
		LocalPath: localPath,
		Face:      face,
		Slots:     append([]int(nil), slots...),
	}, nil
}

// MarkDownloaded flips the downloaded flag. It reports false when the flag
// was already set, which callers treat as a double-publish bug.
func (c *CardImage) MarkDownloaded() bool {
	return c.downloaded.CompareAndSwap(false, true)
}

// Downloaded reports whether the image bytes are available locally.
func (c *CardImage) Downloaded() bool {
	return c.downloaded.Load()
}

var titleCaser = cases.Title(language.English)

// DisplayName renders the image name for status lines: extension stripped,
// words title-cased.
func (c *CardImage) DisplayName() string {
	stem := strings.TrimSuffix(c.Name, filepath.Ext(c.Name))
	stem = strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	return titleCaser.String(strings.TrimSpace(stem))
}

// Delivery is one entry on a collection's delivery queue.
type Delivery struct {
	Image   *CardImage
	Outcome Outcome
}
