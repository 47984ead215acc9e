package order

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Details carries the order-wide options applied on the first wizard page.
type Details struct {
	Quantity int
	Bracket  int
	Stock    string
	Foil     bool
}

// Order is the fully loaded card order: global options plus one image
// collection per face. Read-only after construction.
type Order struct {
	Details Details
	Fronts  *CardImageCollection
	Backs   *CardImageCollection
}

// Count returns the total number of images across both faces.
func (o *Order) Count() int {
	return o.Fronts.Count() + o.Backs.Count()
}

// xmlOrder mirrors the on-disk order document.
type xmlOrder struct {
	XMLName  xml.Name   `xml:"order"`
	Details  xmlDetails `xml:"details"`
	Fronts   xmlFace    `xml:"fronts"`
	Backs    xmlFace    `xml:"backs"`
	Cardback string     `xml:"cardback"`
}

type xmlDetails struct {
	Quantity int    `xml:"quantity"`
	Bracket  int    `xml:"bracket"`
	Stock    string `xml:"stock"`
	Foil     bool   `xml:"foil"`
}

type xmlFace struct {
	Cards []xmlCard `xml:"card"`
}

type xmlCard struct {
	ID    string `xml:"id"`
	Slots string `xml:"slots"`
	Name  string `xml:"name"`
	Query string `xml:"query"`
}

// Load parses and validates the order document at path. Image local paths
// are placed under cacheDir.
func Load(path, cacheDir string) (*Order, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read order file: %w", err)
	}

	var doc xmlOrder
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse order file %s: %w", path, err)
	}

	details := Details{
		Quantity: doc.Details.Quantity,
		Bracket:  doc.Details.Bracket,
		Stock:    strings.TrimSpace(doc.Details.Stock),
		Foil:     doc.Details.Foil,
	}
	if details.Quantity < 1 {
		return nil, fmt.Errorf("order details: quantity must be positive, got %d", details.Quantity)
	}
	if details.Bracket < details.Quantity {
		return nil, fmt.Errorf("order details: bracket %d is smaller than quantity %d", details.Bracket, details.Quantity)
	}
	if details.Stock == "" {
		return nil, fmt.Errorf("order details: stock is required")
	}

	fronts, err := buildFace(FaceFront, doc.Fronts.Cards, cacheDir)
	if err != nil {
		return nil, err
	}

	backCards := doc.Backs.Cards
	if len(backCards) == 0 {
		// A common cardback covers every back slot through same-image mode,
		// so a single slot is enough.
		cardback := strings.TrimSpace(doc.Cardback)
		if cardback == "" {
			return nil, fmt.Errorf("order: no back images and no cardback given")
		}
		backCards = []xmlCard{{ID: cardback, Slots: "0", Name: "cardback"}}
	}
	backs, err := buildFace(FaceBack, backCards, cacheDir)
	if err != nil {
		return nil, err
	}

	return &Order{
		Details: details,
		Fronts:  fronts,
		Backs:   backs,
	}, nil
}

func buildFace(face Face, cards []xmlCard, cacheDir string) (*CardImageCollection, error) {
	images := make([]*CardImage, 0, len(cards))
	for i, card := range cards {
		name := strings.TrimSpace(card.Name)
		if name == "" {
			name = strings.TrimSpace(card.Query)
		}
		if name == "" {
			name = fmt.Sprintf("%s-%d", face, i)
		}
		slots, err := parseSlots(card.Slots)
		if err != nil {
			return nil, fmt.Errorf("order %s card %q: %w", face, name, err)
		}
		local := filepath.Join(cacheDir, sanitizeFileName(name))
		img, err := NewCardImage(name, strings.TrimSpace(card.ID), local, face, slots)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", face, err)
		}
		images = append(images, img)
	}
	return NewCollection(face, images), nil
}

func parseSlots(raw string) ([]int, error) {
	fields := strings.Split(raw, ",")
	slots := make([]int, 0, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		slot, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid slot %q", field)
		}
		slots = append(slots, slot)
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("no slots given")
	}
	return slots, nil
}

// sanitizeFileName keeps cached image files inside the cache directory even
// when order names contain separators or traversal sequences.
func sanitizeFileName(name string) string {
	replaced := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '\x00':
			return '_'
		default:
			return r
		}
	}, name)
	replaced = strings.TrimLeft(replaced, ".")
	if replaced == "" {
		replaced = "image"
	}
	return replaced
}
