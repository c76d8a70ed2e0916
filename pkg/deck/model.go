// Package deck builds PowerPoint decks from a JSON slide description.
package deck

import (
	"encoding/json"
	"fmt"

	"github.com/DrPeryCox/pres-gen-new/pkg/errs"
)

// Color is an RGB triple, serialized as a JSON array like [255, 255, 255].
type Color [3]uint8

// Hex returns the color as an RRGGBB hex string for OOXML attributes.
func (c Color) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c[0], c[1], c[2])
}

// ContentPart is one region of a slide. Exactly one of Content, BulletPoints,
// or Image may be set.
type ContentPart struct {
	Content            string   `json:"content,omitempty"`
	BulletPoints       []string `json:"bullet_points,omitempty"`
	BulletPointsHeader string   `json:"bullet_points_header,omitempty"`
	Image              string   `json:"image,omitempty"` // base64, optionally a data URI
	FontSize           int      `json:"font_size,omitempty"`
	FontColor          *Color   `json:"font_color,omitempty"`
}

// Meaningful reports whether the part carries any renderable content.
func (p *ContentPart) Meaningful() bool {
	if p == nil {
		return false
	}
	return p.Content != "" || len(p.BulletPoints) > 0 || p.Image != ""
}

func (p *ContentPart) validate() error {
	set := 0
	if p.Content != "" {
		set++
	}
	if len(p.BulletPoints) > 0 {
		set++
	}
	if p.Image != "" {
		set++
	}
	if set > 1 {
		return fmt.Errorf("only one of content, bullet_points, or image may be set")
	}
	return nil
}

// Slide is one slide of the deck. Start and End mark when the slide appears
// in the companion video; they do not affect the generated deck.
type Slide struct {
	Title      string `json:"title"`
	Background string `json:"background,omitempty"` // base64 image
	FontColor  *Color `json:"font_color,omitempty"`
	FontSize   int    `json:"font_size,omitempty"`

	Start float64 `json:"start,omitempty"`
	End   float64 `json:"end,omitempty"`

	LeftPart   *ContentPart `json:"left_part,omitempty"`
	CenterPart *ContentPart `json:"center_part,omitempty"`
	RightPart  *ContentPart `json:"right_part,omitempty"`
}

func (s *Slide) validate() error {
	if s.CenterPart.Meaningful() && (s.LeftPart.Meaningful() || s.RightPart.Meaningful()) {
		return fmt.Errorf("center_part cannot be combined with left_part/right_part")
	}
	for name, part := range map[string]*ContentPart{
		"left_part": s.LeftPart, "center_part": s.CenterPart, "right_part": s.RightPart,
	} {
		if part == nil {
			continue
		}
		if err := part.validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// Deck is the root of the slide description.
type Deck struct {
	Slides []Slide `json:"slides"`
}

// Defaults from the slide description format: title text at 24pt, part text
// at 16pt, black.
const (
	DefaultTitleFontSize = 24
	DefaultPartFontSize  = 16
)

// ParseDeck decodes and validates a JSON deck description.
func ParseDeck(data []byte) (Deck, error) {
	var d Deck
	if err := json.Unmarshal(data, &d); err != nil {
		return Deck{}, errs.New(errs.CodeDeckInvalid, "deck", "failed to decode deck JSON", err)
	}
	if err := d.Validate(); err != nil {
		return Deck{}, err
	}
	return d, nil
}

// Validate checks the whole deck, reporting the first offending slide.
func (d Deck) Validate() error {
	if len(d.Slides) == 0 {
		return errs.New(errs.CodeDeckInvalid, "deck", "deck must contain at least one slide", nil)
	}
	for i := range d.Slides {
		if err := d.Slides[i].validate(); err != nil {
			return errs.New(errs.CodeDeckInvalid, "deck", fmt.Sprintf("slide %d invalid", i+1), err)
		}
	}
	return nil
}
