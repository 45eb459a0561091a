// Package deck parses YAML deck fixtures into collection records.
package deck

import (
	"fmt"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/tagprogress/internal/collection"
	"github.com/starford/tagprogress/internal/progress"
)

// Deck is a set of notes with their cards, plus registry-only tags.
type Deck struct {
	// Tags are registered even when no note carries them.
	Tags  []string `yaml:"tags"`
	Notes []Note   `yaml:"notes"`
}

// Note is one deck note. A zero ID is assigned on conversion.
type Note struct {
	ID    int64    `yaml:"id"`
	Tags  []string `yaml:"tags"`
	Cards []Card   `yaml:"cards"`
}

// Card is one deck card. Type and Queue take names (review, suspended...).
type Card struct {
	ID         int64    `yaml:"id"`
	Type       string   `yaml:"type"`
	Queue      string   `yaml:"queue"`
	Interval   int      `yaml:"ivl"`
	Difficulty *float64 `yaml:"difficulty"`
}

var kinds = map[string]progress.Kind{
	"new":        progress.KindNew,
	"learning":   progress.KindLearning,
	"review":     progress.KindReview,
	"relearning": progress.KindRelearning,
}

var queues = map[string]progress.Queue{
	"buried":       progress.QueueBuried,
	"suspended":    progress.QueueSuspended,
	"new":          progress.QueueNew,
	"learning":     progress.QueueLearn,
	"review":       progress.QueueReview,
	"day_learning": progress.QueueDayLearn,
}

func kindNames() []any {
	return []any{"new", "learning", "review", "relearning"}
}

func queueNames() []any {
	return []any{"buried", "suspended", "new", "learning", "review", "day_learning"}
}

// Validate validates the card.
func (c Card) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Type, validation.Required, validation.In(kindNames()...)),
		validation.Field(&c.Queue, validation.In(queueNames()...)),
		validation.Field(&c.Interval, validation.Min(0)),
		validation.Field(&c.Difficulty, validation.Min(1.0), validation.Max(10.0)),
	)
}

// Validate validates the note.
func (n Note) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.ID, validation.Min(int64(0))),
		validation.Field(&n.Cards),
	)
}

// Validate validates the deck.
func (d Deck) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Notes),
	)
}

// Parse decodes and validates a YAML deck.
func Parse(data []byte) (*Deck, error) {
	var d Deck
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("deck: parse: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("deck: invalid: %w", err)
	}
	return &d, nil
}

// Load reads and parses the deck file at path.
func Load(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("deck: read %s: %w", path, err)
	}
	return Parse(data)
}

// Records converts the deck into collection records. Missing IDs are
// numbered after the largest explicit ID. A card without a queue gets the
// queue matching its type. Registry-only tags are attached to a note
// without cards so they reach the tag registry.
func (d *Deck) Records() []collection.NoteRecord {
	var next int64
	for _, n := range d.Notes {
		next = max(next, n.ID)
		for _, c := range n.Cards {
			next = max(next, c.ID)
		}
	}
	nextID := func() int64 {
		next++
		return next
	}

	out := make([]collection.NoteRecord, 0, len(d.Notes)+1)
	for _, n := range d.Notes {
		rec := collection.NoteRecord{ID: n.ID, Tags: cleanTags(n.Tags)}
		if rec.ID == 0 {
			rec.ID = nextID()
		}
		for _, c := range n.Cards {
			cr := collection.CardRecord{
				ID:         c.ID,
				Kind:       kinds[c.Type],
				Interval:   c.Interval,
				Difficulty: c.Difficulty,
			}
			if cr.ID == 0 {
				cr.ID = nextID()
			}
			if q, ok := queues[c.Queue]; ok {
				cr.Queue = q
			} else {
				cr.Queue = defaultQueue(cr.Kind)
			}
			rec.Cards = append(rec.Cards, cr)
		}
		out = append(out, rec)
	}

	if tags := cleanTags(d.Tags); len(tags) > 0 {
		out = append(out, collection.NoteRecord{ID: nextID(), Tags: tags})
	}
	return out
}

func defaultQueue(k progress.Kind) progress.Queue {
	switch k {
	case progress.KindLearning, progress.KindRelearning:
		return progress.QueueLearn
	case progress.KindReview:
		return progress.QueueReview
	}
	return progress.QueueNew
}

// cleanTags drops blanks and splits entries containing spaces, since a note
// tag can never contain whitespace.
func cleanTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		out = append(out, strings.Fields(t)...)
	}
	return out
}
