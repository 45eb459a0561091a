package progress

import (
	"context"
	"strings"
)

// Row is one card joined with its owning note, as read from the record store.
type Row struct {
	CardID   int64
	NoteID   int64
	Kind     Kind
	Queue    Queue
	Interval int
	// Tags is the note's space-separated tag string.
	Tags string
}

// TagRegistry enumerates every tag known to the collection.
type TagRegistry interface {
	AllTags(ctx context.Context) ([]string, error)
}

// RecordStore returns every card/note row in one bulk read.
type RecordStore interface {
	AllCardNoteRows(ctx context.Context) ([]Row, error)
}

// DifficultyProvider returns the externally computed difficulty of a card on
// a 1-10 scale. ok is false when the card carries no difficulty.
type DifficultyProvider interface {
	Difficulty(ctx context.Context, cardID int64) (d float64, ok bool, err error)
}

// ParseTags splits a space-separated tag string. Empty fields are dropped.
func ParseTags(s string) []string {
	return strings.Fields(s)
}

func lowerAll(tags []string) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = strings.ToLower(t)
	}
	return out
}
