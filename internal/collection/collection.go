package collection

import (
	"context"

	"github.com/starford/tagprogress/internal/progress"
)

// Store is everything the services need from a collection. Consumers depend
// on it rather than on *DB so tests can substitute fakes.
type Store interface {
	progress.TagRegistry
	progress.RecordStore
	progress.DifficultyProvider
	Counts(ctx context.Context) (notes, cards int, err error)
	Import(ctx context.Context, notes []NoteRecord) error
	Path() string
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
