// Package testutil provides shared test helpers for setting up collections
// and state files.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/starford/tagprogress/internal/collection"
	"github.com/starford/tagprogress/internal/deck"
	"github.com/starford/tagprogress/internal/storage"
)

// SampleDeck is a small deck covering items, SDD and subject tags.
const SampleDeck = `
tags: ["Matière::Pneumo"]
notes:
  - id: 1
    tags: ["EDN::item-001-Alpha", "Matière::Cardio"]
    cards:
      - {id: 101, type: review, ivl: 40, difficulty: 3}
      - {id: 102, type: review, ivl: 30, difficulty: 5}
  - id: 2
    tags: ["EDN::item-001-Alpha::Sub"]
    cards:
      - {id: 201, type: new}
  - id: 3
    tags: ["EDN::item-002-Beta", "rang::A"]
    cards:
      - {id: 301, type: review, ivl: 5, difficulty: 8}
  - id: 4
    tags: ["EDN::item-003-Gamma"]
    cards:
      - {id: 401, type: review, queue: suspended, ivl: 50}
  - id: 5
    tags: ["EDN::SDD-010-Douleur"]
    cards:
      - {id: 501, type: learning}
`

// TestCollection creates a writable temporary collection that is closed on
// cleanup.
func TestCollection(t *testing.T) *collection.DB {
	t.Helper()
	db, err := collection.Open(filepath.Join(t.TempDir(), "collection.anki2"), false)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// SeededCollection creates a temporary collection loaded with SampleDeck.
func SeededCollection(t *testing.T) *collection.DB {
	t.Helper()
	db := TestCollection(t)
	Seed(t, db, SampleDeck)
	return db
}

// Seed imports a YAML deck into db.
func Seed(t *testing.T, db *collection.DB, yamlDeck string) {
	t.Helper()
	d, err := deck.Parse([]byte(yamlDeck))
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Import(context.Background(), d.Records()); err != nil {
		t.Fatal(err)
	}
}

// TestState creates a state file provider in a temporary directory.
func TestState(t *testing.T) *storage.FS {
	t.Helper()
	fs, err := storage.NewFS(filepath.Join(t.TempDir(), "user_state.json"))
	if err != nil {
		t.Fatal(err)
	}
	return fs
}
