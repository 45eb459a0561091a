package collection

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/tagprogress/internal/apperr"
	"github.com/starford/tagprogress/internal/progress"
)

// NoteRecord is a note with its cards, as written by Import.
type NoteRecord struct {
	ID    int64
	Tags  []string
	Cards []CardRecord
}

// CardRecord is one card of a NoteRecord. Difficulty is the FSRS difficulty
// on a 1-10 scale; nil leaves the card without memory state.
type CardRecord struct {
	ID         int64
	Kind       progress.Kind
	Queue      progress.Queue
	Interval   int
	Difficulty *float64
}

// memoryState is the part of cards.data holding FSRS parameters.
type memoryState struct {
	Difficulty *float64 `json:"d,omitempty"`
	Stability  *float64 `json:"s,omitempty"`
}

// AllTags returns every tag of the tag registry, sorted.
func (db *DB) AllTags(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT tag FROM tags ORDER BY tag`)
	if err != nil {
		return nil, fmt.Errorf("collection: all tags: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("collection: scan tag: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AllCardNoteRows reads every card joined with its note in one query.
// A type or queue that is missing or not an integer comes back as -9 so the
// card classifies as other; such an interval comes back as 0.
func (db *DB) AllCardNoteRows(ctx context.Context) ([]progress.Row, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT c.id, c.nid,
		       CASE typeof(c.type) WHEN 'integer' THEN c.type ELSE -9 END,
		       CASE typeof(c.queue) WHEN 'integer' THEN c.queue ELSE -9 END,
		       CASE typeof(c.ivl)
		           WHEN 'integer' THEN c.ivl
		           WHEN 'real' THEN CAST(c.ivl AS INTEGER)
		           ELSE 0
		       END,
		       CASE typeof(n.tags) WHEN 'text' THEN n.tags ELSE '' END
		FROM cards c
		JOIN notes n ON n.id = c.nid
		ORDER BY c.nid, c.id
	`)
	if err != nil {
		return nil, fmt.Errorf("collection: query rows: %w", err)
	}
	defer rows.Close()

	var out []progress.Row
	for rows.Next() {
		var r progress.Row
		if err := rows.Scan(&r.CardID, &r.NoteID, &r.Kind, &r.Queue, &r.Interval, &r.Tags); err != nil {
			return nil, fmt.Errorf("collection: scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Difficulty returns the FSRS difficulty stored in the card's data column.
// Cards without memory state return ok=false.
func (db *DB) Difficulty(ctx context.Context, cardID int64) (float64, bool, error) {
	var data string
	err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(data, '') FROM cards WHERE id = ?`, cardID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("collection: card %d: %w", cardID, err)
	}
	if strings.TrimSpace(data) == "" {
		return 0, false, nil
	}

	var ms memoryState
	if err := json.Unmarshal([]byte(data), &ms); err != nil {
		return 0, false, fmt.Errorf("collection: card %d data: %w", cardID, err)
	}
	if ms.Difficulty == nil {
		return 0, false, nil
	}
	return *ms.Difficulty, true, nil
}

// Counts returns the number of notes and cards in the collection.
func (db *DB) Counts(ctx context.Context) (notes, cards int, err error) {
	err = db.conn.QueryRowContext(ctx,
		`SELECT (SELECT count(*) FROM notes), (SELECT count(*) FROM cards)`).Scan(&notes, &cards)
	if err != nil {
		return 0, 0, fmt.Errorf("collection: counts: %w", err)
	}
	return notes, cards, nil
}

// Import upserts notes with their cards and registers their tags, within a
// single transaction. A note's previous cards are replaced.
func (db *DB) Import(ctx context.Context, notes []NoteRecord) error {
	if db.readOnly {
		return fmt.Errorf("collection: import: %w", apperr.ErrReadOnly)
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("collection: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	noteStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO notes (id, tags) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET tags = excluded.tags
	`)
	if err != nil {
		return fmt.Errorf("collection: prepare note upsert: %w", err)
	}
	defer noteStmt.Close()

	cardStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cards (id, nid, type, queue, ivl, data) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			nid   = excluded.nid,
			type  = excluded.type,
			queue = excluded.queue,
			ivl   = excluded.ivl,
			data  = excluded.data
	`)
	if err != nil {
		return fmt.Errorf("collection: prepare card upsert: %w", err)
	}
	defer cardStmt.Close()

	tagStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO tags (tag) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("collection: prepare tag insert: %w", err)
	}
	defer tagStmt.Close()

	for _, n := range notes {
		if _, err := noteStmt.ExecContext(ctx, n.ID, joinTags(n.Tags)); err != nil {
			return fmt.Errorf("collection: upsert note %d: %w", n.ID, err)
		}
		for _, t := range n.Tags {
			if _, err := tagStmt.ExecContext(ctx, t); err != nil {
				return fmt.Errorf("collection: register tag %q: %w", t, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE nid = ?`, n.ID); err != nil {
			return fmt.Errorf("collection: clear cards of note %d: %w", n.ID, err)
		}
		for _, c := range n.Cards {
			data, err := encodeData(c.Difficulty)
			if err != nil {
				return err
			}
			if _, err := cardStmt.ExecContext(ctx, c.ID, n.ID, int(c.Kind), int(c.Queue), c.Interval, data); err != nil {
				return fmt.Errorf("collection: upsert card %d: %w", c.ID, err)
			}
		}
	}
	return tx.Commit()
}

// joinTags renders tags the way the collection stores them: space separated
// with a leading and trailing space.
func joinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return " " + strings.Join(tags, " ") + " "
}

func encodeData(difficulty *float64) (string, error) {
	if difficulty == nil {
		return "", nil
	}
	b, err := json.Marshal(memoryState{Difficulty: difficulty})
	if err != nil {
		return "", fmt.Errorf("collection: encode card data: %w", err)
	}
	return string(b), nil
}
