// Package sqlite implements the Satchel repository interfaces over a local
// SQLite database, one typed accessor per content kind plus the space store.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// DBFileName is the database file created under the data directory.
const DBFileName = "satchel.db"

// Store owns the database handle. Typed accessors (Spaces, TaskLists,
// RefLists, Notes) share it; Close releases it.
type Store struct {
	db      *sql.DB
	dataDir string
}

// Open creates the data directory if needed, opens (or creates) the
// database, and applies the schema. The schema is idempotent; opening an
// existing database preserves its data.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, dataDir: dataDir}, nil
}

// Close releases the database handle. Idempotent.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Spaces returns the space repository accessor.
func (s *Store) Spaces() *SpaceStore { return &SpaceStore{store: s} }

// TaskLists returns the task-list repository accessor.
func (s *Store) TaskLists() *TaskListStore { return &TaskListStore{store: s} }

// RefLists returns the reference-list repository accessor.
func (s *Store) RefLists() *RefListStore { return &RefListStore{store: s} }

// Notes returns the note repository accessor.
func (s *Store) Notes() *NoteStore { return &NoteStore{store: s} }

// nextSortOrder computes the append position for new parent-level content.
// The unified view orders all three kinds together, so the maximum spans
// every content table in the space.
func (s *Store) nextSortOrder(ctx context.Context, spaceID string) (int, error) {
	var order int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(so), -1) + 1 FROM (
			SELECT sort_order AS so FROM task_lists WHERE space_id = ?
			UNION ALL SELECT sort_order FROM ref_lists WHERE space_id = ?
			UNION ALL SELECT sort_order FROM notes WHERE space_id = ?
		)`,
		spaceID, spaceID, spaceID,
	).Scan(&order)
	if err != nil {
		return 0, fmt.Errorf("computing sort order: %w", err)
	}
	return order, nil
}

// generateID returns a new UUID v7, falling back to v4 if v7 generation fails.
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
