package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the SQLite-backed layout store.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS layouts (
    digest TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    saved_at INTEGER NOT NULL,
    node_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS positions (
    digest TEXT NOT NULL REFERENCES layouts(digest) ON DELETE CASCADE,
    node_id TEXT NOT NULL,
    x REAL NOT NULL,
    y REAL NOT NULL,
    PRIMARY KEY (digest, node_id)
);

CREATE INDEX IF NOT EXISTS idx_layouts_saved ON layouts(saved_at);
`

// NewSQLiteStore creates an in-memory SQLite store.
func NewSQLiteStore() (*SQLiteStore, error) {
	return OpenSQLiteStore(":memory:")
}

// OpenSQLiteStore opens (or creates) a store at path. Use ":memory:" for a
// throwaway database.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// one connection so an in-memory database is shared by every query
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting WAL mode: %w", err)
		}
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *SQLiteStore) SaveLayout(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM positions WHERE digest = ?`, snap.Digest); err != nil {
		return fmt.Errorf("clearing positions: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO layouts (digest, name, saved_at, node_count) VALUES (?, ?, ?, ?)
		ON CONFLICT(digest) DO UPDATE SET name = excluded.name, saved_at = excluded.saved_at, node_count = excluded.node_count
	`, snap.Digest, snap.Name, snap.SavedAt.UnixMilli(), len(snap.Positions))
	if err != nil {
		return fmt.Errorf("saving layout: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO positions (digest, node_id, x, y) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for id, p := range snap.Positions {
		if _, err := stmt.Exec(snap.Digest, id, p.X, p.Y); err != nil {
			return fmt.Errorf("saving position of %s: %w", id, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetLayout(digest string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap Snapshot
	var savedAt int64
	err := s.db.QueryRow(`SELECT digest, name, saved_at, node_count FROM layouts WHERE digest = ?`, digest).
		Scan(&snap.Digest, &snap.Name, &savedAt, &snap.NodeCount)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	snap.SavedAt = time.UnixMilli(savedAt)

	rows, err := s.db.Query(`SELECT node_id, x, y FROM positions WHERE digest = ?`, digest)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap.Positions = make(map[string]Position)
	for rows.Next() {
		var id string
		var p Position
		if err := rows.Scan(&id, &p.X, &p.Y); err != nil {
			return nil, err
		}
		snap.Positions[id] = p
	}
	return &snap, rows.Err()
}

func (s *SQLiteStore) ListLayouts() ([]*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT digest, name, saved_at, node_count FROM layouts ORDER BY saved_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Snapshot, 0)
	for rows.Next() {
		var snap Snapshot
		var savedAt int64
		if err := rows.Scan(&snap.Digest, &snap.Name, &savedAt, &snap.NodeCount); err != nil {
			return nil, err
		}
		snap.SavedAt = time.UnixMilli(savedAt)
		out = append(out, &snap)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteLayout(digest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM layouts WHERE digest = ?`, digest)
	return err
}

var _ Storer = (*SQLiteStore)(nil)
