// Package store persists settled layouts so a document reopens where it was
// left.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned when no layout is stored for a digest.
var ErrNotFound = errors.New("layout not found")

// Position is a stored node coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Snapshot is the saved layout of one document.
type Snapshot struct {
	Digest    string              `json:"digest"`
	Name      string              `json:"name"`
	SavedAt   time.Time           `json:"savedAt"`
	NodeCount int                 `json:"nodeCount"`
	Positions map[string]Position `json:"positions,omitempty"`
}

// Storer defines layout persistence.
type Storer interface {
	SaveLayout(s *Snapshot) error
	GetLayout(digest string) (*Snapshot, error)
	ListLayouts() ([]*Snapshot, error)
	DeleteLayout(digest string) error
	Close() error
}

// Digest identifies a document by its content.
func Digest(markup string) string {
	sum := sha256.Sum256([]byte(markup))
	return hex.EncodeToString(sum[:])
}

// MemStore keeps layouts in memory.
type MemStore struct {
	mu      sync.RWMutex
	layouts map[string]*Snapshot
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{layouts: make(map[string]*Snapshot)}
}

// Close is a no-op for MemStore.
func (s *MemStore) Close() error {
	return nil
}

func (s *MemStore) SaveLayout(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *snap
	c.Positions = make(map[string]Position, len(snap.Positions))
	for k, v := range snap.Positions {
		c.Positions[k] = v
	}
	c.NodeCount = len(c.Positions)
	s.layouts[snap.Digest] = &c
	return nil
}

func (s *MemStore) GetLayout(digest string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.layouts[digest]
	if !ok {
		return nil, ErrNotFound
	}
	c := *snap
	c.Positions = make(map[string]Position, len(snap.Positions))
	for k, v := range snap.Positions {
		c.Positions[k] = v
	}
	return &c, nil
}

func (s *MemStore) ListLayouts() ([]*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Snapshot, 0, len(s.layouts))
	for _, snap := range s.layouts {
		c := *snap
		c.Positions = nil
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	return out, nil
}

func (s *MemStore) DeleteLayout(digest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.layouts, digest)
	return nil
}

var _ Storer = (*MemStore)(nil)
