// Package history is the durable, append-only record of merged
// projects, surfaced verbatim by the HTTP decision surface's
// GET /history endpoint.
package history

import (
	"sort"
	"time"

	"github.com/relayforge/conductor/internal/store"
)

// Entry is one merged project, recorded at the moment a human decision
// accepts it.
type Entry struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	PRURL    string    `json:"pr_url"`
	MergedAt time.Time `json:"merged_at"`
}

// Store is a single JSON file holding every merge ever recorded.
type Store struct {
	path string
}

// New creates a Store backed by the JSON file at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Record appends an entry. Never rewrites or removes a prior one.
func (s *Store) Record(e Entry) error {
	return store.WithLock(s.path, store.DefaultLockTimeout, func() error {
		entries, err := s.readLocked()
		if err != nil {
			return err
		}
		entries = append(entries, e)
		return store.WriteJSON(s.path, entries)
	})
}

// List returns every recorded entry, newest first.
func (s *Store) List() ([]Entry, error) {
	var entries []Entry
	err := store.WithReadLock(s.path, store.DefaultLockTimeout, func() error {
		var err error
		entries, err = s.readLocked()
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].MergedAt.After(entries[j].MergedAt)
	})
	return entries, nil
}

func (s *Store) readLocked() ([]Entry, error) {
	var entries []Entry
	if err := store.ReadJSON(s.path, &entries); err != nil {
		return nil, nil
	}
	return entries, nil
}
