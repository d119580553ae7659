// Package notifier is the durable, append-only record of user-visible
// events Heart and Forge raise — security rejections, sandbox
// failures, and decision prompts awaiting a human's MERGE/PENDING/
// REJECT call. Surfaced verbatim by the HTTP decision surface's
// GET/POST /notifications endpoints.
package notifier

import (
	"sort"

	"github.com/relayforge/conductor/internal/model"
	"github.com/relayforge/conductor/internal/store"
)

// Store is a single JSON file holding every notification ever raised,
// keyed by DedupKey so a poll tick that re-observes the same
// condition never raises it twice.
type Store struct {
	path string
}

// New creates a Store backed by the JSON file at path.
func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) load() (map[string]model.Notification, error) {
	var data map[string]model.Notification
	if err := store.ReadJSON(s.path, &data); err != nil {
		return make(map[string]model.Notification), nil
	}
	if data == nil {
		data = make(map[string]model.Notification)
	}
	return data, nil
}

// Record persists n, keyed by its DedupKey. A notification with a
// DedupKey already on file is left untouched — the first raise wins.
func (s *Store) Record(n model.Notification) error {
	return store.WithLock(s.path, store.DefaultLockTimeout, func() error {
		data, err := s.load()
		if err != nil {
			return err
		}
		if _, exists := data[n.DedupKey]; exists {
			return nil
		}
		data[n.DedupKey] = n
		return store.WriteJSON(s.path, data)
	})
}

// List returns every recorded notification, newest first.
func (s *Store) List() ([]model.Notification, error) {
	var data map[string]model.Notification
	err := store.WithReadLock(s.path, store.DefaultLockTimeout, func() error {
		var err error
		data, err = s.load()
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.Notification, 0, len(data))
	for _, n := range data {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
