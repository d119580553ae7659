// Package activeset is the durable record of Agent sessions Heart is
// watching, plus the per-session refinement-feedback counters it uses
// to decide when to stop auto-retrying a rejected plan and surface a
// decision to a human instead. Sessions Forge owns never enter this
// set — Forge drives its own sessions to completion directly. A
// session is registered here by whatever component hands it off to
// the watchdog (the Harvester, an ad-hoc CLI session, a webhook
// intake); Heart alone mutates it afterward.
package activeset

import (
	"sort"

	"github.com/relayforge/conductor/internal/store"
)

// record is the on-disk shape: active_sessions.json is a map from
// session ID to its refinement-feedback count.
type record struct {
	RefinementCount int `json:"refinement_count"`
}

// Set is a file-backed set of active session IDs with per-session
// refinement counts, safe for concurrent access via the shared
// store file lock.
type Set struct {
	path string
}

// New creates a Set backed by the JSON file at path.
func New(path string) *Set {
	return &Set{path: path}
}

func (s *Set) load() (map[string]record, error) {
	var data map[string]record
	if err := store.ReadJSON(s.path, &data); err != nil {
		return make(map[string]record), nil
	}
	if data == nil {
		data = make(map[string]record)
	}
	return data, nil
}

func (s *Set) save(data map[string]record) error {
	return store.WriteJSON(s.path, data)
}

// Add registers sessionID as active with a zero refinement count, if
// not already present.
func (s *Set) Add(sessionID string) error {
	return store.WithLock(s.path, store.DefaultLockTimeout, func() error {
		data, err := s.load()
		if err != nil {
			return err
		}
		if _, ok := data[sessionID]; !ok {
			data[sessionID] = record{}
		}
		return s.save(data)
	})
}

// Remove drops sessionID from the active set.
func (s *Set) Remove(sessionID string) error {
	return store.WithLock(s.path, store.DefaultLockTimeout, func() error {
		data, err := s.load()
		if err != nil {
			return err
		}
		delete(data, sessionID)
		return s.save(data)
	})
}

// List returns all active session IDs, sorted for deterministic
// iteration order in Heart's poll tick.
func (s *Set) List() ([]string, error) {
	var data map[string]record
	err := store.WithReadLock(s.path, store.DefaultLockTimeout, func() error {
		var err error
		data, err = s.load()
		return err
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(data))
	for id := range data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// RefinementCount returns the current feedback-retry count for
// sessionID, or 0 if it is not tracked.
func (s *Set) RefinementCount(sessionID string) (int, error) {
	var count int
	err := store.WithReadLock(s.path, store.DefaultLockTimeout, func() error {
		data, err := s.load()
		if err != nil {
			return err
		}
		count = data[sessionID].RefinementCount
		return nil
	})
	return count, err
}

// IncrementRefinementCount bumps sessionID's refinement count by one
// and returns the new value.
func (s *Set) IncrementRefinementCount(sessionID string) (int, error) {
	var count int
	err := store.WithLock(s.path, store.DefaultLockTimeout, func() error {
		data, err := s.load()
		if err != nil {
			return err
		}
		rec := data[sessionID]
		rec.RefinementCount++
		data[sessionID] = rec
		count = rec.RefinementCount
		return s.save(data)
	})
	return count, err
}
