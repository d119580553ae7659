// Package staging is the durable directory-per-project store that
// holds Forge's PASS outcomes until a human decides to merge, reject,
// or defer them. Each project lives under its own staging/<id>/
// directory until merged or rejected; rejection keeps only a skeleton
// metadata record for future dedup memory.
package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/relayforge/conductor/internal/gitwrapper"
	"github.com/relayforge/conductor/internal/model"
	"github.com/relayforge/conductor/internal/store"
)

const (
	metadataFile = "metadata.json"
	diffFile     = "diff.patch"
	filesFile    = "files.json"

	lockTimeout = store.DefaultLockTimeout
)

// Store is the directory-per-project staging area rooted at dir, with
// a sibling rejected/ directory for skeleton records.
type Store struct {
	dir         string
	rejectedDir string
	git         gitwrapper.Client
}

// New creates a Store rooted at dir (containing staging/ and
// rejected/ subdirectories), using git for merge/close/delete
// operations.
func New(dir string, git gitwrapper.Client) *Store {
	return &Store{
		dir:         filepath.Join(dir, "staging"),
		rejectedDir: filepath.Join(dir, "rejected"),
		git:         git,
	}
}

func (s *Store) projectDir(id string) string    { return filepath.Join(s.dir, id) }
func (s *Store) metadataPath(id string) string   { return filepath.Join(s.projectDir(id), metadataFile) }
func (s *Store) diffPath(id string) string       { return filepath.Join(s.projectDir(id), diffFile) }
func (s *Store) filesPath(id string) string      { return filepath.Join(s.projectDir(id), filesFile) }
func (s *Store) rejectedPath(id string) string   { return filepath.Join(s.rejectedDir, id, metadataFile) }

// StageProject writes a new StagedProject record, its diff, and its
// file stats under a freshly assigned ID. Returns the staged
// project as persisted.
func (s *Store) StageProject(title, description, sessionID, prURL, diff string, files []model.FileStat) (model.StagedProject, error) {
	proj := model.StagedProject{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		SessionID:   sessionID,
		PRURL:       prURL,
		StagedAt:    time.Now(),
		Status:      model.StagedStatusStaged,
		FilesCount:  len(files),
	}
	for _, f := range files {
		proj.Additions += f.Additions
		proj.Deletions += f.Deletions
	}

	if err := os.MkdirAll(s.projectDir(proj.ID), 0755); err != nil {
		return model.StagedProject{}, err
	}
	err := store.WithLock(s.metadataPath(proj.ID), lockTimeout, func() error {
		if err := store.WriteJSON(s.metadataPath(proj.ID), proj); err != nil {
			return err
		}
		if err := os.MkdirAll(s.projectDir(proj.ID), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(s.diffPath(proj.ID), []byte(diff), 0644); err != nil {
			return fmt.Errorf("writing diff for %s: %w", proj.ID, err)
		}
		return store.WriteJSON(s.filesPath(proj.ID), files)
	})
	if err != nil {
		return model.StagedProject{}, err
	}
	return proj, nil
}

// ListStagedProjects returns every staged project, newest-staged
// first.
func (s *Store) ListStagedProjects() ([]model.StagedProject, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing staging directory: %w", err)
	}

	var projects []model.StagedProject
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		proj, err := s.GetProject(e.Name())
		if err != nil {
			continue
		}
		projects = append(projects, proj)
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].StagedAt.After(projects[j].StagedAt)
	})
	return projects, nil
}

// GetProject reads a single staged project's metadata by ID.
func (s *Store) GetProject(id string) (model.StagedProject, error) {
	var proj model.StagedProject
	err := store.WithReadLock(s.metadataPath(id), lockTimeout, func() error {
		return store.ReadJSON(s.metadataPath(id), &proj)
	})
	if err != nil {
		return model.StagedProject{}, fmt.Errorf("getting project %s: %w", id, err)
	}
	return proj, nil
}

// GetProjectDiff returns the stored unified diff for id.
func (s *Store) GetProjectDiff(id string) (string, error) {
	data, err := os.ReadFile(s.diffPath(id))
	if err != nil {
		return "", fmt.Errorf("getting diff for %s: %w", id, err)
	}
	return string(data), nil
}

// GetProjectFiles returns the per-file stats stored for id.
func (s *Store) GetProjectFiles(id string) ([]model.FileStat, error) {
	var files []model.FileStat
	if err := store.ReadJSON(s.filesPath(id), &files); err != nil {
		return nil, fmt.Errorf("getting files for %s: %w", id, err)
	}
	return files, nil
}

// UpdateStatus rewrites the status field of a staged project in
// place.
func (s *Store) UpdateStatus(id string, status model.StagedStatus) error {
	return store.WithLock(s.metadataPath(id), lockTimeout, func() error {
		var proj model.StagedProject
		if err := store.ReadJSON(s.metadataPath(id), &proj); err != nil {
			return err
		}
		proj.Status = status
		return store.WriteJSON(s.metadataPath(id), proj)
	})
}

// SetPending marks a staged project PENDING, a human-acknowledged
// holding state short of a final decision.
func (s *Store) SetPending(id string) error {
	return s.UpdateStatus(id, model.StagedStatusPending)
}
