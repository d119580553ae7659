package staging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/relayforge/conductor/internal/model"
	"github.com/relayforge/conductor/internal/store"
)

// AcceptProject merges the project's PR via the git wrapper. On
// success the status moves to MERGED and the on-disk folder is
// removed; on failure the project stays in STAGED so it can be
// retried.
func (s *Store) AcceptProject(ctx context.Context, id string) error {
	proj, err := s.GetProject(id)
	if err != nil {
		return err
	}

	merged, err := s.git.MergePR(ctx, proj.PRURL, true)
	if err != nil || !merged {
		slog.Warn("accept_project: merge failed, leaving project staged", "id", id, "pr", proj.PRURL, "error", err)
		return fmt.Errorf("merging PR for project %s: %w", id, err)
	}

	if err := s.UpdateStatus(id, model.StagedStatusMerged); err != nil {
		return fmt.Errorf("recording merged status for %s: %w", id, err)
	}
	return os.RemoveAll(s.projectDir(id))
}

// RejectProject closes the PR and deletes its branch via the git
// wrapper (failures there are logged but non-fatal), then writes a
// skeleton metadata record to the rejected/ folder and deletes the
// staging folder entirely.
func (s *Store) RejectProject(ctx context.Context, id, reason string) error {
	proj, err := s.GetProject(id)
	if err != nil {
		return err
	}

	branch, err := s.git.GetPRBranch(ctx, proj.PRURL)
	if err != nil {
		slog.Warn("reject_project: could not resolve PR branch", "id", id, "pr", proj.PRURL, "error", err)
	}
	if err := s.git.ClosePR(ctx, proj.PRURL); err != nil {
		slog.Warn("reject_project: close PR failed", "id", id, "pr", proj.PRURL, "error", err)
	}
	if branch != "" {
		if err := s.git.DeleteBranch(ctx, proj.PRURL, branch); err != nil {
			slog.Warn("reject_project: delete branch failed", "id", id, "branch", branch, "error", err)
		}
	}

	skeleton := model.RejectedMetadata{
		ID:         proj.ID,
		Title:      proj.Title,
		SessionID:  proj.SessionID,
		RejectedAt: time.Now(),
		Reason:     reason,
	}
	if err := store.WriteJSON(s.rejectedPath(id), skeleton); err != nil {
		return fmt.Errorf("writing rejected metadata for %s: %w", id, err)
	}

	return os.RemoveAll(s.projectDir(id))
}

// RejectSession records a rejected-skeleton metadata entry for a
// session that was never staged — used by Heart when the Sanitizer,
// Sandbox, or test-file rule rejects a PR before it ever reaches the
// Quality Gate. Closes the PR and deletes its branch the same way
// RejectProject does, but skips reading/removing a staging folder
// since none exists yet.
func (s *Store) RejectSession(ctx context.Context, title, sessionID, prURL, reason string) error {
	branch, err := s.git.GetPRBranch(ctx, prURL)
	if err != nil {
		slog.Warn("reject_session: could not resolve PR branch", "session", sessionID, "pr", prURL, "error", err)
	}
	if err := s.git.ClosePR(ctx, prURL); err != nil {
		slog.Warn("reject_session: close PR failed", "session", sessionID, "pr", prURL, "error", err)
	}
	if branch != "" {
		if err := s.git.DeleteBranch(ctx, prURL, branch); err != nil {
			slog.Warn("reject_session: delete branch failed", "session", sessionID, "branch", branch, "error", err)
		}
	}

	id := uuid.NewString()
	skeleton := model.RejectedMetadata{
		ID:         id,
		Title:      title,
		SessionID:  sessionID,
		RejectedAt: time.Now(),
		Reason:     reason,
	}
	if err := store.WriteJSON(s.rejectedPath(id), skeleton); err != nil {
		return fmt.Errorf("writing rejected metadata for session %s: %w", sessionID, err)
	}
	return nil
}

// IsRejected reports whether a project with the given title has
// previously been rejected, for Council's mission-title skip check.
func (s *Store) IsRejected(title string) bool {
	entries, err := readRejectedEntries(s.rejectedDir)
	if err != nil {
		return false
	}
	for _, rec := range entries {
		if rec.Title == title {
			return true
		}
	}
	return false
}

// ListRejected returns every rejected-skeleton record, newest first.
func (s *Store) ListRejected() ([]model.RejectedMetadata, error) {
	entries, err := readRejectedEntries(s.rejectedDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RejectedAt.After(entries[j].RejectedAt)
	})
	return entries, nil
}

func readRejectedEntries(dir string) ([]model.RejectedMetadata, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []model.RejectedMetadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		var rec model.RejectedMetadata
		path := filepath.Join(dir, e.Name(), metadataFile)
		if err := store.ReadJSON(path, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
