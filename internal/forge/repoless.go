package forge

import (
	"context"
	"time"

	"github.com/relayforge/conductor/internal/model"
)

// runRepolessPhase creates a repo-less sandbox session and polls it
// to completion, bypassing the plan-approval and refinement phases
// entirely.
func (f *Forge) runRepolessPhase(ctx context.Context, mission model.Mission) model.MissionResult {
	session := f.Agent.CreateRepolessSession(ctx, mission.Description, mission.Title)
	if session == nil {
		return failResult(mission.Title, "failed to create repoless session")
	}

	for i := 0; i < f.Cfg.RepolessPollBudget; i++ {
		s := f.Agent.GetSession(ctx, session.ID)
		if s == nil {
			return failResult(mission.Title, "session disappeared during repoless poll")
		}

		switch s.Status {
		case model.StatusCompleted:
			return model.MissionResult{Title: mission.Title, Status: "SUCCESS", SessionID: s.ID}
		case model.StatusFailed, model.StatusError:
			return failResult(mission.Title, "repoless session failed")
		}

		select {
		case <-ctx.Done():
			return failResult(mission.Title, "cancelled")
		case <-time.After(f.Cfg.RepolessPollInterval):
		}
	}

	return failResult(mission.Title, "repoless session timed out")
}
