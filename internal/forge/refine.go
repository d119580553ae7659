package forge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/relayforge/conductor/internal/diffstat"
	"github.com/relayforge/conductor/internal/model"
)

const criticalIssueRefineThreshold = 2

// runRefinementPhase drives Phase B: iterative PR refinement bounded
// by Cfg.MaxIterations plus any adaptive bonus, with diff-change
// detection and a PASS/TRASH/REFINE dispatch per iteration.
func (f *Forge) runRefinementPhase(ctx context.Context, st *missionState) model.MissionResult {
	for st.iteration < f.Cfg.MaxIterations+st.bonusIterations {
		prURL, ok := f.waitForPR(ctx, st.sessionID)
		if !ok {
			return failResult(st.mission.Title, "PR did not open within the wait budget")
		}

		diff := f.Agent.GetGitPatch(ctx, st.sessionID)

		if diff == st.previousDiff {
			changed := f.waitForDiffChange(ctx, st.sessionID, st.previousDiff)
			if !changed {
				st.unchangedRetries++
				if st.unchangedRetries >= f.Cfg.MaxUnchangedRetries {
					f.cleanup(ctx, prURL, false)
					return failResult(st.mission.Title, fmt.Sprintf("unresponsive after %d unchanged diff cycles", st.unchangedRetries))
				}
				continue // does not consume an iteration
			}
			diff = f.Agent.GetGitPatch(ctx, st.sessionID)
		}
		st.unchangedRetries = 0
		st.previousDiff = diff

		st.iteration++

		judgment, err := f.Gate.Evaluate(ctx, st.mission, diff)
		if err != nil {
			return failResult(st.mission.Title, "quality gate error: "+err.Error())
		}

		if st.previousScore > 0 && judgment.Score-st.previousScore >= 5 {
			st.bonusIterations++
		}
		st.previousScore = judgment.Score

		switch judgment.Verdict {
		case model.VerdictPass:
			return f.stageSuccess(st, prURL, diff, judgment.Score)

		case model.VerdictTrash:
			f.cleanup(ctx, prURL, false)
			return failResult(st.mission.Title, "quality gate: "+judgment.Feedback)

		case model.VerdictRefine:
			if st.iteration >= f.Cfg.MaxIterations+st.bonusIterations {
				f.cleanup(ctx, prURL, false)
				return failResult(st.mission.Title, "refinement budget exhausted")
			}
			f.Agent.SendMessage(ctx, st.sessionID, buildRefineFeedback(judgment))

			sleep := f.Cfg.RefineSleep
			if len(judgment.CriticalIssues) > criticalIssueRefineThreshold {
				sleep = f.Cfg.RefineSleepCritical
			}
			select {
			case <-ctx.Done():
				return failResult(st.mission.Title, "cancelled")
			case <-time.After(sleep):
			}
		}
	}

	return failResult(st.mission.Title, "refinement budget exhausted")
}

// waitForPR polls up to Cfg.PRPollBudget times for a PR URL to
// appear, aborting immediately on FAILED.
func (f *Forge) waitForPR(ctx context.Context, sessionID string) (string, bool) {
	for i := 0; i < f.Cfg.PRPollBudget; i++ {
		session := f.Agent.GetSession(ctx, sessionID)
		if session == nil {
			return "", false
		}
		if session.Status == model.StatusFailed {
			return "", false
		}
		if session.PRURL != "" {
			return session.PRURL, true
		}

		select {
		case <-ctx.Done():
			return "", false
		case <-time.After(f.Cfg.PRPollInterval):
		}
	}
	return "", false
}

// waitForDiffChange actively polls for up to Cfg.UnchangedWaitBudget
// for the git patch to differ from previousDiff.
func (f *Forge) waitForDiffChange(ctx context.Context, sessionID, previousDiff string) bool {
	deadline := time.Now().Add(f.Cfg.UnchangedWaitBudget)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(f.Cfg.UnchangedPollInterval):
		}
		if f.Agent.GetGitPatch(ctx, sessionID) != previousDiff {
			return true
		}
	}
	return false
}

func (f *Forge) cleanup(ctx context.Context, prURL string, merge bool) {
	if prURL == "" {
		return
	}
	f.Git.CleanupPR(ctx, prURL, merge)
}

func (f *Forge) stageSuccess(st *missionState, prURL, diff string, score int) model.MissionResult {
	files, err := diffstat.FileStats(diff)
	if err != nil {
		files = nil
	}

	proj, err := f.Staging.StageProject(st.mission.Title, st.mission.Description, st.sessionID, prURL, diff, files)
	if err != nil {
		return failResult(st.mission.Title, "staging failed: "+err.Error())
	}

	return model.MissionResult{
		Title:     st.mission.Title,
		Status:    "SUCCESS",
		PRURL:     prURL,
		Score:     score,
		SessionID: proj.SessionID,
	}
}

// buildRefineFeedback renders a Quality Gate judgment into the
// follow-up instruction sent back to the Agent.
func buildRefineFeedback(j model.Judgment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current score: %d. %s\n", j.Score, j.Feedback)
	if len(j.CriticalIssues) > 0 {
		b.WriteString("Critical issues:\n")
		for _, issue := range j.CriticalIssues {
			fmt.Fprintf(&b, "- %s\n", issue)
		}
	}
	if j.GapAnalysis.PointsTo90 > 0 {
		fmt.Fprintf(&b, "Points needed to reach 90: %d\n", j.GapAnalysis.PointsTo90)
		for _, fix := range j.GapAnalysis.Fixes {
			fmt.Fprintf(&b, "- %s (+%d)\n", fix.Action, fix.Points)
		}
	}
	return b.String()
}
