package forge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/relayforge/conductor/internal/agentclient"
	"github.com/relayforge/conductor/internal/model"
)

// runPlanPhase drives Phase A: up to Cfg.MaxPlanAttempts fresh
// sessions, each polled until AWAITING_PLAN_APPROVAL, critiqued, and
// either approved or retried with accumulated feedback. An attempt whose
// session reaches a terminal status mid-poll, or never reaches
// AWAITING_PLAN_APPROVAL, is abandoned and the next attempt starts.
// Returns ok=false with a FAILED result once every attempt is exhausted.
func (f *Forge) runPlanPhase(ctx context.Context, st *missionState) (model.MissionResult, bool) {
	for attempt := 0; attempt < f.Cfg.MaxPlanAttempts; attempt++ {
		prompt := buildPlanPrompt(st.mission, st.feedbackHist)

		session := f.Agent.CreateSession(ctx, prompt, st.mission.Title, agentclient.CreateSessionOpts{
			AutoCreatePR:        true,
			RequirePlanApproval: true,
		})
		if session == nil {
			continue
		}
		st.sessionID = session.ID

		status, terminal := f.pollUntil(ctx, session.ID, f.Cfg.PlanPollBudget, f.Cfg.PlanPollInterval, func(s model.SessionStatus) bool {
			return s == model.StatusAwaitingPlanApproval
		})
		if terminal {
			continue
		}
		if status != model.StatusAwaitingPlanApproval {
			continue
		}

		plan := f.Agent.GetPlan(ctx, session.ID)
		if plan == nil {
			continue
		}

		critique := f.Critic.Critique(ctx, st.mission.Description, plan.Text)
		if critique.Approved {
			if f.Agent.ApprovePlan(ctx, session.ID) {
				return model.MissionResult{}, true
			}
			continue
		}

		st.feedbackHist = append(st.feedbackHist, critique.ImprovementPrompt)
	}

	return failResult(st.mission.Title, "plan approval exhausted after max attempts"), false
}

// buildPlanPrompt concatenates the mission prompt with any previous
// plan-critique feedback as an enumerated "PREVIOUS PLAN FEEDBACK"
// section, so each retried session sees why its predecessor failed.
func buildPlanPrompt(mission model.Mission, feedback []string) string {
	base := mission.Description
	if len(feedback) == 0 {
		return base
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nPREVIOUS PLAN FEEDBACK:\n")
	for i, f := range feedback {
		fmt.Fprintf(&b, "%d. %s\n", i+1, f)
	}
	return b.String()
}

// pollUntil polls GetSession up to budget times at interval, stopping
// early when done reports true or a terminal status is reached. It
// returns the last observed status and true when polling stopped on a
// terminal status that does not satisfy done, or on ctx cancellation;
// otherwise false.
func (f *Forge) pollUntil(ctx context.Context, sessionID string, budget int, interval time.Duration, done func(model.SessionStatus) bool) (model.SessionStatus, bool) {
	var last model.SessionStatus
	for i := 0; i < budget; i++ {
		session := f.Agent.GetSession(ctx, sessionID)
		if session == nil {
			return last, false
		}
		last = session.Status
		if done(last) {
			return last, false
		}
		if session.Status.IsTerminal() {
			return last, true
		}

		select {
		case <-ctx.Done():
			return last, true
		case <-time.After(interval):
		}
	}
	return last, false
}
