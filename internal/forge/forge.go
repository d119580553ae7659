// Package forge is the per-mission refinement state machine: a
// plan-approval gate followed by iterative PR refinement against the
// Quality Gate, or — for repo-less missions — a single poll to
// completion. Structured as a document-like state struct threaded
// through named phase functions, one per context.Context-cancellable
// suspension point, mirroring how the PR watch loop this system
// replaces was built.
package forge

import (
	"context"
	"time"

	"github.com/relayforge/conductor/internal/agentclient"
	"github.com/relayforge/conductor/internal/gitwrapper"
	"github.com/relayforge/conductor/internal/model"
	"github.com/relayforge/conductor/internal/plancritic"
	"github.com/relayforge/conductor/internal/qualitygate"
	"github.com/relayforge/conductor/internal/staging"
)

// Config bounds every wait and retry budget in the mission state
// machine. DefaultConfig matches the production timings; tests
// override individual fields to shrink wall-clock time.
type Config struct {
	MaxPlanAttempts int
	PlanPollBudget  int
	PlanPollInterval time.Duration

	MaxIterations       int
	MaxUnchangedRetries int
	PRPollBudget        int
	PRPollInterval      time.Duration

	UnchangedWaitBudget   time.Duration
	UnchangedPollInterval time.Duration

	RefineSleep         time.Duration
	RefineSleepCritical time.Duration

	RepolessPollBudget   int
	RepolessPollInterval time.Duration
}

// DefaultConfig returns the production timing budget from §4.7/§5.
func DefaultConfig() Config {
	return Config{
		MaxPlanAttempts:  3,
		PlanPollBudget:   30,
		PlanPollInterval: 5 * time.Second,

		MaxIterations:       5,
		MaxUnchangedRetries: 5,
		PRPollBudget:        540,
		PRPollInterval:      10 * time.Second,

		UnchangedWaitBudget:   120 * time.Second,
		UnchangedPollInterval: 15 * time.Second,

		RefineSleep:         60 * time.Second,
		RefineSleepCritical: 90 * time.Second,

		RepolessPollBudget:   48,
		RepolessPollInterval: 10 * time.Second,
	}
}

// Forge wires the dependencies a mission run needs.
type Forge struct {
	Agent   agentclient.API
	Critic  *plancritic.Critic
	Gate    *qualitygate.Gate
	Staging *staging.Store
	Git     gitwrapper.Client
	Cfg     Config
}

// New creates a Forge with DefaultConfig.
func New(agent agentclient.API, critic *plancritic.Critic, gate *qualitygate.Gate, stage *staging.Store, git gitwrapper.Client) *Forge {
	return &Forge{Agent: agent, Critic: critic, Gate: gate, Staging: stage, Git: git, Cfg: DefaultConfig()}
}

// missionState threads per-run mutable bookkeeping through the phase
// functions.
type missionState struct {
	mission model.Mission

	sessionID      string
	feedbackHist   []string

	iteration        int
	bonusIterations  int
	previousDiff     string
	previousScore    int
	unchangedRetries int
}

// RunMission drives mission to completion or failure, choosing the
// repo-less path when the mission does not require a repository.
func (f *Forge) RunMission(ctx context.Context, mission model.Mission) model.MissionResult {
	if !mission.RequiresRepo {
		return f.runRepolessPhase(ctx, mission)
	}

	st := &missionState{mission: mission}

	result, ok := f.runPlanPhase(ctx, st)
	if !ok {
		return result
	}

	return f.runRefinementPhase(ctx, st)
}

func failResult(title, reason string) model.MissionResult {
	return model.MissionResult{Title: title, Status: "FAILED", Reason: reason}
}
