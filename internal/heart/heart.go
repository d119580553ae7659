// Package heart is the long-running watchdog over Agent sessions that
// Forge does not own: it polls the durable active-session set every
// tick, nudges rejected plans with Plan Critic feedback up to a
// refinement cap, and on PR_OPEN/COMPLETED sessions runs the
// Sanitizer, Sandbox, test-file rule, and LLM confidence review before
// staging or rejecting the PR. Structured the same way as Forge: a
// single poll loop suspending at context.Context-cancellable points,
// generalized from this system's own PR watch loop rather than
// invented fresh.
package heart

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/relayforge/conductor/internal/activeset"
	"github.com/relayforge/conductor/internal/agentclient"
	"github.com/relayforge/conductor/internal/diffstat"
	"github.com/relayforge/conductor/internal/gitwrapper"
	"github.com/relayforge/conductor/internal/llmgateway"
	"github.com/relayforge/conductor/internal/model"
	"github.com/relayforge/conductor/internal/notifier"
	"github.com/relayforge/conductor/internal/plancritic"
	"github.com/relayforge/conductor/internal/sandbox"
	"github.com/relayforge/conductor/internal/sanitizer"
	"github.com/relayforge/conductor/internal/staging"
)

// Config bounds Heart's poll cadence and per-session refinement cap.
type Config struct {
	PollInterval time.Duration

	MaxRefinements    int
	ConfidenceAutoMin int

	Language string

	// SandboxWorkDir is the local checkout Heart fetches each PR
	// branch into before running tests. SandboxArgv is the explicit
	// test-command argument vector run there.
	SandboxWorkDir string
	SandboxArgv    []string
}

// DefaultConfig returns the production watchdog timing.
func DefaultConfig() Config {
	return Config{
		PollInterval:      60 * time.Second,
		MaxRefinements:    3,
		ConfidenceAutoMin: 50,
		Language:          "en",
	}
}

// Heart wires every dependency one poll tick touches.
type Heart struct {
	Agent     agentclient.API
	ActiveSet *activeset.Set
	Critic    *plancritic.Critic
	Probation *sandbox.ProbationGate
	Git       gitwrapper.Client
	Staging   *staging.Store
	Notifier  *notifier.Store
	LLM       llmgateway.Client

	// Checkout fetches branch into workDir ahead of a sandbox run.
	// Defaults to a real git fetch+checkout; tests substitute a fake
	// to avoid needing a live repository.
	Checkout func(ctx context.Context, workDir, branch string) error

	Cfg Config
}

// New creates a Heart with DefaultConfig and the real git-backed
// Checkout implementation.
func New(agent agentclient.API, activeSet *activeset.Set, critic *plancritic.Critic, probation *sandbox.ProbationGate, git gitwrapper.Client, stage *staging.Store, notif *notifier.Store, llm llmgateway.Client) *Heart {
	return &Heart{
		Agent: agent, ActiveSet: activeSet, Critic: critic, Probation: probation,
		Git: git, Staging: stage, Notifier: notif, LLM: llm,
		Checkout: checkoutBranch,
		Cfg:      DefaultConfig(),
	}
}

// Watch registers sessionID for watchdog oversight. Forge's own
// sessions are never passed here — Forge drives them to completion
// itself.
func (h *Heart) Watch(sessionID string) error {
	return h.ActiveSet.Add(sessionID)
}

// Run polls every Cfg.PollInterval until ctx is cancelled.
func (h *Heart) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(h.Cfg.PollInterval):
			h.Tick(ctx)
		}
	}
}

// Tick processes every active session once, serially, per the
// ordering guarantee that a poll tick never overlaps itself across
// sessions.
func (h *Heart) Tick(ctx context.Context) {
	ids, err := h.ActiveSet.List()
	if err != nil {
		slog.Error("heart: listing active sessions", "error", err)
		return
	}

	for _, id := range ids {
		h.processSession(ctx, id)
	}
}

func (h *Heart) processSession(ctx context.Context, id string) {
	session := h.Agent.GetSession(ctx, id)
	if session == nil {
		_ = h.ActiveSet.Remove(id)
		return
	}

	switch {
	case session.Status == model.StatusAwaitingPlanApproval:
		h.handlePlanApproval(ctx, session)

	case session.Status == model.StatusPROpen || (session.Status == model.StatusCompleted && session.PRURL != ""):
		h.handlePROpen(ctx, session)

	case session.Status == model.StatusFailed || session.Status == model.StatusError:
		h.handleTerminal(ctx, session)
	}
}

func (h *Heart) handlePlanApproval(ctx context.Context, session *model.Session) {
	plan := h.Agent.GetPlan(ctx, session.ID)
	if plan == nil {
		return
	}

	critique := h.Critic.Critique(ctx, session.Title, plan.Text)
	if critique.Approved {
		h.Agent.ApprovePlan(ctx, session.ID)
		return
	}

	count, err := h.ActiveSet.RefinementCount(session.ID)
	if err != nil {
		slog.Error("heart: reading refinement count", "session", session.ID, "error", err)
		return
	}

	if count < h.Cfg.MaxRefinements {
		h.Agent.SendMessage(ctx, session.ID, critique.ImprovementPrompt)
		if _, err := h.ActiveSet.IncrementRefinementCount(session.ID); err != nil {
			slog.Error("heart: incrementing refinement count", "session", session.ID, "error", err)
		}
		return
	}

	h.raise(model.Notification{
		Event:    "plan_refinements_exhausted",
		Message:  fmt.Sprintf("%q rejected %d times; needs a human decision", session.Title, count),
		DedupKey: "plan-exhausted:" + session.ID,
		Reason:   critique.Critique,
		Actions:  []string{"approve plan", "cancel"},
	})
}

func (h *Heart) handlePROpen(ctx context.Context, session *model.Session) {
	if !h.Probation.CheckProbation() {
		return
	}

	diff := h.Agent.GetGitPatch(ctx, session.ID)

	if ok, threat := sanitizer.ScanDiff(diff); !ok {
		h.rejectAndDrop(ctx, session, "security: "+threat, "security_rejected")
		return
	}

	branch, err := h.Git.GetPRBranch(ctx, session.PRURL)
	if err != nil {
		slog.Error("heart: resolving PR branch", "session", session.ID, "error", err)
		return
	}
	if err := h.Checkout(ctx, h.Cfg.SandboxWorkDir, branch); err != nil {
		slog.Error("heart: checking out PR branch", "session", session.ID, "branch", branch, "error", err)
		return
	}

	result := sandbox.NewRunner(h.Cfg.SandboxWorkDir, h.Cfg.SandboxArgv).RunTests(ctx)
	if !result.Passed {
		_ = h.Probation.EnterProbation(nil)
		h.rejectAndDrop(ctx, session, "sandbox failure: "+truncate(result.Error, 200), "sandbox_failed")
		return
	}

	if flagged, err := diffstat.IntroducesUntestedDefinition(diff); err != nil {
		slog.Error("heart: checking test-file rule", "session", session.ID, "error", err)
	} else if flagged {
		h.rejectAndDrop(ctx, session, "introduces an untested definition with no accompanying test file", "test_file_rule")
		return
	}

	review := reviewConfidence(ctx, h.LLM, h.Cfg.Language, session.PRTitle, session.PRDescription, diff)
	if review.Confidence >= h.Cfg.ConfidenceAutoMin {
		h.stageForReview(ctx, session, diff, review)
		return
	}

	h.rejectAndDrop(ctx, session, "low confidence: "+review.Reason, "low_confidence")
}

func (h *Heart) handleTerminal(ctx context.Context, session *model.Session) {
	h.raise(model.Notification{
		Event:    "session_terminal",
		Message:  fmt.Sprintf("session %q ended as %s", session.Title, session.Status),
		DedupKey: "terminal:" + session.ID,
		PRURL:    session.PRURL,
	})
	_ = h.ActiveSet.Remove(session.ID)
}

func (h *Heart) rejectAndDrop(ctx context.Context, session *model.Session, reason, event string) {
	if session.PRURL != "" {
		if err := h.Staging.RejectSession(ctx, session.Title, session.ID, session.PRURL, reason); err != nil {
			slog.Error("heart: rejecting session", "session", session.ID, "error", err)
		}
	}
	h.raise(model.Notification{
		Event:    event,
		Message:  fmt.Sprintf("%q rejected: %s", session.Title, reason),
		DedupKey: event + ":" + session.ID,
		PRURL:    session.PRURL,
		Reason:   reason,
	})
	_ = h.ActiveSet.Remove(session.ID)
}

func (h *Heart) stageForReview(ctx context.Context, session *model.Session, diff string, review confidenceReview) {
	files, err := diffstat.FileStats(diff)
	if err != nil {
		files = nil
	}

	if _, err := h.Staging.StageProject(session.Title, session.PRDescription, session.ID, session.PRURL, diff, files); err != nil {
		slog.Error("heart: staging reviewed session", "session", session.ID, "error", err)
		return
	}

	h.raise(model.Notification{
		Event:    "decision_needed",
		Message:  fmt.Sprintf("%q passed review at %d%% confidence: %s", session.Title, review.Confidence, review.Verdict),
		DedupKey: "decision:" + session.ID,
		PRURL:    session.PRURL,
		Reason:   review.Reason,
		Actions:  []string{string(model.DecisionMerge), string(model.DecisionPending), string(model.DecisionReject)},
	})
	_ = h.ActiveSet.Remove(session.ID)
}

func (h *Heart) raise(n model.Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if err := h.Notifier.Record(n); err != nil {
		slog.Error("heart: recording notification", "event", n.Event, "error", err)
	}
}

// checkoutBranch fetches branch into workDir and checks it out, with
// no shell interpolation. The default Heart.Checkout implementation.
func checkoutBranch(ctx context.Context, workDir, branch string) error {
	if branch == "" {
		return fmt.Errorf("empty branch name")
	}

	fetch := exec.CommandContext(ctx, "git", "fetch", "origin", branch)
	fetch.Dir = workDir
	if out, err := fetch.CombinedOutput(); err != nil {
		return fmt.Errorf("git fetch %s: %w: %s", branch, err, strings.TrimSpace(string(out)))
	}

	checkout := exec.CommandContext(ctx, "git", "checkout", "FETCH_HEAD")
	checkout.Dir = workDir
	if out, err := checkout.CombinedOutput(); err != nil {
		return fmt.Errorf("git checkout FETCH_HEAD: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
