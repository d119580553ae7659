// Package runtime wires every component — Council, Forge, Heart,
// Harvester, and the HTTP decision surface — from a loaded Config and
// runs them concurrently until its context is cancelled. It is the one
// place in the module that constructs the full dependency graph.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/relayforge/conductor/internal/activeset"
	"github.com/relayforge/conductor/internal/agentclient"
	"github.com/relayforge/conductor/internal/config"
	"github.com/relayforge/conductor/internal/council"
	"github.com/relayforge/conductor/internal/forge"
	"github.com/relayforge/conductor/internal/gitwrapper"
	"github.com/relayforge/conductor/internal/harvester"
	"github.com/relayforge/conductor/internal/heart"
	"github.com/relayforge/conductor/internal/history"
	"github.com/relayforge/conductor/internal/httpapi"
	"github.com/relayforge/conductor/internal/llmgateway"
	"github.com/relayforge/conductor/internal/notifier"
	"github.com/relayforge/conductor/internal/plancritic"
	"github.com/relayforge/conductor/internal/qualitygate"
	"github.com/relayforge/conductor/internal/sandbox"
	"github.com/relayforge/conductor/internal/staging"
)

// Runtime holds the fully-wired component graph. Exported fields let
// the CLI layer drive a single component directly (e.g. `forge run`
// against one mission) without duplicating the wiring in Build.
type Runtime struct {
	Cfg *config.Config

	Agent  agentclient.API
	LLM    llmgateway.Client
	Git    gitwrapper.Client
	Stage  *staging.Store
	Notif  *notifier.Store
	Hist   *history.Store
	Active *activeset.Set

	Critic *plancritic.Critic
	Gate   *qualitygate.Gate

	Forge     *forge.Forge
	Heart     *heart.Heart
	Council   *council.Council
	Harvester *harvester.Harvester
	HTTP      *httpapi.Server
}

// Build constructs the full dependency graph from cfg. It does not
// start anything — call Run to drive the component loops.
func Build(cfg *config.Config) (*Runtime, error) {
	root := config.ExpandHome(cfg.Memory.RootDir)
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("runtime: creating memory root %s: %w", root, err)
	}

	agent := agentclient.New(cfg.Agent.BaseURL, cfg.Agent.Token)
	llm := llmgateway.NewHTTPClient(cfg.LLM.BaseURL, cfg.Agent.Token)
	git := gitwrapper.NewGitHubClient(cfg.GitHub.Token)

	stage := staging.New(filepath.Join(root, "staging"), git)
	notif := notifier.New(filepath.Join(root, "notifications.json"))
	hist := history.New(filepath.Join(root, "merge_history.json"))
	active := activeset.New(filepath.Join(root, "active_sessions.json"))
	probation := sandbox.NewProbationGate(filepath.Join(root, "probation.json"), cfg.Heart.ProbationTimeoutDuration())

	critic := plancritic.New(llm, cfg.Language)
	gate := qualitygate.New(llm, cfg.Gate.PassThreshold, cfg.Language)

	f := forge.New(agent, critic, gate, stage, git)
	f.Cfg = forgeConfig(cfg.Forge)

	h := heart.New(agent, active, critic, probation, git, stage, notif, llm)
	h.Cfg.PollInterval = cfg.Heart.PollIntervalDuration()
	h.Cfg.MaxRefinements = cfg.Heart.MaxRefinements
	h.Cfg.ConfidenceAutoMin = cfg.Heart.ConfidenceAutoMin
	h.Cfg.Language = cfg.Language
	h.Cfg.SandboxWorkDir = config.ExpandHome(cfg.Repo.LocalPath)
	h.Cfg.SandboxArgv = cfg.Repo.TestArgv

	c := council.New(llm, f, stage)
	c.Cfg.TargetSuccess = cfg.Council.TargetSuccess
	c.Cfg.RepoDir = config.ExpandHome(cfg.Repo.LocalPath)
	c.Cfg.HarvestCachePath = filepath.Join(root, "harvest_cache.json")
	c.Cfg.EvolutionProposalsPath = filepath.Join(root, "evolution_proposals.json")
	c.Cfg.BriefPath = filepath.Join(root, "morning_brief.json")
	c.Cfg.ExecutionReportPath = filepath.Join(root, "nightly_execution.json")
	c.Cfg.Language = cfg.Language

	hv := harvester.New(agent)
	hv.Cfg.RefreshInterval = cfg.Harvester.RefreshIntervalDuration()
	hv.Cfg.MinWaitAfterCreate = cfg.Harvester.MinWaitAfterCreateDuration()
	hv.Cfg.MaxItems = cfg.Harvester.MaxItems
	hv.Cfg.StateDir = root
	hv.Cfg.Language = cfg.Language

	api := httpapi.New(stage, notif, hist, c)
	api.BriefPath = c.Cfg.BriefPath
	api.ExecutionReportPath = c.Cfg.ExecutionReportPath

	return &Runtime{
		Cfg: cfg, Agent: agent, LLM: llm, Git: git,
		Stage: stage, Notif: notif, Hist: hist, Active: active,
		Critic: critic, Gate: gate,
		Forge: f, Heart: h, Council: c, Harvester: hv, HTTP: api,
	}, nil
}

func forgeConfig(cfg config.ForgeConfig) forge.Config {
	return forge.Config{
		MaxPlanAttempts:       cfg.MaxPlanAttempts,
		PlanPollBudget:        cfg.PlanPollBudget,
		PlanPollInterval:      cfg.PlanPollIntervalDuration(),
		MaxIterations:         cfg.MaxIterations,
		MaxUnchangedRetries:   cfg.MaxUnchangedRetries,
		PRPollBudget:          cfg.PRWaitBudget,
		PRPollInterval:        cfg.PRWaitIntervalDuration(),
		UnchangedWaitBudget:   cfg.UnchangedWaitTimeoutDuration(),
		UnchangedPollInterval: cfg.UnchangedWaitPollDuration(),
		RefineSleep:           cfg.RefineSleepFor(0),
		RefineSleepCritical:   cfg.RefineSleepFor(3),
		RepolessPollBudget:    cfg.RepolessPollBudget,
		RepolessPollInterval:  cfg.RepolessPollIntervalDuration(),
	}
}

// Run starts Heart's watchdog loop, Council's and Harvester's
// schedulers, and the HTTP decision surface, and blocks until ctx is
// cancelled or the HTTP server exits. Mirrors otto's RunServer: a
// sync.WaitGroup for the background loops plus a blocking call for the
// listener itself.
func (rt *Runtime) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		rt.Heart.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		rt.Council.RunForever(ctx, nightlyInterval)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		rt.Harvester.RunForever(ctx, harvesterTickInterval)
	}()

	addr := fmt.Sprintf(":%d", rt.Cfg.Server.Port)
	err := rt.HTTP.Run(ctx, addr)

	slog.Info("runtime: http server stopped, waiting for background loops")
	wg.Wait()
	return err
}

// nightlyInterval is how often Council.RunForever re-convenes. A full
// wall-clock nightly scheduler (run at a configured hour) is tracked
// as an Open Question; 24h-since-last-run is the simpler, still
// correct reading Convene's own idempotency (ErrAlreadyRunning) makes
// safe to poll this way.
const nightlyInterval = 24 * time.Hour

// harvesterTickInterval governs how often the pending-session state
// machine is polled, independent of Cfg.RefreshInterval.
const harvesterTickInterval = 5 * time.Minute
