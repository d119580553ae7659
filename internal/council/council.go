// Package council is the nightly proposal pipeline: collect candidate
// missions from four sources in parallel, cross-validate and
// deduplicate them against the LLM gateway, then dispatch a
// quota-bounded batch of them to Forge sequentially, recording an
// execution report. The collectors fan out under
// golang.org/x/sync/errgroup; the dispatch loop runs sequentially.
package council

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/relayforge/conductor/internal/llmgateway"
	"github.com/relayforge/conductor/internal/model"
	"github.com/relayforge/conductor/internal/staging"
	"github.com/relayforge/conductor/internal/store"
	"golang.org/x/sync/errgroup"
)

// MissionRunner is the Forge surface Council dispatches missions
// through, narrowed to just RunMission so tests can stub it without
// wiring a full Forge.
type MissionRunner interface {
	RunMission(ctx context.Context, mission model.Mission) model.MissionResult
}

// Config bounds the nightly pipeline's quota and file locations.
type Config struct {
	// TargetSuccess is the number of successful Forge missions Council
	// tries to reach per night, minus however many are already staged.
	TargetSuccess int

	RepoDir string

	HarvestCachePath       string
	EvolutionProposalsPath string
	BriefPath              string
	ExecutionReportPath    string

	Language string
}

// DefaultConfig returns the production quota and language.
func DefaultConfig() Config {
	return Config{TargetSuccess: 3, Language: "en"}
}

// Council wires every dependency one nightly convene() touches.
type Council struct {
	LLM     llmgateway.Client
	Forge   MissionRunner
	Staging *staging.Store

	Cfg Config

	running   atomic.Bool
	startedAt time.Time
}

// New creates a Council with DefaultConfig.
func New(llm llmgateway.Client, forge MissionRunner, stage *staging.Store) *Council {
	return &Council{LLM: llm, Forge: forge, Staging: stage, Cfg: DefaultConfig()}
}

// ErrAlreadyRunning is returned by Convene when a prior run has not
// finished — the nightly pipeline and a manually triggered run never
// overlap.
var ErrAlreadyRunning = fmt.Errorf("council: a convene is already running")

// IsRunning reports whether a convene is currently in flight, and
// since when — for the /council/status surface.
func (c *Council) IsRunning() (bool, time.Time) {
	return c.running.Load(), c.startedAt
}

// Convene runs one full nightly cycle: collect, cross-validate,
// dedupe, persist the morning brief, then quota-dispatch to Forge.
// Returns ErrAlreadyRunning if a convene is already in flight.
func (c *Council) Convene(ctx context.Context) (model.ExecutionReport, error) {
	if !c.running.CompareAndSwap(false, true) {
		return model.ExecutionReport{}, ErrAlreadyRunning
	}
	c.startedAt = time.Now()
	defer c.running.Store(false)

	candidates, err := c.collect(ctx)
	if err != nil {
		return model.ExecutionReport{}, fmt.Errorf("collecting candidates: %w", err)
	}

	validated := c.crossValidate(ctx, candidates)

	staged, err := c.Staging.ListStagedProjects()
	if err != nil {
		staged = nil
	}
	stagedTitles := make([]string, 0, len(staged))
	for _, p := range staged {
		stagedTitles = append(stagedTitles, p.Title)
	}

	deduped := c.dedupe(ctx, validated, stagedTitles)

	brief := model.ProposalBrief{
		Date:       today(),
		Candidates: deduped,
		Status:     "done",
		Total:      len(deduped),
	}
	if err := store.WriteJSON(c.Cfg.BriefPath, brief); err != nil {
		return model.ExecutionReport{}, fmt.Errorf("persisting morning brief: %w", err)
	}

	report := c.dispatch(ctx, deduped, len(staged))
	if err := store.WriteJSON(c.Cfg.ExecutionReportPath, report); err != nil {
		return report, fmt.Errorf("persisting execution report: %w", err)
	}
	return report, nil
}

// collect runs all four proposal sources concurrently and returns
// their union in a deterministic order (creative, insider, harvested,
// evolution), regardless of which collector finishes first.
func (c *Council) collect(ctx context.Context) ([]model.Mission, error) {
	var creative, insider, harvested, evolution []model.Mission

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		creative, err = c.collectCreative(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		insider, err = c.collectInsider(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		harvested, err = c.collectHarvested(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		evolution, err = c.collectEvolution(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make([]model.Mission, 0, len(creative)+len(insider)+len(harvested)+len(evolution))
	all = append(all, creative...)
	all = append(all, insider...)
	all = append(all, harvested...)
	all = append(all, evolution...)
	return all, nil
}

func today() string {
	return time.Now().Format("2006-01-02")
}
