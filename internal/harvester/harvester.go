// Package harvester refreshes the cache of suggestions the Agent has
// already noticed about its own codebase, on a slow cadence, so
// Council's harvested-cache collector has something grounded to draw
// missions from without asking the Agent to re-scan every night.
package harvester

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/relayforge/conductor/internal/agentclient"
	"github.com/relayforge/conductor/internal/model"
	"github.com/relayforge/conductor/internal/prompts"
	"github.com/relayforge/conductor/internal/store"
)

// Config controls refresh cadence and cache bounds.
type Config struct {
	RefreshInterval    time.Duration
	MinWaitAfterCreate time.Duration
	MaxItems           int
	StateDir           string
	Language           string
}

// DefaultConfig mirrors the documented defaults: a 24h refresh cadence,
// a 10 minute bound on a single harvest session, capped at 20 items.
func DefaultConfig() Config {
	return Config{
		RefreshInterval:    24 * time.Hour,
		MinWaitAfterCreate: 10 * time.Minute,
		MaxItems:           20,
		Language:           "en",
	}
}

// Harvester owns the suggestion-cache refresh state machine.
type Harvester struct {
	Agent agentclient.API
	Cfg   Config
}

// New returns a Harvester with default cadence and bounds.
func New(agent agentclient.API) *Harvester {
	return &Harvester{Agent: agent, Cfg: DefaultConfig()}
}

// harvestState is the small durable record tracking whether a
// summarization session is in flight and when the cache last refreshed.
type harvestState struct {
	PendingSessionID string    `json:"pending_session_id"`
	PendingCreatedAt time.Time `json:"pending_created_at"`
	LastRequestedAt  time.Time `json:"last_requested_at"`
	LastHarvestAt    time.Time `json:"last_harvest_at"`
}

func (h *Harvester) statePath() string   { return filepath.Join(h.Cfg.StateDir, "harvest_state.json") }
func (h *Harvester) cachePath() string   { return filepath.Join(h.Cfg.StateDir, "harvest_cache.json") }
func (h *Harvester) summaryPath() string { return filepath.Join(h.Cfg.StateDir, "harvest_summary.md") }

func (h *Harvester) loadState() harvestState {
	var s harvestState
	_ = store.ReadJSON(h.statePath(), &s)
	return s
}

// Tick drives one step of the harvest state machine: it either checks
// a pending summarization session for completion, abandons one stuck
// past MinWaitAfterCreate, or — once the refresh interval has
// elapsed with nothing pending — requests a new one. A caller invokes
// this on its own schedule (a short ticker is fine; the cadence and
// pending-session gate are enforced internally).
func (h *Harvester) Tick(ctx context.Context) error {
	state := h.loadState()

	if state.PendingSessionID != "" {
		resolved, err := h.resolvePending(ctx, &state)
		if err != nil {
			return err
		}
		if err := store.WriteJSON(h.statePath(), state); err != nil {
			return fmt.Errorf("harvester: persisting state: %w", err)
		}
		if !resolved {
			// Still pending; skip requesting a new harvest this tick.
			return nil
		}
	}

	if time.Since(state.LastRequestedAt) < h.Cfg.RefreshInterval {
		return nil
	}

	prompt, err := prompts.Execute(h.Cfg.Language, "harvester-summarize.md", nil)
	if err != nil {
		return fmt.Errorf("harvester: building summarize prompt: %w", err)
	}

	session := h.Agent.CreateRepolessSession(ctx, prompt, "Harvest suggestions")
	if session == nil {
		return fmt.Errorf("harvester: failed to create summarization session")
	}

	now := time.Now()
	state.PendingSessionID = session.ID
	state.PendingCreatedAt = now
	state.LastRequestedAt = now
	return store.WriteJSON(h.statePath(), state)
}

// resolvePending checks a pending session, clearing it from state
// (resolved=true) if it has finished, disappeared, or run past the
// abandonment bound; leaves it pending (resolved=false) otherwise.
func (h *Harvester) resolvePending(ctx context.Context, state *harvestState) (bool, error) {
	session := h.Agent.GetSession(ctx, state.PendingSessionID)

	switch {
	case session == nil:
		slog.Warn("harvester: pending session disappeared", "session", state.PendingSessionID)
		state.PendingSessionID = ""
		return true, nil

	case session.Status.IsTerminal():
		if session.Status == model.StatusCompleted {
			if err := h.harvestSession(ctx, session.ID); err != nil {
				slog.Error("harvester: harvesting completed session", "session", session.ID, "error", err)
			}
		}
		state.PendingSessionID = ""
		state.LastHarvestAt = time.Now()
		return true, nil

	case time.Since(state.PendingCreatedAt) > h.Cfg.MinWaitAfterCreate:
		slog.Warn("harvester: abandoning unresponsive summarization session", "session", state.PendingSessionID)
		state.PendingSessionID = ""
		return true, nil

	default:
		return false, nil
	}
}

// harvestSession pulls the completed session's patch, parses its
// checklist items, merges them into the cache, and rewrites both the
// machine-readable cache and its human-readable markdown mirror.
func (h *Harvester) harvestSession(ctx context.Context, sessionID string) error {
	patch := h.Agent.GetGitPatch(ctx, sessionID)
	if patch == "" {
		return nil
	}

	fresh := parseChecklist(patch)
	if len(fresh) == 0 {
		return nil
	}

	var existing []model.HarvestItem
	_ = store.ReadJSON(h.cachePath(), &existing)

	maxItems := h.Cfg.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultConfig().MaxItems
	}
	merged := mergeItems(existing, fresh, maxItems)

	if err := store.WriteJSON(h.cachePath(), merged); err != nil {
		return fmt.Errorf("writing harvest cache: %w", err)
	}

	doc := &store.Document{
		Frontmatter: map[string]any{
			"harvested_at": store.Now(),
			"item_count":   len(merged),
		},
		Body: renderChecklist(merged),
	}
	if err := store.WriteDocument(h.summaryPath(), doc); err != nil {
		return fmt.Errorf("writing harvest summary: %w", err)
	}
	return nil
}

// mergeItems dedupes fresh items ahead of the existing cache by title,
// keeping the first occurrence of each title and capping the result.
func mergeItems(existing, fresh []model.HarvestItem, maxItems int) []model.HarvestItem {
	seen := make(map[string]bool, len(existing)+len(fresh))
	merged := make([]model.HarvestItem, 0, maxItems)

	for _, item := range append(append([]model.HarvestItem{}, fresh...), existing...) {
		if item.Title == "" || seen[item.Title] {
			continue
		}
		seen[item.Title] = true
		merged = append(merged, item)
		if len(merged) >= maxItems {
			break
		}
	}
	return merged
}
