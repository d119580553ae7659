package council

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/relayforge/conductor/internal/llmgateway"
	"github.com/relayforge/conductor/internal/model"
	"github.com/relayforge/conductor/internal/prompts"
	"github.com/relayforge/conductor/internal/store"
)

// proposalDraft is the shape both the creative and insider prompts
// return: a candidate mission without a verdict yet.
type proposalDraft struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Rationale    string  `json:"rationale"`
	RequiresRepo bool    `json:"requires_repo"`
	Confidence   float64 `json:"confidence"`
}

func (d proposalDraft) toMission(source string) model.Mission {
	return model.Mission{
		Title:        d.Title,
		Description:  d.Description,
		Rationale:    d.Rationale,
		RequiresRepo: d.RequiresRepo,
		Confidence:   d.Confidence,
		Source:       source,
	}
}

// collectCreative asks the gateway for open-ended work items grounded
// only in a short repository summary.
func (c *Council) collectCreative(ctx context.Context) ([]model.Mission, error) {
	prompt, err := prompts.Execute(c.Cfg.Language, "council-creative.md", map[string]string{
		"RepoSummary": repoSummary(c.Cfg.RepoDir),
	})
	if err != nil {
		return nil, fmt.Errorf("building creative prompt: %w", err)
	}
	return c.collectDrafts(ctx, prompt, "creative")
}

// collectInsider asks the gateway for work items grounded in an actual
// directory scan of the repository.
func (c *Council) collectInsider(ctx context.Context) ([]model.Mission, error) {
	prompt, err := prompts.Execute(c.Cfg.Language, "council-insider.md", map[string]string{
		"Tree": repoTree(c.Cfg.RepoDir),
	})
	if err != nil {
		return nil, fmt.Errorf("building insider prompt: %w", err)
	}
	return c.collectDrafts(ctx, prompt, "insider")
}

func (c *Council) collectDrafts(ctx context.Context, prompt, source string) ([]model.Mission, error) {
	req := llmgateway.CompletionRequest{Prompt: prompt, NoCache: true, Language: c.Cfg.Language}
	resp, err := c.LLM.Complete(ctx, req)
	if err != nil {
		// A single collector failing must not sink the whole cycle;
		// the other three sources still feed the pipeline.
		return nil, nil
	}

	drafts, err := llmgateway.ParseJSONResponse[[]proposalDraft](ctx, c.LLM, req, resp.Content)
	if err != nil {
		return nil, nil
	}

	missions := make([]model.Mission, 0, len(drafts))
	for _, d := range drafts {
		if d.Title == "" {
			continue
		}
		missions = append(missions, d.toMission(source))
	}
	return missions, nil
}

// collectHarvested loads the Harvester's cached suggestions and turns
// each into a candidate mission. A missing or unreadable cache yields
// no candidates rather than an error — the cache is optional input.
func (c *Council) collectHarvested(ctx context.Context) ([]model.Mission, error) {
	if c.Cfg.HarvestCachePath == "" {
		return nil, nil
	}

	var items []model.HarvestItem
	if err := store.ReadJSON(c.Cfg.HarvestCachePath, &items); err != nil {
		return nil, nil
	}

	missions := make([]model.Mission, 0, len(items))
	for _, item := range items {
		missions = append(missions, model.Mission{
			Title:        item.Title,
			Description:  item.Description,
			Rationale:    item.Location,
			RequiresRepo: true,
			Confidence:   harvestConfidence(item.Priority),
			Source:       "harvested",
		})
	}
	return missions, nil
}

func harvestConfidence(p model.HarvestPriority) float64 {
	if p == model.PriorityCritique {
		return 0.9
	}
	return 0.6
}

// collectEvolution reads the external evolution-proposals file and
// clears it — read-and-clear semantics, so each proposal is only ever
// picked up by one convene().
func (c *Council) collectEvolution(ctx context.Context) ([]model.Mission, error) {
	if c.Cfg.EvolutionProposalsPath == "" {
		return nil, nil
	}

	var drafts []proposalDraft
	if err := store.ReadJSON(c.Cfg.EvolutionProposalsPath, &drafts); err != nil {
		return nil, nil
	}
	if len(drafts) == 0 {
		return nil, nil
	}

	if err := store.WriteJSON(c.Cfg.EvolutionProposalsPath, []proposalDraft{}); err != nil {
		return nil, fmt.Errorf("clearing evolution proposals: %w", err)
	}

	missions := make([]model.Mission, 0, len(drafts))
	for _, d := range drafts {
		if d.Title == "" {
			continue
		}
		missions = append(missions, d.toMission("evolution"))
	}
	return missions, nil
}

// repoSummary renders a short top-level description of repoDir for
// the creative collector's prompt.
func repoSummary(repoDir string) string {
	if repoDir == "" {
		return "(no repository configured)"
	}

	entries, err := os.ReadDir(repoDir)
	if err != nil {
		return "(repository unreadable)"
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Strings(dirs)

	archetype := "unknown"
	switch {
	case fileExists(repoDir, "go.mod"):
		archetype = "go"
	case fileExists(repoDir, "package.json"):
		archetype = "node"
	case fileExists(repoDir, "pyproject.toml"), fileExists(repoDir, "requirements.txt"):
		archetype = "python"
	}

	return fmt.Sprintf("archetype: %s\ntop-level packages: %s", archetype, strings.Join(dirs, ", "))
}

// skipDirs are never descended into during the insider tree scan —
// build artifacts and VCS metadata carry no proposal-worthy signal.
var skipDirs = map[string]bool{
	".git": true, "vendor": true, "node_modules": true, ".idea": true,
}

// repoTree renders an indented directory listing up to three levels
// deep, bounded at 200 lines so a very large repository doesn't blow
// the prompt budget.
func repoTree(repoDir string) string {
	if repoDir == "" {
		return "(no repository configured)"
	}

	var lines []string
	var walk func(dir string, depth int, prefix string)
	walk = func(dir string, depth int, prefix string) {
		if depth > 3 || len(lines) >= 200 {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		for _, e := range entries {
			if len(lines) >= 200 {
				return
			}
			name := e.Name()
			if strings.HasPrefix(name, ".") || skipDirs[name] {
				continue
			}
			if e.IsDir() {
				lines = append(lines, prefix+name+"/")
				walk(filepath.Join(dir, name), depth+1, prefix+"  ")
			} else {
				lines = append(lines, prefix+name)
			}
		}
	}
	walk(repoDir, 0, "")

	if len(lines) == 0 {
		return "(empty repository)"
	}
	return strings.Join(lines, "\n")
}

func fileExists(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
