package council

import (
	"context"
	"strings"

	"github.com/relayforge/conductor/internal/llmgateway"
	"github.com/relayforge/conductor/internal/model"
	"github.com/relayforge/conductor/internal/prompts"
)

type dedupeResponse struct {
	KeepIndices []int `json:"keep_indices"`
	Duplicates  []struct {
		Index       int    `json:"index"`
		DuplicateOf string `json:"duplicate_of"`
	} `json:"duplicates"`
}

// dedupe asks the gateway to identify semantic duplicates among
// candidates and against stagedTitles, keeping only the indices it
// reports back. On any gateway or parse failure it fails safe to
// keeping every candidate — a missed duplicate costs one wasted Forge
// attempt; a wrongly dropped candidate costs the work entirely.
func (c *Council) dedupe(ctx context.Context, candidates []model.ProposalCandidate, stagedTitles []string) []model.ProposalCandidate {
	if len(candidates) == 0 {
		return nil
	}

	missions := make([]model.Mission, 0, len(candidates))
	for _, cand := range candidates {
		missions = append(missions, cand.Mission)
	}

	prompt, err := prompts.Execute(c.Cfg.Language, "council-dedupe.md", map[string]string{
		"Candidates":   renderCandidates(missions),
		"StagedTitles": strings.Join(stagedTitles, "\n"),
	})
	if err != nil {
		return candidates
	}

	req := llmgateway.CompletionRequest{Prompt: prompt, NoCache: true, Language: c.Cfg.Language}
	resp, err := c.LLM.Complete(ctx, req)
	if err != nil {
		return candidates
	}

	result, err := llmgateway.ParseJSONResponse[dedupeResponse](ctx, c.LLM, req, resp.Content)
	if err != nil {
		return candidates
	}

	kept := make([]model.ProposalCandidate, 0, len(result.KeepIndices))
	for _, idx := range result.KeepIndices {
		if idx < 0 || idx >= len(candidates) {
			continue
		}
		kept = append(kept, candidates[idx])
	}
	if len(kept) == 0 {
		// An empty keep list that comes with listed duplicates means
		// every candidate was judged a duplicate, so nothing is kept.
		// An empty keep list with no duplicates either is the shape an
		// empty or malformed response decodes to, so it is treated like
		// a gateway failure and every candidate is kept.
		if len(result.KeepIndices) == 0 && len(result.Duplicates) == 0 {
			return candidates
		}
		return nil
	}
	return kept
}
