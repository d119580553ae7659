package council

import (
	"context"
	"fmt"
	"strings"

	"github.com/relayforge/conductor/internal/llmgateway"
	"github.com/relayforge/conductor/internal/model"
	"github.com/relayforge/conductor/internal/prompts"
)

type crossValidateEntry struct {
	Title        string  `json:"title"`
	Verdict      string  `json:"verdict"`
	Confidence   float64 `json:"confidence"`
	RequiresRepo bool    `json:"requires_repo"`
}

// crossValidate ranks candidates against the LLM gateway and annotates
// each with a verdict, a confidence, and a requires_repo
// classification. A gateway or parse failure fails safe to REFINE at
// each candidate's own collected confidence, so a broken ranking call
// never drops work the collectors already found.
func (c *Council) crossValidate(ctx context.Context, candidates []model.Mission) []model.ProposalCandidate {
	if len(candidates) == 0 {
		return nil
	}

	prompt, err := prompts.Execute(c.Cfg.Language, "council-cross-validate.md", map[string]string{
		"Candidates": renderCandidates(candidates),
	})
	if err != nil {
		return fallbackValidate(candidates)
	}

	req := llmgateway.CompletionRequest{Prompt: prompt, NoCache: true, Language: c.Cfg.Language}
	resp, err := c.LLM.Complete(ctx, req)
	if err != nil {
		return fallbackValidate(candidates)
	}

	entries, err := llmgateway.ParseJSONResponse[[]crossValidateEntry](ctx, c.LLM, req, resp.Content)
	if err != nil {
		return fallbackValidate(candidates)
	}

	byTitle := make(map[string]crossValidateEntry, len(entries))
	for _, e := range entries {
		byTitle[e.Title] = e
	}

	out := make([]model.ProposalCandidate, 0, len(candidates))
	for _, m := range candidates {
		e, ok := byTitle[m.Title]
		if !ok {
			out = append(out, model.ProposalCandidate{Mission: m, Verdict: "REFINE", Confidence: m.Confidence})
			continue
		}
		m.RequiresRepo = e.RequiresRepo
		out = append(out, model.ProposalCandidate{Mission: m, Verdict: e.Verdict, Confidence: e.Confidence})
	}
	return out
}

func fallbackValidate(candidates []model.Mission) []model.ProposalCandidate {
	out := make([]model.ProposalCandidate, 0, len(candidates))
	for _, m := range candidates {
		out = append(out, model.ProposalCandidate{Mission: m, Verdict: "REFINE", Confidence: m.Confidence})
	}
	return out
}

func renderCandidates(candidates []model.Mission) string {
	var b strings.Builder
	for i, m := range candidates {
		fmt.Fprintf(&b, "[%d] %s\n%s\nrequires_repo: %v\n\n", i, m.Title, m.Description, m.RequiresRepo)
	}
	return b.String()
}
