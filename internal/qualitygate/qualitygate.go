// Package qualitygate scores a diff against mission context via the
// LLM gateway, returning a PASS/REFINE/TRASH verdict with a gap
// analysis the Forge can feed back into its next refinement prompt.
package qualitygate

import (
	"context"
	"fmt"

	"github.com/relayforge/conductor/internal/diffstat"
	"github.com/relayforge/conductor/internal/llmgateway"
	"github.com/relayforge/conductor/internal/model"
	"github.com/relayforge/conductor/internal/prompts"
)

// MaxChars bounds the balanced diff sample handed to the gateway.
const MaxChars = 12000

// DefaultPassThreshold is used when a caller does not override it.
const DefaultPassThreshold = 85

// Gate evaluates diffs via an LLM gateway client.
type Gate struct {
	LLM           llmgateway.Client
	PassThreshold int
	Language      string
}

// New creates a Gate with the given pass threshold; 0 means
// DefaultPassThreshold.
func New(llm llmgateway.Client, passThreshold int, language string) *Gate {
	if passThreshold <= 0 {
		passThreshold = DefaultPassThreshold
	}
	return &Gate{LLM: llm, PassThreshold: passThreshold, Language: language}
}

// Evaluate scores diff against mission and returns a Judgment. An
// empty diff short-circuits to a TRASH verdict without calling the
// gateway; a gateway or JSON-parse failure ties to TRASH as well, so
// the Forge always has a verdict to act on.
func (g *Gate) Evaluate(ctx context.Context, mission model.Mission, diff string) (model.Judgment, error) {
	if diff == "" {
		return model.Judgment{Score: 0, Verdict: model.VerdictTrash, Feedback: "empty diff"}, nil
	}

	sample, err := diffstat.BalancedSample(diff, MaxChars)
	if err != nil {
		sample = diff
	}

	prompt, err := prompts.Execute(g.Language, "gate-evaluate.md", map[string]string{
		"Mission": mission.Title + ": " + mission.Description,
		"Diff":    sample,
	})
	if err != nil {
		return model.Judgment{}, fmt.Errorf("building gate-evaluate prompt: %w", err)
	}

	req := llmgateway.CompletionRequest{Prompt: prompt, NoCache: true, Language: g.Language}
	resp, err := g.LLM.Complete(ctx, req)
	if err != nil {
		return model.Judgment{Score: 0, Verdict: model.VerdictTrash, Feedback: err.Error()}, nil
	}

	judgment, err := llmgateway.ParseJSONResponse[model.Judgment](ctx, g.LLM, req, resp.Content)
	if err != nil {
		return model.Judgment{Score: 0, Verdict: model.VerdictTrash, Feedback: err.Error()}, nil
	}

	judgment.Score = model.ClampScore(judgment.Score)
	judgment.Verdict = model.ClassifyVerdict(judgment.Score, g.PassThreshold)
	return judgment, nil
}
