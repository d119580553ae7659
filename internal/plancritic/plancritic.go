// Package plancritic scores a proposed plan before the Forge lets the
// Agent start executing it. A plan the Critic rejects sends an
// improvement prompt back to the Agent rather than a blind approval.
package plancritic

import (
	"context"

	"github.com/relayforge/conductor/internal/llmgateway"
	"github.com/relayforge/conductor/internal/model"
	"github.com/relayforge/conductor/internal/prompts"
)

// failSafeConfidence is returned, along with approved=true, whenever
// the gateway or its JSON cannot be trusted — rejecting here would
// deadlock the Forge on an Agent that is otherwise behaving.
const failSafeConfidence = 50

// Critic scores plans via an LLM gateway client.
type Critic struct {
	LLM      llmgateway.Client
	Language string
}

// New creates a Critic.
func New(llm llmgateway.Client, language string) *Critic {
	return &Critic{LLM: llm, Language: language}
}

// Critique scores planText against task. On any LLM or JSON failure
// it fails safe: approved=true, confidence=50, with an explanatory
// critique.
func (c *Critic) Critique(ctx context.Context, task, planText string) model.PlanCritique {
	prompt, err := prompts.Execute(c.Language, "plan-critique.md", map[string]string{
		"Task": task,
		"Plan": planText,
	})
	if err != nil {
		return failSafe("building plan-critique prompt: " + err.Error())
	}

	req := llmgateway.CompletionRequest{Prompt: prompt, NoCache: true, Language: c.Language}
	resp, err := c.LLM.Complete(ctx, req)
	if err != nil {
		return failSafe(err.Error())
	}

	critique, err := llmgateway.ParseJSONResponse[model.PlanCritique](ctx, c.LLM, req, resp.Content)
	if err != nil {
		return failSafe(err.Error())
	}

	if critique.Confidence < 0 {
		critique.Confidence = 0
	}
	if critique.Confidence > 100 {
		critique.Confidence = 100
	}
	return critique
}

func failSafe(reason string) model.PlanCritique {
	return model.PlanCritique{
		Approved:   true,
		Confidence: failSafeConfidence,
		Critique:   "plan critic unavailable, approving by default: " + reason,
	}
}
