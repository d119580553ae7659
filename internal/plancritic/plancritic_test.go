package plancritic

import (
	"context"
	"testing"

	"github.com/relayforge/conductor/internal/llmgateway"
	"github.com/stretchr/testify/assert"
)

type stubLLM struct {
	content string
	err     error
}

func (s *stubLLM) Complete(ctx context.Context, req llmgateway.CompletionRequest) (*llmgateway.CompletionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llmgateway.CompletionResponse{Content: s.content}, nil
}

func TestCritique_ParsesApproval(t *testing.T) {
	llm := &stubLLM{content: `{"approved":true,"confidence":90,"critique":"solid","improvement_prompt":""}`}
	c := New(llm, "")
	result := c.Critique(context.Background(), "task", "plan text")
	assert.True(t, result.Approved)
	assert.Equal(t, 90, result.Confidence)
}

func TestCritique_GatewayErrorFailsSafe(t *testing.T) {
	c := New(&stubLLM{err: assertErr("boom")}, "")
	result := c.Critique(context.Background(), "task", "plan text")
	assert.True(t, result.Approved)
	assert.Equal(t, 50, result.Confidence)
	assert.NotEmpty(t, result.Critique)
}

func TestCritique_JSONFailureFailsSafe(t *testing.T) {
	c := New(&stubLLM{content: "not json"}, "")
	result := c.Critique(context.Background(), "task", "plan text")
	assert.True(t, result.Approved)
	assert.Equal(t, 50, result.Confidence)
}

func TestCritique_ClampsConfidence(t *testing.T) {
	llm := &stubLLM{content: `{"approved":false,"confidence":150,"critique":"x","improvement_prompt":"y"}`}
	c := New(llm, "")
	result := c.Critique(context.Background(), "task", "plan text")
	assert.Equal(t, 100, result.Confidence)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
