package qualitygate

import (
	"context"
	"strconv"
	"testing"

	"github.com/relayforge/conductor/internal/llmgateway"
	"github.com/relayforge/conductor/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func TestEvaluate_EmptyDiffIsTrash(t *testing.T) {
	g := New(&stubLLM{}, 0, "")
	j, err := g.Evaluate(context.Background(), model.Mission{Title: "x"}, "")
	require.NoError(t, err)
	assert.Equal(t, 0, j.Score)
	assert.Equal(t, model.VerdictTrash, j.Verdict)
}

func TestEvaluate_ScoreBoundaries(t *testing.T) {
	cases := []struct {
		score   int
		verdict model.Verdict
	}{
		{85, model.VerdictPass},
		{84, model.VerdictRefine},
		{49, model.VerdictTrash},
	}
	for _, tc := range cases {
		llm := &stubLLM{content: `{"score":` + strconv.Itoa(tc.score) + `,"verdict":"PASS","feedback":"f","critical_issues":[],"gap_analysis":{"points_to_90":0,"fixes":[]}}`}
		g := New(llm, 0, "")
		j, err := g.Evaluate(context.Background(), model.Mission{Title: "x"}, "diff content")
		require.NoError(t, err)
		assert.Equal(t, tc.verdict, j.Verdict, "score %d", tc.score)
	}
}

func TestEvaluate_GatewayErrorTiesToTrash(t *testing.T) {
	g := New(&stubLLM{err: assertErr("boom")}, 0, "")
	j, err := g.Evaluate(context.Background(), model.Mission{Title: "x"}, "diff")
	require.NoError(t, err)
	assert.Equal(t, model.VerdictTrash, j.Verdict)
}

func TestEvaluate_JSONParseFailureTiesToTrash(t *testing.T) {
	g := New(&stubLLM{content: "not json"}, 0, "")
	j, err := g.Evaluate(context.Background(), model.Mission{Title: "x"}, "diff")
	require.NoError(t, err)
	assert.Equal(t, model.VerdictTrash, j.Verdict)
	assert.NotEmpty(t, j.Feedback)
}

func TestEvaluate_ClampsOutOfRangeScore(t *testing.T) {
	llm := &stubLLM{content: `{"score":150,"verdict":"PASS","feedback":"f","critical_issues":[],"gap_analysis":{"points_to_90":0,"fixes":[]}}`}
	g := New(llm, 0, "")
	j, err := g.Evaluate(context.Background(), model.Mission{Title: "x"}, "diff")
	require.NoError(t, err)
	assert.Equal(t, 100, j.Score)
	assert.Equal(t, model.VerdictPass, j.Verdict)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
