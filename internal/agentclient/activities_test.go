package agentclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActivities_StructuredPlan(t *testing.T) {
	body := []byte(`{"activities":[
		{"id":"a1","createTime":"2026-01-01T00:00:00Z","artifacts":{"planGenerated":{"plan":{"id":"p1","text":"step text"}}}}
	]}`)

	activities := parseActivities(body)
	require.Len(t, activities, 1)
	require.NotNil(t, activities[0].Artifacts.PlanGenerated)
	assert.Equal(t, "p1", activities[0].Artifacts.PlanGenerated.Plan.ID)
	assert.Equal(t, "step text", activities[0].Artifacts.PlanGenerated.Plan.Text)
}

func TestParseActivities_BareStringPlan(t *testing.T) {
	body := []byte(`{"activities":[
		{"id":"a1","createTime":"2026-01-01T00:00:00Z","artifacts":{"planGenerated":{"plan":"raw text plan"}}}
	]}`)

	activities := parseActivities(body)
	require.Len(t, activities, 1)
	require.NotNil(t, activities[0].Artifacts.PlanGenerated)
	assert.Equal(t, "raw text plan", activities[0].Artifacts.PlanGenerated.Plan.Text)
}

func TestParseActivities_MissingArtifactsAreNil(t *testing.T) {
	body := []byte(`{"activities":[{"id":"a1","createTime":"2026-01-01T00:00:00Z","artifacts":{}}]}`)

	activities := parseActivities(body)
	require.Len(t, activities, 1)
	assert.Nil(t, activities[0].Artifacts.ChangeSet)
	assert.Nil(t, activities[0].Artifacts.PlanGenerated)
	assert.Nil(t, activities[0].Artifacts.PullRequest)
}

func TestParseActivities_NonArrayReturnsNil(t *testing.T) {
	body := []byte(`{"activities":null}`)
	assert.Nil(t, parseActivities(body))
}

func TestParseActivities_PullRequestArtifact(t *testing.T) {
	body := []byte(`{"activities":[
		{"id":"a1","createTime":"2026-01-01T00:00:00Z","artifacts":{"pullRequest":{"url":"https://github.com/o/r/pull/9","title":"t","description":"d"}}}
	]}`)

	activities := parseActivities(body)
	require.Len(t, activities, 1)
	require.NotNil(t, activities[0].Artifacts.PullRequest)
	assert.Equal(t, "https://github.com/o/r/pull/9", activities[0].Artifacts.PullRequest.URL)
}
