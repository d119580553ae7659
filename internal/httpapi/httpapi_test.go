package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/relayforge/conductor/internal/council"
	"github.com/relayforge/conductor/internal/gitwrapper"
	"github.com/relayforge/conductor/internal/history"
	"github.com/relayforge/conductor/internal/llmgateway"
	"github.com/relayforge/conductor/internal/model"
	"github.com/relayforge/conductor/internal/notifier"
	"github.com/relayforge/conductor/internal/staging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLLM struct{}

func (noopLLM) Complete(ctx context.Context, req llmgateway.CompletionRequest) (*llmgateway.CompletionResponse, error) {
	return &llmgateway.CompletionResponse{Content: "[]"}, nil
}

type noopForge struct{}

func (noopForge) RunMission(ctx context.Context, mission model.Mission) model.MissionResult {
	return model.MissionResult{Title: mission.Title, Status: "SUCCESS"}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	stage := staging.New(dir, gitwrapper.NewMockClient())
	notif := notifier.New(filepath.Join(dir, "notifications.json"))
	hist := history.New(filepath.Join(dir, "merge_history.json"))
	c := council.New(noopLLM{}, noopForge{}, stage)

	s := New(stage, notif, hist, c)
	s.BriefPath = filepath.Join(dir, "morning_brief.json")
	s.ExecutionReportPath = filepath.Join(dir, "nightly_execution.json")
	return s
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.mux().ServeHTTP(rec, r)
	return rec
}

func TestHandleStatus_EmptyState(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "idle", resp.Status)
	assert.Equal(t, 0, resp.StagedProjects)
}

func TestHandleMorningBrief_DefaultsWhenMissing(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/morning-brief", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var brief model.ProposalBrief
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&brief))
	assert.Empty(t, brief.Candidates)
	assert.Empty(t, brief.Date)
}

func TestHandleProject_NotFound(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/project/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleProjectDecision_RejectRemovesFromStaged(t *testing.T) {
	s := newTestServer(t)

	proj, err := s.Staging.StageProject("Add widget", "desc", "sess-1", "https://example.com/pr/1", "diff", nil)
	require.NoError(t, err)

	rec := doRequest(s, http.MethodPost, "/project/"+proj.ID+"/decision", `{"action":"REJECT","reason":"not useful"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	projects, err := s.Staging.ListStagedProjects()
	require.NoError(t, err)
	assert.Empty(t, projects)

	rejected, err := s.Staging.ListRejected()
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "Add widget", rejected[0].Title)
}

func TestHandleProjectDecision_MergeRecordsHistory(t *testing.T) {
	s := newTestServer(t)

	proj, err := s.Staging.StageProject("Fix bug", "desc", "sess-2", "https://example.com/pr/2", "diff", nil)
	require.NoError(t, err)

	rec := doRequest(s, http.MethodPost, "/project/"+proj.ID+"/decision", `{"action":"MERGE"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	entries, err := s.History.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Fix bug", entries[0].Title)
}

func TestHandleProjectDecision_UnknownActionIsBadRequest(t *testing.T) {
	s := newTestServer(t)

	proj, err := s.Staging.StageProject("x", "desc", "sess-3", "", "diff", nil)
	require.NoError(t, err)

	rec := doRequest(s, http.MethodPost, "/project/"+proj.ID+"/decision", `{"action":"FROBNICATE"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// blockingLLM blocks Complete until release is closed, so a test can
// hold a Convene call open long enough to observe Council.IsRunning()
// deterministically rather than racing a near-instant no-op run.
type blockingLLM struct {
	release chan struct{}
}

func (b blockingLLM) Complete(ctx context.Context, req llmgateway.CompletionRequest) (*llmgateway.CompletionResponse, error) {
	<-b.release
	return &llmgateway.CompletionResponse{Content: "[]"}, nil
}

func TestHandleCouncilStart_ConflictWhenRunning(t *testing.T) {
	dir := t.TempDir()
	stage := staging.New(dir, gitwrapper.NewMockClient())
	notif := notifier.New(filepath.Join(dir, "notifications.json"))
	hist := history.New(filepath.Join(dir, "merge_history.json"))
	release := make(chan struct{})
	c := council.New(blockingLLM{release: release}, noopForge{}, stage)
	s := New(stage, notif, hist, c)
	s.BriefPath = filepath.Join(dir, "morning_brief.json")
	s.ExecutionReportPath = filepath.Join(dir, "nightly_execution.json")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Convene(context.Background())
	}()

	// Convene's first collector call blocks on release; wait for the
	// CompareAndSwap to flip before exercising the HTTP conflict path.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if running, _ := c.IsRunning(); running {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("council never reported running")
		}
		time.Sleep(time.Millisecond)
	}

	rec := doRequest(s, http.MethodPost, "/council/start", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(release)
	<-done
}

func TestHandleNotifications_RecordAndList(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/notifications", `{"event":"pr_rejected","message":"blocked","dedup_key":"a"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(s, http.MethodGet, "/notifications", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string][]model.Notification
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp["notifications"], 1)
	assert.Equal(t, "pr_rejected", resp["notifications"][0].Event)
}
