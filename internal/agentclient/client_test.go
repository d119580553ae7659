package agentclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/relayforge/conductor/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(server *httptest.Server) *Client {
	c := New(server.URL, "test-token")
	return c
}

func TestCreateSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/sessions", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var body createSessionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "main", body.StartingBranch)
		assert.True(t, body.AutoCreatePR)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(sessionWire{ID: "s1", Title: "do the thing", State: "PENDING"})
	}))
	defer server.Close()

	c := newTestClient(server)
	session := c.CreateSession(context.Background(), "do the thing", "do the thing", CreateSessionOpts{AutoCreatePR: true})
	require.NotNil(t, session)
	assert.Equal(t, "s1", session.ID)
	assert.Equal(t, model.StatusPending, session.Status)
}

func TestCreateSession_ErrorSurfacesAsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(server)
	session := c.CreateSession(context.Background(), "p", "t", CreateSessionOpts{})
	assert.Nil(t, session)
}

func TestGetSession_DerivesPROpenFromPullRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(sessionWire{
			ID:    "s1",
			State: "EXECUTING",
			PullRequest: &struct {
				URL         string `json:"url"`
				Title       string `json:"title"`
				Description string `json:"description"`
			}{URL: "https://github.com/o/r/pull/1", Title: "t", Description: "d"},
		})
	}))
	defer server.Close()

	c := newTestClient(server)
	session := c.GetSession(context.Background(), "s1")
	require.NotNil(t, session)
	assert.Equal(t, model.StatusPROpen, session.Status)
	assert.Equal(t, "https://github.com/o/r/pull/1", session.PRURL)
}

func TestGetSession_NonPROpenMapsStateDirectly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(sessionWire{ID: "s1", State: "AWAITING_PLAN_APPROVAL"})
	}))
	defer server.Close()

	c := newTestClient(server)
	session := c.GetSession(context.Background(), "s1")
	require.NotNil(t, session)
	assert.Equal(t, model.StatusAwaitingPlanApproval, session.Status)
}

func TestGetGitPatch_ReturnsNewestFirst(t *testing.T) {
	older := time.Now().Add(-time.Hour).Format(time.RFC3339)
	newer := time.Now().Format(time.RFC3339)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"activities":[
			{"id":"a1","createTime":%q,"artifacts":{"changeSet":{"gitPatch":{"unidiffPatch":"stale diff"}}}},
			{"id":"a2","createTime":%q,"artifacts":{"changeSet":{"gitPatch":{"unidiffPatch":"fresh diff"}}}}
		]}`, older, newer)
	}))
	defer server.Close()

	c := newTestClient(server)
	patch := c.GetGitPatch(context.Background(), "s1")
	assert.Equal(t, "fresh diff", patch)
}

func TestGetGitPatch_SkipsEmptyPatchesForOlderNonEmpty(t *testing.T) {
	older := time.Now().Add(-time.Hour).Format(time.RFC3339)
	newer := time.Now().Format(time.RFC3339)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"activities":[
			{"id":"a1","createTime":%q,"artifacts":{"changeSet":{"gitPatch":{"unidiffPatch":"real diff"}}}},
			{"id":"a2","createTime":%q,"artifacts":{}}
		]}`, older, newer)
	}))
	defer server.Close()

	c := newTestClient(server)
	patch := c.GetGitPatch(context.Background(), "s1")
	assert.Equal(t, "real diff", patch)
}

func TestGetPlan_ReturnsMostRecent(t *testing.T) {
	older := time.Now().Add(-time.Hour).Format(time.RFC3339)
	newer := time.Now().Format(time.RFC3339)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"activities":[
			{"id":"a1","createTime":%q,"artifacts":{"planGenerated":{"plan":"first plan"}}},
			{"id":"a2","createTime":%q,"artifacts":{"planGenerated":{"plan":"second plan"}}}
		]}`, older, newer)
	}))
	defer server.Close()

	c := newTestClient(server)
	plan := c.GetPlan(context.Background(), "s1")
	require.NotNil(t, plan)
	assert.Equal(t, "second plan", plan.Text)
}

func TestSendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/sessions/s1/messages", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(server)
	assert.True(t, c.SendMessage(context.Background(), "s1", "keep going"))
}

func TestApprovePlan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/sessions/s1/approve-plan", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	c := newTestClient(server)
	assert.True(t, c.ApprovePlan(context.Background(), "s1"))
}

func TestListSources_CachesPreferred(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(listSourcesResponse{Sources: []Source{{ID: "repo-1", Name: "repo"}}})
	}))
	defer server.Close()

	c := newTestClient(server)
	sources := c.ListSources(context.Background())
	require.Len(t, sources, 1)
	assert.Equal(t, "repo-1", c.preferredSource)
}
