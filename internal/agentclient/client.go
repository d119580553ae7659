// Package agentclient is a stateful authenticated HTTP client over the
// external coding-agent API: sessions, activities, plans, and diffs.
// Errors surface as a nil result plus a logged warning rather than a
// propagated error, so a poll loop never has to special-case a single
// flaky request. The client does no rate-limit backoff.
package agentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/relayforge/conductor/internal/model"
)

// Client is a stateful authenticated HTTP client for the Agent API.
type Client struct {
	baseURL         string
	token           string
	httpClient      *http.Client
	preferredSource string
}

// New creates a Client targeting baseURL, authenticated with token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// ListSources returns the repositories the Agent API can attach a
// session to, caching the preferred one once resolved.
func (c *Client) ListSources(ctx context.Context) []Source {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/sources", nil)
	if err != nil {
		slog.Warn("agentclient: list sources failed", "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("agentclient: list sources returned non-200", "status", resp.StatusCode)
		return nil
	}

	var wire listSourcesResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		slog.Warn("agentclient: decoding sources failed", "error", err)
		return nil
	}

	if len(wire.Sources) > 0 {
		c.preferredSource = wire.Sources[0].ID
	}
	return wire.Sources
}

// CreateSessionOpts configures CreateSession.
type CreateSessionOpts struct {
	Source              string
	StartingBranch      string
	AutoCreatePR        bool
	RequirePlanApproval bool
}

// CreateSession starts a new Agent session against a repository source.
func (c *Client) CreateSession(ctx context.Context, prompt, title string, opts CreateSessionOpts) *model.Session {
	startingBranch := opts.StartingBranch
	if startingBranch == "" {
		startingBranch = "main"
	}

	body := createSessionRequest{
		Prompt:              prompt,
		Title:               title,
		Source:              opts.Source,
		StartingBranch:      startingBranch,
		AutoCreatePR:        opts.AutoCreatePR,
		RequirePlanApproval: opts.RequirePlanApproval,
	}
	return c.createSession(ctx, "/v1/sessions", body)
}

// CreateRepolessSession starts a sandbox-mode session with no repository
// context attached.
func (c *Client) CreateRepolessSession(ctx context.Context, prompt, title string) *model.Session {
	body := createSessionRequest{
		Prompt:       prompt,
		Title:        title,
		AutoCreatePR: false,
	}
	return c.createSession(ctx, "/v1/sessions/repoless", body)
}

func (c *Client) createSession(ctx context.Context, path string, body createSessionRequest) *model.Session {
	resp, err := c.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		slog.Warn("agentclient: create session failed", "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		slog.Warn("agentclient: create session returned non-2xx", "status", resp.StatusCode)
		return nil
	}

	var wire sessionWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		slog.Warn("agentclient: decoding session failed", "error", err)
		return nil
	}
	return toSession(wire)
}

// GetSession fetches a session's current status, deriving PR_OPEN from
// the presence of a pull request artifact.
func (c *Client) GetSession(ctx context.Context, id string) *model.Session {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/sessions/"+id, nil)
	if err != nil {
		slog.Warn("agentclient: get session failed", "id", id, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("agentclient: get session returned non-200", "id", id, "status", resp.StatusCode)
		return nil
	}

	var wire sessionWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		slog.Warn("agentclient: decoding session failed", "id", id, "error", err)
		return nil
	}
	return toSession(wire)
}

func toSession(wire sessionWire) *model.Session {
	s := &model.Session{
		ID:     wire.ID,
		Title:  wire.Title,
		Status: model.ParseSessionStatus(wire.State),
	}
	if wire.PullRequest != nil && wire.PullRequest.URL != "" {
		s.Status = model.StatusPROpen
		s.PRURL = wire.PullRequest.URL
		s.PRTitle = wire.PullRequest.Title
		s.PRDescription = wire.PullRequest.Description
	}
	return s
}

// SendMessage appends a follow-up instruction to an in-flight session.
func (c *Client) SendMessage(ctx context.Context, id, prompt string) bool {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/sessions/"+id+"/messages", sendMessageRequest{Prompt: prompt})
	if err != nil {
		slog.Warn("agentclient: send message failed", "id", id, "error", err)
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusAccepted
}

// ApprovePlan approves the pending plan on a session awaiting approval.
func (c *Client) ApprovePlan(ctx context.Context, id string) bool {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/sessions/"+id+"/approve-plan", nil)
	if err != nil {
		slog.Warn("agentclient: approve plan failed", "id", id, "error", err)
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusAccepted
}

// GetActivities returns up to pageSize activities for a session, oldest
// first as returned by the API. since, if non-zero, bounds the query to
// activities created after that time.
func (c *Client) GetActivities(ctx context.Context, id string, since time.Time, pageSize int) []model.Activity {
	if pageSize <= 0 {
		pageSize = 30
	}

	path := fmt.Sprintf("/v1/sessions/%s/activities?pageSize=%d", id, pageSize)
	if !since.IsZero() {
		path += "&since=" + since.UTC().Format(time.RFC3339)
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		slog.Warn("agentclient: get activities failed", "id", id, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("agentclient: get activities returned non-200", "id", id, "status", resp.StatusCode)
		return nil
	}

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn("agentclient: reading activities body failed", "id", id, "error", err)
		return nil
	}
	return parseActivities(rawBody)
}

// GetPlan returns the most recent plan across a session's activities.
// Activities are scanned forward (oldest first) because get_activities
// already returns them in that order and later planGenerated artifacts
// replace earlier ones on refinement.
func (c *Client) GetPlan(ctx context.Context, id string) *model.Plan {
	activities := c.GetActivities(ctx, id, time.Time{}, 100)

	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].CreateTime.Before(activities[j].CreateTime)
	})

	var latest *model.Plan
	for _, a := range activities {
		if a.Artifacts.PlanGenerated != nil {
			plan := a.Artifacts.PlanGenerated.Plan
			latest = &plan
		}
	}
	return latest
}

// GetGitPatch returns the most recent unified diff for a session.
// Activities must be scanned newest-first: returning a stale patch here
// is a correctness bug, since this is the authoritative diff source.
func (c *Client) GetGitPatch(ctx context.Context, id string) string {
	activities := c.GetActivities(ctx, id, time.Time{}, 100)

	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].CreateTime.After(activities[j].CreateTime)
	})

	for _, a := range activities {
		if a.Artifacts.ChangeSet != nil && a.Artifacts.ChangeSet.GitPatch != nil {
			if patch := a.Artifacts.ChangeSet.GitPatch.UnidiffPatch; patch != "" {
				return patch
			}
		}
	}
	return ""
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.httpClient.Do(req)
}
