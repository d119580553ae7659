package agentclient

import (
	"context"
	"time"

	"github.com/relayforge/conductor/internal/model"
)

// API is the surface Forge, Heart, and Council depend on. Client
// implements it against the real Agent API; MockClient implements it in
// tests.
type API interface {
	ListSources(ctx context.Context) []Source
	CreateSession(ctx context.Context, prompt, title string, opts CreateSessionOpts) *model.Session
	CreateRepolessSession(ctx context.Context, prompt, title string) *model.Session
	GetSession(ctx context.Context, id string) *model.Session
	SendMessage(ctx context.Context, id, prompt string) bool
	ApprovePlan(ctx context.Context, id string) bool
	GetActivities(ctx context.Context, id string, since time.Time, pageSize int) []model.Activity
	GetPlan(ctx context.Context, id string) *model.Plan
	GetGitPatch(ctx context.Context, id string) string
}

var _ API = (*Client)(nil)
