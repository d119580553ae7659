package agentclient

import (
	"context"
	"sync"
	"time"

	"github.com/relayforge/conductor/internal/model"
)

// MockClient is a test double for API that records calls and returns
// canned responses keyed by session ID.
type MockClient struct {
	mu sync.Mutex

	Sources []Source

	Sessions map[string]*model.Session
	Plans    map[string]*model.Plan
	Patches  map[string]string
	Activities map[string][]model.Activity

	NextSessionID string

	SendMessageCalls []string
	ApprovePlanCalls []string
}

// NewMockClient creates an empty MockClient.
func NewMockClient() *MockClient {
	return &MockClient{
		Sessions:   make(map[string]*model.Session),
		Plans:      make(map[string]*model.Plan),
		Patches:    make(map[string]string),
		Activities: make(map[string][]model.Activity),
	}
}

func (m *MockClient) ListSources(_ context.Context) []Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Sources
}

func (m *MockClient) CreateSession(_ context.Context, _, title string, _ CreateSessionOpts) *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.NextSessionID
	if id == "" {
		id = "session-" + title
	}
	s := &model.Session{ID: id, Title: title, Status: model.StatusPending}
	m.Sessions[id] = s
	return s
}

func (m *MockClient) CreateRepolessSession(ctx context.Context, prompt, title string) *model.Session {
	return m.CreateSession(ctx, prompt, title, CreateSessionOpts{})
}

func (m *MockClient) GetSession(_ context.Context, id string) *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Sessions[id]
}

func (m *MockClient) SendMessage(_ context.Context, id, _ string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMessageCalls = append(m.SendMessageCalls, id)
	return true
}

func (m *MockClient) ApprovePlan(_ context.Context, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ApprovePlanCalls = append(m.ApprovePlanCalls, id)
	return true
}

func (m *MockClient) GetActivities(_ context.Context, id string, _ time.Time, _ int) []model.Activity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Activities[id]
}

func (m *MockClient) GetPlan(_ context.Context, id string) *model.Plan {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Plans[id]
}

func (m *MockClient) GetGitPatch(_ context.Context, id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Patches[id]
}

// SetSessionStatus mutates a tracked session's status under lock, for
// tests simulating the Agent advancing a session asynchronously.
func (m *MockClient) SetSessionStatus(id string, status model.SessionStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.Sessions[id]; ok {
		s.Status = status
	}
}

// SetSessionPRURL mutates a tracked session's PR URL under lock.
func (m *MockClient) SetSessionPRURL(id, prURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.Sessions[id]; ok {
		s.PRURL = prURL
	}
}

var _ API = (*MockClient)(nil)
