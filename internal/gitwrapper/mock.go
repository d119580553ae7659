package gitwrapper

import (
	"context"
	"sync"
)

// MockClient is an in-memory Client for tests that exercise the
// Staging Store and Forge without a live GitHub connection.
type MockClient struct {
	mu sync.Mutex

	MergeResult  bool
	MergeErr     error
	CloseErr     error
	DeleteErr    error
	CleanupOK    bool
	UpdateResult bool
	UpdateErr    error
	Diffs        map[string]string
	Branches     map[string]string
	Merged       map[string]bool

	MergeCalls  []string
	CloseCalls  []string
	DeleteCalls []string
}

// NewMockClient returns a MockClient defaulted to successful outcomes.
func NewMockClient() *MockClient {
	return &MockClient{
		MergeResult:  true,
		CleanupOK:    true,
		UpdateResult: true,
		Diffs:        make(map[string]string),
		Branches:     make(map[string]string),
		Merged:       make(map[string]bool),
	}
}

func (m *MockClient) MergePR(ctx context.Context, prURL string, squash bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MergeCalls = append(m.MergeCalls, prURL)
	if m.MergeErr != nil {
		return false, m.MergeErr
	}
	if m.MergeResult {
		m.Merged[prURL] = true
	}
	return m.MergeResult, nil
}

func (m *MockClient) ClosePR(ctx context.Context, prURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls = append(m.CloseCalls, prURL)
	return m.CloseErr
}

func (m *MockClient) DeleteBranch(ctx context.Context, prURL, branch string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if protectedBranches[branch] {
		return nil
	}
	m.DeleteCalls = append(m.DeleteCalls, branch)
	return m.DeleteErr
}

func (m *MockClient) CleanupPR(ctx context.Context, prURL string, merge bool) bool {
	if merge {
		_, _ = m.MergePR(ctx, prURL, true)
	} else {
		_ = m.ClosePR(ctx, prURL)
	}
	if branch := m.Branches[prURL]; branch != "" {
		_ = m.DeleteBranch(ctx, prURL, branch)
	}
	return m.CleanupOK
}

func (m *MockClient) UpdatePRBranch(ctx context.Context, prURL string) (bool, error) {
	return m.UpdateResult, m.UpdateErr
}

func (m *MockClient) GetPRDiff(ctx context.Context, prURL string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Diffs[prURL], nil
}

func (m *MockClient) GetPRBranch(ctx context.Context, prURL string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Branches[prURL], nil
}

func (m *MockClient) IsPRMerged(ctx context.Context, prURL string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Merged[prURL], nil
}

var _ Client = (*MockClient)(nil)
