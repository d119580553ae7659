package llmgateway

import (
	"context"
	"sync"
)

// MockClient is a test double for Client.
type MockClient struct {
	mu            sync.Mutex
	Responses     []string // consumed in order; last value repeats once exhausted
	DefaultResult string
	Calls         []CompletionRequest
	Err           error
}

// NewMockClient creates a MockClient with a sensible default response.
func NewMockClient() *MockClient {
	return &MockClient{DefaultResult: `{}`}
}

// Complete records the call and returns the next queued response.
func (m *MockClient) Complete(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if m.Err != nil {
		return nil, m.Err
	}

	if len(m.Responses) == 0 {
		return &CompletionResponse{Content: m.DefaultResult}, nil
	}

	next := m.Responses[0]
	if len(m.Responses) > 1 {
		m.Responses = m.Responses[1:]
	}
	return &CompletionResponse{Content: next}, nil
}
