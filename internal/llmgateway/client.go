package llmgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// HTTPClient is an llmgateway.Client backed by a plain HTTP completion
// endpoint: an explicit context timeout, a hand-built request, and
// defensive JSON decoding — no SDK dependency, since the gateway's
// wire contract is the only thing in scope.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates an HTTPClient targeting baseURL, authenticated
// with token.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type completionWireRequest struct {
	Prompt   string `json:"prompt"`
	System   string `json:"system,omitempty"`
	Model    string `json:"model,omitempty"`
	NoCache  bool   `json:"no_cache,omitempty"`
	Language string `json:"language,omitempty"`
}

type completionWireResponse struct {
	Content string `json:"content"`
}

// Complete submits req to the gateway's /v1/complete endpoint and
// returns its raw text content.
func (c *HTTPClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	body, err := json.Marshal(completionWireRequest{
		Prompt:   req.Prompt,
		System:   req.System,
		Model:    req.Model,
		NoCache:  req.NoCache,
		Language: req.Language,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/complete", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		slog.Warn("llm gateway request failed", "error", err)
		return nil, fmt.Errorf("calling llm gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llm gateway returned status %d", resp.StatusCode)
	}

	var wire completionWireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decoding completion response: %w", err)
	}

	return &CompletionResponse{Content: wire.Content}, nil
}
