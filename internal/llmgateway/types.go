// Package llmgateway is the thin client over the external LLM gateway
// used by Quality Gate, Plan Critic, Council's cross-validation and
// deduplication, and Heart's confidence review. Only the gateway's
// request/response contract is in scope — routing, model selection,
// and rate limiting live entirely on the other side of the HTTP
// boundary.
package llmgateway

import "context"

// CompletionRequest is a single one-shot completion call. NoCache must
// be set on every Quality Gate judgment — each judgment is fresh,
// never served from a cached prior response.
type CompletionRequest struct {
	Prompt   string
	System   string
	Model    string
	NoCache  bool
	Language string // prompt localization key, e.g. "en" or "fr"
}

// CompletionResponse is the gateway's raw text reply.
type CompletionResponse struct {
	Content string
}

// Client abstracts the LLM gateway for testability. Implementations
// must treat the gateway as a slow, failure-prone dependency: every
// method takes a context and returns an error rather than panicking or
// retrying internally — retry policy belongs to the caller.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
