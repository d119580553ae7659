package llmgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

const maxJSONRetries = 2

// ParseJSONResponse attempts to parse a JSON response from gateway
// output. If the raw response is not valid JSON, it strips markdown
// fences/preamble and tries again; if that still fails and a client is
// available, it re-prompts the gateway to return JSON-only, up to
// maxJSONRetries times.
func ParseJSONResponse[T any](ctx context.Context, client Client, req CompletionRequest, rawResponse string) (T, error) {
	var zero T

	if err := json.Unmarshal([]byte(rawResponse), &zero); err == nil {
		return zero, nil
	}

	cleaned := stripMarkdownJSON(rawResponse)
	var result T
	if err := json.Unmarshal([]byte(cleaned), &result); err == nil {
		return result, nil
	}

	if client != nil {
		retryReq := req
		retryReq.Prompt = "Your previous response was not valid JSON. Return ONLY the JSON object/array specified, with no markdown fences, no explanation."
		retryReq.NoCache = true

		for i := 0; i < maxJSONRetries; i++ {
			slog.Debug("retrying JSON parse via llm gateway", "attempt", i+1)

			resp, err := client.Complete(ctx, retryReq)
			if err != nil {
				continue
			}

			if err := json.Unmarshal([]byte(resp.Content), &result); err == nil {
				return result, nil
			}

			cleaned = stripMarkdownJSON(resp.Content)
			if err := json.Unmarshal([]byte(cleaned), &result); err == nil {
				return result, nil
			}
		}
	}

	return zero, fmt.Errorf("failed to parse JSON response after %d retries: %s", maxJSONRetries, truncate(rawResponse, 200))
}

// stripMarkdownJSON removes markdown code fences and leading/trailing
// non-JSON text.
func stripMarkdownJSON(s string) string {
	s = strings.TrimSpace(s)

	re := regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")
	if matches := re.FindStringSubmatch(s); len(matches) > 1 {
		s = strings.TrimSpace(matches[1])
	}

	startObj := strings.IndexByte(s, '{')
	startArr := strings.IndexByte(s, '[')

	start := -1
	isArray := false

	switch {
	case startObj >= 0 && startArr >= 0:
		if startArr < startObj {
			start = startArr
			isArray = true
		} else {
			start = startObj
		}
	case startObj >= 0:
		start = startObj
	case startArr >= 0:
		start = startArr
		isArray = true
	}

	if start < 0 {
		return s
	}

	var end int
	if isArray {
		end = strings.LastIndexByte(s, ']')
	} else {
		end = strings.LastIndexByte(s, '}')
	}

	if end <= start {
		return s
	}

	return s[start : end+1]
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
