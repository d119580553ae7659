package heart

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/relayforge/conductor/internal/llmgateway"
	"github.com/relayforge/conductor/internal/prompts"
)

var (
	confidenceLineRe = regexp.MustCompile(`(?i)^\s*CONFIDENCE:\s*(-?\d+)`)
	verdictLineRe    = regexp.MustCompile(`(?i)^\s*VERDICT:\s*(.+)$`)
	reasonLineRe     = regexp.MustCompile(`(?i)^\s*REASON:\s*(.+)$`)
)

// confidenceFailSafeScore is returned whenever the gateway call fails
// or its response does not contain a parseable CONFIDENCE line — below
// the auto-surface floor, so a broken reviewer closes the PR rather
// than surfacing it for a merge decision.
const confidenceFailSafeScore = 0

// confidenceReview is the parsed CONFIDENCE/VERDICT/REASON block a
// maintainer-review prompt returns for a PR that has already passed
// the Sanitizer and Sandbox.
type confidenceReview struct {
	Confidence int
	Verdict    string
	Reason     string
}

// reviewConfidence asks llm to assess a completed PR and parses its
// three-line response. On any gateway or parse failure it fails safe
// to a zero confidence score with an explanatory reason, so the caller
// treats it the same as a maintainer who said "reject".
func reviewConfidence(ctx context.Context, llm llmgateway.Client, language, title, description, diff string) confidenceReview {
	prompt, err := prompts.Execute(language, "heart-confidence.md", map[string]string{
		"Title":       title,
		"Description": description,
		"Diff":        diff,
	})
	if err != nil {
		return confidenceReview{Confidence: confidenceFailSafeScore, Verdict: "unavailable", Reason: "building confidence prompt: " + err.Error()}
	}

	resp, err := llm.Complete(ctx, llmgateway.CompletionRequest{Prompt: prompt, NoCache: true, Language: language})
	if err != nil {
		return confidenceReview{Confidence: confidenceFailSafeScore, Verdict: "unavailable", Reason: "confidence review unavailable: " + err.Error()}
	}

	review, ok := parseConfidenceBlock(resp.Content)
	if !ok {
		return confidenceReview{Confidence: confidenceFailSafeScore, Verdict: "unparseable", Reason: "could not parse confidence response"}
	}
	return review
}

// parseConfidenceBlock scans text line by line for CONFIDENCE/VERDICT/
// REASON labels, tolerating any surrounding commentary. ok is false
// only when no CONFIDENCE line is found at all.
func parseConfidenceBlock(text string) (confidenceReview, bool) {
	var review confidenceReview
	found := false

	for _, line := range strings.Split(text, "\n") {
		if m := confidenceLineRe.FindStringSubmatch(line); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				review.Confidence = clamp(n, 0, 100)
				found = true
			}
			continue
		}
		if m := verdictLineRe.FindStringSubmatch(line); m != nil {
			review.Verdict = strings.TrimSpace(m[1])
			continue
		}
		if m := reasonLineRe.FindStringSubmatch(line); m != nil {
			review.Reason = strings.TrimSpace(m[1])
			continue
		}
	}

	return review, found
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
