package gitwrapper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	github_ratelimit "github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
)

// nonFatalErrors are GitHub error strings that a cleanup step should
// log and swallow rather than propagate: the desired end state (PR
// closed, branch gone) already holds by the time these fire.
var nonFatalErrors = []string{
	"Protected branch rules not configured",
	"Pull request is closed",
	"Reference does not exist",
	"HTTP 422",
	"Not Found",
}

// GitHubClient implements Client against the real GitHub REST API.
type GitHubClient struct {
	client *gh.Client
}

// NewGitHubClient builds a GitHubClient authenticated with token, with
// go-github-ratelimit middleware absorbing secondary rate limits.
func NewGitHubClient(token string) *GitHubClient {
	rateLimiter := github_ratelimit.NewClient(nil)
	return &GitHubClient{client: gh.NewClient(rateLimiter).WithAuthToken(token)}
}

func (c *GitHubClient) MergePR(ctx context.Context, prURL string, squash bool) (bool, error) {
	owner, repo, number, err := parsePRURL(prURL)
	if err != nil {
		return false, err
	}

	method := "squash"
	if !squash {
		method = "merge"
	}

	_, _, err = c.client.PullRequests.Merge(ctx, owner, repo, number, "", &gh.PullRequestOptions{MergeMethod: method})
	if err == nil {
		return true, nil
	}
	if !isMergeConflict(err) {
		return false, fmt.Errorf("merging PR %s: %w", prURL, err)
	}

	// Auto-rebase onto the base branch and retry once.
	if _, rebaseErr := c.rebaseOntoBase(ctx, owner, repo, number); rebaseErr != nil {
		return false, fmt.Errorf("merging PR %s: conflict, rebase failed: %w", prURL, rebaseErr)
	}
	_, _, err = c.client.PullRequests.Merge(ctx, owner, repo, number, "", &gh.PullRequestOptions{MergeMethod: method})
	if err != nil {
		return false, fmt.Errorf("merging PR %s after rebase: %w", prURL, err)
	}
	return true, nil
}

func (c *GitHubClient) ClosePR(ctx context.Context, prURL string) error {
	owner, repo, number, err := parsePRURL(prURL)
	if err != nil {
		return err
	}
	_, _, err = c.client.PullRequests.Edit(ctx, owner, repo, number, &gh.PullRequest{State: gh.Ptr("closed")})
	if err != nil && !isNonFatal(err) {
		return fmt.Errorf("closing PR %s: %w", prURL, err)
	}
	return nil
}

func (c *GitHubClient) DeleteBranch(ctx context.Context, prURL, branch string) error {
	if protectedBranches[branch] {
		slog.Warn("refusing to delete protected branch", "branch", branch, "pr", prURL)
		return nil
	}
	owner, repo, _, err := parsePRURL(prURL)
	if err != nil {
		return err
	}
	_, err = c.client.Git.DeleteRef(ctx, owner, repo, "refs/heads/"+branch)
	if err != nil && !isNonFatal(err) {
		return fmt.Errorf("deleting branch %s: %w", branch, err)
	}
	return nil
}

func (c *GitHubClient) CleanupPR(ctx context.Context, prURL string, merge bool) bool {
	branch, err := c.GetPRBranch(ctx, prURL)
	if err != nil {
		slog.Warn("cleanup: could not resolve PR branch", "pr", prURL, "error", err)
		branch = ""
	}

	ok := true
	if merge {
		merged, err := c.MergePR(ctx, prURL, true)
		if err != nil || !merged {
			slog.Warn("cleanup: merge failed", "pr", prURL, "error", err)
			ok = false
		}
	} else {
		if err := c.ClosePR(ctx, prURL); err != nil {
			slog.Warn("cleanup: close failed", "pr", prURL, "error", err)
			ok = false
		}
	}

	if branch != "" {
		if err := c.DeleteBranch(ctx, prURL, branch); err != nil {
			slog.Warn("cleanup: branch delete failed", "pr", prURL, "branch", branch, "error", err)
		}
	}
	return ok
}

func (c *GitHubClient) UpdatePRBranch(ctx context.Context, prURL string) (bool, error) {
	owner, repo, number, err := parsePRURL(prURL)
	if err != nil {
		return false, err
	}

	_, _, err = c.client.PullRequests.UpdateBranch(ctx, owner, repo, number, nil)
	if err == nil {
		return true, nil
	}

	// Fallback to a merge commit from base into head.
	pr, _, getErr := c.client.PullRequests.Get(ctx, owner, repo, number)
	if getErr != nil {
		return false, fmt.Errorf("updating PR %s branch: rebase failed (%v), fallback lookup failed: %w", prURL, err, getErr)
	}
	_, _, mergeErr := c.client.Repositories.Merge(ctx, owner, repo, &gh.RepositoryMergeRequest{
		Base: gh.Ptr(pr.GetHead().GetRef()),
		Head: gh.Ptr(pr.GetBase().GetRef()),
	})
	if mergeErr != nil {
		return false, fmt.Errorf("updating PR %s branch: rebase failed (%v), merge fallback failed: %w", prURL, err, mergeErr)
	}
	return true, nil
}

func (c *GitHubClient) GetPRDiff(ctx context.Context, prURL string) (string, error) {
	owner, repo, number, err := parsePRURL(prURL)
	if err != nil {
		return "", err
	}
	raw, _, err := c.client.PullRequests.GetRaw(ctx, owner, repo, number, gh.RawOptions{Type: gh.Diff})
	if err != nil {
		return "", fmt.Errorf("getting diff for PR %s: %w", prURL, err)
	}
	return raw, nil
}

func (c *GitHubClient) GetPRBranch(ctx context.Context, prURL string) (string, error) {
	owner, repo, number, err := parsePRURL(prURL)
	if err != nil {
		return "", err
	}
	pr, _, err := c.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return "", fmt.Errorf("getting PR %s: %w", prURL, err)
	}
	return pr.GetHead().GetRef(), nil
}

func (c *GitHubClient) IsPRMerged(ctx context.Context, prURL string) (bool, error) {
	owner, repo, number, err := parsePRURL(prURL)
	if err != nil {
		return false, err
	}
	merged, _, err := c.client.PullRequests.IsMerged(ctx, owner, repo, number)
	if err != nil {
		return false, fmt.Errorf("checking merged state for PR %s: %w", prURL, err)
	}
	return merged, nil
}

// rebaseOntoBase rebases a PR's head branch onto its base via the
// update-branch API, used as the auto-rebase step before a retried
// merge.
func (c *GitHubClient) rebaseOntoBase(ctx context.Context, owner, repo string, number int) (bool, error) {
	_, _, err := c.client.PullRequests.UpdateBranch(ctx, owner, repo, number, nil)
	if err != nil {
		return false, err
	}
	return true, nil
}

// parsePRURL extracts owner, repo, and PR number from a URL shaped
// like https://github.com/{owner}/{repo}/pull/{number}.
func parsePRURL(prURL string) (owner, repo string, number int, err error) {
	u, err := url.Parse(prURL)
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid PR URL %q: %w", prURL, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 4 || parts[2] != "pull" {
		return "", "", 0, fmt.Errorf("PR URL %q is not of the form /owner/repo/pull/number", prURL)
	}
	number, err = strconv.Atoi(parts[3])
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid PR number in URL %q: %w", prURL, err)
	}
	return parts[0], parts[1], number, nil
}

func isNonFatal(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, s := range nonFatalErrors {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func isMergeConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "conflict") || strings.Contains(msg, "405")
}

var _ Client = (*GitHubClient)(nil)
