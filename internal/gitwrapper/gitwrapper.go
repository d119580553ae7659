// Package gitwrapper is a GitHub-only wrapper over the handful of git
// operations the Staging Store needs: merging a PR, closing it,
// deleting its branch, and reading its diff. Everything else about
// git and GitHub is out of scope — callers only ever see a bool/error
// contract, never raw GitHub API types.
package gitwrapper

import "context"

// protectedBranches must never be deleted, even on request.
var protectedBranches = map[string]bool{
	"main":   true,
	"master": true,
}

// Client is the contract the Staging Store and Forge depend on.
type Client interface {
	// MergePR merges the PR at prURL, as a squash merge when squash is
	// true and a merge commit otherwise. If that merge fails on a
	// conflict, it rebases onto the base branch and retries once.
	MergePR(ctx context.Context, prURL string, squash bool) (bool, error)

	// ClosePR closes the PR without merging it.
	ClosePR(ctx context.Context, prURL string) error

	// DeleteBranch deletes branch on the PR's repo. Protected branches
	// are silently skipped rather than erroring.
	DeleteBranch(ctx context.Context, prURL, branch string) error

	// CleanupPR closes or merges prURL (per merge) and then deletes
	// its source branch, reporting overall success.
	CleanupPR(ctx context.Context, prURL string, merge bool) bool

	// UpdatePRBranch rebases the PR's branch onto its base, falling
	// back to a merge commit if the rebase itself conflicts.
	UpdatePRBranch(ctx context.Context, prURL string) (bool, error)

	// GetPRDiff returns the unified diff for the PR.
	GetPRDiff(ctx context.Context, prURL string) (string, error)

	// GetPRBranch returns the PR's source branch name.
	GetPRBranch(ctx context.Context, prURL string) (string, error)

	// IsPRMerged reports whether prURL has already been merged.
	IsPRMerged(ctx context.Context, prURL string) (bool, error)
}
