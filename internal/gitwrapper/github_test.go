package gitwrapper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePRURL(t *testing.T) {
	owner, repo, number, err := parsePRURL("https://github.com/acme/widgets/pull/42")
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "widgets", repo)
	assert.Equal(t, 42, number)
}

func TestParsePRURL_Invalid(t *testing.T) {
	_, _, _, err := parsePRURL("https://github.com/acme/widgets/issues/42")
	assert.Error(t, err)
}

func TestIsNonFatal(t *testing.T) {
	assert.True(t, isNonFatal(errors.New("Pull request is closed")))
	assert.True(t, isNonFatal(errors.New("request failed: HTTP 422 Unprocessable")))
	assert.False(t, isNonFatal(errors.New("connection refused")))
	assert.False(t, isNonFatal(nil))
}

func TestIsMergeConflict(t *testing.T) {
	assert.True(t, isMergeConflict(errors.New("merge conflict between base and head")))
	assert.False(t, isMergeConflict(errors.New("not found")))
}

func TestDeleteBranch_ProtectedBranchSkipped(t *testing.T) {
	c := &GitHubClient{}
	err := c.DeleteBranch(context.Background(), "https://github.com/acme/widgets/pull/1", "main")
	assert.NoError(t, err)
}
