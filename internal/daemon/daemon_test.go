package daemon

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withDataHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	return dir
}

func TestStatus_NotRunningWithoutPIDFile(t *testing.T) {
	withDataHome(t)

	running, pid, _, err := Status()
	require.NoError(t, err)
	assert.False(t, running)
	assert.Zero(t, pid)
}

func TestPIDFilePath_UsesXDGDataHome(t *testing.T) {
	dir := withDataHome(t)
	assert.Contains(t, PIDFilePath(), dir)
	assert.Contains(t, PIDFilePath(), "conductor")
}

func TestStart_ForegroundRunsInlineWithoutForking(t *testing.T) {
	withDataHome(t)

	called := false
	err := Start(true, "", nil, func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	// The PID file is removed once the foreground run returns.
	running, _, _, err := Status()
	require.NoError(t, err)
	assert.False(t, running)
}

func TestStart_ForegroundPropagatesRunError(t *testing.T) {
	withDataHome(t)

	boom := errors.New("boom")
	err := Start(true, "", nil, func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestStop_ErrorsWhenNotRunning(t *testing.T) {
	withDataHome(t)

	err := Stop()
	assert.Error(t, err)
}
