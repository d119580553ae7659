package sandbox

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunTests_Success(t *testing.T) {
	r := NewRunner(t.TempDir(), []string{"true"})
	result := r.RunTests(context.Background())
	assert.True(t, result.Passed)
	assert.Empty(t, result.Error)
}

func TestRunTests_FailureCapturesTruncatedOutput(t *testing.T) {
	r := NewRunner(t.TempDir(), []string{"sh", "-c", "echo failing test output; exit 1"})
	result := r.RunTests(context.Background())
	assert.False(t, result.Passed)
	assert.Contains(t, result.Error, "failing test output")
	assert.LessOrEqual(t, len(result.Error), outputTruncateLen)
}

func TestRunTests_NoCommandConfigured(t *testing.T) {
	r := NewRunner(t.TempDir(), nil)
	result := r.RunTests(context.Background())
	assert.False(t, result.Passed)
	assert.NotEmpty(t, result.Error)
}

func TestCheckProbation_NoLockFileAllowsRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".probation_lock")
	gate := NewProbationGate(path, 0)
	assert.True(t, gate.CheckProbation())
}

func TestCheckProbation_FreshLockBlocksRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".probation_lock")
	gate := NewProbationGate(path, time.Hour)
	require.NoError(t, gate.EnterProbation(nil))

	assert.False(t, gate.CheckProbation())
}

func TestCheckProbation_StaleLockIsRemovedAndAllowsRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".probation_lock")
	gate := NewProbationGate(path, 10*time.Millisecond)
	require.NoError(t, gate.EnterProbation(nil))

	time.Sleep(30 * time.Millisecond)

	assert.True(t, gate.CheckProbation())
}

func TestCheckProbation_HighConfidenceShortensTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".probation_lock")
	gate := NewProbationGate(path, 100*time.Millisecond)
	confidence := 95
	require.NoError(t, gate.EnterProbation(&confidence))

	time.Sleep(10 * time.Millisecond)

	assert.True(t, gate.CheckProbation())
}

func TestCheckProbation_LowConfidenceKeepsFullTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".probation_lock")
	gate := NewProbationGate(path, 100*time.Millisecond)
	confidence := 5
	require.NoError(t, gate.EnterProbation(&confidence))

	time.Sleep(10 * time.Millisecond)

	assert.False(t, gate.CheckProbation())
}

func TestScaleTimeout(t *testing.T) {
	assert.Equal(t, time.Duration(0), scaleTimeout(600*time.Second, 100))
	assert.Equal(t, 600*time.Second, scaleTimeout(600*time.Second, 0))
	assert.Equal(t, 300*time.Second, scaleTimeout(600*time.Second, 50))
}
