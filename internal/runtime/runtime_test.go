package runtime

import (
	"os"
	"testing"
	"time"

	"github.com/relayforge/conductor/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_WiresConfigIntoComponents(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Memory.RootDir = dir
	cfg.Repo.LocalPath = dir

	rt, err := Build(&cfg)
	require.NoError(t, err)

	assert.Equal(t, 5, rt.Forge.Cfg.MaxIterations)
	assert.Equal(t, 5, rt.Forge.Cfg.MaxUnchangedRetries)

	assert.Equal(t, 60*time.Second, rt.Heart.Cfg.PollInterval)
	assert.Equal(t, 3, rt.Heart.Cfg.MaxRefinements)
	assert.Equal(t, dir, rt.Heart.Cfg.SandboxWorkDir)

	assert.Equal(t, 3, rt.Council.Cfg.TargetSuccess)
	assert.Equal(t, dir, rt.Council.Cfg.RepoDir)
	assert.NotEmpty(t, rt.Council.Cfg.BriefPath)

	assert.Equal(t, 24*time.Hour, rt.Harvester.Cfg.RefreshInterval)
	assert.Equal(t, dir, rt.Harvester.Cfg.StateDir)

	assert.Equal(t, rt.Council.Cfg.BriefPath, rt.HTTP.BriefPath)
	assert.Equal(t, rt.Council.Cfg.ExecutionReportPath, rt.HTTP.ExecutionReportPath)
}

func TestBuild_CreatesMemoryRoot(t *testing.T) {
	dir := t.TempDir() + "/nested/memory"
	cfg := config.DefaultConfig()
	cfg.Memory.RootDir = dir

	_, err := Build(&cfg)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
