package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func newFlagCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("dir", ".", "")
	cmd.Flags().String("entry", "", "")
	cmd.Flags().String("source", "loam", "")
	cmd.Flags().String("session-dir", "", "")
	cmd.Flags().String("redis-url", "", "")
	cmd.Flags().Bool("debug", false, "")
	cmd.Flags().Bool("no-color", false, "")
	return cmd
}

func TestSetting_Precedence(t *testing.T) {
	t.Setenv(EnvEntry, "from-env")

	cmd := newFlagCmd()
	assert.Equal(t, "from-env", setting(cmd, "entry", EnvEntry))

	assert.NoError(t, cmd.Flags().Set("entry", "from-flag"))
	assert.Equal(t, "from-flag", setting(cmd, "entry", EnvEntry))

	assert.Equal(t, "loam", setting(cmd, "source", EnvSource))
}

func TestBoolSetting(t *testing.T) {
	t.Setenv(EnvDebug, "true")
	assert.True(t, boolSetting(newFlagCmd(), "debug", EnvDebug))

	t.Setenv(EnvDebug, "nope")
	assert.False(t, boolSetting(newFlagCmd(), "debug", EnvDebug))
}

func TestRunOptions(t *testing.T) {
	t.Setenv(EnvDir, "")
	t.Setenv(EnvSessionDir, "")
	t.Setenv(EnvRedisURL, "")

	opts := runOptions(newFlagCmd(), []string{"flows"})
	assert.Equal(t, "flows", opts.RepoPath)
	assert.Equal(t, filepath.Join("flows", ".stepwise", "sessions"), opts.SessionDir)
	assert.Empty(t, opts.RedisURL)

	cmd := newFlagCmd()
	assert.NoError(t, cmd.Flags().Set("dir", "other"))
	assert.NoError(t, cmd.Flags().Set("session-dir", "/tmp/s"))
	opts = runOptions(cmd, []string{"flows"})
	assert.Equal(t, "other", opts.RepoPath)
	assert.Equal(t, "/tmp/s", opts.SessionDir)
}
