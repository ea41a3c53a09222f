package xdg_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewarden/gatewarden/internal/xdg"
)

func TestDirs(t *testing.T) {
	t.Run("respect XDG environment overrides", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
		t.Setenv("XDG_DATA_HOME", "/tmp/data")
		t.Setenv("XDG_STATE_HOME", "/tmp/state")
		t.Setenv("XDG_RUNTIME_DIR", "/tmp/run")

		assert.Equal(t, "/tmp/cfg/gatewarden", xdg.ConfigDir())
		assert.Equal(t, "/tmp/data/gatewarden", xdg.DataDir())
		assert.Equal(t, "/tmp/state/gatewarden", xdg.StateDir())
		assert.Equal(t, "/tmp/run/gatewarden", xdg.RuntimeDir())
	})

	t.Run("fall back to home-relative defaults", func(t *testing.T) {
		t.Setenv("HOME", "/home/warden")
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("XDG_DATA_HOME", "")
		t.Setenv("XDG_STATE_HOME", "")
		t.Setenv("XDG_RUNTIME_DIR", "")

		assert.Equal(t, "/home/warden/.config/gatewarden", xdg.ConfigDir())
		assert.Equal(t, "/home/warden/.local/share/gatewarden", xdg.DataDir())
		assert.Equal(t, "/home/warden/.local/state/gatewarden", xdg.StateDir())
		assert.Equal(t, "/home/warden/.local/state/gatewarden/run", xdg.RuntimeDir())
	})
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	require.NoError(t, xdg.EnsureDir(dir))
	require.NoError(t, xdg.EnsureDir(dir), "existing directory is fine")
}
