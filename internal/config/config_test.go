// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewarden/gatewarden/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gatewarden.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults apply without file or flags", func(t *testing.T) {
		cfg, err := config.Load("", nil)
		require.NoError(t, err)

		assert.Equal(t, config.DefaultCredentialsFile, cfg.CredentialsFile)
		assert.Equal(t, config.DefaultLogFormat, cfg.LogFormat)
		assert.Equal(t, config.DefaultMovementNotifyInterval, cfg.MovementNotifyInterval)
		assert.NotEmpty(t, cfg.DataDir)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := writeConfig(t, `
data_dir: /srv/gatewarden
log_format: text
movement_notify_interval: 10s
`)
		cfg, err := config.Load(path, nil)
		require.NoError(t, err)

		assert.Equal(t, "/srv/gatewarden", cfg.DataDir)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, 10*time.Second, cfg.MovementNotifyInterval)
		assert.Equal(t, config.DefaultMetricsAddr, cfg.MetricsAddr, "unset keys keep defaults")
	})

	t.Run("changed flags override the file", func(t *testing.T) {
		path := writeConfig(t, "log_format: text\n")

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("log-format", config.DefaultLogFormat, "")
		flags.String("data-dir", "", "")
		require.NoError(t, flags.Parse([]string{"--log-format=json"}))

		cfg, err := config.Load(path, flags)
		require.NoError(t, err)
		assert.Equal(t, "json", cfg.LogFormat)
	})

	t.Run("unchanged flags do not override the file", func(t *testing.T) {
		path := writeConfig(t, "log_format: text\n")

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("log-format", config.DefaultLogFormat, "")
		require.NoError(t, flags.Parse(nil))

		cfg, err := config.Load(path, flags)
		require.NoError(t, err)
		assert.Equal(t, "text", cfg.LogFormat)
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
		assert.Error(t, err)
	})

	t.Run("invalid log format is rejected", func(t *testing.T) {
		path := writeConfig(t, "log_format: xml\n")
		_, err := config.Load(path, nil)
		assert.Error(t, err)
	})

	t.Run("metrics can be disabled with an empty address", func(t *testing.T) {
		path := writeConfig(t, `metrics_addr: ""`)
		cfg, err := config.Load(path, nil)
		require.NoError(t, err)
		assert.Empty(t, cfg.MetricsAddr)
	})
}

func TestConfig_Paths(t *testing.T) {
	t.Run("relative paths resolve against the data dir", func(t *testing.T) {
		cfg := config.Default()
		cfg.DataDir = "/srv/gatewarden"

		assert.Equal(t, "/srv/gatewarden/userdata.csv", cfg.CredentialsPath())
		assert.Equal(t, "/srv/gatewarden/authorization.json", cfg.AuthorizationPath())
	})

	t.Run("absolute paths pass through", func(t *testing.T) {
		cfg := config.Default()
		cfg.CredentialsFile = "/etc/gatewarden/users.csv"

		assert.Equal(t, "/etc/gatewarden/users.csv", cfg.CredentialsPath())
	})
}

func TestConfig_EnsureDataDir(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")

	require.NoError(t, cfg.EnsureDataDir())
	info, err := os.Stat(cfg.DataDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
