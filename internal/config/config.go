// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package config loads gateway configuration from defaults, an optional YAML
// file, and command-line flags, in that order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/gatewarden/gatewarden/internal/xdg"
)

// Default values.
const (
	DefaultCredentialsFile        = "userdata.csv"
	DefaultAuthorizationFile      = "authorization.json"
	DefaultMetricsAddr            = "127.0.0.1:9310"
	DefaultLogFormat              = "json"
	DefaultMovementNotifyInterval = 5 * time.Second
)

// Config holds the gateway's runtime configuration.
type Config struct {
	// DataDir is where durable store files live. Defaults to the XDG data
	// directory for gatewarden.
	DataDir string `koanf:"data_dir"`

	// CredentialsFile is the credential table path. Relative paths are
	// resolved against DataDir.
	CredentialsFile string `koanf:"credentials_file"`

	// AuthorizationFile is the allow-list store path. Relative paths are
	// resolved against DataDir.
	AuthorizationFile string `koanf:"authorization_file"`

	// MetricsAddr is the metrics/health HTTP listen address. Empty disables
	// the observability server.
	MetricsAddr string `koanf:"metrics_addr"`

	// LogFormat is "json" or "text".
	LogFormat string `koanf:"log_format"`

	// MovementNotifyInterval spaces movement-denial notifications per
	// identity.
	MovementNotifyInterval time.Duration `koanf:"movement_notify_interval"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDir:                xdg.DataDir(),
		CredentialsFile:        DefaultCredentialsFile,
		AuthorizationFile:      DefaultAuthorizationFile,
		MetricsAddr:            DefaultMetricsAddr,
		LogFormat:              DefaultLogFormat,
		MovementNotifyInterval: DefaultMovementNotifyInterval,
	}
}

// Load merges defaults, the YAML file at path (when path is non-empty), and
// any changed flags. Flag names use dashes and map to underscore config keys.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").
				With("source", "flags").
				Wrap(err)
		}
	}

	cfg := Default()
	if v := k.String("data_dir"); v != "" {
		cfg.DataDir = v
	}
	if v := k.String("credentials_file"); v != "" {
		cfg.CredentialsFile = v
	}
	if v := k.String("authorization_file"); v != "" {
		cfg.AuthorizationFile = v
	}
	if k.Exists("metrics_addr") {
		cfg.MetricsAddr = k.String("metrics_addr")
	}
	if v := k.String("log_format"); v != "" {
		cfg.LogFormat = v
	}
	if v := k.Duration("movement_notify_interval"); v > 0 {
		cfg.MovementNotifyInterval = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			With("log_format", c.LogFormat).
			Errorf("log_format must be 'json' or 'text'")
	}
	if c.MovementNotifyInterval <= 0 {
		return oops.Code("CONFIG_INVALID").
			Errorf("movement_notify_interval must be positive")
	}
	return nil
}

// CredentialsPath returns the credential table path resolved against DataDir.
func (c Config) CredentialsPath() string {
	return c.resolve(c.CredentialsFile)
}

// AuthorizationPath returns the allow-list store path resolved against DataDir.
func (c Config) AuthorizationPath() string {
	return c.resolve(c.AuthorizationFile)
}

func (c Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.DataDir, path)
}

// EnsureDataDir creates DataDir when it does not exist.
func (c Config) EnsureDataDir() error {
	if _, err := os.Stat(c.DataDir); err == nil {
		return nil
	}
	//nolint:wrapcheck // xdg.EnsureDir already wraps with the path
	return xdg.EnsureDir(c.DataDir)
}
