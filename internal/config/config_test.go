// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadPath_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadPath(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	require.Equal(t, 4, cfg.Security.PinMinLength)
	require.Equal(t, 8, cfg.Security.PinMaxLength)
	require.Equal(t, 5, cfg.Security.MaxAttempts)
	require.Equal(t, 5*time.Minute, cfg.Security.LockoutDuration())
	require.Equal(t, 30*time.Minute, cfg.Security.SessionTimeout())
	require.Equal(t, 1000, cfg.Security.AuditMaxEntries)
}

func TestLoadPath_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[security]
max_attempts = 3
lockout_minutes = 10

[storage]
database_path = "/tmp/custom.db"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadPath(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Security.MaxAttempts)
	require.Equal(t, 10, cfg.Security.LockoutMinutes)
	require.Equal(t, "/tmp/custom.db", cfg.Storage.DatabasePath)
	// Untouched fields keep defaults.
	require.Equal(t, 4, cfg.Security.PinMinLength)
}

func TestLoadPath_MalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("security = ["), 0600))

	_, err := LoadPath(path)
	require.Error(t, err)
}

func TestLoadPath_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[security]\nmax_attempts = 3\n"), 0600))

	t.Setenv("BURNSAFE_MAX_ATTEMPTS", "7")
	t.Setenv("BURNSAFE_DB_PATH", "/tmp/env.db")

	cfg, err := LoadPath(path)
	require.NoError(t, err)
	require.Equal(t, 7, cfg.Security.MaxAttempts)
	require.Equal(t, "/tmp/env.db", cfg.Storage.DatabasePath)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"zero max attempts":       func(c *Config) { c.Security.MaxAttempts = 0 },
		"max below min length":    func(c *Config) { c.Security.PinMaxLength = 2 },
		"zero pin min length":     func(c *Config) { c.Security.PinMinLength = 0 },
		"zero lockout":            func(c *Config) { c.Security.LockoutMinutes = 0 },
		"zero session timeout":    func(c *Config) { c.Security.SessionTimeoutMinutes = 0 },
		"zero audit max entries":  func(c *Config) { c.Security.AuditMaxEntries = 0 },
		"empty database path":     func(c *Config) { c.Storage.DatabasePath = "" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestSavePath_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Security.MaxAttempts = 9
	require.NoError(t, cfg.SavePath(path))

	loaded, err := LoadPath(path)
	require.NoError(t, err)
	require.Equal(t, 9, loaded.Security.MaxAttempts)
}
