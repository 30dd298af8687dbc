// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for burnsafe.
//
// Configuration precedence (highest wins):
//   - BURNSAFE_* environment variables
//   - ~/.burnsafe/config.toml
//   - Built-in defaults
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/emberclinic/burnsafe/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete burnsafe configuration.
type Config struct {
	Security SecurityConfig `toml:"security"`
	Storage  StorageConfig  `toml:"storage"`
	Logging  LoggingConfig  `toml:"logging"`
}

// SecurityConfig governs the PIN gate, lockout and session behavior.
type SecurityConfig struct {
	// PinMinLength and PinMaxLength bound the accepted PIN length (inclusive).
	PinMinLength int `toml:"pin_min_length"`
	PinMaxLength int `toml:"pin_max_length"`

	// MaxAttempts is the number of consecutive failed PIN entries before
	// lockout.
	MaxAttempts int `toml:"max_attempts"`

	// LockoutMinutes is how long authentication is suspended after
	// MaxAttempts consecutive failures.
	LockoutMinutes int `toml:"lockout_minutes"`

	// SessionTimeoutMinutes is the idle session lifetime.
	SessionTimeoutMinutes int `toml:"session_timeout_minutes"`

	// AuditMaxEntries caps the retained audit log (oldest evicted first).
	AuditMaxEntries int `toml:"audit_max_entries"`
}

// StorageConfig locates the durable host store.
type StorageConfig struct {
	// DatabasePath is the SQLite database file backing all persisted state.
	DatabasePath string `toml:"database_path"`
}

// LoggingConfig controls operational (non-audit) logging.
type LoggingConfig struct {
	// Level is a zerolog level name: "debug", "info", "warn", "error".
	Level string `toml:"level"`
}

// LockoutDuration returns the lockout window as a time.Duration.
func (s SecurityConfig) LockoutDuration() time.Duration {
	return time.Duration(s.LockoutMinutes) * time.Minute
}

// SessionTimeout returns the idle session lifetime as a time.Duration.
func (s SecurityConfig) SessionTimeout() time.Duration {
	return time.Duration(s.SessionTimeoutMinutes) * time.Minute
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Security: SecurityConfig{
			PinMinLength:          4,
			PinMaxLength:          8,
			MaxAttempts:           5,
			LockoutMinutes:        5,
			SessionTimeoutMinutes: 30,
			AuditMaxEntries:       1000,
		},
		Storage: StorageConfig{
			DatabasePath: defaultDatabasePath(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultDir returns the burnsafe data directory (~/.burnsafe).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".burnsafe"
	}
	return filepath.Join(home, ".burnsafe")
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.toml")
}

func defaultDatabasePath() string {
	return filepath.Join(DefaultDir(), "burnsafe.db")
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration from the default path, falling back to defaults
// when the file is absent, then applies environment overrides.
func Load() (*Config, error) {
	return LoadPath(DefaultPath())
}

// LoadPath reads configuration from an explicit path. A missing file is not
// an error: defaults are used. A present but malformed file is an error.
func LoadPath(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// No file, defaults apply.
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies BURNSAFE_* environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BURNSAFE_DB_PATH"); v != "" {
		cfg.Storage.DatabasePath = v
	}
	if v := os.Getenv("BURNSAFE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	overrideInt := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	overrideInt("BURNSAFE_MAX_ATTEMPTS", &cfg.Security.MaxAttempts)
	overrideInt("BURNSAFE_LOCKOUT_MINUTES", &cfg.Security.LockoutMinutes)
	overrideInt("BURNSAFE_SESSION_TIMEOUT_MINUTES", &cfg.Security.SessionTimeoutMinutes)
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate rejects configurations the security core cannot honor.
func (c *Config) Validate() error {
	s := c.Security
	if s.PinMinLength < 1 {
		return fmt.Errorf("security.pin_min_length must be >= 1, got %d", s.PinMinLength)
	}
	if s.PinMaxLength < s.PinMinLength {
		return fmt.Errorf("security.pin_max_length (%d) must be >= pin_min_length (%d)",
			s.PinMaxLength, s.PinMinLength)
	}
	if s.MaxAttempts < 1 {
		return fmt.Errorf("security.max_attempts must be >= 1, got %d", s.MaxAttempts)
	}
	if s.LockoutMinutes < 1 {
		return fmt.Errorf("security.lockout_minutes must be >= 1, got %d", s.LockoutMinutes)
	}
	if s.SessionTimeoutMinutes < 1 {
		return fmt.Errorf("security.session_timeout_minutes must be >= 1, got %d", s.SessionTimeoutMinutes)
	}
	if s.AuditMaxEntries < 1 {
		return fmt.Errorf("security.audit_max_entries must be >= 1, got %d", s.AuditMaxEntries)
	}
	if c.Storage.DatabasePath == "" {
		return errors.New("storage.database_path must not be empty")
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to the default path atomically.
func (c *Config) Save() error {
	return c.SavePath(DefaultPath())
}

// SavePath writes the configuration to an explicit path atomically.
func (c *Config) SavePath(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
