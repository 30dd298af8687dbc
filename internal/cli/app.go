// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Shared runtime bootstrap for all CLI commands.
//
// Every command opens the same stack: config, operational logger, SQLite
// host store, security core. Commands receive it assembled and close it
// when done.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/emberclinic/burnsafe/internal/config"
	"github.com/emberclinic/burnsafe/internal/security"
	"github.com/emberclinic/burnsafe/internal/store"
)

// App bundles the initialized runtime handed to command handlers.
type App struct {
	Cfg      *config.Config
	Logger   zerolog.Logger
	Store    store.Store
	Security *security.Service
}

// OpenApp loads configuration, opens the host store and initializes the
// security core. The caller must Close the returned App.
func OpenApp(args Args) (*App, error) {
	var cfg *config.Config
	var err error
	if args.ConfigPath != "" {
		cfg, err = config.LoadPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg, args)

	st, err := store.OpenSQLite(cfg.Storage.DatabasePath, logger)
	if err != nil {
		return nil, fmt.Errorf("open store at %s: %w", cfg.Storage.DatabasePath, err)
	}

	svc := security.New(st, cfg.Security, logger)
	if err := svc.Initialize(); err != nil {
		st.Close()
		return nil, fmt.Errorf("initialize security core: %w", err)
	}

	return &App{Cfg: cfg, Logger: logger, Store: st, Security: svc}, nil
}

// Close releases the App's resources.
func (a *App) Close() {
	if err := a.Store.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("failed to close store")
	}
}

// newLogger builds the operational logger. Logs go to stderr so stdout
// stays clean for command output and --json.
func newLogger(cfg *config.Config, args Args) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if args.Verbose {
		level = zerolog.DebugLevel
	}
	if args.Quiet {
		level = zerolog.ErrorLevel
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
