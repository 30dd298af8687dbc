// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Show the active configuration.
//
// Command: config [subcommand]
//
// Subcommands:
//   show (default)      Show the resolved configuration
//   init                Write a default config file
//
// Examples:
//   burnsafe config                    Show resolved settings source order:
//                                      defaults, file, environment
//   burnsafe config init               Create ~/.burnsafe/config.toml
package cli

import (
	"fmt"
	"os"

	"github.com/emberclinic/burnsafe/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	parser := NewArgParser(args.Raw)

	switch parser.Subcommand() {
	case "", "show":
		return handleConfigShow(args)
	case "init":
		return handleConfigInit(args)
	default:
		return fmt.Errorf("unknown config subcommand: %s\n\nUsage:\n"+
			"  burnsafe config [show]   Show resolved configuration\n"+
			"  burnsafe config init     Write a default config file", parser.Subcommand())
	}
}

func handleConfigShow(args Args) error {
	var cfg *config.Config
	var err error
	if args.ConfigPath != "" {
		cfg, err = config.LoadPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("config show", cfg).Print()
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("burnsafe Configuration"))
	fmt.Println(SectionStyle.Render("Security"))
	fmt.Printf("  %s%d-%d digits\n", LabelStyle.Render("PIN length:"),
		cfg.Security.PinMinLength, cfg.Security.PinMaxLength)
	fmt.Printf("  %s%d\n", LabelStyle.Render("Max attempts:"), cfg.Security.MaxAttempts)
	fmt.Printf("  %s%s\n", LabelStyle.Render("Lockout:"), cfg.Security.LockoutDuration())
	fmt.Printf("  %s%s\n", LabelStyle.Render("Session timeout:"), cfg.Security.SessionTimeout())
	fmt.Printf("  %s%d\n", LabelStyle.Render("Audit cap:"), cfg.Security.AuditMaxEntries)
	fmt.Println(SectionStyle.Render("Storage"))
	fmt.Printf("  %s%s\n", LabelStyle.Render("Database:"), cfg.Storage.DatabasePath)
	fmt.Println(SectionStyle.Render("Logging"))
	fmt.Printf("  %s%s\n", LabelStyle.Render("Level:"), cfg.Logging.Level)
	fmt.Println()
	return nil
}

func handleConfigInit(args Args) error {
	path := args.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	cfg := config.Default()
	if err := cfg.SavePath(path); err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("config init", map[string]string{"path": path}).Print()
	}
	fmt.Println(SuccessStyle.Render("Wrote " + path + "."))
	return nil
}
