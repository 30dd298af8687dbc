// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command routing for burnsafe.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdStatus Command = iota
	CmdSetupPin
	CmdAuth
	CmdSignOut
	CmdStore
	CmdAudit
	CmdWipe
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed global arguments shared by every command.
type Args struct {
	// Global flags
	JSON       bool   // Output in JSON format
	Quiet      bool   // Suppress operational log output
	Verbose    bool   // Debug-level operational log output
	ConfigPath string // Alternate config file (--config PATH)

	// Command-specific
	Subcommand string

	// Raw args (remaining after global flag parsing)
	Raw []string
}

const usageText = `burnsafe - device authentication and encrypted storage for burn care training

Usage:
  burnsafe <command> [flags]

Commands:
  status              Show the security gate status (default)
  setup-pin           Set or replace the device PIN
  auth                Authenticate with the device PIN
  signout             End the current session
  store <subcommand>  Encrypted key-value storage (put, get, list, rm)
  audit [export]      Show or export the audit log
  wipe --confirm      Delete all stored data (device identity survives)
  config              Show the active configuration
  version             Show version information
  help                Show this help

Global flags:
  --json              Output in JSON format
  --config PATH       Use an alternate config file
  --quiet, -q         Errors only
  --verbose, -v       Debug logging

Examples:
  burnsafe setup-pin
  burnsafe auth
  burnsafe store put progress '{"module":"triage","percent":40}'
  burnsafe store get progress
  burnsafe audit export --out audit.csv
  burnsafe wipe --confirm

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("burnsafe version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return parse(os.Args[1:])
}

// parse is the testable core of Parse.
func parse(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdStatus, args
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	args.Raw = remaining
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
	}

	switch cmd {
	case "status", "s":
		return CmdStatus, args
	case "setup-pin", "setup":
		return CmdSetupPin, args
	case "auth", "login", "unlock":
		return CmdAuth, args
	case "signout", "logout", "lock":
		return CmdSignOut, args
	case "store", "data":
		return CmdStore, args
	case "audit":
		return CmdAudit, args
	case "wipe", "reset":
		return CmdWipe, args
	case "config":
		return CmdConfig, args
	case "version", "-v", "--version":
		return CmdVersion, args
	case "help", "-h", "--help":
		return CmdHelp, args
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		return CmdHelp, args
	}
}

// parseGlobalFlags extracts the flags every command honors, returning the
// untouched remainder.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var args Args
	remaining := make([]string, 0, len(argv))

	for i := 0; i < len(argv); i++ {
		switch arg := argv[i]; arg {
		case "--json":
			args.JSON = true
		case "--quiet", "-q":
			args.Quiet = true
		case "--verbose":
			args.Verbose = true
		case "--config":
			if i+1 < len(argv) {
				i++
				args.ConfigPath = argv[i]
			}
		default:
			if strings.HasPrefix(arg, "--config=") {
				args.ConfigPath = strings.TrimPrefix(arg, "--config=")
			} else {
				remaining = append(remaining, arg)
			}
		}
	}

	return remaining, args
}
