// burnsafe - device authentication and encrypted storage for burn care training.
//
// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	"github.com/emberclinic/burnsafe/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	var err error
	switch cmd {
	case cli.CmdStatus:
		err = cli.HandleStatus(args)
	case cli.CmdSetupPin:
		err = cli.HandleSetupPin(args)
	case cli.CmdAuth:
		err = cli.HandleAuth(args)
	case cli.CmdSignOut:
		err = cli.HandleSignOut(args)
	case cli.CmdStore:
		err = cli.HandleStore(args)
	case cli.CmdAudit:
		err = cli.HandleAudit(args)
	case cli.CmdWipe:
		err = cli.HandleWipe(args)
	case cli.CmdConfig:
		err = cli.HandleConfig(args)
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
