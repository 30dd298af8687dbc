// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToStatus(t *testing.T) {
	cmd, args := parse(nil)
	require.Equal(t, CmdStatus, cmd)
	require.False(t, args.JSON)
}

func TestParseCommands(t *testing.T) {
	tests := []struct {
		argv []string
		want Command
	}{
		{[]string{"status"}, CmdStatus},
		{[]string{"s"}, CmdStatus},
		{[]string{"setup-pin"}, CmdSetupPin},
		{[]string{"auth"}, CmdAuth},
		{[]string{"login"}, CmdAuth},
		{[]string{"unlock"}, CmdAuth},
		{[]string{"signout"}, CmdSignOut},
		{[]string{"logout"}, CmdSignOut},
		{[]string{"store", "list"}, CmdStore},
		{[]string{"audit", "export"}, CmdAudit},
		{[]string{"wipe", "--confirm"}, CmdWipe},
		{[]string{"config"}, CmdConfig},
		{[]string{"version"}, CmdVersion},
		{[]string{"help"}, CmdHelp},
		{[]string{"no-such-command"}, CmdHelp},
	}
	for _, tt := range tests {
		cmd, _ := parse(tt.argv)
		require.Equal(t, tt.want, cmd, "argv=%v", tt.argv)
	}
}

func TestParseGlobalFlags(t *testing.T) {
	cmd, args := parse([]string{"--json", "audit", "export", "--out", "x.csv"})
	require.Equal(t, CmdAudit, cmd)
	require.True(t, args.JSON)
	require.Equal(t, "export", args.Subcommand)
	require.Equal(t, []string{"export", "--out", "x.csv"}, args.Raw)

	_, args = parse([]string{"--config=/tmp/alt.toml", "status"})
	require.Equal(t, "/tmp/alt.toml", args.ConfigPath)

	_, args = parse([]string{"--config", "/tmp/alt.toml", "-q", "status"})
	require.Equal(t, "/tmp/alt.toml", args.ConfigPath)
	require.True(t, args.Quiet)
}

func TestArgParserFlagFormats(t *testing.T) {
	p := NewArgParser([]string{"export", "--out", "audit.csv", "--limit=50", "--json"})
	require.Equal(t, "export", p.Subcommand())
	require.Equal(t, "audit.csv", p.Flag("out"))
	require.Equal(t, 50, p.FlagIntOrDefault("limit", 10))
	require.True(t, p.BoolFlag("json"))
	require.False(t, p.BoolFlag("confirm"))
}

func TestArgParserExplicitBool(t *testing.T) {
	p := NewArgParser([]string{"--confirm=true", "--json=false"})
	require.True(t, p.BoolFlag("confirm"))
	require.False(t, p.BoolFlag("json"))
	require.True(t, p.HasFlag("json"))
}

func TestArgParserPositionals(t *testing.T) {
	p := NewArgParser([]string{"put", "progress", "some", "words"})
	require.Equal(t, "put", p.Subcommand())
	require.Equal(t, "progress", p.Positional(1))
	require.Equal(t, []string{"some", "words"}, p.PositionalFrom(2))
	require.Equal(t, 4, p.PositionalCount())
	require.Empty(t, p.Positional(9))
	require.Empty(t, p.PositionalFrom(9))
}

func TestArgParserFlagIntDefault(t *testing.T) {
	p := NewArgParser([]string{"--limit", "abc"})
	require.Equal(t, 20, p.FlagIntOrDefault("limit", 20))
	require.Equal(t, 7, p.FlagIntOrDefault("missing", 7))
}
