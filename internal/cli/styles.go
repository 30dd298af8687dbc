// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Centralized styling for all burnsafe CLI commands.
//
// All command files use these shared styles instead of defining their own.
// Colors degrade automatically for non-TTY output via GetColorProfile.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES FOR ALL CLI COMMANDS
// =============================================================================

var (
	// TitleStyle is used for command titles and headers.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")). // Cyan
			MarginBottom(1)

	// SectionStyle is used for section headers within commands.
	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")). // White
			MarginTop(1)

	// LabelStyle is used for field labels.
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")). // Light gray
			Width(20)

	// ValueStyle is used for field values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")) // White

	// SuccessStyle marks good states (authenticated, encryption on).
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")) // Green

	// ErrorStyle marks bad states and failures.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // Red

	// WarningStyle marks states needing attention (lockout, no PIN).
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")) // Yellow

	// DimStyle is used for separators and secondary detail.
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")) // Dim gray
)
