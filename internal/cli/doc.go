// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the burnsafe command-line interface: argument
// parsing, command routing and per-command handlers over the security core.
//
// Output conventions:
//   - Human-readable output goes to stdout, styled, degrading to plain text
//     for pipes and NO_COLOR.
//   - --json replaces human output with a JSONResponse envelope on stdout.
//   - Operational logs go to stderr.
package cli
