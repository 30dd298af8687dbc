// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

// audit_cmd.go - Show and export the security audit log.
//
// Command: audit [subcommand]
//
// Subcommands:
//   show (default)      Show recent audit events
//   export              Export the full log as CSV
//
// Examples:
//   burnsafe audit                     Show the 20 most recent events
//   burnsafe audit show --limit 100    Show more
//   burnsafe audit --json              Events as JSON
//   burnsafe audit export              CSV to stdout
//   burnsafe audit export --out audit.csv
//
// The log keeps the most recent 1000 events; older entries are evicted.
// Exports carry everything currently retained.
package cli

import (
	"fmt"
	"strings"

	"github.com/emberclinic/burnsafe/internal/util"
)

// defaultAuditShowLimit bounds the human-readable listing.
const defaultAuditShowLimit = 20

// HandleAudit handles the "audit" command.
func HandleAudit(args Args) error {
	parser := NewArgParser(args.Raw)

	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	switch parser.Subcommand() {
	case "", "show", "list":
		return handleAuditShow(app, args, parser)
	case "export":
		return handleAuditExport(app, args, parser)
	default:
		return fmt.Errorf("unknown audit subcommand: %s\n\nUsage:\n"+
			"  burnsafe audit [show] [--limit N]   Show recent events\n"+
			"  burnsafe audit export [--out FILE]  Export as CSV", parser.Subcommand())
	}
}

func handleAuditShow(app *App, args Args, parser *ArgParser) error {
	events, err := app.Security.AuditEvents()
	if err != nil {
		return err
	}

	limit := parser.FlagIntOrDefault("limit", defaultAuditShowLimit)
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}

	if args.JSON {
		return NewJSONResponse("audit show", map[string]any{
			"events": events,
			"count":  len(events),
		}).Print()
	}

	if len(events) == 0 {
		fmt.Println(DimStyle.Render("No audit events."))
		return nil
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("Audit Log"))
	fmt.Println(DimStyle.Render(strings.Repeat("=", 50)))
	for _, event := range events {
		style := SuccessStyle
		if !event.Success {
			style = ErrorStyle
		}
		line := fmt.Sprintf("%s  %-16s",
			event.Timestamp.Local().Format("2006-01-02 15:04:05"),
			event.Event)
		fmt.Printf("  %s", style.Render(line))
		if event.SessionID != "" {
			fmt.Printf("  %s", DimStyle.Render(event.SessionID))
		}
		for k, v := range event.Details {
			fmt.Printf("  %s", DimStyle.Render(k+"="+v))
		}
		fmt.Println()
	}
	fmt.Println()
	return nil
}

func handleAuditExport(app *App, args Args, parser *ArgParser) error {
	csvText, err := app.Security.ExportAuditLog()
	if err != nil {
		return err
	}

	out := parser.Flag("out")
	if out == "" {
		fmt.Print(csvText)
		return nil
	}

	if err := util.AtomicWriteFile(out, []byte(csvText), 0600); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	events, err := app.Security.AuditEvents()
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("audit export", map[string]any{
			"file":   out,
			"events": len(events),
		}).Print()
	}
	fmt.Println(SuccessStyle.Render(fmt.Sprintf("Exported %d event(s) to %s.", len(events), out)))
	return nil
}
