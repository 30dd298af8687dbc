// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

// wipe_cmd.go - Delete all stored data.
//
// Command: wipe --confirm
//
// Examples:
//   burnsafe wipe                      Refused; shows what would be deleted
//   burnsafe wipe --confirm            Delete everything
//
// Wipe removes every stored value, the PIN credential, the security state
// and the audit log. The device identity survives. Best effort: a partial
// failure is reported, but whatever could be deleted is gone.
package cli

import (
	"fmt"
)

// HandleWipe handles the "wipe" command.
func HandleWipe(args Args) error {
	parser := NewArgParser(args.Raw)

	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	if !parser.BoolFlag("confirm") {
		keys, err := app.Security.SavedKeys()
		if err != nil {
			return err
		}
		events, err := app.Security.AuditEvents()
		if err != nil {
			return err
		}

		fmt.Println(WarningStyle.Render("Refusing to wipe without --confirm."))
		fmt.Printf("  %s%s\n", LabelStyle.Render("Stored values:"),
			ValueStyle.Render(fmt.Sprintf("%d", len(keys))))
		fmt.Printf("  %s%s\n", LabelStyle.Render("Audit events:"),
			ValueStyle.Render(fmt.Sprintf("%d", len(events))))
		fmt.Println(DimStyle.Render("  Run 'burnsafe wipe --confirm' to delete all of it."))
		return fmt.Errorf("wipe requires --confirm")
	}

	complete := app.Security.WipeAllData()

	if args.JSON {
		return NewJSONResponse("wipe", map[string]bool{"complete": complete}).Print()
	}

	if complete {
		fmt.Println(SuccessStyle.Render("All data wiped. Device identity retained."))
	} else {
		fmt.Println(WarningStyle.Render("Wipe finished with errors; some entries may remain."))
	}
	return nil
}
