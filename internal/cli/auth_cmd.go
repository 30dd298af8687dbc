// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - Authenticate with the device PIN.
//
// Command: auth
// Aliases: login, unlock
//
// Examples:
//   burnsafe auth                      Prompt for the PIN (hidden input)
//   burnsafe auth --pin 1234           Non-interactive
//   burnsafe auth --json               Machine-readable outcome
//
// Five consecutive failures lock authentication for the configured window.
// While locked, attempts are refused without touching the stored credential.
package cli

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/emberclinic/burnsafe/internal/security"
)

// AuthOutput is the JSON output format for auth.
type AuthOutput struct {
	Outcome           string `json:"outcome"`
	Authenticated     bool   `json:"authenticated"`
	SessionExpiry     string `json:"session_expiry,omitempty"`
	RemainingAttempts int    `json:"remaining_attempts,omitempty"`
	LockoutRemaining  string `json:"lockout_remaining,omitempty"`
}

// HandleAuth handles the "auth" command.
func HandleAuth(args Args) error {
	parser := NewArgParser(args.Raw)

	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	pin := parser.Flag("pin")
	if pin == "" {
		if err := RequiresTTY("read the PIN"); err != nil {
			return fmt.Errorf("%w (use --pin for non-interactive auth)", err)
		}
		fmt.Print("PIN: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("read PIN: %w", err)
		}
		pin = string(raw)
		security.ZeroBytes(raw)
	}

	result, err := app.Security.Authenticate(pin)
	if err != nil {
		if args.JSON {
			NewJSONErrorResponse("auth", err).Print()
		}
		return err
	}

	if args.JSON {
		out := AuthOutput{
			Outcome:           string(result.Outcome),
			Authenticated:     result.Authenticated(),
			RemainingAttempts: result.RemainingAttempts,
		}
		if result.Authenticated() {
			out.SessionExpiry = result.SessionExpiry.UTC().Format(time.RFC3339)
		}
		if result.LockoutRemaining > 0 {
			out.LockoutRemaining = result.LockoutRemaining.Round(time.Second).String()
		}
		return NewJSONResponse("auth", out).Print()
	}

	switch result.Outcome {
	case security.AuthOutcomeSuccess:
		fmt.Println(SuccessStyle.Render("Authenticated."))
		fmt.Printf("%s%s\n",
			LabelStyle.Render("Session expires:"),
			ValueStyle.Render(result.SessionExpiry.Local().Format("15:04:05")))
		return nil

	case security.AuthOutcomeFailure:
		fmt.Println(ErrorStyle.Render("Incorrect PIN."))
		fmt.Printf("%s\n",
			WarningStyle.Render(fmt.Sprintf("%d attempt(s) remaining before lockout.",
				result.RemainingAttempts)))
		os.Exit(1)

	case security.AuthOutcomeLocked:
		fmt.Println(ErrorStyle.Render("Authentication is locked."))
		fmt.Printf("%s\n",
			WarningStyle.Render(fmt.Sprintf("Try again in %s.",
				result.LockoutRemaining.Round(time.Second))))
		os.Exit(1)

	case security.AuthOutcomeNotConfigured:
		fmt.Println(WarningStyle.Render("No PIN is configured."))
		fmt.Println(DimStyle.Render("Run 'burnsafe setup-pin' first."))
		os.Exit(1)
	}
	return nil
}

// HandleSignOut handles the "signout" command.
func HandleSignOut(args Args) error {
	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Security.SignOut(); err != nil {
		if args.JSON {
			NewJSONErrorResponse("signout", err).Print()
		}
		return err
	}

	if args.JSON {
		return NewJSONResponse("signout", map[string]bool{"authenticated": false}).Print()
	}
	fmt.Println(SuccessStyle.Render("Signed out."))
	return nil
}
