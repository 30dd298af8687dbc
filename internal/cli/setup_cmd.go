// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

// setup_cmd.go - Set or replace the device PIN.
//
// Command: setup-pin
// Short:   Establish the device PIN and turn on storage encryption
//
// Examples:
//   burnsafe setup-pin                 Prompt for a new PIN (hidden input)
//   burnsafe setup-pin --pin 1234      Non-interactive (scripts, kiosks)
//   burnsafe setup-pin --confirm       Replace an existing PIN
//   burnsafe setup-pin --json          Machine-readable result
//
// Replacing an existing PIN rotates the storage key. Data saved under the
// old PIN becomes unreadable and reads back as absent, so replacement
// requires --confirm.
package cli

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/emberclinic/burnsafe/internal/security"
)

// SetupPinOutput is the JSON output format for setup-pin.
type SetupPinOutput struct {
	PinConfigured     bool `json:"pin_configured"`
	EncryptionEnabled bool `json:"encryption_enabled"`
	Authenticated     bool `json:"authenticated"`
}

// HandleSetupPin handles the "setup-pin" command.
func HandleSetupPin(args Args) error {
	parser := NewArgParser(args.Raw)

	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	status, err := app.Security.GetSecurityStatus()
	if err != nil {
		return err
	}
	hadPin := status.PinConfigured

	// Replacing a PIN rotates the storage key and orphans existing data,
	// so it takes an explicit --confirm.
	if hadPin && !parser.BoolFlag("confirm") {
		fmt.Println(WarningStyle.Render("A PIN is already configured."))
		fmt.Println(DimStyle.Render("Replacing it makes previously saved data unreadable."))
		fmt.Println(DimStyle.Render("Run 'burnsafe setup-pin --confirm' to replace it."))
		return fmt.Errorf("PIN replacement requires --confirm")
	}

	pin := parser.Flag("pin")
	if pin == "" {
		pin, err = promptNewPin(app)
		if err != nil {
			return err
		}
	}

	if err := app.Security.SetupPin(pin); err != nil {
		if args.JSON {
			NewJSONErrorResponse("setup-pin", err).Print()
		}
		if errors.Is(err, security.ErrInvalidFormat) {
			return fmt.Errorf("invalid PIN: %w", err)
		}
		return err
	}

	if args.JSON {
		return NewJSONResponse("setup-pin", SetupPinOutput{
			PinConfigured:     true,
			EncryptionEnabled: true,
			Authenticated:     true,
		}).Print()
	}

	fmt.Println()
	if hadPin {
		fmt.Println(SuccessStyle.Render("PIN replaced."))
		fmt.Println(WarningStyle.Render("Data saved under the previous PIN is no longer readable."))
	} else {
		fmt.Println(SuccessStyle.Render("PIN configured. Storage encryption is on."))
	}
	fmt.Println(DimStyle.Render("You are signed in for this run."))
	return nil
}

// promptNewPin reads a new PIN twice with echo disabled.
func promptNewPin(app *App) (string, error) {
	if err := RequiresTTY("read a PIN"); err != nil {
		return "", fmt.Errorf("%w (use --pin for non-interactive setup)", err)
	}

	min := app.Cfg.Security.PinMinLength
	max := app.Cfg.Security.PinMaxLength
	fmt.Printf("Enter a new PIN (%d-%d digits): ", min, max)
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read PIN: %w", err)
	}

	fmt.Print("Confirm PIN: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read PIN: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("PINs did not match")
	}
	pin := string(first)
	security.ZeroBytes(first)
	security.ZeroBytes(second)
	return pin, nil
}
