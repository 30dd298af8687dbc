// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

// status_cmd.go - Show the security gate status.
//
// Command: status (default when no command is given)
//
// Examples:
//   burnsafe status
//   burnsafe status --json
package cli

import (
	"fmt"
	"strings"
	"time"
)

// StatusOutput is the JSON output format for status.
type StatusOutput struct {
	DeviceID          string `json:"device_id"`
	PinConfigured     bool   `json:"pin_configured"`
	Authenticated     bool   `json:"authenticated"`
	AuthMethod        string `json:"auth_method"`
	SessionExpiry     string `json:"session_expiry,omitempty"`
	FailedAttempts    int    `json:"failed_attempts"`
	LockedOut         bool   `json:"locked_out"`
	LockoutRemaining  string `json:"lockout_remaining,omitempty"`
	EncryptionEnabled bool   `json:"encryption_enabled"`
	StoredKeys        int    `json:"stored_keys"`
	AuditEntries      int    `json:"audit_entries"`
}

// HandleStatus handles the "status" command.
func HandleStatus(args Args) error {
	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	status, err := app.Security.GetSecurityStatus()
	if err != nil {
		return err
	}
	deviceID, err := app.Security.DeviceID()
	if err != nil {
		return err
	}
	keys, err := app.Security.SavedKeys()
	if err != nil {
		return err
	}
	events, err := app.Security.AuditEvents()
	if err != nil {
		return err
	}

	out := StatusOutput{
		DeviceID:          deviceID,
		PinConfigured:     status.PinConfigured,
		Authenticated:     status.IsAuthenticated,
		AuthMethod:        string(status.AuthMethod),
		FailedAttempts:    status.FailedAttempts,
		LockedOut:         status.LockoutRemaining > 0,
		EncryptionEnabled: status.EncryptionEnabled,
		StoredKeys:        len(keys),
		AuditEntries:      len(events),
	}
	if status.SessionExpiry != nil && status.IsAuthenticated {
		out.SessionExpiry = status.SessionExpiry.UTC().Format(time.RFC3339)
	}
	if status.LockoutRemaining > 0 {
		out.LockoutRemaining = status.LockoutRemaining.Round(time.Second).String()
	}

	if args.JSON {
		return NewJSONResponse("status", out).Print()
	}

	separator := strings.Repeat("=", 50)
	fmt.Println()
	fmt.Println(TitleStyle.Render("burnsafe Security Status"))
	fmt.Println(DimStyle.Render(separator))

	fmt.Println(SectionStyle.Render("Device"))
	fmt.Printf("  %s%s\n", LabelStyle.Render("Device ID:"), DimStyle.Render(deviceID))

	fmt.Println(SectionStyle.Render("Authentication"))
	if out.PinConfigured {
		fmt.Printf("  %s%s\n", LabelStyle.Render("PIN:"), SuccessStyle.Render("CONFIGURED"))
	} else {
		fmt.Printf("  %s%s\n", LabelStyle.Render("PIN:"), WarningStyle.Render("NOT CONFIGURED"))
		fmt.Println(DimStyle.Render("    Run 'burnsafe setup-pin' to protect stored data"))
	}
	if out.LockedOut {
		fmt.Printf("  %s%s\n", LabelStyle.Render("Lockout:"),
			ErrorStyle.Render("ACTIVE ("+out.LockoutRemaining+" remaining)"))
	} else if out.FailedAttempts > 0 {
		fmt.Printf("  %s%s\n", LabelStyle.Render("Failed attempts:"),
			WarningStyle.Render(fmt.Sprintf("%d", out.FailedAttempts)))
	}

	fmt.Println(SectionStyle.Render("Storage"))
	if out.EncryptionEnabled {
		fmt.Printf("  %s%s\n", LabelStyle.Render("Encryption:"), SuccessStyle.Render("ON"))
	} else {
		fmt.Printf("  %s%s\n", LabelStyle.Render("Encryption:"), WarningStyle.Render("OFF (no PIN)"))
	}
	fmt.Printf("  %s%s\n", LabelStyle.Render("Stored keys:"),
		ValueStyle.Render(fmt.Sprintf("%d", out.StoredKeys)))
	fmt.Printf("  %s%s\n", LabelStyle.Render("Audit entries:"),
		ValueStyle.Render(fmt.Sprintf("%d", out.AuditEntries)))
	fmt.Println()
	return nil
}
