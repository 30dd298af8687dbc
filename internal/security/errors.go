// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"errors"
	"time"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidFormat indicates a malformed PIN (non-digit characters or a
	// length outside the configured range). Recoverable: the user re-enters.
	ErrInvalidFormat = errors.New("invalid PIN format")

	// ErrStorageUnavailable indicates the durable host store cannot be used.
	// Fatal: the core cannot function without it.
	ErrStorageUnavailable = errors.New("host store unavailable")

	// ErrNotInitialized indicates the Service is used before Initialize.
	ErrNotInitialized = errors.New("security service not initialized")
)

// =============================================================================
// AUTH RESULT
// =============================================================================

// AuthOutcome classifies the result of an Authenticate call.
type AuthOutcome string

const (
	// AuthOutcomeSuccess means the PIN matched and a session was minted.
	AuthOutcomeSuccess AuthOutcome = "success"

	// AuthOutcomeFailure means the PIN did not match.
	AuthOutcomeFailure AuthOutcome = "failure"

	// AuthOutcomeLocked means authentication is suspended; no hash
	// comparison was performed.
	AuthOutcomeLocked AuthOutcome = "locked"

	// AuthOutcomeNotConfigured means no PIN credential exists.
	AuthOutcomeNotConfigured AuthOutcome = "not_configured"
)

// AuthResult is the structured outcome of an authentication attempt.
// Authentication failures are values, never panics or opaque errors.
type AuthResult struct {
	Outcome AuthOutcome `json:"outcome"`

	// SessionToken and SessionExpiry are set only on success.
	SessionToken  string    `json:"session_token,omitempty"`
	SessionExpiry time.Time `json:"session_expiry,omitempty"`

	// RemainingAttempts is set on failure: how many attempts remain before
	// lockout (never negative).
	RemainingAttempts int `json:"remaining_attempts,omitempty"`

	// LockoutRemaining is set when Outcome is AuthOutcomeLocked.
	LockoutRemaining time.Duration `json:"lockout_remaining,omitempty"`
}

// Authenticated reports whether the attempt produced a session.
func (r AuthResult) Authenticated() bool {
	return r.Outcome == AuthOutcomeSuccess
}
