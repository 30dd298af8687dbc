// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"encoding/json"
	"time"
)

// =============================================================================
// STORAGE KEYS
// =============================================================================

// Logical keys in the host store. Only values under EncryptedKeyPrefix are
// ciphertext; everything else must remain readable before authentication.
const (
	// KeyDeviceID holds the plaintext device identifier. It feeds key
	// derivation, so it can never live inside the encrypted domain.
	KeyDeviceID = "device_id"

	// KeySecurityState holds the SecurityState JSON.
	KeySecurityState = "security_state"

	// KeyPinHash and KeyPinSalt hold the PIN credential.
	KeyPinHash = "pin_hash"
	KeyPinSalt = "pin_salt"

	// KeyAuditLog holds the serialized audit event array.
	KeyAuditLog = "audit_log"

	// EncryptedKeyPrefix namespaces every value persisted through the
	// encrypted adapter.
	EncryptedKeyPrefix = "encrypted_"
)

// =============================================================================
// AUTH METHOD
// =============================================================================

// AuthMethod identifies how the current session was established.
type AuthMethod string

const (
	// AuthMethodNone means no authentication has occurred.
	AuthMethodNone AuthMethod = "none"

	// AuthMethodPin means the session was established with the device PIN.
	AuthMethodPin AuthMethod = "pin"
)

// =============================================================================
// SECURITY STATE
// =============================================================================

// SecurityState is the authenticator's working state. There is exactly one
// instance per process, owned by the Service: loaded at Initialize, mutated
// in place, persisted after every mutation.
type SecurityState struct {
	IsAuthenticated   bool       `json:"is_authenticated"`
	AuthMethod        AuthMethod `json:"auth_method"`
	SessionToken      string     `json:"session_token,omitempty"`
	SessionExpiry     *time.Time `json:"session_expiry,omitempty"`
	FailedAttempts    int        `json:"failed_attempts"`
	LockoutUntil      *time.Time `json:"lockout_until,omitempty"`
	EncryptionEnabled bool       `json:"encryption_enabled"`
}

// defaultState returns the state used before any PIN exists and after a wipe.
func defaultState() SecurityState {
	return SecurityState{AuthMethod: AuthMethodNone}
}

// decodeState parses a persisted state blob, falling back to defaults when
// the blob is corrupt. Corruption must not brick the gate: the worst case is
// a signed-out, unconfigured-looking state.
func decodeState(raw string) SecurityState {
	var st SecurityState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return defaultState()
	}
	if st.AuthMethod == "" {
		st.AuthMethod = AuthMethodNone
	}
	return st
}

// encodeState serializes the state for persistence.
func encodeState(st SecurityState) string {
	data, err := json.Marshal(st)
	if err != nil {
		// SecurityState contains only marshalable fields; this cannot fail.
		return "{}"
	}
	return string(data)
}

// clearSession zeroes every authentication field, leaving credential and
// encryption flags alone. Used by sign-out and session expiry.
func (st *SecurityState) clearSession() {
	st.IsAuthenticated = false
	st.AuthMethod = AuthMethodNone
	st.SessionToken = ""
	st.SessionExpiry = nil
}

// =============================================================================
// STATUS SNAPSHOT
// =============================================================================

// Status is a read-only snapshot of the gate for callers (status views,
// lockout countdowns). It never exposes the session token or credential.
type Status struct {
	PinConfigured     bool          `json:"pin_configured"`
	IsAuthenticated   bool          `json:"is_authenticated"`
	AuthMethod        AuthMethod    `json:"auth_method"`
	SessionExpiry     *time.Time    `json:"session_expiry,omitempty"`
	FailedAttempts    int           `json:"failed_attempts"`
	LockoutUntil      *time.Time    `json:"lockout_until,omitempty"`
	LockoutRemaining  time.Duration `json:"lockout_remaining,omitempty"`
	EncryptionEnabled bool          `json:"encryption_enabled"`
}
