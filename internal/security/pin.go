// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"
)

// =============================================================================
// PIN CREDENTIAL
// =============================================================================

// hashPin digests a PIN with its salt and the device identity. Binding the
// device identifier into the digest means a credential copied to another
// device verifies nothing there.
func hashPin(pin string, salt []byte, deviceID string) string {
	h := sha256.New()
	h.Write([]byte(pin))
	h.Write(salt)
	h.Write([]byte(deviceID))
	return hex.EncodeToString(h.Sum(nil))
}

// validatePinLocked checks the PIN against the configured format rules.
func (s *Service) validatePinLocked(pin string) error {
	if len(pin) < s.cfg.PinMinLength || len(pin) > s.cfg.PinMaxLength {
		return fmt.Errorf("%w: PIN must be %d-%d digits",
			ErrInvalidFormat, s.cfg.PinMinLength, s.cfg.PinMaxLength)
	}
	if !isAllDigits(pin) {
		return fmt.Errorf("%w: PIN must contain only digits", ErrInvalidFormat)
	}
	return nil
}

// SetupPin establishes or replaces the device PIN. A fresh salt is generated
// on every call, so changing the PIN also rotates the storage key. On success
// the caller is left authenticated with a new session.
//
// Replacing an existing PIN does not re-encrypt previously stored payloads;
// they become unreadable under the new key and read back as absent.
func (s *Service) SetupPin(pin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitLocked(); err != nil {
		return err
	}
	if err := s.validatePinLocked(pin); err != nil {
		return err
	}

	salt, err := generateSalt()
	if err != nil {
		return err
	}
	hash := hashPin(pin, salt, s.deviceID)

	if err := s.store.Put(KeyPinSalt, hex.EncodeToString(salt)); err != nil {
		return fmt.Errorf("%w: persist pin salt: %v", ErrStorageUnavailable, err)
	}
	if err := s.store.Put(KeyPinHash, hash); err != nil {
		return fmt.Errorf("%w: persist pin hash: %v", ErrStorageUnavailable, err)
	}

	cipher, err := NewCipher(s.deviceID, salt)
	if err != nil {
		return err
	}
	s.cipher = cipher
	s.state.EncryptionEnabled = true
	s.state.FailedAttempts = 0
	s.state.LockoutUntil = nil
	s.mintSessionLocked()

	s.appendAuditLocked(AuditEvent{
		Event:     EventPinChanged,
		SessionID: sanitizeForLog(s.state.SessionToken),
		Success:   true,
	})
	s.persistStateBestEffortLocked()

	s.logger.Info().Msg("PIN configured, storage encryption enabled")
	return nil
}

// =============================================================================
// AUTHENTICATION
// =============================================================================

// Authenticate verifies a PIN attempt and reports the outcome as a value.
// Order matters: the lockout gate is checked before anything touches the
// stored hash, so a locked device does zero credential work regardless of
// whether the attempt would have been correct.
//
// Callers serialize their own attempts; concurrent calls are safe but the
// attempt counter reflects arrival order.
func (s *Service) Authenticate(pin string) (AuthResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitLocked(); err != nil {
		return AuthResult{}, err
	}

	now := s.now()

	// Lockout gate first. An active lockout short-circuits the attempt.
	// An elapsed one is cleared lazily, but the failure counter is not
	// refunded: only a successful authentication resets it, so a wrong
	// PIN right after the window re-arms the lockout.
	if s.state.LockoutUntil != nil {
		if now.Before(*s.state.LockoutUntil) {
			return AuthResult{
				Outcome:          AuthOutcomeLocked,
				LockoutRemaining: s.state.LockoutUntil.Sub(now),
			}, nil
		}
		s.state.LockoutUntil = nil
		s.persistStateBestEffortLocked()
	}

	storedHash, hashOK, err := s.store.Get(KeyPinHash)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%w: read pin hash: %v", ErrStorageUnavailable, err)
	}
	saltHex, saltOK, err := s.store.Get(KeyPinSalt)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%w: read pin salt: %v", ErrStorageUnavailable, err)
	}
	if !hashOK || !saltOK {
		return AuthResult{Outcome: AuthOutcomeNotConfigured}, nil
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return AuthResult{Outcome: AuthOutcomeNotConfigured}, nil
	}

	attempt := hashPin(pin, salt, s.deviceID)
	if subtle.ConstantTimeCompare([]byte(attempt), []byte(storedHash)) == 1 {
		return s.authSuccessLocked(salt)
	}
	return s.authFailureLocked(now)
}

// authSuccessLocked resets the failure counters, rebuilds the cipher and
// mints a session.
func (s *Service) authSuccessLocked(salt []byte) (AuthResult, error) {
	s.state.FailedAttempts = 0
	s.state.LockoutUntil = nil

	cipher, err := NewCipher(s.deviceID, salt)
	if err != nil {
		return AuthResult{}, err
	}
	s.cipher = cipher
	s.state.EncryptionEnabled = true
	s.mintSessionLocked()

	s.appendAuditLocked(AuditEvent{
		Event:     EventAuthSuccess,
		SessionID: sanitizeForLog(s.state.SessionToken),
		Success:   true,
	})
	s.persistStateBestEffortLocked()

	s.logger.Info().Msg("authentication succeeded")
	return AuthResult{
		Outcome:       AuthOutcomeSuccess,
		SessionToken:  s.state.SessionToken,
		SessionExpiry: *s.state.SessionExpiry,
	}, nil
}

// authFailureLocked increments the counter and arms the lockout when the
// attempt budget is spent. Both the failure and, when armed, the lockout are
// audited as separate events.
func (s *Service) authFailureLocked(now time.Time) (AuthResult, error) {
	s.state.FailedAttempts++
	remaining := s.cfg.MaxAttempts - s.state.FailedAttempts
	if remaining < 0 {
		remaining = 0
	}

	s.appendAuditLocked(AuditEvent{
		Event:   EventAuthFailure,
		Success: false,
		Details: map[string]string{
			"attempt": fmt.Sprintf("%d", s.state.FailedAttempts),
		},
	})

	result := AuthResult{
		Outcome:           AuthOutcomeFailure,
		RemainingAttempts: remaining,
	}

	if s.state.FailedAttempts >= s.cfg.MaxAttempts {
		until := now.Add(s.cfg.LockoutDuration())
		s.state.LockoutUntil = &until
		result.Outcome = AuthOutcomeLocked
		result.LockoutRemaining = s.cfg.LockoutDuration()

		s.appendAuditLocked(AuditEvent{
			Event:   EventAuthLockout,
			Success: false,
			Details: map[string]string{
				"attempts":        fmt.Sprintf("%d", s.state.FailedAttempts),
				"lockout_minutes": fmt.Sprintf("%.0f", s.cfg.LockoutDuration().Minutes()),
			},
		})
		s.logger.Warn().
			Int("attempts", s.state.FailedAttempts).
			Time("until", until).
			Msg("authentication locked out")
	}

	s.persistStateBestEffortLocked()
	return result, nil
}
