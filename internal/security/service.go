// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/emberclinic/burnsafe/internal/config"
	"github.com/emberclinic/burnsafe/internal/store"
)

// =============================================================================
// SERVICE
// =============================================================================

// Service is the device authentication and encrypted-persistence core.
// Construct exactly one per process with New, call Initialize once, and pass
// the instance to every consumer. All state lives here; there are no
// package globals.
type Service struct {
	mu     sync.Mutex
	store  store.Store
	cfg    config.SecurityConfig
	logger zerolog.Logger

	initialized bool
	deviceID    string
	state       SecurityState
	cipher      *Cipher
	audit       *AuditLog

	// now is replaceable in tests; operations read the clock through it.
	now func() time.Time
}

// New creates a Service over the given host store. The Service is unusable
// until Initialize succeeds.
func New(s store.Store, cfg config.SecurityConfig, logger zerolog.Logger) *Service {
	return &Service{
		store:  s,
		cfg:    cfg,
		logger: logger,
		cipher: NewPassthroughCipher(),
		audit:  NewAuditLog(s, cfg.AuditMaxEntries),
		state:  defaultState(),
		now:    time.Now,
	}
}

// Initialize loads or creates the device identity, restores persisted state
// and the audit log, and rebuilds the storage cipher. It is idempotent.
// Host-store unavailability is the one fatal failure: without a durable
// store the core cannot function at all.
func (s *Service) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	deviceID, err := loadOrCreateDeviceID(s.store)
	if err != nil {
		return err
	}
	s.deviceID = deviceID

	raw, ok, err := s.store.Get(KeySecurityState)
	if err != nil {
		return fmt.Errorf("%w: read security state: %v", ErrStorageUnavailable, err)
	}
	if ok {
		s.state = decodeState(raw)
	} else {
		s.state = defaultState()
	}

	// A fresh process never resumes an authenticated session: the token
	// lived in the operator's head-space, not across restarts.
	s.state.clearSession()

	if err := s.audit.LoadPersisted(); err != nil {
		return err
	}

	if err := s.rebuildCipherLocked(); err != nil {
		return err
	}

	if err := s.persistStateLocked(); err != nil {
		return fmt.Errorf("%w: persist security state: %v", ErrStorageUnavailable, err)
	}

	s.initialized = true
	s.logger.Debug().
		Str("device_id", sanitizeForLog(deviceID)).
		Bool("encryption_enabled", s.state.EncryptionEnabled).
		Msg("security core initialized")
	return nil
}

// rebuildCipherLocked constructs the storage cipher from the current PIN
// salt, or pass-through when encryption is off or no credential exists.
func (s *Service) rebuildCipherLocked() error {
	if !s.state.EncryptionEnabled {
		s.cipher = NewPassthroughCipher()
		return nil
	}

	saltHex, ok, err := s.store.Get(KeyPinSalt)
	if err != nil {
		return fmt.Errorf("%w: read pin salt: %v", ErrStorageUnavailable, err)
	}
	if !ok {
		// Encryption flagged on but the credential is gone: degrade to
		// pass-through rather than rendering the store unreadable forever.
		s.state.EncryptionEnabled = false
		s.cipher = NewPassthroughCipher()
		return nil
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		s.state.EncryptionEnabled = false
		s.cipher = NewPassthroughCipher()
		return nil
	}

	cipher, err := NewCipher(s.deviceID, salt)
	if err != nil {
		return err
	}
	s.cipher = cipher
	return nil
}

// persistStateLocked mirrors the in-memory state to the host store.
func (s *Service) persistStateLocked() error {
	return s.store.Put(KeySecurityState, encodeState(s.state))
}

// persistStateBestEffortLocked persists state, logging instead of failing.
// Used on paths whose outcomes are already decided (a failed attempt stays
// failed even if the counter could not be written).
func (s *Service) persistStateBestEffortLocked() {
	if err := s.persistStateLocked(); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist security state")
	}
}

// appendAuditLocked records an event, logging instead of failing. The audit
// trail degrades before it blocks the operator.
func (s *Service) appendAuditLocked(event AuditEvent) {
	if err := s.audit.Append(event); err != nil {
		s.logger.Error().Err(err).Str("event", string(event.Event)).
			Msg("failed to append audit event")
	}
}

// requireInitLocked guards every public entry point.
func (s *Service) requireInitLocked() error {
	if !s.initialized {
		return ErrNotInitialized
	}
	return nil
}

// =============================================================================
// STATE READS
// =============================================================================

// IsAuthenticated reports whether a live session exists. Reading is
// side-effecting: an expired session is cleared (and audited) here, not by a
// background timer. Expiry is only ever observed.
func (s *Service) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.requireInitLocked() != nil {
		return false
	}
	s.checkValidityLocked()
	return s.state.IsAuthenticated
}

// GetSecurityStatus returns a snapshot of the gate after lazily observing
// session expiry.
func (s *Service) GetSecurityStatus() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitLocked(); err != nil {
		return Status{}, err
	}
	s.checkValidityLocked()

	status := Status{
		PinConfigured:     s.pinConfiguredLocked(),
		IsAuthenticated:   s.state.IsAuthenticated,
		AuthMethod:        s.state.AuthMethod,
		SessionExpiry:     s.state.SessionExpiry,
		FailedAttempts:    s.state.FailedAttempts,
		LockoutUntil:      s.state.LockoutUntil,
		EncryptionEnabled: s.state.EncryptionEnabled,
	}
	if s.state.LockoutUntil != nil {
		if remaining := s.state.LockoutUntil.Sub(s.now()); remaining > 0 {
			status.LockoutRemaining = remaining
		}
	}
	return status, nil
}

// DeviceID returns the stable device identifier.
func (s *Service) DeviceID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInitLocked(); err != nil {
		return "", err
	}
	return s.deviceID, nil
}

// pinConfiguredLocked reports whether a PIN credential exists in the store.
func (s *Service) pinConfiguredLocked() bool {
	_, ok, err := s.store.Get(KeyPinHash)
	if err != nil {
		return false
	}
	return ok
}

// =============================================================================
// AUDIT ACCESS
// =============================================================================

// AuditEvents returns the retained audit events, oldest first.
func (s *Service) AuditEvents() ([]AuditEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInitLocked(); err != nil {
		return nil, err
	}
	return s.audit.Events(), nil
}

// ExportAuditLog renders the audit log as CSV text.
func (s *Service) ExportAuditLog() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInitLocked(); err != nil {
		return "", err
	}
	return s.audit.ExportCSV()
}

// =============================================================================
// WIPE
// =============================================================================

// WipeAllData deletes every record the core owns (encrypted payloads, the
// PIN credential, security state and the persisted audit log) and resets
// in-memory state to defaults. Best effort: it reports false on partial
// failure, but the in-memory state is cleared regardless, so the caller
// always observes a signed-out, unconfigured gate.
//
// The device identity survives: it is "persisted forever", and with every
// ciphertext gone nothing is orphaned by keeping it.
func (s *Service) WipeAllData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.requireInitLocked() != nil {
		return false
	}

	complete := true

	encryptedKeys, err := s.store.Keys(EncryptedKeyPrefix)
	if err != nil {
		s.logger.Error().Err(err).Msg("wipe: failed to enumerate encrypted keys")
		complete = false
		encryptedKeys = nil
	}

	doomed := append(encryptedKeys,
		KeyPinHash, KeyPinSalt, KeySecurityState, KeyAuditLog)
	for _, key := range doomed {
		if err := s.store.Delete(key); err != nil {
			s.logger.Error().Err(err).Str("key", key).Msg("wipe: failed to delete key")
			complete = false
		}
	}

	// In-memory reset happens no matter what the store said.
	s.state = defaultState()
	s.cipher = NewPassthroughCipher()
	s.audit.Clear()

	s.appendAuditLocked(AuditEvent{
		Event:   EventDataWiped,
		Success: complete,
		Details: map[string]string{"complete": fmt.Sprintf("%t", complete)},
	})
	s.persistStateBestEffortLocked()

	return complete
}

// =============================================================================
// HELPERS
// =============================================================================

// sanitizeForLog truncates an identifier or token for audit/log output while
// keeping enough of it to correlate.
func sanitizeForLog(v string) string {
	if len(v) <= 8 {
		return v
	}
	return v[:4] + "..." + v[len(v)-4:]
}

// isAllDigits reports whether the string is non-empty ASCII digits.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		return r < '0' || r > '9'
	}) == -1
}
