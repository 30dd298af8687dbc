// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"crypto/rand"
	"encoding/hex"
)

// =============================================================================
// SESSIONS
// =============================================================================

// SessionTokenBytes is the entropy behind each session token.
const SessionTokenBytes = 32

// newSessionToken mints an opaque session identifier.
func newSessionToken() string {
	buf := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms.
		panic("security: rand.Read failed: " + err.Error())
	}
	return "sess_" + hex.EncodeToString(buf)
}

// mintSessionLocked starts a fresh session with the configured timeout.
func (s *Service) mintSessionLocked() {
	expiry := s.now().Add(s.cfg.SessionTimeout())
	s.state.IsAuthenticated = true
	s.state.AuthMethod = AuthMethodPin
	s.state.SessionToken = newSessionToken()
	s.state.SessionExpiry = &expiry
}

// checkValidityLocked lazily observes session expiry. There is no timer:
// the session ends the first time anything looks at it after the deadline.
// That first observation clears the session, audits exactly one
// SESSION_EXPIRED event and persists; later calls see the already-cleared
// state and do nothing.
func (s *Service) checkValidityLocked() {
	if !s.state.IsAuthenticated {
		return
	}
	// A session is valid through its exact deadline and ends strictly after.
	if s.state.SessionExpiry != nil && !s.now().After(*s.state.SessionExpiry) {
		return
	}

	expiredToken := s.state.SessionToken
	s.state.clearSession()

	s.appendAuditLocked(AuditEvent{
		Event:     EventSessionExpired,
		SessionID: sanitizeForLog(expiredToken),
		Success:   true,
	})
	s.persistStateBestEffortLocked()

	s.logger.Info().Msg("session expired")
}

// SignOut ends the current session. Calling it without a session is a no-op:
// no state change, no audit event. The cipher stays armed; sign-out gates the
// operator, not the key material, which is rederived from the stored salt on
// the next successful authentication anyway.
func (s *Service) SignOut() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitLocked(); err != nil {
		return err
	}
	s.checkValidityLocked()
	if !s.state.IsAuthenticated {
		return nil
	}

	token := s.state.SessionToken
	s.state.clearSession()

	s.appendAuditLocked(AuditEvent{
		Event:     EventSignedOut,
		SessionID: sanitizeForLog(token),
		Success:   true,
		Details:   map[string]string{"manual": "true"},
	})
	s.persistStateBestEffortLocked()

	s.logger.Info().Msg("signed out")
	return nil
}
