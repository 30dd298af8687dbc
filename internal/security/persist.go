// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// ENCRYPTED PERSISTENCE
// =============================================================================

// Save serializes a value and stores it under the encrypted namespace. Before
// a PIN exists the cipher is pass-through and the value lands as plaintext;
// once encryption is on, the value is sealed under the device key. Either way
// the caller uses the same call and the same logical key.
func (s *Service) Save(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitLocked(); err != nil {
		return err
	}

	plaintext, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("serialize %q: %w", key, err)
	}

	blob, err := s.cipher.Encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("encrypt %q: %w", key, err)
	}

	if err := s.store.Put(EncryptedKeyPrefix+key, blob.String()); err != nil {
		return fmt.Errorf("%w: write %q: %v", ErrStorageUnavailable, key, err)
	}

	if blob.Encrypted() {
		s.appendAuditLocked(AuditEvent{
			Event:   EventDataEncrypted,
			Success: true,
			Details: map[string]string{"key": key},
		})
	}
	return nil
}

// Load reads a value from the encrypted namespace into dst. The boolean
// reports presence: false covers the key never existing, ciphertext sealed
// under a different key (PIN changed, foreign device) and corrupt payloads
// alike. None of those are errors; the caller falls back to its default.
func (s *Service) Load(key string, dst any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitLocked(); err != nil {
		return false, err
	}

	raw, ok, err := s.store.Get(EncryptedKeyPrefix + key)
	if err != nil {
		return false, fmt.Errorf("%w: read %q: %v", ErrStorageUnavailable, key, err)
	}
	if !ok {
		return false, nil
	}

	plaintext, ok := s.cipher.Decrypt(ParseBlob(raw))
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(plaintext, dst); err != nil {
		return false, nil
	}
	return true, nil
}

// Remove deletes a value from the encrypted namespace. Removing a missing
// key is a no-op.
func (s *Service) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitLocked(); err != nil {
		return err
	}
	if err := s.store.Delete(EncryptedKeyPrefix + key); err != nil {
		return fmt.Errorf("%w: delete %q: %v", ErrStorageUnavailable, key, err)
	}
	return nil
}

// SavedKeys lists the logical keys present in the encrypted namespace,
// sorted, with the namespace prefix stripped.
func (s *Service) SavedKeys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitLocked(); err != nil {
		return nil, err
	}
	raw, err := s.store.Keys(EncryptedKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("%w: list keys: %v", ErrStorageUnavailable, err)
	}
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, strings.TrimPrefix(k, EncryptedKeyPrefix))
	}
	sort.Strings(keys)
	return keys, nil
}
