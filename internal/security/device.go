// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/emberclinic/burnsafe/internal/store"
)

// DeviceIDBytes is the entropy of the device identifier (128 bits).
const DeviceIDBytes = 16

// loadOrCreateDeviceID returns the stable per-device identifier, generating
// and persisting it on first use.
//
// The identifier is input to key derivation, so it is stored in plaintext
// (it cannot be encrypted with a key derived from itself) and is never
// regenerated: doing so would orphan every ciphertext written under it.
func loadOrCreateDeviceID(s store.Store) (string, error) {
	existing, ok, err := s.Get(KeyDeviceID)
	if err != nil {
		return "", fmt.Errorf("%w: read device identity: %v", ErrStorageUnavailable, err)
	}
	if ok && existing != "" {
		return existing, nil
	}

	raw := make([]byte, DeviceIDBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate device identity: %w", err)
	}
	id := hex.EncodeToString(raw)

	if err := s.Put(KeyDeviceID, id); err != nil {
		return "", fmt.Errorf("%w: persist device identity: %v", ErrStorageUnavailable, err)
	}
	return id, nil
}
