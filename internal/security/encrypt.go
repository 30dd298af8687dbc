// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// EncryptedPrefix marks a stored value as ciphertext
	// (format: ENC:base64(nonce|ciphertext|tag)).
	EncryptedPrefix = "ENC:"

	// NonceSize is the AES-GCM nonce size (96 bits).
	NonceSize = 12

	// KeySize is the AES-256 key size.
	KeySize = 32

	// SaltSize is the size of the PIN salt, which doubles as the key
	// derivation salt.
	SaltSize = 32

	// KeyDerivationIterations is the PBKDF2-SHA-256 iteration count. The
	// derivation input is the 128-bit random device identity rather than a
	// human secret, so the count is modest: stretching guards the salt
	// binding, not a guessable password.
	KeyDerivationIterations = 10000
)

// ZeroBytes zeros sensitive byte slices to limit key material exposure in
// crash dumps.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// =============================================================================
// BLOB
// =============================================================================

// Blob is a persisted payload in one of two explicit forms: plaintext passed
// through before any PIN exists, or AES-256-GCM ciphertext. Keeping the two
// as a tagged value (rather than a bare string a caller has to sniff) means
// code cannot accidentally treat one as the other.
type Blob struct {
	encrypted bool
	data      []byte // plaintext, or nonce||ciphertext||tag
}

// PlaintextBlob wraps raw bytes written in pass-through mode.
func PlaintextBlob(data []byte) Blob {
	return Blob{encrypted: false, data: data}
}

// Encrypted reports whether the blob carries ciphertext.
func (b Blob) Encrypted() bool {
	return b.encrypted
}

// String renders the blob's stored form: ciphertext is ENC:-prefixed base64,
// plaintext is stored as-is.
func (b Blob) String() string {
	if b.encrypted {
		return EncryptedPrefix + base64.StdEncoding.EncodeToString(b.data)
	}
	return string(b.data)
}

// ParseBlob reconstructs a Blob from its stored form. An ENC: value with
// broken base64 still parses as an encrypted blob; decryption of it fails,
// which is the degradation path corrupted records are supposed to take.
func ParseBlob(stored string) Blob {
	if !strings.HasPrefix(stored, EncryptedPrefix) {
		return Blob{encrypted: false, data: []byte(stored)}
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, EncryptedPrefix))
	if err != nil {
		return Blob{encrypted: true, data: nil}
	}
	return Blob{encrypted: true, data: raw}
}

// =============================================================================
// KEY DERIVATION
// =============================================================================

// generateSalt returns a fresh random salt for PIN (re)configuration.
func generateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// deriveKey derives the storage encryption key from the device identity and
// the salt stored alongside the PIN credential (PBKDF2-SHA-256).
//
// The key is bound to the PIN configuration epoch: regenerating the salt on
// PIN change invalidates the key for everything written before it.
func deriveKey(deviceID string, salt []byte) []byte {
	return pbkdf2.Key([]byte(deviceID), salt, KeyDerivationIterations, KeySize, sha256.New)
}

// =============================================================================
// CIPHER
// =============================================================================

// Cipher performs the core's symmetric encryption. A Cipher without key
// material is in pass-through mode: Encrypt emits plaintext blobs unchanged.
// Pass-through is the state of the world before any PIN is configured.
type Cipher struct {
	aead cipher.AEAD // nil in pass-through mode
}

// NewPassthroughCipher returns a Cipher that passes data through unchanged.
func NewPassthroughCipher() *Cipher {
	return &Cipher{}
}

// NewCipher builds an AES-256-GCM Cipher keyed from the device identity and
// the current PIN salt.
func NewCipher(deviceID string, salt []byte) (*Cipher, error) {
	key := deriveKey(deviceID, salt)
	defer ZeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM cipher: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Enabled reports whether the cipher has key material (true) or is in
// pass-through mode (false).
func (c *Cipher) Enabled() bool {
	return c.aead != nil
}

// Encrypt seals plaintext into a Blob. In pass-through mode the plaintext is
// returned unchanged as a plaintext blob; callers must not assume blobs are
// always opaque.
func (c *Cipher) Encrypt(plaintext []byte) (Blob, error) {
	if c.aead == nil {
		return PlaintextBlob(plaintext), nil
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return Blob{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return Blob{encrypted: true, data: sealed}, nil
}

// Decrypt opens a Blob. The second return value is false (absent, never an
// error) for any blob this cipher cannot read: wrong key, truncated or
// corrupted ciphertext, an encrypted blob in pass-through mode, or a
// plaintext blob once encryption is active. Callers treat absent as "no
// saved value".
func (c *Cipher) Decrypt(b Blob) ([]byte, bool) {
	if c.aead == nil {
		if b.encrypted {
			return nil, false
		}
		return b.data, true
	}

	if !b.encrypted {
		return nil, false
	}
	if len(b.data) < NonceSize {
		return nil, false
	}

	nonce, sealed := b.data[:NonceSize], b.data[NonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, false
	}
	return plaintext, true
}
