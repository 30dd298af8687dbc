// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCipherRoundTrip(t *testing.T) {
	salt, err := generateSalt()
	require.NoError(t, err)

	c, err := NewCipher("device-abc", salt)
	require.NoError(t, err)
	require.True(t, c.Enabled())

	plaintext := []byte(`{"module":"burn-depth","progress":0.4}`)
	blob, err := c.Encrypt(plaintext)
	require.NoError(t, err)
	require.True(t, blob.Encrypted())
	require.True(t, strings.HasPrefix(blob.String(), EncryptedPrefix))
	require.NotContains(t, blob.String(), "burn-depth")

	got, ok := c.Decrypt(ParseBlob(blob.String()))
	require.True(t, ok)
	require.Equal(t, plaintext, got)
}

func TestCipherRoundTripEmptyPayload(t *testing.T) {
	salt, err := generateSalt()
	require.NoError(t, err)
	c, err := NewCipher("device-abc", salt)
	require.NoError(t, err)

	blob, err := c.Encrypt([]byte{})
	require.NoError(t, err)
	require.True(t, blob.Encrypted())

	got, ok := c.Decrypt(blob)
	require.True(t, ok)
	require.Empty(t, got)
}

func TestCipherDecryptWrongKeyAbsent(t *testing.T) {
	salt1, err := generateSalt()
	require.NoError(t, err)
	salt2, err := generateSalt()
	require.NoError(t, err)

	c1, err := NewCipher("device-abc", salt1)
	require.NoError(t, err)
	blob, err := c1.Encrypt([]byte("secret notes"))
	require.NoError(t, err)

	// Different salt, same device.
	c2, err := NewCipher("device-abc", salt2)
	require.NoError(t, err)
	_, ok := c2.Decrypt(blob)
	require.False(t, ok)

	// Same salt, different device.
	c3, err := NewCipher("device-xyz", salt1)
	require.NoError(t, err)
	_, ok = c3.Decrypt(blob)
	require.False(t, ok)
}

func TestCipherNonceUniquePerCall(t *testing.T) {
	salt, err := generateSalt()
	require.NoError(t, err)
	c, err := NewCipher("device-abc", salt)
	require.NoError(t, err)

	a, err := c.Encrypt([]byte("same input"))
	require.NoError(t, err)
	b, err := c.Encrypt([]byte("same input"))
	require.NoError(t, err)
	require.NotEqual(t, a.String(), b.String())
}

func TestPassthroughCipher(t *testing.T) {
	c := NewPassthroughCipher()
	require.False(t, c.Enabled())

	blob, err := c.Encrypt([]byte("plain value"))
	require.NoError(t, err)
	require.False(t, blob.Encrypted())
	require.Equal(t, "plain value", blob.String())

	got, ok := c.Decrypt(blob)
	require.True(t, ok)
	require.Equal(t, []byte("plain value"), got)

	// A pass-through cipher cannot read ciphertext.
	_, ok = c.Decrypt(ParseBlob(EncryptedPrefix + "AAAA"))
	require.False(t, ok)
}

func TestEnabledCipherRejectsPlaintextBlob(t *testing.T) {
	salt, err := generateSalt()
	require.NoError(t, err)
	c, err := NewCipher("device-abc", salt)
	require.NoError(t, err)

	_, ok := c.Decrypt(PlaintextBlob([]byte("was never encrypted")))
	require.False(t, ok)
}

func TestParseBlobMalformed(t *testing.T) {
	salt, err := generateSalt()
	require.NoError(t, err)
	c, err := NewCipher("device-abc", salt)
	require.NoError(t, err)

	for _, stored := range []string{
		EncryptedPrefix,                   // empty ciphertext
		EncryptedPrefix + "!!not-base64",  // undecodable
		EncryptedPrefix + "AAAA",          // shorter than a nonce
		EncryptedPrefix + "dHJ1bmNhdGVk", // valid base64, garbage bytes
	} {
		blob := ParseBlob(stored)
		require.True(t, blob.Encrypted())
		_, ok := c.Decrypt(blob)
		require.False(t, ok, "stored=%q", stored)
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt, err := generateSalt()
	require.NoError(t, err)

	k1 := deriveKey("device-abc", salt)
	k2 := deriveKey("device-abc", salt)
	require.Equal(t, k1, k2)
	require.Len(t, k1, KeySize)

	k3 := deriveKey("device-xyz", salt)
	require.NotEqual(t, k1, k3)
}
