// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// openTestStores returns one store per implementation, each named for the
// failure message.
func openTestStores(t *testing.T) map[string]Store {
	t.Helper()

	sqliteStore, err := OpenSQLite(filepath.Join(t.TempDir(), "burnsafe.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	memStore := NewMemoryStore()
	t.Cleanup(func() { memStore.Close() })

	return map[string]Store{
		"sqlite": sqliteStore,
		"memory": memStore,
	}
}

func TestStore_GetMissingKey(t *testing.T) {
	for name, s := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get("absent")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	for name, s := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put("device_id", "abc123"))

			value, ok, err := s.Get("device_id")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "abc123", value)
		})
	}
}

func TestStore_PutReplacesValue(t *testing.T) {
	for name, s := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put("k", "first"))
			require.NoError(t, s.Put("k", "second"))

			value, ok, err := s.Get("k")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "second", value)
		})
	}
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	for name, s := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put("k", "v"))
			require.NoError(t, s.Delete("k"))
			require.NoError(t, s.Delete("k"))

			_, ok, err := s.Get("k")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestStore_KeysByPrefix(t *testing.T) {
	for name, s := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put("encrypted_notes", "x"))
			require.NoError(t, s.Put("encrypted_assessment", "y"))
			require.NoError(t, s.Put("device_id", "z"))

			keys, err := s.Keys("encrypted_")
			require.NoError(t, err)
			require.Equal(t, []string{"encrypted_assessment", "encrypted_notes"}, keys)
		})
	}
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "burnsafe.db")

	s, err := OpenSQLite(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Put("security_state", `{"is_authenticated":false}`))
	require.NoError(t, s.Close())

	s2, err := OpenSQLite(path, zerolog.Nop())
	require.NoError(t, err)
	defer s2.Close()

	value, ok, err := s2.Get("security_state")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"is_authenticated":false}`, value)
}

func TestOpenSQLite_BadDirectoryFails(t *testing.T) {
	// A regular file where the parent directory should be makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0600))

	_, err := OpenSQLite(filepath.Join(blocker, "sub", "burnsafe.db"), zerolog.Nop())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestMemoryStore_ClosedRejectsOperations(t *testing.T) {
	m := NewMemoryStore()
	require.NoError(t, m.Close())

	require.ErrorIs(t, m.Put("k", "v"), ErrClosed)
	_, _, err := m.Get("k")
	require.ErrorIs(t, err, ErrClosed)
}
