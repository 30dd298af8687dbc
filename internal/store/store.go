// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides the durable key-value store backing the burnsafe
// security core. The core treats this as an opaque host store: every
// persisted record (device identity, security state, PIN credential, audit
// log, encrypted payloads) is a named string entry.
package store

import "errors"

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnavailable indicates the durable store cannot be opened or reached.
	// The security core cannot function without a store, so callers treat
	// this as fatal at initialization time.
	ErrUnavailable = errors.New("durable store unavailable")

	// ErrClosed indicates an operation on a closed store.
	ErrClosed = errors.New("store is closed")
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is a durable string key-value store.
//
// Get reports presence explicitly: a missing key is (``, false, nil), not an
// error. Errors are reserved for store-level failures (I/O, closed handle).
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)
	// Put stores value under key, replacing any existing value.
	Put(key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Keys returns all keys with the given prefix, sorted ascending.
	Keys(prefix string) ([]string, error)
	// Close releases the underlying resources.
	Close() error
}
