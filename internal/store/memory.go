// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"sort"
	"strings"
	"sync"
)

// MemoryStore is a map-backed Store for tests and ephemeral runs.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]string
	closed bool

	// FailPuts forces Put to fail; used by tests to exercise best-effort
	// persistence paths.
	FailPuts bool
	// FailDeletes forces Delete to fail.
	FailDeletes bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// Get returns the value for key and whether it exists.
func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, ErrClosed
	}
	value, ok := m.data[key]
	return value, ok, nil
}

// Put stores value under key.
func (m *MemoryStore) Put(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.FailPuts {
		return ErrUnavailable
	}
	m.data[key] = value
	return nil
}

// Delete removes key.
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.FailDeletes {
		return ErrUnavailable
	}
	delete(m.data, key)
	return nil
}

// Keys returns all keys with the given prefix, sorted ascending.
func (m *MemoryStore) Keys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	var keys []string
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close marks the store closed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
