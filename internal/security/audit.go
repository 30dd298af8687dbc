// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emberclinic/burnsafe/internal/store"
)

// =============================================================================
// EVENT TYPES
// =============================================================================

// EventType identifies a security-relevant state transition.
type EventType string

const (
	// EventPinChanged records PIN setup or reconfiguration.
	EventPinChanged EventType = "PIN_CHANGED"

	// EventAuthSuccess records a successful PIN authentication.
	EventAuthSuccess EventType = "AUTH_SUCCESS"

	// EventAuthFailure records a failed PIN attempt with its count.
	EventAuthFailure EventType = "AUTH_FAILURE"

	// EventAuthLockout records the transition into lockout.
	EventAuthLockout EventType = "AUTH_LOCKOUT"

	// EventSessionExpired records an idle session observed past its expiry.
	EventSessionExpired EventType = "SESSION_EXPIRED"

	// EventSignedOut records a voluntary sign-out (details carry
	// manual=true to distinguish it from timeout).
	EventSignedOut EventType = "SIGNED_OUT"

	// EventDataEncrypted records an encrypted write through the adapter.
	EventDataEncrypted EventType = "DATA_ENCRYPTED"

	// EventDataWiped records a full data wipe.
	EventDataWiped EventType = "DATA_WIPED"
)

// =============================================================================
// AUDIT EVENT
// =============================================================================

// AuditEvent is one immutable record of a security-relevant transition.
type AuditEvent struct {
	ID        string            `json:"id"`
	Event     EventType         `json:"event"`
	Timestamp time.Time         `json:"timestamp"`
	SessionID string            `json:"session_id,omitempty"`
	Success   bool              `json:"success"`
	Details   map[string]string `json:"details,omitempty"`
}

// =============================================================================
// AUDIT LOG
// =============================================================================

// DefaultAuditMaxEntries caps the retained audit log. Each append rewrites
// the full serialized array, which is acceptable at this bound and is an
// explicit design limit, not something expected to scale.
const DefaultAuditMaxEntries = 1000

// AuditLog is an append-only, size-bounded, in-memory event sequence mirrored
// to the host store as a single serialized blob after every append. Oldest
// entries are evicted first once the cap is reached.
type AuditLog struct {
	mu      sync.Mutex
	store   store.Store
	max     int
	events  []AuditEvent
	nowFunc func() time.Time
}

// NewAuditLog creates an audit log persisting to s, retaining at most max
// entries (DefaultAuditMaxEntries if max <= 0).
func NewAuditLog(s store.Store, max int) *AuditLog {
	if max <= 0 {
		max = DefaultAuditMaxEntries
	}
	return &AuditLog{store: s, max: max, nowFunc: time.Now}
}

// LoadPersisted replaces the in-memory sequence with the persisted one.
// A missing or corrupt blob yields an empty log; the audit trail degrades,
// it never blocks startup.
func (a *AuditLog) LoadPersisted() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	raw, ok, err := a.store.Get(KeyAuditLog)
	if err != nil {
		return fmt.Errorf("%w: read audit log: %v", ErrStorageUnavailable, err)
	}
	if !ok {
		a.events = nil
		return nil
	}

	var events []AuditEvent
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		a.events = nil
		return nil
	}
	if len(events) > a.max {
		events = events[len(events)-a.max:]
	}
	a.events = events
	return nil
}

// Append records an event, evicting the oldest entries beyond the cap, and
// persists the full remaining sequence. The event's ID and timestamp are
// filled in when absent.
func (a *AuditLog) Append(event AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = a.nowFunc()
	}

	a.events = append(a.events, event)
	if len(a.events) > a.max {
		a.events = a.events[len(a.events)-a.max:]
	}

	return a.persistLocked()
}

// persistLocked writes the full sequence to the host store (caller holds mu).
func (a *AuditLog) persistLocked() error {
	data, err := json.Marshal(a.events)
	if err != nil {
		return fmt.Errorf("failed to marshal audit log: %w", err)
	}
	if err := a.store.Put(KeyAuditLog, string(data)); err != nil {
		return fmt.Errorf("failed to persist audit log: %w", err)
	}
	return nil
}

// Events returns a copy of the retained events, oldest first.
func (a *AuditLog) Events() []AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]AuditEvent, len(a.events))
	copy(out, a.events)
	return out
}

// Len returns the number of retained events.
func (a *AuditLog) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.events)
}

// Clear drops the in-memory sequence without touching the store. Used by the
// wipe path, which deletes the persisted blob itself.
func (a *AuditLog) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = nil
}

// ExportCSV renders the retained events as CSV with a deterministic column
// order: timestamp (ISO-8601), event, session_id, success, details (JSON).
// Quoting follows RFC 4180, so embedded delimiters and newlines survive.
func (a *AuditLog) ExportCSV() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"timestamp", "event", "session_id", "success", "details"}); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, event := range a.events {
		details := ""
		if len(event.Details) > 0 {
			raw, err := json.Marshal(event.Details)
			if err != nil {
				return "", fmt.Errorf("failed to marshal event details: %w", err)
			}
			details = string(raw)
		}
		record := []string{
			event.Timestamp.UTC().Format(time.RFC3339),
			string(event.Event),
			event.SessionID,
			strconv.FormatBool(event.Success),
			details,
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.String(), nil
}
