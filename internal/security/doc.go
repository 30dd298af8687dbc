// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package security implements the burnsafe device authentication and
// encrypted-persistence core.
//
// The core is a local PIN gate in front of a durable key-value store:
//
//   - a stable per-device identity, created once and kept in plaintext
//   - PIN setup and verification with an attempt-count lockout
//   - idle-session timeout, observed lazily when state is read
//   - transparent AES-256-GCM encryption of everything the rest of the
//     application persists
//   - an append-only, size-bounded audit log of security-relevant events
//
// Everything is exposed through a single Service constructed once at process
// start and passed to consumers; there is no package-level global state.
// The Service serializes its operations internally, but overlapping calls to
// Authenticate are a caller responsibility (disable the submit action while
// a call is outstanding).
//
// A local PIN gate is a privacy control, not a security boundary against an
// adversary with full access to the device's storage and memory.
package security
