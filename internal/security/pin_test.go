// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// =============================================================================
// SETUP
// =============================================================================

func TestSetupPinValidation(t *testing.T) {
	tests := []struct {
		name string
		pin  string
		ok   bool
	}{
		{"minimum length", "1234", true},
		{"maximum length", "12345678", true},
		{"mid length", "024680", true},
		{"leading zeros", "0042", true},
		{"too short", "123", false},
		{"too long", "123456789", false},
		{"empty", "", false},
		{"letters", "12ab", false},
		{"spaces", "12 4", false},
		{"unicode digits", "１２３４", false},
		{"negative sign", "-1234", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			err := svc.SetupPin(tt.pin)
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrInvalidFormat)
			}
		})
	}
}

func TestSetupPinAuthenticatesCaller(t *testing.T) {
	svc, _ := newTestService(t)
	require.False(t, svc.IsAuthenticated())

	require.NoError(t, svc.SetupPin("1234"))
	require.True(t, svc.IsAuthenticated())

	events, err := svc.AuditEvents()
	require.NoError(t, err)
	require.Equal(t, 1, countEvents(events, EventPinChanged))
}

func TestSetupPinRejectedFormatLeavesStateUntouched(t *testing.T) {
	svc, mem := newTestService(t)
	require.ErrorIs(t, svc.SetupPin("12"), ErrInvalidFormat)

	_, ok, err := mem.Get(KeyPinHash)
	require.NoError(t, err)
	require.False(t, ok)
	require.False(t, svc.IsAuthenticated())

	events, err := svc.AuditEvents()
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestSetupPinReplacementRotatesSalt(t *testing.T) {
	svc, mem := newTestService(t)
	require.NoError(t, svc.SetupPin("1234"))
	salt1, _, err := mem.Get(KeyPinSalt)
	require.NoError(t, err)

	require.NoError(t, svc.SetupPin("5678"))
	salt2, _, err := mem.Get(KeyPinSalt)
	require.NoError(t, err)
	require.NotEqual(t, salt1, salt2)

	// Old PIN no longer verifies, new one does.
	require.NoError(t, svc.SignOut())
	res, err := svc.Authenticate("1234")
	require.NoError(t, err)
	require.Equal(t, AuthOutcomeFailure, res.Outcome)

	res, err = svc.Authenticate("5678")
	require.NoError(t, err)
	require.True(t, res.Authenticated())
}

func TestSetupPinReplacementOrphansOldPayloads(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.SetupPin("1234"))
	require.NoError(t, svc.Save("progress", 42))

	require.NoError(t, svc.SetupPin("5678"))

	var got int
	ok, err := svc.Load("progress", &got)
	require.NoError(t, err)
	require.False(t, ok)
}

// =============================================================================
// AUTHENTICATION
// =============================================================================

func TestAuthenticateNotConfigured(t *testing.T) {
	svc, _ := newTestService(t)
	res, err := svc.Authenticate("1234")
	require.NoError(t, err)
	require.Equal(t, AuthOutcomeNotConfigured, res.Outcome)
	require.False(t, res.Authenticated())
}

func TestAuthenticateSuccess(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.SetupPin("1234"))
	require.NoError(t, svc.SignOut())

	res, err := svc.Authenticate("1234")
	require.NoError(t, err)
	require.True(t, res.Authenticated())
	require.NotEmpty(t, res.SessionToken)
	require.True(t, svc.IsAuthenticated())

	events, err := svc.AuditEvents()
	require.NoError(t, err)
	require.Equal(t, 1, countEvents(events, EventAuthSuccess))
}

func TestAuthenticateRemainingAttemptsCountdown(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.SetupPin("1234"))
	require.NoError(t, svc.SignOut())

	for want := 4; want >= 1; want-- {
		res, err := svc.Authenticate("9999")
		require.NoError(t, err)
		require.Equal(t, AuthOutcomeFailure, res.Outcome)
		require.Equal(t, want, res.RemainingAttempts)
	}
}

func TestAuthenticateLockoutAfterMaxFailures(t *testing.T) {
	svc, _, clock := newClockedService(t)
	require.NoError(t, svc.SetupPin("1234"))
	require.NoError(t, svc.SignOut())

	for i := 0; i < 4; i++ {
		res, err := svc.Authenticate("0000")
		require.NoError(t, err)
		require.Equal(t, AuthOutcomeFailure, res.Outcome)
	}

	// Fifth failure arms the lockout.
	res, err := svc.Authenticate("0000")
	require.NoError(t, err)
	require.Equal(t, AuthOutcomeLocked, res.Outcome)
	require.Equal(t, 5*time.Minute, res.LockoutRemaining)

	// While locked, even the correct PIN is refused.
	res, err = svc.Authenticate("1234")
	require.NoError(t, err)
	require.Equal(t, AuthOutcomeLocked, res.Outcome)
	require.True(t, res.LockoutRemaining > 0)

	events, err := svc.AuditEvents()
	require.NoError(t, err)
	require.Equal(t, 5, countEvents(events, EventAuthFailure))
	require.Equal(t, 1, countEvents(events, EventAuthLockout))

	// After the window passes the correct PIN works again.
	clock.Advance(5*time.Minute + time.Second)
	res, err = svc.Authenticate("1234")
	require.NoError(t, err)
	require.True(t, res.Authenticated())
}

func TestAuthenticateWrongPinAfterLockoutExpiryRelocks(t *testing.T) {
	svc, _, clock := newClockedService(t)
	require.NoError(t, svc.SetupPin("1234"))
	require.NoError(t, svc.SignOut())

	for i := 0; i < 5; i++ {
		_, err := svc.Authenticate("0000")
		require.NoError(t, err)
	}
	clock.Advance(5*time.Minute + time.Second)

	// The counter is not refunded when the window lapses, so one more
	// wrong PIN arms a fresh lockout immediately.
	res, err := svc.Authenticate("0000")
	require.NoError(t, err)
	require.Equal(t, AuthOutcomeLocked, res.Outcome)
	require.Equal(t, 0, res.RemainingAttempts)
	require.Equal(t, 5*time.Minute, res.LockoutRemaining)

	events, err := svc.AuditEvents()
	require.NoError(t, err)
	require.Equal(t, 6, countEvents(events, EventAuthFailure))
	require.Equal(t, 2, countEvents(events, EventAuthLockout))
}

func TestAuthenticateLockedAttemptDoesNotExtendLockout(t *testing.T) {
	svc, _, clock := newClockedService(t)
	require.NoError(t, svc.SetupPin("1234"))
	require.NoError(t, svc.SignOut())

	for i := 0; i < 5; i++ {
		_, err := svc.Authenticate("0000")
		require.NoError(t, err)
	}

	clock.Advance(4 * time.Minute)
	res, err := svc.Authenticate("0000")
	require.NoError(t, err)
	require.Equal(t, AuthOutcomeLocked, res.Outcome)
	require.Equal(t, time.Minute, res.LockoutRemaining)

	// No new failure or lockout events while locked.
	events, err := svc.AuditEvents()
	require.NoError(t, err)
	require.Equal(t, 5, countEvents(events, EventAuthFailure))
	require.Equal(t, 1, countEvents(events, EventAuthLockout))
}

func TestAuthenticateSuccessResetsCounters(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.SetupPin("1234"))
	require.NoError(t, svc.SignOut())

	for i := 0; i < 3; i++ {
		_, err := svc.Authenticate("0000")
		require.NoError(t, err)
	}
	res, err := svc.Authenticate("1234")
	require.NoError(t, err)
	require.True(t, res.Authenticated())

	status, err := svc.GetSecurityStatus()
	require.NoError(t, err)
	require.Zero(t, status.FailedAttempts)

	// The counter starts from scratch on the next bad streak.
	require.NoError(t, svc.SignOut())
	res, err = svc.Authenticate("0000")
	require.NoError(t, err)
	require.Equal(t, 4, res.RemainingAttempts)
}

func TestFailedAttemptsSurviveRestart(t *testing.T) {
	mem := newTestServiceStore(t, "1234", 3)

	restarted := newTestServiceOn(t, mem)
	status, err := restarted.GetSecurityStatus()
	require.NoError(t, err)
	require.Equal(t, 3, status.FailedAttempts)

	// Two more failures on the restarted instance lock the device.
	_, err = restarted.Authenticate("0000")
	require.NoError(t, err)
	res, err := restarted.Authenticate("0000")
	require.NoError(t, err)
	require.Equal(t, AuthOutcomeLocked, res.Outcome)
}
