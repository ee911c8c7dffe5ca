package mfa_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofa/pkg/mfa"
)

func TestLockoutPolicy_OnFailure(t *testing.T) {
	t.Parallel()
	policy := mfa.LockoutPolicy{MaxFailedAttempts: 3, Duration: 15 * time.Minute}
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	state := &mfa.EnrollmentState{}

	out := policy.OnFailure(state, now)
	assert.Equal(t, mfa.KindInvalidCode, out.Kind)
	assert.Equal(t, 2, out.RemainingAttempts)
	assert.False(t, out.LockedOut())

	out = policy.OnFailure(state, now)
	assert.Equal(t, 1, out.RemainingAttempts)

	out = policy.OnFailure(state, now)
	require.True(t, out.LockedOut())
	require.NotNil(t, out.LockoutUntil)
	assert.Equal(t, now.Add(15*time.Minute), *out.LockoutUntil)
	assert.Equal(t, 3, state.FailedAttempts)
	assert.True(t, policy.IsLockedOut(state, now))
}

func TestLockoutPolicy_IsLockedOut(t *testing.T) {
	t.Parallel()
	policy := mfa.LockoutPolicy{MaxFailedAttempts: 5, Duration: time.Minute}
	now := time.Now()
	until := now.Add(time.Minute)

	tests := []struct {
		name  string
		until *time.Time
		at    time.Time
		want  bool
	}{
		{name: "no lockout", until: nil, at: now, want: false},
		{name: "before deadline", until: &until, at: now, want: true},
		{name: "at deadline", until: &until, at: until, want: false},
		{name: "after deadline", until: &until, at: until.Add(time.Second), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			state := &mfa.EnrollmentState{LockoutUntil: tt.until}
			assert.Equal(t, tt.want, policy.IsLockedOut(state, tt.at))
		})
	}
}

func TestLockoutPolicy_ExpireIfElapsed(t *testing.T) {
	t.Parallel()
	policy := mfa.LockoutPolicy{MaxFailedAttempts: 5, Duration: time.Minute}
	now := time.Now()
	until := now.Add(time.Minute)

	active := &mfa.EnrollmentState{FailedAttempts: 5, LockoutUntil: &until}
	assert.False(t, policy.ExpireIfElapsed(active, now))
	assert.Equal(t, 5, active.FailedAttempts)

	assert.True(t, policy.ExpireIfElapsed(active, until))
	assert.Nil(t, active.LockoutUntil)
	assert.Zero(t, active.FailedAttempts)

	assert.False(t, policy.ExpireIfElapsed(&mfa.EnrollmentState{FailedAttempts: 2}, now),
		"a counter without a lockout is left alone")
}

func TestLockoutPolicy_OnSuccess(t *testing.T) {
	t.Parallel()
	policy := mfa.LockoutPolicy{MaxFailedAttempts: 5, Duration: time.Minute}
	now := time.Now()
	until := now.Add(time.Minute)
	state := &mfa.EnrollmentState{FailedAttempts: 4, LockoutUntil: &until}

	policy.OnSuccess(state, now)
	assert.Zero(t, state.FailedAttempts)
	assert.Nil(t, state.LockoutUntil)
	require.NotNil(t, state.LastVerifiedAt)
	assert.Equal(t, now, *state.LastVerifiedAt)
}
