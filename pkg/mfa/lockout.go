package mfa

import "time"

// LockoutPolicy suspends verification for a user after too many consecutive failures.
// Expiry is lazy: nothing clears a lockout until the user's record is next read.
type LockoutPolicy struct {
	MaxFailedAttempts int
	Duration          time.Duration
}

// Outcome is the result of recording a failed attempt.
type Outcome struct {
	Kind              Kind
	RemainingAttempts int
	LockoutUntil      *time.Time
}

// LockedOut reports whether the outcome started a lockout.
func (o Outcome) LockedOut() bool {
	return o.Kind == KindLockedOut
}

// IsLockedOut reports whether state has a lockout that ends after now.
func (p LockoutPolicy) IsLockedOut(state *EnrollmentState, now time.Time) bool {
	return state.LockoutUntil != nil && state.LockoutUntil.After(now)
}

// ExpireIfElapsed clears a lockout whose deadline has passed and resets the failure
// counter. It reports whether state changed.
func (p LockoutPolicy) ExpireIfElapsed(state *EnrollmentState, now time.Time) bool {
	if state.LockoutUntil == nil || state.LockoutUntil.After(now) {
		return false
	}
	state.LockoutUntil = nil
	state.FailedAttempts = 0
	return true
}

// OnSuccess resets the failure counter and records the verification time.
func (p LockoutPolicy) OnSuccess(state *EnrollmentState, now time.Time) {
	state.FailedAttempts = 0
	state.LockoutUntil = nil
	state.LastVerifiedAt = &now
}

// OnFailure counts a failed attempt and starts a lockout once the threshold is reached.
func (p LockoutPolicy) OnFailure(state *EnrollmentState, now time.Time) Outcome {
	state.FailedAttempts++
	if state.FailedAttempts >= p.MaxFailedAttempts {
		until := now.Add(p.Duration)
		state.LockoutUntil = &until
		return Outcome{Kind: KindLockedOut, LockoutUntil: &until}
	}
	return Outcome{
		Kind:              KindInvalidCode,
		RemainingAttempts: p.MaxFailedAttempts - state.FailedAttempts,
	}
}
