package mfa

import "context"

// Store persists enrollment records. Implementations must provide read-your-writes
// consistency per user; the Service serializes calls for the same user within a process.
type Store interface {
	// Get returns the record for userID or ErrStateNotFound.
	Get(ctx context.Context, userID string) (*EnrollmentState, error)
	// Save creates or replaces the record for state.UserID.
	Save(ctx context.Context, state *EnrollmentState) error
	// Delete removes the record and reports whether one existed.
	Delete(ctx context.Context, userID string) (bool, error)
}
