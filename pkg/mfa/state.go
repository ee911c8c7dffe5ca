package mfa

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Method identifies the second-factor type an enrollment belongs to.
type Method string

const MethodTOTP Method = "totp"

// Status is the lifecycle position of a user's enrollment.
type Status string

const (
	StatusUnenrolled          Status = "unenrolled"
	StatusPendingConfirmation Status = "pending_confirmation"
	StatusActive              Status = "active"
)

// EnrollmentState is the per-user record backing every MFA decision.
// Secret holds the raw shared secret; backup codes are only ever stored as hashes.
type EnrollmentState struct {
	ID                   uuid.UUID
	UserID               string
	Method               Method
	Secret               []byte
	Enabled              bool
	EnabledAt            *time.Time
	FailedAttempts       int
	LockoutUntil         *time.Time
	BackupCodeHashes     []string
	UsedBackupCodeHashes []string
	LastVerifiedAt       *time.Time
	LastUsedStep         int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// newEnrollmentState creates a pending record for userID.
func newEnrollmentState(userID string, secret []byte, backupHashes []string, now time.Time) *EnrollmentState {
	return &EnrollmentState{
		ID:                   uuid.New(),
		UserID:               userID,
		Method:               MethodTOTP,
		Secret:               secret,
		BackupCodeHashes:     backupHashes,
		UsedBackupCodeHashes: []string{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// Status reports the lifecycle state. A nil record means the user never enrolled.
func (s *EnrollmentState) Status() Status {
	switch {
	case s == nil:
		return StatusUnenrolled
	case s.Enabled:
		return StatusActive
	default:
		return StatusPendingConfirmation
	}
}

// RemainingBackupCodes returns the number of unused backup codes.
func (s *EnrollmentState) RemainingBackupCodes() int {
	if s == nil {
		return 0
	}
	return len(s.BackupCodeHashes)
}

// Clone returns a deep copy so stores never share mutable slices or pointers with callers.
func (s *EnrollmentState) Clone() *EnrollmentState {
	if s == nil {
		return nil
	}
	c := *s
	c.Secret = slices.Clone(s.Secret)
	c.BackupCodeHashes = slices.Clone(s.BackupCodeHashes)
	c.UsedBackupCodeHashes = slices.Clone(s.UsedBackupCodeHashes)
	c.EnabledAt = cloneTime(s.EnabledAt)
	c.LockoutUntil = cloneTime(s.LockoutUntil)
	c.LastVerifiedAt = cloneTime(s.LastVerifiedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
