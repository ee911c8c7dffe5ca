package mfa

import "time"

// Result is embedded in every operation result. Expected failures such as a wrong
// code or an active lockout are reported here rather than through a Go error.
type Result struct {
	Success bool   `json:"success"`
	Kind    Kind   `json:"error_kind,omitempty"`
	Message string `json:"message,omitempty"`
}

// Err returns the sentinel error matching Kind, or nil on success.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return r.Kind.Err()
}

func succeeded() Result {
	return Result{Success: true}
}

// failed builds a Result whose message is the sentinel's text, never the cause.
func failed(kind Kind) Result {
	return Result{Kind: kind, Message: kind.Err().Error()}
}

// SetupResult carries the only copy of the plaintext secret and backup codes that
// ever leaves the service.
type SetupResult struct {
	Result
	Secret          string   `json:"secret,omitempty"`
	ManualEntryKey  string   `json:"manual_entry_key,omitempty"`
	ProvisioningURI string   `json:"provisioning_uri,omitempty"`
	QRCode          string   `json:"qr_code,omitempty"`
	BackupCodes     []string `json:"backup_codes,omitempty"`
}

// VerifyResult reports the outcome of a code or backup code check.
type VerifyResult struct {
	Result
	Activated            bool       `json:"activated,omitempty"`
	IsLockedOut          bool       `json:"is_locked_out"`
	LockoutUntil         *time.Time `json:"lockout_until,omitempty"`
	RemainingAttempts    int        `json:"remaining_attempts,omitempty"`
	RemainingBackupCodes int        `json:"remaining_backup_codes,omitempty"`
}

// DisableResult reports whether an enrollment was removed.
type DisableResult struct {
	Result
	Deleted bool `json:"deleted"`
}

// BackupCodesResult carries freshly generated plaintext backup codes.
type BackupCodesResult struct {
	Result
	Codes []string `json:"codes,omitempty"`
}

// StatusResult is a read-only view of a user's enrollment.
type StatusResult struct {
	Result
	Status               Status     `json:"status"`
	EnabledAt            *time.Time `json:"enabled_at,omitempty"`
	LastVerifiedAt       *time.Time `json:"last_verified_at,omitempty"`
	FailedAttempts       int        `json:"failed_attempts"`
	IsLockedOut          bool       `json:"is_locked_out"`
	LockoutUntil         *time.Time `json:"lockout_until,omitempty"`
	RemainingBackupCodes int        `json:"remaining_backup_codes"`
}
