package mfa

import "errors"

// Kind tags the outcome of an operation so callers can branch without parsing messages.
type Kind string

const (
	KindNone                  Kind = ""
	KindAlreadyEnabled        Kind = "already_enabled"
	KindNotEnabled            Kind = "not_enabled"
	KindInvalidCode           Kind = "invalid_code"
	KindLockedOut             Kind = "locked_out"
	KindBackupCodeAlreadyUsed Kind = "backup_code_already_used"
	KindStorageError          Kind = "storage_error"
	KindUnknown               Kind = "unknown"
)

var (
	ErrAlreadyEnabled        = errors.New("two-factor authentication is already enabled")
	ErrNotEnabled            = errors.New("two-factor authentication is not enabled")
	ErrInvalidCode           = errors.New("invalid verification code")
	ErrLockedOut             = errors.New("too many failed attempts, verification is temporarily locked")
	ErrBackupCodeAlreadyUsed = errors.New("backup code has already been used")
	ErrStorage               = errors.New("failed to access two-factor authentication storage")
	ErrUnknown               = errors.New("unexpected two-factor authentication failure")
)

// Store errors
var (
	ErrStateNotFound = errors.New("enrollment state not found")
	ErrNilState      = errors.New("enrollment state is nil")
	ErrEmptyUserID   = errors.New("empty user id")
)

// Configuration errors
var (
	ErrMissingIssuer          = errors.New("issuer name is required")
	ErrInvalidSecretLength    = errors.New("secret length must be at least 16 bytes")
	ErrInvalidMaxAttempts     = errors.New("max failed attempts must be greater than 0")
	ErrInvalidLockoutDuration = errors.New("lockout duration must be greater than 0")
	ErrInvalidBackupCodeCount = errors.New("backup code count must be greater than 0")
	ErrFailedToDecodeSecret   = errors.New("failed to decode stored secret")
	ErrFailedToEncodeSecret   = errors.New("failed to encode secret for storage")
)

var kindErrors = map[Kind]error{
	KindAlreadyEnabled:        ErrAlreadyEnabled,
	KindNotEnabled:            ErrNotEnabled,
	KindInvalidCode:           ErrInvalidCode,
	KindLockedOut:             ErrLockedOut,
	KindBackupCodeAlreadyUsed: ErrBackupCodeAlreadyUsed,
	KindStorageError:          ErrStorage,
	KindUnknown:               ErrUnknown,
}

// Err returns the sentinel error for the kind, or nil for KindNone.
func (k Kind) Err() error {
	if k == KindNone {
		return nil
	}
	if err, ok := kindErrors[k]; ok {
		return err
	}
	return ErrUnknown
}

// KindOf maps an error back to its Kind. Errors outside the taxonomy are KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for kind, sentinel := range kindErrors {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindUnknown
}
