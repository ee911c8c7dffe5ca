package totp

import "errors"

// Secret and provisioning URI errors.
var (
	ErrFailedToGenerateSecretKey = errors.New("totp: failed to generate secret")
	ErrMissingSecret             = errors.New("totp: secret is required")
	ErrInvalidSecret             = errors.New("totp: secret is not valid base32")
	ErrMissingAccountName        = errors.New("totp: account name is required")
	ErrMissingIssuer             = errors.New("totp: issuer is required")
)

// Parameter errors.
var (
	ErrInvalidDigits = errors.New("totp: digits must be between 6 and 8")
	ErrInvalidPeriod = errors.New("totp: period must be positive")
	ErrInvalidSkew   = errors.New("totp: drift window must not be negative")
)

// Backup code errors.
var (
	ErrInvalidRecoveryCodeCount     = errors.New("totp: backup code count must be positive")
	ErrFailedToGenerateRecoveryCode = errors.New("totp: failed to generate backup code")
)

// Encryption errors.
var (
	ErrEncryptionKeyNotSet           = errors.New("totp: encryption key not set")
	ErrInvalidEncryptionKeyLength    = errors.New("totp: encryption key must be 32 bytes")
	ErrFailedToLoadEncryptionKey     = errors.New("totp: failed to load encryption key")
	ErrFailedToGenerateEncryptionKey = errors.New("totp: failed to generate encryption key")
	ErrFailedToEncryptSecret         = errors.New("totp: failed to encrypt secret")
	ErrFailedToDecryptSecret         = errors.New("totp: failed to decrypt secret")
	ErrInvalidCipherTooShort         = errors.New("totp: ciphertext too short")
)
