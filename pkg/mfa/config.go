package mfa

import (
	"time"

	"github.com/dmitrymomot/twofa/pkg/config"
	"github.com/dmitrymomot/twofa/pkg/totp"
)

const minSecretLength = 16

// Config holds every tunable of the MFA service.
type Config struct {
	Issuer            string        `env:"MFA_ISSUER" envDefault:"SaaSKit"`        // Issuer shown in authenticator apps
	SecretLength      int           `env:"MFA_SECRET_LENGTH" envDefault:"20"`      // Raw secret size in bytes
	Digits            int           `env:"MFA_CODE_DIGITS" envDefault:"6"`         // Digits per code
	Period            int           `env:"MFA_PERIOD" envDefault:"30"`             // Time-step length in seconds
	DriftSteps        int           `env:"MFA_DRIFT_STEPS" envDefault:"1"`         // Allowed clock drift in steps
	MaxFailedAttempts int           `env:"MFA_MAX_FAILED_ATTEMPTS" envDefault:"5"` // Failures before lockout
	LockoutDuration   time.Duration `env:"MFA_LOCKOUT_DURATION" envDefault:"15m"`  // How long a lockout lasts
	BackupCodeCount   int           `env:"MFA_BACKUP_CODE_COUNT" envDefault:"10"`  // Backup codes issued by default
	QRCodeSize        int           `env:"MFA_QRCODE_SIZE" envDefault:"256"`       // QR image size in pixels, 0 disables rendering
	PreventReplay     bool          `env:"MFA_PREVENT_REPLAY" envDefault:"false"`  // Reject codes from an already used time step
	EncryptionKey     string        `env:"MFA_ENCRYPTION_KEY"`                     // Base64 AES-256 key for secrets at rest
}

// DefaultConfig returns the same values the environment defaults produce.
func DefaultConfig() Config {
	return Config{
		Issuer:            "SaaSKit",
		SecretLength:      totp.DefaultSecretLength,
		Digits:            totp.DefaultDigits,
		Period:            totp.DefaultPeriod,
		DriftSteps:        totp.DefaultSkew,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		BackupCodeCount:   10,
		QRCodeSize:        256,
	}
}

// LoadConfig reads Config from the environment and an optional .env file.
func LoadConfig(opts ...config.Option) (Config, error) {
	var cfg Config
	if err := config.Load(&cfg, opts...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration can drive the service.
func (c Config) Validate() error {
	if c.Issuer == "" {
		return ErrMissingIssuer
	}
	if c.SecretLength < minSecretLength {
		return ErrInvalidSecretLength
	}
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if c.MaxFailedAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	if c.LockoutDuration <= 0 {
		return ErrInvalidLockoutDuration
	}
	if c.BackupCodeCount <= 0 {
		return ErrInvalidBackupCodeCount
	}
	return nil
}

// Params converts the code settings into engine parameters.
func (c Config) Params() totp.Params {
	return totp.Params{
		Digits: c.Digits,
		Period: c.Period,
		Skew:   c.DriftSteps,
	}
}

// Lockout converts the lockout settings into a policy.
func (c Config) Lockout() LockoutPolicy {
	return LockoutPolicy{
		MaxFailedAttempts: c.MaxFailedAttempts,
		Duration:          c.LockoutDuration,
	}
}

// Cipher builds the secret cipher from EncryptionKey. It returns (nil, nil) when no
// key is configured.
func (c Config) Cipher() (*totp.Cipher, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	key, err := totp.ParseEncryptionKey(c.EncryptionKey)
	if err != nil {
		return nil, err
	}
	return totp.NewCipher(key)
}
