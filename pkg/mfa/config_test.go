package mfa_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofa/pkg/config"
	"github.com/dmitrymomot/twofa/pkg/mfa"
	"github.com/dmitrymomot/twofa/pkg/totp"
)

func TestLoadConfig_MatchesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := mfa.LoadConfig(config.WithEnvironment(map[string]string{}))
	require.NoError(t, err)
	assert.Equal(t, mfa.DefaultConfig(), cfg)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Parallel()
	cfg, err := mfa.LoadConfig(config.WithEnvironment(map[string]string{
		"MFA_ISSUER":              "Acme",
		"MFA_CODE_DIGITS":         "8",
		"MFA_PERIOD":              "60",
		"MFA_DRIFT_STEPS":         "2",
		"MFA_MAX_FAILED_ATTEMPTS": "3",
		"MFA_LOCKOUT_DURATION":    "5m",
		"MFA_BACKUP_CODE_COUNT":   "8",
		"MFA_PREVENT_REPLAY":      "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, "Acme", cfg.Issuer)
	assert.Equal(t, totp.Params{Digits: 8, Period: 60, Skew: 2}, cfg.Params())
	assert.Equal(t, mfa.LockoutPolicy{MaxFailedAttempts: 3, Duration: 5 * time.Minute}, cfg.Lockout())
	assert.Equal(t, 8, cfg.BackupCodeCount)
	assert.True(t, cfg.PreventReplay)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Parallel()
	_, err := mfa.LoadConfig(config.WithEnvironment(map[string]string{"MFA_CODE_DIGITS": "4"}))
	require.ErrorIs(t, err, totp.ErrInvalidDigits)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*mfa.Config)
		want   error
	}{
		{name: "defaults", mutate: func(*mfa.Config) {}, want: nil},
		{name: "missing issuer", mutate: func(c *mfa.Config) { c.Issuer = "" }, want: mfa.ErrMissingIssuer},
		{name: "short secret", mutate: func(c *mfa.Config) { c.SecretLength = 10 }, want: mfa.ErrInvalidSecretLength},
		{name: "digits", mutate: func(c *mfa.Config) { c.Digits = 9 }, want: totp.ErrInvalidDigits},
		{name: "period", mutate: func(c *mfa.Config) { c.Period = 0 }, want: totp.ErrInvalidPeriod},
		{name: "drift", mutate: func(c *mfa.Config) { c.DriftSteps = -1 }, want: totp.ErrInvalidSkew},
		{name: "attempts", mutate: func(c *mfa.Config) { c.MaxFailedAttempts = 0 }, want: mfa.ErrInvalidMaxAttempts},
		{name: "lockout", mutate: func(c *mfa.Config) { c.LockoutDuration = 0 }, want: mfa.ErrInvalidLockoutDuration},
		{name: "backup codes", mutate: func(c *mfa.Config) { c.BackupCodeCount = 0 }, want: mfa.ErrInvalidBackupCodeCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := mfa.DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConfig_Cipher(t *testing.T) {
	t.Parallel()

	cfg := mfa.DefaultConfig()
	c, err := cfg.Cipher()
	require.NoError(t, err)
	assert.Nil(t, c, "no key configured")

	cfg.EncryptionKey, err = totp.GenerateEncodedEncryptionKey()
	require.NoError(t, err)
	c, err = cfg.Cipher()
	require.NoError(t, err)
	require.NotNil(t, c)

	cfg.EncryptionKey = "c2hvcnQ="
	_, err = cfg.Cipher()
	require.ErrorIs(t, err, totp.ErrInvalidEncryptionKeyLength)
	assert.Equal(t, 1, countInChain(err, totp.ErrFailedToLoadEncryptionKey))
}

// countInChain counts how many times target occurs in the tree of err.
func countInChain(err, target error) int {
	if err == nil {
		return 0
	}
	n := 0
	if err == target {
		n++
	}
	switch e := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			n += countInChain(inner, target)
		}
	case interface{ Unwrap() error }:
		n += countInChain(e.Unwrap(), target)
	}
	return n
}
