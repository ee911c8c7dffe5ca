package totp

const (
	DefaultDigits       = 6      // Standard 6-digit TOTP codes
	DefaultPeriod       = 30     // 30-second validity window (RFC 6238 standard)
	DefaultSkew         = 1      // Accept one step before and after the current one
	DefaultAlgorithm    = "SHA1" // HMAC-SHA1 algorithm (RFC 6238 standard)
	DefaultSecretLength = 20     // 160-bit secret (RFC 4226 recommendation)

	minDigits = 6
	maxDigits = 8
)

// Params controls code generation and verification.
type Params struct {
	Digits int // Number of digits in generated codes
	Period int // Time-step length in seconds
	Skew   int // Allowed drift in time steps on either side of the current step
}

// Defaults returns a copy with RFC 6238 standard defaults applied to zero-valued fields.
// A zero Skew is meaningful, so only negative values are replaced.
func (p Params) Defaults() Params {
	if p.Digits == 0 {
		p.Digits = DefaultDigits
	}
	if p.Period == 0 {
		p.Period = DefaultPeriod
	}
	if p.Skew < 0 {
		p.Skew = DefaultSkew
	}
	return p
}

// Validate ensures the parameters can produce codes authenticator apps understand.
func (p Params) Validate() error {
	if p.Digits < minDigits || p.Digits > maxDigits {
		return ErrInvalidDigits
	}
	if p.Period <= 0 {
		return ErrInvalidPeriod
	}
	if p.Skew < 0 {
		return ErrInvalidSkew
	}
	return nil
}

// DefaultParams returns the parameters used by Google Authenticator and compatible apps.
func DefaultParams() Params {
	return Params{
		Digits: DefaultDigits,
		Period: DefaultPeriod,
		Skew:   DefaultSkew,
	}
}
