package totp

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// manualEntryGroup is the number of characters between spaces in a manual-entry key.
const manualEntryGroup = 4

var (
	// ValidateSecretKeyRegex ensures Base32 format: uppercase A-Z, digits 2-7, optional padding
	ValidateSecretKeyRegex = regexp.MustCompile("^[A-Z2-7]+=*$")

	secretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// URIParams contains the parameters for provisioning URI generation.
type URIParams struct {
	Secret      string // Base32-encoded TOTP secret key (required)
	AccountName string // User identifier like email (required)
	Issuer      string // Service name displayed in authenticator apps (required)
	Digits      int    // Number of digits in generated codes (optional, defaults to 6)
	Period      int    // Code validity period in seconds (optional, defaults to 30)
}

// Validate ensures all required URI parameters are present and valid.
func (p URIParams) Validate() error {
	if p.Secret == "" {
		return ErrMissingSecret
	}
	if !ValidateSecretKeyRegex.MatchString(p.Secret) {
		return ErrInvalidSecret
	}
	if p.AccountName == "" {
		return ErrMissingAccountName
	}
	if p.Issuer == "" {
		return ErrMissingIssuer
	}
	return nil
}

// GenerateSecret returns length cryptographically random bytes.
// Non-positive lengths fall back to DefaultSecretLength.
func GenerateSecret(length int) ([]byte, error) {
	if length <= 0 {
		length = DefaultSecretLength
	}
	secret := make([]byte, length)
	if _, err := rand.Read(secret); err != nil {
		return nil, errors.Join(ErrFailedToGenerateSecretKey, err)
	}
	return secret, nil
}

// EncodeSecret encodes raw secret bytes as unpadded Base32.
func EncodeSecret(secret []byte) string {
	return secretEncoding.EncodeToString(secret)
}

// DecodeSecret is the inverse of EncodeSecret. It accepts lowercase input,
// manual-entry spacing and trailing padding.
func DecodeSecret(encoded string) ([]byte, error) {
	encoded = strings.ToUpper(StripManualEntry(strings.TrimSpace(encoded)))
	if !ValidateSecretKeyRegex.MatchString(encoded) {
		return nil, ErrInvalidSecret
	}
	encoded = strings.TrimRight(encoded, "=")
	// Unpadded Base32 never ends on 1, 3 or 6 trailing characters.
	switch len(encoded) % 8 {
	case 1, 3, 6:
		return nil, ErrInvalidSecret
	}
	secret, err := secretEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Join(ErrInvalidSecret, err)
	}
	return secret, nil
}

// FormatForManualEntry splits an encoded secret into space separated groups of four
// characters so users can type it without losing their place.
func FormatForManualEntry(encoded string) string {
	if len(encoded) <= manualEntryGroup {
		return encoded
	}
	var b strings.Builder
	b.Grow(len(encoded) + len(encoded)/manualEntryGroup)
	for i := 0; i < len(encoded); i += manualEntryGroup {
		if i > 0 {
			b.WriteByte(' ')
		}
		end := min(i+manualEntryGroup, len(encoded))
		b.WriteString(encoded[i:end])
	}
	return b.String()
}

// StripManualEntry reverses FormatForManualEntry.
func StripManualEntry(formatted string) string {
	return strings.ReplaceAll(formatted, " ", "")
}

// BuildProvisioningURI creates the otpauth URI consumed by authenticator apps.
// The parameter order is fixed; issuer and account are percent-encoded, the secret is not.
// Format: https://github.com/google/google-authenticator/wiki/Key-Uri-Format
func BuildProvisioningURI(params URIParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}
	if params.Digits == 0 {
		params.Digits = DefaultDigits
	}
	if params.Period == 0 {
		params.Period = DefaultPeriod
	}

	issuer := escape(params.Issuer)

	var b strings.Builder
	b.WriteString("otpauth://totp/")
	b.WriteString(issuer)
	b.WriteByte(':')
	b.WriteString(escape(params.AccountName))
	b.WriteString("?secret=")
	b.WriteString(params.Secret)
	b.WriteString("&issuer=")
	b.WriteString(issuer)
	b.WriteString("&algorithm=")
	b.WriteString(DefaultAlgorithm)
	b.WriteString("&digits=")
	b.WriteString(strconv.Itoa(params.Digits))
	b.WriteString("&period=")
	b.WriteString(strconv.Itoa(params.Period))

	return b.String(), nil
}

// escape percent-encodes everything outside the RFC 3986 unreserved set.
// QueryEscape already does that except for spaces, which it turns into '+'.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
