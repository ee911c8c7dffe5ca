package totp_test

import (
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp"
	pquernatotp "github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofa/pkg/totp"
)

// rfcSecret is the shared secret used by the RFC 4226 and RFC 6238 test vectors.
var rfcSecret = []byte("12345678901234567890")

func TestComputeCode_RFC4226Vectors(t *testing.T) {
	t.Parallel()
	want := []string{
		"755224", "287082", "359152", "969429", "338314",
		"254676", "287922", "162583", "399871", "520489",
	}
	for counter, code := range want {
		assert.Equal(t, code, totp.ComputeCode(rfcSecret, int64(counter), 6), "counter %d", counter)
	}
}

func TestComputeCode_RFC6238Vectors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		unix int64
		want string
	}{
		{unix: 59, want: "94287082"},
		{unix: 1111111109, want: "07081804"},
		{unix: 1111111111, want: "14050471"},
		{unix: 1234567890, want: "89005924"},
		{unix: 2000000000, want: "69279037"},
		{unix: 20000000000, want: "65353130"},
	}

	for _, tt := range tests {
		step := totp.CurrentTimeStep(tt.unix, 30)
		assert.Equal(t, tt.want, totp.ComputeCode(rfcSecret, step, 8), "unix %d", tt.unix)
	}
}

func TestComputeCode_IsPureAndFixedWidth(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecret(20)
	require.NoError(t, err)

	for _, digits := range []int{6, 7, 8} {
		pattern := regexp.MustCompile(fmt.Sprintf(`^[0-9]{%d}$`, digits))
		for step := int64(0); step < 200; step++ {
			first := totp.ComputeCode(secret, step, digits)
			second := totp.ComputeCode(secret, step, digits)
			assert.Equal(t, first, second)
			assert.Regexp(t, pattern, first)
		}
	}
}

func TestComputeCode_LongCodes(t *testing.T) {
	t.Parallel()
	now := time.Unix(1_700_000_000, 0)

	for _, digits := range []int{9, 10} {
		pattern := regexp.MustCompile(fmt.Sprintf(`^[0-9]{%d}$`, digits))
		code := totp.ComputeCode(rfcSecret, 1, digits)
		assert.Regexp(t, pattern, code)
		assert.True(t, strings.HasSuffix(code, "287082"), "code %q keeps the 6-digit suffix", code)

		params := totp.Params{Digits: digits, Period: 30, Skew: 1}
		generated := totp.GenerateCode(rfcSecret, now, params)
		assert.Len(t, generated, digits)
		assert.True(t, totp.VerifyAt(rfcSecret, generated, now, params))
	}
}

func TestComputeCode_OutOfRangeDigitsUseDefault(t *testing.T) {
	t.Parallel()
	now := time.Unix(1_700_000_000, 0)

	for _, digits := range []int{-1, 11} {
		assert.Equal(t, "287082", totp.ComputeCode(rfcSecret, 1, digits))

		params := totp.Params{Digits: digits, Period: 30, Skew: 1}
		generated := totp.GenerateCode(rfcSecret, now, params)
		assert.Len(t, generated, totp.DefaultDigits)
		assert.True(t, totp.VerifyAt(rfcSecret, generated, now, params))
	}
}

func TestComputeCode_MatchesPquernaOTP(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecret(20)
	require.NoError(t, err)
	encoded := totp.EncodeSecret(secret)

	base := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
	for i := range 20 {
		at := base.Add(time.Duration(i) * 37 * time.Second)
		want, err := pquernatotp.GenerateCodeCustom(encoded, at, pquernatotp.ValidateOpts{
			Period:    30,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		require.NoError(t, err)
		assert.Equal(t, want, totp.GenerateCode(secret, at, totp.DefaultParams()))
	}
}

func TestCurrentTimeStep(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		unix   int64
		period int
		want   int64
	}{
		{name: "epoch", unix: 0, period: 30, want: 0},
		{name: "end of first step", unix: 29, period: 30, want: 0},
		{name: "start of second step", unix: 30, period: 30, want: 1},
		{name: "custom period", unix: 125, period: 60, want: 2},
		{name: "negative floors", unix: -1, period: 30, want: -1},
		{name: "zero period uses default", unix: 90, period: 0, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, totp.CurrentTimeStep(tt.unix, tt.period))
		})
	}
}

func TestVerifyAt_DriftBoundary(t *testing.T) {
	t.Parallel()
	secret := rfcSecret
	now := time.Unix(1_700_000_000, 0)
	params := totp.DefaultParams()
	current := totp.CurrentTimeStep(now.Unix(), params.Period)

	tests := []struct {
		name   string
		offset int64
		want   bool
	}{
		{name: "current step", offset: 0, want: true},
		{name: "previous step", offset: -1, want: true},
		{name: "next step", offset: 1, want: true},
		{name: "beyond drift ahead", offset: 2, want: false},
		{name: "beyond drift behind", offset: -2, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code := totp.ComputeCode(secret, current+tt.offset, params.Digits)
			assert.Equal(t, tt.want, totp.VerifyAt(secret, code, now, params))
		})
	}
}

func TestVerifyAt_WiderDrift(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecret(20)
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	params := totp.Params{Digits: 6, Period: 30, Skew: 3}
	current := totp.CurrentTimeStep(now.Unix(), params.Period)

	assert.True(t, totp.VerifyAt(secret, totp.ComputeCode(secret, current+3, 6), now, params))
	assert.True(t, totp.VerifyAt(secret, totp.ComputeCode(secret, current-3, 6), now, params))

	step, ok := totp.VerifyStep(secret, totp.ComputeCode(secret, current+2, 6), now, params)
	require.True(t, ok)
	assert.Equal(t, current+2, step)
}

func TestVerifyAt_RejectsMalformedCodes(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecret(20)
	require.NoError(t, err)
	now := time.Now()
	valid := totp.GenerateCode(secret, now, totp.DefaultParams())

	tests := []struct {
		name string
		code string
	}{
		{name: "empty", code: ""},
		{name: "too short", code: valid[:5]},
		{name: "too long", code: valid + "0"},
		{name: "letters", code: "12345a"},
		{name: "padded with spaces", code: " " + valid[:5]},
		{name: "unicode digits", code: "١٢٣٤٥٦"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.False(t, totp.VerifyAt(secret, tt.code, now, totp.DefaultParams()))
		})
	}
}

func TestVerify_CurrentCode(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecret(20)
	require.NoError(t, err)

	code := totp.GenerateCode(secret, time.Now(), totp.DefaultParams())
	assert.True(t, totp.Verify(secret, code, totp.DefaultParams()))
}

func TestParams(t *testing.T) {
	t.Parallel()

	assert.Equal(t, totp.Params{Digits: 6, Period: 30, Skew: 1}, totp.DefaultParams())
	assert.Equal(t, totp.Params{Digits: 6, Period: 30, Skew: 1}, totp.Params{Skew: -1}.Defaults())
	assert.Equal(t, totp.Params{Digits: 8, Period: 60, Skew: 0}, totp.Params{Digits: 8, Period: 60}.Defaults())

	assert.NoError(t, totp.DefaultParams().Validate())
	assert.ErrorIs(t, totp.Params{Digits: 5, Period: 30}.Validate(), totp.ErrInvalidDigits)
	assert.ErrorIs(t, totp.Params{Digits: 9, Period: 30}.Validate(), totp.ErrInvalidDigits)
	assert.ErrorIs(t, totp.Params{Digits: 6, Period: 0}.Validate(), totp.ErrInvalidPeriod)
	assert.ErrorIs(t, totp.Params{Digits: 6, Period: 30, Skew: -1}.Validate(), totp.ErrInvalidSkew)
}

func BenchmarkVerifyAt(b *testing.B) {
	secret := rfcSecret
	now := time.Unix(1_700_000_000, 0)
	code := totp.GenerateCode(secret, now, totp.DefaultParams())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		totp.VerifyAt(secret, code, now, totp.DefaultParams())
	}
}
