package totp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/binary"
	"strconv"
	"strings"
	"time"
)

// pow10 holds 10^n for every digit count a 31-bit truncated value can fill.
var pow10 = [...]uint64{1, 10, 100, 1000, 10000, 100000, 1000000, 10000000, 100000000, 1000000000, 10000000000}

// ComputeCode implements the RFC 4226 HOTP algorithm for the given time step.
// The result is exactly digits characters long, left-padded with zeros. Digit
// counts outside 1..10 fall back to DefaultDigits.
func ComputeCode(secret []byte, step int64, digits int) string {
	digits = codeLength(digits)

	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(step))

	mac := hmac.New(sha1.New, secret)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	// Dynamic truncation (RFC 4226): use last 4 bits as offset into hash
	offset := sum[len(sum)-1] & 0x0f
	// Extract 31-bit value (clear MSB to ensure positive number)
	value := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	code := strconv.FormatUint(uint64(value)%pow10[digits], 10)
	if len(code) < digits {
		code = strings.Repeat("0", digits-len(code)) + code
	}
	return code
}

// CurrentTimeStep returns floor(unix / period). Negative timestamps round toward
// negative infinity so every step covers exactly period seconds.
func CurrentTimeStep(unix int64, period int) int64 {
	if period <= 0 {
		period = DefaultPeriod
	}
	p := int64(period)
	step := unix / p
	if unix%p != 0 && unix < 0 {
		step--
	}
	return step
}

// GenerateCode returns the code for the time step containing t.
func GenerateCode(secret []byte, t time.Time, params Params) string {
	params = params.Defaults()
	return ComputeCode(secret, CurrentTimeStep(t.Unix(), params.Period), params.Digits)
}

// Verify checks code against the current time using the window described by params.
func Verify(secret []byte, code string, params Params) bool {
	return VerifyAt(secret, code, time.Now(), params)
}

// VerifyAt checks code against the time steps surrounding t.
func VerifyAt(secret []byte, code string, t time.Time, params Params) bool {
	_, ok := VerifyStep(secret, code, t, params)
	return ok
}

// VerifyStep checks code against every step in [current-skew, current+skew] and
// returns the step that matched. The engine does not remember matched steps;
// callers that need replay protection must persist the step themselves.
func VerifyStep(secret []byte, code string, t time.Time, params Params) (int64, bool) {
	params = params.Defaults()
	if !isNumeric(code, codeLength(params.Digits)) {
		return 0, false
	}

	current := CurrentTimeStep(t.Unix(), params.Period)
	for step := current - int64(params.Skew); step <= current+int64(params.Skew); step++ {
		expected := ComputeCode(secret, step, params.Digits)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 {
			return step, true
		}
	}
	return 0, false
}

func isNumeric(code string, digits int) bool {
	if len(code) != digits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// codeLength maps a requested digit count to the length ComputeCode produces.
func codeLength(digits int) int {
	if digits < 1 || digits >= len(pow10) {
		return DefaultDigits
	}
	return digits
}
