package totp

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// backupCodeBytes gives 40 bits of entropy per code.
const backupCodeBytes = 5

// BackupCodePattern matches codes produced by GenerateBackupCodes.
var BackupCodePattern = regexp.MustCompile(`^[0-9a-f]{5}-[0-9a-f]{5}$`)

// GenerateBackupCodes creates single-use backup codes formatted as xxxxx-xxxxx
// (10 lowercase hex characters split in half).
func GenerateBackupCodes(count int) ([]string, error) {
	if count < 1 {
		return nil, ErrInvalidRecoveryCodeCount
	}

	codes := make([]string, count)
	buf := make([]byte, backupCodeBytes)
	for i := range count {
		if _, err := rand.Read(buf); err != nil {
			return nil, errors.Join(ErrFailedToGenerateRecoveryCode, err)
		}
		code := hex.EncodeToString(buf)
		codes[i] = code[:5] + "-" + code[5:]
	}
	return codes, nil
}

// NormalizeBackupCode strips hyphens and whitespace and lowercases the code.
// Full-width characters typed through mobile input methods are folded to ASCII first.
func NormalizeBackupCode(code string) string {
	code = width.Fold.String(code)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.Is(unicode.Pd, r) {
			return -1
		}
		return unicode.ToLower(r)
	}, code)
}

// HashBackupCode returns base64(SHA-256(code)) for storage. The input is expected
// to be normalized already.
func HashBackupCode(normalized string) string {
	hash := sha256.Sum256([]byte(normalized))
	return base64.StdEncoding.EncodeToString(hash[:])
}

// HashBackupCodes normalizes and hashes every code.
func HashBackupCodes(codes []string) []string {
	hashes := make([]string, len(codes))
	for i, code := range codes {
		hashes[i] = HashBackupCode(NormalizeBackupCode(code))
	}
	return hashes
}
