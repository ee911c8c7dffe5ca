package mfa

import (
	"crypto/subtle"
	"slices"

	"github.com/dmitrymomot/twofa/pkg/totp"
)

// ConsumeBackupCode marks code as used on state. It returns ErrBackupCodeAlreadyUsed
// for a code consumed earlier and ErrInvalidCode for anything else that does not match.
// On success the hash moves from the unused set to the used set.
func ConsumeBackupCode(state *EnrollmentState, code string) error {
	hash := totp.HashBackupCode(totp.NormalizeBackupCode(code))

	if indexOfHash(state.UsedBackupCodeHashes, hash) >= 0 {
		return ErrBackupCodeAlreadyUsed
	}

	i := indexOfHash(state.BackupCodeHashes, hash)
	if i < 0 {
		return ErrInvalidCode
	}

	state.BackupCodeHashes = slices.Delete(state.BackupCodeHashes, i, i+1)
	state.UsedBackupCodeHashes = append(state.UsedBackupCodeHashes, hash)
	return nil
}

// indexOfHash scans every element with a constant-time comparison so the position
// of a match does not leak through timing.
func indexOfHash(hashes []string, hash string) int {
	found := -1
	for i, h := range hashes {
		if subtle.ConstantTimeCompare([]byte(h), []byte(hash)) == 1 && found < 0 {
			found = i
		}
	}
	return found
}
