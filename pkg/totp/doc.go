// Package totp implements the cryptographic building blocks of time-based one-time
// password (RFC 6238) authentication: secret generation and Base32 encoding, provisioning
// URI construction, HOTP/TOTP code calculation and verification, single-use backup codes
// and AES-256-GCM encryption of secrets at rest.
//
// The package is pure computation. It keeps no state between calls and never remembers
// which time step or backup code was used; enrollment records, lockout and single-use
// bookkeeping live in package mfa.
//
// # Architecture
//
//   - secret   – GenerateSecret, EncodeSecret/DecodeSecret, FormatForManualEntry and
//     BuildProvisioningURI in secret.go.
//
//   - engine   – ComputeCode (HOTP with dynamic truncation), CurrentTimeStep and the
//     Verify family in otp.go. Submitted codes are compared in constant time against every
//     step of the drift window.
//
//   - recovery – GenerateBackupCodes, NormalizeBackupCode and HashBackupCode in recovery.go.
//     Codes look like "3f9a1-0c27e" and carry 40 bits of entropy; only SHA-256 hashes are
//     meant to be stored.
//
//   - crypto   – Cipher in aes256.go derives an AES-256 key from a master key with HKDF and
//     binds every ciphertext to its owner through GCM associated data.
//
// # Usage
//
//	secret, _ := totp.GenerateSecret(totp.DefaultSecretLength)
//	encoded := totp.EncodeSecret(secret)
//
//	uri, _ := totp.BuildProvisioningURI(totp.URIParams{
//	    Secret:      encoded,
//	    AccountName: "alice@example.com",
//	    Issuer:      "Acme",
//	})
//	fmt.Println(uri)
//	fmt.Println(totp.FormatForManualEntry(encoded))
//
//	ok := totp.Verify(secret, "123456", totp.DefaultParams())
//
// # Error Handling
//
// Operations that can fail return package level sentinels such as ErrInvalidSecret or
// ErrFailedToEncryptSecret, usually joined with the underlying cause via errors.Join.
// Inspect them with errors.Is.
//
// # See Also
//
//   - RFC 4226 – HMAC-Based One-Time Password (HOTP) Algorithm
//   - RFC 6238 – Time-Based One-Time Password (TOTP) Algorithm
package totp
