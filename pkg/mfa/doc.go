// Package mfa manages per-user TOTP enrollment: setup, confirmation, code and backup
// code verification, lockout after repeated failures, and removal.
//
// A Service drives each user's record through
//
//	unenrolled -> pending_confirmation -> active -> unenrolled
//
// Setup creates a pending record and returns the secret, provisioning URI, optional QR
// code and plaintext backup codes exactly once. The first successful Verify activates
// the enrollment; later calls are ordinary second-factor checks. Disable deletes the
// record.
//
// # Results
//
// Operations never return Go errors for expected outcomes. Each result embeds Result,
// whose Kind is one of the Kind constants and whose Err method returns the matching
// sentinel:
//
//	res := svc.Verify(ctx, userID, code)
//	switch {
//	case res.Success:
//	    // proceed
//	case errors.Is(res.Err(), mfa.ErrLockedOut):
//	    // tell the user when to retry: res.LockoutUntil
//	default:
//	    // res.RemainingAttempts
//	}
//
// Storage failures are logged with their cause and reported as KindStorageError with a
// generic message.
//
// # Storage
//
// Records live behind the Store interface. MemoryStore is for tests and single-process
// tools; redisstore, pgstore and mongostore persist to external backends. Wrap any of
// them in EncryptedStore to keep secrets encrypted at rest.
//
// # Concurrency
//
// Service serializes operations on the same user id within the process. Running several
// processes against one backend needs external coordination.
package mfa
