package mfa

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/twofa/pkg/logger"
	"github.com/dmitrymomot/twofa/pkg/qrcode"
	"github.com/dmitrymomot/twofa/pkg/totp"
)

// Service runs the enrollment state machine:
//
//	Unenrolled --Setup--> PendingConfirmation --Verify--> Active --Disable--> Unenrolled
//
// Each operation is one read-modify-write of a single user's record and holds that
// user's lock for its whole duration.
type Service struct {
	store   Store
	cfg     Config
	params  totp.Params
	lockout LockoutPolicy
	qrSize  int
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
	locks   *keyedMutex
}

// NewService creates the MFA service.
// Panics on a nil store or invalid configuration: both are wiring mistakes.
func NewService(store Store, cfg Config, opts ...Option) *Service {
	if store == nil {
		panic("mfa: store cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		panic("mfa: invalid config: " + err.Error())
	}

	s := &Service{
		store:   store,
		cfg:     cfg,
		params:  cfg.Params(),
		lockout: cfg.Lockout(),
		qrSize:  cfg.QRCodeSize,
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
		locks:   newKeyedMutex(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With(logger.Component("mfa"))
	return s
}

// Setup starts enrollment. It replaces any unconfirmed enrollment and fails with
// KindAlreadyEnabled when an active one exists. The returned secret and backup codes
// are not retrievable afterwards.
func (s *Service) Setup(ctx context.Context, userID, displayName string) SetupResult {
	unlock := s.locks.Lock(userID)
	defer unlock()

	log := s.logger.With(logger.UserID(userID))

	existing, err := s.store.Get(ctx, userID)
	switch {
	case err == nil && existing.Enabled:
		return SetupResult{Result: failed(KindAlreadyEnabled)}
	case err != nil && !errors.Is(err, ErrStateNotFound):
		log.ErrorContext(ctx, "failed to load enrollment state", logger.Error(err))
		return SetupResult{Result: failed(KindStorageError)}
	}

	secret, err := totp.GenerateSecret(s.cfg.SecretLength)
	if err != nil {
		log.ErrorContext(ctx, "failed to generate secret", logger.Error(err))
		return SetupResult{Result: failed(KindUnknown)}
	}

	codes, err := totp.GenerateBackupCodes(s.cfg.BackupCodeCount)
	if err != nil {
		log.ErrorContext(ctx, "failed to generate backup codes", logger.Error(err))
		return SetupResult{Result: failed(KindUnknown)}
	}

	account := displayName
	if account == "" {
		account = userID
	}

	encoded := totp.EncodeSecret(secret)
	uri, err := totp.BuildProvisioningURI(totp.URIParams{
		Secret:      encoded,
		AccountName: account,
		Issuer:      s.cfg.Issuer,
		Digits:      s.params.Digits,
		Period:      s.params.Period,
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to build provisioning uri", logger.Error(err))
		return SetupResult{Result: failed(KindUnknown)}
	}

	var qr string
	if s.qrSize > 0 {
		qr, err = qrcode.GenerateBase64Image(uri, s.qrSize)
		if err != nil {
			// The URI and manual key are still usable without the image.
			log.WarnContext(ctx, "failed to render provisioning qr code", logger.Error(err))
			qr = ""
		}
	}

	now := s.now()
	state := newEnrollmentState(userID, secret, totp.HashBackupCodes(codes), now)
	if existing != nil {
		state.ID = existing.ID
		state.CreatedAt = existing.CreatedAt
	}

	if err := s.store.Save(ctx, state); err != nil {
		log.ErrorContext(ctx, "failed to save enrollment state", logger.Error(err))
		return SetupResult{Result: failed(KindStorageError)}
	}

	s.metrics.observeEnrollment(EventSetup)
	log.InfoContext(ctx, "two-factor enrollment started", logger.Event(EventSetup))

	return SetupResult{
		Result:          succeeded(),
		Secret:          encoded,
		ManualEntryKey:  totp.FormatForManualEntry(encoded),
		ProvisioningURI: uri,
		QRCode:          qr,
		BackupCodes:     codes,
	}
}

// Verify checks a one-time code. The first successful check confirms a pending
// enrollment and makes it active.
func (s *Service) Verify(ctx context.Context, userID, code string) VerifyResult {
	unlock := s.locks.Lock(userID)
	defer unlock()

	res := s.verifyCode(ctx, userID, code)
	s.metrics.observeVerification(metricMethodTOTP, res.Kind)
	return res
}

func (s *Service) verifyCode(ctx context.Context, userID, code string) VerifyResult {
	state, res := s.load(ctx, userID)
	if state == nil {
		return VerifyResult{Result: res}
	}

	now := s.now()
	if locked, ok := s.checkLockout(state, now); ok {
		return locked
	}

	step, valid := totp.VerifyStep(state.Secret, code, now, s.params)
	if valid && s.cfg.PreventReplay && state.LastUsedStep != 0 && step <= state.LastUsedStep {
		s.logger.WarnContext(ctx, "rejected replayed code", logger.UserID(userID))
		valid = false
	}
	if !valid {
		return s.recordFailure(ctx, state, now, KindInvalidCode)
	}

	activated := !state.Enabled
	if activated {
		state.Enabled = true
		state.EnabledAt = &now
	}
	state.LastUsedStep = step
	s.lockout.OnSuccess(state, now)
	state.UpdatedAt = now

	if err := s.store.Save(ctx, state); err != nil {
		s.logger.ErrorContext(ctx, "failed to save enrollment state", logger.UserID(userID), logger.Error(err))
		return VerifyResult{Result: failed(KindStorageError)}
	}

	if activated {
		s.metrics.observeEnrollment(EventActivated)
		s.logger.InfoContext(ctx, "two-factor authentication activated",
			logger.UserID(userID), logger.Event(EventActivated))
	}

	return VerifyResult{
		Result:               succeeded(),
		Activated:            activated,
		RemainingBackupCodes: state.RemainingBackupCodes(),
	}
}

// Disable deletes the enrollment entirely. Re-enrolling requires a fresh Setup.
func (s *Service) Disable(ctx context.Context, userID string) DisableResult {
	unlock := s.locks.Lock(userID)
	defer unlock()

	deleted, err := s.store.Delete(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to delete enrollment state", logger.UserID(userID), logger.Error(err))
		return DisableResult{Result: failed(KindStorageError)}
	}

	if deleted {
		s.metrics.observeEnrollment(EventDisabled)
		s.logger.InfoContext(ctx, "two-factor authentication disabled",
			logger.UserID(userID), logger.Event(EventDisabled))
	}

	return DisableResult{Result: succeeded(), Deleted: deleted}
}

// GenerateBackupCodes replaces every backup code, used or not, with count new ones.
// Non-positive counts use Config.BackupCodeCount. Works for pending and active enrollments.
func (s *Service) GenerateBackupCodes(ctx context.Context, userID string, count int) BackupCodesResult {
	unlock := s.locks.Lock(userID)
	defer unlock()

	state, res := s.load(ctx, userID)
	if state == nil {
		return BackupCodesResult{Result: res}
	}

	if count <= 0 {
		count = s.cfg.BackupCodeCount
	}

	codes, err := totp.GenerateBackupCodes(count)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to generate backup codes", logger.UserID(userID), logger.Error(err))
		return BackupCodesResult{Result: failed(KindUnknown)}
	}

	state.BackupCodeHashes = totp.HashBackupCodes(codes)
	state.UsedBackupCodeHashes = []string{}
	state.UpdatedAt = s.now()

	if err := s.store.Save(ctx, state); err != nil {
		s.logger.ErrorContext(ctx, "failed to save enrollment state", logger.UserID(userID), logger.Error(err))
		return BackupCodesResult{Result: failed(KindStorageError)}
	}

	s.metrics.observeEnrollment(EventBackupCodesRegenerated)
	s.logger.InfoContext(ctx, "backup codes regenerated",
		logger.UserID(userID), logger.Event(EventBackupCodesRegenerated), slog.Int("count", count))

	return BackupCodesResult{Result: succeeded(), Codes: codes}
}

// VerifyBackupCode consumes a backup code. Only active enrollments accept backup codes,
// and lockout applies exactly as for Verify.
func (s *Service) VerifyBackupCode(ctx context.Context, userID, code string) VerifyResult {
	unlock := s.locks.Lock(userID)
	defer unlock()

	res := s.verifyBackupCode(ctx, userID, code)
	s.metrics.observeVerification(metricMethodBackupCode, res.Kind)
	return res
}

func (s *Service) verifyBackupCode(ctx context.Context, userID, code string) VerifyResult {
	state, res := s.load(ctx, userID)
	if state == nil {
		return VerifyResult{Result: res}
	}
	if !state.Enabled {
		return VerifyResult{Result: failed(KindNotEnabled)}
	}

	now := s.now()
	if locked, ok := s.checkLockout(state, now); ok {
		return locked
	}

	if err := ConsumeBackupCode(state, code); err != nil {
		return s.recordFailure(ctx, state, now, KindOf(err))
	}

	s.lockout.OnSuccess(state, now)
	state.UpdatedAt = now

	if err := s.store.Save(ctx, state); err != nil {
		s.logger.ErrorContext(ctx, "failed to save enrollment state", logger.UserID(userID), logger.Error(err))
		return VerifyResult{Result: failed(KindStorageError)}
	}

	remaining := state.RemainingBackupCodes()
	s.logger.InfoContext(ctx, "backup code used",
		logger.UserID(userID), slog.Int("remaining", remaining))

	return VerifyResult{Result: succeeded(), RemainingBackupCodes: remaining}
}

// Status returns a read-only view of the enrollment. Users without a record are
// reported as StatusUnenrolled, not as an error. An elapsed lockout is shown as
// cleared but not written back.
func (s *Service) Status(ctx context.Context, userID string) StatusResult {
	unlock := s.locks.Lock(userID)
	defer unlock()

	state, err := s.store.Get(ctx, userID)
	if errors.Is(err, ErrStateNotFound) {
		return StatusResult{Result: succeeded(), Status: StatusUnenrolled}
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load enrollment state", logger.UserID(userID), logger.Error(err))
		return StatusResult{Result: failed(KindStorageError)}
	}

	now := s.now()
	s.lockout.ExpireIfElapsed(state, now)

	return StatusResult{
		Result:               succeeded(),
		Status:               state.Status(),
		EnabledAt:            state.EnabledAt,
		LastVerifiedAt:       state.LastVerifiedAt,
		FailedAttempts:       state.FailedAttempts,
		IsLockedOut:          s.lockout.IsLockedOut(state, now),
		LockoutUntil:         state.LockoutUntil,
		RemainingBackupCodes: state.RemainingBackupCodes(),
	}
}

// load fetches the record, mapping a missing one to KindNotEnabled.
func (s *Service) load(ctx context.Context, userID string) (*EnrollmentState, Result) {
	state, err := s.store.Get(ctx, userID)
	if err == nil {
		return state, succeeded()
	}
	if errors.Is(err, ErrStateNotFound) {
		return nil, failed(KindNotEnabled)
	}
	s.logger.ErrorContext(ctx, "failed to load enrollment state", logger.UserID(userID), logger.Error(err))
	return nil, failed(KindStorageError)
}

// checkLockout applies lazy expiry and reports an active lockout. An expired lockout
// is only cleared in memory here; every path that continues persists the record.
func (s *Service) checkLockout(state *EnrollmentState, now time.Time) (VerifyResult, bool) {
	s.lockout.ExpireIfElapsed(state, now)
	if !s.lockout.IsLockedOut(state, now) {
		return VerifyResult{}, false
	}
	return VerifyResult{
		Result:       failed(KindLockedOut),
		IsLockedOut:  true,
		LockoutUntil: cloneTime(state.LockoutUntil),
	}, true
}

// recordFailure counts a failed attempt, persists it and reports either the original
// failure kind or the lockout it triggered.
func (s *Service) recordFailure(ctx context.Context, state *EnrollmentState, now time.Time, kind Kind) VerifyResult {
	outcome := s.lockout.OnFailure(state, now)
	state.UpdatedAt = now

	if err := s.store.Save(ctx, state); err != nil {
		s.logger.ErrorContext(ctx, "failed to save enrollment state", logger.UserID(state.UserID), logger.Error(err))
		return VerifyResult{Result: failed(KindStorageError)}
	}

	if outcome.LockedOut() {
		s.metrics.observeLockout()
		s.logger.WarnContext(ctx, "verification locked out",
			logger.UserID(state.UserID),
			slog.Int("failed_attempts", state.FailedAttempts),
			slog.Time("lockout_until", *outcome.LockoutUntil),
		)
		return VerifyResult{
			Result:       failed(KindLockedOut),
			IsLockedOut:  true,
			LockoutUntil: outcome.LockoutUntil,
		}
	}

	s.logger.WarnContext(ctx, "verification failed",
		logger.UserID(state.UserID), logger.Outcome(string(kind)))

	return VerifyResult{
		Result:               failed(kind),
		RemainingAttempts:    outcome.RemainingAttempts,
		RemainingBackupCodes: state.RemainingBackupCodes(),
	}
}
