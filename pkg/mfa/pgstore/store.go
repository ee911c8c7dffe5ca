// Package pgstore keeps MFA enrollment records in PostgreSQL, one row per user
// and method in the mfa_enrollments table.
package pgstore

import (
	"context"
	"embed"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/twofa/pkg/mfa"
	"github.com/dmitrymomot/twofa/pkg/pg"
)

// Migrations holds the goose migrations for mfa_enrollments.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations that holds the SQL files.
const MigrationsDir = "migrations"

// ErrEnrollmentIDConflict is returned when a record's id already belongs to a
// different user or method.
var ErrEnrollmentIDConflict = errors.New("pgstore: enrollment id is already in use")

// DB is the subset of *pgxpool.Pool and pgx.Tx the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements mfa.Store on PostgreSQL.
type Store struct {
	db DB
}

var _ mfa.Store = (*Store)(nil)

// New creates a Store. Run Migrate first so the table exists.
func New(db DB) *Store {
	if db == nil {
		panic("pgstore: db cannot be nil")
	}
	return &Store{db: db}
}

// Migrate applies the embedded migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error {
	return pg.Migrate(ctx, pool, cfg, Migrations, MigrationsDir, log)
}

const selectQuery = `
	SELECT id, user_id, method, secret, enabled, enabled_at, failed_attempts, lockout_until,
	       backup_code_hashes, used_backup_code_hashes, last_verified_at, last_used_step,
	       created_at, updated_at
	FROM mfa_enrollments
	WHERE user_id = $1 AND method = $2`

const upsertQuery = `
	INSERT INTO mfa_enrollments (
		id, user_id, method, secret, enabled, enabled_at, failed_attempts, lockout_until,
		backup_code_hashes, used_backup_code_hashes, last_verified_at, last_used_step,
		created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (user_id, method) DO UPDATE SET
		id                      = EXCLUDED.id,
		secret                  = EXCLUDED.secret,
		enabled                 = EXCLUDED.enabled,
		enabled_at              = EXCLUDED.enabled_at,
		failed_attempts         = EXCLUDED.failed_attempts,
		lockout_until           = EXCLUDED.lockout_until,
		backup_code_hashes      = EXCLUDED.backup_code_hashes,
		used_backup_code_hashes = EXCLUDED.used_backup_code_hashes,
		last_verified_at        = EXCLUDED.last_verified_at,
		last_used_step          = EXCLUDED.last_used_step,
		created_at              = EXCLUDED.created_at,
		updated_at              = EXCLUDED.updated_at`

const deleteQuery = `DELETE FROM mfa_enrollments WHERE user_id = $1 AND method = $2`

func (s *Store) Get(ctx context.Context, userID string) (*mfa.EnrollmentState, error) {
	var (
		state  mfa.EnrollmentState
		method string
	)
	err := s.db.QueryRow(ctx, selectQuery, userID, string(mfa.MethodTOTP)).Scan(
		&state.ID,
		&state.UserID,
		&method,
		&state.Secret,
		&state.Enabled,
		&state.EnabledAt,
		&state.FailedAttempts,
		&state.LockoutUntil,
		&state.BackupCodeHashes,
		&state.UsedBackupCodeHashes,
		&state.LastVerifiedAt,
		&state.LastUsedStep,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if pg.IsNotFoundError(err) {
		return nil, mfa.ErrStateNotFound
	}
	if err != nil {
		return nil, err
	}
	state.Method = mfa.Method(method)
	if state.BackupCodeHashes == nil {
		state.BackupCodeHashes = []string{}
	}
	if state.UsedBackupCodeHashes == nil {
		state.UsedBackupCodeHashes = []string{}
	}
	return &state, nil
}

func (s *Store) Save(ctx context.Context, state *mfa.EnrollmentState) error {
	if state == nil {
		return mfa.ErrNilState
	}
	if state.UserID == "" {
		return mfa.ErrEmptyUserID
	}

	method := state.Method
	if method == "" {
		method = mfa.MethodTOTP
	}

	_, err := s.db.Exec(ctx, upsertQuery,
		state.ID,
		state.UserID,
		string(method),
		state.Secret,
		state.Enabled,
		state.EnabledAt,
		state.FailedAttempts,
		state.LockoutUntil,
		textArray(state.BackupCodeHashes),
		textArray(state.UsedBackupCodeHashes),
		state.LastVerifiedAt,
		state.LastUsedStep,
		state.CreatedAt,
		state.UpdatedAt,
	)
	if pg.IsDuplicateKeyError(err) {
		return errors.Join(ErrEnrollmentIDConflict, err)
	}
	return err
}

func (s *Store) Delete(ctx context.Context, userID string) (bool, error) {
	tag, err := s.db.Exec(ctx, deleteQuery, userID, string(mfa.MethodTOTP))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// textArray keeps NOT NULL array columns from receiving NULL for nil slices.
func textArray(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
