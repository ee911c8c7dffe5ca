package pgstore_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofa/pkg/mfa"
	"github.com/dmitrymomot/twofa/pkg/mfa/pgstore"
	"github.com/dmitrymomot/twofa/pkg/mfa/storetest"
	"github.com/dmitrymomot/twofa/pkg/pg"
)

func newPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_PG_CONN_URL")
	if url == "" {
		t.Skip("TEST_PG_CONN_URL is not set")
	}

	ctx := context.Background()
	cfg := pg.Config{ConnectionString: url, RetryAttempts: 1, MigrationsTable: "mfa_schema_migrations"}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pgstore.Migrate(ctx, pool, cfg, nil))
	return pool
}

func TestMigrations_Embedded(t *testing.T) {
	t.Parallel()
	entries, err := pgstore.Migrations.ReadDir(pgstore.MigrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "00001_create_mfa_enrollments.sql", entries[0].Name())
}

func TestStore(t *testing.T) {
	storetest.Run(t, pgstore.New(newPool(t)))
}

// failingDB rejects every statement with execErr.
type failingDB struct {
	execErr error
}

func (db failingDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, db.execErr
}

func (db failingDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func TestStore_SaveClassifiesErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	state := storetest.Sample("pgstore-classify-user")

	t.Run("unique violation", func(t *testing.T) {
		t.Parallel()
		err := pgstore.New(failingDB{execErr: &pgconn.PgError{Code: "23505"}}).Save(ctx, state)
		assert.ErrorIs(t, err, pgstore.ErrEnrollmentIDConflict)
	})

	t.Run("other failure", func(t *testing.T) {
		t.Parallel()
		cause := &pgconn.PgError{Code: "23503"}
		err := pgstore.New(failingDB{execErr: cause}).Save(ctx, state)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, pgstore.ErrEnrollmentIDConflict)
	})
}

func TestStore_IDConflict(t *testing.T) {
	pool := newPool(t)
	ctx := context.Background()
	store := pgstore.New(pool)

	owner := storetest.Sample("pgstore-owner-user")
	require.NoError(t, store.Save(ctx, owner))
	t.Cleanup(func() { _, _ = store.Delete(ctx, owner.UserID) })

	intruder := storetest.Sample("pgstore-intruder-user")
	intruder.ID = owner.ID
	assert.ErrorIs(t, store.Save(ctx, intruder), pgstore.ErrEnrollmentIDConflict)
}

func TestStore_Transaction(t *testing.T) {
	pool := newPool(t)
	ctx := context.Background()

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)

	state := storetest.Sample("pgstore-tx-user")
	require.NoError(t, pgstore.New(tx).Save(ctx, state))
	require.NoError(t, tx.Rollback(ctx))

	_, err = pgstore.New(pool).Get(ctx, state.UserID)
	require.ErrorIs(t, err, mfa.ErrStateNotFound)
}

func TestStore_EncryptedSecret(t *testing.T) {
	pool := newPool(t)
	ctx := context.Background()

	cfg := mfa.DefaultConfig()
	cfg.EncryptionKey = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="
	cipher, err := cfg.Cipher()
	require.NoError(t, err)

	store := mfa.NewEncryptedStore(pgstore.New(pool), cipher)
	state := storetest.Sample("pgstore-encrypted-user")
	require.NoError(t, store.Save(ctx, state))
	t.Cleanup(func() { _, _ = store.Delete(ctx, state.UserID) })

	var raw []byte
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT secret FROM mfa_enrollments WHERE user_id = $1`, state.UserID).Scan(&raw))
	assert.NotEqual(t, state.Secret, raw)

	got, err := store.Get(ctx, state.UserID)
	require.NoError(t, err)
	assert.Equal(t, state.Secret, got.Secret)
}

func TestNew_PanicsOnNilDB(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { pgstore.New(nil) })
}
