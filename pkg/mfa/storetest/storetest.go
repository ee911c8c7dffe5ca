// Package storetest holds the behaviour every mfa.Store implementation must share.
// Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofa/pkg/mfa"
)

// Run exercises store. Each subtest uses its own user id, so a shared backend is fine.
func Run(t *testing.T, store mfa.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing record", func(t *testing.T) {
		_, err := store.Get(ctx, uniqueUser())
		require.ErrorIs(t, err, mfa.ErrStateNotFound)

		deleted, err := store.Delete(ctx, uniqueUser())
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("round trip", func(t *testing.T) {
		want := Sample(uniqueUser())
		require.NoError(t, store.Save(ctx, want))

		got, err := store.Get(ctx, want.UserID)
		require.NoError(t, err)
		AssertEqualState(t, want, got)
	})

	t.Run("pending record keeps empty optional fields", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Millisecond)
		want := &mfa.EnrollmentState{
			ID:                   uuid.New(),
			UserID:               uniqueUser(),
			Method:               mfa.MethodTOTP,
			Secret:               []byte("0123456789abcdefghij"),
			BackupCodeHashes:     []string{"h1"},
			UsedBackupCodeHashes: []string{},
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		require.NoError(t, store.Save(ctx, want))

		got, err := store.Get(ctx, want.UserID)
		require.NoError(t, err)
		assert.Equal(t, mfa.StatusPendingConfirmation, got.Status())
		assert.Nil(t, got.EnabledAt)
		assert.Nil(t, got.LockoutUntil)
		assert.Nil(t, got.LastVerifiedAt)
		assert.Empty(t, got.UsedBackupCodeHashes)
	})

	t.Run("save overwrites", func(t *testing.T) {
		state := Sample(uniqueUser())
		require.NoError(t, store.Save(ctx, state))

		state.FailedAttempts = 4
		state.BackupCodeHashes = state.BackupCodeHashes[1:]
		state.UsedBackupCodeHashes = append(state.UsedBackupCodeHashes, "consumed")
		require.NoError(t, store.Save(ctx, state))

		got, err := store.Get(ctx, state.UserID)
		require.NoError(t, err)
		AssertEqualState(t, state, got)
	})

	t.Run("delete", func(t *testing.T) {
		state := Sample(uniqueUser())
		require.NoError(t, store.Save(ctx, state))

		deleted, err := store.Delete(ctx, state.UserID)
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = store.Get(ctx, state.UserID)
		require.ErrorIs(t, err, mfa.ErrStateNotFound)

		deleted, err = store.Delete(ctx, state.UserID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("invalid input", func(t *testing.T) {
		require.ErrorIs(t, store.Save(ctx, nil), mfa.ErrNilState)

		state := Sample("")
		require.ErrorIs(t, store.Save(ctx, state), mfa.ErrEmptyUserID)
	})

	t.Run("records are isolated per user", func(t *testing.T) {
		a, b := Sample(uniqueUser()), Sample(uniqueUser())
		b.Secret = []byte("another-secret-value")
		require.NoError(t, store.Save(ctx, a))
		require.NoError(t, store.Save(ctx, b))

		_, err := store.Delete(ctx, a.UserID)
		require.NoError(t, err)

		got, err := store.Get(ctx, b.UserID)
		require.NoError(t, err)
		assert.Equal(t, b.Secret, got.Secret)
	})
}

// Sample returns an active enrollment with every field populated. Times are
// truncated to milliseconds and in UTC so every backend can store them exactly.
func Sample(userID string) *mfa.EnrollmentState {
	now := time.Now().UTC().Truncate(time.Millisecond)
	enabled := now.Add(-time.Hour)
	lockout := now.Add(15 * time.Minute)
	verified := now.Add(-time.Minute)
	return &mfa.EnrollmentState{
		ID:                   uuid.New(),
		UserID:               userID,
		Method:               mfa.MethodTOTP,
		Secret:               []byte("12345678901234567890"),
		Enabled:              true,
		EnabledAt:            &enabled,
		FailedAttempts:       2,
		LockoutUntil:         &lockout,
		BackupCodeHashes:     []string{"hash-a", "hash-b", "hash-c"},
		UsedBackupCodeHashes: []string{"hash-z"},
		LastVerifiedAt:       &verified,
		LastUsedStep:         56_666_666,
		CreatedAt:            now.Add(-2 * time.Hour),
		UpdatedAt:            now,
	}
}

// AssertEqualState compares records field by field, treating times by instant.
func AssertEqualState(t *testing.T, want, got *mfa.EnrollmentState) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.UserID, got.UserID)
	assert.Equal(t, want.Method, got.Method)
	assert.Equal(t, want.Secret, got.Secret)
	assert.Equal(t, want.Enabled, got.Enabled)
	assertTime(t, want.EnabledAt, got.EnabledAt)
	assert.Equal(t, want.FailedAttempts, got.FailedAttempts)
	assertTime(t, want.LockoutUntil, got.LockoutUntil)
	assert.Equal(t, want.BackupCodeHashes, got.BackupCodeHashes)
	assert.Equal(t, want.UsedBackupCodeHashes, got.UsedBackupCodeHashes)
	assertTime(t, want.LastVerifiedAt, got.LastVerifiedAt)
	assert.Equal(t, want.LastUsedStep, got.LastUsedStep)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at: want %s, got %s", want.CreatedAt, got.CreatedAt)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updated_at: want %s, got %s", want.UpdatedAt, got.UpdatedAt)
}

func assertTime(t *testing.T, want, got *time.Time) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got)
		return
	}
	require.NotNil(t, got)
	assert.True(t, want.Equal(*got), "want %s, got %s", *want, *got)
}

func uniqueUser() string {
	return "storetest-" + uuid.NewString()
}
