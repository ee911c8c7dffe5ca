package redisstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofa/pkg/mfa"
	"github.com/dmitrymomot/twofa/pkg/mfa/redisstore"
	"github.com/dmitrymomot/twofa/pkg/mfa/storetest"
	"github.com/dmitrymomot/twofa/pkg/redis"
)

func newClient(t *testing.T) *goredis.Client {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL is not set")
	}
	client, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  url,
		RetryAttempts:  3,
		RetryInterval:  100 * time.Millisecond,
		ConnectTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestStore(t *testing.T) {
	storetest.Run(t, redisstore.New(newClient(t), "redisstore-test:"))
}

func TestStore_KeyLayout(t *testing.T) {
	client := newClient(t)
	store := redisstore.New(client, "")
	ctx := context.Background()

	state := storetest.Sample("layout-user")
	require.NoError(t, store.Save(ctx, state))
	t.Cleanup(func() { _, _ = store.Delete(ctx, state.UserID) })

	raw, err := client.Get(ctx, redisstore.DefaultKeyPrefix+"layout-user").Result()
	require.NoError(t, err)
	assert.Contains(t, raw, `"user_id":"layout-user"`)
	assert.NotContains(t, raw, "12345678901234567890", "secret bytes are base64 encoded in JSON")

	ttl, err := client.TTL(ctx, redisstore.DefaultKeyPrefix+"layout-user").Result()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl, "records never expire on their own")
}

func TestStore_MalformedRecord(t *testing.T) {
	client := newClient(t)
	store := redisstore.New(client, "redisstore-test:")
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "redisstore-test:broken", "{not json", 0).Err())
	t.Cleanup(func() { client.Del(ctx, "redisstore-test:broken") })

	_, err := store.Get(ctx, "broken")
	require.ErrorIs(t, err, redisstore.ErrMalformedRecord)
}

func TestStore_WithService(t *testing.T) {
	store := redisstore.New(newClient(t), "redisstore-test:")
	svc := mfa.NewService(store, mfa.DefaultConfig(), mfa.WithQRCodeSize(0))
	ctx := context.Background()

	setup := svc.Setup(ctx, "redis-service-user", "")
	require.True(t, setup.Success)
	t.Cleanup(func() { svc.Disable(ctx, "redis-service-user") })

	status := svc.Status(ctx, "redis-service-user")
	require.True(t, status.Success)
	assert.Equal(t, mfa.StatusPendingConfirmation, status.Status)
	assert.Equal(t, len(setup.BackupCodes), status.RemainingBackupCodes)
}

func TestNew_PanicsOnNilClient(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { redisstore.New(nil, "") })
}
