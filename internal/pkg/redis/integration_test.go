//go:build integration

package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
)

func setupClient(t *testing.T) *Client {
	t.Helper()
	cfg := DefaultConfig()
	if addr := os.Getenv("TEST_REDIS_ADDR"); addr != "" {
		cfg.MasterAddr = addr
	}
	client, err := New(cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClient_Commands(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()
	t.Cleanup(func() { _, _ = client.Del(ctx, key, key+":list") })

	_, err := client.Get(ctx, key)
	assert.True(t, IsNil(err))

	ok, err := client.SetNX(ctx, key, "v1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = client.SetNX(ctx, key, "v2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	val, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "v1", val)

	pipe := client.TxPipeline()
	pipe.RPush(ctx, key+":list", "a", "b", "c")
	pipe.LTrim(ctx, key+":list", -2, -1)
	_, err = pipe.Exec(ctx)
	require.NoError(t, err)

	items, err := client.LRange(ctx, key+":list", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, items)

	n, err := client.Del(ctx, key)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestClient_Lock(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()
	key := "test:lock:" + uuid.NewString()

	token, err := client.Lock(ctx, key, 5*time.Second)
	require.NoError(t, err)

	_, err = client.TryLock(ctx, key, 5*time.Second, 2, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	assert.ErrorIs(t, client.Unlock(ctx, key, "someone-else"), ErrLockNotHeld)
	require.NoError(t, client.Unlock(ctx, key, token))

	token, err = client.TryLock(ctx, key, 5*time.Second, 0, 0)
	require.NoError(t, err)
	require.NoError(t, client.Unlock(ctx, key, token))
}
