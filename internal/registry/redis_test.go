package registry

import (
	"context"
	"os"
	"testing"

	"github.com/jmehdipour/micromdm-webhook/internal/util"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Set MDMHOOK_TEST_REDIS_ADDR to run against a live server.
func newTestRedis(t *testing.T) *Redis {
	t.Helper()
	addr := os.Getenv("MDMHOOK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MDMHOOK_TEST_REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, rdb.Ping(context.Background()).Err())

	key := "test:devices:" + util.NewEventID()
	t.Cleanup(func() {
		_ = rdb.Del(context.Background(), key).Err()
		_ = rdb.Close()
	})
	return NewRedis(rdb, key)
}

func TestRedis_UpsertGet(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t)

	_, ok, err := r.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.False(t, ok)

	created, err := r.Upsert(ctx, "ABC123", true)
	require.NoError(t, err)
	assert.True(t, created)

	d, ok, err := r.Get(ctx, "ABC123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, d.Enrolled)

	created, err = r.Upsert(ctx, "ABC123", false)
	require.NoError(t, err)
	assert.False(t, created)

	d, ok, err = r.Get(ctx, "ABC123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, d.Enrolled)
}

func TestNewRedis_DefaultKey(t *testing.T) {
	r := NewRedis(nil, "")
	assert.Equal(t, DefaultRedisKey, r.key)
}
