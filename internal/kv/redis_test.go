package kv

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb, "test:"), mr
}

func TestRedisStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) types.KVStore {
		s, _ := newTestRedisStore(t)
		return s
	})
	runVersionedContract(t, func(t *testing.T) types.VersionedStore {
		s, _ := newTestRedisStore(t)
		return s
	})
}

func TestRedisStoreKeyLayout(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)

	require.NoError(t, s.Write(ctx, "bookings", []byte("[]")))

	assert.True(t, mr.Exists("test:bookings"))
	assert.Equal(t, "[]", mr.HGet("test:bookings", fieldData))
	assert.Equal(t, "1", mr.HGet("test:bookings", fieldVersion))
}

func TestRedisStoreCloseKeepsBorrowedClient(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedisStore(t)

	require.NoError(t, s.Close())
	assert.NoError(t, s.Client().Ping(ctx).Err(), "client passed to NewRedisStore stays open")
}

func TestOpenRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := OpenRedis(context.Background(), types.RedisConfig{Addr: addr})
	assert.Error(t, err)
}
