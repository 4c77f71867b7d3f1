package kv

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

// Hash fields holding a key's value and version.
const (
	fieldData    = "data"
	fieldVersion = "version"
)

// RedisStore is a VersionedStore keeping each key in a redis hash with a
// data field and a version counter. CompareAndSwap uses WATCH/MULTI so a
// concurrent write to the same key aborts the transaction.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	owned  bool
}

// OpenRedis connects to the configured server and verifies it responds.
func OpenRedis(ctx context.Context, cfg types.RedisConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Addr, err)
	}
	s := NewRedisStore(rdb, cfg.Prefix)
	s.owned = true
	return s, nil
}

// NewRedisStore wraps an existing client. Keys are stored as prefix+key.
// Close does not close a client passed in here.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// Client returns the underlying redis client.
func (s *RedisStore) Client() *redis.Client {
	return s.rdb
}

// Read returns the value stored under key.
func (s *RedisStore) Read(ctx context.Context, key string) ([]byte, error) {
	data, _, err := s.ReadVersioned(ctx, key)
	return data, err
}

// ReadVersioned returns the value stored under key and its version.
func (s *RedisStore) ReadVersioned(ctx context.Context, key string) ([]byte, int64, error) {
	if err := validateKey(key); err != nil {
		return nil, 0, err
	}

	vals, err := s.rdb.HMGet(ctx, s.prefix+key, fieldData, fieldVersion).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("reading key %s: %w", key, err)
	}
	if len(vals) != 2 || vals[0] == nil {
		return nil, 0, types.ErrKeyNotFound
	}
	data, ok := vals[0].(string)
	if !ok {
		return nil, 0, fmt.Errorf("reading key %s: unexpected %T", key, vals[0])
	}
	var version int64
	if v, ok := vals[1].(string); ok {
		version, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("reading key %s version: %w", key, err)
		}
	}
	return []byte(data), version, nil
}

// Write stores data under key and bumps its version.
func (s *RedisStore) Write(ctx context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	k := s.prefix + key
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, fieldData, nonNil(data))
		pipe.HIncrBy(ctx, k, fieldVersion, 1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing key %s: %w", key, err)
	}
	return nil
}

// CompareAndSwap writes data only if the stored version equals expected.
func (s *RedisStore) CompareAndSwap(ctx context.Context, key string, data []byte, expected int64) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}

	k := s.prefix + key
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, k, fieldVersion).Int64()
		if errors.Is(err, redis.Nil) {
			current = 0
		} else if err != nil {
			return err
		}
		if current != expected {
			return types.ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, k, fieldData, nonNil(data))
			pipe.HIncrBy(ctx, k, fieldVersion, 1)
			return nil
		})
		return err
	}, k)
	switch {
	case err == nil:
		return expected + 1, nil
	case errors.Is(err, types.ErrVersionConflict), errors.Is(err, redis.TxFailedErr):
		return 0, types.ErrVersionConflict
	default:
		return 0, fmt.Errorf("writing key %s: %w", key, err)
	}
}

// Close closes the client if the store created it.
func (s *RedisStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.rdb.Close()
}
