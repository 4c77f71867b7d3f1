package types

import (
	"context"
	"errors"
)

// KVStore is the persistent key-value capability the reservation store is
// built on. Values are opaque bytes; the reservation store writes whole
// serialized collections under a fixed key per collection.
type KVStore interface {
	// Read returns the value stored under key.
	// Returns ErrKeyNotFound if no value exists.
	Read(ctx context.Context, key string) ([]byte, error)

	// Write stores data under key, replacing any previous value.
	Write(ctx context.Context, key string, data []byte) error
}

// VersionedStore is a KVStore that tracks a version per key and supports
// compare-and-swap writes. Version 0 means the key holds no value; every
// successful write increments the version by one.
type VersionedStore interface {
	KVStore

	// ReadVersioned returns the value and its version.
	// Returns ErrKeyNotFound with version 0 if no value exists.
	ReadVersioned(ctx context.Context, key string) ([]byte, int64, error)

	// CompareAndSwap writes data only when the stored version equals
	// expected, and returns the new version.
	// Returns ErrVersionConflict when the versions differ.
	CompareAndSwap(ctx context.Context, key string, data []byte, expected int64) (int64, error)
}

// Key-value store errors.
var (
	ErrKeyNotFound     = errors.New("key not found")
	ErrInvalidKey      = errors.New("invalid key")
	ErrVersionConflict = errors.New("version conflict")
	ErrStoreClosed     = errors.New("store is closed")
)
