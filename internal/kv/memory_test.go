package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) types.KVStore { return NewMemoryStore() })
	runVersionedContract(t, func(t *testing.T) types.VersionedStore { return NewMemoryStore() })
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	data := []byte("abc")
	require.NoError(t, s.Write(ctx, "k", data))
	data[0] = 'X'

	got, err := s.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got), "store must not alias the caller's slice")

	got[1] = 'Y'
	again, err := s.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again), "callers must not alias the stored slice")
}

func TestMemoryStoreClosed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "Close is idempotent")

	assert.ErrorIs(t, s.Write(ctx, "k", []byte("v")), types.ErrStoreClosed)
	_, err := s.Read(ctx, "k")
	assert.ErrorIs(t, err, types.ErrStoreClosed)
	_, err = s.CompareAndSwap(ctx, "k", []byte("v"), 0)
	assert.ErrorIs(t, err, types.ErrStoreClosed)
}
