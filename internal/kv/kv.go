// Package kv implements the key-value backends the reservation store
// persists its collections in. Every backend satisfies types.KVStore;
// all but the file backend also satisfy types.VersionedStore.
package kv

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

// Store is a key-value backend that holds resources until closed.
type Store interface {
	types.KVStore
	io.Closer
}

// File names used inside the data directory.
const (
	sqliteFileName = "littlelemon.db"
	gormFileName   = "littlelemon-gorm.db"
)

// Open creates the backend selected by cfg.Backend. File-based backends
// create cfg.DataDir if it does not exist; an empty DataDir means the current
// directory.
func Open(ctx context.Context, cfg types.Config, logger zerolog.Logger) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}

	log := logger.With().Str("backend", cfg.Backend).Logger()

	var (
		store Store
		err   error
	)
	switch cfg.Backend {
	case types.BackendMemory:
		store = NewMemoryStore()
	case types.BackendFile:
		store, err = NewFileStore(dataDir)
	case types.BackendSQLite:
		store, err = OpenSQLite(ctx, filepath.Join(dataDir, sqliteFileName))
	case types.BackendGORM:
		store, err = OpenGORM(ctx, cfg.GORM, dataDir)
	case types.BackendRedis:
		store, err = OpenRedis(ctx, cfg.Redis)
	default:
		return nil, types.ErrBackendUnknown
	}
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Backend, err)
	}

	log.Debug().Str("data_dir", dataDir).Msg("store opened")
	return store, nil
}

// validateKey rejects keys no backend can store.
func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty key", types.ErrInvalidKey)
	}
	return nil
}
