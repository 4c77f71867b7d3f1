package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

// SQLiteStore is a VersionedStore backed by a single sqlite table through the
// pure-Go modernc driver. Multiple processes may share one database file;
// CompareAndSwap is a single conditional statement so concurrent writers
// cannot both succeed against the same version.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps pragmas in effect and serializes writers within
	// this process.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	for _, ddl := range schemaDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Read returns the value stored under key.
func (s *SQLiteStore) Read(ctx context.Context, key string) ([]byte, error) {
	data, _, err := s.ReadVersioned(ctx, key)
	return data, err
}

// ReadVersioned returns the value stored under key and its version.
func (s *SQLiteStore) ReadVersioned(ctx context.Context, key string) ([]byte, int64, error) {
	if err := validateKey(key); err != nil {
		return nil, 0, err
	}

	var (
		data    []byte
		version int64
	)
	err := s.db.QueryRowContext(ctx, sqlSelectEntry, key).Scan(&data, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, types.ErrKeyNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("reading key %s: %w", key, err)
	}
	return data, version, nil
}

// Write upserts the value for key and bumps its version.
func (s *SQLiteStore) Write(ctx context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, sqlUpsertEntry, key, nonNil(data), now()); err != nil {
		return fmt.Errorf("writing key %s: %w", key, err)
	}
	return nil
}

// CompareAndSwap writes data only if the stored version equals expected.
func (s *SQLiteStore) CompareAndSwap(ctx context.Context, key string, data []byte, expected int64) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}

	var (
		res sql.Result
		err error
	)
	if expected == 0 {
		res, err = s.db.ExecContext(ctx, sqlInsertEntryIfAbsent, key, nonNil(data), now())
	} else {
		res, err = s.db.ExecContext(ctx, sqlUpdateEntryIfVersion, nonNil(data), now(), key, expected)
	}
	if err != nil {
		return 0, fmt.Errorf("writing key %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("writing key %s: %w", key, err)
	}
	if n == 0 {
		return 0, types.ErrVersionConflict
	}
	return expected + 1, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// nonNil keeps NOT NULL columns satisfied for empty values.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
