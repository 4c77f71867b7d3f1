package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/mysql"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

// kvEntry maps to the kv_entries table.
type kvEntry struct {
	Key       string `gorm:"column:kv_key;primaryKey;size:191"`
	Value     []byte `gorm:"column:value;not null"`
	Version   int64  `gorm:"column:version;not null"`
	UpdatedAt time.Time
}

func (kvEntry) TableName() string {
	return "kv_entries"
}

// GORMStore is a VersionedStore on any gorm dialect. The sqlite dialect
// is used for local deployments and tests; mysql lets several application
// hosts share one collection.
type GORMStore struct {
	db *gorm.DB
}

// OpenGORM connects with the configured dialect and migrates the schema. An
// empty sqlite DSN places the database file in dataDir.
func OpenGORM(ctx context.Context, cfg types.GORMConfig, dataDir string) (*GORMStore, error) {
	var dialector gorm.Dialector
	switch cfg.Dialect {
	case types.DialectSQLite, "":
		dsn := cfg.DSN
		if dsn == "" {
			if err := os.MkdirAll(dataDir, 0o755); err != nil {
				return nil, fmt.Errorf("creating data dir: %w", err)
			}
			dsn = filepath.Join(dataDir, gormFileName)
		}
		dialector = gormsqlite.Open(dsn)
	case types.DialectMySQL:
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, types.ErrDialectUnknown
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.PingContext(ctx); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("ping: %w", err)
		}
	}
	return NewGORMStore(db)
}

// NewGORMStore wraps an existing connection and migrates the schema.
func NewGORMStore(db *gorm.DB) (*GORMStore, error) {
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("migrating kv_entries: %w", err)
	}
	return &GORMStore{db: db}, nil
}

// Read returns the value stored under key.
func (s *GORMStore) Read(ctx context.Context, key string) ([]byte, error) {
	data, _, err := s.ReadVersioned(ctx, key)
	return data, err
}

// ReadVersioned returns the value stored under key and its version.
func (s *GORMStore) ReadVersioned(ctx context.Context, key string) ([]byte, int64, error) {
	if err := validateKey(key); err != nil {
		return nil, 0, err
	}

	var entry kvEntry
	// Find instead of First: a missing key is routine, not a logged error.
	result := s.db.WithContext(ctx).Where("kv_key = ?", key).Limit(1).Find(&entry)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("reading key %s: %w", key, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, 0, types.ErrKeyNotFound
	}
	return entry.Value, entry.Version, nil
}

// Write upserts the value for key and bumps its version.
func (s *GORMStore) Write(ctx context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	ts := time.Now().UTC()
	entry := kvEntry{Key: key, Value: nonNil(data), Version: 1, UpdatedAt: ts}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "kv_key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":      entry.Value,
			"version":    gorm.Expr("version + 1"),
			"updated_at": ts,
		}),
	}).Create(&entry)
	if result.Error != nil {
		return fmt.Errorf("writing key %s: %w", key, result.Error)
	}
	return nil
}

// CompareAndSwap writes data only if the stored version equals expected.
func (s *GORMStore) CompareAndSwap(ctx context.Context, key string, data []byte, expected int64) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}

	ts := time.Now().UTC()
	var result *gorm.DB
	if expected == 0 {
		entry := kvEntry{Key: key, Value: nonNil(data), Version: 1, UpdatedAt: ts}
		result = s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entry)
	} else {
		result = s.db.WithContext(ctx).Model(&kvEntry{}).
			Where("kv_key = ? AND version = ?", key, expected).
			Updates(map[string]any{
				"value":      nonNil(data),
				"version":    gorm.Expr("version + 1"),
				"updated_at": ts,
			})
	}
	if result.Error != nil {
		return 0, fmt.Errorf("writing key %s: %w", key, result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, types.ErrVersionConflict
	}
	return expected + 1, nil
}

// Close closes the underlying connection pool.
func (s *GORMStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		if errors.Is(err, gorm.ErrInvalidDB) {
			return nil
		}
		return err
	}
	return sqlDB.Close()
}
