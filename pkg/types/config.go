package types

import (
	"errors"
	"time"
)

// Config holds backend selection and parameters for opening a store and
// running the reservation services.
type Config struct {
	Backend    string       `json:"backend" mapstructure:"backend" yaml:"backend"`
	DataDir    string       `json:"data_dir" mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	Keys       KeysConfig   `json:"keys" mapstructure:"keys" yaml:"keys"`
	SeedTables []Table      `json:"seed_tables,omitempty" mapstructure:"seed_tables" yaml:"seed_tables,omitempty"`
	Redis      RedisConfig  `json:"redis" mapstructure:"redis" yaml:"redis,omitempty"`
	GORM       GORMConfig   `json:"gorm" mapstructure:"gorm" yaml:"gorm,omitempty"`
	Log        LogConfig    `json:"log" mapstructure:"log" yaml:"log"`
	Server     ServerConfig `json:"server" mapstructure:"server" yaml:"server"`
}

// KeysConfig names the store keys the two collections live under.
type KeysConfig struct {
	Bookings string `json:"bookings" mapstructure:"bookings" yaml:"bookings"`
	Tables   string `json:"tables" mapstructure:"tables" yaml:"tables"`
}

// RedisConfig configures the redis backend and the redis change notifier.
type RedisConfig struct {
	Addr     string `json:"addr" mapstructure:"addr" yaml:"addr,omitempty"`
	Password string `json:"password" mapstructure:"password" yaml:"password,omitempty"`
	DB       int    `json:"db" mapstructure:"db" yaml:"db,omitempty"`
	Prefix   string `json:"prefix" mapstructure:"prefix" yaml:"prefix,omitempty"`
	Channel  string `json:"channel" mapstructure:"channel" yaml:"channel,omitempty"`
}

// GORMConfig configures the gorm backend.
type GORMConfig struct {
	Dialect string `json:"dialect" mapstructure:"dialect" yaml:"dialect,omitempty"`
	DSN     string `json:"dsn" mapstructure:"dsn" yaml:"dsn,omitempty"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level" yaml:"level"`
	Format string `json:"format" mapstructure:"format" yaml:"format"`
	File   string `json:"file" mapstructure:"file" yaml:"file,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `json:"addr" mapstructure:"addr" yaml:"addr"`
	RateLimit    float64       `json:"rate_limit" mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst    int           `json:"rate_burst" mapstructure:"rate_burst" yaml:"rate_burst"`
	AllowReset   bool          `json:"allow_reset" mapstructure:"allow_reset" yaml:"allow_reset"`
	ReadTimeout  time.Duration `json:"read_timeout" mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" mapstructure:"write_timeout" yaml:"write_timeout"`
}

// Supported backend names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendGORM   = "gorm"
	BackendRedis  = "redis"
)

// Supported gorm dialects.
const (
	DialectSQLite = "sqlite"
	DialectMySQL  = "mysql"
)

// Default collection keys. They match the browser storage keys of the
// reservation widget, so data copied from a browser loads unchanged.
const (
	DefaultBookingsKey = "littleLemonBookings"
	DefaultTablesKey   = "littleLemonTables"
)

// DefaultRedisChannel is the pub/sub channel for change notifications.
const DefaultRedisChannel = "littlelemon:bookings-updated"

// Config validation errors.
var (
	ErrBackendEmpty     = errors.New("backend must not be empty")
	ErrBackendUnknown   = errors.New("unknown backend")
	ErrKeysInvalid      = errors.New("bookings and tables keys must be non-empty and distinct")
	ErrSeedTableInvalid = errors.New("seed tables need unique non-empty ids and positive seats")
	ErrRedisAddrEmpty   = errors.New("redis backend requires redis.addr")
	ErrDialectUnknown   = errors.New("unknown gorm dialect")
	ErrGORMDSNEmpty     = errors.New("gorm mysql dialect requires gorm.dsn")
	ErrLogFormatUnknown = errors.New("unknown log format")
	ErrRateLimitInvalid = errors.New("rate limit and burst must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendMemory: true,
	BackendFile:   true,
	BackendSQLite: true,
	BackendGORM:   true,
	BackendRedis:  true,
}

// DefaultConfig returns the configuration used when no config file sets a
// value.
func DefaultConfig() Config {
	return Config{
		Backend: BackendFile,
		Keys: KeysConfig{
			Bookings: DefaultBookingsKey,
			Tables:   DefaultTablesKey,
		},
		Redis: RedisConfig{
			Channel: DefaultRedisChannel,
		},
		GORM: GORMConfig{
			Dialect: DialectSQLite,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			RateLimit:    1,
			RateBurst:    5,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Keys.Bookings == "" || c.Keys.Tables == "" || c.Keys.Bookings == c.Keys.Tables {
		return ErrKeysInvalid
	}
	seen := make(map[string]bool, len(c.SeedTables))
	for _, t := range c.SeedTables {
		if t.ID == "" || t.Seats <= 0 || seen[t.ID] {
			return ErrSeedTableInvalid
		}
		seen[t.ID] = true
	}
	switch c.Backend {
	case BackendRedis:
		if c.Redis.Addr == "" {
			return ErrRedisAddrEmpty
		}
	case BackendGORM:
		switch c.GORM.Dialect {
		case DialectSQLite:
		case DialectMySQL:
			if c.GORM.DSN == "" {
				return ErrGORMDSNEmpty
			}
		default:
			return ErrDialectUnknown
		}
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return ErrLogFormatUnknown
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		return ErrRateLimitInvalid
	}
	return nil
}
