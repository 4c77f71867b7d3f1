package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/littlelemon/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envFileName    = ".env"
	envPrefix      = "LEMON"
)

// configFile is the layout written to a fresh config.yaml. Durations are
// strings so the file stays readable.
type configFile struct {
	Backend string           `yaml:"backend"`
	DataDir string           `yaml:"data_dir,omitempty"`
	Keys    types.KeysConfig `yaml:"keys"`
	Log     types.LogConfig  `yaml:"log"`
	Server  struct {
		Addr         string  `yaml:"addr"`
		RateLimit    float64 `yaml:"rate_limit"`
		RateBurst    int     `yaml:"rate_burst"`
		AllowReset   bool    `yaml:"allow_reset"`
		ReadTimeout  string  `yaml:"read_timeout"`
		WriteTimeout string  `yaml:"write_timeout"`
	} `yaml:"server"`
	Redis types.RedisConfig `yaml:"redis"`
	GORM  types.GORMConfig  `yaml:"gorm"`
}

const configHeader = `# lemon configuration
#
# backend: memory | file | sqlite | gorm | redis
# Every key can be overridden by an environment variable with the LEMON_
# prefix, for example LEMON_BACKEND=sqlite or LEMON_SERVER_ADDR=:9090.
# seed_tables replaces the default T1..T5 tables on first run:
# seed_tables:
#   - {id: T1, seats: 2}

`

func defaultConfigFile() configFile {
	d := types.DefaultConfig()
	var f configFile
	f.Backend = d.Backend
	f.Keys = d.Keys
	f.Log = d.Log
	f.Server.Addr = d.Server.Addr
	f.Server.RateLimit = d.Server.RateLimit
	f.Server.RateBurst = d.Server.RateBurst
	f.Server.AllowReset = d.Server.AllowReset
	f.Server.ReadTimeout = d.Server.ReadTimeout.String()
	f.Server.WriteTimeout = d.Server.WriteTimeout.String()
	f.Redis = d.Redis
	f.GORM = d.GORM
	return f
}

// configDefaults flattens types.DefaultConfig into viper keys. Every key
// must have a default for LEMON_* variables to bind. data_dir is left out:
// its precedence is resolved by paths.ResolveDataDir.
func configDefaults() map[string]any {
	d := types.DefaultConfig()
	return map[string]any{
		"backend":              d.Backend,
		"keys.bookings":        d.Keys.Bookings,
		"keys.tables":          d.Keys.Tables,
		"redis.addr":           d.Redis.Addr,
		"redis.password":       d.Redis.Password,
		"redis.db":             d.Redis.DB,
		"redis.prefix":         d.Redis.Prefix,
		"redis.channel":        d.Redis.Channel,
		"gorm.dialect":         d.GORM.Dialect,
		"gorm.dsn":             d.GORM.DSN,
		"log.level":            d.Log.Level,
		"log.format":           d.Log.Format,
		"log.file":             d.Log.File,
		"server.addr":          d.Server.Addr,
		"server.rate_limit":    d.Server.RateLimit,
		"server.rate_burst":    d.Server.RateBurst,
		"server.allow_reset":   d.Server.AllowReset,
		"server.read_timeout":  d.Server.ReadTimeout,
		"server.write_timeout": d.Server.WriteTimeout,
	}
}

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run. A .env file in the working directory or in
// configDir is loaded into the environment first; variables already set
// win.
func loadConfig(configDir string) (types.Config, error) {
	if err := loadEnvFiles(envFileName, filepath.Join(configDir, envFileName)); err != nil {
		return types.Config{}, err
	}
	if err := ensureConfigDir(configDir); err != nil {
		return types.Config{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return types.Config{}, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	for key, value := range configDefaults() {
		v.SetDefault(key, value)
	}
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.DataDir = dataDirFromFile(configDir)
	return cfg, nil
}

// dataDirFromFile returns data_dir exactly as written in config.yaml, so
// that LEMON_DATA_DIR cannot shadow it. Returns "" if the file cannot be
// read.
func dataDirFromFile(configDir string) string {
	data, err := os.ReadFile(filepath.Join(configDir, configFileExt))
	if err != nil {
		return ""
	}
	var f struct {
		DataDir string `yaml:"data_dir"`
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return ""
	}
	return f.DataDir
}

func loadEnvFiles(candidates ...string) error {
	for _, path := range candidates {
		err := godotenv.Load(path)
		if err == nil || errors.Is(err, os.ErrNotExist) {
			continue
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile writes config.yaml if it does not exist yet.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(defaultConfigFile())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append([]byte(configHeader), data...), 0o644)
}
