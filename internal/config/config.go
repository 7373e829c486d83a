// Package config loads process settings from .env, an optional YAML file and
// the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Redis struct {
	Addr     string `yaml:"addr"` // empty disables the shared distance cache
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Telegram struct {
	Token  string `yaml:"token"` // empty disables notifications
	ChatID int64  `yaml:"chat_id"`
}

type Booking struct {
	MaxAttempts int `yaml:"max_attempts"`
}

type Distance struct {
	CacheSize       int           `yaml:"cache_size"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

type Config struct {
	Environment   string   `yaml:"env"`
	Storage       string   `yaml:"storage"`
	DBDSN         string   `yaml:"db_dsn"`
	DBMaxConns    int32    `yaml:"db_max_conns"`
	MigrationsDir string   `yaml:"migrations_dir"` // empty uses the embedded migrations
	OpsAddr       string   `yaml:"ops_addr"`
	Redis         Redis    `yaml:"redis"`
	Telegram      Telegram `yaml:"telegram"`
	Booking       Booking  `yaml:"booking"`
	Distance      Distance `yaml:"distance"`

	// EnvFileLoaded reports whether a .env file was found.
	EnvFileLoaded bool `yaml:"-"`
}

func defaults() *Config {
	return &Config{
		Environment: "development",
		Storage:     StoragePostgres,
		OpsAddr:     ":9090",
		Booking:     Booking{MaxAttempts: 5},
		Distance: Distance{
			CacheSize:       1024,
			CacheTTL:        10 * time.Minute,
			RefreshInterval: time.Hour,
		},
	}
}

// Load reads .env when present, then the YAML file named by CONFIG_PATH, then
// the environment variables.
func Load() (*Config, error) {
	cfg := defaults()
	cfg.EnvFileLoaded = godotenv.Load(".env") == nil

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readFile merges a YAML file into c. ${VAR} references are expanded first.
func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

type override struct {
	key   string
	apply func(value string) error
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	overrides := []override{
		{"ENV", setString(&c.Environment)},
		{"STORAGE", setString(&c.Storage)},
		{"DB_DSN", setString(&c.DBDSN)},
		{"DB_MAX_CONNS", func(v string) error {
			n, err := cast.ToInt32E(v)
			if err != nil {
				return err
			}
			c.DBMaxConns = n
			return nil
		}},
		{"MIGRATIONS_DIR", setString(&c.MigrationsDir)},
		{"OPS_ADDR", setString(&c.OpsAddr)},
		{"REDIS_ADDR", setString(&c.Redis.Addr)},
		{"REDIS_PASSWORD", setString(&c.Redis.Password)},
		{"REDIS_DB", setInt(&c.Redis.DB)},
		{"TELEGRAM_TOKEN", setString(&c.Telegram.Token)},
		{"TELEGRAM_CHAT_ID", func(v string) error {
			n, err := cast.ToInt64E(v)
			if err != nil {
				return err
			}
			c.Telegram.ChatID = n
			return nil
		}},
		{"BOOKING_MAX_ATTEMPTS", setInt(&c.Booking.MaxAttempts)},
		{"DISTANCE_CACHE_SIZE", setInt(&c.Distance.CacheSize)},
		{"DISTANCE_CACHE_TTL", setDuration(&c.Distance.CacheTTL)},
		{"DISTANCE_REFRESH_INTERVAL", setDuration(&c.Distance.RefreshInterval)},
	}
	for _, o := range overrides {
		v, ok := lookup(o.key)
		if !ok || v == "" {
			continue
		}
		if err := o.apply(v); err != nil {
			return fmt.Errorf("parse %s: %w", o.key, err)
		}
	}
	return nil
}

func setString(dst *string) func(string) error {
	return func(v string) error {
		*dst = v
		return nil
	}
}

func setInt(dst *int) func(string) error {
	return func(v string) error {
		n, err := cast.ToIntE(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func setDuration(dst *time.Duration) func(string) error {
	return func(v string) error {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}

// Validate checks required settings and their ranges.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage {
	case StoragePostgres:
		if c.DBDSN == "" {
			errs = append(errs, errors.New("DB_DSN is required but not set"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage))
	}
	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 {
		errs = append(errs, errors.New("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set"))
	}
	if c.Booking.MaxAttempts < 1 {
		errs = append(errs, errors.New("BOOKING_MAX_ATTEMPTS must be at least 1"))
	}
	if c.Distance.CacheSize < 1 {
		errs = append(errs, errors.New("DISTANCE_CACHE_SIZE must be at least 1"))
	}
	if c.Distance.CacheTTL <= 0 {
		errs = append(errs, errors.New("DISTANCE_CACHE_TTL must be positive"))
	}
	return errors.Join(errs...)
}
