package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const EnvPrefix = "ESCAPEROOM_"

// Config controls how the engine is wired: where progress lives, which
// catalog is loaded and where logs go.
type Config struct {
	DataDir   string        `env:"DATA_DIR"`
	LogPath   string        `env:"LOG_PATH"`
	LogLevel  string        `env:"LOG_LEVEL"`
	RoomsPath string        `env:"ROOMS_PATH"`
	DevHTTP   string        `env:"DEV_HTTP"`
	Storage   StorageConfig `envPrefix:"STORAGE_"`
}

type StorageConfig struct {
	Backend       string        `env:"BACKEND"`
	Key           string        `env:"KEY"`
	SQLitePath    string        `env:"SQLITE_PATH"`
	PostgresDSN   string        `env:"POSTGRES_DSN"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB"`
	RedisTTL      time.Duration `env:"REDIS_TTL"`
}

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		DevHTTP:  "127.0.0.1:17321",
		Storage: StorageConfig{
			Backend: BackendSQLite,
		},
	}
}

// LoadConfig layers .env files and ESCAPEROOM_* variables over the
// defaults. Missing .env files are ignored.
func LoadConfig(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "escaperoom")
	}

	s := &c.Storage
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	switch s.Backend {
	case "":
		s.Backend = BackendSQLite
	case BackendMemory, BackendSQLite, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("invalid storage backend %q", s.Backend)
	}
	switch s.Backend {
	case BackendSQLite:
		if s.SQLitePath == "" {
			s.SQLitePath = filepath.Join(c.DataDir, "progress.db")
		}
	case BackendPostgres:
		if s.PostgresDSN == "" {
			return errors.New("postgres storage requires a DSN")
		}
	case BackendRedis:
		if s.RedisAddr == "" {
			return errors.New("redis storage requires an address")
		}
		if s.RedisDB < 0 {
			return fmt.Errorf("invalid redis db %d", s.RedisDB)
		}
		if s.RedisTTL < 0 {
			return fmt.Errorf("invalid redis ttl %s", s.RedisTTL)
		}
	}
	return nil
}
