// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package main

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/wardenhq/warden/internal/account"
	"github.com/wardenhq/warden/internal/httpapi"
	"github.com/wardenhq/warden/internal/logging"
)

// Default values for configuration.
const (
	defaultHTTPAddr    = ":8080"
	defaultMetricsAddr = "127.0.0.1:9100"
	defaultLogFormat   = "json"
	defaultLogLevel    = "info"
	defaultHasher      = hasherSHA512
	defaultBackend     = backendMemory
	defaultRedisAddr   = "localhost:6379"
	defaultRedisPrefix = "warden"
)

// Store backends.
const (
	backendMemory   = "memory"
	backendPostgres = "postgres"
	backendRedis    = "redis"
)

// Password hashers.
const (
	hasherSHA512   = "sha512"
	hasherArgon2id = "argon2id"
)

// databaseURLEnv overrides store.postgres.url when set.
const databaseURLEnv = "DATABASE_URL"

// Config is the full server configuration.
type Config struct {
	HTTP    HTTPConfig    `koanf:"http"`
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
	Auth    AuthConfig    `koanf:"auth"`
	Store   StoreConfig   `koanf:"store"`
}

// HTTPConfig configures the account API listener.
type HTTPConfig struct {
	Addr            string `koanf:"addr"`
	ConflictRetries uint64 `koanf:"conflict_retries"`
}

// MetricsConfig configures the observability listener. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// AuthConfig configures sessions and credential hashing.
type AuthConfig struct {
	TokenTTL time.Duration `koanf:"token_ttl"`
	Hasher   string        `koanf:"hasher"`
}

// StoreConfig selects and configures the entity store backend.
type StoreConfig struct {
	Backend  string         `koanf:"backend"`
	Postgres PostgresConfig `koanf:"postgres"`
	Redis    RedisConfig    `koanf:"redis"`
}

// PostgresConfig configures the PostgreSQL backend.
type PostgresConfig struct {
	URL string `koanf:"url"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

var defaults = map[string]any{
	"http.addr":             defaultHTTPAddr,
	"http.conflict_retries": uint64(httpapi.DefaultConflictRetries),
	"metrics.addr":          defaultMetricsAddr,
	"log.format":            defaultLogFormat,
	"log.level":             defaultLogLevel,
	"auth.token_ttl":        account.DefaultTokenTTL,
	"auth.hasher":           defaultHasher,
	"store.backend":         defaultBackend,
	"store.redis.addr":      defaultRedisAddr,
	"store.redis.db":        0,
	"store.redis.prefix":    defaultRedisPrefix,
}

// flagKeys maps command-line flag names onto configuration keys.
var flagKeys = map[string]string{
	"http-addr":        "http.addr",
	"conflict-retries": "http.conflict_retries",
	"metrics-addr":     "metrics.addr",
	"log-format":       "log.format",
	"log-level":        "log.level",
	"token-ttl":        "auth.token_ttl",
	"hasher":           "auth.hasher",
	"store":            "store.backend",
	"database-url":     "store.postgres.url",
	"redis-addr":       "store.redis.addr",
	"redis-password":   "store.redis.password",
	"redis-db":         "store.redis.db",
	"redis-prefix":     "store.redis.prefix",
}

// addServerFlags registers the flags of the serve command.
func addServerFlags(flags *pflag.FlagSet) {
	flags.String("http-addr", defaultHTTPAddr, "account API listen address")
	flags.Uint64("conflict-retries", httpapi.DefaultConflictRetries, "retries after a store conflict")
	flags.String("metrics-addr", defaultMetricsAddr, "metrics and health listen address (empty disables)")
	flags.Duration("token-ttl", account.DefaultTokenTTL, "session token lifetime")
	addStoreFlags(flags)
}

// addStoreFlags registers the flags every command touching the store needs.
func addStoreFlags(flags *pflag.FlagSet) {
	flags.String("log-format", defaultLogFormat, "log format (json or text)")
	flags.String("log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("hasher", defaultHasher, "password hasher (sha512 or argon2id)")
	flags.String("store", defaultBackend, "store backend (memory, postgres or redis)")
	flags.String("database-url", "", "PostgreSQL URL (overrides "+databaseURLEnv+")")
	flags.String("redis-addr", defaultRedisAddr, "Redis address")
	flags.String("redis-password", "", "Redis password")
	flags.Int("redis-db", 0, "Redis database number")
	flags.String("redis-prefix", defaultRedisPrefix, "Redis key prefix")
}

// configSource locates the configuration layers.
type configSource struct {
	// Path is an explicit config file. It must exist when set.
	Path string
	// DefaultPath is tried when Path is empty and skipped if absent.
	DefaultPath func() (string, error)
	// Getenv reads environment overrides.
	Getenv func(string) string
}

// loadConfig layers defaults, the YAML file, the environment and changed
// flags, in that order, and validates the result.
func loadConfig(flags *pflag.FlagSet, src configSource) (Config, error) {
	k := koanf.New(".")
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return Config{}, oops.Code("CONFIG_INVALID").With("key", key).Wrap(err)
		}
	}

	path, required := src.Path, true
	if path == "" && src.DefaultPath != nil {
		required = false
		if p, err := src.DefaultPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil || required {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
	}

	if src.Getenv != nil {
		if url := src.Getenv(databaseURLEnv); url != "" {
			if err := k.Set("store.postgres.url", url); err != nil {
				return Config{}, oops.Code("CONFIG_INVALID").With("key", "store.postgres.url").Wrap(err)
			}
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code("CONFIG_INVALID").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration can start a server.
func (c Config) Validate() error {
	if c.HTTP.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("http.addr is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return oops.Code("CONFIG_INVALID").With("token_ttl", c.Auth.TokenTTL.String()).
			Errorf("auth.token_ttl must be positive")
	}
	switch c.Auth.Hasher {
	case hasherSHA512, hasherArgon2id:
	default:
		return oops.Code("CONFIG_INVALID").With("hasher", c.Auth.Hasher).
			Errorf("auth.hasher must be %s or %s", hasherSHA512, hasherArgon2id)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return oops.Code("CONFIG_INVALID").With("format", c.Log.Format).
			Errorf("log.format must be json or text")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err //nolint:wrapcheck // already coded CONFIG_INVALID
	}
	return c.Store.Validate()
}

// Validate checks the selected backend has what it needs.
func (c StoreConfig) Validate() error {
	switch c.Backend {
	case backendMemory:
	case backendPostgres:
		if c.Postgres.URL == "" {
			return oops.Code("CONFIG_INVALID").
				Errorf("store.postgres.url or %s is required for the postgres backend", databaseURLEnv)
		}
	case backendRedis:
		if c.Redis.Addr == "" {
			return oops.Code("CONFIG_INVALID").Errorf("store.redis.addr is required for the redis backend")
		}
		if c.Redis.DB < 0 {
			return oops.Code("CONFIG_INVALID").With("db", c.Redis.DB).Errorf("store.redis.db must be non-negative")
		}
	default:
		return oops.Code("CONFIG_INVALID").With("backend", c.Backend).
			Errorf("store.backend must be %s, %s or %s", backendMemory, backendPostgres, backendRedis)
	}
	return nil
}
