// Package config loads the TOML configuration shared by the serve and mcp
// commands: listen address, cache backend, model store backend, and solver
// limits. Every field has a working default so a missing file is not an
// error.
package config

import (
	"context"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/uvlkit/uvlkit/pkg/cache"
	"github.com/uvlkit/uvlkit/pkg/errors"
	"github.com/uvlkit/uvlkit/pkg/store"
)

// Config is the full application configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Solve  SolveConfig  `toml:"solve"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// CacheConfig selects and configures the analysis-result cache backend.
type CacheConfig struct {
	// Backend is one of "file", "redis", or "none".
	Backend string `toml:"backend"`

	// Dir is the cache directory for the file backend.
	Dir string `toml:"dir"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	// TTL bounds how long results stay cached; zero means forever.
	TTL Duration `toml:"ttl"`
}

// StoreConfig selects and configures the model store backend.
type StoreConfig struct {
	// Backend is one of "memory" or "mongo".
	Backend string `toml:"backend"`

	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// SolveConfig bounds solver work.
type SolveConfig struct {
	// Timeout is the per-operation solving deadline; zero disables it.
	Timeout Duration `toml:"timeout"`
}

// Duration is a time.Duration that unmarshals from TOML strings like "30s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Cache:  CacheConfig{Backend: "none", TTL: Duration(24 * time.Hour)},
		Store:  StoreConfig{Backend: "memory", MongoDatabase: "uvlkit", MongoCollection: "models"},
		Solve:  SolveConfig{Timeout: Duration(30 * time.Second)},
	}
}

// Load reads a TOML configuration file, layering it over the defaults. An
// empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "reading config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "parsing config %s", path)
	}
	return cfg, nil
}

// NewCache builds the configured cache backend.
func (c CacheConfig) NewCache(ctx context.Context) (cache.Cache, error) {
	switch c.Backend {
	case "", "none":
		return cache.NewNullCache(), nil
	case "file":
		dir := c.Dir
		if dir == "" {
			base, err := os.UserCacheDir()
			if err != nil {
				return nil, err
			}
			dir = base + "/uvlkit"
		}
		return cache.NewFileCache(dir)
	case "redis":
		return cache.NewRedisCache(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB)
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Backend)
}

// NewStore builds the configured model store backend.
func (c StoreConfig) NewStore(ctx context.Context) (store.Store, error) {
	switch c.Backend {
	case "", "memory":
		return store.NewMemoryStore(), nil
	case "mongo":
		return store.NewMongoStore(ctx, c.MongoURI, c.MongoDatabase, c.MongoCollection)
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown store backend %q", c.Backend)
}
