// Package config loads giftgraph settings.
//
// Settings come from three layers, lowest priority first:
//
//  1. [Defaults]
//  2. a TOML file, by default $XDG_CONFIG_HOME/giftgraph/config.toml
//  3. GIFTGRAPH_* environment variables, optionally seeded from .env files
//     by [LoadEnvFiles]
//
// A minimal file:
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//	prefix = "giftgraph:prod:"
//
//	[server]
//	addr = ":8080"
//	cors_origins = ["https://gifts.example.com"]
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	gerrors "github.com/matzehuels/giftgraph/pkg/errors"
	"github.com/matzehuels/giftgraph/pkg/layout"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GIFTGRAPH_"

// Store backends.
const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// StoreBackends lists the accepted store backends.
var StoreBackends = []string{StoreFile, StoreMemory, StoreMongo}

// CacheBackends lists the accepted cache backends.
var CacheBackends = []string{CacheFile, CacheRedis, CacheNone}

// Config holds every setting.
type Config struct {
	Store  StoreConfig  `toml:"store"`
	Cache  CacheConfig  `toml:"cache"`
	Layout LayoutConfig `toml:"layout"`
	Server ServerConfig `toml:"server"`
	Neo4j  Neo4jConfig  `toml:"neo4j"`
}

// StoreConfig selects where users and gifts live.
type StoreConfig struct {
	Backend       string        `toml:"backend"`
	Path          string        `toml:"path"`
	MongoURI      string        `toml:"mongo_uri"`
	MongoDatabase string        `toml:"mongo_database"`
	Timeout       time.Duration `toml:"timeout"`
}

// CacheConfig selects where layouts and artifacts are cached.
type CacheConfig struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
	Prefix   string `toml:"prefix"`
}

// LayoutConfig holds the default viewport and simulation options.
type LayoutConfig struct {
	Width         float64 `toml:"width"`
	Height        float64 `toml:"height"`
	Seed          int64   `toml:"seed"`
	SeedMode      string  `toml:"seed_mode"`
	MaxTicks      int     `toml:"max_ticks"`
	WeightedLinks bool    `toml:"weighted_links"`
}

// ServerConfig configures `giftgraph serve`.
type ServerConfig struct {
	Addr            string        `toml:"addr"`
	CORSOrigins     []string      `toml:"cors_origins"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	Metrics         bool          `toml:"metrics"`
}

// Neo4jConfig configures `giftgraph export neo4j`.
type Neo4jConfig struct {
	URI      string `toml:"uri"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Database string `toml:"database"`
}

// Defaults returns the built-in configuration. Paths are left empty and
// resolved by the components that own them.
func Defaults() Config {
	return Config{
		Store: StoreConfig{
			Backend:       StoreFile,
			MongoDatabase: "giftgraph",
			Timeout:       10 * time.Second,
		},
		Cache: CacheConfig{
			Backend: CacheFile,
		},
		Layout: LayoutConfig{
			Width:    800,
			Height:   600,
			Seed:     layout.DefaultSeed,
			SeedMode: string(layout.SeedPhyllotaxis),
			MaxTicks: 600,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			CORSOrigins:     []string{"*"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Metrics:         true,
		},
		Neo4j: Neo4jConfig{
			URI:      "neo4j://localhost:7687",
			Username: "neo4j",
			Database: "neo4j",
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/giftgraph/config.toml, falling back
// to the platform's user config directory.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "giftgraph", "config.toml"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "giftgraph", "config.toml"), nil
}

// LoadEnvFiles loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
// With no arguments it loads ".env" from the working directory.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the configuration file at path, applies environment overrides
// and validates the result. An empty path means DefaultPath, which may be
// absent; an explicit path must exist.
func Load(path string) (Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, fmt.Errorf("locate config: %w", err)
		}
		path = p
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || explicit {
			return Config{}, gerrors.Wrap(gerrors.ErrCodeInvalidInput, err, "read config %s", path)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays GIFTGRAPH_* variables.
func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(name string, dst *float64) {
		if v := getenv(EnvPrefix + name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = f
		}
	}

	str("STORE", &c.Store.Backend)
	str("STORE_PATH", &c.Store.Path)
	str("MONGO_URI", &c.Store.MongoURI)
	str("MONGO_DATABASE", &c.Store.MongoDatabase)

	str("CACHE", &c.Cache.Backend)
	str("CACHE_DIR", &c.Cache.Dir)
	str("REDIS_URL", &c.Cache.RedisURL)
	str("CACHE_PREFIX", &c.Cache.Prefix)

	num("LAYOUT_WIDTH", &c.Layout.Width)
	num("LAYOUT_HEIGHT", &c.Layout.Height)
	str("LAYOUT_SEED_MODE", &c.Layout.SeedMode)
	if v := getenv(EnvPrefix + "LAYOUT_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sLAYOUT_SEED: %w", EnvPrefix, err))
		} else {
			c.Layout.Seed = seed
		}
	}

	str("ADDR", &c.Server.Addr)
	if v := getenv(EnvPrefix + "CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	str("NEO4J_URI", &c.Neo4j.URI)
	str("NEO4J_USERNAME", &c.Neo4j.Username)
	str("NEO4J_PASSWORD", &c.Neo4j.Password)
	str("NEO4J_DATABASE", &c.Neo4j.Database)

	if len(errs) > 0 {
		return gerrors.Wrap(gerrors.ErrCodeInvalidInput, errors.Join(errs...), "environment")
	}
	return nil
}

// Validate checks that backends are known and that the backend-specific
// settings they need are present.
func (c *Config) Validate() error {
	if !slices.Contains(StoreBackends, c.Store.Backend) {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "store.backend %q must be one of %v", c.Store.Backend, StoreBackends)
	}
	if c.Store.Backend == StoreMongo && c.Store.MongoURI == "" {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "store.mongo_uri is required for the mongo backend")
	}
	if !slices.Contains(CacheBackends, c.Cache.Backend) {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "cache.backend %q must be one of %v", c.Cache.Backend, CacheBackends)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisURL == "" {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "cache.redis_url is required for the redis backend")
	}
	if err := gerrors.ValidateViewport(c.Layout.Width, c.Layout.Height); err != nil {
		return err
	}
	if _, err := layout.ParseSeedMode(c.Layout.SeedMode); err != nil {
		return gerrors.Wrap(gerrors.ErrCodeInvalidInput, err, "layout.seed_mode")
	}
	if c.Layout.MaxTicks < 0 {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "layout.max_ticks must not be negative")
	}
	return nil
}

// Write encodes c as TOML to path, creating parent directories.
func Write(c Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
