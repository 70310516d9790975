// Package config loads influencegraph settings.
//
// Settings are resolved in order: built-in defaults, the TOML file
// ($XDG_CONFIG_HOME/influencegraph/config.toml unless a path is given), a
// .env file in the working directory, then environment variables. Command
// line flags are applied on top by the CLI.
//
//	[api]
//	url = "http://localhost:8000"
//	timeout = "10s"
//
//	[cache]
//	backend = "file"   # file, redis or none
//	ttl = "24h"
//
//	[store]
//	backend = "neo4j"  # memory, neo4j or mongo
//
//	[layout]
//	mode = "forceatlas"
//	iterations = 500
//
//	[server]
//	addr = ":8000"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	igerrors "github.com/matzehuels/influencegraph/pkg/errors"
)

// AppName names the config directory.
const AppName = "influencegraph"

// Environment variables that override file settings.
const (
	EnvAPIURL     = "INFLUENCEGRAPH_API_URL"
	EnvDBHost     = "DB_HOST"
	EnvDBPassword = "DB_PASSWORD"
	EnvRedisAddr  = "REDIS_ADDR"
	EnvMongoURI   = "MONGO_URI"
)

// Backend names.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"

	StoreMemory = "memory"
	StoreNeo4j  = "neo4j"
	StoreMongo  = "mongo"
)

// Duration is a time.Duration written as a string ("10s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds all settings.
type Config struct {
	API    APIConfig    `toml:"api"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Layout LayoutConfig `toml:"layout"`
	Server ServerConfig `toml:"server"`
}

// APIConfig locates the search API.
type APIConfig struct {
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`
	Retries int      `toml:"retries"`
}

// CacheConfig selects the response cache.
type CacheConfig struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"` // file backend; empty means the user cache dir
	TTL           Duration `toml:"ttl"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	Prefix        string   `toml:"prefix"`
}

// StoreConfig selects the graph store behind the search API server.
type StoreConfig struct {
	Backend       string `toml:"backend"`
	Dataset       string `toml:"dataset"` // MC1 JSON preloaded into the memory store
	Neo4jURI      string `toml:"neo4j_uri"`
	Neo4jUser     string `toml:"neo4j_user"`
	Neo4jPassword string `toml:"neo4j_password"`
	Neo4jDatabase string `toml:"neo4j_database"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// LayoutConfig holds the defaults for server and CLI layouts.
type LayoutConfig struct {
	Mode       string `toml:"mode"`
	Iterations int    `toml:"iterations"`
	Seed       uint64 `toml:"seed"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		API: APIConfig{
			URL:     "http://localhost:8000",
			Timeout: Duration{10 * time.Second},
			Retries: 3,
		},
		Cache: CacheConfig{
			Backend: CacheFile,
			TTL:     Duration{24 * time.Hour},
			Prefix:  AppName + ":",
		},
		Store: StoreConfig{
			Backend:       StoreNeo4j,
			Neo4jURI:      "bolt://localhost:7687",
			Neo4jUser:     "neo4j",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: AppName,
		},
		Layout: LayoutConfig{
			Mode:       "forceatlas",
			Iterations: 500,
			Seed:       42,
		},
		Server: ServerConfig{Addr: ":8000"},
	}
}

// Dir returns the config directory.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppName)
}

// DefaultPath returns the config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load resolves the settings. An empty path reads DefaultPath, which may be
// absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, igerrors.Wrap(igerrors.ErrCodeInvalidConfig, err, "read config %s", path)
		}
	}

	// A missing .env is normal.
	_ = godotenv.Load()
	cfg.applyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides settings from the environment.
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvAPIURL); v != "" {
		c.API.URL = v
	}
	if v := getenv(EnvDBHost); v != "" {
		c.Store.Neo4jURI = "bolt://" + v + ":7687"
	}
	if v := getenv(EnvDBPassword); v != "" {
		c.Store.Neo4jPassword = v
	}
	if v := getenv(EnvRedisAddr); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := getenv(EnvMongoURI); v != "" {
		c.Store.MongoURI = v
	}
}

// Validate checks backend names and numeric ranges.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return invalid("cache.backend", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case StoreMemory, StoreNeo4j, StoreMongo:
	default:
		return invalid("store.backend", c.Store.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		return igerrors.New(igerrors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis cache (or set %s)", EnvRedisAddr)
	}
	if c.Layout.Iterations < 0 {
		return invalid("layout.iterations", strconv.Itoa(c.Layout.Iterations))
	}
	if c.API.Retries < 1 {
		return invalid("api.retries", strconv.Itoa(c.API.Retries))
	}
	return nil
}

func invalid(key, value string) error {
	return igerrors.New(igerrors.ErrCodeInvalidConfig, "invalid %s %q", key, value)
}

// Save writes the settings to path, creating its directory.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
