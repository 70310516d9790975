package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/influencegraph/pkg/errors"
)

// isolate points the config dir at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, k := range []string{EnvAPIURL, EnvDBHost, EnvDBPassword, EnvRedisAddr, EnvMongoURI} {
		t.Setenv(k, "")
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.URL != "http://localhost:8000" || cfg.API.Timeout.Duration != 10*time.Second {
		t.Errorf("api = %+v", cfg.API)
	}
	if cfg.Layout.Mode != "forceatlas" || cfg.Layout.Seed != 42 {
		t.Errorf("layout = %+v", cfg.Layout)
	}
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.toml")
	content := `
[api]
url = "http://api.example:9000"
timeout = "3s"

[cache]
backend = "none"

[store]
backend = "memory"
dataset = "mc1.json"

[layout]
mode = "circular"
iterations = 50
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.URL != "http://api.example:9000" || cfg.API.Timeout.Duration != 3*time.Second {
		t.Errorf("api = %+v", cfg.API)
	}
	if cfg.Cache.Backend != CacheNone || cfg.Store.Backend != StoreMemory || cfg.Store.Dataset != "mc1.json" {
		t.Errorf("cache = %+v, store = %+v", cfg.Cache, cfg.Store)
	}
	if cfg.Layout.Iterations != 50 {
		t.Errorf("iterations = %d", cfg.Layout.Iterations)
	}
	// Unset keys keep their defaults.
	if cfg.API.Retries != 3 {
		t.Errorf("retries = %d", cfg.API.Retries)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "missing.toml"))
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvAPIURL, "http://other:8000")
	t.Setenv(EnvDBHost, "db")
	t.Setenv(EnvDBPassword, "secret")
	t.Setenv(EnvRedisAddr, "redis:6379")
	t.Setenv(EnvMongoURI, "mongodb://mongo:27017")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct{ name, got, want string }{
		{"api url", cfg.API.URL, "http://other:8000"},
		{"neo4j uri", cfg.Store.Neo4jURI, "bolt://db:7687"},
		{"neo4j password", cfg.Store.Neo4jPassword, "secret"},
		{"redis", cfg.Cache.RedisAddr, "redis:6379"},
		{"mongo", cfg.Store.MongoURI, "mongodb://mongo:27017"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"bad cache", func(c *Config) { c.Cache.Backend = "memcached" }, false},
		{"bad store", func(c *Config) { c.Store.Backend = "sqlite" }, false},
		{"redis without addr", func(c *Config) { c.Cache.Backend = CacheRedis }, false},
		{"redis with addr", func(c *Config) { c.Cache.Backend = CacheRedis; c.Cache.RedisAddr = "x:1" }, true},
		{"negative iterations", func(c *Config) { c.Layout.Iterations = -1 }, false},
		{"zero retries", func(c *Config) { c.API.Retries = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v", err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := isolate(t)
	cfg := Default()
	cfg.Server.Addr = ":9999"
	cfg.Cache.TTL = Duration{time.Hour}
	if err := Save(cfg, DefaultPath()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, AppName, "config.toml")); err != nil {
		t.Fatal(err)
	}
	got, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if got.Server.Addr != ":9999" || got.Cache.TTL.Duration != time.Hour {
		t.Errorf("round trip = %+v", got)
	}
}
