package cli

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/influencegraph/pkg/api"
	"github.com/matzehuels/influencegraph/pkg/buildinfo"
	"github.com/matzehuels/influencegraph/pkg/cache"
	"github.com/matzehuels/influencegraph/pkg/config"
	"github.com/matzehuels/influencegraph/pkg/dataset"
	"github.com/matzehuels/influencegraph/pkg/errors"
	"github.com/matzehuels/influencegraph/pkg/render"
	"github.com/matzehuels/influencegraph/pkg/store"
)

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), cfg: config.Default()}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Config returns the loaded settings.
func (c *CLI) Config() *config.Config { return c.cfg }

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "influencegraph explores music influence networks",
		Long: `influencegraph searches a music knowledge graph for an artist, song or label,
filters the neighbourhood by influence or collaboration, lays it out and renders it.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(c.searchCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Factories
// =============================================================================

// newCache opens the configured response cache.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	cc := c.cfg.Cache
	switch cc.Backend {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cc.RedisAddr,
			Password: cc.RedisPassword,
			DB:       cc.RedisDB,
			Prefix:   cc.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	case config.CacheNone:
		return cache.NewNullCache(), nil
	default:
		dir, err := c.cacheDir()
		if err != nil {
			c.Logger.Warn("cache disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	}
}

// cacheDir returns the file cache directory.
func (c *CLI) cacheDir() (string, error) {
	if c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir, nil
	}
	return cache.DefaultDir()
}

// newClient creates a search API client using the configured cache.
func (c *CLI) newClient(ch cache.Cache, refresh bool) *api.Client {
	ac := c.cfg.API
	return api.NewClient(ac.URL,
		api.WithCache(ch, c.cfg.Cache.TTL.Duration),
		api.WithRefresh(refresh),
		api.WithRetry(ac.Retries, time.Second),
		api.WithLogger(c.Logger),
		api.WithTimeout(ac.Timeout.Duration),
	)
}

// openStore connects to a graph store. An empty backend uses the configured
// one.
func (c *CLI) openStore(ctx context.Context, backend string) (store.Backend, error) {
	sc := c.cfg.Store
	if backend == "" {
		backend = sc.Backend
	}
	switch backend {
	case config.StoreMemory:
		m := store.NewMemory()
		if sc.Dataset == "" {
			return m, nil
		}
		d, err := dataset.ReadFile(sc.Dataset)
		if err != nil {
			return nil, err
		}
		stats, err := m.Import(ctx, d, store.ImportOptions{})
		if err != nil {
			return nil, err
		}
		c.Logger.Info("loaded dataset", "path", sc.Dataset, "stats", stats.String())
		return m, nil
	case config.StoreNeo4j:
		s, err := store.NewNeo4j(ctx, store.Neo4jConfig{
			URI:      sc.Neo4jURI,
			User:     sc.Neo4jUser,
			Password: sc.Neo4jPassword,
			Database: sc.Neo4jDatabase,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreMongo:
		s, err := store.NewMongo(ctx, store.MongoConfig{URI: sc.MongoURI, Database: sc.MongoDatabase})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown store %q (want memory, neo4j or mongo)", backend)
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format list. Empty means JSON.
func parseFormats(s string) ([]render.Format, error) {
	if s == "" {
		return []render.Format{render.FormatJSON}, nil
	}
	var out []render.Format
	for _, part := range strings.Split(s, ",") {
		f, err := render.ParseFormat(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
