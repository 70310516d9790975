package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/influencegraph/pkg/cache"
	"github.com/matzehuels/influencegraph/pkg/filter"
	"github.com/matzehuels/influencegraph/pkg/graph"
	"github.com/matzehuels/influencegraph/pkg/layout"
	"github.com/matzehuels/influencegraph/pkg/loader"
	"github.com/matzehuels/influencegraph/pkg/model"
	"github.com/matzehuels/influencegraph/pkg/render"
)

// Runner executes pipelines against a search source with caching.
//
// The Runner holds no per-run state; multiple goroutines may share one.
type Runner struct {
	Fetcher loader.Fetcher
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching and a nil keyer
// uses the default keyer.
func NewRunner(f loader.Fetcher, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Fetcher: f, Cache: c, Keyer: keyer, Logger: logger}
}

// cachedGraph is the cache envelope of a laid-out graph.
type cachedGraph struct {
	Focus model.ID         `json:"focus"`
	Mode  string           `json:"mode"`
	Graph graph.Serialized `json:"graph"`
}

// Execute runs load, layout and render.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result, err := r.Graph(ctx, &opts)
	if err != nil {
		return nil, err
	}

	renderStart := time.Now()
	artifacts, hit, err := r.renderAll(ctx, result, &opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = hit

	r.Logger.Debug("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)
	return result, nil
}

// Graph loads and lays out the graph for opts, from the cache when
// possible. Artifacts are left empty.
func (r *Runner) Graph(ctx context.Context, opts *Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	key := r.Keyer.GraphKey(opts.Keyword, opts.GraphKeyOpts())

	if !opts.Refresh {
		if res, ok := r.cachedGraph(ctx, key, opts); ok {
			return res, nil
		}
	}

	res := &Result{Keyword: opts.Keyword, Layout: opts.layoutMode}

	loadStart := time.Now()
	ld := loader.New(r.Fetcher, loader.WithLogger(r.Logger), loader.WithSeed(opts.Seed))
	loaded, err := ld.Load(ctx, opts.Keyword, opts.Filters)
	if err != nil {
		return nil, err
	}
	res.Graph, res.Focus, res.Mode = loaded.Graph, loaded.Focus, loaded.Mode
	res.Stats.LoadTime = time.Since(loadStart)
	res.Stats.NodeCount = res.Graph.NodeCount()
	res.Stats.EdgeCount = res.Graph.EdgeCount()

	r.Logger.Info("loaded graph",
		"keyword", opts.Keyword,
		"mode", res.Mode,
		"nodes", res.Stats.NodeCount,
		"edges", res.Stats.EdgeCount,
		"duration", res.Stats.LoadTime)

	layoutStart := time.Now()
	if err := ApplyLayout(ctx, res.Graph, opts.layoutMode, opts.Iterations); err != nil {
		return nil, err
	}
	res.Stats.LayoutTime = time.Since(layoutStart)

	r.Logger.Debug("computed layout",
		"layout", opts.layoutMode,
		"iterations", opts.Iterations,
		"duration", res.Stats.LayoutTime)

	env := cachedGraph{Focus: res.Focus, Mode: res.Mode.String(), Graph: graph.Export(res.Graph)}
	if data, err := json.Marshal(env); err == nil {
		res.GraphHash = cache.Hash(data)
		_ = r.Cache.Set(ctx, key, data, cache.DefaultGraphTTL)
	}
	return res, nil
}

func (r *Runner) cachedGraph(ctx context.Context, key string, opts *Options) (*Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		return nil, false
	}
	var env cachedGraph
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false
	}
	g, err := graph.Import(env.Graph)
	if err != nil {
		return nil, false
	}
	mode, err := filter.ParseMode(env.Mode)
	if err != nil {
		return nil, false
	}
	r.Logger.Debug("graph cache hit", "keyword", opts.Keyword)
	return &Result{
		Keyword:   opts.Keyword,
		Focus:     env.Focus,
		Mode:      mode,
		Layout:    opts.layoutMode,
		Graph:     g,
		GraphHash: cache.Hash(data),
		Stats:     Stats{NodeCount: g.NodeCount(), EdgeCount: g.EdgeCount()},
		CacheInfo: CacheInfo{GraphHit: true},
	}, true
}

// ApplyLayout positions g. Force-directed layouts start from the circular
// assignment, as the interactive controller does.
func ApplyLayout(ctx context.Context, g *graph.Graph, m layout.Mode, iterations int) error {
	layout.Circular(g)
	if m != layout.ModeForceAtlas {
		return nil
	}
	if err := layout.Run(ctx, g, layout.DefaultSettings(), iterations); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	return nil
}

func (r *Runner) renderAll(ctx context.Context, res *Result, opts *Options) (map[render.Format][]byte, bool, error) {
	artifacts := make(map[render.Format][]byte, len(opts.Formats))
	allCached := true

	for _, f := range opts.Formats {
		key := ""
		if res.GraphHash != "" {
			key = r.Keyer.ArtifactKey(res.GraphHash, opts.artifactVariant(f))
			if !opts.Refresh {
				if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
					artifacts[f] = data
					continue
				}
			}
		}
		allCached = false

		data, err := Render(ctx, res.Graph, f, opts)
		if err != nil {
			return nil, false, fmt.Errorf("render %s: %w", f, err)
		}
		artifacts[f] = data
		if key != "" {
			_ = r.Cache.Set(ctx, key, data, cache.DefaultGraphTTL)
		}
	}
	return artifacts, allCached, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
