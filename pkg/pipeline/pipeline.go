// Package pipeline runs the load → layout → render sequence shared by the
// CLI and the HTTP server.
//
// # Stages
//
//  1. Load: search the keyword and build the filtered graph ([loader])
//  2. Layout: circular assignment, or a circular pre-pass followed by a fixed
//     number of ForceAtlas2 iterations ([layout])
//  3. Render: graphology JSON, DOT, SVG, PNG or PDF ([render])
//
// The laid-out graph and every rendered artifact are cached, keyed by the
// keyword and every option that changes the output.
//
// # Usage
//
//	runner := pipeline.NewRunner(apiClient, cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Keyword: "Sailor Shift",
//	    Filters: filter.Filters{Switch2: true},
//	    Formats: []render.Format{render.FormatSVG},
//	})
//	svg := result.Artifacts[render.FormatSVG]
//
// [loader]: github.com/matzehuels/influencegraph/pkg/loader
// [layout]: github.com/matzehuels/influencegraph/pkg/layout
// [render]: github.com/matzehuels/influencegraph/pkg/render
package pipeline

import (
	"strconv"
	"time"

	"github.com/matzehuels/influencegraph/pkg/cache"
	"github.com/matzehuels/influencegraph/pkg/errors"
	"github.com/matzehuels/influencegraph/pkg/filter"
	"github.com/matzehuels/influencegraph/pkg/graph"
	"github.com/matzehuels/influencegraph/pkg/layout"
	"github.com/matzehuels/influencegraph/pkg/loader"
	"github.com/matzehuels/influencegraph/pkg/model"
	"github.com/matzehuels/influencegraph/pkg/render"
)

// Defaults shared by the CLI and the server.
const (
	DefaultSeed       = uint64(loader.DefaultSeed)
	DefaultIterations = layout.DefaultIterations
	DefaultPNGScale   = 2.0
)

// Options configures a pipeline run.
type Options struct {
	Keyword string `json:"keyword"`

	// Filters are the UI toggles. Mode, when set, overrides the mode they
	// imply.
	Filters filter.Filters `json:"filters"`
	Mode    string         `json:"mode,omitempty"`

	// Layout defaults to Filters.LayoutType.
	Layout     string `json:"layout,omitempty"`
	Iterations int    `json:"iterations,omitempty"`
	Seed       uint64 `json:"seed,omitempty"`

	Formats    []render.Format `json:"formats,omitempty"`
	Labels     bool            `json:"labels,omitempty"`
	EdgeLabels bool            `json:"edge_labels,omitempty"`
	PNGScale   float64         `json:"png_scale,omitempty"`

	Refresh bool `json:"refresh,omitempty"`

	filterMode filter.Mode
	layoutMode layout.Mode
	validated  bool
}

// Result holds the outputs of a run.
type Result struct {
	Keyword   string
	Focus     model.ID
	Mode      filter.Mode
	Layout    layout.Mode
	Graph     *graph.Graph
	GraphHash string
	Artifacts map[render.Format][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains timing and size information.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks which stages were served from the cache.
type CacheInfo struct {
	GraphHit  bool // load and layout
	RenderHit bool // every artifact
}

// ValidateAndSetDefaults checks the options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := errors.ValidateKeyword(o.Keyword); err != nil {
		return err
	}

	o.filterMode = o.Filters.Mode()
	if o.Mode != "" {
		m, err := filter.ParseMode(o.Mode)
		if err != nil {
			return err
		}
		o.filterMode = m
		o.Filters = o.Filters.WithMode(m)
	}

	if o.Layout == "" {
		o.Layout = o.Filters.LayoutType
	}
	if o.Layout == "" {
		o.Layout = filter.LayoutForceAtlas
	}
	lm, err := layout.ParseMode(o.Layout)
	if err != nil {
		return err
	}
	o.layoutMode = lm
	o.Layout = string(lm)

	if o.Iterations == 0 {
		o.Iterations = DefaultIterations
	}
	if o.Iterations < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "iterations must not be negative")
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}

	if len(o.Formats) == 0 {
		o.Formats = []render.Format{render.FormatJSON}
	}
	for _, f := range o.Formats {
		if _, err := render.ParseFormat(string(f)); err != nil {
			return err
		}
	}
	if o.PNGScale <= 0 {
		o.PNGScale = DefaultPNGScale
	}
	o.validated = true
	return nil
}

// GraphKeyOpts returns the cache key options for the laid-out graph.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	return cache.GraphKeyOpts{
		Mode:             o.filterMode.String(),
		CollaboratedWith: o.Filters.CollaboratedWith,
		Influenced:       o.Filters.Influenced,
		Layout:           o.Layout,
		Iterations:       o.Iterations,
		Seed:             o.Seed,
	}
}

// artifactVariant distinguishes renders of the same graph.
func (o *Options) artifactVariant(f render.Format) string {
	v := string(f)
	if o.Labels {
		v += "+labels"
	}
	if o.EdgeLabels {
		v += "+edgelabels"
	}
	if f == render.FormatPNG {
		v += "@" + strconv.FormatFloat(o.PNGScale, 'f', -1, 64)
	}
	return v
}
