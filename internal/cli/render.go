package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/matzehuels/influencegraph/pkg/cache"
	"github.com/matzehuels/influencegraph/pkg/dataset"
	"github.com/matzehuels/influencegraph/pkg/filter"
	"github.com/matzehuels/influencegraph/pkg/loader"
	"github.com/matzehuels/influencegraph/pkg/pipeline"
	"github.com/matzehuels/influencegraph/pkg/render"
	"github.com/matzehuels/influencegraph/pkg/store"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	output     string // output file (single format) or base path; "-" writes to stdout
	formats    string
	dataset    string // render from an MC1 file instead of the search API
	filters    filter.Filters
	mode       string
	layout     string
	iterations int
	seed       uint64
	labels     bool
	edgeLabels bool
	pngScale   float64
	noCache    bool
	refresh    bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render <keyword>",
		Short: "Load, filter, lay out and write the graph around a keyword",
		Example: `  influencegraph render "Sailor Shift" --influence-only -f svg
  influencegraph render "Sailor Shift" --influenced --layout circular -f json,dot -o sailor
  influencegraph render "Sailor Shift" --dataset MC1_graph.json -f png --labels`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], &opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple); - for stdout")
	f.StringVarP(&opts.formats, "format", "f", "", "output format(s): json (default), dot, svg, png, pdf (comma-separated)")
	f.StringVar(&opts.dataset, "dataset", "", "read an MC1 dataset instead of querying the search API")
	f.BoolVar(&opts.filters.Switch2, "influence-only", false, "only influence relations touching the focus node")
	f.BoolVar(&opts.filters.CollaboratedWith, "collaborated-with", false, "collaborations of the focus node")
	f.BoolVar(&opts.filters.Influenced, "influenced", false, "influences on the focus node")
	f.StringVar(&opts.mode, "mode", "", "filter mode: full, influence or directional (overrides the toggles)")
	f.StringVar(&opts.layout, "layout", "", "layout: forceatlas (default) or circular")
	f.IntVar(&opts.iterations, "iterations", 0, "ForceAtlas2 iterations")
	f.Uint64Var(&opts.seed, "seed", 0, "seed for initial positions")
	f.BoolVar(&opts.labels, "labels", false, "draw node labels")
	f.BoolVar(&opts.edgeLabels, "edge-labels", false, "draw relation labels")
	f.Float64Var(&opts.pngScale, "scale", pipeline.DefaultPNGScale, "PNG scale factor")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	f.BoolVar(&opts.refresh, "refresh", false, "bypass cached responses and artifacts")

	_ = cmd.RegisterFlagCompletionFunc("mode", completeNames("full", "influence", "directional"))
	_ = cmd.RegisterFlagCompletionFunc("layout", completeNames(filter.LayoutForceAtlas, filter.LayoutCircular))
	_ = cmd.RegisterFlagCompletionFunc("format", completeNames(formatNames()...))

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, keyword string, opts *renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	formats, err := parseFormats(opts.formats)
	if err != nil {
		return err
	}
	popts := pipeline.Options{
		Keyword:    keyword,
		Filters:    opts.filters,
		Mode:       opts.mode,
		Layout:     opts.layout,
		Iterations: opts.iterations,
		Seed:       opts.seed,
		Formats:    formats,
		Labels:     opts.labels,
		EdgeLabels: opts.edgeLabels,
		PNGScale:   opts.pngScale,
		Refresh:    opts.refresh,
	}
	if popts.Layout == "" {
		popts.Layout = c.cfg.Layout.Mode
	}
	if popts.Iterations == 0 {
		popts.Iterations = c.cfg.Layout.Iterations
	}
	if popts.Seed == 0 {
		popts.Seed = c.cfg.Layout.Seed
	}
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	ch, err := c.newCache(ctx, opts.noCache)
	if err != nil {
		return err
	}
	fetcher, err := c.renderFetcher(ctx, ch, opts)
	if err != nil {
		ch.Close()
		return err
	}

	var keyer cache.Keyer
	if opts.dataset != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), "dataset:"+opts.dataset)
	}
	runner := pipeline.NewRunner(fetcher, ch, keyer, logger)
	defer runner.Close()

	prog := newProgress(logger)
	res, err := runner.Execute(ctx, popts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %q (%s, %s)", keyword, res.Mode, res.Layout))
	if res.Focus.IsZero() {
		logger.Warn("no node named like the keyword; showing the full result", "keyword", keyword)
	}
	logger.Debug("stages", "load", res.Stats.LoadTime, "layout", res.Stats.LayoutTime, "render", res.Stats.RenderTime)

	out := cmd.ErrOrStderr()
	if opts.output == "-" {
		for _, f := range formats {
			if _, err := cmd.OutOrStdout().Write(res.Artifacts[f]); err != nil {
				return err
			}
		}
		return nil
	}

	base := basePath(opts.output, keyword)
	for _, f := range formats {
		path := base + "." + string(f)
		if len(formats) == 1 && opts.output != "" && hasFormatExt(opts.output) {
			path = opts.output
		}
		if err := writeFile(path, res.Artifacts[f]); err != nil {
			return err
		}
		printFile(out, path)
	}
	printStats(out, res.Stats.NodeCount, res.Stats.EdgeCount, res.CacheInfo.GraphHit)
	return nil
}

// renderFetcher returns the search source: an in-memory store for --dataset,
// otherwise the API client.
func (c *CLI) renderFetcher(ctx context.Context, ch cache.Cache, opts *renderOpts) (loader.Fetcher, error) {
	if opts.dataset == "" {
		return c.newClient(ch, opts.refresh), nil
	}

	d, err := dataset.ReadFile(opts.dataset)
	if err != nil {
		return nil, err
	}
	m := store.NewMemory()
	stats, err := m.Import(ctx, d, store.ImportOptions{})
	if err != nil {
		return nil, err
	}
	loggerFromContext(ctx).Debug("loaded dataset", "path", opts.dataset, "stats", stats.String())
	return store.Fetcher{Store: m}, nil
}

func formatNames() []string {
	names := make([]string, len(render.Formats))
	for i, f := range render.Formats {
		names[i] = string(f)
	}
	return names
}

func hasFormatExt(path string) bool {
	_, err := render.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	return filepath.Ext(path) != "" && err == nil
}

// basePath derives the output base path. Without an explicit output the
// keyword is turned into a file name.
func basePath(output, keyword string) string {
	if output == "" {
		return slug(keyword)
	}
	if hasFormatExt(output) {
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	return output
}

// slug lowercases s and keeps letters and digits, joining words with "_".
func slug(s string) string {
	var b strings.Builder
	gap := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if gap && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			gap = false
			continue
		}
		gap = true
	}
	if b.Len() == 0 {
		return "graph"
	}
	return b.String()
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
