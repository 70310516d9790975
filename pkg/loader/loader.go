package loader

import (
	"context"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/influencegraph/pkg/errors"
	"github.com/matzehuels/influencegraph/pkg/filter"
	"github.com/matzehuels/influencegraph/pkg/model"
	"github.com/matzehuels/influencegraph/pkg/observability"
)

// DefaultSeed seeds initial node positions when no seed is configured.
const DefaultSeed = 42

// Fetcher retrieves the search payload for a keyword.
//
// A decodable payload is returned with a nil error even when its success flag
// is false; errors are reserved for transport and decode failures.
type Fetcher interface {
	Search(ctx context.Context, keyword string) (*model.SearchResponse, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, keyword string) (*model.SearchResponse, error)

// Search calls f.
func (f FetcherFunc) Search(ctx context.Context, keyword string) (*model.SearchResponse, error) {
	return f(ctx, keyword)
}

// Loader builds graphs from search results. It is safe for concurrent use.
type Loader struct {
	fetcher Fetcher
	logger  *log.Logger

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithSeed seeds the position generator.
func WithSeed(seed uint64) Option {
	return func(ld *Loader) { ld.rng = newRand(seed) }
}

// New creates a Loader reading from f.
func New(f Fetcher, opts ...Option) *Loader {
	l := &Loader{
		fetcher: f,
		logger:  log.NewWithOptions(io.Discard, log.Options{}),
		rng:     newRand(DefaultSeed),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// Load fetches the keyword and builds its graph. An empty keyword is rejected
// without a fetch.
func (l *Loader) Load(ctx context.Context, keyword string, f filter.Filters) (*Result, error) {
	if keyword == "" {
		return nil, errors.New(errors.ErrCodeInvalidKeyword, "keyword cannot be empty")
	}

	hooks := observability.Graph()
	hooks.OnLoadStart(ctx, keyword)
	start := time.Now()

	res, err := l.load(ctx, keyword, f)

	mode, nodes, edges := "", 0, 0
	if res != nil {
		mode, nodes, edges = res.Mode.String(), res.Graph.NodeCount(), res.Graph.EdgeCount()
	}
	hooks.OnLoadComplete(ctx, keyword, mode, nodes, edges, time.Since(start), err)
	return res, err
}

func (l *Loader) load(ctx context.Context, keyword string, f filter.Filters) (*Result, error) {
	resp, err := l.fetcher.Search(ctx, keyword)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeSuperseded, ctx.Err(), "load of %q cancelled", keyword)
		}
		l.logger.Error("error loading graph", "keyword", keyword, "error", err)
		return nil, errors.Wrap(errors.ErrCodeLoadFailed, err, errors.LoadFailedMessage)
	}

	if resp == nil || !resp.Success {
		msg := errors.LoadFailedMessage
		if resp != nil && resp.Error != "" {
			msg = resp.Error
		}
		l.logger.Debug("search unsuccessful", "keyword", keyword, "error", msg)
		return nil, errors.New(errors.ErrCodeLoadFailed, "%s", msg)
	}
	if resp.Data == nil {
		l.logger.Error("error loading graph", "keyword", keyword, "error", "payload has no data")
		return nil, errors.New(errors.ErrCodeLoadFailed, errors.LoadFailedMessage)
	}

	l.mu.Lock()
	res := Build(*resp.Data, keyword, f, l.rng)
	l.mu.Unlock()

	l.logger.Debug("built graph",
		"keyword", keyword,
		"focus", res.Focus,
		"mode", res.Mode,
		"nodes", res.Graph.NodeCount(),
		"edges", res.Graph.EdgeCount(),
		"skipped_nodes", res.Skipped.Nodes,
		"skipped_edges", res.Skipped.Edges)
	return res, nil
}
