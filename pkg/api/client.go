// Package api is a client for the knowledge-graph search API.
//
// The API exposes a single endpoint:
//
//	GET /api/search-node/{keyword}
//
// returning a [model.SearchResponse]. The response envelope is decoded
// whatever the status code, so a 404 with {"success":false,"error":"Node not
// found"} reaches the caller as a payload rather than a transport error.
// Network failures and 5xx responses are retried with exponential backoff.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/influencegraph/pkg/cache"
	"github.com/matzehuels/influencegraph/pkg/model"
	"github.com/matzehuels/influencegraph/pkg/observability"
)

// DefaultBaseURL is where the search API listens in local development.
const DefaultBaseURL = "http://localhost:8000"

// SearchPath is the search endpoint prefix.
const SearchPath = "/api/search-node/"

const (
	httpTimeout     = 10 * time.Second
	defaultAttempts = 3
	defaultDelay    = time.Second
	maxBodySize     = 64 << 20
)

// Client fetches search results. It implements loader.Fetcher.
type Client struct {
	baseURL  string
	http     *http.Client
	cache    cache.Cache
	keyer    cache.Keyer
	ttl      time.Duration
	refresh  bool
	attempts int
	delay    time.Duration
	logger   *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithCache caches successful responses for ttl.
func WithCache(ch cache.Cache, ttl time.Duration) Option {
	return func(c *Client) { c.cache, c.ttl = ch, ttl }
}

// WithKeyer sets the cache keyer.
func WithKeyer(k cache.Keyer) Option {
	return func(c *Client) { c.keyer = k }
}

// WithRefresh bypasses cached entries; fresh responses are still stored.
func WithRefresh(refresh bool) Option {
	return func(c *Client) { c.refresh = refresh }
}

// WithRetry sets the number of attempts and the initial backoff delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) { c.attempts, c.delay = attempts, delay }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for the API at baseURL. An empty baseURL means
// DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: httpTimeout},
		cache:    cache.NewNullCache(),
		keyer:    cache.NewDefaultKeyer(),
		ttl:      cache.DefaultSearchTTL,
		attempts: defaultAttempts,
		delay:    defaultDelay,
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

// SearchURL returns the request URL for keyword.
func (c *Client) SearchURL(keyword string) string {
	return c.baseURL + SearchPath + url.PathEscape(keyword)
}

// Search fetches the neighbourhood of keyword.
//
// The returned error is non-nil only for transport failures, non-JSON bodies
// and exhausted retries; an unsuccessful payload is returned as is.
func (c *Client) Search(ctx context.Context, keyword string) (*model.SearchResponse, error) {
	key := c.keyer.SearchKey(c.baseURL, keyword)
	hooks := observability.Cache()

	if !c.refresh {
		if data, ok, _ := c.cache.Get(ctx, key); ok {
			var resp model.SearchResponse
			if err := json.Unmarshal(data, &resp); err == nil {
				hooks.OnCacheHit(ctx, "search")
				c.logger.Debug("search cache hit", "keyword", keyword)
				return &resp, nil
			}
		}
		hooks.OnCacheMiss(ctx, "search")
	}

	var resp *model.SearchResponse
	err := cache.Retry(ctx, c.attempts, c.delay, func() error {
		r, err := c.fetch(ctx, keyword)
		if err != nil {
			if cache.IsRetryable(err) {
				c.logger.Warn("search request failed, retrying", "keyword", keyword, "error", err)
			}
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if resp.Success {
		if data, err := json.Marshal(resp); err == nil {
			if err := c.cache.Set(ctx, key, data, c.ttl); err == nil {
				hooks.OnCacheSet(ctx, "search", len(data))
			}
		}
	}
	return resp, nil
}

func (c *Client) fetch(ctx context.Context, keyword string) (*model.SearchResponse, error) {
	target := c.SearchURL(keyword)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	res, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	defer res.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, res.StatusCode, time.Since(start))

	if res.StatusCode >= 500 {
		return nil, cache.Retryable(fmt.Errorf("%w: status %d", cache.ErrNetwork, res.StatusCode))
	}

	var resp model.SearchResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, maxBodySize)).Decode(&resp); err != nil {
		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: status %d", cache.ErrNetwork, res.StatusCode)
		}
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &resp, nil
}
