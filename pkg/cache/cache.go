// Package cache stores search payloads and rendered graphs.
//
// Three backends implement [Cache]:
//
//   - [FileCache] keeps entries as JSON files under the user cache directory
//     (CLI default);
//   - [RedisCache] shares entries between server replicas;
//   - [NullCache] disables caching.
//
// Keys are built by a [Keyer] so that every surface derives identical keys for
// identical inputs. The package also carries the retry helpers used by the
// search API client.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache is a byte-oriented key-value store with per-entry TTL.
type Cache interface {
	// Get returns the value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero TTL means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Default TTLs.
const (
	DefaultSearchTTL = 24 * time.Hour
	DefaultGraphTTL  = 7 * 24 * time.Hour
)

// =============================================================================
// Keys
// =============================================================================

// GraphKeyOpts are the inputs that change a built and laid out graph.
type GraphKeyOpts struct {
	Mode             string `json:"mode"`
	CollaboratedWith bool   `json:"collaborated_with"`
	Influenced       bool   `json:"influenced"`
	Layout           string `json:"layout"`
	Iterations       int    `json:"iterations"`
	Seed             uint64 `json:"seed"`
}

// Keyer derives cache keys.
type Keyer interface {
	// SearchKey identifies a search payload fetched from endpoint.
	SearchKey(endpoint, keyword string) string

	// GraphKey identifies a built graph.
	GraphKey(keyword string, opts GraphKeyOpts) string

	// ArtifactKey identifies a rendered output of a graph.
	ArtifactKey(graphHash, format string) string
}

// DefaultKeyer builds namespaced keys. Keywords are matched
// case-insensitively by the search API, so they are lowercased first.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SearchKey returns "search:<hash>".
func (DefaultKeyer) SearchKey(endpoint, keyword string) string {
	return hashKey("search", endpoint, strings.ToLower(keyword))
}

// GraphKey returns "graph:<hash>".
func (DefaultKeyer) GraphKey(keyword string, opts GraphKeyOpts) string {
	return hashKey("graph", strings.ToLower(keyword), opts)
}

// ArtifactKey returns "artifact:<hash>".
func (DefaultKeyer) ArtifactKey(graphHash, format string) string {
	return hashKey("artifact", graphHash, format)
}
