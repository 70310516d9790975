// Package store provides the graph backends behind the search API.
//
// A search matches every node whose name contains the term (literally,
// ignoring case) or whose identifier equals it. The result holds the first
// match, the distinct neighbours of all matches and the distinct relationships
// incident to them. No match yields [ErrNotFound].
//
// Backends:
//
//   - [Memory] holds a dataset in process (tests, demos, single-binary serve);
//   - [Neo4j] queries a Neo4j database with Cypher;
//   - [Mongo] keeps nodes and edges in two MongoDB collections.
//
// All backends also implement [Importer] to load a parsed dataset.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matzehuels/influencegraph/pkg/dataset"
	"github.com/matzehuels/influencegraph/pkg/model"
)

// ErrNotFound is returned by Search when no node matches.
var ErrNotFound = errors.New("node not found")

// Store answers search queries.
type Store interface {
	Search(ctx context.Context, term string) (*model.SearchData, error)
	Close(ctx context.Context) error
}

// ImportOptions controls Import.
type ImportOptions struct {
	// Clear removes existing data first.
	Clear bool
	// BatchSize bounds the records written per round trip. Zero means
	// DefaultBatchSize.
	BatchSize int
}

// DefaultBatchSize is the import batch size.
const DefaultBatchSize = 1000

// ImportStats reports what Import wrote.
type ImportStats struct {
	Nodes        int
	Edges        int
	SkippedEdges int // edges whose endpoints are not in the dataset
}

func (s ImportStats) String() string {
	return fmt.Sprintf("%d nodes, %d edges (%d skipped)", s.Nodes, s.Edges, s.SkippedEdges)
}

// Importer loads a dataset into a backend.
type Importer interface {
	Import(ctx context.Context, d *dataset.Dataset, opts ImportOptions) (ImportStats, error)
}

// Backend is a store that can also be loaded.
type Backend interface {
	Store
	Importer
}

func (o ImportOptions) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return DefaultBatchSize
}

// Matches reports whether n matches a search term.
func Matches(n model.Node, term string) bool {
	if string(n.ID) == term {
		return true
	}
	return n.Name != "" && strings.Contains(strings.ToLower(n.Name), strings.ToLower(term))
}

// edgeKey identifies a relationship for de-duplication. Identical parallel
// relationships collapse into one search result edge.
type edgeKey struct {
	source, target model.ID
	typ            model.EdgeType
}

// assemble builds a search result from the matched nodes, the incident edges
// and a lookup for neighbour records. Neighbours keep first-seen order and
// exclude the main node.
func assemble(matches []model.Node, incident []model.Edge, lookup func(model.ID) (model.Node, bool)) *model.SearchData {
	main := matches[0]
	matched := make(map[model.ID]bool, len(matches))
	for _, m := range matches {
		matched[m.ID] = true
	}

	data := &model.SearchData{Nodes: []model.Node{main}, Edges: []model.Edge{}}
	seenNode := map[model.ID]bool{main.ID: true}
	seenEdge := make(map[edgeKey]bool)

	addNeighbour := func(id model.ID) {
		if seenNode[id] {
			return
		}
		if n, ok := lookup(id); ok {
			seenNode[id] = true
			data.Nodes = append(data.Nodes, n)
		}
	}

	for _, e := range incident {
		k := edgeKey{e.Source, e.Target, e.Type}
		if !seenEdge[k] {
			seenEdge[k] = true
			data.Edges = append(data.Edges, e)
		}
		if matched[e.Source] {
			addNeighbour(e.Target)
		}
		if matched[e.Target] {
			addNeighbour(e.Source)
		}
	}
	return data
}

// Fetcher adapts a Store to the loader's fetch contract: ErrNotFound becomes
// an unsuccessful payload, other errors are returned as is.
type Fetcher struct {
	Store Store
}

// Search runs the store search and wraps the result in a response envelope.
func (f Fetcher) Search(ctx context.Context, keyword string) (*model.SearchResponse, error) {
	data, err := f.Store.Search(ctx, keyword)
	if errors.Is(err, ErrNotFound) {
		return &model.SearchResponse{Success: false, Error: "Node not found"}, nil
	}
	if err != nil {
		return nil, err
	}
	return &model.SearchResponse{Success: true, Data: data}, nil
}
