package store

import (
	"context"
	"sync"

	"github.com/matzehuels/influencegraph/pkg/dataset"
	"github.com/matzehuels/influencegraph/pkg/model"
)

// Memory is an in-process store.
type Memory struct {
	mu    sync.RWMutex
	nodes []model.Node
	index map[model.ID]int
	edges []model.Edge
	adj   map[model.ID][]int // node -> incident edge indexes
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		index: make(map[model.ID]int),
		adj:   make(map[model.ID][]int),
	}
}

// Import adds the dataset. Later nodes with an existing identifier replace the
// stored record.
func (m *Memory) Import(_ context.Context, d *dataset.Dataset, opts ImportOptions) (ImportStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if opts.Clear {
		m.nodes = nil
		m.edges = nil
		m.index = make(map[model.ID]int)
		m.adj = make(map[model.ID][]int)
	}

	var stats ImportStats
	for _, n := range d.Nodes {
		if i, ok := m.index[n.ID]; ok {
			m.nodes[i] = n
		} else {
			m.index[n.ID] = len(m.nodes)
			m.nodes = append(m.nodes, n)
		}
		stats.Nodes++
	}

	for _, e := range d.Edges {
		_, okS := m.index[e.Source]
		_, okT := m.index[e.Target]
		if !e.Valid() || !okS || !okT {
			stats.SkippedEdges++
			continue
		}
		idx := len(m.edges)
		m.edges = append(m.edges, e)
		m.adj[e.Source] = append(m.adj[e.Source], idx)
		if e.Target != e.Source {
			m.adj[e.Target] = append(m.adj[e.Target], idx)
		}
		stats.Edges++
	}
	return stats, nil
}

// Search implements Store.
func (m *Memory) Search(ctx context.Context, term string) (*model.SearchData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []model.Node
	var incident []model.Edge
	for _, n := range m.nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !Matches(n, term) {
			continue
		}
		matches = append(matches, n)
		for _, i := range m.adj[n.ID] {
			incident = append(incident, m.edges[i])
		}
	}
	if len(matches) == 0 {
		return nil, ErrNotFound
	}

	lookup := func(id model.ID) (model.Node, bool) {
		i, ok := m.index[id]
		if !ok {
			return model.Node{}, false
		}
		return m.nodes[i], true
	}
	return assemble(matches, incident, lookup), nil
}

// Len returns the number of stored nodes and edges.
func (m *Memory) Len() (nodes, edges int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.nodes), len(m.edges)
}

// Close does nothing.
func (m *Memory) Close(context.Context) error { return nil }

var _ Backend = (*Memory)(nil)
