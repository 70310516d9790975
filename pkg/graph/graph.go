package graph

import (
	"errors"
	"fmt"
	"maps"
	"sync"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists. Callers that treat repeated insertion as a no-op
	// check for it with errors.Is.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddDirectedEdge] when the
	// source node does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddDirectedEdge] when the
	// target node does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrDuplicateEdgeKey is returned by [Graph.AddDirectedEdge] when an
	// explicit edge key is already taken.
	ErrDuplicateEdgeKey = errors.New("duplicate edge key")
)

// Attributes stores arbitrary key-value pairs attached to nodes or the graph.
type Attributes map[string]any

// Point is a 2D position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a vertex with its rendering attributes.
type Node struct {
	ID    string
	Label string
	Type  string // node type tag, serialized as "nodeType"
	X, Y  float64
	Color string
	Size  float64
	Props Attributes // extra properties of the source record
}

// Position returns the node's coordinates.
func (n Node) Position() Point { return Point{X: n.X, Y: n.Y} }

// Edge is a directed, labelled connection. Parallel edges are distinguished
// by Key.
type Edge struct {
	Key    string
	Source string
	Target string
	Label  string
	Color  string
	Size   float64
}

// Graph is a directed multigraph with ordered nodes.
//
// The zero value is not usable - use New to create a Graph.
type Graph struct {
	mu       sync.RWMutex
	nodes    map[string]*Node
	order    []string
	edges    []Edge
	keys     map[string]struct{}
	outgoing map[string][]int // nodeID -> indexes into edges
	incoming map[string][]int
	nextKey  int
	meta     Attributes
}

// New creates an empty graph with optional graph-level attributes.
func New(meta Attributes) *Graph {
	if meta == nil {
		meta = Attributes{}
	}
	return &Graph{
		nodes:    make(map[string]*Node),
		keys:     make(map[string]struct{}),
		outgoing: make(map[string][]int),
		incoming: make(map[string][]int),
		meta:     meta,
	}
}

// Meta returns the graph-level attributes. The map is never nil.
func (g *Graph) Meta() Attributes { return g.meta }

// AddNode adds a node. Returns ErrInvalidNodeID for an empty ID and
// ErrDuplicateNodeID if the ID is already present; the existing node is
// left untouched in that case.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Props != nil {
		n.Props = maps.Clone(n.Props)
	}
	g.nodes[n.ID] = &n
	g.order = append(g.order, n.ID)
	return nil
}

// HasNode reports whether a node with the given ID exists.
func (g *Graph) HasNode(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// Node returns a copy of the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns copies of all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Node, len(g.order))
	for i, id := range g.order {
		out[i] = *g.nodes[id]
	}
	return out
}

// NodeIDs returns node IDs in insertion order.
func (g *Graph) NodeIDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.order)
}

// AddDirectedEdge adds an edge from e.Source to e.Target and returns its key.
//
// Both endpoints must already exist. Edges are never deduplicated: adding the
// same source, target and label twice yields two edges. When e.Key is empty a
// key of the form "e<n>" is generated.
func (g *Graph) AddDirectedEdge(e Edge) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[e.Source]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSourceNode, e.Source)
	}
	if _, ok := g.nodes[e.Target]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTargetNode, e.Target)
	}

	if e.Key == "" {
		for {
			e.Key = fmt.Sprintf("e%d", g.nextKey)
			g.nextKey++
			if _, taken := g.keys[e.Key]; !taken {
				break
			}
		}
	} else if _, taken := g.keys[e.Key]; taken {
		return "", fmt.Errorf("%w: %s", ErrDuplicateEdgeKey, e.Key)
	}

	idx := len(g.edges)
	g.edges = append(g.edges, e)
	g.keys[e.Key] = struct{}{}
	g.outgoing[e.Source] = append(g.outgoing[e.Source], idx)
	g.incoming[e.Target] = append(g.incoming[e.Target], idx)
	return e.Key, nil
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// EdgeCount returns the number of edges, counting parallel edges separately.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// OutEdges returns the edges whose source is id.
func (g *Graph) OutEdges(id string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.collect(g.outgoing[id])
}

// InEdges returns the edges whose target is id.
func (g *Graph) InEdges(id string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.collect(g.incoming[id])
}

// Degree returns the total number of edge endpoints at id.
// A self-loop counts twice.
func (g *Graph) Degree(id string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.outgoing[id]) + len(g.incoming[id])
}

func (g *Graph) collect(idx []int) []Edge {
	out := make([]Edge, len(idx))
	for i, j := range idx {
		out[i] = g.edges[j]
	}
	return out
}

// =============================================================================
// Positions
// =============================================================================

// Positions returns a snapshot of all node positions.
func (g *Graph) Positions() map[string]Point {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string]Point, len(g.nodes))
	for id, n := range g.nodes {
		out[id] = n.Position()
	}
	return out
}

// SetPositions updates the positions of the given nodes.
// Unknown IDs are ignored.
func (g *Graph) SetPositions(pos map[string]Point) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, p := range pos {
		if n, ok := g.nodes[id]; ok {
			n.X, n.Y = p.X, p.Y
		}
	}
}
