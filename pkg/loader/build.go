package loader

import (
	"math/rand/v2"
	"strings"

	"github.com/matzehuels/influencegraph/pkg/filter"
	"github.com/matzehuels/influencegraph/pkg/graph"
	"github.com/matzehuels/influencegraph/pkg/model"
)

// PositionRange is the width of the square, centered at the origin, in which
// initial node positions are drawn.
const PositionRange = 100.0

// Skipped counts records dropped while decoding or building a graph.
type Skipped struct {
	Nodes int // undecodable records and records without an identifier
	Edges int // undecodable records, missing endpoints and endpoints not in the index
}

// Result is a built graph together with the decisions that produced it.
type Result struct {
	Graph   *graph.Graph
	Keyword string
	Focus   model.ID    // empty when no node name matched the keyword
	Mode    filter.Mode // mode actually applied; ModeFull when Focus is empty
	Skipped Skipped
}

// FocusFound reports whether a node matched the keyword.
func (r *Result) FocusFound() bool { return !r.Focus.IsZero() }

// Build turns a search payload into a graph according to the filters.
//
// Nodes are indexed by identifier first; a later record with the same
// identifier replaces the earlier one but keeps its position in the order.
// The focus node is the first indexed node whose name equals the keyword
// case-insensitively. Without a focus the full graph is built regardless of
// the filters.
//
// rng drives the initial positions; pass a seeded source for reproducible
// output.
func Build(data model.SearchData, keyword string, f filter.Filters, rng *rand.Rand) *Result {
	idx, skippedNodes := newIndex(data.Nodes)

	res := &Result{
		Graph:   graph.New(graph.Attributes{"keyword": keyword}),
		Keyword: keyword,
		Focus:   idx.find(keyword),
		Skipped: Skipped{Nodes: skippedNodes + data.MalformedNodes, Edges: data.MalformedEdges},
	}
	res.Mode = f.Mode()
	if !res.FocusFound() {
		res.Mode = filter.ModeFull
	}

	b := &builder{
		g:       res.Graph,
		idx:     idx,
		rng:     rng,
		focus:   res.Focus,
		filters: f,
		skipped: &res.Skipped,
	}
	handlers[res.Mode](b, data.Edges)
	return res
}

// handlers holds one strategy per filter mode.
var handlers = map[filter.Mode]func(*builder, []model.Edge){
	filter.ModeFull:        (*builder).full,
	filter.ModeInfluence:   (*builder).influence,
	filter.ModeDirectional: (*builder).directional,
}

// =============================================================================
// Node Index
// =============================================================================

type index struct {
	records map[model.ID]model.Node
	order   []model.ID
}

func newIndex(nodes []model.Node) (*index, int) {
	idx := &index{records: make(map[model.ID]model.Node, len(nodes))}
	skipped := 0
	for _, n := range nodes {
		if n.ID.IsZero() {
			skipped++
			continue
		}
		if _, seen := idx.records[n.ID]; !seen {
			idx.order = append(idx.order, n.ID)
		}
		idx.records[n.ID] = n
	}
	return idx, skipped
}

func (idx *index) has(id model.ID) bool {
	_, ok := idx.records[id]
	return ok
}

func (idx *index) find(keyword string) model.ID {
	if keyword == "" {
		return ""
	}
	for _, id := range idx.order {
		name := idx.records[id].Name
		if name != "" && strings.EqualFold(name, keyword) {
			return id
		}
	}
	return ""
}

// =============================================================================
// Builder
// =============================================================================

type builder struct {
	g       *graph.Graph
	idx     *index
	rng     *rand.Rand
	focus   model.ID
	filters filter.Filters
	skipped *Skipped
}

// addNode inserts the indexed record for id once. Unknown ids are ignored.
func (b *builder) addNode(id model.ID) {
	rec, ok := b.idx.records[id]
	if !ok || b.g.HasNode(string(id)) {
		return
	}
	style, _ := model.StyleFor(rec.Type)

	var props graph.Attributes
	if len(rec.Properties) > 0 {
		props = graph.Attributes(rec.Properties)
	}
	_ = b.g.AddNode(graph.Node{
		ID:    string(id),
		Label: rec.Name,
		Type:  string(rec.Type),
		X:     b.rng.Float64()*PositionRange - PositionRange/2,
		Y:     b.rng.Float64()*PositionRange - PositionRange/2,
		Color: style.Color,
		Size:  style.Size,
		Props: props,
	})
}

func (b *builder) addEdge(source, target model.ID, typ model.EdgeType, style model.EdgeStyle) {
	_, _ = b.g.AddDirectedEdge(graph.Edge{
		Source: string(source),
		Target: string(target),
		Label:  string(typ),
		Color:  style.Color,
		Size:   style.Size,
	})
}

// usable reports whether both endpoints of e are present in the index and
// counts the edge as skipped otherwise.
func (b *builder) usable(e model.Edge) bool {
	if e.Valid() && b.idx.has(e.Source) && b.idx.has(e.Target) {
		return true
	}
	b.skipped.Edges++
	return false
}

func (b *builder) full(edges []model.Edge) {
	for _, id := range b.idx.order {
		b.addNode(id)
	}
	for _, e := range edges {
		if b.usable(e) {
			b.addEdge(e.Source, e.Target, e.Type, model.UnfilteredEdgeStyle)
		}
	}
}

func (b *builder) influence(edges []model.Edge) {
	b.addNode(b.focus)
	for _, e := range edges {
		if !b.usable(e) {
			continue
		}
		if !e.Type.IsInfluence() || !e.Touches(b.focus) {
			continue
		}
		b.addNode(e.Source)
		b.addNode(e.Target)
		b.addEdge(e.Source, e.Target, e.Type, model.FilteredEdgeStyle)
	}
}

func (b *builder) directional(edges []model.Edge) {
	b.addNode(b.focus)
	for _, e := range edges {
		if !b.usable(e) {
			continue
		}
		source, target := e.Source, e.Target
		switch {
		case b.filters.CollaboratedWith && e.Type.IsCollaboration() && source == b.focus:
		case b.filters.Influenced && e.Type.IsInfluence() && target == b.focus:
		case b.filters.Influenced && e.Type.IsInfluence() && source == b.focus:
			// Influence the focus exerted is drawn pointing at the focus.
			source, target = target, source
		default:
			continue
		}
		b.addNode(e.Source)
		b.addNode(e.Target)
		b.addEdge(source, target, e.Type, model.FilteredEdgeStyle)
	}
}
