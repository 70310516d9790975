// Package dataset reads knowledge-graph exports in the MC1 node-link format:
//
//	{
//	  "directed": true,
//	  "multigraph": true,
//	  "nodes": [{"id": 17255, "Node Type": "Person", "name": "Sailor Shift", "stage_name": "Sailor"}],
//	  "links": [{"source": 17255, "target": 17256, "Edge Type": "PerformerOf"}]
//	}
//
// Every node key other than "id", "name" and "Node Type" becomes a property.
// Nodes without an identifier are dropped; links are kept as read, and
// [Dataset.Check] reports those whose endpoints are unknown.
package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/influencegraph/pkg/model"
)

// Reserved keys of the node-link format.
const (
	KeyID       = "id"
	KeyName     = "name"
	KeyNodeType = "Node Type"
	KeyEdgeType = "Edge Type"
	KeySource   = "source"
	KeyTarget   = "target"
)

// Dataset is a parsed export.
type Dataset struct {
	Directed   bool
	Multigraph bool
	Nodes      []model.Node
	Edges      []model.Edge
	Dropped    int // nodes without an identifier
}

// Stats summarizes the consistency of a dataset.
type Stats struct {
	Nodes         int
	Edges         int
	DanglingEdges int // edges with a missing or unknown endpoint
	NodeTypes     map[model.NodeType]int
	EdgeTypes     map[model.EdgeType]int
}

type rawDataset struct {
	Directed   bool             `json:"directed"`
	Multigraph bool             `json:"multigraph"`
	Nodes      []map[string]any `json:"nodes"`
	Links      []map[string]any `json:"links"`
	Edges      []map[string]any `json:"edges"`
}

// Parse decodes a node-link document.
func Parse(r io.Reader) (*Dataset, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw rawDataset
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	d := &Dataset{Directed: raw.Directed, Multigraph: raw.Multigraph}
	for _, rn := range raw.Nodes {
		n, ok := convertNode(rn)
		if !ok {
			d.Dropped++
			continue
		}
		d.Nodes = append(d.Nodes, n)
	}

	links := raw.Links
	if len(links) == 0 {
		links = raw.Edges
	}
	for _, rl := range links {
		d.Edges = append(d.Edges, model.Edge{
			Source: toID(rl[KeySource]),
			Target: toID(rl[KeyTarget]),
			Type:   model.EdgeType(toString(rl[KeyEdgeType])),
		})
	}
	return d, nil
}

// ReadFile parses the dataset at path.
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Check counts node and edge types and dangling edges.
func (d *Dataset) Check() Stats {
	s := Stats{
		Nodes:     len(d.Nodes),
		Edges:     len(d.Edges),
		NodeTypes: make(map[model.NodeType]int),
		EdgeTypes: make(map[model.EdgeType]int),
	}
	known := make(map[model.ID]struct{}, len(d.Nodes))
	for _, n := range d.Nodes {
		known[n.ID] = struct{}{}
		s.NodeTypes[n.Type]++
	}
	for _, e := range d.Edges {
		s.EdgeTypes[e.Type]++
		_, okS := known[e.Source]
		_, okT := known[e.Target]
		if !e.Valid() || !okS || !okT {
			s.DanglingEdges++
		}
	}
	return s
}

// ValidEdges returns the edges whose endpoints are both known nodes.
func (d *Dataset) ValidEdges() []model.Edge {
	known := make(map[model.ID]struct{}, len(d.Nodes))
	for _, n := range d.Nodes {
		known[n.ID] = struct{}{}
	}
	out := make([]model.Edge, 0, len(d.Edges))
	for _, e := range d.Edges {
		_, okS := known[e.Source]
		_, okT := known[e.Target]
		if e.Valid() && okS && okT {
			out = append(out, e)
		}
	}
	return out
}

func convertNode(raw map[string]any) (model.Node, bool) {
	id := toID(raw[KeyID])
	if id.IsZero() {
		return model.Node{}, false
	}
	n := model.Node{
		ID:   id,
		Name: toString(raw[KeyName]),
		Type: model.NodeType(toString(raw[KeyNodeType])),
	}
	for k, v := range raw {
		if k == KeyID || k == KeyName || k == KeyNodeType {
			continue
		}
		if n.Properties == nil {
			n.Properties = make(map[string]any)
		}
		n.Properties[k] = plain(v)
	}
	return n, true
}

func toID(v any) model.ID {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return model.ID(x)
	case json.Number:
		return model.ID(x.String())
	case bool:
		return model.ID(fmt.Sprint(x))
	}
	return ""
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

// plain converts json.Number to int64 or float64 so properties survive
// storage backends that do not know the type.
func plain(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plain(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = plain(e)
		}
		return out
	}
	return v
}
