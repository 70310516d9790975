package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Reserved attribute names. Extra node properties never override them.
const (
	AttrX        = "x"
	AttrY        = "y"
	AttrLabel    = "label"
	AttrNodeType = "nodeType"
	AttrColor    = "color"
	AttrSize     = "size"
)

var reservedNodeAttrs = map[string]bool{
	AttrX: true, AttrY: true, AttrLabel: true, AttrNodeType: true, AttrColor: true, AttrSize: true,
}

// =============================================================================
// Wire Format
// =============================================================================

// Serialized is the graphology serialized graph format.
type Serialized struct {
	Attributes Attributes       `json:"attributes"`
	Options    Options          `json:"options"`
	Nodes      []SerializedNode `json:"nodes"`
	Edges      []SerializedEdge `json:"edges"`
}

// Options describes the graph kind.
type Options struct {
	Type           string `json:"type"`
	Multi          bool   `json:"multi"`
	AllowSelfLoops bool   `json:"allowSelfLoops"`
}

// SerializedNode is a node entry in the wire format.
type SerializedNode struct {
	Key        string     `json:"key"`
	Attributes Attributes `json:"attributes"`
}

// SerializedEdge is an edge entry in the wire format.
type SerializedEdge struct {
	Key        string     `json:"key"`
	Source     string     `json:"source"`
	Target     string     `json:"target"`
	Attributes Attributes `json:"attributes"`
}

// Export converts g to the wire format.
func Export(g *Graph) Serialized {
	nodes := g.Nodes()
	edges := g.Edges()

	out := Serialized{
		Attributes: copyAttrs(g.Meta()),
		Options:    Options{Type: "directed", Multi: true, AllowSelfLoops: true},
		Nodes:      make([]SerializedNode, len(nodes)),
		Edges:      make([]SerializedEdge, len(edges)),
	}

	for i, n := range nodes {
		attrs := make(Attributes, len(n.Props)+6)
		for k, v := range n.Props {
			if !reservedNodeAttrs[k] {
				attrs[k] = v
			}
		}
		attrs[AttrX] = n.X
		attrs[AttrY] = n.Y
		attrs[AttrLabel] = n.Label
		attrs[AttrNodeType] = n.Type
		attrs[AttrColor] = n.Color
		attrs[AttrSize] = n.Size
		out.Nodes[i] = SerializedNode{Key: n.ID, Attributes: attrs}
	}

	for i, e := range edges {
		out.Edges[i] = SerializedEdge{
			Key:    e.Key,
			Source: e.Source,
			Target: e.Target,
			Attributes: Attributes{
				AttrLabel: e.Label,
				AttrColor: e.Color,
				AttrSize:  e.Size,
			},
		}
	}
	return out
}

// Import builds a Graph from the wire format.
func Import(s Serialized) (*Graph, error) {
	g := New(copyAttrs(s.Attributes))

	for _, sn := range s.Nodes {
		n := Node{
			ID:    sn.Key,
			X:     floatAttr(sn.Attributes, AttrX),
			Y:     floatAttr(sn.Attributes, AttrY),
			Label: stringAttr(sn.Attributes, AttrLabel),
			Type:  stringAttr(sn.Attributes, AttrNodeType),
			Color: stringAttr(sn.Attributes, AttrColor),
			Size:  floatAttr(sn.Attributes, AttrSize),
		}
		for k, v := range sn.Attributes {
			if reservedNodeAttrs[k] {
				continue
			}
			if n.Props == nil {
				n.Props = Attributes{}
			}
			n.Props[k] = v
		}
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("add node %q: %w", sn.Key, err)
		}
	}

	for _, se := range s.Edges {
		e := Edge{
			Key:    se.Key,
			Source: se.Source,
			Target: se.Target,
			Label:  stringAttr(se.Attributes, AttrLabel),
			Color:  stringAttr(se.Attributes, AttrColor),
			Size:   floatAttr(se.Attributes, AttrSize),
		}
		if _, err := g.AddDirectedEdge(e); err != nil {
			return nil, fmt.Errorf("add edge %s→%s: %w", se.Source, se.Target, err)
		}
	}
	return g, nil
}

// =============================================================================
// Serialization API
// =============================================================================

// Marshal converts a Graph to indented JSON bytes.
func Marshal(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write writes a Graph as JSON to an io.Writer.
func Write(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Export(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes a Graph to a JSON file.
func WriteFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(g, f)
}

// Unmarshal parses JSON bytes into a Graph.
func Unmarshal(data []byte) (*Graph, error) {
	return Read(bytes.NewReader(data))
}

// Read decodes a JSON graph from an io.Reader.
func Read(r io.Reader) (*Graph, error) {
	var s Serialized
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return Import(s)
}

// ReadFile reads a JSON graph file.
func ReadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// =============================================================================
// Internal Helpers
// =============================================================================

func copyAttrs(m Attributes) Attributes {
	out := make(Attributes, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func stringAttr(m Attributes, key string) string {
	s, _ := m[key].(string)
	return s
}

func floatAttr(m Attributes, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}
