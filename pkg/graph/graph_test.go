package graph

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestAddNode(t *testing.T) {
	g := New(nil)

	if err := g.AddNode(Node{ID: "1", Label: "Sailor Shift"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := g.AddNode(Node{ID: ""}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("empty ID: got %v, want ErrInvalidNodeID", err)
	}
	if err := g.AddNode(Node{ID: "1", Label: "other"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("duplicate: got %v, want ErrDuplicateNodeID", err)
	}

	n, ok := g.Node("1")
	if !ok || n.Label != "Sailor Shift" {
		t.Errorf("Node(1) = %+v, %v; duplicate must not replace", n, ok)
	}
	if g.NodeCount() != 1 {
		t.Errorf("NodeCount = %d, want 1", g.NodeCount())
	}
}

func TestNodesKeepInsertionOrder(t *testing.T) {
	g := New(nil)
	for _, id := range []string{"c", "a", "b"} {
		_ = g.AddNode(Node{ID: id})
	}
	got := strings.Join(g.NodeIDs(), ",")
	if got != "c,a,b" {
		t.Errorf("NodeIDs = %s, want c,a,b", got)
	}
	nodes := g.Nodes()
	if nodes[0].ID != "c" || nodes[2].ID != "b" {
		t.Errorf("Nodes order = %v", nodes)
	}
}

func TestAddDirectedEdge(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a"})
	_ = g.AddNode(Node{ID: "b"})

	tests := []struct {
		name    string
		edge    Edge
		wantErr error
	}{
		{"valid", Edge{Source: "a", Target: "b"}, nil},
		{"parallel", Edge{Source: "a", Target: "b"}, nil},
		{"self loop", Edge{Source: "a", Target: "a"}, nil},
		{"unknown source", Edge{Source: "x", Target: "b"}, ErrUnknownSourceNode},
		{"unknown target", Edge{Source: "a", Target: "x"}, ErrUnknownTargetNode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.AddDirectedEdge(tt.edge)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}

	if g.EdgeCount() != 3 {
		t.Errorf("EdgeCount = %d, want 3", g.EdgeCount())
	}
	if d := g.Degree("a"); d != 4 {
		t.Errorf("Degree(a) = %d, want 4", d)
	}
	if n := len(g.OutEdges("a")); n != 3 {
		t.Errorf("OutEdges(a) = %d, want 3", n)
	}
	if n := len(g.InEdges("b")); n != 2 {
		t.Errorf("InEdges(b) = %d, want 2", n)
	}
}

func TestEdgeKeys(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a"})
	_ = g.AddNode(Node{ID: "b"})

	k0, _ := g.AddDirectedEdge(Edge{Source: "a", Target: "b", Label: "CoverOf"})
	k1, _ := g.AddDirectedEdge(Edge{Source: "a", Target: "b", Label: "CoverOf"})
	if k0 != "e0" || k1 != "e1" {
		t.Errorf("keys = %s, %s; want e0, e1", k0, k1)
	}

	if _, err := g.AddDirectedEdge(Edge{Key: "e0", Source: "b", Target: "a"}); !errors.Is(err, ErrDuplicateEdgeKey) {
		t.Errorf("explicit duplicate key: got %v", err)
	}

	// A generated key skips keys taken explicitly.
	if _, err := g.AddDirectedEdge(Edge{Key: "e2", Source: "b", Target: "a"}); err != nil {
		t.Fatal(err)
	}
	k3, _ := g.AddDirectedEdge(Edge{Source: "b", Target: "a"})
	if k3 != "e3" {
		t.Errorf("generated key = %s, want e3", k3)
	}
}

func TestPositions(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a", X: 1, Y: 2})
	_ = g.AddNode(Node{ID: "b"})

	g.SetPositions(map[string]Point{"b": {X: 3, Y: 4}, "missing": {X: 9}})

	pos := g.Positions()
	if len(pos) != 2 {
		t.Fatalf("Positions len = %d, want 2", len(pos))
	}
	if pos["a"] != (Point{1, 2}) || pos["b"] != (Point{3, 4}) {
		t.Errorf("Positions = %v", pos)
	}
}

func TestConcurrentPositionUpdates(t *testing.T) {
	g := New(nil)
	for _, id := range []string{"a", "b", "c"} {
		_ = g.AddNode(Node{ID: id})
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 200 {
			g.SetPositions(map[string]Point{"a": {X: float64(i)}})
		}
	}()
	go func() {
		defer wg.Done()
		for range 200 {
			_ = g.Positions()
			_ = Export(g)
		}
	}()
	wg.Wait()
}

func TestPropsAreCopied(t *testing.T) {
	props := Attributes{"genre": "Oceanus Folk"}
	g := New(nil)
	_ = g.AddNode(Node{ID: "a", Props: props})
	props["genre"] = "changed"

	n, _ := g.Node("a")
	if n.Props["genre"] != "Oceanus Folk" {
		t.Errorf("Props aliased caller map: %v", n.Props)
	}
}

func buildSample(t *testing.T) *Graph {
	t.Helper()
	g := New(Attributes{"keyword": "Sailor Shift"})
	nodes := []Node{
		{ID: "1", Label: "Sailor Shift", Type: "Person", X: 0.5, Y: 0, Color: "#4CAF50", Size: 8,
			Props: Attributes{"stage_name": "Sailor", "label": "ignored"}},
		{ID: "2", Label: "Song A", Type: "Song", X: -0.5, Y: 0, Color: "#2196F3", Size: 6},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	for range 2 {
		if _, err := g.AddDirectedEdge(Edge{Source: "2", Target: "1", Label: "LyricalReferenceTo", Color: "orangered", Size: 2}); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestExport(t *testing.T) {
	s := Export(buildSample(t))

	if s.Options.Type != "directed" || !s.Options.Multi || !s.Options.AllowSelfLoops {
		t.Errorf("Options = %+v", s.Options)
	}
	if s.Attributes["keyword"] != "Sailor Shift" {
		t.Errorf("graph attributes = %v", s.Attributes)
	}
	if len(s.Nodes) != 2 || len(s.Edges) != 2 {
		t.Fatalf("nodes=%d edges=%d", len(s.Nodes), len(s.Edges))
	}

	attrs := s.Nodes[0].Attributes
	if attrs[AttrLabel] != "Sailor Shift" {
		t.Errorf("label = %v, rendering attribute must win over props", attrs[AttrLabel])
	}
	if attrs["stage_name"] != "Sailor" {
		t.Errorf("extra prop missing: %v", attrs)
	}
	if attrs[AttrNodeType] != "Person" || attrs[AttrColor] != "#4CAF50" || attrs[AttrSize] != 8.0 {
		t.Errorf("node attrs = %v", attrs)
	}

	e := s.Edges[1]
	if e.Key != "e1" || e.Source != "2" || e.Target != "1" {
		t.Errorf("edge = %+v", e)
	}
	if e.Attributes[AttrColor] != "orangered" || e.Attributes[AttrSize] != 2.0 {
		t.Errorf("edge attrs = %v", e.Attributes)
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	orig := buildSample(t)

	data, err := Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"multi": true`) {
		t.Errorf("output missing multi option:\n%s", data)
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.NodeCount() != 2 || got.EdgeCount() != 2 {
		t.Fatalf("nodes=%d edges=%d", got.NodeCount(), got.EdgeCount())
	}
	n, _ := got.Node("1")
	if n.Label != "Sailor Shift" || n.Type != "Person" || n.Size != 8 || n.X != 0.5 {
		t.Errorf("node = %+v", n)
	}
	if n.Props["stage_name"] != "Sailor" {
		t.Errorf("props = %v", n.Props)
	}
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid json", `{`},
		{"empty key", `{"nodes":[{"key":"","attributes":{}}]}`},
		{"unknown endpoint", `{"nodes":[{"key":"a"}],"edges":[{"key":"e0","source":"a","target":"b"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unmarshal([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWriteReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := WriteFile(buildSample(t), path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
	g, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount = %d", g.EdgeCount())
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
