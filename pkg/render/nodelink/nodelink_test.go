package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/influencegraph/pkg/graph"
)

func sampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New(nil)
	for _, n := range []graph.Node{
		{ID: "1", Label: "Sailor Shift", Type: "Person", X: -1, Y: 0, Color: "#4CAF50", Size: 8},
		{ID: "2", Label: "Song A", Type: "Song", X: 1, Y: 0, Color: "#999", Size: 6},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := g.AddDirectedEdge(graph.Edge{Source: "2", Target: "1", Label: "LyricalReferenceTo", Color: "orangered", Size: 2}); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleGraph(t), Options{Labels: true, Scale: 2})

	for _, want := range []string{
		"digraph G {",
		`"1" [pos="-2.0000,0.0000!"`,
		`"2" [pos="2.0000,0.0000!"`,
		`fillcolor="#4CAF50"`,
		`fillcolor="#999999"`,
		`xlabel="Sailor Shift"`,
		`"2" -> "1" [color="orangered", penwidth=2.0]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, `label="LyricalReferenceTo"`) {
		t.Error("edge labels rendered without EdgeLabels")
	}
}

func TestToDOTEdgeLabels(t *testing.T) {
	dot := ToDOT(sampleGraph(t), Options{EdgeLabels: true})
	if !strings.Contains(dot, `label="LyricalReferenceTo"`) {
		t.Errorf("edge label missing:\n%s", dot)
	}
	if strings.Contains(dot, "xlabel=") {
		t.Error("node labels rendered without Labels")
	}
}

func TestFitScale(t *testing.T) {
	g := sampleGraph(t)
	// Extent 2 maps to DefaultExtent inches.
	if got := fitScale(g.Nodes()); got != DefaultExtent/2 {
		t.Errorf("fitScale = %v", got)
	}
	if got := fitScale(nil); got != 1 {
		t.Errorf("fitScale(nil) = %v", got)
	}
}

func TestDotColor(t *testing.T) {
	tests := map[string]string{
		"#888":      "#888888",
		"#4CAF50":   "#4CAF50",
		"orangered": "orangered",
		"":          "black",
	}
	for in, want := range tests {
		if got := dotColor(in); got != want {
			t.Errorf("dotColor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sampleGraph(t), Options{Labels: true}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") || !strings.Contains(string(svg), "</svg>") {
		t.Errorf("not an SVG document: %.200s", svg)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 10.00 20.00" width="10" height="20"`) {
		t.Errorf("normalizeViewBox = %s", out)
	}
	plain := []byte(`<svg><g/></svg>`)
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("SVG without viewBox changed")
	}
}
