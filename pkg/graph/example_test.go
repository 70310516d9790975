package graph_test

import (
	"fmt"

	"github.com/matzehuels/influencegraph/pkg/graph"
)

func Example() {
	g := graph.New(nil)
	_ = g.AddNode(graph.Node{ID: "1", Label: "Sailor Shift", Type: "Person"})
	_ = g.AddNode(graph.Node{ID: "2", Label: "Song A", Type: "Song"})

	// Parallel edges are kept.
	k0, _ := g.AddDirectedEdge(graph.Edge{Source: "2", Target: "1", Label: "CoverOf"})
	k1, _ := g.AddDirectedEdge(graph.Edge{Source: "2", Target: "1", Label: "CoverOf"})

	fmt.Println(g.NodeCount(), g.EdgeCount(), k0, k1)
	// Output: 2 2 e0 e1
}
