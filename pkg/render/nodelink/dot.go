package nodelink

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/influencegraph/pkg/graph"
)

// DefaultExtent is the width in inches the layout is scaled to when
// Options.Scale is zero.
const DefaultExtent = 12.0

// pointsPerSize converts the sigma node size to a diameter in inches.
const pointsPerSize = 0.05

// Options configures diagram generation.
type Options struct {
	// Labels prints node names next to the nodes.
	Labels bool
	// EdgeLabels prints the relationship type on every edge.
	EdgeLabels bool
	// Scale is inches per layout unit. Zero fits the drawing into
	// DefaultExtent.
	Scale float64
}

// ToDOT converts a laid-out graph to Graphviz DOT. Positions are pinned and
// the y axis is kept as is, so the picture matches the sigma view.
func ToDOT(g *graph.Graph, opts Options) string {
	nodes := g.Nodes()
	scale := opts.Scale
	if scale <= 0 {
		scale = fitScale(nodes)
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  node [shape=circle, style=filled, fixedsize=true, label=\"\", fontsize=10, fontname=\"Helvetica\"];\n")
	buf.WriteString("  edge [arrowsize=0.5, fontsize=8, fontname=\"Helvetica\"];\n")
	buf.WriteString("\n")

	for _, n := range nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, scale, opts.Labels), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(edgeAttrs(e, opts.EdgeLabels), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n graph.Node, scale float64, labels bool) []string {
	color := dotColor(n.Color)
	attrs := []string{
		fmt.Sprintf("pos=\"%.4f,%.4f!\"", n.X*scale, n.Y*scale),
		fmt.Sprintf("width=%.3f", math.Max(n.Size, 1)*pointsPerSize),
		fmt.Sprintf("fillcolor=%q", color),
		fmt.Sprintf("color=%q", color),
		fmt.Sprintf("tooltip=%q", n.Type),
	}
	if labels && n.Label != "" {
		attrs = append(attrs, fmt.Sprintf("xlabel=%q", n.Label))
	}
	return attrs
}

func edgeAttrs(e graph.Edge, labels bool) []string {
	attrs := []string{
		fmt.Sprintf("color=%q", dotColor(e.Color)),
		fmt.Sprintf("penwidth=%.1f", math.Max(e.Size, 0.5)),
	}
	if labels && e.Label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
	}
	return attrs
}

// fitScale maps the widest layout extent onto DefaultExtent inches.
func fitScale(nodes []graph.Node) float64 {
	if len(nodes) < 2 {
		return 1
	}
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, n := range nodes {
		minX, maxX = math.Min(minX, n.X), math.Max(maxX, n.X)
		minY, maxY = math.Min(minY, n.Y), math.Max(maxY, n.Y)
	}
	extent := math.Max(maxX-minX, maxY-minY)
	if extent == 0 {
		return 1
	}
	return DefaultExtent / extent
}

// dotColor expands CSS shorthand hex colors, which Graphviz does not accept.
func dotColor(c string) string {
	if c == "" {
		return "black"
	}
	if len(c) == 4 && c[0] == '#' {
		return string([]byte{'#', c[1], c[1], c[2], c[2], c[3], c[3]})
	}
	return c
}
