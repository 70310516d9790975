// Package render holds the output formats of an influence graph and the
// conversions between them.
//
// A laid-out graph is written either as graphology JSON (the sigma surface,
// see [graph.Write]) or through the [nodelink] subpackage as Graphviz DOT,
// SVG, PNG or PDF. [ToPDF] and [ToPNG] convert SVG using the external
// rsvg-convert tool from librsvg.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := render.ToPNG(ctx, svg, 2.0)
//
// [graph.Write]: github.com/matzehuels/influencegraph/pkg/graph.Write
// [nodelink]: github.com/matzehuels/influencegraph/pkg/render/nodelink
package render
