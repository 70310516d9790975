// Package nodelink renders influence graphs as node-link diagrams with
// Graphviz.
//
// # Overview
//
// Nodes are drawn as filled circles using the color and size the loader
// assigned from their type; edges are arrows in the edge color. Node
// positions come from the layout (circular or ForceAtlas2) and are pinned, so
// Graphviz only draws and never re-lays out the graph.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Labels: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// PNG and PDF go through SVG:
//
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//
// # Dependencies
//
// SVG rendering runs in process through [github.com/goccy/go-graphviz].
// PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
