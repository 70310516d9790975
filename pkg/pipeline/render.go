package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/influencegraph/pkg/errors"
	"github.com/matzehuels/influencegraph/pkg/graph"
	"github.com/matzehuels/influencegraph/pkg/observability"
	"github.com/matzehuels/influencegraph/pkg/render"
	"github.com/matzehuels/influencegraph/pkg/render/nodelink"
)

// Render writes g in one format.
func Render(ctx context.Context, g *graph.Graph, f render.Format, opts *Options) ([]byte, error) {
	start := time.Now()
	data, err := renderFormat(ctx, g, f, opts)
	observability.Graph().OnRenderComplete(ctx, string(f), len(data), time.Since(start), err)
	return data, err
}

func renderFormat(ctx context.Context, g *graph.Graph, f render.Format, opts *Options) ([]byte, error) {
	if f == render.FormatJSON {
		return graph.Marshal(g)
	}

	dot := nodelink.ToDOT(g, nodelink.Options{Labels: opts.Labels, EdgeLabels: opts.EdgeLabels})
	switch f {
	case render.FormatDOT:
		return []byte(dot), nil
	case render.FormatSVG:
		return nodelink.RenderSVG(ctx, dot)
	case render.FormatPNG:
		return nodelink.RenderPNG(ctx, dot, opts.PNGScale)
	case render.FormatPDF:
		return nodelink.RenderPDF(ctx, dot)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", f)
}
