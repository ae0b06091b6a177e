package render

import (
	"context"
	"errors"

	gerrors "github.com/matzehuels/giftgraph/pkg/errors"
	"github.com/matzehuels/giftgraph/pkg/graph"
)

// ErrConverterMissing is returned when PNG or PDF output is requested but
// rsvg-convert is not installed.
var ErrConverterMissing = errors.New("rsvg-convert not found")

// SVG engines.
const (
	EngineBuiltin  = "builtin"
	EngineGraphviz = "graphviz"
)

// Options configures Render.
type Options struct {
	// Engine selects how SVG is drawn: EngineBuiltin (RenderSVG, the
	// default) or EngineGraphviz (ToDOT rendered by RenderDOTSVG).
	Engine string

	// Scale is the PNG resolution factor. Defaults to 1.
	Scale float64

	// SVG holds options passed to RenderSVG for the svg, png and pdf formats.
	SVG []SVGOption
}

// Render produces l in the named format.
//
//   - svg: RenderSVG, or RenderDOTSVG with EngineGraphviz
//   - png, pdf: the svg output converted with rsvg-convert
//   - dot: ToDOT
//   - json: graph.MarshalLayout
func Render(ctx context.Context, l graph.Layout, format string, opts ...Options) ([]byte, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	switch format {
	case graph.FormatSVG:
		return o.svg(ctx, l)
	case graph.FormatPNG:
		svg, err := o.svg(ctx, l)
		if err != nil {
			return nil, err
		}
		return ToPNG(ctx, svg, o.Scale)
	case graph.FormatPDF:
		svg, err := o.svg(ctx, l)
		if err != nil {
			return nil, err
		}
		return ToPDF(ctx, svg)
	case graph.FormatDOT:
		return []byte(ToDOT(l)), nil
	case graph.FormatJSON:
		return graph.MarshalLayout(l)
	}
	return nil, gerrors.New(gerrors.ErrCodeInvalidFormat, "unsupported format %q (want one of %v)", format, graph.Formats)
}

func (o Options) svg(ctx context.Context, l graph.Layout) ([]byte, error) {
	switch o.Engine {
	case "", EngineBuiltin:
		return RenderSVG(l, o.SVG...), nil
	case EngineGraphviz:
		return RenderDOTSVG(ctx, ToDOT(l))
	}
	return nil, gerrors.New(gerrors.ErrCodeInvalidInput, "unknown svg engine %q (want %s or %s)", o.Engine, EngineBuiltin, EngineGraphviz)
}

// ContentType returns the MIME type for a format.
func ContentType(format string) string {
	switch format {
	case graph.FormatSVG:
		return "image/svg+xml"
	case graph.FormatPNG:
		return "image/png"
	case graph.FormatPDF:
		return "application/pdf"
	case graph.FormatDOT:
		return "text/vnd.graphviz"
	case graph.FormatJSON:
		return "application/json"
	}
	return "application/octet-stream"
}
