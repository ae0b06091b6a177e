package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/giftgraph/pkg/graph"
)

// points per inch; Graphviz sizes nodes in inches.
const dpi = 72.0

// ToDOT converts a layout to Graphviz DOT. Positions are pinned with
// pos="x,y!" so the neato engine keeps them. Graphviz puts the origin at
// the bottom left, so y is flipped against the layout height.
func ToDOT(l graph.Layout) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  notranslate=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  bb=\"0,0,%.2f,%.2f\";\n", l.Width, l.Height)
	buf.WriteString("  node [shape=circle, style=filled, fixedsize=true, fontsize=10, fontcolor=\"#4a4a4a\", color=white, penwidth=2, labelloc=b];\n")
	buf.WriteString("  edge [color=\"#99999999\", arrowsize=0.6];\n")
	buf.WriteString("\n")

	idx := l.Index()
	for _, n := range l.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, fmtNodeAttrs(n, l.Height))
	}

	buf.WriteString("\n")
	for _, e := range l.Edges {
		if _, ok := idx[e.From]; !ok {
			continue
		}
		if _, ok := idx[e.To]; !ok {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [penwidth=%.2f, weight=%g, tooltip=%q];\n",
			e.From, e.To, e.StrokeWidth, e.Weight, fmt.Sprintf("weight %g", e.Weight))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtNodeAttrs(n graph.Node, height float64) string {
	fill := n.Color
	if fill == "" {
		fill = edgeColor
	}
	return fmt.Sprintf("label=%q, xlabel=%q, pos=\"%.2f,%.2f!\", width=%.3f, fillcolor=%q",
		"", n.DisplayLabel(), n.X, height-n.Y, 2*n.Radius/dpi, fill)
}

// RenderDOTSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [ToPDF] or [ToPNG].
func RenderDOTSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz root element, which sizes itself
// in points, with one sized to its viewBox.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
