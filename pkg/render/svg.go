package render

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/matzehuels/giftgraph/pkg/graph"
)

// Drawing constants.
const (
	edgeColor      = "#999"
	edgeOpacity    = 0.6
	labelColor     = "#4a4a4a"
	labelFontSize  = 10
	labelOffset    = 12
	nodeStroke     = "#fff"
	nodeStrokeW    = 2
	arrowRefX      = 34
	arrowMarkerDim = 6
)

// SVGOption configures RenderSVG.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	avatars    bool
	background string
	title      string
}

// WithoutAvatars omits the avatar images. Useful when the output is
// converted offline and the avatar URLs cannot be fetched.
func WithoutAvatars() SVGOption { return func(r *svgRenderer) { r.avatars = false } }

// WithBackground fills the viewport with the given colour.
func WithBackground(color string) SVGOption { return func(r *svgRenderer) { r.background = color } }

// WithTitle adds a <title> element.
func WithTitle(title string) SVGOption { return func(r *svgRenderer) { r.title = title } }

// RenderSVG draws l as an SVG document sized to its viewport.
// Edges are drawn beneath nodes; edges whose endpoints are missing from
// l.Nodes are skipped.
func RenderSVG(l graph.Layout, opts ...SVGOption) []byte {
	r := svgRenderer{avatars: true}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		l.Width, l.Height, l.Width, l.Height)
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", escapeXML(r.title))
	}

	renderDefs(&buf, l, r.avatars)
	if r.background != "" {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", escapeXML(r.background))
	}
	renderEdges(&buf, l)
	renderNodes(&buf, l, r.avatars)

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderDefs(buf *bytes.Buffer, l graph.Layout, avatars bool) {
	buf.WriteString("  <defs>\n")
	fmt.Fprintf(buf, `    <marker id="arrowhead" viewBox="-0 -5 10 10" refX="%d" refY="0" orient="auto" markerWidth="%d" markerHeight="%d">`+"\n",
		arrowRefX, arrowMarkerDim, arrowMarkerDim)
	fmt.Fprintf(buf, `      <path d="M 0,-5 L 10 ,0 L 0,5" fill="%s" stroke="none"/>`+"\n", edgeColor)
	buf.WriteString("    </marker>\n")
	if avatars {
		for i, n := range l.Nodes {
			if n.Avatar == "" {
				continue
			}
			fmt.Fprintf(buf, `    <clipPath id="clip-%d"><circle r="%.1f"/></clipPath>`+"\n", i, n.Radius)
		}
	}
	buf.WriteString("  </defs>\n")
}

func renderEdges(buf *bytes.Buffer, l graph.Layout) {
	idx := l.Index()
	fmt.Fprintf(buf, `  <g class="links" stroke="%s" stroke-opacity="%.1f">`+"\n", edgeColor, edgeOpacity)
	for _, e := range l.Edges {
		si, okFrom := idx[e.From]
		ti, okTo := idx[e.To]
		if !okFrom || !okTo {
			continue
		}
		s, t := l.Nodes[si], l.Nodes[ti]
		fmt.Fprintf(buf, `    <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke-width="%.2f" marker-end="url(#arrowhead)"><title>%s → %s: %g</title></line>`+"\n",
			s.X, s.Y, t.X, t.Y, e.StrokeWidth, escapeXML(s.DisplayLabel()), escapeXML(t.DisplayLabel()), e.Weight)
	}
	buf.WriteString("  </g>\n")
}

func renderNodes(buf *bytes.Buffer, l graph.Layout, avatars bool) {
	buf.WriteString(`  <g class="nodes">` + "\n")
	for i, n := range l.Nodes {
		fmt.Fprintf(buf, `    <g class="node" id="node-%s" transform="translate(%.2f,%.2f)">`+"\n", escapeXML(n.ID), n.X, n.Y)
		fill := n.Color
		if fill == "" {
			fill = edgeColor
		}
		fmt.Fprintf(buf, `      <circle r="%.1f" fill="%s" stroke="%s" stroke-width="%d"/>`+"\n", n.Radius, escapeXML(fill), nodeStroke, nodeStrokeW)
		if avatars && n.Avatar != "" {
			fmt.Fprintf(buf, `      <image xlink:href="%s" href="%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f" clip-path="url(#clip-%d)"/>`+"\n",
				escapeXML(n.Avatar), escapeXML(n.Avatar), -n.Radius, -n.Radius, 2*n.Radius, 2*n.Radius, i)
		}
		fmt.Fprintf(buf, `      <text x="0" y="%.1f" text-anchor="middle" font-size="%dpx" font-weight="500" fill="%s">%s</text>`+"\n",
			n.Radius+labelOffset, labelFontSize, labelColor, escapeXML(n.DisplayLabel()))
		buf.WriteString("    </g>\n")
	}
	buf.WriteString("  </g>\n")
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
