package render

import (
	"context"
	"strings"
	"testing"

	gerrors "github.com/matzehuels/giftgraph/pkg/errors"
	"github.com/matzehuels/giftgraph/pkg/graph"
)

func testLayout() graph.Layout {
	return graph.Layout{
		Width:  400,
		Height: 300,
		Nodes: []graph.Node{
			{ID: "u1", Label: "Alice", Avatar: "https://picsum.photos/seed/Alice/100/100", Color: "hsl(10, 70%, 60%)", Radius: 24, X: 100, Y: 100},
			{ID: "u2", Label: "Bob & <Co>", Color: "hsl(200, 70%, 60%)", Radius: 24, X: 300, Y: 200},
		},
		Edges: []graph.Edge{
			{From: "u1", To: "u2", Weight: 4, StrokeWidth: 4},
			{From: "u2", To: "ghost", Weight: 1, StrokeWidth: 2},
		},
	}
}

func TestRenderSVG(t *testing.T) {
	svg := string(RenderSVG(testLayout()))

	checks := []struct {
		name string
		want string
	}{
		{"root", `viewBox="0 0 400.0 300.0" width="400" height="300"`},
		{"marker", `<marker id="arrowhead" viewBox="-0 -5 10 10" refX="34"`},
		{"edge", `x1="100.00" y1="100.00" x2="300.00" y2="200.00" stroke-width="4.00" marker-end="url(#arrowhead)"`},
		{"edge style", `stroke="#999" stroke-opacity="0.6"`},
		{"node", `transform="translate(100.00,100.00)"`},
		{"fill", `fill="hsl(10, 70%, 60%)"`},
		{"clip", `<clipPath id="clip-0"><circle r="24.0"/></clipPath>`},
		{"avatar", `clip-path="url(#clip-0)"`},
		{"label", `y="36.0" text-anchor="middle"`},
		{"escaped label", `Bob &amp; &lt;Co&gt;`},
	}
	for _, c := range checks {
		if !strings.Contains(svg, c.want) {
			t.Errorf("RenderSVG() missing %s: %q", c.name, c.want)
		}
	}

	if strings.Contains(svg, "ghost") {
		t.Error("RenderSVG() should skip edges with missing endpoints")
	}
	if strings.Contains(svg, "clip-1") {
		t.Error("RenderSVG() should not clip nodes without avatars")
	}
	if strings.Count(svg, "<line") != 1 {
		t.Errorf("RenderSVG() drew %d edges, want 1", strings.Count(svg, "<line"))
	}
}

func TestRenderSVGOptions(t *testing.T) {
	svg := string(RenderSVG(testLayout(), WithoutAvatars(), WithBackground("#fafafa"), WithTitle("Gifts")))

	if strings.Contains(svg, "<image") || strings.Contains(svg, "<clipPath") {
		t.Error("WithoutAvatars() should omit images and clip paths")
	}
	if !strings.Contains(svg, `fill="#fafafa"`) {
		t.Error("WithBackground() missing background rect")
	}
	if !strings.Contains(svg, "<title>Gifts</title>") {
		t.Error("WithTitle() missing title")
	}
}

func TestRenderSVGEmpty(t *testing.T) {
	svg := string(RenderSVG(graph.Layout{Width: 100, Height: 100}))
	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Errorf("RenderSVG() empty layout not a document: %q", svg)
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testLayout())

	checks := []string{
		"digraph G {",
		"layout=neato;",
		`"u1" [label="", xlabel="Alice", pos="100.00,200.00!"`,
		`"u2" [label="", xlabel="Bob & <Co>", pos="300.00,100.00!"`,
		`"u1" -> "u2" [penwidth=4.00, weight=4`,
	}
	for _, want := range checks {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q in:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "ghost") {
		t.Error("ToDOT() should skip edges with missing endpoints")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want string
	}{
		{
			name: "with viewBox",
			svg:  `<svg viewBox="10 20 800 600" xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 800.00 600.00" width="800" height="600">content</svg>`,
		},
		{
			name: "no viewBox",
			svg:  `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
		},
		{
			name: "zero dimensions",
			svg:  `<svg viewBox="0 0 0 0">content</svg>`,
			want: `<svg viewBox="0 0 0 0">content</svg>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeViewBox([]byte(tt.svg))
			if string(got) != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", string(got), tt.want)
			}
		})
	}
}

func TestRenderDOTSVG(t *testing.T) {
	svg, err := RenderDOTSVG(context.Background(), ToDOT(testLayout()))
	if err != nil {
		t.Fatalf("RenderDOTSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderDOTSVG() output missing <svg> tag")
	}
}

func TestRenderDOTSVG_InvalidDOT(t *testing.T) {
	if _, err := RenderDOTSVG(context.Background(), `not valid DOT {{{`); err == nil {
		t.Error("RenderDOTSVG() should return error for invalid DOT")
	}
}

func TestRender(t *testing.T) {
	ctx := context.Background()
	l := testLayout()

	tests := []struct {
		format string
		prefix string
	}{
		{graph.FormatSVG, "<svg"},
		{graph.FormatDOT, "digraph G"},
		{graph.FormatJSON, "{"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out, err := Render(ctx, l, tt.format)
			if err != nil {
				t.Fatalf("Render(%s) error: %v", tt.format, err)
			}
			if !strings.HasPrefix(string(out), tt.prefix) {
				t.Errorf("Render(%s) = %q..., want prefix %q", tt.format, out[:min(len(out), 20)], tt.prefix)
			}
		})
	}

	_, err := Render(ctx, l, "gif")
	if !gerrors.Is(err, gerrors.ErrCodeInvalidFormat) {
		t.Errorf("Render(gif) error = %v, want INVALID_FORMAT", err)
	}
}

func TestContentType(t *testing.T) {
	for _, f := range graph.Formats {
		if ContentType(f) == "application/octet-stream" {
			t.Errorf("ContentType(%q) has no specific type", f)
		}
	}
	if ContentType("zip") != "application/octet-stream" {
		t.Error("unknown formats should be octet-stream")
	}
}

func TestRenderGraphvizEngine(t *testing.T) {
	ctx := context.Background()
	out, err := Render(ctx, testLayout(), graph.FormatSVG, Options{Engine: EngineGraphviz})
	if err != nil {
		t.Fatalf("Render(graphviz) error: %v", err)
	}
	if !strings.Contains(string(out), "<svg") {
		t.Error("graphviz engine output missing <svg> tag")
	}

	_, err = Render(ctx, testLayout(), graph.FormatSVG, Options{Engine: "canvas"})
	if !gerrors.Is(err, gerrors.ErrCodeInvalidInput) {
		t.Errorf("unknown engine error = %v, want INVALID_INPUT", err)
	}
}
