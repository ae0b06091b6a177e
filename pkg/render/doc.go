// Package render turns a settled gift-circulation layout into images.
//
// # Overview
//
// The renderers take a [graph.Layout], which already carries a position for
// every node, and never move anything themselves:
//
//   - [RenderSVG] draws the node-link diagram directly: arrowed edges whose
//     width grows with the square root of their weight, circles filled with
//     each person's colour, avatars clipped to the circle, and name labels.
//   - [ToDOT] emits the same diagram as Graphviz DOT with pinned positions,
//     and [RenderDOTSVG] renders it through the embedded Graphviz runtime.
//   - [ToPDF] and [ToPNG] convert any SVG using the external rsvg-convert
//     tool (from librsvg).
//
// [Render] dispatches on an output format name:
//
//	svg, err := render.Render(ctx, l, graph.FormatSVG)
//	png, err := render.Render(ctx, l, graph.FormatPNG)
//
// [graph.Layout]: github.com/matzehuels/giftgraph/pkg/graph.Layout
package render
