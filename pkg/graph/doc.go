// Package graph provides serialization types for circulation graphs and
// layouts.
//
// This package defines the wire format used for JSON files, API responses
// and the layout cache. It sits at the boundary between the in-memory
// types and external formats:
//
//   - [Graph]: node-link form of a circulation.Graph
//   - [Layout]: positioned nodes and edges produced by the layout engine
//
// # Graph Serialization
//
//	{
//	  "nodes": [{"id": "u1", "label": "Alice", "color": "#f66", "radius": 24}],
//	  "edges": [{"from": "u1", "to": "u2", "weight": 2.5, "stroke_width": 3.16}]
//	}
//
// Use [FromCirculation] and [Graph.ToCirculation] to convert.
//
// # Layout Serialization
//
// A [Layout] carries the viewport, how far the simulation ran and a
// position for every node. Edges whose endpoints have no position are
// dropped when the layout is built, so renderers can rely on every edge
// resolving to two nodes.
//
//	sim.Settle(600)
//	l := graph.NewLayout(g, sim)
//	data, _ := graph.MarshalLayout(l)
//
// # Constants
//
// This package is the single source of truth for output format names:
//
//	graph.FormatSVG  // "svg"
//	graph.FormatPNG  // "png"
//	graph.FormatPDF  // "pdf"
//	graph.FormatDOT  // "dot"
//	graph.FormatJSON // "json"
package graph
