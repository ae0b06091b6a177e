package graph

import (
	"slices"

	"github.com/matzehuels/giftgraph/pkg/circulation"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// Formats lists every supported output format.
var Formats = []string{FormatSVG, FormatPNG, FormatPDF, FormatDOT, FormatJSON}

// IsFormat reports whether f is a supported output format.
func IsFormat(f string) bool { return slices.Contains(Formats, f) }

// =============================================================================
// Graph - Circulation Graph Serialization
// =============================================================================

// Graph is the canonical serialization format for circulation graphs.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node is shared by Graph and Layout. X and Y are only set in layouts.
type Node struct {
	ID     string  `json:"id" bson:"id"`
	Label  string  `json:"label,omitempty" bson:"label,omitempty"`
	Avatar string  `json:"avatar,omitempty" bson:"avatar,omitempty"`
	Color  string  `json:"color,omitempty" bson:"color,omitempty"`
	Radius float64 `json:"radius" bson:"radius"`
	X      float64 `json:"x,omitempty" bson:"x,omitempty"`
	Y      float64 `json:"y,omitempty" bson:"y,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is an aggregated directed edge.
type Edge struct {
	From        string  `json:"from" bson:"from"`
	To          string  `json:"to" bson:"to"`
	Weight      float64 `json:"weight" bson:"weight"`
	StrokeWidth float64 `json:"stroke_width" bson:"stroke_width"`
}

// =============================================================================
// circulation.Graph ↔ Graph Conversion
// =============================================================================

// FromCirculation converts a circulation graph to its serialization format,
// keeping node and edge order.
func FromCirculation(g circulation.Graph) Graph {
	out := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = nodeFrom(n)
	}
	for i, e := range g.Edges {
		out.Edges[i] = edgeFrom(e)
	}
	return out
}

// ToCirculation converts back to the in-memory form. Stroke widths are
// derived data and are dropped.
func (g Graph) ToCirculation() circulation.Graph {
	out := circulation.Graph{
		Nodes: make([]circulation.Node, len(g.Nodes)),
		Edges: make([]circulation.Edge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = circulation.Node{ID: n.ID, Label: n.Label, Avatar: n.Avatar, Color: n.Color, Radius: n.Radius}
	}
	for i, e := range g.Edges {
		out.Edges[i] = circulation.Edge{From: e.From, To: e.To, Weight: e.Weight}
	}
	return out
}

func nodeFrom(n circulation.Node) Node {
	return Node{ID: n.ID, Label: n.Label, Avatar: n.Avatar, Color: n.Color, Radius: n.Radius}
}

func edgeFrom(e circulation.Edge) Edge {
	return Edge{From: e.From, To: e.To, Weight: e.Weight, StrokeWidth: e.StrokeWidth()}
}
