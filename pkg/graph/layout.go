package graph

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matzehuels/giftgraph/pkg/circulation"
	"github.com/matzehuels/giftgraph/pkg/layout"
)

// =============================================================================
// Layout - Positioned Circulation Graph
// =============================================================================

// Layout is a circulation graph with a position for every node.
type Layout struct {
	Width    float64 `json:"width" bson:"width"`
	Height   float64 `json:"height" bson:"height"`
	Seed     int64   `json:"seed" bson:"seed"`
	SeedMode string  `json:"seed_mode,omitempty" bson:"seed_mode,omitempty"`
	Ticks    int     `json:"ticks" bson:"ticks"`
	Alpha    float64 `json:"alpha" bson:"alpha"`
	Settled  bool    `json:"settled" bson:"settled"`
	Nodes    []Node  `json:"nodes" bson:"nodes"`
	Edges    []Edge  `json:"edges" bson:"edges"`
}

// NewLayout captures the current state of sim for graph g.
func NewLayout(g circulation.Graph, sim *layout.Simulation) Layout {
	w, h := sim.Size()
	cfg := sim.Config()
	return build(g, sim.Positions(), Layout{
		Width:    w,
		Height:   h,
		Seed:     cfg.Seed,
		SeedMode: string(cfg.SeedMode),
		Ticks:    sim.Ticks(),
		Alpha:    sim.Alpha(),
		Settled:  sim.State() == layout.Settled,
	})
}

// FromPositions builds a layout from positions reported by a tick listener.
func FromPositions(g circulation.Graph, positions []layout.Position, width, height float64) Layout {
	return build(g, positions, Layout{Width: width, Height: height})
}

func build(g circulation.Graph, positions []layout.Position, l Layout) Layout {
	at := make(map[string]layout.Position, len(positions))
	for _, p := range positions {
		at[p.ID] = p
	}

	l.Nodes = make([]Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		p, ok := at[n.ID]
		if !ok {
			continue
		}
		node := nodeFrom(n)
		node.X, node.Y = p.X, p.Y
		l.Nodes = append(l.Nodes, node)
	}

	l.Edges = make([]Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		_, okFrom := at[e.From]
		_, okTo := at[e.To]
		if okFrom && okTo {
			l.Edges = append(l.Edges, edgeFrom(e))
		}
	}
	return l
}

// Index maps node ids to their position in l.Nodes.
func (l *Layout) Index() map[string]int {
	m := make(map[string]int, len(l.Nodes))
	for i, n := range l.Nodes {
		m[n.ID] = i
	}
	return m
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
// The viewport must be positive.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if l.Width <= 0 || l.Height <= 0 {
		return Layout{}, fmt.Errorf("layout must have a positive viewport, got %gx%g", l.Width, l.Height)
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
