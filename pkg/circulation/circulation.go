// Package circulation builds the gift-circulation graph: one node per user
// that took part in at least one gift, and one weighted directed edge per
// ordered (sender, receiver) pair.
//
// [Build] is a total function. It never fails and never mutates its
// inputs. A gift that names a user missing from the user list still
// produces its edge, but no node is created for the unknown id; consumers
// skip such edges when positioning.
package circulation

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/matzehuels/giftgraph/pkg/gift"
)

// NodeRadius is the visual radius of every node.
const NodeRadius = 24

// Node is a user taking part in the circulation.
type Node struct {
	ID     string
	Label  string
	Avatar string
	Color  string
	Radius float64
}

// Key identifies an edge by its ordered endpoints.
type Key struct {
	From, To string
}

// Edge aggregates all gifts from one user to another.
type Edge struct {
	From   string
	To     string
	Weight float64
}

// Key returns the ordered pair identifying e. The reverse direction is a
// different key.
func (e Edge) Key() Key { return Key{From: e.From, To: e.To} }

// StrokeWidth is the rendered line width for e.
func (e Edge) StrokeWidth() float64 { return math.Sqrt(e.Weight) * 2 }

// Graph is the aggregated circulation graph. Nodes and edges are in order
// of first occurrence.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// GiftWeight is the contribution of a single gift with the given tip count.
func GiftWeight(tips int) float64 {
	if tips < 0 {
		tips = 0
	}
	return 1 + 0.5*float64(tips)
}

// Build aggregates gifts into a graph. Only users referenced by a gift
// become nodes, so empty gifts yield an empty graph.
func Build(users []gift.User, gifts []gift.Gift) Graph {
	byID := make(map[string]gift.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	var g Graph
	seen := make(map[string]bool)
	edgeAt := make(map[Key]int)

	addNode := func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		u, ok := byID[id]
		if !ok {
			return
		}
		g.Nodes = append(g.Nodes, Node{
			ID:     u.ID,
			Label:  u.Name,
			Avatar: u.Avatar,
			Color:  u.Color,
			Radius: NodeRadius,
		})
	}

	for _, gf := range gifts {
		addNode(gf.SenderID)
		addNode(gf.ReceiverID)

		k := Key{From: gf.SenderID, To: gf.ReceiverID}
		w := GiftWeight(gf.Tips)
		if i, ok := edgeAt[k]; ok {
			g.Edges[i].Weight += w
			continue
		}
		edgeAt[k] = len(g.Edges)
		g.Edges = append(g.Edges, Edge{From: k.From, To: k.To, Weight: w})
	}
	return g
}

// IsEmpty reports whether g has no nodes and no edges.
func (g Graph) IsEmpty() bool { return len(g.Nodes) == 0 && len(g.Edges) == 0 }

// NodeIndex maps node ids to their position in g.Nodes.
func (g Graph) NodeIndex() map[string]int {
	m := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		m[n.ID] = i
	}
	return m
}

// Hash returns a content hash of the nodes and edges. Two graphs with the
// same content in the same order hash identically.
func (g Graph) Hash() string {
	h := sha256.New()
	var buf [8]byte
	writeString := func(s string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
		h.Write(buf[:])
		h.Write([]byte(s))
	}
	writeFloat := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		h.Write(buf[:])
	}

	writeString("nodes")
	for _, n := range g.Nodes {
		writeString(n.ID)
		writeString(n.Label)
		writeString(n.Avatar)
		writeString(n.Color)
		writeFloat(n.Radius)
	}
	writeString("edges")
	for _, e := range g.Edges {
		writeString(e.From)
		writeString(e.To)
		writeFloat(e.Weight)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Stats summarizes a graph.
type Stats struct {
	Nodes           int     `json:"nodes"`
	Edges           int     `json:"edges"`
	TotalWeight     float64 `json:"total_weight"`
	ReciprocalPairs int     `json:"reciprocal_pairs"`
	DanglingEdges   int     `json:"dangling_edges"`
}

// Stats counts nodes and edges, sums edge weight, and counts pairs of users
// who have given to each other in both directions.
func (g Graph) Stats() Stats {
	s := Stats{Nodes: len(g.Nodes), Edges: len(g.Edges)}
	idx := g.NodeIndex()
	keys := make(map[Key]bool, len(g.Edges))
	for _, e := range g.Edges {
		keys[e.Key()] = true
	}
	for _, e := range g.Edges {
		s.TotalWeight += e.Weight
		if _, ok := idx[e.From]; !ok {
			s.DanglingEdges++
		} else if _, ok := idx[e.To]; !ok {
			s.DanglingEdges++
		}
		if e.From < e.To && keys[Key{From: e.To, To: e.From}] {
			s.ReciprocalPairs++
		}
	}
	return s
}
