package layout

import (
	"errors"
	"math"
	"math/rand/v2"

	"github.com/matzehuels/giftgraph/pkg/circulation"
)

// ErrViewportNotReady is returned when the viewport has no area yet.
var ErrViewportNotReady = errors.New("layout: viewport not ready")

// State is the lifecycle phase of a simulation.
type State int

const (
	Seeding State = iota
	Running
	Dragging
	Settled
)

func (s State) String() string {
	switch s {
	case Seeding:
		return "seeding"
	case Running:
		return "running"
	case Dragging:
		return "dragging"
	case Settled:
		return "settled"
	}
	return "unknown"
}

// Position is a body's location after a tick.
type Position struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type body struct {
	x, y   float64
	vx, vy float64
	fx, fy float64
	pinned bool
	radius float64
}

type link struct {
	source, target int
	weight         float64
	strength       float64
	bias           float64
}

// Simulation is a force simulation over an arena of bodies. It is not safe
// for concurrent use.
type Simulation struct {
	cfg           Config
	width, height float64

	ids    []string
	index  map[string]int
	bodies []body
	links  []link

	alpha       float64
	alphaTarget float64
	state       State
	ticks       int
	pinned      int

	rng *rand.Rand
}

// New seeds a simulation for g in a width x height viewport.
func New(g circulation.Graph, width, height float64, opts ...Option) (*Simulation, error) {
	if !(width > 0) || !(height > 0) {
		return nil, ErrViewportNotReady
	}
	cfg := buildConfig(opts)

	s := &Simulation{
		cfg:    cfg,
		width:  width,
		height: height,
		index:  make(map[string]int, len(g.Nodes)),
		alpha:  1,
		state:  Seeding,
		rng:    rand.New(rand.NewPCG(uint64(cfg.Seed), 0x9e3779b97f4a7c15)),
	}
	for _, n := range g.Nodes {
		if _, dup := s.index[n.ID]; dup {
			continue
		}
		r := n.Radius
		if r <= 0 {
			r = circulation.NodeRadius
		}
		s.index[n.ID] = len(s.bodies)
		s.ids = append(s.ids, n.ID)
		s.bodies = append(s.bodies, body{radius: r})
	}
	for _, e := range g.Edges {
		si, ok1 := s.index[e.From]
		ti, ok2 := s.index[e.To]
		if !ok1 || !ok2 || si == ti {
			continue
		}
		s.links = append(s.links, link{source: si, target: ti, weight: e.Weight})
	}
	s.initLinks()
	s.seed()

	if len(s.bodies) == 0 {
		s.state = Settled
	}
	return s, nil
}

// initLinks derives per-link strength and bias from body degree.
func (s *Simulation) initLinks() {
	count := make([]int, len(s.bodies))
	for _, l := range s.links {
		count[l.source]++
		count[l.target]++
	}
	var mean float64
	if len(s.links) > 0 {
		for _, l := range s.links {
			mean += l.weight
		}
		mean /= float64(len(s.links))
	}
	for i := range s.links {
		l := &s.links[i]
		cs, ct := count[l.source], count[l.target]
		l.bias = float64(cs) / float64(cs+ct)
		l.strength = 1 / float64(min(cs, ct))
		if s.cfg.WeightedLinks && mean > 0 {
			l.strength = math.Min(1, l.strength*l.weight/mean)
		}
	}
}

func (s *Simulation) center() (float64, float64) {
	return s.width / 2, s.height/2 - s.cfg.CenterOffsetY
}

// Step advances the simulation by one tick if it has not settled and
// reports whether a tick ran.
func (s *Simulation) Step() bool {
	if s.state == Settled {
		return false
	}
	s.tick()
	switch {
	case s.alpha < s.cfg.AlphaMin:
		s.state = Settled
	case s.pinned > 0:
		s.state = Dragging
	default:
		s.state = Running
	}
	return true
}

func (s *Simulation) tick() {
	s.alpha += (s.alphaTarget - s.alpha) * s.cfg.AlphaDecay

	s.applyLinks()
	s.applyCharge()
	s.applyCenter()
	s.applyCollide()

	keep := 1 - s.cfg.VelocityDecay
	for i := range s.bodies {
		b := &s.bodies[i]
		if b.pinned {
			b.x, b.vx = b.fx, 0
			b.y, b.vy = b.fy, 0
		} else {
			b.vx *= keep
			b.vy *= keep
			b.x += b.vx
			b.y += b.vy
		}
		b.x, b.y = s.clamp(b.x, b.y, b.radius)
	}
	s.ticks++
}

func (s *Simulation) clamp(x, y, r float64) (float64, float64) {
	return math.Max(r, math.Min(s.width-r, x)), math.Max(r, math.Min(s.height-r, y))
}

// Settle steps until the simulation settles or maxTicks ticks have run,
// and returns the number of ticks taken. A non-positive maxTicks means no
// limit; a simulation with a pinned body never settles on its own, so
// callers driving pinned simulations should pass a limit.
func (s *Simulation) Settle(maxTicks int) int {
	n := 0
	for maxTicks <= 0 || n < maxTicks {
		if !s.Step() {
			break
		}
		n++
	}
	return n
}

// Positions returns a copy of every body's position in node order.
func (s *Simulation) Positions() []Position {
	out := make([]Position, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = Position{ID: s.ids[i], X: b.x, Y: b.y}
	}
	return out
}

// Position returns the position of one body.
func (s *Simulation) Position(id string) (Position, bool) {
	i, ok := s.index[id]
	if !ok {
		return Position{}, false
	}
	return Position{ID: id, X: s.bodies[i].x, Y: s.bodies[i].y}, true
}

// Pin fixes a body at (x, y), clamped to the viewport, and wakes the
// simulation with the drag alpha target. It reports false for unknown ids.
func (s *Simulation) Pin(id string, x, y float64) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	b := &s.bodies[i]
	b.fx, b.fy = s.clamp(x, y, b.radius)
	if !b.pinned {
		b.pinned = true
		s.pinned++
	}
	s.alphaTarget = s.cfg.DragAlphaTarget
	s.state = Dragging
	return true
}

// Unpin releases a body. Once no body is pinned the alpha target returns
// to zero and the simulation cools down again.
func (s *Simulation) Unpin(id string) bool {
	i, ok := s.index[id]
	if !ok || !s.bodies[i].pinned {
		return false
	}
	s.bodies[i].pinned = false
	s.pinned--
	if s.pinned == 0 {
		s.alphaTarget = 0
		if s.state == Dragging {
			s.state = Running
		}
	}
	return true
}

// Pinned reports whether id is currently pinned.
func (s *Simulation) Pinned(id string) bool {
	i, ok := s.index[id]
	return ok && s.bodies[i].pinned
}

// Reheat resets alpha to 1 so a settled simulation runs again.
func (s *Simulation) Reheat() {
	if len(s.bodies) == 0 {
		return
	}
	s.alpha = 1
	if s.state == Settled {
		s.state = Running
	}
}

// Alpha returns the current cooling value.
func (s *Simulation) Alpha() float64 { return s.alpha }

// State returns the lifecycle phase.
func (s *Simulation) State() State { return s.state }

// Ticks returns the number of ticks run so far.
func (s *Simulation) Ticks() int { return s.ticks }

// Config returns the parameters the simulation was built with.
func (s *Simulation) Config() Config { return s.cfg }

// Size returns the viewport.
func (s *Simulation) Size() (width, height float64) { return s.width, s.height }

// Len returns the number of bodies.
func (s *Simulation) Len() int { return len(s.bodies) }

// LinkCount returns the number of links that take part in the simulation.
// Edges with unknown endpoints are not counted.
func (s *Simulation) LinkCount() int { return len(s.links) }

func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}
