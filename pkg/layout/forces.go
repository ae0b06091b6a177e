package layout

import "math"

// applyLinks pulls linked bodies toward the configured distance, using
// velocity-predicted positions. The correction is split between the two
// ends by degree so that well-connected bodies move less.
func (s *Simulation) applyLinks() {
	for _, l := range s.links {
		src, tgt := &s.bodies[l.source], &s.bodies[l.target]
		x := tgt.x + tgt.vx - src.x - src.vx
		if x == 0 {
			x = s.jiggle()
		}
		y := tgt.y + tgt.vy - src.y - src.vy
		if y == 0 {
			y = s.jiggle()
		}
		d := math.Sqrt(x*x + y*y)
		k := (d - s.cfg.LinkDistance) / d * s.alpha * l.strength
		x *= k
		y *= k
		tgt.vx -= x * l.bias
		tgt.vy -= y * l.bias
		src.vx += x * (1 - l.bias)
		src.vy += y * (1 - l.bias)
	}
}

// applyCharge applies pairwise inverse-square repulsion. Squared distances
// below DistanceMin² are softened to avoid blowing up on near-coincident
// bodies.
func (s *Simulation) applyCharge() {
	n := len(s.bodies)
	if n < 2 {
		return
	}
	dmin2 := s.cfg.DistanceMin * s.cfg.DistanceMin
	k := s.cfg.ChargeStrength * s.alpha
	for i := 0; i < n; i++ {
		bi := &s.bodies[i]
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			bj := &s.bodies[j]
			x := bj.x - bi.x
			y := bj.y - bi.y
			l := x*x + y*y
			if x == 0 {
				x = s.jiggle()
				l += x * x
			}
			if y == 0 {
				y = s.jiggle()
				l += y * y
			}
			if l < dmin2 {
				l = math.Sqrt(dmin2 * l)
			}
			bi.vx += x * k / l
			bi.vy += y * k / l
		}
	}
}

// applyCenter translates all bodies so their mean sits on the centre.
func (s *Simulation) applyCenter() {
	n := len(s.bodies)
	if n == 0 {
		return
	}
	cx, cy := s.center()
	var sx, sy float64
	for _, b := range s.bodies {
		sx += b.x
		sy += b.y
	}
	sx = sx/float64(n) - cx
	sy = sy/float64(n) - cy
	for i := range s.bodies {
		s.bodies[i].x -= sx
		s.bodies[i].y -= sy
	}
}

// applyCollide pushes apart overlapping bodies in one relaxation pass.
// Each pair's correction is shared in proportion to the other body's
// squared radius.
func (s *Simulation) applyCollide() {
	n := len(s.bodies)
	margin := s.cfg.CollideMargin
	for i := 0; i < n; i++ {
		bi := &s.bodies[i]
		ri := bi.radius + margin
		ri2 := ri * ri
		xi := bi.x + bi.vx
		yi := bi.y + bi.vy
		for j := i + 1; j < n; j++ {
			bj := &s.bodies[j]
			rj := bj.radius + margin
			r := ri + rj
			x := xi - bj.x - bj.vx
			y := yi - bj.y - bj.vy
			l := x*x + y*y
			if l >= r*r {
				continue
			}
			if x == 0 {
				x = s.jiggle()
				l += x * x
			}
			if y == 0 {
				y = s.jiggle()
				l += y * y
			}
			d := math.Sqrt(l)
			k := (r - d) / d
			x *= k
			y *= k
			rj2 := rj * rj
			share := rj2 / (ri2 + rj2)
			bi.vx += x * share
			bi.vy += y * share
			bj.vx -= x * (1 - share)
			bj.vy -= y * (1 - share)
		}
	}
}
