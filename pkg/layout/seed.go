package layout

import (
	"math"

	"github.com/ojrac/opensimplex-go"
)

// noiseFrequency spaces successive bodies along the noise field.
const noiseFrequency = 0.7

// seed places every body according to the configured mode, with zero
// velocity.
func (s *Simulation) seed() {
	switch s.cfg.SeedMode {
	case SeedNoise:
		s.seedNoise()
	default:
		s.seedPhyllotaxis()
	}
	for i := range s.bodies {
		s.bodies[i].vx, s.bodies[i].vy = 0, 0
	}
}

// seedPhyllotaxis lays bodies on a sunflower spiral around the centre.
func (s *Simulation) seedPhyllotaxis() {
	cx, cy := s.center()
	for i := range s.bodies {
		r := initialRadius * math.Sqrt(0.5+float64(i))
		a := float64(i) * initialAngle
		s.bodies[i].x = cx + r*math.Cos(a)
		s.bodies[i].y = cy + r*math.Sin(a)
	}
}

// seedNoise scatters bodies over the middle of the viewport using two
// decorrelated simplex noise samples per body.
func (s *Simulation) seedNoise() {
	cx, cy := s.center()
	noise := opensimplex.New(s.cfg.Seed)
	spreadX, spreadY := s.width/3, s.height/3
	for i := range s.bodies {
		t := float64(i) * noiseFrequency
		s.bodies[i].x = cx + noise.Eval2(t, 0.5)*spreadX
		s.bodies[i].y = cy + noise.Eval2(0.5, t+100)*spreadY
	}
}
