package layout

import (
	"fmt"
	"math"
)

// Defaults for the force model.
const (
	DefaultLinkDistance    = 100.0
	DefaultChargeStrength  = -300.0
	DefaultDistanceMin     = 1.0
	DefaultCollideMargin   = 10.0
	DefaultCenterOffsetY   = 40.0
	DefaultVelocityDecay   = 0.4
	DefaultAlphaMin        = 0.001
	DefaultDragAlphaTarget = 0.3
	DefaultSeed            = 42

	// coolingTicks is the number of ticks alpha takes to decay from 1 to
	// alphaMin with a zero target.
	coolingTicks = 300

	initialRadius = 10.0
)

// initialAngle is the golden angle used for phyllotaxis seeding.
var initialAngle = math.Pi * (3 - math.Sqrt(5))

// SeedMode selects how bodies are placed before the first tick.
type SeedMode string

// Seeding strategies.
const (
	SeedPhyllotaxis SeedMode = "phyllotaxis"
	SeedNoise       SeedMode = "noise"
)

// ParseSeedMode converts a flag or config value to a SeedMode.
// The empty string selects phyllotaxis.
func ParseSeedMode(s string) (SeedMode, error) {
	switch SeedMode(s) {
	case "", SeedPhyllotaxis:
		return SeedPhyllotaxis, nil
	case SeedNoise:
		return SeedNoise, nil
	}
	return "", fmt.Errorf("unknown seed mode %q (want %s or %s)", s, SeedPhyllotaxis, SeedNoise)
}

// Config holds the simulation parameters. The zero value is not usable;
// start from [DefaultConfig].
type Config struct {
	LinkDistance    float64
	ChargeStrength  float64
	DistanceMin     float64
	CollideMargin   float64
	CenterOffsetY   float64
	VelocityDecay   float64
	AlphaMin        float64
	AlphaDecay      float64
	DragAlphaTarget float64

	Seed     int64
	SeedMode SeedMode

	// WeightedLinks scales each link's strength by its weight relative to
	// the mean weight. Off by default: weight only affects stroke width.
	WeightedLinks bool
}

// DefaultConfig returns the standard parameters.
func DefaultConfig() Config {
	return Config{
		LinkDistance:    DefaultLinkDistance,
		ChargeStrength:  DefaultChargeStrength,
		DistanceMin:     DefaultDistanceMin,
		CollideMargin:   DefaultCollideMargin,
		CenterOffsetY:   DefaultCenterOffsetY,
		VelocityDecay:   DefaultVelocityDecay,
		AlphaMin:        DefaultAlphaMin,
		AlphaDecay:      1 - math.Pow(DefaultAlphaMin, 1.0/coolingTicks),
		DragAlphaTarget: DefaultDragAlphaTarget,
		Seed:            DefaultSeed,
		SeedMode:        SeedPhyllotaxis,
	}
}

// Option adjusts a Config.
type Option func(*Config)

// WithSeed sets the seed for noise seeding and jitter.
func WithSeed(seed int64) Option {
	return func(c *Config) { c.Seed = seed }
}

// WithSeedMode selects the seeding strategy.
func WithSeedMode(m SeedMode) Option {
	return func(c *Config) {
		if m != "" {
			c.SeedMode = m
		}
	}
}

// WithWeightedLinks makes heavier edges pull harder.
func WithWeightedLinks() Option {
	return func(c *Config) { c.WeightedLinks = true }
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) { *c = cfg }
}

func buildConfig(opts []Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
