// Package pipeline runs the load → build → layout → render pipeline.
//
// The CLI and the HTTP server both go through a [Runner] so that caching,
// defaults and observability behave the same everywhere.
//
// # Stages
//
//  1. Load: read users and gifts from a [gift.Store]
//  2. Build: aggregate gifts into a circulation graph
//  3. Layout: settle a force simulation headlessly, cached by graph hash,
//     viewport, seed and simulation options
//  4. Render: produce artifacts (svg, png, pdf, dot, json), cached per
//     format by layout hash
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, store, pipeline.Options{
//	    Width:   1024,
//	    Height:  768,
//	    Formats: []string{"svg", "json"},
//	})
//	svg := result.Artifacts["svg"]
//
// Stages can also be run individually with [Runner.Build], [Runner.Layout]
// and [Runner.Render].
//
// [gift.Store]: github.com/matzehuels/giftgraph/pkg/gift.Store
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/giftgraph/pkg/cache"
	"github.com/matzehuels/giftgraph/pkg/circulation"
	"github.com/matzehuels/giftgraph/pkg/errors"
	"github.com/matzehuels/giftgraph/pkg/graph"
	"github.com/matzehuels/giftgraph/pkg/layout"
	"github.com/matzehuels/giftgraph/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWidth is the default viewport width in pixels.
	DefaultWidth = 800.0

	// DefaultHeight is the default viewport height in pixels.
	DefaultHeight = 600.0

	// DefaultSeed is the default seed for reproducible layouts.
	DefaultSeed = int64(layout.DefaultSeed)

	// DefaultMaxTicks bounds a headless settle. A simulation with a zero
	// alpha target settles in about 300 ticks.
	DefaultMaxTicks = 600

	// DefaultScale is the PNG resolution factor.
	DefaultScale = 2.0
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	Width         float64 `json:"width,omitempty"`
	Height        float64 `json:"height,omitempty"`
	Seed          int64   `json:"seed,omitempty"`
	SeedMode      string  `json:"seed_mode,omitempty"`
	MaxTicks      int     `json:"max_ticks,omitempty"`
	WeightedLinks bool    `json:"weighted_links,omitempty"`

	// Render options
	Formats   []string `json:"formats,omitempty"`
	Engine    string   `json:"engine,omitempty"`
	Scale     float64  `json:"scale,omitempty"`
	NoAvatars bool     `json:"no_avatars,omitempty"`

	// Refresh bypasses cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Logger is not serialized.
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the circulation graph built from the store.
	Graph circulation.Graph

	// GraphHash is the content hash of the graph.
	GraphHash string

	// Layout is the settled layout.
	Layout graph.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Users      int
	Gifts      int
	NodeCount  int
	EdgeCount  int
	Ticks      int
	LoadTime   time.Duration
	BuildTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !graph.IsFormat(format) {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %v)", format, graph.Formats)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.SeedMode == "" {
		o.SeedMode = string(layout.SeedPhyllotaxis)
	}
	if o.MaxTicks == 0 {
		o.MaxTicks = DefaultMaxTicks
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := errors.ValidateViewport(o.Width, o.Height); err != nil {
		return err
	}
	if _, err := layout.ParseSeedMode(o.SeedMode); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "seed mode")
	}
	if o.MaxTicks < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max ticks must not be negative, got %d", o.MaxTicks)
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{graph.FormatSVG}
	}
	if o.Engine == "" {
		o.Engine = render.EngineBuiltin
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.Engine != render.EngineBuiltin && o.Engine != render.EngineGraphviz {
		return errors.New(errors.ErrCodeInvalidInput, "invalid engine: %q (must be one of: %s, %s)", o.Engine, render.EngineBuiltin, render.EngineGraphviz)
	}
	return ValidateFormats(o.Formats)
}

// LayoutOptions converts o to simulation options.
func (o *Options) LayoutOptions() []layout.Option {
	mode, _ := layout.ParseSeedMode(o.SeedMode)
	opts := []layout.Option{layout.WithSeed(o.Seed), layout.WithSeedMode(mode)}
	if o.WeightedLinks {
		opts = append(opts, layout.WithWeightedLinks())
	}
	return opts
}

// RenderOptions converts o to render options.
func (o *Options) RenderOptions() render.Options {
	ro := render.Options{Engine: o.Engine, Scale: o.Scale}
	if o.NoAvatars {
		ro.SVG = append(ro.SVG, render.WithoutAvatars())
	}
	return ro
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Width:         o.Width,
		Height:        o.Height,
		Seed:          o.Seed,
		SeedMode:      o.SeedMode,
		MaxTicks:      o.MaxTicks,
		WeightedLinks: o.WeightedLinks,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	style := o.Engine
	if o.NoAvatars {
		style += "+noavatars"
	}
	if format == graph.FormatPNG {
		style += fmt.Sprintf("@%gx", o.Scale)
	}
	return cache.ArtifactKeyOpts{Format: format, Style: style}
}
