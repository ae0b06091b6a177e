package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/giftgraph/pkg/cache"
	"github.com/matzehuels/giftgraph/pkg/circulation"
	"github.com/matzehuels/giftgraph/pkg/gift"
	"github.com/matzehuels/giftgraph/pkg/graph"
	"github.com/matzehuels/giftgraph/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → build → layout → render pipeline.
func (r *Runner) Execute(ctx context.Context, store gift.Store, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	snap, err := Load(ctx, store)
	result.Stats.LoadTime = time.Since(loadStart)
	observability.Pipeline().OnLoadComplete(ctx, len(snap.Users), len(snap.Gifts), result.Stats.LoadTime, err)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Stats.Users = len(snap.Users)
	result.Stats.Gifts = len(snap.Gifts)

	// Stage 2: Build
	g := r.Build(ctx, snap)
	result.Graph = g
	result.GraphHash = g.Hash()
	result.Stats.NodeCount = len(g.Nodes)
	result.Stats.EdgeCount = len(g.Edges)

	// Stage 3: Layout
	layoutStart := time.Now()
	l, layoutHit, err := r.LayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.Ticks = l.Ticks
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"nodes", len(l.Nodes),
		"ticks", l.Ticks,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 4: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load reads a consistent-enough snapshot of users and gifts from store.
func Load(ctx context.Context, store gift.Store) (gift.Snapshot, error) {
	users, err := store.ListUsers(ctx)
	if err != nil {
		return gift.Snapshot{}, err
	}
	gifts, err := store.ListGifts(ctx)
	if err != nil {
		return gift.Snapshot{}, err
	}
	return gift.Snapshot{Users: users, Gifts: gifts}, nil
}

// Build aggregates a snapshot into a circulation graph.
func (r *Runner) Build(ctx context.Context, snap gift.Snapshot) circulation.Graph {
	start := time.Now()
	g := circulation.Build(snap.Users, snap.Gifts)
	d := time.Since(start)
	observability.Pipeline().OnBuildComplete(ctx, len(g.Nodes), len(g.Edges), d)

	stats := g.Stats()
	r.Logger.Info("built circulation graph",
		"nodes", stats.Nodes,
		"edges", stats.Edges,
		"weight", stats.TotalWeight,
		"duration", d)
	if stats.DanglingEdges > 0 {
		r.Logger.Warn("gifts reference unknown users", "edges", stats.DanglingEdges)
	}
	return g
}

// LayoutWithCacheInfo settles a layout with caching and returns cache hit info.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g circulation.Graph, opts Options) (graph.Layout, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return graph.Layout{}, false, err
	}

	cacheKey := r.Keyer.LayoutKey(g.Hash(), opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			cached, err := graph.UnmarshalLayout(data)
			if err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, true, nil
			}
			r.Logger.Debug("discarding unreadable cached layout", "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	observability.Pipeline().OnLayoutStart(ctx, len(g.Nodes))
	start := time.Now()
	l, err := Settle(ctx, g, opts)
	observability.Pipeline().OnLayoutComplete(ctx, l.Ticks, time.Since(start), err)
	if err != nil {
		return graph.Layout{}, false, err
	}

	if data, err := graph.MarshalLayout(l); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.LayoutTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}

	return l, false, nil
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, g circulation.Graph, opts Options) (graph.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, g, opts)
	return l, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	layoutData, err := graph.MarshalLayout(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if _, dup := artifacts[format]; dup || slices.Contains(missing, format) {
			continue
		}
		if !opts.Refresh {
			key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				artifacts[format] = data
				continue
			}
			observability.Cache().OnCacheMiss(ctx, "artifact")
		}
		missing = append(missing, format)
	}

	if len(missing) == 0 {
		return artifacts, true, nil
	}

	observability.Pipeline().OnRenderStart(ctx, missing)
	start := time.Now()
	rendered, err := RenderFromLayout(ctx, l, missing, opts)
	observability.Pipeline().OnRenderComplete(ctx, missing, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
		artifacts[format] = data
	}

	return artifacts, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
