// Package cache stores settled layouts and rendered artifacts so that an
// unchanged gift history never has to be simulated twice.
//
// Keys are derived from content hashes: a layout key hashes the circulation
// graph together with the viewport and seeding options, and an artifact key
// hashes the layout together with the output format. Entries therefore never
// need explicit invalidation; a changed graph simply produces a new key.
//
// Three backends are provided:
//   - [NullCache] stores nothing (caching disabled)
//   - [FileCache] keeps entries under a local directory (the CLI default)
//   - [RedisCache] shares entries between server replicas
package cache

import (
	"context"
	"time"
)

// Default lifetimes for cached entries.
const (
	LayoutTTL   = 7 * 24 * time.Hour
	ArtifactTTL = 30 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with optional expiry.
//
// Get reports a miss with (nil, false, nil). Implementations may degrade
// backend failures into misses rather than errors.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// LayoutKeyOpts holds the inputs that change a settled layout for the
// same graph.
type LayoutKeyOpts struct {
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	Seed          int64   `json:"seed"`
	SeedMode      string  `json:"seed_mode"`
	MaxTicks      int     `json:"max_ticks"`
	WeightedLinks bool    `json:"weighted_links,omitempty"`
}

// ArtifactKeyOpts holds the inputs that change a rendered artifact for the
// same layout.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Style  string `json:"style,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces keys of the form "layout:<sha256>" and
// "artifact:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey generates a key for a settled layout.
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
