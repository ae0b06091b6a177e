package layout

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/giftgraph/pkg/circulation"
)

// Controller keeps at most one live Handle and rebuilds it when the graph
// content, the viewport or the seed changes. It is meant to be driven from
// a single goroutine.
type Controller struct {
	opts      []Option
	logger    *log.Logger
	onRebuild func(*Handle)

	handle *Handle
	key    string
	seed   int64

	graph         circulation.Graph
	width, height float64
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithLayoutOptions sets the options passed to every new handle.
func WithLayoutOptions(opts ...Option) ControllerOption {
	return func(c *Controller) { c.opts = append(c.opts, opts...) }
}

// WithControllerLogger sets the logger for rebuild events.
func WithControllerLogger(l *log.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRebuildHook calls fn with every new handle before Sync returns.
func WithRebuildHook(fn func(*Handle)) ControllerOption {
	return func(c *Controller) { c.onRebuild = fn }
}

// NewController returns a controller with no live handle.
func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(c)
	}
	c.seed = buildConfig(c.opts).Seed
	return c
}

// SyncKey identifies a (graph, viewport, seed) combination.
func SyncKey(g circulation.Graph, width, height float64, seed int64) string {
	h := sha256.New()
	h.Write([]byte(g.Hash()))
	var buf [8]byte
	for _, v := range []uint64{math.Float64bits(width), math.Float64bits(height), uint64(seed)} {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Sync makes the live handle match g and the viewport. When the content is
// unchanged it does nothing and returns false. Otherwise the current handle
// is disposed, which waits for its Run loop to exit, and a new one is built.
// A viewport without area leaves no live handle and is not an error.
func (c *Controller) Sync(g circulation.Graph, width, height float64) (bool, error) {
	key := SyncKey(g, width, height, c.seed)
	if key == c.key {
		return false, nil
	}
	c.graph, c.width, c.height = g, width, height
	return c.rebuild(key)
}

// Reseed rebuilds the current graph with a different seed.
func (c *Controller) Reseed(seed int64) (bool, error) {
	c.seed = seed
	return c.Sync(c.graph, c.width, c.height)
}

func (c *Controller) rebuild(key string) (bool, error) {
	if c.handle != nil {
		c.handle.Dispose()
		c.handle = nil
	}
	c.key = key

	opts := append(append([]Option(nil), c.opts...), WithSeed(c.seed))
	h, err := NewHandle(c.graph, c.width, c.height, opts...)
	if errors.Is(err, ErrViewportNotReady) {
		c.logger.Debug("layout deferred, viewport not ready", "width", c.width, "height", c.height)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	c.handle = h
	c.logger.Debug("layout rebuilt", "nodes", h.sim.Len(), "links", h.sim.LinkCount(),
		"width", c.width, "height", c.height, "seed", c.seed)
	if c.onRebuild != nil {
		c.onRebuild(h)
	}
	return true, nil
}

// Handle returns the live handle, or nil when none exists.
func (c *Controller) Handle() *Handle { return c.handle }

// Seed returns the seed used for the next rebuild.
func (c *Controller) Seed() int64 { return c.seed }

// Graph returns the graph most recently passed to Sync.
func (c *Controller) Graph() circulation.Graph { return c.graph }

// Close disposes the live handle.
func (c *Controller) Close() {
	if c.handle != nil {
		c.handle.Dispose()
		c.handle = nil
	}
	c.key = ""
}
