package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/giftgraph/pkg/cache"
	"github.com/matzehuels/giftgraph/pkg/circulation"
	gerrors "github.com/matzehuels/giftgraph/pkg/errors"
	"github.com/matzehuels/giftgraph/pkg/gift"
	"github.com/matzehuels/giftgraph/pkg/gift/memstore"
	"github.com/matzehuels/giftgraph/pkg/graph"
	"github.com/matzehuels/giftgraph/pkg/observability"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"dot", false},
		{"json", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !gerrors.Is(err, gerrors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s, want INVALID_FORMAT", tt.format, gerrors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestSetLayoutDefaults(t *testing.T) {
	opts := Options{}
	opts.SetLayoutDefaults()

	if opts.Width != DefaultWidth {
		t.Errorf("Width should be %f, got %f", DefaultWidth, opts.Width)
	}
	if opts.Height != DefaultHeight {
		t.Errorf("Height should be %f, got %f", DefaultHeight, opts.Height)
	}
	if opts.Seed != DefaultSeed {
		t.Errorf("Seed should be %d, got %d", DefaultSeed, opts.Seed)
	}
	if opts.SeedMode != "phyllotaxis" {
		t.Errorf("SeedMode should be phyllotaxis, got %s", opts.SeedMode)
	}
	if opts.MaxTicks != DefaultMaxTicks {
		t.Errorf("MaxTicks should be %d, got %d", DefaultMaxTicks, opts.MaxTicks)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestSetRenderDefaults(t *testing.T) {
	opts := Options{}
	opts.SetRenderDefaults()

	if len(opts.Formats) != 1 || opts.Formats[0] != graph.FormatSVG {
		t.Errorf("Formats should be [svg], got %v", opts.Formats)
	}
	if opts.Engine != "builtin" {
		t.Errorf("Engine should be builtin, got %s", opts.Engine)
	}
	if opts.Scale != DefaultScale {
		t.Errorf("Scale should be %g, got %g", DefaultScale, opts.Scale)
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code gerrors.Code
	}{
		{"negative width", Options{Width: -1}, gerrors.ErrCodeInvalidViewport},
		{"huge height", Options{Height: 1e6}, gerrors.ErrCodeInvalidViewport},
		{"seed mode", Options{SeedMode: "spiral"}, gerrors.ErrCodeInvalidInput},
		{"max ticks", Options{MaxTicks: -5}, gerrors.ErrCodeInvalidInput},
		{"engine", Options{Engine: "canvas"}, gerrors.ErrCodeInvalidInput},
		{"format", Options{Formats: []string{"gif"}}, gerrors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !gerrors.Is(err, tt.code) {
				t.Errorf("ValidateAndSetDefaults() = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Formats: []string{"svg", "json"}}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}
	before := opts.LayoutKeyOpts()

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}
	if opts.LayoutKeyOpts() != before {
		t.Error("layout options changed on second call")
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{}
	opts.SetRenderDefaults()

	svg := opts.ArtifactKeyOpts("svg")
	png := opts.ArtifactKeyOpts("png")
	if svg.Style == png.Style {
		t.Error("png key should include the scale")
	}

	opts.NoAvatars = true
	if opts.ArtifactKeyOpts("svg") == svg {
		t.Error("NoAvatars should change the artifact key")
	}
}

func demoStore(t *testing.T) *memstore.Store {
	t.Helper()
	s := memstore.New()
	users, gifts := gift.DemoData(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	if err := s.Seed(context.Background(), users, gifts); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return s
}

func TestSettle(t *testing.T) {
	ctx := context.Background()
	snap, err := Load(ctx, demoStore(t))
	if err != nil {
		t.Fatal(err)
	}
	g := circulation.Build(snap.Users, snap.Gifts)

	l, err := Settle(ctx, g, Options{})
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if !l.Settled {
		t.Errorf("layout did not settle in %d ticks (alpha %g)", l.Ticks, l.Alpha)
	}
	if len(l.Nodes) != len(g.Nodes) {
		t.Errorf("layout has %d nodes, want %d", len(l.Nodes), len(g.Nodes))
	}
	for _, n := range l.Nodes {
		if n.X < n.Radius || n.X > l.Width-n.Radius || n.Y < n.Radius || n.Y > l.Height-n.Radius {
			t.Errorf("node %s at (%g,%g) outside viewport", n.ID, n.X, n.Y)
		}
	}

	again, err := Settle(ctx, g, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for i := range l.Nodes {
		if l.Nodes[i].X != again.Nodes[i].X || l.Nodes[i].Y != again.Nodes[i].Y {
			t.Fatalf("same seed produced different positions for %s", l.Nodes[i].ID)
		}
	}
}

func TestSettleMaxTicks(t *testing.T) {
	ctx := context.Background()
	snap, _ := Load(ctx, demoStore(t))
	g := circulation.Build(snap.Users, snap.Gifts)

	l, err := Settle(ctx, g, Options{MaxTicks: 10})
	if err != nil {
		t.Fatal(err)
	}
	if l.Ticks != 10 || l.Settled {
		t.Errorf("ticks = %d settled = %v, want 10 unsettled", l.Ticks, l.Settled)
	}
}

func TestSettleCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snap, _ := Load(context.Background(), demoStore(t))
	g := circulation.Build(snap.Users, snap.Gifts)

	if _, err := Settle(ctx, g, Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Settle() error = %v, want context.Canceled", err)
	}
}

func TestSettleEmptyGraph(t *testing.T) {
	l, err := Settle(context.Background(), circulation.Graph{}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !l.Settled || l.Ticks != 0 || len(l.Nodes) != 0 {
		t.Errorf("empty layout = %+v", l)
	}
}

type hookSpy struct {
	observability.NoopPipelineHooks
	observability.NoopCacheHooks
	mu     sync.Mutex
	events []string
}

func (s *hookSpy) record(e string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *hookSpy) OnLoadComplete(context.Context, int, int, time.Duration, error) { s.record("load") }
func (s *hookSpy) OnBuildComplete(context.Context, int, int, time.Duration)       { s.record("build") }
func (s *hookSpy) OnLayoutStart(context.Context, int)                             { s.record("layout") }
func (s *hookSpy) OnRenderStart(context.Context, []string)                        { s.record("render") }
func (s *hookSpy) OnCacheHit(_ context.Context, k string)                         { s.record("hit:" + k) }
func (s *hookSpy) OnCacheMiss(_ context.Context, k string)                        { s.record("miss:" + k) }

func (s *hookSpy) joined() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.events, ",")
}

func (s *hookSpy) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

func TestRunnerExecuteCaches(t *testing.T) {
	spy := &hookSpy{}
	observability.SetPipelineHooks(spy)
	observability.SetCacheHooks(spy)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	store := demoStore(t)
	opts := Options{Formats: []string{"svg", "json", "dot"}}

	first, err := r.Execute(ctx, store, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Error("first run should miss the cache")
	}
	if first.Stats.Users != 5 || first.Stats.Gifts != 6 {
		t.Errorf("stats = %+v", first.Stats)
	}
	if first.GraphHash != first.Graph.Hash() {
		t.Error("GraphHash should match the graph")
	}
	for _, f := range opts.Formats {
		if len(first.Artifacts[f]) == 0 {
			t.Errorf("missing %s artifact", f)
		}
	}
	if got := spy.joined(); got != "load,build,miss:layout,layout,miss:artifact,miss:artifact,miss:artifact,render" {
		t.Errorf("first run events = %s", got)
	}

	spy.reset()
	second, err := r.Execute(ctx, store, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run cache info = %+v, want all hits", second.CacheInfo)
	}
	if string(second.Artifacts["svg"]) != string(first.Artifacts["svg"]) {
		t.Error("cached svg differs from rendered svg")
	}
	if got := spy.joined(); got != "load,build,hit:layout,hit:artifact,hit:artifact,hit:artifact" {
		t.Errorf("second run events = %s", got)
	}

	// A new gift changes the graph hash and therefore the layout key.
	svc := gift.NewService(store)
	if _, err := svc.Give(ctx, "Sakura", "Kenji", "tea"); err != nil {
		t.Fatal(err)
	}
	third, err := r.Execute(ctx, store, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.LayoutHit {
		t.Error("changed graph should miss the layout cache")
	}
	if third.GraphHash == first.GraphHash {
		t.Error("graph hash should change after a new gift")
	}
}

func TestRunnerRefresh(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	store := demoStore(t)

	if _, err := r.Execute(ctx, store, Options{}); err != nil {
		t.Fatal(err)
	}
	res, err := r.Execute(ctx, store, Options{Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.LayoutHit || res.CacheInfo.RenderHit {
		t.Error("Refresh should bypass cache reads")
	}
}

func TestRunnerExecuteInvalidOptions(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(context.Background(), demoStore(t), Options{Formats: []string{"bmp"}})
	if !gerrors.Is(err, gerrors.ErrCodeInvalidFormat) {
		t.Errorf("Execute() error = %v, want INVALID_FORMAT", err)
	}
}

type failingStore struct{ *memstore.Store }

func (failingStore) ListGifts(context.Context) ([]gift.Gift, error) {
	return nil, gerrors.New(gerrors.ErrCodeStore, "disk on fire")
}

func TestRunnerExecuteLoadError(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(context.Background(), failingStore{memstore.New()}, Options{})
	if !gerrors.Is(err, gerrors.ErrCodeStore) {
		t.Errorf("Execute() error = %v, want STORE_ERROR", err)
	}
}
