package layout

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/giftgraph/pkg/circulation"
)

func TestControllerSyncSkipsUnchanged(t *testing.T) {
	var rebuilds int
	c := NewController(WithRebuildHook(func(*Handle) { rebuilds++ }))
	defer c.Close()

	changed, err := c.Sync(ring(3), 800, 600)
	if err != nil || !changed {
		t.Fatalf("first Sync = %v, %v", changed, err)
	}
	first := c.Handle()

	// Same content in a fresh value.
	changed, err = c.Sync(ring(3), 800, 600)
	if err != nil || changed {
		t.Errorf("identical Sync = %v, %v; want no rebuild", changed, err)
	}
	if c.Handle() != first {
		t.Error("handle replaced without a content change")
	}
	if rebuilds != 1 {
		t.Errorf("rebuilds = %d, want 1", rebuilds)
	}
}

func TestControllerRebuildsOnChange(t *testing.T) {
	c := NewController()
	defer c.Close()

	c.Sync(ring(3), 800, 600)
	h1 := c.Handle()

	changed, _ := c.Sync(ring(3), 1024, 600)
	if !changed {
		t.Fatal("viewport change should rebuild")
	}
	if !h1.Disposed() {
		t.Error("superseded handle not disposed")
	}
	h2 := c.Handle()

	g := ring(3)
	g.Edges[0].Weight = 2
	if changed, _ := c.Sync(g, 1024, 600); !changed {
		t.Error("weight change should rebuild")
	}
	if !h2.Disposed() {
		t.Error("second handle not disposed")
	}
}

func TestControllerViewportNotReady(t *testing.T) {
	c := NewController()
	defer c.Close()

	changed, err := c.Sync(ring(3), 0, 0)
	if err != nil || changed {
		t.Errorf("Sync with zero viewport = %v, %v", changed, err)
	}
	if c.Handle() != nil {
		t.Error("zero viewport should leave no handle")
	}

	changed, err = c.Sync(ring(3), 800, 600)
	if err != nil || !changed || c.Handle() == nil {
		t.Errorf("Sync after resize = %v, %v, handle %v", changed, err, c.Handle())
	}
}

func TestControllerReseed(t *testing.T) {
	c := NewController(WithLayoutOptions(WithSeedMode(SeedNoise)))
	defer c.Close()

	c.Sync(ring(4), 800, 600)
	before, _ := c.Handle().Snapshot()

	changed, err := c.Reseed(c.Seed() + 1)
	if err != nil || !changed {
		t.Fatalf("Reseed = %v, %v", changed, err)
	}
	after, _ := c.Handle().Snapshot()
	same := true
	for i := range before {
		if before[i] != after[i] {
			same = false
		}
	}
	if same {
		t.Error("reseed should place bodies differently")
	}
}

func TestControllerRebuildIsolation(t *testing.T) {
	c := NewController()
	defer c.Close()
	c.Sync(ring(4), 800, 600)

	old := c.Handle()
	var oldTicks atomic.Int64
	old.OnTick(func([]Position) { oldTicks.Add(1) })

	frames := make(chan time.Time)
	done := make(chan error, 1)
	go func() { done <- old.Run(t.Context(), frames, nil) }()
	for i := 0; i < 5; i++ {
		frames <- time.Now()
	}

	// Rebuild mid-simulation.
	if changed, _ := c.Sync(ring(6), 800, 600); !changed {
		t.Fatal("Sync should rebuild")
	}
	if !old.Disposed() {
		t.Fatal("superseded handle not disposed")
	}

	fresh := c.Handle()
	freshBefore, _ := fresh.Snapshot()
	seen := oldTicks.Load()

	if old.Tick() {
		t.Error("superseded handle ticked")
	}
	select {
	case frames <- time.Now():
		t.Error("superseded loop accepted a frame")
	default:
	}
	if oldTicks.Load() != seen {
		t.Errorf("superseded listener fired %d more times", oldTicks.Load()-seen)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("superseded Run did not return")
	}

	freshAfter, _ := fresh.Snapshot()
	for i := range freshBefore {
		if freshBefore[i] != freshAfter[i] {
			t.Errorf("new instance body %s moved without being ticked", freshBefore[i].ID)
		}
	}
}

func TestSyncKey(t *testing.T) {
	g := ring(3)
	if SyncKey(g, 800, 600, 1) != SyncKey(ring(3), 800, 600, 1) {
		t.Error("SyncKey should depend on content only")
	}
	if SyncKey(g, 800, 600, 1) == SyncKey(g, 600, 800, 1) {
		t.Error("SyncKey should distinguish width and height")
	}
	if SyncKey(g, 800, 600, 1) == SyncKey(circulation.Graph{}, 800, 600, 1) {
		t.Error("SyncKey should depend on graph")
	}
}
