package layout

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestHandleTick(t *testing.T) {
	h, err := NewHandle(ring(3), 800, 600)
	if err != nil {
		t.Fatal(err)
	}
	var calls int
	var last []Position
	h.OnTick(func(p []Position) {
		calls++
		last = p
	})

	for i := 0; i < 5; i++ {
		if !h.Tick() {
			t.Fatalf("Tick %d = false", i)
		}
	}
	if calls != 5 || len(last) != 3 {
		t.Errorf("calls = %d, positions = %d", calls, len(last))
	}

	if !h.Pin("a", 300, 300) {
		t.Fatal("Pin = false")
	}
	h.Tick()
	if last[0].X != 300 || last[0].Y != 300 {
		t.Errorf("pinned position = %v", last[0])
	}
	if !h.Unpin("a") {
		t.Error("Unpin = false")
	}
}

func TestHandleDisposeStopsTicks(t *testing.T) {
	h, _ := NewHandle(ring(3), 800, 600)
	var calls int
	h.OnTick(func([]Position) { calls++ })
	h.Tick()

	h.Dispose()
	h.Dispose() // idempotent

	if h.Tick() {
		t.Error("Tick after Dispose = true")
	}
	if h.Pin("a", 1, 1) {
		t.Error("Pin after Dispose = true")
	}
	if calls != 1 {
		t.Errorf("listener called %d times, want 1", calls)
	}
	if err := h.Run(context.Background(), nil, nil); err != ErrDisposed {
		t.Errorf("Run after Dispose = %v, want ErrDisposed", err)
	}
}

func TestHandleRunAppliesEvents(t *testing.T) {
	h, _ := NewHandle(ring(4), 800, 600)
	ticks := make(chan []Position, 16)
	h.OnTick(func(p []Position) { ticks <- p })

	frames := make(chan time.Time)
	events := make(chan Event)
	errc := make(chan error, 1)
	go func() { errc <- h.Run(context.Background(), frames, events) }()

	events <- PinEvent("b", 200, 150)
	frames <- time.Now()
	p := <-ticks
	if p[1].X != 200 || p[1].Y != 150 {
		t.Errorf("b at %v, want pinned at (200, 150)", p[1])
	}

	// Pin through the handle while the loop owns the simulation.
	if !h.Pin("c", 500, 400) {
		t.Fatal("Pin during Run = false")
	}
	frames <- time.Now()
	p = <-ticks
	if p[2].X != 500 || p[2].Y != 400 {
		t.Errorf("c at %v, want pinned at (500, 400)", p[2])
	}

	if h.Tick() {
		t.Error("Tick while Run is active should be refused")
	}
	if err := h.Run(context.Background(), nil, nil); err != ErrRunning {
		t.Errorf("second Run = %v, want ErrRunning", err)
	}

	close(frames)
	if err := <-errc; err != nil {
		t.Errorf("Run returned %v after frames closed", err)
	}
}

func TestHandleRunContextCancel(t *testing.T) {
	h, _ := NewHandle(ring(3), 800, 600)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- h.Run(ctx, make(chan time.Time), nil) }()
	cancel()
	if err := <-errc; err != context.Canceled {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

func TestHandleDisposeWaitsForRun(t *testing.T) {
	h, _ := NewHandle(ring(5), 800, 600)
	var count atomic.Int64
	h.OnTick(func([]Position) { count.Add(1) })

	frames := make(chan time.Time)
	errc := make(chan error, 1)
	go func() { errc <- h.Run(context.Background(), frames, nil) }()

	for i := 0; i < 3; i++ {
		frames <- time.Now()
	}
	h.Dispose()

	// The loop has exited by the time Dispose returns, so nobody receives.
	seen := count.Load()
	select {
	case frames <- time.Now():
		t.Fatal("disposed loop still receiving frames")
	default:
	}
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Run after Dispose = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	if count.Load() != seen {
		t.Error("listener fired after Dispose")
	}
}
