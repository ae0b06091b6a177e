package layout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/matzehuels/giftgraph/pkg/circulation"
)

// Handle errors.
var (
	ErrDisposed = errors.New("layout: handle disposed")
	ErrRunning  = errors.New("layout: handle already running")
)

// EventKind distinguishes drag events.
type EventKind int

const (
	EventPin EventKind = iota
	EventUnpin
)

// Event is a drag interaction applied between ticks.
type Event struct {
	Kind EventKind
	ID   string
	X, Y float64
}

// PinEvent pins id at (x, y).
func PinEvent(id string, x, y float64) Event { return Event{Kind: EventPin, ID: id, X: x, Y: y} }

// UnpinEvent releases id.
func UnpinEvent(id string) Event { return Event{Kind: EventUnpin, ID: id} }

// Handle is the push-style interface to a simulation. Tick listeners fire
// after every tick that ran. Once Dispose has returned, the handle never
// ticks, mutates or calls a listener again.
type Handle struct {
	sim *Simulation

	mu        sync.Mutex
	listeners []func([]Position)
	disposed  bool
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
	inbox     chan Event
}

// NewHandle creates a simulation for g and wraps it in a Handle.
func NewHandle(g circulation.Graph, width, height float64, opts ...Option) (*Handle, error) {
	sim, err := New(g, width, height, opts...)
	if err != nil {
		return nil, err
	}
	return &Handle{sim: sim, inbox: make(chan Event)}, nil
}

// OnTick registers fn to receive positions after each tick.
func (h *Handle) OnTick(fn func([]Position)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disposed {
		return
	}
	h.listeners = append(h.listeners, fn)
}

// Tick steps the simulation once and notifies listeners. It reports false
// when nothing ran: the handle is disposed, a Run loop owns it, or the
// simulation has settled.
func (h *Handle) Tick() bool {
	h.mu.Lock()
	if h.disposed || h.running {
		h.mu.Unlock()
		return false
	}
	stepped := h.sim.Step()
	var positions []Position
	if stepped {
		positions = h.sim.Positions()
	}
	listeners := h.listeners
	h.mu.Unlock()

	if stepped {
		notify(listeners, positions)
	}
	return stepped
}

// Pin fixes a node at (x, y). While Run is active Pin blocks until the loop
// has applied the pin, so it takes effect on the next tick. Tick listeners
// must not call Pin or Unpin.
func (h *Handle) Pin(id string, x, y float64) bool {
	return h.send(PinEvent(id, x, y))
}

// Unpin releases a node.
func (h *Handle) Unpin(id string) bool {
	return h.send(UnpinEvent(id))
}

func (h *Handle) send(ev Event) bool {
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return false
	}
	if !h.running {
		defer h.mu.Unlock()
		return h.apply(ev)
	}
	done := h.done
	h.mu.Unlock()

	select {
	case h.inbox <- ev:
		return true
	case <-done:
		return false
	}
}

func (h *Handle) apply(ev Event) bool {
	switch ev.Kind {
	case EventPin:
		return h.sim.Pin(ev.ID, ev.X, ev.Y)
	case EventUnpin:
		return h.sim.Unpin(ev.ID)
	}
	return false
}

// Run steps the simulation on every value received from frames and applies
// events between ticks, until ctx is cancelled, frames is closed or the
// handle is disposed. Only one Run may be active per handle.
func (h *Handle) Run(ctx context.Context, frames <-chan time.Time, events <-chan Event) error {
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return ErrDisposed
	}
	if h.running {
		h.mu.Unlock()
		return ErrRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	h.running, h.cancel, h.done = true, cancel, done
	h.mu.Unlock()

	defer func() {
		cancel()
		h.mu.Lock()
		h.running, h.cancel = false, nil
		h.mu.Unlock()
		close(done)
	}()

	for {
		select {
		case <-ctx.Done():
			if h.isDisposed() {
				return nil
			}
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			h.apply(ev)
		case ev := <-h.inbox:
			h.apply(ev)
		case _, ok := <-frames:
			if !ok {
				return nil
			}
			// A cancelled loop may still win the select on a ready frame.
			if ctx.Err() != nil {
				continue
			}
			if h.sim.Step() {
				h.mu.Lock()
				listeners := h.listeners
				h.mu.Unlock()
				notify(listeners, h.sim.Positions())
			}
		}
	}
}

func (h *Handle) isDisposed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.disposed
}

// Dispose stops the handle. If a Run loop is active, Dispose cancels it and
// waits for it to return. Dispose is idempotent.
func (h *Handle) Dispose() {
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return
	}
	h.disposed = true
	h.listeners = nil
	cancel, done, running := h.cancel, h.done, h.running
	h.mu.Unlock()

	if running {
		cancel()
		<-done
	}
}

// Disposed reports whether Dispose has been called.
func (h *Handle) Disposed() bool { return h.isDisposed() }

// Snapshot returns the current positions and state. It must not be called
// concurrently with an active Run loop.
func (h *Handle) Snapshot() ([]Position, State) {
	return h.sim.Positions(), h.sim.State()
}

// Simulation exposes the underlying simulation for callers that drive it
// directly, such as the interactive view.
func (h *Handle) Simulation() *Simulation { return h.sim }

func notify(listeners []func([]Position), positions []Position) {
	for _, fn := range listeners {
		fn(positions)
	}
}
