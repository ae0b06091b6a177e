// Package layout computes force-directed positions for a circulation graph.
//
// # Model
//
// A [Simulation] holds an arena of bodies, one per graph node, addressed by
// integer index. Links store body indices, not pointers. Each [Simulation.Step]
// applies four forces and integrates velocities:
//
//   - link: pulls linked bodies toward a separation of 100
//   - charge: every body repels every other with strength -300
//   - center: shifts the mean position to (w/2, h/2-40)
//   - collide: keeps bodies at least radius+10 apart
//
// Forces are scaled by alpha, which starts at 1 and decays toward the alpha
// target each tick. When alpha falls below 0.001 the simulation is settled
// and Step does no work until a body is pinned.
//
// After integration every body is clamped into [r, w-r] x [r, h-r].
//
// # Driving a simulation
//
// Pull style, for headless use:
//
//	sim, err := layout.New(g, 800, 600)
//	ticks := sim.Settle(600)
//	for _, p := range sim.Positions() { ... }
//
// Push style, for interactive use, via [Handle]: listeners registered with
// OnTick receive positions after every tick. [Handle.Run] owns the
// simulation while it runs and applies drag events between ticks, so no
// locking is needed around the simulation itself. [Handle.Dispose] stops
// the loop and returns only once it has exited.
//
// [Controller] keeps one handle alive and replaces it whenever the graph
// content or the viewport changes.
//
// # Degenerate input
//
// An empty graph produces an empty, already settled simulation. Edges whose
// endpoints are not graph nodes are ignored. A zero or negative viewport
// yields [ErrViewportNotReady].
package layout
