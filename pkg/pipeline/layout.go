package pipeline

import (
	"context"
	"errors"

	"github.com/matzehuels/giftgraph/pkg/circulation"
	gerrors "github.com/matzehuels/giftgraph/pkg/errors"
	"github.com/matzehuels/giftgraph/pkg/graph"
	"github.com/matzehuels/giftgraph/pkg/layout"
)

// ctxCheckEvery is how many ticks run between context checks.
const ctxCheckEvery = 32

// Settle runs a headless simulation of g until it settles or opts.MaxTicks
// ticks have run, and returns the resulting layout.
func Settle(ctx context.Context, g circulation.Graph, opts Options) (graph.Layout, error) {
	opts.SetLayoutDefaults()

	sim, err := layout.New(g, opts.Width, opts.Height, opts.LayoutOptions()...)
	if errors.Is(err, layout.ErrViewportNotReady) {
		return graph.Layout{}, gerrors.Wrap(gerrors.ErrCodeInvalidViewport, err, "viewport %gx%g", opts.Width, opts.Height)
	}
	if err != nil {
		return graph.Layout{}, err
	}

	for sim.Ticks() < opts.MaxTicks && sim.Step() {
		if sim.Ticks()%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return graph.Layout{}, err
			}
		}
	}

	if sim.State() != layout.Settled {
		opts.Logger.Debug("layout stopped before settling", "ticks", sim.Ticks(), "alpha", sim.Alpha())
	}
	return graph.NewLayout(g, sim), nil
}
