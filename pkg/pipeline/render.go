package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/giftgraph/pkg/graph"
	"github.com/matzehuels/giftgraph/pkg/render"
)

// maxParallelRenders bounds concurrent rsvg-convert and Graphviz runs.
const maxParallelRenders = 4

// RenderFromLayout renders l in each of formats concurrently.
func RenderFromLayout(ctx context.Context, l graph.Layout, formats []string, opts Options) (map[string][]byte, error) {
	opts.SetRenderDefaults()
	ro := opts.RenderOptions()

	var mu sync.Mutex
	artifacts := make(map[string][]byte, len(formats))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelRenders)
	for _, format := range formats {
		g.Go(func() error {
			data, err := render.Render(ctx, l, format, ro)
			if err != nil {
				return fmt.Errorf("render %s: %w", format, err)
			}
			mu.Lock()
			artifacts[format] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}
