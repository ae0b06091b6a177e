package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/giftgraph/pkg/circulation"
	"github.com/matzehuels/giftgraph/pkg/graph"
	"github.com/matzehuels/giftgraph/pkg/pipeline"
)

// layoutCommand creates the layout command for settling a graph headlessly.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		refresh bool
		flags   layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute a settled force layout",
		Long: `Compute a settled force layout.

Without an argument the graph is built from the store; otherwise it is read
from a graph.json file produced by 'graph'. The simulation runs until it
settles or --max-ticks is reached. The output is a layout.json file that
'render' turns into SVG, PNG, PDF or DOT.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineDefaults()
			flags.apply(&opts)
			opts.Refresh = refresh
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runLayout(cmd.Context(), input, opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json or layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached")
	flags.register(cmd)

	return cmd
}

// loadGraph reads input, or builds the graph from the store when input is empty.
func (c *CLI) loadGraph(ctx context.Context, input string) (circulation.Graph, error) {
	if input != "" {
		g, err := graph.ReadGraphFile(input)
		if err != nil {
			return circulation.Graph{}, fmt.Errorf("load graph %s: %w", input, err)
		}
		return g, nil
	}
	store, err := c.openStore(ctx)
	if err != nil {
		return circulation.Graph{}, fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	snap, err := pipeline.Load(ctx, store)
	if err != nil {
		return circulation.Graph{}, err
	}
	return circulation.Build(snap.Users, snap.Gifts), nil
}

// runLayout loads the graph, settles the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	g, err := c.loadGraph(ctx, input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Settling layout...")
	spinner.Start()

	l, cacheHit, err := runner.LayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()
	prog.done("layout settled", "nodes", len(l.Nodes), "ticks", l.Ticks, "cached", cacheHit)

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = "layout.json"
		if input != "" {
			outputPath = strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.json"
		}
	}

	if err := graph.WriteLayoutFile(l, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(len(l.Nodes), len(l.Edges), cacheHit)
	if !l.Settled {
		printWarning("stopped after %d ticks before settling (alpha %.4f)", l.Ticks, l.Alpha)
	}
	printNewline()
	printNextStep("Render", appName+" render "+outputPath)

	return nil
}
