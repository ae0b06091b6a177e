package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/giftgraph/pkg/graph"
	"github.com/matzehuels/giftgraph/pkg/pipeline"
	"github.com/matzehuels/giftgraph/pkg/render"
)

// renderCommand renders a layout, or runs the whole pipeline from the store.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
		refresh    bool
		engine     string
		scale      float64
		noAvatars  bool
		flags      layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "render [layout.json]",
		Short: "Render the circulation graph to SVG, PNG, PDF or DOT",
		Long: `Render the circulation graph to SVG, PNG, PDF or DOT.

With a layout.json argument (from 'layout') only the render step runs.
Without one, the graph is built from the store, settled and rendered in one
go. PNG and PDF output require rsvg-convert (librsvg).

The graphviz engine re-renders through neato with pinned positions.`,
		Example: `  giftgraph render -f svg,png -o circle
  giftgraph render layout.json --engine graphviz`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineDefaults()
			flags.apply(&opts)
			opts.Formats = parseFormats(formatsStr)
			opts.Engine = engine
			opts.Scale = scale
			opts.NoAvatars = noAvatars
			opts.Refresh = refresh
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if len(args) == 1 {
				return c.runRenderLayout(cmd.Context(), args[0], opts, output, noCache)
			}
			return c.runRender(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, dot, json (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached")
	cmd.Flags().StringVar(&engine, "engine", render.EngineBuiltin, "svg engine: builtin, graphviz")
	cmd.Flags().Float64Var(&scale, "scale", pipeline.DefaultScale, "PNG scale factor")
	cmd.Flags().BoolVar(&noAvatars, "no-avatars", false, "omit avatar images")
	flags.register(cmd)

	return cmd
}

// runRender runs the full pipeline against the store.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	store, err := c.openStore(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Rendering "+strings.Join(opts.Formats, ", ")+"...")
	spinner.Start()

	res, err := runner.Execute(ctx, store, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	prog.done("pipeline finished", "gifts", res.Stats.Gifts, "formats", len(opts.Formats))

	c.Logger.Debug("pipeline stats",
		"load", res.Stats.LoadTime, "build", res.Stats.BuildTime,
		"layout", res.Stats.LayoutTime, "render", res.Stats.RenderTime,
		"ticks", res.Stats.Ticks)

	return writeArtifacts(artifactWriteParams{
		artifacts: res.Artifacts,
		formats:   opts.Formats,
		output:    output,
		nodes:     res.Stats.NodeCount,
		edges:     res.Stats.EdgeCount,
		cacheHit:  res.CacheInfo.LayoutHit && res.CacheInfo.RenderHit,
	})
}

// runRenderLayout renders an existing layout file.
func (c *CLI) runRenderLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	l, err := graph.ReadLayoutFile(input)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering "+strings.Join(opts.Formats, ", ")+"...")
	spinner.Start()

	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if output == "" {
		output = strings.TrimSuffix(strings.TrimSuffix(input, filepath.Ext(input)), ".layout")
	}
	return writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		output:    output,
		nodes:     len(l.Nodes),
		edges:     len(l.Edges),
		cacheHit:  cacheHit,
	})
}

type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	output    string
	nodes     int
	edges     int
	cacheHit  bool
}

// writeArtifacts writes one file per format and prints a summary.
func writeArtifacts(p artifactWriteParams) error {
	paths := artifactPaths(p.formats, p.output)
	for _, f := range p.formats {
		if err := os.WriteFile(paths[f], p.artifacts[f], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", paths[f], err)
		}
	}

	printSuccess("Rendered %s", strings.Join(p.formats, ", "))
	for _, f := range p.formats {
		printFile(paths[f])
	}
	printStats(p.nodes, p.edges, p.cacheHit)
	return nil
}

// artifactPaths maps formats to file names. A single format with an output
// that already has an extension is written there as is; otherwise output
// (default "giftgraph") is a base path and each format adds its extension.
func artifactPaths(formats []string, output string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" && filepath.Ext(output) != "" {
		paths[formats[0]] = output
		return paths
	}
	base := output
	if base == "" {
		base = appName
	}
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}
