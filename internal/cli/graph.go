package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/giftgraph/pkg/graph"
	"github.com/matzehuels/giftgraph/pkg/pipeline"
)

// graphCommand builds the circulation graph from the store.
func (c *CLI) graphCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Build the circulation graph from the recorded gifts",
		Long: `Build the circulation graph from the recorded gifts.

Every person becomes a node and all gifts from one person to another are
aggregated into a single weighted edge. The graph is written as JSON and can
be passed to 'layout'. Use -o - to write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			snap, err := pipeline.Load(ctx, store)
			if err != nil {
				return err
			}
			runner := pipeline.NewRunner(nil, nil, c.Logger)
			g := runner.Build(ctx, snap)

			if output == "-" {
				return graph.WriteGraph(g, stdout)
			}
			if err := graph.WriteGraphFile(g, output); err != nil {
				return err
			}

			st := g.Stats()
			printSuccess("Graph built")
			printFile(output)
			printStats(st.Nodes, st.Edges, false)
			printKeyValue("weight", strconv.FormatFloat(st.TotalWeight, 'g', -1, 64))
			printKeyValue("reciprocal", strconv.Itoa(st.ReciprocalPairs))
			if st.DanglingEdges > 0 {
				printWarning("%d edges reference unknown users", st.DanglingEdges)
			}
			printNewline()
			printNextStep("Lay it out", appName+" layout "+output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "graph.json", "output file, - for stdout")
	return cmd
}
