package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/giftgraph/pkg/export/neo4jexport"
)

// exportCommand groups the exporters.
func (c *CLI) exportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy the circulation graph to another system",
	}
	cmd.AddCommand(c.exportNeo4jCommand())
	return cmd
}

func (c *CLI) exportNeo4jCommand() *cobra.Command {
	var uri, username, database string
	cmd := &cobra.Command{
		Use:   "neo4j [graph.json]",
		Short: "Merge users and GAVE relationships into Neo4j",
		Long: `Merge users and GAVE relationships into Neo4j.

Users become (:User {id}) nodes and each aggregated edge a
[:GAVE {weight}] relationship. Running the export again updates weights and
removes relationships that no longer exist.

The password is read from GIFTGRAPH_NEO4J_PASSWORD or the [neo4j] config.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			g, err := c.loadGraph(ctx, input)
			if err != nil {
				return err
			}

			nc := c.cfg.Neo4j
			if uri != "" {
				nc.URI = uri
			}
			if username != "" {
				nc.Username = username
			}
			if database != "" {
				nc.Database = database
			}

			spinner := newSpinnerWithContext(ctx, "Connecting to "+nc.URI+"...")
			spinner.Start()
			driver, err := neo4jexport.Connect(ctx, neo4jexport.Config{
				URI:      nc.URI,
				Username: nc.Username,
				Password: nc.Password,
				Database: nc.Database,
			})
			if err != nil {
				spinner.StopWithError("Connection failed")
				return err
			}
			defer driver.Close(ctx)

			spinner.SetMessage(fmt.Sprintf("Exporting %d users and %d edges...", len(g.Nodes), len(g.Edges)))
			sum, err := neo4jexport.New(driver, c.Logger).Export(ctx, g)
			if err != nil {
				spinner.StopWithError("Export failed")
				return err
			}
			spinner.Stop()

			printSuccess("Exported to %s", StyleLink.Render(nc.URI))
			printStats(sum.Nodes, sum.Edges, false)
			return nil
		},
	}
	cmd.Flags().StringVar(&uri, "uri", "", "bolt or neo4j URI (default from config)")
	cmd.Flags().StringVar(&username, "username", "", "user name (default from config)")
	cmd.Flags().StringVar(&database, "database", "", "database name (default from config)")
	return cmd
}
