package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/matzehuels/giftgraph/pkg/observability/promhooks"
	"github.com/matzehuels/giftgraph/pkg/server"
)

// serveCommand runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noMetrics bool
		noCache   bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the gift feed, graph and layouts over HTTP",
		Long: `Serve the gift feed, graph and layouts over HTTP.

Endpoints:
  GET    /healthz
  GET    /metrics
  GET    /api/users
  GET    /api/gifts?q=
  POST   /api/gifts                  {"sender", "receiver", "item"}
  PUT    /api/gifts/{id}
  DELETE /api/gifts/{id}
  POST   /api/gifts/{id}/comments    {"user", "text"}
  POST   /api/gifts/{id}/tips
  GET    /api/graph
  GET    /api/layout?width=&height=&seed=&seed_mode=
  GET    /graph.{svg,png,pdf,dot,json}?width=&height=

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := c.newService(ctx)
			if err != nil {
				return err
			}
			defer svc.Store().Close()

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			sc := c.cfg.Server
			if addr != "" {
				sc.Addr = addr
			}
			opts := []server.Option{
				server.WithConfig(server.Config{
					Addr:            sc.Addr,
					CORSOrigins:     sc.CORSOrigins,
					ReadTimeout:     sc.ReadTimeout,
					WriteTimeout:    sc.WriteTimeout,
					ShutdownTimeout: sc.ShutdownTimeout,
				}),
				server.WithLogger(c.Logger),
				server.WithLayoutDefaults(c.pipelineDefaults()),
			}
			if sc.Metrics && !noMetrics {
				opts = append(opts, server.WithMetrics(metricsHandler()))
			}

			printInfo("Listening on %s", StyleLink.Render(sc.Addr))
			return server.New(svc, runner, opts...).Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable /metrics")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable layout and artifact caching")
	return cmd
}

// metricsHandler registers a Prometheus collector for all hooks and
// returns its handler.
func metricsHandler() http.Handler {
	collector := promhooks.New()
	collector.Register()
	return collector.Handler()
}
