// Package cli implements the giftgraph command-line interface.
//
// Commands fall into three groups:
//   - feed: give, gifts (list, edit, delete, tip, comment), users, seed
//   - graph: graph, layout, render, view
//   - services: serve, export neo4j, cache, config, completion
//
// Every command reads the same configuration (see pkg/config): a TOML file,
// GIFTGRAPH_* environment variables and .env files, with --config and
// --store overriding the file location and the store backend.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// is carried on the CLI struct and attached to the command context.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/giftgraph/pkg/buildinfo"
	"github.com/matzehuels/giftgraph/pkg/cache"
	"github.com/matzehuels/giftgraph/pkg/config"
	"github.com/matzehuels/giftgraph/pkg/gift"
	"github.com/matzehuels/giftgraph/pkg/gift/filestore"
	"github.com/matzehuels/giftgraph/pkg/gift/memstore"
	"github.com/matzehuels/giftgraph/pkg/gift/mongostore"
	"github.com/matzehuels/giftgraph/pkg/graph"
	"github.com/matzehuels/giftgraph/pkg/pipeline"
	"github.com/matzehuels/giftgraph/pkg/retry"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "giftgraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	storeFlag  string

	// cfg is loaded once per invocation by the root PersistentPreRunE.
	cfg    config.Config
	loaded bool

	// store, when set, is used instead of opening one from cfg.
	store gift.Store
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	setLevel(c.Logger, level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "giftgraph tracks who gives what to whom and draws the circulation",
		Long: `giftgraph records gifts between people, aggregates them into a directed
circulation graph and lays the graph out with a force simulation.

Layouts can be rendered to SVG, PNG, PDF or DOT, explored interactively in
the terminal, served over HTTP or exported to Neo4j.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			if cmd.Name() == "completion" || cmd.Name() == "help" || cmd.Annotations[skipConfig] != "" {
				return nil
			}
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/giftgraph/config.toml)")
	root.PersistentFlags().StringVar(&c.storeFlag, "store", "", "store backend: file, memory, mongo (overrides config)")

	// Feed
	root.AddCommand(c.giveCommand())
	root.AddCommand(c.giftsCommand())
	root.AddCommand(c.usersCommand())
	root.AddCommand(c.seedCommand())

	// Graph
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.viewCommand())

	// Services
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration and applies the --store override.
func (c *CLI) loadConfig() error {
	if c.loaded {
		return nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.storeFlag != "" {
		cfg.Store.Backend = c.storeFlag
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	c.cfg, c.loaded = cfg, true
	c.Logger.Debug("config loaded", "store", cfg.Store.Backend, "cache", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Store and Runner Factories
// =============================================================================

// openStore opens the configured store. The caller closes it.
func (c *CLI) openStore(ctx context.Context) (gift.Store, error) {
	if c.store != nil {
		return nopCloser{c.store}, nil
	}
	switch c.cfg.Store.Backend {
	case config.StoreMemory:
		c.Logger.Warn("memory store selected, changes are discarded on exit")
		return memstore.New(), nil
	case config.StoreMongo:
		return mongostore.New(ctx, mongostore.Config{
			URI:      c.cfg.Store.MongoURI,
			Database: c.cfg.Store.MongoDatabase,
			Timeout:  c.cfg.Store.Timeout,
		})
	default:
		return filestore.New(c.cfg.Store.Path)
	}
}

// nopCloser keeps an injected store open across commands.
type nopCloser struct{ gift.Store }

func (nopCloser) Close() error { return nil }

// newService opens the store and wraps it in a gift.Service.
func (c *CLI) newService(ctx context.Context) (*gift.Service, error) {
	store, err := c.openStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return gift.NewService(store, gift.WithLogger(c.Logger)), nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(nil, c.cfg.Cache.Prefix)
	return pipeline.NewRunner(ch, keyer, c.Logger), nil
}

// newCache opens the configured cache. An unreachable redis server is
// logged and then tolerated, since the redis cache degrades to misses.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(cache.RedisConfig{URL: c.cfg.Cache.RedisURL, Logger: c.Logger})
		if err != nil {
			return nil, err
		}
		if err := retry.Connect(ctx, rc.Ping); err != nil {
			c.Logger.Warn("redis cache unreachable", "url", c.cfg.Cache.RedisURL, "err", err)
		}
		return rc, nil
	default:
		dir, err := c.cacheDir()
		if err != nil {
			c.Logger.Warn("cache disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// cacheDir returns the configured cache directory or cache.DefaultDir.
func (c *CLI) cacheDir() (string, error) {
	if c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir, nil
	}
	return cache.DefaultDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// pipelineDefaults returns pipeline options seeded from the [layout] config.
func (c *CLI) pipelineDefaults() pipeline.Options {
	l := c.cfg.Layout
	return pipeline.Options{
		Width:         l.Width,
		Height:        l.Height,
		Seed:          l.Seed,
		SeedMode:      l.SeedMode,
		MaxTicks:      l.MaxTicks,
		WeightedLinks: l.WeightedLinks,
		Logger:        c.Logger,
	}
}

// layoutFlags binds the layout flags. Zero values fall back to the config.
type layoutFlags struct {
	width, height float64
	seed          int64
	seedMode      string
	maxTicks      int
	weighted      bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.width, "width", 0, "viewport width (default from config, 800)")
	cmd.Flags().Float64Var(&f.height, "height", 0, "viewport height (default from config, 600)")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "simulation seed (default from config, 42)")
	cmd.Flags().StringVar(&f.seedMode, "seed-mode", "", "initial placement: phyllotaxis, noise")
	cmd.Flags().IntVar(&f.maxTicks, "max-ticks", 0, "upper bound on simulation ticks")
	cmd.Flags().BoolVar(&f.weighted, "weighted", false, "scale link strength by gift weight")
}

func (f *layoutFlags) apply(opts *pipeline.Options) {
	if f.width != 0 {
		opts.Width = f.width
	}
	if f.height != 0 {
		opts.Height = f.height
	}
	if f.seed != 0 {
		opts.Seed = f.seed
	}
	if f.seedMode != "" {
		opts.SeedMode = f.seedMode
	}
	if f.maxTicks != 0 {
		opts.MaxTicks = f.maxTicks
	}
	if f.weighted {
		opts.WeightedLinks = true
	}
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{graph.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
