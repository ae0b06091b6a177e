// Package neo4jexport copies a circulation graph into Neo4j.
//
// Users become (:User {id}) nodes and each aggregated edge becomes a
// [:GAVE {weight}] relationship. Exports are idempotent: everything is
// MERGEd by id, and relationships that are no longer in the graph are
// removed so the database mirrors the latest build.
package neo4jexport

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/matzehuels/giftgraph/pkg/circulation"
	"github.com/matzehuels/giftgraph/pkg/errors"
	"github.com/matzehuels/giftgraph/pkg/retry"
)

// Runner executes a single Cypher statement.
type Runner interface {
	Run(ctx context.Context, query string, params map[string]any) error
}

// Statement is a parameterized Cypher query.
type Statement struct {
	Query  string
	Params map[string]any
}

// Summary reports what an export wrote.
type Summary struct {
	Nodes int
	Edges int
}

const (
	constraintQuery = `CREATE CONSTRAINT user_id IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`

	nodesQuery = `UNWIND $users AS row
MERGE (u:User {id: row.id})
SET u.name = row.name, u.avatar = row.avatar, u.color = row.color`

	edgesQuery = `UNWIND $edges AS row
MATCH (a:User {id: row.from}), (b:User {id: row.to})
MERGE (a)-[g:GAVE]->(b)
SET g.weight = row.weight`

	pruneQuery = `MATCH (a:User)-[g:GAVE]->(b:User)
WHERE NOT [a.id, b.id] IN $pairs
DELETE g`
)

// statements builds the export batch for g. Edges whose endpoints are not
// nodes of g are skipped.
func statements(g circulation.Graph) []Statement {
	users := make([]map[string]any, len(g.Nodes))
	known := make(map[string]bool, len(g.Nodes))
	for i, n := range g.Nodes {
		users[i] = map[string]any{
			"id":     n.ID,
			"name":   n.Label,
			"avatar": n.Avatar,
			"color":  n.Color,
		}
		known[n.ID] = true
	}

	edges := make([]map[string]any, 0, len(g.Edges))
	pairs := make([][]string, 0, len(g.Edges))
	for _, e := range g.Edges {
		if !known[e.From] || !known[e.To] {
			continue
		}
		edges = append(edges, map[string]any{"from": e.From, "to": e.To, "weight": e.Weight})
		pairs = append(pairs, []string{e.From, e.To})
	}

	return []Statement{
		{Query: constraintQuery},
		{Query: nodesQuery, Params: map[string]any{"users": users}},
		{Query: edgesQuery, Params: map[string]any{"edges": edges}},
		{Query: pruneQuery, Params: map[string]any{"pairs": pairs}},
	}
}

// Exporter writes graphs through a Runner.
type Exporter struct {
	runner Runner
	logger *log.Logger
}

// New returns an exporter. A nil logger discards output.
func New(r Runner, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Exporter{runner: r, logger: logger}
}

// Export writes g. Statements run in order and the first failure stops
// the export.
func (x *Exporter) Export(ctx context.Context, g circulation.Graph) (Summary, error) {
	stmts := statements(g)
	for i, st := range stmts {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}
		x.logger.Debug("neo4j statement", "step", i+1, "of", len(stmts))
		if err := x.runner.Run(ctx, st.Query, st.Params); err != nil {
			return Summary{}, errors.Wrap(errors.ErrCodeStore, err, "neo4j export step %d", i+1)
		}
	}
	s := Summary{
		Nodes: len(g.Nodes),
		Edges: len(stmts[2].Params["edges"].([]map[string]any)),
	}
	x.logger.Info("exported to neo4j", "nodes", s.Nodes, "edges", s.Edges)
	return s, nil
}

// Config holds connection settings.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// Driver is a Runner backed by a Neo4j driver.
type Driver struct {
	driver   neo4j.DriverWithContext
	database string
}

// Connect opens a driver and verifies connectivity.
func Connect(ctx context.Context, cfg Config) (*Driver, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "neo4j URI is required")
	}
	d, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "neo4j driver")
	}
	if err := retry.Connect(ctx, d.VerifyConnectivity); err != nil {
		_ = d.Close(ctx)
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "connect to %s", cfg.URI)
	}
	return &Driver{driver: d, database: cfg.Database}, nil
}

// Run executes query with the driver's managed retries.
func (d *Driver) Run(ctx context.Context, query string, params map[string]any) error {
	opts := []neo4j.ExecuteQueryConfigurationOption{}
	if d.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(d.database))
	}
	if _, err := neo4j.ExecuteQuery(ctx, d.driver, query, params, neo4j.EagerResultTransformer, opts...); err != nil {
		return fmt.Errorf("execute query: %w", err)
	}
	return nil
}

// Close releases the driver.
func (d *Driver) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}
