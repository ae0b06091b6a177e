package neo4jexport

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/matzehuels/giftgraph/pkg/circulation"
	"github.com/matzehuels/giftgraph/pkg/errors"
)

type call struct {
	query  string
	params map[string]any
}

type fakeRunner struct {
	calls  []call
	failAt int
}

func (f *fakeRunner) Run(_ context.Context, query string, params map[string]any) error {
	f.calls = append(f.calls, call{query, params})
	if f.failAt > 0 && len(f.calls) == f.failAt {
		return fmt.Errorf("connection reset")
	}
	return nil
}

func sampleGraph() circulation.Graph {
	return circulation.Graph{
		Nodes: []circulation.Node{
			{ID: "u1", Label: "Alice", Color: "#FF6B6B", Radius: 24},
			{ID: "u2", Label: "Bob", Color: "#4ECDC4", Radius: 24},
		},
		Edges: []circulation.Edge{
			{From: "u1", To: "u2", Weight: 2},
			{From: "u2", To: "u1", Weight: 1},
			{From: "u2", To: "ghost", Weight: 1},
		},
	}
}

func TestStatements(t *testing.T) {
	stmts := statements(sampleGraph())
	if len(stmts) != 4 {
		t.Fatalf("got %d statements, want 4", len(stmts))
	}
	if !strings.Contains(stmts[0].Query, "CONSTRAINT") {
		t.Errorf("first statement should create the constraint: %s", stmts[0].Query)
	}

	users := stmts[1].Params["users"].([]map[string]any)
	if len(users) != 2 || users[0]["id"] != "u1" || users[1]["name"] != "Bob" {
		t.Errorf("users = %v", users)
	}

	edges := stmts[2].Params["edges"].([]map[string]any)
	if len(edges) != 2 {
		t.Fatalf("dangling edge should be skipped, got %v", edges)
	}
	if edges[0]["from"] != "u1" || edges[0]["to"] != "u2" || edges[0]["weight"] != 2.0 {
		t.Errorf("edges[0] = %v", edges[0])
	}

	pairs := stmts[3].Params["pairs"].([][]string)
	if len(pairs) != 2 || pairs[1][0] != "u2" || pairs[1][1] != "u1" {
		t.Errorf("pairs = %v", pairs)
	}
}

func TestStatementsEmptyGraph(t *testing.T) {
	stmts := statements(circulation.Graph{})
	if got := stmts[2].Params["edges"].([]map[string]any); len(got) != 0 {
		t.Errorf("edges = %v, want none", got)
	}
	// An empty pair list prunes every GAVE relationship.
	if got := stmts[3].Params["pairs"].([][]string); got == nil || len(got) != 0 {
		t.Errorf("pairs = %#v, want empty non-nil", got)
	}
}

func TestExport(t *testing.T) {
	r := &fakeRunner{}
	s, err := New(r, nil).Export(context.Background(), sampleGraph())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if s.Nodes != 2 || s.Edges != 2 {
		t.Errorf("summary = %+v", s)
	}
	if len(r.calls) != 4 {
		t.Errorf("got %d calls, want 4", len(r.calls))
	}
}

func TestExportStopsOnError(t *testing.T) {
	r := &fakeRunner{failAt: 2}
	_, err := New(r, nil).Export(context.Background(), sampleGraph())
	if !errors.Is(err, errors.ErrCodeStore) {
		t.Fatalf("err = %v, want STORE_ERROR", err)
	}
	if len(r.calls) != 2 {
		t.Errorf("got %d calls, want 2", len(r.calls))
	}
}

func TestExportCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &fakeRunner{}
	if _, err := New(r, nil).Export(ctx, sampleGraph()); err == nil {
		t.Fatal("expected error")
	}
	if len(r.calls) != 0 {
		t.Errorf("got %d calls, want 0", len(r.calls))
	}
}

func TestConnectRequiresURI(t *testing.T) {
	_, err := Connect(context.Background(), Config{})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}
