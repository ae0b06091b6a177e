package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/giftgraph/pkg/circulation"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// MarshalGraph converts a circulation graph to JSON bytes.
func MarshalGraph(g circulation.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraphFile writes a circulation graph to a JSON file.
// The file is created with 0644 permissions.
func WriteGraphFile(g circulation.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteGraph(g, f)
}

// WriteGraph writes a circulation graph as indented JSON to w.
func WriteGraph(g circulation.Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromCirculation(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadGraphFile reads a JSON graph file.
func ReadGraphFile(path string) (circulation.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return circulation.Graph{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadGraph(f)
}

// ReadGraph decodes a JSON graph from r.
func ReadGraph(r io.Reader) (circulation.Graph, error) {
	var data Graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return circulation.Graph{}, fmt.Errorf("decode: %w", err)
	}
	return data.ToCirculation(), nil
}

// UnmarshalGraph deserializes JSON bytes to a Graph.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, err
	}
	return g, nil
}
