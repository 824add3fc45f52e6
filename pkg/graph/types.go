package graph

import (
	"encoding/json"
	"fmt"
)

// JSON is the canonical serialization format for component graphs.
// Used for intermediate files, caching, and cross-command round-trips.
//
// The format is human-readable and designed for round-trip fidelity:
// scan → reduce → render re-imports produce identical results. Nodes and
// edges are emitted sorted, so serialization is deterministic.
type JSON struct {
	Nodes []NodeJSON `json:"nodes"`
	Edges []EdgeJSON `json:"edges"`
}

// NodeJSON is the serialized form of a component vertex.
type NodeJSON struct {
	ID    string         `json:"id"`
	Files []string       `json:"files,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// EdgeJSON is the serialized form of a dependency edge.
type EdgeJSON struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Cyclic bool   `json:"cyclic,omitempty"`
}

// ToJSON converts a Graph to its serialization format.
// Nodes and edges are sorted for deterministic output.
func ToJSON(g *Graph) JSON {
	nodes := g.Nodes()
	edges := g.Edges()

	out := JSON{
		Nodes: make([]NodeJSON, len(nodes)),
		Edges: make([]EdgeJSON, len(edges)),
	}
	for i, n := range nodes {
		out.Nodes[i] = NodeJSON{ID: n.ID, Files: n.Files, Meta: cleanMeta(n.Meta)}
	}
	for i, e := range edges {
		out.Edges[i] = EdgeJSON{From: e.From, To: e.To, Cyclic: e.Cyclic}
	}
	return out
}

// FromJSON converts a serialized graph back to a Graph.
// Returns an error if the structure references unknown nodes.
func FromJSON(gj JSON) (*Graph, error) {
	g := New()
	for _, nj := range gj.Nodes {
		n := Node{ID: nj.ID, Files: nj.Files, Meta: nj.Meta}
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("add node %s: %w", nj.ID, err)
		}
	}
	for _, ej := range gj.Edges {
		if err := g.AddEdge(Edge{From: ej.From, To: ej.To, Cyclic: ej.Cyclic}); err != nil {
			return nil, fmt.Errorf("add edge %s→%s: %w", ej.From, ej.To, err)
		}
	}
	return g, nil
}

// UnmarshalJSONBytes deserializes JSON bytes to the serialization format.
func UnmarshalJSONBytes(data []byte) (JSON, error) {
	var gj JSON
	if err := json.Unmarshal(data, &gj); err != nil {
		return JSON{}, err
	}
	return gj, nil
}

// cleanMeta returns nil instead of an empty map so the "meta" key is
// omitted from serialized output for plain nodes.
func cleanMeta(m Metadata) map[string]any {
	if len(m) == 0 {
		return nil
	}
	return m
}
