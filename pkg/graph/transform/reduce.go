// Package transform implements graph transformations on component graphs,
// most importantly the cycle-tolerant transitive reduction.
//
// Classical transitive reduction is only well-defined (and unique) for
// DAGs, while include graphs may legally contain cycles. Reduce therefore
// condenses the graph by its strongly connected components first, reduces
// the acyclic condensation, and keeps every edge inside an SCC untouched:
// once inside a strongly connected cluster there is no acyclic notion of a
// "redundant" edge, so all of them carry direct structural information.
package transform

import (
	"github.com/matzehuels/cppdep/pkg/errors"
	"github.com/matzehuels/cppdep/pkg/graph"
)

// Reduce computes the minimal edge subset of g that preserves its
// reachability relation. The result is a new graph with the same vertex
// set; g is not modified.
//
// Edges inside a strongly connected component are kept verbatim and tagged
// Cyclic. Edges between components survive only if no alternate path of
// length >= 2 connects the same components; each surviving condensation
// edge is realized by the original edge with the lexicographically smallest
// source name, then smallest target name, so output is deterministic.
//
// Cyclic input is expected and legal. The only failure mode is an edge
// referencing a vertex missing from the node set, which indicates a bug in
// the graph builder and aborts with an INTERNAL_CONSISTENCY error.
func Reduce(g *graph.Graph) (*graph.Graph, error) {
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternalConsistency, err,
			"dependency graph references an undeclared component")
	}

	sccs := SCC(g)
	sccOf := make(map[string]int, g.NodeCount())
	for i, comp := range sccs {
		for _, id := range comp {
			sccOf[id] = i
		}
	}

	reduced := graph.New()
	for _, n := range g.Nodes() {
		if err := reduced.AddNode(*n); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "copy node %s", n.ID)
		}
	}

	// Intra-SCC edges are kept as-is and tagged cyclic. For inter-SCC edges,
	// record the representative (first in sorted order = smallest source,
	// then smallest target) per condensation edge.
	type condEdge struct{ from, to int }
	reps := make(map[condEdge]graph.Edge)
	var condOrder []condEdge
	for _, e := range g.Edges() {
		a, b := sccOf[e.From], sccOf[e.To]
		if a == b {
			if err := reduced.AddEdge(graph.Edge{From: e.From, To: e.To, Cyclic: true}); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "copy cyclic edge %s→%s", e.From, e.To)
			}
			continue
		}
		key := condEdge{a, b}
		if _, seen := reps[key]; !seen {
			reps[key] = e
			condOrder = append(condOrder, key)
		}
	}

	// Classical transitive reduction on the condensation. The condensation
	// is acyclic, so its reduction is unique: an edge (A,B) is redundant iff
	// some other child of A reaches B.
	adj := make(map[int][]int, len(sccs))
	for _, ce := range condOrder {
		adj[ce.from] = append(adj[ce.from], ce.to)
	}
	reach := condReachability(len(sccs), adj)

	for _, ce := range condOrder {
		redundant := false
		for _, mid := range adj[ce.from] {
			if mid != ce.to && reach[mid][ce.to] {
				redundant = true
				break
			}
		}
		if redundant {
			continue
		}
		rep := reps[ce]
		if err := reduced.AddEdge(graph.Edge{From: rep.From, To: rep.To}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "copy edge %s→%s", rep.From, rep.To)
		}
	}

	return reduced, nil
}

// condReachability computes, for every condensation vertex, the set of
// vertices reachable from it (excluding itself; the condensation has no
// cycles). Traversal uses an explicit stack.
func condReachability(n int, adj map[int][]int) []map[int]bool {
	reach := make([]map[int]bool, n)
	for v := 0; v < n; v++ {
		visited := make(map[int]bool)
		stack := append([]int(nil), adj[v]...)
		for len(stack) > 0 {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[w] {
				continue
			}
			visited[w] = true
			stack = append(stack, adj[w]...)
		}
		reach[v] = visited
	}
	return reach
}
