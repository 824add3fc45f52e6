// Package graph provides the directed component graph and its JSON form.
//
// Unlike a layered DAG, the component graph tolerates cycles: mutual and
// longer-chain circular includes are legal C++ and must survive every
// operation. Vertices and edges are arena-style, owned by the Graph and
// indexed by component name; edges are boolean (no parallel edges).
package graph

import (
	"errors"
	"slices"
	"strings"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an edge
	// references a node that doesn't exist. This indicates graph corruption.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")
)

// Metadata stores arbitrary key-value pairs attached to nodes.
// It is commonly used to store the files a component owns or scan
// provenance. Metadata maps are never nil after AddNode.
type Metadata map[string]any

// Node represents a component vertex.
//
// The zero value is not usable - ID must be set before adding to a Graph.
type Node struct {
	ID    string   // Component base name, unique within the graph
	Files []string // Paths of the files the component owns, sorted
	Meta  Metadata // Arbitrary key-value metadata (never nil after AddNode)
}

// Edge represents a directed dependency between two components.
// Edge existence is boolean: the builder deduplicates parallel edges.
type Edge struct {
	From string // Source component name
	To   string // Target component name

	// Cyclic marks edges inside a strongly connected component. The
	// reduction engine keeps such edges verbatim and tags them so consumers
	// can distinguish true circular dependencies from reduced DAG edges.
	Cyclic bool
}

type edgeKey struct{ from, to string }

// Graph is a directed graph over components. It may contain cycles.
//
// The zero value is not usable - use New to create a valid instance.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	nodes    map[string]*Node
	edges    map[edgeKey]*Edge
	outgoing map[string][]string // nodeID -> children IDs, sorted
	incoming map[string][]string // nodeID -> parent IDs, sorted
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		edges:    make(map[edgeKey]*Edge),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// AddNode adds a node to the graph.
// Returns ErrInvalidNodeID if the node ID is empty, or ErrDuplicateNodeID
// if a node with the same ID already exists. The node's Meta field is
// automatically initialized to an empty map if nil.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	g.nodes[node.ID] = node
	return nil
}

// AddEdge adds a directed edge between two existing nodes. Adding an edge
// that already exists is a no-op (edge existence is boolean); the Cyclic
// flag of an existing edge is left untouched.
// Returns ErrUnknownSourceNode or ErrUnknownTargetNode if an endpoint is
// missing - callers treat that as an internal consistency violation.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	key := edgeKey{e.From, e.To}
	if _, exists := g.edges[key]; exists {
		return nil
	}
	g.edges[key] = &e
	g.outgoing[e.From] = insertSorted(g.outgoing[e.From], e.To)
	g.incoming[e.To] = insertSorted(g.incoming[e.To], e.From)
	return nil
}

// RemoveEdge removes the edge from→to if it exists.
// No error is returned if the edge does not exist.
func (g *Graph) RemoveEdge(from, to string) {
	key := edgeKey{from, to}
	if _, ok := g.edges[key]; !ok {
		return
	}
	delete(g.edges, key)
	g.outgoing[from] = slices.DeleteFunc(g.outgoing[from], func(s string) bool { return s == to })
	g.incoming[to] = slices.DeleteFunc(g.incoming[to], func(s string) bool { return s == from })
}

// HasEdge reports whether the edge from→to exists.
func (g *Graph) HasEdge(from, to string) bool {
	_, ok := g.edges[edgeKey{from, to}]
	return ok
}

// Node returns the node with the given ID and true, or nil and false if not
// found. The returned pointer refers to the actual node in the graph.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes sorted by ID.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, func(a, b *Node) int { return strings.Compare(a.ID, b.ID) })
	return nodes
}

// Edges returns a copy of all edges sorted by (From, To).
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, len(g.edges))
	for _, e := range g.edges {
		edges = append(edges, *e)
	}
	slices.SortFunc(edges, func(a, b Edge) int {
		if c := strings.Compare(a.From, b.From); c != 0 {
			return c
		}
		return strings.Compare(a.To, b.To)
	})
	return edges
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// CyclicEdgeCount returns the number of edges tagged as cyclic.
func (g *Graph) CyclicEdgeCount() int {
	n := 0
	for _, e := range g.edges {
		if e.Cyclic {
			n++
		}
	}
	return n
}

// Children returns the IDs of nodes this node has edges to, sorted.
// The returned slice should not be modified - use it as a read-only view.
func (g *Graph) Children(id string) []string { return g.outgoing[id] }

// Parents returns the IDs of nodes that have edges to this node, sorted.
// The returned slice should not be modified - use it as a read-only view.
func (g *Graph) Parents(id string) []string { return g.incoming[id] }

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	out := New()
	for _, n := range g.nodes {
		cp := Node{ID: n.ID, Files: slices.Clone(n.Files), Meta: make(Metadata, len(n.Meta))}
		for k, v := range n.Meta {
			cp.Meta[k] = v
		}
		_ = out.AddNode(cp)
	}
	for _, e := range g.edges {
		_ = out.AddEdge(*e)
	}
	return out
}

// Validate checks that every edge references existing nodes.
// Returns ErrInvalidEdgeEndpoint on the first violation. The Graph API
// enforces this at AddEdge time, so a failure here means the graph was
// corrupted after construction.
func (g *Graph) Validate() error {
	for key := range g.edges {
		if _, ok := g.nodes[key.from]; !ok {
			return ErrInvalidEdgeEndpoint
		}
		if _, ok := g.nodes[key.to]; !ok {
			return ErrInvalidEdgeEndpoint
		}
	}
	return nil
}

// Reachable returns the set of node IDs reachable from start, excluding
// start itself unless it lies on a cycle back to itself. Traversal uses an
// explicit stack so deep chains cannot overflow the call stack.
func (g *Graph) Reachable(start string) map[string]bool {
	visited := make(map[string]bool)
	stack := append([]string(nil), g.outgoing[start]...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		stack = append(stack, g.outgoing[id]...)
	}
	return visited
}

// insertSorted inserts s into sorted slice xs, keeping it sorted.
func insertSorted(xs []string, s string) []string {
	i, _ := slices.BinarySearch(xs, s)
	return slices.Insert(xs, i, s)
}
