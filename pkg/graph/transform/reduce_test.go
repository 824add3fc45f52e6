package transform

import (
	"bytes"
	"testing"

	"github.com/matzehuels/cppdep/pkg/graph"
)

// build constructs a graph from node IDs and from→to edge pairs.
func build(t *testing.T, nodes []string, edges [][2]string) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, id := range nodes {
		if err := g.AddNode(graph.Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(graph.Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatalf("AddEdge(%s→%s): %v", e[0], e[1], err)
		}
	}
	return g
}

func TestReduceRemovesTransitiveEdge(t *testing.T) {
	g := build(t, []string{"A", "B", "C"}, [][2]string{
		{"A", "B"}, {"B", "C"}, {"A", "C"},
	})

	reduced, err := Reduce(g)
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}

	if reduced.EdgeCount() != 2 {
		t.Errorf("EdgeCount = %d, want 2", reduced.EdgeCount())
	}
	if reduced.HasEdge("A", "C") {
		t.Error("transitive edge A→C should be removed")
	}
	if !reduced.HasEdge("A", "B") || !reduced.HasEdge("B", "C") {
		t.Error("covering path A→B→C should survive")
	}
}

func TestReduceKeepsAllNodes(t *testing.T) {
	g := build(t, []string{"A", "B", "isolated"}, [][2]string{{"A", "B"}})

	reduced, err := Reduce(g)
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if reduced.NodeCount() != 3 {
		t.Errorf("NodeCount = %d, want 3 (isolated vertices must survive)", reduced.NodeCount())
	}
	if _, ok := reduced.Node("isolated"); !ok {
		t.Error("isolated node missing from reduced graph")
	}
}

func TestReducePreservesReachability(t *testing.T) {
	g := build(t,
		[]string{"app", "auth", "cache", "db", "log", "net"},
		[][2]string{
			{"app", "auth"}, {"app", "cache"}, {"app", "db"}, {"app", "log"},
			{"auth", "db"}, {"auth", "log"},
			{"cache", "db"}, {"cache", "net"},
			{"db", "log"}, {"net", "log"},
		})

	reduced, err := Reduce(g)
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}

	for _, n := range g.Nodes() {
		want := g.Reachable(n.ID)
		got := reduced.Reachable(n.ID)
		if len(got) != len(want) {
			t.Fatalf("reachability from %s changed: got %v, want %v", n.ID, got, want)
		}
		for id := range want {
			if !got[id] {
				t.Errorf("%s can no longer reach %s after reduction", n.ID, id)
			}
		}
	}
}

func TestReduceThreeCycleKeptVerbatim(t *testing.T) {
	g := build(t, []string{"A", "B", "C"}, [][2]string{
		{"A", "B"}, {"B", "C"}, {"C", "A"},
	})

	reduced, err := Reduce(g)
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}

	if reduced.EdgeCount() != 3 {
		t.Fatalf("EdgeCount = %d, want 3 (cycle edges are never pruned)", reduced.EdgeCount())
	}
	if reduced.CyclicEdgeCount() != 3 {
		t.Errorf("CyclicEdgeCount = %d, want 3", reduced.CyclicEdgeCount())
	}
	for _, e := range reduced.Edges() {
		if !e.Cyclic {
			t.Errorf("edge %s→%s inside a cycle is not tagged cyclic", e.From, e.To)
		}
	}
}

func TestReduceMutualPairWithSharedTarget(t *testing.T) {
	// A and B form one SCC; both depend on C. The condensation has a single
	// edge SCC{A,B}→{C}, realized by the representative with the smallest
	// source name: A→C.
	g := build(t, []string{"A", "B", "C"}, [][2]string{
		{"A", "B"}, {"B", "A"}, {"A", "C"}, {"B", "C"},
	})

	reduced, err := Reduce(g)
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}

	if !reduced.HasEdge("A", "B") || !reduced.HasEdge("B", "A") {
		t.Error("mutual edges A↔B must survive")
	}
	if !reduced.HasEdge("A", "C") {
		t.Error("representative edge A→C missing")
	}
	if reduced.HasEdge("B", "C") {
		t.Error("B→C duplicates the condensation edge and should be dropped")
	}
	if reduced.CyclicEdgeCount() != 2 {
		t.Errorf("CyclicEdgeCount = %d, want 2", reduced.CyclicEdgeCount())
	}
}

func TestReduceChainThroughCycle(t *testing.T) {
	// in → cycle{X,Y} → out, plus a shortcut in→out made redundant by the
	// path through the cycle.
	g := build(t, []string{"in", "X", "Y", "out"}, [][2]string{
		{"in", "X"}, {"X", "Y"}, {"Y", "X"}, {"Y", "out"}, {"in", "out"},
	})

	reduced, err := Reduce(g)
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}

	if reduced.HasEdge("in", "out") {
		t.Error("in→out is implied by in→X→Y→out and should be removed")
	}
	if !reduced.HasEdge("in", "X") || !reduced.HasEdge("Y", "out") {
		t.Error("edges into and out of the cycle must survive")
	}
}

func TestReduceIdempotent(t *testing.T) {
	g := build(t, []string{"A", "B", "C", "D"}, [][2]string{
		{"A", "B"}, {"B", "C"}, {"A", "C"}, {"C", "D"}, {"A", "D"},
	})

	once, err := Reduce(g)
	if err != nil {
		t.Fatalf("first Reduce: %v", err)
	}
	twice, err := Reduce(once)
	if err != nil {
		t.Fatalf("second Reduce: %v", err)
	}

	a, err := graph.Marshal(once)
	if err != nil {
		t.Fatalf("marshal once: %v", err)
	}
	b, err := graph.Marshal(twice)
	if err != nil {
		t.Fatalf("marshal twice: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("reducing an already reduced graph changed it")
	}
}

func TestReduceDeterministic(t *testing.T) {
	edges := [][2]string{
		{"m", "a"}, {"m", "z"}, {"a", "k"}, {"z", "k"}, {"m", "k"},
		{"k", "b"}, {"b", "k"},
	}
	nodes := []string{"m", "a", "z", "k", "b"}

	first, err := Reduce(build(t, nodes, edges))
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	data1, err := graph.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	for i := 0; i < 5; i++ {
		again, err := Reduce(build(t, nodes, edges))
		if err != nil {
			t.Fatalf("Reduce run %d: %v", i, err)
		}
		data2, err := graph.Marshal(again)
		if err != nil {
			t.Fatalf("marshal run %d: %v", i, err)
		}
		if !bytes.Equal(data1, data2) {
			t.Fatalf("run %d produced different bytes", i)
		}
	}
}

func TestReduceInputUnmodified(t *testing.T) {
	g := build(t, []string{"A", "B", "C"}, [][2]string{
		{"A", "B"}, {"B", "C"}, {"A", "C"},
	})

	if _, err := Reduce(g); err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if g.EdgeCount() != 3 {
		t.Errorf("input graph was modified: EdgeCount = %d, want 3", g.EdgeCount())
	}
}

func TestReduceEmptyGraph(t *testing.T) {
	reduced, err := Reduce(graph.New())
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if reduced.NodeCount() != 0 || reduced.EdgeCount() != 0 {
		t.Error("reducing an empty graph should yield an empty graph")
	}
}
