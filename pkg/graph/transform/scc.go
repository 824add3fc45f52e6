package transform

import (
	"slices"
	"strings"

	"github.com/matzehuels/cppdep/pkg/graph"
)

// SCC computes the strongly connected components of g using Tarjan's
// algorithm with an explicit work stack. Recursive DFS risks stack overflow
// on pathological include chains, so call recursion is avoided entirely.
//
// Members of each component are sorted by name and the component list is
// sorted by its smallest member, making the output deterministic for a
// given graph.
func SCC(g *graph.Graph) [][]string {
	var (
		index   int
		indices = make(map[string]int, g.NodeCount())
		lowlink = make(map[string]int, g.NodeCount())
		onStack = make(map[string]bool, g.NodeCount())
		stack   []string
		comps   [][]string
	)

	// frame mirrors one level of the recursive Tarjan DFS: the vertex and
	// how many of its children have been explored so far.
	type frame struct {
		id    string
		child int
	}

	for _, n := range g.Nodes() {
		if _, seen := indices[n.ID]; seen {
			continue
		}

		frames := []frame{{id: n.ID}}
		for len(frames) > 0 {
			f := &frames[len(frames)-1]

			if f.child == 0 {
				indices[f.id] = index
				lowlink[f.id] = index
				index++
				stack = append(stack, f.id)
				onStack[f.id] = true
			}

			children := g.Children(f.id)
			descended := false
			for f.child < len(children) {
				w := children[f.child]
				f.child++
				if _, seen := indices[w]; !seen {
					frames = append(frames, frame{id: w})
					descended = true
					break
				}
				if onStack[w] && indices[w] < lowlink[f.id] {
					lowlink[f.id] = indices[w]
				}
			}
			if descended {
				continue
			}

			// All children explored: emit a component if this is its root,
			// then propagate the lowlink to the parent frame.
			id := f.id
			if lowlink[id] == indices[id] {
				var comp []string
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					comp = append(comp, w)
					if w == id {
						break
					}
				}
				slices.Sort(comp)
				comps = append(comps, comp)
			}
			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				parent := &frames[len(frames)-1]
				if lowlink[id] < lowlink[parent.id] {
					lowlink[parent.id] = lowlink[id]
				}
			}
		}
	}

	slices.SortFunc(comps, func(a, b []string) int { return strings.Compare(a[0], b[0]) })
	return comps
}
