package cycles

import (
	"sort"

	"github.com/tandberg/decycle/pkg/graph"
)

// SCC is a strongly connected component of the dependency graph.
// Members are dense component indexes in ascending order. IDs are assigned
// by ascending smallest member, so repeated runs on an unchanged graph
// produce identical groupings.
type SCC struct {
	ID      int   `json:"id"`
	Members []int `json:"members"`
}

// TarjanSCC finds all strongly connected components using Tarjan's algorithm
type TarjanSCC struct {
	graph   *graph.ComponentGraph
	index   int
	stack   []int
	onStack map[int]bool
	indices map[int]int
	lowLink map[int]int
	sccs    [][]int
}

// NewTarjanSCC creates a new Tarjan SCC finder
func NewTarjanSCC(cg *graph.ComponentGraph) *TarjanSCC {
	return &TarjanSCC{
		graph:   cg,
		onStack: make(map[int]bool),
		indices: make(map[int]int),
		lowLink: make(map[int]int),
	}
}

// FindSCCs decomposes the graph into strongly connected components.
// Only non-trivial SCCs are returned: more than one member, or a single
// member with a self-edge. Components are visited in ascending index order,
// so the decomposition is deterministic.
func (t *TarjanSCC) FindSCCs() []SCC {
	for v := 0; v < t.graph.Len(); v++ {
		if _, visited := t.indices[v]; !visited {
			t.strongConnect(v)
		}
	}

	// Assign stable ids by smallest member
	sort.Slice(t.sccs, func(i, j int) bool { return t.sccs[i][0] < t.sccs[j][0] })
	result := make([]SCC, len(t.sccs))
	for i, members := range t.sccs {
		result[i] = SCC{ID: i, Members: members}
	}
	return result
}

// strongConnect performs the recursive Tarjan's algorithm
func (t *TarjanSCC) strongConnect(v int) {
	// Set the depth index for this node
	t.indices[v] = t.index
	t.lowLink[v] = t.index
	t.index++

	// Push node onto stack
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	// Consider successors in ascending index order
	for _, w := range t.graph.Successors(v) {
		if _, visited := t.indices[w]; !visited {
			// Successor has not yet been visited; recurse on it
			t.strongConnect(w)
			t.lowLink[v] = min(t.lowLink[v], t.lowLink[w])
		} else if t.onStack[w] {
			// Successor is on stack and hence in the current SCC
			t.lowLink[v] = min(t.lowLink[v], t.indices[w])
		}
	}

	// If v is a root node, pop the stack and complete an SCC
	if t.lowLink[v] == t.indices[v] {
		var scc []int
		for {
			w := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		// A single component is only cyclic with a self-edge
		if len(scc) > 1 || t.graph.HasSelfLoop(v) {
			sort.Ints(scc)
			t.sccs = append(t.sccs, scc)
		}
	}
}
