package graph

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/tandberg/decycle/pkg/model"
)

// ComponentGraph is the directed dependency graph over a component snapshot.
// Components are stored in a flat slice sorted by id and referenced by dense
// index everywhere else, which keeps the graph free of pointer cycles and
// trivially serializable. The graph is immutable once built.
type ComponentGraph struct {
	graph      *simple.DirectedGraph
	components []model.Component
	index      map[string]int         // component id -> dense index
	edges      []model.DependencyEdge // insertion order: sorted components, declaration order of points
	outgoing   [][]int                // component index -> edge indexes
	incoming   [][]int                // component index -> edge indexes pointing at it
	hops       map[[2]int][]int       // (source index, target index) -> edge indexes
}

// Build constructs the graph from a provider snapshot. Unresolved injection
// targets are excluded with an UnresolvedReference diagnostic; structurally
// malformed input (duplicate or empty ids, an injection point with a foreign
// or missing owner) is fatal and aborts the build.
func Build(components []model.Component) (*ComponentGraph, *model.Diagnostics, error) {
	diags := &model.Diagnostics{}

	sorted := make([]model.Component, len(components))
	copy(sorted, components)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	cg := &ComponentGraph{
		graph:      simple.NewDirectedGraph(),
		components: sorted,
		index:      make(map[string]int, len(sorted)),
		hops:       make(map[[2]int][]int),
	}

	for i, c := range sorted {
		if c.ID == "" {
			return nil, nil, &model.GraphConstructionError{Detail: "component with empty id"}
		}
		if _, dup := cg.index[c.ID]; dup {
			return nil, nil, &model.GraphConstructionError{Detail: fmt.Sprintf("duplicate component id %q", c.ID)}
		}
		cg.index[c.ID] = i
		cg.graph.AddNode(simple.Node(i))
	}

	cg.outgoing = make([][]int, len(sorted))
	cg.incoming = make([][]int, len(sorted))

	for i, c := range sorted {
		for _, p := range c.Points {
			if p.Owner == "" || p.Owner != c.ID {
				return nil, nil, &model.GraphConstructionError{
					Detail: fmt.Sprintf("injection point at %q has owner %q, expected %q", p.Location, p.Owner, c.ID),
				}
			}
			if p.Target == "" {
				diags.Add(model.Diagnostic{
					Kind:        model.DiagUnresolvedReference,
					ComponentID: c.ID,
					Location:    p.Location,
				})
				continue
			}
			j, ok := cg.index[p.Target]
			if !ok {
				diags.Add(model.Diagnostic{
					Kind:        model.DiagUnresolvedReference,
					ComponentID: c.ID,
					Location:    p.Location,
				})
				continue
			}

			edgeIdx := len(cg.edges)
			cg.edges = append(cg.edges, model.DependencyEdge{
				Source: c.ID,
				Target: p.Target,
				Point:  p,
			})
			cg.outgoing[i] = append(cg.outgoing[i], edgeIdx)
			cg.incoming[j] = append(cg.incoming[j], edgeIdx)
			cg.hops[[2]int{i, j}] = append(cg.hops[[2]int{i, j}], edgeIdx)

			// gonum's simple graph rejects self-edges and duplicates, so
			// parallel edges and self-loops are tracked in the hop index only
			if i != j && !cg.graph.HasEdgeFromTo(int64(i), int64(j)) {
				cg.graph.SetEdge(cg.graph.NewEdge(simple.Node(i), simple.Node(j)))
			}
		}
	}

	return cg, diags, nil
}

// Len returns the number of components
func (cg *ComponentGraph) Len() int {
	return len(cg.components)
}

// Component returns the component at dense index i
func (cg *ComponentGraph) Component(i int) model.Component {
	return cg.components[i]
}

// Index returns the dense index of a component id
func (cg *ComponentGraph) Index(id string) (int, bool) {
	i, ok := cg.index[id]
	return i, ok
}

// Edges returns all dependency edges in insertion order
func (cg *ComponentGraph) Edges() []model.DependencyEdge {
	return cg.edges
}

// Edge returns the dependency edge at index e
func (cg *ComponentGraph) Edge(e int) model.DependencyEdge {
	return cg.edges[e]
}

// Outgoing returns the edge indexes leaving component i, in insertion order
func (cg *ComponentGraph) Outgoing(i int) []int {
	return cg.outgoing[i]
}

// Incoming returns the edge indexes pointing at component i, in insertion order
func (cg *ComponentGraph) Incoming(i int) []int {
	return cg.incoming[i]
}

// FanOut returns the number of dependency edges leaving component i
func (cg *ComponentGraph) FanOut(i int) int {
	return len(cg.outgoing[i])
}

// HopEdges returns the edge indexes backing the hop from component i to
// component j. Parallel injection points yield multiple edges per hop.
func (cg *ComponentGraph) HopEdges(i, j int) []int {
	return cg.hops[[2]int{i, j}]
}

// HasSelfLoop reports whether component i depends on itself
func (cg *ComponentGraph) HasSelfLoop(i int) bool {
	return len(cg.hops[[2]int{i, i}]) > 0
}

// Successors returns the distinct successor indexes of component i in
// ascending order. Traversal code relies on this ordering for determinism.
func (cg *ComponentGraph) Successors(i int) []int {
	seen := make(map[int]bool)
	var succ []int
	for _, e := range cg.outgoing[i] {
		j := cg.index[cg.edges[e].Target]
		if !seen[j] {
			seen[j] = true
			succ = append(succ, j)
		}
	}
	sort.Ints(succ)
	return succ
}

// Directed returns the underlying gonum graph. Self-loops and parallel edges
// are not represented there; use HopEdges for those.
func (cg *ComponentGraph) Directed() *simple.DirectedGraph {
	return cg.graph
}
