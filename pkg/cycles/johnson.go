package cycles

import (
	"context"

	"github.com/tandberg/decycle/pkg/graph"
)

// Cycle is one elementary cycle c0 → c1 → … → c(n-1) → c0 inside an SCC.
// Path holds dense component indexes and starts at the cycle's smallest
// index, so two rotations of the same cycle always compare equal.
type Cycle struct {
	SCCID int   `json:"sccId"`
	Path  []int `json:"path"`
}

// johnson enumerates the elementary cycles of one SCC with the blocked-DFS
// technique. Start vertices are processed in increasing index order, each
// restricted to the subgraph induced by members with index >= start, which
// yields every elementary cycle exactly once.
type johnson struct {
	ctx      context.Context
	cg       *graph.ComponentGraph
	scc      SCC
	max      int
	inSub    map[int]bool  // current subgraph membership
	blocked  map[int]bool
	blockers map[int][]int // v -> vertices whose unblocking must unblock v
	path     []int
	start    int

	cycles    []Cycle
	truncated bool // cycle cap hit
	cancelled bool // context budget expired
}

func newJohnson(ctx context.Context, cg *graph.ComponentGraph, scc SCC, maxCycles int) *johnson {
	return &johnson{
		ctx: ctx,
		cg:  cg,
		scc: scc,
		max: maxCycles,
	}
}

// enumerate returns the SCC's elementary cycles, possibly truncated
func (j *johnson) enumerate() []Cycle {
	// Self-loops are length-1 elementary cycles; the blocked DFS below only
	// finds cycles of length >= 2
	for _, v := range j.scc.Members {
		if j.cg.HasSelfLoop(v) {
			if !j.record([]int{v}) {
				return j.cycles
			}
		}
	}

	for si, s := range j.scc.Members {
		if j.truncated || j.cancelled {
			break
		}

		// Subgraph induced by members with index >= s; s is removed from
		// consideration once all cycles through it are found
		j.inSub = make(map[int]bool, len(j.scc.Members)-si)
		for _, v := range j.scc.Members[si:] {
			j.inSub[v] = true
		}
		j.blocked = make(map[int]bool)
		j.blockers = make(map[int][]int)
		j.path = j.path[:0]
		j.start = s

		j.circuit(s)
	}

	return j.cycles
}

// circuit reports whether any cycle through v back to the start was found
func (j *johnson) circuit(v int) bool {
	if j.ctx.Err() != nil {
		j.cancelled = true
		return false
	}
	if j.truncated {
		return false
	}

	found := false
	j.path = append(j.path, v)
	j.blocked[v] = true

	for _, w := range j.cg.Successors(v) {
		if !j.inSub[w] || w == v {
			// self-loops are emitted by the pre-pass, not the DFS
			continue
		}
		if w == j.start {
			// Closed a cycle; the path starts at the subgraph minimum, so it
			// is already in rotation-normal form
			if !j.record(append([]int(nil), j.path...)) {
				break
			}
			found = true
		} else if !j.blocked[w] {
			if j.circuit(w) {
				found = true
			}
		}
	}

	if found {
		j.unblock(v)
	} else {
		// Dead end: v stays blocked until one of its successors unblocks
		for _, w := range j.cg.Successors(v) {
			if !j.inSub[w] {
				continue
			}
			j.blockers[w] = append(j.blockers[w], v)
		}
	}

	j.path = j.path[:len(j.path)-1]
	return found
}

// unblock recursively releases v and everything blocked on it
func (j *johnson) unblock(v int) {
	j.blocked[v] = false
	pending := j.blockers[v]
	j.blockers[v] = nil
	for _, w := range pending {
		if j.blocked[w] {
			j.unblock(w)
		}
	}
}

// record appends a cycle, reporting false once the per-SCC cap is reached
func (j *johnson) record(path []int) bool {
	if j.max > 0 && len(j.cycles) >= j.max {
		j.truncated = true
		return false
	}
	j.cycles = append(j.cycles, Cycle{SCCID: j.scc.ID, Path: path})
	return true
}
