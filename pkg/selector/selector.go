// Package selector scores cycle-participating edges and greedily picks a cut
// set that eliminates every enumerated cycle.
//
// Exact minimum feedback-arc-set is NP-hard; this is deliberately a greedy
// heuristic that produces a valid, deterministic, locally optimal cut, not a
// globally minimal one.
package selector

import (
	"sort"

	"github.com/tandberg/decycle/pkg/cycles"
	"github.com/tandberg/decycle/pkg/graph"
	"github.com/tandberg/decycle/pkg/logging"
	"github.com/tandberg/decycle/pkg/model"
)

// Weights tunes the edge scoring model. Base costs reflect how invasive the
// corresponding resolution strategy is; the method penalty makes edges into
// wide interfaces less attractive; the fan-out bonus prefers cutting edges
// into components that many others already depend on.
type Weights struct {
	FieldCost       float64
	SetterCost      float64
	ConstructorCost float64
	MethodPenalty   float64 // per exposed method on the target type
	FanOutBonus     float64 // per dependency edge leaving the target
	MinCost         float64 // floor so a cost never reaches zero
}

// DefaultWeights is the scoring model used by the CLI
var DefaultWeights = Weights{
	FieldCost:       1.0,
	SetterCost:      2.0,
	ConstructorCost: 4.0,
	MethodPenalty:   0.1,
	FanOutBonus:     0.05,
	MinCost:         0.1,
}

// EdgeScore is the derived score of one cycle-participating edge
type EdgeScore struct {
	EdgeIndex int     `json:"edgeIndex"`
	EdgeID    string  `json:"edgeId"`
	Cost      float64 `json:"cost"`
	Coverage  int     `json:"coverage"` // enumerated cycles the edge participates in
}

// Selection is the selector's output: the edges to cut, in cut order, plus
// the scores that drove the choice.
type Selection struct {
	CutEdges []int       `json:"cutEdges"`
	Scores   []EdgeScore `json:"scores"`
}

// IsCut reports whether edge index e is part of the cut set
func (s Selection) IsCut(e int) bool {
	for _, c := range s.CutEdges {
		if c == e {
			return true
		}
	}
	return false
}

// Select repeatedly cuts the edge with the best coverage-to-cost ratio among
// edges still on an unbroken cycle, until no cycles remain. Cutting an edge
// cuts its whole hop: parallel injection points between the same pair of
// components all have to be rewritten before the dependency disappears, so
// sibling edges join the cut set and each receives its own strategy.
//
// Termination is guaranteed: every cycle has at least one hop, and each
// iteration removes at least the cycles through the chosen hop.
func Select(cg *graph.ComponentGraph, cycleSet []cycles.Cycle, w Weights) Selection {
	hopCycles := indexHops(cycleSet)

	// Candidate edges: every edge whose hop lies on at least one cycle,
	// scored once up front (coverage counted globally across all SCCs)
	type candidate struct {
		edge  int
		hop   [2]int
		score EdgeScore
	}
	var cands []candidate
	for e, de := range cg.Edges() {
		si, _ := cg.Index(de.Source)
		ti, _ := cg.Index(de.Target)
		hop := [2]int{si, ti}
		cover := hopCycles[hop]
		if len(cover) == 0 {
			continue
		}
		cands = append(cands, candidate{
			edge: e,
			hop:  hop,
			score: EdgeScore{
				EdgeIndex: e,
				EdgeID:    de.ID(),
				Cost:      edgeCost(cg, de, ti, w),
				Coverage:  len(cover),
			},
		})
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].score.EdgeID < cands[j].score.EdgeID })

	sel := Selection{}
	for _, c := range cands {
		sel.Scores = append(sel.Scores, c.score)
	}

	broken := make([]bool, len(cycleSet))
	remaining := len(cycleSet)
	cutHops := make(map[[2]int]bool)

	for remaining > 0 {
		best := -1
		bestRatio := 0.0
		bestCover := 0
		for i, c := range cands {
			if cutHops[c.hop] {
				continue
			}
			cover := 0
			for _, cy := range hopCycles[c.hop] {
				if !broken[cy] {
					cover++
				}
			}
			if cover == 0 {
				continue
			}
			ratio := float64(cover) / c.score.Cost
			// Candidates are in edge-id order, so strict comparison makes
			// ties resolve to the lexicographically smallest edge id
			if best == -1 || ratio > bestRatio {
				best, bestRatio, bestCover = i, ratio, cover
			}
		}
		if best == -1 {
			// Every remaining cycle lost all its hops already (parallel
			// edges of a cut hop); nothing left to do
			break
		}

		hop := cands[best].hop
		cutHops[hop] = true
		for _, e := range cg.HopEdges(hop[0], hop[1]) {
			sel.CutEdges = append(sel.CutEdges, e)
		}
		for _, cy := range hopCycles[hop] {
			if !broken[cy] {
				broken[cy] = true
				remaining--
			}
		}
		logging.Debug("cut edge selected",
			"edge", cands[best].score.EdgeID, "coverage", bestCover, "cost", cands[best].score.Cost)
	}

	return sel
}

// indexHops maps each (source, target) hop to the cycles that traverse it
func indexHops(cycleSet []cycles.Cycle) map[[2]int][]int {
	hops := make(map[[2]int][]int)
	for cy, c := range cycleSet {
		n := len(c.Path)
		for k := 0; k < n; k++ {
			hop := [2]int{c.Path[k], c.Path[(k+1)%n]}
			hops[hop] = append(hops[hop], cy)
		}
	}
	return hops
}

// edgeCost combines the injection-kind base cost, the method-surface penalty
// of the target, and the fan-out bonus
func edgeCost(cg *graph.ComponentGraph, de model.DependencyEdge, targetIdx int, w Weights) float64 {
	var base float64
	switch de.Point.Kind {
	case model.InjectionField:
		base = w.FieldCost
	case model.InjectionSetter:
		base = w.SetterCost
	case model.InjectionConstructorParam:
		base = w.ConstructorCost
	default:
		base = w.ConstructorCost
	}

	target := cg.Component(targetIdx)
	cost := base + w.MethodPenalty*float64(target.Methods) - w.FanOutBonus*float64(cg.FanOut(targetIdx))
	if cost < w.MinCost {
		cost = w.MinCost
	}
	return cost
}
