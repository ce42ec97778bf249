package analysis

import (
	"github.com/tandberg/decycle/pkg/cycles"
	"github.com/tandberg/decycle/pkg/graph"
	"github.com/tandberg/decycle/pkg/model"
	"github.com/tandberg/decycle/pkg/plan"
	"github.com/tandberg/decycle/pkg/selector"
)

// Status reports whether a run saw its complete input
type Status string

const (
	// StatusComplete means every SCC was fully enumerated.
	StatusComplete Status = "COMPLETE"

	// StatusPartial means the cycle budget expired before enumeration
	// finished; the plan covers only the cycles found so far.
	StatusPartial Status = "PARTIAL"
)

// GraphStats summarizes the built component graph
type GraphStats struct {
	Components int `json:"components"`
	Edges      int `json:"edges"`
}

// Result is the complete output of one analysis run
type Result struct {
	RunID       string              `json:"runId"`
	Status      Status              `json:"status"`
	Stats       GraphStats          `json:"stats"`
	Names       []string            `json:"names"` // dense component index -> id, for cycle paths
	SCCs        []cycles.SCC        `json:"sccs"`
	Cycles      []cycles.Cycle      `json:"cycles"`
	Selection   selector.Selection  `json:"selection"`
	Plan        plan.ResolutionPlan `json:"plan"`
	Diagnostics []model.Diagnostic  `json:"diagnostics"`

	// Graph is the analyzed snapshot, kept for rendering and verification;
	// not part of the serialized result.
	Graph *graph.ComponentGraph `json:"-"`
}

// CycleIDs resolves a cycle's dense indexes to component ids
func (r *Result) CycleIDs(c cycles.Cycle) []string {
	ids := make([]string, len(c.Path))
	for i, v := range c.Path {
		ids[i] = r.Names[v]
	}
	return ids
}

// Summary condenses the result for pubsub subscribers
func (r *Result) Summary() map[string]interface{} {
	return map[string]interface{}{
		"runId":        r.RunID,
		"sccs":         len(r.SCCs),
		"cycles":       len(r.Cycles),
		"cuts":         len(r.Plan.Cuts),
		"manualReview": len(r.Plan.ManualReview),
		"partial":      r.Status == StatusPartial,
	}
}
