// Package plan assigns a resolution strategy to every edge the selector
// marked for cutting, respecting the structural constraints of each edge's
// injection point.
package plan

import (
	"sort"
	"strings"

	"github.com/tandberg/decycle/pkg/graph"
	"github.com/tandberg/decycle/pkg/logging"
	"github.com/tandberg/decycle/pkg/model"
	"github.com/tandberg/decycle/pkg/selector"
)

// Planner chooses strategies for cut edges. Decisions are one-shot: an edge
// is planned exactly once per run and never revisited.
type Planner struct {
	cg *graph.ComponentGraph
}

// NewPlanner creates a planner over the analyzed graph
func NewPlanner(cg *graph.ComponentGraph) *Planner {
	return &Planner{cg: cg}
}

// Plan walks the selection's cut edges in cut order and assigns each the
// first strategy in preference order whose structural precondition holds.
// Edges with no safe strategy land in ManualReview with a reason, and a
// ManualReviewRequired diagnostic is recorded.
func (pl *Planner) Plan(sel selector.Selection) (ResolutionPlan, *model.Diagnostics) {
	diags := &model.Diagnostics{}
	var result ResolutionPlan

	for _, e := range sel.CutEdges {
		edge := pl.cg.Edge(e)
		strategy, params, reason := pl.choose(edge)

		if strategy == StrategyManualReview {
			result.ManualReview = append(result.ManualReview, ManualReview{
				EdgeID: edge.ID(),
				Reason: reason,
			})
			diags.Add(model.Diagnostic{
				Kind:   model.DiagManualReviewRequired,
				EdgeID: edge.ID(),
				Reason: reason,
			})
			continue
		}

		result.Cuts = append(result.Cuts, Cut{
			EdgeID:   edge.ID(),
			Strategy: strategy,
			Params:   params,
		})
	}

	sort.Slice(result.ManualReview, func(i, j int) bool {
		return result.ManualReview[i].EdgeID < result.ManualReview[j].EdgeID
	})

	logging.Debug("plan complete", "cuts", len(result.Cuts), "manualReview", len(result.ManualReview))
	return result, diags
}

// choose applies the strategy preference order to one edge
func (pl *Planner) choose(edge model.DependencyEdge) (Strategy, map[string]string, string) {
	srcIdx, _ := pl.cg.Index(edge.Source)
	tgtIdx, _ := pl.cg.Index(edge.Target)
	src := pl.cg.Component(srcIdx)
	tgt := pl.cg.Component(tgtIdx)
	point := edge.Point

	// An edge is init-sensitive when construction-time hooks sit on both of
	// its ends: the hook call crosses the edge and returns around the cycle,
	// so deferred instantiation cannot break the deadlock
	initSensitive := src.InitHook && tgt.InitHook

	if lazyWrapEligible(point, tgt) && !initSensitive {
		return StrategyLazyWrap, map[string]string{"target": tgt.ID}, ""
	}

	if point.Kind == model.InjectionConstructorParam && !point.Final && !initSensitive {
		// Constructor param whose target class cannot be proxied: convert to
		// a setter so the container can defer assignment without a proxy
		return StrategySetterConversion, map[string]string{
			"target": tgt.ID,
			"then":   string(StrategyLazyWrap),
		}, ""
	}

	if !initSensitive && !tgt.Final && tgt.Methods > 0 {
		return StrategyInterfaceExtraction, map[string]string{
			"syntheticComponent": tgt.ID + "$Contract",
			"implementor":        tgt.ID,
		}, ""
	}

	if initSensitive {
		return StrategyMediatorExtraction, map[string]string{
			"syntheticComponent": mediatorName(src.ID, tgt.ID),
			"participants":       src.ID + "," + tgt.ID,
		}, ""
	}

	return StrategyManualReview, nil, manualReason(point, tgt)
}

// lazyWrapEligible holds when deferred instantiation is structurally possible
// at the injection point: assignable fields and setters always are, mutable
// constructor params only when the target class can be proxied.
func lazyWrapEligible(point model.InjectionPoint, tgt model.Component) bool {
	switch point.Kind {
	case model.InjectionField:
		return true
	case model.InjectionSetter:
		return !point.Final
	case model.InjectionConstructorParam:
		return !point.Final && !tgt.Final
	}
	return false
}

// mediatorName derives a deterministic synthetic component id for the pair
func mediatorName(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "$" + b + "$Mediator"
}

// manualReason explains which structural facts blocked every strategy
func manualReason(point model.InjectionPoint, tgt model.Component) string {
	var parts []string
	if point.Final {
		parts = append(parts, "immutable "+strings.ToLower(string(point.Kind))+" injection point")
	}
	if tgt.Final {
		parts = append(parts, "target is a concrete final class")
	}
	if tgt.Methods == 0 {
		parts = append(parts, "target exposes no extractable methods")
	}
	if len(parts) == 0 {
		parts = append(parts, "no structurally safe strategy for this injection point")
	}
	return strings.Join(parts, "; ")
}
