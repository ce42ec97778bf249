// Package analysis orchestrates one full pass of the resolution engine:
// build the component graph, detect SCCs, enumerate elementary cycles,
// select a cut set, and plan a strategy per cut edge.
package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tandberg/decycle/pkg/cycles"
	"github.com/tandberg/decycle/pkg/graph"
	"github.com/tandberg/decycle/pkg/logging"
	"github.com/tandberg/decycle/pkg/plan"
	"github.com/tandberg/decycle/pkg/provider"
	"github.com/tandberg/decycle/pkg/pubsub"
	"github.com/tandberg/decycle/pkg/selector"
)

// Options configures one analysis run
type Options struct {
	MaxCyclesPerSCC int              // per-SCC enumeration cap; 0 means the default
	Workers         int              // SCC enumeration workers; 0 means GOMAXPROCS
	Budget          time.Duration    // overall time budget; 0 means none
	Weights         selector.Weights // zero value means selector.DefaultWeights
	Reason          string           // e.g. "initial analysis", "snapshot changed"
}

// Runner executes analysis runs over a source model provider. A mutex
// serializes runs: watch and web modes may trigger re-analysis while a
// previous run is still in flight.
type Runner struct {
	provider  provider.Provider
	publisher pubsub.Publisher // optional
	mu        sync.Mutex
}

// NewRunner creates a runner; publisher may be nil for CLI-only use
func NewRunner(p provider.Provider, pub pubsub.Publisher) *Runner {
	return &Runner{provider: p, publisher: pub}
}

const totalSteps = 5

// Run executes one complete analysis pass. Only a graph-construction failure
// (or a provider failure) returns an error; every other condition degrades to
// a diagnostic on the result.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runID := uuid.New().String()
	ctx = logging.WithRunID(ctx, runID)

	if opts.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Budget)
		defer cancel()
	}

	start := time.Now()
	logging.InfoContext(ctx, "starting analysis", "reason", opts.Reason, "provider", r.provider.Name())

	// Phase 1: load the component model
	r.publishStatus(runID, "building", "Loading component model...", 1)
	components, err := r.provider.Components(ctx)
	if err != nil {
		r.publishStatus(runID, "error", fmt.Sprintf("Provider failed: %v", err), 1)
		return nil, fmt.Errorf("loading component model: %w", err)
	}

	// Phase 2: build the graph; construction errors are fatal
	r.publishStatus(runID, "building", "Building dependency graph...", 2)
	cg, diags, err := graph.Build(components)
	if err != nil {
		r.publishStatus(runID, "error", fmt.Sprintf("Graph construction failed: %v", err), 2)
		return nil, err
	}
	logging.DebugContext(ctx, "graph built", "components", cg.Len(), "edges", len(cg.Edges()))

	// Phase 3: SCC detection and cycle enumeration
	r.publishStatus(runID, "enumerating", "Detecting and enumerating cycles...", 3)
	enum, enumDiags := cycles.Enumerate(ctx, cg, cycles.Options{
		MaxCyclesPerSCC: opts.MaxCyclesPerSCC,
		Workers:         opts.Workers,
	})
	diags.Merge(enumDiags)

	// Phase 4: cut selection
	r.publishStatus(runID, "selecting", "Selecting cut edges...", 4)
	weights := opts.Weights
	if weights == (selector.Weights{}) {
		weights = selector.DefaultWeights
	}
	sel := selector.Select(cg, enum.Cycles, weights)

	// Phase 5: strategy planning
	r.publishStatus(runID, "planning", "Planning resolution strategies...", 5)
	resolution, planDiags := plan.NewPlanner(cg).Plan(sel)
	diags.Merge(planDiags)
	diags.Sort()

	status := StatusComplete
	if enum.Partial {
		status = StatusPartial
	}

	names := make([]string, cg.Len())
	for i := 0; i < cg.Len(); i++ {
		names[i] = cg.Component(i).ID
	}

	result := &Result{
		RunID:       runID,
		Status:      status,
		Stats:       GraphStats{Components: cg.Len(), Edges: len(cg.Edges())},
		Names:       names,
		SCCs:        enum.SCCs,
		Cycles:      enum.Cycles,
		Selection:   sel,
		Plan:        resolution,
		Diagnostics: diags.Items(),
		Graph:       cg,
	}

	r.publishStatus(runID, "complete", "Analysis complete", totalSteps)
	r.publishSummary(result)

	logging.InfoContext(ctx, "analysis complete",
		"components", cg.Len(),
		"sccs", len(enum.SCCs),
		"cycles", len(enum.Cycles),
		"cuts", len(resolution.Cuts),
		"manualReview", len(resolution.ManualReview),
		"status", string(status),
		"durationMs", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (r *Runner) publishStatus(runID, state, message string, step int) {
	if r.publisher == nil {
		return
	}
	_ = r.publisher.Publish("run_status", state, pubsub.RunStatus{
		RunID:   runID,
		State:   state,
		Message: message,
		Step:    step,
		Total:   totalSteps,
	})
}

func (r *Runner) publishSummary(res *Result) {
	if r.publisher == nil {
		return
	}
	_ = r.publisher.Publish("result", "complete", pubsub.PlanSummary{
		RunID:        res.RunID,
		SCCs:         len(res.SCCs),
		Cycles:       len(res.Cycles),
		Cuts:         len(res.Plan.Cuts),
		ManualReview: len(res.Plan.ManualReview),
		Partial:      res.Status == StatusPartial,
	})
}
