// Package cycles decomposes a component graph into strongly connected
// components and enumerates the elementary cycles inside each one.
package cycles

import (
	"context"
	"runtime"
	"sync"

	"github.com/tandberg/decycle/pkg/graph"
	"github.com/tandberg/decycle/pkg/logging"
	"github.com/tandberg/decycle/pkg/model"
)

// DefaultMaxCyclesPerSCC bounds enumeration inside one SCC. Dense SCCs have
// combinatorially many elementary cycles; hitting the cap truncates that
// SCC's cycle set and records a CycleLimitExceeded diagnostic.
const DefaultMaxCyclesPerSCC = 10000

// Options configures cycle enumeration
type Options struct {
	MaxCyclesPerSCC int // 0 means DefaultMaxCyclesPerSCC; negative disables the cap
	Workers         int // 0 means GOMAXPROCS
}

// Result holds the detection and enumeration output for one graph snapshot.
// Partial is set when the caller's budget expired before every SCC was fully
// enumerated; downstream stages still operate on what was found.
type Result struct {
	SCCs    []SCC   `json:"sccs"`
	Cycles  []Cycle `json:"cycles"`
	Partial bool    `json:"partial"`
}

// Enumerate finds all non-trivial SCCs and every elementary cycle within
// them. SCCs are independent, so their enumeration runs on parallel workers;
// each worker collects diagnostics on its own, and results are merged in SCC
// order so output is deterministic regardless of scheduling.
func Enumerate(ctx context.Context, cg *graph.ComponentGraph, opts Options) (Result, *model.Diagnostics) {
	diags := &model.Diagnostics{}

	sccs := NewTarjanSCC(cg).FindSCCs()
	if len(sccs) == 0 {
		return Result{SCCs: sccs}, diags
	}

	maxCycles := opts.MaxCyclesPerSCC
	if maxCycles == 0 {
		maxCycles = DefaultMaxCyclesPerSCC
	} else if maxCycles < 0 {
		maxCycles = 0
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(sccs) {
		workers = len(sccs)
	}

	type sccOutcome struct {
		cycles    []Cycle
		truncated bool
		cancelled bool
	}

	outcomes := make([]sccOutcome, len(sccs))
	tasks := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				j := newJohnson(ctx, cg, sccs[i], maxCycles)
				cs := j.enumerate()
				outcomes[i] = sccOutcome{cycles: cs, truncated: j.truncated, cancelled: j.cancelled}
			}
		}()
	}

	for i := range sccs {
		tasks <- i
	}
	close(tasks)
	wg.Wait()

	result := Result{SCCs: sccs}
	for i, out := range outcomes {
		result.Cycles = append(result.Cycles, out.cycles...)
		if out.truncated {
			diags.Add(model.Diagnostic{Kind: model.DiagCycleLimitExceeded, SCCID: sccs[i].ID})
			logging.Warn("cycle enumeration truncated", "scc", sccs[i].ID, "cap", maxCycles)
		}
		if out.cancelled {
			result.Partial = true
		}
	}

	logging.Debug("cycle enumeration complete",
		"sccs", len(sccs), "cycles", len(result.Cycles), "partial", result.Partial)
	return result, diags
}
