package output

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/tandberg/decycle/pkg/analysis"
	"github.com/tandberg/decycle/pkg/model"
)

// maxCyclesListed caps the per-run console listing; the full cycle set is
// always available through the web API and the plan file
const maxCyclesListed = 25

// PrintReport prints a nicely formatted analysis report with colors
func PrintReport(res *analysis.Result) {
	// Color definitions
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	// Header
	bold.Println("decycle - Dependency Cycle Report")
	bold.Println("=================================")
	fmt.Printf("Run: %s\n", res.RunID)
	fmt.Printf("Components: %d, dependency edges: %d\n", res.Stats.Components, res.Stats.Edges)
	if res.Status == analysis.StatusPartial {
		yellow.Println("Status: PARTIAL (cycle budget expired; plan covers cycles found so far)")
	}
	fmt.Println()

	if len(res.SCCs) == 0 {
		green.Println("No dependency cycles found.")
		printDiagnostics(res, yellow, cyan)
		return
	}

	// Cycle summary
	red.Printf("CYCLIC GROUPS: %d\n", len(res.SCCs))
	for _, scc := range res.SCCs {
		members := make([]string, len(scc.Members))
		for i, v := range scc.Members {
			members[i] = res.Names[v]
		}
		yellow.Printf("  scc %d: %s\n", scc.ID, strings.Join(members, ", "))
	}
	fmt.Println()

	fmt.Printf("Elementary cycles: %d\n", len(res.Cycles))
	for i, c := range res.Cycles {
		if i == maxCyclesListed {
			fmt.Printf("  ... and %d more\n", len(res.Cycles)-maxCyclesListed)
			break
		}
		ids := res.CycleIDs(c)
		fmt.Printf("  %s -> %s\n", strings.Join(ids, " -> "), ids[0])
	}
	fmt.Println()

	// Plan
	bold.Println("RESOLUTION PLAN:")
	if len(res.Plan.Cuts) == 0 {
		fmt.Println("  (no automated cuts)")
	}
	for _, cut := range res.Plan.Cuts {
		green.Printf("  %-22s", cut.Strategy)
		fmt.Printf(" %s\n", cut.EdgeID)
	}
	if len(res.Plan.ManualReview) > 0 {
		fmt.Println()
		red.Printf("MANUAL REVIEW REQUIRED: %d edge(s)\n", len(res.Plan.ManualReview))
		for _, m := range res.Plan.ManualReview {
			yellow.Printf("  %s\n", m.EdgeID)
			cyan.Printf("    Reason: %s\n", m.Reason)
		}
	}
	fmt.Println()

	printDiagnostics(res, yellow, cyan)

	// Summary with color based on outcome
	summaryColor := green
	if len(res.Plan.ManualReview) > 0 || res.Status == analysis.StatusPartial {
		summaryColor = yellow
	}
	summaryColor.Printf("Summary: %d cycle(s) in %d group(s), %d cut(s) planned, %d manual\n",
		len(res.Cycles), len(res.SCCs), len(res.Plan.Cuts), len(res.Plan.ManualReview))
}

func printDiagnostics(res *analysis.Result, yellow, cyan *color.Color) {
	var other []model.Diagnostic
	for _, d := range res.Diagnostics {
		// Manual-review diagnostics are already part of the plan section
		if d.Kind != model.DiagManualReviewRequired {
			other = append(other, d)
		}
	}
	if len(other) == 0 {
		return
	}

	yellow.Printf("DIAGNOSTICS: %d\n", len(other))
	for _, d := range other {
		cyan.Printf("  %s\n", d.String())
	}
	fmt.Println()
}
