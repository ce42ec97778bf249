// Package render turns an analysis result into Graphviz output for reports.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/tandberg/decycle/pkg/analysis"
	"github.com/tandberg/decycle/pkg/plan"
)

// ToDOT converts the analyzed component graph to Graphviz DOT format.
// Components inside a non-trivial SCC are shaded; cut edges are dashed and
// labeled with their strategy; manual-review edges are highlighted.
func ToDOT(res *analysis.Result) string {
	cyclic := make(map[int]bool)
	for _, scc := range res.SCCs {
		for _, v := range scc.Members {
			cyclic[v] = true
		}
	}

	strategies := make(map[string]plan.Strategy)
	for _, c := range res.Plan.Cuts {
		strategies[c.EdgeID] = c.Strategy
	}
	review := make(map[string]bool)
	for _, m := range res.Plan.ManualReview {
		review[m.EdgeID] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph components {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	buf.WriteString("\n")

	for i := 0; i < res.Graph.Len(); i++ {
		c := res.Graph.Component(i)
		attrs := []string{fmt.Sprintf("label=%q", c.ID)}
		if cyclic[i] {
			attrs = append(attrs, "fillcolor=lightyellow")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", c.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range res.Graph.Edges() {
		id := e.ID()
		switch {
		case review[id]:
			fmt.Fprintf(&buf, "  %q -> %q [color=orange, style=bold, label=\"MANUAL_REVIEW\"];\n", e.Source, e.Target)
		default:
			if s, ok := strategies[id]; ok {
				fmt.Fprintf(&buf, "  %q -> %q [color=red, style=dashed, label=%q];\n", e.Source, e.Target, string(s))
			} else {
				fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz in-process
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse dot: %w", err)
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render svg: %w", err)
	}
	return buf.Bytes(), nil
}
