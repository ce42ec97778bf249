package graph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/tandberg/decycle/pkg/model"
)

func comp(id string, targets ...string) model.Component {
	c := model.Component{ID: id, Kind: model.KindService}
	for n, tgt := range targets {
		c.Points = append(c.Points, model.InjectionPoint{
			Owner:    id,
			Target:   tgt,
			Kind:     model.InjectionField,
			Location: fmt.Sprintf("%s.java:%d", id, n+1),
		})
	}
	return c
}

func TestBuild_SortsComponentsByID(t *testing.T) {
	cg, diags, err := Build([]model.Component{comp("C"), comp("A"), comp("B")})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if diags.Len() != 0 {
		t.Errorf("Expected no diagnostics, got %d", diags.Len())
	}

	want := []string{"A", "B", "C"}
	for i, id := range want {
		if cg.Component(i).ID != id {
			t.Errorf("Expected component %s at index %d, got %s", id, i, cg.Component(i).ID)
		}
		if idx, ok := cg.Index(id); !ok || idx != i {
			t.Errorf("Expected index %d for %s, got %d (found=%v)", i, id, idx, ok)
		}
	}
}

func TestBuild_Adjacency(t *testing.T) {
	cg, _, err := Build([]model.Component{
		comp("A", "B", "C"),
		comp("B", "C"),
		comp("C"),
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(cg.Edges()) != 3 {
		t.Fatalf("Expected 3 edges, got %d", len(cg.Edges()))
	}

	a, _ := cg.Index("A")
	c, _ := cg.Index("C")
	if cg.FanOut(a) != 2 {
		t.Errorf("Expected fan-out 2 for A, got %d", cg.FanOut(a))
	}
	if len(cg.Incoming(c)) != 2 {
		t.Errorf("Expected 2 incoming edges for C, got %d", len(cg.Incoming(c)))
	}

	succ := cg.Successors(a)
	b, _ := cg.Index("B")
	if len(succ) != 2 || succ[0] != b || succ[1] != c {
		t.Errorf("Expected successors [%d %d] for A, got %v", b, c, succ)
	}
}

func TestBuild_ParallelEdgesShareHop(t *testing.T) {
	a := comp("A", "B", "B")
	cg, _, err := Build([]model.Component{a, comp("B", "A")})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	ai, _ := cg.Index("A")
	bi, _ := cg.Index("B")
	hop := cg.HopEdges(ai, bi)
	if len(hop) != 2 {
		t.Fatalf("Expected 2 parallel edges on hop A->B, got %d", len(hop))
	}
	// the gonum view collapses the hop to a single edge
	if !cg.Directed().HasEdgeFromTo(int64(ai), int64(bi)) {
		t.Errorf("Expected directed edge A->B in the gonum graph")
	}

	succ := cg.Successors(ai)
	if len(succ) != 1 || succ[0] != bi {
		t.Errorf("Expected single distinct successor for A, got %v", succ)
	}
}

func TestBuild_SelfLoop(t *testing.T) {
	cg, _, err := Build([]model.Component{comp("A", "A"), comp("B")})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	a, _ := cg.Index("A")
	b, _ := cg.Index("B")
	if !cg.HasSelfLoop(a) {
		t.Errorf("Expected self-loop on A")
	}
	if cg.HasSelfLoop(b) {
		t.Errorf("Did not expect self-loop on B")
	}
}

func TestBuild_UnresolvedTargetIsDiagnostic(t *testing.T) {
	a := model.Component{ID: "A", Points: []model.InjectionPoint{
		{Owner: "A", Target: "Missing", Kind: model.InjectionField, Location: "A.java:1"},
		{Owner: "A", Target: "", Kind: model.InjectionField, Location: "A.java:2"},
		{Owner: "A", Target: "B", Kind: model.InjectionField, Location: "A.java:3"},
	}}
	cg, diags, err := Build([]model.Component{a, comp("B")})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if diags.Len() != 2 {
		t.Fatalf("Expected 2 diagnostics, got %d", diags.Len())
	}
	for _, d := range diags.Items() {
		if d.Kind != model.DiagUnresolvedReference {
			t.Errorf("Expected UnresolvedReference, got %s", d.Kind)
		}
		if d.ComponentID != "A" {
			t.Errorf("Expected diagnostic on A, got %s", d.ComponentID)
		}
	}
	if len(cg.Edges()) != 1 {
		t.Errorf("Expected the resolved edge only, got %d edges", len(cg.Edges()))
	}
}

func TestBuild_FatalErrors(t *testing.T) {
	cases := []struct {
		name       string
		components []model.Component
	}{
		{"empty id", []model.Component{{ID: ""}}},
		{"duplicate id", []model.Component{comp("A"), comp("A")}},
		{"foreign owner", []model.Component{
			{ID: "A", Points: []model.InjectionPoint{{Owner: "B", Target: "A", Location: "x:1"}}},
			comp("B"),
		}},
		{"missing owner", []model.Component{
			{ID: "A", Points: []model.InjectionPoint{{Owner: "", Target: "A", Location: "x:1"}}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Build(tc.components)
			if err == nil {
				t.Fatalf("Expected construction error")
			}
			var gce *model.GraphConstructionError
			if !errors.As(err, &gce) {
				t.Errorf("Expected GraphConstructionError, got %T", err)
			}
		})
	}
}

func TestBuild_InputOrderIrrelevant(t *testing.T) {
	set1 := []model.Component{comp("A", "B"), comp("B", "C"), comp("C", "A")}
	set2 := []model.Component{comp("C", "A"), comp("A", "B"), comp("B", "C")}

	g1, _, err := Build(set1)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	g2, _, err := Build(set2)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if g1.Len() != g2.Len() {
		t.Fatalf("Size mismatch: %d vs %d", g1.Len(), g2.Len())
	}
	for i := 0; i < g1.Len(); i++ {
		if g1.Component(i).ID != g2.Component(i).ID {
			t.Errorf("Index %d differs: %s vs %s", i, g1.Component(i).ID, g2.Component(i).ID)
		}
	}
	for e := range g1.Edges() {
		if g1.Edge(e).ID() != g2.Edge(e).ID() {
			t.Errorf("Edge %d differs: %s vs %s", e, g1.Edge(e).ID(), g2.Edge(e).ID())
		}
	}
}
