package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tandberg/decycle/pkg/analysis"
	"github.com/tandberg/decycle/pkg/model"
	"github.com/tandberg/decycle/pkg/plan"
	"github.com/tandberg/decycle/pkg/provider"
)

func analyzedResult(t *testing.T) *analysis.Result {
	t.Helper()
	p := &provider.Snapshot{Items: []model.Component{
		{ID: "A", Kind: model.KindService, Methods: 2, Points: []model.InjectionPoint{
			{Owner: "A", Target: "B", Kind: model.InjectionField, Location: "A.java:1"},
		}},
		{ID: "B", Kind: model.KindService, Methods: 2, Points: []model.InjectionPoint{
			{Owner: "B", Target: "A", Kind: model.InjectionField, Location: "B.java:1"},
		}},
		{ID: "C", Kind: model.KindController},
	}}
	res, err := analysis.NewRunner(p, nil).Run(context.Background(), analysis.Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return res
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestServer_NoResultYet(t *testing.T) {
	s := NewServer()
	for _, path := range []string{"/api/result", "/api/plan", "/api/graph", "/api/diagnostics", "/api/graph.dot"} {
		if w := get(t, s, path); w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected 503 for %s before the first run, got %d", path, w.Code)
		}
	}
}

func TestServer_ResultEndpoint(t *testing.T) {
	s := NewServer()
	s.SetResult(analyzedResult(t))

	w := get(t, s, "/api/result")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Unexpected content type: %s", ct)
	}

	var res analysis.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("Bad result payload: %v", err)
	}
	if res.Stats.Components != 3 || len(res.SCCs) != 1 {
		t.Errorf("Unexpected result: %+v", res.Stats)
	}
}

func TestServer_PlanEndpoint(t *testing.T) {
	s := NewServer()
	s.SetResult(analyzedResult(t))

	w := get(t, s, "/api/plan")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var p plan.ResolutionPlan
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("Bad plan payload: %v", err)
	}
	if len(p.Cuts) != 1 || p.Cuts[0].Strategy != plan.StrategyLazyWrap {
		t.Errorf("Unexpected plan: %+v", p)
	}
}

func TestServer_GraphEndpoint(t *testing.T) {
	s := NewServer()
	s.SetResult(analyzedResult(t))

	w := get(t, s, "/api/graph")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var data GraphData
	if err := json.Unmarshal(w.Body.Bytes(), &data); err != nil {
		t.Fatalf("Bad graph payload: %v", err)
	}
	if len(data.Nodes) != 3 || len(data.Edges) != 2 {
		t.Fatalf("Unexpected graph size: %d nodes, %d edges", len(data.Nodes), len(data.Edges))
	}

	byID := make(map[string]GraphNode)
	for _, n := range data.Nodes {
		byID[n.ID] = n
	}
	if byID["A"].SCC != 0 || byID["B"].SCC != 0 {
		t.Errorf("Expected A and B inside SCC 0, got %+v", data.Nodes)
	}
	if byID["C"].SCC != -1 {
		t.Errorf("Expected C outside any SCC, got %d", byID["C"].SCC)
	}

	cuts := 0
	for _, e := range data.Edges {
		if e.Cut {
			cuts++
			if e.Strategy == "" {
				t.Errorf("Cut edge %s has no strategy", e.ID)
			}
		}
	}
	if cuts != 1 {
		t.Errorf("Expected exactly 1 cut edge, got %d", cuts)
	}
}

func TestServer_DOTEndpoint(t *testing.T) {
	s := NewServer()
	s.SetResult(analyzedResult(t))

	w := get(t, s, "/api/graph.dot")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, "digraph components {") {
		t.Errorf("Expected DOT output, got %q", body[:min(len(body), 40)])
	}
	if !strings.Contains(body, "style=dashed") {
		t.Errorf("Expected a dashed cut edge in the DOT output")
	}
}

func TestServer_DiagnosticsEndpointEmptyArray(t *testing.T) {
	s := NewServer()
	s.SetResult(analyzedResult(t))

	w := get(t, s, "/api/diagnostics")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("Expected an empty JSON array, got %q", got)
	}
}
