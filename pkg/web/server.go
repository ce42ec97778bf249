// Package web serves the analysis report: REST endpoints for the result and
// plan, Graphviz exports, and SSE streams of run progress.
package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/tandberg/decycle/pkg/analysis"
	"github.com/tandberg/decycle/pkg/logging"
	"github.com/tandberg/decycle/pkg/model"
	"github.com/tandberg/decycle/pkg/pubsub"
	"github.com/tandberg/decycle/pkg/render"
)

//go:embed static/*
var staticFiles embed.FS

// GraphNode is a component in the API graph payload
type GraphNode struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	SCC  int    `json:"scc"` // SCC id, or -1 outside any cyclic group
}

// GraphEdge is a dependency edge in the API graph payload
type GraphEdge struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Kind     string `json:"kind"`     // injection kind
	Cut      bool   `json:"cut"`      // part of the selected cut set
	Strategy string `json:"strategy"` // planned strategy, empty if uncut
}

// GraphData holds the dependency graph for visualization
type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	publisher pubsub.Publisher

	mu     sync.RWMutex
	result *analysis.Result
}

// NewServer creates a new web server
func NewServer() *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// run_status: replay only the current state to new subscribers
	ssePublisher.ConfigureTopic("run_status", pubsub.TopicConfig{
		BufferSize: 10,
		ReplayAll:  false,
	})

	// result: replay the latest summary
	ssePublisher.ConfigureTopic("result", pubsub.TopicConfig{
		BufferSize: 5,
		ReplayAll:  false,
	})

	s := &Server{
		router:    mux.NewRouter(),
		publisher: ssePublisher,
	}
	s.setupRoutes()
	return s
}

// Publisher returns the server's publisher, to be shared with the analysis runner
func (s *Server) Publisher() pubsub.Publisher {
	return s.publisher
}

// SetResult stores the latest analysis result
func (s *Server) SetResult(res *analysis.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = res
}

func (s *Server) getResult() *analysis.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

func (s *Server) setupRoutes() {
	// SSE subscriptions
	s.router.HandleFunc("/api/subscribe/run_status", s.handleSubscribe("run_status")).Methods("GET")
	s.router.HandleFunc("/api/subscribe/result", s.handleSubscribe("result")).Methods("GET")

	// REST API
	s.router.HandleFunc("/api/result", s.handleResult).Methods("GET")
	s.router.HandleFunc("/api/plan", s.handlePlan).Methods("GET")
	s.router.HandleFunc("/api/graph", s.handleGraph).Methods("GET")
	s.router.HandleFunc("/api/diagnostics", s.handleDiagnostics).Methods("GET")
	s.router.HandleFunc("/api/graph.dot", s.handleDOT).Methods("GET")
	s.router.HandleFunc("/api/graph.svg", s.handleSVG).Methods("GET")

	s.router.Use(logging.RequestIDMiddleware)

	// Static viewer
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("embedded static files missing", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

// handleSubscribe streams a pubsub topic over SSE
func (s *Server) handleSubscribe(topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		// Initial comment establishes the connection (Safari compatibility)
		fmt.Fprintf(w, ": connected\n\n")
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}

		sub, err := s.publisher.Subscribe(r.Context(), topic)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer sub.Close()

		for event := range sub.Events() {
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.Warn("error writing SSE event", "error", err)
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	res := s.getResult()
	if res == nil {
		http.Error(w, "no analysis result yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	res := s.getResult()
	if res == nil {
		http.Error(w, "no analysis result yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, res.Plan)
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	res := s.getResult()
	if res == nil {
		http.Error(w, "no analysis result yet", http.StatusServiceUnavailable)
		return
	}
	diags := res.Diagnostics
	if diags == nil {
		diags = []model.Diagnostic{}
	}
	writeJSON(w, diags)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	res := s.getResult()
	if res == nil {
		http.Error(w, "no analysis result yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, buildGraphData(res))
}

func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	res := s.getResult()
	if res == nil {
		http.Error(w, "no analysis result yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	fmt.Fprint(w, render.ToDOT(res))
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	res := s.getResult()
	if res == nil {
		http.Error(w, "no analysis result yet", http.StatusServiceUnavailable)
		return
	}
	svg, err := render.RenderSVG(render.ToDOT(res))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg)
}

// buildGraphData converts a result into the visualization payload
func buildGraphData(res *analysis.Result) GraphData {
	sccOf := make(map[int]int)
	for _, scc := range res.SCCs {
		for _, v := range scc.Members {
			sccOf[v] = scc.ID
		}
	}

	strategies := make(map[string]string)
	for _, c := range res.Plan.Cuts {
		strategies[c.EdgeID] = string(c.Strategy)
	}

	cut := make(map[int]bool)
	for _, e := range res.Selection.CutEdges {
		cut[e] = true
	}

	data := GraphData{Nodes: []GraphNode{}, Edges: []GraphEdge{}}
	for i := 0; i < res.Graph.Len(); i++ {
		c := res.Graph.Component(i)
		scc := -1
		if id, ok := sccOf[i]; ok {
			scc = id
		}
		data.Nodes = append(data.Nodes, GraphNode{ID: c.ID, Kind: string(c.Kind), SCC: scc})
	}
	for e, edge := range res.Graph.Edges() {
		data.Edges = append(data.Edges, GraphEdge{
			ID:       edge.ID(),
			Source:   edge.Source,
			Target:   edge.Target,
			Kind:     string(edge.Point.Kind),
			Cut:      cut[e],
			Strategy: strategies[edge.ID()],
		})
	}
	return data
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("error encoding response", "error", err)
	}
}

// Start starts the web server on the specified port
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("starting web server", "url", fmt.Sprintf("http://localhost%s", addr))
	return http.ListenAndServe(addr, s.router)
}
