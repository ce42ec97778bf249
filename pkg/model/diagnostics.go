package model

import (
	"fmt"
	"sort"
)

// DiagnosticKind identifies a recoverable condition recorded during analysis
type DiagnosticKind string

const (
	// DiagUnresolvedReference means the provider supplied an injection point
	// whose target could not be resolved; the edge is excluded from the graph.
	DiagUnresolvedReference DiagnosticKind = "UnresolvedReference"

	// DiagCycleLimitExceeded means the enumeration budget was hit inside one
	// SCC; that SCC's cycle set is truncated and the run continues.
	DiagCycleLimitExceeded DiagnosticKind = "CycleLimitExceeded"

	// DiagManualReviewRequired means an edge must be cut but no automated
	// strategy is structurally safe for it.
	DiagManualReviewRequired DiagnosticKind = "ManualReviewRequired"
)

// Diagnostic is one typed, machine-consumable analysis finding.
// Only the fields relevant to the kind are set.
type Diagnostic struct {
	Kind        DiagnosticKind `json:"kind"`
	ComponentID string         `json:"componentId,omitempty"`
	Location    string         `json:"location,omitempty"`
	SCCID       int            `json:"sccId,omitempty"`
	EdgeID      string         `json:"edgeId,omitempty"`
	Reason      string         `json:"reason,omitempty"`
}

// String renders the diagnostic for logs and console reports
func (d Diagnostic) String() string {
	switch d.Kind {
	case DiagUnresolvedReference:
		return fmt.Sprintf("%s: %s at %s", d.Kind, d.ComponentID, d.Location)
	case DiagCycleLimitExceeded:
		return fmt.Sprintf("%s: scc %d", d.Kind, d.SCCID)
	case DiagManualReviewRequired:
		return fmt.Sprintf("%s: %s (%s)", d.Kind, d.EdgeID, d.Reason)
	}
	return string(d.Kind)
}

// Diagnostics is an append-only collector. It is not safe for concurrent use;
// parallel analysis phases each own a collector and merge them afterwards.
type Diagnostics struct {
	items []Diagnostic
}

// Add appends a diagnostic to the collector
func (ds *Diagnostics) Add(d Diagnostic) {
	ds.items = append(ds.items, d)
}

// Merge appends all diagnostics from another collector
func (ds *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	ds.items = append(ds.items, other.items...)
}

// Items returns the collected diagnostics in insertion order
func (ds *Diagnostics) Items() []Diagnostic {
	return ds.items
}

// Len returns the number of collected diagnostics
func (ds *Diagnostics) Len() int {
	return len(ds.items)
}

// Sort orders diagnostics by kind, then component, then edge id. Used after
// merging per-worker collectors so repeated runs report in identical order.
func (ds *Diagnostics) Sort() {
	sort.SliceStable(ds.items, func(i, j int) bool {
		a, b := ds.items[i], ds.items[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.ComponentID != b.ComponentID {
			return a.ComponentID < b.ComponentID
		}
		if a.SCCID != b.SCCID {
			return a.SCCID < b.SCCID
		}
		return a.EdgeID < b.EdgeID
	})
}

// GraphConstructionError reports malformed provider input. It is the only
// fatal condition in the analysis core: nothing downstream should run on a
// graph that may be wrong.
type GraphConstructionError struct {
	Detail string
}

func (e *GraphConstructionError) Error() string {
	return "graph construction failed: " + e.Detail
}
