package model

import "fmt"

// ComponentKind classifies a managed component. The tag is assigned by the
// source model provider at parse time; the analysis core only consumes it.
type ComponentKind string

const (
	KindService    ComponentKind = "SERVICE"
	KindController ComponentKind = "CONTROLLER"
	KindComponent  ComponentKind = "COMPONENT"
	KindOther      ComponentKind = "OTHER"
)

// InjectionKind identifies how a dependency is consumed at an injection point
type InjectionKind string

const (
	InjectionField            InjectionKind = "FIELD"
	InjectionSetter           InjectionKind = "SETTER"
	InjectionConstructorParam InjectionKind = "CONSTRUCTOR_PARAM"
)

// InjectionPoint is one place within a component where a dependency is consumed.
// Target is the resolved id of the declared dependency; an empty Target means the
// provider could not resolve it, and the point is excluded from the graph with an
// UnresolvedReference diagnostic.
type InjectionPoint struct {
	Owner    string        `json:"owner"`
	Target   string        `json:"target"`
	Kind     InjectionKind `json:"kind"`
	Final    bool          `json:"final"`    // immutable point (e.g. final field, val param)
	Location string        `json:"location"` // opaque source-location handle for the applier
}

// Component is a managed unit supplied by the source model provider.
// Components are built once per analysis run and never mutated afterwards.
type Component struct {
	ID       string           `json:"id"`
	Kind     ComponentKind    `json:"kind"`
	Final    bool             `json:"final"`    // concrete final class; cannot be proxied or extended
	Methods  int              `json:"methods"`  // exported method-surface size of the component's type
	InitHook bool             `json:"initHook"` // declares a hook invoked automatically at construction time
	Points   []InjectionPoint `json:"injectionPoints"`
}

// DependencyEdge is a directed edge between two components, backed by exactly
// one injection point. Multiple edges may exist between the same pair of
// components, one per injection point. Edges are immutable once built; the
// selector only marks a subset of them for cutting.
type DependencyEdge struct {
	Source string         `json:"source"`
	Target string         `json:"target"`
	Point  InjectionPoint `json:"point"`
}

// ID returns the deterministic composite identifier of the edge. The external
// transformation applier maps it back to exact source locations, so it must be
// derivable from the injection point alone.
func (e DependencyEdge) ID() string {
	return fmt.Sprintf("%s->%s@%s", e.Source, e.Target, e.Point.Location)
}
