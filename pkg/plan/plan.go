package plan

// Strategy is the closed set of resolution transformations. The planner's
// preference-order logic switches exhaustively over these values; adding a
// strategy means extending that switch.
type Strategy string

const (
	// StrategyLazyWrap defers instantiation of the target until first use.
	// Lowest invasiveness; the default choice when eligible.
	StrategyLazyWrap Strategy = "LAZY_WRAP"

	// StrategySetterConversion converts a mutable constructor parameter to a
	// setter point, then lazy-wraps the converted point.
	StrategySetterConversion Strategy = "SETTER_CONVERSION"

	// StrategyInterfaceExtraction synthesizes an interface component exposing
	// the methods the source calls on the target, and rewires the injection
	// point to depend on it.
	StrategyInterfaceExtraction Strategy = "INTERFACE_EXTRACTION"

	// StrategyMediatorExtraction synthesizes a mediator component hosting the
	// shared construction-time logic of both cycle ends and rewires both to
	// depend on it. The only strategy that breaks an init-hook cycle: a lazy
	// proxy in such a cycle is forced to resolve during construction anyway.
	StrategyMediatorExtraction Strategy = "MEDIATOR_EXTRACTION"

	// StrategyManualReview marks an edge no automated strategy is
	// structurally safe for. The edge is excluded from the plan's
	// guaranteed-acyclic claim.
	StrategyManualReview Strategy = "MANUAL_REVIEW"
)

// Cut is one planned transformation: the cut edge and its chosen strategy,
// plus the parameters the external transformation applier needs to perform
// the edit (synthetic component names, follow-up steps).
type Cut struct {
	EdgeID   string            `json:"edgeId"`
	Strategy Strategy          `json:"strategy"`
	Params   map[string]string `json:"params,omitempty"`
}

// ManualReview is a cut edge with no safe automated strategy
type ManualReview struct {
	EdgeID string `json:"edgeId"`
	Reason string `json:"reason"`
}

// ResolutionPlan is the engine's final artifact, handed to the external
// transformation applier. Cuts are in selection order; manual-review entries
// are sorted by edge id. Both orderings are deterministic for an unchanged
// graph.
type ResolutionPlan struct {
	Cuts         []Cut          `json:"cuts"`
	ManualReview []ManualReview `json:"manualReview"`
}

// Acyclic reports whether applying the plan is guaranteed to leave the graph
// acyclic, i.e. no cut edge fell back to manual review.
func (p ResolutionPlan) Acyclic() bool {
	return len(p.ManualReview) == 0
}
