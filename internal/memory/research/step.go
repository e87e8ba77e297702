package research

import (
	"time"

	"memoria/internal/memory"
)

// Phase tags a Step to one of the four phases in an iteration.
type Phase string

const (
	PhasePlan      Phase = "plan"
	PhaseSearch    Phase = "search"
	PhaseIntegrate Phase = "integrate"
	PhaseReflect   Phase = "reflect"
)

// RetrieverDiagnostic records one retriever invocation's latency and yield
// within a Search phase, for callers that want per-source visibility
// beyond the merged result list.
type RetrieverDiagnostic struct {
	RetrieverName string
	ResultCount   int
	Duration      time.Duration
	Err           error
}

// Step is one phase's outcome, emitted by the streaming entry point.
// Only the payload fields belonging to Phase are populated: PlanDetail for
// plan, SearchResults and SearchDiagnostics for search, IntegratedCount for
// integrate, ShouldContinue for reflect.
type Step struct {
	Iteration int
	Phase     Phase
	Summary   string
	Duration  time.Duration

	PlanDetail        string
	SearchResults     []memory.RetrievalResult
	SearchDiagnostics []RetrieverDiagnostic
	IntegratedCount   int
	ShouldContinue    bool

	CurrentContext memory.MemoryContext
}

// Callbacks lets a caller observe each phase as it completes, independent
// of consuming the streaming Step channel. All fields are optional.
type Callbacks struct {
	OnPlan      func(Step)
	OnSearch    func(Step)
	OnIntegrate func(Step)
	OnReflect   func(Step)
}

func (cb Callbacks) dispatch(s Step) {
	var fn func(Step)
	switch s.Phase {
	case PhasePlan:
		fn = cb.OnPlan
	case PhaseSearch:
		fn = cb.OnSearch
	case PhaseIntegrate:
		fn = cb.OnIntegrate
	case PhaseReflect:
		fn = cb.OnReflect
	}
	if fn != nil {
		fn(s)
	}
}
