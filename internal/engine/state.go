package engine

// RunState is the lifecycle position of a rebalancing run
type RunState string

const (
	StateIdle               RunState = "idle"
	StateFetchingCandidates RunState = "fetching_candidates"
	StateAborted            RunState = "aborted"
	StateRanked             RunState = "ranked"
	StateSellingPositions   RunState = "selling_positions"
	StateBuyingEntrants     RunState = "buying_entrants"
	StateValuating          RunState = "valuating"
	StateRecordingHistory   RunState = "recording_history"
	StateCompleted          RunState = "completed"
	StateFailed             RunState = "failed"
)

// Terminal reports whether no further transition is possible
func (s RunState) Terminal() bool {
	return s == StateAborted || s == StateCompleted || s == StateFailed
}

// transitions lists the allowed next states
var transitions = map[RunState][]RunState{
	StateIdle:               {StateFetchingCandidates, StateAborted, StateFailed},
	StateFetchingCandidates: {StateRanked, StateAborted, StateFailed},
	StateRanked:             {StateSellingPositions, StateFailed},
	StateSellingPositions:   {StateBuyingEntrants, StateFailed},
	StateBuyingEntrants:     {StateValuating, StateFailed},
	StateValuating:          {StateRecordingHistory, StateFailed},
	StateRecordingHistory:   {StateCompleted, StateFailed},
}

// CanTransition reports whether from → to is a legal step
func CanTransition(from, to RunState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
