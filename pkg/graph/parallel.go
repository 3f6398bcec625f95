package graph

import "encoding/json"

// ParallelState is implemented by state types that support concurrent
// fan-out. Clone produces an independent copy for one branch; Merge
// folds the surviving branch states back into the pre-fork state.
//
// State types that do not implement ParallelState fall back to a JSON
// round-trip for cloning and last-writer-wins for merging.
type ParallelState[S any] interface {
	// Clone returns an independent copy of the state for the given branch.
	// Mutations on the clone must not be visible to other branches.
	Clone(branchID string) S

	// Merge folds branch results into the receiver state and returns the
	// combined state. Branches appear in dispatch order; failed branches
	// are omitted.
	Merge(branches []S) S
}

// BranchResult is the settlement record of one fan-out branch.
type BranchResult[S any] struct {
	// BranchID is the node ID the branch executed.
	BranchID string
	// State is the branch's final state. Zero value when Err is set.
	State S
	// Err is the branch failure, nil on success.
	Err error
}

// cloneState copies state for a fan-out branch. Types implementing
// ParallelState control their own cloning; everything else is cloned
// through a JSON round-trip. Unmarshalable states are passed through
// by value as a last resort.
func cloneState[S any](state S, branchID string) S {
	if ps, ok := any(state).(ParallelState[S]); ok {
		return ps.Clone(branchID)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return state
	}
	var clone S
	if err := json.Unmarshal(data, &clone); err != nil {
		return state
	}
	return clone
}

// mergeStates folds successful branch states into the pre-fork state.
// Types implementing ParallelState control merging; otherwise the last
// successful branch state wins.
func mergeStates[S any](base S, branches []S) S {
	if len(branches) == 0 {
		return base
	}
	if ps, ok := any(base).(ParallelState[S]); ok {
		return ps.Merge(branches)
	}
	return branches[len(branches)-1]
}
