package graph

// Test state types used across tests

// Counter is a simple state for testing incrementing.
type Counter struct {
	Value int
}

// State is a more complex state for testing various scenarios.
type State struct {
	Step     int
	Progress []string
	Initial  string
	GoLeft   bool
}

// Report is a state implementing ParallelState for fan-out tests.
type Report struct {
	Base     string
	Sections map[string]string
}

func (r Report) Clone(branchID string) Report {
	clone := Report{Base: r.Base, Sections: make(map[string]string, len(r.Sections))}
	for k, v := range r.Sections {
		clone.Sections[k] = v
	}
	return clone
}

func (r Report) Merge(branches []Report) Report {
	merged := r.Clone("")
	for _, b := range branches {
		for k, v := range b.Sections {
			merged.Sections[k] = v
		}
	}
	return merged
}

// Helper node functions

// increment is a node that increments the counter.
func increment(ctx Context, s Counter) (Counter, error) {
	s.Value++
	return s, nil
}

// makeTrackingNode creates a node that records its execution.
func makeTrackingNode(name string, tracker *[]string) NodeFunc[State] {
	return func(ctx Context, s State) (State, error) {
		*tracker = append(*tracker, name)
		s.Progress = append(s.Progress, name)
		return s, nil
	}
}

// makeFailingNode creates a node that returns the given error.
func makeFailingNode(err error) NodeFunc[State] {
	return func(ctx Context, s State) (State, error) {
		return s, err
	}
}

// makePanicNode creates a node that panics with the given value.
func makePanicNode(value any) NodeFunc[State] {
	return func(ctx Context, s State) (State, error) {
		panic(value)
	}
}

// makeSectionNode creates a Report node that writes one section.
func makeSectionNode(key, value string) NodeFunc[Report] {
	return func(ctx Context, r Report) (Report, error) {
		r.Sections[key] = value
		return r, nil
	}
}
