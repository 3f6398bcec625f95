package analysis

import (
	"context"
	"fmt"

	"github.com/tradegraph/tradegraph/pkg/graph"
)

// Request is one analysis invocation.
type Request struct {
	Code      string   `json:"hsn_code"`
	Country   string   `json:"country,omitempty"`
	Countries []string `json:"countries,omitempty"`
	Kind      Kind     `json:"analysis_type"`
}

// ValidationError reports a request missing a required field for the
// requested analysis kind.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// Validate checks the request's required fields. Unknown kinds are not
// a validation error; they run as a no-op straight to evaluation.
func (r Request) Validate() error {
	if r.Code == "" {
		return &ValidationError{Field: "hsn_code", Reason: "must not be empty"}
	}
	if r.Kind == "" {
		return &ValidationError{Field: "analysis_type", Reason: "must not be empty"}
	}
	if r.Kind == KindRisk && r.Country == "" {
		return &ValidationError{Field: "country", Reason: "required for risk analysis"}
	}
	if r.Kind == KindComparison && len(r.Countries) == 0 {
		return &ValidationError{Field: "countries", Reason: "required for country comparison"}
	}
	return nil
}

// Runner drives one compiled analysis graph. A single Runner serves
// concurrent requests; every run owns an independent State.
type Runner struct {
	compiled *graph.CompiledGraph[State]
	opts     []graph.RunOption
}

// NewRunner compiles the analyzer's graph once and returns a Runner
// applying the given run options to every run.
func NewRunner(a *Analyzer, opts ...graph.RunOption) (*Runner, error) {
	compiled, err := a.BuildGraph()
	if err != nil {
		return nil, fmt.Errorf("building analysis graph: %w", err)
	}
	return &Runner{compiled: compiled, opts: opts}, nil
}

// Run validates the request and executes the workflow, returning the
// final merged state. A state-carried error (a failed fetch or task)
// is reported inside the state, not as the returned error; the
// returned error covers validation and engine-level failures only.
func (r *Runner) Run(ctx context.Context, req Request) (State, error) {
	if err := req.Validate(); err != nil {
		return State{}, err
	}

	initial := State{
		Code:      req.Code,
		Country:   req.Country,
		Countries: req.Countries,
		Kind:      req.Kind,
	}
	return r.compiled.Run(ctx, initial, r.opts...)
}
