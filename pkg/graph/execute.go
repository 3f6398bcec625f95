package graph

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/tradegraph/tradegraph/pkg/graph/observability"
)

// DefaultMaxIterations caps the execution loop when no override is given.
// It exists to stop accidental cycles from running forever.
const DefaultMaxIterations = 100

// runConfig carries per-run settings assembled from RunOptions.
type runConfig struct {
	maxIterations int
	logger        *slog.Logger
	metrics       observability.MetricsRecorder
	spans         observability.SpanManager
}

// RunOption configures a single Run call.
type RunOption func(*runConfig)

// WithMaxIterations overrides the execution loop limit.
// Values below 1 are ignored.
func WithMaxIterations(n int) RunOption {
	return func(c *runConfig) {
		if n >= 1 {
			c.maxIterations = n
		}
	}
}

// WithRunLogger sets the structured logger for the run.
// A nil logger disables run logging.
func WithRunLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics for the run.
// Uses the global meter provider.
func WithMetrics() RunOption {
	return func(c *runConfig) {
		c.metrics = observability.NewMetricsRecorder()
	}
}

// WithTracing enables OpenTelemetry tracing for the run.
// Uses the global tracer provider.
func WithTracing() RunOption {
	return func(c *runConfig) {
		c.spans = observability.NewSpanManager()
	}
}

// Run executes the graph from the entry point until END is reached,
// the context is cancelled, a node fails, or the iteration limit is hit.
//
// The returned state is the state at the point of return. On error the
// state reflects the last successful node, except for branch failures
// inside a fan-out, which are absorbed and surfaced through the
// dispatch settlement (see RouterFunc).
func (cg *CompiledGraph[S]) Run(ctx context.Context, state S, opts ...RunOption) (S, error) {
	if ctx == nil {
		return state, ErrNilContext
	}

	cfg := runConfig{
		maxIterations: DefaultMaxIterations,
		metrics:       observability.NoopMetrics{},
		spans:         observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ec := NewContext(ctx, cfg.logger).(*executionContext)

	runStart := time.Now()
	observability.LogRunStart(cfg.logger, ec.runID)

	spanCtx, runSpan := cfg.spans.StartRunSpan(ctx, "graph", ec.runID)
	ec.Context = spanCtx

	state, nodesRun, err := cg.runLoop(ec, state, &cfg)

	elapsed := time.Since(runStart)
	cfg.metrics.RecordGraphRun(ec, err == nil, elapsed)
	cfg.spans.EndSpanWithError(runSpan, err)

	if err != nil {
		lastNode := ""
		if ne, ok := err.(*NodeError); ok {
			lastNode = ne.NodeID
		}
		observability.LogRunError(cfg.logger, ec.runID, err, float64(elapsed.Milliseconds()), lastNode)
		return state, err
	}

	observability.LogRunComplete(cfg.logger, ec.runID, float64(elapsed.Milliseconds()), nodesRun)
	return state, nil
}

// runLoop is the core execution loop. It returns the final state and
// the number of node executions performed.
func (cg *CompiledGraph[S]) runLoop(ec *executionContext, state S, cfg *runConfig) (S, int, error) {
	current := cg.entryPoint
	nodesRun := 0

	for iter := 0; ; iter++ {
		if current == END {
			return state, nodesRun, nil
		}
		if iter >= cfg.maxIterations {
			return state, nodesRun, &MaxIterationsError{
				Max:        cfg.maxIterations,
				LastNodeID: current,
				State:      state,
			}
		}
		if err := ec.Err(); err != nil {
			return state, nodesRun, &CancellationError{
				NodeID: current,
				State:  state,
				Cause:  context.Cause(ec),
			}
		}

		next, err := cg.executeNode(ec, current, &state, cfg)
		nodesRun++
		if err != nil {
			return state, nodesRun, err
		}

		if len(next) > 1 {
			join, merged, branchRuns, err := cg.executeDispatch(ec, current, next, state, cfg)
			nodesRun += branchRuns
			if err != nil {
				return state, nodesRun, err
			}
			state = merged
			current = join
			continue
		}
		current = next[0]
	}
}

// executeNode runs one node with panic recovery and resolves its
// successor dispatch set. The state is updated in place on success.
func (cg *CompiledGraph[S]) executeNode(ec *executionContext, id string, state *S, cfg *runConfig) ([]string, error) {
	fn, ok := cg.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	nodeCtx := withNodeID(ec, id)
	nodeLogger := observability.EnrichLogger(cfg.logger, ec.runID, id)
	observability.LogNodeStart(nodeLogger, id)

	spanCtx, span := cfg.spans.StartNodeSpan(ec, id)
	if inner, ok := nodeCtx.(*executionContext); ok {
		inner.Context = spanCtx
	}

	start := time.Now()
	out, err := runWithRecovery(nodeCtx, id, fn, *state)
	elapsed := time.Since(start)

	cfg.metrics.RecordNodeExecution(ec, id, elapsed, err)
	cfg.spans.EndSpanWithError(span, err)

	if err != nil {
		observability.LogNodeError(nodeLogger, id, err)
		if _, isPanic := err.(*PanicError); isPanic {
			return nil, err
		}
		return nil, &NodeError{NodeID: id, Op: "execute", Err: err}
	}
	observability.LogNodeComplete(nodeLogger, id, float64(elapsed.Milliseconds()))
	*state = out

	return cg.dispatchSet(nodeCtx, id, *state)
}

// dispatchSet resolves the successor set for a node. Conditional edges
// take precedence over static edges; router results are validated here.
func (cg *CompiledGraph[S]) dispatchSet(ctx Context, id string, state S) ([]string, error) {
	router, ok := cg.conditional[id]
	if !ok {
		return cg.staticDispatch(id), nil
	}

	targets := router(ctx, state)
	if len(targets) == 0 {
		return nil, &RouterError{FromNode: id, Returned: targets, Err: ErrInvalidRouterResult}
	}
	for _, t := range targets {
		if t == END {
			if len(targets) > 1 {
				return nil, &RouterError{FromNode: id, Returned: targets, Err: ErrMixedDispatch}
			}
			continue
		}
		if _, ok := cg.nodes[t]; !ok {
			return nil, &RouterError{FromNode: id, Returned: targets, Err: ErrRouterTargetNotFound}
		}
	}
	return targets, nil
}

// runWithRecovery invokes a node function, converting panics to PanicError.
func runWithRecovery[S any](ctx Context, id string, fn NodeFunc[S], state S) (out S, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = state
			err = &PanicError{
				NodeID: id,
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
	}()
	return fn(ctx, state)
}
