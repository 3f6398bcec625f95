package graph

import (
	"sync"
	"time"

	"github.com/tradegraph/tradegraph/pkg/graph/observability"
)

// executeDispatch runs a multi-branch dispatch set concurrently.
//
// Each branch executes against an independent clone of the frozen
// pre-fork state. Branch failures are absorbed: they are logged and
// counted but do not abort the run. Successful branch states are
// merged in dispatch order and execution continues at the common join
// node of the branches.
//
// Returns the join node ID, the merged state, and the number of branch
// node executions.
func (cg *CompiledGraph[S]) executeDispatch(ec *executionContext, fromNode string, branches []string, state S, cfg *runConfig) (string, S, int, error) {
	join, err := cg.joinFor(branches)
	if err != nil {
		return "", state, 0, err
	}

	observability.LogDispatch(cfg.logger, fromNode, branches)

	results := make([]BranchResult[S], len(branches))
	var wg sync.WaitGroup
	for i, branchID := range branches {
		wg.Add(1)
		go func(i int, branchID string) {
			defer wg.Done()
			results[i] = cg.executeBranch(ec, branchID, cloneState(state, branchID), cfg)
		}(i, branchID)
	}
	wg.Wait()

	succeeded := make([]S, 0, len(branches))
	failures := 0
	for _, res := range results {
		if res.Err != nil {
			failures++
			observability.LogBranchError(cfg.logger, res.BranchID, res.Err)
			continue
		}
		succeeded = append(succeeded, res.State)
	}
	cfg.metrics.RecordDispatch(ec, fromNode, len(branches), failures)

	merged := mergeStates(state, succeeded)
	return join, merged, len(branches), nil
}

// executeBranch runs a single fan-out branch and records its settlement.
func (cg *CompiledGraph[S]) executeBranch(ec *executionContext, branchID string, state S, cfg *runConfig) BranchResult[S] {
	fn, ok := cg.nodes[branchID]
	if !ok {
		return BranchResult[S]{BranchID: branchID, Err: ErrNodeNotFound}
	}

	nodeCtx := withNodeID(ec, branchID)
	nodeLogger := observability.EnrichLogger(cfg.logger, ec.runID, branchID)
	observability.LogNodeStart(nodeLogger, branchID)

	spanCtx, span := cfg.spans.StartNodeSpan(ec, branchID)
	if inner, ok := nodeCtx.(*executionContext); ok {
		inner.Context = spanCtx
	}

	start := time.Now()
	out, err := runWithRecovery(nodeCtx, branchID, fn, state)
	elapsed := time.Since(start)

	cfg.metrics.RecordNodeExecution(ec, branchID, elapsed, err)
	cfg.spans.EndSpanWithError(span, err)

	if err != nil {
		observability.LogNodeError(nodeLogger, branchID, err)
		return BranchResult[S]{BranchID: branchID, Err: err}
	}
	observability.LogNodeComplete(nodeLogger, branchID, float64(elapsed.Milliseconds()))
	return BranchResult[S]{BranchID: branchID, State: out}
}
