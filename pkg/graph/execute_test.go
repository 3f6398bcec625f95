package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRun_LinearFlow tests basic linear execution.
func TestRun_LinearFlow(t *testing.T) {
	compiled, err := NewGraph[Counter]().
		AddNode("inc1", increment).
		AddNode("inc2", increment).
		AddNode("inc3", increment).
		AddEdge("inc1", "inc2").
		AddEdge("inc2", "inc3").
		AddEdge("inc3", END).
		SetEntry("inc1").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Run(context.Background(), Counter{Value: 0})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Value)
}

// TestRun_NilContext tests that a nil context is rejected.
func TestRun_NilContext(t *testing.T) {
	compiled, err := NewGraph[Counter]().
		AddNode("a", increment).
		AddEdge("a", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	//nolint:staticcheck // passing nil on purpose
	_, err = compiled.Run(nil, Counter{})
	assert.ErrorIs(t, err, ErrNilContext)
}

// TestRun_ConditionalRouting tests routing based on state.
func TestRun_ConditionalRouting(t *testing.T) {
	var executed []string

	router := func(ctx Context, s State) []string {
		if s.GoLeft {
			return One("left")
		}
		return One("right")
	}

	build := func() *CompiledGraph[State] {
		executed = nil
		return NewGraph[State]().
			AddNode("start", makeTrackingNode("start", &executed)).
			AddNode("left", makeTrackingNode("left", &executed)).
			AddNode("right", makeTrackingNode("right", &executed)).
			AddConditionalEdge("start", router).
			AddEdge("left", END).
			AddEdge("right", END).
			SetEntry("start").
			MustCompile()
	}

	result, err := build().Run(context.Background(), State{GoLeft: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "left"}, result.Progress)

	result, err = build().Run(context.Background(), State{GoLeft: false})
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "right"}, result.Progress)
}

// TestRun_RouterReturnsEnd tests a router terminating the run.
func TestRun_RouterReturnsEnd(t *testing.T) {
	router := func(ctx Context, s Counter) []string {
		return One(END)
	}

	compiled := NewGraph[Counter]().
		AddNode("a", increment).
		AddConditionalEdge("a", router).
		SetEntry("a").
		MustCompile()

	result, err := compiled.Run(context.Background(), Counter{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Value)
}

// TestRun_RouterEmptySet tests that an empty dispatch set fails the run.
func TestRun_RouterEmptySet(t *testing.T) {
	router := func(ctx Context, s Counter) []string {
		return nil
	}

	compiled := NewGraph[Counter]().
		AddNode("a", increment).
		AddConditionalEdge("a", router).
		SetEntry("a").
		MustCompile()

	_, err := compiled.Run(context.Background(), Counter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRouterResult)

	var rerr *RouterError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "a", rerr.FromNode)
}

// TestRun_RouterUnknownTarget tests a router returning an unknown node.
func TestRun_RouterUnknownTarget(t *testing.T) {
	router := func(ctx Context, s Counter) []string {
		return One("missing")
	}

	compiled := NewGraph[Counter]().
		AddNode("a", increment).
		AddConditionalEdge("a", router).
		SetEntry("a").
		MustCompile()

	_, err := compiled.Run(context.Background(), Counter{})
	assert.ErrorIs(t, err, ErrRouterTargetNotFound)
}

// TestRun_RouterMixedDispatch tests that END cannot be mixed with node IDs.
func TestRun_RouterMixedDispatch(t *testing.T) {
	router := func(ctx Context, s Counter) []string {
		return []string{"b", END}
	}

	compiled := NewGraph[Counter]().
		AddNode("a", increment).
		AddNode("b", increment).
		AddConditionalEdge("a", router).
		AddEdge("b", END).
		SetEntry("a").
		MustCompile()

	_, err := compiled.Run(context.Background(), Counter{})
	assert.ErrorIs(t, err, ErrMixedDispatch)
}

// TestRun_NodeError tests that a node error stops the run with context.
func TestRun_NodeError(t *testing.T) {
	boom := errors.New("boom")

	compiled := NewGraph[State]().
		AddNode("a", makeFailingNode(boom)).
		AddEdge("a", END).
		SetEntry("a").
		MustCompile()

	_, err := compiled.Run(context.Background(), State{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var nerr *NodeError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "a", nerr.NodeID)
}

// TestRun_PanicRecovery tests that node panics become PanicError.
func TestRun_PanicRecovery(t *testing.T) {
	compiled := NewGraph[State]().
		AddNode("a", makePanicNode("kaboom")).
		AddEdge("a", END).
		SetEntry("a").
		MustCompile()

	_, err := compiled.Run(context.Background(), State{})
	require.Error(t, err)

	var perr *PanicError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "a", perr.NodeID)
	assert.Equal(t, "kaboom", perr.Value)
	assert.NotEmpty(t, perr.Stack)
}

// TestRun_MaxIterations tests the loop guard on a cycle.
func TestRun_MaxIterations(t *testing.T) {
	router := func(ctx Context, s Counter) []string {
		if s.Value >= 1000 {
			return One(END)
		}
		return One("a")
	}

	compiled := NewGraph[Counter]().
		AddNode("a", increment).
		AddConditionalEdge("a", router).
		SetEntry("a").
		MustCompile()

	_, err := compiled.Run(context.Background(), Counter{}, WithMaxIterations(5))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxIterations)

	var merr *MaxIterationsError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, 5, merr.Max)
}

// TestRun_Cancellation tests that a cancelled context stops the run
// and preserves the state so far.
func TestRun_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cancelling := func(c Context, s Counter) (Counter, error) {
		s.Value++
		cancel()
		return s, nil
	}

	compiled := NewGraph[Counter]().
		AddNode("a", cancelling).
		AddNode("b", increment).
		AddEdge("a", "b").
		AddEdge("b", END).
		SetEntry("a").
		MustCompile()

	state, err := compiled.Run(ctx, Counter{})
	require.Error(t, err)

	var cerr *CancellationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "b", cerr.NodeID)
	assert.Equal(t, 1, state.Value)
}

// TestRun_ContextIdentity tests that nodes see run and node identity.
func TestRun_ContextIdentity(t *testing.T) {
	var runID, nodeID string

	probe := func(ctx Context, s Counter) (Counter, error) {
		runID = ctx.RunID()
		nodeID = ctx.NodeID()
		require.NotNil(t, ctx.Logger())
		return s, nil
	}

	compiled := NewGraph[Counter]().
		AddNode("probe", probe).
		AddEdge("probe", END).
		SetEntry("probe").
		MustCompile()

	_, err := compiled.Run(context.Background(), Counter{})
	require.NoError(t, err)
	assert.NotEmpty(t, runID)
	assert.Equal(t, "probe", nodeID)
}

// TestRun_ContextDeadlinePropagates tests deadline propagation into nodes.
func TestRun_ContextDeadlinePropagates(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	probe := func(c Context, s Counter) (Counter, error) {
		_, ok := c.Deadline()
		assert.True(t, ok)
		return s, nil
	}

	compiled := NewGraph[Counter]().
		AddNode("probe", probe).
		AddEdge("probe", END).
		SetEntry("probe").
		MustCompile()

	_, err := compiled.Run(ctx, Counter{})
	require.NoError(t, err)
}
