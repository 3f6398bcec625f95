package graph

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Context is the execution context passed to every node and router.
// It embeds context.Context for cancellation and deadline propagation,
// and carries run-scoped identity and a structured logger.
type Context interface {
	context.Context

	// Logger returns a logger enriched with run and node identity.
	// Never returns nil; falls back to slog.Default().
	Logger() *slog.Logger

	// RunID returns the unique identifier for this graph execution.
	RunID() string

	// NodeID returns the ID of the currently executing node.
	// Empty outside node execution.
	NodeID() string
}

type executionContext struct {
	context.Context
	logger *slog.Logger
	runID  string
	nodeID string
}

// NewContext wraps a standard context for graph execution.
// A fresh run ID is generated; the logger may be nil, in which case
// slog.Default() is used.
func NewContext(ctx context.Context, logger *slog.Logger) Context {
	if logger == nil {
		logger = slog.Default()
	}
	runID := uuid.NewString()
	return &executionContext{
		Context: ctx,
		logger:  logger.With(slog.String("run_id", runID)),
		runID:   runID,
	}
}

func (ec *executionContext) Logger() *slog.Logger { return ec.logger }
func (ec *executionContext) RunID() string        { return ec.runID }
func (ec *executionContext) NodeID() string       { return ec.nodeID }

// withNodeID derives a child context scoped to a node execution.
func withNodeID(ctx Context, nodeID string) Context {
	return &executionContext{
		Context: ctx,
		logger:  ctx.Logger().With(slog.String("node_id", nodeID)),
		runID:   ctx.RunID(),
		nodeID:  nodeID,
	}
}
