// Package store provides the data-retrieval collaborator: persistent
// storage of market observations keyed by product classification code.
// Implementations must be safe for concurrent use.
package store

import (
	"context"
	"errors"

	"github.com/tradegraph/tradegraph/pkg/market"
)

// Store serves shaped observation rows to analysis runs.
type Store interface {
	// Observations returns all rows for a code, empty (not an error)
	// when the code is unknown. Errors indicate transport/query failure.
	Observations(ctx context.Context, code string) ([]market.Observation, error)

	// Codes returns the distinct product classification codes on record.
	Codes(ctx context.Context) ([]string, error)

	// Countries returns the distinct country names on record.
	Countries(ctx context.Context) ([]string, error)

	// Close releases the underlying connection.
	Close() error
}

// ErrStoreClosed indicates the store has been closed.
var ErrStoreClosed = errors.New("market store closed")
