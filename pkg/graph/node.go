package graph

// END is the terminal node identifier.
// Use this as an edge target to indicate the graph should terminate.
const END = "__end__"

// NodeFunc is the signature for all node functions.
// Nodes receive the execution context and current state,
// and return the updated state (or the same state) and any error.
//
// The state parameter is passed by value. Nodes should modify and return
// a new state value, not rely on pointer mutation.
type NodeFunc[S any] func(ctx Context, state S) (S, error)

// RouterFunc determines the dispatch set following a node, based on state.
// It is used for conditional edges where the next step depends on runtime
// state.
//
// The router returns one or more node IDs, or a single END. A one-element
// set is a plain transition. A multi-element set is a fan-out: every listed
// node runs concurrently against a clone of the same frozen state, and the
// engine joins all branches before continuing. Returning an empty set or an
// unknown node ID causes a runtime error.
type RouterFunc[S any] func(ctx Context, state S) []string

// One wraps a single node ID for returning from a RouterFunc.
func One(id string) []string {
	return []string{id}
}
