package graph

// CompiledGraph is an immutable, validated graph ready for execution.
// It is safe for concurrent use; a single compiled graph can serve
// many concurrent Run calls.
type CompiledGraph[S any] struct {
	nodes       map[string]NodeFunc[S]
	edges       map[string][]string
	conditional map[string]RouterFunc[S]
	entryPoint  string
}

// EntryPoint returns the entry node ID.
func (cg *CompiledGraph[S]) EntryPoint() string {
	return cg.entryPoint
}

// HasNode reports whether a node with the given ID exists.
func (cg *CompiledGraph[S]) HasNode(id string) bool {
	_, ok := cg.nodes[id]
	return ok
}

// NodeIDs returns the IDs of all nodes in the graph.
func (cg *CompiledGraph[S]) NodeIDs() []string {
	ids := make([]string, 0, len(cg.nodes))
	for id := range cg.nodes {
		ids = append(ids, id)
	}
	return ids
}

// staticDispatch resolves the successor set of a node via its static edges.
// Returns a single-element END set when no edge is declared.
func (cg *CompiledGraph[S]) staticDispatch(id string) []string {
	if to, ok := cg.edges[id]; ok && len(to) > 0 {
		return to
	}
	return []string{END}
}

// joinFor computes the node where a fan-out over branches converges.
// Every branch must declare the same single static successor; that
// successor is the join. Branches with no successor converge at END.
func (cg *CompiledGraph[S]) joinFor(branches []string) (string, error) {
	join := ""
	for _, b := range branches {
		succ := cg.staticDispatch(b)
		if len(succ) != 1 {
			return "", &RouterError{FromNode: b, Returned: succ, Err: ErrDivergentJoin}
		}
		if join == "" {
			join = succ[0]
		} else if join != succ[0] {
			return "", &RouterError{FromNode: b, Returned: succ, Err: ErrDivergentJoin}
		}
	}
	if join == "" {
		join = END
	}
	return join, nil
}
