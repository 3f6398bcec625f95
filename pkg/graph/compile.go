package graph

import "fmt"

// Compile validates the graph and returns an immutable CompiledGraph.
//
// Validation checks:
//   - Entry point is set and references an existing node
//   - All edge endpoints reference existing nodes (or END as a target)
//   - A path exists from the entry point to END
//
// Conditional edges cannot be statically validated since their dispatch
// sets depend on runtime state; router results are checked during
// execution instead. A node carrying a conditional edge is treated as
// able to reach END for the path check.
func (g *Graph[S]) Compile() (*CompiledGraph[S], error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.entryPoint == "" {
		return nil, ErrNoEntryPoint
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, g.entryPoint)
	}

	for from, targets := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("%w: edge source %s", ErrNodeNotFound, from)
		}
		for _, to := range targets {
			if to == END {
				continue
			}
			if _, ok := g.nodes[to]; !ok {
				return nil, fmt.Errorf("%w: edge target %s (from %s)", ErrNodeNotFound, to, from)
			}
		}
	}

	for from := range g.conditionalEdges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("%w: conditional edge source %s", ErrNodeNotFound, from)
		}
	}

	if !g.pathToEnd(g.entryPoint) {
		return nil, fmt.Errorf("%w: %s", ErrNoPathToEnd, g.entryPoint)
	}

	cg := &CompiledGraph[S]{
		nodes:       make(map[string]NodeFunc[S], len(g.nodes)),
		edges:       make(map[string][]string, len(g.edges)),
		conditional: make(map[string]RouterFunc[S], len(g.conditionalEdges)),
		entryPoint:  g.entryPoint,
	}
	for id, fn := range g.nodes {
		cg.nodes[id] = fn
	}
	for from, targets := range g.edges {
		cg.edges[from] = append([]string(nil), targets...)
	}
	for from, router := range g.conditionalEdges {
		cg.conditional[from] = router
	}
	return cg, nil
}

// MustCompile is like Compile but panics on error.
// Intended for graphs built from static definitions at startup.
func (g *Graph[S]) MustCompile() *CompiledGraph[S] {
	cg, err := g.Compile()
	if err != nil {
		panic(fmt.Sprintf("graph: compile failed: %v", err))
	}
	return cg
}

// pathToEnd reports whether END is reachable from start via BFS over
// static edges. Nodes with conditional edges count as reaching END
// since their targets are unknown until runtime.
func (g *Graph[S]) pathToEnd(start string) bool {
	visited := make(map[string]bool)
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == END {
			return true
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true

		if _, ok := g.conditionalEdges[cur]; ok {
			return true
		}
		targets, ok := g.edges[cur]
		if !ok {
			// No outgoing edge is an implicit transition to END.
			return true
		}
		queue = append(queue, targets...)
	}
	return false
}
