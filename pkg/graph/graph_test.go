package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAddNode_EmptyID tests that empty node IDs are rejected.
func TestAddNode_EmptyID(t *testing.T) {
	assert.Panics(t, func() {
		NewGraph[Counter]().AddNode("", increment)
	})
}

// TestAddNode_ReservedID tests that END variants are rejected.
func TestAddNode_ReservedID(t *testing.T) {
	for _, id := range []string{"END", "end", "End", "__end__", "__END__"} {
		assert.Panics(t, func() {
			NewGraph[Counter]().AddNode(id, increment)
		}, "id %q should be rejected", id)
	}
}

// TestAddNode_WhitespaceID tests that IDs with whitespace are rejected.
func TestAddNode_WhitespaceID(t *testing.T) {
	for _, id := range []string{"has space", "has\ttab", "has\nnewline"} {
		assert.Panics(t, func() {
			NewGraph[Counter]().AddNode(id, increment)
		}, "id %q should be rejected", id)
	}
}

// TestAddNode_NilFunc tests that nil node functions are rejected.
func TestAddNode_NilFunc(t *testing.T) {
	assert.Panics(t, func() {
		NewGraph[Counter]().AddNode("node", nil)
	})
}

// TestAddNode_Duplicate tests that duplicate node IDs are rejected.
func TestAddNode_Duplicate(t *testing.T) {
	assert.Panics(t, func() {
		NewGraph[Counter]().
			AddNode("node", increment).
			AddNode("node", increment)
	})
}

// TestAddConditionalEdge_NilRouter tests that nil routers are rejected.
func TestAddConditionalEdge_NilRouter(t *testing.T) {
	assert.Panics(t, func() {
		NewGraph[Counter]().
			AddNode("node", increment).
			AddConditionalEdge("node", nil)
	})
}

// TestBuilder_Chaining tests that builder methods chain.
func TestBuilder_Chaining(t *testing.T) {
	g := NewGraph[Counter]().
		AddNode("a", increment).
		AddNode("b", increment).
		AddEdge("a", "b").
		AddEdge("b", END).
		SetEntry("a")

	assert.NotNil(t, g)
}
