package analysis

import (
	"github.com/tradegraph/tradegraph/pkg/graph"
)

// route decides where a run goes after fetch. A fetch error skips all
// task nodes. A known kind dispatches its set concurrently; every task
// node converges on the evaluator. Anything else goes straight to the
// evaluator with no task executed.
func (a *Analyzer) route(ctx graph.Context, s State) []string {
	if s.Error != "" {
		return graph.One(nodeEvaluator)
	}
	if set, ok := dispatchSets[s.Kind]; ok {
		return set
	}
	return graph.One(nodeEvaluator)
}

// BuildGraph assembles and compiles the analysis workflow.
func (a *Analyzer) BuildGraph() (*graph.CompiledGraph[State], error) {
	return graph.NewGraph[State]().
		AddNode(nodeFetch, a.fetchData).
		AddNode(nodeRisk, a.riskAnalysis).
		AddNode(nodeMarket, a.marketAnalysis).
		AddNode(nodeStability, a.stabilityAnalysis).
		AddNode(nodeSuggestions, a.smartSuggestions).
		AddNode(nodeComparison, a.countryComparison).
		AddNode(nodeEvaluator, a.evaluateResults).
		AddConditionalEdge(nodeFetch, a.route).
		AddEdge(nodeRisk, nodeEvaluator).
		AddEdge(nodeMarket, nodeEvaluator).
		AddEdge(nodeStability, nodeEvaluator).
		AddEdge(nodeSuggestions, nodeEvaluator).
		AddEdge(nodeComparison, nodeEvaluator).
		AddEdge(nodeEvaluator, graph.END).
		SetEntry(nodeFetch).
		Compile()
}
