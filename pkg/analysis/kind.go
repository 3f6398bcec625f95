package analysis

// Kind is the closed enumeration of analysis kinds a caller can request.
// Unknown values are not an error: they route straight to evaluation
// with no task executed.
type Kind string

const (
	KindRisk        Kind = "risk"
	KindMarket      Kind = "market"
	KindStability   Kind = "stability"
	KindSuggestions Kind = "suggestions"
	KindComparison  Kind = "comparison"
)

// Node identifiers in the analysis graph.
const (
	nodeFetch       = "fetch_data"
	nodeRisk        = "do_risk_analysis"
	nodeMarket      = "do_market_analysis"
	nodeStability   = "do_stability_analysis"
	nodeSuggestions = "do_smart_suggestions"
	nodeComparison  = "do_country_comparison"
	nodeEvaluator   = "evaluator"
)

// dispatchSets is the single source of truth for which analyses run
// together. Each primary analysis carries cheap complementary context
// so one request yields a richer result without extra round trips.
var dispatchSets = map[Kind][]string{
	KindRisk:        {nodeRisk, nodeMarket, nodeStability},
	KindMarket:      {nodeMarket, nodeStability, nodeSuggestions},
	KindStability:   {nodeStability, nodeMarket},
	KindSuggestions: {nodeSuggestions},
	KindComparison:  {nodeComparison},
}

// Valid reports whether k is one of the known analysis kinds.
func (k Kind) Valid() bool {
	_, ok := dispatchSets[k]
	return ok
}
