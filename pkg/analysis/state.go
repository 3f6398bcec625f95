// Package analysis wires the market-analysis workflow: the shared run
// state, the task nodes that fill it, the routing table that decides
// which analyses run together, and the Runner that drives a compiled
// graph per request.
package analysis

import (
	"github.com/tradegraph/tradegraph/pkg/market"
)

// State is the single record threaded through one analysis run.
// It is created fresh from the caller's request, filled by the task
// nodes, and returned as the run result. Each result slot is written
// by exactly one node; MarketData is written once by the fetch node
// and read-only afterward.
type State struct {
	Code      string   `json:"hsn_code"`
	Country   string   `json:"country,omitempty"`
	Countries []string `json:"countries,omitempty"`
	Kind      Kind     `json:"analysis_type"`

	MarketData []market.Observation `json:"market_data,omitempty"`

	RiskAnalysis      *RiskAnalysis      `json:"risk_analysis,omitempty"`
	MarketAnalysis    *MarketAnalysis    `json:"market_analysis,omitempty"`
	StabilityAnalysis *StabilityAnalysis `json:"stability_analysis,omitempty"`
	SmartSuggestions  *SmartSuggestions  `json:"smart_suggestions,omitempty"`
	CountryComparison *CountryComparison `json:"country_comparison,omitempty"`

	// Error is the terminal failure signal. Once set the run still
	// proceeds to evaluation, but the caller-visible outcome is failed.
	Error string `json:"error,omitempty"`
}

// Clone returns an independent copy of the state for one fan-out branch.
// Result slots are pointers written at most once per run, and MarketData
// is immutable after fetch, so only the slice headers need copying.
func (s State) Clone(branchID string) State {
	clone := s
	clone.Countries = append([]string(nil), s.Countries...)
	return clone
}

// Merge folds branch states back into the pre-fork state. Each branch
// writes a disjoint result slot, so merging takes the single branch
// that set each slot; on a conflict the later-listed branch wins. The
// first branch error to appear is kept.
func (s State) Merge(branches []State) State {
	merged := s
	for _, b := range branches {
		if b.RiskAnalysis != nil {
			merged.RiskAnalysis = b.RiskAnalysis
		}
		if b.MarketAnalysis != nil {
			merged.MarketAnalysis = b.MarketAnalysis
		}
		if b.StabilityAnalysis != nil {
			merged.StabilityAnalysis = b.StabilityAnalysis
		}
		if b.SmartSuggestions != nil {
			merged.SmartSuggestions = b.SmartSuggestions
		}
		if b.CountryComparison != nil {
			merged.CountryComparison = b.CountryComparison
		}
		if b.Error != "" && merged.Error == "" {
			merged.Error = b.Error
		}
	}
	return merged
}

// RiskAnalysis is the result of the risk task: a model-provided score,
// factors, and summary, plus a locally computed chart series over the
// country's observations.
type RiskAnalysis struct {
	RiskScore   float64     `json:"risk_score"`
	RiskFactors []string    `json:"risk_factors"`
	Summary     string      `json:"summary"`
	ChartData   []RiskPoint `json:"chart_data,omitempty"`
}

// RiskPoint is one chart entry per observation, ordered by year.
type RiskPoint struct {
	Month  string  `json:"month"`
	Risk   float64 `json:"risk"`
	Volume float64 `json:"volume"`
	Price  float64 `json:"price"`
}

// MarketAnalysis is the result of the best-markets task.
type MarketAnalysis struct {
	BestMarkets []BestMarket  `json:"best_markets"`
	ChartData   []MarketPoint `json:"chart_data,omitempty"`
}

// BestMarket is one model-ranked market.
type BestMarket struct {
	Country   string  `json:"country"`
	Margin    float64 `json:"margin"`
	Potential string  `json:"potential"`
}

// MarketPoint pairs a ranked market with its raw observed volume.
type MarketPoint struct {
	Country string  `json:"country"`
	Margin  float64 `json:"margin"`
	Volume  float64 `json:"volume"`
}

// StabilityAnalysis is the result of the partner-stability task.
// Partners with a zero or absent stability index are filtered out
// before the result is stored.
type StabilityAnalysis struct {
	Partners []Partner `json:"partners"`
	Summary  string    `json:"summary"`
}

// Partner is one trading partner's stability assessment.
type Partner struct {
	Country        string  `json:"country"`
	StabilityIndex float64 `json:"stability_index"`
	Reliability    string  `json:"reliability"`
}

// SmartSuggestions is the result of the strategic-suggestions task,
// stored verbatim as parsed.
type SmartSuggestions struct {
	ExpandMarkets  []string `json:"expand_markets"`
	ReduceExposure []string `json:"reduce_exposure"`
	Reasoning      string   `json:"reasoning"`
}

// CountryComparison is the result of the multi-country comparison task.
type CountryComparison struct {
	Countries      []ComparedCountry `json:"countries"`
	Recommendation string            `json:"recommendation"`
}

// ComparedCountry is one country's metrics in a comparison.
type ComparedCountry struct {
	Name    string         `json:"name"`
	Metrics CountryMetrics `json:"metrics"`
}

// CountryMetrics carries the compared figures for one country.
type CountryMetrics struct {
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
	Risk      float64 `json:"risk"`
	Stability float64 `json:"stability"`
}

// Evaluation is the evaluator's self-check grade over the populated
// result slots. It is logged, never stored in the state.
type Evaluation struct {
	QualityScore float64  `json:"quality_score"`
	Suggestions  []string `json:"suggestions"`
}
