package analysis

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tradegraph/tradegraph/pkg/extract"
	"github.com/tradegraph/tradegraph/pkg/graph"
	"github.com/tradegraph/tradegraph/pkg/llm"
	"github.com/tradegraph/tradegraph/pkg/market"
	"github.com/tradegraph/tradegraph/pkg/market/store"
)

// Analyzer owns the task nodes. Both collaborators are injected at
// construction; nothing here touches package-level state.
type Analyzer struct {
	store  store.Store
	client llm.Client
	logger *slog.Logger
}

// NewAnalyzer creates an Analyzer over the given collaborators.
// logger may be nil, in which case slog.Default() is used.
func NewAnalyzer(st store.Store, client llm.Client, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{store: st, client: client, logger: logger}
}

// Every task node absorbs its own failures into the state error field
// with a node-specific prefix; no error crosses a node boundary.

// fetchData loads the observation rows for the requested code.
// An unknown code yields empty rows, not an error.
func (a *Analyzer) fetchData(ctx graph.Context, s State) (State, error) {
	observations, err := a.store.Observations(ctx, s.Code)
	if err != nil {
		s.Error = fmt.Sprintf("data fetch failed: %v", err)
		return s, nil
	}
	s.MarketData = observations
	return s, nil
}

// riskAnalysis scores risk for the requested country over that
// country's observations only.
func (a *Analyzer) riskAnalysis(ctx graph.Context, s State) (State, error) {
	countryData := filterByCountry(s.MarketData, s.Country)

	content, err := a.client.Complete(ctx, riskPrompt(s.Code, s.Country, countryData))
	if err != nil {
		s.Error = fmt.Sprintf("risk analysis failed: %v", err)
		return s, nil
	}
	parsed, err := extract.JSON[RiskAnalysis](content)
	if err != nil {
		s.Error = fmt.Sprintf("risk analysis failed: %v", err)
		return s, nil
	}

	parsed.ChartData = riskChart(countryData)
	s.RiskAnalysis = &parsed
	return s, nil
}

// marketAnalysis ranks the best markets over all countries' summaries.
func (a *Analyzer) marketAnalysis(ctx graph.Context, s State) (State, error) {
	summaries := market.Summarize(s.MarketData)

	content, err := a.client.Complete(ctx, marketPrompt(s.Code, summaries))
	if err != nil {
		s.Error = fmt.Sprintf("market analysis failed: %v", err)
		return s, nil
	}
	parsed, err := extract.JSON[MarketAnalysis](content)
	if err != nil {
		s.Error = fmt.Sprintf("market analysis failed: %v", err)
		return s, nil
	}

	parsed.ChartData = make([]MarketPoint, 0, len(parsed.BestMarkets))
	for _, best := range parsed.BestMarkets {
		parsed.ChartData = append(parsed.ChartData, MarketPoint{
			Country: best.Country,
			Margin:  best.Margin,
			Volume:  firstVolume(s.MarketData, best.Country),
		})
	}
	s.MarketAnalysis = &parsed
	return s, nil
}

// stabilityAnalysis assesses trading partners over all countries'
// summaries. Partners with a zero or absent stability index are noise
// and are dropped.
func (a *Analyzer) stabilityAnalysis(ctx graph.Context, s State) (State, error) {
	summaries := market.Summarize(s.MarketData)

	content, err := a.client.Complete(ctx, stabilityPrompt(s.Code, summaries))
	if err != nil {
		s.Error = fmt.Sprintf("stability analysis failed: %v", err)
		return s, nil
	}
	parsed, err := extract.JSON[StabilityAnalysis](content)
	if err != nil {
		s.Error = fmt.Sprintf("stability analysis failed: %v", err)
		return s, nil
	}

	kept := parsed.Partners[:0]
	for _, p := range parsed.Partners {
		if p.StabilityIndex > 0 {
			kept = append(kept, p)
		}
	}
	parsed.Partners = kept
	s.StabilityAnalysis = &parsed
	return s, nil
}

// smartSuggestions produces expansion/reduction advice, stored verbatim.
func (a *Analyzer) smartSuggestions(ctx graph.Context, s State) (State, error) {
	summaries := market.Summarize(s.MarketData)

	content, err := a.client.Complete(ctx, suggestionsPrompt(s.Code, summaries))
	if err != nil {
		s.Error = fmt.Sprintf("smart suggestions failed: %v", err)
		return s, nil
	}
	parsed, err := extract.JSON[SmartSuggestions](content)
	if err != nil {
		s.Error = fmt.Sprintf("smart suggestions failed: %v", err)
		return s, nil
	}

	s.SmartSuggestions = &parsed
	return s, nil
}

// countryComparison compares the requested countries, restricting the
// summaries to exactly those countries.
func (a *Analyzer) countryComparison(ctx graph.Context, s State) (State, error) {
	summaries := market.Summarize(s.MarketData)

	requested := make(map[string]bool, len(s.Countries))
	for _, c := range s.Countries {
		requested[c] = true
	}
	restricted := make([]market.Summary, 0, len(s.Countries))
	for _, sum := range summaries {
		if requested[sum.Country] {
			restricted = append(restricted, sum)
		}
	}

	content, err := a.client.Complete(ctx, comparisonPrompt(s.Code, s.Countries, restricted))
	if err != nil {
		s.Error = fmt.Sprintf("country comparison failed: %v", err)
		return s, nil
	}
	parsed, err := extract.JSON[CountryComparison](content)
	if err != nil {
		s.Error = fmt.Sprintf("country comparison failed: %v", err)
		return s, nil
	}

	s.CountryComparison = &parsed
	return s, nil
}

// evaluateResults is the terminal self-check. It grades whatever result
// slots are populated, logs the grade, and never fails the run or
// mutates a result slot. Its own failures are logged and swallowed.
func (a *Analyzer) evaluateResults(ctx graph.Context, s State) (State, error) {
	content, err := a.client.Complete(ctx, evaluatorPrompt(s))
	if err != nil {
		ctx.Logger().Debug("evaluation skipped", "error", err.Error())
		return s, nil
	}
	eval, err := extract.JSONLenient[Evaluation](content)
	if err != nil {
		ctx.Logger().Debug("evaluation unparsable", "error", err.Error())
		return s, nil
	}
	ctx.Logger().Info("analysis evaluated",
		"quality_score", eval.QualityScore,
		"suggestions", len(eval.Suggestions),
	)
	return s, nil
}

// filterByCountry keeps the observations matching country exactly.
func filterByCountry(observations []market.Observation, country string) []market.Observation {
	filtered := make([]market.Observation, 0, len(observations))
	for _, obs := range observations {
		if obs.Country == country {
			filtered = append(filtered, obs)
		}
	}
	return filtered
}

// firstVolume returns the volume of the first observation for country,
// or 0 when the country has no raw rows.
func firstVolume(observations []market.Observation, country string) float64 {
	for _, obs := range observations {
		if obs.Country == country {
			return obs.Volume
		}
	}
	return 0
}

// riskChart builds one chart point per observation, sorted ascending by
// the year parsed from each date. The risk metric is the observation
// price's absolute deviation from the country mean, scaled to 0-100.
func riskChart(observations []market.Observation) []RiskPoint {
	if len(observations) == 0 {
		return nil
	}

	var meanPrice float64
	for _, obs := range observations {
		meanPrice += obs.Price
	}
	meanPrice /= float64(len(observations))

	sorted := append([]market.Observation(nil), observations...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return yearOf(sorted[i].Date) < yearOf(sorted[j].Date)
	})

	points := make([]RiskPoint, 0, len(sorted))
	for _, obs := range sorted {
		points = append(points, RiskPoint{
			Month:  obs.Date,
			Risk:   deviationRisk(obs.Price, meanPrice),
			Volume: obs.Volume,
			Price:  obs.Price,
		})
	}
	return points
}

// yearOf parses the leading year from a date string such as "2021-01-05"
// or "2021". Unparsable dates sort first.
func yearOf(date string) int {
	head, _, _ := strings.Cut(date, "-")
	year, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return year
}

// deviationRisk scales |price - mean| / mean to 0-100, capped at 100.
func deviationRisk(price, mean float64) float64 {
	if mean == 0 {
		return 0
	}
	risk := math.Abs(price-mean) / mean * 100
	return math.Round(math.Min(risk, 100)*100) / 100
}
