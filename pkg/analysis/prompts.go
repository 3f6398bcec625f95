package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tradegraph/tradegraph/pkg/market"
)

// Prompt builders for the task nodes. Each embeds the relevant data as
// JSON and pins the exact response shape so the extractor has a fair
// chance against the model's formatting habits.

func riskPrompt(code, country string, observations []market.Observation) string {
	return fmt.Sprintf(`Analyze the risk factors for HSN code %s in %s based on the following market data:
%s
ONLY RETURN JSON. DO NOT include any explanation, markdown, or commentary.
Provide a comprehensive risk analysis including:
1. Overall risk score (0-100)
2. Key risk factors
3. Summary of findings
Strictly format your response as JSON with the structure:
{
  "risk_score": number,
  "risk_factors": string[],
  "summary": string
}`, code, country, mustJSON(observations))
}

func marketPrompt(code string, summaries []market.Summary) string {
	return fmt.Sprintf(`Analyze the best markets for HSN code %s based on the following summarized market data:
%s
ONLY RETURN JSON. DO NOT include any explanation, markdown, or commentary.
Identify the top 5 markets with highest profit margins and growth potential. Consider average price, average volume, and number of data points as indicators.
Strictly format as JSON:
{
  "best_markets": [
    {
      "country": string,
      "margin": number,
      "potential": string
    }
  ]
}`, code, mustJSON(summaries))
}

func stabilityPrompt(code string, summaries []market.Summary) string {
	return fmt.Sprintf(`Analyze partner stability for HSN code %s based on the following summarized market data:
%s
ONLY RETURN JSON. DO NOT include any explanation, markdown, or commentary.
Evaluate trading partners based on:
1. Price stability (low variance in average price)
2. Volume consistency (consistent average volume)
3. Market reliability (overall assessment based on available data)
Strictly format as JSON:
{
  "partners": [
    {
      "country": string,
      "stability_index": number,
      "reliability": string
    }
  ],
  "summary": string
}`, code, mustJSON(summaries))
}

func suggestionsPrompt(code string, summaries []market.Summary) string {
	return fmt.Sprintf(`Based on the following summarized market data for HSN code %s, provide smart trading suggestions:
%s
ONLY RETURN JSON. DO NOT include any explanation, markdown, or commentary.
Analyze the data and suggest:
1. Markets to expand into (based on growth potential, high average margins, and consistent volume)
2. Markets to reduce exposure (based on potential risk, declining trends, or low average margins)
3. Reasoning for recommendations
Format as JSON:
{
  "expand_markets": string[],
  "reduce_exposure": string[],
  "reasoning": string
}`, code, mustJSON(summaries))
}

func comparisonPrompt(code string, countries []string, summaries []market.Summary) string {
	return fmt.Sprintf(`Compare the following countries for HSN code %s based on their summarized market metrics:
Countries to compare: %s
Summarized market data:
%s
For each country, provide average price, average volume, and an estimated risk (0-100) and stability (0-100) based on the provided data.
ONLY RETURN JSON. DO NOT include any explanation, markdown, or commentary.
Strictly respond in this format:
{
  "countries": [
    {
      "name": "COUNTRY_NAME",
      "metrics": {
        "price": 0,
        "volume": 0,
        "risk": 0,
        "stability": 0
      }
    }
  ],
  "recommendation": "Your one-line recommendation"
}`, code, strings.Join(countries, ", "), mustJSON(summaries))
}

func evaluatorPrompt(s State) string {
	results := map[string]any{
		"risk_analysis":      s.RiskAnalysis,
		"market_analysis":    s.MarketAnalysis,
		"stability_analysis": s.StabilityAnalysis,
		"smart_suggestions":  s.SmartSuggestions,
		"country_comparison": s.CountryComparison,
	}
	return fmt.Sprintf(`Evaluate the quality and completeness of the analysis results:
%s
Provide a quality score (0-100) and suggestions for improvement.
Respond as JSON: {"quality_score": number, "suggestions": string[]}`, mustJSON(results))
}

// mustJSON marshals v for prompt embedding. The prompt payloads are
// plain data types, so marshalling cannot fail in practice.
func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(data)
}
