package analysis

import (
	"context"
	"strings"
	"sync"

	"github.com/tradegraph/tradegraph/pkg/llm"
	"github.com/tradegraph/tradegraph/pkg/market"
)

// fakeStore is an in-memory data-retrieval collaborator.
type fakeStore struct {
	rows map[string][]market.Observation
	err  error
}

func (f *fakeStore) Observations(_ context.Context, code string) ([]market.Observation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[code], nil
}

func (f *fakeStore) Codes(context.Context) ([]string, error) {
	codes := make([]string, 0, len(f.rows))
	for c := range f.rows {
		codes = append(codes, c)
	}
	return codes, nil
}

func (f *fakeStore) Countries(context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var countries []string
	for _, rows := range f.rows {
		for _, obs := range rows {
			if !seen[obs.Country] {
				seen[obs.Country] = true
				countries = append(countries, obs.Country)
			}
		}
	}
	return countries, nil
}

func (f *fakeStore) Close() error { return nil }

// scriptedClient answers each prompt by its leading instruction, so
// concurrently dispatched nodes each get the shape they asked for.
// Prompts are recorded for assertion.
type scriptedClient struct {
	mu      sync.Mutex
	prompts []string

	riskResp        string
	marketResp      string
	stabilityResp   string
	suggestionsResp string
	comparisonResp  string
	evaluatorResp   string

	err          error
	evaluatorErr error
}

func (c *scriptedClient) Complete(_ context.Context, prompt string) (string, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, prompt)
	c.mu.Unlock()

	isEvaluator := strings.HasPrefix(prompt, "Evaluate the quality")
	if isEvaluator && c.evaluatorErr != nil {
		return "", c.evaluatorErr
	}
	if c.err != nil && !isEvaluator {
		return "", c.err
	}

	switch {
	case strings.HasPrefix(prompt, "Analyze the risk factors"):
		return c.riskResp, nil
	case strings.HasPrefix(prompt, "Analyze the best markets"):
		return c.marketResp, nil
	case strings.HasPrefix(prompt, "Analyze partner stability"):
		return c.stabilityResp, nil
	case strings.HasPrefix(prompt, "Based on the following summarized market data"):
		return c.suggestionsResp, nil
	case strings.HasPrefix(prompt, "Compare the following countries"):
		return c.comparisonResp, nil
	case isEvaluator:
		return c.evaluatorResp, nil
	}
	return "", llm.ErrEmptyContent
}

// Prompts returns a copy of all prompts seen so far.
func (c *scriptedClient) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.prompts))
	copy(out, c.prompts)
	return out
}

// promptFor returns the first recorded prompt with the given prefix.
func (c *scriptedClient) promptFor(prefix string) (string, bool) {
	for _, p := range c.Prompts() {
		if strings.HasPrefix(p, prefix) {
			return p, true
		}
	}
	return "", false
}

// newScriptedClient returns a client with well-formed responses for
// every node.
func newScriptedClient() *scriptedClient {
	return &scriptedClient{
		riskResp:        `{"risk_score": 42, "risk_factors": ["fx volatility"], "summary": "moderate"}`,
		marketResp:      `{"best_markets": [{"country": "AUSTRALIA", "margin": 12.5, "potential": "high"}]}`,
		stabilityResp:   `{"partners": [{"country": "BRAZIL", "stability_index": 42, "reliability": "high"}], "summary": "stable"}`,
		suggestionsResp: `{"expand_markets": ["BRAZIL"], "reduce_exposure": ["AUSTRALIA"], "reasoning": "margins"}`,
		comparisonResp:  `{"countries": [{"name": "AUSTRALIA", "metrics": {"price": 10, "volume": 100, "risk": 20, "stability": 80}}], "recommendation": "favor AUSTRALIA"}`,
		evaluatorResp:   `{"quality_score": 88, "suggestions": []}`,
	}
}

// fixtureObservations is the standard test dataset: 5 dated AUSTRALIA
// rows and 3 BRAZIL rows under one code.
func fixtureObservations() []market.Observation {
	return []market.Observation{
		{Code: "690100", Country: "AUSTRALIA", Price: 12.0, Volume: 100, Date: "2021-03-01"},
		{Code: "690100", Country: "AUSTRALIA", Price: 10.0, Volume: 90, Date: "2019-06-01"},
		{Code: "690100", Country: "AUSTRALIA", Price: 11.0, Volume: 95, Date: "2020-01-15"},
		{Code: "690100", Country: "AUSTRALIA", Price: 14.0, Volume: 120, Date: "2023-02-01"},
		{Code: "690100", Country: "AUSTRALIA", Price: 13.0, Volume: 110, Date: "2022-08-01"},
		{Code: "690100", Country: "BRAZIL", Price: 8.0, Volume: 60, Date: "2021-05-01"},
		{Code: "690100", Country: "BRAZIL", Price: 9.0, Volume: 70, Date: "2022-05-01"},
		{Code: "690100", Country: "BRAZIL", Price: 7.5, Volume: 55, Date: "2020-05-01"},
	}
}

// newTestRunner builds a Runner over the fixture store and the given client.
func newTestRunner(client llm.Client) (*Runner, error) {
	st := &fakeStore{rows: map[string][]market.Observation{
		"690100": fixtureObservations(),
	}}
	a := NewAnalyzer(st, client, nil)
	return NewRunner(a)
}
