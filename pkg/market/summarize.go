package market

import "math"

// Summarize collapses a flat observation list into one Summary per distinct
// country name (case-sensitive). Average price and volume are arithmetic
// means rounded to 2 decimal places. The latest price/volume come from the
// observation whose date string sorts last; when dates are empty or never
// exceed the first seen, the first occurrence wins. Output order follows
// first appearance in the input.
func Summarize(observations []Observation) []Summary {
	type group struct {
		priceSum  float64
		volumeSum float64
		count     int
		latest    Observation
	}

	order := make([]string, 0)
	groups := make(map[string]*group)

	for _, obs := range observations {
		g, ok := groups[obs.Country]
		if !ok {
			g = &group{latest: obs}
			groups[obs.Country] = g
			order = append(order, obs.Country)
		}
		g.priceSum += obs.Price
		g.volumeSum += obs.Volume
		g.count++
		if obs.Date > g.latest.Date {
			g.latest = obs
		}
	}

	summaries := make([]Summary, 0, len(order))
	for _, country := range order {
		g := groups[country]
		summaries = append(summaries, Summary{
			Country:       country,
			AveragePrice:  round2(g.priceSum / float64(g.count)),
			AverageVolume: round2(g.volumeSum / float64(g.count)),
			LatestPrice:   g.latest.Price,
			LatestVolume:  g.latest.Volume,
			DataPoints:    g.count,
		})
	}
	return summaries
}

// round2 rounds to 2 decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
