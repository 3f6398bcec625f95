// Package market defines the raw trade observation model and the
// per-country summarization used to compress observation histories
// before they are handed to the inference service.
package market

// Observation is one raw dated price/volume record for one country.
// The Date field is a year or ISO-style date string as stored; ordering
// between observations is the generic string ordering of their dates.
type Observation struct {
	Code    string  `json:"hsn_code"`
	Country string  `json:"country"`
	Price   float64 `json:"price"`
	Volume  float64 `json:"volume"`
	Date    string  `json:"date"`
}

// Summary is the per-country aggregate derived from a set of observations.
// It is ephemeral: recomputed per analysis invocation and never persisted.
type Summary struct {
	Country       string  `json:"country"`
	AveragePrice  float64 `json:"average_price"`
	AverageVolume float64 `json:"average_volume"`
	LatestPrice   float64 `json:"latest_price,omitempty"`
	LatestVolume  float64 `json:"latest_volume,omitempty"`
	DataPoints    int     `json:"data_points"`
}
