// Package scanapi is the client for the stock scanner's read-only HTTP API:
// /universes, /stocks and /chart.
package scanapi

import "fmt"

// Universe is one entry from the /universes endpoint.
type Universe struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// StockList is the /stocks response for a single universe. An unknown
// universe key comes back with Count 0 and an empty Symbols slice.
type StockList struct {
	Universe string   `json:"universe"`
	Count    int      `json:"count"`
	Symbols  []string `json:"symbols"`
}

// ChartData holds the column-oriented OHLCV series of a chart payload.
// The slices are co-indexed: position i across all six describes one bar.
type ChartData struct {
	Date   []string  `json:"date"`
	Open   []float64 `json:"open"`
	High   []float64 `json:"high"`
	Low    []float64 `json:"low"`
	Close  []float64 `json:"close"`
	Volume []float64 `json:"volume"`
}

// ChartPayload is the /chart response. When the backend has no rows for the
// symbol and timeframe it sends Bars 0 and an empty Data object.
type ChartPayload struct {
	Symbol string    `json:"symbol"`
	TF     string    `json:"tf"`
	Bars   int       `json:"bars"`
	Data   ChartData `json:"data"`
}

// Len returns the number of bars in the payload, taken from the date series.
func (p *ChartPayload) Len() int {
	return len(p.Data.Date)
}

// Validate reports an error when the co-indexed series disagree on length.
// A payload that fails validation must not be cached or displayed: indexing
// any of the shorter series by bar position would read out of range.
func (p *ChartPayload) Validate() error {
	n := len(p.Data.Date)
	if len(p.Data.Open) != n || len(p.Data.High) != n || len(p.Data.Low) != n ||
		len(p.Data.Close) != n || len(p.Data.Volume) != n {
		return fmt.Errorf("ohlcv series lengths disagree: date=%d open=%d high=%d low=%d close=%d volume=%d",
			n, len(p.Data.Open), len(p.Data.High), len(p.Data.Low), len(p.Data.Close), len(p.Data.Volume))
	}
	return nil
}
