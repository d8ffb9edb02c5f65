// Package session owns the selection state of one chart-browsing session:
// which universe, symbol and timeframe are active, whether the volume strip
// is shown, and the last chart payload the series are derived from.
package session

import (
	"strings"

	"chartdeck/internal/scanapi"
)

// Phase is the coarse selection state.
type Phase int

const (
	NoUniverse Phase = iota
	UniverseSelected
	SymbolSelected
)

// VolumeColor is the direction a volume bar is colored by.
type VolumeColor uint8

const (
	VolumeUp VolumeColor = iota
	VolumeDown
)

// CandlePoint is one OHLC bar of the displayed price series.
type CandlePoint struct {
	Time  string
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// VolumePoint is one bar of the displayed volume series.
type VolumePoint struct {
	Time  string
	Value float64
	Color VolumeColor
}

// Session is mutated only by the UI event flow, so it carries no locking.
// Construct a fresh one per test.
//
// Every selection-changing operation issues a monotonic token. Fetch results
// arrive carrying the token they were issued under; Apply/Set operations drop
// results whose token is no longer current, so a slow response for a
// superseded selection can never overwrite a newer one.
type Session struct {
	universe      string
	symbol        string
	timeframe     string
	volumeVisible bool

	nextToken   uint64
	stocksToken uint64
	chartToken  uint64

	visibleStocks []string
	payload       *scanapi.ChartPayload
}

// New returns a session with no universe selected.
func New(defaultTimeframe string, volumeVisible bool) *Session {
	return &Session{
		timeframe:     defaultTimeframe,
		volumeVisible: volumeVisible,
	}
}

func (s *Session) Universe() string    { return s.universe }
func (s *Session) Symbol() string      { return s.symbol }
func (s *Session) Timeframe() string   { return s.timeframe }
func (s *Session) VolumeVisible() bool { return s.volumeVisible }

// Phase reports where the session is in NoUniverse → UniverseSelected →
// SymbolSelected. Timeframe and volume visibility do not affect it.
func (s *Session) Phase() Phase {
	switch {
	case s.universe == "":
		return NoUniverse
	case s.symbol == "":
		return UniverseSelected
	default:
		return SymbolSelected
	}
}

// BarCount returns the number of bars in the held payload, 0 when none.
func (s *Session) BarCount() int {
	if s.payload == nil {
		return 0
	}
	return s.payload.Len()
}

func (s *Session) issue() uint64 {
	s.nextToken++
	return s.nextToken
}

// SelectUniverse makes key the active universe, clears the symbol, the held
// payload and the stock snapshot, and returns the token for the stock-list
// fetch the caller should now issue. Any in-flight stock or chart result for
// the previous selection becomes stale.
func (s *Session) SelectUniverse(key string) uint64 {
	s.universe = key
	s.symbol = ""
	s.payload = nil
	s.visibleStocks = nil
	s.chartToken = s.issue()
	s.stocksToken = s.issue()
	return s.stocksToken
}

// SetStocks installs the visible-stock snapshot for a completed fetch.
// Results for a superseded selection are dropped and it returns false.
func (s *Session) SetStocks(universeKey string, symbols []string, token uint64) bool {
	if token != s.stocksToken || universeKey != s.universe {
		return false
	}
	s.visibleStocks = symbols
	return true
}

// Stocks returns the current visible-stock snapshot.
func (s *Session) Stocks() []string { return s.visibleStocks }

// SelectSymbol makes symbol the active one and returns the timeframe and
// token for the chart fetch the caller should now issue.
func (s *Session) SelectSymbol(symbol string) (tf string, token uint64) {
	s.symbol = symbol
	s.chartToken = s.issue()
	return s.timeframe, s.chartToken
}

// SetTimeframe switches the bar aggregation period. Without a selected
// symbol it is a no-op. Otherwise the caller must issue a fresh chart fetch
// with the returned symbol and token: chart data is never cached per
// timeframe.
func (s *Session) SetTimeframe(tf string) (refetch bool, symbol string, token uint64) {
	if s.symbol == "" {
		return false, "", 0
	}
	s.timeframe = tf
	s.chartToken = s.issue()
	return true, s.symbol, s.chartToken
}

// ApplyChart installs a completed chart fetch. Stale tokens are dropped and
// it returns false. A nil payload (no data) clears the held payload so both
// derived series come back empty; the symbol stays selected.
func (s *Session) ApplyChart(token uint64, p *scanapi.ChartPayload) bool {
	if token != s.chartToken {
		return false
	}
	if p == nil || p.Len() == 0 {
		s.payload = nil
		return true
	}
	s.payload = p
	return true
}

// ToggleVolume flips the volume strip and returns the new visibility. It
// only changes a flag: the series is re-derived from the held payload and no
// fetch ever happens here.
func (s *Session) ToggleVolume() bool {
	s.volumeVisible = !s.volumeVisible
	return s.volumeVisible
}

// CandleSeries derives the price series from the held payload, one point per
// bar. Empty when no payload is held.
func (s *Session) CandleSeries() []CandlePoint {
	if s.payload == nil {
		return nil
	}
	d := s.payload.Data
	pts := make([]CandlePoint, len(d.Date))
	for i := range d.Date {
		pts[i] = CandlePoint{
			Time:  d.Date[i],
			Open:  d.Open[i],
			High:  d.High[i],
			Low:   d.Low[i],
			Close: d.Close[i],
		}
	}
	return pts
}

// VolumeSeries derives the volume series from the held payload. Empty when
// the strip is hidden or no payload is held. A flat bar (close == open)
// counts as up.
func (s *Session) VolumeSeries() []VolumePoint {
	if !s.volumeVisible || s.payload == nil {
		return nil
	}
	d := s.payload.Data
	pts := make([]VolumePoint, len(d.Date))
	for i := range d.Date {
		color := VolumeDown
		if d.Close[i] >= d.Open[i] {
			color = VolumeUp
		}
		pts[i] = VolumePoint{Time: d.Date[i], Value: d.Volume[i], Color: color}
	}
	return pts
}

// LastVolume returns the traded volume of the latest held bar, 0 when no
// payload is held. Unlike VolumeSeries it ignores strip visibility: the
// quote line reports it either way.
func (s *Session) LastVolume() float64 {
	if s.payload == nil || s.payload.Len() == 0 {
		return 0
	}
	return s.payload.Data.Volume[s.payload.Len()-1]
}

// FilterStocks returns the visible stocks whose symbol contains query,
// case-insensitively. It reads only the in-memory snapshot captured at
// universe selection, never the network or the cache.
func (s *Session) FilterStocks(query string) []string {
	if query == "" {
		cp := make([]string, len(s.visibleStocks))
		copy(cp, s.visibleStocks)
		return cp
	}
	q := strings.ToUpper(query)
	var out []string
	for _, sym := range s.visibleStocks {
		if strings.Contains(strings.ToUpper(sym), q) {
			out = append(out, sym)
		}
	}
	return out
}
