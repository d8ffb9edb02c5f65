package session

import (
	"reflect"
	"testing"

	"chartdeck/internal/scanapi"
)

// threeBarPayload has close >= open on bars 0 and 2, close < open on bar 1.
func threeBarPayload() *scanapi.ChartPayload {
	return &scanapi.ChartPayload{
		Symbol: "RELIANCE",
		TF:     "1D",
		Bars:   3,
		Data: scanapi.ChartData{
			Date:   []string{"2026-08-26", "2026-08-27", "2026-08-28"},
			Open:   []float64{100, 103, 101},
			High:   []float64{104, 104, 105},
			Low:    []float64{99, 100, 100},
			Close:  []float64{103, 101, 101},
			Volume: []float64{1000, 1500, 1200},
		},
	}
}

func loadedSession(t *testing.T) *Session {
	t.Helper()
	s := New("1D", false)
	token := s.SelectUniverse("NIFTY50")
	if !s.SetStocks("NIFTY50", []string{"RELIANCE", "TCS"}, token) {
		t.Fatal("SetStocks dropped a current token")
	}
	tf, chartToken := s.SelectSymbol("RELIANCE")
	if tf != "1D" {
		t.Fatalf("SelectSymbol timeframe = %q, want 1D", tf)
	}
	if !s.ApplyChart(chartToken, threeBarPayload()) {
		t.Fatal("ApplyChart dropped a current token")
	}
	return s
}

func TestPhaseTransitions(t *testing.T) {
	s := New("1D", false)
	if s.Phase() != NoUniverse {
		t.Errorf("fresh session Phase = %v, want NoUniverse", s.Phase())
	}
	s.SelectUniverse("NIFTY50")
	if s.Phase() != UniverseSelected {
		t.Errorf("after SelectUniverse Phase = %v, want UniverseSelected", s.Phase())
	}
	s.SelectSymbol("RELIANCE")
	if s.Phase() != SymbolSelected {
		t.Errorf("after SelectSymbol Phase = %v, want SymbolSelected", s.Phase())
	}
	s.SelectUniverse("NIFTY500")
	if s.Phase() != UniverseSelected {
		t.Errorf("re-selecting a universe Phase = %v, want UniverseSelected", s.Phase())
	}
}

func TestSelectUniverseClearsSymbolAndSeries(t *testing.T) {
	s := loadedSession(t)
	if len(s.CandleSeries()) != 3 {
		t.Fatalf("precondition: candle series has %d points, want 3", len(s.CandleSeries()))
	}

	s.SelectUniverse("NIFTY500")

	if s.Symbol() != "" {
		t.Errorf("Symbol() = %q, want cleared", s.Symbol())
	}
	if got := s.CandleSeries(); len(got) != 0 {
		t.Errorf("CandleSeries() has %d points after universe change, want 0", len(got))
	}
	if got := s.VolumeSeries(); len(got) != 0 {
		t.Errorf("VolumeSeries() has %d points after universe change, want 0", len(got))
	}
	if got := s.Stocks(); len(got) != 0 {
		t.Errorf("Stocks() = %v after universe change, want empty", got)
	}
}

func TestCandleSeriesDerivation(t *testing.T) {
	s := loadedSession(t)
	got := s.CandleSeries()
	want := []CandlePoint{
		{Time: "2026-08-26", Open: 100, High: 104, Low: 99, Close: 103},
		{Time: "2026-08-27", Open: 103, High: 104, Low: 100, Close: 101},
		{Time: "2026-08-28", Open: 101, High: 105, Low: 100, Close: 101},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CandleSeries() = %v, want %v", got, want)
	}
}

func TestVolumeToggleScenario(t *testing.T) {
	// The full scenario: volume off by default, toggle on gives three
	// colored points, toggle off empties it, toggle on reproduces the
	// identical series from the held payload.
	s := loadedSession(t)

	if got := s.VolumeSeries(); len(got) != 0 {
		t.Fatalf("VolumeSeries() with volume hidden has %d points, want 0", len(got))
	}

	s.ToggleVolume()
	want := []VolumePoint{
		{Time: "2026-08-26", Value: 1000, Color: VolumeUp},
		{Time: "2026-08-27", Value: 1500, Color: VolumeDown},
		{Time: "2026-08-28", Value: 1200, Color: VolumeUp},
	}
	first := s.VolumeSeries()
	if !reflect.DeepEqual(first, want) {
		t.Errorf("VolumeSeries() = %v, want %v", first, want)
	}

	s.ToggleVolume()
	if got := s.VolumeSeries(); len(got) != 0 {
		t.Errorf("VolumeSeries() after toggling off has %d points, want 0", len(got))
	}

	s.ToggleVolume()
	again := s.VolumeSeries()
	if !reflect.DeepEqual(again, first) {
		t.Errorf("re-derived VolumeSeries() = %v, want identical %v", again, first)
	}
}

func TestFlatBarCountsAsUp(t *testing.T) {
	s := loadedSession(t)
	s.ToggleVolume()
	// Bar 2 is flat: close == open == 101.
	pts := s.VolumeSeries()
	if pts[2].Color != VolumeUp {
		t.Errorf("flat bar color = %v, want VolumeUp", pts[2].Color)
	}
}

func TestSetTimeframeWithoutSymbolIsNoop(t *testing.T) {
	s := New("1D", false)
	s.SelectUniverse("NIFTY50")

	refetch, _, _ := s.SetTimeframe("1W")
	if refetch {
		t.Error("SetTimeframe with no symbol directed a refetch")
	}
	if s.Timeframe() != "1D" {
		t.Errorf("Timeframe() = %q, want unchanged 1D", s.Timeframe())
	}
}

func TestSetTimeframeDirectsFreshFetch(t *testing.T) {
	s := loadedSession(t)

	refetch, symbol, token := s.SetTimeframe("1W")
	if !refetch {
		t.Fatal("SetTimeframe with a symbol did not direct a refetch")
	}
	if symbol != "RELIANCE" {
		t.Errorf("refetch symbol = %q, want RELIANCE", symbol)
	}
	if s.Timeframe() != "1W" {
		t.Errorf("Timeframe() = %q, want 1W", s.Timeframe())
	}

	p := threeBarPayload()
	p.TF = "1W"
	if !s.ApplyChart(token, p) {
		t.Error("ApplyChart dropped the refetch token")
	}
}

func TestStaleChartResponseIsDropped(t *testing.T) {
	s := New("1D", false)
	token := s.SelectUniverse("NIFTY50")
	s.SetStocks("NIFTY50", []string{"RELIANCE", "TCS"}, token)

	_, staleToken := s.SelectSymbol("RELIANCE")
	_, freshToken := s.SelectSymbol("TCS")

	if s.ApplyChart(staleToken, threeBarPayload()) {
		t.Error("ApplyChart accepted a superseded token")
	}
	if s.BarCount() != 0 {
		t.Errorf("BarCount() = %d after stale apply, want 0", s.BarCount())
	}

	tcs := threeBarPayload()
	tcs.Symbol = "TCS"
	if !s.ApplyChart(freshToken, tcs) {
		t.Error("ApplyChart dropped the current token")
	}
	if s.BarCount() != 3 {
		t.Errorf("BarCount() = %d, want 3", s.BarCount())
	}
}

func TestStaleStockListIsDropped(t *testing.T) {
	s := New("1D", false)
	staleToken := s.SelectUniverse("NIFTY50")
	freshToken := s.SelectUniverse("NIFTY500")

	if s.SetStocks("NIFTY50", []string{"RELIANCE"}, staleToken) {
		t.Error("SetStocks accepted a superseded token")
	}
	if !s.SetStocks("NIFTY500", []string{"ABB", "ZYDUSLIFE"}, freshToken) {
		t.Error("SetStocks dropped the current token")
	}
	if got := s.Stocks(); len(got) != 2 {
		t.Errorf("Stocks() = %v, want the NIFTY500 snapshot", got)
	}
}

func TestApplyChartEmptyPayloadClearsSeries(t *testing.T) {
	s := loadedSession(t)

	_, token := s.SelectSymbol("NODATA")
	if !s.ApplyChart(token, nil) {
		t.Fatal("ApplyChart dropped a current nil payload")
	}
	if s.Symbol() != "NODATA" {
		t.Errorf("Symbol() = %q, want NODATA kept after empty payload", s.Symbol())
	}
	if len(s.CandleSeries()) != 0 || len(s.VolumeSeries()) != 0 {
		t.Error("series not cleared after empty payload")
	}
}

func TestFilterStocks(t *testing.T) {
	s := New("1D", false)
	token := s.SelectUniverse("NIFTY50")
	s.SetStocks("NIFTY50", []string{"RELIANCE", "TCS", "HDFCBANK", "ICICIBANK"}, token)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"RELIANCE", "TCS", "HDFCBANK", "ICICIBANK"}},
		{"bank", []string{"HDFCBANK", "ICICIBANK"}},
		{"BANK", []string{"HDFCBANK", "ICICIBANK"}},
		{"tcs", []string{"TCS"}},
		{"xyz", nil},
	}
	for _, tt := range tests {
		if got := s.FilterStocks(tt.query); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("FilterStocks(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}
