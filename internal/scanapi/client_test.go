package scanapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, "/api", 5*time.Second), srv
}

func TestUniverses(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/universes" {
			t.Errorf("path = %q, want /api/universes", r.URL.Path)
		}
		w.Write([]byte(`[{"key":"NIFTY50","label":"Nifty 50"},{"key":"NIFTY500","label":"Nifty 500"}]`))
	}))
	defer srv.Close()

	universes, err := c.Universes(context.Background())
	if err != nil {
		t.Fatalf("Universes() returned error: %v", err)
	}
	if len(universes) != 2 {
		t.Fatalf("len(universes) = %d, want 2", len(universes))
	}
	if universes[0].Key != "NIFTY50" || universes[0].Label != "Nifty 50" {
		t.Errorf("universes[0] = %+v, want {NIFTY50 Nifty 50}", universes[0])
	}
}

func TestStocksPassesUniverseParam(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("universe"); got != "NIFTY50" {
			t.Errorf("universe param = %q, want NIFTY50", got)
		}
		w.Write([]byte(`{"universe":"NIFTY50","count":2,"symbols":["RELIANCE","TCS"]}`))
	}))
	defer srv.Close()

	list, err := c.Stocks(context.Background(), "NIFTY50")
	if err != nil {
		t.Fatalf("Stocks() returned error: %v", err)
	}
	if list.Count != 2 || len(list.Symbols) != 2 {
		t.Errorf("list = %+v, want count 2 with 2 symbols", list)
	}
	if list.Symbols[0] != "RELIANCE" || list.Symbols[1] != "TCS" {
		t.Errorf("symbols = %v, want [RELIANCE TCS]", list.Symbols)
	}
}

func TestChartDecodesPayload(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("symbol") != "RELIANCE" || q.Get("tf") != "1D" {
			t.Errorf("query = %v, want symbol=RELIANCE tf=1D", q)
		}
		w.Write([]byte(`{"symbol":"RELIANCE","tf":"1D","bars":2,"data":{
			"date":["2026-08-27","2026-08-28"],
			"open":[100,102],"high":[103,104],"low":[99,101],
			"close":[102,103],"volume":[1000,1200]}}`))
	}))
	defer srv.Close()

	p, err := c.Chart(context.Background(), "RELIANCE", "1D")
	if err != nil {
		t.Fatalf("Chart() returned error: %v", err)
	}
	if p == nil {
		t.Fatal("Chart() returned nil payload for non-empty data")
	}
	if p.Len() != 2 {
		t.Errorf("p.Len() = %d, want 2", p.Len())
	}
	if p.Data.Close[1] != 103 {
		t.Errorf("Close[1] = %v, want 103", p.Data.Close[1])
	}
}

func TestChartEmptyDataIsNotAnError(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"NOSUCH","tf":"1D","bars":0,"data":{}}`))
	}))
	defer srv.Close()

	p, err := c.Chart(context.Background(), "NOSUCH", "1D")
	if err != nil {
		t.Fatalf("Chart() returned error: %v", err)
	}
	if p != nil {
		t.Errorf("Chart() = %+v, want nil for empty data", p)
	}
}

func TestChartRejectsMismatchedLengths(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"BAD","tf":"1D","bars":2,"data":{
			"date":["2026-08-27","2026-08-28"],
			"open":[100],"high":[103,104],"low":[99,101],
			"close":[102,103],"volume":[1000,1200]}}`))
	}))
	defer srv.Close()

	if _, err := c.Chart(context.Background(), "BAD", "1D"); err == nil {
		t.Error("Chart() = nil error, want length-mismatch rejection")
	}
}

func TestNon200Status(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := c.Universes(context.Background()); err == nil {
		t.Error("Universes() = nil error, want status error")
	}
}
