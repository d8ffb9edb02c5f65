// One-shot tool: print a universe's filtered stock list, for scripting and
// for checking what the TUI will show.
//
// Usage:
//
//	go run cmd/chartdeck-symbols/main.go NIFTY50 [QUERY]
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"chartdeck/internal/catalog"
	"chartdeck/internal/config"
	"chartdeck/internal/scanapi"
	"chartdeck/internal/session"
)

func main() {
	_ = godotenv.Load(".env")

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: chartdeck-symbols UNIVERSE [QUERY]")
		os.Exit(1)
	}
	universe := os.Args[1]
	query := ""
	if len(os.Args) > 2 {
		query = os.Args[2]
	}

	path := os.Getenv("CHARTDECK_CONFIG")
	if path == "" {
		path = "chartdeck.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	client := scanapi.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIPrefix,
		time.Duration(cfg.Backend.TimeoutSeconds)*time.Second)
	cache := catalog.New(client)

	symbols, err := cache.StocksFor(context.Background(), universe)
	if err != nil {
		logger.Error("fetching stocks", "universe", universe, "error", err)
		fmt.Fprintf(os.Stderr, "fetching stocks for %s: %v\n", universe, err)
		os.Exit(1)
	}

	// Run the list through a session so the query matches exactly the way
	// the TUI's live filter does.
	sess := session.New(cfg.Chart.DefaultTimeframe, false)
	token := sess.SelectUniverse(universe)
	sess.SetStocks(universe, symbols, token)

	matched := sess.FilterStocks(query)
	for _, sym := range matched {
		fmt.Println(sym)
	}
	if query != "" {
		fmt.Fprintf(os.Stderr, "%d of %d symbols match %q\n", len(matched), len(symbols), query)
	}
}
