// Package catalog caches the filtered constituent list of each universe for
// the lifetime of the process. Universe files change on backend deploys, not
// intraday, so there is no invalidation: the first request per key hits the
// network, every later one is served from memory.
package catalog

import (
	"context"
	"strings"
	"sync"

	"chartdeck/internal/scanapi"
)

// StockLister is the one upstream call the cache needs.
type StockLister interface {
	Stocks(ctx context.Context, universeKey string) (scanapi.StockList, error)
}

// Cache memoizes filtered symbol lists per universe key.
type Cache struct {
	lister StockLister

	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	mu      sync.Mutex
	loaded  bool
	symbols []string
}

// New returns an empty cache backed by the given lister.
func New(lister StockLister) *Cache {
	return &Cache{
		lister:  lister,
		entries: make(map[string]*entry),
	}
}

// StocksFor returns the filtered symbol list for a universe, fetching it on
// first use. Racing callers for the same key still produce exactly one
// upstream call: the per-key mutex serializes them and the loser finds the
// entry already loaded. A failed fetch leaves the entry unloaded so the next
// request tries again.
func (c *Cache) StocksFor(ctx context.Context, universeKey string) ([]string, error) {
	c.mu.RLock()
	e, ok := c.entries[universeKey]
	c.mu.RUnlock()

	if !ok {
		c.mu.Lock()
		if e, ok = c.entries[universeKey]; !ok {
			e = &entry{}
			c.entries[universeKey] = e
		}
		c.mu.Unlock()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loaded {
		list, err := c.lister.Stocks(ctx, universeKey)
		if err != nil {
			return nil, err
		}
		e.symbols = filterSymbols(universeKey, list.Symbols)
		e.loaded = true
	}

	cp := make([]string, len(e.symbols))
	copy(cp, e.symbols)
	return cp, nil
}

// filterSymbols drops entries that are not tradable stocks: blank or
// whitespace-only strings, anything carrying the NIFTY index prefix, and the
// universe key itself (the backend occasionally lists a universe as its own
// constituent). Order and content of the survivors are preserved.
func filterSymbols(universeKey string, raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if strings.TrimSpace(s) == "" {
			continue
		}
		if strings.HasPrefix(s, "NIFTY") {
			continue
		}
		if s == universeKey {
			continue
		}
		out = append(out, s)
	}
	return out
}
