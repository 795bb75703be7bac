package marketdata

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Cache is a one-entry-per-symbol on-disk bar cache. Entries are overwritten
// whole on each successful fetch, never merged. A corrupt file counts as a
// miss, not an error.
type Cache struct {
	Dir string
	TTL time.Duration
}

type cacheEntry struct {
	Symbol    string    `json:"symbol"`
	FetchedAt time.Time `json:"fetched_at"`
	Bars      []Bar     `json:"bars"`
}

// NewCache creates the cache directory if needed.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Cache{Dir: dir, TTL: ttl}, nil
}

func (c *Cache) path(symbol string) string {
	return filepath.Join(c.Dir, symbol+"_1m.json")
}

// Load returns the cached bars for symbol if the entry is still within TTL.
func (c *Cache) Load(symbol string) ([]Bar, bool) {
	e, ok := c.read(symbol)
	if !ok || time.Since(e.FetchedAt) >= c.TTL {
		return nil, false
	}
	return e.Bars, true
}

// LoadStale returns the cached bars regardless of age. Used as a pricing
// fallback when the tick feed is down.
func (c *Cache) LoadStale(symbol string) ([]Bar, bool) {
	e, ok := c.read(symbol)
	if !ok {
		return nil, false
	}
	return e.Bars, true
}

func (c *Cache) read(symbol string) (cacheEntry, bool) {
	raw, err := os.ReadFile(c.path(symbol))
	if err != nil {
		return cacheEntry{}, false
	}
	var e cacheEntry
	if err := json.Unmarshal(raw, &e); err != nil || len(e.Bars) == 0 {
		if err != nil {
			log.Printf("barcache: corrupt entry for %s, treating as miss: %v", symbol, err)
		}
		return cacheEntry{}, false
	}
	return e, true
}

// Store overwrites the entry for symbol. A write failure is logged and
// swallowed: losing the cache must never fail the fetch that produced it.
func (c *Cache) Store(symbol string, bars []Bar) {
	e := cacheEntry{Symbol: symbol, FetchedAt: time.Now(), Bars: bars}
	raw, err := json.Marshal(e)
	if err != nil {
		log.Printf("barcache: marshal %s: %v", symbol, err)
		return
	}
	if err := os.WriteFile(c.path(symbol), raw, 0o644); err != nil {
		log.Printf("barcache: write %s: %v", symbol, err)
	}
}
