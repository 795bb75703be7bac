// Package marketdata acquires OHLCV bar windows from a priority-ordered chain
// of external providers, fronted by a TTL-bounded on-disk cache. When every
// provider is down the chain degrades to a clearly-tagged synthetic window so
// the trading cycle stays live.
package marketdata

import (
	"context"
	"errors"
	"time"
)

// Bar is one OHLCV sample for a fixed time interval. Sequences are ordered
// oldest to newest and immutable once fetched.
type Bar struct {
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// Window is the result of a fetch. Synthetic windows are a terminal fallback
// and must never be treated as real market data by callers.
type Window struct {
	Bars      []Bar
	Synthetic bool
	Source    string
}

// LastClose returns the close of the newest bar, or 0 for an empty window.
func (w Window) LastClose() float64 {
	if len(w.Bars) == 0 {
		return 0
	}
	return w.Bars[len(w.Bars)-1].Close
}

// Provider fetches a normalized bar window from one external vendor.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, symbol string, limit int) ([]Bar, error)
}

// throttler is implemented by providers whose vendor imposes usage throttling;
// the chain sleeps the returned duration after each successful fetch.
type throttler interface {
	ThrottleAfterFetch() time.Duration
}

// ErrDataUnavailable reports that the cache and every provider failed. The
// chain converts this into a synthetic window, so callers only see it when the
// context is cancelled mid-fetch.
var ErrDataUnavailable = errors.New("marketdata: all providers and cache unavailable")
