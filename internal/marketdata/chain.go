package marketdata

import (
	"context"
	"log"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// Chain tries the cache, then each provider in priority order, and finally
// synthesizes a window so downstream stages never see an empty sequence.
type Chain struct {
	Cache     *Cache
	Providers []Provider
	Window    int

	// limiter paces outbound provider calls so a burst of symbols does not
	// trip vendor rate limits.
	limiter *rate.Limiter
}

// NewChain builds a fetch chain over the given providers, tried in order.
func NewChain(cache *Cache, window int, providers ...Provider) *Chain {
	if window <= 0 {
		window = 100
	}
	return &Chain{
		Cache:     cache,
		Providers: providers,
		Window:    window,
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Fetch returns a bar window for symbol. The only error it returns is a
// context cancellation; every other failure degrades to the next source and
// ultimately to a synthetic window.
func (c *Chain) Fetch(ctx context.Context, symbol string) (Window, error) {
	if bars, ok := c.Cache.Load(symbol); ok {
		return Window{Bars: bars, Source: "cache"}, nil
	}

	for _, p := range c.Providers {
		if err := c.limiter.Wait(ctx); err != nil {
			return Window{}, ErrDataUnavailable
		}

		bars, err := p.Fetch(ctx, symbol, c.Window)
		if err != nil {
			log.Printf("marketdata: %s fetch %s failed: %v", p.Name(), symbol, err)
			continue
		}
		if len(bars) == 0 {
			log.Printf("marketdata: %s returned empty window for %s", p.Name(), symbol)
			continue
		}

		c.Cache.Store(symbol, bars)

		if t, ok := p.(throttler); ok {
			if err := sleepCtx(ctx, t.ThrottleAfterFetch()); err != nil {
				return Window{}, ErrDataUnavailable
			}
		}
		return Window{Bars: bars, Source: p.Name()}, nil
	}

	if err := ctx.Err(); err != nil {
		return Window{}, ErrDataUnavailable
	}

	log.Printf("marketdata: all providers failed for %s, synthesizing window", symbol)
	return Window{Bars: syntheticBars(c.Window), Synthetic: true, Source: "synthetic"}, nil
}

// LastKnownClose returns the newest cached close for symbol, however stale.
// Used as the pricing fallback when the tick feed is exhausted.
func (c *Chain) LastKnownClose(symbol string) (float64, bool) {
	bars, ok := c.Cache.LoadStale(symbol)
	if !ok || len(bars) == 0 {
		return 0, false
	}
	return bars[len(bars)-1].Close, true
}

// syntheticBars fabricates a uniform-random window. Values are meaningless by
// design; the Synthetic tag keeps them from being mistaken for market data.
func syntheticBars(n int) []Bar {
	now := time.Now().Truncate(time.Minute)
	bars := make([]Bar, n)
	for i := range bars {
		bars[i] = Bar{
			Open:      rand.Float64(),
			High:      rand.Float64(),
			Low:       rand.Float64(),
			Close:     rand.Float64(),
			Volume:    float64(1 + rand.Intn(999)),
			Timestamp: now.Add(-time.Duration(n-i) * time.Minute),
		}
	}
	return bars
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
