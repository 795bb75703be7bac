package marketdata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"
)

type fakeProvider struct {
	name  string
	bars  []Bar
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Fetch(ctx context.Context, symbol string, limit int) ([]Bar, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

func makeBars(n int, base float64) []Bar {
	now := time.Now().Truncate(time.Minute)
	bars := make([]Bar, n)
	for i := range bars {
		px := base + float64(i)*0.0001
		bars[i] = Bar{
			Open: px, High: px + 0.0002, Low: px - 0.0002, Close: px + 0.0001,
			Volume:    1000,
			Timestamp: now.Add(-time.Duration(n-i) * time.Minute),
		}
	}
	return bars
}

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := NewCache(t.TempDir(), ttl)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	return c
}

func TestChainSyntheticFallback(t *testing.T) {
	down := errors.New("vendor down")
	p1 := &fakeProvider{name: "primary", err: down}
	p2 := &fakeProvider{name: "secondary", err: down}

	chain := NewChain(newTestCache(t, 5*time.Minute), 100, p1, p2)

	w, err := chain.Fetch(context.Background(), "EURUSD")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if !w.Synthetic {
		t.Fatalf("expected synthetic window when every provider fails")
	}
	if len(w.Bars) != 100 {
		t.Fatalf("synthetic window length = %d, expected 100", len(w.Bars))
	}
	if p1.calls != 1 || p2.calls != 1 {
		t.Fatalf("provider calls = %d/%d, expected 1/1", p1.calls, p2.calls)
	}
}

func TestChainCacheRoundTrip(t *testing.T) {
	bars := makeBars(100, 1.1000)
	p := &fakeProvider{name: "primary", bars: bars}
	chain := NewChain(newTestCache(t, 5*time.Minute), 100, p)

	first, err := chain.Fetch(context.Background(), "EURUSD")
	if err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	if first.Synthetic || first.Source != "primary" {
		t.Fatalf("first fetch source = %q synthetic=%v", first.Source, first.Synthetic)
	}

	second, err := chain.Fetch(context.Background(), "EURUSD")
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if second.Source != "cache" {
		t.Fatalf("second fetch source = %q, expected cache", second.Source)
	}
	if p.calls != 1 {
		t.Fatalf("provider called %d times, expected 1 (second fetch must hit cache)", p.calls)
	}
	if len(second.Bars) != len(bars) {
		t.Fatalf("cached window length = %d, expected %d", len(second.Bars), len(bars))
	}
	for i := range bars {
		if second.Bars[i].Close != bars[i].Close || second.Bars[i].Volume != bars[i].Volume {
			t.Fatalf("bar %d mismatch after round-trip: %+v vs %+v", i, second.Bars[i], bars[i])
		}
	}
}

func TestChainExpiredCacheRefetches(t *testing.T) {
	p := &fakeProvider{name: "primary", bars: makeBars(100, 1.1000)}
	chain := NewChain(newTestCache(t, 1*time.Nanosecond), 100, p)

	if _, err := chain.Fetch(context.Background(), "EURUSD"); err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := chain.Fetch(context.Background(), "EURUSD"); err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if p.calls != 2 {
		t.Fatalf("provider called %d times, expected 2 after TTL expiry", p.calls)
	}
}

func TestChainFallsThroughToSecondProvider(t *testing.T) {
	p1 := &fakeProvider{name: "primary", err: fmt.Errorf("rate limited")}
	p2 := &fakeProvider{name: "secondary", bars: makeBars(100, 1.2000)}
	chain := NewChain(newTestCache(t, 5*time.Minute), 100, p1, p2)

	w, err := chain.Fetch(context.Background(), "GBPUSD")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if w.Source != "secondary" || w.Synthetic {
		t.Fatalf("window source = %q synthetic=%v, expected secondary", w.Source, w.Synthetic)
	}
}

func TestLastKnownCloseFromStaleCache(t *testing.T) {
	bars := makeBars(100, 1.1000)
	p := &fakeProvider{name: "primary", bars: bars}
	chain := NewChain(newTestCache(t, 1*time.Nanosecond), 100, p)

	if _, err := chain.Fetch(context.Background(), "EURUSD"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	time.Sleep(time.Millisecond)

	px, ok := chain.LastKnownClose("EURUSD")
	if !ok {
		t.Fatalf("expected stale cache to still yield a last close")
	}
	if want := bars[len(bars)-1].Close; px != want {
		t.Fatalf("LastKnownClose = %v, expected %v", px, want)
	}
}

func TestCacheCorruptEntryIsMiss(t *testing.T) {
	cache := newTestCache(t, 5*time.Minute)
	if err := os.WriteFile(cache.path("EURUSD"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt entry: %v", err)
	}
	if _, ok := cache.Load("EURUSD"); ok {
		t.Fatalf("corrupt entry must read as a miss")
	}
}
