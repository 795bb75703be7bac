package predictor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fxtrader/internal/marketdata"
)

func flatThenTrend(n int, start, step float64) []marketdata.Bar {
	bars := make([]marketdata.Bar, n)
	now := time.Now()
	price := start
	for i := range bars {
		bars[i] = marketdata.Bar{
			Open: price, High: price, Low: price, Close: price,
			Volume:    1000,
			Timestamp: now.Add(-time.Duration(n-i) * time.Minute),
		}
		price += step
	}
	return bars
}

func TestMomentumDirections(t *testing.T) {
	m := NewMomentum(10, 0.05)

	up, err := m.Predict(flatThenTrend(100, 1.0, 0.001), 0)
	if err != nil {
		t.Fatalf("predict up: %v", err)
	}
	if up.Signal != SignalBuy {
		t.Fatalf("rising closes gave %s, expected BUY", up.Signal)
	}

	down, err := m.Predict(flatThenTrend(100, 1.0, -0.001), 0)
	if err != nil {
		t.Fatalf("predict down: %v", err)
	}
	if down.Signal != SignalSell {
		t.Fatalf("falling closes gave %s, expected SELL", down.Signal)
	}

	flat, err := m.Predict(flatThenTrend(100, 1.0, 0), 0)
	if err != nil {
		t.Fatalf("predict flat: %v", err)
	}
	if flat.Signal != SignalHold {
		t.Fatalf("flat closes gave %s, expected HOLD", flat.Signal)
	}
}

func TestMomentumConfidenceCaps(t *testing.T) {
	m := NewMomentum(10, 0.05)

	// A tripling over the lookback is a 200% move; confidence clamps at 100.
	bars := flatThenTrend(100, 1.0, 0)
	bars[len(bars)-1].Close = 3.0
	p, err := m.Predict(bars, 0)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if p.Confidence != 100 {
		t.Fatalf("confidence = %v, expected clamp at 100", p.Confidence)
	}
}

func TestMomentumShortWindow(t *testing.T) {
	m := NewMomentum(10, 0.05)
	if _, err := m.Predict(flatThenTrend(5, 1.0, 0), 0); err == nil {
		t.Fatalf("expected error for window shorter than lookback")
	}
}

func TestNewsScoreTipsMarginalHold(t *testing.T) {
	m := NewMomentum(10, 0.05)
	p, err := m.Predict(flatThenTrend(100, 1.0, 0), 0.2)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if p.Signal != SignalBuy {
		t.Fatalf("positive news on flat market gave %s, expected BUY", p.Signal)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "predictors.yaml")
	yaml := `predictor:
  type: momentum
  parameters:
    lookback: 20
    hold_band_pct: 0.1
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Type != "momentum" {
		t.Fatalf("type = %q, expected momentum", cfg.Type)
	}

	p, err := Build(cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	m, ok := p.(*Momentum)
	if !ok {
		t.Fatalf("built %T, expected *Momentum", p)
	}
	if m.Lookback != 20 || m.HoldBandPct != 0.1 {
		t.Fatalf("parameters not applied: %+v", m)
	}
}

func TestLoadConfigMissingFileDefaultsToMomentum(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Type != "momentum" {
		t.Fatalf("type = %q, expected momentum default", cfg.Type)
	}
}

func TestBuildUnknownType(t *testing.T) {
	if _, err := Build(Config{Type: "oracle"}); err == nil {
		t.Fatalf("expected error for unknown predictor type")
	}
}
