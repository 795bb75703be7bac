package risk

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestAdjustClampsAtBounds(t *testing.T) {
	cfg := Config{LotMin: 0.01, LotMax: 0.20, LotBase: 0.01, AdjustPercent: 10}

	t.Run("wins cap at LotMax", func(t *testing.T) {
		m := NewManager(t.TempDir(), cfg)
		var lot float64
		for i := 0; i < 40; i++ {
			lot = m.Adjust(true)
		}
		if lot != 0.20 {
			t.Fatalf("lot after 40 wins = %v, expected exactly 0.20 (clamped, not %v)",
				lot, 0.01*math.Pow(1.1, 40))
		}
	})

	t.Run("losses floor at LotMin", func(t *testing.T) {
		m := NewManager(t.TempDir(), cfg)
		var lot float64
		for i := 0; i < 40; i++ {
			lot = m.Adjust(false)
		}
		if lot != 0.01 {
			t.Fatalf("lot after 40 losses = %v, expected floor 0.01", lot)
		}
	})
}

func TestAdjustPersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()

	m := NewManager(dir, cfg)
	m.Adjust(true)
	m.Adjust(true)
	want := m.Lot()

	reloaded := NewManager(dir, cfg)
	if got := reloaded.Lot(); got != want {
		t.Fatalf("reloaded lot = %v, expected persisted %v", got, want)
	}
}

func TestCorruptStateFallsBackToBase(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "risk_state.json"), []byte("garbage"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	m := NewManager(dir, DefaultConfig())
	if got := m.Lot(); got != 0.01 {
		t.Fatalf("lot from corrupt state = %v, expected base 0.01", got)
	}
}

func TestLoadedStateIsClamped(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "risk_state.json"), []byte(`{"current_lot": 5.0}`), 0o644); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	m := NewManager(dir, DefaultConfig())
	if got := m.Lot(); got != 0.20 {
		t.Fatalf("out-of-range persisted lot loaded as %v, expected clamp to 0.20", got)
	}
}
