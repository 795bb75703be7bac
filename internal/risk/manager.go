// Package risk tracks the adaptive position size: the lot grows after wins
// and shrinks after losses, clamped to configured bounds and persisted
// synchronously so a crash between trades never loses an adjustment.
package risk

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Config bounds the lot state machine.
type Config struct {
	LotMin        float64
	LotMax        float64
	LotBase       float64
	AdjustPercent float64
}

// DefaultConfig mirrors the conservative production defaults.
func DefaultConfig() Config {
	return Config{LotMin: 0.01, LotMax: 0.20, LotBase: 0.01, AdjustPercent: 10.0}
}

type persistedState struct {
	CurrentLot float64 `json:"current_lot"`
}

// Manager owns the current lot size. All access is mutex-serialized so
// concurrent symbol cycles cannot interleave adjustments.
type Manager struct {
	mu   sync.Mutex
	cfg  Config
	lot  float64
	path string
}

// NewManager loads persisted state from dir/risk_state.json, falling back to
// the base lot when the file is missing or corrupt. Corrupt state is a
// recoverable condition, never fatal.
func NewManager(dir string, cfg Config) *Manager {
	m := &Manager{
		cfg:  cfg,
		lot:  cfg.LotBase,
		path: filepath.Join(dir, "risk_state.json"),
	}

	raw, err := os.ReadFile(m.path)
	if err != nil {
		log.Printf("risk: no existing state, starting at base lot %.4f", cfg.LotBase)
		return m
	}

	var st persistedState
	if err := json.Unmarshal(raw, &st); err != nil || st.CurrentLot <= 0 {
		log.Printf("risk: state file unreadable, resetting to base lot %.4f", cfg.LotBase)
		return m
	}

	m.lot = clamp(st.CurrentLot, cfg.LotMin, cfg.LotMax)
	log.Printf("risk: loaded lot size %.4f", m.lot)
	return m
}

// Lot returns the size for the next trade.
func (m *Manager) Lot() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lot
}

// Adjust scales the lot up on a win, down on a loss, clamps it to
// [LotMin, LotMax], and persists the new value before returning it.
func (m *Manager) Adjust(won bool) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	factor := 1 + m.cfg.AdjustPercent/100
	if !won {
		factor = 1 - m.cfg.AdjustPercent/100
	}
	m.lot = clamp(m.lot*factor, m.cfg.LotMin, m.cfg.LotMax)

	if err := m.save(); err != nil {
		// Trading proceeds on the in-memory value; the warning must be loud
		// because the next restart will revert the adjustment.
		log.Printf("risk: WARNING could not persist lot state: %v", err)
	}
	log.Printf("risk: adjusted lot to %.4f", m.lot)
	return m.lot
}

func (m *Manager) save() error {
	raw, err := json.Marshal(persistedState{CurrentLot: m.lot})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	return os.WriteFile(m.path, raw, 0o644)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
