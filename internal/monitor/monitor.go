// Package monitor supervises open positions and reports unrealized P/L
// changes. Reporting is change-triggered, not interval-triggered: a position
// appears in a batch only when its P/L moved meaningfully since the last time
// it was reported, so notification volume tracks market movement rather than
// polling frequency.
package monitor

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"fxtrader/internal/events"
	"fxtrader/pkg/broker"
)

// DefaultThresholdPercent is the relative P/L change that makes a position
// reportable again.
const DefaultThresholdPercent = 0.01

// Monitor polls the venue for open positions and publishes batched change
// reports on the bus. The last-reported cache is owned exclusively by the
// polling loop; closed tickets go stale in it and are never looked up again.
type Monitor struct {
	Broker           broker.Client
	Bus              *events.Bus
	ThresholdPercent float64

	lastReported map[int64]float64
	seeded       bool
}

func New(b broker.Client, bus *events.Bus, thresholdPercent float64) *Monitor {
	if thresholdPercent <= 0 {
		thresholdPercent = DefaultThresholdPercent
	}
	return &Monitor{
		Broker:           b,
		Bus:              bus,
		ThresholdPercent: thresholdPercent,
		lastReported:     make(map[int64]float64),
	}
}

// Poll fetches all open positions and publishes at most one batched report.
// The first poll after start reports every position unconditionally as an
// initial snapshot; later polls include only positions whose P/L moved beyond
// the threshold, and update the cache for exactly those.
func (m *Monitor) Poll(ctx context.Context) error {
	positions, err := m.Broker.Positions(ctx, "")
	if err != nil {
		return fmt.Errorf("monitor: list positions: %w", err)
	}

	if !m.seeded {
		// Initial snapshot: one report per position, unconditionally.
		for _, p := range positions {
			m.lastReported[p.Ticket] = p.Profit
			if m.Bus != nil {
				m.Bus.Publish(events.EventMonitorBatch, fmt.Sprintf(
					"Open position: ticket %d %s %s vol=%.2f entry=%.5f P/L=%.2f",
					p.Ticket, p.Symbol, p.Side, p.Volume, p.EntryPrice, p.Profit))
			}
		}
		m.seeded = true
		log.Printf("monitor: initial snapshot of %d open positions", len(positions))
		return nil
	}

	var include []broker.Position
	for _, p := range positions {
		last, seen := m.lastReported[p.Ticket]
		if !seen || exceedsThreshold(p.Profit, last, m.ThresholdPercent) {
			include = append(include, p)
		}
	}
	for _, p := range include {
		m.lastReported[p.Ticket] = p.Profit
	}

	if len(include) == 0 {
		return nil
	}

	msg := formatBatch(include, len(positions))
	log.Printf("monitor: reporting %d of %d open positions", len(include), len(positions))
	if m.Bus != nil {
		m.Bus.Publish(events.EventMonitorBatch, msg)
	}
	return nil
}

// Run polls on a fixed cadence until the context is canceled.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Poll(ctx); err != nil {
				log.Printf("monitor: poll failed: %v", err)
			}
		}
	}
}

// exceedsThreshold reports whether the relative change from last to current
// crosses the percentage threshold. A position first seen at zero reports on
// any movement at all.
func exceedsThreshold(current, last, thresholdPercent float64) bool {
	if last == 0 {
		return current != 0
	}
	change := (current - last) / last * 100
	if change < 0 {
		change = -change
	}
	return change > thresholdPercent
}

func formatBatch(include []broker.Position, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Position update (%d of %d open):\n", len(include), total)
	for _, p := range include {
		fmt.Fprintf(&b, "- ticket %d %s %s vol=%.2f entry=%.5f P/L=%.2f\n",
			p.Ticket, p.Symbol, p.Side, p.Volume, p.EntryPrice, p.Profit)
	}
	return strings.TrimRight(b.String(), "\n")
}
