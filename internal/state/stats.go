package state

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// DailyStats tracks the day's trade tallies. It is owned by one component
// instance and passed by handle; the scheduler resets it at midnight UTC.
type DailyStats struct {
	mu        sync.Mutex
	startedAt time.Time
	trades    int
	wins      int
	losses    int
	bySymbol  map[string]int
}

func NewDailyStats() *DailyStats {
	return &DailyStats{
		startedAt: time.Now(),
		bySymbol:  make(map[string]int),
	}
}

// RecordTrade counts one completed trade and its outcome.
func (d *DailyStats) RecordTrade(symbol string, won bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trades++
	if symbol != "" {
		d.bySymbol[symbol]++
	}
	if won {
		d.wins++
	} else {
		d.losses++
	}
}

// Reset clears the daily counters. Uptime keeps accumulating.
func (d *DailyStats) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trades, d.wins, d.losses = 0, 0, 0
	d.bySymbol = make(map[string]int)
}

// Snapshot returns the current tallies for the status API.
func (d *DailyStats) Snapshot() (uptime time.Duration, trades, wins, losses int, topSymbols []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return time.Since(d.startedAt), d.trades, d.wins, d.losses, d.topLocked(3)
}

func (d *DailyStats) topLocked(n int) []string {
	type kv struct {
		sym   string
		count int
	}
	pairs := make([]kv, 0, len(d.bySymbol))
	for s, c := range d.bySymbol {
		pairs = append(pairs, kv{s, c})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].sym < pairs[j].sym
	})
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = fmt.Sprintf("%s (%d)", p.sym, p.count)
	}
	return out
}

// Heartbeat renders the hourly status report.
func (d *DailyStats) Heartbeat() string {
	uptime, trades, wins, losses, top := d.Snapshot()
	topLine := "-"
	if len(top) > 0 {
		topLine = strings.Join(top, ", ")
	}
	return fmt.Sprintf(
		"Heartbeat\nUptime: %s\nTrades today: %d\nTop symbols: %s\nWins: %d  Losses: %d",
		formatUptime(uptime), trades, topLine, wins, losses,
	)
}

// Summary renders the end-of-day report.
func (d *DailyStats) Summary() string {
	uptime, trades, wins, losses, top := d.Snapshot()
	winRate := 0.0
	if trades > 0 {
		winRate = float64(wins) / float64(trades) * 100
	}

	var b strings.Builder
	b.WriteString("Daily Trading Summary\n\n")
	fmt.Fprintf(&b, "Uptime: %s\n", formatUptime(uptime))
	fmt.Fprintf(&b, "Total trades today: %d\n", trades)
	fmt.Fprintf(&b, "Wins: %d\nLosses: %d\n", wins, losses)
	fmt.Fprintf(&b, "Win rate: %.2f%%\n", winRate)
	if len(top) > 0 {
		fmt.Fprintf(&b, "Top traded symbols: %s\n", strings.Join(top, ", "))
	}
	return b.String()
}

func formatUptime(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%dh %dm %ds", total/3600, (total%3600)/60, total%60)
}
