// Package db persists the trade journal. Every closed trade becomes one row;
// the daily summary query feeds the end-of-day report.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Trade is one closed trade in the journal.
type Trade struct {
	ID       int64
	Ts       time.Time
	SignalID int64
	Symbol   string
	Side     string
	Volume   float64
	Entry    float64
	Exit     float64
	Profit   float64
	Win      bool
}

// DaySummary aggregates one day's closed trades.
type DaySummary struct {
	Trades int
	Wins   int
	Profit float64
}

// Journal provides trade journal queries.
type Journal struct {
	db *sql.DB
}

func (d *Database) Journal() *Journal {
	return &Journal{db: d.DB}
}

// Insert records a closed trade.
func (j *Journal) Insert(ctx context.Context, t Trade) error {
	win := 0
	if t.Win {
		win = 1
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO trades (signal_id, symbol, side, volume, entry, exit, profit, win)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.SignalID, t.Symbol, t.Side, t.Volume, t.Entry, t.Exit, t.Profit, win)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// Recent returns the newest trades, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, ts, signal_id, symbol, side, volume, entry, exit, profit, win
		FROM trades
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		var t Trade
		var win int
		if err := rows.Scan(&t.ID, &t.Ts, &t.SignalID, &t.Symbol, &t.Side,
			&t.Volume, &t.Entry, &t.Exit, &t.Profit, &win); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.Win = win != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

// SummarizeDay aggregates all trades recorded on the UTC day of ts.
func (j *Journal) SummarizeDay(ctx context.Context, ts time.Time) (DaySummary, error) {
	day := ts.UTC().Format("2006-01-02")
	var s DaySummary
	err := j.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(win), 0), COALESCE(SUM(profit), 0)
		FROM trades
		WHERE date(ts) = ?
	`, day).Scan(&s.Trades, &s.Wins, &s.Profit)
	if err != nil {
		return DaySummary{}, fmt.Errorf("summarize day: %w", err)
	}
	return s, nil
}
