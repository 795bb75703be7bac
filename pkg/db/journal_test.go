package db

import (
	"context"
	"testing"
	"time"
)

func newTestJournal(t *testing.T) (*Database, *Journal) {
	t.Helper()
	database, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := ApplyMigrations(database); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}
	return database, database.Journal()
}

func TestJournalInsertAndRecent(t *testing.T) {
	_, j := newTestJournal(t)
	ctx := context.Background()

	trades := []Trade{
		{SignalID: 1, Symbol: "EURUSD", Side: "BUY", Volume: 0.01, Entry: 1.1, Exit: 1.11, Profit: 10, Win: true},
		{SignalID: 2, Symbol: "USDJPY", Side: "SELL", Volume: 0.02, Entry: 150.0, Exit: 150.5, Profit: -6.7, Win: false},
	}
	for _, tr := range trades {
		if err := j.Insert(ctx, tr); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	got, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d trades, expected 2", len(got))
	}
	// Newest first.
	if got[0].SignalID != 2 || got[1].SignalID != 1 {
		t.Fatalf("wrong order: %v, %v", got[0].SignalID, got[1].SignalID)
	}
	if got[1].Symbol != "EURUSD" || !got[1].Win || got[1].Profit != 10 {
		t.Fatalf("first trade round-trip mismatch: %+v", got[1])
	}
}

func TestJournalSummarizeDay(t *testing.T) {
	_, j := newTestJournal(t)
	ctx := context.Background()

	for _, tr := range []Trade{
		{SignalID: 1, Symbol: "EURUSD", Side: "BUY", Volume: 0.01, Entry: 1.1, Exit: 1.11, Profit: 10, Win: true},
		{SignalID: 2, Symbol: "EURUSD", Side: "SELL", Volume: 0.01, Entry: 1.1, Exit: 1.12, Profit: -5, Win: false},
		{SignalID: 3, Symbol: "XAUUSD", Side: "BUY", Volume: 0.02, Entry: 2400, Exit: 2410, Profit: 20, Win: true},
	} {
		if err := j.Insert(ctx, tr); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	s, err := j.SummarizeDay(ctx, time.Now())
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if s.Trades != 3 || s.Wins != 2 {
		t.Fatalf("summary = %+v, expected 3 trades, 2 wins", s)
	}
	if s.Profit != 25 {
		t.Fatalf("profit = %v, expected 25", s.Profit)
	}
}
