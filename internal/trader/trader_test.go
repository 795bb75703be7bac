package trader

import (
	"context"
	"testing"
	"time"

	"fxtrader/internal/events"
	"fxtrader/internal/marketdata"
	"fxtrader/internal/order"
	"fxtrader/internal/predictor"
	"fxtrader/internal/risk"
	"fxtrader/internal/state"
	"fxtrader/pkg/broker"
	"fxtrader/pkg/db"
)

type fakePredictor struct {
	pred predictor.Prediction
}

func (f *fakePredictor) Name() string { return "fake" }
func (f *fakePredictor) Predict([]marketdata.Bar, float64) (predictor.Prediction, error) {
	return f.pred, nil
}

func seededChain(t *testing.T, symbol string) *marketdata.Chain {
	t.Helper()
	cache, err := marketdata.NewCache(t.TempDir(), time.Minute)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	bars := make([]marketdata.Bar, 100)
	now := time.Now()
	for i := range bars {
		bars[i] = marketdata.Bar{
			Open: 1.1, High: 1.101, Low: 1.099, Close: 1.1, Volume: 1000,
			Timestamp: now.Add(-time.Duration(100-i) * time.Minute),
		}
	}
	cache.Store(symbol, bars)
	return marketdata.NewChain(cache, 100)
}

func newTestTrader(t *testing.T, mock *broker.Mock, pred predictor.Prediction) (*Trader, *db.Journal) {
	t.Helper()
	chain := seededChain(t, "EURUSD")

	calc := &order.Calculator{
		StopLossPips:   2,
		RiskFraction:   0.01,
		RewardMultiple: 1.5,
		IsStrict:       func(string) bool { return false },
	}
	exec := order.NewExecutor(mock, calc, chain, nil)
	exec.TickRetryDelay = time.Millisecond
	exec.ModeRetryDelay = time.Millisecond

	database, err := db.New(":memory:")
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.ApplyMigrations(database); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	journal := database.Journal()

	return &Trader{
		Chain:     chain,
		Predictor: &fakePredictor{pred: pred},
		Risk:      risk.NewManager(t.TempDir(), risk.DefaultConfig()),
		IDs:       state.NewSignalIDs(t.TempDir()),
		Stats:     state.NewDailyStats(),
		Executor:  exec,
		Broker:    mock,
		Journal:   journal,
		Bus:       events.NewBus(),
	}, journal
}

func TestRunCycleWinningTrade(t *testing.T) {
	mock := broker.NewMock("EURUSD")
	// First opened ticket is 1001; pre-set its realized profit.
	mock.Profits[1001] = 12.5

	tr, journal := newTestTrader(t, mock, predictor.Prediction{
		Signal: predictor.SignalBuy, Confidence: 80,
	})

	if err := tr.RunCycle(context.Background(), "EURUSD"); err != nil {
		t.Fatalf("cycle: %v", err)
	}

	if len(mock.Submitted) != 1 {
		t.Fatalf("submissions = %d, expected 1", len(mock.Submitted))
	}
	if len(mock.Closed) != 1 || mock.Closed[0] != 1001 {
		t.Fatalf("closed tickets = %v, expected [1001]", mock.Closed)
	}

	// A win grows the lot 10% from the 0.01 base.
	if got := tr.Risk.Lot(); got < 0.0109 || got > 0.0111 {
		t.Fatalf("lot after win = %v, expected about 0.011", got)
	}

	_, trades, wins, losses, _ := tr.Stats.Snapshot()
	if trades != 1 || wins != 1 || losses != 0 {
		t.Fatalf("stats = %d/%d/%d, expected 1 trade, 1 win", trades, wins, losses)
	}

	rows, err := journal.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	if len(rows) != 1 || !rows[0].Win || rows[0].Profit != 12.5 {
		t.Fatalf("journal rows = %+v, expected one winning row", rows)
	}
}

func TestRunCycleHoldSkipsTrading(t *testing.T) {
	mock := broker.NewMock("EURUSD")
	tr, _ := newTestTrader(t, mock, predictor.Prediction{
		Signal: predictor.SignalHold, Confidence: 10,
	})

	if err := tr.RunCycle(context.Background(), "EURUSD"); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if len(mock.Submitted) != 0 {
		t.Fatalf("HOLD signal submitted %d orders", len(mock.Submitted))
	}
}

func TestRunCycleRejectedOrderDoesNotAdjustRisk(t *testing.T) {
	mock := broker.NewMock("EURUSD")
	mock.RejectAll = "invalid request"
	tr, _ := newTestTrader(t, mock, predictor.Prediction{
		Signal: predictor.SignalSell, Confidence: 70,
	})

	if err := tr.RunCycle(context.Background(), "EURUSD"); err != nil {
		t.Fatalf("cycle should degrade, not fail: %v", err)
	}
	if got := tr.Risk.Lot(); got != 0.01 {
		t.Fatalf("lot after rejected order = %v, expected untouched 0.01", got)
	}
	_, trades, _, _, _ := tr.Stats.Snapshot()
	if trades != 0 {
		t.Fatalf("rejected order counted as a trade")
	}
}

func TestRunCycleLosingTradeShrinksLot(t *testing.T) {
	mock := broker.NewMock("EURUSD")
	mock.Profits[1001] = -4.0

	tr, _ := newTestTrader(t, mock, predictor.Prediction{
		Signal: predictor.SignalBuy, Confidence: 60,
	})

	if err := tr.RunCycle(context.Background(), "EURUSD"); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	// Loss shrinks 10% but clamps at the 0.01 floor.
	if got := tr.Risk.Lot(); got != 0.01 {
		t.Fatalf("lot after loss = %v, expected clamp at 0.01", got)
	}
	_, _, _, losses, _ := tr.Stats.Snapshot()
	if losses != 1 {
		t.Fatalf("losses = %d, expected 1", losses)
	}
}
