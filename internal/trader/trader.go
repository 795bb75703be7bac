// Package trader runs the trading cycle: bars in, prediction, sized order
// out, timed hold, close, risk adjustment, journal row. Each cycle is
// independent and survives any single external failure.
package trader

import (
	"context"
	"fmt"
	"log"
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

// Trader wires the cycle's collaborators. All fields are required except
// Journal and Bus, which degrade to no-ops when nil.
type Trader struct {
	Chain     *marketdata.Chain
	Predictor predictor.Predictor
	Risk      *risk.Manager
	IDs       *state.SignalIDs
	Stats     *state.DailyStats
	Executor  *order.Executor
	Broker    broker.Client
	Journal   *db.Journal
	Bus       *events.Bus

	// HoldDuration is how long an opened position is held before closing.
	// A shutdown interrupts the hold and still closes the position.
	HoldDuration time.Duration

	// NewsScore feeds the predictor; nil means no news signal.
	NewsScore func(symbol string) float64
}

// RunCycle executes one full trading cycle for symbol. All failure paths
// degrade to a logged skip; only context cancellation propagates.
func (t *Trader) RunCycle(ctx context.Context, symbol string) error {
	window, err := t.Chain.Fetch(ctx, symbol)
	if err != nil {
		return fmt.Errorf("trader: fetch %s: %w", symbol, err)
	}
	if window.Synthetic {
		log.Printf("trader: %s running on synthetic bars, trade will not be journaled", symbol)
	}

	var news float64
	if t.NewsScore != nil {
		news = t.NewsScore(symbol)
	}

	pred, err := t.Predictor.Predict(window.Bars, news)
	if err != nil {
		log.Printf("trader: predict %s failed: %v", symbol, err)
		return nil
	}
	if pred.Signal == predictor.SignalHold {
		log.Printf("trader: %s HOLD (confidence %.1f), no trade", symbol, pred.Confidence)
		return nil
	}

	id := t.IDs.Next()
	lot := t.Risk.Lot()
	if t.Bus != nil {
		t.Bus.Publish(events.EventSignal, fmt.Sprintf(
			"Signal %d: %s %s confidence=%.1f lot=%.2f", id, symbol, pred.Signal, pred.Confidence, lot))
	}

	placed, err := t.Executor.Execute(ctx, order.Signal{
		ID:         id,
		Symbol:     symbol,
		Side:       pred.Signal.Side(),
		Volume:     lot,
		Confidence: pred.Confidence,
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("trader: signal %d not executed: %v", id, err)
		return nil
	}

	// Hold the position. Cancellation interrupts the wait but the position
	// is still closed so shutdown never leaves one unmanaged.
	t.hold(ctx)

	profit, won := t.closeAndSettle(placed)
	t.Stats.RecordTrade(symbol, won)
	newLot := t.Risk.Adjust(won)

	if t.Journal != nil && !window.Synthetic {
		err := t.Journal.Insert(context.Background(), db.Trade{
			SignalID: id,
			Symbol:   symbol,
			Side:     string(placed.Side),
			Volume:   placed.Volume,
			Entry:    placed.Entry,
			Profit:   profit,
			Win:      won,
		})
		if err != nil {
			log.Printf("trader: journal signal %d failed: %v", id, err)
		}
	}

	outcome := "LOSS"
	if won {
		outcome = "WIN"
	}
	msg := fmt.Sprintf("Closed %s ticket %d: %s %.2f, next lot %.2f",
		placed.VenueSymbol, placed.Ticket, outcome, profit, newLot)
	if window.Synthetic {
		msg += " [synthetic data]"
	}
	log.Printf("trader: %s", msg)
	if t.Bus != nil {
		t.Bus.Publish(events.EventTradeClosed, msg)
	}
	return ctx.Err()
}

func (t *Trader) hold(ctx context.Context) {
	if t.HoldDuration <= 0 {
		return
	}
	timer := time.NewTimer(t.HoldDuration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		log.Printf("trader: hold interrupted, closing early")
	case <-timer.C:
	}
}

// closeAndSettle closes the position and looks up the realized profit. It
// runs on a fresh context so shutdown cannot strand an open position.
func (t *Trader) closeAndSettle(placed *order.Placed) (float64, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := t.Broker.ClosePosition(ctx, placed.Ticket)
	if err != nil {
		log.Printf("trader: close ticket %d failed: %v", placed.Ticket, err)
		return 0, false
	}
	if !res.Done {
		log.Printf("trader: close ticket %d rejected: %s", placed.Ticket, res.Message)
		return 0, false
	}

	profit, err := t.Broker.DealProfit(ctx, placed.Ticket)
	if err != nil {
		log.Printf("trader: profit lookup for ticket %d failed: %v", placed.Ticket, err)
		return 0, false
	}
	return profit, profit > 0
}
