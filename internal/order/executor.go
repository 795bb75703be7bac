package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"fxtrader/internal/events"
	"fxtrader/internal/marketdata"
	"fxtrader/pkg/broker"
)

// ErrPricingUnavailable reports that the tick feed is down and no cached
// close exists to price against.
var ErrPricingUnavailable = errors.New("order: no price available")

// ErrOrderRejected reports that every fill-mode variant was rejected.
var ErrOrderRejected = errors.New("order: rejected by venue")

// Signal is a directional trade request, already sized and HOLD-filtered.
type Signal struct {
	ID         int64
	Symbol     string
	Side       broker.Side
	Volume     float64
	Confidence float64
}

// Placed describes a successfully opened position.
type Placed struct {
	Ticket      int64
	Symbol      string // logical symbol
	VenueSymbol string
	Side        broker.Side
	Volume      float64
	Entry       float64
	Levels      Levels
	ClientID    string
}

// MitigationReport records one position-limit mitigation pass.
type MitigationReport struct {
	Symbol    string
	Positions []broker.Position
	Closed    []int64
}

// Executor submits orders, retrying across fill-mode variants, and runs
// position-limit mitigation when the venue reports a capacity wall.
type Executor struct {
	Broker   broker.Client
	Resolver *Resolver
	Levels   *Calculator
	Chain    *marketdata.Chain
	Bus      *events.Bus

	TickRetries    int
	TickRetryDelay time.Duration
	ModeRetryDelay time.Duration
}

func NewExecutor(b broker.Client, levels *Calculator, chain *marketdata.Chain, bus *events.Bus) *Executor {
	return &Executor{
		Broker:         b,
		Resolver:       &Resolver{Broker: b},
		Levels:         levels,
		Chain:          chain,
		Bus:            bus,
		TickRetries:    3,
		TickRetryDelay: 500 * time.Millisecond,
		ModeRetryDelay: 500 * time.Millisecond,
	}
}

// Execute runs the submission state machine: resolve, price, then submit
// across fill modes. The returned error is ErrSymbolNotFound,
// ErrPricingUnavailable, or ErrOrderRejected; none of them should crash the
// caller's cycle.
func (e *Executor) Execute(ctx context.Context, sig Signal) (*Placed, error) {
	if sig.Side != broker.SideBuy && sig.Side != broker.SideSell {
		return nil, fmt.Errorf("order: signal %d has no direction", sig.ID)
	}

	venueSym, info, err := e.Resolver.Resolve(ctx, sig.Symbol)
	if err != nil {
		log.Printf("executor: signal %d skipped: %v", sig.ID, err)
		return nil, err
	}

	entry, err := e.entryPrice(ctx, venueSym, sig.Side, sig.Symbol)
	if err != nil {
		return nil, err
	}

	levels := e.Levels.Compute(entry, sig.Side, info, sig.Symbol)
	volume := NormalizeVolume(sig.Volume, info)
	clientID := uuid.NewString()

	var lastMsg string
	for i, mode := range broker.FillModes {
		o := broker.Order{
			Symbol:     venueSym,
			Side:       sig.Side,
			Volume:     volume,
			Price:      entry,
			StopLoss:   levels.StopLoss,
			TakeProfit: levels.TakeProfit,
			FillMode:   mode,
			ClientID:   clientID,
			Comment:    fmt.Sprintf("signal-%d", sig.ID),
		}

		res, err := e.Broker.Submit(ctx, o)
		if err != nil {
			lastMsg = err.Error()
			log.Printf("executor: submit %s mode=%s transport error: %v", venueSym, mode, err)
		} else if res.Done {
			placed := &Placed{
				Ticket:      res.Ticket,
				Symbol:      sig.Symbol,
				VenueSymbol: venueSym,
				Side:        sig.Side,
				Volume:      volume,
				Entry:       entry,
				Levels:      levels,
				ClientID:    clientID,
			}
			log.Printf("executor: opened %s %s vol=%.2f ticket=%d mode=%s",
				venueSym, sig.Side, volume, res.Ticket, mode)
			if e.Bus != nil {
				e.Bus.Publish(events.EventOrderPlaced, fmt.Sprintf(
					"Opened %s %s vol=%.2f @ %.5f SL=%.5f TP=%.5f (ticket %d)",
					venueSym, sig.Side, volume, entry, levels.StopLoss, levels.TakeProfit, res.Ticket))
			}
			return placed, nil
		} else {
			lastMsg = res.Message
			log.Printf("executor: submit %s mode=%s rejected (code %d): %s",
				venueSym, mode, res.RetCode, res.Message)
		}

		if i < len(broker.FillModes)-1 {
			if err := sleepCtx(ctx, e.ModeRetryDelay); err != nil {
				return nil, err
			}
		}
	}

	if e.Bus != nil {
		e.Bus.Publish(events.EventOrderRejected, fmt.Sprintf(
			"Order failed for %s %s after all fill modes: %s", venueSym, sig.Side, lastMsg))
	}

	if isPositionLimit(lastMsg) {
		e.mitigate(ctx, venueSym)
	}
	return nil, fmt.Errorf("%w: %s", ErrOrderRejected, lastMsg)
}

// entryPrice fetches the current tick with bounded retries; when the feed is
// exhausted it falls back to the last cached close rather than aborting the
// trade.
func (e *Executor) entryPrice(ctx context.Context, venueSym string, side broker.Side, logical string) (float64, error) {
	for i := 0; i < e.TickRetries; i++ {
		t, err := e.Broker.Tick(ctx, venueSym)
		if err == nil {
			if side == broker.SideBuy {
				return t.Ask, nil
			}
			return t.Bid, nil
		}
		log.Printf("executor: tick %s attempt %d/%d failed: %v", venueSym, i+1, e.TickRetries, err)
		if i < e.TickRetries-1 {
			if err := sleepCtx(ctx, e.TickRetryDelay); err != nil {
				return 0, err
			}
		}
	}

	if e.Chain != nil {
		if px, ok := e.Chain.LastKnownClose(logical); ok {
			log.Printf("executor: tick feed down for %s, pricing from last cached close %.5f", venueSym, px)
			return px, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrPricingUnavailable, venueSym)
}

// isPositionLimit recognizes the venue's position-count capacity errors from
// the raw rejection text.
func isPositionLimit(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "position limit") ||
		strings.Contains(m, "limit of positions") ||
		strings.Contains(m, "too many positions")
}

// mitigate converts a position-count wall into capacity recovery: it reports
// the open positions on the instrument and closes every one currently in
// profit. Closes are best-effort; failures are logged, not retried.
func (e *Executor) mitigate(ctx context.Context, venueSym string) {
	positions, err := e.Broker.Positions(ctx, venueSym)
	if err != nil {
		log.Printf("executor: mitigation list failed for %s: %v", venueSym, err)
		return
	}
	if len(positions) == 0 {
		return
	}

	report := MitigationReport{Symbol: venueSym, Positions: positions}
	for _, p := range positions {
		if p.Profit <= 0 {
			continue
		}
		res, err := e.Broker.ClosePosition(ctx, p.Ticket)
		if err != nil {
			log.Printf("executor: mitigation close %d failed: %v", p.Ticket, err)
			continue
		}
		if !res.Done {
			log.Printf("executor: mitigation close %d rejected: %s", p.Ticket, res.Message)
			continue
		}
		report.Closed = append(report.Closed, p.Ticket)
		log.Printf("executor: mitigation closed ticket %d (profit %.2f)", p.Ticket, p.Profit)
	}

	if e.Bus != nil {
		e.Bus.Publish(events.EventMitigationReport, formatMitigation(report))
	}
}

func formatMitigation(r MitigationReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Position limit hit on %s; %d open positions:\n", r.Symbol, len(r.Positions))
	for _, p := range r.Positions {
		fmt.Fprintf(&b, "- ticket %d %s vol=%.2f P/L=%.2f\n", p.Ticket, p.Side, p.Volume, p.Profit)
	}
	fmt.Fprintf(&b, "Closed %d profitable position(s) to free capacity.", len(r.Closed))
	return b.String()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
