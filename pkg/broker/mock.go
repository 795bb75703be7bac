package broker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Mock is an in-memory Client for local runs and tests. Behavior is scripted
// through its exported knobs; with none set it accepts every order.
type Mock struct {
	mu sync.Mutex

	// Instruments known to the venue. EnsureSymbol reports ok only for these.
	Instruments map[string]InstrumentInfo

	// Quotes per symbol. TickFailures makes that many Tick calls fail first.
	Quotes       map[string]Tick
	TickFailures int

	// RejectModes maps a fill mode to a rejection message. RejectAll, when
	// non-empty, rejects every submission with that message.
	RejectModes map[FillMode]string
	RejectAll   string

	// Open holds the venue's open positions. Profits maps a ticket to the
	// realized profit reported after close.
	Open    []Position
	Profits map[int64]float64

	// CloseFailures holds tickets whose close request should fail.
	CloseFailures map[int64]string

	// Call records for assertions.
	Submitted []Order
	Closed    []int64

	nextTicket int64
}

// NewMock returns a mock venue pre-loaded with a generic 5-digit instrument
// for each given symbol.
func NewMock(symbols ...string) *Mock {
	m := &Mock{
		Instruments: make(map[string]InstrumentInfo),
		Quotes:      make(map[string]Tick),
		Profits:     make(map[int64]float64),
		nextTicket:  1000,
	}
	for _, s := range symbols {
		m.Instruments[s] = InstrumentInfo{
			Name:       s,
			Digits:     5,
			Point:      0.00001,
			StopsLevel: 20,
			VolumeMin:  0.01,
			VolumeStep: 0.01,
		}
		m.Quotes[s] = Tick{Bid: 1.10000, Ask: 1.10010, Time: time.Now()}
	}
	return m
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) EnsureSymbol(_ context.Context, symbol string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Instruments[symbol]
	return ok, nil
}

func (m *Mock) Instrument(_ context.Context, symbol string) (*InstrumentInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.Instruments[symbol]
	if !ok {
		return nil, fmt.Errorf("mock: unknown instrument %s", symbol)
	}
	return &info, nil
}

func (m *Mock) Tick(_ context.Context, symbol string) (*Tick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TickFailures > 0 {
		m.TickFailures--
		return nil, fmt.Errorf("mock: tick unavailable for %s", symbol)
	}
	t, ok := m.Quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("mock: no quote for %s", symbol)
	}
	return &t, nil
}

func (m *Mock) Submit(_ context.Context, o Order) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Submitted = append(m.Submitted, o)

	if m.RejectAll != "" {
		return &Result{Done: false, RetCode: 10004, Message: m.RejectAll}, nil
	}
	if msg, ok := m.RejectModes[o.FillMode]; ok {
		return &Result{Done: false, RetCode: 10030, Message: msg}, nil
	}

	m.nextTicket++
	ticket := m.nextTicket
	m.Open = append(m.Open, Position{
		Ticket:     ticket,
		Symbol:     o.Symbol,
		Side:       o.Side,
		Volume:     o.Volume,
		EntryPrice: o.Price,
	})
	return &Result{Done: true, Ticket: ticket, Message: "done"}, nil
}

func (m *Mock) Positions(_ context.Context, symbol string) ([]Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Position, 0, len(m.Open))
	for _, p := range m.Open {
		if symbol == "" || strings.EqualFold(p.Symbol, symbol) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Mock) ClosePosition(_ context.Context, ticket int64) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Closed = append(m.Closed, ticket)
	if msg, ok := m.CloseFailures[ticket]; ok {
		return &Result{Done: false, RetCode: 10018, Message: msg}, nil
	}

	for i, p := range m.Open {
		if p.Ticket == ticket {
			if _, ok := m.Profits[ticket]; !ok {
				m.Profits[ticket] = p.Profit
			}
			m.Open = append(m.Open[:i], m.Open[i+1:]...)
			return &Result{Done: true, Ticket: ticket, Message: "done"}, nil
		}
	}
	return &Result{Done: false, RetCode: 10013, Message: "position not found"}, nil
}

func (m *Mock) DealProfit(_ context.Context, ticket int64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Profits[ticket]
	if !ok {
		return 0, fmt.Errorf("mock: no deal history for ticket %d", ticket)
	}
	return p, nil
}

// SetProfit sets the mark-to-market P/L of an open position, as the venue
// would report it on the next Positions call.
func (m *Mock) SetProfit(ticket int64, profit float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Open {
		if m.Open[i].Ticket == ticket {
			m.Open[i].Profit = profit
			return
		}
	}
}
