// Package broker abstracts the order-submission venue behind a narrow client
// interface so the trading core can run against the real terminal gateway or a
// deterministic mock chosen at construction time.
package broker

import (
	"context"
	"time"
)

// Side is the direction of an order or position.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite returns the closing side for a position side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// FillMode is a venue-specific order-matching policy. Some servers accept only
// a subset, so submission tries them in sequence.
type FillMode string

const (
	FillReturn FillMode = "RETURN" // partial fills allowed, remainder stays
	FillIOC    FillMode = "IOC"    // immediate-or-cancel
	FillFOK    FillMode = "FOK"    // fill-or-kill
)

// FillModes is the order in which submission variants are attempted.
var FillModes = []FillMode{FillReturn, FillIOC, FillFOK}

// InstrumentInfo carries the trading constraints of a venue symbol. Server-side
// state can change between cycles, so it is fetched fresh per order attempt and
// never cached.
type InstrumentInfo struct {
	Name       string  `json:"name"`
	Digits     int     `json:"digits"`
	Point      float64 `json:"point"`
	StopsLevel int     `json:"stops_level"` // minimum stop distance, in points
	VolumeMin  float64 `json:"volume_min"`
	VolumeStep float64 `json:"volume_step"`
}

// Tick is the current best bid/ask quote.
type Tick struct {
	Bid  float64   `json:"bid"`
	Ask  float64   `json:"ask"`
	Time time.Time `json:"time"`
}

// Order is a market order request.
type Order struct {
	Symbol     string   `json:"symbol"`
	Side       Side     `json:"side"`
	Volume     float64  `json:"volume"`
	Price      float64  `json:"price"`
	StopLoss   float64  `json:"stop_loss,omitempty"`
	TakeProfit float64  `json:"take_profit,omitempty"`
	FillMode   FillMode `json:"fill_mode"`
	ClientID   string   `json:"client_id"`
	Comment    string   `json:"comment,omitempty"`
}

// Result is the venue's response to a submission or close request.
type Result struct {
	Done    bool   `json:"done"`
	Ticket  int64  `json:"ticket"`
	RetCode int    `json:"ret_code"`
	Message string `json:"message"`
}

// Position is a read-through view of a venue-held position. The ticket is an
// opaque handle; the core never caches positions across polling passes.
type Position struct {
	Ticket     int64   `json:"ticket"`
	Symbol     string  `json:"symbol"`
	Side       Side    `json:"side"`
	Volume     float64 `json:"volume"`
	EntryPrice float64 `json:"entry_price"`
	Profit     float64 `json:"profit"` // mark-to-market P/L as reported by the venue
}

// Client is the minimal surface the trading core needs from a venue. Every
// call is a fallible remote operation bounded by the context.
type Client interface {
	Name() string
	// EnsureSymbol activates a symbol on the venue; ok=false means the name
	// is unknown to the server.
	EnsureSymbol(ctx context.Context, symbol string) (bool, error)
	Instrument(ctx context.Context, symbol string) (*InstrumentInfo, error)
	Tick(ctx context.Context, symbol string) (*Tick, error)
	Submit(ctx context.Context, o Order) (*Result, error)
	// Positions lists open positions; an empty symbol means all.
	Positions(ctx context.Context, symbol string) ([]Position, error)
	ClosePosition(ctx context.Context, ticket int64) (*Result, error)
	// DealProfit returns the realized profit of a closed ticket.
	DealProfit(ctx context.Context, ticket int64) (float64, error)
}
