package order

import (
	"math"
	"strings"

	"fxtrader/pkg/broker"
)

// Levels are the stop-loss and take-profit prices for one order, rounded to
// the instrument's digits. Derived, immutable, discarded after submission.
type Levels struct {
	StopLoss   float64
	TakeProfit float64
	Digits     int
}

// Calculator computes trade levels honoring two minimum-distance rules: the
// venue's stop level (a hard floor the server rejects below) and the
// risk-model's pip distance. For most instruments the smaller of the two is
// enough; for the configured strict set the venue minimum is authoritative.
type Calculator struct {
	StopLossPips   float64
	RiskFraction   float64
	RewardMultiple float64
	// IsStrict reports whether the venue minimum is authoritative for a
	// logical symbol. The strict set is configuration, not code.
	IsStrict func(symbol string) bool
}

// pipSize is 0.01 for JPY-quoted pairs, 0.0001 otherwise.
func pipSize(logical string) float64 {
	if strings.HasSuffix(strings.ToUpper(logical), "JPY") {
		return 0.01
	}
	return 0.0001
}

// Compute derives levels for an order at entry. The stop distance is the
// larger of the fixed-fraction risk distance and the effective minimum
// distance; the target distance is the stop distance times the reward
// multiple.
func (c *Calculator) Compute(entry float64, side broker.Side, info *broker.InstrumentInfo, logical string) Levels {
	brokerMin := float64(info.StopsLevel) * info.Point
	riskMin := c.StopLossPips * pipSize(logical)

	effectiveMin := math.Min(brokerMin, riskMin)
	if c.IsStrict != nil && c.IsStrict(logical) {
		effectiveMin = brokerMin
	}

	stopDist := math.Max(entry*c.RiskFraction, effectiveMin)
	tpDist := stopDist * c.RewardMultiple

	var sl, tp float64
	if side == broker.SideBuy {
		sl = entry - stopDist
		tp = entry + tpDist
	} else {
		sl = entry + stopDist
		tp = entry - tpDist
	}

	return Levels{
		StopLoss:   roundTo(sl, info.Digits),
		TakeProfit: roundTo(tp, info.Digits),
		Digits:     info.Digits,
	}
}

func roundTo(v float64, digits int) float64 {
	scale := math.Pow10(digits)
	return math.Round(v*scale) / scale
}
