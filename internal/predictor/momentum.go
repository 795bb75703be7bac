package predictor

import (
	"errors"

	"fxtrader/internal/marketdata"
)

// Momentum is the deterministic baseline model: compare the newest close to
// the close Lookback bars earlier and follow the direction when the move plus
// the news score clears HoldBandPct.
type Momentum struct {
	Lookback    int
	HoldBandPct float64
}

func NewMomentum(lookback int, holdBandPct float64) *Momentum {
	if lookback <= 0 {
		lookback = 10
	}
	if holdBandPct <= 0 {
		holdBandPct = 0.05
	}
	return &Momentum{Lookback: lookback, HoldBandPct: holdBandPct}
}

func (m *Momentum) Name() string { return "momentum" }

func (m *Momentum) Predict(bars []marketdata.Bar, newsScore float64) (Prediction, error) {
	if len(bars) <= m.Lookback {
		return Prediction{}, errors.New("momentum: window shorter than lookback")
	}

	latest := bars[len(bars)-1].Close
	past := bars[len(bars)-1-m.Lookback].Close
	if past == 0 {
		return Prediction{Signal: SignalHold}, nil
	}

	pct := (latest-past)/past*100 + newsScore

	p := Prediction{PredictedChangePct: pct}
	switch {
	case pct > m.HoldBandPct:
		p.Signal = SignalBuy
	case pct < -m.HoldBandPct:
		p.Signal = SignalSell
	default:
		p.Signal = SignalHold
	}

	abs := pct
	if abs < 0 {
		abs = -abs
	}
	p.Confidence = 2 * abs
	if p.Confidence > 100 {
		p.Confidence = 100
	}
	return p, nil
}
