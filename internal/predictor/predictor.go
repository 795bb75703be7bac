// Package predictor defines the prediction model boundary. Models are opaque
// and swappable; the rest of the system consumes only the Prediction struct
// and never inspects or retrains a model.
package predictor

import (
	"fxtrader/internal/marketdata"
	"fxtrader/pkg/broker"
)

// SignalKind is the model's directional call.
type SignalKind string

const (
	SignalBuy  SignalKind = "BUY"
	SignalSell SignalKind = "SELL"
	SignalHold SignalKind = "HOLD"
)

// Side maps a directional signal onto an order side. Only valid for Buy and
// Sell; callers filter Hold before reaching the venue.
func (s SignalKind) Side() broker.Side {
	if s == SignalSell {
		return broker.SideSell
	}
	return broker.SideBuy
}

// Prediction is the fixed result shape every model variant produces.
type Prediction struct {
	Signal             SignalKind
	Confidence         float64 // 0..100
	PredictedChangePct float64
}

// Predictor turns a bar window plus an external news score into a prediction.
type Predictor interface {
	Name() string
	Predict(bars []marketdata.Bar, newsScore float64) (Prediction, error)
}
