package predictor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fxtrader/internal/marketdata"
)

// Bridge delegates prediction to an HTTP sidecar. The sidecar owns the model
// runtime; this side owns only the wire contract and the timeout.
type Bridge struct {
	BaseURL string
	client  *http.Client
}

func NewBridge(baseURL string, timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Bridge{
		BaseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (b *Bridge) Name() string { return "bridge" }

type bridgeRequest struct {
	Bars      []marketdata.Bar `json:"bars"`
	NewsScore float64          `json:"news_score"`
}

type bridgeResponse struct {
	Signal             string  `json:"signal"`
	Confidence         float64 `json:"confidence"`
	PredictedChangePct float64 `json:"predicted_change_pct"`
}

func (b *Bridge) Predict(bars []marketdata.Bar, newsScore float64) (Prediction, error) {
	body, err := json.Marshal(bridgeRequest{Bars: bars, NewsScore: newsScore})
	if err != nil {
		return Prediction{}, fmt.Errorf("bridge: encode request: %w", err)
	}

	resp, err := b.client.Post(b.BaseURL+"/predict", "application/json", bytes.NewReader(body))
	if err != nil {
		return Prediction{}, fmt.Errorf("bridge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Prediction{}, fmt.Errorf("bridge: sidecar returned %d", resp.StatusCode)
	}

	var out bridgeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Prediction{}, fmt.Errorf("bridge: decode response: %w", err)
	}

	p := Prediction{
		Confidence:         out.Confidence,
		PredictedChangePct: out.PredictedChangePct,
	}
	switch out.Signal {
	case string(SignalBuy):
		p.Signal = SignalBuy
	case string(SignalSell):
		p.Signal = SignalSell
	case string(SignalHold):
		p.Signal = SignalHold
	default:
		return Prediction{}, fmt.Errorf("bridge: unknown signal %q", out.Signal)
	}
	return p, nil
}
