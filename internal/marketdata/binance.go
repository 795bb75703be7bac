package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Binance fetches 1-minute klines from the public Binance REST API. It is the
// tertiary vendor: unauthenticated, generous limits, crypto-native.
type Binance struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewBinance() *Binance {
	return &Binance{
		BaseURL:    "https://api.binance.com",
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *Binance) Name() string { return "binance" }

// venueSymbol maps a logical symbol to Binance's naming: crypto pairs pass
// through, forex pairs trade against USDT (EURUSD -> EURUSDT).
func venueSymbol(symbol string) string {
	s := strings.ToUpper(symbol)
	if strings.HasSuffix(s, "USDT") {
		return s
	}
	if strings.HasSuffix(s, "USD") {
		return s + "T"
	}
	return s
}

func (p *Binance) Fetch(ctx context.Context, symbol string, limit int) ([]Bar, error) {
	params := url.Values{}
	params.Set("symbol", venueSymbol(symbol))
	params.Set("interval", "1m")
	params.Set("limit", strconv.Itoa(limit))

	u := fmt.Sprintf("%s/api/v3/klines?%s", p.BaseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	res, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("binance klines status %d", res.StatusCode)
	}

	var raw [][]any
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("binance: empty kline response")
	}

	// Klines arrive oldest first with 12 fields each.
	bars := make([]Bar, 0, len(raw))
	for _, item := range raw {
		if len(item) < 6 {
			continue
		}
		bars = append(bars, Bar{
			Open:      toFloat(item[1]),
			High:      toFloat(item[2]),
			Low:       toFloat(item[3]),
			Close:     toFloat(item[4]),
			Volume:    toFloat(item[5]),
			Timestamp: time.UnixMilli(toInt64(item[0])),
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("binance: no parsable klines")
	}
	return bars, nil
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	case json.Number:
		f, _ := t.Float64()
		return f
	case float64:
		return t
	default:
		return 0
	}
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case json.Number:
		i, _ := t.Int64()
		return i
	case string:
		i, _ := strconv.ParseInt(t, 10, 64)
		return i
	default:
		return 0
	}
}
