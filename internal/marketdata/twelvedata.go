package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// TwelveData fetches 1-minute bars from the TwelveData time_series endpoint.
// The free tier is heavily rate-limited, so the chain sleeps 10-15s after each
// successful fetch from this provider.
type TwelveData struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewTwelveData(apiKey string) *TwelveData {
	return &TwelveData{
		APIKey:     apiKey,
		BaseURL:    "https://api.twelvedata.com",
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *TwelveData) Name() string { return "twelvedata" }

func (p *TwelveData) ThrottleAfterFetch() time.Duration {
	return 10*time.Second + time.Duration(rand.Int63n(int64(5*time.Second)))
}

// pairFormat converts a logical symbol to TwelveData's slash notation:
// EURUSD -> EUR/USD, BTCUSDT -> BTC/USD.
func pairFormat(symbol string) string {
	s := strings.ToUpper(symbol)
	if strings.HasSuffix(s, "USDT") {
		return s[:len(s)-4] + "/USD"
	}
	if len(s) == 6 {
		return s[:3] + "/" + s[3:]
	}
	return s
}

func (p *TwelveData) Fetch(ctx context.Context, symbol string, limit int) ([]Bar, error) {
	params := url.Values{}
	params.Set("symbol", pairFormat(symbol))
	params.Set("interval", "1min")
	params.Set("outputsize", strconv.Itoa(limit))
	params.Set("apikey", p.APIKey)
	params.Set("format", "JSON")

	u := fmt.Sprintf("%s/time_series?%s", p.BaseURL, params.Encode())
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
		return nil, fmt.Errorf("twelvedata status %d", res.StatusCode)
	}

	var resp struct {
		Values []struct {
			Datetime string `json:"datetime"`
			Open     string `json:"open"`
			High     string `json:"high"`
			Low      string `json:"low"`
			Close    string `json:"close"`
			Volume   string `json:"volume"`
		} `json:"values"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, err
	}
	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("twelvedata: no values: %s", resp.Message)
	}

	// Values arrive newest first; reverse to oldest -> newest.
	bars := make([]Bar, 0, len(resp.Values))
	for i := len(resp.Values) - 1; i >= 0; i-- {
		v := resp.Values[i]
		b, err := parseBar(v.Open, v.High, v.Low, v.Close)
		if err != nil {
			return nil, fmt.Errorf("twelvedata: %w", err)
		}
		if v.Volume != "" {
			b.Volume, _ = strconv.ParseFloat(v.Volume, 64)
		}
		if b.Volume == 0 {
			// FX feeds often omit volume; fabricate a placeholder so the
			// window always carries the full column set.
			b.Volume = 1000
		}
		if ts, err := time.Parse("2006-01-02 15:04:05", v.Datetime); err == nil {
			b.Timestamp = ts
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func parseBar(open, high, low, closep string) (Bar, error) {
	var b Bar
	var err error
	if b.Open, err = strconv.ParseFloat(open, 64); err != nil {
		return b, fmt.Errorf("bad open %q", open)
	}
	if b.High, err = strconv.ParseFloat(high, 64); err != nil {
		return b, fmt.Errorf("bad high %q", high)
	}
	if b.Low, err = strconv.ParseFloat(low, 64); err != nil {
		return b, fmt.Errorf("bad low %q", low)
	}
	if b.Close, err = strconv.ParseFloat(closep, 64); err != nil {
		return b, fmt.Errorf("bad close %q", closep)
	}
	return b, nil
}
