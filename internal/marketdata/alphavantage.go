package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// AlphaVantage fetches 1-minute bars from the Alpha Vantage intraday
// endpoints: FX_INTRADAY for currency pairs, CRYPTO_INTRADAY for stablecoin
// pairs.
type AlphaVantage struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewAlphaVantage(apiKey string) *AlphaVantage {
	return &AlphaVantage{
		APIKey:     apiKey,
		BaseURL:    "https://www.alphavantage.co",
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *AlphaVantage) Name() string { return "alphavantage" }

func (p *AlphaVantage) Fetch(ctx context.Context, symbol string, limit int) ([]Bar, error) {
	s := strings.ToUpper(symbol)
	params := url.Values{}
	params.Set("interval", "1min")
	params.Set("outputsize", "compact")
	params.Set("apikey", p.APIKey)

	if strings.HasSuffix(s, "USDT") {
		params.Set("function", "CRYPTO_INTRADAY")
		params.Set("symbol", s[:len(s)-4])
		params.Set("market", "USD")
	} else if len(s) == 6 {
		params.Set("function", "FX_INTRADAY")
		params.Set("from_symbol", s[:3])
		params.Set("to_symbol", s[3:])
	} else {
		return nil, fmt.Errorf("alphavantage: unsupported symbol %s", symbol)
	}

	u := fmt.Sprintf("%s/query?%s", p.BaseURL, params.Encode())
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
		return nil, fmt.Errorf("alphavantage status %d", res.StatusCode)
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, err
	}

	// The series key names the interval ("Time Series FX (1min)", ...), so
	// locate it by prefix rather than exact match.
	var series map[string]map[string]string
	for key, msg := range raw {
		if strings.HasPrefix(key, "Time Series") {
			if err := json.Unmarshal(msg, &series); err != nil {
				return nil, fmt.Errorf("alphavantage: bad series: %w", err)
			}
			break
		}
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("alphavantage: no time series in response")
	}

	stamps := make([]string, 0, len(series))
	for ts := range series {
		stamps = append(stamps, ts)
	}
	sort.Strings(stamps) // oldest -> newest
	if len(stamps) > limit {
		stamps = stamps[len(stamps)-limit:]
	}

	bars := make([]Bar, 0, len(stamps))
	for _, ts := range stamps {
		row := series[ts]
		b, err := parseBar(row["1. open"], row["2. high"], row["3. low"], row["4. close"])
		if err != nil {
			return nil, fmt.Errorf("alphavantage: %w", err)
		}
		b.Volume = 1000 // FX series carry no volume column
		if v, ok := row["5. volume"]; ok {
			if f, err := parseFloat(v); err == nil && f > 0 {
				b.Volume = f
			}
		}
		if t, err := time.Parse("2006-01-02 15:04:05", ts); err == nil {
			b.Timestamp = t
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func parseFloat(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(s, "%f", &f)
	return f, err
}
