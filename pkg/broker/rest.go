package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RESTClient talks to the terminal gateway sidecar over HTTP. The gateway
// exposes the terminal's symbol/tick/order/position calls as plain JSON
// endpoints.
type RESTClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewRESTClient builds a gateway client with a bounded default timeout.
func NewRESTClient(baseURL, apiKey string) *RESTClient {
	return &RESTClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *RESTClient) Name() string { return "gateway" }

func (c *RESTClient) EnsureSymbol(ctx context.Context, symbol string) (bool, error) {
	var resp struct {
		Selected bool `json:"selected"`
	}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/symbols/%s/select", symbol), nil, &resp)
	if err != nil {
		return false, err
	}
	return resp.Selected, nil
}

func (c *RESTClient) Instrument(ctx context.Context, symbol string) (*InstrumentInfo, error) {
	var info InstrumentInfo
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/symbols/%s/info", symbol), nil, &info); err != nil {
		return nil, err
	}
	if info.Name == "" {
		return nil, fmt.Errorf("broker: no instrument metadata for %s", symbol)
	}
	return &info, nil
}

func (c *RESTClient) Tick(ctx context.Context, symbol string) (*Tick, error) {
	var t Tick
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/symbols/%s/tick", symbol), nil, &t); err != nil {
		return nil, err
	}
	if t.Bid <= 0 && t.Ask <= 0 {
		return nil, fmt.Errorf("broker: empty tick for %s", symbol)
	}
	return &t, nil
}

func (c *RESTClient) Submit(ctx context.Context, o Order) (*Result, error) {
	var res Result
	if err := c.do(ctx, http.MethodPost, "/api/orders", o, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *RESTClient) Positions(ctx context.Context, symbol string) ([]Position, error) {
	path := "/api/positions"
	if symbol != "" {
		path += "?symbol=" + symbol
	}
	var out []Position
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RESTClient) ClosePosition(ctx context.Context, ticket int64) (*Result, error) {
	var res Result
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/positions/%d/close", ticket), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *RESTClient) DealProfit(ctx context.Context, ticket int64) (float64, error) {
	var resp struct {
		Profit float64 `json:"profit"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/deals/%d/profit", ticket), nil, &resp); err != nil {
		return 0, err
	}
	return resp.Profit, nil
}

func (c *RESTClient) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("broker: %s %s status %d: %s", method, path, res.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
