// Package news turns recent headlines into a per-symbol sentiment score in
// [-100, 100] that feeds the predictor. The feed is best-effort: any fetch or
// decode failure scores neutral, never blocks or fails a trading cycle.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Client queries the NewsAPI everything endpoint and caches one score per
// symbol for TTL, so a cycle per symbol costs at most one request per window.
type Client struct {
	APIKey     string
	BaseURL    string
	TTL        time.Duration
	HTTPClient *http.Client

	mu    sync.Mutex
	cache map[string]cachedScore
}

type cachedScore struct {
	score    float64
	scoredAt time.Time
}

func NewClient(apiKey string, ttl time.Duration) *Client {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Client{
		APIKey:     apiKey,
		BaseURL:    "https://newsapi.org",
		TTL:        ttl,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		cache:      make(map[string]cachedScore),
	}
}

// Score returns the sentiment for a logical symbol. Stale or missing cache
// triggers one fetch; every failure path returns 0 (neutral).
func (c *Client) Score(symbol string) float64 {
	c.mu.Lock()
	if e, ok := c.cache[symbol]; ok && time.Since(e.scoredAt) < c.TTL {
		c.mu.Unlock()
		return e.score
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	titles, err := c.fetchHeadlines(ctx, symbol)
	if err != nil {
		log.Printf("news: %s: %v", symbol, err)
		return 0
	}
	score := scoreHeadlines(titles)

	c.mu.Lock()
	c.cache[symbol] = cachedScore{score: score, scoredAt: time.Now()}
	c.mu.Unlock()

	log.Printf("news: %s sentiment %.1f from %d headlines", symbol, score, len(titles))
	return score
}

type newsResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title string `json:"title"`
	} `json:"articles"`
}

// fetchHeadlines pulls the latest few English headlines mentioning the
// symbol's query term.
func (c *Client) fetchHeadlines(ctx context.Context, symbol string) ([]string, error) {
	q := url.Values{}
	q.Set("q", queryFor(symbol))
	q.Set("pageSize", "3")
	q.Set("language", "en")
	q.Set("sortBy", "publishedAt")
	q.Set("apiKey", c.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/v2/everything?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi returned %d", resp.StatusCode)
	}

	var out newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Status != "ok" {
		return nil, fmt.Errorf("newsapi status %q", out.Status)
	}

	titles := make([]string, 0, len(out.Articles))
	for _, a := range out.Articles {
		if a.Title != "" {
			titles = append(titles, a.Title)
		}
	}
	return titles, nil
}

// queryFor maps a logical symbol to a search term: forex pairs search
// "forex OR EUR/USD", crypto pairs search the base asset.
func queryFor(symbol string) string {
	s := strings.ToUpper(symbol)
	if strings.HasSuffix(s, "USDT") {
		return strings.TrimSuffix(s, "USDT")
	}
	if len(s) == 6 {
		return fmt.Sprintf("forex OR %s/%s", s[:3], s[3:])
	}
	return s
}
