package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// StreamWarmer keeps the bar cache warm for streaming-capable symbols by
// subscribing to the vendor's public kline websocket. A warm cache means the
// trading cycle rarely pays a blocking REST fetch, and the rate-limited
// vendors are only touched when the stream gaps.
type StreamWarmer struct {
	Cache   *Cache
	Window  int
	Symbols []string

	StreamURL string
	dialer    *websocket.Dialer

	mu      sync.Mutex
	windows map[string][]Bar
}

func NewStreamWarmer(cache *Cache, window int, symbols []string) *StreamWarmer {
	return &StreamWarmer{
		Cache:     cache,
		Window:    window,
		Symbols:   symbols,
		StreamURL: (&url.URL{Scheme: "wss", Host: "stream.binance.com:9443", Path: "/ws"}).String(),
		dialer:    websocket.DefaultDialer,
		windows:   make(map[string][]Bar),
	}
}

// Start launches one subscription goroutine per symbol. Errors are logged and
// the symbol's stream simply stops; the REST chain remains the source of
// truth.
func (w *StreamWarmer) Start(ctx context.Context) {
	for _, sym := range w.Symbols {
		symbol := sym
		go func() {
			if err := w.stream(ctx, symbol); err != nil && ctx.Err() == nil {
				log.Printf("stream warmer: %s stopped: %v", symbol, err)
			}
		}()
	}
}

func (w *StreamWarmer) stream(ctx context.Context, symbol string) error {
	stream := fmt.Sprintf("%s@kline_1m", strings.ToLower(venueSymbol(symbol)))
	u := fmt.Sprintf("%s/%s", w.StreamURL, stream)

	conn, _, err := w.dialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("dial kline stream: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		bar, closed, err := parseKlineMessage(msg)
		if err != nil {
			log.Printf("stream warmer: parse %s: %v", symbol, err)
			continue
		}
		if !closed {
			continue // only completed bars enter the window
		}
		w.append(symbol, bar)
	}
}

func (w *StreamWarmer) append(symbol string, bar Bar) {
	w.mu.Lock()
	defer w.mu.Unlock()

	win := append(w.windows[symbol], bar)
	if len(win) > w.Window {
		win = win[len(win)-w.Window:]
	}
	w.windows[symbol] = win

	// Refresh the disk entry only once the window is full, so cache readers
	// always see the fixed-length sequence they expect.
	if len(win) == w.Window {
		w.Cache.Store(symbol, win)
	}
}

func parseKlineMessage(msg []byte) (Bar, bool, error) {
	var payload struct {
		Kline struct {
			Start  int64  `json:"t"`
			Open   string `json:"o"`
			High   string `json:"h"`
			Low    string `json:"l"`
			Close  string `json:"c"`
			Volume string `json:"v"`
			Closed bool   `json:"x"`
		} `json:"k"`
	}
	if err := json.Unmarshal(msg, &payload); err != nil {
		return Bar{}, false, err
	}
	k := payload.Kline
	b, err := parseBar(k.Open, k.High, k.Low, k.Close)
	if err != nil {
		return Bar{}, false, err
	}
	b.Volume, _ = strconv.ParseFloat(k.Volume, 64)
	b.Timestamp = time.UnixMilli(k.Start)
	return b, k.Closed, nil
}
