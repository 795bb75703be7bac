package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"fxtrader/internal/risk"
	"fxtrader/internal/state"
	"fxtrader/pkg/broker"
)

func newTestServer(t *testing.T) (*Server, *broker.Mock) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mock := broker.NewMock("EURUSD")
	return &Server{
		Broker: mock,
		Risk:   risk.NewManager(t.TempDir(), risk.DefaultConfig()),
		Stats:  state.NewDailyStats(),
	}, mock
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", w.Code)
	}
}

func TestStatusReportsTalliesAndLot(t *testing.T) {
	s, _ := newTestServer(t)
	s.Stats.RecordTrade("EURUSD", true)
	s.Stats.RecordTrade("EURUSD", false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", w.Code)
	}

	var body struct {
		Trades     int     `json:"trades"`
		Wins       int     `json:"wins"`
		CurrentLot float64 `json:"current_lot"`
		Broker     string  `json:"broker"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Trades != 2 || body.Wins != 1 {
		t.Fatalf("tallies = %d/%d, expected 2/1", body.Trades, body.Wins)
	}
	if body.CurrentLot != 0.01 {
		t.Fatalf("current_lot = %v, expected base 0.01", body.CurrentLot)
	}
	if body.Broker != "mock" {
		t.Fatalf("broker = %q, expected mock", body.Broker)
	}
}

func TestPositionsPassthrough(t *testing.T) {
	s, mock := newTestServer(t)
	mock.Open = []broker.Position{
		{Ticket: 7, Symbol: "EURUSD", Side: broker.SideBuy, Volume: 0.01},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/positions", nil)
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", w.Code)
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 {
		t.Fatalf("count = %d, expected 1", body.Count)
	}
}
