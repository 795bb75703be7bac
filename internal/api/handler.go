// Package api exposes the operational status surface: health, daily tallies,
// open positions, and the recent trade journal. Read-only; trading control
// stays out of HTTP reach.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fxtrader/internal/risk"
	"fxtrader/internal/state"
	"fxtrader/pkg/broker"
	"fxtrader/pkg/db"
)

// Server wires the read-only HTTP surface.
type Server struct {
	Broker  broker.Client
	Risk    *risk.Manager
	Stats   *state.DailyStats
	Journal *db.Journal
}

// Router builds the gin engine with the standard middleware stack.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RateLimitMiddleware())
	r.Use(TimeoutMiddleware(10 * time.Second))
	r.Use(RequestLogger())

	r.GET("/healthz", s.handleHealth)
	r.GET("/api/status", s.handleStatus)
	r.GET("/api/positions", s.handlePositions)
	r.GET("/api/trades", s.handleTrades)
	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStatus(c *gin.Context) {
	uptime, trades, wins, losses, top := s.Stats.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"uptime":      uptime.String(),
		"trades":      trades,
		"wins":        wins,
		"losses":      losses,
		"top_symbols": top,
		"current_lot": s.Risk.Lot(),
		"broker":      s.Broker.Name(),
	})
}

func (s *Server) handlePositions(c *gin.Context) {
	positions, err := s.Broker.Positions(c.Request.Context(), c.Query("symbol"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": positions, "count": len(positions)})
}

func (s *Server) handleTrades(c *gin.Context) {
	if s.Journal == nil {
		c.JSON(http.StatusOK, gin.H{"trades": []db.Trade{}})
		return
	}
	trades, err := s.Journal.Recent(c.Request.Context(), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades, "count": len(trades)})
}
