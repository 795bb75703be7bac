package trader

import (
	"context"
	"log"
	"sync"
	"time"

	"fxtrader/internal/events"
	"fxtrader/internal/state"
)

// Scheduler drives trading cycles on a fixed cadence over the day's symbol
// set. Cycles run concurrently up to MaxParallel, with at most one in-flight
// cycle per symbol so a long hold never stacks duplicate positions.
type Scheduler struct {
	Trader  *Trader
	Stats   *state.DailyStats
	Bus     *events.Bus
	Symbols func(now time.Time) []string

	Interval    time.Duration
	MaxParallel int

	mu       sync.Mutex
	inFlight map[string]bool
}

// Run blocks until the context is canceled, then waits for in-flight cycles
// to finish so every open position gets closed.
func (s *Scheduler) Run(ctx context.Context) {
	if s.Interval <= 0 {
		s.Interval = 5 * time.Minute
	}
	if s.MaxParallel <= 0 {
		s.MaxParallel = 3
	}
	s.inFlight = make(map[string]bool)

	sem := make(chan struct{}, s.MaxParallel)
	var wg sync.WaitGroup

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	heartbeat := time.NewTicker(time.Hour)
	defer heartbeat.Stop()

	// Minute clock for the midnight reset and the end-of-day summary.
	clock := time.NewTicker(time.Minute)
	defer clock.Stop()

	s.pass(ctx, sem, &wg)
	for {
		select {
		case <-ctx.Done():
			log.Printf("scheduler: shutting down, waiting for in-flight cycles")
			wg.Wait()
			return
		case <-ticker.C:
			s.pass(ctx, sem, &wg)
		case <-heartbeat.C:
			if s.Bus != nil {
				s.Bus.Publish(events.EventHeartbeat, s.Stats.Heartbeat())
			}
		case now := <-clock.C:
			s.clockTick(now.UTC())
		}
	}
}

// pass launches one cycle per symbol that is not already in flight.
func (s *Scheduler) pass(ctx context.Context, sem chan struct{}, wg *sync.WaitGroup) {
	for _, symbol := range s.Symbols(time.Now().UTC()) {
		s.mu.Lock()
		if s.inFlight[symbol] {
			s.mu.Unlock()
			continue
		}
		s.inFlight[symbol] = true
		s.mu.Unlock()

		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			defer func() {
				s.mu.Lock()
				delete(s.inFlight, symbol)
				s.mu.Unlock()
			}()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			if err := s.Trader.RunCycle(ctx, symbol); err != nil && ctx.Err() == nil {
				log.Printf("scheduler: cycle %s: %v", symbol, err)
			}
		}(symbol)
	}
}

func (s *Scheduler) clockTick(now time.Time) {
	switch {
	case now.Hour() == 23 && now.Minute() == 59:
		if s.Bus != nil {
			s.Bus.Publish(events.EventDailySummary, s.Stats.Summary())
		}
	case now.Hour() == 0 && now.Minute() == 0:
		log.Printf("scheduler: midnight reset of daily tallies")
		s.Stats.Reset()
	}
}
