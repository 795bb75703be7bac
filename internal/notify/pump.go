package notify

import (
	"context"
	"fmt"
	"log"

	"fxtrader/internal/events"
)

// Pump subscribes to the bus and forwards event payloads to a sink. It is
// the only bridge between internal events and the external channel; trading
// code never talks to the sink directly.
type Pump struct {
	Bus  *events.Bus
	Sink Sink
}

// Forwarded bus topics, in no particular order.
var forwarded = []events.Event{
	events.EventSignal,
	events.EventOrderPlaced,
	events.EventOrderRejected,
	events.EventMitigationReport,
	events.EventTradeClosed,
	events.EventMonitorBatch,
	events.EventHeartbeat,
	events.EventDailySummary,
}

// Start subscribes and forwards until the context is canceled.
func (p *Pump) Start(ctx context.Context) {
	for _, topic := range forwarded {
		ch, unsub := p.Bus.Subscribe(topic, 32)
		go func(topic events.Event, ch <-chan any, unsub func()) {
			defer unsub()
			for {
				select {
				case <-ctx.Done():
					return
				case payload, ok := <-ch:
					if !ok {
						return
					}
					if err := p.Sink.Send(fmt.Sprint(payload)); err != nil {
						log.Printf("notify: forward %s failed: %v", topic, err)
					}
				}
			}
		}(topic, ch, unsub)
	}
}
