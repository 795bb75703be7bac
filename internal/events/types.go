package events

// Event identifies a bus topic.
type Event string

const (
	EventSignal           Event = "signal.generated"
	EventOrderPlaced      Event = "order.placed"
	EventOrderRejected    Event = "order.rejected"
	EventMitigationReport Event = "order.mitigation"
	EventTradeClosed      Event = "trade.closed"
	EventMonitorBatch     Event = "monitor.batch"
	EventHeartbeat        Event = "status.heartbeat"
	EventDailySummary     Event = "status.daily_summary"
)
