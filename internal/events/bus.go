// Package events carries the in-process notifications between the trading
// cycle, the position monitor, and the outbound channel pump.
package events

import "sync"

// Bus is an in-process fan-out broker. Publishing never blocks: a subscriber
// that stops draining its channel loses messages instead of stalling the
// trading path.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	topics map[Event]map[int]chan any
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{topics: make(map[Event]map[int]chan any)}
}

// Subscribe registers a buffered listener for one topic. The returned cancel
// function closes the channel and removes the subscription.
func (b *Bus) Subscribe(e Event, buffer int) (<-chan any, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.topics[e] == nil {
		b.topics[e] = make(map[int]chan any)
	}
	b.nextID++
	id := b.nextID
	ch := make(chan any, buffer)
	b.topics[e][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.topics[e][id]; ok {
			delete(b.topics[e], id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers payload to every current subscriber of the topic. Slow
// subscribers are skipped, not waited on.
func (b *Bus) Publish(e Event, payload any) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.topics[e] {
		select {
		case ch <- payload:
		default:
		}
	}
}
