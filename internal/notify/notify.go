// Package notify delivers operational messages to an external channel. The
// channel is rate-limited on its side; a throttled send sleeps exactly the
// server-specified delay and retries exactly once.
package notify

import "log"

// Sink is a destination for plain-text notifications.
type Sink interface {
	Send(msg string) error
}

// Stdout logs messages locally. Used when no channel is configured.
type Stdout struct{}

func NewStdout() *Stdout { return &Stdout{} }

func (s *Stdout) Send(msg string) error {
	log.Printf("notify: %s", msg)
	return nil
}

// Multi fans a message out to every sink; delivery failures on one sink do
// not stop the others.
type Multi []Sink

func (m Multi) Send(msg string) error {
	var last error
	for _, s := range m {
		if err := s.Send(msg); err != nil {
			log.Printf("notify: sink failed: %v", err)
			last = err
		}
	}
	return last
}
