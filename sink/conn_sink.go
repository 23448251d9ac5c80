// Package sink provides EventSink implementations bridging the hub to
// transports and projections.
package sink

import (
	"context"
	"sync"

	"heartline/domain/event"
)

// ConnSink is the delivery channel of one live connection. The routing side
// never blocks on it: the transport's write pump drains Events at its own
// pace, and a saturated buffer drops rather than stalls the hub.
type ConnSink struct {
	Events chan event.DomainEvent

	// OnDrop is invoked for every event lost to a full buffer.
	// Set before the sink is handed to the hub; nil means drop silently.
	OnDrop func()

	mu     sync.RWMutex
	closed bool
}

func NewConnSink(bufferSize int) *ConnSink {
	return &ConnSink{Events: make(chan event.DomainEvent, bufferSize)}
}

// Consume is called by the router and fan-out workers.
// It hands the event to the write pump owning the socket.
// A disconnect may race with an in-flight broadcast to the same connection,
// so consuming into a closed sink is a silent no-op, never a panic.
func (s *ConnSink) Consume(ctx context.Context, e event.DomainEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}

	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		// Backpressure: a slow client loses events rather than
		// blocking every other connection.
		if s.OnDrop != nil {
			s.OnDrop()
		}
		return nil
	}
}

// Close releases the write pump. Safe to call more than once.
func (s *ConnSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.Events)
}
