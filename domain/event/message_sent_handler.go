package event

import (
	"log/slog"
	"sync"

	"heartline/errors"
)

// MessageSentHandler counts routed messages, split by live-read outcome.
// Useful for read-receipt ratio dashboards and telemetry.
type MessageSentHandler struct {
	log      *slog.Logger
	mu       sync.Mutex
	total    uint64
	liveRead uint64
}

func NewMessageSentHandler(log *slog.Logger) *MessageSentHandler {
	return &MessageSentHandler{log: log}
}

func (h *MessageSentHandler) Handle(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch event.Type {
	case MessageSentType:
		payload, ok := event.Payload.(MessageSent)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.total++
		if payload.LiveRead {
			h.liveRead++
		}
	}
}

// Totals returns the counters for assertions and stats scraping.
func (h *MessageSentHandler) Totals() (total, liveRead uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.total, h.liveRead
}
