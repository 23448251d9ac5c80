package event

import (
	"log/slog"
	"sync"

	"heartline/errors"
)

// CensoredHandler tracks censorship hits per word and per language.
type CensoredHandler struct {
	mu      sync.Mutex
	log     *slog.Logger
	counter uint64
	hit     map[string]uint64
	lang    map[string]uint64
}

func NewCensoredHandler(log *slog.Logger) *CensoredHandler {
	return &CensoredHandler{
		log:  log,
		hit:  make(map[string]uint64),
		lang: make(map[string]uint64),
	}
}

func (h *CensoredHandler) Handle(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch event.Type {
	case CensorshipHit:
		payload, ok := event.Payload.(Censored)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.counter++
		h.hit[payload.Word]++
		if payload.Language != "" {
			h.lang[payload.Language]++
		}
	}
}

func (h *CensoredHandler) Hits() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counter
}
