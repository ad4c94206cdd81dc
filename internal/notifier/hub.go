package notifier

import (
	"sync"

	"github.com/euacreations/streamvault/internal/models"
	"github.com/rs/zerolog"
)

// Hub fans pipeline events out to in-process subscribers over bounded
// channels. Publish never blocks: events for a subscriber whose buffer is
// full are dropped.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]chan models.PipelineEvent
	nextID int
	buffer int
	closed bool
	log    zerolog.Logger
}

func NewHub(buffer int, log zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:   make(map[int]chan models.PipelineEvent),
		buffer: buffer,
		log:    log,
	}
}

// Subscribe registers an observer. The returned cancel func must be called
// to release the subscription; the channel is closed by it.
func (h *Hub) Subscribe() (<-chan models.PipelineEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan models.PipelineEvent, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (h *Hub) Publish(ev models.PipelineEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.log.Debug().
				Str("asset_id", ev.AssetID).
				Str("type", string(ev.Type)).
				Msg("dropping event for slow subscriber")
		}
	}
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
