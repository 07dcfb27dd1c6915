package notify

import (
	"context"
	"log/slog"
	"sync"

	v1 "github.com/beacon-lab/project-beacon/internal/api/v1"
)

// Update is one push notification as observers receive it.
type Update struct {
	AppID     string    `json:"app_id"`
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Status    v1.Status `json:"status"`
}

// Hub is an in-process fan-out Publisher. Observers subscribe per app and
// receive updates on a buffered channel. A slow observer loses updates
// rather than blocking ingestion.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string][]chan Update
	buffer int
}

// NewHub creates a hub with the given per-subscriber channel buffer.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:   make(map[string][]chan Update),
		buffer: buffer,
	}
}

// Subscribe registers an observer for one app's updates. The returned
// cancel function removes the subscription and closes the channel.
func (h *Hub) Subscribe(appID string) (<-chan Update, func()) {
	ch := make(chan Update, h.buffer)

	h.mu.Lock()
	h.subs[appID] = append(h.subs[appID], ch)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		channels := h.subs[appID]
		for i, c := range channels {
			if c == ch {
				h.subs[appID] = append(channels[:i], channels[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// Notify fans the stored record out to the app's subscribers without
// blocking: full channels are skipped.
func (h *Hub) Notify(ctx context.Context, appID string, record *v1.ValidatedEvent) error {
	update := Update{
		AppID:     appID,
		EventID:   record.ID,
		EventType: record.EventType,
		Status:    record.Status,
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[appID] {
		select {
		case ch <- update:
		default:
			slog.Debug("[Notify] Subscriber buffer full, dropping update",
				"app_id", appID, "event_id", record.ID)
		}
	}
	return nil
}
