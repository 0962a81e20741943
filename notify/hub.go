// Package notify collects user-facing notifications (toasts) for the browser
// UI to poll.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Level string

const (
	LevelError   Level = "error"
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
)

// Notification is one toast. Publishing a notification whose ID matches a
// queued one replaces it.
type Notification struct {
	ID        string    `json:"id"`
	Seq       uint64    `json:"seq"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Duration  int       `json:"durationMs"`
	CreatedAt time.Time `json:"createdAt"`
}

// Hub keeps the most recent notifications. Publish never blocks on readers.
type Hub struct {
	mu    sync.Mutex
	seq   uint64
	limit int
	items []Notification
}

func NewHub(limit int) *Hub {
	if limit <= 0 {
		limit = 50
	}
	return &Hub{limit: limit}
}

// Notify implements gateway.Notifier.
func (h *Hub) Notify(n Notification) {
	h.Publish(n)
}

// Publish stores n, assigning an ID and sequence number.
func (h *Hub) Publish(n Notification) Notification {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.Duration == 0 {
		n.Duration = 5000
	}
	h.seq++
	n.Seq = h.seq

	for i, existing := range h.items {
		if existing.ID == n.ID {
			h.items = append(h.items[:i], h.items[i+1:]...)
			break
		}
	}
	h.items = append(h.items, n)
	if len(h.items) > h.limit {
		h.items = h.items[len(h.items)-h.limit:]
	}
	return n
}

// Since returns notifications with a sequence number greater than after,
// oldest first.
func (h *Hub) Since(after uint64) []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Notification, 0, len(h.items))
	for _, n := range h.items {
		if n.Seq > after {
			out = append(out, n)
		}
	}
	return out
}

func (h *Hub) Error(message string) Notification {
	return h.Publish(Notification{Level: LevelError, Message: message})
}

func (h *Hub) Success(message string) Notification {
	return h.Publish(Notification{Level: LevelSuccess, Message: message})
}
