package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"recipebox/internal/middleware"
	"recipebox/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 8
	maxTotalConns   = 5000
)

var (
	ErrHubClosed   = errors.New("hub is shut down")
	ErrServerLimit = errors.New("server connection limit reached")
	ErrUserLimit   = errors.New("user connection limit reached")
)

// Hub fans catalog events out to every connected websocket client.
type Hub struct {
	mu       sync.RWMutex
	watchers map[*Watcher]struct{}
	perUser  map[string]int
	closed   bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		watchers: make(map[*Watcher]struct{}),
		perUser:  make(map[string]int),
	}
}

// Register adds a connection for userID, enforcing per-user and global limits.
func (h *Hub) Register(userID string, conn *websocket.Conn) (*Watcher, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if len(h.watchers) >= maxTotalConns {
		return nil, ErrServerLimit
	}
	if h.perUser[userID] >= maxConnsPerUser {
		return nil, ErrUserLimit
	}

	w := newWatcher(h, conn, userID)
	h.watchers[w] = struct{}{}
	h.perUser[userID]++
	observability.WatchersConnected.Inc()
	return w, nil
}

// Unregister removes w and stops its writer. Safe to call more than once.
func (h *Hub) Unregister(w *Watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.watchers[w]; !ok {
		return
	}
	delete(h.watchers, w)
	w.stop()
	if h.perUser[w.userID]--; h.perUser[w.userID] <= 0 {
		delete(h.perUser, w.userID)
	}
	observability.WatchersConnected.Dec()
}

// Count returns the number of connected watchers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers)
}

// Broadcast queues payload on every watcher.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for w := range h.watchers {
		w.Deliver(payload)
	}
}

// StartWiring connects the notifier to this hub: through a Redis subscription
// when Redis is configured, otherwise as the notifier's local sink.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	if !n.HasRedis() {
		n.SetLocalSink(h.Broadcast)
		return nil
	}
	return n.StartSubscriber(ctx, h.Broadcast)
}

// Shutdown stops every watcher with a going-away frame and waits, until ctx
// is done, for their writers to send it and close the connection.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	watchers := h.watchers
	h.watchers = make(map[*Watcher]struct{})
	h.perUser = make(map[string]int)
	observability.WatchersConnected.Sub(float64(len(watchers)))
	h.mu.Unlock()

	goingAway := websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")
	for w := range watchers {
		w.stopWith(goingAway)
	}

	for w := range watchers {
		if w.conn == nil {
			continue
		}
		select {
		case <-w.exited:
		case <-ctx.Done():
			middleware.Logger.Warn("catalog watchers still open at shutdown deadline",
				slog.Int("watchers", len(watchers)))
			return ctx.Err()
		}
	}
	return nil
}
