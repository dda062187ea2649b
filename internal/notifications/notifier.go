// Package notifications delivers catalog change events to websocket clients.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"recipebox/internal/middleware"
	"recipebox/internal/observability"

	"github.com/redis/go-redis/v9"
)

// CatalogChannel is the Redis channel carrying catalog events.
const CatalogChannel = "recipebox:catalog"

// EventType names a catalog mutation.
type EventType string

const (
	IngredientCreated EventType = "ingredient.created"
	IngredientDeleted EventType = "ingredient.deleted"
	RecipeCreated     EventType = "recipe.created"
	RecipeUpdated     EventType = "recipe.updated"
	RecipeDeleted     EventType = "recipe.deleted"
)

// CatalogEvent tells clients that an entity changed and their cached lists are stale.
type CatalogEvent struct {
	Type EventType `json:"type"`
	ID   string    `json:"id"`
}

// Publisher is implemented by anything that can announce catalog events.
type Publisher interface {
	Publish(ctx context.Context, ev CatalogEvent) error
}

// Notifier publishes catalog events into Redis. Without Redis it hands
// payloads straight to the local sink registered by the hub.
type Notifier struct {
	rdb *redis.Client

	mu    sync.RWMutex
	local func(payload []byte)
}

// NewNotifier creates a new Notifier instance using the provided Redis client (may be nil).
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// HasRedis reports whether events travel through Redis.
func (n *Notifier) HasRedis() bool {
	return n != nil && n.rdb != nil
}

// SetLocalSink registers the in-process receiver used when Redis is absent.
func (n *Notifier) SetLocalSink(fn func(payload []byte)) {
	n.mu.Lock()
	n.local = fn
	n.mu.Unlock()
}

// Publish sends a catalog event. A nil Notifier is a no-op.
func (n *Notifier) Publish(ctx context.Context, ev CatalogEvent) error {
	if n == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal catalog event: %w", err)
	}
	observability.CatalogEvents.WithLabelValues(string(ev.Type)).Inc()

	if n.rdb == nil {
		n.mu.RLock()
		local := n.local
		n.mu.RUnlock()
		if local != nil {
			local(payload)
		}
		return nil
	}
	return n.rdb.Publish(ctx, CatalogChannel, payload).Err()
}

// StartSubscriber subscribes to the catalog channel and calls onMessage for each
// payload until ctx is cancelled. It returns once the subscription is confirmed.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(payload []byte)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, CatalogChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", CatalogChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in catalog subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage([]byte(msg.Payload))
				}()
			}
		}
	}()

	return nil
}
