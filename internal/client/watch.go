package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"recipebox/internal/middleware"
	"recipebox/internal/notifications"

	"github.com/gorilla/websocket"
)

// ErrNotSignedIn is returned by Watch when the client holds no session token.
var ErrNotSignedIn = errors.New("client: not signed in")

// Watch opens the catalog websocket and streams events until ctx is done or the
// server closes the connection. The returned channel is closed when the stream ends.
func (c *Client) Watch(ctx context.Context) (<-chan notifications.CatalogEvent, error) {
	token := c.Token()
	if token == "" {
		return nil, ErrNotSignedIn
	}

	target := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/api/ws"
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, header)
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("catalog websocket: status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("catalog websocket: %w", err)
	}

	events := make(chan notifications.CatalogEvent, 16)
	stop := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
		case <-stop:
		}
	}()

	go func() {
		defer close(events)
		defer close(stop)
		defer func() { _ = conn.Close() }()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && ctx.Err() == nil {
					middleware.Logger.Warn("catalog websocket closed", slog.String("error", err.Error()))
				}
				return
			}

			var ev notifications.CatalogEvent
			if err := json.Unmarshal(msg, &ev); err != nil || ev.Type == "" {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}
