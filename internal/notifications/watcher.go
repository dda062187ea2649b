package notifications

import (
	"log/slog"
	"sync"
	"time"

	"recipebox/internal/middleware"
	"recipebox/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
	pingInterval = idleTimeout * 9 / 10

	// Watchers only send control frames.
	maxInboundFrame = 512

	outboxSize = 64
)

var dropNotice = []byte(`{"type":"events_dropped","id":""}`)

// Watcher is one signed-in browser tab listening for catalog changes.
type Watcher struct {
	hub    *Hub
	conn   *websocket.Conn // nil in tests
	userID string
	outbox chan []byte

	done       chan struct{}
	exited     chan struct{}
	closeFrame []byte
	stopOnce   sync.Once
}

func newWatcher(hub *Hub, conn *websocket.Conn, userID string) *Watcher {
	return &Watcher{
		hub:    hub,
		conn:   conn,
		userID: userID,
		outbox: make(chan []byte, outboxSize),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
}

func (w *Watcher) UserID() string { return w.userID }

func (w *Watcher) stop() {
	w.stopWith(websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// stopWith ends the writer. The writer sends frame as the connection's only
// close message; the first call wins.
func (w *Watcher) stopWith(frame []byte) {
	w.stopOnce.Do(func() {
		w.closeFrame = frame
		close(w.done)
	})
}

// Serve runs the connection until the peer leaves or the hub drops it.
// writeLoop is the only goroutine that writes to conn; Serve itself reads.
func (w *Watcher) Serve() {
	go w.writeLoop()
	w.readLoop()
}

// readLoop discards inbound data frames; it exists so pong and close frames are handled.
func (w *Watcher) readLoop() {
	defer func() {
		w.hub.Unregister(w)
		_ = w.conn.Close()
	}()

	extend := func(string) error { return w.conn.SetReadDeadline(time.Now().Add(idleTimeout)) }
	w.conn.SetReadLimit(maxInboundFrame)
	w.conn.SetPongHandler(extend)
	_ = extend("")

	for {
		_, _, err := w.conn.ReadMessage()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			middleware.Logger.Warn("catalog watcher read failed",
				slog.String("user_id", w.userID),
				slog.String("error", err.Error()))
		}
		return
	}
}

func (w *Watcher) write(kind int, data []byte) error {
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return w.conn.WriteMessage(kind, data)
}

func (w *Watcher) writeLoop() {
	ping := time.NewTicker(pingInterval)
	defer func() {
		ping.Stop()
		_ = w.conn.Close()
		close(w.exited)
	}()

	for {
		var err error
		select {
		case <-w.done:
			_ = w.write(websocket.CloseMessage, w.closeFrame)
			return
		case msg := <-w.outbox:
			err = w.write(websocket.TextMessage, msg)
		case <-ping.C:
			err = w.write(websocket.PingMessage, nil)
		}
		if err != nil {
			return
		}
	}
}

// Deliver queues msg without blocking. When the outbox is full the event is
// dropped and, space permitting, an events_dropped notice tells the tab to reload.
func (w *Watcher) Deliver(msg []byte) bool {
	select {
	case w.outbox <- msg:
		return true
	default:
	}

	observability.WatcherDrops.WithLabelValues("outbox_full").Inc()
	middleware.Logger.Warn("catalog watcher outbox full, event dropped", slog.String("user_id", w.userID))
	select {
	case w.outbox <- dropNotice:
	default:
	}
	return false
}
