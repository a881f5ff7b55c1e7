// Package stream pushes committed token events to websocket subscribers.
// Delivery is best-effort: a subscriber that falls behind is disconnected
// and is expected to catch up from Kafka or the outbox.
package stream

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"

	"tokengate/pkg/platform/events"
)

const (
	defaultBuffer = 64
	writeTimeout  = 10 * time.Second
	pingInterval  = 30 * time.Second
)

type subscriber struct {
	emitter *common.Address
	send    chan []byte
}

// Hub fans events out to websocket clients.
type Hub struct {
	mu       sync.RWMutex
	subs     map[*subscriber]struct{}
	buffer   int
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// Option configures the Hub.
type Option func(*Hub)

func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subs:   make(map[*subscriber]struct{}),
		buffer: defaultBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Notify implements events.Listener.
func (h *Hub) Notify(ctx context.Context, evs []events.Event) {
	var slow []*subscriber
	h.mu.RLock()
	for _, e := range evs {
		payload, err := events.Marshal(e)
		if err != nil {
			h.logger.WarnContext(ctx, "stream: encode event", "error", err)
			continue
		}
		for sub := range h.subs {
			if sub.emitter != nil && *sub.emitter != e.Emitter {
				continue
			}
			select {
			case sub.send <- payload:
			default:
				slow = append(slow, sub)
			}
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		h.drop(sub)
	}
}

// Subscribers returns the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// ServeHTTP upgrades the request and streams events until the client leaves.
// An optional ?emitter=0x... query restricts the stream to one contract.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var filter *common.Address
	if raw := r.URL.Query().Get("emitter"); raw != "" {
		if !common.IsHexAddress(raw) {
			http.Error(w, `{"error":"bad_request","error_description":"invalid emitter"}`, http.StatusBadRequest)
			return
		}
		addr := common.HexToAddress(raw)
		filter = &addr
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "stream: upgrade failed", "error", err)
		return
	}

	sub := &subscriber{emitter: filter, send: make(chan []byte, h.buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	go h.readLoop(conn, sub)
	h.writeLoop(conn, sub)
}

// readLoop discards client frames and detects disconnects.
func (h *Hub) readLoop(conn *websocket.Conn, sub *subscriber) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.drop(sub)
			return
		}
	}
}

func (h *Hub) writeLoop(conn *websocket.Conn, sub *subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case msg, ok := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.drop(sub)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(sub)
				return
			}
		}
	}
}

// drop removes sub and closes its queue exactly once.
func (h *Hub) drop(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.send)
}
