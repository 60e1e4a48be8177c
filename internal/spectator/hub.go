package spectator

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/udisondev/tankarena/internal/snapshot"
)

const (
	writeWait      = 5 * time.Second
	sendBufferSize = 16
)

type subscriber struct {
	conn   *websocket.Conn
	remote string
	send   chan []byte
}

// Hub fans snapshots out to WebSocket spectators. Spectators are read-only;
// anything they send is discarded. A spectator whose buffer is full is
// disconnected instead of slowing the broadcaster down.
type Hub struct {
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[*subscriber]struct{}

	latest atomic.Pointer[[]byte]
	sent   atomic.Uint64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		subs: make(map[*subscriber]struct{}),
	}
}

// Handle upgrades a request to a spectator session. The latest snapshot, if
// any, is sent immediately.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("spectator upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sub := &subscriber{
		conn:   conn,
		remote: r.RemoteAddr,
		send:   make(chan []byte, sendBufferSize),
	}
	if latest := h.latest.Load(); latest != nil {
		sub.send <- *latest
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	slog.Info("spectator connected", "remote", sub.remote, "subscribers", n)

	go h.writeLoop(sub)
	h.readLoop(sub)
}

func (h *Hub) readLoop(sub *subscriber) {
	defer h.remove(sub)
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(sub *subscriber) {
	for msg := range sub.send {
		_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sub.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			slog.Debug("spectator write failed", "remote", sub.remote, "error", err)
			h.remove(sub)
			return
		}
		h.sent.Add(1)
	}
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = sub.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeWait))
	_ = sub.conn.Close()
}

// remove unregisters sub and ends its write loop. Safe to call repeatedly.
func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.send)
	slog.Info("spectator disconnected", "remote", sub.remote, "subscribers", len(h.subs))
}

// Broadcast encodes s once and queues it for every spectator.
func (h *Hub) Broadcast(s *snapshot.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding snapshot %d: %w", s.Frame, err)
	}
	h.latest.Store(&data)

	h.mu.Lock()
	var slow []*subscriber
	for sub := range h.subs {
		select {
		case sub.send <- data:
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range slow {
		slog.Warn("spectator too slow, disconnecting", "remote", sub.remote)
		h.remove(sub)
	}
	return nil
}

// Latest returns the last broadcast payload, nil before the first one.
func (h *Hub) Latest() []byte {
	if p := h.latest.Load(); p != nil {
		return *p
	}
	return nil
}

// Subscribers returns the number of connected spectators.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Sent returns the number of messages written to spectators.
func (h *Hub) Sent() uint64 {
	return h.sent.Load()
}

// Close disconnects every spectator.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		h.remove(sub)
	}
}
