package telemetry

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/opd-ai/go-flightsim/pkg/logging"
)

const (
	observerBuffer = 64
	pingInterval   = 30 * time.Second
	maxInboundSize = 512
)

// observer is one connected websocket viewer.
type observer struct {
	conn *websocket.Conn
	send chan []byte
	addr string
}

// Hub is a renderer that broadcasts every presented frame to websocket
// observers. An observer whose buffer fills is dropped rather than
// allowed to stall the frame loop.
type Hub struct {
	frameBuilder

	upgrader     websocket.Upgrader
	logger       *logging.Logger
	writeTimeout time.Duration
	limiter      *connectLimiter

	mu        sync.Mutex
	observers map[*observer]struct{}
	last      []byte
}

// NewHub creates a hub with no observers
func NewHub(logger *logging.Logger, writeTimeout time.Duration) *Hub {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if writeTimeout <= 0 {
		writeTimeout = time.Second
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:       logger,
		writeTimeout: writeTimeout,
		observers:    make(map[*observer]struct{}),
	}
}

// Present encodes the finished frame and queues it for every observer
func (h *Hub) Present() {
	frame := h.finish()
	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error(context.Background(), "failed to encode telemetry frame", err, "seq", frame.Seq)
		return
	}
	h.broadcast(data)
}

func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = data
	for o := range h.observers {
		select {
		case o.send <- data:
		default:
			h.logger.Warn(context.Background(), "dropping slow telemetry observer", "remote_addr", o.addr)
			h.removeLocked(o)
		}
	}
}

// SetConnectLimit caps websocket upgrades at limit per window for each
// remote host. A non-positive limit removes the cap.
func (h *Hub) SetConnectLimit(limit int, window time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit <= 0 || window <= 0 {
		h.limiter = nil
		return
	}
	h.limiter = newConnectLimiter(limit, window)
}

// ObserverCount returns the number of connected observers
func (h *Hub) ObserverCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers)
}

// ServeHTTP upgrades the request to a websocket and streams frames to it.
// A new observer first receives the latest frame, if any.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	limiter := h.limiter
	h.mu.Unlock()
	if limiter != nil {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !limiter.allow(host) {
			h.logger.Warn(r.Context(), "telemetry connect rate exceeded", "remote_addr", r.RemoteAddr)
			http.Error(w, "too many connections", http.StatusTooManyRequests)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "telemetry upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}

	o := &observer{conn: conn, send: make(chan []byte, observerBuffer), addr: r.RemoteAddr}
	h.mu.Lock()
	h.observers[o] = struct{}{}
	if h.last != nil {
		o.send <- h.last
	}
	h.mu.Unlock()
	h.logger.Info(r.Context(), "telemetry observer connected", "remote_addr", o.addr)

	go h.writePump(o)
	h.readPump(o)
}

// readPump discards inbound messages and notices when the peer goes away
func (h *Hub) readPump(o *observer) {
	defer h.remove(o)
	o.conn.SetReadLimit(maxInboundSize)
	for {
		if _, _, err := o.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(o *observer) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		o.conn.Close()
	}()

	for {
		select {
		case data, ok := <-o.send:
			o.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if !ok {
				o.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := o.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.remove(o)
				return
			}
		case <-ticker.C:
			o.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := o.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(o)
				return
			}
		}
	}
}

func (h *Hub) remove(o *observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(o)
}

// removeLocked unregisters o and closes its queue exactly once
func (h *Hub) removeLocked(o *observer) {
	if _, ok := h.observers[o]; !ok {
		return
	}
	delete(h.observers, o)
	close(o.send)
}

// Close disconnects every observer
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for o := range h.observers {
		h.removeLocked(o)
	}
}
