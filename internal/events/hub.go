// Package events streams "body selected" events to websocket clients.
package events

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/litescript/ls-orrery/internal/engine"
	"github.com/litescript/ls-orrery/internal/logging"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	defaultBacklog = 16
)

// ErrClosed is returned by ServeHTTP once the hub has been closed.
var ErrClosed = errors.New("events: hub closed")

// Message is the JSON frame sent to clients.
type Message struct {
	Type      string           `json:"type"`
	Selection engine.Selection `json:"selection"`
}

// Options configures a Hub.
type Options struct {
	// Backlog is the per-client send buffer. A client that falls this far
	// behind has further messages dropped.
	Backlog int
	// OnClients is called with the client count whenever it changes.
	OnClients func(int)
	Logger    *logging.Logger
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans selections out to connected clients. BodySelected never blocks,
// so the hub can be subscribed directly to the engine.
type Hub struct {
	upgrader websocket.Upgrader
	backlog  int
	log      *logging.Logger
	onCount  func(int)

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	dropped uint64
}

var _ engine.SelectionSink = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub(opts Options) *Hub {
	if opts.Backlog <= 0 {
		opts.Backlog = defaultBacklog
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			// The stream is read-only local telemetry.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		backlog: opts.Backlog,
		log:     opts.Logger.With("events"),
		onCount: opts.OnClients,
		clients: make(map[*client]struct{}),
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many messages were dropped for slow clients.
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// BodySelected encodes the selection and queues it for every client.
func (h *Hub) BodySelected(sel engine.Selection) {
	data, err := json.Marshal(Message{Type: "selection", Selection: sel})
	if err != nil {
		h.log.Warn("encode selection %s: %v", sel.Identifier, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.dropped++
		}
	}
}

// ServeHTTP upgrades the request and streams selections until the client
// goes away or the hub is closed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		http.Error(w, ErrClosed.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.log.Debug("upgrade %s: %v", r.RemoteAddr, err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, h.backlog)}
	if !h.register(c) {
		conn.Close()
		return
	}
	h.log.Info("client connected: %s", r.RemoteAddr)

	go h.readPump(c)
	h.writePump(c)

	h.unregister(c)
	h.log.Info("client disconnected: %s", r.RemoteAddr)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.notify(n)
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		c.close()
	}
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.notify(n)
	}
}

func (h *Hub) notify(n int) {
	if h.onCount != nil {
		h.onCount(n)
	}
}

// readPump discards client frames and unregisters on the first read error.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every client and rejects new ones. Safe to call twice.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
	h.notify(0)
}
