// Package bridge relays picked parts to the dashboard panels over WebSocket
// and accepts the title/focus label the dashboard shows over the viewer.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/anatomy-viewer/internal/logger"
)

// Message types on the wire.
const (
	TypePartInfo  = "part.info"
	TypePartMedia = "part.media"
	TypeLabel     = "viewer.label"
)

const (
	writeWait    = 2 * time.Second
	shutdownWait = 3 * time.Second
	// sendQueue is how many messages a slow client may fall behind before
	// further messages to it are dropped.
	sendQueue = 16
)

// ErrBacklog is reported when a client's send queue is full and a message
// was dropped for it.
var ErrBacklog = errors.New("client send queue full")

// Message is the JSON envelope exchanged with dashboard clients.
type Message struct {
	Type   string `json:"type"`
	PartID int    `json:"partId,omitempty"`
	Query  string `json:"query,omitempty"`
	Title  string `json:"title,omitempty"`
	Focus  string `json:"focus,omitempty"`
}

// LabelFunc receives a title/focus label. It is called from connection
// goroutines.
type LabelFunc func(title, focus string)

// client is one dashboard connection. Only its writer goroutine writes to conn.
type client struct {
	conn *websocket.Conn
	send chan []byte
	stop sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn, send: make(chan []byte, sendQueue)}
}

// enqueue never blocks.
func (c *client) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close ends the writer, which says goodbye and closes the connection.
func (c *client) close() {
	c.stop.Do(func() { close(c.send) })
}

func (c *client) remote() string {
	return c.conn.RemoteAddr().String()
}

// Hub broadcasts pick messages to every connected client. Broadcasting
// only queues, so callers on the render thread never wait on a socket.
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu       sync.Mutex
	clients  map[*client]struct{}
	lastInfo []byte
	onLabel  LabelFunc
	server   *http.Server
}

// NewHub creates a hub with no clients.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			// The dashboard is served from another origin during development.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:     logger.Named("bridge"),
		clients: make(map[*client]struct{}),
	}
}

// OnLabel registers the label callback.
func (h *Hub) OnLabel(fn LabelFunc) {
	h.mu.Lock()
	h.onLabel = fn
	h.mu.Unlock()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// PartInfoRequested broadcasts a part.info message.
func (h *Hub) PartInfoRequested(id int) error {
	data, err := json.Marshal(Message{Type: TypePartInfo, PartID: id})
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.lastInfo = data
	h.mu.Unlock()
	return h.broadcast(data)
}

// PartMediaRequested broadcasts a part.media message.
func (h *Hub) PartMediaRequested(query string, id int) error {
	data, err := json.Marshal(Message{Type: TypePartMedia, PartID: id, Query: query})
	if err != nil {
		return err
	}
	return h.broadcast(data)
}

// broadcast queues data for every client. A client whose queue is full
// misses the message.
func (h *Hub) broadcast(data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var errs error
	for c := range h.clients {
		if !c.enqueue(data) {
			h.log.Warn("dropping message for slow client", zap.String("remote", c.remote()))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", c.remote(), ErrBacklog))
		}
	}
	return errs
}

// writePump drains the client's queue until it is closed or a write fails.
func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Warn("websocket write failed", zap.String("remote", c.remote()), zap.Error(err))
			return
		}
	}
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "viewer closing")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// ServeHTTP upgrades the request and serves one client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := newClient(conn)

	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.lastInfo != nil {
		// Bring a late panel up to date with the current selection.
		c.enqueue(h.lastInfo)
	}
	h.mu.Unlock()
	go h.writePump(c)
	h.log.Info("dashboard client connected", zap.String("remote", c.remote()), zap.Int("clients", h.Clients()))

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		c.close()
		h.log.Info("dashboard client disconnected", zap.String("remote", c.remote()))
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.log.Debug("malformed client message", zap.Error(err))
			continue
		}
		h.handle(msg)
	}
}

func (h *Hub) handle(msg Message) {
	switch msg.Type {
	case TypeLabel:
		h.mu.Lock()
		fn := h.onLabel
		h.mu.Unlock()
		if fn != nil {
			fn(msg.Title, msg.Focus)
		}
	default:
		h.log.Debug("ignoring client message", zap.String("type", msg.Type))
	}
}

// Serve listens on addr with the hub mounted at /ws until ctx is cancelled.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	h.mu.Lock()
	h.server = srv
	h.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		h.log.Info("bridge listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("bridge listen %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Close disconnects every client and stops the server if Serve started one.
func (h *Hub) Close() error {
	h.mu.Lock()
	srv := h.server
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
	h.mu.Unlock()

	if srv != nil {
		return srv.Close()
	}
	return nil
}
