package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// client is one registered websocket connection. writes are serialised by mu.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// ConnectHook admits a client before it is registered. A non-nil error
// rejects the connection.
type ConnectHook func(r *http.Request, addr string) error

// Hub tracks connected clients by remote address and writes outbound
// envelopes to them.
//
// Concurrency: Register, Unregister and ServeHTTP are safe for concurrent use.
// Run must be called from exactly one goroutine.
type Hub struct {
	mu           sync.RWMutex
	clients      map[string]*client
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	onConnect    ConnectHook
	onDisconnect func(addr string)
	logger       *zap.Logger
}

// NewHub creates an empty Hub. A writeTimeout of zero disables write deadlines.
//
// Precondition: logger must be non-nil.
func NewHub(writeTimeout time.Duration, logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// SetHooks installs the callbacks run when a client connects and after it
// disconnects. Either may be nil.
//
// Precondition: called before the Hub serves requests.
func (h *Hub) SetHooks(onConnect ConnectHook, onDisconnect func(addr string)) {
	h.onConnect = onConnect
	h.onDisconnect = onDisconnect
}

// Register associates conn with addr, replacing and closing any previous
// connection for the same address.
func (h *Hub) Register(addr string, conn *websocket.Conn) {
	h.mu.Lock()
	old, ok := h.clients[addr]
	h.clients[addr] = &client{conn: conn}
	h.mu.Unlock()
	if ok {
		_ = old.conn.Close()
	}
	h.logger.Info("client connected", zap.String("addr", addr))
}

// Unregister closes and forgets the connection for addr, if any.
func (h *Hub) Unregister(addr string) {
	h.mu.Lock()
	c, ok := h.clients[addr]
	delete(h.clients, addr)
	h.mu.Unlock()
	if ok {
		_ = c.conn.Close()
		h.logger.Info("client disconnected", zap.String("addr", addr))
	}
}

// release unregisters addr only while it still maps to conn. It reports
// false when a newer connection has taken over addr.
func (h *Hub) release(addr string, conn *websocket.Conn) bool {
	h.mu.RLock()
	c, ok := h.clients[addr]
	h.mu.RUnlock()
	if !ok {
		return true
	}
	if c.conn != conn {
		return false
	}
	h.Unregister(addr)
	return true
}

// Len returns the number of registered clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a websocket, admits it through the
// connect hook, registers it under the request's remote address, and blocks
// reading until the client goes away. Inbound frames are discarded; movement
// input arrives through other systems.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("addr", r.RemoteAddr), zap.Error(err))
		return
	}
	addr := r.RemoteAddr
	if h.onConnect != nil {
		if err := h.onConnect(r, addr); err != nil {
			h.logger.Warn("client rejected", zap.String("addr", addr), zap.Error(err))
			msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error())
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			_ = conn.Close()
			return
		}
	}
	h.Register(addr, conn)
	defer func() {
		if h.release(addr, conn) && h.onDisconnect != nil {
			h.onDisconnect(addr)
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read failed", zap.String("addr", addr), zap.Error(err))
			}
			return
		}
	}
}

// Run drains out until ctx is cancelled or out is closed, writing each
// envelope's payload as a binary frame to every registered recipient.
//
// Postcondition: a write failure unregisters the failing client only.
func (h *Hub) Run(ctx context.Context, out <-chan Envelope) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case env, ok := <-out:
			if !ok {
				return nil
			}
			h.Deliver(env)
		}
	}
}

// Deliver writes env to each of its recipients. Recipients that are not
// connected are skipped.
func (h *Hub) Deliver(env Envelope) {
	for _, addr := range env.Recipients {
		h.mu.RLock()
		c, ok := h.clients[addr]
		h.mu.RUnlock()
		if !ok {
			h.logger.Debug("recipient not connected", zap.String("addr", addr), zap.String("kind", env.Kind))
			continue
		}
		if err := h.write(c, env.Payload); err != nil {
			h.logger.Warn("writing to client failed", zap.String("addr", addr), zap.String("kind", env.Kind), zap.Error(err))
			h.Unregister(addr)
		}
	}
}

func (h *Hub) write(c *client, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
			return err
		}
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, payload)
}
