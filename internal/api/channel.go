package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hearthlabs/hearth-core/internal/command"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/config"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/logging"
	"github.com/hearthlabs/hearth-core/internal/peripheral"
)

// Client-facing protocol messages.
const (
	invalidCommandMessage  = "Invalid command."
	processingErrorMessage = "Error processing command."
	broadcastEventType     = "broadcast"
	peripheralAddedEvent   = "peripheralAdded"
	peripheralRemovedEvent = "peripheralRemoved"
)

// errChannelIdle is returned by SendCorrelated when no client holds the
// channel.
var errChannelIdle = errors.New("api: monitor channel not connected")

// CorrelatedFrame is an inbound command carrying a client-chosen
// correlation ID. Frames missing either field are treated as legacy
// plain-text commands.
type CorrelatedFrame struct {
	CorrelationID string `json:"correlationId"`
	Data          string `json:"data"`
}

// CorrelatedReply is the response to a correlated frame.
type CorrelatedReply struct {
	CorrelationID string `json:"correlationId"`
	Data          string `json:"data"`
	Timestamp     int64  `json:"timestamp"`
}

// EventFrame is an unsolicited server-to-client message.
type EventFrame struct {
	Type      string `json:"type"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware
		return true
	},
}

// Channel is the hub's monitor connection: a single duplex WebSocket
// that carries the correlated command protocol inbound and lifecycle
// broadcasts outbound. Only one client may hold the channel at a time;
// a second connection attempt is rejected until the first disconnects.
type Channel struct {
	cfg    config.WebSocketConfig
	router *command.Router
	logger *logging.Logger

	mu   sync.Mutex
	conn *websocket.Conn
	done chan struct{}

	// runCtx scopes command execution; commands must not inherit the
	// handshake request context, which dies when the handler returns.
	runCtx context.Context
}

// NewChannel creates an unconnected channel.
func NewChannel(cfg config.WebSocketConfig, router *command.Router, logger *logging.Logger) *Channel {
	return &Channel{
		cfg:    cfg,
		router: router,
		logger: logger,
	}
}

// Run blocks until the context is cancelled, then disconnects the
// current client if one is attached.
func (c *Channel) Run(ctx context.Context) {
	c.mu.Lock()
	c.runCtx = ctx
	c.mu.Unlock()

	<-ctx.Done()
	c.Disconnect()
}

func (c *Channel) commandContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runCtx != nil {
		return c.runCtx
	}
	return context.Background()
}

// handleChannel upgrades the HTTP connection and attaches it to the
// channel. When a ticket secret is configured the handshake must carry
// a valid ticket query parameter.
func (s *Server) handleChannel(w http.ResponseWriter, r *http.Request) {
	if s.secCfg.TicketSecret != "" {
		if err := s.validateTicket(r.URL.Query().Get("ticket")); err != nil {
			writeUnauthorized(w, "invalid or missing ticket")
			return
		}
	}
	s.channel.Accept(w, r)
}

// Accept takes ownership of the connection. If a client is already
// attached the request is rejected with 409 before upgrading.
func (c *Channel) Accept(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		c.logger.Warn("monitor channel busy, rejecting connection", "remote", r.RemoteAddr)
		writeConflict(w, "monitor channel already in use")
		return
	}
	c.mu.Unlock()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	// The slot was not held across the upgrade, so re-check for a
	// racing connect before claiming it.
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		//nolint:errcheck // Best-effort close notification
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "channel already in use"))
		conn.Close()
		return
	}
	done := make(chan struct{})
	c.conn = conn
	c.done = done
	c.mu.Unlock()

	c.logger.Info("monitor client connected", "remote", r.RemoteAddr)

	go c.pingLoop(conn, done)
	go c.readLoop(c.commandContext(), conn)
}

// readLoop consumes inbound frames until the connection drops.
func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer c.release(conn)

	if c.cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(int64(c.cfg.MaxMessageSize))
	}
	wait := c.readWait()
	conn.SetReadDeadline(time.Now().Add(wait)) //nolint:errcheck
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("monitor read error", "error", err)
			} else {
				c.logger.Debug("monitor client disconnected", "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wait)) //nolint:errcheck

		if !c.handleFrame(ctx, conn, message) {
			return
		}
	}
}

// handleFrame executes one inbound command frame. It reports false when
// the connection is no longer usable and the loop must exit.
func (c *Channel) handleFrame(ctx context.Context, conn *websocket.Conn, raw []byte) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("command processing panic", "panic", r)
			c.write(conn, websocket.TextMessage, []byte(processingErrorMessage)) //nolint:errcheck
			ok = false
		}
	}()

	// Data decodes as a pointer so a frame carrying only a correlation
	// ID still falls through to legacy handling.
	var frame struct {
		CorrelationID string  `json:"correlationId"`
		Data          *string `json:"data"`
	}
	if err := json.Unmarshal(raw, &frame); err == nil && frame.CorrelationID != "" && frame.Data != nil {
		result := c.router.Handle(ctx, *frame.Data)
		if result == "" {
			result = invalidCommandMessage
		}
		return c.SendCorrelated(frame.CorrelationID, result) == nil
	}

	// Legacy clients send the bare command and expect bare text back.
	result := c.router.Handle(ctx, string(raw))
	if result == "" {
		result = invalidCommandMessage
	}
	return c.write(conn, websocket.TextMessage, []byte(result)) == nil
}

// SendCorrelated sends a correlated reply to the attached client.
func (c *Channel) SendCorrelated(correlationID, data string) error {
	reply, err := json.Marshal(CorrelatedReply{
		CorrelationID: correlationID,
		Data:          data,
		Timestamp:     time.Now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encoding correlated reply: %w", err)
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errChannelIdle
	}
	return c.write(conn, websocket.TextMessage, reply)
}

// Broadcast pushes an unsolicited event frame to the attached client.
// It is a no-op when no client is connected.
func (c *Channel) Broadcast(eventType string, data any) {
	frame, err := json.Marshal(EventFrame{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		c.logger.Error("failed to encode broadcast frame", "error", err)
		return
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}
	if err := c.write(conn, websocket.TextMessage, frame); err != nil {
		c.logger.Debug("broadcast write failed", "error", err)
	}
}

// Announce pushes a generic broadcast frame to the attached client.
func (c *Channel) Announce(data any) {
	c.Broadcast(broadcastEventType, data)
}

// PeripheralAdded implements the registry notifier contract.
func (c *Channel) PeripheralAdded(id string, kind peripheral.Kind) {
	c.Broadcast(peripheralAddedEvent, map[string]any{"uuid": id, "kind": kind})
}

// PeripheralRemoved implements the registry notifier contract.
func (c *Channel) PeripheralRemoved(id string) {
	c.Broadcast(peripheralRemovedEvent, map[string]any{"uuid": id})
}

// IsConnected reports whether a monitor client is attached.
func (c *Channel) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Disconnect closes the current connection, if any.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		conn.WriteControl(websocket.CloseMessage, //nolint:errcheck
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
	}
}

// pingLoop keeps the connection alive with protocol-level pings.
func (c *Channel) pingLoop(conn *websocket.Conn, done chan struct{}) {
	interval := time.Duration(c.cfg.PingInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.write(conn, websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// write serialises outbound frames; reply, broadcast and ping writers
// all funnel through here.
func (c *Channel) write(conn *websocket.Conn, messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(c.writeWait())) //nolint:errcheck
	return conn.WriteMessage(messageType, data)
}

// release detaches the connection if it still owns the channel slot.
func (c *Channel) release(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
		if c.done != nil {
			close(c.done)
			c.done = nil
		}
	}
	c.mu.Unlock()
	conn.Close()
	c.logger.Info("monitor channel released")
}

func (c *Channel) readWait() time.Duration {
	ping := time.Duration(c.cfg.PingInterval) * time.Second
	pong := time.Duration(c.cfg.PongTimeout) * time.Second
	if ping <= 0 {
		ping = 30 * time.Second
	}
	if pong <= 0 {
		pong = 10 * time.Second
	}
	return ping + pong
}

func (c *Channel) writeWait() time.Duration {
	pong := time.Duration(c.cfg.PongTimeout) * time.Second
	if pong <= 0 {
		pong = 10 * time.Second
	}
	return pong
}
