package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/JonMunkholm/taxpro/internal/core"
)

// WebSocket message types
const (
	// Client -> Server
	MsgTypePing = "ping"

	// Server -> Client
	MsgTypeConnected    = "connected"
	MsgTypeNotification = "notification"
	MsgTypePong         = "pong"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = pongWait * 9 / 10
	sendBuffer  = 16
	maxReadSize = 512
)

// WSMessage is the envelope for every websocket message.
type WSMessage struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Hub pushes notifications to the browser tabs of each session.
// Delivery is best effort: a client that falls behind loses messages.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[string]map[*wsClient]struct{}
	closed  bool
}

type wsClient struct {
	conn *websocket.Conn
	send chan WSMessage
	done chan struct{}
	once sync.Once
}

func (c *wsClient) stop() {
	c.once.Do(func() { close(c.done) })
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:  logger,
		clients: make(map[string]map[*wsClient]struct{}),
	}
}

// Notifier returns a notifier that publishes to the session's clients.
func (h *Hub) Notifier(sessionID string) core.Notifier {
	return core.NotifierFunc(func(n core.Notification) {
		h.Publish(sessionID, WSMessage{
			Type:      MsgTypeNotification,
			Payload:   n,
			Timestamp: n.At.UnixMilli(),
		})
	})
}

// Publish queues msg for every client of the session without blocking and
// returns how many clients accepted it.
func (h *Hub) Publish(sessionID string, msg WSMessage) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for c := range h.clients[sessionID] {
		select {
		case c.send <- msg:
			n++
		default:
			h.logger.Debug("websocket: client too slow, message dropped",
				"session_id", sessionID,
				"type", msg.Type,
			)
		}
	}
	return n
}

// Clients returns the number of connected clients of the session.
func (h *Hub) Clients(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[sessionID])
}

// Disconnect closes every connection of the session.
func (h *Hub) Disconnect(sessionID string) {
	h.mu.Lock()
	clients := h.clients[sessionID]
	delete(h.clients, sessionID)
	h.mu.Unlock()

	for c := range clients {
		c.stop()
	}
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	all := h.clients
	h.clients = make(map[string]map[*wsClient]struct{})
	h.closed = true
	h.mu.Unlock()

	for _, clients := range all {
		for c := range clients {
			c.stop()
		}
	}
}

func (h *Hub) add(sessionID string, c *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = make(map[*wsClient]struct{})
	}
	h.clients[sessionID][c] = struct{}{}
	return true
}

func (h *Hub) remove(sessionID string, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[sessionID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.clients, sessionID)
		}
	}
}

// Serve upgrades the request and pumps messages until the client leaves or
// the session is disconnected.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, sessionID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &wsClient{
		conn: conn,
		send: make(chan WSMessage, sendBuffer),
		done: make(chan struct{}),
	}
	if !h.add(sessionID, c) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		return conn.Close()
	}
	defer h.remove(sessionID, c)

	select {
	case c.send <- WSMessage{Type: MsgTypeConnected, Timestamp: time.Now().UnixMilli()}:
	default:
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writePump(c)
	}()

	h.readPump(c, sessionID)
	c.stop()
	<-writerDone
	return nil
}

// readPump consumes client messages, answering pings, until the connection
// fails or the client is stopped.
func (h *Hub) readPump(c *wsClient, sessionID string) {
	c.conn.SetReadLimit(maxReadSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket: connection error", "session_id", sessionID, "error", err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != MsgTypePing {
			continue
		}
		select {
		case c.send <- WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()}:
		default:
		}
	}
}

// writePump is the connection's only writer.
func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.stop()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.stop()
				return
			}

		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// handleWebsocket attaches a browser tab to the session's notifications.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if err := s.hub.Serve(w, r, sess.ID); err != nil {
		// The upgrader has already written an HTTP error response.
		s.logger.Debug("websocket: upgrade failed", "session_id", sess.ID, "error", err)
	}
}
