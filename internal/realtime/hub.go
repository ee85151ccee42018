// Package realtime pushes notification payloads and admin log lines to
// connected websocket sessions. Delivery is fire-and-forget: there is no
// queueing and a session that is offline simply misses the frame.
package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Principal identifies a connected session for targeting.
type Principal struct {
	UserID     int64
	Role       string
	Department string
}

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 32
)

type session struct {
	principal Principal
	conn      *websocket.Conn
	send      chan []byte
}

// Hub owns all live notification sessions. One instance is created at
// process start and shared by the services that push.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*session]struct{}
	closed   bool
	logger   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		sessions: make(map[*session]struct{}),
		logger:   logger,
	}
}

// Register adopts an upgraded connection and blocks until it closes.
func (h *Hub) Register(principal Principal, conn *websocket.Conn) {
	s := &session{
		principal: principal,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.sessions[s] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("websocket session opened", "user_id", principal.UserID, "role", principal.Role)

	go s.writePump()
	s.readPump()

	h.unregister(s)
	h.logger.Info("websocket session closed", "user_id", principal.UserID)
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; ok {
		delete(h.sessions, s)
		close(s.send)
	}
	h.mu.Unlock()
}

// Broadcast marshals the payload once and queues it on every session the
// predicate matches. Sessions with a full buffer drop the frame.
func (h *Hub) Broadcast(match func(Principal) bool, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal websocket payload", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.sessions {
		if !match(s.principal) {
			continue
		}
		select {
		case s.send <- data:
		default:
			h.logger.Warn("websocket send buffer full, dropping frame", "user_id", s.principal.UserID)
		}
	}
}

func (h *Hub) SendToUser(userID int64, payload interface{}) {
	h.Broadcast(func(p Principal) bool { return p.UserID == userID }, payload)
}

func (h *Hub) SendToRole(role string, payload interface{}) {
	h.Broadcast(func(p Principal) bool { return p.Role == role }, payload)
}

func (h *Hub) SendToDepartment(department string, payload interface{}) {
	h.Broadcast(func(p Principal) bool { return p.Department == department }, payload)
}

// ConnectedCount reports the number of live sessions.
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close drops every session. Called on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for s := range h.sessions {
		delete(h.sessions, s)
		close(s.send)
	}
}

func (s *session) writePump() {
	for data := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			break
		}
	}
	s.conn.Close()
}

// readPump discards client frames; the channel is push-only. Returning on
// error is how a closed peer is detected.
func (s *session) readPump() {
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}
