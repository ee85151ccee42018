package realtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// LogStream mirrors portal activity lines to connected administrators.
// Lines are plain text and are not buffered or replayed.
type LogStream struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	logger *slog.Logger
}

func NewLogStream(logger *slog.Logger) *LogStream {
	return &LogStream{
		conns:  make(map[*websocket.Conn]struct{}),
		logger: logger,
	}
}

// Attach adopts an upgraded admin connection and blocks until it closes.
// The greeting goes out before the connection is registered so it can
// never interleave with a broadcast from SendLog.
func (l *LogStream) Attach(conn *websocket.Conn) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, []byte("connected to helpdesk activity stream")); err != nil {
		conn.Close()
		return
	}

	l.mu.Lock()
	l.conns[conn] = struct{}{}
	l.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	l.detach(conn)
}

func (l *LogStream) detach(conn *websocket.Conn) {
	l.mu.Lock()
	delete(l.conns, conn)
	l.mu.Unlock()
	conn.Close()
}

// SendLog writes the line to every connected admin. Failing connections
// are dropped on the spot.
func (l *LogStream) SendLog(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for conn := range l.conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			delete(l.conns, conn)
			conn.Close()
		}
	}
}

// ConnectedCount reports the number of attached connections.
func (l *LogStream) ConnectedCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.conns)
}

// Close drops every connection. Called on shutdown.
func (l *LogStream) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for conn := range l.conns {
		delete(l.conns, conn)
		conn.Close()
	}
}
