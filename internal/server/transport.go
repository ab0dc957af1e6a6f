package server

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrTransportClosed indicates a send on a closed transport.
var ErrTransportClosed = errors.New("transport closed")

// wsTransport wraps a gorilla connection behind the session.Transport
// interface. Writes are serialized; gorilla allows at most one
// concurrent writer per connection.
type wsTransport struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	writeMu sync.Mutex

	mu     sync.RWMutex
	closed bool
}

func newWSTransport(conn *websocket.Conn, writeTimeout time.Duration) *wsTransport {
	return &wsTransport{
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

// Send writes one text frame to the peer.
func (t *wsTransport) Send(data []byte) error {
	t.mu.RLock()
	if t.closed {
		t.mu.RUnlock()
		return ErrTransportClosed
	}
	t.mu.RUnlock()

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

// Close shuts the connection down. Idempotent.
func (t *wsTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	// Best effort close frame so well-behaved peers see a clean close.
	t.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return t.conn.Close()
}

// Open reports whether the transport can still be written to.
func (t *wsTransport) Open() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return !t.closed
}
