package wsutils

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// ThreadSafeWriter serializes writes on a websocket conn. Gorilla allows at
// most one concurrent writer, but room broadcasts fan out from many
// goroutines onto the same socket.
type ThreadSafeWriter struct {
	*websocket.Conn
	sync.Mutex
}

func (t *ThreadSafeWriter) WriteJSON(val any) error {
	t.Lock()
	defer t.Unlock()

	t.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.Conn.WriteJSON(val)
}

func (t *ThreadSafeWriter) ReadJSON(val any) error {
	return t.Conn.ReadJSON(val)
}

// CloseWithMessage sends a close frame with the given reason before it
// tears the conn down. A slow peer cannot block it longer than writeWait.
func (t *ThreadSafeWriter) CloseWithMessage(code int, reason string) error {
	t.Lock()
	defer t.Unlock()

	t.Conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(writeWait),
	)
	return t.Conn.Close()
}

func (t *ThreadSafeWriter) Close() error {
	return t.Conn.Close()
}

func NewThreadSafeWriter(conn *websocket.Conn) *ThreadSafeWriter {
	return &ThreadSafeWriter{
		Conn: conn,
	}
}
