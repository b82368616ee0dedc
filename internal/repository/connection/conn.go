package connection

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// WriteTimeout bounds a single write. A peer that stops reading fails its
// write after this long instead of holding the writer.
const WriteTimeout = 10 * time.Second

// Socket is the part of *websocket.Conn a Conn needs.
type Socket interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Conn is a websocket bound to a session. Writes are serialized because the
// tick loop, the waveform loop and request handlers all write concurrently.
type Conn struct {
	id        string
	sessionID string
	socket    Socket

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func NewConn(sessionID string, socket Socket) *Conn {
	return &Conn{
		id:        uuid.NewString(),
		sessionID: sessionID,
		socket:    socket,
	}
}

func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) SessionID() string {
	return c.sessionID
}

// ReadJSON must only be called from the connection's read loop.
func (c *Conn) ReadJSON(v any) error {
	return c.socket.ReadJSON(v)
}

func (c *Conn) WriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.socket.SetWriteDeadline(time.Now().Add(WriteTimeout)); err != nil {
		return err
	}

	return c.socket.WriteJSON(v)
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.socket.Close()
	})

	return c.closeErr
}
