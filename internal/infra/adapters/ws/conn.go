package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Conn wraps a gorilla websocket connection with a write lock, since
// fan-out may write to the same connection from several goroutines.
type Conn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewConn(conn *websocket.Conn) *Conn {
	return &Conn{conn: conn}
}

func (c *Conn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn.WriteJSON(v)
}

func (c *Conn) Close() error {
	return c.conn.Close()
}
