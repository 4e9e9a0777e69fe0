package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client wraps one authenticated websocket connection. Writes are
// serialized: gorilla connections allow only a single concurrent writer and
// pushes may arrive from other users' handlers at any time.
type Client struct {
	conn     *websocket.Conn
	userID   string
	username string
	info     ConnInfo

	writeMu sync.Mutex
}

func newClient(conn *websocket.Conn, userID, username string, info ConnInfo) *Client {
	return &Client{conn: conn, userID: userID, username: username, info: info}
}

// UserID returns the external identity bound to the connection.
func (c *Client) UserID() string {
	return c.userID
}

// SendEvent writes one event frame to the connection.
func (c *Client) SendEvent(event string, data any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(ServerEvent{Event: event, Data: data})
}

// Close tears down the underlying transport.
func (c *Client) Close() error {
	return c.conn.Close()
}
