package ws

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/fleetduel/fleetduel/internal/models"
)

// Client is one connected principal. Writes are serialised by the mutex so
// pushes from the session timers, the queue sweeper, and the read loop never
// interleave on the socket.
type Client struct {
	Principal models.Principal

	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
}

func newClient(p models.Principal, conn *websocket.Conn) *Client {
	return &Client{Principal: p, conn: conn}
}

// Send pushes one message, dropping it silently once the socket is closed.
func (c *Client) Send(m Msg) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if err := c.conn.WriteJSON(m); err != nil {
		log.Printf("ws: write error to %s: %v", c.Principal.ID, err)
	}
}

// Alive reports whether the socket is still open. The queue uses it to skip
// dead entries when pairing.
func (c *Client) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Expire notifies the client that its queue slot timed out. Called by the
// queue sweeper; the socket stays open.
func (c *Client) Expire() {
	c.Send(Msg{Type: "queue_left", Data: map[string]string{"reason": "expired"}})
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	_ = c.conn.Close()
}
