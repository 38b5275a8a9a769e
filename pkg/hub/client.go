package hub

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-arucogl/pkg/debug"
	"github.com/teslashibe/go-arucogl/pkg/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// Viewers only send small control messages.
	maxMessageSize = 64 * 1024

	// Frames queued per viewer before it counts as slow.
	sendBuffer = 256
)

// Client is one viewer connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan Message

	// mu guards closed and the close of send against Send.
	mu     sync.Mutex
	closed bool
}

// NewClient registers conn with h. If h has already stopped the client is
// returned closed and Run exits at once.
func NewClient(h *Hub, conn *websocket.Conn) *Client {
	c := &Client{hub: h, conn: conn, send: make(chan Message, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		c.close()
	}
	return c
}

// Send queues a message for this client only. It returns false when the
// client's buffer is full or the client is gone.
func (c *Client) Send(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close ends the write loop. Safe to call more than once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Run serves the connection until the viewer leaves. Call it from the
// websocket handler; it blocks.
func (c *Client) Run() {
	go c.writeLoop()
	c.readLoop()
}

// readLoop hands text messages to the hub's OnMessage and notices when the
// viewer goes away.
func (c *Client) readLoop() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
	extend("")
	c.conn.SetPongHandler(extend)

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		handler := c.hub.OnMessage
		if mt != websocket.TextMessage || handler == nil {
			continue
		}
		msg, err := protocol.ParseMessage(data)
		if err != nil {
			debug.Log("ignoring client message", "hub", c.hub.name, "error", err)
			continue
		}
		handler(c, msg)
	}
}

// writeLoop owns all writes to the connection.
func (c *Client) writeLoop() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	write := func(frameType int, data []byte) error {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		return c.conn.WriteMessage(frameType, data)
	}

	for {
		select {
		case msg, open := <-c.send:
			if !open {
				write(websocket.CloseMessage, nil)
				return
			}
			if err := write(msg.frameType(), msg.Data); err != nil {
				return
			}
		case <-ping.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
