package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// Conn is the subset of a websocket connection a Client uses.
type Conn interface {
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

var _ Conn = (*websocket.Conn)(nil)

// Client is one dashboard websocket connection.
type Client struct {
	hub  *Hub
	conn Conn
	send chan Message

	// OnMessage, when set, receives text frames from the browser.
	OnMessage func(data []byte)
}

// NewClient registers conn with h. It returns nil when the hub has stopped.
func NewClient(h *Hub, conn Conn) *Client {
	c := &Client{
		hub:  h,
		conn: conn,
		send: make(chan Message, clientBuffer),
	}
	select {
	case h.register <- c:
		return c
	case <-h.done:
		return nil
	}
}

// Run pumps messages until the connection closes. Only the write pump
// writes to conn.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		typ, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if typ == websocket.TextMessage && c.OnMessage != nil {
			c.OnMessage(data)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			typ := websocket.TextMessage
			if msg.Type == BinaryMessage {
				typ = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(typ, msg.Data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
