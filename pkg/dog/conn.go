package dog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-magicdog/pkg/protocol"
)

const (
	handshakeTimeout = 10 * time.Second
	writeWait        = 5 * time.Second
	pingPeriod       = 30 * time.Second
)

// conn is the single WebSocket session shared by every controller. RPC
// replies are matched to callers by request ID; events are handed to the
// per-topic handler registered by Subscribe.
type conn struct {
	url    string
	logger *slog.Logger

	// wsMu serializes writes; gorilla/websocket allows one writer at a time.
	wsMu sync.Mutex
	ws   *websocket.Conn

	mu      sync.Mutex
	pending map[string]chan *protocol.Message
	subs    map[string]func(*protocol.Message)
	done    chan struct{}
	up      bool
}

func newConn(url string, logger *slog.Logger) *conn {
	return &conn{
		url:     url,
		logger:  logger,
		pending: make(map[string]chan *protocol.Message),
		subs:    make(map[string]func(*protocol.Message)),
	}
}

func (c *conn) connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *conn) dial(ctx context.Context) error {
	c.mu.Lock()
	if c.up {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	ws, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return newStatus(ServiceNotReady, "dial %s: %v", c.url, err)
	}

	done := make(chan struct{})
	c.mu.Lock()
	c.ws = ws
	c.done = done
	c.up = true
	c.mu.Unlock()

	go c.readPump(ws, done)
	go c.keepAlive(ws, done)
	return nil
}

// close tears the socket down. Pending calls fail with SERVICE_NOT_READY.
func (c *conn) close() error {
	c.mu.Lock()
	ws := c.ws
	wasUp := c.up
	c.up = false
	c.mu.Unlock()
	if !wasUp || ws == nil {
		return nil
	}

	c.wsMu.Lock()
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	c.wsMu.Unlock()
	return ws.Close()
}

// markDown records that ws has gone away. A pump outliving a reconnect must
// not mark the newer socket down.
func (c *conn) markDown(ws *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws == ws {
		c.up = false
	}
}

func (c *conn) readPump(ws *websocket.Conn, done chan struct{}) {
	defer func() {
		c.markDown(ws)
		close(done)
		ws.Close()
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("robot connection lost", "error", err)
			}
			return
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			c.logger.Debug("dropping unparseable frame", "error", err)
			continue
		}

		switch msg.Type {
		case protocol.TypeResponse:
			c.mu.Lock()
			ch, ok := c.pending[msg.ID]
			delete(c.pending, msg.ID)
			c.mu.Unlock()
			if ok {
				ch <- msg
			}
		case protocol.TypeEvent:
			c.mu.Lock()
			h := c.subs[msg.Topic]
			c.mu.Unlock()
			if h != nil {
				h(msg)
			}
		case protocol.TypePing:
			_ = c.send(&protocol.Message{Type: protocol.TypePong, Timestamp: time.Now().UnixMilli()})
		}
	}
}

func (c *conn) keepAlive(ws *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.wsMu.Lock()
			err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.wsMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (c *conn) send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return newStatus(InternalError, "encode %s: %v", msg.Type, err)
	}

	c.mu.Lock()
	ws, up := c.ws, c.up
	c.mu.Unlock()
	if !up {
		return ErrNotConnected
	}

	c.wsMu.Lock()
	defer c.wsMu.Unlock()
	ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return newStatus(ServiceNotReady, "write: %v", err)
	}
	return nil
}

// call performs one RPC and decodes the result into out (which may be nil).
func (c *conn) call(ctx context.Context, method string, params, out any) error {
	c.mu.Lock()
	if !c.up {
		c.mu.Unlock()
		return ErrNotConnected
	}
	done := c.done
	id := uuid.NewString()
	ch := make(chan *protocol.Message, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	req, err := protocol.NewRequest(id, method, params)
	if err != nil {
		return newStatus(InternalError, "%s: %v", method, err)
	}
	if err := c.send(req); err != nil {
		return err
	}

	select {
	case resp := <-ch:
		if resp.Code != int(OK) {
			return &Status{Code: ErrorCode(resp.Code), Message: resp.Error}
		}
		if out != nil {
			if err := resp.ParseData(out); err != nil {
				return newStatus(InternalError, "%s: decode result: %v", method, err)
			}
		}
		return nil
	case <-done:
		return newStatus(ServiceNotReady, "%s: connection closed", method)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return newStatus(Timeout, "%s: no reply", method)
		}
		return fmt.Errorf("%s: %w", method, ctx.Err())
	}
}

// notify sends a request that expects no reply.
func (c *conn) notify(method string, params any) error {
	req, err := protocol.NewRequest("", method, params)
	if err != nil {
		return newStatus(InternalError, "%s: %v", method, err)
	}
	return c.send(req)
}

func (c *conn) subscribe(topic string, h func(*protocol.Message)) error {
	c.mu.Lock()
	c.subs[topic] = h
	c.mu.Unlock()
	return c.send(protocol.NewSubscribe(topic, true))
}

func (c *conn) unsubscribe(topic string) error {
	c.mu.Lock()
	delete(c.subs, topic)
	c.mu.Unlock()
	return c.send(protocol.NewSubscribe(topic, false))
}

// resubscribe replays every registered topic after a reconnect.
func (c *conn) resubscribe() error {
	c.mu.Lock()
	topics := make([]string, 0, len(c.subs))
	for t := range c.subs {
		topics = append(topics, t)
	}
	c.mu.Unlock()

	for _, t := range topics {
		if err := c.send(protocol.NewSubscribe(t, true)); err != nil {
			return err
		}
	}
	return nil
}
