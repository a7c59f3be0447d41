package hub

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-magicdog/internal/log"
)

const (
	broadcastBuffer = 256
	clientBuffer    = 64
)

// Hub tracks connected clients and broadcasts to them from one goroutine.
// A client whose buffer is full is dropped rather than allowed to stall
// the others.
type Hub struct {
	name   string
	logger *slog.Logger

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu      sync.RWMutex
	clients map[*Client]struct{}

	running atomic.Bool
	dropped atomic.Uint64
}

// New creates a hub. A nil logger uses the package default.
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = log.L()
	}
	return &Hub{
		name:       name,
		logger:     logger.With("hub", name),
		broadcast:  make(chan Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
	}
}

// Run serves register, unregister and broadcast requests until ctx is
// done, then closes every client. A hub runs once.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer h.running.Store(false)
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client connected", "clients", n)

		case c := <-h.unregister:
			h.remove(c)

		case msg := <-h.broadcast:
			var slow []*Client
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.RUnlock()
			for _, c := range slow {
				h.logger.Warn("dropping slow client")
				h.remove(c)
			}
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.logger.Info("client disconnected", "clients", n)
	}
}

// Broadcast queues msg for every client. It never blocks; when the queue is
// full the message is dropped and counted.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		if h.dropped.Add(1)%100 == 1 {
			h.logger.Warn("broadcast queue full, dropping", "dropped", h.dropped.Load())
		}
	}
}

// Publish encodes and broadcasts an Event stamped with the current time.
func (h *Hub) Publish(kind string, data any) error {
	msg, err := Event{Kind: kind, Time: time.Now().UnixMilli(), Data: data}.Encode()
	if err != nil {
		return err
	}
	h.Broadcast(msg)
	return nil
}

// BroadcastBinary broadcasts raw bytes.
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(NewBinaryMessage(data))
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) IsRunning() bool { return h.running.Load() }

// Dropped is the number of broadcasts lost to a full queue.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }
