package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-magicdog/internal/log"
)

// fakeConn records writes; ReadMessage blocks until Close or a queued
// inbound frame.
type fakeConn struct {
	mu      sync.Mutex
	written []Message
	in      chan []byte
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan []byte, 4), closed: make(chan struct{})}
}

func (f *fakeConn) SetReadLimit(int64) {}
func (f *fakeConn) SetReadDeadline(time.Time) error { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}
func (f *fakeConn) Close() error { f.once.Do(func() { close(f.closed) }); return nil }

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case data := <-f.in:
		return websocket.TextMessage, data, nil
	case <-f.closed:
		return 0, nil, errors.New("closed")
	}
}

func (f *fakeConn) WriteMessage(typ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch typ {
	case websocket.TextMessage:
		f.written = append(f.written, NewJSONMessage(data))
	case websocket.BinaryMessage:
		f.written = append(f.written, NewBinaryMessage(data))
	}
	return nil
}

func (f *fakeConn) messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.written...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	h := New("test", log.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	conns := []*fakeConn{newFakeConn(), newFakeConn()}
	for _, fc := range conns {
		c := NewClient(h, fc)
		go c.Run()
	}
	waitFor(t, func() bool { return h.ClientCount() == 2 })

	if err := h.Publish("velocity", map[string]float64{"straight": 0.25}); err != nil {
		t.Fatal(err)
	}
	h.BroadcastBinary([]byte{0xff, 0xd8})

	for _, fc := range conns {
		waitFor(t, func() bool { return len(fc.messages()) == 2 })
		msgs := fc.messages()
		var ev Event
		if err := json.Unmarshal(msgs[0].Data, &ev); err != nil {
			t.Fatalf("event: %v", err)
		}
		if ev.Kind != "velocity" || ev.Time == 0 {
			t.Errorf("event = %+v", ev)
		}
		if msgs[1].Type != BinaryMessage {
			t.Error("second message should be binary")
		}
	}

	conns[0].Close()
	waitFor(t, func() bool { return h.ClientCount() == 1 })
}

func TestClientOnMessage(t *testing.T) {
	h := New("test", log.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	fc := newFakeConn()
	c := NewClient(h, fc)
	got := make(chan string, 1)
	c.OnMessage = func(data []byte) { got <- string(data) }
	go c.Run()

	fc.in <- []byte(`{"key":"w"}`)
	select {
	case s := <-got:
		if s != `{"key":"w"}` {
			t.Errorf("OnMessage got %s", s)
		}
	case <-time.After(time.Second):
		t.Fatal("OnMessage not called")
	}
}

func TestHubStopClosesClients(t *testing.T) {
	h := New("test", log.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() { h.Run(ctx); close(stopped) }()

	fc := newFakeConn()
	c := NewClient(h, fc)
	runDone := make(chan struct{})
	go func() { c.Run(); close(runDone) }()
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	cancel()
	<-stopped
	select {
	case <-runDone:
	case <-time.After(time.Second):
		t.Fatal("client did not exit after hub stop")
	}
	if h.IsRunning() {
		t.Error("hub still running")
	}
	if NewClient(h, newFakeConn()) != nil {
		t.Error("stopped hub should refuse clients")
	}
}
