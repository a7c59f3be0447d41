// Package sim is a simulated MagicDog robot service. It speaks the same
// WebSocket protocol as the robot so the SDK and the example programs can run
// without hardware.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-magicdog/internal/log"
	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/protocol"
)

// Config tunes the simulator.
type Config struct {
	// ConvergeAfter is the number of GetGait polls that still report the old
	// gait after a SetGait.
	ConvergeAfter int

	// TrickDelay is how long ExecuteTrick blocks.
	TrickDelay time.Duration

	// EventRate is the publish interval for periodic sensor topics. Zero
	// disables periodic publishing; Publish still works.
	EventRate time.Duration

	Logger *slog.Logger
}

// DefaultConfig returns the settings used by cmd/magicsim.
func DefaultConfig() Config {
	return Config{
		ConvergeAfter: 3,
		TrickDelay:    500 * time.Millisecond,
		EventRate:     100 * time.Millisecond,
	}
}

// session is one connected SDK client.
type session struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time
	LocalIP   string

	mu   sync.Mutex // guards writes
	subs sync.Map   // topic -> struct{}
}

func (s *session) send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Conn.WriteMessage(websocket.TextMessage, data)
}

func (s *session) subscribed(topic string) bool {
	_, ok := s.subs.Load(topic)
	return ok
}

// Server is the simulated robot service.
type Server struct {
	cfg    Config
	logger *slog.Logger
	model  *model

	mu       sync.RWMutex
	sessions map[string]*session

	// failures maps a method to the status it should return next.
	failMu   sync.Mutex
	failures map[string]*dog.Status

	requests  atomic.Uint64
	eventsOut atomic.Uint64
	calls     sync.Map // method -> *atomic.Uint64

	app *fiber.App
}

// New creates a simulator.
func New(cfg Config) *Server {
	if cfg.ConvergeAfter < 0 {
		cfg.ConvergeAfter = 0
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.L()
	}
	return &Server{
		cfg:      cfg,
		logger:   logger.With("component", "sim"),
		model:    newModel(cfg.ConvergeAfter),
		sessions: make(map[string]*session),
		failures: make(map[string]*dog.Status),
	}
}

// App builds the fiber application serving /ws/robot and /api.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	s.RegisterRoutes(app)
	s.RegisterAPIRoutes(app.Group("/api"))
	s.app = app
	return app
}

// RegisterRoutes registers the robot WebSocket endpoint.
func (s *Server) RegisterRoutes(app *fiber.App) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/robot", websocket.New(s.handleSession))
}

// RegisterAPIRoutes registers the inspection API.
func (s *Server) RegisterAPIRoutes(api fiber.Router) {
	api.Get("/state", func(c *fiber.Ctx) error {
		return c.JSON(s.Snapshot())
	})
	api.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(s.Stats())
	})
}

// Start listens on addr (":0" picks a free port) and serves in the
// background. It returns the bound address.
func (s *Server) Start(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("sim: listen %s: %w", addr, err)
	}
	app := s.App()
	go func() {
		if err := app.Listener(ln); err != nil {
			s.logger.Debug("listener stopped", "error", err)
		}
	}()
	s.logger.Info("simulator listening", "addr", ln.Addr().String())
	return ln.Addr().String(), nil
}

// Shutdown stops the HTTP server.
func (s *Server) Shutdown() error {
	if s.app == nil {
		return nil
	}
	return s.app.Shutdown()
}

// Run publishes periodic events until ctx is done.
func (s *Server) Run(ctx context.Context) {
	if s.cfg.EventRate <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(s.cfg.EventRate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.model.advance()
			s.publishPeriodic()
		}
	}
}

// Fail makes the next call to method return code instead of running.
func (s *Server) Fail(method string, code dog.ErrorCode, message string) {
	s.failMu.Lock()
	s.failures[method] = &dog.Status{Code: code, Message: message}
	s.failMu.Unlock()
}

// SetGaitNow forces the current gait without a transition.
func (s *Server) SetGaitNow(g dog.GaitMode) {
	s.model.mu.Lock()
	s.model.gait = g
	s.model.hasPending = false
	s.model.mu.Unlock()
}

// Snapshot returns the simulated robot state.
func (s *Server) Snapshot() Snapshot {
	return s.model.snapshot()
}

// Calls returns how many times method has been invoked.
func (s *Server) Calls(method string) uint64 {
	if v, ok := s.calls.Load(method); ok {
		return v.(*atomic.Uint64).Load()
	}
	return 0
}

// Stats contains server statistics.
type Stats struct {
	Sessions  int    `json:"sessions"`
	Requests  uint64 `json:"requests"`
	EventsOut uint64 `json:"events_out"`
}

func (s *Server) Stats() Stats {
	return Stats{
		Sessions:  s.SessionCount(),
		Requests:  s.requests.Load(),
		EventsOut: s.eventsOut.Load(),
	}
}

// SessionCount returns the number of connected clients.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Publish sends an event to every session subscribed to topic.
func (s *Server) Publish(topic string, data any) {
	msg, err := protocol.NewEvent(topic, data)
	if err != nil {
		s.logger.Warn("encode event", "topic", topic, "error", err)
		return
	}

	s.mu.RLock()
	targets := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if sess.subscribed(topic) {
			targets = append(targets, sess)
		}
	}
	s.mu.RUnlock()

	for _, sess := range targets {
		if err := sess.send(msg); err != nil {
			s.logger.Debug("event send failed", "session", sess.ID, "error", err)
			continue
		}
		s.eventsOut.Add(1)
	}
}

// Subscribed reports whether any session is subscribed to topic.
func (s *Server) Subscribed(topic string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess.subscribed(topic) {
			return true
		}
	}
	return false
}

func (s *Server) handleSession(c *websocket.Conn) {
	sess := &session{
		ID:        uuid.NewString(),
		Conn:      c,
		Connected: time.Now(),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	count := len(s.sessions)
	s.mu.Unlock()
	s.logger.Info("client connected", "session", sess.ID, "total", count)

	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess.ID)
		count := len(s.sessions)
		s.mu.Unlock()
		s.logger.Info("client disconnected", "session", sess.ID, "remaining", count)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		msg, err := protocol.ParseMessage(data)
		if err != nil {
			s.logger.Debug("parse error", "session", sess.ID, "error", err)
			continue
		}

		switch msg.Type {
		case protocol.TypeRequest:
			s.requests.Add(1)
			if msg.ID == "" {
				// Streamed commands are applied in order and never answered.
				s.dispatch(sess, msg)
				continue
			}
			go s.reply(sess, msg)
		case protocol.TypeSubscribe:
			sess.subs.Store(msg.Topic, struct{}{})
			s.logger.Debug("subscribe", "session", sess.ID, "topic", msg.Topic)
		case protocol.TypeUnsubscribe:
			sess.subs.Delete(msg.Topic)
		case protocol.TypePing:
			_ = sess.send(&protocol.Message{Type: protocol.TypePong, Timestamp: time.Now().UnixMilli()})
		}
	}
}

func (s *Server) reply(sess *session, msg *protocol.Message) {
	result, err := s.dispatch(sess, msg)

	code, text := dog.OK, ""
	if err != nil {
		code, text = dog.CodeOf(err), err.Error()
		if st, ok := err.(*dog.Status); ok {
			text = st.Message
		}
	}
	resp, encErr := protocol.NewResponse(msg.ID, int(code), text, result)
	if encErr != nil {
		resp, _ = protocol.NewResponse(msg.ID, int(dog.InternalError), encErr.Error(), nil)
	}
	if err := sess.send(resp); err != nil {
		s.logger.Debug("reply failed", "session", sess.ID, "method", msg.Method, "error", err)
	}
}

func (s *Server) dispatch(sess *session, msg *protocol.Message) (any, error) {
	v, _ := s.calls.LoadOrStore(msg.Method, new(atomic.Uint64))
	v.(*atomic.Uint64).Add(1)

	s.failMu.Lock()
	injected, failing := s.failures[msg.Method]
	delete(s.failures, msg.Method)
	s.failMu.Unlock()
	if failing {
		return nil, injected
	}

	h, ok := handlers[msg.Method]
	if !ok {
		return nil, &dog.Status{Code: dog.ServiceError, Message: "unknown method " + msg.Method}
	}
	return h(s, sess, msg)
}
