// Package web serves a teleop dashboard: session state, key and joystick
// control over REST, a live telemetry websocket and prometheus metrics.
package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-magicdog/internal/log"
	"github.com/teslashibe/go-magicdog/pkg/hub"
	"github.com/teslashibe/go-magicdog/pkg/telemetry"
	"github.com/teslashibe/go-magicdog/pkg/teleop"
)

//go:embed static
var static embed.FS

const (
	DefaultPublishInterval = 100 * time.Millisecond
	maxEvents              = 500
)

// Config configures the dashboard.
type Config struct {
	PublishInterval time.Duration
	Logger          *slog.Logger
	Metrics         *telemetry.Metrics
}

// EventEntry is one line of the dashboard activity log.
type EventEntry struct {
	Time    string `json:"time"`
	Kind    string `json:"kind"` // key, trick, perception, error
	Message string `json:"message"`
}

// Server is the dashboard for one teleop session.
type Server struct {
	app      *fiber.App
	session  *teleop.Session
	hub      *hub.Hub
	metrics  *telemetry.Metrics
	logger   *slog.Logger
	interval time.Duration

	eventsMu sync.RWMutex
	events   []EventEntry

	baseCtx atomic.Pointer[context.Context]
}

// NewServer builds the dashboard around s.
func NewServer(s *teleop.Session, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.L()
	}
	logger = logger.With("component", "web")
	interval := cfg.PublishInterval
	if interval <= 0 {
		interval = DefaultPublishInterval
	}

	srv := &Server{
		session:  s,
		hub:      hub.New("telemetry", logger),
		metrics:  cfg.Metrics,
		logger:   logger,
		interval: interval,
		events:   make([]EventEntry, 0, 64),
	}

	app := fiber.New(fiber.Config{
		AppName:               "MagicDog Teleop",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/state", srv.handleState)
	api.Get("/keys", srv.handleKeys)
	api.Post("/keys/:key", srv.handleKey)
	api.Post("/joystick", srv.handleJoystick)
	api.Get("/events", srv.handleEvents)

	app.Get("/metrics", adaptor.HTTPHandler(srv.metrics.Handler()))

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/telemetry", websocket.New(srv.handleTelemetryWS))

	sub, _ := fs.Sub(static, "static")
	app.Use("/", filesystem.New(filesystem.Config{
		Root:  http.FS(sub),
		Index: "index.html",
	}))

	srv.app = app
	return srv
}

// App exposes the fiber app, for tests.
func (s *Server) App() *fiber.App { return s.app }

// Hub returns the telemetry hub.
func (s *Server) Hub() *hub.Hub { return s.hub }

// Run serves on addr until ctx is done. Wrap it in a closure to run it as a
// teleop.Worker.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("web: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.baseCtx.Store(&ctx)

	go s.hub.Run(ctx)
	go s.publish(ctx)

	errc := make(chan error, 1)
	go func() { errc <- s.app.Listener(ln) }()
	s.logger.Info("dashboard listening", "addr", ln.Addr().String())

	select {
	case <-ctx.Done():
		if err := s.app.ShutdownWithTimeout(2 * time.Second); err != nil {
			s.logger.Warn("dashboard shutdown", "error", err)
		}
		<-errc
		return nil
	case err := <-errc:
		return err
	}
}

// ctx is the serving context, used for actions started from websocket
// frames, which have no request context.
func (s *Server) ctx() context.Context {
	if p := s.baseCtx.Load(); p != nil {
		return *p
	}
	return context.Background()
}

func (s *Server) publish(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.hub.ClientCount() == 0 {
				continue
			}
			if err := s.hub.Publish("state", s.Snapshot()); err != nil {
				s.logger.Warn("publish state", "error", err)
			}
		}
	}
}

// Record appends an activity entry and pushes it to connected clients.
func (s *Server) Record(kind, message string) {
	e := EventEntry{
		Time:    time.Now().Format("15:04:05"),
		Kind:    kind,
		Message: message,
	}
	s.eventsMu.Lock()
	s.events = append(s.events, e)
	if len(s.events) > maxEvents {
		s.events = s.events[len(s.events)-maxEvents:]
	}
	s.eventsMu.Unlock()

	s.hub.Publish("event", e)
}

// Events returns a copy of the activity log.
func (s *Server) Events() []EventEntry {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	return append([]EventEntry(nil), s.events...)
}
