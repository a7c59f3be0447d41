// Package dog is the client SDK for the MagicDog robot service.
//
// A Robot owns one WebSocket session to the service. Controllers returned by
// the accessors share that session and every method takes a context; the
// robot's call timeout applies on top of any deadline the caller sets.
// Remote failures are reported as *Status errors; use CodeOf to classify them.
//
//	robot := dog.New(dog.WithAddress("192.168.54.110:7447"))
//	if err := robot.Initialize("192.168.54.10"); err != nil { ... }
//	if err := robot.Connect(ctx); err != nil { ... }
//	defer robot.Shutdown()
//	gait, err := robot.HighLevelMotion().GetGait(ctx)
package dog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/teslashibe/go-magicdog/internal/log"
	"github.com/teslashibe/go-magicdog/pkg/protocol"
)

// SDKVersion is reported to the robot on connect.
const SDKVersion = "0.3.0"

// DefaultCallTimeout bounds every RPC that has no earlier deadline.
const DefaultCallTimeout = 5 * time.Second

// Robot is a session with the robot service.
type Robot struct {
	url         string
	callTimeout time.Duration
	streamBuf   int
	logger      *slog.Logger

	conn *conn

	mu          sync.Mutex
	localIP     string
	initialized bool
	closers     map[string]func()

	highLevel *HighLevelMotion
	lowLevel  *LowLevelMotion
	audio     *Audio
	sensor    *Sensor
	slamNav   *SlamNav
	monitor   *StateMonitor
}

// Option configures a Robot.
type Option func(*Robot)

// WithURL sets the full WebSocket URL of the service.
func WithURL(url string) Option {
	return func(r *Robot) { r.url = url }
}

// WithAddress sets host:port; the URL becomes ws://host:port/ws/robot.
func WithAddress(addr string) Option {
	return func(r *Robot) { r.url = fmt.Sprintf("ws://%s/ws/robot", addr) }
}

// WithCallTimeout sets the per-call timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(r *Robot) {
		if d > 0 {
			r.callTimeout = d
		}
	}
}

// WithStreamBuffer sets the channel capacity of new subscriptions.
func WithStreamBuffer(n int) Option {
	return func(r *Robot) { r.streamBuf = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Robot) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates an unconnected Robot.
func New(opts ...Option) *Robot {
	r := &Robot{
		url:         "ws://192.168.54.110:7447/ws/robot",
		callTimeout: DefaultCallTimeout,
		streamBuf:   DefaultStreamBuffer,
		logger:      log.L(),
		closers:     make(map[string]func()),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.conn = newConn(r.url, r.logger)

	r.highLevel = &HighLevelMotion{r: r}
	r.lowLevel = &LowLevelMotion{r: r}
	r.audio = &Audio{r: r}
	r.sensor = &Sensor{r: r}
	r.slamNav = &SlamNav{r: r}
	r.monitor = &StateMonitor{r: r}
	return r
}

// Initialize records the local interface address used to reach the robot.
func (r *Robot) Initialize(localIP string) error {
	if net.ParseIP(localIP) == nil {
		return fmt.Errorf("dog: invalid local ip %q", localIP)
	}
	r.mu.Lock()
	r.localIP = localIP
	r.initialized = true
	r.mu.Unlock()
	return nil
}

// Connect opens the session. It must follow Initialize.
func (r *Robot) Connect(ctx context.Context) error {
	r.mu.Lock()
	ip, ok := r.localIP, r.initialized
	r.mu.Unlock()
	if !ok {
		return newStatus(ServiceNotReady, "robot not initialized")
	}

	if err := r.conn.dial(ctx); err != nil {
		return err
	}
	if err := r.call(ctx, protocol.MethodHello, HelloParams{LocalIP: ip, SDKVersion: SDKVersion}, nil); err != nil {
		r.conn.close()
		return err
	}
	if err := r.conn.resubscribe(); err != nil {
		r.logger.Warn("resubscribe failed", "error", err)
	}
	r.logger.Info("connected to robot", "url", r.url, "local_ip", ip)
	return nil
}

// Disconnect says goodbye and closes the session. Subscriptions stay
// registered locally and resume receiving after the next Connect.
func (r *Robot) Disconnect(ctx context.Context) error {
	if !r.conn.connected() {
		return nil
	}
	err := r.call(ctx, protocol.MethodGoodbye, nil, nil)
	r.conn.close()
	r.logger.Info("disconnected from robot")
	return err
}

// Shutdown closes the session and every open stream.
func (r *Robot) Shutdown() {
	r.conn.close()

	r.mu.Lock()
	closers := r.closers
	r.closers = make(map[string]func())
	r.initialized = false
	r.mu.Unlock()

	for _, fn := range closers {
		fn()
	}
}

// Connected reports whether the session is up.
func (r *Robot) Connected() bool { return r.conn.connected() }

// SDKVersion returns the client SDK version.
func (r *Robot) SDKVersion() string { return SDKVersion }

// GetMotionControlLevel returns which controller currently owns the legs.
func (r *Robot) GetMotionControlLevel(ctx context.Context) (ControllerLevel, error) {
	var p LevelParams
	if err := r.call(ctx, protocol.MethodGetLevel, nil, &p); err != nil {
		return LevelUnknown, err
	}
	return p.Level, nil
}

// SetMotionControlLevel hands the legs to the high- or low-level controller.
func (r *Robot) SetMotionControlLevel(ctx context.Context, level ControllerLevel) error {
	return r.call(ctx, protocol.MethodSetLevel, LevelParams{Level: level}, nil)
}

func (r *Robot) HighLevelMotion() *HighLevelMotion { return r.highLevel }
func (r *Robot) LowLevelMotion() *LowLevelMotion   { return r.lowLevel }
func (r *Robot) Audio() *Audio                     { return r.audio }
func (r *Robot) Sensor() *Sensor                   { return r.sensor }
func (r *Robot) SlamNav() *SlamNav                 { return r.slamNav }
func (r *Robot) StateMonitor() *StateMonitor       { return r.monitor }

func (r *Robot) call(ctx context.Context, method string, params, out any) error {
	ctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	return r.conn.call(ctx, method, params, out)
}

// subscribe registers a typed stream for topic, replacing any previous one.
func subscribe[T any](r *Robot, topic string) (*Stream[*T], error) {
	s := newStream[*T](topic, r.streamBuf)

	r.mu.Lock()
	if old, ok := r.closers[topic]; ok {
		old()
	}
	r.closers[topic] = s.close
	r.mu.Unlock()

	err := r.conn.subscribe(topic, func(msg *protocol.Message) {
		v := new(T)
		if err := json.Unmarshal(msg.Data, v); err != nil {
			r.logger.Debug("dropping malformed event", "topic", topic, "error", err)
			return
		}
		s.push(v)
	})
	if err != nil {
		r.unsubscribe(topic)
		return nil, err
	}
	return s, nil
}

func (r *Robot) unsubscribe(topic string) error {
	r.mu.Lock()
	fn, ok := r.closers[topic]
	delete(r.closers, topic)
	r.mu.Unlock()

	err := r.conn.unsubscribe(topic)
	if ok {
		fn()
	}
	if !ok || errors.Is(err, ErrNotConnected) {
		return nil
	}
	return err
}
