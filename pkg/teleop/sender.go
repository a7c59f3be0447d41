package teleop

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-magicdog/internal/log"
	"github.com/teslashibe/go-magicdog/pkg/telemetry"
)

const (
	// DefaultTick is the joystick send period (100 Hz).
	DefaultTick = 10 * time.Millisecond

	// changeEpsilon is the smallest gained-velocity change that gets logged.
	changeEpsilon = 1e-5

	errorLogInterval = 5 * time.Second
)

// Sender submits the current joystick sample to the robot at a fixed rate
// until the command state stops. Failed sends are logged and the loop
// carries on; there is no retry.
type Sender struct {
	motion  JoystickSender
	state   *CommandState
	gains   Gains
	tick    time.Duration
	logger  *slog.Logger
	metrics *telemetry.Metrics

	mu            sync.Mutex
	last          Velocity // last logged gained velocity
	lastErrorTime time.Time

	tickCount   atomic.Uint64
	errorCount  atomic.Uint64
	changeCount atomic.Uint64
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithTick overrides the send period.
func WithTick(d time.Duration) SenderOption {
	return func(s *Sender) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithGains sets the gains used for change logging.
func WithGains(g Gains) SenderOption {
	return func(s *Sender) { s.gains = g }
}

func WithSenderLogger(l *slog.Logger) SenderOption {
	return func(s *Sender) { s.logger = l }
}

func WithSenderMetrics(m *telemetry.Metrics) SenderOption {
	return func(s *Sender) { s.metrics = m }
}

// NewSender creates a sender. The remembered velocity starts at -1 on every
// axis so the first tick always logs.
func NewSender(motion JoystickSender, state *CommandState, opts ...SenderOption) *Sender {
	s := &Sender{
		motion: motion,
		state:  state,
		tick:   DefaultTick,
		logger: log.L(),
		last:   Velocity{-1, -1, -1, -1},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks until the command state stops or ctx is done.
func (s *Sender) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.logger.Info("joystick sender started", "tick", s.tick)
	defer func() {
		s.logger.Info("joystick sender stopped", "ticks", s.tickCount.Load(), "errors", s.errorCount.Load())
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.state.Done():
			return
		case <-ticker.C:
			s.tickOnce(ctx)
		}
	}
}

// tickOnce sends one sample and logs if the gained velocity changed.
func (s *Sender) tickOnce(ctx context.Context) {
	cmd := s.state.Joystick()
	s.tickCount.Add(1)

	if err := s.motion.SendJoyStickCommand(ctx, cmd); err != nil {
		n := s.errorCount.Add(1)
		s.metrics.JoystickError()
		s.mu.Lock()
		if s.lastErrorTime.IsZero() || time.Since(s.lastErrorTime) > errorLogInterval {
			s.logger.Warn("send joystick command failed", "error", err, "total_errors", n)
			s.lastErrorTime = time.Now()
		}
		s.mu.Unlock()
	} else {
		s.metrics.JoystickSent()
	}

	v := s.gains.Apply(cmd)
	s.mu.Lock()
	changed := v.differs(s.last, changeEpsilon)
	if changed {
		s.last = v
	}
	s.mu.Unlock()

	if changed {
		s.changeCount.Add(1)
		s.metrics.Velocity(v[0], v[1], v[2])
		s.logger.Info("velocity",
			"left_x_v", v[0], "left_y_v", v[1], "right_x_v", v[2], "right_y_v", v[3])
	}
}

// Ticks is the number of samples submitted so far.
func (s *Sender) Ticks() uint64 { return s.tickCount.Load() }

// Errors is the number of failed submissions.
func (s *Sender) Errors() uint64 { return s.errorCount.Load() }

// Changes is the number of velocity log lines emitted.
func (s *Sender) Changes() uint64 { return s.changeCount.Load() }

// LastVelocity returns the last logged gained velocity.
func (s *Sender) LastVelocity() Velocity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
