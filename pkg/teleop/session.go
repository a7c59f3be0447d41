package teleop

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-magicdog/internal/log"
	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/telemetry"
)

// SessionConfig parameterizes a teleop session. Zero durations and counts
// fall back to the package defaults.
type SessionConfig struct {
	// Target is the gait movement keys require. Nil selects
	// DOWN_CLIMB_STAIRS; PASSIVE is a valid target.
	Target          *dog.GaitMode
	Gains           Gains
	Tick            time.Duration
	GatePoll        time.Duration
	GateMaxAttempts int
	KeyDelay        time.Duration
	Logger          *slog.Logger
	Metrics         *telemetry.Metrics
}

// Worker is a background task bound to a session, such as a perception
// stream consumer. It must return when ctx is done.
type Worker func(ctx context.Context) error

// Session owns the shared command state and the components built on it. It
// replaces process-wide globals: everything a teleop program shares lives
// here and is handed out explicitly.
type Session struct {
	State      *CommandState
	Sender     *Sender
	Gate       *GaitGate
	Dispatcher *Dispatcher

	logger *slog.Logger
}

// NewSession wires a command state, sender, gate and dispatcher around motion.
func NewSession(motion Motion, cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = log.L()
	}
	target := dog.GaitDownClimbStairs
	if cfg.Target != nil {
		target = *cfg.Target
	}
	keyDelay := cfg.KeyDelay
	if keyDelay == 0 {
		keyDelay = DefaultKeyDelay
	}

	state := NewCommandState(target)
	cfg.Metrics.GaitTarget(int(target))

	gate := NewGaitGate(motion, state,
		WithPoll(cfg.GatePoll),
		WithMaxAttempts(cfg.GateMaxAttempts),
		WithGateLogger(logger.With("component", "gate")),
		WithGateMetrics(cfg.Metrics),
	)
	return &Session{
		State: state,
		Sender: NewSender(motion, state,
			WithTick(cfg.Tick),
			WithGains(cfg.Gains),
			WithSenderLogger(logger.With("component", "sender")),
			WithSenderMetrics(cfg.Metrics),
		),
		Gate: gate,
		Dispatcher: NewDispatcher(motion, state, gate,
			WithKeyDelay(keyDelay),
			WithDispatcherLogger(logger.With("component", "dispatcher")),
			WithDispatcherMetrics(cfg.Metrics),
		),
		logger: logger,
	}
}

// Run starts the sender and workers, then reads keys on the calling
// goroutine. It returns after the operator exits, ctx is done or the key
// reader fails, once the sender and workers have stopped. A key read still
// blocked on the terminal is abandoned; when keys is a Restorer the terminal
// is restored before Run returns.
//
// A worker blocked in a robot call finishes that call first; a trick in
// flight is not interrupted.
func (s *Session) Run(parent context.Context, keys KeyReader, workers ...Worker) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	go func() {
		select {
		case <-s.State.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Sender.Run(ctx)
	}()
	for i, w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("worker stopped", "worker", i, "error", err)
			}
		}()
	}

	input := make(chan error, 1)
	go func() { input <- s.Dispatcher.Run(ctx, keys) }()

	var err error
	select {
	case err = <-input:
	case <-ctx.Done():
		err = parent.Err()
	}
	s.State.Stop()
	if r, ok := keys.(Restorer); ok {
		if rerr := r.Restore(); rerr != nil {
			s.logger.Warn("restore terminal", "error", rerr)
		}
	}
	cancel()
	wg.Wait()
	return err
}
