package teleop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-magicdog/internal/log"
	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/telemetry"
)

// ErrGaitTimeout is returned when the robot never reports the requested gait
// within the gate's attempt limit.
var ErrGaitTimeout = errors.New("teleop: gait did not converge")

const (
	DefaultGatePoll        = 10 * time.Millisecond
	DefaultGateMaxAttempts = 500
)

// GaitGate makes sure the robot is in a given gait before movement.
type GaitGate struct {
	motion      GaitController
	state       *CommandState
	poll        time.Duration
	maxAttempts int
	logger      *slog.Logger
	metrics     *telemetry.Metrics
}

// GateOption configures a GaitGate.
type GateOption func(*GaitGate)

// WithPoll sets the interval between gait queries after a switch.
func WithPoll(d time.Duration) GateOption {
	return func(g *GaitGate) {
		if d > 0 {
			g.poll = d
		}
	}
}

// WithMaxAttempts bounds the number of queries after a switch.
func WithMaxAttempts(n int) GateOption {
	return func(g *GaitGate) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

func WithGateLogger(l *slog.Logger) GateOption {
	return func(g *GaitGate) { g.logger = l }
}

func WithGateMetrics(m *telemetry.Metrics) GateOption {
	return func(g *GaitGate) { g.metrics = m }
}

// NewGaitGate creates a gate. state may be nil if EnsureTarget is unused.
func NewGaitGate(motion GaitController, state *CommandState, opts ...GateOption) *GaitGate {
	g := &GaitGate{
		motion:      motion,
		state:       state,
		poll:        DefaultGatePoll,
		maxAttempts: DefaultGateMaxAttempts,
		logger:      log.L(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Ensure returns nil once the robot reports gait. When it already does, no
// switch is requested. Otherwise the switch is requested exactly once and
// the gait is polled until it matches, a query fails, the attempt limit runs
// out (ErrGaitTimeout) or ctx is done.
func (g *GaitGate) Ensure(ctx context.Context, gait dog.GaitMode) error {
	start := time.Now()

	current, err := g.motion.GetGait(ctx)
	if err != nil {
		g.metrics.GateDone("error", time.Since(start), 0)
		return fmt.Errorf("get gait: %w", err)
	}
	if current == gait {
		g.metrics.GateDone("noop", time.Since(start), 0)
		return nil
	}

	g.logger.Info("switching gait", "from", current, "to", gait)
	if err := g.motion.SetGait(ctx, gait); err != nil {
		g.metrics.GateDone("error", time.Since(start), 0)
		return fmt.Errorf("set gait %s: %w", gait, err)
	}

	for polls := 1; ; polls++ {
		current, err = g.motion.GetGait(ctx)
		if err != nil {
			g.metrics.GateDone("error", time.Since(start), polls)
			return fmt.Errorf("get gait: %w", err)
		}
		if current == gait {
			g.metrics.GateDone("ok", time.Since(start), polls)
			g.logger.Debug("gait reached", "gait", gait, "polls", polls, "elapsed", time.Since(start))
			return nil
		}
		if polls >= g.maxAttempts {
			g.metrics.GateDone("timeout", time.Since(start), polls)
			return fmt.Errorf("%w: want %s, still %s after %d polls", ErrGaitTimeout, gait, current, polls)
		}

		select {
		case <-ctx.Done():
			g.metrics.GateDone("canceled", time.Since(start), polls)
			return ctx.Err()
		case <-time.After(g.poll):
		}
	}
}

// EnsureTarget ensures the gait target held in the command state.
func (g *GaitGate) EnsureTarget(ctx context.Context) error {
	return g.Ensure(ctx, g.state.Target())
}
