package perception

import (
	"context"
	"log/slog"
	"time"

	"github.com/teslashibe/go-magicdog/internal/log"
	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/telemetry"
)

// Identifier resolves a JPEG frame to a person's name.
type Identifier interface {
	Identify(ctx context.Context, jpeg []byte) (string, error)
}

// Transcriber turns voice audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Speaker plays TTS requests on the robot.
type Speaker interface {
	Play(ctx context.Context, cmd dog.TtsCommand) error
}

// KeyDispatcher runs the action bound to a key, as the teleop dispatcher does.
type KeyDispatcher interface {
	Dispatch(ctx context.Context, key byte) error
}

var (
	_ Identifier  = (*FaceClient)(nil)
	_ Transcriber = (*SpeechClient)(nil)
	_ Speaker     = (*dog.Audio)(nil)
)

type worker struct {
	logger  *slog.Logger
	metrics *telemetry.Metrics
	now     func() time.Time
}

// Option configures a FaceGreeter or VoiceCommander.
type Option func(*worker)

// WithLogger sets the worker logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *worker) { w.logger = l }
}

// WithMetrics records requests and reactions.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(w *worker) { w.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *worker) { w.now = now }
}

func newWorker(component string, opts []Option) worker {
	w := worker{logger: log.L(), now: time.Now}
	for _, opt := range opts {
		opt(&w)
	}
	w.logger = w.logger.With("component", component)
	return w
}
