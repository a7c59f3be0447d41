// Package cli holds the setup shared by the example programs: config and
// logging, the robot session, signal handling and small key menus.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/teslashibe/go-magicdog/internal/config"
	"github.com/teslashibe/go-magicdog/internal/log"
	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/teleop"
)

// Setup loads the configuration and installs the global logger. It exits
// the process on a bad config.
func Setup(configPath string) (*config.Config, *slog.Logger) {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}
	return cfg, log.Init(cfg.Log.Level)
}

// Fatal logs err and exits non-zero.
func Fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err, "code", dog.CodeOf(err))
	os.Exit(1)
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// Connect initializes and connects a robot session from cfg.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dog.Robot, error) {
	robot := dog.New(
		dog.WithAddress(cfg.Robot.Address),
		dog.WithCallTimeout(cfg.Robot.CallTimeout),
		dog.WithLogger(logger.With("component", "dog")),
	)
	if err := robot.Initialize(cfg.Robot.LocalIP); err != nil {
		return nil, fmt.Errorf("initialize robot: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Robot.CallTimeout)
	defer cancel()
	if err := robot.Connect(connectCtx); err != nil {
		robot.Shutdown()
		return nil, fmt.Errorf("connect %s: %w", cfg.Robot.Address, err)
	}
	return robot, nil
}

// Close disconnects and shuts the robot session down. It does not depend on
// the program context, which is usually cancelled by now.
func Close(robot *dog.Robot, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := robot.Disconnect(ctx); err != nil {
		logger.Warn("disconnect", "error", err)
	}
	robot.Shutdown()
}

// Report logs the outcome of a setup step and returns err unchanged.
func Report(logger *slog.Logger, op string, err error) error {
	if err != nil {
		logger.Error(op+" failed", "code", dog.CodeOf(err), "error", err)
		return err
	}
	logger.Info(op + " ok")
	return nil
}

var (
	stdinOnce sync.Once
	stdin     *teleop.LineReader
)

// Stdin is the line reader shared by Prompt and line-mode menus. Two
// buffered readers on one descriptor would steal each other's input.
func Stdin() *teleop.LineReader {
	stdinOnce.Do(func() { stdin = teleop.NewLineReader(os.Stdin) })
	return stdin
}

// Prompt prints label and reads one line from stdin.
func Prompt(label string) (string, error) {
	fmt.Print(label)
	line, err := Stdin().ReadLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PromptDefault is Prompt with a fallback for an empty answer.
func PromptDefault(label, def string) string {
	s, err := Prompt(fmt.Sprintf("%s [%s]: ", label, def))
	if err != nil || s == "" {
		return def
	}
	return s
}

// Watch logs every nth sample of s until ctx is done or the stream closes.
// describe adds per-sample attributes and may be nil.
func Watch[T any](ctx context.Context, logger *slog.Logger, s *dog.Stream[T], every int, describe func(T) []any) {
	if every < 1 {
		every = 1
	}
	n := 0
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-s.C():
			if !ok {
				logger.Info("stream closed", "topic", s.Topic(), "received", n, "dropped", s.Dropped())
				return
			}
			n++
			if (n-1)%every != 0 {
				continue
			}
			attrs := []any{"topic", s.Topic(), "count", n}
			if describe != nil {
				attrs = append(attrs, describe(v)...)
			}
			logger.Info("sample", attrs...)
		}
	}
}
