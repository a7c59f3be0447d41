package teleop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-magicdog/internal/log"
	"github.com/teslashibe/go-magicdog/pkg/dog"
)

// ErrBusy is returned when a routine is started while it is already running.
var ErrBusy = errors.New("teleop: routine already running")

const (
	DefaultDanceLead     = 3 * time.Second
	DefaultDanceDuration = 45 * time.Second
)

// Announcements played around the dance.
var (
	DanceIntro = dog.TtsCommand{ID: "100000000101", Content: "我给大家跳个舞吧!", Priority: dog.TtsPriorityHigh, Mode: dog.TtsModeClearBuffer}
	DanceOutro = dog.TtsCommand{ID: "100000000102", Content: "谢谢!", Priority: dog.TtsPriorityHigh, Mode: dog.TtsModeClearBuffer}
)

// Dancer runs the dance routine: pause face recognition by closing the
// camera, announce, dance, thank the audience and reopen the camera.
// It is started both from the keyboard and from voice commands.
type Dancer struct {
	Motion  TrickExecutor
	Speaker Speaker
	Camera  Camera
	State   *CommandState // optional; zeroed before dancing

	Lead     time.Duration
	Duration time.Duration
	Logger   *slog.Logger

	busy atomic.Bool
}

// NewDancer returns a dancer with the stock timings.
func NewDancer(motion TrickExecutor, speaker Speaker, camera Camera, state *CommandState) *Dancer {
	return &Dancer{
		Motion:   motion,
		Speaker:  speaker,
		Camera:   camera,
		State:    state,
		Lead:     DefaultDanceLead,
		Duration: DefaultDanceDuration,
		Logger:   log.L(),
	}
}

// Dance blocks for the whole routine. Waits end early when ctx is done; the
// camera is reopened either way.
func (d *Dancer) Dance(ctx context.Context) error {
	if !d.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer d.busy.Store(false)

	logger := d.Logger
	if logger == nil {
		logger = log.L()
	}

	if d.State != nil {
		d.State.ZeroJoystick()
	}
	if err := d.Camera.CloseBinocularCamera(ctx); err != nil {
		logger.Warn("close binocular camera failed", "error", err)
	}
	defer func() {
		if err := d.Camera.OpenBinocularCamera(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("reopen binocular camera failed", "error", err)
		}
	}()

	if err := d.Speaker.Play(ctx, DanceIntro); err != nil {
		logger.Warn("play tts failed", "id", DanceIntro.ID, "error", err)
	}
	if err := sleep(ctx, d.Lead); err != nil {
		return err
	}

	start := time.Now()
	if err := d.Motion.ExecuteTrick(ctx, dog.TrickDance); err != nil {
		return fmt.Errorf("execute trick %s: %w", dog.TrickDance, err)
	}
	if err := sleep(ctx, d.Duration); err != nil {
		return err
	}
	logger.Info("dance finished", "elapsed", time.Since(start))

	if err := d.Speaker.Play(ctx, DanceOutro); err != nil {
		logger.Warn("play tts failed", "id", DanceOutro.ID, "error", err)
	}
	return nil
}

// Dancing reports whether a dance is in progress.
func (d *Dancer) Dancing() bool { return d.busy.Load() }

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
