// low-level-motion - joint-level squat demo
//
// Puts the robot in passive gait, hands the legs to the low-level
// controller, waits for the first leg state and then streams joint
// setpoints every 2 ms until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/teslashibe/go-magicdog/internal/cli"
	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/teleop"
)

const (
	commandPeriod = 2 * time.Millisecond
	gaitPoll      = 100 * time.Millisecond
	gaitPolls     = 100
)

func main() {
	configPath := flag.String("config", "", "config file")
	settle := flag.Duration("settle", 2*time.Second, "pause after each controller switch")
	hold := flag.Duration("hold", 10*time.Second, "pause after the first leg state")
	flag.Parse()

	cfg, logger := cli.Setup(*configPath)
	ctx, stop := cli.SignalContext()
	defer stop()

	fmt.Println("🦿 Low Level Motion Example")
	fmt.Printf("Robot: %s\n\n", cfg.Robot.Address)

	robot, err := cli.Connect(ctx, cfg, logger)
	if err != nil {
		cli.Fatal(logger, "connect failed", err)
	}

	err = run(ctx, robot, *settle, *hold, logger)
	robot.LowLevelMotion().UnsubscribeLegState()
	cli.Close(robot, logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("low level demo failed", "error", err, "code", dog.CodeOf(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, robot *dog.Robot, settle, hold time.Duration, logger *slog.Logger) error {
	high := robot.HighLevelMotion()
	if err := cli.Report(logger, "switch to high level", robot.SetMotionControlLevel(ctx, dog.LevelHigh)); err != nil {
		return err
	}

	gate := teleop.NewGaitGate(high, nil,
		teleop.WithPoll(gaitPoll),
		teleop.WithMaxAttempts(gaitPolls),
		teleop.WithGateLogger(logger),
	)
	if err := cli.Report(logger, "set passive gait", gate.Ensure(ctx, dog.GaitPassive)); err != nil {
		return err
	}
	if err := pause(ctx, settle); err != nil {
		return err
	}

	if err := cli.Report(logger, "switch to low level", robot.SetMotionControlLevel(ctx, dog.LevelLow)); err != nil {
		return err
	}
	if err := waitGait(ctx, high, dog.GaitLowLevelSDK); err != nil {
		return err
	}
	if err := pause(ctx, settle); err != nil {
		return err
	}

	low := robot.LowLevelMotion()
	legs, err := low.SubscribeLegState()
	if cli.Report(logger, "subscribe leg state", err) != nil {
		return err
	}

	var first *dog.LegState
	select {
	case <-ctx.Done():
		return ctx.Err()
	case st, ok := <-legs.C():
		if !ok {
			return errors.New("leg state stream closed")
		}
		first = st
	}
	logger.Info("leg state received", "timestamp", first.Timestamp)
	go cli.Watch(ctx, logger, legs, 1000, func(st *dog.LegState) []any {
		return []any{"q0", st.State[0].Q, "q1", st.State[1].Q, "q2", st.State[2].Q}
	})

	if err := pause(ctx, hold); err != nil {
		return err
	}

	tr := newTrajectory(first)
	ticker := time.NewTicker(commandPeriod)
	defer ticker.Stop()
	var sent, failed uint64
	for {
		select {
		case <-ctx.Done():
			logger.Info("stopped", "sent", sent, "failed", failed)
			return nil
		case <-ticker.C:
			cmd := tr.next()
			cmd.Timestamp = time.Now().UnixNano()
			if err := low.PublishLegCommand(cmd); err != nil {
				failed++
				if failed%500 == 1 {
					logger.Warn("publish leg command", "error", err, "failed", failed)
				}
				continue
			}
			sent++
		}
	}
}

// waitGait polls until the robot reports gait without requesting it; the
// level switch moves the gait on its own.
func waitGait(ctx context.Context, motion teleop.GaitController, want dog.GaitMode) error {
	for i := 0; i < gaitPolls; i++ {
		g, err := motion.GetGait(ctx)
		if err != nil {
			return fmt.Errorf("get gait: %w", err)
		}
		if g == want {
			return nil
		}
		if err := pause(ctx, gaitPoll); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: want %s", teleop.ErrGaitTimeout, want)
}

func pause(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
