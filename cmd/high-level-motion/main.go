// high-level-motion - stand, lie down and walk with the joystick sender
//
// Sets the stair-descending speed ratio, then reads keys until ESC.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/teslashibe/go-magicdog/internal/cli"
	"github.com/teslashibe/go-magicdog/internal/config"
	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/teleop"
)

func main() {
	configPath := flag.String("config", "", "config file")
	straight := flag.Float64("straight", 0.25, "straight speed ratio")
	turn := flag.Float64("turn", 0.2, "turn speed ratio")
	lateral := flag.Float64("lateral", 0.4, "lateral speed ratio")
	flag.Parse()

	cfg, logger := cli.Setup(*configPath)
	ctx, stop := cli.SignalContext()
	defer stop()

	fmt.Println("🐕 High Level Motion Example")
	fmt.Printf("Robot: %s\n\n", cfg.Robot.Address)

	robot, err := cli.Connect(ctx, cfg, logger)
	if err != nil {
		cli.Fatal(logger, "connect failed", err)
	}

	ratio := dog.GaitSpeedRatio{StraightRatio: *straight, TurnRatio: *turn, LateralRatio: *lateral}
	err = run(ctx, cfg, robot, ratio, logger)
	cli.Close(robot, logger)
	if err != nil {
		os.Exit(1)
	}
	fmt.Println("\n👋 Bye")
}

func run(ctx context.Context, cfg *config.Config, robot *dog.Robot, ratio dog.GaitSpeedRatio, logger *slog.Logger) error {
	motion := robot.HighLevelMotion()
	if err := cli.Report(logger, "switch motion control level", robot.SetMotionControlLevel(ctx, dog.LevelHigh)); err != nil {
		return err
	}

	target := dog.GaitDownClimbStairs
	if err := cli.Report(logger, "set gait speed ratio", motion.SetGaitSpeedRatio(ctx, target, ratio)); err != nil {
		return err
	}
	gains, err := teleop.LoadGains(ctx, motion, target)
	if cli.Report(logger, "get all gait speed ratio", err) != nil {
		return err
	}
	logger.Info("joystick gains", "left_x", gains.LeftX, "left_y", gains.LeftY, "right_x", gains.RightX, "right_y", gains.RightY)

	session := teleop.NewSession(motion, teleop.SessionConfig{
		Target:          &target,
		Gains:           gains,
		Tick:            cfg.Teleop.Tick,
		GatePoll:        cfg.Teleop.GatePoll,
		GateMaxAttempts: cfg.Teleop.GateMaxAttempts,
		Logger:          logger,
	})
	session.Dispatcher.BindAll(teleop.HighLevelKeymap(motion))

	fmt.Println("Key bindings:")
	fmt.Print(session.Dispatcher.Help())
	fmt.Println("\nPress any key to continue (ESC to exit)...")

	kb := teleop.NewKeyboard(os.Stdin)
	defer kb.Restore()
	if err := session.Run(ctx, kb); err != nil && ctx.Err() == nil {
		logger.Error("teleop stopped", "error", err)
		return err
	}
	return nil
}
