// keyboard-operator - drive the robot from the keyboard
//
// Keys set gaits, run tricks and move the robot through the joystick
// sender. Faces seen by the left binocular camera are greeted by name and
// spoken commands ("握手", "跳舞", "导航") run the matching keys.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/teslashibe/go-magicdog/internal/cli"
	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/telemetry"
	"github.com/teslashibe/go-magicdog/pkg/teleop"
	"github.com/teslashibe/go-magicdog/pkg/web"
)

func main() {
	configPath := flag.String("config", "", "config file (default magicdog.yaml if present)")
	noPerception := flag.Bool("no-perception", false, "disable face greeting and voice commands")
	withNav := flag.Bool("nav", false, "bind the navigation keys (n, b, P, U, X)")
	flag.Parse()

	cfg, logger := cli.Setup(*configPath)
	ctx, stop := cli.SignalContext()
	defer stop()

	fmt.Println("🐕 MagicDog Keyboard Operator")
	fmt.Println("=============================")
	fmt.Printf("Robot: %s\n\n", cfg.Robot.Address)

	robot, err := cli.Connect(ctx, cfg, logger)
	if err != nil {
		cli.Fatal(logger, "connect failed", err)
	}

	op := &operator{cfg: cfg, robot: robot, logger: logger, metrics: telemetry.New()}
	if err := op.setup(ctx); err != nil {
		cli.Close(robot, logger)
		cli.Fatal(logger, "setup failed", err)
	}

	motion := robot.HighLevelMotion()
	target := dog.GaitMode(cfg.Teleop.TargetGait)
	gains, err := teleop.LoadGains(ctx, motion, target)
	if err != nil {
		logger.Warn("speed ratios unavailable, velocities not logged", "error", err)
	}
	logger.Info("joystick gains", "left_x", gains.LeftX, "left_y", gains.LeftY, "right_x", gains.RightX, "right_y", gains.RightY)

	session := teleop.NewSession(motion, teleop.SessionConfig{
		Target:          &target,
		Gains:           gains,
		Tick:            cfg.Teleop.Tick,
		GatePoll:        cfg.Teleop.GatePoll,
		GateMaxAttempts: cfg.Teleop.GateMaxAttempts,
		Logger:          logger,
		Metrics:         op.metrics,
	})

	dancer := teleop.NewDancer(motion, robot.Audio(), robot.Sensor(), session.State)
	dancer.Duration = cfg.Teleop.DanceDuration
	dancer.Logger = logger.With("component", "dance")

	var nav *teleop.Navigator
	if *withNav {
		nav = teleop.NewNavigator(robot.SlamNav(), motion, teleop.DefaultRoute()).
			WithLogger(logger.With("component", "nav"))
	}
	session.Dispatcher.BindAll(teleop.KeyboardOperatorKeymap(dancer, nav))

	var workers []teleop.Worker
	frames := op.frames
	if op.recorder != nil {
		frames = op.teeFrames(ctx, frames)
		session.Dispatcher.Bind('p', teleop.FuncBinding(op.snapshot, "Save camera snapshot"))
	}
	if !*noPerception {
		pw, err := op.perceptionWorkers(session.Dispatcher, frames, *withNav)
		if err != nil {
			cli.Close(robot, logger)
			cli.Fatal(logger, "perception setup failed", err)
		}
		workers = append(workers, pw...)
	}

	if cfg.Web.Addr != "" {
		dash := web.NewServer(session, web.Config{Logger: logger, Metrics: op.metrics})
		addr := cfg.Web.Addr
		workers = append(workers, func(ctx context.Context) error { return dash.Run(ctx, addr) })
		fmt.Printf("Dashboard: http://%s\n", addr)
	}

	fmt.Println("\nKey bindings:")
	fmt.Print(session.Dispatcher.Help())
	fmt.Println("\nPress any key to continue (ESC to exit)...")

	kb := teleop.NewKeyboard(os.Stdin)
	runErr := session.Run(ctx, kb, workers...)
	kb.Restore()
	if runErr != nil && ctx.Err() == nil {
		logger.Error("teleop stopped", "error", runErr)
	}

	fmt.Println("\n👋 Shutting down...")
	teardownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	op.teardown(teardownCtx)
	cli.Close(robot, logger)

	logger.Info("teleop finished",
		"ticks", session.Sender.Ticks(),
		"send_errors", session.Sender.Errors(),
		"frames_dropped", op.framesDropped(),
	)
	if runErr != nil && ctx.Err() == nil {
		os.Exit(1)
	}
}
