// navigation-example - localize on a saved map and navigate to goals
//
// Line-mode menu: type a key and press enter. Keys that need a pose prompt
// for "x y yaw" on the next line.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/teslashibe/go-magicdog/internal/cli"
	"github.com/teslashibe/go-magicdog/pkg/dog"
)

func main() {
	configPath := flag.String("config", "", "config file")
	flag.Parse()

	cfg, logger := cli.Setup(*configPath)
	ctx, stop := cli.SignalContext()
	defer stop()

	robot, err := cli.Connect(ctx, cfg, logger)
	if err != nil {
		cli.Fatal(logger, "connect failed", err)
	}
	if err := cli.Report(logger, "set motion control level", robot.SetMotionControlLevel(ctx, dog.LevelHigh)); err != nil {
		cli.Close(robot, logger)
		os.Exit(1)
	}

	n := &navMenu{nav: robot.SlamNav(), motion: robot.HighLevelMotion(), logger: logger}
	menu := cli.NewMenu("SLAM and Navigation", logger)
	n.bind(menu)
	err = menu.Run(ctx, cli.Stdin())

	n.nav.UnsubscribeOdometry()
	cli.Close(robot, logger)
	if err != nil {
		logger.Error("menu stopped", "error", err)
		os.Exit(1)
	}
}

type navMenu struct {
	nav    *dog.SlamNav
	motion *dog.HighLevelMotion
	logger *slog.Logger
	nextID int32
}

func (n *navMenu) bind(m *cli.Menu) {
	m.Add('1', "Recovery stand", func(ctx context.Context) error {
		return cli.Report(n.logger, "recovery stand", n.motion.SetGait(ctx, dog.GaitStandR))
	})
	m.Add('2', "Switch to localization mode", func(ctx context.Context) error {
		return cli.Report(n.logger, "switch to localization", n.nav.SwitchToLocation(ctx))
	})
	m.Add('3', "Switch to navigation mode", func(ctx context.Context) error {
		return cli.Report(n.logger, "activate grid map navigation", n.nav.ActivateNavMode(ctx, dog.NavModeGridMap))
	})
	m.Add('4', "Initialize pose", n.initPose)
	m.Add('5', "Get current pose", n.pose)
	m.Add('6', "Set navigation target", n.target)
	m.Add('7', "Pause navigation", func(ctx context.Context) error {
		return cli.Report(n.logger, "pause navigation", n.nav.PauseNavTask(ctx))
	})
	m.Add('8', "Resume navigation", func(ctx context.Context) error {
		return cli.Report(n.logger, "resume navigation", n.nav.ResumeNavTask(ctx))
	})
	m.Add('9', "Cancel navigation", func(ctx context.Context) error {
		return cli.Report(n.logger, "cancel navigation", n.nav.CancelNavTask(ctx))
	})
	m.Add('0', "Get navigation status", n.status)
	m.Add('C', "Subscribe odometry", n.subscribeOdometry)
	m.Add('V', "Unsubscribe odometry", func(context.Context) error {
		return cli.Report(n.logger, "unsubscribe odometry", n.nav.UnsubscribeOdometry())
	})
	m.Add('L', "Close navigation", func(ctx context.Context) error {
		return cli.Report(n.logger, "close navigation", n.nav.ActivateNavMode(ctx, dog.NavModeIdle))
	})
	m.Add('P', "Close SLAM", func(ctx context.Context) error {
		return cli.Report(n.logger, "close slam", n.nav.SwitchToIdle(ctx))
	})
}

func (n *navMenu) initPose(ctx context.Context) error {
	pose, err := cli.PromptPose("Initial pose")
	if err != nil {
		return err
	}
	n.logger.Info("initial pose", "x", pose.Position[0], "y", pose.Position[1], "yaw", pose.Orientation[2])
	return cli.Report(n.logger, "init pose", n.nav.InitPose(ctx, pose))
}

func (n *navMenu) pose(ctx context.Context) error {
	info, err := n.nav.GetCurrentLocalizationInfo(ctx)
	if cli.Report(n.logger, "get localization info", err) != nil {
		return err
	}
	p := info.Pose
	fmt.Printf("Localized: %t\n", info.IsLocalization)
	fmt.Printf("Position: %.3f, %.3f, %.3f\n", p.Position[0], p.Position[1], p.Position[2])
	fmt.Printf("Orientation: %.3f, %.3f, %.3f\n", p.Orientation[0], p.Orientation[1], p.Orientation[2])
	return nil
}

func (n *navMenu) target(ctx context.Context) error {
	goal, err := cli.PromptPose("Target")
	if err != nil {
		return err
	}
	n.nextID++
	t := dog.NavTarget{ID: n.nextID, FrameID: "map", Goal: goal}
	if err := cli.Report(n.logger, "set navigation target", n.nav.SetNavTarget(ctx, t)); err != nil {
		return err
	}
	n.logger.Info("navigation target", "id", t.ID, "x", goal.Position[0], "y", goal.Position[1], "yaw", goal.Orientation[2])
	return nil
}

func (n *navMenu) status(ctx context.Context) error {
	st, err := n.nav.GetNavTaskStatus(ctx)
	if cli.Report(n.logger, "get navigation status", err) != nil {
		return err
	}
	fmt.Printf("Target ID: %d\nStatus: %s\nMessage: %s\n", st.ID, st.Status, st.Message)
	return nil
}

func (n *navMenu) subscribeOdometry(ctx context.Context) error {
	odom, err := n.nav.SubscribeOdometry()
	if cli.Report(n.logger, "subscribe odometry", err) != nil {
		return err
	}
	go cli.Watch(ctx, n.logger, odom, 10, func(o *dog.Odometry) []any {
		return []any{"position", o.Position, "orientation", o.Orientation, "linear", o.LinearVelocity}
	})
	return nil
}
