// slam-example - build, save and manage maps while walking the robot
//
// Movement keys drive the joystick sender like the keyboard operator;
// map names are typed on a prompt line. '7' also writes every map image as
// a PGM file.
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
	"github.com/teslashibe/go-magicdog/pkg/capture"
	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/teleop"
)

func main() {
	configPath := flag.String("config", "", "config file")
	mapDir := flag.String("maps", "", "directory for PGM map images (default perception.capture_dir or ./maps)")
	flag.Parse()

	cfg, logger := cli.Setup(*configPath)
	ctx, stop := cli.SignalContext()
	defer stop()

	dir := *mapDir
	if dir == "" {
		dir = cfg.Perception.CaptureDir
	}
	if dir == "" {
		dir = "maps"
	}
	recorder, err := capture.NewRecorder(dir)
	if err != nil {
		cli.Fatal(logger, "map directory", err)
	}

	robot, err := cli.Connect(ctx, cfg, logger)
	if err != nil {
		cli.Fatal(logger, "connect failed", err)
	}
	if err := cli.Report(logger, "set motion control level", robot.SetMotionControlLevel(ctx, dog.LevelHigh)); err != nil {
		cli.Close(robot, logger)
		os.Exit(1)
	}

	motion := robot.HighLevelMotion()
	session := teleop.NewSession(motion, teleop.SessionConfig{
		Tick:            cfg.Teleop.Tick,
		GatePoll:        cfg.Teleop.GatePoll,
		GateMaxAttempts: cfg.Teleop.GateMaxAttempts,
		Logger:          logger,
	})
	s := &slamMenu{nav: robot.SlamNav(), motion: motion, recorder: recorder, logger: logger}
	session.Dispatcher.BindAll(s.keymap())
	session.Dispatcher.Bind('?', teleop.FuncBinding(func(context.Context) error {
		fmt.Print("\nSLAM\n", session.Dispatcher.Help())
		return nil
	}, "Show this menu"))

	fmt.Print("SLAM\n", session.Dispatcher.Help())
	err = session.Run(ctx, teleop.NewKeyboard(os.Stdin))
	cli.Close(robot, logger)
	if err != nil && ctx.Err() == nil {
		logger.Error("slam example stopped", "error", err)
		os.Exit(1)
	}
}

type slamMenu struct {
	nav      *dog.SlamNav
	motion   *dog.HighLevelMotion
	recorder *capture.Recorder
	logger   *slog.Logger
}

func (s *slamMenu) keymap() teleop.Keymap {
	km := teleop.Keymap{
		{Key: '1', Binding: teleop.GaitBinding(dog.GaitStandR, false, "Recovery stand")},
		{Key: '2', Binding: teleop.FuncBinding(func(ctx context.Context) error {
			return cli.Report(s.logger, "start mapping", s.nav.StartMapping(ctx))
		}, "Start mapping")},
		{Key: '3', Binding: teleop.FuncBinding(func(ctx context.Context) error {
			return cli.Report(s.logger, "cancel mapping", s.nav.CancelMapping(ctx))
		}, "Cancel mapping")},
		{Key: '4', Binding: teleop.FuncBinding(s.saveMap, "Save map")},
		{Key: '5', Binding: teleop.FuncBinding(s.withMapName("load map", s.nav.LoadMap), "Load map")},
		{Key: '6', Binding: teleop.FuncBinding(s.withMapName("delete map", s.nav.DeleteMap), "Delete map")},
		{Key: '7', Binding: teleop.FuncBinding(s.allMaps, "List maps and save PGM images")},
		{Key: 'P', Binding: teleop.FuncBinding(func(ctx context.Context) error {
			return cli.Report(s.logger, "close slam", s.nav.SwitchToIdle(ctx))
		}, "Close SLAM")},
	}
	moves := []struct {
		key                          byte
		leftX, leftY, rightX, rightY float64
		help                         string
	}{
		{'w', 0, 1, 0, 0, "Forward"},
		{'s', 0, -1, 0, 0, "Backward"},
		{'a', -1, 0, 0, 0, "Left"},
		{'d', 1, 0, 0, 0, "Right"},
		{'t', 0, 0, -1, 0, "Turn left"},
		{'g', 0, 0, 1, 0, "Turn right"},
		{'x', 0, 0, 0, 0, "Stop"},
	}
	for _, m := range moves {
		b := teleop.MoveBinding(m.leftX, m.leftY, m.rightX, m.rightY, m.help)
		km = append(km, teleop.KeyBinding{Key: m.key, Binding: b}, teleop.KeyBinding{Key: m.key - 'a' + 'A', Binding: b})
	}
	return km
}

func (s *slamMenu) saveMap(ctx context.Context) error {
	name := cli.PromptDefault("Map name", fmt.Sprintf("map_%d", time.Now().Unix()))
	return cli.Report(s.logger, "save map "+name, s.nav.SaveMap(ctx, name))
}

func (s *slamMenu) withMapName(op string, fn func(context.Context, string) error) func(context.Context) error {
	return func(ctx context.Context) error {
		name, err := cli.Prompt("Map name: ")
		if err != nil {
			return err
		}
		if name == "" {
			return errors.New("no map name given")
		}
		return cli.Report(s.logger, op+" "+name, fn(ctx, name))
	}
}

func (s *slamMenu) allMaps(ctx context.Context) error {
	all, err := s.nav.GetAllMapInfo(ctx)
	if cli.Report(s.logger, "get all map info", err) != nil {
		return err
	}
	fmt.Printf("Current map: %s\n", all.CurrentMapName)
	for i, m := range all.MapInfos {
		meta := m.MapMetaData
		img := meta.MapImageData
		fmt.Printf("  Map %d: %s  %dx%d  %.3f m/px  origin (%.2f, %.2f)\n",
			i+1, m.MapName, img.Width, img.Height, meta.Resolution, meta.Origin.Position[0], meta.Origin.Position[1])
		path, err := s.recorder.SaveMap(m)
		if err != nil {
			s.logger.Warn("save map image", "map", m.MapName, "error", err)
			continue
		}
		s.logger.Info("map image saved", "map", m.MapName, "path", path)
	}
	return nil
}
