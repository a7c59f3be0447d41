// sensor-example - menu over the sensor controller
//
// Digits open and close the sensor channels, lowercase letters subscribe to
// a stream and the uppercase letter unsubscribes it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync/atomic"

	"github.com/teslashibe/go-magicdog/internal/cli"
	"github.com/teslashibe/go-magicdog/pkg/capture"
	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/teleop"
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

	s := &sensorMenu{sensor: robot.Sensor(), logger: logger, active: make(map[string]func() error)}
	if dir := cfg.Perception.CaptureDir; dir != "" {
		if s.recorder, err = capture.NewRecorder(dir); err != nil {
			logger.Warn("snapshots disabled", "error", err)
		}
	}

	menu := cli.NewMenu("Sensor Controller", logger)
	s.bind(menu)
	err = menu.Run(ctx, teleop.NewKeyboard(os.Stdin))

	s.unsubscribeAll()
	cli.Close(robot, logger)
	if err != nil {
		logger.Error("menu stopped", "error", err)
		os.Exit(1)
	}
}

type sensorMenu struct {
	sensor   *dog.Sensor
	logger   *slog.Logger
	recorder *capture.Recorder
	latest   atomic.Pointer[dog.CompressedImage]

	// active maps a subscribed topic name to its unsubscribe call.
	active map[string]func() error
}

func (s *sensorMenu) bind(m *cli.Menu) {
	toggle := func(key byte, name string, open, closeFn func(context.Context) error) {
		m.Add(key, "Open "+name, func(ctx context.Context) error { return cli.Report(s.logger, "open "+name, open(ctx)) })
		m.Add(key+1, "Close "+name, func(ctx context.Context) error { return cli.Report(s.logger, "close "+name, closeFn(ctx)) })
	}
	toggle('1', "channel switch", s.sensor.OpenChannelSwitch, s.sensor.CloseChannelSwitch)
	toggle('3', "laser scan", s.sensor.OpenLaserScan, s.sensor.CloseLaserScan)
	toggle('5', "rgbd camera", s.sensor.OpenRgbdCamera, s.sensor.CloseRgbdCamera)
	toggle('7', "binocular camera", s.sensor.OpenBinocularCamera, s.sensor.CloseBinocularCamera)

	image := func(v *dog.Image) []any {
		return []any{"width", v.Width, "height", v.Height, "encoding", v.Encoding, "bytes", len(v.Data)}
	}
	info := func(v *dog.CameraInfo) []any {
		return []any{"width", v.Width, "height", v.Height, "model", v.DistortionModel}
	}
	compressed := func(v *dog.CompressedImage) []any {
		return []any{"format", v.Format, "bytes", len(v.Data)}
	}
	leftHigh := func(v *dog.CompressedImage) []any {
		s.latest.Store(v)
		return compressed(v)
	}

	bindTopic(s, m, 'u', "ultra", s.sensor.SubscribeUltra, s.sensor.UnsubscribeUltra, 10,
		func(v *dog.Float32MultiArray) []any { return []any{"ranges", v.Data} })
	bindTopic(s, m, 'l', "laser scan", s.sensor.SubscribeLaserScan, s.sensor.UnsubscribeLaserScan, 10,
		func(v *dog.LaserScan) []any { return []any{"points", len(v.Ranges), "frame", v.Header.FrameID} })
	bindTopic(s, m, 'h', "head touch", s.sensor.SubscribeHeadTouch, s.sensor.UnsubscribeHeadTouch, 1,
		func(v *dog.HeadTouch) []any { return []any{"data", v.Data} })
	bindTopic(s, m, 'i', "imu", s.sensor.SubscribeImu, s.sensor.UnsubscribeImu, 500,
		func(v *dog.Imu) []any {
			return []any{"orientation", v.Orientation, "acc", v.LinearAcceleration, "temp", v.Temperature}
		})
	bindTopic(s, m, 'r', "rgbd color info", s.sensor.SubscribeRgbdColorCameraInfo, s.sensor.UnsubscribeRgbdColorCameraInfo, 30, info)
	bindTopic(s, m, 'd', "rgbd depth image", s.sensor.SubscribeRgbdDepthImage, s.sensor.UnsubscribeRgbdDepthImage, 30, image)
	bindTopic(s, m, 'c', "rgbd color image", s.sensor.SubscribeRgbdColorImage, s.sensor.UnsubscribeRgbdColorImage, 30, image)
	bindTopic(s, m, 'p', "rgb depth info", s.sensor.SubscribeRgbDepthCameraInfo, s.sensor.UnsubscribeRgbDepthCameraInfo, 30, info)
	bindTopic(s, m, 'b', "left binocular high", s.sensor.SubscribeLeftBinocularHighImg, s.sensor.UnsubscribeLeftBinocularHighImg, 30, leftHigh)
	bindTopic(s, m, 'n', "left binocular low", s.sensor.SubscribeLeftBinocularLowImg, s.sensor.UnsubscribeLeftBinocularLowImg, 30, compressed)
	bindTopic(s, m, 'm', "right binocular low", s.sensor.SubscribeRightBinocularLowImg, s.sensor.UnsubscribeRightBinocularLowImg, 30, compressed)
	bindTopic(s, m, 'e', "depth image", s.sensor.SubscribeDepthImage, s.sensor.UnsubscribeDepthImage, 30, image)

	m.Add('s', "Show subscriptions", func(context.Context) error {
		s.status()
		return nil
	})
	if s.recorder != nil {
		m.Add('k', "Save latest left binocular frame", s.snapshot)
	}
}

// bindTopic binds key to subscribe and its uppercase form to unsubscribe.
func bindTopic[T any](s *sensorMenu, m *cli.Menu, key byte, name string,
	subscribe func() (*dog.Stream[T], error), unsubscribe func() error,
	every int, describe func(T) []any,
) {
	m.Add(key, "Subscribe "+name, func(ctx context.Context) error {
		st, err := subscribe()
		if cli.Report(s.logger, "subscribe "+name, err) != nil {
			return err
		}
		s.active[name] = unsubscribe
		go cli.Watch(ctx, s.logger, st, every, describe)
		return nil
	})
	m.Add(key-'a'+'A', "Unsubscribe "+name, func(context.Context) error {
		delete(s.active, name)
		return cli.Report(s.logger, "unsubscribe "+name, unsubscribe())
	})
}

func (s *sensorMenu) status() {
	if len(s.active) == 0 {
		fmt.Println("No active subscriptions")
		return
	}
	names := make([]string, 0, len(s.active))
	for n := range s.active {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Println("Active subscriptions:")
	for _, n := range names {
		fmt.Printf("  %s\n", n)
	}
}

func (s *sensorMenu) snapshot(context.Context) error {
	img := s.latest.Load()
	if img == nil {
		return errors.New("no left binocular frame yet, subscribe with 'b'")
	}
	path, err := s.recorder.SaveFrame("left_high", img)
	if err != nil {
		return err
	}
	s.logger.Info("frame saved", "path", path)
	return nil
}

func (s *sensorMenu) unsubscribeAll() {
	for name, unsubscribe := range s.active {
		cli.Report(s.logger, "unsubscribe "+name, unsubscribe())
	}
	s.active = nil
}
