package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/teslashibe/go-magicdog/internal/cli"
	"github.com/teslashibe/go-magicdog/internal/config"
	"github.com/teslashibe/go-magicdog/internal/httpc"
	"github.com/teslashibe/go-magicdog/pkg/capture"
	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/perception"
	"github.com/teslashibe/go-magicdog/pkg/telemetry"
	"github.com/teslashibe/go-magicdog/pkg/teleop"
)

// operator holds what the program sets up around the teleop session.
type operator struct {
	cfg     *config.Config
	robot   *dog.Robot
	logger  *slog.Logger
	metrics *telemetry.Metrics

	frameStream *dog.Stream[*dog.CompressedImage]
	voiceStream *dog.Stream[*dog.ByteMultiArray]
	frames      <-chan *dog.CompressedImage

	recorder *capture.Recorder
	latest   atomic.Pointer[dog.CompressedImage]
}

func (o *operator) setup(ctx context.Context) error {
	if err := o.setupAudio(ctx); err != nil {
		return err
	}
	if err := o.setupSensor(ctx); err != nil {
		return err
	}
	if err := cli.Report(o.logger, "set motion control level high",
		o.robot.SetMotionControlLevel(ctx, dog.LevelHigh)); err != nil {
		return err
	}
	if dir := o.cfg.Perception.CaptureDir; dir != "" {
		rec, err := capture.NewRecorder(dir)
		if err != nil {
			return err
		}
		o.recorder = rec
		o.logger.Info("snapshots enabled", "dir", rec.Dir())
	}
	return nil
}

func (o *operator) setupAudio(ctx context.Context) error {
	audio := o.robot.Audio()
	vol, err := audio.GetVolume(ctx)
	if cli.Report(o.logger, "get volume", err) != nil {
		return err
	}
	o.logger.Info("volume", "current", vol, "target", o.cfg.Teleop.Volume)
	if err := cli.Report(o.logger, "set volume", audio.SetVolume(ctx, o.cfg.Teleop.Volume)); err != nil {
		return err
	}

	cur, err := audio.GetVoiceConfig(ctx)
	if cli.Report(o.logger, "get voice config", err) != nil {
		return err
	}
	o.logger.Info("voice config",
		"speaker_id", cur.SpeakerConfig.Selected.SpeakerID,
		"region", cur.SpeakerConfig.Selected.Region,
		"bot_id", cur.BotConfig.Selected.BotID,
		"wakeup_name", cur.WakeupConfig.Name,
		"custom_bots", len(cur.BotConfig.CustomData),
	)
	err = audio.SetVoiceConfig(ctx, dog.SetSpeechConfig{
		SpeakerID:          cur.SpeakerConfig.Selected.SpeakerID,
		Region:             cur.SpeakerConfig.Selected.Region,
		BotID:              cur.BotConfig.Selected.BotID,
		IsFrontDoa:         true,
		IsFullduplexEnable: true,
		IsEnable:           true,
		IsDoaEnable:        true,
		SpeakerSpeed:       cur.SpeakerConfig.SpeakerSpeed,
		WakeupName:         o.cfg.Teleop.WakeupName,
		CustomBot:          cur.BotConfig.CustomData,
	})
	if cli.Report(o.logger, "set voice config", err) != nil {
		return err
	}

	o.voiceStream, err = audio.SubscribeBfVoiceData()
	return cli.Report(o.logger, "subscribe bf voice data", err)
}

func (o *operator) setupSensor(ctx context.Context) error {
	sensor := o.robot.Sensor()
	if err := cli.Report(o.logger, "open channel switch", sensor.OpenChannelSwitch(ctx)); err != nil {
		return err
	}
	var err error
	o.frameStream, err = sensor.SubscribeLeftBinocularHighImg()
	if cli.Report(o.logger, "subscribe left binocular high image", err) != nil {
		return err
	}
	o.frames = o.frameStream.C()
	return cli.Report(o.logger, "open binocular camera", sensor.OpenBinocularCamera(ctx))
}

// teardown mirrors setup. Failures are logged; every step runs.
func (o *operator) teardown(ctx context.Context) {
	sensor := o.robot.Sensor()
	cli.Report(o.logger, "close binocular camera", sensor.CloseBinocularCamera(ctx))
	cli.Report(o.logger, "close channel switch", sensor.CloseChannelSwitch(ctx))
	cli.Report(o.logger, "unsubscribe left binocular high image", sensor.UnsubscribeLeftBinocularHighImg())

	audio := o.robot.Audio()
	cli.Report(o.logger, "unsubscribe bf voice data", audio.UnsubscribeBfVoiceData())
	cli.Report(o.logger, "stop tts", audio.Stop(ctx))
}

func (o *operator) framesDropped() uint64 {
	var n uint64
	if o.frameStream != nil {
		n += o.frameStream.Dropped()
		o.metrics.StreamDropped(o.frameStream.Topic(), o.frameStream.Dropped())
	}
	if o.voiceStream != nil {
		o.metrics.StreamDropped(o.voiceStream.Topic(), o.voiceStream.Dropped())
	}
	return n
}

// teeFrames remembers the newest frame for snapshots and passes every frame
// on unchanged.
func (o *operator) teeFrames(ctx context.Context, in <-chan *dog.CompressedImage) <-chan *dog.CompressedImage {
	out := make(chan *dog.CompressedImage, cap(in))
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case img, ok := <-in:
				if !ok {
					return
				}
				o.latest.Store(img)
				select {
				case out <- img:
				default:
				}
			}
		}
	}()
	return out
}

func (o *operator) snapshot(context.Context) error {
	img := o.latest.Load()
	if img == nil {
		return errors.New("no camera frame yet")
	}
	path, err := o.recorder.SaveFrame("snapshot", img)
	if err != nil {
		return err
	}
	o.logger.Info("snapshot saved", "path", path)
	return nil
}

// perceptionWorkers builds the face greeter and the voice commander. They
// share one debouncer, so a greeting and a voice command never start
// within one request cooldown of each other.
func (o *operator) perceptionWorkers(actions perception.KeyDispatcher, frames <-chan *dog.CompressedImage, nav bool) ([]teleop.Worker, error) {
	pc := o.cfg.Perception
	roster, err := perception.LoadRoster(pc.RosterFile)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}

	hc := httpc.NewClient(pc.HTTPTimeout)
	debounce := perception.NewDebouncer(pc.RequestCooldown, pc.IdentityCooldown)
	opts := []perception.Option{
		perception.WithLogger(o.logger),
		perception.WithMetrics(o.metrics),
	}

	faces := perception.NewFaceClient(pc.FaceURL,
		perception.WithThreshold(pc.SimilarityThreshold),
		perception.WithHTTPClient(hc),
	)
	greeter := perception.NewFaceGreeter(faces, o.robot.Audio(), debounce, roster, opts...)

	commands := perception.DefaultCommands
	if nav {
		commands = append(append([]perception.Command(nil), perception.DefaultCommands...), perception.NavCommands...)
	}
	speech := perception.NewSpeechClient(pc.SpeechURL, hc)
	voice := perception.NewVoiceCommander(speech, actions, debounce, commands, opts...)

	voiceChunks := o.voiceStream.C()
	return []teleop.Worker{
		func(ctx context.Context) error { return greeter.Run(ctx, frames) },
		func(ctx context.Context) error { return voice.Run(ctx, voiceChunks) },
	}, nil
}
