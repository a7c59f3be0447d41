// audio-example - menu over the audio controller
//
// Volume, TTS playback, voice configuration and the raw and beam-formed
// voice streams. With perception.capture_dir set, 'r' records the raw
// stream to a WAV file.
package main

import (
	"context"
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

// Sample played by '3'.
var sampleTts = dog.TtsCommand{
	ID:       "100000000001",
	Content:  "How's the weather today!",
	Priority: dog.TtsPriorityHigh,
	Mode:     dog.TtsModeClearTop,
}

func main() {
	configPath := flag.String("config", "", "config file")
	volume := flag.Int("volume", 50, "volume set by '2'")
	record := flag.Duration("record", 5*time.Second, "recording length for 'r'")
	flag.Parse()

	cfg, logger := cli.Setup(*configPath)
	ctx, stop := cli.SignalContext()
	defer stop()

	robot, err := cli.Connect(ctx, cfg, logger)
	if err != nil {
		cli.Fatal(logger, "connect failed", err)
	}

	a := &audioMenu{audio: robot.Audio(), logger: logger, volume: *volume, record: *record}
	if dir := cfg.Perception.CaptureDir; dir != "" {
		if a.recorder, err = capture.NewRecorder(dir); err != nil {
			logger.Warn("recording disabled", "error", err)
		}
	}

	menu := cli.NewMenu("Audio Controller", logger)
	a.bind(menu)
	err = menu.Run(ctx, teleop.NewKeyboard(os.Stdin))

	a.audio.UnsubscribeOriginVoiceData()
	a.audio.UnsubscribeBfVoiceData()
	cli.Close(robot, logger)
	if err != nil {
		logger.Error("menu stopped", "error", err)
		os.Exit(1)
	}
}

type audioMenu struct {
	audio    *dog.Audio
	logger   *slog.Logger
	volume   int
	record   time.Duration
	recorder *capture.Recorder
	model    dog.TtsType
}

func (a *audioMenu) bind(m *cli.Menu) {
	m.Add('1', "Get volume", a.getVolume)
	m.Add('2', fmt.Sprintf("Set volume to %d", a.volume), func(ctx context.Context) error {
		return cli.Report(a.logger, "set volume", a.audio.SetVolume(ctx, a.volume))
	})
	m.Add('3', "Play TTS", func(ctx context.Context) error {
		return cli.Report(a.logger, "play tts", a.audio.Play(ctx, sampleTts))
	})
	m.Add('4', "Stop playback", func(ctx context.Context) error {
		return cli.Report(a.logger, "stop tts", a.audio.Stop(ctx))
	})
	m.Add('5', "Get voice config", a.voiceConfig)
	m.Add('6', "Open voice stream", func(ctx context.Context) error {
		return cli.Report(a.logger, "open voice stream", a.audio.ControlVoiceStream(ctx, true, true))
	})
	m.Add('7', "Close voice stream", func(ctx context.Context) error {
		return cli.Report(a.logger, "close voice stream", a.audio.ControlVoiceStream(ctx, false, false))
	})
	m.Add('8', "Subscribe voice streams", a.subscribe)
	m.Add('9', "Unsubscribe voice streams", func(context.Context) error {
		cli.Report(a.logger, "unsubscribe origin voice", a.audio.UnsubscribeOriginVoiceData())
		return cli.Report(a.logger, "unsubscribe bf voice", a.audio.UnsubscribeBfVoiceData())
	})
	m.Add('m', "Switch TTS model", a.switchModel)
	if a.recorder != nil {
		m.Add('r', fmt.Sprintf("Record %s of raw voice to WAV", a.record), a.recordWAV)
	}
}

func (a *audioMenu) getVolume(ctx context.Context) error {
	v, err := a.audio.GetVolume(ctx)
	if cli.Report(a.logger, "get volume", err) != nil {
		return err
	}
	fmt.Printf("Volume: %d\n", v)
	return nil
}

func (a *audioMenu) voiceConfig(ctx context.Context) error {
	c, err := a.audio.GetVoiceConfig(ctx)
	if cli.Report(a.logger, "get voice config", err) != nil {
		return err
	}
	fmt.Printf("TTS type: %s\n", c.TtsType)
	fmt.Printf("Speaker: %s (%s), speed %.2f\n", c.SpeakerConfig.Selected.SpeakerID, c.SpeakerConfig.Selected.Region, c.SpeakerConfig.SpeakerSpeed)
	fmt.Printf("Bot: %s, custom bots: %d\n", c.BotConfig.Selected.BotID, len(c.BotConfig.CustomData))
	fmt.Printf("Wakeup name: %s\n", c.WakeupConfig.Name)
	d := c.DialogConfig
	fmt.Printf("Dialog: enabled=%t front_doa=%t fullduplex=%t doa=%t\n", d.IsEnable, d.IsFrontDoa, d.IsFullduplexEnable, d.IsDoaEnable)
	for id, bot := range c.BotConfig.CustomData {
		fmt.Printf("  custom bot %s: %s\n", id, bot.Name)
	}
	a.model = c.TtsType
	return nil
}

func (a *audioMenu) switchModel(ctx context.Context) error {
	next := dog.TtsTypeDoubao
	if a.model == dog.TtsTypeDoubao {
		next = dog.TtsTypeGoogle
	}
	c, err := a.audio.SwitchTtsVoiceModel(ctx, next)
	if cli.Report(a.logger, "switch tts model to "+next.String(), err) != nil {
		return err
	}
	a.model = c.TtsType
	return nil
}

func (a *audioMenu) subscribe(ctx context.Context) error {
	origin, err := a.audio.SubscribeOriginVoiceData()
	if cli.Report(a.logger, "subscribe origin voice", err) != nil {
		return err
	}
	bf, err := a.audio.SubscribeBfVoiceData()
	if cli.Report(a.logger, "subscribe bf voice", err) != nil {
		return err
	}
	describe := func(v *dog.ByteMultiArray) []any { return []any{"bytes", len(v.Data)} }
	go cli.Watch(ctx, a.logger, origin, 30, describe)
	go cli.Watch(ctx, a.logger, bf, 30, describe)
	return nil
}

// recordWAV collects raw voice for a.record and saves it. The voice stream
// must be open ('6').
func (a *audioMenu) recordWAV(ctx context.Context) error {
	origin, err := a.audio.SubscribeOriginVoiceData()
	if err != nil {
		return err
	}
	defer a.audio.UnsubscribeOriginVoiceData()

	var pcm []byte
	deadline := time.After(a.record)
collect:
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			break collect
		case chunk, ok := <-origin.C():
			if !ok {
				break collect
			}
			pcm = append(pcm, chunk.Data...)
		}
	}
	if len(pcm) == 0 {
		return fmt.Errorf("no audio received in %s, is the voice stream open?", a.record)
	}
	if len(pcm)%2 == 1 {
		pcm = pcm[:len(pcm)-1]
	}
	path, err := a.recorder.SaveWAV("origin", pcm, capture.SpeechSampleRate, capture.SpeechChannels)
	if err != nil {
		return err
	}
	a.logger.Info("recording saved", "path", path, "bytes", len(pcm), "rms", capture.RMS(pcm))
	return nil
}
