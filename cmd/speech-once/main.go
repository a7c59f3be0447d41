// speech-once - one-shot speech recognition
//
// Uploads a WAV file to the speech backend and prints the transcript. Without
// -file it records from the robot's raw microphone stream until the speaker
// has been quiet for -silence, then uploads that.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/teslashibe/go-magicdog/internal/cli"
	"github.com/teslashibe/go-magicdog/internal/config"
	"github.com/teslashibe/go-magicdog/internal/httpc"
	"github.com/teslashibe/go-magicdog/pkg/capture"
	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/perception"
)

func main() {
	configPath := flag.String("config", "", "config file")
	file := flag.String("file", "", "WAV file to upload instead of recording")
	silence := flag.Duration("silence", 5*time.Second, "stop recording after this much quiet")
	maxLen := flag.Duration("max", 30*time.Second, "longest recording")
	threshold := flag.Float64("threshold", 500, "RMS below which a chunk counts as quiet")
	flag.Parse()

	cfg, logger := cli.Setup(*configPath)
	ctx, stop := cli.SignalContext()
	defer stop()

	client := perception.NewSpeechClient(cfg.Perception.SpeechURL, httpc.NewClient(cfg.Perception.HTTPTimeout))

	var (
		text string
		err  error
	)
	if *file != "" {
		text, err = uploadFile(ctx, client, *file)
	} else {
		r := recording{silence: *silence, max: *maxLen, threshold: *threshold, logger: logger}
		text, err = r.transcribe(ctx, cfg, client)
	}
	if err != nil {
		logger.Error("speech recognition failed", "error", err)
		os.Exit(1)
	}
	fmt.Println("识别结果:", text)
}

func uploadFile(ctx context.Context, client *perception.SpeechClient, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !capture.IsWAV(data) {
		return "", fmt.Errorf("%s is not a WAV file", path)
	}
	return client.TranscribeFile(ctx, filepath.Base(path), data)
}

type recording struct {
	silence   time.Duration
	max       time.Duration
	threshold float64
	logger    *slog.Logger
}

func (r recording) transcribe(ctx context.Context, cfg *config.Config, client *perception.SpeechClient) (string, error) {
	robot, err := cli.Connect(ctx, cfg, r.logger)
	if err != nil {
		return "", err
	}
	defer cli.Close(robot, r.logger)

	audio := robot.Audio()
	if err := audio.ControlVoiceStream(ctx, true, false); err != nil {
		return "", fmt.Errorf("open voice stream: %w", err)
	}
	defer audio.ControlVoiceStream(context.Background(), false, false)

	stream, err := audio.SubscribeOriginVoiceData()
	if err != nil {
		return "", err
	}
	defer audio.UnsubscribeOriginVoiceData()

	fmt.Println("🎤 请说话...")
	pcm, err := r.collect(ctx, stream.C())
	if err != nil {
		return "", err
	}

	if cfg.Perception.CaptureDir != "" {
		if rec, err := capture.NewRecorder(cfg.Perception.CaptureDir); err == nil {
			if path, err := rec.SaveWAV("speech", pcm, capture.SpeechSampleRate, capture.SpeechChannels); err == nil {
				r.logger.Info("recording saved", "path", path)
			}
		}
	}

	wav, err := capture.EncodeWAV(pcm, capture.SpeechSampleRate, capture.SpeechChannels)
	if err != nil {
		return "", err
	}
	return client.Transcribe(ctx, wav)
}

// collect appends chunks until r.silence of consecutive quiet audio follows
// some speech, or r.max elapses.
func (r recording) collect(ctx context.Context, chunks <-chan *dog.ByteMultiArray) ([]byte, error) {
	var (
		pcm        []byte
		heard      bool
		quietSince time.Time
	)
	deadline := time.After(r.max)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return r.finish(pcm)
		case chunk, ok := <-chunks:
			if !ok {
				return r.finish(pcm)
			}
			pcm = append(pcm, chunk.Data...)
			now := time.Now()
			if capture.RMS(chunk.Data) >= r.threshold {
				heard = true
				quietSince = time.Time{}
				continue
			}
			if !heard {
				continue
			}
			if quietSince.IsZero() {
				quietSince = now
			} else if now.Sub(quietSince) >= r.silence {
				return r.finish(pcm)
			}
		}
	}
}

func (r recording) finish(pcm []byte) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, errors.New("no audio received")
	}
	if len(pcm)%2 == 1 {
		pcm = pcm[:len(pcm)-1]
	}
	r.logger.Info("recording finished", "bytes", len(pcm), "seconds", float64(len(pcm))/(2*capture.SpeechSampleRate))
	return pcm, nil
}
