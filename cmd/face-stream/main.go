// face-stream - continuous webcam face recognition
//
// Uploads one frame per interval and prints the backend's answer. With
// -model, frames in which the local YuNet detector sees no face are not
// uploaded. Press 'q' or ESC to quit.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/teslashibe/go-magicdog/internal/cli"
	"github.com/teslashibe/go-magicdog/internal/httpc"
	"github.com/teslashibe/go-magicdog/pkg/perception"
	"github.com/teslashibe/go-magicdog/pkg/teleop"
	"github.com/teslashibe/go-magicdog/pkg/webcam"
)

func main() {
	configPath := flag.String("config", "", "config file")
	device := flag.Int("device", 0, "camera index")
	interval := flag.Duration("interval", time.Second, "time between uploads")
	model := flag.String("model", "", "YuNet ONNX model for local face detection")
	minScore := flag.Float64("min-score", 0.8, "YuNet score threshold")
	flag.Parse()

	cfg, logger := cli.Setup(*configPath)
	ctx, stop := cli.SignalContext()
	defer stop()

	cam, err := webcam.Open(webcam.Config{Device: *device})
	if err != nil {
		cli.Fatal(logger, "camera", err)
	}
	defer cam.Close()

	var finder *webcam.FaceFinder
	if *model != "" {
		if finder, err = webcam.NewFaceFinder(*model, *minScore); err != nil {
			cli.Fatal(logger, "face detector", err)
		}
		defer finder.Close()
	}

	client := perception.NewFaceClient(cfg.Perception.FaceURL,
		perception.WithThreshold(cfg.Perception.SimilarityThreshold),
		perception.WithHTTPClient(httpc.NewClient(cfg.Perception.HTTPTimeout)),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	kb := teleop.NewKeyboard(os.Stdin)
	defer kb.Restore()
	go quitOnKey(kb, cancel)

	fmt.Println("开始人脸识别视频流，按 'q' 退出...")
	stream(ctx, cam, finder, client, *interval, logger)
}

func quitOnKey(kb *teleop.Keyboard, cancel context.CancelFunc) {
	for {
		k, err := kb.ReadKey()
		if err != nil || k == 'q' || k == teleop.KeyEsc {
			cancel()
			return
		}
	}
}

func stream(ctx context.Context, cam *webcam.Camera, finder *webcam.FaceFinder, client *perception.FaceClient, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var uploads, skipped int
	for {
		select {
		case <-ctx.Done():
			logger.Info("stopped", "uploads", uploads, "skipped", skipped)
			return
		case <-ticker.C:
		}

		jpeg, err := cam.Frame()
		if err != nil {
			logger.Error("无法读取摄像头画面", "error", err)
			return
		}
		if finder != nil && !finder.HasFace(jpeg) {
			skipped++
			continue
		}

		uploads++
		match, err := client.Recognize(ctx, jpeg)
		var apiErr *perception.APIError
		switch {
		case errors.As(err, &apiErr):
			logger.Warn("请求失败", "status", apiErr.StatusCode, "body", apiErr.Body)
		case err != nil:
			logger.Warn("请求错误", "error", err)
		default:
			out, _ := json.Marshal(match)
			fmt.Println(string(out))
		}
	}
}
