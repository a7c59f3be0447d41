// face-once - recognize one webcam frame
//
// Grabs a single frame, uploads it to the face backend and prints the
// result. No robot is involved.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/teslashibe/go-magicdog/internal/cli"
	"github.com/teslashibe/go-magicdog/internal/httpc"
	"github.com/teslashibe/go-magicdog/pkg/capture"
	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/perception"
	"github.com/teslashibe/go-magicdog/pkg/webcam"
)

func main() {
	configPath := flag.String("config", "", "config file")
	device := flag.Int("device", 0, "camera index")
	save := flag.Bool("save", false, "keep the frame in perception.capture_dir")
	flag.Parse()

	cfg, logger := cli.Setup(*configPath)
	ctx, stop := cli.SignalContext()
	defer stop()

	cam, err := webcam.Open(webcam.Config{Device: *device})
	if err != nil {
		cli.Fatal(logger, "camera", err)
	}
	fmt.Println("拍摄一帧画面进行人脸识别...")
	jpeg, err := cam.Frame()
	cam.Close()
	if err != nil {
		cli.Fatal(logger, "read frame", err)
	}

	if *save && cfg.Perception.CaptureDir != "" {
		if rec, err := capture.NewRecorder(cfg.Perception.CaptureDir); err == nil {
			path, err := rec.SaveFrame("face", &dog.CompressedImage{Format: "jpeg", Data: jpeg})
			if err != nil {
				logger.Warn("save frame", "error", err)
			} else {
				logger.Info("frame saved", "path", path)
			}
		}
	}

	client := perception.NewFaceClient(cfg.Perception.FaceURL,
		perception.WithThreshold(cfg.Perception.SimilarityThreshold),
		perception.WithHTTPClient(httpc.NewClient(cfg.Perception.HTTPTimeout)),
	)
	if err := recognize(ctx, client, jpeg); err != nil {
		logger.Error("recognition failed", "error", err)
		os.Exit(1)
	}
}

func recognize(ctx context.Context, client *perception.FaceClient, jpeg []byte) error {
	match, err := client.Recognize(ctx, jpeg)
	if err != nil {
		return err
	}
	out, _ := json.MarshalIndent(match, "", "  ")
	fmt.Println("识别结果:", string(out))
	if match.Matched(client.Threshold()) {
		fmt.Println("匹配:", match.Name)
	}
	return nil
}
