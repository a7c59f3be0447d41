// face-register - enroll, list and delete faces on the recognition backend
//
// Asks for a name, then '1' takes a webcam photo and registers it under
// that name. 'l' lists enrolled names, 'x' deletes the current one.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/teslashibe/go-magicdog/internal/cli"
	"github.com/teslashibe/go-magicdog/internal/httpc"
	"github.com/teslashibe/go-magicdog/pkg/perception"
	"github.com/teslashibe/go-magicdog/pkg/teleop"
	"github.com/teslashibe/go-magicdog/pkg/webcam"
)

func main() {
	configPath := flag.String("config", "", "config file")
	device := flag.Int("device", 0, "camera index")
	name := flag.String("name", "", "person to register (prompted when empty)")
	flag.Parse()

	cfg, logger := cli.Setup(*configPath)
	ctx, stop := cli.SignalContext()
	defer stop()

	who := *name
	if who == "" {
		var err error
		if who, err = cli.Prompt("请输入注册人姓名: "); err != nil {
			cli.Fatal(logger, "read name", err)
		}
	}
	if who == "" {
		fmt.Println("姓名不能为空!")
		os.Exit(1)
	}

	cam, err := webcam.Open(webcam.Config{Device: *device})
	if err != nil {
		cli.Fatal(logger, "camera", err)
	}
	defer cam.Close()

	admin := perception.NewFaceAdmin(cfg.Perception.FaceAdminURL, httpc.NewClient(cfg.Perception.HTTPTimeout))

	menu := cli.NewMenu(fmt.Sprintf("Register [%s]", who), logger)
	menu.Add('1', "Take photo and register", func(ctx context.Context) error {
		fmt.Println("拍照并上传中...")
		jpeg, err := cam.Frame()
		if err != nil {
			return err
		}
		resp, err := admin.Register(ctx, who, jpeg)
		if err != nil {
			return err
		}
		fmt.Println(resp)
		return nil
	})
	menu.Add('l', "List registered names", func(ctx context.Context) error {
		names, err := admin.List(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%d registered:\n", len(names))
		for _, n := range names {
			fmt.Println("  " + n)
		}
		return nil
	})
	menu.Add('x', fmt.Sprintf("Delete %s", who), func(ctx context.Context) error {
		resp, err := admin.Delete(ctx, who)
		var apiErr *perception.APIError
		if errors.As(err, &apiErr) && apiErr.IsNotFound() {
			fmt.Printf("%s is not registered\n", who)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Println(resp)
		return nil
	})
	menu.Add('q', "Quit", func(context.Context) error { return teleop.ErrExit })

	if err := menu.Run(ctx, teleop.NewKeyboard(os.Stdin)); err != nil {
		logger.Error("menu stopped", "error", err)
	}
	fmt.Println("退出程序")
}
