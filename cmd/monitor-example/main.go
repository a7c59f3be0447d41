// monitor-example - battery and fault report
//
// Prints the robot state once after a short wait. With -every it keeps
// polling, and -metrics serves the last report as prometheus gauges.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/teslashibe/go-magicdog/internal/cli"
	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/telemetry"
)

func main() {
	configPath := flag.String("config", "", "config file")
	wait := flag.Duration("wait", 5*time.Second, "delay before the first report")
	every := flag.Duration("every", 0, "poll interval; zero reports once")
	metricsAddr := flag.String("metrics", "", "serve /metrics on this address")
	flag.Parse()

	cfg, logger := cli.Setup(*configPath)
	ctx, stop := cli.SignalContext()
	defer stop()

	fmt.Println("🔋 MagicDog State Monitor")
	fmt.Printf("Robot: %s\n\n", cfg.Robot.Address)

	robot, err := cli.Connect(ctx, cfg, logger)
	if err != nil {
		cli.Fatal(logger, "connect failed", err)
	}
	defer cli.Close(robot, logger)

	metrics := telemetry.New()
	if *metricsAddr != "" {
		go serveMetrics(ctx, *metricsAddr, metrics, logger)
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(*wait):
	}

	monitor := robot.StateMonitor()
	report(ctx, monitor, metrics, logger)
	if *every <= 0 {
		fmt.Println("\nExample program execution completed!")
		return
	}

	ticker := time.NewTicker(*every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report(ctx, monitor, metrics, logger)
		}
	}
}

func report(ctx context.Context, monitor *dog.StateMonitor, metrics *telemetry.Metrics, logger *slog.Logger) {
	st, err := monitor.GetCurrentState(ctx)
	if cli.Report(logger, "get robot state", err) != nil {
		return
	}
	b := st.BmsData
	metrics.RobotState(b.BatteryPercentage, b.BatteryHealth, len(st.Faults))
	logger.Info("battery",
		"percentage", b.BatteryPercentage,
		"health", b.BatteryHealth,
		"state", b.BatteryState,
		"power_supply", b.PowerSupplyStatus,
	)
	for _, f := range st.Faults {
		logger.Warn("fault", "code", f.ErrorCode, "message", f.ErrorMessage)
	}
}

func serveMetrics(ctx context.Context, addr string, metrics *telemetry.Metrics, logger *slog.Logger) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	go func() {
		<-ctx.Done()
		app.ShutdownWithTimeout(time.Second)
	}()
	logger.Info("metrics listening", "addr", addr)
	if err := app.Listen(addr); err != nil {
		logger.Warn("metrics server stopped", "error", err)
	}
}
