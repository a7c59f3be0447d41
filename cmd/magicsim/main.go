// magicsim - simulated MagicDog robot service
//
// Serves the robot WebSocket protocol on sim.addr so the SDK and every
// example program can run without hardware. Point robot.address at it.
//
// Usage:
//
//	magicsim -addr :7447
//	keyboard-operator -config magicdog.yaml   # robot.address: 127.0.0.1:7447
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/teslashibe/go-magicdog/internal/cli"
	"github.com/teslashibe/go-magicdog/pkg/sim"
)

func main() {
	configPath := flag.String("config", "", "config file")
	addr := flag.String("addr", "", "listen address (overrides sim.addr)")
	statsEvery := flag.Duration("stats", 30*time.Second, "log traffic counters at this interval; zero disables")
	flag.Parse()

	cfg, logger := cli.Setup(*configPath)
	ctx, stop := cli.SignalContext()
	defer stop()

	listen := cfg.Sim.Addr
	if *addr != "" {
		listen = *addr
	}

	server := sim.New(sim.Config{
		ConvergeAfter: cfg.Sim.ConvergeAfter,
		TrickDelay:    cfg.Sim.TrickDelay,
		EventRate:     cfg.Sim.EventRate,
		Logger:        logger,
	})
	bound, err := server.Start(listen)
	if err != nil {
		cli.Fatal(logger, "start simulator", err)
	}

	fmt.Println("🐕 MagicDog simulator")
	fmt.Printf("   robot:  ws://%s/ws/robot\n", bound)
	fmt.Printf("   state:  http://%s/api/state\n\n", bound)

	if *statsEvery > 0 {
		go func() {
			ticker := time.NewTicker(*statsEvery)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					st := server.Stats()
					logger.Info("stats", "sessions", st.Sessions, "requests", st.Requests, "events", st.EventsOut)
				}
			}
		}()
	}

	server.Run(ctx)

	fmt.Println("\n👋 Shutting down...")
	if err := server.Shutdown(); err != nil {
		logger.Error("shutdown", "error", err)
		os.Exit(1)
	}
}
