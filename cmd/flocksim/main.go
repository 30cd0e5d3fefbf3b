// Command flocksim runs a flock headless for a number of fixed ticks and
// reports the tick timings.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/lao-tseu-is-alive/go-flock-engine/internal/config"
	"github.com/lao-tseu-is-alive/go-flock-engine/internal/logging"
	"github.com/lao-tseu-is-alive/go-flock-engine/internal/simulation"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Path to a .json, .yaml or .toml simulation file (empty = use defaults)")
	ticks := flag.Int("ticks", 600, "Number of ticks to run")
	outputDir := flag.String("out", "", "Directory for ticks.csv (overrides the config)")
	population := flag.Int("population", 0, "Number of agents (0 = use config)")
	statsAddr := flag.String("statsview", "", "Serve runtime charts on this address, e.g. localhost:18066")
	timeout := flag.Duration("tick-timeout", 5*time.Second, "Maximum wait for one tick")
	flag.Parse()

	if err := run(*configPath, *ticks, *outputDir, *population, *statsAddr, *timeout); err != nil {
		fmt.Fprintln(os.Stderr, "flocksim:", err)
		os.Exit(1)
	}
}

func run(configPath string, ticks int, outputDir string, population int, statsAddr string, timeout time.Duration) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if outputDir != "" {
		cfg.Telemetry.OutputDir = outputDir
	}
	if population > 0 {
		cfg.Population = population
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if statsAddr != "" {
		// must be configured before statsview.New
		viewer.SetConfiguration(viewer.WithTheme(viewer.ThemeWesteros), viewer.WithAddr(statsAddr))
		mgr := statsview.New()
		go mgr.Start()
		defer mgr.Stop()
		logger.Info("runtime charts", zap.String("url", "http://"+statsAddr+"/debug/statsview"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sim, err := simulation.Start(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	logger.Info("starting headless run",
		zap.Int("ticks", ticks),
		zap.Duration("dt", sim.TickInterval()),
		zap.Uint64("seed", cfg.Seed),
	)

	start := time.Now()
	frame, runErr := sim.Run(ctx, ticks, timeout)
	elapsed := time.Since(start)
	if err := sim.Stop(context.Background()); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	if runErr != nil {
		return runErr
	}

	logger.Info("run complete",
		zap.Uint64("frames", frame),
		zap.Duration("elapsed", elapsed),
		zap.Float64("ticksPerSecond", float64(frame)/elapsed.Seconds()),
	)
	return nil
}
