// Command flockview shows a flock in a window with live tuning controls.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lao-tseu-is-alive/go-flock-engine/internal/config"
	"github.com/lao-tseu-is-alive/go-flock-engine/internal/driver"
	"github.com/lao-tseu-is-alive/go-flock-engine/internal/logging"
	"github.com/lao-tseu-is-alive/go-flock-engine/internal/simulation"
	"github.com/lao-tseu-is-alive/go-flock-engine/internal/viewer"
	"go.uber.org/zap"
)

const (
	screenWidth  = 1280
	screenHeight = 800
)

func main() {
	configPath := flag.String("config", "", "Path to a .json, .yaml or .toml simulation file (empty = use defaults)")
	population := flag.Int("population", 0, "Number of agents (0 = use config)")
	flag.Parse()

	if err := run(*configPath, *population); err != nil {
		fmt.Fprintln(os.Stderr, "flockview:", err)
		os.Exit(1)
	}
}

func run(configPath string, population int) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if population > 0 {
		cfg.Population = population
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()
	// small buffer, the viewer only keeps the latest snapshot
	snapshots := make(chan *driver.Snapshot, 2)
	sim, err := simulation.Start(ctx, cfg, logger, snapshots)
	if err != nil {
		return err
	}
	defer func() {
		if err := sim.Stop(ctx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	game := viewer.NewGame(ctx, sim.PID, snapshots, sim.Engine.Settings(), sim.Scene.World, sim.Scene.Targets,
		screenWidth, screenHeight, logger.Named("viewer"))

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle(fmt.Sprintf("Flock: %d agents", cfg.Population))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(int(cfg.Driver.TickRate))
	return ebiten.RunGame(game)
}
