package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/laserwalk/config"
	"github.com/pthm-cable/laserwalk/game"
	"github.com/pthm-cable/laserwalk/neural"
	"github.com/pthm-cable/laserwalk/physics"
	"github.com/pthm-cable/laserwalk/storage"
	"github.com/pthm-cable/laserwalk/viewer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Log full generation and perf stats")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, champion and config snapshot")
	storagePath := flag.String("storage", "", "SQLite run store path (empty = storage section of config)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = use config)")
	generations := flag.Int("generations", 0, "Stop after N generations (0 = use config)")
	replayPath := flag.String("replay", "", "Replay a champion genome JSON file instead of evolving")
	replayRun := flag.String("replay-run", "", "Replay the best champion of a stored run ID")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	var err error
	switch {
	case *replayPath != "" || *replayRun != "":
		err = runReplay(cfg, *replayPath, *replayRun, *storagePath, logger)
	default:
		opts := game.Options{
			Seed:        *seed,
			Generations: *generations,
			OutputDir:   *outputDir,
			StoragePath: *storagePath,
			LogStats:    *logStats,
			Logger:      logger,
		}
		if *headless {
			err = runHeadless(cfg, opts)
		} else {
			err = runVisual(cfg, opts, logger)
		}
	}
	if err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runHeadless evolves without a window until the generation limit or a signal.
func runHeadless(cfg *config.Config, opts game.Options) error {
	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	ctx, stop := signalContext()
	defer stop()
	return g.Run(ctx)
}

// runVisual evolves in the background and replays the current champion in a
// window. Closing the window stops the run.
func runVisual(cfg *config.Config, opts game.Options, logger *slog.Logger) error {
	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	ctx, stop := signalContext()
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Run(ctx)
	}()

	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Laserwalk")
	rl.SetWindowState(rl.FlagWindowResizable)
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	v := viewer.New(cfg, g, g.NewReplay(), true, logger)
	loop(ctx, v)
	v.Unload()
	rl.CloseWindow()

	cancel()
	return <-done
}

// runReplay plays a saved champion in a window.
func runReplay(cfg *config.Config, path, runID, storagePath string, logger *slog.Logger) error {
	genome, fitness, err := loadChampion(cfg, path, runID, storagePath)
	if err != nil {
		return err
	}
	logger.Info("replay_started", "genome", genome.Id, "fitness", fitness, "source", path+runID)

	ctx, stop := signalContext()
	defer stop()

	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Laserwalk replay")
	rl.SetWindowState(rl.FlagWindowResizable)
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))
	defer rl.CloseWindow()

	replay := game.NewReplay(physics.NewFactory(cfg.Physics), cfg)
	v := viewer.New(cfg, game.NewStaticProgress(genome, fitness), replay, false, logger)
	defer v.Unload()
	loop(ctx, v)
	return nil
}

func loop(ctx context.Context, v *viewer.Viewer) {
	for !rl.WindowShouldClose() && ctx.Err() == nil {
		v.Update()

		rl.BeginDrawing()
		v.Draw()
		rl.EndDrawing()
	}
}

// loadChampion reads a genome file, or the best champion of a stored run.
// A genome file carries no fitness, so zero is reported.
func loadChampion(cfg *config.Config, path, runID, storagePath string) (*genetics.Genome, float64, error) {
	if path != "" {
		g, err := neural.LoadGenome(path)
		return g, 0, err
	}

	if storagePath == "" {
		storagePath = cfg.Storage.Path
	}
	db, err := storage.Open(storagePath)
	if err != nil {
		return nil, 0, err
	}
	defer db.Close()

	g, fitness, err := db.BestChampion(runID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, 0, fmt.Errorf("run %s has no stored champion: %w", runID, err)
	}
	return g, fitness, err
}
