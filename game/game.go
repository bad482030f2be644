// Package game drives evolution runs: it evaluates generations, breeds the
// population, records telemetry and publishes progress for the viewer.
package game

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/laserwalk/config"
	"github.com/pthm-cable/laserwalk/episode"
	"github.com/pthm-cable/laserwalk/evaluator"
	"github.com/pthm-cable/laserwalk/neural"
	"github.com/pthm-cable/laserwalk/physics"
	"github.com/pthm-cable/laserwalk/storage"
	"github.com/pthm-cable/laserwalk/telemetry"
)

// ErrSearch wraps failures of the population's Epoch. They end the run.
var ErrSearch = errors.New("game: search failed")

// Options configures a Game beyond the loaded config.
type Options struct {
	Seed        int64  // 0 = evolution.seed from config
	Generations int    // 0 = evolution.generations from config
	OutputDir   string // overrides telemetry.output_dir
	StoragePath string // enables the run store at this path
	LogStats    bool   // log full generation and perf stats
	Logger      *slog.Logger

	// Factory builds physics worlds. nil uses the solver from config.
	Factory physics.Factory
}

// Progress is a read-only view of a run for the viewer.
type Progress struct {
	Generation      int
	Stats           telemetry.GenerationStats
	BestHistory     []float64 // best fitness of each generation
	Champion        *genetics.Genome
	ChampionFitness float64
	TopSpecies      []neural.SpeciesInfo
	Perf            telemetry.PerfStats
	Done            bool
}

// ProgressSource is anything the viewer can poll for the current champion.
type ProgressSource interface {
	Progress() Progress
}

// Game holds the state of one evolution run.
type Game struct {
	cfg    *config.Config
	logger *slog.Logger

	factory    physics.Factory
	population *neural.Population
	evaluator  *evaluator.Evaluator
	schedule   episode.HazardSchedule
	genCtx     evaluator.GenerationContext

	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	store         *storage.DB
	runID         string

	logStats       bool
	logInterval    int
	maxGenerations int
	started        time.Time
	episodes       int
	finished       bool

	bestFitness float64
	haveBest    bool

	mu       sync.RWMutex
	progress Progress
}

// NewGameWithOptions creates a run from cfg. Output files and the run store
// are opened here; call Unload to close them.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	factory := opts.Factory
	if factory == nil {
		factory = physics.NewFactory(cfg.Physics)
	}

	evo := cfg.Evolution
	if opts.Seed != 0 {
		evo.Seed = opts.Seed
	}
	maxGenerations := evo.Generations
	if opts.Generations > 0 {
		maxGenerations = opts.Generations
	}

	eval := evaluator.New(cfg.Evaluator, factory, episode.ConfigFrom(cfg), logger)
	depth := cfg.Neural.ActivationDepth
	eval.BuildController = func(g *genetics.Genome) (neural.Controller, error) {
		return neural.NewController(g, depth)
	}

	g := &Game{
		cfg:            cfg,
		logger:         logger,
		factory:        factory,
		population:     neural.NewPopulation(evo, cfg.Neural),
		evaluator:      eval,
		schedule:       episode.ScheduleFrom(cfg.Hazard),
		genCtx:         evaluator.NewGenerationContext(),
		collector:      telemetry.NewCollector(cfg.Telemetry.HallOfFameSize),
		perfCollector:  telemetry.NewPerfCollector(10),
		logStats:       opts.LogStats,
		logInterval:    cfg.Telemetry.LogInterval,
		maxGenerations: maxGenerations,
		started:        time.Now(),
	}

	outputDir := cfg.Telemetry.OutputDir
	if opts.OutputDir != "" {
		outputDir = opts.OutputDir
	}
	om, err := telemetry.NewOutputManager(outputDir)
	if err != nil {
		return nil, err
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, err
	}

	storePath := opts.StoragePath
	if storePath == "" && cfg.Storage.Enabled {
		storePath = cfg.Storage.Path
	}
	if storePath != "" {
		db, err := storage.Open(storePath)
		if err != nil {
			om.Close()
			return nil, err
		}
		runID, err := db.CreateRun(cfg, g.population.Seed())
		if err != nil {
			db.Close()
			om.Close()
			return nil, err
		}
		g.store, g.runID = db, runID
	}

	logger.Info("evolution_started",
		"seed", g.population.Seed(),
		"population", evo.PopulationSize,
		"generations", maxGenerations,
		"workers", eval.Workers(evo.PopulationSize),
		"output_dir", om.Dir(),
		"run_id", g.runID,
	)

	return g, nil
}

// Seed returns the seed of the population's random source.
func (g *Game) Seed() int64 { return g.population.Seed() }

// RunID returns the run store ID, or "" when storage is disabled.
func (g *Game) RunID() string { return g.runID }

// Generation returns the index of the generation to be evaluated next.
func (g *Game) Generation() int { return g.population.Generation() }

// Collector exposes the run's telemetry collector.
func (g *Game) Collector() *telemetry.Collector { return g.collector }

// Progress returns the latest published state. Safe to call from any goroutine.
func (g *Game) Progress() Progress {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p := g.progress
	p.BestHistory = append([]float64(nil), g.progress.BestHistory...)
	p.TopSpecies = append([]neural.SpeciesInfo(nil), g.progress.TopSpecies...)
	return p
}

// publish makes a generation's outcome visible to Progress.
func (g *Game) publish(stats telemetry.GenerationStats, champion *genetics.Genome) {
	top := g.population.Species().GetTopSpecies(5)
	perf := g.perfCollector.Stats()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.progress.Generation = stats.Generation
	g.progress.Stats = stats
	g.progress.BestHistory = append(g.progress.BestHistory, stats.FitnessMax)
	g.progress.TopSpecies = top
	g.progress.Perf = perf
	if champion != nil {
		g.progress.Champion = champion
		g.progress.ChampionFitness = stats.ChampionFitness
	}
}

// Unload closes output files and the run store.
func (g *Game) Unload() {
	if err := g.outputManager.Close(); err != nil {
		g.logger.Error("failed to close output", "error", err)
	}
	if g.store != nil {
		if err := g.store.Close(); err != nil {
			g.logger.Error("failed to close store", "error", err)
		}
	}
}

// StaticProgress is a ProgressSource for a fixed genome, used to replay a
// saved champion without evolving.
type StaticProgress Progress

// Progress implements ProgressSource.
func (s StaticProgress) Progress() Progress { return Progress(s) }

// NewStaticProgress wraps a saved genome for replay.
func NewStaticProgress(genome *genetics.Genome, fitness float64) StaticProgress {
	return StaticProgress{Champion: genome, ChampionFitness: fitness, Done: true}
}
