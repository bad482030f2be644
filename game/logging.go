package game

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pthm-cable/laserwalk/telemetry"
)

// logProgress writes a one-line progress report meant for people watching
// the log.
func (g *Game) logProgress(stats telemetry.GenerationStats) {
	elapsed := time.Since(g.started)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(g.episodes) / elapsed.Seconds()
	}

	g.logger.Info("progress",
		"generation", humanize.Comma(int64(stats.Generation)),
		"episodes", humanize.Comma(int64(g.episodes)),
		"episodes_per_sec", humanize.FtoaWithDigits(rate, 1),
		"best", humanize.FtoaWithDigits(stats.FitnessMax, 2),
		"mean", humanize.FtoaWithDigits(stats.FitnessMean, 2),
		"champion", humanize.FtoaWithDigits(stats.ChampionFitness, 2),
		"distance", humanize.FtoaWithDigits(stats.DistanceMax, 1),
		"survived", stats.Survived,
		"species", stats.Species,
		"started", humanize.Time(g.started),
	)
}

// logSummary reports the end of a run.
func (g *Game) logSummary() {
	id, fitness, ok := g.collector.Champion()
	if !ok {
		g.logger.Info("evolution_finished", "generations", g.population.Generation())
		return
	}

	perf := g.perfCollector.Stats()
	g.logger.Info("evolution_finished",
		"generations", humanize.Comma(int64(g.population.Generation())),
		"episodes", humanize.Comma(int64(g.episodes)),
		"champion_id", id,
		"champion_fitness", humanize.FtoaWithDigits(fitness, 2),
		"hall_of_fame", g.collector.HallOfFame().Size(),
		"avg_generation", perf.AvgGeneration,
		"elapsed", time.Since(g.started).Round(time.Second),
	)
}
