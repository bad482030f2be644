package game

import (
	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/laserwalk/telemetry"
)

// flushTelemetry writes one generation to the output files and logs bookmarks.
// Write failures are logged and do not stop the run.
func (g *Game) flushTelemetry(stats telemetry.GenerationStats, bookmarks []telemetry.Bookmark, champion *genetics.Genome) {
	perfStats := g.perfCollector.Stats()

	if g.logStats {
		stats.LogStats(g.logger)
		perfStats.LogStats(g.logger)
	}

	if err := g.outputManager.WriteGeneration(stats); err != nil {
		g.logger.Error("failed to write generation", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.Generation); err != nil {
		g.logger.Error("failed to write perf", "error", err)
	}

	for _, bm := range bookmarks {
		bm.LogBookmark(g.logger)
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			g.logger.Error("failed to write bookmark", "error", err)
		}
	}

	if champion != nil {
		if err := g.outputManager.WriteChampion(champion); err != nil {
			g.logger.Error("failed to write champion", "error", err)
		}
		if err := g.outputManager.WriteHallOfFame(g.collector.HallOfFame()); err != nil {
			g.logger.Error("failed to write hall of fame", "error", err)
		}
	}
}

// persist stores the generation and any new champion in the run store.
func (g *Game) persist(stats telemetry.GenerationStats, champion *genetics.Genome) {
	if g.store == nil {
		return
	}
	if err := g.store.SaveGeneration(g.runID, stats); err != nil {
		g.logger.Error("failed to store generation", "error", err)
	}
	if champion != nil {
		if err := g.store.SaveChampion(g.runID, stats.Generation, champion, stats.ChampionFitness); err != nil {
			g.logger.Error("failed to store champion", "error", err)
		}
	}
}
