package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/laserwalk/neural"
	"github.com/pthm-cable/laserwalk/telemetry"
)

// RunGeneration evaluates the current generation, breeds the next one and
// records telemetry. A cancelled ctx aborts the generation before breeding.
func (g *Game) RunGeneration(ctx context.Context) (telemetry.GenerationStats, error) {
	gen := g.population.Generation()
	candidates := g.population.Genomes()

	g.perfCollector.StartGeneration()
	g.perfCollector.StartPhase(telemetry.PhaseEvaluate)

	report, err := g.evaluator.Evaluate(ctx, g.genCtx, candidates, g.schedule)
	if err != nil {
		return telemetry.GenerationStats{}, fmt.Errorf("generation %d: %w", gen, err)
	}
	for _, c := range candidates {
		if err := g.population.SetFitness(c.Id, report.Fitness[c.Id]); err != nil {
			return telemetry.GenerationStats{}, fmt.Errorf("generation %d: %w", gen, err)
		}
	}

	g.perfCollector.StartPhase(telemetry.PhaseEpoch)
	if err := g.population.Epoch(); err != nil {
		return telemetry.GenerationStats{}, fmt.Errorf("%w: generation %d: %w", ErrSearch, gen, err)
	}
	g.genCtx = g.genCtx.Next(report)

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	species := len(g.population.Species().Species)
	stats, bookmarks, err := g.collector.Record(report, candidates, species)
	if err != nil {
		return telemetry.GenerationStats{}, err
	}
	champion, err := g.newChampion(stats, candidates)
	if err != nil {
		return telemetry.GenerationStats{}, err
	}
	g.flushTelemetry(stats, bookmarks, champion)

	g.perfCollector.StartPhase(telemetry.PhaseStorage)
	g.persist(stats, champion)

	g.perfCollector.EndGeneration(len(candidates))
	g.episodes += len(candidates)
	g.publish(stats, champion)

	if g.logInterval > 0 && (gen+1)%g.logInterval == 0 {
		g.logProgress(stats)
	}
	return stats, nil
}

// Run evolves until the generation limit or until ctx is cancelled.
// Cancellation is a normal stop; any other error ends the run.
func (g *Game) Run(ctx context.Context) error {
	defer g.finish()

	for g.maxGenerations <= 0 || g.population.Generation() < g.maxGenerations {
		if ctx.Err() != nil {
			g.logger.Info("evolution_interrupted", "generation", g.population.Generation())
			return nil
		}
		if _, err := g.RunGeneration(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				g.logger.Info("evolution_interrupted", "generation", g.population.Generation(), "reason", err)
				return nil
			}
			return err
		}
	}
	g.logger.Info("generation_limit_reached", "generations", g.population.Generation())
	return nil
}

// newChampion returns a private copy of the generation's best genome when it
// beats every earlier generation, or nil.
func (g *Game) newChampion(stats telemetry.GenerationStats, candidates []*genetics.Genome) (*genetics.Genome, error) {
	if g.haveBest && stats.ChampionFitness <= g.bestFitness {
		return nil, nil
	}
	for _, c := range candidates {
		if c.Id != stats.ChampionID {
			continue
		}
		champ, err := neural.CloneGenome(c, c.Id)
		if err != nil {
			return nil, fmt.Errorf("copying champion %d: %w", c.Id, err)
		}
		g.bestFitness, g.haveBest = stats.ChampionFitness, true
		return champ, nil
	}
	return nil, nil
}

// finish writes the final hall of fame and closes the run record.
func (g *Game) finish() {
	if g.finished {
		return
	}
	g.finished = true

	if err := g.outputManager.WriteHallOfFame(g.collector.HallOfFame()); err != nil {
		g.logger.Error("failed to write hall of fame", "error", err)
	}
	if g.store != nil {
		if err := g.store.FinishRun(g.runID, g.population.Generation(), g.bestFitness); err != nil {
			g.logger.Error("failed to finish run", "error", err)
		}
	}

	g.mu.Lock()
	g.progress.Done = true
	g.mu.Unlock()

	g.logSummary()
}
