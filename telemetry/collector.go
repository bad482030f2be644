package telemetry

import (
	"fmt"

	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/laserwalk/evaluator"
)

// stagnationWindow is how many generations without a new record trigger a
// stagnation bookmark.
const stagnationWindow = 20

// Collector turns evaluator reports into GenerationStats, bookmarks and
// hall of fame updates, and remembers the run's best genome.
type Collector struct {
	hof      *HallOfFame
	bookmark *BookmarkDetector
	history  []GenerationStats

	championID      int
	championFitness float64
	haveChampion    bool
}

// NewCollector creates a collector whose hall of fame holds hallSize genomes.
func NewCollector(hallSize int) *Collector {
	return &Collector{
		hof:      NewHallOfFame(hallSize),
		bookmark: NewBookmarkDetector(10, stagnationWindow),
	}
}

// Record folds one generation into the collector. candidates must be the
// genomes the report was produced for.
func (c *Collector) Record(r *evaluator.Report, candidates []*genetics.Genome, species int) (GenerationStats, []Bookmark, error) {
	for _, g := range candidates {
		f, ok := r.Fitness[g.Id]
		if !ok {
			return GenerationStats{}, nil, fmt.Errorf("telemetry: genome %d missing from report", g.Id)
		}
		if !c.haveChampion || f > c.championFitness {
			c.championID, c.championFitness, c.haveChampion = g.Id, f, true
		}
		res, ok := r.Results[g.Id]
		if !ok {
			continue
		}
		if _, err := c.hof.Consider(g, f, r.Generation, res); err != nil {
			return GenerationStats{}, nil, err
		}
	}

	stats := ComputeGenerationStats(r, species)
	stats.ChampionID = c.championID
	stats.ChampionFitness = c.championFitness

	bookmarks := c.bookmark.Check(stats)
	c.history = append(c.history, stats)
	return stats, bookmarks, nil
}

// HallOfFame returns the collector's hall of fame.
func (c *Collector) HallOfFame() *HallOfFame {
	return c.hof
}

// History returns the stats of every recorded generation, oldest first.
func (c *Collector) History() []GenerationStats {
	out := make([]GenerationStats, len(c.history))
	copy(out, c.history)
	return out
}

// Champion returns the best genome ID and fitness seen so far.
func (c *Collector) Champion() (id int, fitness float64, ok bool) {
	return c.championID, c.championFitness, c.haveChampion
}
