package evaluator

import (
	"github.com/pthm-cable/laserwalk/systems"
)

// GenerationContext is the read-only state episodes of one generation share:
// the generation index and each genome's best distance from earlier runs.
type GenerationContext struct {
	Generation int
	best       map[int]float64
}

// NewGenerationContext returns the context for generation 0.
func NewGenerationContext() GenerationContext {
	return GenerationContext{best: map[int]float64{}}
}

// Prior returns a genome's best distance from earlier generations.
func (g GenerationContext) Prior(genomeID int) systems.PriorBest {
	d, ok := g.best[genomeID]
	return systems.PriorBest{Distance: d, Tracked: ok}
}

// Next folds a report into a new context for the following generation.
// Only genomes that were evaluated in the report are carried forward.
func (g GenerationContext) Next(r *Report) GenerationContext {
	next := GenerationContext{
		Generation: g.Generation + 1,
		best:       make(map[int]float64, len(r.Results)),
	}
	for id, res := range r.Results {
		d := res.Distance
		if prev, ok := g.best[id]; ok && prev > d {
			d = prev
		}
		next.best[id] = d
	}
	return next
}
