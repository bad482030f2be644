// Package evaluator scores one generation of genomes, each in its own
// physics world, sequentially or on a per-generation worker pool.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/laserwalk/config"
	"github.com/pthm-cable/laserwalk/episode"
	"github.com/pthm-cable/laserwalk/neural"
	"github.com/pthm-cable/laserwalk/physics"
)

var (
	// ErrWorkerTimeout marks genomes whose worker missed its deadline.
	ErrWorkerTimeout = errors.New("evaluator: worker timed out")
	// ErrEpisodePanic marks genomes whose episode panicked.
	ErrEpisodePanic = errors.New("evaluator: episode panicked")
	// ErrDuplicateGenome is returned when two candidates share an ID.
	ErrDuplicateGenome = errors.New("evaluator: duplicate genome id")
)

// Failure records why a genome got the minimum fitness.
type Failure struct {
	GenomeID int
	Err      error
}

// Report is the outcome of one generation. Fitness has exactly one entry
// per candidate. Results only holds episodes that ran to termination.
type Report struct {
	Generation int
	Fitness    map[int]float64
	Results    map[int]episode.Result
	Failures   []Failure
	Elapsed    time.Duration
}

// ControllerBuilder turns a genome into a fresh controller.
type ControllerBuilder func(genome *genetics.Genome) (neural.Controller, error)

// Evaluator runs episodes for a generation of candidates.
type Evaluator struct {
	cfg     config.EvaluatorConfig
	factory physics.Factory
	episode episode.Config
	logger  *slog.Logger

	// BuildController defaults to neural.NewController with the fallback
	// activation depth of 5.
	BuildController ControllerBuilder
}

// New creates an evaluator. A nil logger uses slog.Default().
func New(cfg config.EvaluatorConfig, factory physics.Factory, episodeCfg episode.Config, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		cfg:     cfg,
		factory: factory,
		episode: episodeCfg,
		logger:  logger,
		BuildController: func(g *genetics.Genome) (neural.Controller, error) {
			return neural.NewController(g, 5)
		},
	}
}

// Workers returns the number of workers a generation of n candidates uses.
func (e *Evaluator) Workers(n int) int {
	if !e.cfg.Parallel {
		return 1
	}
	w := e.cfg.Workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	return max(1, min(w, n))
}

// outcome is one candidate's slot in a chunk's output.
type outcome struct {
	done   bool
	result episode.Result
	err    error
}

// workChunk is a contiguous range of candidates for one worker.
type workChunk struct {
	start, end int
}

// chunkResult is what a worker hands back for its chunk.
type chunkResult struct {
	chunk    workChunk
	outcomes []outcome
}

// Evaluate runs one episode per candidate and blocks until every candidate
// has a fitness. ctx is only checked between episodes; candidates that never
// started get the minimum fitness and ctx.Err() is returned with the report.
func (e *Evaluator) Evaluate(ctx context.Context, genCtx GenerationContext, candidates []*genetics.Genome, schedule episode.HazardSchedule) (*Report, error) {
	seen := make(map[int]bool, len(candidates))
	for i, g := range candidates {
		if g == nil {
			return nil, fmt.Errorf("evaluator: candidate %d: %w", i, neural.ErrNilGenome)
		}
		if seen[g.Id] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateGenome, g.Id)
		}
		seen[g.Id] = true
	}

	start := time.Now()
	outcomes := make([]outcome, len(candidates))

	n := len(candidates)
	numWorkers := e.Workers(n)
	if numWorkers <= 1 {
		copy(outcomes, e.runChunk(ctx, genCtx, candidates, schedule))
	} else {
		e.runParallel(ctx, genCtx, candidates, schedule, numWorkers, outcomes)
	}

	report := &Report{
		Generation: genCtx.Generation,
		Fitness:    make(map[int]float64, n),
		Results:    make(map[int]episode.Result, n),
	}
	for i, g := range candidates {
		o := outcomes[i]
		if !o.done || o.err != nil {
			err := o.err
			if err == nil {
				err = ctx.Err()
			}
			report.Fitness[g.Id] = e.cfg.MinFitness
			report.Failures = append(report.Failures, Failure{GenomeID: g.Id, Err: err})
			continue
		}
		report.Fitness[g.Id] = o.result.Fitness
		report.Results[g.Id] = o.result
	}
	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].GenomeID < report.Failures[j].GenomeID
	})
	report.Elapsed = time.Since(start)

	for _, f := range report.Failures {
		e.logger.Warn("episode_failed", "generation", genCtx.Generation, "genome", f.GenomeID, "error", f.Err)
	}
	e.logger.Debug("generation_evaluated",
		"generation", genCtx.Generation,
		"candidates", n,
		"workers", numWorkers,
		"failures", len(report.Failures),
		"elapsed", report.Elapsed,
	)

	return report, ctx.Err()
}

// runParallel splits candidates into one contiguous chunk per worker and
// waits for every chunk or the deadline, whichever comes first. Workers still
// running when it returns finish their current episode and start no other.
func (e *Evaluator) runParallel(ctx context.Context, genCtx GenerationContext, candidates []*genetics.Genome, schedule episode.HazardSchedule, numWorkers int, outcomes []outcome) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	n := len(candidates)
	chunkSize := (n + numWorkers - 1) / numWorkers

	workChan := make(chan workChunk, numWorkers)
	doneChan := make(chan chunkResult, numWorkers) // buffered so late workers never block

	dispatched := 0
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		workChan <- workChunk{start: start, end: end}
		dispatched++
	}
	close(workChan)

	for w := 0; w < dispatched; w++ {
		go func() {
			for chunk := range workChan {
				doneChan <- chunkResult{
					chunk:    chunk,
					outcomes: e.runChunk(ctx, genCtx, candidates[chunk.start:chunk.end], schedule),
				}
			}
		}()
	}

	var deadline <-chan time.Time
	if e.cfg.EpisodeTimeout > 0 {
		timer := time.NewTimer(e.cfg.EpisodeTimeout * time.Duration(chunkSize))
		defer timer.Stop()
		deadline = timer.C
	}

	delivered := make([]bool, n)
	for received := 0; received < dispatched; received++ {
		select {
		case res := <-doneChan:
			copy(outcomes[res.chunk.start:res.chunk.end], res.outcomes)
			for i := res.chunk.start; i < res.chunk.end; i++ {
				delivered[i] = true
			}
		case <-deadline:
			for i := range outcomes {
				if !delivered[i] {
					outcomes[i] = outcome{err: fmt.Errorf("%w after %s", ErrWorkerTimeout, e.cfg.EpisodeTimeout*time.Duration(chunkSize))}
				}
			}
			return
		}
	}
}

// runChunk evaluates candidates in order. It is the body of a worker.
func (e *Evaluator) runChunk(ctx context.Context, genCtx GenerationContext, candidates []*genetics.Genome, schedule episode.HazardSchedule) []outcome {
	out := make([]outcome, len(candidates))
	for i, g := range candidates {
		if ctx.Err() != nil {
			break
		}
		res, err := e.evaluateOne(genCtx, g, schedule)
		out[i] = outcome{done: true, result: res, err: err}
	}
	return out
}

// evaluateOne plays one episode. Panics are recovered here so one genome
// cannot take the worker down; the episode runner has already released the
// world by the time the panic arrives.
func (e *Evaluator) evaluateOne(genCtx GenerationContext, genome *genetics.Genome, schedule episode.HazardSchedule) (res episode.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: genome %d: %v", ErrEpisodePanic, genome.Id, r)
		}
	}()

	controller, err := e.BuildController(genome)
	if err != nil {
		return episode.Result{}, fmt.Errorf("building controller: %w", err)
	}
	return episode.Run(e.factory, controller, schedule, e.episode, genCtx.Prior(genome.Id))
}
