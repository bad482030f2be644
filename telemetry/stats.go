package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/laserwalk/evaluator"
	"github.com/pthm-cable/laserwalk/systems"
)

// GenerationStats holds aggregated statistics for one evaluated generation.
type GenerationStats struct {
	Generation int `csv:"generation"`
	Evaluated  int `csv:"evaluated"`
	Failures   int `csv:"failures"`

	// Fitness distribution over every candidate, failures included
	FitnessMean float64 `csv:"fitness_mean"`
	FitnessStd  float64 `csv:"fitness_std"`
	FitnessMax  float64 `csv:"fitness_max"`
	FitnessP10  float64 `csv:"fitness_p10"`
	FitnessP50  float64 `csv:"fitness_p50"`
	FitnessP90  float64 `csv:"fitness_p90"`

	// Episode outcomes, completed episodes only
	DistanceMean float64 `csv:"distance_mean"`
	DistanceMax  float64 `csv:"distance_max"`
	FramesMean   float64 `csv:"frames_mean"`

	// Death causes
	Survived int `csv:"survived"`
	Exploded int `csv:"exploded"`
	HeadDown int `csv:"head_down"`
	Other    int `csv:"other"`

	Species         int     `csv:"species"`
	ChampionID      int     `csv:"champion_id"`
	ChampionFitness float64 `csv:"champion_fitness"`
	ElapsedMS       int64   `csv:"elapsed_ms"`
}

// Percentile returns the p-th empirical quantile of a sorted slice.
// p is clamped to [0, 1]. Returns 0 if the slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	p = max(0, min(1, p))
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// ComputeFitnessStats calculates mean, std and percentiles from fitness values.
func ComputeFitnessStats(values []float64) (mean, std, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}
	if len(values) == 1 {
		return values[0], 0, values[0], values[0], values[0]
	}

	mean, std = stat.MeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)
	return mean, std, p10, p50, p90
}

// ComputeGenerationStats aggregates an evaluator report. The champion fields
// are left for the caller, who knows the population's all-time best.
func ComputeGenerationStats(r *evaluator.Report, species int) GenerationStats {
	s := GenerationStats{
		Generation: r.Generation,
		Evaluated:  len(r.Fitness),
		Failures:   len(r.Failures),
		Species:    species,
		ElapsedMS:  r.Elapsed.Milliseconds(),
	}

	fitness := make([]float64, 0, len(r.Fitness))
	for _, f := range r.Fitness {
		fitness = append(fitness, f)
	}
	s.FitnessMean, s.FitnessStd, s.FitnessP10, s.FitnessP50, s.FitnessP90 = ComputeFitnessStats(fitness)
	if len(fitness) > 0 {
		s.FitnessMax = floats.Max(fitness)
	}

	if len(r.Results) == 0 {
		return s
	}
	distances := make([]float64, 0, len(r.Results))
	frames := make([]float64, 0, len(r.Results))
	for _, res := range r.Results {
		distances = append(distances, res.Distance)
		frames = append(frames, float64(res.Frames))
		switch res.Cause {
		case systems.CauseNone:
			s.Survived++
		case systems.CauseExploded:
			s.Exploded++
		case systems.CauseHeadDown:
			s.HeadDown++
		default:
			s.Other++
		}
	}
	s.DistanceMean = stat.Mean(distances, nil)
	s.DistanceMax = floats.Max(distances)
	s.FramesMean = stat.Mean(frames, nil)
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("evaluated", s.Evaluated),
		slog.Int("failures", s.Failures),
		slog.Float64("fitness_mean", s.FitnessMean),
		slog.Float64("fitness_std", s.FitnessStd),
		slog.Float64("fitness_max", s.FitnessMax),
		slog.Float64("fitness_p50", s.FitnessP50),
		slog.Float64("distance_mean", s.DistanceMean),
		slog.Float64("distance_max", s.DistanceMax),
		slog.Float64("frames_mean", s.FramesMean),
		slog.Int("survived", s.Survived),
		slog.Int("exploded", s.Exploded),
		slog.Int("head_down", s.HeadDown),
		slog.Int("other", s.Other),
		slog.Int("species", s.Species),
		slog.Int("champion_id", s.ChampionID),
		slog.Float64("champion_fitness", s.ChampionFitness),
	)
}

// LogStats logs the generation stats using slog.
func (s GenerationStats) LogStats(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("stats",
		"generation", s.Generation,
		"evaluated", s.Evaluated,
		"failures", s.Failures,
		"fitness_mean", s.FitnessMean,
		"fitness_std", s.FitnessStd,
		"fitness_max", s.FitnessMax,
		"fitness_p10", s.FitnessP10,
		"fitness_p50", s.FitnessP50,
		"fitness_p90", s.FitnessP90,
		"distance_mean", s.DistanceMean,
		"distance_max", s.DistanceMax,
		"frames_mean", s.FramesMean,
		"survived", s.Survived,
		"exploded", s.Exploded,
		"head_down", s.HeadDown,
		"other", s.Other,
		"species", s.Species,
		"champion_id", s.ChampionID,
		"champion_fitness", s.ChampionFitness,
		"elapsed_ms", s.ElapsedMS,
	)
}
