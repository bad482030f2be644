package systems

import (
	"math"

	"github.com/pthm-cable/laserwalk/body"
	"github.com/pthm-cable/laserwalk/config"
)

// PriorBest is a genome's best distance from earlier generations.
type PriorBest struct {
	Distance float64
	Tracked  bool
}

// FitnessAccumulator integrates per-frame signals into a score:
// frames, max distance, head stability and improvement over the prior best,
// each scaled by its weight and summed.
type FitnessAccumulator struct {
	weights config.FitnessConfig
	spawnX  float64
	prior   PriorBest

	frames      int
	maxDistance float64
	stability   float64
}

// NewFitnessAccumulator starts an empty accumulator for a body spawned at spawnX.
func NewFitnessAccumulator(weights config.FitnessConfig, spawnX float64, prior PriorBest) *FitnessAccumulator {
	return &FitnessAccumulator{weights: weights, spawnX: spawnX, prior: prior}
}

// Accumulate records one surviving frame.
func (f *FitnessAccumulator) Accumulate(torsoX, headAngle float64) {
	f.frames++
	if d := torsoX - f.spawnX; d > f.maxDistance && finite(d) {
		f.maxDistance = d
	}
	if finite(headAngle) {
		tilt := math.Abs(normalizeAngle(headAngle)) / body.HeadRange
		f.stability += clamp01(1 - tilt)
	}
}

// Frames returns the number of accumulated frames.
func (f *FitnessAccumulator) Frames() int { return f.frames }

// Distance returns the furthest torso advance past spawn, floored at 0.
func (f *FitnessAccumulator) Distance() float64 { return f.maxDistance }

// Stability returns the summed head stability bonus.
func (f *FitnessAccumulator) Stability() float64 { return f.stability }

// Improvement returns how far this run beat the prior best, or 0.
func (f *FitnessAccumulator) Improvement() float64 {
	if !f.prior.Tracked {
		return 0
	}
	return math.Max(0, f.maxDistance-f.prior.Distance)
}

// Score returns the weighted fitness.
func (f *FitnessAccumulator) Score() float64 {
	w := f.weights
	return w.Frames*float64(f.frames) +
		w.Distance*f.maxDistance +
		w.Stability*f.stability +
		w.Improvement*f.Improvement()
}
