package telemetry

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/laserwalk/episode"
	"github.com/pthm-cable/laserwalk/evaluator"
	"github.com/pthm-cable/laserwalk/systems"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.0},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.0},
		{"clamped above", []float64{1, 2, 3}, 1.5, 3.0},
		{"clamped below", []float64{1, 2, 3}, -1, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeFitnessStats(t *testing.T) {
	values := []float64{10, 1, 9, 2, 8, 3, 7, 4, 6, 5}
	mean, std, p10, p50, p90 := ComputeFitnessStats(values)

	if math.Abs(mean-5.5) > 1e-9 {
		t.Errorf("mean = %v, want 5.5", mean)
	}
	// Sample standard deviation of 1..10
	if math.Abs(std-math.Sqrt(82.5/9)) > 1e-9 {
		t.Errorf("std = %v", std)
	}
	if p10 != 1 || p50 != 5 || p90 != 9 {
		t.Errorf("percentiles = %v %v %v", p10, p50, p90)
	}
	if values[0] != 10 {
		t.Error("input slice was reordered")
	}
}

func TestComputeFitnessStatsSmall(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeFitnessStats(nil)
	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}

	mean, std, _, p50, _ = ComputeFitnessStats([]float64{4})
	if mean != 4 || std != 0 || p50 != 4 {
		t.Errorf("single value: mean=%v std=%v p50=%v", mean, std, p50)
	}
}

func TestComputeGenerationStats(t *testing.T) {
	r := &evaluator.Report{
		Generation: 7,
		Fitness:    map[int]float64{1: 50, 2: 20, 3: 0, 4: 10},
		Results: map[int]episode.Result{
			1: {Fitness: 50, Cause: systems.CauseNone, Frames: 100, Distance: 40},
			2: {Fitness: 20, Cause: systems.CauseExploded, Frames: 60, Distance: 10},
			4: {Fitness: 10, Cause: systems.CauseHeadDown, Frames: 20, Distance: -5},
		},
		Failures: []evaluator.Failure{{GenomeID: 3, Err: errors.New("boom")}},
		Elapsed:  1500 * time.Millisecond,
	}

	s := ComputeGenerationStats(r, 3)

	if s.Generation != 7 || s.Evaluated != 4 || s.Failures != 1 || s.Species != 3 {
		t.Errorf("counts = %+v", s)
	}
	if s.FitnessMax != 50 || s.FitnessMean != 20 {
		t.Errorf("fitness max=%v mean=%v", s.FitnessMax, s.FitnessMean)
	}
	if s.DistanceMax != 40 || math.Abs(s.DistanceMean-15) > 1e-9 {
		t.Errorf("distance max=%v mean=%v", s.DistanceMax, s.DistanceMean)
	}
	if s.FramesMean != 60 {
		t.Errorf("frames mean = %v", s.FramesMean)
	}
	if s.Survived != 1 || s.Exploded != 1 || s.HeadDown != 1 || s.Other != 0 {
		t.Errorf("causes = %d/%d/%d/%d", s.Survived, s.Exploded, s.HeadDown, s.Other)
	}
	if s.ElapsedMS != 1500 {
		t.Errorf("elapsed = %d", s.ElapsedMS)
	}
}

func TestComputeGenerationStatsAllFailed(t *testing.T) {
	r := &evaluator.Report{
		Fitness:  map[int]float64{1: 0, 2: 0},
		Results:  map[int]episode.Result{},
		Failures: []evaluator.Failure{{GenomeID: 1}, {GenomeID: 2}},
	}
	s := ComputeGenerationStats(r, 1)
	if s.DistanceMax != 0 || s.FramesMean != 0 || s.Failures != 2 {
		t.Errorf("stats = %+v", s)
	}
}
