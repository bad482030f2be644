package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for one generation of the evolution loop.
const (
	PhaseEvaluate  = "evaluate"
	PhaseEpoch     = "epoch"
	PhaseTelemetry = "telemetry"
	PhaseStorage   = "storage"
)

var phaseOrder = []string{PhaseEvaluate, PhaseEpoch, PhaseTelemetry, PhaseStorage}

// PerfSample holds timing data for a single generation.
type PerfSample struct {
	Duration time.Duration
	Episodes int
	Phases   map[string]time.Duration
}

// PerfCollector tracks performance metrics over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	genStart      time.Time
	phaseStart    time.Time
	lastPhase     string

	// Frame timing (viewer)
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of generations to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 10
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartGeneration begins timing a new generation.
func (p *PerfCollector) StartGeneration() {
	p.genStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase, ending the previous one.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndGeneration finishes timing the current generation and records the sample.
func (p *PerfCollector) EndGeneration(episodes int) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
		p.lastPhase = ""
	}

	p.samples[p.writeIndex] = PerfSample{
		Duration: now.Sub(p.genStart),
		Episodes: episodes,
		Phases:   p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordFrame records frame timing for the viewer.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgGeneration time.Duration
	MinGeneration time.Duration
	MaxGeneration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total generation time
	PhasePct map[string]float64

	EpisodesPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var fps float64
	if p.frameDuration > 0 {
		fps = float64(time.Second) / float64(p.frameDuration)
	}

	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg:      make(map[string]time.Duration),
			PhasePct:      make(map[string]float64),
			FrameDuration: p.frameDuration,
			FPS:           fps,
		}
	}

	var total, minGen, maxGen time.Duration
	var episodes int
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.Duration
		episodes += s.Episodes

		if i == 0 || s.Duration < minGen {
			minGen = s.Duration
		}
		if s.Duration > maxGen {
			maxGen = s.Duration
		}
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avg := total / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}

	var eps float64
	if total > 0 {
		eps = float64(episodes) / total.Seconds()
	}

	return PerfStats{
		AvgGeneration:     avg,
		MinGeneration:     minGen,
		MaxGeneration:     maxGen,
		PhaseAvg:          phaseAvg,
		PhasePct:          phasePct,
		EpisodesPerSecond: eps,
		FrameDuration:     p.frameDuration,
		FPS:               fps,
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{
		"avg_generation_ms", s.AvgGeneration.Milliseconds(),
		"min_generation_ms", s.MinGeneration.Milliseconds(),
		"max_generation_ms", s.MaxGeneration.Milliseconds(),
		"episodes_per_sec", int(s.EpisodesPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, phase := range phaseOrder {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10.0)
		}
	}
	logger.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_generation_ms", s.AvgGeneration.Milliseconds()),
		slog.Int64("min_generation_ms", s.MinGeneration.Milliseconds()),
		slog.Int64("max_generation_ms", s.MaxGeneration.Milliseconds()),
		slog.Float64("episodes_per_sec", s.EpisodesPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for phase, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(phase+"_pct", pct))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Generation      int     `csv:"generation"`
	AvgGenerationMS int64   `csv:"avg_generation_ms"`
	MinGenerationMS int64   `csv:"min_generation_ms"`
	MaxGenerationMS int64   `csv:"max_generation_ms"`
	EpisodesPerSec  float64 `csv:"episodes_per_sec"`
	EvaluatePct     float64 `csv:"evaluate_pct"`
	EpochPct        float64 `csv:"epoch_pct"`
	TelemetryPct    float64 `csv:"telemetry_pct"`
	StoragePct      float64 `csv:"storage_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(generation int) PerfStatsCSV {
	return PerfStatsCSV{
		Generation:      generation,
		AvgGenerationMS: s.AvgGeneration.Milliseconds(),
		MinGenerationMS: s.MinGeneration.Milliseconds(),
		MaxGenerationMS: s.MaxGeneration.Milliseconds(),
		EpisodesPerSec:  s.EpisodesPerSecond,
		EvaluatePct:     s.PhasePct[PhaseEvaluate],
		EpochPct:        s.PhasePct[PhaseEpoch],
		TelemetryPct:    s.PhasePct[PhaseTelemetry],
		StoragePct:      s.PhasePct[PhaseStorage],
	}
}
