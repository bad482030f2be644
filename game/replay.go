package game

import (
	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/laserwalk/body"
	"github.com/pthm-cable/laserwalk/config"
	"github.com/pthm-cable/laserwalk/episode"
	"github.com/pthm-cable/laserwalk/neural"
	"github.com/pthm-cable/laserwalk/physics"
	"github.com/pthm-cable/laserwalk/systems"
)

// Replay plays one genome's episode a frame at a time and starts it over
// after it ends. A new genome takes over at the next restart.
// It is driven from a single goroutine.
type Replay struct {
	factory  physics.Factory
	cfg      episode.Config
	schedule episode.HazardSchedule
	depth    int

	genome  *genetics.Genome
	pending *genetics.Genome
	runner  *episode.Runner

	episodes int
	last     episode.Result
	hasLast  bool

	inputs  []float64
	outputs []float64
}

// NewReplay creates a replay with the episode settings from cfg.
func NewReplay(factory physics.Factory, cfg *config.Config) *Replay {
	return &Replay{
		factory:  factory,
		cfg:      episode.ConfigFrom(cfg),
		schedule: episode.ScheduleFrom(cfg.Hazard),
		depth:    cfg.Neural.ActivationDepth,
	}
}

// NewReplay creates a replay that shares the run's physics and episode settings.
func (g *Game) NewReplay() *Replay {
	return NewReplay(g.factory, g.cfg)
}

// SetGenome queues a genome. It replaces the current one at the next restart,
// or right away when nothing is playing.
func (r *Replay) SetGenome(genome *genetics.Genome) {
	r.pending = genome
}

// Genome returns the genome being played, or the queued one if none is.
func (r *Replay) Genome() *genetics.Genome {
	if r.pending != nil {
		return r.pending
	}
	return r.genome
}

// Step advances the episode by one frame. On a terminated episode it starts
// the next one instead. With no genome it does nothing.
func (r *Replay) Step() error {
	if r.runner == nil || r.runner.State() == episode.StateTerminated {
		return r.Restart()
	}

	done, err := r.runner.Step()
	if err != nil {
		return err
	}
	if done {
		r.last, r.hasLast = r.runner.Result(), true
		r.episodes++
	}
	return nil
}

// Restart abandons the current episode and starts a fresh one.
func (r *Replay) Restart() error {
	if r.runner != nil {
		r.runner.Close()
		r.runner = nil
	}
	if r.pending != nil {
		r.genome, r.pending = r.pending, nil
	}
	if r.genome == nil {
		return nil
	}

	brain, err := neural.NewBrainController(r.genome, r.depth)
	if err != nil {
		return err
	}
	r.inputs, r.outputs = r.inputs[:0], r.outputs[:0]
	controller := func(in []float64) ([]float64, error) {
		out, err := brain.Think(in)
		r.inputs = append(r.inputs[:0], in...)
		if err == nil {
			r.outputs = append(r.outputs[:0], out...)
		}
		return out, err
	}

	r.runner = episode.NewRunner(r.factory, controller, r.schedule, r.cfg, systems.PriorBest{})
	return r.runner.Start()
}

// Terminated reports whether the current episode has ended.
func (r *Replay) Terminated() bool {
	return r.runner != nil && r.runner.State() == episode.StateTerminated
}

// Snapshot returns the body as of the last frame.
func (r *Replay) Snapshot() (body.Snapshot, bool) {
	if r.runner == nil {
		return body.Snapshot{}, false
	}
	snap, err := r.runner.Snapshot()
	if err != nil {
		return body.Snapshot{}, false
	}
	return snap, true
}

// Frame returns the frame count of the current episode.
func (r *Replay) Frame() int {
	if r.runner == nil {
		return 0
	}
	return r.runner.Frame()
}

// HazardX returns the laser position of the current frame.
func (r *Replay) HazardX() float64 {
	if r.runner == nil {
		return r.schedule(0, r.cfg.DT, r.cfg.Spawn.X)
	}
	return r.runner.HazardX()
}

// Episodes returns how many episodes have finished.
func (r *Replay) Episodes() int { return r.episodes }

// Last returns the result of the most recent finished episode.
func (r *Replay) Last() (episode.Result, bool) { return r.last, r.hasLast }

// Signals returns the sensor and action vectors of the last frame.
// The slices are reused on the next Step.
func (r *Replay) Signals() (inputs, outputs []float64) {
	return r.inputs, r.outputs
}

// MaxFrames returns the per-episode frame budget.
func (r *Replay) MaxFrames() int { return r.cfg.MaxFrames }

// GroundY returns the height of the ground line.
func (r *Replay) GroundY() float64 { return r.cfg.Limits.GroundY }

// Close releases the current episode's world.
func (r *Replay) Close() {
	if r.runner != nil {
		r.runner.Close()
		r.runner = nil
	}
}
