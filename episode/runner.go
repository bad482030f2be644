// Package episode runs one body through sense, infer, act and step cycles
// until it dies or the frame budget runs out.
package episode

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/laserwalk/body"
	"github.com/pthm-cable/laserwalk/config"
	"github.com/pthm-cable/laserwalk/neural"
	"github.com/pthm-cable/laserwalk/physics"
	"github.com/pthm-cable/laserwalk/systems"
)

// ErrNotRunning is returned by Step outside the running state.
var ErrNotRunning = errors.New("episode: runner not running")

// State is the runner's lifecycle state.
type State int

const (
	StateInit State = iota
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config holds everything one episode needs.
type Config struct {
	DT        float64
	MaxFrames int
	Spawn     r2.Vec
	Body      config.BodyConfig
	Fitness   config.FitnessConfig
	Limits    systems.DeathLimits
}

// ConfigFrom extracts the episode settings from the global config.
func ConfigFrom(c *config.Config) Config {
	return Config{
		DT:        c.Physics.DT,
		MaxFrames: c.Episode.MaxFrames,
		Spawn:     r2.Vec{X: c.Derived.SpawnX, Y: c.Derived.SpawnY},
		Body:      c.Body,
		Fitness:   c.Fitness,
		Limits: systems.DeathLimits{
			GroundY:       c.Physics.GroundY,
			HeadTolerance: c.Episode.HeadGroundTolerance,
		},
	}
}

// Runner drives one episode. It is not safe for concurrent use.
type Runner struct {
	factory    physics.Factory
	controller neural.Controller
	schedule   HazardSchedule
	cfg        Config
	prior      systems.PriorBest

	state   State
	world   physics.World
	body    *body.Body
	acc     *systems.FitnessAccumulator
	frame   int
	hazardX float64
	result  Result
	final   body.Snapshot
}

// NewRunner prepares an episode. Nothing is built until Start.
func NewRunner(factory physics.Factory, controller neural.Controller, schedule HazardSchedule, cfg Config, prior systems.PriorBest) *Runner {
	if schedule == nil {
		schedule = NoHazard
	}
	return &Runner{
		factory:    factory,
		controller: controller,
		schedule:   schedule,
		cfg:        cfg,
		prior:      prior,
	}
}

// State returns the current lifecycle state.
func (r *Runner) State() State { return r.state }

// Frame returns the number of completed frames.
func (r *Runner) Frame() int { return r.frame }

// HazardX returns the hazard position for the current frame.
func (r *Runner) HazardX() float64 { return r.hazardX }

// Start creates the world and builds the body.
// On failure the world is destroyed and the runner is terminated.
func (r *Runner) Start() error {
	if r.state != StateInit {
		return fmt.Errorf("episode: start in state %s", r.state)
	}

	world, err := r.factory.NewWorld()
	if err != nil {
		r.state = StateTerminated
		r.result = Result{Cause: systems.CauseOther, Err: err}
		return fmt.Errorf("%w: creating world: %w", body.ErrConstruction, err)
	}
	r.world = world

	b, err := body.Build(world, r.cfg.Spawn, r.cfg.Body)
	if err != nil {
		r.release()
		r.state = StateTerminated
		r.result = Result{Cause: systems.CauseOther, Err: err}
		return err
	}
	r.body = b
	r.acc = systems.NewFitnessAccumulator(r.cfg.Fitness, r.cfg.Spawn.X, r.prior)
	r.hazardX = r.schedule(0, r.cfg.DT, r.cfg.Spawn.X)
	r.state = StateRunning
	return nil
}

// Step runs one sense, infer, act, step, check, accumulate cycle.
// It reports true once the episode has terminated.
func (r *Runner) Step() (bool, error) {
	switch r.state {
	case StateTerminated:
		return true, nil
	case StateInit:
		return false, ErrNotRunning
	}

	sensors, err := systems.Sense(r.body)
	if err != nil {
		r.terminate(systems.CauseOther, err)
		return true, nil
	}

	outputs, err := r.controller(sensors.AsSlice())
	if err != nil {
		r.terminate(systems.CauseOther, fmt.Errorf("controller: %w", err))
		return true, nil
	}
	action, err := systems.ActionFromSlice(outputs)
	if err != nil {
		r.terminate(systems.CauseOther, fmt.Errorf("controller: %w", err))
		return true, nil
	}
	if err := systems.Act(r.body, action); err != nil {
		r.terminate(systems.CauseOther, err)
		return true, nil
	}

	if err := r.world.Step(r.cfg.DT); err != nil {
		r.terminate(systems.CauseOther, err)
		return true, nil
	}
	r.frame++
	r.hazardX = r.schedule(r.frame, r.cfg.DT, r.cfg.Spawn.X)

	cause, err := systems.CheckDeath(r.body, r.hazardX, r.cfg.Limits)
	if err != nil || cause != systems.CauseNone {
		r.terminate(cause, err)
		return true, nil
	}

	torso, err := r.body.Segment(body.Torso)
	if err != nil {
		r.terminate(systems.CauseOther, err)
		return true, nil
	}
	head, err := r.body.Segment(body.Head)
	if err != nil {
		r.terminate(systems.CauseOther, err)
		return true, nil
	}
	r.acc.Accumulate(torso.Position.X, head.Angle)

	if r.frame >= r.cfg.MaxFrames {
		r.terminate(systems.CauseNone, nil)
		return true, nil
	}
	return false, nil
}

// terminate freezes the result and releases the world.
func (r *Runner) terminate(cause systems.DeathCause, err error) {
	if snap, serr := r.body.Snapshot(); serr == nil {
		r.final = snap
	}
	r.result = Result{
		Fitness:     r.acc.Score(),
		Cause:       cause,
		Frames:      r.acc.Frames(),
		Distance:    r.acc.Distance(),
		Stability:   r.acc.Stability(),
		Improvement: r.acc.Improvement(),
		Err:         err,
	}
	r.state = StateTerminated
	r.release()
}

func (r *Runner) release() {
	if r.world != nil {
		r.world.Destroy()
		r.world = nil
	}
}

// Close destroys the world if the episode did not terminate normally.
// It is safe to call more than once.
func (r *Runner) Close() {
	r.release()
	if r.state != StateTerminated {
		r.state = StateTerminated
		r.result.Cause = systems.CauseOther
	}
}

// Result returns the episode result. It is only meaningful once terminated.
func (r *Runner) Result() Result { return r.result }

// Snapshot returns a read-only copy of the body. After termination it
// returns the last state seen before the world was released.
func (r *Runner) Snapshot() (body.Snapshot, error) {
	switch r.state {
	case StateRunning:
		return r.body.Snapshot()
	case StateTerminated:
		return r.final, nil
	default:
		return body.Snapshot{}, ErrNotRunning
	}
}

// Run plays a full episode. The world is destroyed on every path,
// including panics, which are re-raised.
func Run(factory physics.Factory, controller neural.Controller, schedule HazardSchedule, cfg Config, prior systems.PriorBest) (Result, error) {
	r := NewRunner(factory, controller, schedule, cfg, prior)
	defer r.Close()

	if err := r.Start(); err != nil {
		return r.Result(), err
	}
	for {
		done, err := r.Step()
		if err != nil {
			return r.Result(), err
		}
		if done {
			return r.Result(), nil
		}
	}
}
