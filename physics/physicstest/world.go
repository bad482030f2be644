// Package physicstest provides a scripted physics.World for tests.
//
// The fake does no dynamics. Segments stay where they were created until a
// test moves them, either directly or from an OnStep hook.
package physicstest

import (
	"fmt"
	"math"
	"sync/atomic"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/laserwalk/physics"
)

// World is a scripted physics.World.
type World struct {
	Defs     []physics.SegmentDef
	States   []physics.SegmentState
	MotorDef []physics.MotorDef
	Rates    []float64

	Pivots  int
	Limits  []physics.RotaryLimitDef
	Springs int

	// Frames counts successful Step calls.
	Frames int
	// OnStep runs after Frames is incremented. A non-nil error fails the step.
	OnStep func(w *World) error
	// SegmentErr, when set, is returned by AddSegment for the segment with this name.
	SegmentErr map[string]error

	Destroyed bool
	onDestroy func()
}

var _ physics.World = (*World)(nil)

// NewWorld returns an empty scripted world.
func NewWorld() *World {
	return &World{}
}

func (w *World) check() error {
	if w.Destroyed {
		return physics.ErrWorldDestroyed
	}
	return nil
}

// AddSegment implements physics.World.
func (w *World) AddSegment(def physics.SegmentDef) (physics.SegmentID, error) {
	if err := w.check(); err != nil {
		return 0, err
	}
	if err := w.SegmentErr[def.Name]; err != nil {
		return 0, err
	}
	if !(def.Mass > 0) || !(def.Width > 0) || !(def.Height > 0) {
		return 0, physics.ErrInvalidSegment
	}
	w.Defs = append(w.Defs, def)
	w.States = append(w.States, physics.SegmentState{Position: def.Position, Angle: def.Angle})
	id := physics.SegmentID(len(w.Defs) - 1)
	w.refresh(id)
	return id, nil
}

func (w *World) pair(a, b physics.SegmentID) error {
	if err := w.check(); err != nil {
		return err
	}
	if int(a) >= len(w.Defs) || int(b) >= len(w.Defs) || a < 0 || b < 0 {
		return physics.ErrUnknownHandle
	}
	return nil
}

// AddPivot implements physics.World.
func (w *World) AddPivot(def physics.PivotDef) error {
	if err := w.pair(def.A, def.B); err != nil {
		return err
	}
	w.Pivots++
	return nil
}

// AddRotaryLimit implements physics.World.
func (w *World) AddRotaryLimit(def physics.RotaryLimitDef) error {
	if err := w.pair(def.A, def.B); err != nil {
		return err
	}
	w.Limits = append(w.Limits, def)
	return nil
}

// AddDampedSpring implements physics.World.
func (w *World) AddDampedSpring(def physics.DampedSpringDef) error {
	if err := w.pair(def.A, def.B); err != nil {
		return err
	}
	w.Springs++
	return nil
}

// AddMotor implements physics.World.
func (w *World) AddMotor(def physics.MotorDef) (physics.MotorID, error) {
	if err := w.pair(def.A, def.B); err != nil {
		return 0, err
	}
	w.MotorDef = append(w.MotorDef, def)
	w.Rates = append(w.Rates, 0)
	return physics.MotorID(len(w.MotorDef) - 1), nil
}

// SetMotorRate implements physics.World.
func (w *World) SetMotorRate(id physics.MotorID, rate float64) error {
	if err := w.check(); err != nil {
		return err
	}
	if int(id) < 0 || int(id) >= len(w.MotorDef) {
		return physics.ErrUnknownHandle
	}
	limit := w.MotorDef[id].MaxRate
	if math.IsNaN(rate) {
		rate = 0
	}
	w.Rates[id] = math.Max(-limit, math.Min(limit, rate))
	return nil
}

// Motor implements physics.World.
func (w *World) Motor(id physics.MotorID) (physics.MotorState, error) {
	if err := w.check(); err != nil {
		return physics.MotorState{}, err
	}
	if int(id) < 0 || int(id) >= len(w.MotorDef) {
		return physics.MotorState{}, physics.ErrUnknownHandle
	}
	d := w.MotorDef[id]
	return physics.MotorState{Rate: w.Rates[id], MaxForce: d.MaxForce, MaxRate: d.MaxRate}, nil
}

// Segment implements physics.World.
func (w *World) Segment(id physics.SegmentID) (physics.SegmentState, error) {
	if err := w.check(); err != nil {
		return physics.SegmentState{}, err
	}
	if int(id) < 0 || int(id) >= len(w.States) {
		return physics.SegmentState{}, fmt.Errorf("segment %d: %w", id, physics.ErrUnknownHandle)
	}
	return w.States[id], nil
}

// Step implements physics.World.
func (w *World) Step(dt float64) error {
	if err := w.check(); err != nil {
		return err
	}
	w.Frames++
	if w.OnStep != nil {
		return w.OnStep(w)
	}
	return nil
}

// Destroy implements physics.World.
func (w *World) Destroy() {
	if w.Destroyed {
		return
	}
	w.Destroyed = true
	if w.onDestroy != nil {
		w.onDestroy()
	}
}

// Translate moves every segment by d.
func (w *World) Translate(d r2.Vec) {
	for i := range w.States {
		w.States[i].Position = r2.Add(w.States[i].Position, d)
		w.refresh(physics.SegmentID(i))
	}
}

// SetAngle sets a segment's absolute angle.
func (w *World) SetAngle(id physics.SegmentID, angle float64) {
	w.States[id].Angle = angle
	w.refresh(id)
}

// SetPosition moves a segment's center.
func (w *World) SetPosition(id physics.SegmentID, p r2.Vec) {
	w.States[id].Position = p
	w.refresh(id)
}

// SetContact sets a segment's ground contact flag.
func (w *World) SetContact(id physics.SegmentID, contact bool) {
	w.States[id].GroundContact = contact
}

// SetAngularVelocity sets a segment's angular velocity.
func (w *World) SetAngularVelocity(id physics.SegmentID, v float64) {
	w.States[id].AngularVelocity = v
}

func (w *World) refresh(id physics.SegmentID) {
	d := w.Defs[id]
	st := &w.States[id]
	c, s := math.Cos(st.Angle), math.Sin(st.Angle)
	hw, hh := d.Width/2, d.Height/2
	ex := math.Abs(c)*hw + math.Abs(s)*hh
	ey := math.Abs(s)*hw + math.Abs(c)*hh
	st.Bounds = physics.AABB{
		Min: r2.Vec{X: st.Position.X - ex, Y: st.Position.Y - ey},
		Max: r2.Vec{X: st.Position.X + ex, Y: st.Position.Y + ey},
	}
}

// Factory hands out scripted worlds and counts their lifecycle.
// It is safe for concurrent use.
type Factory struct {
	// Setup, when set, configures each new world before it is returned.
	Setup func(w *World)
	// Err, when set, is returned instead of a world.
	Err error

	created   atomic.Int64
	destroyed atomic.Int64
}

var _ physics.Factory = (*Factory)(nil)

// NewWorld implements physics.Factory.
func (f *Factory) NewWorld() (physics.World, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	w := NewWorld()
	w.onDestroy = func() { f.destroyed.Add(1) }
	if f.Setup != nil {
		f.Setup(w)
	}
	f.created.Add(1)
	return w, nil
}

// Created returns how many worlds were handed out.
func (f *Factory) Created() int { return int(f.created.Load()) }

// Destroyed returns how many of them were destroyed.
func (f *Factory) Destroyed() int { return int(f.destroyed.Load()) }
