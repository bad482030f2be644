// Package physics provides the rigid-body simulation the evaluation core runs on.
//
// The core only depends on the World and Factory interfaces. Space is the
// in-repo implementation: a small deterministic 2D sequential-impulse solver
// with box segments, pivot joints, rotary limits, damped rotary springs,
// simple motors and a static ground line. Each Space owns its own ECS world,
// so any number of instances can step concurrently as long as a single
// instance is only touched by one goroutine.
package physics

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

var (
	// ErrWorldDestroyed is returned by any call on a world after Destroy.
	ErrWorldDestroyed = errors.New("physics: world destroyed")
	// ErrInvalidSegment is returned for non-positive or non-finite geometry/mass.
	ErrInvalidSegment = errors.New("physics: invalid segment definition")
	// ErrGroundOverlap is returned when a segment would be created inside the ground.
	ErrGroundOverlap = errors.New("physics: segment overlaps ground")
	// ErrUnknownHandle is returned for segment or motor handles the world did not issue.
	ErrUnknownHandle = errors.New("physics: unknown handle")
	// ErrInvalidJoint is returned for malformed joint definitions.
	ErrInvalidJoint = errors.New("physics: invalid joint definition")
	// ErrUnstable is returned by Step when the state became non-finite.
	ErrUnstable = errors.New("physics: simulation became unstable")
)

// SegmentID is a stable handle to a rigid segment inside one world.
type SegmentID int

// MotorID is a stable handle to a motor inside one world.
type MotorID int

// SegmentDef describes a rigid box segment.
type SegmentDef struct {
	Name       string
	Mass       float64
	Width      float64
	Height     float64
	Position   r2.Vec
	Angle      float64
	Friction   float64
	Elasticity float64
	Group      uint32
}

// PivotDef pins two segments together at a shared point.
// Anchors are in each segment's local frame.
type PivotDef struct {
	A, B             SegmentID
	AnchorA, AnchorB r2.Vec
}

// RotaryLimitDef keeps angle(B) - angle(A) within [Min, Max].
type RotaryLimitDef struct {
	A, B     SegmentID
	Min, Max float64
}

// DampedSpringDef pulls angle(B) - angle(A) toward RestAngle.
type DampedSpringDef struct {
	A, B      SegmentID
	RestAngle float64
	Stiffness float64
	Damping   float64
}

// MotorDef drives angvel(B) - angvel(A) toward a target rate.
// The motor never applies more than MaxForce torque and never accepts
// a target rate above MaxRate in magnitude.
type MotorDef struct {
	A, B     SegmentID
	MaxForce float64
	MaxRate  float64
}

// SegmentState is a read-only view of a segment after the last step.
type SegmentState struct {
	Position        r2.Vec
	Angle           float64
	Velocity        r2.Vec
	AngularVelocity float64
	GroundContact   bool
	Bounds          AABB
}

// Finite reports whether every component of the state is finite.
func (s SegmentState) Finite() bool {
	return finite(s.Position.X) && finite(s.Position.Y) && finite(s.Angle) &&
		finite(s.Velocity.X) && finite(s.Velocity.Y) && finite(s.AngularVelocity)
}

// MotorState is a read-only view of a motor.
type MotorState struct {
	Rate     float64
	MaxForce float64
	MaxRate  float64
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max r2.Vec
}

// World is the physics capability the evaluation core consumes.
// A World is not safe for concurrent use.
type World interface {
	AddSegment(def SegmentDef) (SegmentID, error)
	AddPivot(def PivotDef) error
	AddRotaryLimit(def RotaryLimitDef) error
	AddDampedSpring(def DampedSpringDef) error
	AddMotor(def MotorDef) (MotorID, error)

	// SetMotorRate sets a motor's target rate, clamped to its MaxRate.
	SetMotorRate(id MotorID, rate float64) error
	Motor(id MotorID) (MotorState, error)
	Segment(id SegmentID) (SegmentState, error)

	// Step advances the simulation by dt seconds.
	Step(dt float64) error
	// Destroy releases all resources. Further calls return ErrWorldDestroyed.
	Destroy()
}

// Factory creates independent world instances.
type Factory interface {
	NewWorld() (World, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func() (World, error)

// NewWorld calls f.
func (f FactoryFunc) NewWorld() (World, error) {
	return f()
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
