// Package body builds the articulated dummy inside a physics world.
package body

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/laserwalk/config"
	"github.com/pthm-cable/laserwalk/physics"
)

// ErrConstruction wraps every failure to build a body.
var ErrConstruction = errors.New("body construction failed")

// Fixed joint ranges.
const (
	HeadRange = 30 * math.Pi / 180
	KneeRange = 90 * math.Pi / 180
)

// group keeps the dummy's own segments from colliding with each other.
const group uint32 = 1

// Part identifies a segment of the dummy.
type Part int

const (
	Head Part = iota
	Torso
	RightArm
	LeftArm
	RightThigh
	LeftThigh
	RightShin
	LeftShin
	NumParts
)

var partNames = [NumParts]string{
	"head", "torso", "right_arm", "left_arm",
	"right_thigh", "left_thigh", "right_shin", "left_shin",
}

func (p Part) String() string {
	if p < 0 || p >= NumParts {
		return fmt.Sprintf("part(%d)", int(p))
	}
	return partNames[p]
}

// Joint identifies a motorized joint.
type Joint int

const (
	RightShoulder Joint = iota
	LeftShoulder
	RightHip
	LeftHip
	RightKnee
	LeftKnee
	NumJoints
)

var jointNames = [NumJoints]string{
	"right_shoulder", "left_shoulder", "right_hip", "left_hip", "right_knee", "left_knee",
}

func (j Joint) String() string {
	if j < 0 || j >= NumJoints {
		return fmt.Sprintf("joint(%d)", int(j))
	}
	return jointNames[j]
}

// jointParts maps each motorized joint to its parent and child segment.
var jointParts = [NumJoints][2]Part{
	RightShoulder: {Torso, RightArm},
	LeftShoulder:  {Torso, LeftArm},
	RightHip:      {Torso, RightThigh},
	LeftHip:       {Torso, LeftThigh},
	RightKnee:     {RightThigh, RightShin},
	LeftKnee:      {LeftThigh, LeftShin},
}

// Parts returns the parent and child segment of a joint.
func (j Joint) Parts() (parent, child Part) {
	p := jointParts[j]
	return p[0], p[1]
}

// Body is a built dummy. It does not own the world.
type Body struct {
	World    physics.World
	Spawn    r2.Vec
	Segments [NumParts]physics.SegmentID
	Motors   [NumJoints]physics.MotorID
	Sizes    [NumParts]r2.Vec // width, height

	ShoulderRange float64
	HipRange      float64
	ArmForce      float64
	LegForce      float64
	MaxRate       float64
}

// Range returns the angle range of a joint in radians.
func (b *Body) Range(j Joint) float64 {
	switch j {
	case RightShoulder, LeftShoulder:
		return b.ShoulderRange
	case RightHip, LeftHip:
		return b.HipRange
	default:
		return KneeRange
	}
}

// MaxForce returns the motor torque cap of a joint.
func (b *Body) MaxForce(j Joint) float64 {
	if j == RightShoulder || j == LeftShoulder {
		return b.ArmForce
	}
	return b.LegForce
}

// Segment reads the state of one part.
func (b *Body) Segment(p Part) (physics.SegmentState, error) {
	return b.World.Segment(b.Segments[p])
}

// JointAngle returns angle(child) - angle(parent).
func (b *Body) JointAngle(j Joint) (float64, error) {
	parent, child := j.Parts()
	ps, err := b.Segment(parent)
	if err != nil {
		return 0, err
	}
	cs, err := b.Segment(child)
	if err != nil {
		return 0, err
	}
	return cs.Angle - ps.Angle, nil
}

// Build creates the dummy with its torso centered at spawn.
// On failure the partially built body is left in the world; the caller
// destroys the world.
func Build(world physics.World, spawn r2.Vec, cfg config.BodyConfig) (*Body, error) {
	if world == nil {
		return nil, fmt.Errorf("%w: nil world", ErrConstruction)
	}
	if !(cfg.ArmForce > 0) || !(cfg.MaxRate > 0) {
		return nil, fmt.Errorf("%w: arm_force=%v max_rate=%v", ErrConstruction, cfg.ArmForce, cfg.MaxRate)
	}
	if !(cfg.ShoulderRangeDeg > 0) || !(cfg.HipRangeDeg > 0) {
		return nil, fmt.Errorf("%w: joint ranges must be positive", ErrConstruction)
	}

	b := &Body{
		World:         world,
		Spawn:         spawn,
		ShoulderRange: cfg.ShoulderRangeDeg * math.Pi / 180,
		HipRange:      cfg.HipRangeDeg * math.Pi / 180,
		ArmForce:      cfg.ArmForce,
		LegForce:      2 * cfg.ArmForce,
		MaxRate:       cfg.MaxRate,
	}

	torso, head, arm, thigh, shin := cfg.Torso, cfg.Head, cfg.Arm, cfg.Thigh, cfg.Shin
	tw, th := torso.Width/2, torso.Height/2
	armX := tw + arm.Width/2
	shoulderY := th / 2
	hipX := tw / 2

	layout := [NumParts]struct {
		seg    config.SegmentConfig
		offset r2.Vec
	}{
		Head:       {head, r2.Vec{Y: th + head.Height/2}},
		Torso:      {torso, r2.Vec{}},
		RightArm:   {arm, r2.Vec{X: armX, Y: shoulderY - arm.Height/2}},
		LeftArm:    {arm, r2.Vec{X: -armX, Y: shoulderY - arm.Height/2}},
		RightThigh: {thigh, r2.Vec{X: hipX, Y: -th - thigh.Height/2}},
		LeftThigh:  {thigh, r2.Vec{X: -hipX, Y: -th - thigh.Height/2}},
		RightShin:  {shin, r2.Vec{X: hipX, Y: -th - thigh.Height - shin.Height/2}},
		LeftShin:   {shin, r2.Vec{X: -hipX, Y: -th - thigh.Height - shin.Height/2}},
	}

	for p := Part(0); p < NumParts; p++ {
		l := layout[p]
		id, err := world.AddSegment(physics.SegmentDef{
			Name:       p.String(),
			Mass:       l.seg.Mass,
			Width:      l.seg.Width,
			Height:     l.seg.Height,
			Position:   r2.Add(spawn, l.offset),
			Friction:   cfg.Friction,
			Elasticity: cfg.Elasticity,
			Group:      group,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrConstruction, p, err)
		}
		b.Segments[p] = id
		b.Sizes[p] = r2.Vec{X: l.seg.Width, Y: l.seg.Height}
	}

	// Neck: passive, spring-damped toward neutral.
	if err := b.pivot(Torso, Head, r2.Vec{Y: th}, r2.Vec{Y: -head.Height / 2}); err != nil {
		return nil, err
	}
	if err := b.limit(Torso, Head, HeadRange); err != nil {
		return nil, err
	}
	if err := world.AddDampedSpring(physics.DampedSpringDef{
		A: b.Segments[Torso], B: b.Segments[Head],
		Stiffness: cfg.NeckStiffness, Damping: cfg.NeckDamping,
	}); err != nil {
		return nil, fmt.Errorf("%w: neck spring: %w", ErrConstruction, err)
	}

	anchors := [NumJoints][2]r2.Vec{
		RightShoulder: {{X: armX, Y: shoulderY}, {Y: arm.Height / 2}},
		LeftShoulder:  {{X: -armX, Y: shoulderY}, {Y: arm.Height / 2}},
		RightHip:      {{X: hipX, Y: -th}, {Y: thigh.Height / 2}},
		LeftHip:       {{X: -hipX, Y: -th}, {Y: thigh.Height / 2}},
		RightKnee:     {{Y: -thigh.Height / 2}, {Y: shin.Height / 2}},
		LeftKnee:      {{Y: -thigh.Height / 2}, {Y: shin.Height / 2}},
	}
	for j := Joint(0); j < NumJoints; j++ {
		parent, child := j.Parts()
		if err := b.pivot(parent, child, anchors[j][0], anchors[j][1]); err != nil {
			return nil, err
		}
		if err := b.limit(parent, child, b.Range(j)); err != nil {
			return nil, err
		}
		id, err := world.AddMotor(physics.MotorDef{
			A: b.Segments[parent], B: b.Segments[child],
			MaxForce: b.MaxForce(j), MaxRate: b.MaxRate,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s motor: %w", ErrConstruction, j, err)
		}
		b.Motors[j] = id
	}

	return b, nil
}

func (b *Body) pivot(parent, child Part, anchorA, anchorB r2.Vec) error {
	err := b.World.AddPivot(physics.PivotDef{
		A: b.Segments[parent], B: b.Segments[child],
		AnchorA: anchorA, AnchorB: anchorB,
	})
	if err != nil {
		return fmt.Errorf("%w: %s-%s pivot: %w", ErrConstruction, parent, child, err)
	}
	return nil
}

func (b *Body) limit(parent, child Part, rng float64) error {
	err := b.World.AddRotaryLimit(physics.RotaryLimitDef{
		A: b.Segments[parent], B: b.Segments[child],
		Min: -rng, Max: rng,
	})
	if err != nil {
		return fmt.Errorf("%w: %s-%s limit: %w", ErrConstruction, parent, child, err)
	}
	return nil
}
