package body

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// SegmentSnapshot is a copy of one part's drawable state.
type SegmentSnapshot struct {
	Part          Part
	Position      r2.Vec
	Angle         float64
	Size          r2.Vec
	GroundContact bool
}

// Snapshot is a read-only copy of a body for rendering.
// It holds no reference to the physics world.
type Snapshot struct {
	Spawn      r2.Vec
	Segments   [NumParts]SegmentSnapshot
	MotorRates [NumJoints]float64
}

// Snapshot copies the current body state.
func (b *Body) Snapshot() (Snapshot, error) {
	snap := Snapshot{Spawn: b.Spawn}
	for p := Part(0); p < NumParts; p++ {
		st, err := b.Segment(p)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Segments[p] = SegmentSnapshot{
			Part:          p,
			Position:      st.Position,
			Angle:         st.Angle,
			Size:          b.Sizes[p],
			GroundContact: st.GroundContact,
		}
	}
	for j := Joint(0); j < NumJoints; j++ {
		m, err := b.World.Motor(b.Motors[j])
		if err != nil {
			return Snapshot{}, err
		}
		snap.MotorRates[j] = m.Rate
	}
	return snap, nil
}

// Corners returns the four corners of a segment in world space,
// counter-clockwise from bottom-left.
func (s SegmentSnapshot) Corners() [4]r2.Vec {
	hw, hh := s.Size.X/2, s.Size.Y/2
	local := [4]r2.Vec{{X: -hw, Y: -hh}, {X: hw, Y: -hh}, {X: hw, Y: hh}, {X: -hw, Y: hh}}
	rot := r2.NewRotation(s.Angle, r2.Vec{})
	var out [4]r2.Vec
	for i, v := range local {
		out[i] = r2.Add(s.Position, rot.Rotate(v))
	}
	return out
}

// TorsoX returns the torso's horizontal position.
func (s Snapshot) TorsoX() float64 {
	return s.Segments[Torso].Position.X
}
