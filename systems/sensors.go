// Package systems holds the per-step logic of an episode: sensing,
// actuation, death detection and fitness accumulation.
package systems

import (
	"fmt"
	"math"

	"github.com/pthm-cable/laserwalk/body"
	"github.com/pthm-cable/laserwalk/physics"
)

// NumSensors is the length of a SensorVector.
const NumSensors = 11

// Sensor indices.
const (
	SensorRightShoulder = iota
	SensorLeftShoulder
	SensorRightHip
	SensorLeftHip
	SensorHead
	SensorTorso
	SensorArms
	SensorLegs
	SensorRightFoot
	SensorLeftFoot
	SensorSpin
)

// SensorVector holds normalized readings for one step.
// Angles are in [-1, 1], contacts are 0 or 1.
type SensorVector [NumSensors]float64

// AsSlice returns the readings as a fresh slice for the network.
func (s SensorVector) AsSlice() []float64 {
	out := make([]float64, NumSensors)
	copy(out, s[:])
	return out
}

// Sense reads the body and returns its normalized sensor vector.
func Sense(b *body.Body) (SensorVector, error) {
	var s SensorVector

	var states [body.NumParts]physics.SegmentState
	for p := body.Part(0); p < body.NumParts; p++ {
		st, err := b.Segment(p)
		if err != nil {
			return s, fmt.Errorf("sensing %s: %w", p, err)
		}
		if !st.Finite() {
			return s, fmt.Errorf("sensing %s: %w", p, physics.ErrUnstable)
		}
		states[p] = st
	}

	relative := func(j body.Joint) float64 {
		parent, child := j.Parts()
		return clampUnit((states[child].Angle - states[parent].Angle) / b.Range(j))
	}
	s[SensorRightShoulder] = relative(body.RightShoulder)
	s[SensorLeftShoulder] = relative(body.LeftShoulder)
	s[SensorRightHip] = relative(body.RightHip)
	s[SensorLeftHip] = relative(body.LeftHip)

	s[SensorHead] = clampUnit(normalizeAngle(states[body.Head].Angle) / body.HeadRange)
	s[SensorTorso] = normalizeAngle(states[body.Torso].Angle) / math.Pi
	s[SensorArms] = meanAngle(states[body.RightArm].Angle, states[body.LeftArm].Angle) / math.Pi
	s[SensorLegs] = meanAngle(states[body.RightThigh].Angle, states[body.LeftThigh].Angle) / math.Pi

	s[SensorRightFoot] = boolToFloat(states[body.RightShin].GroundContact)
	s[SensorLeftFoot] = boolToFloat(states[body.LeftShin].GroundContact)

	s[SensorSpin] = clampUnit(states[body.Torso].AngularVelocity / b.MaxRate)

	return s, nil
}
