package systems

import (
	"fmt"

	"github.com/pthm-cable/laserwalk/body"
)

// NumActions is the length of an ActionVector.
const NumActions = 4

// Action groups.
const (
	ActionArms = iota
	ActionRightLeg
	ActionLeftLeg
	ActionKnees
)

// ActionVector holds one command per motor group, nominally in [-1, 1].
type ActionVector [NumActions]float64

// ActionFromSlice converts network outputs into an ActionVector.
// Values are clamped to [-1, 1]; non-finite values become 0.
func ActionFromSlice(out []float64) (ActionVector, error) {
	var a ActionVector
	if len(out) != NumActions {
		return a, fmt.Errorf("expected %d outputs, got %d", NumActions, len(out))
	}
	for i, v := range out {
		if finite(v) {
			a[i] = clampUnit(v)
		}
	}
	return a, nil
}

// MotorRates maps an action to per-joint target rates.
// Each rate is the sum of its group contributions scaled by maxRate
// and clamped to [-maxRate, maxRate].
func MotorRates(action ActionVector, maxRate float64) [body.NumJoints]float64 {
	var in ActionVector
	for i, v := range action {
		if finite(v) {
			in[i] = v
		}
	}

	var sum [body.NumJoints]float64
	sum[body.RightShoulder] = in[ActionArms]
	sum[body.LeftShoulder] = -in[ActionArms]
	sum[body.RightHip] = in[ActionRightLeg]
	sum[body.RightKnee] = in[ActionRightLeg] + in[ActionKnees]
	sum[body.LeftHip] = in[ActionLeftLeg]
	sum[body.LeftKnee] = in[ActionLeftLeg] + in[ActionKnees]

	var rates [body.NumJoints]float64
	for j, v := range sum {
		rates[j] = clamp(v*maxRate, -maxRate, maxRate)
	}
	return rates
}

// Act sets the body's motor target rates. It does not step the world.
func Act(b *body.Body, action ActionVector) error {
	rates := MotorRates(action, b.MaxRate)
	for j := body.Joint(0); j < body.NumJoints; j++ {
		if err := b.World.SetMotorRate(b.Motors[j], rates[j]); err != nil {
			return fmt.Errorf("setting %s rate: %w", j, err)
		}
	}
	return nil
}
