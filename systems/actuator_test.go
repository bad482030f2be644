package systems

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/laserwalk/body"
	"github.com/pthm-cable/laserwalk/physics"
)

// ---------- MotorRates ----------

func TestMotorRates_Groups(t *testing.T) {
	const maxRate = 5.0

	tests := []struct {
		name   string
		action ActionVector
		want   [body.NumJoints]float64
	}{
		{
			name:   "zero",
			action: ActionVector{},
			want:   [body.NumJoints]float64{},
		},
		{
			name:   "arms mirror",
			action: ActionVector{ActionArms: 0.5},
			want: [body.NumJoints]float64{
				body.RightShoulder: 2.5, body.LeftShoulder: -2.5,
			},
		},
		{
			name:   "right leg drives hip and knee",
			action: ActionVector{ActionRightLeg: -0.4},
			want: [body.NumJoints]float64{
				body.RightHip: -2, body.RightKnee: -2,
			},
		},
		{
			name:   "knee contributions sum",
			action: ActionVector{ActionLeftLeg: 0.2, ActionKnees: 0.3},
			want: [body.NumJoints]float64{
				body.LeftHip: 1, body.LeftKnee: 2.5, body.RightKnee: 1.5,
			},
		},
		{
			name:   "sum clamps to max rate",
			action: ActionVector{ActionRightLeg: 1, ActionKnees: 1},
			want: [body.NumJoints]float64{
				body.RightHip: 5, body.RightKnee: 5, body.LeftKnee: 5,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MotorRates(tt.action, maxRate)
			for j := range got {
				if math.Abs(got[j]-tt.want[j]) > 1e-12 {
					t.Errorf("%s = %v, want %v", body.Joint(j), got[j], tt.want[j])
				}
			}
		})
	}
}

func TestMotorRates_NeverExceedMax(t *testing.T) {
	inputs := []float64{0, 1, -1, 3, -1e9, 1e300, math.Inf(1), math.Inf(-1), math.NaN()}
	const maxRate = 5.0

	for _, a := range inputs {
		for _, b := range inputs {
			action := ActionVector{a, b, -a, b}
			for j, r := range MotorRates(action, maxRate) {
				if math.IsNaN(r) || math.Abs(r) > maxRate {
					t.Fatalf("action %v: %s rate %v exceeds %v", action, body.Joint(j), r, maxRate)
				}
			}
		}
	}
}

func TestActionFromSlice(t *testing.T) {
	a, err := ActionFromSlice([]float64{2, -0.5, math.NaN(), math.Inf(-1)})
	if err != nil {
		t.Fatal(err)
	}
	want := ActionVector{1, -0.5, 0, 0}
	if a != want {
		t.Errorf("got %v, want %v", a, want)
	}

	if _, err := ActionFromSlice([]float64{1, 2, 3}); err == nil {
		t.Error("expected error for short output")
	}
}

// ---------- Act ----------

func TestAct_SetsMotorsWithoutStepping(t *testing.T) {
	b, w, _ := fakeBody(t)

	if err := Act(b, ActionVector{1, 0, 0, -1}); err != nil {
		t.Fatalf("Act: %v", err)
	}
	if w.Frames != 0 {
		t.Errorf("Act stepped the world %d times", w.Frames)
	}

	want := MotorRates(ActionVector{1, 0, 0, -1}, b.MaxRate)
	for j := body.Joint(0); j < body.NumJoints; j++ {
		m, _ := w.Motor(b.Motors[j])
		if m.Rate != want[j] {
			t.Errorf("%s rate = %v, want %v", j, m.Rate, want[j])
		}
		if math.Abs(m.Rate) > b.MaxRate {
			t.Errorf("%s rate %v exceeds max %v", j, m.Rate, b.MaxRate)
		}
	}
}

func TestAct_DestroyedWorld(t *testing.T) {
	b, w, _ := fakeBody(t)
	w.Destroy()
	if err := Act(b, ActionVector{}); !errors.Is(err, physics.ErrWorldDestroyed) {
		t.Errorf("err = %v, want ErrWorldDestroyed", err)
	}
}
