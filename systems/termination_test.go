package systems

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/laserwalk/body"
	"github.com/pthm-cable/laserwalk/physics/physicstest"
)

type worldScript = *physicstest.World

func TestCheckDeath(t *testing.T) {
	tests := []struct {
		name    string
		script  func(b *body.Body, w worldScript)
		hazardX float64
		want    DeathCause
	}{
		{
			name:    "alive",
			script:  func(*body.Body, worldScript) {},
			hazardX: -100,
			want:    CauseNone,
		},
		{
			name:    "hazard disabled",
			script:  func(*body.Body, worldScript) {},
			hazardX: math.Inf(-1),
			want:    CauseNone,
		},
		{
			name:    "hazard reaches left edge",
			script:  func(*body.Body, worldScript) {},
			hazardX: 200,
			want:    CauseExploded,
		},
		{
			name: "head contact",
			script: func(b *body.Body, w worldScript) {
				w.SetContact(b.Segments[body.Head], true)
			},
			hazardX: -100,
			want:    CauseHeadDown,
		},
		{
			name: "head within tolerance",
			script: func(b *body.Body, w worldScript) {
				w.SetPosition(b.Segments[body.Head], r2.Vec{X: 100, Y: 10 + 10 + 1})
			},
			hazardX: -100,
			want:    CauseHeadDown,
		},
		{
			name: "hazard wins over head down",
			script: func(b *body.Body, w worldScript) {
				w.SetContact(b.Segments[body.Head], true)
			},
			hazardX: 1000,
			want:    CauseExploded,
		},
		{
			name: "non-finite state",
			script: func(b *body.Body, w worldScript) {
				w.SetPosition(b.Segments[body.LeftShin], r2.Vec{X: math.NaN()})
			},
			hazardX: -100,
			want:    CauseOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, w, cfg := fakeBody(t)
			tt.script(b, w)
			limits := DeathLimits{GroundY: cfg.Physics.GroundY, HeadTolerance: 2}
			got, err := CheckDeath(b, tt.hazardX, limits)
			if err != nil {
				t.Fatalf("CheckDeath: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCheckDeath_DestroyedWorld(t *testing.T) {
	b, w, _ := fakeBody(t)
	w.Destroy()
	cause, err := CheckDeath(b, 0, DeathLimits{})
	if err == nil {
		t.Fatal("expected error")
	}
	if cause != CauseOther {
		t.Errorf("cause = %s, want other", cause)
	}
}

func TestDeathCauseString(t *testing.T) {
	for cause, want := range map[DeathCause]string{
		CauseNone: "none", CauseExploded: "exploded", CauseHeadDown: "head_down", CauseOther: "other",
	} {
		if cause.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(cause), cause.String(), want)
		}
	}
}
