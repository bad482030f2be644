package episode

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/laserwalk/body"
	"github.com/pthm-cable/laserwalk/config"
	"github.com/pthm-cable/laserwalk/neural"
	"github.com/pthm-cable/laserwalk/physics"
	"github.com/pthm-cable/laserwalk/physics/physicstest"
	"github.com/pthm-cable/laserwalk/systems"
)

func testConfig(maxFrames int) Config {
	cfg := ConfigFrom(config.Default())
	cfg.MaxFrames = maxFrames
	return cfg
}

var idle = neural.ConstantController(0, 0, 0, 0)

// ---------- termination paths ----------

func TestRun_BudgetExhausted(t *testing.T) {
	f := &physicstest.Factory{}
	res, err := Run(f, idle, NoHazard, testConfig(50), systems.PriorBest{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Cause != systems.CauseNone || !res.Alive() {
		t.Errorf("cause = %s, want none", res.Cause)
	}
	if res.Frames != 50 {
		t.Errorf("frames = %d, want 50", res.Frames)
	}
	if f.Created() != 1 || f.Destroyed() != 1 {
		t.Errorf("worlds created=%d destroyed=%d, want 1/1", f.Created(), f.Destroyed())
	}
}

func TestRun_HazardKills(t *testing.T) {
	cfg := testConfig(1000)
	cfg.DT = 1.0 / 60
	// Starts 98 px behind spawn and closes 5 px per frame.
	schedule := LinearHazard(-98, 300)

	f := &physicstest.Factory{}
	res, err := Run(f, idle, schedule, cfg, systems.PriorBest{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Cause != systems.CauseExploded {
		t.Fatalf("cause = %s, want exploded", res.Cause)
	}

	// The left arm's outer edge is the leftmost point of the body.
	b := cfg.Body
	gap := 98 - (b.Torso.Width + b.Arm.Width)
	deathFrame := int(math.Ceil(gap / 5))
	if res.Frames != deathFrame-1 {
		t.Errorf("frames = %d, want %d", res.Frames, deathFrame-1)
	}
	if f.Destroyed() != 1 {
		t.Error("world not destroyed")
	}
}

func TestRun_HeadDown(t *testing.T) {
	f := &physicstest.Factory{Setup: func(w *physicstest.World) {
		w.OnStep = func(w *physicstest.World) error {
			if w.Frames == 10 {
				w.SetContact(physics.SegmentID(body.Head), true)
			}
			return nil
		}
	}}

	res, err := Run(f, idle, NoHazard, testConfig(100), systems.PriorBest{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Cause != systems.CauseHeadDown {
		t.Errorf("cause = %s, want head_down", res.Cause)
	}
	if res.Frames != 9 {
		t.Errorf("frames = %d, want 9", res.Frames)
	}
}

func TestRun_OtherCauses(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name       string
		controller neural.Controller
		onStep     func(w *physicstest.World) error
	}{
		{
			name:       "controller error",
			controller: func([]float64) ([]float64, error) { return nil, boom },
		},
		{
			name:       "wrong output length",
			controller: neural.ConstantController(1, 1),
		},
		{
			name:       "physics instability",
			controller: idle,
			onStep: func(w *physicstest.World) error {
				if w.Frames == 3 {
					return physics.ErrUnstable
				}
				return nil
			},
		},
		{
			name:       "non-finite state",
			controller: idle,
			onStep: func(w *physicstest.World) error {
				w.SetAngle(physics.SegmentID(body.Torso), math.Inf(1))
				return nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &physicstest.Factory{Setup: func(w *physicstest.World) { w.OnStep = tt.onStep }}
			res, err := Run(f, tt.controller, NoHazard, testConfig(100), systems.PriorBest{})
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if res.Cause != systems.CauseOther {
				t.Errorf("cause = %s, want other", res.Cause)
			}
			if f.Destroyed() != 1 {
				t.Error("world not destroyed")
			}
		})
	}
}

func TestRun_ConstructionError(t *testing.T) {
	f := &physicstest.Factory{Setup: func(w *physicstest.World) {
		w.SegmentErr = map[string]error{"torso": physics.ErrGroundOverlap}
	}}
	_, err := Run(f, idle, NoHazard, testConfig(10), systems.PriorBest{})
	if !errors.Is(err, body.ErrConstruction) || !errors.Is(err, physics.ErrGroundOverlap) {
		t.Errorf("err = %v, want construction error", err)
	}
	if f.Destroyed() != 1 {
		t.Error("world not destroyed after construction failure")
	}

	failing := &physicstest.Factory{Err: errors.New("no worlds left")}
	if _, err := Run(failing, idle, NoHazard, testConfig(10), systems.PriorBest{}); !errors.Is(err, body.ErrConstruction) {
		t.Errorf("factory failure err = %v", err)
	}
}

func TestRun_PanicReleasesWorld(t *testing.T) {
	f := &physicstest.Factory{}
	panicky := func([]float64) ([]float64, error) { panic("controller exploded") }

	defer func() {
		if recover() == nil {
			t.Error("panic was swallowed")
		}
		if f.Destroyed() != 1 {
			t.Errorf("destroyed = %d, want 1", f.Destroyed())
		}
	}()
	_, _ = Run(f, panicky, NoHazard, testConfig(10), systems.PriorBest{})
}

// ---------- fitness ----------

func TestRun_FitnessFromTrajectory(t *testing.T) {
	cfg := testConfig(20)
	f := &physicstest.Factory{Setup: func(w *physicstest.World) {
		w.OnStep = func(w *physicstest.World) error {
			w.Translate(r2.Vec{X: 2})
			return nil
		}
	}}

	res, err := Run(f, idle, NoHazard, cfg, systems.PriorBest{Distance: 10, Tracked: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Distance != 40 {
		t.Errorf("distance = %v, want 40", res.Distance)
	}
	if res.Improvement != 30 {
		t.Errorf("improvement = %v, want 30", res.Improvement)
	}
	if res.Stability != 20 {
		t.Errorf("stability = %v, want 20", res.Stability)
	}
	w := cfg.Fitness
	want := w.Frames*20 + w.Distance*40 + w.Stability*20 + w.Improvement*30
	if math.Abs(res.Fitness-want) > 1e-9 {
		t.Errorf("fitness = %v, want %v", res.Fitness, want)
	}
}

// ---------- state machine ----------

func TestRunner_States(t *testing.T) {
	f := &physicstest.Factory{}
	r := NewRunner(f, idle, NoHazard, testConfig(3), systems.PriorBest{})

	if r.State() != StateInit {
		t.Fatalf("state = %s, want init", r.State())
	}
	if _, err := r.Step(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Step before Start: %v", err)
	}
	if _, err := r.Snapshot(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Snapshot before Start: %v", err)
	}

	if err := r.Start(); err != nil {
		t.Fatal(err)
	}
	if r.State() != StateRunning {
		t.Fatalf("state = %s, want running", r.State())
	}
	if err := r.Start(); err == nil {
		t.Error("second Start should fail")
	}

	live, err := r.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	steps := 0
	for {
		done, err := r.Step()
		if err != nil {
			t.Fatal(err)
		}
		steps++
		if done {
			break
		}
	}
	if steps != 3 || r.State() != StateTerminated {
		t.Errorf("steps=%d state=%s", steps, r.State())
	}

	final, err := r.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if final.TorsoX() != live.TorsoX() {
		t.Errorf("final snapshot torso x = %v, want %v", final.TorsoX(), live.TorsoX())
	}

	// Terminated runners stay terminated.
	if done, _ := r.Step(); !done {
		t.Error("Step after termination should report done")
	}
	r.Close()
	if f.Destroyed() != 1 {
		t.Errorf("destroyed = %d, want 1", f.Destroyed())
	}
}

// ---------- real physics scenarios ----------

func TestScenario_PassiveBodyWithoutHazard(t *testing.T) {
	c := config.Default()
	cfg := ConfigFrom(c)
	cfg.MaxFrames = 600

	res, err := Run(physics.NewFactory(c.Physics), idle, NoHazard, cfg, systems.PriorBest{})
	if err != nil {
		t.Fatal(err)
	}
	const minFrames = 30
	if res.Frames < minFrames {
		t.Errorf("passive body died after %d frames, want >= %d", res.Frames, minFrames)
	}
	if res.Cause != systems.CauseHeadDown {
		t.Errorf("cause = %s (%v), want head_down", res.Cause, res.Err)
	}
	t.Logf("passive: cause=%s frames=%d distance=%.1f", res.Cause, res.Frames, res.Distance)
}

func TestScenario_MaxLegExtension(t *testing.T) {
	c := config.Default()
	cfg := ConfigFrom(c)
	cfg.MaxFrames = 600
	extend := neural.ConstantController(0, 1, 1, 1)

	res, err := Run(physics.NewFactory(c.Physics), extend, NoHazard, cfg, systems.PriorBest{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Cause != systems.CauseHeadDown && res.Cause != systems.CauseNone {
		t.Errorf("cause = %s (%v), want head_down or none", res.Cause, res.Err)
	}
	t.Logf("max extension: cause=%s frames=%d", res.Cause, res.Frames)
}

func TestScenario_SameGenomeIsRepeatable(t *testing.T) {
	c := config.Default()
	cfg := ConfigFrom(c)
	cfg.MaxFrames = 300
	genome := neural.CreateBrainGenome(rand.New(rand.NewSource(7)), 1, 0.6)
	schedule := ScheduleFrom(c.Hazard)

	var results [2]Result
	for i := range results {
		brain, err := neural.NewController(genome, c.Neural.ActivationDepth)
		if err != nil {
			t.Fatal(err)
		}
		results[i], err = Run(physics.NewFactory(c.Physics), brain, schedule, cfg, systems.PriorBest{})
		if err != nil {
			t.Fatal(err)
		}
	}

	if results[0].Fitness != results[1].Fitness || results[0].Frames != results[1].Frames {
		t.Errorf("runs differ: %+v vs %+v", results[0], results[1])
	}
}
