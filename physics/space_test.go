package physics

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/laserwalk/config"
)

func testPhysics() config.PhysicsConfig {
	cfg := config.Default().Physics
	cfg.LinearDamping = 0
	cfg.AngularDamping = 0
	return cfg
}

func box(name string, x, y float64) SegmentDef {
	return SegmentDef{Name: name, Mass: 1, Width: 10, Height: 20, Position: r2.Vec{X: x, Y: y}, Friction: 0.8}
}

func TestFreeFall(t *testing.T) {
	cfg := testPhysics()
	s := NewSpace(cfg)
	defer s.Destroy()

	id, err := s.AddSegment(box("falling", 0, 5000))
	if err != nil {
		t.Fatalf("AddSegment: %v", err)
	}

	const steps = 30
	for i := 0; i < steps; i++ {
		if err := s.Step(cfg.DT); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}

	st, err := s.Segment(id)
	if err != nil {
		t.Fatal(err)
	}
	want := cfg.Gravity * cfg.DT * steps
	if math.Abs(st.Velocity.Y-want) > 1e-6 {
		t.Errorf("vy = %.6f, want %.6f", st.Velocity.Y, want)
	}
	if st.GroundContact {
		t.Error("segment high above ground reports contact")
	}
}

func TestGroundSupport(t *testing.T) {
	cfg := testPhysics()
	s := NewSpace(cfg)
	defer s.Destroy()

	id, err := s.AddSegment(box("resting", 0, cfg.GroundY+40))
	if err != nil {
		t.Fatalf("AddSegment: %v", err)
	}

	for i := 0; i < 240; i++ {
		if err := s.Step(cfg.DT); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}

	st, _ := s.Segment(id)
	rest := cfg.GroundY + 10
	if math.Abs(st.Position.Y-rest) > 2 {
		t.Errorf("resting y = %.3f, want about %.3f", st.Position.Y, rest)
	}
	if !st.GroundContact {
		t.Error("resting segment should report ground contact")
	}
	if math.Abs(st.Velocity.Y) > 5 {
		t.Errorf("resting vy = %.3f, want about 0", st.Velocity.Y)
	}
	t.Logf("rest y=%.3f angle=%.4f", st.Position.Y, st.Angle)
}

func TestAddSegmentRejectsInvalid(t *testing.T) {
	cfg := testPhysics()
	s := NewSpace(cfg)
	defer s.Destroy()

	tests := []struct {
		name string
		def  SegmentDef
		want error
	}{
		{"zero mass", SegmentDef{Mass: 0, Width: 1, Height: 1, Position: r2.Vec{Y: 100}}, ErrInvalidSegment},
		{"negative width", SegmentDef{Mass: 1, Width: -1, Height: 1, Position: r2.Vec{Y: 100}}, ErrInvalidSegment},
		{"nan position", SegmentDef{Mass: 1, Width: 1, Height: 1, Position: r2.Vec{Y: math.NaN()}}, ErrInvalidSegment},
		{"below ground", SegmentDef{Mass: 1, Width: 1, Height: 1, Position: r2.Vec{Y: cfg.GroundY - 5}}, ErrGroundOverlap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.AddSegment(tt.def); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestJointValidation(t *testing.T) {
	s := NewSpace(testPhysics())
	defer s.Destroy()

	a, _ := s.AddSegment(box("a", 0, 100))
	b, _ := s.AddSegment(box("b", 0, 200))

	if err := s.AddPivot(PivotDef{A: a, B: a}); !errors.Is(err, ErrInvalidJoint) {
		t.Errorf("self pivot err = %v", err)
	}
	if err := s.AddPivot(PivotDef{A: a, B: 99}); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("unknown segment err = %v", err)
	}
	if err := s.AddRotaryLimit(RotaryLimitDef{A: a, B: b, Min: 1, Max: -1}); !errors.Is(err, ErrInvalidJoint) {
		t.Errorf("inverted limit err = %v", err)
	}
	if _, err := s.AddMotor(MotorDef{A: a, B: b, MaxForce: 0, MaxRate: 1}); !errors.Is(err, ErrInvalidJoint) {
		t.Errorf("zero force motor err = %v", err)
	}
	if err := s.SetMotorRate(3, 1); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("unknown motor err = %v", err)
	}
}

func TestMotorRateClamped(t *testing.T) {
	s := NewSpace(testPhysics())
	defer s.Destroy()

	a, _ := s.AddSegment(box("a", 0, 100))
	b, _ := s.AddSegment(box("b", 0, 200))
	m, err := s.AddMotor(MotorDef{A: a, B: b, MaxForce: 100, MaxRate: 5})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		in, want float64
	}{
		{3, 3},
		{50, 5},
		{-50, -5},
		{math.Inf(1), 0},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if err := s.SetMotorRate(m, tt.in); err != nil {
			t.Fatal(err)
		}
		st, _ := s.Motor(m)
		if st.Rate != tt.want {
			t.Errorf("SetMotorRate(%v): rate = %v, want %v", tt.in, st.Rate, tt.want)
		}
	}
}

// pinnedPair builds two boxes pinned at a shared center, far above ground.
func pinnedPair(t *testing.T, s *Space) (SegmentID, SegmentID) {
	t.Helper()
	a, err := s.AddSegment(box("a", 0, 50000))
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.AddSegment(box("b", 0, 50000))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AddPivot(PivotDef{A: a, B: b}); err != nil {
		t.Fatal(err)
	}
	return a, b
}

func TestMotorReachesRate(t *testing.T) {
	cfg := testPhysics()
	s := NewSpace(cfg)
	defer s.Destroy()

	a, b := pinnedPair(t, s)
	m, _ := s.AddMotor(MotorDef{A: a, B: b, MaxForce: 1e6, MaxRate: 5})
	_ = s.SetMotorRate(m, 2)

	for i := 0; i < 10; i++ {
		if err := s.Step(cfg.DT); err != nil {
			t.Fatal(err)
		}
	}
	sa, _ := s.Segment(a)
	sb, _ := s.Segment(b)
	rel := sb.AngularVelocity - sa.AngularVelocity
	if math.Abs(rel-2) > 0.01 {
		t.Errorf("relative angular velocity = %.4f, want 2", rel)
	}
}

func TestMotorTorqueCapped(t *testing.T) {
	cfg := testPhysics()
	s := NewSpace(cfg)
	defer s.Destroy()

	a, b := pinnedPair(t, s)
	const maxForce = 10.0
	m, _ := s.AddMotor(MotorDef{A: a, B: b, MaxForce: maxForce, MaxRate: 5})
	_ = s.SetMotorRate(m, 5)

	if err := s.Step(cfg.DT); err != nil {
		t.Fatal(err)
	}
	sa, _ := s.Segment(a)
	sb, _ := s.Segment(b)

	inertia := 1 * (10*10 + 20*20) / 12.0
	limit := maxForce * cfg.DT * (2 / inertia)
	rel := sb.AngularVelocity - sa.AngularVelocity
	if rel > limit+1e-9 {
		t.Errorf("relative angular velocity %.6f exceeds torque cap %.6f", rel, limit)
	}
	if rel <= 0 {
		t.Errorf("motor did not drive the joint: rel=%.6f", rel)
	}
}

func TestRotaryLimitHolds(t *testing.T) {
	cfg := testPhysics()
	s := NewSpace(cfg)
	defer s.Destroy()

	a, b := pinnedPair(t, s)
	const limit = 0.5
	if err := s.AddRotaryLimit(RotaryLimitDef{A: a, B: b, Min: -limit, Max: limit}); err != nil {
		t.Fatal(err)
	}
	m, _ := s.AddMotor(MotorDef{A: a, B: b, MaxForce: 500, MaxRate: 5})
	_ = s.SetMotorRate(m, 5)

	worst := 0.0
	for i := 0; i < 120; i++ {
		if err := s.Step(cfg.DT); err != nil {
			t.Fatal(err)
		}
		sa, _ := s.Segment(a)
		sb, _ := s.Segment(b)
		worst = math.Max(worst, sb.Angle-sa.Angle)
	}
	if worst > limit+0.15 {
		t.Errorf("relative angle reached %.4f, limit %.4f", worst, limit)
	}
	t.Logf("max relative angle %.4f", worst)
}

func TestPivotKeepsAnchorsTogether(t *testing.T) {
	cfg := testPhysics()
	s := NewSpace(cfg)
	defer s.Destroy()

	a, _ := s.AddSegment(box("upper", 0, 50000))
	b, _ := s.AddSegment(SegmentDef{Name: "lower", Mass: 1, Width: 10, Height: 20, Position: r2.Vec{X: 0, Y: 49980}, Angle: 0})
	anchorA := r2.Vec{Y: -10}
	anchorB := r2.Vec{Y: 10}
	if err := s.AddPivot(PivotDef{A: a, B: b, AnchorA: anchorA, AnchorB: anchorB}); err != nil {
		t.Fatal(err)
	}
	// Spin the upper box so the joint has work to do.
	m, _ := s.AddMotor(MotorDef{A: a, B: b, MaxForce: 2000, MaxRate: 3})
	_ = s.SetMotorRate(m, 3)

	for i := 0; i < 120; i++ {
		if err := s.Step(cfg.DT); err != nil {
			t.Fatal(err)
		}
	}
	sa, _ := s.Segment(a)
	sb, _ := s.Segment(b)
	pa := r2.Add(sa.Position, rotate(anchorA, sa.Angle))
	pb := r2.Add(sb.Position, rotate(anchorB, sb.Angle))
	if gap := r2.Norm(r2.Sub(pa, pb)); gap > 1.0 {
		t.Errorf("pivot drifted apart by %.4f", gap)
	}
}

func TestDeterministic(t *testing.T) {
	cfg := config.Default().Physics
	run := func() SegmentState {
		s := NewSpace(cfg)
		defer s.Destroy()
		a, _ := s.AddSegment(box("a", 0, 60))
		b, _ := s.AddSegment(box("b", 0, 40))
		_ = s.AddPivot(PivotDef{A: a, B: b, AnchorA: r2.Vec{Y: -10}, AnchorB: r2.Vec{Y: 10}})
		m, _ := s.AddMotor(MotorDef{A: a, B: b, MaxForce: 5000, MaxRate: 5})
		for i := 0; i < 200; i++ {
			_ = s.SetMotorRate(m, math.Sin(float64(i)/10)*5)
			if err := s.Step(cfg.DT); err != nil {
				t.Fatal(err)
			}
		}
		st, _ := s.Segment(a)
		return st
	}

	first, second := run(), run()
	if first != second {
		t.Errorf("runs diverged:\n%+v\n%+v", first, second)
	}
}

func TestDestroyedWorld(t *testing.T) {
	s := NewSpace(testPhysics())
	id, _ := s.AddSegment(box("a", 0, 100))
	s.Destroy()
	s.Destroy() // idempotent

	if _, err := s.Segment(id); !errors.Is(err, ErrWorldDestroyed) {
		t.Errorf("Segment after Destroy: %v", err)
	}
	if err := s.Step(0.01); !errors.Is(err, ErrWorldDestroyed) {
		t.Errorf("Step after Destroy: %v", err)
	}
	if _, err := s.AddSegment(box("b", 0, 100)); !errors.Is(err, ErrWorldDestroyed) {
		t.Errorf("AddSegment after Destroy: %v", err)
	}
}

func TestFactoryIndependentWorlds(t *testing.T) {
	f := NewFactory(testPhysics())
	w1, _ := f.NewWorld()
	w2, _ := f.NewWorld()
	defer w2.Destroy()

	id, _ := w1.AddSegment(box("a", 0, 100))
	w1.Destroy()

	if _, err := w2.Segment(id); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("second world saw first world's segment: %v", err)
	}
}
