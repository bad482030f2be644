package physics

import (
	"fmt"
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/laserwalk/components"
	"github.com/pthm-cable/laserwalk/config"
)

// Space is a World backed by an ark ECS world.
// Segments are entities; joints and motors are plain constraint slices.
type Space struct {
	cfg config.PhysicsConfig

	world *ecs.World
	mapper *ecs.Map5[
		components.Position,
		components.Velocity,
		components.Rotation,
		components.Body,
		components.Contact,
	]
	contactFilter *ecs.Filter1[components.Contact]

	// Segment handles index into entities in creation order.
	entities []ecs.Entity

	pivots  []pivot
	limits  []rotaryLimit
	springs []dampedSpring
	motors  []motor

	// Solver scratch, reused between steps.
	rigids   []rigid
	contacts []groundContact

	destroyed bool
}

// NewSpace creates an empty world with a ground line at cfg.GroundY.
func NewSpace(cfg config.PhysicsConfig) *Space {
	world := ecs.NewWorld()
	return &Space{
		cfg:   cfg,
		world: world,
		mapper: ecs.NewMap5[
			components.Position,
			components.Velocity,
			components.Rotation,
			components.Body,
			components.Contact,
		](world),
		contactFilter: ecs.NewFilter1[components.Contact](world),
	}
}

// NewFactory returns a Factory producing independent Spaces.
func NewFactory(cfg config.PhysicsConfig) Factory {
	return FactoryFunc(func() (World, error) {
		return NewSpace(cfg), nil
	})
}

// GroundY returns the height of the ground line.
func (s *Space) GroundY() float64 {
	return s.cfg.GroundY
}

// AddSegment implements World.
func (s *Space) AddSegment(def SegmentDef) (SegmentID, error) {
	if s.destroyed {
		return 0, ErrWorldDestroyed
	}
	if !(def.Mass > 0) || !(def.Width > 0) || !(def.Height > 0) ||
		!finite(def.Mass) || !finite(def.Width) || !finite(def.Height) ||
		!finite(def.Position.X) || !finite(def.Position.Y) || !finite(def.Angle) {
		return 0, fmt.Errorf("segment %q: %w", def.Name, ErrInvalidSegment)
	}
	if def.Position.Y <= s.cfg.GroundY {
		return 0, fmt.Errorf("segment %q at y=%.2f: %w", def.Name, def.Position.Y, ErrGroundOverlap)
	}

	inertia := components.BoxInertia(def.Mass, def.Width, def.Height)
	pos := components.Position{X: def.Position.X, Y: def.Position.Y}
	vel := components.Velocity{}
	rot := components.Rotation{Angle: def.Angle}
	body := components.Body{
		Mass:       def.Mass,
		InvMass:    1 / def.Mass,
		Inertia:    inertia,
		InvInertia: 1 / inertia,
		HalfW:      def.Width / 2,
		HalfH:      def.Height / 2,
		Friction:   def.Friction,
		Elasticity: def.Elasticity,
		Group:      def.Group,
	}
	contact := components.Contact{}

	entity := s.mapper.NewEntity(&pos, &vel, &rot, &body, &contact)
	s.entities = append(s.entities, entity)
	return SegmentID(len(s.entities) - 1), nil
}

func (s *Space) checkSegment(id SegmentID) error {
	if s.destroyed {
		return ErrWorldDestroyed
	}
	if int(id) < 0 || int(id) >= len(s.entities) {
		return fmt.Errorf("segment %d: %w", id, ErrUnknownHandle)
	}
	return nil
}

func (s *Space) checkPair(a, b SegmentID) error {
	if err := s.checkSegment(a); err != nil {
		return err
	}
	if err := s.checkSegment(b); err != nil {
		return err
	}
	if a == b {
		return fmt.Errorf("segment %d joined to itself: %w", a, ErrInvalidJoint)
	}
	return nil
}

// AddPivot implements World.
func (s *Space) AddPivot(def PivotDef) error {
	if err := s.checkPair(def.A, def.B); err != nil {
		return err
	}
	s.pivots = append(s.pivots, pivot{a: int(def.A), b: int(def.B), anchorA: def.AnchorA, anchorB: def.AnchorB})
	return nil
}

// AddRotaryLimit implements World.
func (s *Space) AddRotaryLimit(def RotaryLimitDef) error {
	if err := s.checkPair(def.A, def.B); err != nil {
		return err
	}
	if !(def.Min <= def.Max) {
		return fmt.Errorf("rotary limit [%.3f, %.3f]: %w", def.Min, def.Max, ErrInvalidJoint)
	}
	s.limits = append(s.limits, rotaryLimit{a: int(def.A), b: int(def.B), min: def.Min, max: def.Max})
	return nil
}

// AddDampedSpring implements World.
func (s *Space) AddDampedSpring(def DampedSpringDef) error {
	if err := s.checkPair(def.A, def.B); err != nil {
		return err
	}
	if def.Stiffness < 0 || def.Damping < 0 {
		return fmt.Errorf("damped spring k=%.3f c=%.3f: %w", def.Stiffness, def.Damping, ErrInvalidJoint)
	}
	s.springs = append(s.springs, dampedSpring{
		a: int(def.A), b: int(def.B),
		rest: def.RestAngle, stiffness: def.Stiffness, damping: def.Damping,
	})
	return nil
}

// AddMotor implements World.
func (s *Space) AddMotor(def MotorDef) (MotorID, error) {
	if err := s.checkPair(def.A, def.B); err != nil {
		return 0, err
	}
	if !(def.MaxForce > 0) || !(def.MaxRate > 0) || !finite(def.MaxForce) || !finite(def.MaxRate) {
		return 0, fmt.Errorf("motor force=%.3f rate=%.3f: %w", def.MaxForce, def.MaxRate, ErrInvalidJoint)
	}
	s.motors = append(s.motors, motor{a: int(def.A), b: int(def.B), maxForce: def.MaxForce, maxRate: def.MaxRate})
	return MotorID(len(s.motors) - 1), nil
}

func (s *Space) checkMotor(id MotorID) error {
	if s.destroyed {
		return ErrWorldDestroyed
	}
	if int(id) < 0 || int(id) >= len(s.motors) {
		return fmt.Errorf("motor %d: %w", id, ErrUnknownHandle)
	}
	return nil
}

// SetMotorRate implements World.
func (s *Space) SetMotorRate(id MotorID, rate float64) error {
	if err := s.checkMotor(id); err != nil {
		return err
	}
	m := &s.motors[id]
	if !finite(rate) {
		rate = 0
	}
	m.rate = clamp(rate, -m.maxRate, m.maxRate)
	return nil
}

// Motor implements World.
func (s *Space) Motor(id MotorID) (MotorState, error) {
	if err := s.checkMotor(id); err != nil {
		return MotorState{}, err
	}
	m := s.motors[id]
	return MotorState{Rate: m.rate, MaxForce: m.maxForce, MaxRate: m.maxRate}, nil
}

// Segment implements World.
func (s *Space) Segment(id SegmentID) (SegmentState, error) {
	if err := s.checkSegment(id); err != nil {
		return SegmentState{}, err
	}
	pos, vel, rot, body, contact := s.mapper.Get(s.entities[id])
	center := r2.Vec{X: pos.X, Y: pos.Y}
	return SegmentState{
		Position:        center,
		Angle:           rot.Angle,
		Velocity:        r2.Vec{X: vel.X, Y: vel.Y},
		AngularVelocity: rot.AngVel,
		GroundContact:   contact.Ground,
		Bounds:          boxBounds(center, rot.Angle, body.HalfW, body.HalfH),
	}, nil
}

// Destroy implements World.
func (s *Space) Destroy() {
	if s.destroyed {
		return
	}
	for _, e := range s.entities {
		s.mapper.Remove(e)
	}
	s.entities = nil
	s.pivots, s.limits, s.springs, s.motors = nil, nil, nil, nil
	s.rigids, s.contacts = nil, nil
	s.world = nil
	s.destroyed = true
}

// Step implements World.
func (s *Space) Step(dt float64) error {
	if s.destroyed {
		return ErrWorldDestroyed
	}
	if !(dt > 0) || !finite(dt) {
		return fmt.Errorf("step dt=%v: %w", dt, ErrUnstable)
	}

	s.load()
	s.integrateVelocities(dt)
	s.applySprings(dt)
	s.prepare(dt)

	iterations := s.cfg.Iterations
	if iterations < 1 {
		iterations = 1
	}
	for i := 0; i < iterations; i++ {
		for j := range s.motors {
			s.motors[j].solve(s.rigids)
		}
		for j := range s.limits {
			s.limits[j].solve(s.rigids)
		}
		for j := range s.pivots {
			s.pivots[j].solve(s.rigids)
		}
		for j := range s.contacts {
			s.contacts[j].solve(s.rigids)
		}
	}

	s.integratePositions(dt)
	for i := range s.rigids {
		if !s.rigids[i].finite() {
			return ErrUnstable
		}
	}
	s.store()
	return nil
}

// load copies segment state out of the ECS into solver scratch.
func (s *Space) load() {
	if cap(s.rigids) < len(s.entities) {
		s.rigids = make([]rigid, len(s.entities))
	}
	s.rigids = s.rigids[:len(s.entities)]
	for i, e := range s.entities {
		pos, vel, rot, body, _ := s.mapper.Get(e)
		s.rigids[i] = rigid{
			pos:      r2.Vec{X: pos.X, Y: pos.Y},
			vel:      r2.Vec{X: vel.X, Y: vel.Y},
			angle:    rot.Angle,
			w:        rot.AngVel,
			invMass:  body.InvMass,
			invI:     body.InvInertia,
			halfW:    body.HalfW,
			halfH:    body.HalfH,
			friction: body.Friction,
			elastic:  body.Elasticity,
		}
	}
}

// store writes solver state back and refreshes contact flags.
func (s *Space) store() {
	query := s.contactFilter.Query()
	for query.Next() {
		c := query.Get()
		*c = components.Contact{}
	}

	limit := s.cfg.GroundY + s.cfg.ContactSlop
	for i, e := range s.entities {
		r := &s.rigids[i]
		pos, vel, rot, _, contact := s.mapper.Get(e)
		pos.X, pos.Y = r.pos.X, r.pos.Y
		vel.X, vel.Y = r.vel.X, r.vel.Y
		rot.Angle, rot.AngVel = r.angle, r.w

		low := boxBounds(r.pos, r.angle, r.halfW, r.halfH).Min.Y
		if low <= limit {
			contact.Ground = true
			contact.Depth = math.Max(0, s.cfg.GroundY-low)
		}
	}
}

func (s *Space) integrateVelocities(dt float64) {
	linear := 1 / (1 + dt*s.cfg.LinearDamping)
	angular := 1 / (1 + dt*s.cfg.AngularDamping)
	for i := range s.rigids {
		r := &s.rigids[i]
		r.vel.Y += s.cfg.Gravity * dt
		r.vel = r2.Scale(linear, r.vel)
		r.w *= angular
	}
}

func (s *Space) integratePositions(dt float64) {
	for i := range s.rigids {
		r := &s.rigids[i]
		r.pos = r2.Add(r.pos, r2.Scale(dt, r.vel))
		r.angle += r.w * dt
	}
}

func (s *Space) applySprings(dt float64) {
	for i := range s.springs {
		s.springs[i].apply(s.rigids, dt)
	}
}

func (s *Space) prepare(dt float64) {
	for i := range s.motors {
		s.motors[i].prepare(s.rigids, dt)
	}
	for i := range s.limits {
		s.limits[i].prepare(s.rigids, dt, s.cfg)
	}
	for i := range s.pivots {
		s.pivots[i].prepare(s.rigids, dt, s.cfg)
	}
	s.collectContacts(dt)
}

// boxBounds returns the AABB of a rotated box.
func boxBounds(center r2.Vec, angle, halfW, halfH float64) AABB {
	c, sn := math.Cos(angle), math.Sin(angle)
	ex := math.Abs(c)*halfW + math.Abs(sn)*halfH
	ey := math.Abs(sn)*halfW + math.Abs(c)*halfH
	return AABB{
		Min: r2.Vec{X: center.X - ex, Y: center.Y - ey},
		Max: r2.Vec{X: center.X + ex, Y: center.Y + ey},
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
