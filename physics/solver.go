package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/laserwalk/config"
)

// rigid is the solver's working copy of a segment.
type rigid struct {
	pos, vel      r2.Vec
	angle, w      float64
	invMass, invI float64
	halfW, halfH  float64
	friction      float64
	elastic       float64
}

func (r *rigid) finite() bool {
	return finite(r.pos.X) && finite(r.pos.Y) && finite(r.vel.X) && finite(r.vel.Y) &&
		finite(r.angle) && finite(r.w)
}

// applyImpulse applies impulse p at offset off from the center of mass.
func (r *rigid) applyImpulse(p, off r2.Vec) {
	r.vel = r2.Add(r.vel, r2.Scale(r.invMass, p))
	r.w += r.invI * r2.Cross(off, p)
}

// pointVelocity returns the velocity of the point at offset off.
func (r *rigid) pointVelocity(off r2.Vec) r2.Vec {
	return r2.Add(r.vel, r2.Vec{X: -r.w * off.Y, Y: r.w * off.X})
}

func rotate(v r2.Vec, angle float64) r2.Vec {
	c, s := math.Cos(angle), math.Sin(angle)
	return r2.Vec{X: c*v.X - s*v.Y, Y: s*v.X + c*v.Y}
}

func biasFor(cfg config.PhysicsConfig, dt, err float64) float64 {
	b := cfg.Baumgarte / dt * err
	if cfg.MaxBias > 0 {
		b = clamp(b, -cfg.MaxBias, cfg.MaxBias)
	}
	return b
}

// pivot is a two-body point constraint.
type pivot struct {
	a, b             int
	anchorA, anchorB r2.Vec

	rA, rB r2.Vec
	k      [3]float64 // symmetric effective-mass matrix: k11, k12, k22
	bias   r2.Vec
}

func (p *pivot) prepare(rs []rigid, dt float64, cfg config.PhysicsConfig) {
	a, b := &rs[p.a], &rs[p.b]
	p.rA = rotate(p.anchorA, a.angle)
	p.rB = rotate(p.anchorB, b.angle)

	m := a.invMass + b.invMass
	p.k[0] = m + a.invI*p.rA.Y*p.rA.Y + b.invI*p.rB.Y*p.rB.Y
	p.k[1] = -a.invI*p.rA.X*p.rA.Y - b.invI*p.rB.X*p.rB.Y
	p.k[2] = m + a.invI*p.rA.X*p.rA.X + b.invI*p.rB.X*p.rB.X

	sep := r2.Sub(r2.Add(b.pos, p.rB), r2.Add(a.pos, p.rA))
	p.bias = r2.Vec{X: biasFor(cfg, dt, sep.X), Y: biasFor(cfg, dt, sep.Y)}
}

func (p *pivot) solve(rs []rigid) {
	a, b := &rs[p.a], &rs[p.b]
	rel := r2.Sub(b.pointVelocity(p.rB), a.pointVelocity(p.rA))
	rhs := r2.Scale(-1, r2.Add(rel, p.bias))

	det := p.k[0]*p.k[2] - p.k[1]*p.k[1]
	if det == 0 {
		return
	}
	inv := 1 / det
	impulse := r2.Vec{
		X: inv * (p.k[2]*rhs.X - p.k[1]*rhs.Y),
		Y: inv * (p.k[0]*rhs.Y - p.k[1]*rhs.X),
	}
	a.applyImpulse(r2.Scale(-1, impulse), p.rA)
	b.applyImpulse(impulse, p.rB)
}

// rotaryLimit keeps the relative angle inside [min, max].
type rotaryLimit struct {
	a, b     int
	min, max float64

	side int // -1 below min, +1 above max, 0 inactive
	mass float64
	bias float64
	acc  float64
}

func (l *rotaryLimit) prepare(rs []rigid, dt float64, cfg config.PhysicsConfig) {
	a, b := &rs[l.a], &rs[l.b]
	rel := b.angle - a.angle
	l.acc = 0
	switch {
	case rel < l.min:
		l.side = -1
		l.bias = -biasFor(cfg, dt, rel-l.min)
	case rel > l.max:
		l.side = 1
		l.bias = -biasFor(cfg, dt, rel-l.max)
	default:
		l.side = 0
		return
	}
	sum := a.invI + b.invI
	l.mass = 0
	if sum > 0 {
		l.mass = 1 / sum
	}
}

func (l *rotaryLimit) solve(rs []rigid) {
	if l.side == 0 {
		return
	}
	a, b := &rs[l.a], &rs[l.b]
	j := (l.bias - (b.w - a.w)) * l.mass
	old := l.acc
	if l.side < 0 {
		l.acc = math.Max(old+j, 0)
	} else {
		l.acc = math.Min(old+j, 0)
	}
	j = l.acc - old
	a.w -= j * a.invI
	b.w += j * b.invI
}

// dampedSpring applies a restoring torque toward rest as an explicit impulse.
type dampedSpring struct {
	a, b      int
	rest      float64
	stiffness float64
	damping   float64
}

func (s *dampedSpring) apply(rs []rigid, dt float64) {
	a, b := &rs[s.a], &rs[s.b]
	rel := b.angle - a.angle
	torque := -s.stiffness*(rel-s.rest) - s.damping*(b.w-a.w)
	j := torque * dt
	// Keep the impulse from overshooting the relative velocity in one step.
	sum := a.invI + b.invI
	if sum > 0 {
		limit := math.Abs(b.w-a.w)/sum + s.stiffness*math.Abs(rel-s.rest)*dt
		j = clamp(j, -limit, limit)
	}
	a.w -= j * a.invI
	b.w += j * b.invI
}

// motor drives the relative angular velocity toward rate.
type motor struct {
	a, b     int
	maxForce float64
	maxRate  float64
	rate     float64

	mass       float64
	maxImpulse float64
	acc        float64
}

func (m *motor) prepare(rs []rigid, dt float64) {
	a, b := &rs[m.a], &rs[m.b]
	sum := a.invI + b.invI
	m.mass = 0
	if sum > 0 {
		m.mass = 1 / sum
	}
	m.maxImpulse = m.maxForce * dt
	m.acc = 0
}

func (m *motor) solve(rs []rigid) {
	a, b := &rs[m.a], &rs[m.b]
	j := (m.rate - (b.w - a.w)) * m.mass
	old := m.acc
	m.acc = clamp(old+j, -m.maxImpulse, m.maxImpulse)
	j = m.acc - old
	a.w -= j * a.invI
	b.w += j * b.invI
}

// groundContact is one box corner touching the ground line.
type groundContact struct {
	body int
	r    r2.Vec // corner offset from the center of mass

	normalMass  float64
	tangentMass float64
	friction    float64
	bias        float64
	bounce      float64

	jn, jt float64
}

// collectContacts builds contacts for every corner below the ground line.
func (s *Space) collectContacts(dt float64) {
	s.contacts = s.contacts[:0]
	ground := s.cfg.GroundY
	for i := range s.rigids {
		r := &s.rigids[i]
		for _, corner := range [4]r2.Vec{
			{X: -r.halfW, Y: -r.halfH},
			{X: r.halfW, Y: -r.halfH},
			{X: r.halfW, Y: r.halfH},
			{X: -r.halfW, Y: r.halfH},
		} {
			off := rotate(corner, r.angle)
			depth := ground - (r.pos.Y + off.Y)
			if depth < 0 {
				continue
			}

			c := groundContact{body: i, r: off}
			// Normal is +y, tangent is +x.
			kn := r.invMass + r.invI*off.X*off.X
			kt := r.invMass + r.invI*off.Y*off.Y
			if kn > 0 {
				c.normalMass = 1 / kn
			}
			if kt > 0 {
				c.tangentMass = 1 / kt
			}
			c.friction = r.friction * s.cfg.GroundFriction
			c.bias = biasFor(s.cfg, dt, math.Max(0, depth-s.cfg.Slop))

			vn := r.pointVelocity(off).Y
			if e := r.elastic * s.cfg.GroundElasticity; e > 0 && vn < -1 {
				c.bounce = -e * vn
			}
			s.contacts = append(s.contacts, c)
		}
	}
}

func (c *groundContact) solve(rs []rigid) {
	r := &rs[c.body]

	vn := r.pointVelocity(c.r).Y
	jn := (math.Max(c.bias, c.bounce) - vn) * c.normalMass
	old := c.jn
	c.jn = math.Max(old+jn, 0)
	jn = c.jn - old
	r.applyImpulse(r2.Vec{Y: jn}, c.r)

	vt := r.pointVelocity(c.r).X
	jt := -vt * c.tangentMass
	maxFriction := c.friction * c.jn
	old = c.jt
	c.jt = clamp(old+jt, -maxFriction, maxFriction)
	jt = c.jt - old
	r.applyImpulse(r2.Vec{X: jt}, c.r)
}
