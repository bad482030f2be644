package renderer

import (
	"math"
	"math/rand"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/laserwalk/camera"
)

// ParticleType selects a particle's color ramp.
type ParticleType uint8

const (
	ParticleSpark ParticleType = iota // Laser hitting the ground
	ParticleBurn                      // Dummy touched by the laser
	ParticleDust                      // Dummy collapsing
)

// Particle is a short-lived effect in world coordinates.
type Particle struct {
	X, Y    float32
	VX, VY  float32
	Life    float32
	MaxLife float32
	Size    float32
	Type    ParticleType
}

// ParticleRenderer simulates and renders effect particles.
type ParticleRenderer struct {
	particles []Particle
	rng       *rand.Rand
	gravity   float32
	limit     int
}

// NewParticleRenderer creates a particle system holding at most limit particles.
func NewParticleRenderer(limit int, seed int64) *ParticleRenderer {
	return &ParticleRenderer{
		rng:     rand.New(rand.NewSource(seed)),
		gravity: -400,
		limit:   limit,
	}
}

// Emit spawns n particles at (x, y) moving upward in a cone.
func (r *ParticleRenderer) Emit(typ ParticleType, x, y float32, n int) {
	for i := 0; i < n && len(r.particles) < r.limit; i++ {
		angle := math.Pi/2 + (r.rng.Float64()-0.5)*math.Pi*0.8
		speed := 60 + r.rng.Float32()*140
		life := 0.3 + r.rng.Float32()*0.5
		r.particles = append(r.particles, Particle{
			X:       x,
			Y:       y,
			VX:      float32(math.Cos(angle)) * speed,
			VY:      float32(math.Sin(angle)) * speed,
			Life:    life,
			MaxLife: life,
			Size:    1.5 + r.rng.Float32()*2,
			Type:    typ,
		})
	}
}

// Update advances all particles by dt seconds and drops the expired ones.
func (r *ParticleRenderer) Update(dt float32) {
	alive := r.particles[:0]
	for _, p := range r.particles {
		p.Life -= dt
		if p.Life <= 0 {
			continue
		}
		p.VY += r.gravity * dt
		p.X += p.VX * dt
		p.Y += p.VY * dt
		alive = append(alive, p)
	}
	r.particles = alive
}

// Clear removes every particle.
func (r *ParticleRenderer) Clear() {
	r.particles = r.particles[:0]
}

// Count returns the number of live particles.
func (r *ParticleRenderer) Count() int {
	return len(r.particles)
}

// Draw renders all particles.
func (r *ParticleRenderer) Draw(cam *camera.Camera) {
	for i := range r.particles {
		p := &r.particles[i]

		// Calculate life ratio for fade
		lifeRatio := p.Life / p.MaxLife

		var color rl.Color
		switch p.Type {
		case ParticleSpark:
			color = rl.Color{R: 255, G: uint8(180 + lifeRatio*70), B: 120, A: uint8(lifeRatio * 230)}
		case ParticleBurn:
			color = rl.Color{R: 255, G: uint8(lifeRatio * 120), B: 40, A: uint8(lifeRatio * 220)}
		case ParticleDust:
			color = rl.Color{R: 120, G: 105, B: 90, A: uint8(lifeRatio * 160)}
		}

		sx, sy := cam.WorldToScreen(p.X, p.Y)
		size := max(p.Size*lifeRatio*cam.Zoom, 0.5)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, size, color)
	}
}
