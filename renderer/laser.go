package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/laserwalk/camera"
)

// LaserRenderer draws the advancing laser as a pulsing vertical beam and
// shades the ground it has already swept.
type LaserRenderer struct {
	screenH int32

	Core  rl.Color
	Glow  rl.Color
	Swept rl.Color
}

// NewLaserRenderer creates a new laser renderer.
func NewLaserRenderer(screenH int32) *LaserRenderer {
	return &LaserRenderer{
		screenH: screenH,
		Core:    rl.Color{R: 255, G: 235, B: 235, A: 255},
		Glow:    rl.Color{R: 255, G: 40, B: 40, A: 90},
		Swept:   rl.Color{R: 120, G: 0, B: 0, A: 50},
	}
}

// Resize updates the screen height.
func (l *LaserRenderer) Resize(screenH int32) {
	l.screenH = screenH
}

// Draw renders the beam at world x. A disabled hazard (x = -Inf) draws nothing.
// t is the wall clock in seconds and only drives the pulse.
func (l *LaserRenderer) Draw(cam *camera.Camera, x float64, t float32) {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return
	}
	sx, _ := cam.WorldToScreen(float32(x), 0)
	if sx < -20 {
		// Off screen to the left: the whole view is safe
		return
	}

	if sx > 0 {
		rl.DrawRectangle(0, 0, int32(sx), l.screenH, l.Swept)
	}

	pulse := 0.5 + 0.5*float32(math.Sin(float64(t)*12))
	glowW := (6 + 4*pulse) * cam.Zoom
	rl.DrawRectangleV(
		rl.Vector2{X: sx - glowW/2, Y: 0},
		rl.Vector2{X: glowW, Y: float32(l.screenH)},
		l.Glow,
	)
	rl.DrawLineEx(
		rl.Vector2{X: sx, Y: 0},
		rl.Vector2{X: sx, Y: float32(l.screenH)},
		max(1, 2*cam.Zoom), l.Core,
	)
}
