// Package renderer draws the side-view scene: sky, ground, laser and dummy.
// All positions are world coordinates mapped through a camera.Camera.
package renderer

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/laserwalk/camera"
)

// BackgroundRenderer draws a sky gradient, the ground plane and distance
// markers along it.
type BackgroundRenderer struct {
	screenW, screenH int32

	SkyTop      rl.Color
	SkyBottom   rl.Color
	Ground      rl.Color
	GroundLine  rl.Color
	MarkerColor rl.Color

	// MarkerSpacing is the world distance between ground markers.
	MarkerSpacing float32
}

// NewBackgroundRenderer creates a new background renderer.
func NewBackgroundRenderer(screenW, screenH int32) *BackgroundRenderer {
	return &BackgroundRenderer{
		screenW:       screenW,
		screenH:       screenH,
		SkyTop:        rl.Color{R: 18, G: 22, B: 34, A: 255},
		SkyBottom:     rl.Color{R: 48, G: 56, B: 78, A: 255},
		Ground:        rl.Color{R: 42, G: 38, B: 34, A: 255},
		GroundLine:    rl.Color{R: 150, G: 140, B: 120, A: 255},
		MarkerColor:   rl.Color{R: 120, G: 120, B: 130, A: 255},
		MarkerSpacing: 100,
	}
}

// Resize updates the screen size.
func (b *BackgroundRenderer) Resize(screenW, screenH int32) {
	b.screenW = screenW
	b.screenH = screenH
}

// Draw renders the sky, the ground below groundY and markers measured from
// originX (the spawn).
func (b *BackgroundRenderer) Draw(cam *camera.Camera, groundY, originX float32) {
	rl.DrawRectangleGradientV(0, 0, b.screenW, b.screenH, b.SkyTop, b.SkyBottom)

	_, sy := cam.WorldToScreen(0, groundY)
	groundTop := int32(sy)
	if groundTop < b.screenH {
		top := max(groundTop, 0)
		rl.DrawRectangle(0, top, b.screenW, b.screenH-top, b.Ground)
	}
	rl.DrawLineEx(
		rl.Vector2{X: 0, Y: sy},
		rl.Vector2{X: float32(b.screenW), Y: sy},
		2, b.GroundLine,
	)

	if b.MarkerSpacing <= 0 {
		return
	}
	minX, _, maxX, _ := cam.VisibleWorldBounds()
	first := originX + float32(math.Floor(float64((minX-originX)/b.MarkerSpacing)))*b.MarkerSpacing
	for wx := first; wx <= maxX; wx += b.MarkerSpacing {
		x, _ := cam.WorldToScreen(wx, groundY)
		rl.DrawLine(int32(x), int32(sy), int32(x), int32(sy)+8, b.MarkerColor)
		label := fmt.Sprintf("%.0f", wx-originX)
		rl.DrawText(label, int32(x)+3, int32(sy)+10, 10, b.MarkerColor)
	}
}
