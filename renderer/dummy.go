package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/laserwalk/body"
	"github.com/pthm-cable/laserwalk/camera"
)

// DummyRenderer draws a body snapshot as filled, rotated rectangles.
type DummyRenderer struct {
	Outline rl.Color
	Contact rl.Color
	Dead    rl.Color
}

// NewDummyRenderer creates a new dummy renderer.
func NewDummyRenderer() *DummyRenderer {
	return &DummyRenderer{
		Outline: rl.Color{R: 20, G: 20, B: 20, A: 255},
		Contact: rl.Color{R: 255, G: 230, B: 120, A: 255},
		Dead:    rl.Color{R: 110, G: 110, B: 110, A: 255},
	}
}

// partColor returns the fill color of a body part. Left limbs are darker so
// they read as being behind the right ones.
func partColor(p body.Part) rl.Color {
	switch p {
	case body.Head:
		return rl.Color{R: 235, G: 200, B: 170, A: 255}
	case body.Torso:
		return rl.Color{R: 70, G: 130, B: 200, A: 255}
	case body.RightArm, body.RightThigh, body.RightShin:
		return rl.Color{R: 90, G: 160, B: 220, A: 255}
	default:
		return rl.Color{R: 50, G: 95, B: 150, A: 255}
	}
}

// drawOrder paints the left side first so the right side overlaps it.
var drawOrder = [...]body.Part{
	body.LeftArm, body.LeftThigh, body.LeftShin,
	body.Torso, body.Head,
	body.RightThigh, body.RightShin, body.RightArm,
}

// Draw renders every segment. A dead dummy is drawn in grey.
func (d *DummyRenderer) Draw(cam *camera.Camera, snap body.Snapshot, dead bool) {
	for _, part := range drawOrder {
		seg := snap.Segments[part]
		cx, cy := cam.WorldToScreen(float32(seg.Position.X), float32(seg.Position.Y))
		w := float32(seg.Size.X) * cam.Zoom
		h := float32(seg.Size.Y) * cam.Zoom

		fill := partColor(part)
		if dead {
			fill = d.Dead
		}
		// Screen y points down, so world rotation flips sign
		rl.DrawRectanglePro(
			rl.Rectangle{X: cx, Y: cy, Width: w, Height: h},
			rl.Vector2{X: w / 2, Y: h / 2},
			float32(-seg.Angle*180/math.Pi),
			fill,
		)

		outline := d.Outline
		if seg.GroundContact {
			outline = d.Contact
		}
		corners := seg.Corners()
		for i := range corners {
			a, b := corners[i], corners[(i+1)%len(corners)]
			ax, ay := cam.WorldToScreen(float32(a.X), float32(a.Y))
			bx, by := cam.WorldToScreen(float32(b.X), float32(b.Y))
			rl.DrawLineEx(rl.Vector2{X: ax, Y: ay}, rl.Vector2{X: bx, Y: by}, 1.5, outline)
		}
	}
}

// DrawSpawn marks the spawn line the distance is measured from.
func (d *DummyRenderer) DrawSpawn(cam *camera.Camera, spawnX, groundY float32) {
	x, y := cam.WorldToScreen(spawnX, groundY)
	rl.DrawLineEx(rl.Vector2{X: x, Y: y}, rl.Vector2{X: x, Y: y - 40*cam.Zoom}, 1, rl.Color{R: 120, G: 200, B: 120, A: 160})
}
