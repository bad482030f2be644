package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlsPanel renders the left-side controls panel with overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  false,
	}
}

// SetVisible shows or hides the panel.
func (c *ControlsPanel) SetVisible(visible bool) {
	c.visible = visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Draw renders the controls panel.
func (c *ControlsPanel) Draw(overlays *OverlayRegistry) int32 {
	if !c.visible {
		return c.y
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	// Calculate panel height based on content
	categories := overlays.Categories()
	totalItems := 0
	for _, cat := range categories {
		totalItems += len(overlays.ByCategory(cat)) + 1 // +1 for category header
	}
	panelHeight := int32(totalItems)*lineHeight + padding*3 + lineHeight // Extra for title

	// Draw panel background
	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	y := c.y + padding

	// Title
	rl.DrawText("Overlays", c.x+padding, y, 16, rl.White)
	y += lineHeight + 4

	// Draw overlays by category
	for _, category := range categories {
		// Category header
		catLabel := categoryLabel(category)
		rl.DrawText(catLabel, c.x+padding, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += lineHeight

		// Overlays in this category
		for _, desc := range overlays.ByCategory(category) {
			enabled := overlays.IsEnabled(desc.ID)
			c.drawToggle(c.x+padding, y, desc, enabled, c.width-padding*2)
			y += lineHeight
		}

		y += 4 // Gap between categories
	}

	return y
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	// Status indicator
	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	// Name
	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	// Key binding (right aligned)
	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "panels":
		return "Panels"
	case "scene":
		return "Scene"
	default:
		return cat
	}
}

// PlaybackState is the part of the viewer state the playback panel edits.
type PlaybackState struct {
	Paused    bool
	Following bool
	Speed     int
	MaxSpeed  int
}

// PlaybackAction reports which buttons were pressed this frame.
type PlaybackAction struct {
	Restart bool
}

// PlaybackPanel renders the raygui replay controls.
type PlaybackPanel struct {
	renderer *Renderer
	x, y     float32
	width    float32
}

// NewPlaybackPanel creates a new playback panel.
func NewPlaybackPanel(x, y, width float32) *PlaybackPanel {
	return &PlaybackPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *PlaybackPanel) SetPosition(x, y float32) {
	p.x = x
	p.y = y
}

// Draw renders the buttons and speed slider and applies their changes to state.
func (p *PlaybackPanel) Draw(state *PlaybackState) PlaybackAction {
	var action PlaybackAction
	r := p.renderer
	padding := float32(r.Theme.Padding)
	buttonW := (p.width - padding*4) / 3

	r.DrawPanel(int32(p.x), int32(p.y), int32(p.width), 84)

	x := p.x + padding
	y := p.y + padding
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: buttonW, Height: 24}, toggleText(state.Paused, "Resume", "Pause")) {
		state.Paused = !state.Paused
	}
	if gui.Button(rl.Rectangle{X: x + buttonW + padding, Y: y, Width: buttonW, Height: 24}, "Restart") {
		action.Restart = true
	}
	if gui.Button(rl.Rectangle{X: x + (buttonW+padding)*2, Y: y, Width: buttonW, Height: 24}, toggleText(state.Following, "Free cam", "Follow")) {
		state.Following = !state.Following
	}
	y += 34

	rl.DrawText("Speed", int32(x), int32(y+4), r.Theme.FontSize, r.Theme.LabelColor)
	speed := gui.SliderBar(
		rl.Rectangle{X: x + 50, Y: y, Width: p.width - padding*2 - 100, Height: 20},
		"", "",
		float32(state.Speed), 1, float32(state.MaxSpeed),
	)
	state.Speed = max(1, min(state.MaxSpeed, int(speed+0.5)))
	rl.DrawText(fmt.Sprintf("%dx", state.Speed), int32(p.x+p.width-padding-40), int32(y+4), r.Theme.FontSize, rl.White)

	return action
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
