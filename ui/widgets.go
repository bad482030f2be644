package ui

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Renderer handles all UI drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight
}

// DrawBar draws a bar filled from the left for values in [minVal, maxVal].
func (r *Renderer) DrawBar(x, y int32, label string, value, minVal, maxVal float32, width int32) int32 {
	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 50

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.BarBg)

	frac := float32(0)
	if maxVal > minVal {
		frac = max(0, min(1, (value-minVal)/(maxVal-minVal)))
	}
	fillWidth := int32(float32(barWidth) * frac)
	rl.DrawRectangle(barX, y+2, fillWidth, r.Theme.BarHeight, r.Theme.BarFill)

	rl.DrawText(fmt.Sprintf("%.2f", value), barX+barWidth+5, y, r.Theme.FontSize, r.Theme.ValueColor)

	return y + r.Theme.LineHeight + 2
}

// DrawCenteredBar draws a bar growing from the center for values in a
// symmetric range. The fill saturates at the range ends.
func (r *Renderer) DrawCenteredBar(x, y int32, label string, value, minVal, maxVal float32, width int32) int32 {
	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 50

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.BarBg)

	centerX := barX + barWidth/2
	rl.DrawLine(centerX, y+2, centerX, y+2+r.Theme.BarHeight, rl.Color{R: 80, G: 80, B: 80, A: 255})

	span := max(float32(math.Abs(float64(minVal))), float32(math.Abs(float64(maxVal))))
	frac := float32(0)
	if span > 0 {
		frac = min(1, float32(math.Abs(float64(value)))/span)
	}
	fillWidth := int32(float32(barWidth/2) * frac)

	fillX := centerX
	barColor := r.Theme.BarPositive
	if value < 0 {
		fillX = centerX - fillWidth
		barColor = r.Theme.BarNegative
	}
	rl.DrawRectangle(fillX, y+2, fillWidth, r.Theme.BarHeight, barColor)

	rl.DrawText(fmt.Sprintf("%+.2f", value), barX+barWidth+5, y, r.Theme.FontSize, r.Theme.ValueColor)

	return y + r.Theme.LineHeight + 2
}

// DrawSignalRow renders one sensor or motor row from the current signals.
func (r *Renderer) DrawSignalRow(x, y int32, row SignalRow, s Signals, width int32) int32 {
	value := float32(0)
	if row.Value != nil {
		value = row.Value(s)
	}
	rng := row.Range
	if rng == (SignalRange{}) {
		rng = UnitRange()
	}
	if row.Style == BarFromCenter {
		return r.DrawCenteredBar(x, y, row.Label, value, rng.Min, rng.Max, width)
	}
	return r.DrawBar(x, y, row.Label, value, rng.Min, rng.Max, width)
}

// DrawSignalGroup renders a group title and its rows.
func (r *Renderer) DrawSignalGroup(x, y int32, g SignalGroup, s Signals, width int32) int32 {
	if g.Title != "" {
		y = r.DrawSectionHeader(x, y, g.Title)
	}
	for _, row := range g.Rows {
		y = r.DrawSignalRow(x, y, row, s, width)
	}
	return y + 4
}

// DrawSparkline draws values as a line chart scaled to their own min and max.
// It returns the Y below the chart.
func (r *Renderer) DrawSparkline(x, y, width, height int32, values []float64, color rl.Color) int32 {
	rl.DrawRectangle(x, y, width, height, r.Theme.BarBg)
	if len(values) < 2 {
		return y + height + 4
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	step := float32(width) / float32(len(values)-1)
	point := func(i int) rl.Vector2 {
		t := float32((values[i] - lo) / span)
		return rl.Vector2{
			X: float32(x) + float32(i)*step,
			Y: float32(y+height) - t*float32(height-2) - 1,
		}
	}
	prev := point(0)
	for i := 1; i < len(values); i++ {
		p := point(i)
		rl.DrawLineV(prev, p, color)
		prev = p
	}

	rl.DrawText(fmt.Sprintf("%.1f", hi), x+width+4, y, 10, r.Theme.LabelColor)
	rl.DrawText(fmt.Sprintf("%.1f", lo), x+width+4, y+height-10, 10, r.Theme.LabelColor)
	return y + height + 4
}
