// Package ui draws the viewer's panels. The sensor panel is built from the
// brain's IO descriptors, so adding a sensor in package neural adds its row
// here without touching the drawing code.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// BarStyle selects how a signal row fills its bar.
type BarStyle int

const (
	BarFromMin    BarStyle = iota // fills left to right across Range
	BarFromCenter                 // grows either way from zero
)

// SignalRange is the nominal span of a signal. Values outside it saturate.
type SignalRange struct {
	Min float32
	Max float32
}

// UnitRange is the [0, 1] span used when a row declares none.
func UnitRange() SignalRange {
	return SignalRange{Min: 0, Max: 1}
}

// SignalRow is one line of the sensor panel.
type SignalRow struct {
	ID    string // descriptor ID, e.g. "r_foot"
	Label string
	Style BarStyle
	Range SignalRange
	Value func(Signals) float32
}

// SignalGroup is a titled block of rows, one per descriptor group.
type SignalGroup struct {
	ID    string
	Title string
	Rows  []SignalRow
}

// Theme holds UI styling constants.
type Theme struct {
	PanelBg       rl.Color
	PanelBorder   rl.Color
	SectionHeader rl.Color
	LabelColor    rl.Color
	ValueColor    rl.Color
	BarBg         rl.Color
	BarFill       rl.Color
	BarNegative   rl.Color
	BarPositive   rl.Color

	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:       rl.Color{R: 18, G: 20, B: 28, A: 235},
		PanelBorder:   rl.Color{R: 70, G: 60, B: 90, A: 255},
		SectionHeader: rl.Color{R: 255, G: 120, B: 90, A: 255},
		LabelColor:    rl.LightGray,
		ValueColor:    rl.LightGray,
		BarBg:         rl.Color{R: 40, G: 40, B: 46, A: 255},
		BarFill:       rl.Color{R: 110, G: 160, B: 220, A: 255},
		BarNegative:   rl.Color{R: 220, G: 90, B: 80, A: 255},
		BarPositive:   rl.Color{R: 90, G: 200, B: 120, A: 255},

		Padding:        10,
		LineHeight:     16,
		LabelWidth:     70,
		BarHeight:      12,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}
