package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/laserwalk/neural"
)

// Signals is one frame of brain traffic: the sensor vector and the actions.
type Signals struct {
	Inputs  []float64
	Outputs []float64
}

// signalValue reads index i of the inputs or outputs. Short vectors read 0.
func signalValue(output bool, i int) func(Signals) float32 {
	return func(s Signals) float32 {
		values := s.Inputs
		if output {
			values = s.Outputs
		}
		if i >= len(values) {
			return 0
		}
		return float32(values[i])
	}
}

func rowFor(desc neural.IODescriptor, output bool, i int) SignalRow {
	row := SignalRow{
		ID:    desc.ID,
		Label: desc.Label,
		Style: BarFromMin,
		Range: SignalRange{Min: float32(desc.Min), Max: float32(desc.Max)},
		Value: signalValue(output, i),
	}
	if desc.IsCentered {
		row.Style = BarFromCenter
	}
	return row
}

// SignalGroups builds one group per input descriptor group, in descriptor
// order, followed by a motors group for the outputs.
func SignalGroups() []SignalGroup {
	var groups []SignalGroup
	index := make(map[string]int)

	for i, desc := range neural.BrainInputDescriptors() {
		gi, ok := index[desc.Group]
		if !ok {
			gi = len(groups)
			index[desc.Group] = gi
			groups = append(groups, SignalGroup{ID: desc.Group, Title: groupTitle(desc.Group)})
		}
		groups[gi].Rows = append(groups[gi].Rows, rowFor(desc, false, i))
	}

	motors := SignalGroup{ID: "motors", Title: "Motors"}
	for i, desc := range neural.BrainOutputDescriptors() {
		motors.Rows = append(motors.Rows, rowFor(desc, true, i))
	}
	return append(groups, motors)
}

func groupTitle(group string) string {
	switch group {
	case "joints":
		return "Joints"
	case "posture":
		return "Posture"
	case "contact":
		return "Contact"
	case "motion":
		return "Motion"
	default:
		return group
	}
}

// SignalsPanel renders the live sensor and motor values.
type SignalsPanel struct {
	renderer *Renderer
	groups   []SignalGroup
	x, y     int32
	width    int32
}

// NewSignalsPanel creates a new signals panel.
func NewSignalsPanel(x, y, width int32) *SignalsPanel {
	return &SignalsPanel{
		renderer: NewRenderer(),
		groups:   SignalGroups(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *SignalsPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Height returns the panel height for its groups.
func (p *SignalsPanel) Height() int32 {
	t := p.renderer.Theme
	h := t.Padding*2 + t.LineHeight + 4
	for _, g := range p.groups {
		h += t.LineHeight + int32(len(g.Rows))*(t.LineHeight+2) + 4
	}
	return h
}

// Draw renders the panel. frame is shown in the title.
func (p *SignalsPanel) Draw(s Signals, frame int) {
	r := p.renderer
	padding := r.Theme.Padding

	r.DrawPanel(p.x, p.y, p.width, p.Height())

	y := p.y + padding
	rl.DrawText(fmt.Sprintf("Sensors (frame %d)", frame), p.x+padding, y, 14, rl.White)
	y += r.Theme.LineHeight + 4

	for _, g := range p.groups {
		y = r.DrawSignalGroup(p.x+padding, y, g, s, p.width-padding*2)
	}
}
