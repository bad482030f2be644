package ui

import (
	"math"
	"sort"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/yaricom/goNEAT/v4/neat/genetics"
	"github.com/yaricom/goNEAT/v4/neat/network"

	"github.com/pthm-cable/laserwalk/neural"
)

// NetworkColors for activation visualization.
var (
	ColorNodeInactive = rl.Color{R: 60, G: 60, B: 60, A: 255}
	ColorEdgePositive = rl.Color{R: 200, G: 80, B: 80, A: 100}
	ColorEdgeNegative = rl.Color{R: 80, G: 80, B: 200, A: 100}
	ColorEdgeDisabled = rl.Color{R: 90, G: 90, B: 90, A: 40}
	ColorLabelDim     = rl.Color{R: 120, G: 120, B: 120, A: 255}
)

// NetworkLayout maps node IDs to screen positions for one genome.
type NetworkLayout struct {
	Positions map[int]rl.Vector2
	Inputs    []int
	Hidden    []int
	Outputs   []int
}

// LayoutGenome places inputs on the left, outputs on the right and hidden
// nodes in columns between them, ordered by node ID.
func LayoutGenome(g *genetics.Genome, x, y, width, height int32) NetworkLayout {
	layout := NetworkLayout{Positions: make(map[int]rl.Vector2)}
	if g == nil {
		return layout
	}

	for _, n := range g.Nodes {
		switch n.NeuronType {
		case network.InputNeuron, network.BiasNeuron:
			layout.Inputs = append(layout.Inputs, n.Id)
		case network.OutputNeuron:
			layout.Outputs = append(layout.Outputs, n.Id)
		default:
			layout.Hidden = append(layout.Hidden, n.Id)
		}
	}
	sort.Ints(layout.Inputs)
	sort.Ints(layout.Hidden)
	sort.Ints(layout.Outputs)

	top := float32(y) + 10
	span := float32(height - 20)
	column := func(ids []int, cx float32) {
		if len(ids) == 0 {
			return
		}
		spacing := span / float32(len(ids))
		for i, id := range ids {
			layout.Positions[id] = rl.Vector2{X: cx, Y: top + spacing*(float32(i)+0.5)}
		}
	}

	// Up to 8 hidden nodes per column, at most 3 columns
	hiddenCols := min(3, max(1, (len(layout.Hidden)+7)/8))
	cols := float32(hiddenCols + 2)
	colWidth := float32(width) / cols

	column(layout.Inputs, float32(x)+colWidth/2)
	column(layout.Outputs, float32(x)+colWidth*(cols-0.5))
	perCol := (len(layout.Hidden) + hiddenCols - 1) / max(1, hiddenCols)
	for c := 0; c < hiddenCols && perCol > 0; c++ {
		lo := c * perCol
		hi := min(len(layout.Hidden), lo+perCol)
		if lo >= hi {
			break
		}
		column(layout.Hidden[lo:hi], float32(x)+colWidth*(float32(c)+1.5))
	}
	return layout
}

// DrawNetworkDiagram renders a genome's links and nodes. Input and output
// nodes are colored by the given activations; hidden nodes stay neutral.
func DrawNetworkDiagram(x, y, width, height int32, g *genetics.Genome, inputs, outputs []float64) {
	if g == nil {
		rl.DrawText("No network data", x+10, y+10, 14, ColorLabelDim)
		return
	}

	// Leave room for labels on both sides
	const labelPad = 70
	layout := LayoutGenome(g, x+labelPad, y, width-labelPad*2, height)
	nodeRadius := float32(6)

	for _, gene := range g.Genes {
		if gene.Link == nil || gene.Link.InNode == nil || gene.Link.OutNode == nil {
			continue
		}
		from, ok1 := layout.Positions[gene.Link.InNode.Id]
		to, ok2 := layout.Positions[gene.Link.OutNode.Id]
		if !ok1 || !ok2 {
			continue
		}
		if !gene.IsEnabled {
			rl.DrawLineEx(from, to, 0.5, ColorEdgeDisabled)
			continue
		}
		drawEdge(from, to, gene.Link.ConnectionWeight)
	}

	inLabels := neural.BrainInputDescriptors()
	for i, id := range layout.Inputs {
		pos := layout.Positions[id]
		drawNode(pos, nodeRadius, valueAt(inputs, i))

		if i < len(inLabels) {
			label := inLabels[i].Label
			labelWidth := rl.MeasureText(label, 10)
			rl.DrawText(label, int32(pos.X-nodeRadius)-labelWidth-4, int32(pos.Y)-5, 10, ColorLabelDim)
		}
	}

	for _, id := range layout.Hidden {
		pos := layout.Positions[id]
		rl.DrawCircleV(pos, nodeRadius-1, ColorNodeInactive)
		rl.DrawCircleLinesV(pos, nodeRadius-1, rl.Color{R: 100, G: 100, B: 100, A: 255})
	}

	outLabels := neural.BrainOutputDescriptors()
	for i, id := range layout.Outputs {
		pos := layout.Positions[id]
		drawNode(pos, nodeRadius+2, valueAt(outputs, i))

		if i < len(outLabels) {
			rl.DrawText(outLabels[i].Label, int32(pos.X+nodeRadius+6), int32(pos.Y)-5, 10, ColorLabelDim)
		}
	}
}

func valueAt(values []float64, i int) float32 {
	if i < len(values) {
		return float32(values[i])
	}
	return 0
}

// drawNode renders a single neuron node.
func drawNode(pos rl.Vector2, radius, activation float32) {
	color := activationColor(activation)
	rl.DrawCircleV(pos, radius, color)
	rl.DrawCircleLinesV(pos, radius, rl.Color{R: 100, G: 100, B: 100, A: 255})
}

// drawEdge renders a connection between nodes.
func drawEdge(from, to rl.Vector2, weight float64) {
	w := float32(math.Abs(weight))
	thickness := max(0.5, min(3, w*1.5))

	color := ColorEdgePositive
	if weight < 0 {
		color = ColorEdgeNegative
	}
	// Adjust alpha based on weight magnitude
	color.A = uint8(min(150, 40+int(w*40)))

	rl.DrawLineEx(from, to, thickness, color)
}

// activationColor returns a color based on activation value.
// Negative = blue, Zero = gray, Positive = red.
func activationColor(activation float32) rl.Color {
	if activation > 0 {
		t := min(activation, 1)
		return rl.Color{
			R: uint8(60 + t*195),
			G: uint8(60 - t*30),
			B: uint8(60 - t*30),
			A: 255,
		}
	}
	t := min(-activation, 1)
	return rl.Color{
		R: uint8(60 - t*30),
		G: uint8(60 - t*30),
		B: uint8(60 + t*195),
		A: 255,
	}
}
