package ui

import (
	"fmt"
	"sort"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/laserwalk/neural"
	"github.com/pthm-cable/laserwalk/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title        string
	Generation   int
	GenomeID     int
	Episode      int
	Frame        int
	MaxFrames    int
	Distance     float64 // torso x relative to spawn
	HazardGap    float64 // torso x minus laser x; +Inf when the laser is off
	LastResult   string
	Speed        int
	FPS          int32
	Paused       bool
	Following    bool
	Evolving     bool
	ScreenWidth  int32
	ScreenHeight int32
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	// Title
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	gen := "replay"
	if data.Evolving {
		gen = fmt.Sprintf("Gen: %d", data.Generation)
	}
	rl.DrawText(
		fmt.Sprintf("%s | Genome: %d | Episode: %d | Frame: %d/%d",
			gen, data.GenomeID, data.Episode, data.Frame, data.MaxFrames),
		10, 35, 16, rl.LightGray,
	)

	gap := "off"
	if data.HazardGap < 1e9 {
		gap = fmt.Sprintf("%.0f", data.HazardGap)
	}
	rl.DrawText(
		fmt.Sprintf("Distance: %.1f | Laser gap: %s | Speed: %dx | FPS: %d", data.Distance, gap, data.Speed, data.FPS),
		10, 55, 16, rl.LightGray,
	)

	// Status
	statusText := "Running"
	if data.Paused {
		statusText = "PAUSED"
	}
	if data.Following {
		statusText += " | following"
	}
	rl.DrawText(statusText, 10, 75, 16, rl.Yellow)

	if data.LastResult != "" {
		rl.DrawText("Last: "+data.LastResult, 10, 95, 14, rl.Gray)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders generation phase timings.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Generation Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg: %s | %.0f episodes/s",
		stats.AvgGeneration.Round(time.Millisecond), stats.EpisodesPerSecond), x, y, 14, rl.Yellow)
	y += 16

	phases := make([]string, 0, len(stats.PhaseAvg))
	for name := range stats.PhaseAvg {
		phases = append(phases, name)
	}
	sort.Slice(phases, func(i, j int) bool {
		return stats.PhaseAvg[phases[i]] > stats.PhaseAvg[phases[j]]
	})

	for _, name := range phases {
		pct := stats.PhasePct[name]

		color := rl.LightGray
		if pct > 80 {
			color = rl.Red
		} else if pct > 40 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", name, stats.PhaseAvg[name].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}

// StatsData holds data for the evolution stats panel.
type StatsData struct {
	Generation      int
	Stats           telemetry.GenerationStats
	ChampionFitness float64
	BestHistory     []float64
	TopSpecies      []neural.SpeciesInfo
	Done            bool
}

// StatsPanel renders evolution statistics.
type StatsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	height   int32
}

// NewStatsPanel creates a new stats panel.
func NewStatsPanel(x, y, width, height int32) *StatsPanel {
	return &StatsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		height:   height,
	}
}

// SetPosition updates the panel position.
func (n *StatsPanel) SetPosition(x, y int32) {
	n.x = x
	n.y = y
}

// Draw renders the stats panel.
func (n *StatsPanel) Draw(data StatsData) {
	r := n.renderer
	padding := r.Theme.Padding
	lineHeight := int32(16)

	// Draw panel background
	r.DrawPanel(n.x, n.y, n.width, n.height)

	y := n.y + padding

	// Header
	title := "Evolution"
	if data.Done {
		title += " (finished)"
	}
	rl.DrawText(title, n.x+padding, y, 16, rl.White)
	y += lineHeight + 4

	s := data.Stats
	rl.DrawText(fmt.Sprintf("Generation: %d | Species: %d", data.Generation, s.Species), n.x+padding, y, 12, rl.LightGray)
	y += lineHeight
	rl.DrawText(fmt.Sprintf("Best: %.1f | Mean: %.1f +/- %.1f", s.FitnessMax, s.FitnessMean, s.FitnessStd), n.x+padding, y, 12, rl.LightGray)
	y += lineHeight
	rl.DrawText(fmt.Sprintf("Champion: %.1f (genome %d)", data.ChampionFitness, s.ChampionID), n.x+padding, y, 12, rl.LightGray)
	y += lineHeight
	rl.DrawText(fmt.Sprintf("Survived: %d | Exploded: %d | Head down: %d | Failed: %d",
		s.Survived, s.Exploded, s.HeadDown, s.Failures), n.x+padding, y, 12, rl.LightGray)
	y += lineHeight + 4

	rl.DrawText("Best fitness per generation", n.x+padding, y, 12, rl.Gray)
	y += lineHeight
	y = r.DrawSparkline(n.x+padding, y, n.width-padding*2-40, 50, data.BestHistory, rl.Green)

	// Top species
	if len(data.TopSpecies) > 0 {
		rl.DrawText("Top Species:", n.x+padding, y, 14, rl.Yellow)
		y += lineHeight + 2

		for i, sp := range data.TopSpecies {
			if i >= 5 || y > n.y+n.height-lineHeight {
				break
			}

			swatchSize := int32(10)
			color := rl.Color{R: sp.Color.R, G: sp.Color.G, B: sp.Color.B, A: 255}
			rl.DrawRectangle(n.x+padding, y+2, swatchSize, swatchSize, color)

			text := fmt.Sprintf("#%d: %d members (age: %d, stale: %d, fit: %.0f)",
				sp.ID, sp.Size, sp.Age, sp.Staleness, sp.BestFit)
			rl.DrawText(text, n.x+padding+swatchSize+6, y, 12, rl.LightGray)
			y += lineHeight
		}
	}
}
