package viewer

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/laserwalk/ui"
)

const controlsLegend = "[Space] pause  [R] restart  [F] follow  [<>] speed  [Arrows] pan  [+/-] zoom  [Home] reset  [H] overlays"

// Draw renders one frame. The caller owns BeginDrawing/EndDrawing.
func (v *Viewer) Draw() {
	rl.ClearBackground(rl.Black)

	ground := float32(v.replay.GroundY())
	spawnX := float32(v.cfg.Derived.SpawnX)
	v.background.Draw(v.camera, ground, spawnX)
	v.dummy.DrawSpawn(v.camera, spawnX, ground)

	v.laser.Draw(v.camera, v.replay.HazardX(), v.time)

	if v.hasSnap {
		snap := v.snap
		if !v.overlays.IsEnabled(ui.OverlayContacts) {
			for i := range snap.Segments {
				snap.Segments[i].GroundContact = false
			}
		}
		v.dummy.Draw(v.camera, snap, v.dead)
	}

	if v.overlays.IsEnabled(ui.OverlayEffects) {
		v.particles.Draw(v.camera)
	}
	if v.overlays.IsEnabled(ui.OverlayHazardGap) {
		v.drawHazardGap()
	}

	v.drawUI()
}

// drawHazardGap draws a bracket between the laser and the rearmost part.
func (v *Viewer) drawHazardGap() {
	gap := v.hazardGap()
	if math.IsInf(gap, 0) {
		return
	}
	x := v.replay.HazardX()
	y := float32(v.replay.GroundY()) + 20
	ax, ay := v.camera.WorldToScreen(float32(x), y)
	bx, _ := v.camera.WorldToScreen(float32(x+gap), y)

	color := rl.Color{R: 255, G: 200, B: 80, A: 220}
	if gap < 20 {
		color = rl.Red
	}
	rl.DrawLineEx(rl.Vector2{X: ax, Y: ay}, rl.Vector2{X: bx, Y: ay}, 1.5, color)
	rl.DrawText(fmt.Sprintf("%.0f", gap), int32((ax+bx)/2)-8, int32(ay)-14, 12, color)
}

func (v *Viewer) drawUI() {
	p := v.progress

	genomeID := 0
	if g := v.replay.Genome(); g != nil {
		genomeID = g.Id
	}
	distance := 0.0
	if v.hasSnap {
		distance = v.snap.TorsoX() - v.snap.Spawn.X
	}

	title := "Laserwalk"
	if !v.evolving {
		title += " (replay)"
	}
	v.hud.Draw(ui.HUDData{
		Title:        title,
		Generation:   p.Generation,
		GenomeID:     genomeID,
		Episode:      v.replay.Episodes() + 1,
		Frame:        v.replay.Frame(),
		MaxFrames:    v.replay.MaxFrames(),
		Distance:     distance,
		HazardGap:    v.hazardGap(),
		LastResult:   v.lastResultText(),
		Speed:        v.state.Speed,
		FPS:          int32(v.perf.Stats().FPS),
		Paused:       v.state.Paused,
		Following:    v.state.Following,
		Evolving:     v.evolving,
		ScreenWidth:  int32(v.screenWidth),
		ScreenHeight: int32(v.screenHeight),
	})

	// Left column: overlay list, or one of the network and sensor panels
	if v.controls.IsVisible() {
		v.controls.Draw(v.overlays)
	} else if v.overlays.IsEnabled(ui.OverlaySignals) {
		inputs, outputs := v.replay.Signals()
		v.signalsPanel.Draw(ui.Signals{Inputs: inputs, Outputs: outputs}, v.replay.Frame())
	}

	if v.overlays.IsEnabled(ui.OverlayNetwork) {
		w := int32(v.screenWidth * 0.45)
		h := int32(v.screenHeight * 0.4)
		x := (int32(v.screenWidth) - w) / 2
		v.panel.DrawPanel(x, 10, w, h)
		inputs, outputs := v.replay.Signals()
		ui.DrawNetworkDiagram(x, 10, w, h, v.replay.Genome(), inputs, outputs)
	}

	if v.overlays.IsEnabled(ui.OverlayStats) {
		v.statsPanel.Draw(ui.StatsData{
			Generation:      p.Generation,
			Stats:           p.Stats,
			ChampionFitness: p.ChampionFitness,
			BestHistory:     p.BestHistory,
			TopSpecies:      p.TopSpecies,
			Done:            p.Done,
		})
	}
	if v.overlays.IsEnabled(ui.OverlayPerf) && v.evolving {
		v.perfPanel.Draw(p.Perf)
	}

	if action := v.playback.Draw(&v.state); action.Restart {
		v.restart()
	}

	v.hud.DrawControls(int32(v.screenWidth), int32(v.screenHeight), controlsLegend)
}
