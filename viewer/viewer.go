// Package viewer is the raylib window of visual and replay modes. It polls a
// progress source for the champion and plays it through a game.Replay.
package viewer

import (
	"fmt"
	"log/slog"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/laserwalk/body"
	"github.com/pthm-cable/laserwalk/camera"
	"github.com/pthm-cable/laserwalk/config"
	"github.com/pthm-cable/laserwalk/game"
	"github.com/pthm-cable/laserwalk/renderer"
	"github.com/pthm-cable/laserwalk/systems"
	"github.com/pthm-cable/laserwalk/telemetry"
	"github.com/pthm-cable/laserwalk/ui"
)

const (
	maxSpeed   = 10 // episode frames per rendered frame
	holdFrames = 45 // rendered frames the final pose stays up
)

// Viewer owns the window state. It must be used from the goroutine that
// opened the raylib window.
type Viewer struct {
	cfg    *config.Config
	logger *slog.Logger

	source   game.ProgressSource
	replay   *game.Replay
	evolving bool

	progress game.Progress
	champion *genetics.Genome

	camera     *camera.Camera
	background *renderer.BackgroundRenderer
	laser      *renderer.LaserRenderer
	dummy      *renderer.DummyRenderer
	particles  *renderer.ParticleRenderer

	overlays     *ui.OverlayRegistry
	panel        *ui.Renderer
	hud          *ui.HUD
	statsPanel   *ui.StatsPanel
	perfPanel    *ui.PerfPanel
	signalsPanel *ui.SignalsPanel
	controls     *ui.ControlsPanel
	playback     *ui.PlaybackPanel
	perf         *telemetry.PerfCollector

	screenWidth, screenHeight float32

	state ui.PlaybackState
	hold  int
	time  float32

	snap    body.Snapshot
	hasSnap bool
	dead    bool
	lastErr error
}

// New creates a viewer. source is polled every frame; evolving marks a live
// run rather than a fixed champion.
func New(cfg *config.Config, source game.ProgressSource, replay *game.Replay, evolving bool, logger *slog.Logger) *Viewer {
	if logger == nil {
		logger = slog.Default()
	}
	w, h := cfg.Derived.ScreenW32, cfg.Derived.ScreenH32

	v := &Viewer{
		cfg:          cfg,
		logger:       logger,
		source:       source,
		replay:       replay,
		evolving:     evolving,
		camera:       camera.New(w, h, float32(cfg.Derived.SpawnX), float32(cfg.Physics.GroundY)+h*0.3),
		background:   renderer.NewBackgroundRenderer(int32(w), int32(h)),
		laser:        renderer.NewLaserRenderer(int32(h)),
		dummy:        renderer.NewDummyRenderer(),
		particles:    renderer.NewParticleRenderer(600, cfg.Evolution.Seed),
		overlays:     ui.NewOverlayRegistry(),
		panel:        ui.NewRenderer(),
		hud:          ui.NewHUD(),
		statsPanel:   ui.NewStatsPanel(int32(w)-370, 10, 360, 300),
		perfPanel:    ui.NewPerfPanel(int32(w)-370, 320),
		signalsPanel: ui.NewSignalsPanel(10, 120, 260),
		controls:     ui.NewControlsPanel(10, 120, 220),
		playback:     ui.NewPlaybackPanel(10, h-120, 300),
		perf:         telemetry.NewPerfCollector(60),
		screenWidth:  w,
		screenHeight: h,
		state: ui.PlaybackState{
			Following: true,
			Speed:     1,
			MaxSpeed:  maxSpeed,
		},
	}
	v.camera.Smoothing = 0.08
	v.overlays.SetEnabled(ui.OverlayStats, true)
	v.overlays.SetEnabled(ui.OverlayEffects, true)
	v.overlays.SetEnabled(ui.OverlayContacts, true)
	return v
}

// Update handles input and advances the replay by the current speed.
func (v *Viewer) Update() {
	v.perf.RecordFrame()
	v.handleInput()

	v.progress = v.source.Progress()
	v.syncChampion()

	dt := rl.GetFrameTime()
	v.time += dt
	if !v.state.Paused {
		v.advance()
	}
	v.particles.Update(dt)

	if v.hasSnap && v.state.Following {
		v.camera.Follow(float32(v.snap.TorsoX()))
	}
}

// syncChampion hands a new champion to the replay. The replay switches over
// at its next restart.
func (v *Viewer) syncChampion() {
	if v.progress.Champion == nil || v.progress.Champion == v.champion {
		return
	}
	v.champion = v.progress.Champion
	v.replay.SetGenome(v.champion)
	v.logger.Debug("viewer_champion",
		"generation", v.progress.Generation,
		"genome", v.champion.Id,
		"fitness", v.progress.ChampionFitness,
	)
}

// advance steps the episode Speed times. A finished episode keeps its final
// pose for holdFrames before the next one starts.
func (v *Viewer) advance() {
	if v.replay.Terminated() && v.hold > 0 {
		v.hold--
		return
	}

	for i := 0; i < v.state.Speed; i++ {
		wasTerminated := v.replay.Terminated()
		if err := v.replay.Step(); err != nil {
			if v.lastErr == nil || v.lastErr.Error() != err.Error() {
				v.logger.Error("replay_failed", "error", err)
			}
			v.lastErr = err
			return
		}
		if wasTerminated {
			v.particles.Clear()
			v.dead = false
		}
		v.refreshSnapshot()
		v.emitEffects()

		if v.replay.Terminated() {
			v.onEpisodeEnd()
			return
		}
	}
}

func (v *Viewer) refreshSnapshot() {
	snap, ok := v.replay.Snapshot()
	if !ok {
		return
	}
	v.snap, v.hasSnap = snap, true
}

func (v *Viewer) onEpisodeEnd() {
	v.hold = holdFrames
	res, ok := v.replay.Last()
	if !ok {
		return
	}
	v.dead = !res.Alive()

	if res.Cause == systems.CauseHeadDown && v.hasSnap && v.overlays.IsEnabled(ui.OverlayEffects) {
		head := v.snap.Segments[body.Head].Position
		v.particles.Emit(renderer.ParticleDust, float32(head.X), float32(v.replay.GroundY()), 30)
	}
	v.logger.Debug("replay_episode",
		"episode", v.replay.Episodes(),
		"fitness", res.Fitness,
		"cause", res.Cause.String(),
		"frames", res.Frames,
		"distance", res.Distance,
	)
}

// emitEffects sparks where the laser meets the ground and burns any part it
// touches.
func (v *Viewer) emitEffects() {
	if !v.overlays.IsEnabled(ui.OverlayEffects) {
		return
	}
	x := v.replay.HazardX()
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return
	}
	ground := float32(v.replay.GroundY())
	v.particles.Emit(renderer.ParticleSpark, float32(x), ground, 1)

	if !v.hasSnap {
		return
	}
	for _, seg := range v.snap.Segments {
		for _, c := range seg.Corners() {
			if c.X <= x {
				v.particles.Emit(renderer.ParticleBurn, float32(x), float32(c.Y), 2)
				break
			}
		}
	}
}

// hazardGap is the distance from the laser to the rearmost corner.
func (v *Viewer) hazardGap() float64 {
	x := v.replay.HazardX()
	if !v.hasSnap || math.IsInf(x, 0) || math.IsNaN(x) {
		return math.Inf(1)
	}
	rear := math.Inf(1)
	for _, seg := range v.snap.Segments {
		for _, c := range seg.Corners() {
			rear = math.Min(rear, c.X)
		}
	}
	return rear - x
}

func (v *Viewer) lastResultText() string {
	if v.lastErr != nil {
		return "error: " + v.lastErr.Error()
	}
	res, ok := v.replay.Last()
	if !ok {
		return ""
	}
	return fmt.Sprintf("fitness %.1f, %s after %d frames, distance %.1f",
		res.Fitness, res.Cause, res.Frames, res.Distance)
}

// Unload releases the replay's world.
func (v *Viewer) Unload() {
	v.replay.Close()
}
