package viewer

import rl "github.com/gen2brain/raylib-go/raylib"

// handleInput processes keyboard input.
func (v *Viewer) handleInput() {
	// Window resize propagation
	v.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		v.state.Paused = !v.state.Paused
	}
	if rl.IsKeyPressed(rl.KeyR) {
		v.restart()
	}
	if rl.IsKeyPressed(rl.KeyF) {
		v.state.Following = !v.state.Following
	}
	if rl.IsKeyPressed(rl.KeyH) {
		v.controls.Toggle()
	}

	// Episode frames per update with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && v.state.Speed > 1 {
		v.state.Speed--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && v.state.Speed < v.state.MaxSpeed {
		v.state.Speed++
	}

	if key := rl.GetKeyPressed(); key != 0 {
		if id, on, ok := v.overlays.HandleKeyPress(key); ok {
			v.logger.Debug("overlay_toggled", "overlay", string(id), "enabled", on)
		}
	}

	// Camera controls
	v.handleCameraInput()
}

// restart drops the current episode and starts the current genome over.
func (v *Viewer) restart() {
	v.hold = 0
	v.dead = false
	v.particles.Clear()
	if err := v.replay.Restart(); err != nil {
		v.logger.Error("replay_restart_failed", "error", err)
		v.lastErr = err
		return
	}
	v.lastErr = nil
	v.refreshSnapshot()
}

// handleResize checks for window resize and propagates new dimensions.
func (v *Viewer) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == v.screenWidth && h == v.screenHeight {
		return
	}
	v.screenWidth = w
	v.screenHeight = h

	v.camera.Resize(w, h)
	v.background.Resize(int32(w), int32(h))
	v.laser.Resize(int32(h))
	v.statsPanel.SetPosition(int32(w)-370, 10)
	v.perfPanel.SetPosition(int32(w)-370, 320)
	v.playback.SetPosition(10, h-120)
}

// handleCameraInput processes camera pan/zoom controls.
func (v *Viewer) handleCameraInput() {
	// Screen pixels per frame; Pan scales by zoom
	const panSpeed = float32(8.0)

	// Manual panning stops following
	if rl.IsKeyDown(rl.KeyRight) {
		v.camera.Pan(panSpeed, 0)
		v.state.Following = false
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		v.camera.Pan(-panSpeed, 0)
		v.state.Following = false
	}
	if rl.IsKeyDown(rl.KeyDown) {
		v.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		v.camera.Pan(0, -panSpeed)
	}

	// Zoom controls: mouse wheel or +/- keys
	if wheelMove := rl.GetMouseWheelMove(); wheelMove != 0 {
		v.camera.ZoomBy(1 + wheelMove*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		v.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		v.camera.ZoomBy(0.8)
	}

	// Home key to reset camera
	if rl.IsKeyPressed(rl.KeyHome) {
		v.camera.Reset()
	}
}
