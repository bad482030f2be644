package episode

import (
	"math"

	"github.com/pthm-cable/laserwalk/config"
)

// HazardSchedule returns the hazard's x position after frame steps of dt.
// The body dies once any part reaches x <= hazard.
type HazardSchedule func(frame int, dt, spawnX float64) float64

// LinearHazard starts at spawnX+startOffset and advances along +x at speed.
func LinearHazard(startOffset, speed float64) HazardSchedule {
	return func(frame int, dt, spawnX float64) float64 {
		return spawnX + startOffset + speed*dt*float64(frame)
	}
}

// NoHazard disables the hazard.
func NoHazard(int, float64, float64) float64 {
	return math.Inf(-1)
}

// ScheduleFrom builds the configured schedule.
func ScheduleFrom(cfg config.HazardConfig) HazardSchedule {
	if !cfg.Enabled {
		return NoHazard
	}
	return LinearHazard(cfg.StartOffset, cfg.Speed)
}
