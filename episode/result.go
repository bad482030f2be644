package episode

import (
	"github.com/pthm-cable/laserwalk/systems"
)

// Result is the immutable outcome of one episode.
type Result struct {
	Fitness     float64
	Cause       systems.DeathCause
	Frames      int
	Distance    float64
	Stability   float64
	Improvement float64
	// Err explains a CauseOther termination.
	Err error
}

// Alive reports whether the body survived the whole frame budget.
func (r Result) Alive() bool {
	return r.Cause == systems.CauseNone
}
