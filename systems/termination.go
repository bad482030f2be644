package systems

import (
	"fmt"

	"github.com/pthm-cable/laserwalk/body"
)

// DeathCause records why an episode ended.
type DeathCause int

const (
	// CauseNone means the body was alive when the frame budget ran out.
	CauseNone DeathCause = iota
	// CauseExploded means the body touched the hazard.
	CauseExploded
	// CauseHeadDown means the head reached the ground.
	CauseHeadDown
	// CauseOther covers instability and controller failures.
	CauseOther
)

func (c DeathCause) String() string {
	switch c {
	case CauseNone:
		return "none"
	case CauseExploded:
		return "exploded"
	case CauseHeadDown:
		return "head_down"
	case CauseOther:
		return "other"
	default:
		return fmt.Sprintf("cause(%d)", int(c))
	}
}

// DeathLimits holds the thresholds CheckDeath compares against.
type DeathLimits struct {
	GroundY       float64
	HeadTolerance float64 // Head counts as down this close to the ground
}

// CheckDeath reports whether the body is dead, in priority order:
// hazard contact, then head on the ground. Non-finite state is CauseOther.
func CheckDeath(b *body.Body, hazardX float64, limits DeathLimits) (DeathCause, error) {
	minX := 0.0
	for p := body.Part(0); p < body.NumParts; p++ {
		st, err := b.Segment(p)
		if err != nil {
			return CauseOther, fmt.Errorf("checking %s: %w", p, err)
		}
		if !st.Finite() {
			return CauseOther, nil
		}
		if p == 0 || st.Bounds.Min.X < minX {
			minX = st.Bounds.Min.X
		}
	}
	if minX <= hazardX {
		return CauseExploded, nil
	}

	head, err := b.Segment(body.Head)
	if err != nil {
		return CauseOther, fmt.Errorf("checking head: %w", err)
	}
	if head.GroundContact || head.Bounds.Min.Y <= limits.GroundY+limits.HeadTolerance {
		return CauseHeadDown, nil
	}
	return CauseNone, nil
}
