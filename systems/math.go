package systems

import "math"

// clamp limits v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampUnit clamps to [-1, 1].
func clampUnit(v float64) float64 {
	return clamp(v, -1, 1)
}

// clamp01 clamps to [0, 1].
func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

// normalizeAngle wraps an angle to [-Pi, Pi].
func normalizeAngle(angle float64) float64 {
	angle = math.Mod(angle, 2*math.Pi)
	if angle > math.Pi {
		angle -= 2 * math.Pi
	} else if angle < -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}

// meanAngle is the circular mean of two angles, in [-Pi, Pi].
func meanAngle(a, b float64) float64 {
	return math.Atan2(math.Sin(a)+math.Sin(b), math.Cos(a)+math.Cos(b))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
