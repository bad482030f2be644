package components

// Position is a segment's center of mass in world coordinates (y up).
type Position struct {
	X, Y float64
}

// Velocity is a segment's linear velocity in world units per second.
type Velocity struct {
	X, Y float64
}

// Rotation represents a segment's orientation and angular velocity.
type Rotation struct {
	Angle  float64 // radians, counter-clockwise
	AngVel float64 // radians per second
}
