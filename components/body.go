package components

// Body holds the mass properties and box geometry of a rigid segment.
type Body struct {
	Mass       float64
	InvMass    float64
	Inertia    float64
	InvInertia float64

	HalfW, HalfH float64 // box half extents in the segment's local frame
	Friction     float64
	Elasticity   float64
	Group        uint32 // segments sharing a non-zero group never collide
}

// BoxInertia returns the moment of inertia of a solid box about its center.
func BoxInertia(mass, w, h float64) float64 {
	return mass * (w*w + h*h) / 12
}
