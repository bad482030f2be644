// Package components defines ECS components for physics segments.
package components

// Contact records ground contact for a segment after the last step.
type Contact struct {
	Ground bool
	Depth  float64 // deepest corner penetration below the ground line
}
