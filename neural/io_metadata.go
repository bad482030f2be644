package neural

// IODescriptor describes a brain input or output for UI display.
type IODescriptor struct {
	ID          string  // Unique identifier
	Label       string  // Display name
	Description string  // Tooltip/extended description
	Min         float64 // Minimum value
	Max         float64 // Maximum value
	IsCentered  bool    // True for centered bar display (e.g., -1 to +1)
	Group       string  // Logical grouping (e.g., "joints", "posture")
}

// BrainInputDescriptors returns metadata for all brain inputs.
// Order matches the sensor vector.
func BrainInputDescriptors() []IODescriptor {
	return []IODescriptor{
		// Joint angles (indices 0-3)
		{ID: "r_shoulder", Label: "R Shoulder", Description: "Right shoulder angle / range", Min: -1, Max: 1, IsCentered: true, Group: "joints"},
		{ID: "l_shoulder", Label: "L Shoulder", Description: "Left shoulder angle / range", Min: -1, Max: 1, IsCentered: true, Group: "joints"},
		{ID: "r_hip", Label: "R Hip", Description: "Right hip angle / range", Min: -1, Max: 1, IsCentered: true, Group: "joints"},
		{ID: "l_hip", Label: "L Hip", Description: "Left hip angle / range", Min: -1, Max: 1, IsCentered: true, Group: "joints"},

		// Posture (indices 4-7)
		{ID: "head", Label: "Head", Description: "Head angle / neck range", Min: -1, Max: 1, IsCentered: true, Group: "posture"},
		{ID: "torso", Label: "Torso", Description: "Torso angle / pi", Min: -1, Max: 1, IsCentered: true, Group: "posture"},
		{ID: "arms", Label: "Arms", Description: "Mean upper arm angle / pi", Min: -1, Max: 1, IsCentered: true, Group: "posture"},
		{ID: "legs", Label: "Legs", Description: "Mean thigh angle / pi", Min: -1, Max: 1, IsCentered: true, Group: "posture"},

		// Contact (indices 8-9)
		{ID: "r_foot", Label: "R Foot", Description: "Right shin touching ground", Min: 0, Max: 1, Group: "contact"},
		{ID: "l_foot", Label: "L Foot", Description: "Left shin touching ground", Min: 0, Max: 1, Group: "contact"},

		// Motion (index 10)
		{ID: "spin", Label: "Spin", Description: "Torso angular velocity / max rate", Min: -1, Max: 1, IsCentered: true, Group: "motion"},
	}
}

// BrainOutputDescriptors returns metadata for all brain outputs.
// Order matches the action vector.
func BrainOutputDescriptors() []IODescriptor {
	return []IODescriptor{
		{ID: "arms", Label: "Arms", Description: "Shoulders, mirrored", Min: -1, Max: 1, IsCentered: true, Group: "motors"},
		{ID: "r_leg", Label: "R Leg", Description: "Right hip and knee", Min: -1, Max: 1, IsCentered: true, Group: "motors"},
		{ID: "l_leg", Label: "L Leg", Description: "Left hip and knee", Min: -1, Max: 1, IsCentered: true, Group: "motors"},
		{ID: "knees", Label: "Knees", Description: "Both knees", Min: -1, Max: 1, IsCentered: true, Group: "motors"},
	}
}

// InputByID returns the descriptor for a specific input by ID.
func InputByID(id string) (IODescriptor, bool) {
	for _, desc := range BrainInputDescriptors() {
		if desc.ID == id {
			return desc, true
		}
	}
	return IODescriptor{}, false
}

// OutputByID returns the descriptor for a specific output by ID.
func OutputByID(id string) (IODescriptor, bool) {
	for _, desc := range BrainOutputDescriptors() {
		if desc.ID == id {
			return desc, true
		}
	}
	return IODescriptor{}, false
}
