package neural

import (
	"fmt"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
)

// Controller maps one sensor vector to one action vector.
// A Controller is used by a single episode and need not be safe for concurrent use.
type Controller func(inputs []float64) ([]float64, error)

// NewController builds a fresh phenotype from the genome and wraps it.
// The genome is only read.
func NewController(genome *genetics.Genome, activationDepth int) (Controller, error) {
	brain, err := NewBrainController(genome, activationDepth)
	if err != nil {
		return nil, err
	}
	return brain.Think, nil
}

// ConstantController always returns the same outputs. Useful for baselines.
func ConstantController(outputs ...float64) Controller {
	return func(inputs []float64) ([]float64, error) {
		if len(inputs) != BrainInputs {
			return nil, fmt.Errorf("expected %d inputs, got %d", BrainInputs, len(inputs))
		}
		out := make([]float64, len(outputs))
		copy(out, outputs)
		return out, nil
	}
}
