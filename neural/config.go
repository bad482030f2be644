package neural

import (
	"github.com/yaricom/goNEAT/v4/neat"

	"github.com/pthm-cable/laserwalk/config"
)

// BrainInputs is the number of sensor inputs to the brain network.
const BrainInputs = 11

// BrainOutputs is the number of action outputs, one per motor group.
const BrainOutputs = 4

// NEATOptions maps the evolution settings onto goNEAT options.
func NEATOptions(cfg config.EvolutionConfig) *neat.Options {
	return &neat.Options{
		// Weight mutation
		WeightMutPower:        cfg.WeightMutPower,
		MutateLinkWeightsProb: cfg.WeightMutProb,

		// Structural mutation rates
		MutateAddNodeProb:      cfg.AddNodeProb,
		MutateAddLinkProb:      cfg.AddLinkProb,
		MutateToggleEnableProb: cfg.ToggleEnableProb,

		// Mating
		MateMultipointProb: cfg.CrossoverRate,
		MutateOnlyProb:     1 - cfg.CrossoverRate,

		// Speciation
		CompatThreshold: cfg.CompatThreshold,
		DisjointCoeff:   cfg.DisjointCoeff,
		ExcessCoeff:     cfg.ExcessCoeff,
		MutdiffCoeff:    cfg.MutdiffCoeff,

		// Species management
		DropOffAge:      cfg.DropOffAge,
		SurvivalThresh:  cfg.SurvivalThreshold,
		AgeSignificance: 1.0,

		PopSize: cfg.PopulationSize,
	}
}

// DefaultNEATOptions returns options for the embedded default config.
func DefaultNEATOptions() *neat.Options {
	return NEATOptions(config.Default().Evolution)
}
