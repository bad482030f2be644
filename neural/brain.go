package neural

import (
	"fmt"
	"math/rand"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// BrainController wraps a goNEAT network for runtime evaluation.
type BrainController struct {
	Genome  *genetics.Genome
	network *network.Network
	depth   int
}

// NewBrainController creates a controller from a genome. fallbackDepth is
// used when the network cannot report its own activation depth.
// The genome is only read.
func NewBrainController(genome *genetics.Genome, fallbackDepth int) (*BrainController, error) {
	if genome == nil {
		return nil, fmt.Errorf("nil genome")
	}
	phenotype, err := genome.Genesis(genome.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to build network from genome: %w", err)
	}
	if fallbackDepth < 1 {
		fallbackDepth = 5
	}

	depth, err := phenotype.MaxActivationDepth()
	if err != nil || depth < 1 {
		depth = fallbackDepth
	}

	return &BrainController{
		Genome:  genome,
		network: phenotype,
		depth:   depth,
	}, nil
}

// Think processes one sensor vector and returns the action outputs.
// Inputs must have BrainInputs values; BrainOutputs values are returned.
func (b *BrainController) Think(inputs []float64) ([]float64, error) {
	if len(inputs) != BrainInputs {
		return nil, fmt.Errorf("expected %d inputs, got %d", BrainInputs, len(inputs))
	}

	if err := b.network.LoadSensors(inputs); err != nil {
		return nil, fmt.Errorf("failed to load sensors: %w", err)
	}

	for i := 0; i < b.depth; i++ {
		if _, err := b.network.Activate(); err != nil {
			return nil, fmt.Errorf("activation failed: %w", err)
		}
	}

	outputs := b.network.ReadOutputs()

	// Flush network state for next frame
	if _, err := b.network.Flush(); err != nil {
		return nil, fmt.Errorf("flush failed: %w", err)
	}

	return outputs, nil
}

// NodeCount returns the number of nodes in the network.
func (b *BrainController) NodeCount() int {
	return b.network.NodeCount()
}

// LinkCount returns the number of links (connections) in the network.
func (b *BrainController) LinkCount() int {
	return b.network.LinkCount()
}

// brainNodes builds the input and output layer. Inputs are IDs 1..BrainInputs,
// outputs follow. Outputs use tanh so actions land in [-1, 1].
func brainNodes() []*network.NNode {
	nodes := make([]*network.NNode, 0, BrainInputs+BrainOutputs)
	for i := 1; i <= BrainInputs; i++ {
		node := network.NewNNode(i, network.InputNeuron)
		node.ActivationType = neatmath.LinearActivation
		nodes = append(nodes, node)
	}
	for i := 1; i <= BrainOutputs; i++ {
		node := network.NewNNode(BrainInputs+i, network.OutputNeuron)
		node.ActivationType = neatmath.TanhActivation
		nodes = append(nodes, node)
	}
	return nodes
}

// initialInnovation numbers the input->output link slot (i, j) so every
// starting genome agrees on it.
func initialInnovation(i, j int) int64 {
	return int64(i*BrainOutputs+j) + 1
}

// CreateBrainGenome creates a new brain genome with the specified ID.
// Each input->output link exists with probability connectionProb, and every
// output gets at least one incoming link.
func CreateBrainGenome(rng *rand.Rand, id int, connectionProb float64) *genetics.Genome {
	nodes := brainNodes()
	genes := make([]*genetics.Gene, 0)

	for j := 0; j < BrainOutputs; j++ {
		connected := false
		for i := 0; i < BrainInputs; i++ {
			if rng.Float64() >= connectionProb {
				continue
			}
			genes = append(genes, genetics.NewGeneWithTrait(
				nil,
				rng.Float64()*4-2, // [-2, 2]
				nodes[i],
				nodes[BrainInputs+j],
				false,
				initialInnovation(i, j),
				0,
			))
			connected = true
		}
		if !connected {
			i := rng.Intn(BrainInputs)
			genes = append(genes, genetics.NewGeneWithTrait(
				nil, rng.Float64()*2-1,
				nodes[i], nodes[BrainInputs+j],
				false, initialInnovation(i, j), 0,
			))
		}
	}

	return genetics.NewGenome(id, nil, nodes, genes)
}

// CreateMinimalBrainGenome creates a fully connected input->output genome.
// Useful for testing and as a baseline.
func CreateMinimalBrainGenome(rng *rand.Rand, id int) *genetics.Genome {
	nodes := brainNodes()
	genes := make([]*genetics.Gene, 0, BrainInputs*BrainOutputs)

	for i := 0; i < BrainInputs; i++ {
		for j := 0; j < BrainOutputs; j++ {
			genes = append(genes, genetics.NewGeneWithTrait(
				nil,
				rng.Float64()*2-1,
				nodes[i],
				nodes[BrainInputs+j],
				false,
				initialInnovation(i, j),
				0,
			))
		}
	}

	return genetics.NewGenome(id, nil, nodes, genes)
}
