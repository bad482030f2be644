package neural

import (
	"errors"
	"math"
	"testing"

	"github.com/yaricom/goNEAT/v4/neat/network"
)

func TestGenomeIDGenerator(t *testing.T) {
	gen := NewGenomeIDGenerator()

	id1, id2, id3 := gen.NextID(), gen.NextID(), gen.NextID()
	if id1 >= id2 || id2 >= id3 {
		t.Errorf("IDs should be strictly increasing: %d, %d, %d", id1, id2, id3)
	}

	innov1 := gen.NextInnovation()
	innov2 := gen.NextInnovation()
	if innov1 >= innov2 {
		t.Errorf("innovations should be strictly increasing: %d, %d", innov1, innov2)
	}
	if innov1 <= initialInnovation(BrainInputs-1, BrainOutputs-1) {
		t.Errorf("innovation %d collides with initial link numbering", innov1)
	}
}

func TestGenomeIDGeneratorObserve(t *testing.T) {
	gen := NewGenomeIDGenerator()
	genome := CreateMinimalBrainGenome(testRNG(), 40)
	genome.Genes[0].InnovationNum = 5000

	gen.Observe(genome)
	if id := gen.NextID(); id != 41 {
		t.Errorf("NextID = %d, want 41", id)
	}
	if innov := gen.NextInnovation(); innov != 5001 {
		t.Errorf("NextInnovation = %d, want 5001", innov)
	}
}

func TestCrossoverGenomes(t *testing.T) {
	rng := testRNG()
	parent1 := CreateBrainGenome(rng, 1, 0.5)
	parent2 := CreateBrainGenome(rng, 2, 0.5)

	child, err := CrossoverGenomes(rng, parent1, parent2, 1.0, 1.0, 3)
	if err != nil {
		t.Fatalf("CrossoverGenomes failed: %v", err)
	}
	if child.Id != 3 {
		t.Errorf("expected child ID 3, got %d", child.Id)
	}
	if len(child.Nodes) != BrainInputs+BrainOutputs {
		t.Errorf("child has %d nodes", len(child.Nodes))
	}
	if _, err := child.Genesis(child.Id); err != nil {
		t.Errorf("child cannot build network: %v", err)
	}

	t.Logf("Created child genome with %d nodes and %d genes", len(child.Nodes), len(child.Genes))
}

func TestCrossoverFitterParentGenes(t *testing.T) {
	rng := testRNG()
	fit := CreateMinimalBrainGenome(rng, 1)
	weak := CreateBrainGenome(rng, 2, 0.1)

	// Fitter parent is fully connected, so the child keeps every innovation.
	for _, order := range []struct {
		name   string
		f1, f2 float64
	}{{"fit first", 2, 1}, {"fit second", 1, 2}} {
		t.Run(order.name, func(t *testing.T) {
			p1, p2 := fit, weak
			if order.f1 < order.f2 {
				p1, p2 = weak, fit
			}
			child, err := CrossoverGenomes(rng, p1, p2, order.f1, order.f2, 3)
			if err != nil {
				t.Fatal(err)
			}
			if len(child.Genes) != len(fit.Genes) {
				t.Errorf("child has %d genes, want %d", len(child.Genes), len(fit.Genes))
			}
		})
	}
}

func TestCrossoverNilParent(t *testing.T) {
	if _, err := CrossoverGenomes(testRNG(), nil, nil, 0, 0, 1); !errors.Is(err, ErrNilGenome) {
		t.Errorf("err = %v, want ErrNilGenome", err)
	}
}

func TestMutateGenome(t *testing.T) {
	rng := testRNG()
	genome := CreateBrainGenome(rng, 1, 0.5)
	opts := DefaultNEATOptions()
	idGen := NewGenomeIDGenerator()

	// Force mutations to happen
	opts.MutateLinkWeightsProb = 1.0
	opts.MutateAddNodeProb = 1.0
	opts.MutateAddLinkProb = 1.0

	originalGenes := len(genome.Genes)
	mutated, err := MutateGenome(rng, genome, opts, idGen)
	if err != nil {
		t.Fatalf("MutateGenome failed: %v", err)
	}
	if !mutated {
		t.Error("expected mutation to occur")
	}
	if len(genome.Genes) < originalGenes+2 {
		t.Errorf("add node should add two genes: %d -> %d", originalGenes, len(genome.Genes))
	}

	hidden := 0
	for _, n := range genome.Nodes {
		if n.NeuronType == network.HiddenNeuron {
			hidden++
		}
	}
	if hidden != 1 {
		t.Errorf("expected 1 hidden node, got %d", hidden)
	}

	for _, g := range genome.Genes {
		if math.Abs(g.Link.ConnectionWeight) > maxConnectionWeight {
			t.Errorf("weight %f exceeds limit", g.Link.ConnectionWeight)
		}
	}

	if _, err := genome.Genesis(genome.Id); err != nil {
		t.Errorf("mutated genome cannot build network: %v", err)
	}
}

func TestMutateKeepsOutputsConnected(t *testing.T) {
	rng := testRNG()
	opts := DefaultNEATOptions()
	opts.MutateToggleEnableProb = 1.0
	idGen := NewGenomeIDGenerator()

	genome := CreateBrainGenome(rng, 1, 0)
	for i := 0; i < 50; i++ {
		if _, err := MutateGenome(rng, genome, opts, idGen); err != nil {
			t.Fatal(err)
		}
	}
	for j := 1; j <= BrainOutputs; j++ {
		if !hasEnabledInput(genome, BrainInputs+j) {
			t.Errorf("output %d lost all inputs", j)
		}
	}
}

func TestCloneGenome(t *testing.T) {
	original := CreateBrainGenome(testRNG(), 1, 0.5)

	clone, err := CloneGenome(original, 2)
	if err != nil {
		t.Fatalf("CloneGenome failed: %v", err)
	}
	if clone.Id != 2 {
		t.Errorf("expected clone ID 2, got %d", clone.Id)
	}
	if len(clone.Nodes) != len(original.Nodes) {
		t.Errorf("node count mismatch: original %d, clone %d", len(original.Nodes), len(clone.Nodes))
	}
	if len(clone.Genes) != len(original.Genes) {
		t.Fatalf("gene count mismatch: original %d, clone %d", len(original.Genes), len(clone.Genes))
	}

	// Mutating the clone leaves the original alone
	before := original.Genes[0].Link.ConnectionWeight
	clone.Genes[0].Link.ConnectionWeight = before + 1
	if original.Genes[0].Link.ConnectionWeight != before {
		t.Error("clone shares genes with original")
	}
}

func TestGenomeCompatibility(t *testing.T) {
	rng := testRNG()
	opts := DefaultNEATOptions()

	genome := CreateBrainGenome(rng, 1, 0.5)
	if dist := GenomeCompatibility(genome, genome, opts); dist != 0 {
		t.Errorf("same genome should have 0 distance, got %f", dist)
	}

	genome2 := CreateBrainGenome(rng, 2, 0.5)
	d12 := GenomeCompatibility(genome, genome2, opts)
	d21 := GenomeCompatibility(genome2, genome, opts)
	if d12 < 0 {
		t.Error("distance should not be negative")
	}
	if math.Abs(d12-d21) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", d12, d21)
	}
	if GenomeCompatibility(nil, genome, opts) != math.MaxFloat64 {
		t.Error("nil genome should be infinitely far")
	}

	t.Logf("Distance between different genomes: %f", d12)
}

func BenchmarkCrossoverGenomes(b *testing.B) {
	rng := testRNG()
	parent1 := CreateBrainGenome(rng, 1, 0.5)
	parent2 := CreateBrainGenome(rng, 2, 0.5)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = CrossoverGenomes(rng, parent1, parent2, 1.0, 1.0, i+3)
	}
}

func BenchmarkMutateGenome(b *testing.B) {
	rng := testRNG()
	opts := DefaultNEATOptions()
	idGen := NewGenomeIDGenerator()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		genome := CreateBrainGenome(rng, i, 0.5)
		_, _ = MutateGenome(rng, genome, opts, idGen)
	}
}
