package neural

import (
	"testing"
)

func TestNewSpeciesManager(t *testing.T) {
	sm := NewSpeciesManager(DefaultNEATOptions())

	if len(sm.Species) != 0 {
		t.Errorf("expected 0 species, got %d", len(sm.Species))
	}
	if sm.GetGeneration() != 0 {
		t.Errorf("expected generation 0, got %d", sm.GetGeneration())
	}
	if len(sm.speciesColors) < 32 {
		t.Errorf("expected at least 32 pre-generated colors, got %d", len(sm.speciesColors))
	}
}

func TestSpeciesManagerAssignSpecies(t *testing.T) {
	sm := NewSpeciesManager(DefaultNEATOptions())
	genome1 := CreateBrainGenome(testRNG(), 1, 0.3)

	speciesID := sm.AssignSpecies(genome1)
	if speciesID == 0 {
		t.Error("expected non-zero species ID")
	}
	if len(sm.Species) != 1 {
		t.Errorf("expected 1 species, got %d", len(sm.Species))
	}

	// Same genome should get same species
	if again := sm.AssignSpecies(genome1); again != speciesID {
		t.Errorf("same genome should get same species: %d != %d", again, speciesID)
	}

	if sm.AssignSpecies(nil) != 0 {
		t.Error("nil genome should not be assigned")
	}
}

func TestSpeciesManagerSeparatesDistantGenomes(t *testing.T) {
	opts := DefaultNEATOptions()
	opts.CompatThreshold = 0.01
	sm := NewSpeciesManager(opts)

	rng := testRNG()
	a := CreateMinimalBrainGenome(rng, 1)
	b := CreateMinimalBrainGenome(rng, 2)
	if sm.AssignSpecies(a) == sm.AssignSpecies(b) {
		t.Error("genomes with different weights should split at a tiny threshold")
	}
}

func TestSpeciesManagerMembership(t *testing.T) {
	sm := NewSpeciesManager(DefaultNEATOptions())
	speciesID := sm.AssignSpecies(CreateBrainGenome(testRNG(), 1, 0.3))

	sm.AddMember(speciesID, 100)
	sm.AddMember(speciesID, 101)
	sm.AddMember(speciesID, 102)

	sp := sm.GetSpecies(speciesID)
	if sp == nil {
		t.Fatal("species not found")
	}
	if len(sp.Members) != 3 {
		t.Errorf("expected 3 members, got %d", len(sp.Members))
	}

	sm.ClearMembers()
	if len(sp.Members) != 0 {
		t.Errorf("expected 0 members after clear, got %d", len(sp.Members))
	}
	if sp.Representative == nil {
		t.Error("representative dropped by ClearMembers")
	}
}

func TestSpeciesColor(t *testing.T) {
	sm := NewSpeciesManager(DefaultNEATOptions())
	speciesID := sm.AssignSpecies(CreateBrainGenome(testRNG(), 1, 0.3))

	color := sm.GetSpeciesColor(speciesID)
	if color.R == 0 && color.G == 0 && color.B == 0 {
		t.Error("species color should not be black")
	}

	grayColor := sm.GetSpeciesColor(9999)
	if grayColor.R != 128 || grayColor.G != 128 || grayColor.B != 128 {
		t.Errorf("non-existent species should return gray, got (%d,%d,%d)",
			grayColor.R, grayColor.G, grayColor.B)
	}
}

func TestSpeciesColorsDiversity(t *testing.T) {
	colors := generateDistinctColors(10)

	seen := make(map[uint32]bool)
	for _, c := range colors {
		key := uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
		if seen[key] {
			t.Error("duplicate color found in generated colors")
		}
		seen[key] = true
	}
}

func TestSpeciesFitness(t *testing.T) {
	sm := NewSpeciesManager(DefaultNEATOptions())
	speciesID := sm.AssignSpecies(CreateBrainGenome(testRNG(), 1, 0.3))
	sm.AddMember(speciesID, 1)
	sm.AddMember(speciesID, 2)

	sm.AccumulateFitness(speciesID, 10.0)
	sm.AccumulateFitness(speciesID, 20.0)

	sp := sm.GetSpecies(speciesID)
	if sp.BestFitness != 20.0 {
		t.Errorf("expected best fitness 20, got %f", sp.BestFitness)
	}
	if sp.TotalFitness != 30.0 {
		t.Errorf("expected total fitness 30, got %f", sp.TotalFitness)
	}

	sm.EndGeneration()
	if sp.AvgFitness != 15.0 {
		t.Errorf("expected avg fitness 15, got %f", sp.AvgFitness)
	}
	if sp.Staleness != 0 {
		t.Errorf("improved species should not be stale, got %d", sp.Staleness)
	}
}

func TestEndGeneration(t *testing.T) {
	sm := NewSpeciesManager(DefaultNEATOptions())
	speciesID := sm.AssignSpecies(CreateBrainGenome(testRNG(), 1, 0.3))
	sm.AddMember(speciesID, 1)
	sm.AccumulateFitness(speciesID, 100.0)

	initialGen := sm.GetGeneration()
	sm.EndGeneration()

	if sm.GetGeneration() != initialGen+1 {
		t.Errorf("generation should increment")
	}

	sp := sm.GetSpecies(speciesID)
	if sp.Age != 1 {
		t.Errorf("species age should be 1, got %d", sp.Age)
	}
	if sp.TotalFitness != 0 {
		t.Errorf("total fitness should be reset to 0, got %f", sp.TotalFitness)
	}
}

func TestRemoveStaleSpecies(t *testing.T) {
	opts := DefaultNEATOptions()
	opts.DropOffAge = 3
	opts.CompatThreshold = 0.01
	sm := NewSpeciesManager(opts)

	rng := testRNG()
	strong := sm.AssignSpecies(CreateMinimalBrainGenome(rng, 1))
	weak := sm.AssignSpecies(CreateMinimalBrainGenome(rng, 2))
	if strong == weak {
		t.Fatal("expected two species")
	}
	sm.AddMember(strong, 1)
	sm.AddMember(weak, 2)
	sm.AccumulateFitness(strong, 50)
	sm.AccumulateFitness(weak, 5)

	// Age both without improvement
	for i := 0; i < 5; i++ {
		sm.EndGeneration()
		sm.ClearMembers()
		sm.AddMember(strong, 1)
		sm.AddMember(weak, 2)
	}

	if sm.GetSpecies(weak) != nil {
		t.Error("stale species should be removed")
	}
	if sm.GetSpecies(strong) == nil {
		t.Error("best species must survive staleness")
	}
}

func TestRemoveEmptySpecies(t *testing.T) {
	sm := NewSpeciesManager(DefaultNEATOptions())
	sm.AssignSpecies(CreateBrainGenome(testRNG(), 1, 0.3))
	sm.EndGeneration()
	if len(sm.Species) != 0 {
		t.Errorf("empty species should be removed, %d left", len(sm.Species))
	}
}

func TestSpeciesStatsAndTop(t *testing.T) {
	opts := DefaultNEATOptions()
	opts.CompatThreshold = 0.01
	sm := NewSpeciesManager(opts)

	rng := testRNG()
	for i := 0; i < 3; i++ {
		sid := sm.AssignSpecies(CreateMinimalBrainGenome(rng, i+1))
		for j := 0; j <= i; j++ {
			sm.AddMember(sid, i*10+j)
		}
		sm.RecordOffspring(sid)
	}

	stats := sm.GetStats()
	if stats.Count != 3 || stats.TotalMembers != 6 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.LargestSize != 3 || stats.SmallestSize != 1 {
		t.Errorf("sizes = %d..%d", stats.SmallestSize, stats.LargestSize)
	}
	if stats.TotalOffspring != 3 {
		t.Errorf("offspring = %d", stats.TotalOffspring)
	}

	top := sm.GetTopSpecies(2)
	if len(top) != 2 {
		t.Fatalf("expected 2 top species, got %d", len(top))
	}
	if top[0].Size != 3 || top[1].Size != 2 {
		t.Errorf("top species not sorted by size: %+v", top)
	}
}

func BenchmarkAssignSpecies(b *testing.B) {
	sm := NewSpeciesManager(DefaultNEATOptions())
	rng := testRNG()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = sm.AssignSpecies(CreateBrainGenome(rng, i, 0.3))
	}
}
