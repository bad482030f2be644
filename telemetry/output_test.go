package telemetry

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/laserwalk/config"
	"github.com/pthm-cable/laserwalk/neural"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("empty dir should disable output, got %v, %v", om, err)
	}

	// A nil manager swallows every write
	if err := om.WriteGeneration(GenerationStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteChampion(nil); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" {
		t.Error("nil manager should report no dir")
	}
}

func TestOutputManagerGenerationsCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	for gen := 0; gen < 3; gen++ {
		if err := om.WriteGeneration(GenerationStats{Generation: gen, FitnessMax: float64(gen) * 10, Species: 2}); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkNewRecord, Generation: 2, Description: "record"}); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(dir, GenerationsFile))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var rows []GenerationStats
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		t.Fatalf("reading %s: %v", GenerationsFile, err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3 (header written once)", len(rows))
	}
	if rows[2].Generation != 2 || rows[2].FitnessMax != 20 || rows[2].Species != 2 {
		t.Errorf("last row = %+v", rows[2])
	}
}

func TestOutputManagerConfigAndChampion(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()

	cfg := config.Default()
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := config.Load(filepath.Join(dir, ConfigFile))
	if err != nil {
		t.Fatalf("config snapshot does not load: %v", err)
	}
	if loaded.Evolution.PopulationSize != cfg.Evolution.PopulationSize {
		t.Errorf("population size %d, want %d", loaded.Evolution.PopulationSize, cfg.Evolution.PopulationSize)
	}

	champ := neural.CreateMinimalBrainGenome(rand.New(rand.NewSource(1)), 42)
	if err := om.WriteChampion(champ); err != nil {
		t.Fatal(err)
	}
	back, err := neural.LoadGenome(filepath.Join(dir, ChampionFile))
	if err != nil {
		t.Fatalf("champion does not load: %v", err)
	}
	if back.Id != 42 || len(back.Genes) != len(champ.Genes) {
		t.Errorf("champion id=%d genes=%d", back.Id, len(back.Genes))
	}
}
