package storage

import (
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/laserwalk/config"
	"github.com/pthm-cable/laserwalk/neural"
	"github.com/pthm-cable/laserwalk/telemetry"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	for i := 0; i < 2; i++ {
		db, err := Open(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		db.Close()
	}
}

func TestOpenPragmas(t *testing.T) {
	db := openTestDB(t)

	var mode string
	if err := db.conn.Get(&mode, "PRAGMA journal_mode"); err != nil {
		t.Fatal(err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	var timeout int
	if err := db.conn.Get(&timeout, "PRAGMA busy_timeout"); err != nil {
		t.Fatal(err)
	}
	if timeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", timeout)
	}
}

func TestRunLifecycle(t *testing.T) {
	db := openTestDB(t)
	cfg := config.Default()

	id, err := db.CreateRun(cfg, 77)
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("empty run id")
	}

	run, err := db.GetRun(id)
	if err != nil {
		t.Fatal(err)
	}
	if run.Seed != 77 || run.PopulationSize != cfg.Evolution.PopulationSize {
		t.Errorf("run = %+v", run)
	}
	if run.FinishedAt.Valid || run.BestFitness.Valid {
		t.Error("new run should not be finished")
	}
	if run.ConfigYAML == "" {
		t.Error("config snapshot missing")
	}

	if err := db.FinishRun(id, 12, 345.5); err != nil {
		t.Fatal(err)
	}
	run, err = db.GetRun(id)
	if err != nil {
		t.Fatal(err)
	}
	if !run.FinishedAt.Valid || run.Generations != 12 || run.BestFitness.Float64 != 345.5 {
		t.Errorf("finished run = %+v", run)
	}

	runs, err := db.Runs(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != id {
		t.Errorf("runs = %+v", runs)
	}
}

func TestUnknownRun(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.GetRun("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRun err = %v, want ErrNotFound", err)
	}
	if err := db.FinishRun("nope", 1, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("FinishRun err = %v, want ErrNotFound", err)
	}
	if _, _, err := db.BestChampion("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("BestChampion err = %v, want ErrNotFound", err)
	}
}

func TestGenerations(t *testing.T) {
	db := openTestDB(t)
	id, err := db.CreateRun(config.Default(), 1)
	if err != nil {
		t.Fatal(err)
	}

	for gen := 2; gen >= 0; gen-- {
		s := telemetry.GenerationStats{Generation: gen, Evaluated: 10, FitnessMax: float64(gen), Exploded: gen}
		if err := db.SaveGeneration(id, s); err != nil {
			t.Fatal(err)
		}
	}
	// Saving a generation again replaces it
	if err := db.SaveGeneration(id, telemetry.GenerationStats{Generation: 1, FitnessMax: 9}); err != nil {
		t.Fatal(err)
	}

	rows, err := db.Generations(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	for i, r := range rows {
		if r.Generation != i {
			t.Errorf("row %d is generation %d", i, r.Generation)
		}
	}
	if rows[1].FitnessMax != 9 || rows[2].Exploded != 2 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestBestChampion(t *testing.T) {
	db := openTestDB(t)
	id, err := db.CreateRun(config.Default(), 1)
	if err != nil {
		t.Fatal(err)
	}

	rng := rand.New(rand.NewSource(3))
	weak := neural.CreateBrainGenome(rng, 1, 0.5)
	strong := neural.CreateMinimalBrainGenome(rng, 2)

	if err := db.SaveChampion(id, 0, weak, 10); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveChampion(id, 3, strong, 25); err != nil {
		t.Fatal(err)
	}

	g, fitness, err := db.BestChampion(id)
	if err != nil {
		t.Fatal(err)
	}
	if g.Id != 2 || fitness != 25 {
		t.Errorf("best = genome %d fitness %v", g.Id, fitness)
	}
	if len(g.Genes) != len(strong.Genes) {
		t.Errorf("genes = %d, want %d", len(g.Genes), len(strong.Genes))
	}
}
