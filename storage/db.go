// Package storage keeps a SQLite history of evolution runs: one row per run,
// one per generation, and every new champion genome.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/yaricom/goNEAT/v4/neat/genetics"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/laserwalk/config"
	"github.com/pthm-cable/laserwalk/neural"
	"github.com/pthm-cable/laserwalk/telemetry"
)

// ErrNotFound is returned when a run or champion does not exist.
var ErrNotFound = errors.New("storage: not found")

// DB wraps a SQLite connection for run history.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		seed INTEGER NOT NULL,
		population_size INTEGER NOT NULL,
		generations INTEGER NOT NULL DEFAULT 0,
		best_fitness REAL,
		config_yaml TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS generations (
		run_id TEXT NOT NULL REFERENCES runs(id),
		generation INTEGER NOT NULL,
		evaluated INTEGER NOT NULL,
		failures INTEGER NOT NULL,
		fitness_mean REAL NOT NULL,
		fitness_std REAL NOT NULL,
		fitness_max REAL NOT NULL,
		distance_mean REAL NOT NULL,
		distance_max REAL NOT NULL,
		survived INTEGER NOT NULL,
		exploded INTEGER NOT NULL,
		head_down INTEGER NOT NULL,
		other INTEGER NOT NULL,
		species INTEGER NOT NULL,
		champion_fitness REAL NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		PRIMARY KEY (run_id, generation)
	);

	CREATE TABLE IF NOT EXISTS champions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		generation INTEGER NOT NULL,
		genome_id INTEGER NOT NULL,
		fitness REAL NOT NULL,
		genome_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_champions_run ON champions(run_id, fitness);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run is one row of the runs table.
type Run struct {
	ID             string          `db:"id"`
	StartedAt      int64           `db:"started_at"`
	FinishedAt     sql.NullInt64   `db:"finished_at"`
	Seed           int64           `db:"seed"`
	PopulationSize int             `db:"population_size"`
	Generations    int             `db:"generations"`
	BestFitness    sql.NullFloat64 `db:"best_fitness"`
	ConfigYAML     string          `db:"config_yaml"`
}

// Started returns the run start time.
func (r Run) Started() time.Time {
	return time.Unix(r.StartedAt, 0)
}

// CreateRun records a new run and returns its ID.
func (db *DB) CreateRun(cfg *config.Config, seed int64) (string, error) {
	data, err := cfg.YAML()
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = db.conn.Exec(`INSERT INTO runs (id, started_at, seed, population_size, config_yaml)
		VALUES (?, ?, ?, ?, ?)`,
		id, time.Now().Unix(), seed, cfg.Evolution.PopulationSize, string(data),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// FinishRun stamps the run with its final generation count and best fitness.
func (db *DB) FinishRun(runID string, generations int, bestFitness float64) error {
	res, err := db.conn.Exec(`UPDATE runs SET finished_at = ?, generations = ?, best_fitness = ? WHERE id = ?`,
		time.Now().Unix(), generations, bestFitness, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}
	return nil
}

// GetRun returns a run by ID.
func (db *DB) GetRun(runID string) (Run, error) {
	var r Run
	err := db.conn.Get(&r, "SELECT * FROM runs WHERE id = ?", runID)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}
	return r, err
}

// Runs returns the most recent runs, newest first.
func (db *DB) Runs(limit int) ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs,
		"SELECT * FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	return runs, err
}

// GenerationRow is one row of the generations table.
type GenerationRow struct {
	RunID           string  `db:"run_id"`
	Generation      int     `db:"generation"`
	Evaluated       int     `db:"evaluated"`
	Failures        int     `db:"failures"`
	FitnessMean     float64 `db:"fitness_mean"`
	FitnessStd      float64 `db:"fitness_std"`
	FitnessMax      float64 `db:"fitness_max"`
	DistanceMean    float64 `db:"distance_mean"`
	DistanceMax     float64 `db:"distance_max"`
	Survived        int     `db:"survived"`
	Exploded        int     `db:"exploded"`
	HeadDown        int     `db:"head_down"`
	Other           int     `db:"other"`
	Species         int     `db:"species"`
	ChampionFitness float64 `db:"champion_fitness"`
	ElapsedMS       int64   `db:"elapsed_ms"`
}

// SaveGeneration stores the stats of one generation.
func (db *DB) SaveGeneration(runID string, s telemetry.GenerationStats) error {
	row := GenerationRow{
		RunID:           runID,
		Generation:      s.Generation,
		Evaluated:       s.Evaluated,
		Failures:        s.Failures,
		FitnessMean:     s.FitnessMean,
		FitnessStd:      s.FitnessStd,
		FitnessMax:      s.FitnessMax,
		DistanceMean:    s.DistanceMean,
		DistanceMax:     s.DistanceMax,
		Survived:        s.Survived,
		Exploded:        s.Exploded,
		HeadDown:        s.HeadDown,
		Other:           s.Other,
		Species:         s.Species,
		ChampionFitness: s.ChampionFitness,
		ElapsedMS:       s.ElapsedMS,
	}
	_, err := db.conn.NamedExec(`INSERT OR REPLACE INTO generations
		(run_id, generation, evaluated, failures, fitness_mean, fitness_std, fitness_max,
		 distance_mean, distance_max, survived, exploded, head_down, other, species,
		 champion_fitness, elapsed_ms)
		VALUES (:run_id, :generation, :evaluated, :failures, :fitness_mean, :fitness_std, :fitness_max,
		 :distance_mean, :distance_max, :survived, :exploded, :head_down, :other, :species,
		 :champion_fitness, :elapsed_ms)`, row)
	if err != nil {
		return fmt.Errorf("insert generation %d: %w", s.Generation, err)
	}
	return nil
}

// Generations returns a run's generation rows in order.
func (db *DB) Generations(runID string) ([]GenerationRow, error) {
	var rows []GenerationRow
	err := db.conn.Select(&rows,
		"SELECT * FROM generations WHERE run_id = ? ORDER BY generation",
		runID,
	)
	return rows, err
}

// SaveChampion stores a champion genome.
func (db *DB) SaveChampion(runID string, generation int, genome *genetics.Genome, fitness float64) error {
	data, err := neural.MarshalGenome(genome)
	if err != nil {
		return err
	}
	_, err = db.conn.Exec(`INSERT INTO champions (run_id, generation, genome_id, fitness, genome_json)
		VALUES (?, ?, ?, ?, ?)`,
		runID, generation, genome.Id, fitness, string(data),
	)
	if err != nil {
		return fmt.Errorf("insert champion %d: %w", genome.Id, err)
	}
	return nil
}

// BestChampion returns the fittest genome stored for a run.
func (db *DB) BestChampion(runID string) (*genetics.Genome, float64, error) {
	var row struct {
		Fitness    float64 `db:"fitness"`
		GenomeJSON string  `db:"genome_json"`
	}
	err := db.conn.Get(&row,
		"SELECT fitness, genome_json FROM champions WHERE run_id = ? ORDER BY fitness DESC, id DESC LIMIT 1",
		runID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("%w: champion for run %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, 0, err
	}
	g, err := neural.UnmarshalGenome([]byte(row.GenomeJSON))
	if err != nil {
		return nil, 0, err
	}
	return g, row.Fitness, nil
}
