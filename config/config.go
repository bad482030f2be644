// Package config provides configuration loading and access for laserwalk.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Body      BodyConfig      `yaml:"body"`
	Hazard    HazardConfig    `yaml:"hazard"`
	Episode   EpisodeConfig   `yaml:"episode"`
	Fitness   FitnessConfig   `yaml:"fitness"`
	Evaluator EvaluatorConfig `yaml:"evaluator"`
	Evolution EvolutionConfig `yaml:"evolution"`
	Neural    NeuralConfig    `yaml:"neural"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Storage   StorageConfig   `yaml:"storage"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the viewer.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds solver parameters. Units are pixels and seconds, y up.
type PhysicsConfig struct {
	DT               float64 `yaml:"dt"`
	Gravity          float64 `yaml:"gravity"`           // Vertical acceleration (negative pulls down)
	Iterations       int     `yaml:"iterations"`        // Velocity solver iterations per step
	GroundY          float64 `yaml:"ground_y"`          // Height of the ground line
	GroundFriction   float64 `yaml:"ground_friction"`   // Multiplied with segment friction
	GroundElasticity float64 `yaml:"ground_elasticity"` // Multiplied with segment elasticity
	Baumgarte        float64 `yaml:"baumgarte"`         // Position error correction factor
	Slop             float64 `yaml:"slop"`              // Allowed penetration before correction
	ContactSlop      float64 `yaml:"contact_slop"`      // Distance above ground still reported as contact
	MaxBias          float64 `yaml:"max_bias"`          // Cap on correction velocity (0 = none)
	LinearDamping    float64 `yaml:"linear_damping"`
	AngularDamping   float64 `yaml:"angular_damping"`
}

// SegmentConfig is the size and mass of one body segment.
type SegmentConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Mass   float64 `yaml:"mass"`
}

// BodyConfig holds the dummy's geometry and joint parameters.
type BodyConfig struct {
	SpawnX    float64 `yaml:"spawn_x"`
	SpawnY    float64 `yaml:"spawn_y"`   // Raised if the feet would start below ground
	Clearance float64 `yaml:"clearance"` // Minimum gap between feet and ground at spawn

	Head  SegmentConfig `yaml:"head"`
	Torso SegmentConfig `yaml:"torso"`
	Arm   SegmentConfig `yaml:"arm"`
	Thigh SegmentConfig `yaml:"thigh"`
	Shin  SegmentConfig `yaml:"shin"`

	Friction   float64 `yaml:"friction"`
	Elasticity float64 `yaml:"elasticity"`

	ShoulderRangeDeg float64 `yaml:"shoulder_range_deg"`
	HipRangeDeg      float64 `yaml:"hip_range_deg"`
	NeckStiffness    float64 `yaml:"neck_stiffness"`
	NeckDamping      float64 `yaml:"neck_damping"`
	ArmForce         float64 `yaml:"arm_force"` // Leg motors get twice this
	MaxRate          float64 `yaml:"max_rate"`  // Shared motor rate cap (rad/s)
}

// HazardConfig holds the laser schedule.
type HazardConfig struct {
	Enabled     bool    `yaml:"enabled"`
	StartOffset float64 `yaml:"start_offset"` // Laser x at frame 0, relative to spawn x
	Speed       float64 `yaml:"speed"`        // Pixels per second along +x
}

// EpisodeConfig holds per-episode limits.
type EpisodeConfig struct {
	MaxFrames           int     `yaml:"max_frames"`
	HeadGroundTolerance float64 `yaml:"head_ground_tolerance"`
}

// FitnessConfig holds the fitness weights.
type FitnessConfig struct {
	Frames      float64 `yaml:"frames"`
	Distance    float64 `yaml:"distance"`
	Stability   float64 `yaml:"stability"`
	Improvement float64 `yaml:"improvement"`
}

// EvaluatorConfig holds generation evaluation settings.
type EvaluatorConfig struct {
	Parallel       bool          `yaml:"parallel"`
	Workers        int           `yaml:"workers"`         // 0 = GOMAXPROCS
	EpisodeTimeout time.Duration `yaml:"episode_timeout"` // Per-episode share of a chunk deadline (0 = none)
	MinFitness     float64       `yaml:"min_fitness"`
}

// EvolutionConfig holds NEAT population parameters.
type EvolutionConfig struct {
	PopulationSize    int     `yaml:"population_size"`
	Generations       int     `yaml:"generations"` // 0 = run until interrupted
	Seed              int64   `yaml:"seed"`
	Elitism           int     `yaml:"elitism"` // Champions copied unchanged each epoch
	SurvivalThreshold float64 `yaml:"survival_threshold"`
	CompatThreshold   float64 `yaml:"compat_threshold"`
	DropOffAge        int     `yaml:"drop_off_age"`
	CrossoverRate     float64 `yaml:"crossover_rate"`
	WeightMutProb     float64 `yaml:"weight_mut_prob"`
	WeightMutPower    float64 `yaml:"weight_mut_power"`
	AddNodeProb       float64 `yaml:"add_node_prob"`
	AddLinkProb       float64 `yaml:"add_link_prob"`
	ToggleEnableProb  float64 `yaml:"toggle_enable_prob"`
	DisjointCoeff     float64 `yaml:"disjoint_coeff"`
	ExcessCoeff       float64 `yaml:"excess_coeff"`
	MutdiffCoeff      float64 `yaml:"mutdiff_coeff"`
}

// NeuralConfig holds controller network settings.
type NeuralConfig struct {
	InitialConnectionProb float64 `yaml:"initial_connection_prob"`
	ActivationDepth       int     `yaml:"activation_depth"` // Fallback when depth cannot be computed
}

// TelemetryConfig holds output settings.
type TelemetryConfig struct {
	OutputDir      string `yaml:"output_dir"`
	LogInterval    int    `yaml:"log_interval"` // Generations between progress logs
	HallOfFameSize int    `yaml:"hall_of_fame_size"`
}

// StorageConfig holds the SQLite run store settings.
type StorageConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32      float32 // Physics.DT as float32
	ScreenW32 float32 // Screen.Width as float32
	ScreenH32 float32 // Screen.Height as float32
	SpawnX    float64 // Torso center at spawn
	SpawnY    float64
	LegForce  float64 // 2 * Body.ArmForce
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults. It panics if they do not parse.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
	c.Derived.LegForce = 2 * c.Body.ArmForce

	// Torso center high enough that the straight legs clear the ground
	standing := c.Physics.GroundY + c.Body.Clearance +
		c.Body.Thigh.Height + c.Body.Shin.Height + c.Body.Torso.Height/2
	c.Derived.SpawnX = c.Body.SpawnX
	c.Derived.SpawnY = math.Max(c.Body.SpawnY, standing)
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks the constraints the evaluation core relies on.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Physics.DT > 0, "physics.dt must be > 0, got %v", c.Physics.DT)
	check(c.Physics.Iterations > 0, "physics.iterations must be > 0, got %d", c.Physics.Iterations)

	for name, seg := range map[string]SegmentConfig{
		"head": c.Body.Head, "torso": c.Body.Torso, "arm": c.Body.Arm,
		"thigh": c.Body.Thigh, "shin": c.Body.Shin,
	} {
		check(seg.Width > 0 && seg.Height > 0 && seg.Mass > 0,
			"body.%s needs positive width, height and mass", name)
	}
	check(c.Body.ShoulderRangeDeg > 0, "body.shoulder_range_deg must be > 0")
	check(c.Body.HipRangeDeg > 0, "body.hip_range_deg must be > 0")
	check(c.Body.ArmForce > 0, "body.arm_force must be > 0")
	check(c.Body.MaxRate > 0, "body.max_rate must be > 0")
	check(c.Body.NeckStiffness >= 0 && c.Body.NeckDamping >= 0, "body.neck_* must be >= 0")

	check(c.Episode.MaxFrames > 0, "episode.max_frames must be > 0, got %d", c.Episode.MaxFrames)
	check(c.Episode.HeadGroundTolerance >= 0, "episode.head_ground_tolerance must be >= 0")

	check(c.Fitness.Frames > 0, "fitness.frames must be > 0, got %v", c.Fitness.Frames)
	check(c.Fitness.Distance > 0, "fitness.distance must be > 0, got %v", c.Fitness.Distance)
	check(c.Fitness.Stability >= 0, "fitness.stability must be >= 0, got %v", c.Fitness.Stability)
	check(c.Fitness.Improvement >= 0, "fitness.improvement must be >= 0, got %v", c.Fitness.Improvement)

	check(c.Evaluator.Workers >= 0, "evaluator.workers must be >= 0")
	check(c.Evaluator.EpisodeTimeout >= 0, "evaluator.episode_timeout must be >= 0")

	check(c.Evolution.PopulationSize > 1, "evolution.population_size must be > 1")
	check(c.Evolution.Elitism >= 0 && c.Evolution.Elitism < c.Evolution.PopulationSize,
		"evolution.elitism must be in [0, population_size)")
	check(c.Evolution.SurvivalThreshold > 0 && c.Evolution.SurvivalThreshold <= 1,
		"evolution.survival_threshold must be in (0, 1]")

	return errors.Join(errs...)
}

// YAML returns the configuration as YAML, in the format Load reads.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
