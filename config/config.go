// Package config provides tuning configuration and gene catalog loading
// for the genetics engine and the breeding-program simulator around it.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/DevonLowjamski/chimera-genetics/genetics"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all tuning parameters.
type Config struct {
	Mutation    MutationConfig    `yaml:"mutation"`
	Inbreeding  InbreedingConfig  `yaml:"inbreeding"`
	Expression  ExpressionConfig  `yaml:"expression"`
	Environment EnvironmentConfig `yaml:"environment"`
	Garden      GardenConfig      `yaml:"garden"`
	Selection   SelectionConfig   `yaml:"selection"`
	Elites      ElitesConfig      `yaml:"elites"`
	Objectives  []ObjectiveConfig `yaml:"objectives"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// MutationConfig holds breeding mutation parameters.
type MutationConfig struct {
	Rate        float64 `yaml:"rate"`          // Per-locus mutation probability
	AllowDeNovo bool    `yaml:"allow_de_novo"` // Mutation may introduce alleles neither parent carries
}

// InbreedingConfig holds relatedness parameters.
type InbreedingConfig struct {
	Penalty       float64 `yaml:"penalty"`        // Fraction removed from sensitive traits of inbred plants
	PedigreeDepth int     `yaml:"pedigree_depth"` // Generations searched for a shared ancestor
}

// ExpressionConfig holds trait expression parameters.
type ExpressionConfig struct {
	CacheSize int `yaml:"cache_size"` // Expression cache capacity (0 = engine default)
}

// EnvironmentProfile is the baseline growing environment.
type EnvironmentProfile struct {
	Temperature float64 `yaml:"temperature"`
	Humidity    float64 `yaml:"humidity"`
	Light       float64 `yaml:"light"`
	CO2         float64 `yaml:"co2"`
	Nutrients   float64 `yaml:"nutrients"`
}

// ResponseCurve describes how far a factor can drift from its optimum
// before stressing the plant.
type ResponseCurve struct {
	Optimal   float64 `yaml:"optimal"`
	Tolerance float64 `yaml:"tolerance"`
	Weight    float64 `yaml:"weight"`
}

// EnvironmentConfig holds the growing environment and its trait response.
type EnvironmentConfig struct {
	Profile            EnvironmentProfile       `yaml:"profile"`
	MaxPenalty         float64                  `yaml:"max_penalty"`         // Expression scale loss under full stress
	AffectedCategories []string                 `yaml:"affected_categories"` // Gene categories the environment scales
	Response           map[string]ResponseCurve `yaml:"response"`            // Keyed by factor name
}

// GardenConfig holds population management parameters.
type GardenConfig struct {
	InitialPopulation int `yaml:"initial_population"`
	MaxPopulation     int `yaml:"max_population"`
	Workers           int `yaml:"workers"`            // Expression workers (0 = NumCPU)
	ParallelThreshold int `yaml:"parallel_threshold"` // Below this population, express serially
}

// SelectionConfig holds generation-advance parameters.
type SelectionConfig struct {
	Parents          int `yaml:"parents"`            // Top-ranked plants kept as breeding stock
	OffspringPerPair int `yaml:"offspring_per_pair"` // Seeds produced per crossing
	CarryElites      int `yaml:"carry_elites"`       // Best plants cloned into the next generation
}

// ElitesConfig holds elite archive parameters.
type ElitesConfig struct {
	Capacity    int `yaml:"capacity"`
	TournamentK int `yaml:"tournament_k"`
}

// ObjectiveConfig is one weighted trait target of the breeding goal.
type ObjectiveConfig struct {
	Trait  string  `yaml:"trait"`
	Target float64 `yaml:"target"`
	Weight float64 `yaml:"weight"`
}

// TelemetryConfig holds stats output and milestone thresholds.
type TelemetryConfig struct {
	LogStats       bool    `yaml:"log_stats"`
	HistoryWindow  int     `yaml:"history_window"`  // Generations of stats kept for milestone detection
	ScoreJump      float64 `yaml:"score_jump"`      // Best-score jump over the window mean that marks a breakthrough
	DiversityFloor float64 `yaml:"diversity_floor"` // Diversity below this marks a collapse
	TargetScore    float64 `yaml:"target_score"`    // Best score at or above this marks the goal met
}

// DerivedConfig holds values computed from the loaded configuration.
type DerivedConfig struct {
	Objectives         []genetics.BreedingObjective // Objectives with trait names resolved
	Environment        genetics.Environment         // Profile as an engine snapshot
	AffectedCategories map[genetics.GeneCategory]bool
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
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

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects tuning values the engine cannot run with.
func (c *Config) validate() error {
	if c.Mutation.Rate < 0 || c.Mutation.Rate > 1 {
		return fmt.Errorf("mutation.rate %v outside [0, 1]", c.Mutation.Rate)
	}
	if c.Inbreeding.Penalty < 0 || c.Inbreeding.Penalty > 1 {
		return fmt.Errorf("inbreeding.penalty %v outside [0, 1]", c.Inbreeding.Penalty)
	}
	if c.Inbreeding.PedigreeDepth < 0 {
		return fmt.Errorf("inbreeding.pedigree_depth %d negative", c.Inbreeding.PedigreeDepth)
	}
	if c.Environment.MaxPenalty < 0 || c.Environment.MaxPenalty > 1 {
		return fmt.Errorf("environment.max_penalty %v outside [0, 1]", c.Environment.MaxPenalty)
	}
	for factor, curve := range c.Environment.Response {
		switch factor {
		case "temperature", "humidity", "light", "co2", "nutrients":
		default:
			return fmt.Errorf("environment.response: unknown factor %q", factor)
		}
		if curve.Tolerance <= 0 {
			return fmt.Errorf("environment.response.%s: tolerance %v must be positive", factor, curve.Tolerance)
		}
		if curve.Weight < 0 {
			return fmt.Errorf("environment.response.%s: weight %v negative", factor, curve.Weight)
		}
	}
	if c.Garden.InitialPopulation < 0 || c.Garden.MaxPopulation < 0 {
		return fmt.Errorf("garden population counts must not be negative")
	}
	if c.Garden.MaxPopulation > 0 && c.Garden.InitialPopulation > c.Garden.MaxPopulation {
		return fmt.Errorf("garden.initial_population %d exceeds max_population %d",
			c.Garden.InitialPopulation, c.Garden.MaxPopulation)
	}
	if c.Selection.Parents < 2 {
		return fmt.Errorf("selection.parents %d: need at least a single pair", c.Selection.Parents)
	}
	if c.Selection.OffspringPerPair < 1 {
		return fmt.Errorf("selection.offspring_per_pair %d must be positive", c.Selection.OffspringPerPair)
	}
	if c.Selection.CarryElites < 0 {
		return fmt.Errorf("selection.carry_elites %d negative", c.Selection.CarryElites)
	}
	for i, obj := range c.Objectives {
		if obj.Weight < 0 {
			return fmt.Errorf("objectives[%d]: weight %v negative", i, obj.Weight)
		}
	}
	if c.Telemetry.HistoryWindow < 1 {
		return fmt.Errorf("telemetry.history_window %d must be positive", c.Telemetry.HistoryWindow)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	c.Derived.Objectives = make([]genetics.BreedingObjective, 0, len(c.Objectives))
	for i, obj := range c.Objectives {
		trait, err := genetics.ParseTraitType(obj.Trait)
		if err != nil {
			return fmt.Errorf("objectives[%d]: %w", i, err)
		}
		c.Derived.Objectives = append(c.Derived.Objectives, genetics.BreedingObjective{
			TargetTrait: trait,
			TargetValue: obj.Target,
			Weight:      obj.Weight,
		})
	}

	c.Derived.Environment = genetics.Environment{
		Temperature: c.Environment.Profile.Temperature,
		Humidity:    c.Environment.Profile.Humidity,
		Light:       c.Environment.Profile.Light,
		CO2:         c.Environment.Profile.CO2,
		Nutrients:   c.Environment.Profile.Nutrients,
	}

	c.Derived.AffectedCategories = make(map[genetics.GeneCategory]bool, len(c.Environment.AffectedCategories))
	for i, name := range c.Environment.AffectedCategories {
		category, err := genetics.ParseGeneCategory(name)
		if err != nil {
			return fmt.Errorf("environment.affected_categories[%d]: %w", i, err)
		}
		c.Derived.AffectedCategories[category] = true
	}
	return nil
}

// WriteYAML dumps the effective configuration for reproducibility.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
