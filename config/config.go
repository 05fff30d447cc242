// Package config provides configuration loading and access for the
// tank simulation core.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World        WorldConfig        `yaml:"world"`
	Energy       EnergyConfig       `yaml:"energy"`
	Lifecycle    LifecycleConfig    `yaml:"lifecycle"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Population   PopulationConfig   `yaml:"population"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
	Species      []SpeciesConfig    `yaml:"species"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds tank bounds. Spawn and spill positions are clamped to
// [0, Width] x [0, Height].
type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// EnergyConfig holds the energy economy parameters.
type EnergyConfig struct {
	MaxEnergy      float64 `yaml:"max_energy"`      // species baseline capacity
	InitialRatio   float64 `yaml:"initial_ratio"`   // founder start energy as a ratio of capacity
	BaseMetabolism float64 `yaml:"base_metabolism"` // per-tick baseline burn

	ExistenceCost   float64 `yaml:"existence_cost"`   // existence burn scale, x size^1.3
	MoveCost        float64 `yaml:"move_cost"`        // movement burn scale, x speedRatio x size^1.5
	SprintThreshold float64 `yaml:"sprint_threshold"` // speed ratio above which the cubic penalty applies
	SprintPenalty   float64 `yaml:"sprint_penalty"`   // cubic penalty scale

	BankMultiplier float64 `yaml:"bank_multiplier"` // overflow bank cap = max_energy x this

	StageMultipliers StageMultipliers `yaml:"stage_multipliers"`
}

// StageMultipliers scales all metabolic costs per life stage.
type StageMultipliers struct {
	Baby     float64 `yaml:"baby"`
	Juvenile float64 `yaml:"juvenile"`
	Adult    float64 `yaml:"adult"`
	Elder    float64 `yaml:"elder"`
}

// LifecycleConfig holds the age thresholds and stage sizes. Thresholds are
// strictly increasing tick counts.
type LifecycleConfig struct {
	BabyEndTicks     int64 `yaml:"baby_end_ticks"`
	JuvenileEndTicks int64 `yaml:"juvenile_end_ticks"`
	AdultEndTicks    int64 `yaml:"adult_end_ticks"`
	MaxAgeTicks      int64 `yaml:"max_age_ticks"` // baseline, scaled by genome

	BabySize  float64 `yaml:"baby_size"`  // babies interpolate from this to adult size
	AdultSize float64 `yaml:"adult_size"` // also used for juveniles/elders
}

// ReproductionConfig holds reproduction timing and funding parameters.
type ReproductionConfig struct {
	CooldownTicks   int64   `yaml:"cooldown_ticks"`
	OffspringEnergy float64 `yaml:"offspring_energy"` // full-baby cost for the banked pass
	CreditsRequired int     `yaml:"credits_required"` // 0 = credit gating disabled

	MateProximity float64 `yaml:"mate_proximity"` // max distance for the sexual path
	SpawnOffset   float64 `yaml:"spawn_offset"`   // offspring/spill placement jitter

	MutationRate     float64 `yaml:"mutation_rate"`
	MutationStrength float64 `yaml:"mutation_strength"`
}

// PopulationConfig holds the population cap and emergency-recovery knobs.
type PopulationConfig struct {
	Initial                int   `yaml:"initial"`
	Max                    int   `yaml:"max"`
	Critical               int   `yaml:"critical"` // below this, emergency spawn probability is 1.0
	EmergencyCooldownTicks int64 `yaml:"emergency_cooldown_ticks"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindowTicks int `yaml:"stats_window_ticks"`
}

// SpeciesConfig defines a species baseline.
type SpeciesConfig struct {
	Name     string  `yaml:"name"`
	MaxSpeed float64 `yaml:"max_speed"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	BankCap      float64          // Energy.MaxEnergy * Energy.BankMultiplier baseline
	SpeciesIndex map[string]uint8 // name -> index for species lookup
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
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

func (c *Config) validate() error {
	lc := c.Lifecycle
	if !(lc.BabyEndTicks < lc.JuvenileEndTicks && lc.JuvenileEndTicks < lc.AdultEndTicks) {
		return fmt.Errorf("lifecycle thresholds must be strictly increasing: %d, %d, %d",
			lc.BabyEndTicks, lc.JuvenileEndTicks, lc.AdultEndTicks)
	}
	if c.Energy.MaxEnergy <= 0 {
		return fmt.Errorf("energy.max_energy must be positive, got %v", c.Energy.MaxEnergy)
	}
	if c.Energy.BankMultiplier < 0 {
		return fmt.Errorf("energy.bank_multiplier must be non-negative, got %v", c.Energy.BankMultiplier)
	}
	if c.Population.Max <= 0 {
		return fmt.Errorf("population.max must be positive, got %d", c.Population.Max)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.BankCap = c.Energy.MaxEnergy * c.Energy.BankMultiplier

	// Synthesize a default species if none specified
	if len(c.Species) == 0 {
		c.Species = []SpeciesConfig{{Name: "guppy", MaxSpeed: 3.0}}
	}

	c.Derived.SpeciesIndex = make(map[string]uint8, len(c.Species))
	for i, sp := range c.Species {
		c.Derived.SpeciesIndex[sp.Name] = uint8(i)
	}
}

// WriteYAML writes the configuration to a YAML file.
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
