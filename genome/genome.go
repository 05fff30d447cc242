// Package genome defines the genetics contract consumed by the life-cycle
// core. Genomes are opaque to the rest of the system beyond the trait
// multipliers used to seed energy capacity, size, and aging.
package genome

import "math/rand"

// Genome holds heritable trait multipliers. All values are relative to the
// configured species baselines; 1.0 means "exactly the baseline".
type Genome struct {
	MaxEnergy  float64 `json:"max_energy"` // energy capacity multiplier
	Size       float64 `json:"size"`       // body size multiplier
	MaxAge     float64 `json:"max_age"`    // lifespan multiplier
	Metabolism float64 `json:"metabolism"` // base burn multiplier

	// AsexualChance is the per-tick probability of spontaneous asexual
	// reproduction once the energy/cooldown gates are satisfied.
	AsexualChance float64 `json:"asexual_chance"`

	// BirthTransfer is the fraction of the parent's current energy handed
	// to a self-funded offspring.
	BirthTransfer float64 `json:"birth_transfer"`
}

// Genetics produces and recombines genomes. Implementations must be
// deterministic for a fixed rng stream.
type Genetics interface {
	RandomGenome(rng *rand.Rand) Genome
	Mutate(g Genome, rate, strength float64, rng *rand.Rand) Genome
	Crossover(a Genome, weightA float64, b Genome, rng *rand.Rand) Genome
}

// Trait bounds. Mutation output is clamped so a pathological rng stream
// cannot produce zero-capacity or immortal agents.
const (
	minMultiplier = 0.25
	maxMultiplier = 3.0

	minChance = 0.0
	maxChance = 0.05

	minTransfer = 0.2
	maxTransfer = 0.6
)

// Standard is the default Genetics implementation: gaussian jitter around
// the parent values with per-trait clamping.
type Standard struct{}

// RandomGenome returns a founder genome near the baselines.
func (Standard) RandomGenome(rng *rand.Rand) Genome {
	return Genome{
		MaxEnergy:     clamp(1.0+rng.NormFloat64()*0.15, minMultiplier, maxMultiplier),
		Size:          clamp(1.0+rng.NormFloat64()*0.15, minMultiplier, maxMultiplier),
		MaxAge:        clamp(1.0+rng.NormFloat64()*0.10, minMultiplier, maxMultiplier),
		Metabolism:    clamp(1.0+rng.NormFloat64()*0.10, minMultiplier, maxMultiplier),
		AsexualChance: clamp(0.002+rng.NormFloat64()*0.001, minChance, maxChance),
		BirthTransfer: clamp(0.4+rng.NormFloat64()*0.05, minTransfer, maxTransfer),
	}
}

// Mutate jitters each trait with probability rate. Strength scales the
// gaussian sigma.
func (Standard) Mutate(g Genome, rate, strength float64, rng *rand.Rand) Genome {
	out := g
	mut := func(v, sigma, lo, hi float64) float64 {
		if rng.Float64() >= rate {
			return v
		}
		return clamp(v+rng.NormFloat64()*sigma*strength, lo, hi)
	}
	out.MaxEnergy = mut(g.MaxEnergy, 0.10, minMultiplier, maxMultiplier)
	out.Size = mut(g.Size, 0.10, minMultiplier, maxMultiplier)
	out.MaxAge = mut(g.MaxAge, 0.08, minMultiplier, maxMultiplier)
	out.Metabolism = mut(g.Metabolism, 0.08, minMultiplier, maxMultiplier)
	out.AsexualChance = mut(g.AsexualChance, 0.001, minChance, maxChance)
	out.BirthTransfer = mut(g.BirthTransfer, 0.03, minTransfer, maxTransfer)
	return out
}

// Crossover blends two genomes. weightA in [0,1] biases toward parent a;
// each trait is independently drawn from the weighted blend with a small
// jitter so siblings are not identical.
func (Standard) Crossover(a Genome, weightA float64, b Genome, rng *rand.Rand) Genome {
	w := clamp(weightA, 0, 1)
	blend := func(x, y, lo, hi float64) float64 {
		v := x*w + y*(1-w)
		return clamp(v+rng.NormFloat64()*0.02*(hi-lo), lo, hi)
	}
	return Genome{
		MaxEnergy:     blend(a.MaxEnergy, b.MaxEnergy, minMultiplier, maxMultiplier),
		Size:          blend(a.Size, b.Size, minMultiplier, maxMultiplier),
		MaxAge:        blend(a.MaxAge, b.MaxAge, minMultiplier, maxMultiplier),
		Metabolism:    blend(a.Metabolism, b.Metabolism, minMultiplier, maxMultiplier),
		AsexualChance: blend(a.AsexualChance, b.AsexualChance, minChance, maxChance),
		BirthTransfer: blend(a.BirthTransfer, b.BirthTransfer, minTransfer, maxTransfer),
	}
}

// Baseline returns the neutral genome (all multipliers 1.0).
func Baseline() Genome {
	return Genome{
		MaxEnergy:     1.0,
		Size:          1.0,
		MaxAge:        1.0,
		Metabolism:    1.0,
		AsexualChance: 0.002,
		BirthTransfer: 0.4,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
