// Package telemetry tracks tank health: per-window event counts, energy
// flow accounting by source, and structured run output.
package telemetry

import (
	"github.com/pthm-cable/reef/systems"
)

// Collector accumulates events within tick windows and produces
// WindowStats. It satisfies the simulation's Recorder interface; none
// of its methods can fail.
type Collector struct {
	windowTicks int64
	windowStart int64

	birthsBanked    int
	birthsTrait     int
	birthsEmergency int
	birthsMating    int
	birthsFounder   int

	deathsStarvation int
	deathsOldAge     int
	deathsPredation  int
	deathsMigration  int
	deathsUnknown    int

	flow    [systems.SourceRestore + 1]float64
	banked  float64
	spilled float64
}

// NewCollector creates a collector flushing every windowTicks ticks.
func NewCollector(windowTicks int64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: windowTicks}
}

// RecordBirth records a spawn by reproduction path.
func (c *Collector) RecordBirth(reason string) {
	switch reason {
	case "banked_asexual":
		c.birthsBanked++
	case "trait_asexual":
		c.birthsTrait++
	case "emergency":
		c.birthsEmergency++
	case "mating":
		c.birthsMating++
	default:
		c.birthsFounder++
	}
}

// RecordDeath records a removal by cause label. Unrecognized labels,
// including the unknown_* debug family, land in the unknown bucket.
func (c *Collector) RecordDeath(cause string) {
	switch {
	case cause == "starvation":
		c.deathsStarvation++
	case cause == "old_age":
		c.deathsOldAge++
	case cause == "predation":
		c.deathsPredation++
	case cause == "migration":
		c.deathsMigration++
	default:
		c.deathsUnknown++
	}
}

// RecordEnergyChange accumulates a committed energy delta by source.
func (c *Collector) RecordEnergyChange(src systems.Source, delta float64) {
	if int(src) < len(c.flow) {
		c.flow[src] += delta
	}
}

// RecordBanked accumulates overflow routed to reproduction banks.
func (c *Collector) RecordBanked(amount float64) { c.banked += amount }

// RecordSpilled accumulates overflow spilled as food.
func (c *Collector) RecordSpilled(amount float64) { c.spilled += amount }

// ShouldFlush reports whether the current window is complete.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStart >= c.windowTicks
}

// Flush produces a WindowStats for the closing window and resets the
// counters. The caller samples population and per-agent energy ratios
// at window end.
func (c *Collector) Flush(currentTick int64, population int, energyRatios []float64) WindowStats {
	mean, p10, p50, p90 := ratioStats(energyRatios)

	stats := WindowStats{
		WindowStartTick: c.windowStart,
		WindowEndTick:   currentTick,

		Population: population,

		BirthsBanked:    c.birthsBanked,
		BirthsTrait:     c.birthsTrait,
		BirthsEmergency: c.birthsEmergency,
		BirthsMating:    c.birthsMating,
		BirthsFounder:   c.birthsFounder,

		DeathsStarvation: c.deathsStarvation,
		DeathsOldAge:     c.deathsOldAge,
		DeathsPredation:  c.deathsPredation,
		DeathsMigration:  c.deathsMigration,
		DeathsUnknown:    c.deathsUnknown,

		FlowMetabolism: c.flow[systems.SourceMetabolism],
		FlowFeeding:    c.flow[systems.SourceFeeding],
		FlowCombat:     c.flow[systems.SourceCombat],
		FlowMinigame:   c.flow[systems.SourceMinigame],
		FlowBirth:      c.flow[systems.SourceBirth],
		FlowTransfer:   c.flow[systems.SourceTransfer],
		FlowRestore:    c.flow[systems.SourceRestore],

		Banked:  c.banked,
		Spilled: c.spilled,

		EnergyRatioMean: mean,
		EnergyRatioP10:  p10,
		EnergyRatioP50:  p50,
		EnergyRatioP90:  p90,
	}

	*c = Collector{windowTicks: c.windowTicks, windowStart: currentTick}
	return stats
}

// WindowTicks returns the configured window length.
func (c *Collector) WindowTicks() int64 { return c.windowTicks }
