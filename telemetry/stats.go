package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for one tick window.
type WindowStats struct {
	WindowStartTick int64 `csv:"-"`
	WindowEndTick   int64 `csv:"window_end"`

	// Population at window end
	Population int `csv:"population"`

	// Births by reproduction path
	BirthsBanked    int `csv:"births_banked"`
	BirthsTrait     int `csv:"births_trait"`
	BirthsEmergency int `csv:"births_emergency"`
	BirthsMating    int `csv:"births_mating"`
	BirthsFounder   int `csv:"births_founder"`

	// Deaths by cause
	DeathsStarvation int `csv:"deaths_starvation"`
	DeathsOldAge     int `csv:"deaths_old_age"`
	DeathsPredation  int `csv:"deaths_predation"`
	DeathsMigration  int `csv:"deaths_migration"`
	DeathsUnknown    int `csv:"deaths_unknown"`

	// Net committed energy flow by source
	FlowMetabolism float64 `csv:"flow_metabolism"`
	FlowFeeding    float64 `csv:"flow_feeding"`
	FlowCombat     float64 `csv:"flow_combat"`
	FlowMinigame   float64 `csv:"flow_minigame"`
	FlowBirth      float64 `csv:"flow_birth"`
	FlowTransfer   float64 `csv:"flow_transfer"`
	FlowRestore    float64 `csv:"flow_restore"`

	// Overflow routing
	Banked  float64 `csv:"banked"`
	Spilled float64 `csv:"spilled"`

	// Energy ratio distribution (sampled at window end)
	EnergyRatioMean float64 `csv:"energy_ratio_mean"`
	EnergyRatioP10  float64 `csv:"energy_ratio_p10"`
	EnergyRatioP50  float64 `csv:"energy_ratio_p50"`
	EnergyRatioP90  float64 `csv:"energy_ratio_p90"`
}

// Births returns total births in the window, founders excluded.
func (s WindowStats) Births() int {
	return s.BirthsBanked + s.BirthsTrait + s.BirthsEmergency + s.BirthsMating
}

// Deaths returns total deaths in the window.
func (s WindowStats) Deaths() int {
	return s.DeathsStarvation + s.DeathsOldAge + s.DeathsPredation +
		s.DeathsMigration + s.DeathsUnknown
}

// ratioStats computes mean and percentiles of energy ratios.
func ratioStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return mean, p10, p50, p90
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"population", s.Population,
		"births_banked", s.BirthsBanked,
		"births_trait", s.BirthsTrait,
		"births_emergency", s.BirthsEmergency,
		"births_mating", s.BirthsMating,
		"deaths_starvation", s.DeathsStarvation,
		"deaths_old_age", s.DeathsOldAge,
		"deaths_predation", s.DeathsPredation,
		"deaths_migration", s.DeathsMigration,
		"deaths_unknown", s.DeathsUnknown,
		"flow_metabolism", s.FlowMetabolism,
		"flow_feeding", s.FlowFeeding,
		"flow_combat", s.FlowCombat,
		"flow_minigame", s.FlowMinigame,
		"flow_birth", s.FlowBirth,
		"banked", s.Banked,
		"spilled", s.Spilled,
		"energy_ratio_mean", s.EnergyRatioMean,
		"energy_ratio_p10", s.EnergyRatioP10,
		"energy_ratio_p50", s.EnergyRatioP50,
		"energy_ratio_p90", s.EnergyRatioP90,
	)
}
