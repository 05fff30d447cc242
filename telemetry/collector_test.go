package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/reef/systems"
)

func TestCollectorBucketsBirthsAndDeaths(t *testing.T) {
	c := NewCollector(100)

	c.RecordBirth("banked_asexual")
	c.RecordBirth("trait_asexual")
	c.RecordBirth("trait_asexual")
	c.RecordBirth("emergency")
	c.RecordBirth("mating")
	c.RecordBirth("founder")

	c.RecordDeath("starvation")
	c.RecordDeath("old_age")
	c.RecordDeath("predation")
	c.RecordDeath("migration")
	c.RecordDeath("unknown_no_signal")

	stats := c.Flush(100, 42, nil)

	if stats.BirthsBanked != 1 || stats.BirthsTrait != 2 || stats.BirthsEmergency != 1 ||
		stats.BirthsMating != 1 || stats.BirthsFounder != 1 {
		t.Errorf("birth buckets wrong: %+v", stats)
	}
	if stats.Births() != 5 {
		t.Errorf("Births() = %d, want 5 (founders excluded)", stats.Births())
	}
	if stats.DeathsStarvation != 1 || stats.DeathsOldAge != 1 || stats.DeathsPredation != 1 ||
		stats.DeathsMigration != 1 || stats.DeathsUnknown != 1 {
		t.Errorf("death buckets wrong: %+v", stats)
	}
	if stats.Population != 42 {
		t.Errorf("population = %d, want 42", stats.Population)
	}
}

func TestCollectorAccumulatesFlow(t *testing.T) {
	c := NewCollector(100)

	c.RecordEnergyChange(systems.SourceMetabolism, -2.5)
	c.RecordEnergyChange(systems.SourceMetabolism, -1.5)
	c.RecordEnergyChange(systems.SourceFeeding, 10)
	c.RecordEnergyChange(systems.SourceBirth, -40)
	c.RecordBanked(7)
	c.RecordSpilled(3)

	stats := c.Flush(100, 1, nil)

	if math.Abs(stats.FlowMetabolism+4) > 1e-12 {
		t.Errorf("metabolism flow = %v, want -4", stats.FlowMetabolism)
	}
	if stats.FlowFeeding != 10 || stats.FlowBirth != -40 {
		t.Errorf("flow wrong: %+v", stats)
	}
	if stats.Banked != 7 || stats.Spilled != 3 {
		t.Errorf("overflow routing wrong: banked %v, spilled %v", stats.Banked, stats.Spilled)
	}
}

func TestCollectorFlushResets(t *testing.T) {
	c := NewCollector(50)

	c.RecordBirth("mating")
	c.RecordDeath("starvation")
	c.RecordEnergyChange(systems.SourceFeeding, 5)

	first := c.Flush(50, 10, nil)
	if first.BirthsMating != 1 {
		t.Fatal("first window lost its events")
	}

	second := c.Flush(100, 10, nil)
	if second.BirthsMating != 0 || second.DeathsStarvation != 0 || second.FlowFeeding != 0 {
		t.Errorf("counters not reset: %+v", second)
	}
	if second.WindowStartTick != 50 {
		t.Errorf("window start = %d, want 50", second.WindowStartTick)
	}
}

func TestCollectorShouldFlush(t *testing.T) {
	c := NewCollector(600)

	if c.ShouldFlush(599) {
		t.Error("flushed early")
	}
	if !c.ShouldFlush(600) {
		t.Error("did not flush at window boundary")
	}

	c.Flush(600, 0, nil)
	if c.ShouldFlush(601) {
		t.Error("flushed immediately after reset")
	}
}

func TestRatioStats(t *testing.T) {
	mean, p10, p50, p90 := ratioStats([]float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0})

	if math.Abs(mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", mean)
	}
	if p10 < 0.05 || p10 > 0.25 {
		t.Errorf("p10 = %v, want near 0.1", p10)
	}
	if p50 < 0.45 || p50 > 0.65 {
		t.Errorf("p50 = %v, want near 0.5", p50)
	}
	if p90 < 0.85 || p90 > 1.0 {
		t.Errorf("p90 = %v, want near 0.9", p90)
	}
}

func TestRatioStatsEmpty(t *testing.T) {
	mean, p10, p50, p90 := ratioStats(nil)
	if mean != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Errorf("empty input: got %v %v %v %v, want zeros", mean, p10, p50, p90)
	}
}
