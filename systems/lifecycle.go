package systems

import (
	"log/slog"

	"github.com/pthm-cable/reef/components"
	"github.com/pthm-cable/reef/config"
)

// StageForAge returns the stage an agent of the given age should be in,
// from the fixed, strictly increasing thresholds.
func StageForAge(age int64) components.Stage {
	lc := config.Cfg().Lifecycle
	switch {
	case age < lc.BabyEndTicks:
		return components.StageBaby
	case age < lc.JuvenileEndTicks:
		return components.StageJuvenile
	case age < lc.AdultEndTicks:
		return components.StageAdult
	default:
		return components.StageElder
	}
}

// AdvanceLifecycle walks the stage machine toward the age-derived target
// and recomputes size. Multi-stage jumps (time skip, stale restored age)
// are walked one adjacent step at a time because the machine only permits
// adjacent transitions; a rejected step halts the walk and logs rather
// than crashing the tick. At most 3 steps, one per stage boundary.
func AdvanceLifecycle(lc *components.Lifecycle, tick int64) {
	target := StageForAge(lc.Age)

	for steps := 0; lc.Stage() != target && steps < 3; steps++ {
		next := lc.Stage() + 1
		if _, err := lc.Stages.TryTransition(next, tick, "age"); err != nil {
			slog.Warn("stage advance rejected",
				"tick", tick,
				"stage", lc.Stage().String(),
				"target", target.String(),
				"error", err,
			)
			break
		}
	}

	lc.Size = ComputeSize(lc.Stage(), lc.Age, lc.SizeModifier)
}

// ComputeSize derives body size from stage, age within the Baby window,
// and the fixed genetic size modifier. Babies grow linearly from baby
// size to adult size; later stages hold adult size.
func ComputeSize(stage components.Stage, age int64, sizeModifier float64) float64 {
	c := config.Cfg().Lifecycle

	size := c.AdultSize
	if stage == components.StageBaby && c.BabyEndTicks > 0 {
		t := float64(age) / float64(c.BabyEndTicks)
		if t < 0 {
			t = 0
		}
		if t > 1 {
			t = 1
		}
		size = c.BabySize + (c.AdultSize-c.BabySize)*t
	}
	return size * sizeModifier
}
