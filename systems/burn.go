// Package systems implements the per-tick logic of the tank simulation:
// metabolic burn, the energy delta router, lifecycle advancement,
// mortality, and the reproduction orchestrator.
package systems

import (
	"math"

	"github.com/pthm-cable/reef/components"
	"github.com/pthm-cable/reef/config"
)

// BurnBreakdown itemizes one tick of metabolic cost. Total is the sum of
// the parts; callers apply it as a negative delta through the router.
type BurnBreakdown struct {
	Existence  float64
	Metabolism float64
	Movement   float64
	Total      float64
}

// CalculateBurn computes the metabolic cost for one tick. Pure; no
// mutation. Existence cost scales with size^1.3 so big agents pay for
// their bulk; movement cost scales with the speed ratio and size^1.5 plus
// a cubic penalty above the sprint threshold. All parts are scaled by the
// life-stage multiplier and the caller's time modifier.
func CalculateBurn(
	energy *components.Energy,
	vel components.Velocity,
	maxSpeed float64,
	stage components.Stage,
	timeModifier float64,
	size float64,
) BurnBreakdown {
	cfg := config.Cfg()

	scale := stageMultiplier(stage) * timeModifier

	existence := cfg.Energy.ExistenceCost * math.Pow(size, 1.3)
	metabolism := energy.BaseMetabolism

	var movement float64
	if maxSpeed > 0 {
		speed := math.Hypot(vel.X, vel.Y)
		ratio := speed / maxSpeed
		if ratio > 1 {
			ratio = 1
		}
		movement = cfg.Energy.MoveCost * ratio * math.Pow(size, 1.5)
		if over := ratio - cfg.Energy.SprintThreshold; over > 0 {
			movement += cfg.Energy.SprintPenalty * over * over * over
		}
	}

	b := BurnBreakdown{
		Existence:  existence * scale,
		Metabolism: metabolism * scale,
		Movement:   movement * scale,
	}
	b.Total = b.Existence + b.Metabolism + b.Movement
	return b
}

func stageMultiplier(stage components.Stage) float64 {
	m := config.Cfg().Energy.StageMultipliers
	switch stage {
	case components.StageBaby:
		return m.Baby
	case components.StageJuvenile:
		return m.Juvenile
	case components.StageElder:
		return m.Elder
	default:
		return m.Adult
	}
}
