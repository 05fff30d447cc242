package sim

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/reef/components"
	"github.com/pthm-cable/reef/config"
	"github.com/pthm-cable/reef/systems"
)

// Step runs a single tick: aging and stage advance, metabolic burn,
// old-age checks, death cleanup, the reproduction sweep, then the
// deferred structural batch. Cleanup runs before the sweep so agents
// already dead this tick do not count against the population cap.
func (s *Simulation) Step() {
	s.tick++

	s.updateAging()
	s.updateBurn()
	s.cleanupDead()
	s.orch.Update(s.rng, s.tick, s, s)
	s.applyDeferred()
}

// updateAging increments ages, advances life stages, and applies
// old-age death.
func (s *Simulation) updateAging() {
	query := s.filter.Query()
	for query.Next() {
		_, _, _, energy, lc, _, mortal := query.Get()

		if !mortal.IsActive() {
			continue
		}

		lc.Age++
		systems.AdvanceLifecycle(lc, s.tick)
		systems.CheckOldAge(mortal, energy, lc, s.tick)
	}
}

// updateBurn applies each agent's per-tick metabolic cost through the
// energy router, so starvation deaths go through the single chokepoint.
func (s *Simulation) updateBurn() {
	cfg := config.Cfg()

	query := s.filter.Query()
	for query.Next() {
		pos, vel, id, energy, lc, rep, mortal := query.Get()

		if !mortal.IsActive() {
			continue
		}

		maxSpeed := 0.0
		if int(id.Species) < len(cfg.Species) {
			maxSpeed = cfg.Species[id.Species].MaxSpeed
		}

		burn := systems.CalculateBurn(energy, *vel, maxSpeed, lc.Stage(), s.timeModifier, lc.Size)
		s.router.ModifyEnergy(energy, rep, mortal, *pos, -burn.Total, systems.SourceMetabolism, s.tick)
	}
}

// cleanupDead collects dead agents and requests their removal. Agents
// that died without a recorded cause get one inferred here; that only
// happens on restored or externally mutated state.
func (s *Simulation) cleanupDead() {
	type deadInfo struct {
		entity ecs.Entity
		cause  string
	}
	var dead []deadInfo

	query := s.filter.Query()
	for query.Next() {
		entity := query.Entity()
		_, _, id, energy, lc, _, mortal := query.Get()

		if !mortal.IsDead() {
			continue
		}

		if mortal.Cause == components.CauseNone {
			mortal.Cause, mortal.CauseTag = systems.InferDeathCause(energy, lc, id, s.tick)
			if mortal.Cause == components.CauseUnknown {
				slog.Warn("death_cause_unknown",
					"tick", s.tick,
					"agent", id.ID,
					"tag", mortal.CauseTag,
				)
			}
		}

		dead = append(dead, deadInfo{entity: entity, cause: mortal.CauseLabel()})
	}

	for _, d := range dead {
		if s.RequestRemove(d.entity, d.cause) && s.recorder != nil {
			s.recorder.RecordDeath(d.cause)
		}
	}
}

// EnergyRatios samples the energy ratio of every active agent, for
// window statistics.
func (s *Simulation) EnergyRatios() []float64 {
	ratios := make([]float64, 0, s.alive)

	query := s.filter.Query()
	for query.Next() {
		_, _, _, energy, _, _, mortal := query.Get()
		if mortal.IsActive() {
			ratios = append(ratios, energy.Ratio())
		}
	}
	return ratios
}
