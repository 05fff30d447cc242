package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/reef/components"
	"github.com/pthm-cable/reef/config"
	"github.com/pthm-cable/reef/systems"
)

// Mating and external-event errors. Callers branch on these to decide
// whether to retry, so they are sentinels rather than opaque strings.
var (
	ErrInvalidMate = errors.New("invalid mate")
	ErrNotEligible = errors.New("not eligible to reproduce")
	ErrTooFar      = errors.New("mates out of proximity range")
	ErrAtCapacity  = errors.New("population at capacity")
)

// MatingOutcome carries the result of an external mating minigame.
// WeightA biases the genome crossover toward parent A; it is clamped
// to [0, 1].
type MatingOutcome struct {
	WeightA float64
}

// ResolveMating performs the sexual reproduction path for two agents.
// Both parents must independently pass the same gates as the asexual
// passes: active, adult, at or above the reproduction threshold, off
// cooldown, credit-eligible, and within mating proximity, with room
// under the population cap. Both parents fund the offspring from
// current energy; the spawn itself is deferred to end of tick.
func (s *Simulation) ResolveMating(a, b ecs.Entity, outcome MatingOutcome) error {
	if a == b {
		return fmt.Errorf("%w: agent cannot mate with itself", ErrInvalidMate)
	}

	pa, err := s.matingParent(a)
	if err != nil {
		return err
	}
	pb, err := s.matingParent(b)
	if err != nil {
		return err
	}

	cfg := config.Cfg()

	dx, dy := pa.pos.X-pb.pos.X, pa.pos.Y-pb.pos.Y
	if math.Hypot(dx, dy) > cfg.Reproduction.MateProximity {
		return ErrTooFar
	}
	if s.Population() >= cfg.Population.Max {
		return ErrAtCapacity
	}

	weightA := math.Min(math.Max(outcome.WeightA, 0), 1)
	child := s.genetics.Crossover(pa.id.Genes, weightA, pb.id.Genes, s.rng)
	child = s.genetics.Mutate(child, cfg.Reproduction.MutationRate, cfg.Reproduction.MutationStrength, s.rng)

	// Each parent contributes half its genetic birth transfer; the
	// offspring is seeded with exactly what the parents lost.
	fundA := -s.router.ModifyEnergy(pa.energy, pa.rep, pa.mortal, *pa.pos,
		-pa.energy.Current*pa.id.Genes.BirthTransfer*0.5, systems.SourceBirth, s.tick)
	fundB := -s.router.ModifyEnergy(pb.energy, pb.rep, pb.mortal, *pb.pos,
		-pb.energy.Current*pb.id.Genes.BirthTransfer*0.5, systems.SourceBirth, s.tick)

	generation := pa.id.Generation
	if pb.id.Generation > generation {
		generation = pb.id.Generation
	}

	ok := s.RequestSpawn(systems.SpawnRequest{
		X:          (pa.pos.X + pb.pos.X) / 2,
		Y:          (pa.pos.Y + pb.pos.Y) / 2,
		Genome:     child,
		ParentID:   pa.id.ID,
		Generation: generation + 1,
		Species:    pa.id.Species,
		Energy:     fundA + fundB,
		Reason:     "mating",
	})
	if !ok {
		// Refund both withdrawals; the registry refused after the gates.
		s.router.ModifyEnergy(pa.energy, pa.rep, pa.mortal, *pa.pos, fundA, systems.SourceBirth, s.tick)
		s.router.ModifyEnergy(pb.energy, pb.rep, pb.mortal, *pb.pos, fundB, systems.SourceBirth, s.tick)
		return ErrAtCapacity
	}

	credits := cfg.Reproduction.CreditsRequired
	for _, p := range []*parentRefs{pa, pb} {
		p.rep.Cooldown = cfg.Reproduction.CooldownTicks
		if credits > 0 {
			p.rep.ConsumeCredits(credits)
		}
	}
	return nil
}

type parentRefs struct {
	pos    *components.Position
	id     *components.Identity
	energy *components.Energy
	rep    *components.Reproduction
	mortal *components.Mortal
}

// matingParent resolves one parent's components and applies the
// per-parent eligibility gates.
func (s *Simulation) matingParent(e ecs.Entity) (*parentRefs, error) {
	if !s.world.Alive(e) {
		return nil, fmt.Errorf("%w: entity is not in the world", ErrInvalidMate)
	}
	p := &parentRefs{
		pos:    s.posMap.Get(e),
		id:     s.idMap.Get(e),
		energy: s.energyMap.Get(e),
		rep:    s.repMap.Get(e),
		mortal: s.mortalMap.Get(e),
	}
	if p.pos == nil || p.id == nil || p.energy == nil || p.rep == nil || p.mortal == nil {
		return nil, fmt.Errorf("%w: entity is not an agent", ErrInvalidMate)
	}
	if !p.mortal.IsActive() {
		return nil, fmt.Errorf("%w: agent %d is not active", ErrInvalidMate, p.id.ID)
	}

	lc := s.lcMap.Get(e)
	if lc == nil || !p.rep.CanReproduce(lc.Stage(), p.energy.Current, p.energy.Max) {
		return nil, fmt.Errorf("%w: agent %d", ErrNotEligible, p.id.ID)
	}
	if credits := config.Cfg().Reproduction.CreditsRequired; credits > 0 && !p.rep.HasCredits(credits) {
		return nil, fmt.Errorf("%w: agent %d lacks credits", ErrNotEligible, p.id.ID)
	}
	return p, nil
}

// ApplyMinigameResult routes a minigame's energy reward or penalty
// through the energy chokepoint and grants any earned reproduction
// credits. Returns the energy delta actually committed.
func (s *Simulation) ApplyMinigameResult(e ecs.Entity, energyDelta float64, credits int) (float64, error) {
	if !s.world.Alive(e) {
		return 0, fmt.Errorf("%w: entity is not in the world", ErrInvalidMate)
	}
	pos := s.posMap.Get(e)
	energy := s.energyMap.Get(e)
	rep := s.repMap.Get(e)
	mortal := s.mortalMap.Get(e)
	if pos == nil || energy == nil || rep == nil || mortal == nil {
		return 0, fmt.Errorf("%w: entity is not an agent", ErrInvalidMate)
	}
	if !mortal.IsActive() {
		return 0, fmt.Errorf("%w: agent is not active", ErrInvalidMate)
	}

	committed := s.router.ModifyEnergy(energy, rep, mortal, *pos, energyDelta, systems.SourceMinigame, s.tick)
	if credits > 0 {
		rep.GrantCredits(credits)
	}
	return committed, nil
}

// ApplyAttack applies predator damage to an agent. The encounter is
// stamped on the identity so restores can tell predation from
// starvation; a kill by this hit is recorded as predation.
func (s *Simulation) ApplyAttack(e ecs.Entity, damage float64) (float64, error) {
	if damage < 0 {
		return 0, fmt.Errorf("attack damage must be non-negative, got %v", damage)
	}
	if !s.world.Alive(e) {
		return 0, fmt.Errorf("%w: entity is not in the world", ErrInvalidMate)
	}

	pos := s.posMap.Get(e)
	id := s.idMap.Get(e)
	energy := s.energyMap.Get(e)
	rep := s.repMap.Get(e)
	mortal := s.mortalMap.Get(e)
	if pos == nil || id == nil || energy == nil || rep == nil || mortal == nil {
		return 0, fmt.Errorf("%w: entity is not an agent", ErrInvalidMate)
	}
	if !mortal.IsActive() {
		return 0, fmt.Errorf("%w: agent is not active", ErrInvalidMate)
	}

	id.LastPredatorTick = s.tick
	committed := s.router.ModifyEnergy(energy, rep, mortal, *pos, -damage, systems.SourceCombat, s.tick)

	// The router marks zero-energy deaths as starvation; a death caused
	// directly by this hit is predation.
	if mortal.IsDead() && mortal.Cause == components.CauseStarvation {
		mortal.Cause = components.CausePredation
	}
	return committed, nil
}

// Migrate removes a living agent from the tank without killing it.
// The removal is deferred to end of tick like any other.
func (s *Simulation) Migrate(e ecs.Entity) error {
	if !s.world.Alive(e) {
		return fmt.Errorf("%w: entity is not in the world", ErrInvalidMate)
	}
	id := s.idMap.Get(e)
	mortal := s.mortalMap.Get(e)
	if id == nil || mortal == nil {
		return fmt.Errorf("%w: entity is not an agent", ErrInvalidMate)
	}
	if !mortal.IsActive() {
		return fmt.Errorf("%w: agent is not active", ErrInvalidMate)
	}

	mortal.Cause = components.CauseMigration
	if s.RequestRemove(e, components.CauseMigration.String()) && s.recorder != nil {
		s.recorder.RecordDeath(components.CauseMigration.String())
	}
	return nil
}
