package sim

import (
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/reef/components"
	"github.com/pthm-cable/reef/config"
	"github.com/pthm-cable/reef/genome"
	"github.com/pthm-cable/reef/systems"
)

// recentGenomeCap bounds the emergency-clone pool.
const recentGenomeCap = 32

// genomeRing remembers the most recently registered genomes so the
// emergency pass can clone a proven lineage after a collapse.
type genomeRing struct {
	entries []genomeEntry
	head    int
}

type genomeEntry struct {
	g       genome.Genome
	species uint8
}

func (r *genomeRing) remember(g genome.Genome, species uint8) {
	if len(r.entries) < recentGenomeCap {
		r.entries = append(r.entries, genomeEntry{g: g, species: species})
		return
	}
	r.entries[r.head] = genomeEntry{g: g, species: species}
	r.head = (r.head + 1) % recentGenomeCap
}

// RequestSpawn buffers a spawn for the end-of-tick batch. Returns false
// when the population cap leaves no room; the caller stays eligible.
func (s *Simulation) RequestSpawn(req systems.SpawnRequest) bool {
	if s.Population() >= config.Cfg().Population.Max {
		return false
	}
	s.pendingSpawns = append(s.pendingSpawns, req)
	return true
}

// RequestRemove buffers an entity removal for the end-of-tick batch.
// Duplicate requests for the same entity are rejected.
func (s *Simulation) RequestRemove(entity ecs.Entity, reason string) bool {
	for _, r := range s.pendingRemoves {
		if r.entity == entity {
			return false
		}
	}
	s.pendingRemoves = append(s.pendingRemoves, removal{entity: entity, reason: reason})
	return true
}

// Population counts agents in the world plus spawns already accepted
// this tick, minus removals already queued, so the cap tracks the
// population the tick will end with.
func (s *Simulation) Population() int {
	return s.alive + len(s.pendingSpawns) - len(s.pendingRemoves)
}

// SpawnFood buffers a spilled-energy food drop. Food entities are
// inserted with the same end-of-tick batch as agents.
func (s *Simulation) SpawnFood(x, y, amount float64) error {
	s.pendingFood = append(s.pendingFood, foodDrop{x: x, y: y, amount: amount})
	return nil
}

// SampleGenome returns a recently registered genome for emergency
// cloning, or false when no agent has ever been registered.
func (s *Simulation) SampleGenome(rng *rand.Rand) (genome.Genome, uint8, bool) {
	if len(s.recent.entries) == 0 {
		return genome.Genome{}, 0, false
	}
	e := s.recent.entries[rng.Intn(len(s.recent.entries))]
	return e.g, e.species, true
}

// applyDeferred applies all buffered structural changes: removals,
// then spawns, then food drops. This is the only place entities are
// inserted into or removed from the world.
func (s *Simulation) applyDeferred() {
	for _, r := range s.pendingRemoves {
		if !s.world.Alive(r.entity) {
			slog.Warn("removal_target_missing", "reason", r.reason)
			continue
		}
		mortal := s.mortalMap.Get(r.entity)
		if mortal == nil {
			slog.Warn("removal_target_missing", "reason", r.reason)
			continue
		}
		if mortal.IsDead() {
			s.died++
		}
		// Both Dead -> Removed and Active -> Removed are always legal;
		// a panic here is a programming error in the transition table.
		mortal.State.MustTransition(components.MortalRemoved, s.tick, r.reason)
		s.world.RemoveEntity(r.entity)
		s.alive--
	}

	for _, req := range s.pendingSpawns {
		s.spawnAgent(req)
	}

	for _, f := range s.pendingFood {
		pos := components.Position{X: f.x, Y: f.y}
		food := components.Food{Amount: f.amount}
		s.foodMapper.NewEntity(&pos, &food)
	}

	s.pendingRemoves = s.pendingRemoves[:0]
	s.pendingSpawns = s.pendingSpawns[:0]
	s.pendingFood = s.pendingFood[:0]
}

// spawnAgent creates an agent entity from a spawn request. Genome
// multipliers scale the configured species baselines.
func (s *Simulation) spawnAgent(req systems.SpawnRequest) ecs.Entity {
	cfg := config.Cfg()
	g := req.Genome

	s.nextID++
	maxEnergy := cfg.Energy.MaxEnergy * g.MaxEnergy
	maxAge := int64(float64(cfg.Lifecycle.MaxAgeTicks) * g.MaxAge)

	pos := components.Position{X: req.X, Y: req.Y}
	vel := components.Velocity{}
	id := components.Identity{
		ID:               s.nextID,
		Generation:       req.Generation,
		ParentID:         req.ParentID,
		Species:          req.Species,
		BornTick:         s.tick,
		Genes:            g,
		LastPredatorTick: -1,
	}
	energy := components.Energy{
		Max:            maxEnergy,
		BaseMetabolism: cfg.Energy.BaseMetabolism * g.Metabolism,
	}
	lc := components.NewLifecycle(maxAge, g.Size)
	lc.Size = systems.ComputeSize(components.StageBaby, 0, g.Size)
	rep := components.Reproduction{Cooldown: cfg.Reproduction.CooldownTicks}
	mortal := components.NewMortal()

	// Seed through the router's gain path: a transfer beyond the
	// newborn's capacity banks and spills like any other gain, so what
	// the parent paid stays on the books.
	if req.Energy > 0 {
		s.router.ModifyEnergy(&energy, &rep, &mortal, pos, req.Energy, systems.SourceBirth, s.tick)
	}

	entity := s.mapper.NewEntity(&pos, &vel, &id, &energy, &lc, &rep, &mortal)
	s.alive++
	s.born++
	s.recent.remember(g, req.Species)

	if s.recorder != nil {
		s.recorder.RecordBirth(req.Reason)
	}

	return entity
}
