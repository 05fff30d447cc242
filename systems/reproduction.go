package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/reef/components"
	"github.com/pthm-cable/reef/config"
	"github.com/pthm-cable/reef/genome"
)

// SpawnRequest asks the entity-lifecycle collaborator for a new agent.
// Requests are deferred; nothing is inserted until the end-of-tick batch.
type SpawnRequest struct {
	X, Y       float64
	Genome     genome.Genome
	ParentID   uint64 // 0 for emergency/founder spawns
	Generation uint32
	Species    uint8
	Energy     float64
	Reason     string
}

// Spawner buffers spawn requests and answers population queries against
// the tick-start snapshot plus already-accepted requests.
type Spawner interface {
	RequestSpawn(req SpawnRequest) bool
	Population() int
}

// CloneSource supplies a genome for emergency spawns: a surviving or
// recently registered agent's genome, if any exists.
type CloneSource interface {
	SampleGenome(rng *rand.Rand) (genome.Genome, uint8, bool)
}

// Orchestrator resolves the competing reproduction paths once per tick,
// in a strict order, against the population cap. It never mutates
// population membership itself; it only emits spawn requests.
type Orchestrator struct {
	filter *ecs.Filter7[
		components.Position,
		components.Velocity,
		components.Identity,
		components.Energy,
		components.Lifecycle,
		components.Reproduction,
		components.Mortal,
	]
	genetics genome.Genetics
	router   *Router

	lastEmergencyTick int64
}

// NewOrchestrator creates the per-tick reproduction sweep.
func NewOrchestrator(w *ecs.World, gen genome.Genetics, router *Router) *Orchestrator {
	return &Orchestrator{
		filter: ecs.NewFilter7[
			components.Position,
			components.Velocity,
			components.Identity,
			components.Energy,
			components.Lifecycle,
			components.Reproduction,
			components.Mortal,
		](w),
		genetics:          gen,
		router:            router,
		lastEmergencyTick: -1 << 62,
	}
}

// Update runs the sweep: cooldown decay, then the banked-asexual pass,
// then the trait-probability pass, then the emergency pass. Each pass
// reads the same snapshot and only emits spawn requests; the spawner's
// running count keeps the cap honest within a single sweep.
func (o *Orchestrator) Update(rng *rand.Rand, tick int64, reg Spawner, clones CloneSource) {
	o.decrementCooldowns()
	o.bankedPass(rng, tick, reg)
	o.traitPass(rng, tick, reg)
	o.emergencyPass(rng, tick, reg, clones)
}

func (o *Orchestrator) decrementCooldowns() {
	query := o.filter.Query()
	for query.Next() {
		_, _, _, _, _, rep, mortal := query.Get()
		if !mortal.IsActive() {
			continue
		}
		if rep.Cooldown > 0 {
			rep.Cooldown--
		}
	}
}

// bankedPass spawns offspring funded entirely from overflow banks.
func (o *Orchestrator) bankedPass(rng *rand.Rand, tick int64, reg Spawner) {
	cfg := config.Cfg()
	cost := cfg.Reproduction.OffspringEnergy
	credits := cfg.Reproduction.CreditsRequired

	query := o.filter.Query()
	for query.Next() {
		if reg.Population() >= cfg.Population.Max {
			query.Close()
			return
		}

		pos, _, id, _, lc, rep, mortal := query.Get()
		if !mortal.IsActive() {
			continue
		}
		if rep.OverflowBank < cost || rep.Cooldown > 0 || !lc.IsAdult() {
			continue
		}
		if credits > 0 && !rep.HasCredits(credits) {
			continue
		}

		child, _ := rep.TriggerAsexual(
			id.Genes,
			o.genetics,
			cfg.Reproduction.CooldownTicks,
			cfg.Reproduction.MutationRate,
			cfg.Reproduction.MutationStrength,
			rng,
		)

		x, y := offspringPosition(pos, rng)
		ok := reg.RequestSpawn(SpawnRequest{
			X: x, Y: y,
			Genome:     child,
			ParentID:   id.ID,
			Generation: id.Generation + 1,
			Species:    id.Species,
			Energy:     cost,
			Reason:     "banked_asexual",
		})
		if !ok {
			// Cap or registry refusal: undo the cooldown so the agent
			// stays eligible next tick. The bank was not touched yet.
			rep.Cooldown = 0
			continue
		}

		rep.ConsumeBank(cost)
		if credits > 0 {
			rep.ConsumeCredits(credits)
		}
	}
}

// traitPass rolls each remaining eligible adult's genetic asexual
// probability; success is self-funded from current energy, not the bank.
func (o *Orchestrator) traitPass(rng *rand.Rand, tick int64, reg Spawner) {
	cfg := config.Cfg()

	query := o.filter.Query()
	for query.Next() {
		if reg.Population() >= cfg.Population.Max {
			query.Close()
			return
		}

		pos, _, id, energy, lc, rep, mortal := query.Get()
		if !mortal.IsActive() {
			continue
		}
		if !rep.CanAsexuallyReproduce(lc.Stage(), energy.Current, energy.Max) {
			continue
		}

		if rng.Float64() >= id.Genes.AsexualChance {
			continue
		}

		child, frac := rep.TriggerAsexual(
			id.Genes,
			o.genetics,
			cfg.Reproduction.CooldownTicks,
			cfg.Reproduction.MutationRate,
			cfg.Reproduction.MutationStrength,
			rng,
		)

		// Withdraw the transfer through the router so the books balance;
		// the offspring is seeded with exactly what the parent lost.
		transfer := -o.router.ModifyEnergy(energy, rep, mortal, *pos,
			-energy.Current*frac, SourceBirth, tick)

		x, y := offspringPosition(pos, rng)
		ok := reg.RequestSpawn(SpawnRequest{
			X: x, Y: y,
			Genome:     child,
			ParentID:   id.ID,
			Generation: id.Generation + 1,
			Species:    id.Species,
			Energy:     transfer,
			Reason:     "trait_asexual",
		})
		if !ok {
			// Refund: the registry refused after the withdrawal.
			o.router.ModifyEnergy(energy, rep, mortal, *pos, transfer, SourceBirth, tick)
			rep.Cooldown = 0
		}
	}
}

// emergencyPass recovers a collapsing population. At zero population it
// always fires; below the critical threshold the probability is 1.0, and
// between critical and max it decays quadratically. At most one spawn per
// pass, rate-limited by the emergency cooldown.
func (o *Orchestrator) emergencyPass(rng *rand.Rand, tick int64, reg Spawner, clones CloneSource) {
	cfg := config.Cfg()
	pop := reg.Population()

	if pop >= cfg.Population.Max {
		return
	}
	if pop > 0 && tick-o.lastEmergencyTick < cfg.Population.EmergencyCooldownTicks {
		return
	}

	prob := emergencyProbability(pop, cfg.Population.Critical, cfg.Population.Max)
	if prob <= 0 || (prob < 1 && rng.Float64() >= prob) {
		return
	}

	g, species, ok := clones.SampleGenome(rng)
	if !ok {
		// Nothing to clone; seed a founder genome instead.
		g = o.genetics.RandomGenome(rng)
		species = 0
	}

	if reg.RequestSpawn(SpawnRequest{
		X:       rng.Float64() * cfg.World.Width,
		Y:       rng.Float64() * cfg.World.Height,
		Genome:  g,
		Species: species,
		Energy:  cfg.Reproduction.OffspringEnergy,
		Reason:  "emergency",
	}) {
		o.lastEmergencyTick = tick
	}
}

// emergencyProbability is 1.0 at or below the critical population and
// decays quadratically to 0 at the cap.
func emergencyProbability(pop, critical, max int) float64 {
	if pop <= critical {
		return 1.0
	}
	if pop >= max || max <= critical {
		return 0
	}
	f := float64(max-pop) / float64(max-critical)
	return f * f
}

func offspringPosition(pos *components.Position, rng *rand.Rand) (float64, float64) {
	cfg := config.Cfg()
	off := cfg.Reproduction.SpawnOffset
	x := clampf(pos.X+(rng.Float64()-0.5)*off*2, 0, cfg.World.Width)
	y := clampf(pos.Y+(rng.Float64()-0.5)*off*2, 0, cfg.World.Height)
	return x, y
}
