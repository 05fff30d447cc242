// Package sim wires the tank together: the ark world, the per-tick
// update order, and the deferred spawn/remove registry. All structural
// changes happen in one batch at the end of each tick.
package sim

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/reef/components"
	"github.com/pthm-cable/reef/config"
	"github.com/pthm-cable/reef/genome"
	"github.com/pthm-cable/reef/systems"
)

// Recorder receives simulation events. Implementations must not fail;
// the telemetry collector satisfies this.
type Recorder interface {
	systems.Accounting
	RecordBirth(reason string)
	RecordDeath(cause string)
}

// Options configures a new Simulation.
type Options struct {
	Seed     int64
	Genetics genome.Genetics // nil uses genome.Standard
	Recorder Recorder        // nil disables event recording
}

// Simulation holds the complete tank state.
type Simulation struct {
	world *ecs.World
	rng   *rand.Rand

	mapper *ecs.Map7[
		components.Position,
		components.Velocity,
		components.Identity,
		components.Energy,
		components.Lifecycle,
		components.Reproduction,
		components.Mortal,
	]
	filter *ecs.Filter7[
		components.Position,
		components.Velocity,
		components.Identity,
		components.Energy,
		components.Lifecycle,
		components.Reproduction,
		components.Mortal,
	]

	// Individual component mappers for lookups
	posMap    *ecs.Map1[components.Position]
	velMap    *ecs.Map1[components.Velocity]
	idMap     *ecs.Map1[components.Identity]
	energyMap *ecs.Map1[components.Energy]
	lcMap     *ecs.Map1[components.Lifecycle]
	repMap    *ecs.Map1[components.Reproduction]
	mortalMap *ecs.Map1[components.Mortal]

	foodMapper *ecs.Map2[components.Position, components.Food]

	genetics genome.Genetics
	router   *systems.Router
	orch     *systems.Orchestrator
	recorder Recorder

	// Deferred structural changes, applied at end of tick
	pendingSpawns  []systems.SpawnRequest
	pendingRemoves []removal
	pendingFood    []foodDrop

	// Recently registered genomes for emergency cloning
	recent genomeRing

	seed         int64
	tick         int64
	nextID       uint64
	alive        int
	born         int64
	died         int64
	timeModifier float64
}

type removal struct {
	entity ecs.Entity
	reason string
}

type foodDrop struct {
	x, y, amount float64
}

// New creates a simulation with the initial population spawned.
// config.Init must have been called first.
func New(opts Options) *Simulation {
	s := newSimulation(opts)
	s.spawnInitialPopulation()
	s.applyDeferred()
	return s
}

// NewFromRecords rebuilds a simulation from previously exported agent
// records instead of spawning founders. tick restores the simulation
// clock so cooldowns and age-relative logic line up.
func NewFromRecords(opts Options, records []AgentRecord, tick int64) (*Simulation, error) {
	s := newSimulation(opts)
	s.tick = tick
	if err := s.Restore(records); err != nil {
		return nil, err
	}
	return s, nil
}

func newSimulation(opts Options) *Simulation {
	world := ecs.NewWorld()

	gen := opts.Genetics
	if gen == nil {
		gen = genome.Standard{}
	}

	s := &Simulation{
		world:    world,
		rng:      rand.New(rand.NewSource(opts.Seed)),
		seed:     opts.Seed,
		genetics: gen,
		recorder: opts.Recorder,
		mapper: ecs.NewMap7[
			components.Position,
			components.Velocity,
			components.Identity,
			components.Energy,
			components.Lifecycle,
			components.Reproduction,
			components.Mortal,
		](world),
		filter: ecs.NewFilter7[
			components.Position,
			components.Velocity,
			components.Identity,
			components.Energy,
			components.Lifecycle,
			components.Reproduction,
			components.Mortal,
		](world),
		posMap:       ecs.NewMap1[components.Position](world),
		velMap:       ecs.NewMap1[components.Velocity](world),
		idMap:        ecs.NewMap1[components.Identity](world),
		energyMap:    ecs.NewMap1[components.Energy](world),
		lcMap:        ecs.NewMap1[components.Lifecycle](world),
		repMap:       ecs.NewMap1[components.Reproduction](world),
		mortalMap:    ecs.NewMap1[components.Mortal](world),
		foodMapper:   ecs.NewMap2[components.Position, components.Food](world),
		timeModifier: 1.0,
	}

	var acct systems.Accounting
	if s.recorder != nil {
		acct = s.recorder
	}
	s.router = systems.NewRouter(acct, s)
	s.orch = systems.NewOrchestrator(world, gen, s.router)

	return s
}

// spawnInitialPopulation seeds the tank with random founders.
func (s *Simulation) spawnInitialPopulation() {
	cfg := config.Cfg()

	for i := 0; i < cfg.Population.Initial; i++ {
		g := s.genetics.RandomGenome(s.rng)
		maxEnergy := cfg.Energy.MaxEnergy * g.MaxEnergy

		s.pendingSpawns = append(s.pendingSpawns, systems.SpawnRequest{
			X:       s.rng.Float64() * cfg.World.Width,
			Y:       s.rng.Float64() * cfg.World.Height,
			Genome:  g,
			Species: uint8(s.rng.Intn(len(cfg.Species))),
			Energy:  maxEnergy * cfg.Energy.InitialRatio,
			Reason:  "founder",
		})
	}
}

// SetTimeModifier scales all metabolic burn, for day/night style cycles.
func (s *Simulation) SetTimeModifier(m float64) {
	if m > 0 {
		s.timeModifier = m
	}
}

// Tick returns the current simulation tick.
func (s *Simulation) Tick() int64 { return s.tick }

// Seed returns the RNG seed the simulation was started with.
func (s *Simulation) Seed() int64 { return s.seed }

// Alive returns the number of agents present in the world, including
// dead agents not yet removed.
func (s *Simulation) Alive() int { return s.alive }

// Born returns the total number of agents spawned, founders included.
func (s *Simulation) Born() int64 { return s.born }

// Died returns the total number of agents removed dead.
func (s *Simulation) Died() int64 { return s.died }
