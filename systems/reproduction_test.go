package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/reef/components"
	"github.com/pthm-cable/reef/config"
	"github.com/pthm-cable/reef/genome"
)

// fakeRegistry implements Spawner with an immediate population counter.
type fakeRegistry struct {
	pop      int
	max      int
	requests []SpawnRequest
}

func (f *fakeRegistry) RequestSpawn(req SpawnRequest) bool {
	if f.pop >= f.max {
		return false
	}
	f.requests = append(f.requests, req)
	f.pop++
	return true
}

func (f *fakeRegistry) Population() int { return f.pop }

func countReason(reqs []SpawnRequest, reason string) int {
	n := 0
	for _, r := range reqs {
		if r.Reason == reason {
			n++
		}
	}
	return n
}

// fakeClones serves a fixed genome.
type fakeClones struct {
	g     genome.Genome
	empty bool
}

func (f *fakeClones) SampleGenome(rng *rand.Rand) (genome.Genome, uint8, bool) {
	if f.empty {
		return genome.Genome{}, 0, false
	}
	return f.g, 1, true
}

type testWorld struct {
	world  *ecs.World
	mapper *ecs.Map7[
		components.Position,
		components.Velocity,
		components.Identity,
		components.Energy,
		components.Lifecycle,
		components.Reproduction,
		components.Mortal,
	]
	repMap *ecs.Map1[components.Reproduction]
	enMap  *ecs.Map1[components.Energy]
	nextID uint64
}

func newTestWorld() *testWorld {
	w := ecs.NewWorld()
	return &testWorld{
		world: w,
		mapper: ecs.NewMap7[
			components.Position,
			components.Velocity,
			components.Identity,
			components.Energy,
			components.Lifecycle,
			components.Reproduction,
			components.Mortal,
		](w),
		repMap: ecs.NewMap1[components.Reproduction](w),
		enMap:  ecs.NewMap1[components.Energy](w),
	}
}

// addAdult creates an active adult agent with the given ledger values.
func (tw *testWorld) addAdult(energy, max, bank float64, cooldown int64, genes genome.Genome) ecs.Entity {
	cfg := config.Cfg()
	tw.nextID++

	pos := components.Position{X: 100, Y: 100}
	vel := components.Velocity{}
	id := components.Identity{ID: tw.nextID, LastPredatorTick: -1, Genes: genes}
	en := components.Energy{Current: energy, Max: max, BaseMetabolism: cfg.Energy.BaseMetabolism}
	lc := components.NewLifecycle(cfg.Lifecycle.MaxAgeTicks, 1.0)
	lc.Age = cfg.Lifecycle.JuvenileEndTicks
	AdvanceLifecycle(&lc, 0)
	rep := components.Reproduction{OverflowBank: bank, Cooldown: cooldown}
	mortal := components.NewMortal()

	return tw.mapper.NewEntity(&pos, &vel, &id, &en, &lc, &rep, &mortal)
}

func TestOrchestratorDecrementsCooldowns(t *testing.T) {
	initConfig()
	tw := newTestWorld()
	e := tw.addAdult(50, 100, 0, 3, genome.Baseline())

	orch := NewOrchestrator(tw.world, genome.Standard{}, NewRouter(nil, nil))
	reg := &fakeRegistry{pop: config.Cfg().Population.Max, max: config.Cfg().Population.Max}
	rng := rand.New(rand.NewSource(1))

	for i, want := range []int64{2, 1, 0, 0} {
		orch.Update(rng, int64(i), reg, &fakeClones{empty: true})
		if got := tw.repMap.Get(e).Cooldown; got != want {
			t.Errorf("tick %d: cooldown = %d, want %d", i, got, want)
		}
	}
}

func TestBankedPassSpawns(t *testing.T) {
	initConfig()
	cfg := config.Cfg()
	tw := newTestWorld()
	e := tw.addAdult(50, 100, cfg.Reproduction.OffspringEnergy+5, 1, genome.Baseline())

	orch := NewOrchestrator(tw.world, genome.Standard{}, NewRouter(nil, nil))
	// Room for exactly one more agent; the spawn fills the cap so no
	// other pass can piggyback.
	reg := &fakeRegistry{pop: 1, max: 2}

	rng := rand.New(rand.NewSource(2))
	orch.Update(rng, 1, reg, &fakeClones{empty: true})

	if len(reg.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(reg.requests))
	}
	req := reg.requests[0]
	if req.Reason != "banked_asexual" {
		t.Errorf("reason = %q", req.Reason)
	}
	if req.Energy != cfg.Reproduction.OffspringEnergy {
		t.Errorf("offspring energy = %v, want %v", req.Energy, cfg.Reproduction.OffspringEnergy)
	}
	if req.ParentID != 1 || req.Generation != 1 {
		t.Errorf("lineage wrong: %+v", req)
	}

	rep := tw.repMap.Get(e)
	if math.Abs(rep.OverflowBank-5) > 1e-12 {
		t.Errorf("bank after spawn = %v, want 5", rep.OverflowBank)
	}
	if rep.Cooldown != cfg.Reproduction.CooldownTicks {
		t.Errorf("cooldown = %d, want %d", rep.Cooldown, cfg.Reproduction.CooldownTicks)
	}
}

func TestBankedPassRespectsCap(t *testing.T) {
	initConfig()
	cfg := config.Cfg()
	tw := newTestWorld()
	for i := 0; i < 3; i++ {
		tw.addAdult(50, 100, cfg.Reproduction.OffspringEnergy*2, 1, genome.Baseline())
	}

	orch := NewOrchestrator(tw.world, genome.Standard{}, NewRouter(nil, nil))
	// Population already at cap: a full sweep must leave it unchanged.
	reg := &fakeRegistry{pop: cfg.Population.Max, max: cfg.Population.Max}

	orch.Update(rand.New(rand.NewSource(3)), 1, reg, &fakeClones{empty: true})

	if len(reg.requests) != 0 {
		t.Errorf("sweep at cap produced %d spawns", len(reg.requests))
	}
}

func TestBankedPassStopsAtCapMidPass(t *testing.T) {
	initConfig()
	cfg := config.Cfg()
	tw := newTestWorld()
	for i := 0; i < 5; i++ {
		tw.addAdult(50, 100, cfg.Reproduction.OffspringEnergy, 1, genome.Baseline())
	}

	orch := NewOrchestrator(tw.world, genome.Standard{}, NewRouter(nil, nil))
	// Room for exactly 2 more agents.
	reg := &fakeRegistry{pop: cfg.Population.Max - 2, max: cfg.Population.Max}

	orch.Update(rand.New(rand.NewSource(4)), 1, reg, &fakeClones{empty: true})

	if len(reg.requests) != 2 {
		t.Errorf("spawned %d, want exactly 2 (cap)", len(reg.requests))
	}
}

func TestTraitPassSelfFunds(t *testing.T) {
	initConfig()
	tw := newTestWorld()
	genes := genome.Baseline()
	genes.AsexualChance = 1.0 // always fires
	e := tw.addAdult(100, 100, 0, 1, genes)

	orch := NewOrchestrator(tw.world, genome.Standard{}, NewRouter(nil, nil))
	reg := &fakeRegistry{pop: 1, max: 2}

	orch.Update(rand.New(rand.NewSource(5)), 1, reg, &fakeClones{empty: true})

	if len(reg.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(reg.requests))
	}
	req := reg.requests[0]
	if req.Reason != "trait_asexual" {
		t.Errorf("reason = %q", req.Reason)
	}

	// Parent's loss funds the child exactly.
	en := tw.enMap.Get(e)
	want := 100 * genes.BirthTransfer
	if math.Abs(req.Energy-want) > 1e-9 {
		t.Errorf("transfer = %v, want %v", req.Energy, want)
	}
	if math.Abs((100-en.Current)-req.Energy) > 1e-12 {
		t.Errorf("conservation broken: parent lost %v, child got %v", 100-en.Current, req.Energy)
	}
}

func TestTraitPassRequires95Percent(t *testing.T) {
	initConfig()
	tw := newTestWorld()
	genes := genome.Baseline()
	genes.AsexualChance = 1.0
	tw.addAdult(94.9, 100, 0, 1, genes)

	orch := NewOrchestrator(tw.world, genome.Standard{}, NewRouter(nil, nil))
	reg := &fakeRegistry{pop: 1, max: config.Cfg().Population.Max}

	orch.Update(rand.New(rand.NewSource(6)), 1, reg, &fakeClones{empty: true})

	if n := countReason(reg.requests, "trait_asexual"); n != 0 {
		t.Errorf("94.9/100 spawned %d trait offspring", n)
	}
}

func TestEmergencyPassRecoversExtinction(t *testing.T) {
	initConfig()
	tw := newTestWorld()

	orch := NewOrchestrator(tw.world, genome.Standard{}, NewRouter(nil, nil))
	reg := &fakeRegistry{pop: 0, max: config.Cfg().Population.Max}
	clone := &fakeClones{g: genome.Baseline()}

	orch.Update(rand.New(rand.NewSource(7)), 100, reg, clone)

	if reg.pop != 1 {
		t.Fatalf("population after extinction pass = %d, want exactly 1", reg.pop)
	}
	if reg.requests[0].Reason != "emergency" {
		t.Errorf("reason = %q", reg.requests[0].Reason)
	}
	if reg.requests[0].Species != 1 {
		t.Errorf("clone species not used: %+v", reg.requests[0])
	}
}

func TestEmergencyPassFallsBackToRandomGenome(t *testing.T) {
	initConfig()
	tw := newTestWorld()
	orch := NewOrchestrator(tw.world, genome.Standard{}, NewRouter(nil, nil))
	reg := &fakeRegistry{pop: 0, max: config.Cfg().Population.Max}

	orch.Update(rand.New(rand.NewSource(8)), 100, reg, &fakeClones{empty: true})

	if reg.pop != 1 {
		t.Fatalf("population = %d, want 1", reg.pop)
	}
	if reg.requests[0].Genome.MaxEnergy <= 0 {
		t.Errorf("founder genome invalid: %+v", reg.requests[0].Genome)
	}
}

func TestEmergencyCooldownPreventsRefiring(t *testing.T) {
	initConfig()
	cfg := config.Cfg()
	tw := newTestWorld()
	orch := NewOrchestrator(tw.world, genome.Standard{}, NewRouter(nil, nil))
	clone := &fakeClones{g: genome.Baseline()}

	// Population below critical but nonzero: fires once, then the
	// cooldown holds it off.
	reg := &fakeRegistry{pop: cfg.Population.Critical - 1, max: cfg.Population.Max}
	rng := rand.New(rand.NewSource(9))

	orch.Update(rng, 100, reg, clone)
	first := len(reg.requests)
	orch.Update(rng, 101, reg, clone)

	if first != 1 {
		t.Fatalf("first pass spawned %d, want 1", first)
	}
	if len(reg.requests) != 1 {
		t.Errorf("cooldown ignored: %d spawns", len(reg.requests))
	}

	// After the cooldown expires it may fire again.
	orch.Update(rng, 100+cfg.Population.EmergencyCooldownTicks, reg, clone)
	if len(reg.requests) != 2 {
		t.Errorf("did not refire after cooldown: %d spawns", len(reg.requests))
	}
}

func TestEmergencyProbabilityShape(t *testing.T) {
	critical, max := 10, 200

	if p := emergencyProbability(0, critical, max); p != 1.0 {
		t.Errorf("p(0) = %v", p)
	}
	if p := emergencyProbability(critical, critical, max); p != 1.0 {
		t.Errorf("p(critical) = %v", p)
	}
	if p := emergencyProbability(max, critical, max); p != 0 {
		t.Errorf("p(max) = %v", p)
	}

	// Quadratic decay: halfway up the range, p = ((max-pop)/(max-critical))^2.
	pop := (critical + max) / 2
	f := float64(max-pop) / float64(max-critical)
	if p := emergencyProbability(pop, critical, max); math.Abs(p-f*f) > 1e-12 {
		t.Errorf("p(%d) = %v, want %v", pop, p, f*f)
	}

	// Strictly decreasing across the decay range.
	prev := 1.0
	for pop := critical + 1; pop < max; pop++ {
		p := emergencyProbability(pop, critical, max)
		if p >= prev {
			t.Fatalf("probability not decreasing at pop %d: %v >= %v", pop, p, prev)
		}
		prev = p
	}
}
