package genome

import (
	"math/rand"
	"testing"
)

func TestRandomGenomeWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var std Standard

	for i := 0; i < 200; i++ {
		g := std.RandomGenome(rng)
		checkBounds(t, g)
	}
}

func TestMutateClampsAndPreservesUnmutated(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	var std Standard
	base := Baseline()

	// rate=0 must be an identity.
	if got := std.Mutate(base, 0, 1.0, rng); got != base {
		t.Errorf("rate=0 mutated genome: %+v", got)
	}

	// rate=1 with large strength must stay in bounds.
	for i := 0; i < 200; i++ {
		g := std.Mutate(base, 1.0, 10.0, rng)
		checkBounds(t, g)
	}
}

func TestCrossoverWeightExtremes(t *testing.T) {
	a := Genome{MaxEnergy: 2.0, Size: 2.0, MaxAge: 2.0, Metabolism: 2.0, AsexualChance: 0.04, BirthTransfer: 0.6}
	b := Genome{MaxEnergy: 0.5, Size: 0.5, MaxAge: 0.5, Metabolism: 0.5, AsexualChance: 0.001, BirthTransfer: 0.2}
	var std Standard

	rng := rand.New(rand.NewSource(3))
	fullA := std.Crossover(a, 1.0, b, rng)
	// Jitter sigma is small; the child should land much closer to a than b.
	if fullA.MaxEnergy < 1.5 {
		t.Errorf("weightA=1 child MaxEnergy %v not near parent a", fullA.MaxEnergy)
	}

	fullB := std.Crossover(a, 0.0, b, rng)
	if fullB.MaxEnergy > 1.0 {
		t.Errorf("weightA=0 child MaxEnergy %v not near parent b", fullB.MaxEnergy)
	}
}

func TestDeterministicForFixedSeed(t *testing.T) {
	var std Standard
	g1 := std.RandomGenome(rand.New(rand.NewSource(42)))
	g2 := std.RandomGenome(rand.New(rand.NewSource(42)))
	if g1 != g2 {
		t.Errorf("same seed produced different genomes: %+v vs %+v", g1, g2)
	}
}

func checkBounds(t *testing.T, g Genome) {
	t.Helper()
	for name, v := range map[string]float64{
		"MaxEnergy": g.MaxEnergy, "Size": g.Size, "MaxAge": g.MaxAge, "Metabolism": g.Metabolism,
	} {
		if v < minMultiplier || v > maxMultiplier {
			t.Errorf("%s = %v out of [%v, %v]", name, v, minMultiplier, maxMultiplier)
		}
	}
	if g.AsexualChance < minChance || g.AsexualChance > maxChance {
		t.Errorf("AsexualChance = %v out of bounds", g.AsexualChance)
	}
	if g.BirthTransfer < minTransfer || g.BirthTransfer > maxTransfer {
		t.Errorf("BirthTransfer = %v out of bounds", g.BirthTransfer)
	}
}
