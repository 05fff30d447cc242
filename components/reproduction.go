package components

import (
	"math/rand"

	"github.com/pthm-cable/reef/genome"
)

// Energy-ratio gates for reproduction. The asexual bar is stricter because
// asexual reproduction is entirely self-funded; the sexual path splits the
// cost across two parents.
const (
	ReproduceRatio = 0.90
	AsexualRatio   = 0.95
)

// Reproduction tracks reproduction timing and resourcing: the cooldown
// timer, the overflow energy bank, and optional externally granted credits.
type Reproduction struct {
	Cooldown     int64   // ticks until eligible again, decremented to 0
	OverflowBank float64 // >= 0, capped at maxEnergy * bank multiplier
	Credits      int     // optional external currency; never decays
}

// BankOverflow deposits up to maxBank - OverflowBank and returns the amount
// actually banked so the caller can route the remainder. No-op for
// amount <= 0.
func (r *Reproduction) BankOverflow(amount, maxBank float64) float64 {
	if amount <= 0 {
		return 0
	}
	room := maxBank - r.OverflowBank
	if room <= 0 {
		return 0
	}
	banked := min(amount, room)
	r.OverflowBank += banked
	return banked
}

// ConsumeBank withdraws up to maxAmount and returns the amount used.
func (r *Reproduction) ConsumeBank(maxAmount float64) float64 {
	if maxAmount <= 0 || r.OverflowBank <= 0 {
		return 0
	}
	used := min(r.OverflowBank, maxAmount)
	r.OverflowBank -= used
	return used
}

// CanReproduce reports baseline eligibility: Adult, off cooldown, and
// energy at or above 90% of capacity.
func (r *Reproduction) CanReproduce(stage Stage, energy, maxEnergy float64) bool {
	if stage != StageAdult || r.Cooldown > 0 || maxEnergy <= 0 {
		return false
	}
	return energy/maxEnergy >= ReproduceRatio
}

// CanAsexuallyReproduce additionally requires 95% energy.
func (r *Reproduction) CanAsexuallyReproduce(stage Stage, energy, maxEnergy float64) bool {
	if !r.CanReproduce(stage, energy, maxEnergy) {
		return false
	}
	return energy/maxEnergy >= AsexualRatio
}

// HasCredits reports whether at least n credits are available.
func (r *Reproduction) HasCredits(n int) bool { return r.Credits >= n }

// ConsumeCredits spends n credits; returns false (without mutating) when
// the balance is insufficient.
func (r *Reproduction) ConsumeCredits(n int) bool {
	if n <= 0 {
		return true
	}
	if r.Credits < n {
		return false
	}
	r.Credits -= n
	return true
}

// GrantCredits adds externally earned reproduction credits.
func (r *Reproduction) GrantCredits(n int) {
	if n > 0 {
		r.Credits += n
	}
}

// TriggerAsexual starts the cooldown and delegates offspring genome
// construction to the genetics collaborator. Returns the offspring genome
// and the fraction of the parent's current energy to transfer. This ledger
// owns only reproduction timing and resourcing; trait work stays in the
// genome package.
func (r *Reproduction) TriggerAsexual(
	parent genome.Genome,
	gen genome.Genetics,
	cooldown int64,
	mutationRate, mutationStrength float64,
	rng *rand.Rand,
) (genome.Genome, float64) {
	r.Cooldown = cooldown
	child := gen.Mutate(parent, mutationRate, mutationStrength, rng)
	return child, parent.BirthTransfer
}
