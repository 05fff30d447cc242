package systems

import (
	"log/slog"

	"github.com/pthm-cable/reef/components"
	"github.com/pthm-cable/reef/config"
)

// Source tags the origin of an energy delta for accounting.
type Source uint8

const (
	SourceMetabolism Source = iota
	SourceFeeding
	SourceCombat
	SourceMinigame
	SourceBirth    // parent -> offspring funding
	SourceTransfer // other cross-agent transfers
	SourceRestore  // persistence restore adjustments
)

func (s Source) String() string {
	switch s {
	case SourceMetabolism:
		return "metabolism"
	case SourceFeeding:
		return "feeding"
	case SourceCombat:
		return "combat"
	case SourceMinigame:
		return "minigame"
	case SourceBirth:
		return "birth"
	case SourceTransfer:
		return "transfer"
	case SourceRestore:
		return "restore"
	default:
		return "invalid"
	}
}

// Accounting observes committed energy changes. Implementations must not
// fail; the router never lets observability interrupt the mutation.
type Accounting interface {
	RecordEnergyChange(src Source, delta float64)
	RecordBanked(amount float64)
	RecordSpilled(amount float64)
}

// FoodSpawner converts spilled overflow into a Food entity near (x, y).
// Implementations may defer the actual creation to end of tick.
type FoodSpawner interface {
	SpawnFood(x, y, amount float64) error
}

// Router is the single mutation chokepoint for every energy-affecting
// event. All gains and losses, from any subsystem, flow through
// ModifyEnergy so clamping, overflow banking, and starvation death have
// exactly one implementation.
type Router struct {
	acct Accounting
	food FoodSpawner
}

// NewRouter creates the energy router. acct and food may be nil
// (accounting and spills are then skipped, with spills logged as lost).
func NewRouter(acct Accounting, food FoodSpawner) *Router {
	return &Router{acct: acct, food: food}
}

// ModifyEnergy applies a signed energy delta to one agent and returns the
// delta actually committed, which may differ from the request due to
// clamping. Callers performing cross-agent transfers reconcile on the
// return value.
//
// Gains beyond capacity are banked in the reproduction ledger up to
// max_energy x bank_multiplier; whatever still does not fit is spilled as
// a Food entity near pos. Losses clamp at zero, and hitting zero while
// active is the only path to Dead(starvation).
func (r *Router) ModifyEnergy(
	energy *components.Energy,
	rep *components.Reproduction,
	mortal *components.Mortal,
	pos components.Position,
	amount float64,
	src Source,
	tick int64,
) float64 {
	if amount > 0 {
		return r.applyGain(energy, rep, pos, amount, src)
	}
	return r.applyLoss(energy, mortal, amount, src, tick)
}

func (r *Router) applyGain(
	energy *components.Energy,
	rep *components.Reproduction,
	pos components.Position,
	amount float64,
	src Source,
) float64 {
	committed := amount
	if energy.Current+amount > energy.Max {
		committed = energy.Max - energy.Current
		excess := amount - committed

		bankCap := energy.Max * config.Cfg().Energy.BankMultiplier
		banked := rep.BankOverflow(excess, bankCap)
		if banked > 0 {
			r.recordBanked(banked)
		}

		if spill := excess - banked; spill > 0 {
			r.spill(pos, spill)
		}
	}

	energy.Current += committed
	r.report(src, committed)
	return committed
}

func (r *Router) applyLoss(
	energy *components.Energy,
	mortal *components.Mortal,
	amount float64,
	src Source,
	tick int64,
) float64 {
	committed := amount
	if energy.Current+amount < 0 {
		committed = -energy.Current
	}
	energy.Current += committed

	if energy.Current <= 0 && mortal.IsActive() {
		// A cause assigned before death, such as a pending migration,
		// takes precedence over the starvation default.
		cause := mortal.Cause
		if cause == components.CauseNone {
			cause = components.CauseStarvation
		}
		if _, err := mortal.State.TryTransition(components.MortalDead, tick, cause.String()); err != nil {
			// Only reachable if the mortal table changes underneath us.
			slog.Error("starvation transition rejected", "tick", tick, "error", err)
		} else {
			mortal.Cause = cause
			energy.CachedDead = true
		}
	} else if energy.Current > 0 && energy.CachedDead && mortal.IsActive() {
		// Stale flag from a restore or an out-of-order caller.
		energy.CachedDead = false
	}

	r.report(src, committed)
	return committed
}

// spill converts overflow into food near the agent, clamped to the tank.
// Collaborator failure degrades to a logged, bounded loss, never a crash.
func (r *Router) spill(pos components.Position, amount float64) {
	cfg := config.Cfg()
	x := clampf(pos.X+cfg.Reproduction.SpawnOffset, 0, cfg.World.Width)
	y := clampf(pos.Y, 0, cfg.World.Height)

	if r.food == nil {
		slog.Warn("energy spill lost, no food spawner", "amount", amount)
		return
	}
	if err := r.food.SpawnFood(x, y, amount); err != nil {
		slog.Warn("energy spill lost", "amount", amount, "error", err)
		return
	}
	r.recordSpilled(amount)
}

func (r *Router) report(src Source, delta float64) {
	if r.acct != nil && delta != 0 {
		r.acct.RecordEnergyChange(src, delta)
	}
}

func (r *Router) recordBanked(amount float64) {
	if r.acct != nil {
		r.acct.RecordBanked(amount)
	}
}

func (r *Router) recordSpilled(amount float64) {
	if r.acct != nil {
		r.acct.RecordSpilled(amount)
	}
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
