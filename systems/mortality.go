package systems

import (
	"log/slog"

	"github.com/pthm-cable/reef/components"
)

// PredatorEncounterWindow is how recently (in ticks) an agent must have
// taken combat damage for a zero-energy death to be inferred as predation.
const PredatorEncounterWindow = 120

// MarkDead transitions an active agent to Dead with the given cause.
// Returns false (logged, no mutation) when the transition is rejected —
// an agent can only die once.
func MarkDead(mortal *components.Mortal, energy *components.Energy, cause components.DeathCause, tick int64) bool {
	if _, err := mortal.State.TryTransition(components.MortalDead, tick, cause.String()); err != nil {
		slog.Debug("death rejected", "tick", tick, "cause", cause.String(), "error", err)
		return false
	}
	mortal.Cause = cause
	energy.CachedDead = true
	return true
}

// CheckOldAge kills agents whose age reached their genetic maximum.
func CheckOldAge(mortal *components.Mortal, energy *components.Energy, lc *components.Lifecycle, tick int64) bool {
	if !mortal.IsActive() || lc.Age < lc.MaxAge {
		return false
	}
	return MarkDead(mortal, energy, components.CauseOldAge, tick)
}

// InferDeathCause deterministically reconstructs a death cause when no
// explicit cause was recorded, e.g. restoring a record written by an older
// version. The unknown fallback exists purely to surface bugs; it must
// never appear in healthy data.
func InferDeathCause(
	energy *components.Energy,
	lc *components.Lifecycle,
	id *components.Identity,
	tick int64,
) (components.DeathCause, string) {
	switch {
	case energy.Current <= 0 && id.LastPredatorTick >= 0 && tick-id.LastPredatorTick <= PredatorEncounterWindow:
		return components.CausePredation, ""
	case energy.Current <= 0:
		return components.CauseStarvation, ""
	case lc.Age >= lc.MaxAge:
		return components.CauseOldAge, ""
	default:
		return components.CauseUnknown, "no_signal"
	}
}
