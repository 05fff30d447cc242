package components

// Energy ratio thresholds for status queries. Ratios rather than absolute
// energy keep the thresholds size-independent.
const (
	StarvingRatio = 0.10
	CriticalRatio = 0.25
	LowRatio      = 0.50
)

// Energy tracks an agent's metabolic ledger. Current stays within
// [0, Max] at every externally observable point; all mutation goes
// through the systems energy router.
type Energy struct {
	Current        float64
	Max            float64 // > 0; may change as size changes
	BaseMetabolism float64 // >= 0, per-tick existence burn baseline

	// CachedDead mirrors mortal state for hot-path checks. The router
	// clears it if energy recovers while the agent is still active.
	CachedDead bool
}

// Ratio returns Current/Max, or 0 when Max is not positive.
func (e *Energy) Ratio() float64 {
	if e.Max <= 0 {
		return 0
	}
	return e.Current / e.Max
}

// IsStarving reports energy below the starvation threshold.
func (e *Energy) IsStarving() bool { return e.Ratio() < StarvingRatio }

// IsCritical reports energy below the critical threshold.
func (e *Energy) IsCritical() bool { return e.Ratio() < CriticalRatio }

// IsLow reports energy below the low threshold.
func (e *Energy) IsLow() bool { return e.Ratio() < LowRatio }

// IsSafe reports energy at or above the low threshold.
func (e *Energy) IsSafe() bool { return e.Ratio() >= LowRatio }
