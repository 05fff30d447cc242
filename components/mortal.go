package components

import (
	"strings"

	"github.com/pthm-cable/reef/fsm"
)

// MortalState is the Active/Dead/Removed tri-state. Dead and Removed are
// terminal except for the Dead -> Removed cleanup step.
type MortalState uint8

const (
	MortalActive MortalState = iota
	MortalDead
	MortalRemoved
)

func (s MortalState) String() string {
	switch s {
	case MortalActive:
		return "active"
	case MortalDead:
		return "dead"
	case MortalRemoved:
		return "removed"
	default:
		return "invalid"
	}
}

// DeathCause is the closed set of terminal reasons. CauseUnknown exists
// purely to surface bugs and must never appear in healthy runs.
type DeathCause uint8

const (
	CauseNone DeathCause = iota
	CauseStarvation
	CauseOldAge
	CausePredation
	CauseMigration
	CauseUnknown
)

func (c DeathCause) String() string {
	switch c {
	case CauseNone:
		return "none"
	case CauseStarvation:
		return "starvation"
	case CauseOldAge:
		return "old_age"
	case CausePredation:
		return "predation"
	case CauseMigration:
		return "migration"
	default:
		return "unknown"
	}
}

// ParseMortalState maps a persisted state name back to its value.
func ParseMortalState(s string) (MortalState, bool) {
	switch s {
	case "active":
		return MortalActive, true
	case "dead":
		return MortalDead, true
	case "removed":
		return MortalRemoved, true
	}
	return MortalActive, false
}

// ParseDeathCause maps a persisted cause label back to a cause and debug
// tag. Unrecognized labels come back as CauseUnknown with the label as tag.
func ParseDeathCause(label string) (DeathCause, string) {
	switch label {
	case "none":
		return CauseNone, ""
	case "starvation":
		return CauseStarvation, ""
	case "old_age":
		return CauseOldAge, ""
	case "predation":
		return CausePredation, ""
	case "migration":
		return CauseMigration, ""
	}
	if tag, ok := strings.CutPrefix(label, "unknown_"); ok {
		return CauseUnknown, tag
	}
	return CauseUnknown, label
}

// MortalTable permits Active -> Dead -> Removed, plus Active -> Removed
// for agents removed alive (migration out of the tank).
func MortalTable() map[MortalState][]MortalState {
	return map[MortalState][]MortalState{
		MortalActive: {MortalDead, MortalRemoved},
		MortalDead:   {MortalRemoved},
	}
}

// Mortal tracks the terminal state machine and the single recorded cause.
type Mortal struct {
	State *fsm.Machine[MortalState]

	Cause DeathCause
	// CauseTag carries the debug suffix for CauseUnknown (logged as
	// "unknown_<tag>"); empty for every other cause.
	CauseTag string
}

// NewMortal creates an active mortal ledger.
func NewMortal() Mortal {
	return Mortal{State: fsm.New(MortalActive, MortalTable(), true)}
}

// IsActive reports whether the agent is still alive and present.
func (m *Mortal) IsActive() bool { return m.State.Current() == MortalActive }

// IsDead reports whether the agent has died but not yet been removed.
func (m *Mortal) IsDead() bool { return m.State.Current() == MortalDead }

// CauseLabel renders the cause for logs and persistence, including the
// unknown debug tag.
func (m *Mortal) CauseLabel() string {
	if m.Cause == CauseUnknown && m.CauseTag != "" {
		return "unknown_" + m.CauseTag
	}
	return m.Cause.String()
}
