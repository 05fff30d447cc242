package components

import "github.com/pthm-cable/reef/fsm"

// Stage is an agent's life-cycle phase. Ordering is meaningful:
// stages only advance Baby -> Juvenile -> Adult -> Elder.
type Stage uint8

const (
	StageBaby Stage = iota
	StageJuvenile
	StageAdult
	StageElder
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageBaby:
		return "baby"
	case StageJuvenile:
		return "juvenile"
	case StageAdult:
		return "adult"
	case StageElder:
		return "elder"
	default:
		return "invalid"
	}
}

// ParseStage maps a persisted stage name back to its value.
func ParseStage(s string) (Stage, bool) {
	switch s {
	case "baby":
		return StageBaby, true
	case "juvenile":
		return StageJuvenile, true
	case "adult":
		return StageAdult, true
	case "elder":
		return StageElder, true
	}
	return StageBaby, false
}

// StageTable is the adjacent-forward transition table shared by every
// lifecycle machine. Elder is terminal.
func StageTable() map[Stage][]Stage {
	return map[Stage][]Stage{
		StageBaby:     {StageJuvenile},
		StageJuvenile: {StageAdult},
		StageAdult:    {StageElder},
	}
}

// Lifecycle tracks age-driven stage state and derived size.
type Lifecycle struct {
	Stages *fsm.Machine[Stage]

	Age    int64 // ticks, monotonically increasing
	MaxAge int64 // derived from genome at birth

	// Size is derived from stage, age-within-stage, and SizeModifier.
	Size         float64
	SizeModifier float64 // fixed genetic multiplier
}

// NewLifecycle creates a lifecycle ledger starting at Baby.
func NewLifecycle(maxAge int64, sizeModifier float64) Lifecycle {
	return Lifecycle{
		Stages:       fsm.New(StageBaby, StageTable(), true),
		MaxAge:       maxAge,
		SizeModifier: sizeModifier,
	}
}

// Stage returns the current life-cycle stage.
func (l *Lifecycle) Stage() Stage { return l.Stages.Current() }

func (l *Lifecycle) IsBaby() bool     { return l.Stage() == StageBaby }
func (l *Lifecycle) IsJuvenile() bool { return l.Stage() == StageJuvenile }
func (l *Lifecycle) IsAdult() bool    { return l.Stage() == StageAdult }
func (l *Lifecycle) IsElder() bool    { return l.Stage() == StageElder }

// AgeRatio returns age/maxAge, or 0 when MaxAge is not positive.
func (l *Lifecycle) AgeRatio() float64 {
	if l.MaxAge <= 0 {
		return 0
	}
	return float64(l.Age) / float64(l.MaxAge)
}

// ValidNextStages lists the stages reachable from the current one.
func (l *Lifecycle) ValidNextStages() []Stage {
	return l.Stages.ValidTargets()
}
