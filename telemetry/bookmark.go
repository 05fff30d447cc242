package telemetry

import "log/slog"

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkPopulationCrash   BookmarkType = "population_crash"
	BookmarkEmergencyRecovery BookmarkType = "emergency_recovery"
	BookmarkMassStarvation    BookmarkType = "mass_starvation"
	BookmarkStableTank        BookmarkType = "stable_tank"
)

// Bookmark marks an interesting moment in a run.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int64        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector watches window stats for moments worth flagging.
type BookmarkDetector struct {
	critical int

	prevPopulation int
	hasPrev        bool
	stableWindows  int
	stableFlagged  bool
}

// stableWindowsNeeded is how many consecutive low-churn windows mark a
// stable tank.
const stableWindowsNeeded = 10

// NewBookmarkDetector creates a detector. critical is the population
// below which a crash is flagged.
func NewBookmarkDetector(critical int) *BookmarkDetector {
	return &BookmarkDetector{critical: critical}
}

// Observe inspects one window and returns any triggered bookmarks.
func (d *BookmarkDetector) Observe(stats WindowStats) []Bookmark {
	var marks []Bookmark

	if d.hasPrev && d.prevPopulation >= d.critical && stats.Population < d.critical {
		marks = append(marks, Bookmark{
			Type:        BookmarkPopulationCrash,
			Tick:        stats.WindowEndTick,
			Description: "population fell below the critical threshold",
		})
	}

	if stats.BirthsEmergency > 0 {
		marks = append(marks, Bookmark{
			Type:        BookmarkEmergencyRecovery,
			Tick:        stats.WindowEndTick,
			Description: "emergency reproduction fired",
		})
	}

	if stats.Population > 0 && stats.DeathsStarvation > stats.Population/2 {
		marks = append(marks, Bookmark{
			Type:        BookmarkMassStarvation,
			Tick:        stats.WindowEndTick,
			Description: "starvation deaths exceeded half the surviving population",
		})
	}

	// A tank is stable after a sustained run of low birth/death churn.
	churn := stats.Births() + stats.Deaths()
	if stats.Population >= d.critical && churn*10 <= stats.Population {
		d.stableWindows++
	} else {
		d.stableWindows = 0
		d.stableFlagged = false
	}
	if d.stableWindows >= stableWindowsNeeded && !d.stableFlagged {
		d.stableFlagged = true
		marks = append(marks, Bookmark{
			Type:        BookmarkStableTank,
			Tick:        stats.WindowEndTick,
			Description: "population churn stayed low for a sustained stretch",
		})
	}

	d.prevPopulation = stats.Population
	d.hasPrev = true
	return marks
}
