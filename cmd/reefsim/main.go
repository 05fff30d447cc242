package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/pthm-cable/reef/config"
	"github.com/pthm-cable/reef/persistence"
	"github.com/pthm-cable/reef/sim"
	"github.com/pthm-cable/reef/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for the end-of-run snapshot JSON")
	resume := flag.String("resume", "", "Snapshot file to resume from")
	dbPath := flag.String("db", "", "SQLite file to persist the tank state into at exit")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	om, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output dir", "error", err)
		os.Exit(1)
	}
	runID := uuid.New()
	if om != nil {
		defer om.Close()
		runID = om.RunID()
		if err := om.WriteConfig(cfg); err != nil {
			slog.Error("failed to write config snapshot", "error", err)
		}
	}

	collector := telemetry.NewCollector(int64(cfg.Telemetry.StatsWindowTicks))
	detector := telemetry.NewBookmarkDetector(cfg.Population.Critical)

	opts := sim.Options{Seed: rngSeed, Recorder: collector}

	var s *sim.Simulation
	var startTick int64
	if *resume != "" {
		snap, err := telemetry.LoadSnapshot(*resume)
		if err != nil {
			slog.Error("failed to load snapshot", "path", *resume, "error", err)
			os.Exit(1)
		}
		s, err = sim.NewFromRecords(opts, snap.Agents, snap.Tick)
		if err != nil {
			slog.Error("failed to restore agents", "path", *resume, "error", err)
			os.Exit(1)
		}
		startTick = snap.Tick
		slog.Info("resumed from snapshot",
			"path", *resume,
			"tick", snap.Tick,
			"agents", len(snap.Agents),
		)
	} else {
		s = sim.New(opts)
	}

	slog.Info("starting simulation",
		"run_id", runID,
		"seed", rngSeed,
		"population", s.Alive(),
		"max_ticks", *maxTicks,
		"stats_window", cfg.Telemetry.StatsWindowTicks,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	start := time.Now()

loop:
	for {
		select {
		case <-sigCh:
			slog.Info("interrupt received", "tick", s.Tick())
			break loop
		default:
		}

		s.Step()
		tick := s.Tick()

		if collector.ShouldFlush(tick) {
			stats := collector.Flush(tick, s.Alive(), s.EnergyRatios())
			if *logStats {
				stats.LogStats()
			}
			if om != nil {
				if err := om.WriteStats(stats); err != nil {
					slog.Error("failed to write stats", "error", err)
				}
			}
			for _, b := range detector.Observe(stats) {
				b.LogBookmark()
				if om != nil {
					if err := om.WriteBookmark(b); err != nil {
						slog.Error("failed to write bookmark", "error", err)
					}
				}
			}
		}

		if *maxTicks > 0 && tick >= *maxTicks {
			slog.Info("max ticks reached", "tick", tick)
			break
		}
	}

	elapsed := time.Since(start)

	if *snapshotDir != "" {
		snap := &telemetry.Snapshot{
			Version:     telemetry.SnapshotVersion,
			RunID:       runID.String(),
			Seed:        rngSeed,
			Tick:        s.Tick(),
			WorldWidth:  cfg.World.Width,
			WorldHeight: cfg.World.Height,
			Agents:      s.Export(),
		}
		if path, err := telemetry.SaveSnapshot(snap, *snapshotDir); err != nil {
			slog.Error("failed to save snapshot", "error", err)
		} else {
			slog.Info("snapshot saved", "path", path, "agents", len(snap.Agents))
		}
	}

	if *dbPath != "" {
		db, err := persistence.Open(*dbPath)
		if err != nil {
			slog.Error("failed to open db", "path", *dbPath, "error", err)
		} else {
			if err := db.SaveTankState(s, runID.String()); err != nil {
				slog.Error("failed to save tank state", "error", err)
			}
			db.Close()
		}
	}

	ticksRun := s.Tick() - startTick
	rate := 0.0
	if elapsed > 0 {
		rate = float64(ticksRun) / elapsed.Seconds()
	}
	slog.Info("run complete",
		"run_id", runID,
		"ticks", humanize.Comma(ticksRun),
		"born", humanize.Comma(s.Born()),
		"died", humanize.Comma(s.Died()),
		"population", s.Alive(),
		"elapsed", elapsed.Round(time.Millisecond).String(),
		"ticks_per_sec", humanize.CommafWithDigits(rate, 0),
	)
}
