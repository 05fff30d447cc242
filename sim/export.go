package sim

import (
	"fmt"

	"github.com/pthm-cable/reef/components"
	"github.com/pthm-cable/reef/config"
	"github.com/pthm-cable/reef/genome"
	"github.com/pthm-cable/reef/systems"
)

// AgentRecord is the flat, versioned per-agent state used by snapshots
// and the SQLite store. Ledgers restore directly from these fields; the
// state-machine history is never persisted.
type AgentRecord struct {
	ID         uint64 `json:"id" db:"id"`
	Generation uint32 `json:"generation" db:"generation"`
	ParentID   uint64 `json:"parent_id" db:"parent_id"`
	Species    uint8  `json:"species" db:"species"`
	BornTick   int64  `json:"born_tick" db:"born_tick"`

	X    float64 `json:"x" db:"x"`
	Y    float64 `json:"y" db:"y"`
	VelX float64 `json:"vel_x" db:"vel_x"`
	VelY float64 `json:"vel_y" db:"vel_y"`

	Energy         float64 `json:"energy" db:"energy"`
	MaxEnergy      float64 `json:"max_energy" db:"max_energy"`
	BaseMetabolism float64 `json:"base_metabolism" db:"base_metabolism"`

	Age    int64  `json:"age" db:"age"`
	MaxAge int64  `json:"max_age" db:"max_age"`
	Stage  string `json:"stage" db:"stage"`

	Cooldown int64   `json:"cooldown" db:"cooldown"`
	Bank     float64 `json:"bank" db:"bank"`
	Credits  int     `json:"credits" db:"credits"`

	State            string `json:"state" db:"state"`
	Cause            string `json:"cause" db:"cause"`
	LastPredatorTick int64  `json:"last_predator_tick" db:"last_predator_tick"`

	GeneMaxEnergy     float64 `json:"gene_max_energy" db:"gene_max_energy"`
	GeneSize          float64 `json:"gene_size" db:"gene_size"`
	GeneMaxAge        float64 `json:"gene_max_age" db:"gene_max_age"`
	GeneMetabolism    float64 `json:"gene_metabolism" db:"gene_metabolism"`
	GeneAsexualChance float64 `json:"gene_asexual_chance" db:"gene_asexual_chance"`
	GeneBirthTransfer float64 `json:"gene_birth_transfer" db:"gene_birth_transfer"`
}

// Export captures every agent still in the world as a flat record.
func (s *Simulation) Export() []AgentRecord {
	records := make([]AgentRecord, 0, s.alive)

	query := s.filter.Query()
	for query.Next() {
		pos, vel, id, energy, lc, rep, mortal := query.Get()

		records = append(records, AgentRecord{
			ID:         id.ID,
			Generation: id.Generation,
			ParentID:   id.ParentID,
			Species:    id.Species,
			BornTick:   id.BornTick,

			X:    pos.X,
			Y:    pos.Y,
			VelX: vel.X,
			VelY: vel.Y,

			Energy:         energy.Current,
			MaxEnergy:      energy.Max,
			BaseMetabolism: energy.BaseMetabolism,

			Age:    lc.Age,
			MaxAge: lc.MaxAge,
			Stage:  lc.Stage().String(),

			Cooldown: rep.Cooldown,
			Bank:     rep.OverflowBank,
			Credits:  rep.Credits,

			State:            mortal.State.Current().String(),
			Cause:            mortal.CauseLabel(),
			LastPredatorTick: id.LastPredatorTick,

			GeneMaxEnergy:     id.Genes.MaxEnergy,
			GeneSize:          id.Genes.Size,
			GeneMaxAge:        id.Genes.MaxAge,
			GeneMetabolism:    id.Genes.Metabolism,
			GeneAsexualChance: id.Genes.AsexualChance,
			GeneBirthTransfer: id.Genes.BirthTransfer,
		})
	}
	return records
}

// Restore rebuilds agents from flat records. Stage and mortal state are
// forced directly rather than replayed; missing or unrecognized death
// causes on dead agents are re-inferred from the restored ledgers.
// Records already in the removed state are skipped.
func (s *Simulation) Restore(records []AgentRecord) error {
	cfg := config.Cfg()

	for _, rec := range records {
		state, ok := components.ParseMortalState(rec.State)
		if !ok {
			return fmt.Errorf("restore agent %d: unrecognized mortal state %q", rec.ID, rec.State)
		}
		if state == components.MortalRemoved {
			continue
		}
		stage, ok := components.ParseStage(rec.Stage)
		if !ok {
			return fmt.Errorf("restore agent %d: unrecognized stage %q", rec.ID, rec.Stage)
		}
		if int(rec.Species) >= len(cfg.Species) {
			return fmt.Errorf("restore agent %d: species %d out of range", rec.ID, rec.Species)
		}

		genes := genome.Genome{
			MaxEnergy:     rec.GeneMaxEnergy,
			Size:          rec.GeneSize,
			MaxAge:        rec.GeneMaxAge,
			Metabolism:    rec.GeneMetabolism,
			AsexualChance: rec.GeneAsexualChance,
			BirthTransfer: rec.GeneBirthTransfer,
		}

		pos := components.Position{X: rec.X, Y: rec.Y}
		vel := components.Velocity{X: rec.VelX, Y: rec.VelY}
		id := components.Identity{
			ID:               rec.ID,
			Generation:       rec.Generation,
			ParentID:         rec.ParentID,
			Species:          rec.Species,
			BornTick:         rec.BornTick,
			Genes:            genes,
			LastPredatorTick: rec.LastPredatorTick,
		}
		energy := components.Energy{
			Current:        rec.Energy,
			Max:            rec.MaxEnergy,
			BaseMetabolism: rec.BaseMetabolism,
		}

		lc := components.NewLifecycle(rec.MaxAge, rec.GeneSize)
		lc.Age = rec.Age
		lc.Stages.ForceState(stage, s.tick, "restore")
		lc.Size = systems.ComputeSize(stage, rec.Age, rec.GeneSize)

		rep := components.Reproduction{
			Cooldown:     rec.Cooldown,
			OverflowBank: rec.Bank,
			Credits:      rec.Credits,
		}

		mortal := components.NewMortal()
		if state != components.MortalActive {
			mortal.State.ForceState(state, s.tick, "restore")
		}
		mortal.Cause, mortal.CauseTag = components.ParseDeathCause(rec.Cause)
		if state == components.MortalDead {
			energy.CachedDead = true
			if mortal.Cause == components.CauseNone || mortal.Cause == components.CauseUnknown {
				mortal.Cause, mortal.CauseTag = systems.InferDeathCause(&energy, &lc, &id, s.tick)
			}
		}

		s.mapper.NewEntity(&pos, &vel, &id, &energy, &lc, &rep, &mortal)
		s.alive++
		s.recent.remember(genes, rec.Species)

		if rec.ID > s.nextID {
			s.nextID = rec.ID
		}
	}
	return nil
}
