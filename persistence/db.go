// Package persistence provides SQLite-based tank state storage. Agents
// are stored as flat versioned records; ledgers restore directly from
// the row values.
package persistence

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/reef/sim"
)

// SchemaVersion is incremented when the agent row layout changes.
const SchemaVersion = 1

// DB wraps a SQLite connection for tank state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		id INTEGER PRIMARY KEY,
		generation INTEGER NOT NULL,
		parent_id INTEGER NOT NULL,
		species INTEGER NOT NULL,
		born_tick INTEGER NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		vel_x REAL NOT NULL,
		vel_y REAL NOT NULL,
		energy REAL NOT NULL,
		max_energy REAL NOT NULL,
		base_metabolism REAL NOT NULL,
		age INTEGER NOT NULL,
		max_age INTEGER NOT NULL,
		stage TEXT NOT NULL,
		cooldown INTEGER NOT NULL,
		bank REAL NOT NULL,
		credits INTEGER NOT NULL,
		state TEXT NOT NULL,
		cause TEXT NOT NULL,
		last_predator_tick INTEGER NOT NULL,
		gene_max_energy REAL NOT NULL,
		gene_size REAL NOT NULL,
		gene_max_age REAL NOT NULL,
		gene_metabolism REAL NOT NULL,
		gene_asexual_chance REAL NOT NULL,
		gene_birth_transfer REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tank_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_agents_state ON agents(state);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return err
	}
	return db.SaveMeta("schema_version", strconv.Itoa(SchemaVersion))
}

// SaveAgents writes all agent records to the database (full replace).
func (db *DB) SaveAgents(records []sim.AgentRecord) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM agents"); err != nil {
		return err
	}

	stmt, err := tx.PrepareNamed(`INSERT INTO agents
		(id, generation, parent_id, species, born_tick,
		 x, y, vel_x, vel_y,
		 energy, max_energy, base_metabolism,
		 age, max_age, stage,
		 cooldown, bank, credits,
		 state, cause, last_predator_tick,
		 gene_max_energy, gene_size, gene_max_age,
		 gene_metabolism, gene_asexual_chance, gene_birth_transfer)
		VALUES (:id, :generation, :parent_id, :species, :born_tick,
		 :x, :y, :vel_x, :vel_y,
		 :energy, :max_energy, :base_metabolism,
		 :age, :max_age, :stage,
		 :cooldown, :bank, :credits,
		 :state, :cause, :last_predator_tick,
		 :gene_max_energy, :gene_size, :gene_max_age,
		 :gene_metabolism, :gene_asexual_chance, :gene_birth_transfer)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(rec); err != nil {
			return fmt.Errorf("insert agent %d: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

// LoadAgents reads all agent records from the database.
func (db *DB) LoadAgents() ([]sim.AgentRecord, error) {
	version, err := db.GetMeta("schema_version")
	if err != nil {
		return nil, fmt.Errorf("read schema version: %w", err)
	}
	if version != strconv.Itoa(SchemaVersion) {
		return nil, fmt.Errorf("schema version %s not supported (want %d)", version, SchemaVersion)
	}

	var records []sim.AgentRecord
	if err := db.conn.Select(&records, "SELECT * FROM agents ORDER BY id"); err != nil {
		return nil, fmt.Errorf("load agents: %w", err)
	}
	return records, nil
}

// SaveMeta stores a key-value pair in tank metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO tank_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM tank_meta WHERE key = ?", key)
	return value, err
}

// SaveTankState performs a full save of the simulation state.
func (db *DB) SaveTankState(s *sim.Simulation, runID string) error {
	records := s.Export()
	slog.Info("saving tank state", "agents", len(records), "tick", s.Tick())

	if err := db.SaveAgents(records); err != nil {
		return fmt.Errorf("save agents: %w", err)
	}
	if err := db.SaveMeta("run_id", runID); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.SaveMeta("seed", strconv.FormatInt(s.Seed(), 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.SaveMeta("last_tick", strconv.FormatInt(s.Tick(), 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("tank state saved")
	return nil
}

// LastTick returns the tick recorded by the most recent save, or 0 when
// the database holds no completed save.
func (db *DB) LastTick() (int64, error) {
	value, err := db.GetMeta("last_tick")
	if err != nil {
		return 0, nil
	}
	return strconv.ParseInt(value, 10, 64)
}
