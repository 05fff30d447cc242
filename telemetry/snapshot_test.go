package telemetry

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/pthm-cable/reef/sim"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		Version:     SnapshotVersion,
		RunID:       "7b0a4c3e-0000-0000-0000-000000000000",
		Seed:        42,
		Tick:        1000,
		WorldWidth:  800,
		WorldHeight: 600,
		Agents: []sim.AgentRecord{
			{
				ID: 1, Generation: 2, ParentID: 7, Species: 1, BornTick: 400,
				X: 150, Y: 250, VelX: 0.5, VelY: -0.3,
				Energy: 75, MaxEnergy: 100, BaseMetabolism: 0.02,
				Age: 600, MaxAge: 14400, Stage: "baby",
				Cooldown: 30, Bank: 12.5, Credits: 1,
				State: "active", Cause: "none", LastPredatorTick: -1,
				GeneMaxEnergy: 1, GeneSize: 1.1, GeneMaxAge: 0.9,
				GeneMetabolism: 1, GeneAsexualChance: 0.002, GeneBirthTransfer: 0.4,
			},
		},
	}
}

func TestSnapshotSaveLoad(t *testing.T) {
	dir := t.TempDir()

	want := testSnapshot()
	path, err := SaveSnapshot(want, dir)
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	got, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	if got.Seed != want.Seed || got.Tick != want.Tick || got.RunID != want.RunID {
		t.Errorf("header mismatch: got %+v", got)
	}
	if len(got.Agents) != 1 || got.Agents[0] != want.Agents[0] {
		t.Errorf("agent mismatch:\n got %+v\nwant %+v", got.Agents, want.Agents)
	}
}

func TestLoadSnapshotRejectsWrongVersion(t *testing.T) {
	dir := t.TempDir()

	snap := testSnapshot()
	path, err := SaveSnapshot(snap, dir)
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	// Doctor the version on disk.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	raw["version"] = SnapshotVersion + 1
	data, err = json.Marshal(raw)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadSnapshot(path); err == nil {
		t.Fatal("future snapshot version accepted")
	}
}
