package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	if cfg.Energy.MaxEnergy <= 0 {
		t.Errorf("max_energy not loaded: %v", cfg.Energy.MaxEnergy)
	}
	if cfg.Derived.BankCap != cfg.Energy.MaxEnergy*cfg.Energy.BankMultiplier {
		t.Errorf("derived bank cap = %v", cfg.Derived.BankCap)
	}
	if len(cfg.Species) == 0 {
		t.Fatal("no species loaded")
	}
	if idx, ok := cfg.Derived.SpeciesIndex[cfg.Species[0].Name]; !ok || idx != 0 {
		t.Errorf("species index missing first species: %v", cfg.Derived.SpeciesIndex)
	}
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	data := []byte("population:\n  max: 42\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load override: %v", err)
	}
	if cfg.Population.Max != 42 {
		t.Errorf("override not applied: %d", cfg.Population.Max)
	}
	// Untouched fields keep defaults.
	if cfg.Energy.MaxEnergy != 100.0 {
		t.Errorf("default lost on merge: %v", cfg.Energy.MaxEnergy)
	}
}

func TestLoadRejectsBadThresholds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	data := []byte("lifecycle:\n  baby_end_ticks: 5000\n  juvenile_end_ticks: 100\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for non-increasing thresholds")
	}
}
