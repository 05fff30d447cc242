package components

import "testing"

func TestEnergyRatioQueries(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		max      float64
		starving bool
		critical bool
		low      bool
		safe     bool
	}{
		{"empty", 0, 100, true, true, true, false},
		{"starving boundary", 9.9, 100, true, true, true, false},
		{"just above starving", 10, 100, false, true, true, false},
		{"critical", 20, 100, false, true, true, false},
		{"low", 40, 100, false, false, true, false},
		{"safe boundary", 50, 100, false, false, false, true},
		{"full", 100, 100, false, false, false, true},
		// Thresholds are ratio-based, so a big agent at the same ratio
		// answers the same.
		{"big agent same ratio", 200, 400, false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Energy{Current: tt.current, Max: tt.max}
			if got := e.IsStarving(); got != tt.starving {
				t.Errorf("IsStarving = %v, want %v", got, tt.starving)
			}
			if got := e.IsCritical(); got != tt.critical {
				t.Errorf("IsCritical = %v, want %v", got, tt.critical)
			}
			if got := e.IsLow(); got != tt.low {
				t.Errorf("IsLow = %v, want %v", got, tt.low)
			}
			if got := e.IsSafe(); got != tt.safe {
				t.Errorf("IsSafe = %v, want %v", got, tt.safe)
			}
		})
	}
}

func TestEnergyRatioZeroMax(t *testing.T) {
	for _, max := range []float64{0, -5} {
		e := Energy{Current: 10, Max: max}
		if got := e.Ratio(); got != 0 {
			t.Errorf("Ratio with Max=%v = %v, want 0", max, got)
		}
		if e.IsSafe() {
			t.Errorf("Max=%v should not be safe", max)
		}
	}
}
