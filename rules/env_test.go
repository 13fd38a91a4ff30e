package rules

import "testing"

func TestModeEnvAffords(t *testing.T) {
	tests := []struct {
		name     string
		env      ModeEnv
		fraction float64
		want     bool
	}{
		{"exactly the fraction", ModeEnv{Resources: 30, NextUpgradeCost: 50}, 0.6, true},
		{"one short", ModeEnv{Resources: 29, NextUpgradeCost: 50}, 0.6, false},
		{"full cost", ModeEnv{Resources: 50, NextUpgradeCost: 50}, 1.0, true},
		{"max level costs nothing", ModeEnv{Resources: 0, NextUpgradeCost: 0}, 0.6, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.env.Affords(tc.fraction); got != tc.want {
				t.Errorf("Affords(%v) = %v, want %v", tc.fraction, got, tc.want)
			}
		})
	}
}

func TestModeEnvOverwhelmed(t *testing.T) {
	if (ModeEnv{Incoming: 20, Resources: 20}).Overwhelmed() {
		t.Error("incoming equal to resources is not overwhelming")
	}
	if !(ModeEnv{Incoming: 21, Resources: 20}).Overwhelmed() {
		t.Error("incoming above resources should be overwhelming")
	}
}
