package rules

import (
	"math"
	"testing"

	"github.com/nstehr/bastion/bastion-core/model"
)

// flatEconomy pays the same income at every level.
type flatEconomy struct{}

func (flatEconomy) UpgradeCost(level int) int { return 10 }
func (flatEconomy) Income(level int) int      { return 20 }

func TestAdviseUpgrade(t *testing.T) {
	d := DefaultDoctrine()
	stingy := DefaultDoctrine()
	stingy.PaybackFactor = 0.1

	tests := []struct {
		name     string
		doctrine Doctrine
		in       UpgradeInput
		want     bool
		wantCost int
	}{
		{"max level", d, UpgradeInput{Level: 5, Turn: 1, Budget: 1000, Mode: model.ModeNormal}, false, 0},
		{"cannot afford", d, UpgradeInput{Level: 1, Turn: 1, Budget: 49, Mode: model.ModeEarlyEconomy}, false, 0},
		{"pays back early", d, UpgradeInput{Level: 1, Turn: 1, Budget: 50, Mode: model.ModeEarlyEconomy}, true, 50},
		{"level 4 by the cutoff", d, UpgradeInput{Level: 4, Turn: 20, Budget: 300, Mode: model.ModeNormal}, true, 268},
		{"past cutoff turn", d, UpgradeInput{Level: 1, Turn: 21, Budget: 500, Mode: model.ModeNormal}, false, 0},
		{"payback too slow", stingy, UpgradeInput{Level: 1, Turn: 1, Budget: 50, Mode: model.ModeNormal}, false, 0},
		{"saving ignores cutoff", d, UpgradeInput{Level: 2, Turn: 30, Budget: 88, Mode: model.ModeSaving}, true, 88},
		{"saving still needs the coins", d, UpgradeInput{Level: 2, Turn: 3, Budget: 87, Mode: model.ModeSaving}, false, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ok, cost := AdviseUpgrade(tc.doctrine, model.Kingdom{}, tc.in)
			if ok != tc.want || cost != tc.wantCost {
				t.Errorf("AdviseUpgrade = (%v, %d), want (%v, %d)", ok, cost, tc.want, tc.wantCost)
			}
		})
	}
}

func TestPaybackTurns(t *testing.T) {
	if got := PaybackTurns(model.Kingdom{}, 1); got != 5.0 {
		t.Errorf("PaybackTurns(1) = %f, want 5.0 (50 / (30-20))", got)
	}
	if got := PaybackTurns(flatEconomy{}, 1); !math.IsInf(got, 1) {
		t.Errorf("PaybackTurns with no income gain = %f, want +Inf", got)
	}
	ok, _ := AdviseUpgrade(DefaultDoctrine(), flatEconomy{}, UpgradeInput{Level: 1, Turn: 1, Budget: 100, Mode: model.ModeNormal})
	if ok {
		t.Error("upgrade with no income gain should be refused outside saving mode")
	}
}
