package rules

import (
	"math"

	"github.com/nstehr/bastion/bastion-core/model"
)

// UpgradeInput is the slice of turn state the upgrade check reads.
type UpgradeInput struct {
	Level  int
	Turn   int
	Budget int
	Mode   model.Mode
}

// AdviseUpgrade decides whether to buy the next tower level this turn and
// returns its cost. The decision is atomic: never a partial upgrade.
func AdviseUpgrade(d Doctrine, econ model.Economy, in UpgradeInput) (bool, int) {
	if in.Level >= model.MaxLevel {
		return false, 0
	}
	cost := econ.UpgradeCost(in.Level)
	if in.Budget < cost {
		return false, 0
	}
	// Saving exists to reach this threshold; spend as soon as we can.
	if in.Mode == model.ModeSaving {
		return true, cost
	}
	if in.Turn > d.UpgradeCutoffTurn {
		return false, 0
	}
	turnsLeft := max(1, d.GameHorizon-in.Turn)
	if PaybackTurns(econ, in.Level) < float64(turnsLeft)*d.PaybackFactor {
		return true, cost
	}
	return false, 0
}

// PaybackTurns is how many turns of extra income repay the next upgrade.
// It is +Inf when the upgrade adds no income.
func PaybackTurns(econ model.Economy, level int) float64 {
	gain := econ.Income(level+1) - econ.Income(level)
	if gain <= 0 {
		return math.Inf(1)
	}
	return float64(econ.UpgradeCost(level)) / float64(gain)
}
