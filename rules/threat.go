package rules

import (
	"sort"

	"github.com/nstehr/bastion/bastion-core/model"
)

// ThreatScore rates how dangerous an opponent is: economy dominates, then
// durability, plus a retaliation term when it attacked us last turn.
// Dead opponents are filtered out before scoring.
func ThreatScore(d Doctrine, econ model.Economy, o model.OpponentView) float64 {
	score := float64(econ.Income(o.Level)) * d.ThreatIncomeWeight
	score += float64(max(o.HP, 0)) * d.ThreatHPWeight
	score += float64(max(o.Armor, 0)) * d.ThreatArmorWeight
	if o.AttackedUs() {
		score += d.ThreatRetaliationBase + float64(o.TroopsSent)*d.ThreatRetaliationSlope
	}
	return score
}

// ScoredOpponent pairs an opponent with a score.
type ScoredOpponent struct {
	Opponent model.OpponentView
	Score    float64
}

// rankByThreat scores every opponent and sorts them most dangerous first.
// Ties keep the lower id first so the ranking is deterministic.
func rankByThreat(d Doctrine, econ model.Economy, opponents []model.OpponentView) []ScoredOpponent {
	scored := make([]ScoredOpponent, 0, len(opponents))
	for _, o := range opponents {
		scored = append(scored, ScoredOpponent{Opponent: o, Score: ThreatScore(d, econ, o)})
	}
	sortScored(scored)
	return scored
}

func sortScored(scored []ScoredOpponent) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Opponent.ID < scored[j].Opponent.ID
	})
}
