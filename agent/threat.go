package agent

import (
	"math"

	"github.com/nstehr/bastion/bastion-core/model"
)

// foldThreat folds this turn's troops into each live opponent's moving
// average. decay is the weight kept from history; zero tracks only the last
// turn. Opponents no longer alive are forgotten.
func foldThreat(prev map[int]float64, opponents []model.OpponentView, decay float64) map[int]float64 {
	next := make(map[int]float64, len(opponents))
	for _, o := range opponents {
		if !o.Alive() {
			continue
		}
		sent := float64(max(o.TroopsSent, 0))
		old, seen := prev[o.ID]
		if !seen {
			next[o.ID] = sent
			continue
		}
		next[o.ID] = decay*old + (1-decay)*sent
	}
	return next
}

// expectedIncoming is the forecast of troops headed our way next phase.
func expectedIncoming(threat map[int]float64) int {
	total := 0.0
	for _, v := range threat {
		total += v
	}
	return int(math.Round(total))
}
