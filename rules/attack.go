package rules

import "github.com/nstehr/bastion/bastion-core/model"

// AttackInput is the slice of turn state target selection reads.
type AttackInput struct {
	Budget        int
	Mode          model.Mode
	Incoming      int
	HP            int
	Opponents     []model.OpponentView
	Allies        map[int]bool
	AgreedTargets map[int]bool
}

// AllocateAttacks ranks live opponents and spends the attack budget on them:
// the primary target first, then overflow to the next targets in rank order,
// each capped at its effective hp. Leftover budget is returned unspent.
func AllocateAttacks(d Doctrine, in AttackInput) (map[int]int, []ScoredOpponent) {
	allocations := make(map[int]int)
	budget := max(in.Budget, 0)
	if budget == 0 || len(in.Opponents) == 0 {
		return allocations, nil
	}
	// Economy modes hold fire and carry the budget over, unless someone is
	// hitting hard enough to warrant retaliation.
	if in.Mode.Economic() && in.Incoming <= d.RetaliationTrigger {
		return allocations, nil
	}

	hpFrac := d.HPFraction(in.HP)
	remaining := min(floorNonNegative(float64(budget)*AttackCap(d, hpFrac)), budget)

	ranking := make([]ScoredOpponent, 0, len(in.Opponents))
	for _, o := range in.Opponents {
		if !o.Alive() {
			continue
		}
		score := AttackScore(d, o, hpFrac, remaining, in.Allies[o.ID], in.AgreedTargets[o.ID])
		ranking = append(ranking, ScoredOpponent{Opponent: o, Score: score})
	}
	sortScored(ranking)

	primary := true
	for _, s := range ranking {
		if remaining <= 0 {
			break
		}
		if s.Score <= d.ExclusionScore {
			continue
		}
		ehp := s.Opponent.EffectiveHP()
		var spend int
		if primary {
			spend = PrimarySpend(d, remaining, ehp, hpFrac)
			if !d.AllowPrimaryOverkill {
				spend = min(spend, ehp)
			}
			primary = false
		} else {
			spend = min(remaining, ehp)
		}
		if spend <= 0 {
			continue
		}
		allocations[s.Opponent.ID] = spend
		remaining -= spend
	}
	return allocations, ranking
}

// AttackScore ranks an opponent as a target. remaining is the attack budget
// used for the kill-feasibility check.
func AttackScore(d Doctrine, o model.OpponentView, hpFrac float64, remaining int, ally, agreed bool) float64 {
	score := 0.0
	if o.AttackedUs() {
		score += (d.RetaliationBase + float64(o.TroopsSent)*d.RetaliationSlope) * AggressionFactor(d, hpFrac)
	}
	if agreed {
		score += d.CoordinationBonus
	}
	// Observed aggression overrides the alliance.
	if ally && !o.AttackedUs() {
		score -= d.AllianceProtection
	}
	ehp := o.EffectiveHP()
	if ehp <= remaining {
		score += d.KillBonus
	}
	score += d.WeaknessNumerator / float64(ehp+1)
	score += float64(o.Level) * d.LevelWeight
	return score
}

// PrimarySpend commits to the primary target: at least enough to kill it, or
// the primary fraction of the remaining budget, whichever is larger.
func PrimarySpend(d Doctrine, remaining, effectiveHP int, hpFrac float64) int {
	share := floorNonNegative(float64(remaining) * PrimaryFraction(d, hpFrac))
	return min(remaining, max(effectiveHP, share))
}

// AggressionFactor scales revenge: a weak tower is less eager to retaliate.
func AggressionFactor(d Doctrine, hpFrac float64) float64 {
	return lerpf(d.AggressionLow, d.AggressionHigh, clamp(hpFrac, 0, 1))
}

// PrimaryFraction is the share of the attack budget committed to the primary
// target; healthier towers commit more.
func PrimaryFraction(d Doctrine, hpFrac float64) float64 {
	return lerpf(d.PrimaryFractionLow, d.PrimaryFractionHigh, clamp(hpFrac, 0, 1))
}

// AttackCap is the share of the post-armor budget available for attacks.
func AttackCap(d Doctrine, hpFrac float64) float64 {
	return lerpf(d.AttackCapLow, d.AttackCapHigh, clamp(hpFrac, 0, 1))
}
