package rules

import "github.com/nstehr/bastion/bastion-core/model"

// TurnInput is everything Decide needs for one combat phase.
type TurnInput struct {
	Self      model.AgentState
	Opponents []model.OpponentView
	// Allies declared us as their ally this turn.
	Allies map[int]bool
	// AgreedTargets were named as joint targets by our allies.
	AgreedTargets map[int]bool
	Fatigue       bool
	// EstimatedIncoming is the moving-average forecast of troops headed our
	// way, used for armor sizing when nothing was observed.
	EstimatedIncoming int
}

// Normalize clamps negative quantities to zero, the level into its valid
// range, and drops dead opponents and duplicate ids. Ids in Allies or
// AgreedTargets that match no live opponent are simply never consulted.
func (in TurnInput) Normalize() TurnInput {
	out := in
	out.Self.Level = clampInt(in.Self.Level, model.MinLevel, model.MaxLevel)
	out.Self.HP = max(in.Self.HP, 0)
	out.Self.Armor = max(in.Self.Armor, 0)
	out.Self.Resources = max(in.Self.Resources, 0)
	out.Self.Turn = max(in.Self.Turn, 0)
	out.EstimatedIncoming = max(in.EstimatedIncoming, 0)
	out.Opponents = LiveOpponents(in.Opponents)
	return out
}

// Incoming is the total troops live opponents sent at us.
func (in TurnInput) Incoming() int {
	total := 0
	for _, o := range in.Opponents {
		total += max(o.TroopsSent, 0)
	}
	return total
}

// AvgEnemyResources estimates the per-opponent offensive capacity.
func (in TurnInput) AvgEnemyResources() float64 {
	if len(in.Opponents) == 0 {
		return 0
	}
	total := 0
	for _, o := range in.Opponents {
		total += max(o.ResourcesEstimate, 0)
	}
	return float64(total) / float64(len(in.Opponents))
}

// LiveOpponents returns a clamped copy of the opponents with hp > 0, first
// occurrence winning on duplicate ids.
func LiveOpponents(opponents []model.OpponentView) []model.OpponentView {
	seen := make(map[int]bool, len(opponents))
	live := make([]model.OpponentView, 0, len(opponents))
	for _, o := range opponents {
		if !o.Alive() || seen[o.ID] {
			continue
		}
		seen[o.ID] = true
		o.Level = clampInt(o.Level, model.MinLevel, model.MaxLevel)
		o.Armor = max(o.Armor, 0)
		o.ResourcesEstimate = max(o.ResourcesEstimate, 0)
		o.TroopsSent = max(o.TroopsSent, 0)
		live = append(live, o)
	}
	return live
}
