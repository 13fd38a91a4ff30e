package agent

import (
	"log/slog"
	"sort"

	"github.com/nstehr/bastion/bastion-core/model"
)

// troopsAt sums, per attacker, the troops sent at target.
func troopsAt(target int, attacks []model.CombatActionEntry) map[int]int {
	sent := make(map[int]int)
	for _, a := range attacks {
		if a.PlayerID == target || a.Action.TargetID != target || a.Action.TroopCount <= 0 {
			continue
		}
		sent[a.PlayerID] += a.Action.TroopCount
	}
	return sent
}

// opponentViews merges the enemy towers with what each sent at us. The
// protocol hides enemy coin, so one turn of income at their level stands in.
func opponentViews(econ model.Economy, self int, towers []model.EnemyTower, attacks []model.CombatActionEntry) []model.OpponentView {
	sent := troopsAt(self, attacks)
	views := make([]model.OpponentView, 0, len(towers))
	for _, t := range towers {
		if t.PlayerID == self {
			continue
		}
		views = append(views, model.OpponentView{
			ID:                t.PlayerID,
			Level:             t.Level,
			HP:                t.HP,
			Armor:             t.Armor,
			ResourcesEstimate: econ.Income(t.Level),
			TroopsSent:        sent[t.PlayerID],
		})
	}
	return views
}

// alliesOf reads the negotiation outcome: who declared us an ally, and which
// targets they asked us to hit with them.
func alliesOf(self int, diplomacy []model.DiplomacyEntry) (allies, agreed map[int]bool) {
	allies = make(map[int]bool)
	agreed = make(map[int]bool)
	for _, d := range diplomacy {
		if d.PlayerID == self || d.Action.AllyID != self {
			continue
		}
		allies[d.PlayerID] = true
		if t := d.Action.AttackTargetID; t != nil && *t != self {
			agreed[*t] = true
		}
	}
	return allies, agreed
}

// combatActions renders a decision in the order the server applies them:
// upgrade, then armor, then attacks by ascending target id.
func combatActions(d model.Decision) []model.CombatAction {
	actions := make([]model.CombatAction, 0, 2+len(d.AttackAllocations))
	if d.Upgrade {
		actions = append(actions, model.CombatAction{Type: model.ActionUpgrade})
	}
	if d.ArmorSpend > 0 {
		actions = append(actions, model.CombatAction{Type: model.ActionArmor, Amount: d.ArmorSpend})
	}

	targets := make([]int, 0, len(d.AttackAllocations))
	for id, troops := range d.AttackAllocations {
		if troops > 0 {
			targets = append(targets, id)
		}
	}
	sort.Ints(targets)
	for _, id := range targets {
		actions = append(actions, model.CombatAction{
			Type:       model.ActionAttack,
			TargetID:   id,
			TroopCount: d.AttackAllocations[id],
		})
	}
	return actions
}

// proposals renders alliance offers. Attack threats have no wire form.
func proposals(signals []model.NegotiationSignal) []model.DiplomacyProposal {
	out := make([]model.DiplomacyProposal, 0, len(signals))
	for _, s := range signals {
		if s.Kind != model.SignalAllianceOffer {
			slog.Debug("dropping signal without wire form", "kind", s.Kind, "opponent", s.OpponentID)
			continue
		}
		target := s.TargetID
		out = append(out, model.DiplomacyProposal{AllyID: s.OpponentID, AttackTargetID: &target})
	}
	return out
}
