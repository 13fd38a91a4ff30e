package rules

import "github.com/nstehr/bastion/bastion-core/model"

// PlanNegotiation names the most threatening live opponent as the common
// enemy and offers an alliance against it to every other live opponent.
// At most one signal goes to each opponent. Fewer than two live opponents
// yields no signals: a duel has nobody to negotiate with.
func PlanNegotiation(d Doctrine, econ model.Economy, opponents []model.OpponentView) []model.NegotiationSignal {
	live := LiveOpponents(opponents)
	if len(live) < 2 {
		return nil
	}

	ranked := rankByThreat(d, econ, live)
	threat := ranked[0].Opponent.ID

	signals := make([]model.NegotiationSignal, 0, len(ranked))
	signaled := make(map[int]bool, len(ranked))
	for _, s := range ranked[1:] {
		id := s.Opponent.ID
		if signaled[id] {
			continue
		}
		signaled[id] = true
		signals = append(signals, model.NegotiationSignal{
			OpponentID: id,
			Kind:       model.SignalAllianceOffer,
			TargetID:   threat,
		})
	}

	if d.SignalThreats && !signaled[threat] {
		signals = append(signals, model.NegotiationSignal{
			OpponentID: threat,
			Kind:       model.SignalAttackThreat,
			TargetID:   threat,
		})
	}
	return signals
}

// DesignatedThreat returns the id of the most threatening live opponent.
func DesignatedThreat(d Doctrine, econ model.Economy, opponents []model.OpponentView) (int, bool) {
	live := LiveOpponents(opponents)
	if len(live) == 0 {
		return 0, false
	}
	return rankByThreat(d, econ, live)[0].Opponent.ID, true
}
