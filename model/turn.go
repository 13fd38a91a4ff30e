package model

// Mode is the allocation policy governing one turn.
type Mode string

const (
	ModeEarlyEconomy    Mode = "early_economy"
	ModeSaving          Mode = "saving"
	ModeNormal          Mode = "normal"
	ModeDefenseCritical Mode = "defense_critical"
)

// Economic reports whether the mode belongs to the early-economy regime.
func (m Mode) Economic() bool {
	return m == ModeEarlyEconomy || m == ModeSaving
}

// AgentState is our own tower for the duration of one decision.
type AgentState struct {
	Level     int
	HP        int
	Armor     int
	Resources int
	Turn      int
	// WasSaving is the only flag carried between turns.
	WasSaving bool
}

// OpponentView is a read-only snapshot of one opponent.
type OpponentView struct {
	ID                int
	Level             int
	HP                int
	Armor             int
	ResourcesEstimate int
	// TroopsSent is what this opponent sent against us last combat phase.
	TroopsSent int
}

func (o OpponentView) Alive() bool { return o.HP > 0 }

// AttackedUs reports whether the opponent sent troops at us.
func (o OpponentView) AttackedUs() bool { return o.TroopsSent > 0 }

// EffectiveHP is hp plus armor: the troops needed to destroy the tower.
func (o OpponentView) EffectiveHP() int { return o.HP + o.Armor }

// Decision is the combat-phase output.
type Decision struct {
	Upgrade           bool
	UpgradeCost       int
	ArmorSpend        int
	AttackAllocations map[int]int
}

// Spent is the total budget the decision consumes.
func (d Decision) Spent() int {
	total := d.ArmorSpend
	if d.Upgrade {
		total += d.UpgradeCost
	}
	for _, troops := range d.AttackAllocations {
		total += troops
	}
	return total
}

// SignalKind distinguishes negotiation signals.
type SignalKind string

const (
	SignalAllianceOffer SignalKind = "alliance_offer"
	SignalAttackThreat  SignalKind = "attack_threat"
)

// NegotiationSignal is one outgoing message of the negotiation phase.
// For an alliance offer TargetID names the opponent to attack jointly.
// For an attack threat TargetID equals OpponentID.
type NegotiationSignal struct {
	OpponentID int
	Kind       SignalKind
	TargetID   int
}
