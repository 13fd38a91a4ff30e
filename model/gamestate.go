package model

// PlayerTower is our own tower as reported by the game server.
type PlayerTower struct {
	PlayerID  int `json:"playerId"`
	HP        int `json:"hp"`
	Armor     int `json:"armor"`
	Resources int `json:"resources"`
	Level     int `json:"level"`
}

// EnemyTower is an opponent's tower. Enemy resources are not exposed.
type EnemyTower struct {
	PlayerID int `json:"playerId"`
	HP       int `json:"hp"`
	Armor    int `json:"armor"`
	Level    int `json:"level"`
}

type AttackAction struct {
	TargetID   int `json:"targetId"`
	TroopCount int `json:"troopCount"`
}

// CombatActionEntry records one player's attack from the previous combat phase.
type CombatActionEntry struct {
	PlayerID int          `json:"playerId"`
	Action   AttackAction `json:"action"`
}

type DiplomacyAction struct {
	AllyID         int  `json:"allyId"`
	AttackTargetID *int `json:"attackTargetId,omitempty"`
}

// DiplomacyEntry is a proposal another player made during the negotiation phase.
type DiplomacyEntry struct {
	PlayerID int             `json:"playerId"`
	Action   DiplomacyAction `json:"action"`
}

type NegotiateRequest struct {
	GameID        int                 `json:"gameId"`
	Turn          int                 `json:"turn"`
	PlayerTower   PlayerTower         `json:"playerTower"`
	EnemyTowers   []EnemyTower        `json:"enemyTowers"`
	CombatActions []CombatActionEntry `json:"combatActions"`
}

type CombatRequest struct {
	GameID          int                 `json:"gameId"`
	Turn            int                 `json:"turn"`
	PlayerTower     PlayerTower         `json:"playerTower"`
	EnemyTowers     []EnemyTower        `json:"enemyTowers"`
	Diplomacy       []DiplomacyEntry    `json:"diplomacy"`
	PreviousAttacks []CombatActionEntry `json:"previousAttacks"`
}

// DiplomacyProposal is one entry of the negotiation response.
type DiplomacyProposal struct {
	AllyID         int  `json:"allyId"`
	AttackTargetID *int `json:"attackTargetId,omitempty"`
}

// Combat action type constants understood by the game server.
const (
	ActionUpgrade = "upgrade"
	ActionArmor   = "armor"
	ActionAttack  = "attack"
)

// CombatAction is one entry of the combat response.
type CombatAction struct {
	Type       string `json:"type"`
	Amount     int    `json:"amount,omitempty"`
	TargetID   int    `json:"targetId,omitempty"`
	TroopCount int    `json:"troopCount,omitempty"`
}
