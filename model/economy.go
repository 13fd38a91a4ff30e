package model

import "math"

// Game constants fixed by the rules engine.
const (
	MinLevel     = 1
	MaxLevel     = 5
	FatigueStart = 25
)

// Economy is the income and upgrade pricing of the game server.
type Economy interface {
	// UpgradeCost is the price of moving from level to level+1.
	UpgradeCost(level int) int
	// Income is the resources generated per turn at level.
	Income(level int) int
}

// Kingdom is the economy of the Kingdom Wars rules engine.
type Kingdom struct{}

func (Kingdom) UpgradeCost(level int) int {
	return int(math.Ceil(50 * math.Pow(1.75, float64(clampLevel(level)-1))))
}

func (Kingdom) Income(level int) int {
	return int(math.Ceil(20 * math.Pow(1.5, float64(clampLevel(level)-1))))
}

func clampLevel(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// IsFatigue reports whether turn falls in the fatigue phase.
func IsFatigue(turn int) bool {
	return turn >= FatigueStart
}
