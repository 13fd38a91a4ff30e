package rules

import "github.com/nstehr/bastion/bastion-core/model"

// ArmorInput is the slice of turn state armor sizing reads.
type ArmorInput struct {
	Budget            int
	Mode              model.Mode
	Incoming          int
	Estimated         int
	HP                int
	Armor             int
	Turn              int
	AvgEnemyResources float64
}

// Armor cases, reported for logging.
const (
	ArmorSavingHit   = "saving-hit"
	ArmorSavingFloor = "saving-floor"
	ArmorCoverage    = "coverage"
	ArmorEarlyFloor  = "early-floor"
	ArmorCritical    = "critical"
	ArmorModerate    = "moderate"
	ArmorHealthy     = "healthy"
)

// AllocateArmor sizes the defensive spend. The plain cases are mutually
// exclusive and the first match wins; Saving caps whichever one applies.
// The result is within [0, Budget].
func AllocateArmor(d Doctrine, in ArmorInput) (int, string) {
	budget := max(in.Budget, 0)
	if budget == 0 {
		return 0, ""
	}
	b := float64(budget)
	incoming := in.Incoming
	if incoming <= 0 {
		incoming = max(in.Estimated, 0)
	}
	hpFrac := d.HPFraction(in.HP)

	// Saving trims the plain sizing, never exceeds it, so leaving Saving as
	// hp falls can only raise armor.
	amount, kase := sizeArmor(d, in, b, incoming, hpFrac)
	if in.Mode == model.ModeSaving {
		if incoming > 0 {
			amount = min(amount, float64(incoming)*d.SavingIncomingShare, b*d.SavingBudgetShare)
			kase = ArmorSavingHit
		} else {
			amount = min(amount, float64(d.SavingArmorFloor), b*d.SavingFloorShare)
			kase = ArmorSavingFloor
		}
	}

	return min(floorNonNegative(amount), budget), kase
}

// sizeArmor is the mode-independent cascade. Every case grows as hp falls.
func sizeArmor(d Doctrine, in ArmorInput, b float64, incoming int, hpFrac float64) (float64, string) {
	switch {
	case incoming > 0:
		return min(float64(incoming), b*CoverageCap(d, hpFrac)), ArmorCoverage
	case in.Turn <= d.EarlyTurnCutoff:
		return float64(d.EarlyEffectiveHPFloor - (max(in.HP, 0) + max(in.Armor, 0))), ArmorEarlyFloor
	case hpFrac < d.CriticalHPFraction:
		return shareOfBudget(d, b, in.AvgEnemyResources, d.CriticalArmorShare), ArmorCritical
	case hpFrac < d.ModerateHPFraction:
		return shareOfBudget(d, b, in.AvgEnemyResources, d.ModerateArmorShare), ArmorModerate
	}
	amount := shareOfBudget(d, b, in.AvgEnemyResources, d.HealthyArmorShare)
	if d.HealthyArmorCeiling > 0 {
		amount = min(amount, float64(d.HealthyArmorCeiling))
	}
	return amount, ArmorHealthy
}

// CoverageCap is the largest budget share spent covering observed incoming
// damage; it rises linearly as hp falls.
func CoverageCap(d Doctrine, hpFrac float64) float64 {
	return lerpf(d.CoverageCapHigh, d.CoverageCapLow, 1-clamp(hpFrac, 0, 1))
}

// shareOfBudget takes share of the budget, bounded by the same share of what
// an average opponent could throw at us.
func shareOfBudget(d Doctrine, budget, avgEnemyResources, share float64) float64 {
	return min(budget*share, avgEnemyResources*share*d.EnemyCapacityScale)
}
