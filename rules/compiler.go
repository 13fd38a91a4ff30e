package rules

import (
	"fmt"

	"github.com/nstehr/bastion/bastion-core/model"
)

// CompileModeRules generates the mode rule set from a doctrine's thresholds.
// Conditions are built via fmt.Sprintf from validated values, so the
// generated expr always compiles.
func CompileModeRules(d Doctrine) []*Rule {
	d.Validate()
	var rules []*Rule

	// Incoming troops we cannot even match with our whole budget trump
	// every economic consideration.
	rules = append(rules, &Rule{
		Name:         "overwhelmed",
		Priority:     1000,
		Mode:         model.ModeDefenseCritical,
		ConditionSrc: `Overwhelmed()`,
	})

	// Hysteresis: once saving, keep saving until resources fall below the
	// lower exit fraction.
	rules = append(rules, &Rule{
		Name:         "saving-hold",
		Priority:     900,
		Mode:         model.ModeSaving,
		ConditionSrc: fmt.Sprintf(`!Fatigue && Level < %d && WasSaving && HP > %d && Affords(%.4f)`, d.EconomyLevelThreshold, d.MinSavingHP, d.SavingExitFraction),
	})

	rules = append(rules, &Rule{
		Name:         "saving-enter",
		Priority:     890,
		Mode:         model.ModeSaving,
		ConditionSrc: fmt.Sprintf(`!Fatigue && Level < %d && HP > %d && Affords(%.4f)`, d.EconomyLevelThreshold, d.MinSavingHP, d.SavingFraction),
	})

	rules = append(rules, &Rule{
		Name:         "early-economy",
		Priority:     800,
		Mode:         model.ModeEarlyEconomy,
		ConditionSrc: fmt.Sprintf(`!Fatigue && Level < %d`, d.EconomyLevelThreshold),
	})

	rules = append(rules, &Rule{
		Name:         "low-hp",
		Priority:     700,
		Mode:         model.ModeDefenseCritical,
		ConditionSrc: fmt.Sprintf(`HP < %d`, d.LowHPCutoff),
	})

	rules = append(rules, &Rule{
		Name:         "normal",
		Priority:     0,
		Mode:         model.ModeNormal,
		ConditionSrc: `true`,
	})

	return rules
}
