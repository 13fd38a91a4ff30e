package rules

import "math"

// Doctrine is the full parameter set of one strategy variant.
// Bot versions differ only in these numbers; the components never branch on
// a version name.
type Doctrine struct {
	Name      string `yaml:"name"`
	Rationale string `yaml:"rationale"`

	// Health reference used to turn hp into a 0–1 fraction.
	MaxHP int `yaml:"max_hp"`

	// Mode selection.
	EconomyLevelThreshold int     `yaml:"economy_level_threshold"`
	SavingFraction        float64 `yaml:"saving_fraction"`
	SavingExitFraction    float64 `yaml:"saving_exit_fraction"`
	MinSavingHP           int     `yaml:"min_saving_hp"`
	LowHPCutoff           int     `yaml:"low_hp_cutoff"`

	// Upgrade ROI.
	UpgradeCutoffTurn int     `yaml:"upgrade_cutoff_turn"`
	GameHorizon       int     `yaml:"game_horizon"`
	PaybackFactor     float64 `yaml:"payback_factor"`

	// Threat scoring.
	ThreatIncomeWeight     float64 `yaml:"threat_income_weight"`
	ThreatHPWeight         float64 `yaml:"threat_hp_weight"`
	ThreatArmorWeight      float64 `yaml:"threat_armor_weight"`
	ThreatRetaliationBase  float64 `yaml:"threat_retaliation_base"`
	ThreatRetaliationSlope float64 `yaml:"threat_retaliation_slope"`
	// ThreatDecay is the weight of history in the per-opponent moving
	// average of troops sent at us. Zero disables the estimate.
	ThreatDecay float64 `yaml:"threat_decay"`

	// Armor sizing.
	SavingIncomingShare   float64 `yaml:"saving_incoming_share"`
	SavingBudgetShare     float64 `yaml:"saving_budget_share"`
	SavingArmorFloor      int     `yaml:"saving_armor_floor"`
	SavingFloorShare      float64 `yaml:"saving_floor_share"`
	CoverageCapLow        float64 `yaml:"coverage_cap_low"`
	CoverageCapHigh       float64 `yaml:"coverage_cap_high"`
	EarlyTurnCutoff       int     `yaml:"early_turn_cutoff"`
	EarlyEffectiveHPFloor int     `yaml:"early_effective_hp_floor"`
	CriticalHPFraction    float64 `yaml:"critical_hp_fraction"`
	ModerateHPFraction    float64 `yaml:"moderate_hp_fraction"`
	CriticalArmorShare    float64 `yaml:"critical_armor_share"`
	ModerateArmorShare    float64 `yaml:"moderate_armor_share"`
	HealthyArmorShare     float64 `yaml:"healthy_armor_share"`
	HealthyArmorCeiling   int     `yaml:"healthy_armor_ceiling"`
	EnemyCapacityScale    float64 `yaml:"enemy_capacity_scale"`

	// Attack scoring and budgeting.
	RetaliationTrigger   int     `yaml:"retaliation_trigger"`
	AttackCapLow         float64 `yaml:"attack_cap_low"`
	AttackCapHigh        float64 `yaml:"attack_cap_high"`
	RetaliationBase      float64 `yaml:"retaliation_base"`
	RetaliationSlope     float64 `yaml:"retaliation_slope"`
	AggressionLow        float64 `yaml:"aggression_low"`
	AggressionHigh       float64 `yaml:"aggression_high"`
	CoordinationBonus    float64 `yaml:"coordination_bonus"`
	AllianceProtection   float64 `yaml:"alliance_protection"`
	KillBonus            float64 `yaml:"kill_bonus"`
	WeaknessNumerator    float64 `yaml:"weakness_numerator"`
	LevelWeight          float64 `yaml:"level_weight"`
	ExclusionScore       float64 `yaml:"exclusion_score"`
	PrimaryFractionLow   float64 `yaml:"primary_fraction_low"`
	PrimaryFractionHigh  float64 `yaml:"primary_fraction_high"`
	AllowPrimaryOverkill bool    `yaml:"allow_primary_overkill"`

	// Negotiation.
	SignalThreats bool `yaml:"signal_threats"`
}

// DefaultDoctrine returns the balanced baseline doctrine.
func DefaultDoctrine() Doctrine {
	return Doctrine{
		Name:      "balanced",
		Rationale: "Grow to level 3 behind light armor, then focus fire with full armor coverage when hit",

		MaxHP: 100,

		EconomyLevelThreshold: 3,
		SavingFraction:        0.6,
		SavingExitFraction:    0.4,
		MinSavingHP:           50,
		LowHPCutoff:           30,

		UpgradeCutoffTurn: 20,
		GameHorizon:       40,
		PaybackFactor:     0.6,

		ThreatIncomeWeight:     2.0,
		ThreatHPWeight:         0.3,
		ThreatArmorWeight:      0.2,
		ThreatRetaliationBase:  40,
		ThreatRetaliationSlope: 0.5,
		ThreatDecay:            0.5,

		SavingIncomingShare:   0.5,
		SavingBudgetShare:     0.25,
		SavingArmorFloor:      8,
		SavingFloorShare:      0.2,
		CoverageCapLow:        0.8,
		CoverageCapHigh:       0.5,
		EarlyTurnCutoff:       3,
		EarlyEffectiveHPFloor: 120,
		CriticalHPFraction:    0.3,
		ModerateHPFraction:    0.5,
		CriticalArmorShare:    0.6,
		ModerateArmorShare:    0.4,
		HealthyArmorShare:     0.2,
		HealthyArmorCeiling:   15,
		EnemyCapacityScale:    1.25,

		RetaliationTrigger:  10,
		AttackCapLow:        0.6,
		AttackCapHigh:       1.0,
		RetaliationBase:     100,
		RetaliationSlope:    1.5,
		AggressionLow:       0.5,
		AggressionHigh:      1.0,
		CoordinationBonus:   70,
		AllianceProtection:  300,
		KillBonus:           80,
		WeaknessNumerator:   150,
		LevelWeight:         8,
		ExclusionScore:      -100,
		PrimaryFractionLow:  0.5,
		PrimaryFractionHigh: 0.75,
	}
}

// Validate clamps all parameters to their valid ranges and restores the
// orderings the allocators depend on (armor share never shrinks as hp falls).
func (d *Doctrine) Validate() {
	d.MaxHP = clampInt(d.MaxHP, 1, math.MaxInt32)
	d.EconomyLevelThreshold = clampInt(d.EconomyLevelThreshold, 1, 5)
	d.SavingFraction = clamp(d.SavingFraction, 0, 1)
	d.SavingExitFraction = clamp(d.SavingExitFraction, 0, d.SavingFraction)
	d.MinSavingHP = clampInt(d.MinSavingHP, 0, d.MaxHP)
	d.LowHPCutoff = clampInt(d.LowHPCutoff, 0, d.MaxHP)

	d.UpgradeCutoffTurn = clampInt(d.UpgradeCutoffTurn, 0, math.MaxInt32)
	d.GameHorizon = clampInt(d.GameHorizon, 1, math.MaxInt32)
	d.PaybackFactor = clamp(d.PaybackFactor, 0, 1)

	d.ThreatIncomeWeight = nonNegative(d.ThreatIncomeWeight)
	d.ThreatHPWeight = nonNegative(d.ThreatHPWeight)
	d.ThreatArmorWeight = nonNegative(d.ThreatArmorWeight)
	d.ThreatRetaliationBase = nonNegative(d.ThreatRetaliationBase)
	d.ThreatRetaliationSlope = nonNegative(d.ThreatRetaliationSlope)
	d.ThreatDecay = clamp(d.ThreatDecay, 0, 1)

	d.SavingIncomingShare = clamp(d.SavingIncomingShare, 0, 1)
	d.SavingBudgetShare = clamp(d.SavingBudgetShare, 0, 1)
	d.SavingArmorFloor = clampInt(d.SavingArmorFloor, 0, math.MaxInt32)
	d.SavingFloorShare = clamp(d.SavingFloorShare, 0, 1)
	d.CoverageCapLow = clamp(d.CoverageCapLow, 0, 1)
	d.CoverageCapHigh = clamp(d.CoverageCapHigh, 0, d.CoverageCapLow)
	d.EarlyTurnCutoff = clampInt(d.EarlyTurnCutoff, 0, math.MaxInt32)
	d.EarlyEffectiveHPFloor = clampInt(d.EarlyEffectiveHPFloor, 0, math.MaxInt32)
	d.ModerateHPFraction = clamp(d.ModerateHPFraction, 0, 1)
	d.CriticalHPFraction = clamp(d.CriticalHPFraction, 0, d.ModerateHPFraction)
	d.CriticalArmorShare = clamp(d.CriticalArmorShare, 0, 1)
	d.ModerateArmorShare = clamp(d.ModerateArmorShare, 0, d.CriticalArmorShare)
	d.HealthyArmorShare = clamp(d.HealthyArmorShare, 0, d.ModerateArmorShare)
	d.HealthyArmorCeiling = clampInt(d.HealthyArmorCeiling, 0, math.MaxInt32)
	d.EnemyCapacityScale = nonNegative(d.EnemyCapacityScale)

	d.RetaliationTrigger = clampInt(d.RetaliationTrigger, 0, math.MaxInt32)
	d.AttackCapHigh = clamp(d.AttackCapHigh, 0, 1)
	d.AttackCapLow = clamp(d.AttackCapLow, 0, d.AttackCapHigh)
	d.RetaliationBase = nonNegative(d.RetaliationBase)
	d.RetaliationSlope = nonNegative(d.RetaliationSlope)
	d.AggressionHigh = clamp(d.AggressionHigh, 0, 1)
	d.AggressionLow = clamp(d.AggressionLow, 0, d.AggressionHigh)
	d.CoordinationBonus = nonNegative(d.CoordinationBonus)
	d.AllianceProtection = nonNegative(d.AllianceProtection)
	d.KillBonus = nonNegative(d.KillBonus)
	d.WeaknessNumerator = nonNegative(d.WeaknessNumerator)
	d.LevelWeight = nonNegative(d.LevelWeight)
	d.PrimaryFractionHigh = clamp(d.PrimaryFractionHigh, 0, 1)
	d.PrimaryFractionLow = clamp(d.PrimaryFractionLow, 0, d.PrimaryFractionHigh)
}

// HPFraction maps hp onto [0, 1] against the doctrine's MaxHP.
func (d Doctrine) HPFraction(hp int) float64 {
	if d.MaxHP <= 0 {
		return 0
	}
	return clamp(float64(hp)/float64(d.MaxHP), 0, 1)
}

// clampInt restricts v to [min, max].
func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// lerpf linearly interpolates between min and max by t (0–1), returning a float64.
func lerpf(min, max, t float64) float64 {
	return min + (max-min)*t
}

// clamp restricts v to [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

// floorNonNegative truncates v to an int no lower than zero.
func floorNonNegative(v float64) int {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return int(math.Floor(v))
}
