package rules

// ModeEnv is the snapshot the mode rules are evaluated against. Fields and
// methods are callable from expr conditions.
type ModeEnv struct {
	Level           int
	HP              int
	Resources       int
	Incoming        int
	NextUpgradeCost int
	WasSaving       bool
	Fatigue         bool
}

// Affords reports whether resources reach fraction of the next upgrade cost.
func (e ModeEnv) Affords(fraction float64) bool {
	return float64(e.Resources) >= fraction*float64(e.NextUpgradeCost)
}

func (e ModeEnv) Overwhelmed() bool {
	return e.Incoming > e.Resources
}
