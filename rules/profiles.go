package rules

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// profiles is the static registry of built-in doctrines.
var profiles = map[string]func() Doctrine{
	"balanced": DefaultDoctrine,
	"rush":     rushDoctrine,
	"turtle":   turtleDoctrine,
}

// rushDoctrine is the first bot version: no saving phase, upgrade whenever the
// payback fits, thin armor, all-in focus fire that accepts overkill.
func rushDoctrine() Doctrine {
	d := DefaultDoctrine()
	d.Name = "rush"
	d.Rationale = "Upgrades compound; focus fire everything on one target"
	d.EconomyLevelThreshold = 1
	d.CoverageCapLow = 0.33
	d.CoverageCapHigh = 0.33
	d.EarlyEffectiveHPFloor = 0
	d.HealthyArmorCeiling = 15
	d.RetaliationTrigger = 0
	d.AttackCapLow = 1.0
	d.AttackCapHigh = 1.0
	d.AggressionLow = 1.0
	d.AggressionHigh = 1.0
	d.PrimaryFractionLow = 0.75
	d.PrimaryFractionHigh = 0.75
	d.AllowPrimaryOverkill = true
	d.ThreatDecay = 0
	return d
}

// turtleDoctrine favours armor and keeps a reserve when hurt.
func turtleDoctrine() Doctrine {
	d := DefaultDoctrine()
	d.Name = "turtle"
	d.Rationale = "Survive the mid game; let others trade blows"
	d.CoverageCapLow = 1.0
	d.CoverageCapHigh = 0.7
	d.CriticalHPFraction = 0.4
	d.ModerateHPFraction = 0.7
	d.CriticalArmorShare = 0.75
	d.ModerateArmorShare = 0.5
	d.HealthyArmorShare = 0.3
	d.HealthyArmorCeiling = 30
	d.AttackCapLow = 0.4
	d.AttackCapHigh = 0.8
	d.RetaliationTrigger = 20
	d.SignalThreats = false
	return d
}

// Lookup returns the built-in doctrine registered under name.
func Lookup(name string) (Doctrine, bool) {
	f, ok := profiles[name]
	if !ok {
		return Doctrine{}, false
	}
	d := f()
	d.Validate()
	return d, true
}

// ProfileNames lists the built-in doctrines in sorted order.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadDoctrineFile reads a YAML doctrine. Keys absent from the file keep the
// values of the profile named by its "base" key, or of the default doctrine.
func LoadDoctrineFile(path string) (Doctrine, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Doctrine{}, err
	}
	return ParseDoctrine(raw)
}

// ParseDoctrine decodes a YAML doctrine document.
func ParseDoctrine(raw []byte) (Doctrine, error) {
	var header struct {
		Base string `yaml:"base"`
	}
	if err := yaml.Unmarshal(raw, &header); err != nil {
		return Doctrine{}, fmt.Errorf("doctrine yaml: %w", err)
	}

	d := DefaultDoctrine()
	if header.Base != "" {
		base, ok := profiles[header.Base]
		if !ok {
			return Doctrine{}, fmt.Errorf("doctrine yaml: unknown base %q", header.Base)
		}
		d = base()
	}
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return Doctrine{}, fmt.Errorf("doctrine yaml: %w", err)
	}
	d.Validate()
	return d, nil
}

// MarshalDoctrine renders d as YAML.
func MarshalDoctrine(d Doctrine) ([]byte, error) {
	return yaml.Marshal(d)
}
