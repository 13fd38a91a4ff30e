package agent

import (
	"fmt"
	"log/slog"

	"github.com/nstehr/bastion/bastion-core/model"
	"github.com/nstehr/bastion/bastion-core/rules"
)

// Phase is the coarse game situation the strategist picks a doctrine for.
type Phase struct {
	Fatigue       bool
	LiveOpponents int
}

func (p Phase) Duel() bool { return p.LiveOpponents == 1 }

// StrategistConfig names the doctrines for each phase. Empty Fatigue or Duel
// keeps the base doctrine in that phase.
type StrategistConfig struct {
	Base    rules.Doctrine
	Fatigue string
	Duel    string
}

// Strategist owns one compiled engine per configured doctrine and picks
// which one decides a turn. Choosing is a pure function of the phase, so
// concurrent games never see each other's doctrine.
type Strategist struct {
	base    *rules.Engine
	fatigue *rules.Engine
	duel    *rules.Engine
}

func NewStrategist(cfg StrategistConfig, econ model.Economy) (*Strategist, error) {
	base, err := rules.NewEngine(cfg.Base, econ)
	if err != nil {
		return nil, fmt.Errorf("base doctrine %q: %w", cfg.Base.Name, err)
	}
	s := &Strategist{base: base}
	if s.fatigue, err = phaseEngine(cfg.Fatigue, econ); err != nil {
		return nil, fmt.Errorf("fatigue doctrine: %w", err)
	}
	if s.duel, err = phaseEngine(cfg.Duel, econ); err != nil {
		return nil, fmt.Errorf("duel doctrine: %w", err)
	}
	slog.Info("strategist ready", "base", cfg.Base.Name, "fatigue", cfg.Fatigue, "duel", cfg.Duel)
	return s, nil
}

func phaseEngine(name string, econ model.Economy) (*rules.Engine, error) {
	if name == "" {
		return nil, nil
	}
	d, ok := rules.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown doctrine %q", name)
	}
	return rules.NewEngine(d, econ)
}

// Select returns the engine deciding turns in phase p. A duel
// outranks fatigue: with one opponent left there is nobody to out-wait.
func (s *Strategist) Select(p Phase) *rules.Engine {
	switch {
	case p.Duel() && s.duel != nil:
		return s.duel
	case p.Fatigue && s.fatigue != nil:
		return s.fatigue
	default:
		return s.base
	}
}

// Base returns the engine used outside special phases.
func (s *Strategist) Base() *rules.Engine { return s.base }

// Reload swaps the base doctrine in place. In-flight turns finish on the
// old one.
func (s *Strategist) Reload(d rules.Doctrine) error {
	return s.base.Swap(d)
}
