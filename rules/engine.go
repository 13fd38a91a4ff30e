package rules

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/nstehr/bastion/bastion-core/model"
)

// Engine turns one turn snapshot into one budget-conserving decision.
// The doctrine and its compiled mode rules are immutable between swaps, so
// Decide and Negotiate are pure functions of their input and safe to call
// from independent agents concurrently.
type Engine struct {
	mu       sync.RWMutex
	doctrine Doctrine
	rules    []*Rule
	econ     model.Economy
}

// NewEngine validates d and compiles its mode rules into expr bytecode.
func NewEngine(d Doctrine, econ model.Economy) (*Engine, error) {
	if econ == nil {
		econ = model.Kingdom{}
	}
	d.Validate()
	compiled, err := compileRules(CompileModeRules(d))
	if err != nil {
		return nil, err
	}
	return &Engine{doctrine: d, rules: compiled, econ: econ}, nil
}

// Swap atomically replaces the doctrine. Compiles first; if compilation fails
// the old doctrine remains active.
func (e *Engine) Swap(d Doctrine) error {
	d.Validate()
	compiled, err := compileRules(CompileModeRules(d))
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.doctrine = d
	e.rules = compiled
	e.mu.Unlock()
	slog.Info("doctrine swapped", "doctrine", d.Name, "rules", len(compiled))
	return nil
}

// Doctrine returns the active doctrine.
func (e *Engine) Doctrine() Doctrine {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doctrine
}

// Economy returns the economy the engine prices upgrades with.
func (e *Engine) Economy() model.Economy { return e.econ }

func (e *Engine) snapshot() (Doctrine, []*Rule) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doctrine, e.rules
}

// Outcome is a Decision plus the reasoning that produced it.
type Outcome struct {
	Decision model.Decision
	Mode     model.Mode
	ModeRule string
	// Saving is the flag to carry into the next turn.
	Saving    bool
	Level     int
	Incoming  int
	ArmorCase string
	Ranking   []ScoredOpponent
}

// Decide runs mode selection, upgrade, armor and attack allocation in order,
// each consuming what the previous left. It never fails: malformed input is
// clamped and an exhausted budget degrades to zero spend.
func (e *Engine) Decide(in TurnInput) Outcome {
	d, rules := e.snapshot()
	in = in.Normalize()
	self := in.Self
	incoming := in.Incoming()

	mode, ruleName := selectMode(rules, ModeEnv{
		Level:           self.Level,
		HP:              self.HP,
		Resources:       self.Resources,
		Incoming:        incoming,
		NextUpgradeCost: e.nextUpgradeCost(self.Level),
		WasSaving:       self.WasSaving,
		Fatigue:         in.Fatigue,
	})

	budget := self.Resources
	level := self.Level
	decision := model.Decision{AttackAllocations: map[int]int{}}

	if ok, cost := AdviseUpgrade(d, e.econ, UpgradeInput{
		Level:  level,
		Turn:   self.Turn,
		Budget: budget,
		Mode:   mode,
	}); ok {
		decision.Upgrade = true
		decision.UpgradeCost = cost
		budget -= cost
		level++
	}

	armor, armorCase := AllocateArmor(d, ArmorInput{
		Budget:            budget,
		Mode:              mode,
		Incoming:          incoming,
		Estimated:         in.EstimatedIncoming,
		HP:                self.HP,
		Armor:             self.Armor,
		Turn:              self.Turn,
		AvgEnemyResources: in.AvgEnemyResources(),
	})
	decision.ArmorSpend = armor
	budget -= armor

	allocations, ranking := AllocateAttacks(d, AttackInput{
		Budget:        budget,
		Mode:          mode,
		Incoming:      incoming,
		HP:            self.HP,
		Opponents:     in.Opponents,
		Allies:        in.Allies,
		AgreedTargets: in.AgreedTargets,
	})
	for id, troops := range allocations {
		decision.AttackAllocations[id] = troops
	}

	return Outcome{
		Decision:  decision,
		Mode:      mode,
		ModeRule:  ruleName,
		Saving:    mode == model.ModeSaving,
		Level:     level,
		Incoming:  incoming,
		ArmorCase: armorCase,
		Ranking:   ranking,
	}
}

// Negotiate plans the negotiation-phase signals for the given opponents.
func (e *Engine) Negotiate(opponents []model.OpponentView) []model.NegotiationSignal {
	d, _ := e.snapshot()
	return PlanNegotiation(d, e.econ, opponents)
}

// SelectMode evaluates the mode rules against env.
func (e *Engine) SelectMode(env ModeEnv) (model.Mode, string) {
	_, rules := e.snapshot()
	return selectMode(rules, env)
}

func (e *Engine) nextUpgradeCost(level int) int {
	if level >= model.MaxLevel {
		return 0
	}
	return e.econ.UpgradeCost(level)
}

func selectMode(rules []*Rule, env ModeEnv) (model.Mode, string) {
	for _, r := range rules {
		result, err := vm.Run(r.program, env)
		if err != nil {
			slog.Warn("mode rule condition error", "rule", r.Name, "error", err)
			continue
		}
		if match, ok := result.(bool); ok && match {
			return r.Mode, r.Name
		}
	}
	return model.ModeNormal, "fallback"
}

func compileRules(rules []*Rule) ([]*Rule, error) {
	for _, r := range rules {
		prog, err := expr.Compile(r.ConditionSrc, expr.Env(ModeEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		r.program = prog
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
	return rules, nil
}
