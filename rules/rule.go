package rules

import (
	"github.com/expr-lang/expr/vm"
	"github.com/nstehr/bastion/bastion-core/model"
)

// Rule is the atomic unit of mode selection: a condition → mode pair.
// The engine evaluates rules by priority and the first match decides the
// turn's mode, so every state is reachable from every other state.
type Rule struct {
	Name         string      // human-readable identifier
	Priority     int         // higher = evaluated first
	Mode         model.Mode  // mode selected when the condition holds
	ConditionSrc string      // expr source (preserved for logging)
	program      *vm.Program // compiled bytecode
}
