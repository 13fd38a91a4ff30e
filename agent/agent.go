package agent

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/nstehr/bastion/bastion-core/model"
	"github.com/nstehr/bastion/bastion-core/rules"
	"github.com/nstehr/bastion/bastion-core/store"
)

// Agent answers negotiate and combat requests for any number of games.
// Cross-turn memory lives in the store, keyed by game and player, so one
// Agent serves every connection.
type Agent struct {
	strategist *Strategist
	store      store.Store
	econ       model.Economy

	mu    sync.Mutex
	locks map[store.Key]*keyLock
}

// keyLock is held in the map only while some caller holds or waits on it.
type keyLock struct {
	sync.Mutex
	refs int
}

func New(strategist *Strategist, st store.Store) *Agent {
	if st == nil {
		st = store.NewInMemory()
	}
	return &Agent{
		strategist: strategist,
		store:      st,
		econ:       strategist.Base().Economy(),
		locks:      make(map[store.Key]*keyLock),
	}
}

// Strategist returns the doctrine selector backing this agent.
func (a *Agent) Strategist() *Strategist { return a.strategist }

// lock serializes turns of the same agent so memory updates never interleave.
func (a *Agent) lock(key store.Key) func() {
	a.mu.Lock()
	l, ok := a.locks[key]
	if !ok {
		l = &keyLock{}
		a.locks[key] = l
	}
	l.refs++
	a.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		a.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(a.locks, key)
		}
		a.mu.Unlock()
	}
}

// Negotiate plans this turn's diplomacy. It reads no memory: the signals
// depend only on the towers in view and last phase's attacks.
func (a *Agent) Negotiate(ctx context.Context, req model.NegotiateRequest) []model.DiplomacyProposal {
	self := req.PlayerTower.PlayerID
	opponents := opponentViews(a.econ, self, req.EnemyTowers, req.CombatActions)
	live := rules.LiveOpponents(opponents)

	engine := a.strategist.Select(Phase{Fatigue: model.IsFatigue(req.Turn), LiveOpponents: len(live)})
	signals := engine.Negotiate(live)
	out := proposals(signals)

	slog.InfoContext(ctx, "negotiation planned",
		"game", req.GameID,
		"turn", req.Turn,
		"player", self,
		"doctrine", engine.Doctrine().Name,
		"opponents", len(live),
		"proposals", len(out),
	)
	return out
}

// Combat decides this turn's spend and records what the next turn needs.
func (a *Agent) Combat(ctx context.Context, req model.CombatRequest) []model.CombatAction {
	self := req.PlayerTower
	key := store.Key{GameID: req.GameID, PlayerID: self.PlayerID}
	defer a.lock(key)()

	mem := a.recall(ctx, key, req.Turn)

	opponents := opponentViews(a.econ, self.PlayerID, req.EnemyTowers, req.PreviousAttacks)
	live := rules.LiveOpponents(opponents)
	fatigue := model.IsFatigue(req.Turn)
	engine := a.strategist.Select(Phase{Fatigue: fatigue, LiveOpponents: len(live)})
	doctrine := engine.Doctrine()

	threat := foldThreat(mem.Threat, live, doctrine.ThreatDecay)
	allies, agreed := alliesOf(self.PlayerID, req.Diplomacy)

	out := engine.Decide(rules.TurnInput{
		Self: model.AgentState{
			Level:     self.Level,
			HP:        self.HP,
			Armor:     self.Armor,
			Resources: self.Resources,
			Turn:      req.Turn,
			WasSaving: mem.WasSaving,
		},
		Opponents:         live,
		Allies:            allies,
		AgreedTargets:     agreed,
		Fatigue:           fatigue,
		EstimatedIncoming: expectedIncoming(threat),
	})

	snap := takeSnapshot(req.Turn, self, live)
	events := detectEvents(snap, mem.Snapshot)
	if mem.Doctrine != "" && mem.Doctrine != doctrine.Name {
		events = append(events, Event{Kind: EventDoctrineSwapped, Turn: req.Turn, Detail: mem.Doctrine + " -> " + doctrine.Name})
	}
	for _, e := range events {
		slog.InfoContext(ctx, "turn event", "game", req.GameID, "player", self.PlayerID, "kind", e.Kind, "turn", e.Turn, "detail", e.Detail)
	}

	next := store.Memory{
		Key:       key,
		Turn:      req.Turn,
		WasSaving: out.Saving,
		Doctrine:  doctrine.Name,
		Threat:    threat,
		Snapshot:  &snap,
	}
	if err := a.store.Save(ctx, next); err != nil {
		slog.ErrorContext(ctx, "failed to save agent memory", "game", req.GameID, "player", self.PlayerID, "error", err)
	}

	actions := combatActions(out.Decision)
	slog.InfoContext(ctx, "combat decision",
		"game", req.GameID,
		"turn", req.Turn,
		"player", self.PlayerID,
		"doctrine", doctrine.Name,
		"mode", out.Mode,
		"rule", out.ModeRule,
		"upgrade", out.Decision.Upgrade,
		"armor", out.Decision.ArmorSpend,
		"armorCase", out.ArmorCase,
		"attacks", out.Decision.AttackAllocations,
		"incoming", out.Incoming,
		"spent", out.Decision.Spent(),
		"resources", self.Resources,
	)
	return actions
}

// recall loads memory for key. A missing or unreadable record, or one from a
// later turn (the game id was reused), starts the agent fresh.
func (a *Agent) recall(ctx context.Context, key store.Key, turn int) store.Memory {
	mem, err := a.store.Load(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return store.Memory{Key: key}
	case err != nil:
		slog.WarnContext(ctx, "failed to load agent memory, starting fresh", "game", key.GameID, "player", key.PlayerID, "error", err)
		return store.Memory{Key: key}
	case mem.Turn > turn:
		slog.InfoContext(ctx, "turn went backwards, resetting memory", "game", key.GameID, "player", key.PlayerID, "was", mem.Turn, "now", turn)
		return store.Memory{Key: key}
	}
	return mem
}

// Forget drops the memory of one agent, e.g. after its game ended. It waits
// for an in-flight turn of that agent to finish first.
func (a *Agent) Forget(ctx context.Context, key store.Key) error {
	defer a.lock(key)()
	return a.store.Delete(ctx, key)
}
