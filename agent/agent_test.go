package agent

import (
	"context"
	"encoding/json"
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/nstehr/bastion/bastion-core/ipc"
	"github.com/nstehr/bastion/bastion-core/model"
	"github.com/nstehr/bastion/bastion-core/rules"
	"github.com/nstehr/bastion/bastion-core/store"
)

func newTestAgent(t *testing.T, cfg StrategistConfig) (*Agent, store.Store) {
	t.Helper()
	if cfg.Base.Name == "" {
		cfg.Base = rules.DefaultDoctrine()
	}
	s, err := NewStrategist(cfg, model.Kingdom{})
	if err != nil {
		t.Fatalf("NewStrategist: %v", err)
	}
	st := store.NewInMemory()
	return New(s, st), st
}

func combatRequest(turn, resources int) model.CombatRequest {
	return model.CombatRequest{
		GameID:      9,
		Turn:        turn,
		PlayerTower: model.PlayerTower{PlayerID: 1, HP: 100, Resources: resources, Level: 1},
		EnemyTowers: []model.EnemyTower{
			{PlayerID: 2, HP: 100, Level: 1},
			{PlayerID: 3, HP: 100, Level: 1},
		},
	}
}

func TestCombatFreshTower(t *testing.T) {
	a, _ := newTestAgent(t, StrategistConfig{})
	got := a.Combat(context.Background(), combatRequest(1, 20))
	want := []model.CombatAction{{Type: model.ActionArmor, Amount: 20}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Combat = %+v, want %+v", got, want)
	}
}

func TestCombatCarriesSavingFlag(t *testing.T) {
	ctx := context.Background()
	a, st := newTestAgent(t, StrategistConfig{})

	// 35 coins reach 60% of the 50-coin upgrade: start saving.
	a.Combat(ctx, combatRequest(2, 35))
	mem, err := st.Load(ctx, store.Key{GameID: 9, PlayerID: 1})
	if err != nil || !mem.WasSaving {
		t.Fatalf("memory after turn 2 = %+v, %v; want saving", mem, err)
	}

	// 22 coins only hold the saving mode when it was already on.
	got := a.Combat(ctx, combatRequest(3, 22))
	if want := []model.CombatAction{{Type: model.ActionArmor, Amount: 4}}; !reflect.DeepEqual(got, want) {
		t.Errorf("saving turn = %+v, want %+v", got, want)
	}

	fresh, _ := newTestAgent(t, StrategistConfig{})
	got = fresh.Combat(ctx, combatRequest(3, 22))
	if want := []model.CombatAction{{Type: model.ActionArmor, Amount: 20}}; !reflect.DeepEqual(got, want) {
		t.Errorf("same turn without memory = %+v, want %+v", got, want)
	}
}

func TestCombatResetsWhenTurnGoesBackwards(t *testing.T) {
	ctx := context.Background()
	a, st := newTestAgent(t, StrategistConfig{})
	key := store.Key{GameID: 9, PlayerID: 1}
	st.Save(ctx, store.Memory{Key: key, Turn: 30, WasSaving: true, Threat: map[int]float64{2: 500}})

	a.Combat(ctx, combatRequest(1, 20))
	mem, _ := st.Load(ctx, key)
	if mem.Turn != 1 || mem.WasSaving || mem.Threat[2] != 0 {
		t.Errorf("memory = %+v, want a fresh record for turn 1", mem)
	}
}

func TestCombatSwitchesDoctrineForDuel(t *testing.T) {
	ctx := context.Background()
	a, st := newTestAgent(t, StrategistConfig{Duel: "rush"})

	a.Combat(ctx, combatRequest(5, 20))
	req := combatRequest(6, 20)
	req.EnemyTowers[1].HP = 0
	a.Combat(ctx, req)

	mem, _ := st.Load(ctx, store.Key{GameID: 9, PlayerID: 1})
	if mem.Doctrine != "rush" {
		t.Errorf("doctrine = %q, want rush once one opponent is left", mem.Doctrine)
	}
	if len(mem.Snapshot.Alive) != 1 || mem.Snapshot.Alive[0] != 2 {
		t.Errorf("snapshot alive = %v, want [2]", mem.Snapshot.Alive)
	}
}

func TestCombatRetaliates(t *testing.T) {
	a, _ := newTestAgent(t, StrategistConfig{})
	req := model.CombatRequest{
		GameID:      1,
		Turn:        12,
		PlayerTower: model.PlayerTower{PlayerID: 1, HP: 100, Resources: 100, Level: 5},
		EnemyTowers: []model.EnemyTower{
			{PlayerID: 2, HP: 100, Level: 3},
			{PlayerID: 3, HP: 100, Level: 3},
		},
		PreviousAttacks: []model.CombatActionEntry{
			{PlayerID: 3, Action: model.AttackAction{TargetID: 1, TroopCount: 20}},
		},
	}
	actions := a.Combat(context.Background(), req)
	spent := 0
	var firstTarget int
	for _, act := range actions {
		spent += act.Amount + act.TroopCount
		if act.Type == model.ActionAttack && firstTarget == 0 {
			firstTarget = act.TargetID
		}
	}
	if spent > 100 {
		t.Errorf("spent %d of 100: %+v", spent, actions)
	}
	if actions[0].Type != model.ActionArmor || actions[0].Amount != 20 {
		t.Errorf("first action = %+v, want armor covering the 20 incoming", actions[0])
	}
	if firstTarget == 0 {
		t.Fatalf("no attack in %+v", actions)
	}
}

func TestNegotiateProposesAgainstThreat(t *testing.T) {
	a, _ := newTestAgent(t, StrategistConfig{})
	got := a.Negotiate(context.Background(), model.NegotiateRequest{
		GameID:      1,
		Turn:        4,
		PlayerTower: model.PlayerTower{PlayerID: 1, HP: 100, Level: 1},
		EnemyTowers: []model.EnemyTower{
			{PlayerID: 2, HP: 100, Level: 1},
			{PlayerID: 3, HP: 100, Level: 4},
			{PlayerID: 4, HP: 0, Level: 5},
		},
	})
	if len(got) != 1 || got[0].AllyID != 2 || got[0].AttackTargetID == nil || *got[0].AttackTargetID != 3 {
		t.Errorf("Negotiate = %+v, want one offer to 2 against 3", got)
	}
}

func TestNegotiateDuelIsSilent(t *testing.T) {
	a, _ := newTestAgent(t, StrategistConfig{})
	got := a.Negotiate(context.Background(), model.NegotiateRequest{
		Turn:        10,
		PlayerTower: model.PlayerTower{PlayerID: 1, HP: 100, Level: 1},
		EnemyTowers: []model.EnemyTower{{PlayerID: 2, HP: 100, Level: 1}},
	})
	if got == nil || len(got) != 0 {
		t.Errorf("Negotiate = %#v, want an empty, non-nil list", got)
	}
}

func TestForget(t *testing.T) {
	ctx := context.Background()
	a, st := newTestAgent(t, StrategistConfig{})
	a.Combat(ctx, combatRequest(1, 20))
	key := store.Key{GameID: 9, PlayerID: 1}
	if err := a.Forget(ctx, key); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Load(ctx, key); err == nil {
		t.Error("memory survived Forget")
	}
}

func TestCombatReleasesKeyLocks(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAgent(t, StrategistConfig{})
	for game := 1; game <= 50; game++ {
		req := combatRequest(1, 20)
		req.GameID = game
		a.Combat(ctx, req)
	}
	a.mu.Lock()
	n := len(a.locks)
	a.mu.Unlock()
	if n != 0 {
		t.Errorf("%d key locks retained after every turn finished", n)
	}
}

func TestForgetWaitsForInFlightTurn(t *testing.T) {
	ctx := context.Background()
	a, st := newTestAgent(t, StrategistConfig{})
	key := store.Key{GameID: 9, PlayerID: 1}
	a.Combat(ctx, combatRequest(1, 20))

	// Stand in for a turn that is still deciding.
	unlock := a.lock(key)
	done := make(chan error, 1)
	go func() { done <- a.Forget(ctx, key) }()

	select {
	case <-done:
		t.Fatal("Forget ran while a turn held the agent lock")
	case <-time.After(50 * time.Millisecond):
	}
	if _, err := st.Load(ctx, key); err != nil {
		t.Fatalf("memory deleted under an in-flight turn: %v", err)
	}

	unlock()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Forget never ran")
	}
	if _, err := st.Load(ctx, key); err == nil {
		t.Error("memory survived Forget")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.locks) != 0 {
		t.Errorf("%d key locks retained", len(a.locks))
	}
}

func TestSidecarHandlers(t *testing.T) {
	a, _ := newTestAgent(t, StrategistConfig{})
	server, client := net.Pipe()
	defer client.Close()

	conn := ipc.NewConnection(server, nil)
	a.Register(conn)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go conn.ReadLoop(ctx)

	roundTrip := func(msgType string, data any) ipc.Envelope {
		t.Helper()
		env, err := ipc.NewEnvelope(msgType, data)
		if err != nil {
			t.Fatal(err)
		}
		if err := ipc.WriteEnvelope(client, env); err != nil {
			t.Fatalf("write %s: %v", msgType, err)
		}
		client.SetReadDeadline(time.Now().Add(2 * time.Second))
		reply, err := ipc.ReadEnvelope(client)
		if err != nil {
			t.Fatalf("read reply to %s: %v", msgType, err)
		}
		return reply
	}

	ack := roundTrip(ipc.TypeHello, ipc.HelloMessage{Client: "arena"})
	var ackMsg ipc.AckMessage
	if ack.Type != ipc.TypeAck || json.Unmarshal(ack.Data, &ackMsg) != nil || ackMsg.Doctrine != "balanced" {
		t.Errorf("hello reply = %+v (%s)", ack, ack.Data)
	}

	reply := roundTrip(ipc.TypeCombat, combatRequest(1, 20))
	var actions []model.CombatAction
	if reply.Type != ipc.TypeActions {
		t.Fatalf("combat reply type = %s", reply.Type)
	}
	if err := json.Unmarshal(reply.Data, &actions); err != nil {
		t.Fatal(err)
	}
	if len(actions) != 1 || actions[0].Type != model.ActionArmor || actions[0].Amount != 20 {
		t.Errorf("actions = %+v", actions)
	}

	reply = roundTrip(ipc.TypeNegotiate, model.NegotiateRequest{
		PlayerTower: model.PlayerTower{PlayerID: 1, HP: 100, Level: 1},
		EnemyTowers: []model.EnemyTower{{PlayerID: 2, HP: 100, Level: 1}, {PlayerID: 3, HP: 100, Level: 2}},
	})
	var props []model.DiplomacyProposal
	if reply.Type != ipc.TypeDiplomacy || json.Unmarshal(reply.Data, &props) != nil || len(props) != 1 {
		t.Errorf("negotiate reply = %+v (%s)", reply, reply.Data)
	}

	bad := ipc.Envelope{Type: ipc.TypeCombat, Data: json.RawMessage(`"not an object"`)}
	if err := ipc.WriteEnvelope(client, bad); err != nil {
		t.Fatal(err)
	}
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	if reply, err := ipc.ReadEnvelope(client); err != nil || reply.Type != ipc.TypeError {
		t.Errorf("malformed combat reply = %+v, %v; want error envelope", reply, err)
	}
}
