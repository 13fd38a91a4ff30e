package agent

import (
	"fmt"
	"slices"

	"github.com/nstehr/bastion/bastion-core/model"
	"github.com/nstehr/bastion/bastion-core/store"
)

// EventKind identifies the category of a turn-to-turn change worth logging.
type EventKind string

const (
	EventLevelUp            EventKind = "level_up"
	EventDamageTaken        EventKind = "damage_taken"
	EventArmorBroken        EventKind = "armor_broken"
	EventOpponentEliminated EventKind = "opponent_eliminated"
	EventFatigueStart       EventKind = "fatigue_start"
	EventDuelStart          EventKind = "duel_start"
	EventDoctrineSwapped    EventKind = "doctrine_swapped"
)

// Event is a significant change detected by diffing consecutive snapshots.
type Event struct {
	Kind   EventKind
	Turn   int
	Detail string
}

// takeSnapshot captures the diffable fields of a turn.
func takeSnapshot(turn int, self model.PlayerTower, opponents []model.OpponentView) store.Snapshot {
	snap := store.Snapshot{
		Turn:  turn,
		Level: self.Level,
		HP:    self.HP,
		Armor: self.Armor,
		Alive: make([]int, 0, len(opponents)),
	}
	for _, o := range opponents {
		if o.Alive() {
			snap.Alive = append(snap.Alive, o.ID)
		}
	}
	slices.Sort(snap.Alive)
	return snap
}

// detectEvents compares cur against the previous snapshot. Returns nil if
// prev is nil (first turn we see).
func detectEvents(cur store.Snapshot, prev *store.Snapshot) []Event {
	if prev == nil {
		return nil
	}

	var events []Event

	if cur.Level > prev.Level {
		events = append(events, Event{
			Kind:   EventLevelUp,
			Turn:   cur.Turn,
			Detail: fmt.Sprintf("level %d -> %d", prev.Level, cur.Level),
		})
	}

	if cur.HP < prev.HP {
		events = append(events, Event{
			Kind:   EventDamageTaken,
			Turn:   cur.Turn,
			Detail: fmt.Sprintf("hp %d -> %d", prev.HP, cur.HP),
		})
	}

	if prev.Armor > 0 && cur.Armor == 0 {
		events = append(events, Event{
			Kind:   EventArmorBroken,
			Turn:   cur.Turn,
			Detail: fmt.Sprintf("lost %d armor", prev.Armor),
		})
	}

	for _, id := range prev.Alive {
		if !slices.Contains(cur.Alive, id) {
			events = append(events, Event{
				Kind:   EventOpponentEliminated,
				Turn:   cur.Turn,
				Detail: fmt.Sprintf("player %d eliminated", id),
			})
		}
	}

	if !model.IsFatigue(prev.Turn) && model.IsFatigue(cur.Turn) {
		events = append(events, Event{
			Kind:   EventFatigueStart,
			Turn:   cur.Turn,
			Detail: fmt.Sprintf("fatigue from turn %d", model.FatigueStart),
		})
	}

	if len(prev.Alive) > 1 && len(cur.Alive) == 1 {
		events = append(events, Event{
			Kind:   EventDuelStart,
			Turn:   cur.Turn,
			Detail: fmt.Sprintf("one opponent left: player %d", cur.Alive[0]),
		})
	}

	return events
}
