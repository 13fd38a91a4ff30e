// Package store persists the little an agent remembers between turns.
package store

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
)

// ErrNotFound is returned when no memory exists for a key.
var ErrNotFound = errors.New("memory not found")

// Key identifies one agent in one game.
type Key struct {
	GameID   int
	PlayerID int
}

// Snapshot is the diffable part of the last observed turn.
type Snapshot struct {
	Turn  int   `json:"turn"`
	Level int   `json:"level"`
	HP    int   `json:"hp"`
	Armor int   `json:"armor"`
	Alive []int `json:"alive"`
}

// Memory is everything carried from one turn to the next.
type Memory struct {
	Key
	Turn      int
	WasSaving bool
	Doctrine  string
	// Threat is the moving-average of troops each opponent sent at us.
	Threat   map[int]float64
	Snapshot *Snapshot
}

// Clone returns a deep copy.
func (m Memory) Clone() Memory {
	out := m
	out.Threat = maps.Clone(m.Threat)
	if m.Snapshot != nil {
		snap := *m.Snapshot
		snap.Alive = slices.Clone(m.Snapshot.Alive)
		out.Snapshot = &snap
	}
	return out
}

// Store loads and saves agent memory.
type Store interface {
	Load(ctx context.Context, key Key) (Memory, error)
	Save(ctx context.Context, m Memory) error
	Delete(ctx context.Context, key Key) error
	Close() error
}

// InMemory is a process-local Store. Memory is lost on restart.
type InMemory struct {
	mu   sync.RWMutex
	data map[Key]Memory
}

func NewInMemory() *InMemory {
	return &InMemory{data: make(map[Key]Memory)}
}

func (s *InMemory) Load(_ context.Context, key Key) (Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.data[key]
	if !ok {
		return Memory{}, ErrNotFound
	}
	return m.Clone(), nil
}

func (s *InMemory) Save(_ context.Context, m Memory) error {
	s.mu.Lock()
	s.data[m.Key] = m.Clone()
	s.mu.Unlock()
	return nil
}

func (s *InMemory) Delete(_ context.Context, key Key) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

func (s *InMemory) Close() error { return nil }
