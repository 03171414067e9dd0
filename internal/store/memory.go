package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Memory keeps maps and match history in process.
type Memory struct {
	mu      sync.RWMutex
	maps    map[string]Map
	order   []string
	matches []Match
}

// NewMemory seeds the store; later maps replace earlier ones with the same id.
func NewMemory(maps ...Map) *Memory {
	m := &Memory{maps: map[string]Map{}}
	for _, mp := range maps {
		if _, ok := m.maps[mp.ID]; !ok {
			m.order = append(m.order, mp.ID)
		}
		m.maps[mp.ID] = mp
	}
	return m
}

func (m *Memory) GetMap(_ context.Context, id string) (Map, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mp, ok := m.maps[id]
	if !ok {
		return Map{}, ErrMapNotFound
	}
	return mp, nil
}

func (m *Memory) ListMaps(_ context.Context) ([]MapSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []MapSummary{}
	for _, id := range m.order {
		if mp := m.maps[id]; !mp.IsHidden {
			out = append(out, mp.Summary())
		}
	}
	return out, nil
}

func (m *Memory) RecordMatch(_ context.Context, match Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if match.ID == "" {
		match.ID = uuid.NewString()
	}
	match.Players = slices.Clone(match.Players)
	m.matches = append(m.matches, match)
	return nil
}

// Matches returns the recorded matches, oldest first.
func (m *Memory) Matches() []Match {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.matches)
}

func (m *Memory) Close() error { return nil }
