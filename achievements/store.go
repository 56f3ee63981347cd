package achievements

import (
	"context"
	"sync"

	"github.com/warp/shift-earnings/earnings"
)

// =============================================================================
// STORE - Achievement persistence
// =============================================================================

type Store interface {
	// ListAchievements returns every achievement in seeding order.
	ListAchievements(ctx context.Context) ([]Achievement, error)
	GetAchievement(ctx context.Context, id ID) (Achievement, error)
	// SaveAchievement upserts by ID.
	SaveAchievement(ctx context.Context, a Achievement) error
}

// MemoryStore is an in-memory Store for tests and development.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[ID]Achievement
	order []ID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[ID]Achievement)}
}

func cloneAchievement(a Achievement) Achievement {
	if a.UnlockedAt != nil {
		at := *a.UnlockedAt
		a.UnlockedAt = &at
	}
	return a
}

func (m *MemoryStore) ListAchievements(_ context.Context) ([]Achievement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Achievement, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, cloneAchievement(m.byID[id]))
	}
	return out, nil
}

func (m *MemoryStore) GetAchievement(_ context.Context, id ID) (Achievement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byID[id]
	if !ok {
		return Achievement{}, earnings.NotFound("achievement", string(id))
	}
	return cloneAchievement(a), nil
}

func (m *MemoryStore) SaveAchievement(_ context.Context, a Achievement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[a.ID]; !ok {
		m.order = append(m.order, a.ID)
	}
	m.byID[a.ID] = cloneAchievement(a)
	return nil
}

var _ Store = (*MemoryStore)(nil)
