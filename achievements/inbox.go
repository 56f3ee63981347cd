package achievements

import (
	"context"
	"sync"
)

// =============================================================================
// INBOX - Recent unlocks awaiting acknowledgement
// =============================================================================

// Inbox holds unlocked achievements until the user has seen them. It is
// presentation state; losing it never affects achievement records.
type Inbox interface {
	Push(ctx context.Context, unlocked []Achievement) error
	Recent(ctx context.Context) ([]Achievement, error)
	// Ack removes the given achievements. An empty list clears the inbox.
	Ack(ctx context.Context, ids []ID) error
}

type MemoryInbox struct {
	mu    sync.Mutex
	items []Achievement
}

func NewMemoryInbox() *MemoryInbox { return &MemoryInbox{} }

func (b *MemoryInbox) Push(_ context.Context, unlocked []Achievement) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range unlocked {
		if !b.containsLocked(a.ID) {
			b.items = append(b.items, cloneAchievement(a))
		}
	}
	return nil
}

func (b *MemoryInbox) containsLocked(id ID) bool {
	for _, a := range b.items {
		if a.ID == id {
			return true
		}
	}
	return false
}

func (b *MemoryInbox) Recent(_ context.Context) ([]Achievement, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Achievement, len(b.items))
	for i, a := range b.items {
		out[i] = cloneAchievement(a)
	}
	return out, nil
}

func (b *MemoryInbox) Ack(_ context.Context, ids []ID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(ids) == 0 {
		b.items = nil
		return nil
	}
	drop := make(map[ID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := b.items[:0]
	for _, a := range b.items {
		if !drop[a.ID] {
			kept = append(kept, a)
		}
	}
	b.items = kept
	return nil
}

var _ Inbox = (*MemoryInbox)(nil)
