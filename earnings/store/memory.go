// Package store provides in-memory earnings.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/shift-earnings/earnings"
)

// =============================================================================
// MEMORY STORE - In-memory arena (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	jobs    map[earnings.JobID]earnings.Job
	shifts  map[earnings.ShiftID]earnings.Shift
	bonuses map[earnings.BonusID]earnings.Bonus
}

func NewMemory() *Memory {
	return &Memory{
		jobs:    make(map[earnings.JobID]earnings.Job),
		shifts:  make(map[earnings.ShiftID]earnings.Shift),
		bonuses: make(map[earnings.BonusID]earnings.Bonus),
	}
}

// Records are copied in and out so callers never share slices or pointers
// with the arena.
func cloneShift(s earnings.Shift) earnings.Shift {
	if s.EndTime != nil {
		end := *s.EndTime
		s.EndTime = &end
	}
	if s.BonusIDs != nil {
		s.BonusIDs = append([]earnings.BonusID(nil), s.BonusIDs...)
	}
	return s
}

// =============================================================================
// JOBS
// =============================================================================

func (m *Memory) SaveJob(_ context.Context, job earnings.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
	return nil
}

func (m *Memory) GetJob(_ context.Context, id earnings.JobID) (earnings.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return earnings.Job{}, earnings.NotFound("job", string(id))
	}
	return job, nil
}

func (m *Memory) ListJobs(_ context.Context) ([]earnings.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]earnings.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].ID < out[k].ID
		}
		return out[i].CreatedAt.Before(out[k].CreatedAt)
	})
	return out, nil
}

func (m *Memory) DeleteJob(_ context.Context, id earnings.JobID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteJobLocked(id)
}

func (m *Memory) deleteJobLocked(id earnings.JobID) error {
	if _, ok := m.jobs[id]; !ok {
		return earnings.NotFound("job", string(id))
	}
	delete(m.jobs, id)
	for sid, s := range m.shifts {
		if s.JobID == id {
			delete(m.shifts, sid)
		}
	}
	for bid, b := range m.bonuses {
		if b.JobID == id {
			m.deleteBonusLocked(bid)
		}
	}
	return nil
}

// =============================================================================
// SHIFTS
// =============================================================================

func (m *Memory) SaveShift(_ context.Context, shift earnings.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shifts[shift.ID] = cloneShift(shift)
	return nil
}

func (m *Memory) GetShift(_ context.Context, id earnings.ShiftID) (earnings.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.shifts[id]
	if !ok {
		return earnings.Shift{}, earnings.NotFound("shift", string(id))
	}
	return cloneShift(s), nil
}

func (m *Memory) ListShifts(_ context.Context, filter earnings.ShiftFilter) ([]earnings.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collectShifts(filter.Match), nil
}

func (m *Memory) ActiveShifts(_ context.Context) ([]earnings.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collectShifts(func(s earnings.Shift) bool { return s.IsActive }), nil
}

func (m *Memory) collectShifts(keep func(earnings.Shift) bool) []earnings.Shift {
	var out []earnings.Shift
	for _, s := range m.shifts {
		if keep(s) {
			out = append(out, cloneShift(s))
		}
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].StartTime.Equal(out[k].StartTime) {
			return out[i].ID < out[k].ID
		}
		return out[i].StartTime.Before(out[k].StartTime)
	})
	return out
}

func (m *Memory) DeleteShift(_ context.Context, id earnings.ShiftID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shifts[id]; !ok {
		return earnings.NotFound("shift", string(id))
	}
	delete(m.shifts, id)
	return nil
}

// =============================================================================
// BONUSES
// =============================================================================

func (m *Memory) SaveBonus(_ context.Context, bonus earnings.Bonus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bonuses[bonus.ID] = bonus
	return nil
}

func (m *Memory) GetBonus(_ context.Context, id earnings.BonusID) (earnings.Bonus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bonuses[id]
	if !ok {
		return earnings.Bonus{}, earnings.NotFound("bonus", string(id))
	}
	return b, nil
}

func (m *Memory) ListBonuses(_ context.Context, jobID earnings.JobID) ([]earnings.Bonus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []earnings.Bonus
	for _, b := range m.bonuses {
		if jobID == "" || b.JobID == jobID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].ID < out[k].ID
		}
		return out[i].CreatedAt.Before(out[k].CreatedAt)
	})
	return out, nil
}

func (m *Memory) DeleteBonus(_ context.Context, id earnings.BonusID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bonuses[id]; !ok {
		return earnings.NotFound("bonus", string(id))
	}
	m.deleteBonusLocked(id)
	return nil
}

// deleteBonusLocked removes the bonus and detaches it from every shift.
func (m *Memory) deleteBonusLocked(id earnings.BonusID) {
	delete(m.bonuses, id)
	for sid, s := range m.shifts {
		if s.HasBonus(id) {
			s = cloneShift(s)
			s.DetachBonus(id)
			m.shifts[sid] = s
		}
	}
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support, simulated with a snapshot
// and a rollback on error.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

func (tm *TxMemory) WithTx(ctx context.Context, fn func(earnings.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	// fn writes to a scratch copy that replaces the live arena on success.
	snap := tm.snapshot()
	scratch := &Memory{jobs: snap.jobs, shifts: snap.shifts, bonuses: snap.bonuses}
	if err := fn(scratch); err != nil {
		return err
	}
	tm.jobs, tm.shifts, tm.bonuses = scratch.jobs, scratch.shifts, scratch.bonuses
	return nil
}

type memorySnapshot struct {
	jobs    map[earnings.JobID]earnings.Job
	shifts  map[earnings.ShiftID]earnings.Shift
	bonuses map[earnings.BonusID]earnings.Bonus
}

func (tm *TxMemory) snapshot() memorySnapshot {
	s := memorySnapshot{
		jobs:    make(map[earnings.JobID]earnings.Job, len(tm.jobs)),
		shifts:  make(map[earnings.ShiftID]earnings.Shift, len(tm.shifts)),
		bonuses: make(map[earnings.BonusID]earnings.Bonus, len(tm.bonuses)),
	}
	for k, v := range tm.jobs {
		s.jobs[k] = v
	}
	for k, v := range tm.shifts {
		s.shifts[k] = cloneShift(v)
	}
	for k, v := range tm.bonuses {
		s.bonuses[k] = v
	}
	return s
}

var (
	_ earnings.Store   = (*Memory)(nil)
	_ earnings.TxStore = (*TxMemory)(nil)
)
