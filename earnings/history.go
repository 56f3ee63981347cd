package earnings

import (
	"context"
	"fmt"
	"sort"
)

// =============================================================================
// HISTORY - Id-keyed arena over a full data set
// =============================================================================

// History is a read-only view of every job, shift and bonus. Records refer to
// each other by ID; History resolves those references. Dangling IDs resolve
// to "not found" rather than failing.
type History struct {
	Jobs    []Job
	Shifts  []Shift
	Bonuses []Bonus

	jobIdx   map[JobID]int
	bonusIdx map[BonusID]int
	used     map[BonusID]bool
}

// NewHistory indexes the given records. Shifts are ordered by start time.
func NewHistory(jobs []Job, shifts []Shift, bonuses []Bonus) *History {
	h := &History{
		Jobs:     jobs,
		Shifts:   append([]Shift(nil), shifts...),
		Bonuses:  bonuses,
		jobIdx:   make(map[JobID]int, len(jobs)),
		bonusIdx: make(map[BonusID]int, len(bonuses)),
		used:     make(map[BonusID]bool),
	}
	sort.SliceStable(h.Shifts, func(i, j int) bool {
		return h.Shifts[i].StartTime.Before(h.Shifts[j].StartTime)
	})
	for i, j := range jobs {
		h.jobIdx[j.ID] = i
	}
	for i, b := range bonuses {
		h.bonusIdx[b.ID] = i
	}
	for _, s := range h.Shifts {
		for _, id := range s.BonusIDs {
			h.used[id] = true
		}
	}
	return h
}

// LoadHistory reads the full data set from the store.
func LoadHistory(ctx context.Context, store Store) (*History, error) {
	jobs, err := store.ListJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load jobs: %w", err)
	}
	shifts, err := store.ListShifts(ctx, ShiftFilter{})
	if err != nil {
		return nil, fmt.Errorf("load shifts: %w", err)
	}
	bonuses, err := store.ListBonuses(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("load bonuses: %w", err)
	}
	return NewHistory(jobs, shifts, bonuses), nil
}

func (h *History) Job(id JobID) (Job, bool) {
	i, ok := h.jobIdx[id]
	if !ok {
		return Job{}, false
	}
	return h.Jobs[i], true
}

func (h *History) Bonus(id BonusID) (Bonus, bool) {
	i, ok := h.bonusIdx[id]
	if !ok {
		return Bonus{}, false
	}
	return h.Bonuses[i], true
}

// BonusesFor returns the attached bonuses that still exist.
func (h *History) BonusesFor(s Shift) []Bonus {
	var out []Bonus
	for _, id := range s.BonusIDs {
		if b, ok := h.Bonus(id); ok {
			out = append(out, b)
		}
	}
	return out
}

// IsBonusUsed reports whether any shift has the bonus attached.
func (h *History) IsBonusUsed(id BonusID) bool { return h.used[id] }

func (h *History) CompletedShifts() []Shift {
	var out []Shift
	for _, s := range h.Shifts {
		if s.IsCompleted() {
			out = append(out, s)
		}
	}
	return out
}

func (h *History) ShiftsForJob(id JobID) []Shift {
	var out []Shift
	for _, s := range h.Shifts {
		if s.JobID == id {
			out = append(out, s)
		}
	}
	return out
}

// Resolve returns the shift's job and attached bonuses, failing with a
// MissingReferenceError on the first ID that does not resolve.
func (h *History) Resolve(s Shift) (Job, []Bonus, error) {
	job, ok := h.Job(s.JobID)
	if !ok {
		return Job{}, nil, &MissingReferenceError{Kind: "job", ID: string(s.JobID)}
	}
	bonuses := make([]Bonus, 0, len(s.BonusIDs))
	for _, id := range s.BonusIDs {
		b, ok := h.Bonus(id)
		if !ok {
			return Job{}, nil, &MissingReferenceError{Kind: "bonus", ID: string(id)}
		}
		bonuses = append(bonuses, b)
	}
	return job, bonuses, nil
}
