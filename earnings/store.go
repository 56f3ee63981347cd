/*
store.go - Persistence interface for jobs, shifts and bonuses

PURPOSE:
  Defines the boundary between the engine and the database. The engine only
  ever sees this interface; SQLite, PostgreSQL and in-memory implementations
  are interchangeable.

ARENA CONTRACT:
  Records reference each other by ID only.
  - DeleteJob cascades: the job's shifts and bonus templates go with it
  - DeleteBonus detaches the bonus from every shift that carried it
  - Save* is an upsert keyed by ID

IMPLEMENTATIONS:
  - earnings/store/memory.go: in-memory, for tests and development
  - store/sqlite/sqlite.go: SQLite or PostgreSQL through sqlx

SEE ALSO:
  - history.go: loads the whole data set through this interface
*/
package earnings

import (
	"context"
	"time"
)

// =============================================================================
// STORE
// =============================================================================

type Store interface {
	SaveJob(ctx context.Context, job Job) error
	GetJob(ctx context.Context, id JobID) (Job, error)
	ListJobs(ctx context.Context) ([]Job, error)
	// DeleteJob removes the job with its shifts and bonuses.
	DeleteJob(ctx context.Context, id JobID) error

	SaveShift(ctx context.Context, shift Shift) error
	GetShift(ctx context.Context, id ShiftID) (Shift, error)
	// ListShifts returns matching shifts ordered by start time.
	ListShifts(ctx context.Context, filter ShiftFilter) ([]Shift, error)
	ActiveShifts(ctx context.Context) ([]Shift, error)
	DeleteShift(ctx context.Context, id ShiftID) error

	SaveBonus(ctx context.Context, bonus Bonus) error
	GetBonus(ctx context.Context, id BonusID) (Bonus, error)
	// ListBonuses returns the job's bonuses, or every bonus when jobID is empty.
	ListBonuses(ctx context.Context, jobID JobID) ([]Bonus, error)
	DeleteBonus(ctx context.Context, id BonusID) error
}

// TxStore wraps Store with transaction support.
// If fn returns an error, every write made through the inner Store is rolled back.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}

// ShiftFilter narrows ListShifts. Zero values match everything; the time
// bounds apply to StartTime and are half-open [From, To).
type ShiftFilter struct {
	JobID JobID
	From  time.Time
	To    time.Time
}

func (f ShiftFilter) Match(s Shift) bool {
	if f.JobID != "" && s.JobID != f.JobID {
		return false
	}
	if !f.From.IsZero() && s.StartTime.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !s.StartTime.Before(f.To) {
		return false
	}
	return true
}
