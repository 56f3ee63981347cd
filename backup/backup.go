/*
Package backup exports and restores the whole data set.

PURPOSE:
  A Snapshot is the full arena (jobs, shifts, bonuses) plus achievement state
  in the JSON interchange format. Export and Restore run as cancellable
  Tasks that stream progress, so a UI can show a bar and a slow store never
  blocks the caller.

RESTORE RULES:
  - The snapshot is validated before anything is written
  - Jobs, shifts and bonuses replace the current data inside one store
    transaction; a failure or cancellation leaves the old data intact
  - Achievements merge by key and never go backwards: an unlocked record
    stays unlocked, progress only rises

SEE ALSO:
  - csv.go: spreadsheet export of shifts
*/
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shift-earnings/achievements"
	"github.com/warp/shift-earnings/earnings"
)

// FormatVersion is bumped on incompatible snapshot changes.
const FormatVersion = 1

type Snapshot struct {
	Version      int                        `json:"version"`
	ExportedAt   time.Time                  `json:"exportedAt"`
	Jobs         []earnings.Job             `json:"jobs"`
	Shifts       []earnings.Shift           `json:"shifts"`
	Bonuses      []earnings.Bonus           `json:"bonuses"`
	Achievements []achievements.Achievement `json:"achievements,omitempty"`
}

type RestoreResult struct {
	Jobs         int `json:"jobs"`
	Shifts       int `json:"shifts"`
	Bonuses      int `json:"bonuses"`
	Achievements int `json:"achievements"`
}

// Service owns export and restore. The achievement store is optional.
type Service struct {
	store        earnings.TxStore
	achievements achievements.Store
	clock        earnings.Clock
	logger       *slog.Logger
}

func NewService(store earnings.TxStore, ach achievements.Store, clock earnings.Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = earnings.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, achievements: ach, clock: clock, logger: logger.With("component", "backup")}
}

// =============================================================================
// EXPORT
// =============================================================================

func (s *Service) Export(ctx context.Context) *Task[Snapshot] {
	return startTask(ctx, s.export)
}

func (s *Service) export(ctx context.Context, report func(Progress)) (Snapshot, error) {
	const stages = 4
	snap := Snapshot{Version: FormatVersion, ExportedAt: s.clock.Now()}

	var err error
	if snap.Jobs, err = s.store.ListJobs(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("export jobs: %w", err)
	}
	report(Progress{Stage: "jobs", Done: 1, Total: stages})
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	if snap.Shifts, err = s.store.ListShifts(ctx, earnings.ShiftFilter{}); err != nil {
		return Snapshot{}, fmt.Errorf("export shifts: %w", err)
	}
	report(Progress{Stage: "shifts", Done: 2, Total: stages})
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	if snap.Bonuses, err = s.store.ListBonuses(ctx, ""); err != nil {
		return Snapshot{}, fmt.Errorf("export bonuses: %w", err)
	}
	report(Progress{Stage: "bonuses", Done: 3, Total: stages})
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	if s.achievements != nil {
		if snap.Achievements, err = s.achievements.ListAchievements(ctx); err != nil {
			return Snapshot{}, fmt.Errorf("export achievements: %w", err)
		}
	}
	report(Progress{Stage: "achievements", Done: stages, Total: stages})

	s.logger.InfoContext(ctx, "backup exported",
		"jobs", len(snap.Jobs), "shifts", len(snap.Shifts), "bonuses", len(snap.Bonuses))
	return snap, nil
}

// =============================================================================
// RESTORE
// =============================================================================

func (s *Service) Restore(ctx context.Context, snap Snapshot) *Task[RestoreResult] {
	return startTask(ctx, func(ctx context.Context, report func(Progress)) (RestoreResult, error) {
		return s.restore(ctx, snap, report)
	})
}

func (s *Service) restore(ctx context.Context, snap Snapshot, report func(Progress)) (RestoreResult, error) {
	if err := Validate(snap); err != nil {
		return RestoreResult{}, err
	}

	total := len(snap.Jobs) + len(snap.Bonuses) + len(snap.Shifts)
	done := 0
	step := func(stage string) error {
		done++
		report(Progress{Stage: stage, Done: done, Total: total})
		return ctx.Err()
	}

	err := s.store.WithTx(ctx, func(tx earnings.Store) error {
		if err := clearArena(ctx, tx); err != nil {
			return err
		}
		for _, j := range snap.Jobs {
			if err := tx.SaveJob(ctx, j); err != nil {
				return err
			}
			if err := step("jobs"); err != nil {
				return err
			}
		}
		for _, b := range snap.Bonuses {
			if err := tx.SaveBonus(ctx, b); err != nil {
				return err
			}
			if err := step("bonuses"); err != nil {
				return err
			}
		}
		for _, sh := range snap.Shifts {
			if err := tx.SaveShift(ctx, sh); err != nil {
				return err
			}
			if err := step("shifts"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return RestoreResult{}, fmt.Errorf("restore: %w", err)
	}

	res := RestoreResult{Jobs: len(snap.Jobs), Shifts: len(snap.Shifts), Bonuses: len(snap.Bonuses)}
	if s.achievements != nil && len(snap.Achievements) > 0 {
		n, err := s.mergeAchievements(ctx, snap)
		if err != nil {
			return res, err
		}
		res.Achievements = n
	}

	s.logger.InfoContext(ctx, "backup restored",
		"jobs", res.Jobs, "shifts", res.Shifts, "bonuses", res.Bonuses, "achievements", res.Achievements)
	return res, nil
}

// clearArena empties the arena. Job deletes cascade; what is left are orphans.
func clearArena(ctx context.Context, tx earnings.Store) error {
	jobs, err := tx.ListJobs(ctx)
	if err != nil {
		return err
	}
	for _, j := range jobs {
		if err := tx.DeleteJob(ctx, j.ID); err != nil {
			return err
		}
	}
	shifts, err := tx.ListShifts(ctx, earnings.ShiftFilter{})
	if err != nil {
		return err
	}
	for _, sh := range shifts {
		if err := tx.DeleteShift(ctx, sh.ID); err != nil {
			return err
		}
	}
	bonuses, err := tx.ListBonuses(ctx, "")
	if err != nil {
		return err
	}
	for _, b := range bonuses {
		if err := tx.DeleteBonus(ctx, b.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) mergeAchievements(ctx context.Context, snap Snapshot) (int, error) {
	current, err := s.achievements.ListAchievements(ctx)
	if err != nil {
		return 0, fmt.Errorf("list achievements: %w", err)
	}
	saved := make(map[string]achievements.Achievement, len(snap.Achievements))
	for _, a := range snap.Achievements {
		saved[a.Key] = a
	}

	merged := 0
	for _, cur := range current {
		a, ok := saved[cur.Key]
		if !ok {
			continue
		}
		next, changed := Merge(cur, a, snap.ExportedAt)
		if !changed {
			continue
		}
		if err := s.achievements.SaveAchievement(ctx, next); err != nil {
			return merged, fmt.Errorf("save achievement %s: %w", cur.Key, err)
		}
		merged++
	}
	return merged, nil
}

// Merge folds a saved record into the current one without regressing it.
// fallback is used as the unlock time when the saved record lacks one.
func Merge(current, saved achievements.Achievement, fallback time.Time) (achievements.Achievement, bool) {
	if current.IsUnlocked {
		return current, false
	}
	if saved.IsUnlocked {
		at := fallback
		if saved.UnlockedAt != nil {
			at = *saved.UnlockedAt
		}
		if err := current.Unlock(current.MaxProgress, at); err != nil {
			return current, false
		}
		return current, true
	}
	progress := decimal.Min(saved.Progress, current.MaxProgress)
	if progress.GreaterThan(current.Progress) {
		current.Progress = progress
		return current, true
	}
	return current, false
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks a snapshot for internal consistency before it is applied.
func Validate(snap Snapshot) error {
	if snap.Version != FormatVersion {
		return &earnings.ValidationError{Field: "version", Reason: fmt.Sprintf("unsupported snapshot version %d", snap.Version)}
	}

	jobs := make(map[earnings.JobID]bool, len(snap.Jobs))
	for _, j := range snap.Jobs {
		if err := j.Validate(); err != nil {
			return fmt.Errorf("job %s: %w", j.ID, err)
		}
		if jobs[j.ID] {
			return &earnings.ValidationError{Field: "jobs", Reason: "duplicate id " + string(j.ID)}
		}
		jobs[j.ID] = true
	}

	bonuses := make(map[earnings.BonusID]bool, len(snap.Bonuses))
	for _, b := range snap.Bonuses {
		if !jobs[b.JobID] {
			return &earnings.MissingReferenceError{Kind: "job", ID: string(b.JobID)}
		}
		if b.Amount.IsNegative() {
			return &earnings.ValidationError{Field: "amount", Reason: "bonus " + string(b.ID) + " is negative"}
		}
		bonuses[b.ID] = true
	}

	active := 0
	for _, sh := range snap.Shifts {
		if !jobs[sh.JobID] {
			return &earnings.MissingReferenceError{Kind: "job", ID: string(sh.JobID)}
		}
		if !sh.ShiftType.Valid() {
			return &earnings.ValidationError{Field: "shiftType", Reason: "unknown shift type " + string(sh.ShiftType)}
		}
		if sh.BonusAmount.IsNegative() {
			return &earnings.ValidationError{Field: "bonusAmount", Reason: "shift " + string(sh.ID) + " is negative"}
		}
		if sh.IsActive != (sh.EndTime == nil) {
			return &earnings.ValidationError{Field: "endTime", Reason: "shift " + string(sh.ID) + " has inconsistent active state"}
		}
		if sh.EndTime != nil && sh.EndTime.Before(sh.StartTime) {
			return &earnings.ValidationError{Field: "endTime", Reason: "shift " + string(sh.ID) + " ends before it starts"}
		}
		for _, bid := range sh.BonusIDs {
			if !bonuses[bid] {
				return &earnings.MissingReferenceError{Kind: "bonus", ID: string(bid)}
			}
		}
		if sh.IsActive {
			active++
		}
	}
	if active > 1 {
		return &earnings.InvariantViolation{Reason: fmt.Sprintf("snapshot has %d active shifts", active)}
	}
	return nil
}

// =============================================================================
// JSON
// =============================================================================

func WriteJSON(w io.Writer, snap Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

func ReadJSON(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return Snapshot{}, &earnings.ValidationError{Field: "snapshot", Reason: err.Error()}
	}
	return snap, nil
}
