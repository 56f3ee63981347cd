/*
shift.go - Shift lifecycle and classification

LIFECYCLE:
  active ──End()──> completed

  A shift is born active (tracked live) or completed (manual entry). It never
  goes back to active. Completed shifts only accept corrective edits through
  Amend(): notes, flat bonus, attached bonuses and an explicit type override.

CLASSIFICATION (evaluated once, at End):
  1. start hour < 6 or > 22, or duration > 12h  -> Special Event
  2. duration > 8h                              -> Overtime
  3. start on a weekend                          -> Special Event
  4. otherwise                                   -> Regular

  Order matters: off-hours and long shifts win over weekend, weekend wins
  over Regular. A type chosen explicitly by the user (TypeLocked) is never
  overwritten.

  Hour and weekday are local time. Stores may hand back UTC, so callers pass
  the location explicitly: End reads the start in the end instant's location,
  manual entries carry ManualShiftInput.Location.
*/
package earnings

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Classify derives the shift type from the start time and duration. Hours and
// weekday are read in loc; a nil loc keeps start's own location.
func Classify(start, end time.Time, loc *time.Location) ShiftType {
	if loc != nil {
		start = start.In(loc)
	}
	duration := end.Sub(start)
	hour := start.Hour()

	switch {
	case hour < EarliestRegularHour || hour > LatestRegularHour || duration > LongShiftThreshold:
		return ShiftSpecialEvent
	case duration > OvertimeThreshold:
		return ShiftOvertime
	case IsWeekend(start):
		return ShiftSpecialEvent
	default:
		return ShiftRegular
	}
}

// NewActiveShift starts a live shift for the job at the given instant.
func NewActiveShift(jobID JobID, start time.Time) (Shift, error) {
	if jobID == "" {
		return Shift{}, &ValidationError{Field: "jobId", Reason: "is required"}
	}
	return Shift{
		ID:          NewShiftID(),
		JobID:       jobID,
		StartTime:   start,
		IsActive:    true,
		ShiftType:   ShiftRegular,
		BonusAmount: decimal.Zero,
	}, nil
}

// End completes the shift at the given instant and classifies it unless the
// type was fixed by the user. The start is read in at's location.
func (s *Shift) End(at time.Time) error {
	if s.EndTime != nil || !s.IsActive {
		return ErrShiftCompleted
	}
	if at.Before(s.StartTime) {
		return &ValidationError{Field: "endTime", Reason: "is before start time"}
	}
	s.EndTime = &at
	s.IsActive = false
	if !s.TypeLocked {
		s.ShiftType = Classify(s.StartTime, at, at.Location())
	}
	return nil
}

// =============================================================================
// MANUAL ENTRY
// =============================================================================

type ManualShiftInput struct {
	JobID       JobID
	StartTime   time.Time
	EndTime     time.Time
	ShiftType   ShiftType // empty = classify
	Notes       string
	BonusAmount decimal.Decimal
	BonusIDs    []BonusID

	// Location classifies the shift; nil reads StartTime in its own offset.
	Location *time.Location
}

// NewManualShift records a completed shift entered after the fact.
// Zero-length shifts are rejected.
func NewManualShift(in ManualShiftInput) (Shift, error) {
	if in.JobID == "" {
		return Shift{}, &ValidationError{Field: "jobId", Reason: "is required"}
	}
	if err := ValidateTimes(in.StartTime, in.EndTime); err != nil {
		return Shift{}, err
	}
	if in.BonusAmount.IsNegative() {
		return Shift{}, &ValidationError{Field: "bonusAmount", Reason: "must not be negative"}
	}

	end := in.EndTime
	s := Shift{
		ID:          NewShiftID(),
		JobID:       in.JobID,
		StartTime:   in.StartTime,
		EndTime:     &end,
		Notes:       strings.TrimSpace(in.Notes),
		BonusAmount: in.BonusAmount,
		BonusIDs:    dedupeBonusIDs(in.BonusIDs),
	}
	if in.ShiftType != "" {
		if !in.ShiftType.Valid() {
			return Shift{}, &ValidationError{Field: "shiftType", Reason: "unknown shift type " + string(in.ShiftType)}
		}
		s.ShiftType = in.ShiftType
		s.TypeLocked = true
	} else {
		s.ShiftType = Classify(in.StartTime, in.EndTime, in.Location)
	}
	return s, nil
}

// ValidateTimes requires both times and end strictly after start.
func ValidateTimes(start, end time.Time) error {
	if start.IsZero() {
		return &ValidationError{Field: "startTime", Reason: "is required"}
	}
	if end.IsZero() {
		return &ValidationError{Field: "endTime", Reason: "is required"}
	}
	if end.Before(start) {
		return &ValidationError{Field: "endTime", Reason: "is before start time"}
	}
	if end.Equal(start) {
		return &ValidationError{Field: "endTime", Reason: "equals start time (zero duration)"}
	}
	return nil
}

// =============================================================================
// CORRECTIVE EDITS
// =============================================================================

// Amendment carries the fields a completed shift may still change. Nil means
// "leave as is".
type Amendment struct {
	Notes       *string
	BonusAmount *decimal.Decimal
	ShiftType   *ShiftType
	BonusIDs    *[]BonusID
}

func (s *Shift) Amend(a Amendment) error {
	if !s.IsCompleted() {
		return ErrShiftActive
	}
	if a.BonusAmount != nil && a.BonusAmount.IsNegative() {
		return &ValidationError{Field: "bonusAmount", Reason: "must not be negative"}
	}
	if a.ShiftType != nil && !a.ShiftType.Valid() {
		return &ValidationError{Field: "shiftType", Reason: "unknown shift type " + string(*a.ShiftType)}
	}

	if a.Notes != nil {
		s.Notes = strings.TrimSpace(*a.Notes)
	}
	if a.BonusAmount != nil {
		s.BonusAmount = *a.BonusAmount
	}
	if a.ShiftType != nil {
		s.ShiftType = *a.ShiftType
		s.TypeLocked = true
	}
	if a.BonusIDs != nil {
		s.BonusIDs = dedupeBonusIDs(*a.BonusIDs)
	}
	return nil
}

func (s *Shift) AttachBonus(id BonusID) {
	if !s.HasBonus(id) {
		s.BonusIDs = append(s.BonusIDs, id)
	}
}

func (s *Shift) DetachBonus(id BonusID) {
	kept := s.BonusIDs[:0]
	for _, b := range s.BonusIDs {
		if b != id {
			kept = append(kept, b)
		}
	}
	s.BonusIDs = kept
}

func dedupeBonusIDs(ids []BonusID) []BonusID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[BonusID]bool, len(ids))
	out := make([]BonusID, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
