/*
Package earnings provides the shift and pay model of the tracker.

PURPOSE:
  Everything needed to turn logged work into money lives here: the Job,
  Shift and Bonus records, the shift lifecycle (active -> completed), the
  classification rule that picks a pay premium, and the Calculator that
  derives a pay breakdown. Nothing in this package performs I/O; storage is
  reached only through the Store interface.

KEY CONCEPTS IN THIS FILE (types.go):
  - Job: a position with an hourly rate
  - Shift: one work session, active until it has an end time
  - Bonus: a named flat amount, reusable per job and attachable to shifts
  - ShiftType: Regular / Overtime / Special Event / Flexible

DESIGN PRINCIPLES:
  1. Precision: money uses decimal.Decimal, never float64
  2. Arena relations: records reference each other by ID, resolved through
     History (history.go), so there are no pointer cycles
  3. Stable interchange: JSON field names are the contract used by export,
     import and backup tooling

SEE ALSO:
  - shift.go: lifecycle and classification
  - calculator.go: pay breakdown
  - history.go: id-keyed lookup over a full data set
*/
package earnings

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type JobID string
type ShiftID string
type BonusID string

func NewJobID() JobID     { return JobID(uuid.NewString()) }
func NewShiftID() ShiftID { return ShiftID(uuid.NewString()) }
func NewBonusID() BonusID { return BonusID(uuid.NewString()) }

// =============================================================================
// SHIFT TYPE - Drives which pay premium applies
// =============================================================================

type ShiftType string

const (
	ShiftRegular      ShiftType = "Regular"
	ShiftOvertime     ShiftType = "Overtime"
	ShiftSpecialEvent ShiftType = "Special Event"
	ShiftFlexible     ShiftType = "Flexible"
)

// ShiftTypes lists every valid shift type in display order.
var ShiftTypes = []ShiftType{ShiftRegular, ShiftOvertime, ShiftSpecialEvent, ShiftFlexible}

func (t ShiftType) Valid() bool {
	switch t {
	case ShiftRegular, ShiftOvertime, ShiftSpecialEvent, ShiftFlexible:
		return true
	}
	return false
}

// ParseShiftType accepts the display names plus compact spellings such as
// "SpecialEvent" or "special_event".
func ParseShiftType(s string) (ShiftType, error) {
	key := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s))
	switch key {
	case "regular":
		return ShiftRegular, nil
	case "overtime":
		return ShiftOvertime, nil
	case "specialevent":
		return ShiftSpecialEvent, nil
	case "flexible":
		return ShiftFlexible, nil
	}
	return "", &ValidationError{Field: "shiftType", Reason: "unknown shift type " + s}
}

// =============================================================================
// PAY CONSTANTS
// =============================================================================

var (
	// OvertimeMultiplier applies to hours past OvertimeThreshold on Overtime shifts.
	OvertimeMultiplier = decimal.RequireFromString("1.5")

	// SpecialEventMultiplier applies to every hour of a Special Event shift.
	SpecialEventMultiplier = decimal.RequireFromString("1.25")
)

const (
	OvertimeThreshold   = 8 * time.Hour
	LongShiftThreshold  = 12 * time.Hour
	EarliestRegularHour = 6
	LatestRegularHour   = 22
)

// =============================================================================
// JOB
// =============================================================================

type Job struct {
	ID         JobID           `json:"id"`
	Name       string          `json:"name"`
	HourlyRate decimal.Decimal `json:"hourlyRate"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// NewJob validates input and returns a job with a fresh ID.
func NewJob(name string, hourlyRate decimal.Decimal, now time.Time) (Job, error) {
	job := Job{
		ID:         NewJobID(),
		Name:       strings.TrimSpace(name),
		HourlyRate: hourlyRate,
		CreatedAt:  now,
	}
	if err := job.Validate(); err != nil {
		return Job{}, err
	}
	return job, nil
}

func (j Job) Validate() error {
	if j.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if !j.HourlyRate.IsPositive() {
		return &ValidationError{Field: "hourlyRate", Reason: "must be greater than zero"}
	}
	return nil
}

// =============================================================================
// SHIFT
// =============================================================================

// Shift is a single work session. EndTime is nil while the shift is active.
type Shift struct {
	ID          ShiftID         `json:"id"`
	JobID       JobID           `json:"jobId"`
	StartTime   time.Time       `json:"startTime"`
	EndTime     *time.Time      `json:"endTime"`
	IsActive    bool            `json:"isActive"`
	ShiftType   ShiftType       `json:"shiftType"`
	TypeLocked  bool            `json:"typeLocked"`
	Notes       string          `json:"notes,omitempty"`
	BonusAmount decimal.Decimal `json:"bonusAmount"`
	BonusIDs    []BonusID       `json:"bonusIds,omitempty"`
}

func (s Shift) IsCompleted() bool { return s.EndTime != nil && !s.IsActive }

// HasBonus reports whether the bonus is attached to this shift.
func (s Shift) HasBonus(id BonusID) bool {
	for _, b := range s.BonusIDs {
		if b == id {
			return true
		}
	}
	return false
}

// =============================================================================
// BONUS
// =============================================================================

// Bonus is a named flat amount defined on a job and attached to shifts.
type Bonus struct {
	ID        BonusID         `json:"id"`
	JobID     JobID           `json:"jobId"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"createdAt"`
}

func NewBonus(jobID JobID, name string, amount decimal.Decimal, now time.Time) (Bonus, error) {
	b := Bonus{
		ID:        NewBonusID(),
		JobID:     jobID,
		Name:      strings.TrimSpace(name),
		Amount:    amount,
		CreatedAt: now,
	}
	if b.JobID == "" {
		return Bonus{}, &ValidationError{Field: "jobId", Reason: "is required"}
	}
	if b.Name == "" {
		return Bonus{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if b.Amount.IsNegative() {
		return Bonus{}, &ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	return b, nil
}
