/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Records (jobs, shifts,
  bonuses, achievements) already carry their interchange field names, so
  responses embed them and add computed values next to them.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Request types carry `validate` tags checked by validator/v10 before the
  domain constructors run. Money fields are left to the domain: a decimal
  has no meaningful "required" check.

SEE ALSO:
  - handlers.go: Uses these types
  - earnings/types.go: Record JSON contract
*/
package api

import (
	"fmt"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/warp/shift-earnings/achievements"
	"github.com/warp/shift-earnings/earnings"
	"github.com/warp/shift-earnings/tracking"
)

// =============================================================================
// JOBS & BONUSES
// =============================================================================

type CreateJobRequest struct {
	Name       string          `json:"name" validate:"required,max=100"`
	HourlyRate decimal.Decimal `json:"hourlyRate"`
}

type CreateBonusRequest struct {
	Name   string          `json:"name" validate:"required,max=100"`
	Amount decimal.Decimal `json:"amount"`
}

// JobDTO is a job with its bonus templates and totals over completed shifts.
type JobDTO struct {
	earnings.Job
	Bonuses    []earnings.Bonus `json:"bonuses"`
	ShiftCount int              `json:"shiftCount"`
	Hours      decimal.Decimal  `json:"hours"`
	Earnings   decimal.Decimal  `json:"earnings"`
}

// =============================================================================
// SHIFTS
// =============================================================================

// ShiftDTO is a shift with its pay breakdown. Active shifts are priced as of
// the request time.
type ShiftDTO struct {
	earnings.Shift
	JobName   string             `json:"jobName,omitempty"`
	Breakdown earnings.Breakdown `json:"breakdown"`
	Total     decimal.Decimal    `json:"total"`
}

type CreateShiftRequest struct {
	JobID       string           `json:"jobId" validate:"required"`
	StartTime   time.Time        `json:"startTime" validate:"required"`
	EndTime     time.Time        `json:"endTime" validate:"required"`
	ShiftType   string           `json:"shiftType,omitempty"`
	Notes       string           `json:"notes,omitempty" validate:"max=500"`
	BonusAmount *decimal.Decimal `json:"bonusAmount,omitempty"`
	BonusIDs    []string         `json:"bonusIds,omitempty" validate:"dive,required"`
}

// UpdateShiftRequest is a corrective edit. Absent fields are left as is.
type UpdateShiftRequest struct {
	Notes       *string          `json:"notes,omitempty" validate:"omitempty,max=500"`
	BonusAmount *decimal.Decimal `json:"bonusAmount,omitempty"`
	ShiftType   *string          `json:"shiftType,omitempty"`
	BonusIDs    *[]string        `json:"bonusIds,omitempty"`
}

// =============================================================================
// TRACKER
// =============================================================================

type StartTrackingRequest struct {
	JobID string `json:"jobId" validate:"required"`
}

// TrackerDTO is the tracker readout. Elapsed is formatted HH:MM:SS.
type TrackerDTO struct {
	State          tracking.State  `json:"state"`
	Shift          *earnings.Shift `json:"shift,omitempty"`
	Job            *earnings.Job   `json:"job,omitempty"`
	Elapsed        string          `json:"elapsed"`
	ElapsedSeconds int64           `json:"elapsedSeconds"`
	Earnings       decimal.Decimal `json:"earnings"`
}

func toTrackerDTO(st tracking.Status) TrackerDTO {
	return TrackerDTO{
		State:          st.State,
		Shift:          st.Shift,
		Job:            st.Job,
		Elapsed:        formatElapsed(st.Elapsed),
		ElapsedSeconds: int64(st.Elapsed / time.Second),
		Earnings:       st.Earnings,
	}
}

// LiveMessage is one frame on the live tracker socket.
type LiveMessage struct {
	Type           string           `json:"type"` // "status" or "tick"
	State          tracking.State   `json:"state"`
	ShiftID        earnings.ShiftID `json:"shiftId,omitempty"`
	JobID          earnings.JobID   `json:"jobId,omitempty"`
	Elapsed        string           `json:"elapsed"`
	ElapsedSeconds int64            `json:"elapsedSeconds"`
	Earnings       decimal.Decimal  `json:"earnings"`
	At             time.Time        `json:"at"`
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}

// =============================================================================
// ACHIEVEMENTS
// =============================================================================

type AckRequest struct {
	IDs []string `json:"ids" validate:"dive,required"`
}

type EvaluateResponse struct {
	Changed  int                        `json:"changed"`
	Unlocked []achievements.Achievement `json:"unlocked"`
}

// =============================================================================
// SUMMARY & TEMPLATES
// =============================================================================

type SummaryResponse struct {
	Current  earnings.Summary  `json:"current"`
	Previous *earnings.Summary `json:"previous,omitempty"`
}

type ApplyTemplateRequest struct {
	Template string `json:"template" validate:"required"`
	JobID    string `json:"jobId" validate:"required"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// validationMessage returns the first translated validator message, or the
// raw error text for anything else.
func validationMessage(err error, trans ut.Translator) string {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return verrs[0].Translate(trans)
	}
	return err.Error()
}
