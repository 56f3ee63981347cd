/*
calculator.go - Pay breakdown for a single shift

FORMULA:
  hours  = (endTime ?? clock.Now()) - startTime
  base   = by shift type
             Regular, Flexible : hours * rate
             Overtime          : min(hours, 8) * rate + max(hours-8, 0) * rate * 1.5
             Special Event     : hours * rate * 1.25
  bonus  = sum(attached bonus amounts) + shift.bonusAmount    (never multiplied)
  total  = base + bonus

EXAMPLE:
  Overtime, 10h at 20/h, one attached bonus of 15
    regular  = 8 * 20        = 160
    overtime = 2 * 20 * 1.5  =  60
    bonus                    =  15
    total                    = 235

MISSING JOB:
  A shift whose job cannot be resolved earns nothing: the breakdown is all
  zero, bonus included. Use History.Resolve to surface the dangling
  reference as an error.

No rounding happens here. Callers round for display (StringFixed(2)).
*/
package earnings

import (
	"time"

	"github.com/shopspring/decimal"
)

// Breakdown splits a shift's pay by premium.
type Breakdown struct {
	Hours    decimal.Decimal `json:"hours"`
	Regular  decimal.Decimal `json:"regular"`
	Overtime decimal.Decimal `json:"overtime"`
	Special  decimal.Decimal `json:"special"`
	Bonus    decimal.Decimal `json:"bonus"`
}

// Base is the pay before bonuses.
func (b Breakdown) Base() decimal.Decimal {
	return b.Regular.Add(b.Overtime).Add(b.Special)
}

func (b Breakdown) Total() decimal.Decimal {
	return b.Base().Add(b.Bonus)
}

func zeroBreakdown() Breakdown {
	return Breakdown{
		Hours:    decimal.Zero,
		Regular:  decimal.Zero,
		Overtime: decimal.Zero,
		Special:  decimal.Zero,
		Bonus:    decimal.Zero,
	}
}

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator derives pay. It performs no I/O and never fails; the clock is
// only read for shifts that are still active.
type Calculator struct {
	Clock Clock
}

func NewCalculator(clock Clock) *Calculator {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Calculator{Clock: clock}
}

// Duration returns the worked time, measured against the clock for active
// shifts. Never negative.
func (c *Calculator) Duration(s Shift) time.Duration {
	end := c.Clock.Now()
	if s.EndTime != nil {
		end = *s.EndTime
	}
	if d := end.Sub(s.StartTime); d > 0 {
		return d
	}
	return 0
}

func (c *Calculator) DurationHours(s Shift) decimal.Decimal {
	return Hours(c.Duration(s))
}

// BaseEarnings is the pay before bonuses. A nil job yields zero.
func (c *Calculator) BaseEarnings(s Shift, job *Job) decimal.Decimal {
	return c.Breakdown(s, job, nil).Base()
}

// BonusTotal sums the bonuses attached to the shift plus its flat amount.
// Bonuses not attached to the shift are ignored.
func (c *Calculator) BonusTotal(s Shift, bonuses []Bonus) decimal.Decimal {
	total := decimal.Zero
	if s.BonusAmount.IsPositive() {
		total = s.BonusAmount
	}
	for _, b := range bonuses {
		if s.HasBonus(b.ID) && b.Amount.IsPositive() {
			total = total.Add(b.Amount)
		}
	}
	return total
}

func (c *Calculator) Breakdown(s Shift, job *Job, bonuses []Bonus) Breakdown {
	out := zeroBreakdown()
	if job == nil {
		return out
	}

	hours := c.DurationHours(s)
	rate := job.HourlyRate
	out.Hours = hours

	switch s.ShiftType {
	case ShiftOvertime:
		threshold := Hours(OvertimeThreshold)
		regular := decimal.Min(hours, threshold)
		out.Regular = regular.Mul(rate)
		if extra := hours.Sub(threshold); extra.IsPositive() {
			out.Overtime = extra.Mul(rate).Mul(OvertimeMultiplier)
		}
	case ShiftSpecialEvent:
		out.Special = hours.Mul(rate).Mul(SpecialEventMultiplier)
	default:
		out.Regular = hours.Mul(rate)
	}

	out.Bonus = c.BonusTotal(s, bonuses)
	return out
}

func (c *Calculator) TotalEarnings(s Shift, job *Job, bonuses []Bonus) decimal.Decimal {
	return c.Breakdown(s, job, bonuses).Total()
}

// ShiftEarnings resolves the shift's job and bonuses through the history.
func (c *Calculator) ShiftEarnings(h *History, s Shift) Breakdown {
	job, ok := h.Job(s.JobID)
	if !ok {
		return zeroBreakdown()
	}
	return c.Breakdown(s, &job, h.BonusesFor(s))
}
