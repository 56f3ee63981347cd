/*
summary.go - Period reports and earnings goals

SUMMARY:
  Aggregates completed shifts that START inside a period: count, hours,
  earnings, bonus total, the effective hourly rate (earnings / hours) and a
  per-type split. Active shifts are left out so a report never changes
  while the clock runs.

GOALS:
  Daily, weekly and monthly earnings targets. Progress is measured over
  the period containing "now" and capped at 100% for display; Earned is
  never capped.

  Defaults: 200 / 1000 / 4000.
*/
package earnings

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SUMMARY
// =============================================================================

type TypeTotals struct {
	Count    int             `json:"count"`
	Hours    decimal.Decimal `json:"hours"`
	Earnings decimal.Decimal `json:"earnings"`
}

type Summary struct {
	Period        Period                   `json:"period"`
	ShiftCount    int                      `json:"shiftCount"`
	Hours         decimal.Decimal          `json:"hours"`
	Earnings      decimal.Decimal          `json:"earnings"`
	BonusTotal    decimal.Decimal          `json:"bonusTotal"`
	AverageHourly decimal.Decimal          `json:"averageHourly"`
	ByType        map[ShiftType]TypeTotals `json:"byType"`
}

func Summarize(h *History, calc *Calculator, p Period) Summary {
	sum := Summary{
		Period:        p,
		Hours:         decimal.Zero,
		Earnings:      decimal.Zero,
		BonusTotal:    decimal.Zero,
		AverageHourly: decimal.Zero,
		ByType:        make(map[ShiftType]TypeTotals),
	}

	for _, s := range h.CompletedShifts() {
		if !p.Contains(s.StartTime) {
			continue
		}
		b := calc.ShiftEarnings(h, s)

		sum.ShiftCount++
		sum.Hours = sum.Hours.Add(b.Hours)
		sum.Earnings = sum.Earnings.Add(b.Total())
		sum.BonusTotal = sum.BonusTotal.Add(b.Bonus)

		tt := sum.ByType[s.ShiftType]
		if tt.Count == 0 {
			tt.Hours, tt.Earnings = decimal.Zero, decimal.Zero
		}
		tt.Count++
		tt.Hours = tt.Hours.Add(b.Hours)
		tt.Earnings = tt.Earnings.Add(b.Total())
		sum.ByType[s.ShiftType] = tt
	}

	if sum.Hours.IsPositive() {
		sum.AverageHourly = sum.Earnings.Div(sum.Hours)
	}
	return sum
}

// =============================================================================
// GOALS
// =============================================================================

type Goals struct {
	Daily   decimal.Decimal `json:"daily"`
	Weekly  decimal.Decimal `json:"weekly"`
	Monthly decimal.Decimal `json:"monthly"`
}

func DefaultGoals() Goals {
	return Goals{
		Daily:   decimal.NewFromInt(200),
		Weekly:  decimal.NewFromInt(1000),
		Monthly: decimal.NewFromInt(4000),
	}
}

func (g Goals) Validate() error {
	if g.Daily.IsNegative() {
		return &ValidationError{Field: "daily", Reason: "must not be negative"}
	}
	if g.Weekly.IsNegative() {
		return &ValidationError{Field: "weekly", Reason: "must not be negative"}
	}
	if g.Monthly.IsNegative() {
		return &ValidationError{Field: "monthly", Reason: "must not be negative"}
	}
	return nil
}

type GoalProgress struct {
	Period  Period          `json:"period"`
	Target  decimal.Decimal `json:"target"`
	Earned  decimal.Decimal `json:"earned"`
	Percent decimal.Decimal `json:"percent"` // 0..100
	Reached bool            `json:"reached"`
}

var hundred = decimal.NewFromInt(100)

// Progress reports each goal over the period containing now.
func (g Goals) Progress(h *History, calc *Calculator, now time.Time) []GoalProgress {
	targets := []struct {
		pt     PeriodType
		target decimal.Decimal
	}{
		{PeriodDay, g.Daily},
		{PeriodWeek, g.Weekly},
		{PeriodMonth, g.Monthly},
	}

	out := make([]GoalProgress, 0, len(targets))
	for _, t := range targets {
		p := PeriodFor(t.pt, now)
		earned := Summarize(h, calc, p).Earnings

		gp := GoalProgress{Period: p, Target: t.target, Earned: earned, Percent: hundred}
		if t.target.IsPositive() {
			gp.Percent = decimal.Min(earned.Div(t.target).Mul(hundred), hundred)
		}
		gp.Reached = earned.GreaterThanOrEqual(t.target)
		out = append(out, gp)
	}
	return out
}
