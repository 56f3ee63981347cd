package achievements

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shift-earnings/earnings"
)

// =============================================================================
// METRICS - History aggregates, computed once per evaluation pass
// =============================================================================

// Metrics holds every MetricKind's value over completed shifts. Shifts whose
// job is missing still count and still add hours, but earn zero.
type Metrics struct {
	ShiftCount         int
	CumulativeHours    decimal.Decimal
	CumulativeEarnings decimal.Decimal
	OvertimeCount      int
	BonusTotal         decimal.Decimal
	JobCount           int
	ConsecutiveDays    int
	ConsecutiveWeeks   int
	ConsecutiveMonths  int
}

// ComputeMetrics aggregates the history. Streaks bucket start times by
// calendar day, week and month in loc; a nil loc keeps each start's own
// location.
func ComputeMetrics(h *earnings.History, calc *earnings.Calculator, loc *time.Location) Metrics {
	m := Metrics{
		CumulativeHours:    decimal.Zero,
		CumulativeEarnings: decimal.Zero,
		BonusTotal:         decimal.Zero,
		JobCount:           len(h.Jobs),
	}

	var starts []time.Time
	for _, s := range h.CompletedShifts() {
		m.ShiftCount++
		if s.ShiftType == earnings.ShiftOvertime {
			m.OvertimeCount++
		}
		m.CumulativeHours = m.CumulativeHours.Add(calc.DurationHours(s))

		b := calc.ShiftEarnings(h, s)
		m.CumulativeEarnings = m.CumulativeEarnings.Add(b.Total())
		m.BonusTotal = m.BonusTotal.Add(b.Bonus)

		start := s.StartTime
		if loc != nil {
			start = start.In(loc)
		}
		starts = append(starts, start)
	}

	m.ConsecutiveDays = longestRun(starts, dayIndex)
	m.ConsecutiveWeeks = longestRun(starts, weekIndex)
	m.ConsecutiveMonths = longestRun(starts, monthIndex)
	return m
}

// Value returns the metric for kind. Unknown kinds are zero.
func (m Metrics) Value(kind MetricKind) decimal.Decimal {
	switch kind {
	case MetricShiftCount:
		return decimal.NewFromInt(int64(m.ShiftCount))
	case MetricCumulativeHours:
		return m.CumulativeHours
	case MetricCumulativeEarnings:
		return m.CumulativeEarnings
	case MetricOvertimeCount:
		return decimal.NewFromInt(int64(m.OvertimeCount))
	case MetricBonusTotal:
		return m.BonusTotal
	case MetricJobCount:
		return decimal.NewFromInt(int64(m.JobCount))
	case MetricConsecutiveDays:
		return decimal.NewFromInt(int64(m.ConsecutiveDays))
	case MetricConsecutiveWeeks:
		return decimal.NewFromInt(int64(m.ConsecutiveWeeks))
	case MetricConsecutiveMonths:
		return decimal.NewFromInt(int64(m.ConsecutiveMonths))
	}
	return decimal.Zero
}

// =============================================================================
// STREAKS
// =============================================================================

// Calendar indexes turn a start time (read in its own location, already
// converted by ComputeMetrics) into a sequential bucket number, so
// consecutive buckets differ by exactly one.

var epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

func dayIndex(t time.Time) int {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(epoch).Hours() / 24)
}

// 1970-01-01 was a Thursday; shifting by 3 days starts weeks on Monday.
func weekIndex(t time.Time) int {
	return (dayIndex(t) + 3) / 7
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

// longestRun returns the length of the longest run of consecutive buckets.
func longestRun(times []time.Time, index func(time.Time) int) int {
	if len(times) == 0 {
		return 0
	}
	seen := make(map[int]bool, len(times))
	buckets := make([]int, 0, len(times))
	for _, t := range times {
		i := index(t)
		if !seen[i] {
			seen[i] = true
			buckets = append(buckets, i)
		}
	}
	sort.Ints(buckets)

	best, run := 1, 1
	for i := 1; i < len(buckets); i++ {
		if buckets[i] == buckets[i-1]+1 {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}
