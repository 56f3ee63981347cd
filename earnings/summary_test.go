package earnings_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-earnings/earnings"
)

// reportHistory holds, at 20/h:
//
//	Mon 03  09:00  2h  Regular        40   (previous week)
//	Mon 10  09:00  5h  Regular       100
//	Tue 11  09:00 10h  Overtime      220
//	Sat 15  10:00  4h  Special Event 100
//	Sat 15  15:00      active        (excluded)
func reportHistory(t *testing.T) *earnings.History {
	t.Helper()
	job := testJob("20")
	active, err := earnings.NewActiveShift(job.ID, at(15, 15, 0))
	require.NoError(t, err)

	shifts := []earnings.Shift{
		completedShift(t, job.ID, at(3, 9, 0), 2*time.Hour, ""),
		completedShift(t, job.ID, at(10, 9, 0), 5*time.Hour, ""),
		completedShift(t, job.ID, at(11, 9, 0), 10*time.Hour, ""),
		completedShift(t, job.ID, at(15, 10, 0), 4*time.Hour, ""),
		active,
	}
	return earnings.NewHistory([]earnings.Job{job}, shifts, nil)
}

func TestSummarize_Week(t *testing.T) {
	// GIVEN: Shifts spread over two weeks plus a running shift
	// WHEN: Summarizing the week of Wednesday March 12
	// THEN: Only the three completed shifts of that week count

	h := reportHistory(t)
	calc := earnings.NewCalculator(earnings.NewManualClock(at(15, 16, 0)))

	sum := earnings.Summarize(h, calc, earnings.PeriodFor(earnings.PeriodWeek, at(12, 12, 0)))

	assert.Equal(t, 3, sum.ShiftCount)
	assertDecimal(t, "19", sum.Hours)
	assertDecimal(t, "420", sum.Earnings)
	assertDecimal(t, "0", sum.BonusTotal)

	assert.Equal(t, 1, sum.ByType[earnings.ShiftRegular].Count)
	assertDecimal(t, "100", sum.ByType[earnings.ShiftRegular].Earnings)
	assertDecimal(t, "220", sum.ByType[earnings.ShiftOvertime].Earnings)
	assertDecimal(t, "4", sum.ByType[earnings.ShiftSpecialEvent].Hours)
	assert.True(t, sum.AverageHourly.GreaterThan(dec("22")) && sum.AverageHourly.LessThan(dec("22.2")))
}

func TestSummarize_AllAndEmpty(t *testing.T) {
	h := reportHistory(t)
	calc := earnings.NewCalculator(earnings.SystemClock{})

	all := earnings.Summarize(h, calc, earnings.PeriodFor(earnings.PeriodAll, at(1, 0, 0)))
	assert.Equal(t, 4, all.ShiftCount)
	assertDecimal(t, "460", all.Earnings)

	empty := earnings.Summarize(h, calc, earnings.PeriodFor(earnings.PeriodDay, at(20, 0, 0)))
	assert.Zero(t, empty.ShiftCount)
	assertDecimal(t, "0", empty.AverageHourly)
}

func TestGoals_Progress(t *testing.T) {
	// GIVEN: Default goals (200 / 1000 / 4000)
	// WHEN: Checking progress on Saturday March 15
	// THEN: Day 100 (50%), week 420 (42%), month 460 (11.5%)

	h := reportHistory(t)
	calc := earnings.NewCalculator(earnings.SystemClock{})

	progress := earnings.DefaultGoals().Progress(h, calc, at(15, 16, 0))
	require.Len(t, progress, 3)

	assert.Equal(t, earnings.PeriodDay, progress[0].Period.Type)
	assertDecimal(t, "100", progress[0].Earned)
	assertDecimal(t, "50", progress[0].Percent)
	assert.False(t, progress[0].Reached)

	assertDecimal(t, "420", progress[1].Earned)
	assertDecimal(t, "42", progress[1].Percent)

	assertDecimal(t, "460", progress[2].Earned)
	assertDecimal(t, "11.5", progress[2].Percent)
}

func TestGoals_PercentCapped(t *testing.T) {
	h := reportHistory(t)
	calc := earnings.NewCalculator(earnings.SystemClock{})
	goals := earnings.Goals{Daily: dec("50"), Weekly: dec("0"), Monthly: dec("4000")}
	require.NoError(t, goals.Validate())

	progress := goals.Progress(h, calc, at(15, 16, 0))
	assertDecimal(t, "100", progress[0].Percent)
	assert.True(t, progress[0].Reached)
	assertDecimal(t, "100", progress[1].Percent, "zero target counts as reached")
	assert.True(t, progress[1].Reached)

	assert.ErrorIs(t, earnings.Goals{Daily: dec("-1")}.Validate(), earnings.ErrValidation)
}

// =============================================================================
// PERIODS
// =============================================================================

func TestPeriodFor_WeekStartsMonday(t *testing.T) {
	p := earnings.PeriodFor(earnings.PeriodWeek, at(16, 23, 0)) // Sunday
	assert.Equal(t, at(10, 0, 0), p.Start)
	assert.Equal(t, at(17, 0, 0), p.End)
	assert.True(t, p.Contains(at(10, 0, 0)))
	assert.False(t, p.Contains(at(17, 0, 0)))

	prev := p.Previous()
	assert.Equal(t, at(3, 0, 0), prev.Start)
}

func TestPeriodFor_Month(t *testing.T) {
	p := earnings.PeriodFor(earnings.PeriodMonth, at(31, 23, 59))
	assert.Equal(t, at(1, 0, 0), p.Start)
	assert.Equal(t, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), p.End)
	assert.Equal(t, time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), p.Previous().Start)
}

func TestParsePeriodType(t *testing.T) {
	pt, err := earnings.ParsePeriodType("")
	require.NoError(t, err)
	assert.Equal(t, earnings.PeriodAll, pt)

	_, err = earnings.ParsePeriodType("year")
	assert.ErrorIs(t, err, earnings.ErrValidation)
}

// =============================================================================
// TEMPLATES
// =============================================================================

func TestTemplate_Instantiate(t *testing.T) {
	evening, ok := earnings.FindTemplate(earnings.DefaultTemplates, " evening shift ")
	require.True(t, ok)

	s, err := evening.Instantiate("job-1", at(10, 14, 0))
	require.NoError(t, err)

	assert.Equal(t, at(10, 17, 0), s.StartTime)
	assert.Equal(t, at(11, 1, 0), *s.EndTime, "crosses midnight")
	assert.Equal(t, earnings.ShiftOvertime, s.ShiftType)
	assert.True(t, s.TypeLocked)
	assert.Equal(t, "Evening shift with overtime", s.Notes)
}

func TestTemplate_Defaults(t *testing.T) {
	require.Len(t, earnings.DefaultTemplates, 4)
	for _, tpl := range earnings.DefaultTemplates {
		assert.NoError(t, tpl.Validate(), tpl.Name)
	}

	_, ok := earnings.FindTemplate(earnings.DefaultTemplates, "Night Shift")
	assert.False(t, ok)

	bad := earnings.Template{Name: "x", StartHour: 25, Duration: time.Hour, ShiftType: earnings.ShiftRegular}
	_, err := bad.Instantiate("job-1", at(10, 0, 0))
	assert.ErrorIs(t, err, earnings.ErrValidation)
}
