package achievements_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-earnings/achievements"
	"github.com/warp/shift-earnings/earnings"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var (
	monday = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	cafe   = earnings.Job{ID: "job-cafe", Name: "Cafe", HourlyRate: decimal.NewFromInt(15), CreatedAt: monday}
)

func shiftAt(t *testing.T, jobID earnings.JobID, start time.Time, d time.Duration) earnings.Shift {
	t.Helper()
	s, err := earnings.NewManualShift(earnings.ManualShiftInput{JobID: jobID, StartTime: start, EndTime: start.Add(d)})
	require.NoError(t, err)
	return s
}

func freshCatalog() []achievements.Achievement {
	out := make([]achievements.Achievement, 0, len(achievements.DefaultCatalog))
	for _, d := range achievements.DefaultCatalog {
		out = append(out, d.New())
	}
	return out
}

func byKey(all []achievements.Achievement, key string) achievements.Achievement {
	for _, a := range all {
		if a.Key == key {
			return a
		}
	}
	return achievements.Achievement{}
}

func keys(all []achievements.Achievement) []string {
	var out []string
	for _, a := range all {
		out = append(out, a.Key)
	}
	return out
}

// =============================================================================
// EVALUATION
// =============================================================================

func TestEvaluate_FirstShiftUnlocks(t *testing.T) {
	// GIVEN: One job and one completed 9h30 shift at 15/h (153.75)
	// WHEN: Evaluating the default catalog
	// THEN: First Shift, Getting Started, First Dollar and Hundredaire unlock;
	//       Time Tracker progresses to 9.5 hours

	clock := earnings.NewManualClock(monday.Add(12 * time.Hour))
	ev := achievements.NewEvaluator(clock, time.UTC)
	h := earnings.NewHistory([]earnings.Job{cafe}, []earnings.Shift{shiftAt(t, cafe.ID, monday, 9*time.Hour+30*time.Minute)}, nil)

	res := ev.Evaluate(h, freshCatalog())

	assert.ElementsMatch(t, []string{"first_shift", "getting_started", "first_dollar", "hundredaire"}, keys(res.Unlocked))
	for _, a := range res.Unlocked {
		assert.True(t, a.IsUnlocked)
		assert.True(t, a.Progress.Equal(a.MaxProgress), a.Key)
		require.NotNil(t, a.UnlockedAt)
		assert.Equal(t, clock.Now(), *a.UnlockedAt)
	}

	tracker := byKey(res.Achievements, "time_tracker")
	assert.False(t, tracker.IsUnlocked)
	assert.True(t, decimal.RequireFromString("9.5").Equal(tracker.Progress), tracker.Progress.String())

	overtime := byKey(res.Achievements, "overtime_hero")
	assert.True(t, decimal.NewFromInt(1).Equal(overtime.Progress))

	assert.Len(t, res.Achievements, len(achievements.DefaultCatalog))
}

func TestEvaluate_StreaksUseEvaluatorLocation(t *testing.T) {
	// GIVEN: Seven New York work days, alternating 20:00 and 08:00 starts,
	//        stored in UTC (the evening shifts land on the next UTC day)
	// WHEN: Evaluating Daily Grind with a UTC and a New York evaluator
	// THEN: Only the New York evaluator unlocks it

	newYork := time.FixedZone("EDT", -4*60*60)
	var shifts []earnings.Shift
	for d := 0; d < 7; d++ {
		hour := 8
		if d%2 == 0 {
			hour = 20
		}
		start := time.Date(2025, time.June, 2+d, hour, 0, 0, 0, newYork).UTC()
		shifts = append(shifts, shiftAt(t, cafe.ID, start, time.Hour))
	}
	h := earnings.NewHistory([]earnings.Job{cafe}, shifts, nil)
	clock := earnings.NewManualClock(time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC))

	utc := achievements.NewEvaluator(clock, time.UTC).Evaluate(h, freshCatalog())
	assert.False(t, byKey(utc.Achievements, "daily_grind").IsUnlocked)
	assert.True(t, decimal.NewFromInt(1).Equal(byKey(utc.Achievements, "daily_grind").Progress))

	ny := achievements.NewEvaluator(clock, newYork).Evaluate(h, freshCatalog())
	assert.True(t, byKey(ny.Achievements, "daily_grind").IsUnlocked)
	assert.Contains(t, keys(ny.Unlocked), "daily_grind")
}

func TestEvaluate_UnlockIsIdempotent(t *testing.T) {
	clock := earnings.NewManualClock(monday.Add(12 * time.Hour))
	ev := achievements.NewEvaluator(clock, time.UTC)
	h := earnings.NewHistory([]earnings.Job{cafe}, []earnings.Shift{shiftAt(t, cafe.ID, monday, time.Hour)}, nil)

	first := ev.Evaluate(h, freshCatalog())
	require.NotEmpty(t, first.Unlocked)
	unlockedAt := *byKey(first.Achievements, "first_shift").UnlockedAt

	clock.Advance(24 * time.Hour)
	second := ev.Evaluate(h, first.Achievements)

	assert.Empty(t, second.Unlocked)
	assert.Empty(t, second.Changed)
	again := byKey(second.Achievements, "first_shift")
	assert.Equal(t, unlockedAt, *again.UnlockedAt)
	assert.True(t, again.Progress.Equal(again.MaxProgress))
}

func TestEvaluate_ProgressIsMonotonic(t *testing.T) {
	// GIVEN: Progress evaluated on a growing history, then on a shrunk one
	// WHEN: Re-evaluating each time
	// THEN: Progress never decreases

	ev := achievements.NewEvaluator(earnings.NewManualClock(monday), time.UTC)
	catalog := freshCatalog()

	var shifts []earnings.Shift
	last := decimal.Zero
	for day := 0; day < 5; day++ {
		shifts = append(shifts, shiftAt(t, cafe.ID, monday.AddDate(0, 0, day), time.Hour))
		res := ev.Evaluate(earnings.NewHistory([]earnings.Job{cafe}, shifts, nil), catalog)
		catalog = res.Achievements

		p := byKey(catalog, "century_club").Progress
		assert.True(t, p.GreaterThanOrEqual(last), "day %d: %s < %s", day, p, last)
		last = p
	}
	assert.True(t, decimal.NewFromInt(5).Equal(last))

	shrunk := earnings.NewHistory([]earnings.Job{cafe}, shifts[:1], nil)
	res := ev.Evaluate(shrunk, catalog)
	assert.True(t, decimal.NewFromInt(5).Equal(byKey(res.Achievements, "century_club").Progress))
	assert.Empty(t, res.Changed)
}

func TestEvaluate_ActiveShiftsIgnored(t *testing.T) {
	ev := achievements.NewEvaluator(earnings.NewManualClock(monday.Add(3 * time.Hour)), time.UTC)
	active, err := earnings.NewActiveShift(cafe.ID, monday)
	require.NoError(t, err)

	res := ev.Evaluate(earnings.NewHistory([]earnings.Job{cafe}, []earnings.Shift{active}, nil), freshCatalog())

	assert.False(t, byKey(res.Achievements, "first_shift").IsUnlocked)
	assert.True(t, byKey(res.Achievements, "time_tracker").Progress.IsZero())
}

func TestEvaluate_MissingJobEarnsZeroButCounts(t *testing.T) {
	// GIVEN: A shift whose job was removed behind the engine's back
	// WHEN: Evaluating
	// THEN: It counts as a shift, adds no earnings, and nothing fails

	ev := achievements.NewEvaluator(earnings.NewManualClock(monday.Add(12 * time.Hour)), time.UTC)
	orphan := shiftAt(t, "ghost", monday, 2*time.Hour)
	orphan.BonusAmount = decimal.NewFromInt(600)

	res := ev.Evaluate(earnings.NewHistory(nil, []earnings.Shift{orphan}, nil), freshCatalog())

	assert.True(t, byKey(res.Achievements, "first_shift").IsUnlocked)
	assert.False(t, byKey(res.Achievements, "first_dollar").IsUnlocked)
	assert.False(t, byKey(res.Achievements, "bonus_hunter").IsUnlocked)
	assert.True(t, decimal.NewFromInt(2).Equal(byKey(res.Achievements, "time_tracker").Progress))
}

func TestEvaluate_UnknownMetricStaysAtZero(t *testing.T) {
	ev := achievements.NewEvaluator(earnings.NewManualClock(monday), time.UTC)
	odd := achievements.Achievement{ID: "x", Key: "odd", Metric: "moon_phase", MaxProgress: decimal.NewFromInt(1), Progress: decimal.Zero}
	h := earnings.NewHistory([]earnings.Job{cafe}, []earnings.Shift{shiftAt(t, cafe.ID, monday, time.Hour)}, nil)

	res := ev.Evaluate(h, []achievements.Achievement{odd})
	assert.Empty(t, res.Changed)
	assert.False(t, res.Achievements[0].IsUnlocked)
}

func TestEvaluate_BonusHunterCountsAttachedAndFlatBonuses(t *testing.T) {
	ev := achievements.NewEvaluator(earnings.NewManualClock(monday.Add(48 * time.Hour)), time.UTC)
	holiday := earnings.Bonus{ID: "b-holiday", JobID: cafe.ID, Name: "Holiday", Amount: decimal.NewFromInt(300)}

	s1 := shiftAt(t, cafe.ID, monday, time.Hour)
	s1.AttachBonus(holiday.ID)
	s2 := shiftAt(t, cafe.ID, monday.AddDate(0, 0, 1), time.Hour)
	s2.BonusAmount = decimal.NewFromInt(200)

	h := earnings.NewHistory([]earnings.Job{cafe}, []earnings.Shift{s1, s2}, []earnings.Bonus{holiday})
	res := ev.Evaluate(h, freshCatalog())

	assert.True(t, byKey(res.Achievements, "bonus_hunter").IsUnlocked)
}

// =============================================================================
// ACHIEVEMENT MODEL
// =============================================================================

func TestAchievement_UnlockBelowTarget(t *testing.T) {
	a := achievements.DefaultCatalog[0].New()
	err := a.Unlock(decimal.Zero, monday)
	assert.ErrorIs(t, err, earnings.ErrInvariant)
	assert.False(t, a.IsUnlocked)
	assert.Nil(t, a.UnlockedAt)
}

func TestRarityFor(t *testing.T) {
	assert.Equal(t, achievements.RarityCommon, achievements.RarityFor(10))
	assert.Equal(t, achievements.RarityUncommon, achievements.RarityFor(25))
	assert.Equal(t, achievements.RarityRare, achievements.RarityFor(50))
	assert.Equal(t, achievements.RarityEpic, achievements.RarityFor(100))
	assert.Equal(t, achievements.RarityLegendary, achievements.RarityFor(101))
}

func TestAchievement_Percent(t *testing.T) {
	a := achievements.Achievement{MaxProgress: decimal.NewFromInt(8), Progress: decimal.NewFromInt(2)}
	assert.True(t, decimal.NewFromInt(25).Equal(a.Percent()))

	a.Progress = decimal.NewFromInt(20)
	assert.True(t, decimal.NewFromInt(100).Equal(a.Percent()))
}

func TestDefaultCatalog_Valid(t *testing.T) {
	require.Len(t, achievements.DefaultCatalog, 18)
	seenKeys := map[string]bool{}
	seenNames := map[string]bool{}
	for _, d := range achievements.DefaultCatalog {
		require.NoError(t, d.Validate())
		assert.False(t, seenKeys[d.Key], "duplicate key %s", d.Key)
		assert.False(t, seenNames[d.Name], "duplicate name %s", d.Name)
		seenKeys[d.Key] = true
		seenNames[d.Name] = true
	}
}

func TestTotalsAndGrouping(t *testing.T) {
	all := freshCatalog()
	at := monday
	for i := range all[:3] {
		require.NoError(t, all[i].Unlock(all[i].MaxProgress, at))
	}

	// first_shift 10 + getting_started 5 + time_tracker 15
	assert.Equal(t, 30, achievements.TotalPoints(all))
	assert.Len(t, achievements.GroupByCategory(all)[achievements.CategoryEarnings], 4)

	dist := achievements.RarityDistribution(all)
	assert.Equal(t, 2, dist[achievements.RarityCommon])
	assert.Equal(t, 1, dist[achievements.RarityUncommon])
}
