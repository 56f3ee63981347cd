package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-earnings/achievements"
	"github.com/warp/shift-earnings/earnings"
	"github.com/warp/shift-earnings/store/sqlite"
)

var day = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func seedJob(t *testing.T, st *sqlite.Store, id earnings.JobID, rate int64) earnings.Job {
	t.Helper()
	job := earnings.Job{ID: id, Name: string(id), HourlyRate: decimal.NewFromInt(rate), CreatedAt: day}
	require.NoError(t, st.SaveJob(context.Background(), job))
	return job
}

func manual(t *testing.T, jobID earnings.JobID, start time.Time, d time.Duration) earnings.Shift {
	t.Helper()
	s, err := earnings.NewManualShift(earnings.ManualShiftInput{JobID: jobID, StartTime: start, EndTime: start.Add(d)})
	require.NoError(t, err)
	return s
}

// =============================================================================
// JOBS, SHIFTS, BONUSES
// =============================================================================

func TestStore_RoundTrip(t *testing.T) {
	// GIVEN: A job, a bonus and a completed shift carrying both bonus forms
	// WHEN: Reading them back
	// THEN: Decimals, times, flags and link order survive

	ctx := context.Background()
	st := newStore(t)
	job := seedJob(t, st, "job-1", 20)
	job.HourlyRate = decimal.RequireFromString("20.75")
	require.NoError(t, st.SaveJob(ctx, job))

	b1, err := earnings.NewBonus(job.ID, "Holiday", decimal.NewFromInt(50), day)
	require.NoError(t, err)
	b2, err := earnings.NewBonus(job.ID, "Tips", decimal.RequireFromString("12.5"), day.Add(time.Minute))
	require.NoError(t, err)
	require.NoError(t, st.SaveBonus(ctx, b1))
	require.NoError(t, st.SaveBonus(ctx, b2))

	s := manual(t, job.ID, day, 10*time.Hour)
	s.Notes = "inventory"
	s.BonusAmount = decimal.RequireFromString("7.25")
	s.AttachBonus(b2.ID)
	s.AttachBonus(b1.ID)
	require.NoError(t, st.SaveShift(ctx, s))

	gotJob, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.True(t, gotJob.HourlyRate.Equal(decimal.RequireFromString("20.75")))
	assert.True(t, gotJob.CreatedAt.Equal(day))

	got, err := st.GetShift(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, earnings.ShiftOvertime, got.ShiftType)
	assert.True(t, got.IsCompleted())
	assert.True(t, got.EndTime.Equal(day.Add(10*time.Hour)))
	assert.True(t, got.BonusAmount.Equal(decimal.RequireFromString("7.25")))
	assert.Equal(t, []earnings.BonusID{b2.ID, b1.ID}, got.BonusIDs)
	assert.Equal(t, "inventory", got.Notes)

	bonuses, err := st.ListBonuses(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, bonuses, 2)
	assert.Equal(t, b1.ID, bonuses[0].ID)
}

func TestStore_ActiveShiftAndEnd(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	job := seedJob(t, st, "job-1", 15)

	s, err := earnings.NewActiveShift(job.ID, day)
	require.NoError(t, err)
	require.NoError(t, st.SaveShift(ctx, s))

	active, err := st.ActiveShifts(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Nil(t, active[0].EndTime)

	require.NoError(t, s.End(day.Add(2*time.Hour)))
	require.NoError(t, st.SaveShift(ctx, s))

	active, err = st.ActiveShifts(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestStore_ListShiftsFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	a := seedJob(t, st, "job-a", 10)
	b := seedJob(t, st, "job-b", 10)

	// Sub-second start sorts between whole seconds.
	require.NoError(t, st.SaveShift(ctx, manual(t, a.ID, day.Add(48*time.Hour), time.Hour)))
	require.NoError(t, st.SaveShift(ctx, manual(t, a.ID, day.Add(500*time.Millisecond), time.Hour)))
	require.NoError(t, st.SaveShift(ctx, manual(t, b.ID, day, time.Hour)))

	all, err := st.ListShifts(ctx, earnings.ShiftFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].StartTime.Equal(day))
	assert.True(t, all[1].StartTime.Equal(day.Add(500*time.Millisecond)))

	onlyA, err := st.ListShifts(ctx, earnings.ShiftFilter{JobID: a.ID, To: day.Add(24 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, onlyA, 1)
	assert.Equal(t, a.ID, onlyA[0].JobID)
}

func TestStore_DeleteJobCascades(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	keep := seedJob(t, st, "job-keep", 10)
	gone := seedJob(t, st, "job-gone", 10)

	bonus, err := earnings.NewBonus(gone.ID, "Holiday", decimal.NewFromInt(5), day)
	require.NoError(t, err)
	require.NoError(t, st.SaveBonus(ctx, bonus))
	s := manual(t, gone.ID, day, time.Hour)
	s.AttachBonus(bonus.ID)
	require.NoError(t, st.SaveShift(ctx, s))
	require.NoError(t, st.SaveShift(ctx, manual(t, keep.ID, day, time.Hour)))

	require.NoError(t, st.DeleteJob(ctx, gone.ID))

	_, err = st.GetShift(ctx, s.ID)
	assert.True(t, earnings.IsNotFound(err))
	_, err = st.GetBonus(ctx, bonus.ID)
	assert.True(t, earnings.IsNotFound(err))
	left, err := st.ListShifts(ctx, earnings.ShiftFilter{})
	require.NoError(t, err)
	assert.Len(t, left, 1)

	err = st.DeleteJob(ctx, gone.ID)
	assert.ErrorIs(t, err, earnings.ErrNotFound)
}

func TestStore_DeleteBonusDetaches(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	job := seedJob(t, st, "job-1", 10)

	bonus, err := earnings.NewBonus(job.ID, "Holiday", decimal.NewFromInt(5), day)
	require.NoError(t, err)
	require.NoError(t, st.SaveBonus(ctx, bonus))
	s := manual(t, job.ID, day, time.Hour)
	s.AttachBonus(bonus.ID)
	require.NoError(t, st.SaveShift(ctx, s))

	require.NoError(t, st.DeleteBonus(ctx, bonus.ID))

	got, err := st.GetShift(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, got.BonusIDs)
}

func TestStore_WithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	boom := errors.New("boom")

	err := st.WithTx(ctx, func(tx earnings.Store) error {
		job := earnings.Job{ID: "job-tx", Name: "Tx", HourlyRate: decimal.NewFromInt(9), CreatedAt: day}
		if err := tx.SaveJob(ctx, job); err != nil {
			return err
		}
		if _, err := tx.GetJob(ctx, job.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = st.GetJob(ctx, "job-tx")
	assert.True(t, earnings.IsNotFound(err))

	require.NoError(t, st.WithTx(ctx, func(tx earnings.Store) error {
		return tx.SaveJob(ctx, earnings.Job{ID: "job-ok", Name: "Ok", HourlyRate: decimal.NewFromInt(9), CreatedAt: day})
	}))
	_, err = st.GetJob(ctx, "job-ok")
	assert.NoError(t, err)
}

func TestStore_LoadHistory(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	job := seedJob(t, st, "job-1", 10)
	require.NoError(t, st.SaveShift(ctx, manual(t, job.ID, day, 7*time.Hour)))

	h, err := earnings.LoadHistory(ctx, st)
	require.NoError(t, err)
	total := earnings.NewCalculator(nil).ShiftEarnings(h, h.Shifts[0]).Total()
	assert.True(t, decimal.NewFromInt(70).Equal(total), total.String())
}

// =============================================================================
// ACHIEVEMENTS
// =============================================================================

func TestStore_AchievementsKeepSeedOrderAndState(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	n, err := achievements.Seed(ctx, st, achievements.DefaultCatalog)
	require.NoError(t, err)
	assert.Equal(t, len(achievements.DefaultCatalog), n)

	all, err := st.ListAchievements(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(achievements.DefaultCatalog))
	for i, d := range achievements.DefaultCatalog {
		assert.Equal(t, d.Key, all[i].Key)
	}

	first := all[0]
	require.NoError(t, first.Unlock(first.MaxProgress, day))
	require.NoError(t, st.SaveAchievement(ctx, first))

	n, err = achievements.Seed(ctx, st, achievements.DefaultCatalog)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := st.GetAchievement(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, got.IsUnlocked)
	require.NotNil(t, got.UnlockedAt)
	assert.True(t, got.UnlockedAt.Equal(day))
	assert.True(t, got.Progress.Equal(got.MaxProgress))

	all, err = st.ListAchievements(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, all[0].ID, "update keeps position")

	_, err = st.GetAchievement(ctx, "missing")
	assert.True(t, earnings.IsNotFound(err))
}
