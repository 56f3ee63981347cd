package backup_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-earnings/achievements"
	"github.com/warp/shift-earnings/backup"
	"github.com/warp/shift-earnings/earnings"
	"github.com/warp/shift-earnings/earnings/store"
)

var monday = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	shifts *store.TxMemory
	ach    *achievements.MemoryStore
	svc    *backup.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{shifts: store.NewTxMemory(), ach: achievements.NewMemoryStore()}
	_, err := achievements.Seed(context.Background(), f.ach, achievements.DefaultCatalog)
	require.NoError(t, err)
	f.svc = backup.NewService(f.shifts, f.ach, earnings.NewManualClock(monday.AddDate(0, 0, 7)), nil)
	return f
}

// populate writes a job with a bonus template and two completed shifts:
// 10h Overtime at 20/h with the 15 bonus attached (235) and 4h Regular (80).
func populate(t *testing.T, st earnings.Store) earnings.Job {
	t.Helper()
	ctx := context.Background()
	job := earnings.Job{ID: "job-1", Name: "Warehouse", HourlyRate: decimal.NewFromInt(20), CreatedAt: monday}
	require.NoError(t, st.SaveJob(ctx, job))

	bonus := earnings.Bonus{ID: "bonus-1", JobID: job.ID, Name: "Holiday", Amount: decimal.NewFromInt(15), CreatedAt: monday}
	require.NoError(t, st.SaveBonus(ctx, bonus))

	long, err := earnings.NewManualShift(earnings.ManualShiftInput{
		JobID: job.ID, StartTime: monday, EndTime: monday.Add(10 * time.Hour), BonusIDs: []earnings.BonusID{bonus.ID},
	})
	require.NoError(t, err)
	short, err := earnings.NewManualShift(earnings.ManualShiftInput{
		JobID: job.ID, StartTime: monday.AddDate(0, 0, 1), EndTime: monday.AddDate(0, 0, 1).Add(4 * time.Hour), Notes: "stocktake, aisle 4",
	})
	require.NoError(t, err)
	require.NoError(t, st.SaveShift(ctx, long))
	require.NoError(t, st.SaveShift(ctx, short))
	return job
}

func totalEarnings(t *testing.T, st earnings.Store) decimal.Decimal {
	t.Helper()
	h, err := earnings.LoadHistory(context.Background(), st)
	require.NoError(t, err)
	calc := earnings.NewCalculator(nil)
	total := decimal.Zero
	for _, s := range h.CompletedShifts() {
		total = total.Add(calc.ShiftEarnings(h, s).Total())
	}
	return total
}

// =============================================================================
// EXPORT / RESTORE
// =============================================================================

func TestExportRestore_RoundTripThroughJSON(t *testing.T) {
	// GIVEN: A populated data set with one unlocked achievement
	// WHEN: Exporting to JSON and restoring into empty stores
	// THEN: Records, pay and achievement state come back unchanged

	ctx := context.Background()
	src := newFixture(t)
	populate(t, src.shifts)

	all, err := src.ach.ListAchievements(ctx)
	require.NoError(t, err)
	first := all[0]
	require.NoError(t, first.Unlock(first.MaxProgress, monday))
	require.NoError(t, src.ach.SaveAchievement(ctx, first))

	task := src.svc.Export(ctx)
	var stages []string
	for p := range task.Progress() {
		stages = append(stages, p.Stage)
	}
	snap, err := task.Wait()
	require.NoError(t, err)
	assert.Equal(t, []string{"jobs", "shifts", "bonuses", "achievements"}, stages)
	assert.Equal(t, backup.FormatVersion, snap.Version)
	assert.Len(t, snap.Shifts, 2)

	var buf bytes.Buffer
	require.NoError(t, backup.WriteJSON(&buf, snap))
	assert.Contains(t, buf.String(), `"hourlyRate": "20"`)
	decoded, err := backup.ReadJSON(&buf)
	require.NoError(t, err)

	dst := newFixture(t)
	res, err := dst.svc.Restore(ctx, decoded).Wait()
	require.NoError(t, err)
	assert.Equal(t, backup.RestoreResult{Jobs: 1, Shifts: 2, Bonuses: 1, Achievements: 1}, res)

	assert.True(t, decimal.NewFromInt(315).Equal(totalEarnings(t, dst.shifts)))

	restored, err := dst.ach.ListAchievements(ctx)
	require.NoError(t, err)
	assert.True(t, restored[0].IsUnlocked)
	assert.True(t, restored[0].UnlockedAt.Equal(monday))
	assert.Len(t, restored, len(achievements.DefaultCatalog), "no duplicates by key")
}

func TestRestore_ReplacesExistingData(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stale := earnings.Job{ID: "job-stale", Name: "Old", HourlyRate: decimal.NewFromInt(9), CreatedAt: monday}
	require.NoError(t, f.shifts.SaveJob(ctx, stale))

	src := newFixture(t)
	populate(t, src.shifts)
	snap, err := src.svc.Export(ctx).Wait()
	require.NoError(t, err)

	_, err = f.svc.Restore(ctx, snap).Wait()
	require.NoError(t, err)

	_, err = f.shifts.GetJob(ctx, stale.ID)
	assert.True(t, earnings.IsNotFound(err))
	jobs, err := f.shifts.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, earnings.JobID("job-1"), jobs[0].ID)
}

func TestRestore_InvalidSnapshotLeavesDataIntact(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	populate(t, f.shifts)

	orphan, err := earnings.NewManualShift(earnings.ManualShiftInput{JobID: "ghost", StartTime: monday, EndTime: monday.Add(time.Hour)})
	require.NoError(t, err)
	snap := backup.Snapshot{Version: backup.FormatVersion, Shifts: []earnings.Shift{orphan}}

	_, err = f.svc.Restore(ctx, snap).Wait()
	assert.ErrorIs(t, err, earnings.ErrMissingReference)
	assert.True(t, decimal.NewFromInt(315).Equal(totalEarnings(t, f.shifts)))
}

func TestRestore_CancelledRollsBack(t *testing.T) {
	ctx := context.Background()
	src := newFixture(t)
	populate(t, src.shifts)
	snap, err := src.svc.Export(ctx).Wait()
	require.NoError(t, err)

	f := newFixture(t)
	keep := earnings.Job{ID: "job-keep", Name: "Keep", HourlyRate: decimal.NewFromInt(9), CreatedAt: monday}
	require.NoError(t, f.shifts.SaveJob(ctx, keep))

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = f.svc.Restore(cctx, snap).Wait()
	assert.ErrorIs(t, err, context.Canceled)

	_, err = f.shifts.GetJob(ctx, keep.ID)
	assert.NoError(t, err, "old data survives a cancelled restore")
}

func TestValidate(t *testing.T) {
	job := earnings.Job{ID: "job-1", Name: "Warehouse", HourlyRate: decimal.NewFromInt(20), CreatedAt: monday}
	a, err := earnings.NewActiveShift(job.ID, monday)
	require.NoError(t, err)
	b, err := earnings.NewActiveShift(job.ID, monday.Add(time.Hour))
	require.NoError(t, err)

	err = backup.Validate(backup.Snapshot{Version: 99})
	assert.ErrorIs(t, err, earnings.ErrValidation)

	err = backup.Validate(backup.Snapshot{Version: backup.FormatVersion, Jobs: []earnings.Job{job}, Shifts: []earnings.Shift{a, b}})
	assert.ErrorIs(t, err, earnings.ErrInvariant)

	linked := a
	linked.BonusIDs = []earnings.BonusID{"missing"}
	err = backup.Validate(backup.Snapshot{Version: backup.FormatVersion, Jobs: []earnings.Job{job}, Shifts: []earnings.Shift{linked}})
	assert.ErrorIs(t, err, earnings.ErrMissingReference)

	assert.NoError(t, backup.Validate(backup.Snapshot{Version: backup.FormatVersion, Jobs: []earnings.Job{job}, Shifts: []earnings.Shift{a}}))
}

func TestMerge_NeverRegresses(t *testing.T) {
	def := achievements.DefaultCatalog[2] // time_tracker, target 10
	cur := def.New()
	cur.Progress = decimal.NewFromInt(6)

	saved := def.New()
	saved.Progress = decimal.NewFromInt(3)
	_, changed := backup.Merge(cur, saved, monday)
	assert.False(t, changed)

	saved.Progress = decimal.NewFromInt(8)
	next, changed := backup.Merge(cur, saved, monday)
	assert.True(t, changed)
	assert.True(t, decimal.NewFromInt(8).Equal(next.Progress))

	saved.IsUnlocked = true
	next, changed = backup.Merge(cur, saved, monday)
	assert.True(t, changed)
	assert.True(t, next.IsUnlocked)
	assert.Equal(t, monday, *next.UnlockedAt)

	_, changed = backup.Merge(next, def.New(), monday)
	assert.False(t, changed, "unlocked stays unlocked")
}

func TestReadJSON_Malformed(t *testing.T) {
	_, err := backup.ReadJSON(bytes.NewBufferString("{not json"))
	assert.ErrorIs(t, err, earnings.ErrValidation)
}

// =============================================================================
// CSV
// =============================================================================

func TestWriteShiftsCSV(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	populate(t, f.shifts)
	h, err := earnings.LoadHistory(ctx, f.shifts)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, backup.WriteShiftsCSV(&buf, h, earnings.NewCalculator(nil)))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, []string{
		"2025-03-10", "Warehouse", "09:00", "19:00", "10.00", "Overtime",
		"160.00", "60.00", "0.00", "15.00", "235.00", "",
	}, rows[1])
	assert.Equal(t, "stocktake, aisle 4", rows[2][11])
	assert.Equal(t, "80.00", rows[2][10])
}
