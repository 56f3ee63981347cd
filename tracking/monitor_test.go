package tracking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-earnings/earnings"
	"github.com/warp/shift-earnings/notify"
	"github.com/warp/shift-earnings/tracking"
)

func TestMonitor_RemindsOncePerShift(t *testing.T) {
	// GIVEN: A shift tracked since Monday 09:00
	// WHEN: The monitor checks at 16:00, then twice after 17:00
	// THEN: Exactly one shift_still_active event is sent

	ctx := context.Background()
	f := newFixture(t)
	rec := &notify.Recorder{}
	m := tracking.NewMonitor(f.store, rec, f.clock, nil)

	started, err := f.tracker.StartTracking(ctx, f.job.ID)
	require.NoError(t, err)

	f.clock.Advance(7 * time.Hour)
	assert.Zero(t, m.RunNow(ctx))

	f.clock.Advance(90 * time.Minute)
	assert.Equal(t, 1, m.RunNow(ctx))
	assert.Zero(t, m.RunNow(ctx))

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notify.EventShiftStillActive, events[0].Type)
	assert.Equal(t, string(started.ID), events[0].Data["shiftId"])
	assert.Equal(t, "8.5", events[0].Data["hours"])
	assert.Contains(t, events[0].Message, "Cafe")
}

func TestMonitor_NewShiftGetsItsOwnReminder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rec := &notify.Recorder{}
	m := tracking.NewMonitor(f.store, rec, f.clock, nil)
	m.Threshold = time.Hour

	_, err := f.tracker.StartTracking(ctx, f.job.ID)
	require.NoError(t, err)
	f.clock.Advance(2 * time.Hour)
	assert.Equal(t, 1, m.RunNow(ctx))

	_, err = f.tracker.StartTracking(ctx, f.job.ID)
	require.NoError(t, err)
	f.clock.Advance(2 * time.Hour)
	assert.Equal(t, 1, m.RunNow(ctx))

	assert.Len(t, rec.Events(), 2)
}

func TestMonitor_StartStop(t *testing.T) {
	f := newFixture(t)
	rec := &notify.Recorder{}
	m := tracking.NewMonitor(f.store, rec, earnings.SystemClock{}, nil)
	m.CheckInterval = time.Millisecond

	m.Start()
	m.Start()
	time.Sleep(5 * time.Millisecond)
	m.Stop()
	m.Stop()

	disabled := tracking.NewMonitor(f.store, rec, nil, nil)
	disabled.Enabled = false
	disabled.Start()
	disabled.Stop()
	assert.Empty(t, rec.Events())
}

func TestMonitor_NilNotifier(t *testing.T) {
	// GIVEN: Monitors built without a notifier, or with it cleared later
	// WHEN: A long shift is checked
	// THEN: The reminder is logged instead of panicking

	ctx := context.Background()
	f := newFixture(t)
	_, err := f.tracker.StartTracking(ctx, f.job.ID)
	require.NoError(t, err)
	f.clock.Advance(9 * time.Hour)

	built := tracking.NewMonitor(f.store, nil, f.clock, nil)
	assert.Equal(t, 1, built.RunNow(ctx))

	cleared := tracking.NewMonitor(f.store, &notify.Recorder{}, f.clock, nil)
	cleared.Notifier = nil
	assert.Equal(t, 1, cleared.RunNow(ctx))
}
