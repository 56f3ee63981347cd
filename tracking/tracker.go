/*
Package tracking runs the live time tracker.

STATE MACHINE:
  Idle ──StartTracking──> Tracking ──EndTracking──> Idle
                             │
                             └──StartTracking (other job)──> ends current, starts new

  At most one shift is active at a time. Every transition is written to the
  store before StartTracking/EndTracking return.

LOCKING:
  mu      serializes the operations (Start, End, Restore, Close). Single writer.
  readMu  guards the display readout (current shift, elapsed).

  The tick goroutine only takes readMu and never writes to the store. Ending
  a shift first cancels the tick's context and waits for the goroutine to
  exit without holding readMu, so no tick can recompute elapsed time for a
  shift once its end has begun.

RESTORE:
  On startup the store may hold several active shifts (crash, older data).
  Restore resumes the newest one and force-ends the others, each at the
  start of the next active shift. Stores may return UTC; restored shifts are
  read in the tracker's Location so classification uses local hours.

SEE ALSO:
  - monitor.go: long-running shift reminder
  - earnings/calculator.go: elapsed and earnings math
*/
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shift-earnings/earnings"
)

type State string

const (
	StateIdle     State = "idle"
	StateTracking State = "tracking"
)

// Tick is the live readout published while a shift is tracked. Earnings are
// projected as if the shift ended now.
type Tick struct {
	ShiftID  earnings.ShiftID `json:"shiftId"`
	JobID    earnings.JobID   `json:"jobId"`
	Elapsed  time.Duration    `json:"elapsed"`
	Earnings decimal.Decimal  `json:"earnings"`
	At       time.Time        `json:"at"`
}

// Status is a consistent snapshot of the tracker.
type Status struct {
	State    State           `json:"state"`
	Shift    *earnings.Shift `json:"shift,omitempty"`
	Job      *earnings.Job   `json:"job,omitempty"`
	Elapsed  time.Duration   `json:"elapsed"`
	Earnings decimal.Decimal `json:"earnings"`
}

// ShiftEndedFunc runs after a shift has been ended and saved.
type ShiftEndedFunc func(ctx context.Context, shift earnings.Shift)

type Options struct {
	TickInterval time.Duration  // default 1s
	Location     *time.Location // default time.Local
	Logger       *slog.Logger
	OnShiftEnded ShiftEndedFunc
}

type Tracker struct {
	store    earnings.Store
	calc     *earnings.Calculator
	clock    earnings.Clock
	loc      *time.Location
	interval time.Duration
	logger   *slog.Logger
	onEnded  ShiftEndedFunc

	mu sync.Mutex

	readMu  sync.RWMutex
	current *earnings.Shift
	job     *earnings.Job
	elapsed time.Duration

	cancelTick context.CancelFunc
	tickDone   chan struct{}

	subsMu sync.Mutex
	subs   map[chan Tick]struct{}
	closed bool
}

func New(store earnings.Store, clock earnings.Clock, opts Options) *Tracker {
	if clock == nil {
		clock = earnings.SystemClock{}
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Tracker{
		store:    store,
		calc:     earnings.NewCalculator(clock),
		clock:    clock,
		loc:      opts.Location,
		interval: opts.TickInterval,
		logger:   opts.Logger.With("component", "tracker"),
		onEnded:  opts.OnShiftEnded,
		subs:     make(map[chan Tick]struct{}),
	}
}

func (t *Tracker) now() time.Time { return t.clock.Now().In(t.loc) }

// =============================================================================
// OPERATIONS
// =============================================================================

// StartTracking starts a shift for the job, ending the current one first.
func (t *Tracker) StartTracking(ctx context.Context, jobID earnings.JobID) (earnings.Shift, error) {
	t.mu.Lock()
	ended, shift, err := t.startLocked(ctx, jobID)
	t.mu.Unlock()

	if ended != nil {
		t.shiftEnded(ctx, *ended)
	}
	return shift, err
}

func (t *Tracker) startLocked(ctx context.Context, jobID earnings.JobID) (*earnings.Shift, earnings.Shift, error) {
	job, err := t.store.GetJob(ctx, jobID)
	if err != nil {
		if earnings.IsNotFound(err) {
			return nil, earnings.Shift{}, &earnings.MissingReferenceError{Kind: "job", ID: string(jobID)}
		}
		return nil, earnings.Shift{}, fmt.Errorf("load job: %w", err)
	}

	var ended *earnings.Shift
	if t.isTracking() {
		s, err := t.endLocked(ctx)
		if err != nil {
			return nil, earnings.Shift{}, fmt.Errorf("end current shift: %w", err)
		}
		ended = &s
	}

	shift, err := earnings.NewActiveShift(job.ID, t.now())
	if err != nil {
		return ended, earnings.Shift{}, err
	}
	if err := t.store.SaveShift(ctx, shift); err != nil {
		return ended, earnings.Shift{}, fmt.Errorf("save shift: %w", err)
	}

	t.resume(shift, job)
	t.logger.InfoContext(ctx, "shift started", "shift_id", shift.ID, "job", job.Name)
	return ended, shift, nil
}

// EndTracking ends the current shift. Returns ErrNotTracking when idle.
func (t *Tracker) EndTracking(ctx context.Context) (earnings.Shift, error) {
	t.mu.Lock()
	if !t.isTracking() {
		t.mu.Unlock()
		return earnings.Shift{}, earnings.ErrNotTracking
	}
	shift, err := t.endLocked(ctx)
	t.mu.Unlock()

	if err != nil {
		return earnings.Shift{}, err
	}
	t.shiftEnded(ctx, shift)
	return shift, nil
}

// endLocked stops the tick, completes the shift and persists it. On a store
// failure the shift keeps running.
func (t *Tracker) endLocked(ctx context.Context) (earnings.Shift, error) {
	t.stopTick()

	t.readMu.RLock()
	shift := *t.current
	job := *t.job
	t.readMu.RUnlock()

	at := t.now()
	if at.Before(shift.StartTime) {
		at = shift.StartTime
	}
	if err := shift.End(at); err != nil {
		t.startTick(shift, job)
		return earnings.Shift{}, err
	}
	if err := t.store.SaveShift(ctx, shift); err != nil {
		t.startTick(*t.current, job)
		return earnings.Shift{}, fmt.Errorf("save shift: %w", err)
	}

	t.readMu.Lock()
	t.current, t.job, t.elapsed = nil, nil, 0
	t.readMu.Unlock()

	t.logger.InfoContext(ctx, "shift ended",
		"shift_id", shift.ID,
		"type", shift.ShiftType,
		"hours", t.calc.DurationHours(shift).StringFixed(2),
		"earnings", t.calc.TotalEarnings(shift, &job, nil).StringFixed(2),
	)
	return shift, nil
}

func (t *Tracker) shiftEnded(ctx context.Context, shift earnings.Shift) {
	if t.onEnded != nil {
		t.onEnded(ctx, shift)
	}
}

// Restore picks up the active shift left in the store by a previous run.
func (t *Tracker) Restore(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.isTracking() {
		return nil
	}

	active, err := t.store.ActiveShifts(ctx)
	if err != nil {
		return fmt.Errorf("load active shifts: %w", err)
	}
	if len(active) == 0 {
		return nil
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].StartTime.Before(active[j].StartTime)
	})

	// Older orphans end where the next one started.
	var errs []error
	newest := active[len(active)-1]
	for i, s := range active[:len(active)-1] {
		violation := &earnings.InvariantViolation{Reason: "more than one active shift"}
		t.logger.WarnContext(ctx, "force-ending orphaned shift", "shift_id", s.ID, "error", violation)
		if err := t.forceEnd(ctx, s, active[i+1].StartTime); err != nil {
			errs = append(errs, err)
		}
	}

	job, err := t.store.GetJob(ctx, newest.JobID)
	if err != nil {
		t.logger.WarnContext(ctx, "active shift has no job, ending it", "shift_id", newest.ID, "job_id", newest.JobID)
		if err := t.forceEnd(ctx, newest, t.now()); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	}

	t.resume(newest, job)
	t.logger.InfoContext(ctx, "resumed tracking", "shift_id", newest.ID, "job", job.Name, "started", newest.StartTime)
	return errors.Join(errs...)
}

func (t *Tracker) forceEnd(ctx context.Context, s earnings.Shift, at time.Time) error {
	at = at.In(t.loc)
	if at.Before(s.StartTime) {
		at = s.StartTime
	}
	if err := s.End(at); err != nil {
		return err
	}
	if err := t.store.SaveShift(ctx, s); err != nil {
		return fmt.Errorf("save shift %s: %w", s.ID, err)
	}
	return nil
}

// Close stops the tick without ending the shift. The shift stays active in
// the store and is picked up by Restore on the next start.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopTick()

	t.subsMu.Lock()
	t.closed = true
	for ch := range t.subs {
		delete(t.subs, ch)
		close(ch)
	}
	t.subsMu.Unlock()
}

// =============================================================================
// READOUT
// =============================================================================

func (t *Tracker) isTracking() bool {
	t.readMu.RLock()
	defer t.readMu.RUnlock()
	return t.current != nil
}

func (t *Tracker) State() State {
	if t.isTracking() {
		return StateTracking
	}
	return StateIdle
}

// Current returns a copy of the tracked shift.
func (t *Tracker) Current() (earnings.Shift, bool) {
	t.readMu.RLock()
	defer t.readMu.RUnlock()
	if t.current == nil {
		return earnings.Shift{}, false
	}
	return *t.current, true
}

// Elapsed returns the display readout as of the last tick.
func (t *Tracker) Elapsed() time.Duration {
	t.readMu.RLock()
	defer t.readMu.RUnlock()
	return t.elapsed
}

func (t *Tracker) Status() Status {
	t.readMu.RLock()
	defer t.readMu.RUnlock()

	st := Status{State: StateIdle, Earnings: decimal.Zero}
	if t.current == nil {
		return st
	}
	shift, job := *t.current, *t.job
	st.State = StateTracking
	st.Shift = &shift
	st.Job = &job
	st.Elapsed = t.elapsed
	st.Earnings = t.projected(shift, job, t.now())
	return st
}

// projected earns the shift as if it ended at now, classification included.
func (t *Tracker) projected(shift earnings.Shift, job earnings.Job, now time.Time) decimal.Decimal {
	if !shift.TypeLocked && now.After(shift.StartTime) {
		shift.ShiftType = earnings.Classify(shift.StartTime, now, t.loc)
	}
	return t.calc.TotalEarnings(shift, &job, nil)
}

// =============================================================================
// TICK
// =============================================================================

// resume sets the readout and starts the tick. Caller holds mu.
func (t *Tracker) resume(shift earnings.Shift, job earnings.Job) {
	shift.StartTime = shift.StartTime.In(t.loc)

	t.readMu.Lock()
	t.current = &shift
	t.job = &job
	t.elapsed = t.calc.Duration(shift)
	t.readMu.Unlock()

	t.startTick(shift, job)
}

func (t *Tracker) startTick(shift earnings.Shift, job earnings.Job) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.cancelTick, t.tickDone = cancel, done
	go t.runTick(ctx, shift, job, done)
}

// stopTick cancels the tick and waits for it to exit. Caller holds mu and
// must not hold readMu.
func (t *Tracker) stopTick() {
	if t.cancelTick == nil {
		return
	}
	t.cancelTick()
	<-t.tickDone
	t.cancelTick, t.tickDone = nil, nil
}

func (t *Tracker) runTick(ctx context.Context, shift earnings.Shift, job earnings.Job, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick(ctx, shift, job)
		}
	}
}

// tick recomputes the readout. It runs concurrently with reads only.
func (t *Tracker) tick(ctx context.Context, shift earnings.Shift, job earnings.Job) {
	now := t.now()

	t.readMu.Lock()
	if ctx.Err() != nil {
		t.readMu.Unlock()
		return
	}
	elapsed := t.calc.Duration(shift)
	t.elapsed = elapsed
	t.readMu.Unlock()

	t.publish(Tick{
		ShiftID:  shift.ID,
		JobID:    job.ID,
		Elapsed:  elapsed,
		Earnings: t.projected(shift, job, now),
		At:       now,
	})
}

// Subscribe returns a stream of ticks. Slow subscribers miss ticks rather
// than stall the tracker. Call the returned func to unsubscribe. After Close
// the stream is already closed.
func (t *Tracker) Subscribe(buffer int) (<-chan Tick, func()) {
	ch := make(chan Tick, buffer)

	t.subsMu.Lock()
	if t.closed {
		t.subsMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	t.subs[ch] = struct{}{}
	t.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.subsMu.Lock()
			if _, ok := t.subs[ch]; ok {
				delete(t.subs, ch)
				close(ch)
			}
			t.subsMu.Unlock()
		})
	}
}

func (t *Tracker) publish(tick Tick) {
	t.subsMu.Lock()
	defer t.subsMu.Unlock()
	for ch := range t.subs {
		select {
		case ch <- tick:
		default:
		}
	}
}
