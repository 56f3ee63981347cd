/*
monitor.go - Long-running shift reminder

PURPOSE:
  Periodically checks for active shifts that have been running longer than
  the reminder threshold (default 8 hours) and sends one
  shift_still_active notification per shift.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Reads active shifts from the store, never writes
  - Remembers which shifts were already reminded; the memory is pruned as
    shifts end, and lost on restart (one extra reminder at most)

USAGE:
  monitor := NewMonitor(store, notifier, clock, logger)
  monitor.Start()
  // ... later
  monitor.Stop()
*/
package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/shift-earnings/earnings"
	"github.com/warp/shift-earnings/notify"
)

type Monitor struct {
	Store         earnings.Store
	Notifier      notify.Notifier
	Clock         earnings.Clock
	Threshold     time.Duration
	CheckInterval time.Duration
	Enabled       bool

	logger   *slog.Logger
	remMu    sync.Mutex
	reminded map[earnings.ShiftID]bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewMonitor(store earnings.Store, notifier notify.Notifier, clock earnings.Clock, logger *slog.Logger) *Monitor {
	if clock == nil {
		clock = earnings.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}
	return &Monitor{
		Store:         store,
		Notifier:      notifier,
		Clock:         clock,
		Threshold:     8 * time.Hour,
		CheckInterval: time.Minute,
		Enabled:       true,
		logger:        logger.With("component", "monitor"),
		reminded:      make(map[earnings.ShiftID]bool),
	}
}

// Start begins the periodic check.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.Enabled {
		m.logger.Info("disabled, not starting")
		return
	}
	if m.ticker != nil {
		return
	}

	m.ticker = time.NewTicker(m.CheckInterval)
	m.stop = make(chan struct{})
	m.wg.Add(1)
	go m.run(m.ticker, m.stop)

	m.logger.Info("started", "interval", m.CheckInterval, "threshold", m.Threshold)
}

func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ticker != nil {
		m.ticker.Stop()
		close(m.stop)
		m.wg.Wait()
		m.ticker = nil
		m.logger.Info("stopped")
	}
}

func (m *Monitor) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer m.wg.Done()

	// Run immediately on start
	m.RunNow(context.Background())

	for {
		select {
		case <-ticker.C:
			m.RunNow(context.Background())
		case <-stop:
			return
		}
	}
}

// RunNow performs one check and returns how many reminders were sent.
func (m *Monitor) RunNow(ctx context.Context) int {
	active, err := m.Store.ActiveShifts(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "listing active shifts", "error", err)
		return 0
	}

	now := m.Clock.Now()
	sent := 0

	m.remMu.Lock()
	defer m.remMu.Unlock()

	still := make(map[earnings.ShiftID]bool, len(active))
	for _, s := range active {
		still[s.ID] = true
		if m.reminded[s.ID] || now.Sub(s.StartTime) < m.Threshold {
			continue
		}
		if err := m.remind(ctx, s, now); err != nil {
			m.logger.ErrorContext(ctx, "sending reminder", "shift_id", s.ID, "error", err)
			continue
		}
		m.reminded[s.ID] = true
		sent++
	}
	for id := range m.reminded {
		if !still[id] {
			delete(m.reminded, id)
		}
	}
	return sent
}

func (m *Monitor) remind(ctx context.Context, s earnings.Shift, now time.Time) error {
	jobName := string(s.JobID)
	if job, err := m.Store.GetJob(ctx, s.JobID); err == nil {
		jobName = job.Name
	}
	hours := earnings.Hours(now.Sub(s.StartTime)).StringFixed(1)
	if m.Notifier == nil {
		m.logger.WarnContext(ctx, "shift still active, no notifier", "shift_id", s.ID, "hours", hours)
		return nil
	}

	return m.Notifier.Notify(ctx, notify.Event{
		Type:    notify.EventShiftStillActive,
		Title:   "Shift Still Active",
		Message: fmt.Sprintf("Your %s shift has been running for %s hours. Don't forget to end it.", jobName, hours),
		At:      now,
		Data: map[string]string{
			"shiftId": string(s.ID),
			"jobId":   string(s.JobID),
			"hours":   hours,
		},
	})
}
