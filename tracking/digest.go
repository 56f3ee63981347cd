package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/warp/shift-earnings/earnings"
	"github.com/warp/shift-earnings/notify"
)

// =============================================================================
// GOAL DIGEST - Scheduled earnings-vs-goals notification
// =============================================================================

// Digest reports the current day, week and month against the earnings goals
// on a cron schedule.
type Digest struct {
	Store    earnings.Store
	Notifier notify.Notifier
	Goals    earnings.Goals
	Clock    earnings.Clock
	Location *time.Location

	calc   *earnings.Calculator
	logger *slog.Logger
	cron   *cron.Cron
}

func NewDigest(store earnings.Store, notifier notify.Notifier, goals earnings.Goals, clock earnings.Clock, loc *time.Location, logger *slog.Logger) *Digest {
	if clock == nil {
		clock = earnings.SystemClock{}
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Digest{
		Store:    store,
		Notifier: notifier,
		Goals:    goals,
		Clock:    clock,
		Location: loc,
		calc:     earnings.NewCalculator(clock),
		logger:   logger.With("component", "digest"),
	}
}

// Start schedules the digest. spec is a five-field cron expression or a
// descriptor such as "@daily", read in the digest's location.
func (d *Digest) Start(spec string) error {
	if d.cron != nil {
		return nil
	}
	c := cron.New(cron.WithLocation(d.Location))
	if _, err := c.AddFunc(spec, func() {
		if err := d.RunNow(context.Background()); err != nil {
			d.logger.Error("sending digest", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid digest schedule %q: %w", spec, err)
	}
	d.cron = c
	c.Start()
	d.logger.Info("started", "schedule", spec)
	return nil
}

// Stop waits for a running digest to finish.
func (d *Digest) Stop() {
	if d.cron == nil {
		return
	}
	<-d.cron.Stop().Done()
	d.cron = nil
	d.logger.Info("stopped")
}

// RunNow sends one digest for the periods containing now.
func (d *Digest) RunNow(ctx context.Context) error {
	h, err := earnings.LoadHistory(ctx, d.Store)
	if err != nil {
		return err
	}
	now := d.Clock.Now().In(d.Location)
	progress := d.Goals.Progress(h, d.calc, now)
	if d.Notifier == nil {
		return nil
	}
	return d.Notifier.Notify(ctx, digestEvent(progress, now))
}

func digestEvent(progress []earnings.GoalProgress, now time.Time) notify.Event {
	ev := notify.Event{
		Type:  notify.EventGoalDigest,
		Title: "Earnings Update",
		At:    now,
		Data:  make(map[string]string, 3*len(progress)),
	}
	for _, p := range progress {
		key := string(p.Period.Type)
		ev.Data[key+"_earned"] = p.Earned.StringFixed(2)
		ev.Data[key+"_target"] = p.Target.StringFixed(2)
		ev.Data[key+"_reached"] = strconv.FormatBool(p.Reached)
	}
	if len(progress) > 0 {
		day := progress[0]
		ev.Message = fmt.Sprintf("Today: $%s of $%s (%s%%)",
			day.Earned.StringFixed(2), day.Target.StringFixed(2), day.Percent.StringFixed(0))
	}
	return ev
}
