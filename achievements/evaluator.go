/*
evaluator.go - Progress and unlock rules

RULES (per locked achievement, every pass):
  metric   = Metrics.Value(achievement.metric)      full history, completed shifts
  reached  = max(stored progress, metric)
  reached >= maxProgress  -> unlock: progress = maxProgress, unlockedAt = now
  otherwise               -> progress = reached

  Unlocked achievements are skipped, so a second pass after an unlock
  changes nothing and emits nothing.

The evaluator never fails. Unknown metric kinds evaluate to zero and shifts
with a dangling job reference earn zero. Streaks are counted in Location.
*/
package achievements

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shift-earnings/earnings"
)

type Evaluator struct {
	Clock    earnings.Clock
	Calc     *earnings.Calculator
	Location *time.Location // nil reads each shift in its own location
}

func NewEvaluator(clock earnings.Clock, loc *time.Location) *Evaluator {
	if clock == nil {
		clock = earnings.SystemClock{}
	}
	return &Evaluator{Clock: clock, Calc: earnings.NewCalculator(clock), Location: loc}
}

// Result of one evaluation pass.
type Result struct {
	// Achievements is the full catalog after evaluation, in input order.
	Achievements []Achievement
	// Changed lists achievements whose progress or unlock state moved.
	Changed []Achievement
	// Unlocked lists achievements unlocked by this pass.
	Unlocked []Achievement
}

// Evaluate recomputes progress over the full history. The input slice is not
// modified.
func (e *Evaluator) Evaluate(h *earnings.History, catalog []Achievement) Result {
	metrics := ComputeMetrics(h, e.Calc, e.Location)
	now := e.Clock.Now()

	res := Result{Achievements: make([]Achievement, len(catalog))}
	for i, a := range catalog {
		if a.IsUnlocked {
			res.Achievements[i] = a
			continue
		}

		reached := decimal.Max(a.Progress, metrics.Value(a.Metric))
		if reached.GreaterThanOrEqual(a.MaxProgress) && a.MaxProgress.IsPositive() {
			if err := a.Unlock(reached, now); err != nil {
				// Left locked; the next pass retries.
				res.Achievements[i] = catalog[i]
				continue
			}
			res.Unlocked = append(res.Unlocked, a)
			res.Changed = append(res.Changed, a)
		} else if reached.GreaterThan(a.Progress) {
			a.Progress = reached
			res.Changed = append(res.Changed, a)
		}
		res.Achievements[i] = a
	}
	return res
}
