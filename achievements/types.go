/*
Package achievements awards gamification goals from shift and job history.

PURPOSE:
  Every achievement carries a typed metric kind and a target. The Evaluator
  recomputes each metric over the full history on every pass and raises
  progress or unlocks; nothing is counted incrementally, so a skipped pass
  never loses progress.

KEY CONCEPTS:
  - Definition: static catalog entry (key, name, metric, target, points)
  - Achievement: a stored definition with its progress and unlock state
  - MetricKind: closed set of history aggregates an achievement can track
  - Rarity: derived from points

INVARIANTS:
  - isUnlocked implies progress == maxProgress and unlockedAt != nil
  - progress never decreases
  - unlock is terminal: unlocked achievements are not re-evaluated

SEE ALSO:
  - catalog.go: shipped definitions
  - evaluator.go: progress and unlock rules
  - service.go: load, evaluate, persist, notify
*/
package achievements

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/shift-earnings/earnings"
)

type ID string

func NewID() ID { return ID(uuid.NewString()) }

// =============================================================================
// CATEGORY & RARITY
// =============================================================================

type Category string

const (
	CategoryTimeTracking Category = "time_tracking"
	CategoryEarnings     Category = "earnings"
	CategoryConsistency  Category = "consistency"
	CategoryMilestones   Category = "milestones"
	CategorySpecial      Category = "special"
)

func (c Category) DisplayName() string {
	switch c {
	case CategoryTimeTracking:
		return "Time Tracking"
	case CategoryEarnings:
		return "Earnings"
	case CategoryConsistency:
		return "Consistency"
	case CategoryMilestones:
		return "Milestones"
	case CategorySpecial:
		return "Special"
	}
	return string(c)
}

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// RarityFor maps points to rarity: <=10 common, <=25 uncommon, <=50 rare,
// <=100 epic, above that legendary.
func RarityFor(points int) Rarity {
	switch {
	case points <= 10:
		return RarityCommon
	case points <= 25:
		return RarityUncommon
	case points <= 50:
		return RarityRare
	case points <= 100:
		return RarityEpic
	default:
		return RarityLegendary
	}
}

// =============================================================================
// METRIC KIND
// =============================================================================

type MetricKind string

const (
	MetricShiftCount         MetricKind = "shift_count"
	MetricCumulativeHours    MetricKind = "cumulative_hours"
	MetricCumulativeEarnings MetricKind = "cumulative_earnings"
	MetricOvertimeCount      MetricKind = "overtime_count"
	MetricBonusTotal         MetricKind = "bonus_total"
	MetricJobCount           MetricKind = "job_count"
	MetricConsecutiveDays    MetricKind = "consecutive_days"
	MetricConsecutiveWeeks   MetricKind = "consecutive_weeks"
	MetricConsecutiveMonths  MetricKind = "consecutive_months"
)

var MetricKinds = []MetricKind{
	MetricShiftCount, MetricCumulativeHours, MetricCumulativeEarnings,
	MetricOvertimeCount, MetricBonusTotal, MetricJobCount,
	MetricConsecutiveDays, MetricConsecutiveWeeks, MetricConsecutiveMonths,
}

func (k MetricKind) Valid() bool {
	for _, m := range MetricKinds {
		if m == k {
			return true
		}
	}
	return false
}

// =============================================================================
// DEFINITION - Catalog entry
// =============================================================================

type Definition struct {
	Key         string          `json:"key"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Icon        string          `json:"icon,omitempty"`
	Category    Category        `json:"category"`
	Points      int             `json:"points"`
	Metric      MetricKind      `json:"metric"`
	Target      decimal.Decimal `json:"target"`
}

func (d Definition) Validate() error {
	if strings.TrimSpace(d.Key) == "" {
		return &earnings.ValidationError{Field: "key", Reason: "must not be empty"}
	}
	if strings.TrimSpace(d.Name) == "" {
		return &earnings.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if d.Points <= 0 {
		return &earnings.ValidationError{Field: "points", Reason: fmt.Sprintf("%s: must be positive", d.Key)}
	}
	if !d.Metric.Valid() {
		return &earnings.ValidationError{Field: "metric", Reason: fmt.Sprintf("%s: unknown metric %q", d.Key, d.Metric)}
	}
	if !d.Target.IsPositive() {
		return &earnings.ValidationError{Field: "target", Reason: fmt.Sprintf("%s: must be positive", d.Key)}
	}
	return nil
}

// New creates a locked achievement with zero progress.
func (d Definition) New() Achievement {
	return Achievement{
		ID:          NewID(),
		Key:         d.Key,
		Name:        d.Name,
		Description: d.Description,
		Icon:        d.Icon,
		Category:    d.Category,
		Points:      d.Points,
		Metric:      d.Metric,
		MaxProgress: d.Target,
		Progress:    decimal.Zero,
	}
}

// =============================================================================
// ACHIEVEMENT
// =============================================================================

type Achievement struct {
	ID          ID              `json:"id"`
	Key         string          `json:"key"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Icon        string          `json:"icon,omitempty"`
	Category    Category        `json:"category"`
	Points      int             `json:"points"`
	Metric      MetricKind      `json:"metric"`
	MaxProgress decimal.Decimal `json:"maxProgress"`
	Progress    decimal.Decimal `json:"progress"`
	IsUnlocked  bool            `json:"isUnlocked"`
	UnlockedAt  *time.Time      `json:"unlockedAt"`
}

func (a Achievement) Rarity() Rarity { return RarityFor(a.Points) }

var hundred = decimal.NewFromInt(100)

// Percent is progress over target, 0..100.
func (a Achievement) Percent() decimal.Decimal {
	if !a.MaxProgress.IsPositive() {
		return decimal.Zero
	}
	return decimal.Min(a.Progress.Div(a.MaxProgress).Mul(hundred), hundred)
}

// Unlock completes the achievement. It fails with an InvariantViolation when
// the reached value is below target, and is a no-op when already unlocked.
func (a *Achievement) Unlock(reached decimal.Decimal, at time.Time) error {
	if a.IsUnlocked {
		return nil
	}
	if reached.LessThan(a.MaxProgress) {
		return &earnings.InvariantViolation{
			Reason: fmt.Sprintf("unlock %s at %s below target %s", a.Key, reached, a.MaxProgress),
		}
	}
	a.Progress = a.MaxProgress
	a.IsUnlocked = true
	a.UnlockedAt = &at
	return nil
}

// =============================================================================
// AGGREGATES
// =============================================================================

// TotalPoints sums points of unlocked achievements.
func TotalPoints(all []Achievement) int {
	total := 0
	for _, a := range all {
		if a.IsUnlocked {
			total += a.Points
		}
	}
	return total
}

func GroupByCategory(all []Achievement) map[Category][]Achievement {
	out := make(map[Category][]Achievement)
	for _, a := range all {
		out[a.Category] = append(out[a.Category], a)
	}
	return out
}

// RarityDistribution counts unlocked achievements per rarity.
func RarityDistribution(all []Achievement) map[Rarity]int {
	out := make(map[Rarity]int)
	for _, a := range all {
		if a.IsUnlocked {
			out[a.Rarity()]++
		}
	}
	return out
}
