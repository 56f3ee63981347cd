package earnings

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Reporting window for summaries and goals
// =============================================================================

// Period is a half-open window [Start, End). The "all" period has zero
// bounds and contains everything.
type Period struct {
	Type  PeriodType `json:"type"`
	Start time.Time  `json:"start,omitempty"`
	End   time.Time  `json:"end,omitempty"`
}

func (p Period) Contains(t time.Time) bool {
	if p.Type == PeriodAll {
		return true
	}
	return !t.Before(p.Start) && t.Before(p.End)
}

func (p Period) String() string {
	if p.Type == PeriodAll {
		return "all"
	}
	return fmt.Sprintf("%s [%s, %s)", p.Type, p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly))
}

// Previous returns the period of the same type immediately before this one.
func (p Period) Previous() Period {
	switch p.Type {
	case PeriodDay:
		return PeriodFor(PeriodDay, p.Start.AddDate(0, 0, -1))
	case PeriodWeek:
		return PeriodFor(PeriodWeek, p.Start.AddDate(0, 0, -7))
	case PeriodMonth:
		return PeriodFor(PeriodMonth, p.Start.AddDate(0, -1, 0))
	default:
		return p
	}
}

type PeriodType string

const (
	PeriodDay   PeriodType = "day"
	PeriodWeek  PeriodType = "week"  // Monday start
	PeriodMonth PeriodType = "month" // calendar month
	PeriodAll   PeriodType = "all"
)

func ParsePeriodType(s string) (PeriodType, error) {
	switch PeriodType(s) {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodAll:
		return PeriodType(s), nil
	case "":
		return PeriodAll, nil
	}
	return "", &ValidationError{Field: "period", Reason: "must be one of day, week, month, all"}
}

// PeriodFor returns the period of the given type that contains t, in t's
// location.
func PeriodFor(pt PeriodType, t time.Time) Period {
	switch pt {
	case PeriodDay:
		start := StartOfDay(t)
		return Period{Type: pt, Start: start, End: start.AddDate(0, 0, 1)}
	case PeriodWeek:
		start := StartOfWeek(t)
		return Period{Type: pt, Start: start, End: start.AddDate(0, 0, 7)}
	case PeriodMonth:
		start := StartOfMonth(t)
		return Period{Type: pt, Start: start, End: start.AddDate(0, 1, 0)}
	default:
		return Period{Type: PeriodAll}
	}
}
