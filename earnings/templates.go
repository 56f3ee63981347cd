package earnings

import (
	"strings"
	"time"
)

// =============================================================================
// SHIFT TEMPLATES - Named presets for manual entry
// =============================================================================

// Template describes a recurring shift. Instantiating it creates a completed
// shift on a given day with the template's type locked in.
type Template struct {
	Name        string        `json:"name"`
	StartHour   int           `json:"startHour"`
	StartMinute int           `json:"startMinute"`
	Duration    time.Duration `json:"duration"`
	ShiftType   ShiftType     `json:"shiftType"`
	Notes       string        `json:"notes,omitempty"`
}

// DefaultTemplates ships with every installation.
var DefaultTemplates = []Template{
	{Name: "Morning Shift", StartHour: 9, Duration: 8 * time.Hour, ShiftType: ShiftRegular, Notes: "Standard 8-hour morning shift"},
	{Name: "Evening Shift", StartHour: 17, Duration: 8 * time.Hour, ShiftType: ShiftOvertime, Notes: "Evening shift with overtime"},
	{Name: "Weekend Shift", StartHour: 10, Duration: 8 * time.Hour, ShiftType: ShiftSpecialEvent, Notes: "Weekend special event shift"},
	{Name: "Flexible Hours", StartHour: 9, Duration: 4 * time.Hour, ShiftType: ShiftFlexible, Notes: "Flexible 4-hour shift"},
}

func (t Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if t.StartHour < 0 || t.StartHour > 23 {
		return &ValidationError{Field: "startHour", Reason: "must be between 0 and 23"}
	}
	if t.StartMinute < 0 || t.StartMinute > 59 {
		return &ValidationError{Field: "startMinute", Reason: "must be between 0 and 59"}
	}
	if t.Duration <= 0 {
		return &ValidationError{Field: "duration", Reason: "must be positive"}
	}
	if !t.ShiftType.Valid() {
		return &ValidationError{Field: "shiftType", Reason: "unknown shift type " + string(t.ShiftType)}
	}
	return nil
}

// Instantiate builds a completed shift starting on day (in day's location).
// Templates that cross midnight end on the following day.
func (t Template) Instantiate(jobID JobID, day time.Time) (Shift, error) {
	if err := t.Validate(); err != nil {
		return Shift{}, err
	}
	d := StartOfDay(day)
	start := time.Date(d.Year(), d.Month(), d.Day(), t.StartHour, t.StartMinute, 0, 0, d.Location())
	return NewManualShift(ManualShiftInput{
		JobID:     jobID,
		StartTime: start,
		EndTime:   start.Add(t.Duration),
		ShiftType: t.ShiftType,
		Notes:     t.Notes,
		Location:  d.Location(),
	})
}

// FindTemplate matches by name, ignoring case and surrounding space.
func FindTemplate(templates []Template, name string) (Template, bool) {
	name = strings.TrimSpace(name)
	for _, t := range templates {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Template{}, false
}
