/*
Package factory provides JSON to Go conversion for configurable content.

PURPOSE:
  Converts JSON achievement catalogs and shift template sets into
  achievements.Definition and earnings.Template values. Catalogs and presets
  can then change without a rebuild: the server loads them from files named
  in configuration and falls back to the shipped defaults.

JSON SCHEMA (catalog):
  {
    "achievements": [
      {
        "key": "first_shift",
        "name": "First Shift",
        "description": "Complete your first shift",
        "icon": "play.circle.fill",
        "category": "time_tracking",
        "points": 10,
        "metric": "shift_count",
        "target": "1"
      }
    ]
  }

JSON SCHEMA (templates):
  {
    "templates": [
      {
        "name": "Morning Shift",
        "start": "09:00",
        "duration": "8h",
        "shift_type": "Regular",
        "notes": "Standard 8-hour morning shift"
      }
    ]
  }

KEY FEATURES:
  - Validates every entry; the first bad entry fails the whole document
  - Rejects duplicate keys and names
  - Durations use Go syntax ("8h", "7h30m"); shift types accept display
    names or compact spellings ("special_event")

USAGE:
  f := factory.NewCatalogFactory()
  defs, err := f.ParseCatalog(jsonString)
  templates, err := f.ParseTemplates(jsonString)

SEE ALSO:
  - achievements/catalog.go: shipped catalog
  - earnings/templates.go: shipped templates
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shift-earnings/achievements"
	"github.com/warp/shift-earnings/earnings"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

type CatalogJSON struct {
	Achievements []AchievementJSON `json:"achievements"`
}

// AchievementJSON is one catalog entry. Target is a decimal string or number.
type AchievementJSON struct {
	Key         string          `json:"key"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Icon        string          `json:"icon,omitempty"`
	Category    string          `json:"category"`
	Points      int             `json:"points"`
	Metric      string          `json:"metric"`
	Target      decimal.Decimal `json:"target"`
}

type TemplatesJSON struct {
	Templates []TemplateJSON `json:"templates"`
}

type TemplateJSON struct {
	Name      string `json:"name"`
	Start     string `json:"start"`    // HH:MM
	Duration  string `json:"duration"` // Go duration, e.g. "8h"
	ShiftType string `json:"shift_type"`
	Notes     string `json:"notes,omitempty"`
}

// =============================================================================
// CATALOG FACTORY
// =============================================================================

// CatalogFactory converts JSON documents to catalog and template values.
type CatalogFactory struct{}

func NewCatalogFactory() *CatalogFactory {
	return &CatalogFactory{}
}

// ParseCatalog parses a JSON catalog document.
func (f *CatalogFactory) ParseCatalog(jsonStr string) ([]achievements.Definition, error) {
	var cj CatalogJSON
	if err := json.Unmarshal([]byte(jsonStr), &cj); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	return f.CatalogFromJSON(cj)
}

func (f *CatalogFactory) CatalogFromJSON(cj CatalogJSON) ([]achievements.Definition, error) {
	if len(cj.Achievements) == 0 {
		return nil, &earnings.ValidationError{Field: "achievements", Reason: "catalog is empty"}
	}

	keys := make(map[string]bool, len(cj.Achievements))
	names := make(map[string]bool, len(cj.Achievements))
	defs := make([]achievements.Definition, 0, len(cj.Achievements))
	for i, aj := range cj.Achievements {
		d := achievements.Definition{
			Key:         strings.TrimSpace(aj.Key),
			Name:        strings.TrimSpace(aj.Name),
			Description: aj.Description,
			Icon:        aj.Icon,
			Category:    parseCategory(aj.Category),
			Points:      aj.Points,
			Metric:      achievements.MetricKind(strings.ToLower(strings.TrimSpace(aj.Metric))),
			Target:      aj.Target,
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("achievement %d: %w", i, err)
		}
		name := strings.ToLower(d.Name)
		if keys[d.Key] {
			return nil, &earnings.ValidationError{Field: "key", Reason: "duplicate " + d.Key}
		}
		if names[name] {
			return nil, &earnings.ValidationError{Field: "name", Reason: "duplicate " + d.Name}
		}
		keys[d.Key], names[name] = true, true
		defs = append(defs, d)
	}
	return defs, nil
}

// CatalogToJSON converts definitions back to the document form.
func (f *CatalogFactory) CatalogToJSON(defs []achievements.Definition) CatalogJSON {
	cj := CatalogJSON{Achievements: make([]AchievementJSON, 0, len(defs))}
	for _, d := range defs {
		cj.Achievements = append(cj.Achievements, AchievementJSON{
			Key:         d.Key,
			Name:        d.Name,
			Description: d.Description,
			Icon:        d.Icon,
			Category:    string(d.Category),
			Points:      d.Points,
			Metric:      string(d.Metric),
			Target:      d.Target,
		})
	}
	return cj
}

// ParseTemplates parses a JSON template document.
func (f *CatalogFactory) ParseTemplates(jsonStr string) ([]earnings.Template, error) {
	var tj TemplatesJSON
	if err := json.Unmarshal([]byte(jsonStr), &tj); err != nil {
		return nil, fmt.Errorf("failed to parse templates JSON: %w", err)
	}
	return f.TemplatesFromJSON(tj)
}

func (f *CatalogFactory) TemplatesFromJSON(tj TemplatesJSON) ([]earnings.Template, error) {
	seen := make(map[string]bool, len(tj.Templates))
	out := make([]earnings.Template, 0, len(tj.Templates))
	for i, j := range tj.Templates {
		t, err := f.TemplateFromJSON(j)
		if err != nil {
			return nil, fmt.Errorf("template %d: %w", i, err)
		}
		name := strings.ToLower(t.Name)
		if seen[name] {
			return nil, &earnings.ValidationError{Field: "name", Reason: "duplicate " + t.Name}
		}
		seen[name] = true
		out = append(out, t)
	}
	return out, nil
}

func (f *CatalogFactory) TemplateFromJSON(j TemplateJSON) (earnings.Template, error) {
	hour, minute, err := parseClock(j.Start)
	if err != nil {
		return earnings.Template{}, err
	}
	d, err := time.ParseDuration(j.Duration)
	if err != nil {
		return earnings.Template{}, &earnings.ValidationError{Field: "duration", Reason: err.Error()}
	}
	st, err := earnings.ParseShiftType(j.ShiftType)
	if err != nil {
		return earnings.Template{}, err
	}
	t := earnings.Template{
		Name:        strings.TrimSpace(j.Name),
		StartHour:   hour,
		StartMinute: minute,
		Duration:    d,
		ShiftType:   st,
		Notes:       j.Notes,
	}
	if err := t.Validate(); err != nil {
		return earnings.Template{}, err
	}
	return t, nil
}

// TemplateToJSON is also the API representation of a template.
func (f *CatalogFactory) TemplateToJSON(t earnings.Template) TemplateJSON {
	return TemplateJSON{
		Name:      t.Name,
		Start:     fmt.Sprintf("%02d:%02d", t.StartHour, t.StartMinute),
		Duration:  t.Duration.String(),
		ShiftType: string(t.ShiftType),
		Notes:     t.Notes,
	}
}

// =============================================================================
// FILE LOADING
// =============================================================================

// LoadCatalog reads a catalog file, or returns the shipped catalog when path
// is empty.
func (f *CatalogFactory) LoadCatalog(path string) ([]achievements.Definition, error) {
	if path == "" {
		return achievements.DefaultCatalog, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return f.ParseCatalog(string(data))
}

// LoadTemplates reads a template file, or returns the shipped templates when
// path is empty.
func (f *CatalogFactory) LoadTemplates(path string) ([]earnings.Template, error) {
	if path == "" {
		return earnings.DefaultTemplates, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates: %w", err)
	}
	return f.ParseTemplates(string(data))
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseCategory(s string) achievements.Category {
	key := strings.ToLower(strings.NewReplacer(" ", "_", "-", "_").Replace(strings.TrimSpace(s)))
	switch key {
	case "time_tracking", "timetracking":
		return achievements.CategoryTimeTracking
	case "earnings":
		return achievements.CategoryEarnings
	case "consistency":
		return achievements.CategoryConsistency
	case "milestones":
		return achievements.CategoryMilestones
	default:
		return achievements.CategorySpecial
	}
}

func parseClock(s string) (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, &earnings.ValidationError{Field: "start", Reason: fmt.Sprintf("expected HH:MM, got %q", s)}
	}
	return t.Hour(), t.Minute(), nil
}
