package achievements

import (
	"context"
	"fmt"
	"strings"
)

// Seed inserts catalog definitions into the store. An empty store receives
// the whole catalog; later runs add only definitions whose key (and name) is
// not present yet. Existing records are never modified, so progress and
// unlock timestamps survive every restart. Returns the number inserted.
func Seed(ctx context.Context, store Store, catalog []Definition) (int, error) {
	existing, err := store.ListAchievements(ctx)
	if err != nil {
		return 0, fmt.Errorf("list achievements: %w", err)
	}

	keys := make(map[string]bool, len(existing))
	names := make(map[string]bool, len(existing))
	for _, a := range existing {
		keys[a.Key] = true
		names[strings.ToLower(a.Name)] = true
	}

	inserted := 0
	for _, d := range catalog {
		if err := d.Validate(); err != nil {
			return inserted, err
		}
		name := strings.ToLower(d.Name)
		if keys[d.Key] || names[name] {
			continue
		}
		if err := store.SaveAchievement(ctx, d.New()); err != nil {
			return inserted, fmt.Errorf("save achievement %s: %w", d.Key, err)
		}
		keys[d.Key] = true
		names[name] = true
		inserted++
	}
	return inserted, nil
}
