package achievements

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/warp/shift-earnings/earnings"
	"github.com/warp/shift-earnings/notify"
)

// =============================================================================
// SERVICE - Load, evaluate, persist, announce
// =============================================================================

// Service owns achievement state. Refresh calls are serialized; the earnings
// data is only read.
type Service struct {
	shifts    earnings.Store
	store     Store
	inbox     Inbox
	notifier  notify.Notifier
	evaluator *Evaluator
	logger    *slog.Logger

	mu sync.Mutex
}

// NewService builds the service. loc is the local timezone streaks are
// counted in.
func NewService(shifts earnings.Store, store Store, inbox Inbox, notifier notify.Notifier, clock earnings.Clock, loc *time.Location, logger *slog.Logger) *Service {
	if inbox == nil {
		inbox = NewMemoryInbox()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		shifts:    shifts,
		store:     store,
		inbox:     inbox,
		notifier:  notifier,
		evaluator: NewEvaluator(clock, loc),
		logger:    logger.With("component", "achievements"),
	}
}

// Seed installs the catalog. Safe on every start.
func (s *Service) Seed(ctx context.Context, catalog []Definition) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := Seed(ctx, s.store, catalog)
	if err != nil {
		return n, err
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "catalog seeded", "inserted", n)
	}
	return n, nil
}

// Refresh evaluates every achievement against the full history and
// persists what changed. Unlocks are pushed to the inbox and the notifier;
// delivery failures are logged, not returned.
func (s *Service) Refresh(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := earnings.LoadHistory(ctx, s.shifts)
	if err != nil {
		return Result{}, err
	}
	catalog, err := s.store.ListAchievements(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list achievements: %w", err)
	}

	res := s.evaluator.Evaluate(h, catalog)
	for _, a := range res.Changed {
		if err := s.store.SaveAchievement(ctx, a); err != nil {
			return Result{}, fmt.Errorf("save achievement %s: %w", a.Key, err)
		}
	}
	if len(res.Unlocked) == 0 {
		return res, nil
	}

	if err := s.inbox.Push(ctx, res.Unlocked); err != nil {
		s.logger.ErrorContext(ctx, "pushing recent unlocks", "error", err)
	}
	for _, a := range res.Unlocked {
		s.logger.InfoContext(ctx, "achievement unlocked", "key", a.Key, "points", a.Points)
		if s.notifier == nil {
			continue
		}
		if err := s.notifier.Notify(ctx, unlockEvent(a)); err != nil {
			s.logger.ErrorContext(ctx, "notifying unlock", "key", a.Key, "error", err)
		}
	}
	return res, nil
}

// ShiftEnded adapts Refresh to the tracker's shift-ended hook.
func (s *Service) ShiftEnded(ctx context.Context, shift earnings.Shift) {
	if _, err := s.Refresh(ctx); err != nil {
		s.logger.ErrorContext(ctx, "refresh after shift end", "shift_id", shift.ID, "error", err)
	}
}

func unlockEvent(a Achievement) notify.Event {
	at := a.UnlockedAt
	ev := notify.Event{
		Type:    notify.EventAchievementUnlocked,
		Title:   "Achievement Unlocked!",
		Message: fmt.Sprintf("%s: %s", a.Name, a.Description),
		Data: map[string]string{
			"key":    a.Key,
			"points": strconv.Itoa(a.Points),
			"rarity": string(a.Rarity()),
		},
	}
	if at != nil {
		ev.At = *at
	}
	return ev
}

// =============================================================================
// QUERIES
// =============================================================================

type Overview struct {
	Achievements []Achievement    `json:"achievements"`
	TotalPoints  int              `json:"totalPoints"`
	Unlocked     int              `json:"unlocked"`
	Total        int              `json:"total"`
	Rarity       map[Rarity]int   `json:"rarity"`
	Categories   []CategoryCounts `json:"categories"`
}

type CategoryCounts struct {
	Category Category `json:"category"`
	Name     string   `json:"name"`
	Unlocked int      `json:"unlocked"`
	Total    int      `json:"total"`
}

func (s *Service) List(ctx context.Context) ([]Achievement, error) {
	return s.store.ListAchievements(ctx)
}

func (s *Service) Overview(ctx context.Context) (Overview, error) {
	all, err := s.store.ListAchievements(ctx)
	if err != nil {
		return Overview{}, err
	}
	ov := Overview{
		Achievements: all,
		TotalPoints:  TotalPoints(all),
		Total:        len(all),
		Rarity:       RarityDistribution(all),
	}
	for cat, items := range GroupByCategory(all) {
		cc := CategoryCounts{Category: cat, Name: cat.DisplayName(), Total: len(items)}
		for _, a := range items {
			if a.IsUnlocked {
				cc.Unlocked++
			}
		}
		ov.Unlocked += cc.Unlocked
		ov.Categories = append(ov.Categories, cc)
	}
	sort.Slice(ov.Categories, func(i, j int) bool { return ov.Categories[i].Category < ov.Categories[j].Category })
	return ov, nil
}

func (s *Service) Recent(ctx context.Context) ([]Achievement, error) {
	return s.inbox.Recent(ctx)
}

func (s *Service) Acknowledge(ctx context.Context, ids []ID) error {
	return s.inbox.Ack(ctx, ids)
}
