/*
Package sqlite provides a SQL-backed implementation of the storage interfaces.

PURPOSE:
  Implements earnings.TxStore and achievements.Store over sqlx. SQLite is the
  default; the same statements run on PostgreSQL through lib/pq, with
  placeholders rebound per driver.

INTERFACES IMPLEMENTED:
  earnings.Store:     Jobs, shifts, bonuses
  earnings.TxStore:   Atomic multi-record writes (import, restore)
  achievements.Store: Achievement progress and unlock state

KEY TABLES:
  jobs:          Job records
  shifts:        Work sessions; end_time is NULL while active
  bonuses:       Named flat amounts defined per job
  shift_bonuses: Ordered shift-to-bonus links
  achievements:  Seeded catalog with progress; seq keeps seeding order

ARENA CONTRACT:
  Same as the in-memory store:
  - Deleting a job deletes its shifts, bonuses and their links
  - Deleting a bonus detaches it from every shift
  Cascades are explicit statements rather than foreign keys so a shift can
  still reference a job that is gone (restored or imported data).

ENCODING:
  - Money is TEXT holding the decimal string, never REAL
  - Times are TEXT in a fixed-width UTC layout so text order is time order
  - Booleans are INTEGER 0/1

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite is limited to a single open
  connection, which also keeps ":memory:" databases on one connection.

USAGE:
  store, err := sqlite.New("./data/shifts.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  pg, err := sqlite.Open("postgres", "postgres://localhost/shifts?sslmode=disable")

MIGRATION:
  Schema is auto-migrated on Open().
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/shift-earnings/achievements"
	"github.com/warp/shift-earnings/earnings"
)

// Store implements all storage interfaces over a SQL database.
type Store struct {
	db *sqlx.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	return Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
}

// Open connects with any registered driver ("sqlite3" or "postgres") and
// migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		hourly_rate TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		job_id TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT,
		is_active INTEGER NOT NULL DEFAULT 0,
		shift_type TEXT NOT NULL,
		type_locked INTEGER NOT NULL DEFAULT 0,
		notes TEXT NOT NULL DEFAULT '',
		bonus_amount TEXT NOT NULL DEFAULT '0'
	);

	-- Period summaries and per-job listings (hot path)
	CREATE INDEX IF NOT EXISTS idx_shifts_job_start
		ON shifts(job_id, start_time);
	CREATE INDEX IF NOT EXISTS idx_shifts_start
		ON shifts(start_time);
	CREATE INDEX IF NOT EXISTS idx_shifts_active
		ON shifts(is_active);

	CREATE TABLE IF NOT EXISTS bonuses (
		id TEXT PRIMARY KEY,
		job_id TEXT NOT NULL,
		name TEXT NOT NULL,
		amount TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bonuses_job
		ON bonuses(job_id);

	CREATE TABLE IF NOT EXISTS shift_bonuses (
		shift_id TEXT NOT NULL,
		bonus_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (shift_id, bonus_id)
	);

	CREATE INDEX IF NOT EXISTS idx_shift_bonuses_bonus
		ON shift_bonuses(bonus_id);

	CREATE TABLE IF NOT EXISTS achievements (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		achievement_key TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		icon TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		points INTEGER NOT NULL,
		metric TEXT NOT NULL,
		max_progress TEXT NOT NULL,
		progress TEXT NOT NULL,
		is_unlocked INTEGER NOT NULL DEFAULT 0,
		unlocked_at TEXT
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// QUERIES - Shared by Store and txStore
// =============================================================================

// conn runs statements against either the database or an open transaction.
type conn struct {
	q sqlx.ExtContext
}

func (c conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.q.ExecContext(ctx, c.q.Rebind(query), args...)
}

// atomic runs fn inside a database transaction.
func (s *Store) atomic(ctx context.Context, fn func(c conn) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(conn{q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// --- jobs ---

type jobRow struct {
	ID         string          `db:"id"`
	Name       string          `db:"name"`
	HourlyRate decimal.Decimal `db:"hourly_rate"`
	CreatedAt  string          `db:"created_at"`
}

func (r jobRow) toJob() (earnings.Job, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return earnings.Job{}, err
	}
	return earnings.Job{ID: earnings.JobID(r.ID), Name: r.Name, HourlyRate: r.HourlyRate, CreatedAt: created}, nil
}

const jobColumns = `id, name, hourly_rate, created_at`

func (c conn) saveJob(ctx context.Context, job earnings.Job) error {
	_, err := c.exec(ctx, `
		INSERT INTO jobs (id, name, hourly_rate, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			hourly_rate = excluded.hourly_rate,
			created_at = excluded.created_at
	`, string(job.ID), job.Name, job.HourlyRate.String(), formatTime(job.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

func (c conn) getJob(ctx context.Context, id earnings.JobID) (earnings.Job, error) {
	var row jobRow
	err := sqlx.GetContext(ctx, c.q, &row, c.q.Rebind(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`), string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return earnings.Job{}, earnings.NotFound("job", string(id))
	}
	if err != nil {
		return earnings.Job{}, fmt.Errorf("failed to get job: %w", err)
	}
	return row.toJob()
}

func (c conn) listJobs(ctx context.Context) ([]earnings.Job, error) {
	var rows []jobRow
	if err := sqlx.SelectContext(ctx, c.q, &rows, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at ASC, id ASC`); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	out := make([]earnings.Job, 0, len(rows))
	for _, r := range rows {
		job, err := r.toJob()
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, nil
}

func (c conn) deleteJob(ctx context.Context, id earnings.JobID) error {
	res, err := c.exec(ctx, `DELETE FROM jobs WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return earnings.NotFound("job", string(id))
	}

	cascade := []string{
		`DELETE FROM shift_bonuses WHERE shift_id IN (SELECT id FROM shifts WHERE job_id = ?)`,
		`DELETE FROM shift_bonuses WHERE bonus_id IN (SELECT id FROM bonuses WHERE job_id = ?)`,
		`DELETE FROM shifts WHERE job_id = ?`,
		`DELETE FROM bonuses WHERE job_id = ?`,
	}
	for _, stmt := range cascade {
		if _, err := c.exec(ctx, stmt, string(id)); err != nil {
			return fmt.Errorf("failed to cascade job delete: %w", err)
		}
	}
	return nil
}

// --- shifts ---

type shiftRow struct {
	ID          string          `db:"id"`
	JobID       string          `db:"job_id"`
	StartTime   string          `db:"start_time"`
	EndTime     sql.NullString  `db:"end_time"`
	IsActive    int             `db:"is_active"`
	ShiftType   string          `db:"shift_type"`
	TypeLocked  int             `db:"type_locked"`
	Notes       string          `db:"notes"`
	BonusAmount decimal.Decimal `db:"bonus_amount"`
}

func (r shiftRow) toShift() (earnings.Shift, error) {
	start, err := parseTime(r.StartTime)
	if err != nil {
		return earnings.Shift{}, err
	}
	s := earnings.Shift{
		ID:          earnings.ShiftID(r.ID),
		JobID:       earnings.JobID(r.JobID),
		StartTime:   start,
		IsActive:    r.IsActive != 0,
		ShiftType:   earnings.ShiftType(r.ShiftType),
		TypeLocked:  r.TypeLocked != 0,
		Notes:       r.Notes,
		BonusAmount: r.BonusAmount,
	}
	if r.EndTime.Valid {
		end, err := parseTime(r.EndTime.String)
		if err != nil {
			return earnings.Shift{}, err
		}
		s.EndTime = &end
	}
	return s, nil
}

const shiftColumns = `id, job_id, start_time, end_time, is_active, shift_type, type_locked, notes, bonus_amount`

func (c conn) saveShift(ctx context.Context, s earnings.Shift) error {
	var end sql.NullString
	if s.EndTime != nil {
		end = sql.NullString{String: formatTime(*s.EndTime), Valid: true}
	}
	_, err := c.exec(ctx, `
		INSERT INTO shifts (`+shiftColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			job_id = excluded.job_id,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			is_active = excluded.is_active,
			shift_type = excluded.shift_type,
			type_locked = excluded.type_locked,
			notes = excluded.notes,
			bonus_amount = excluded.bonus_amount
	`,
		string(s.ID), string(s.JobID), formatTime(s.StartTime), end,
		boolInt(s.IsActive), string(s.ShiftType), boolInt(s.TypeLocked),
		s.Notes, s.BonusAmount.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save shift: %w", err)
	}

	if _, err := c.exec(ctx, `DELETE FROM shift_bonuses WHERE shift_id = ?`, string(s.ID)); err != nil {
		return fmt.Errorf("failed to reset shift bonuses: %w", err)
	}
	for i, bid := range s.BonusIDs {
		if _, err := c.exec(ctx,
			`INSERT INTO shift_bonuses (shift_id, bonus_id, position) VALUES (?, ?, ?)`,
			string(s.ID), string(bid), i,
		); err != nil {
			return fmt.Errorf("failed to link bonus %s: %w", bid, err)
		}
	}
	return nil
}

func (c conn) getShift(ctx context.Context, id earnings.ShiftID) (earnings.Shift, error) {
	shifts, err := c.queryShifts(ctx, ` WHERE id = ?`, string(id))
	if err != nil {
		return earnings.Shift{}, err
	}
	if len(shifts) == 0 {
		return earnings.Shift{}, earnings.NotFound("shift", string(id))
	}
	return shifts[0], nil
}

func (c conn) listShifts(ctx context.Context, f earnings.ShiftFilter) ([]earnings.Shift, error) {
	where := ` WHERE 1 = 1`
	var args []any
	if f.JobID != "" {
		where += ` AND job_id = ?`
		args = append(args, string(f.JobID))
	}
	if !f.From.IsZero() {
		where += ` AND start_time >= ?`
		args = append(args, formatTime(f.From))
	}
	if !f.To.IsZero() {
		where += ` AND start_time < ?`
		args = append(args, formatTime(f.To))
	}
	return c.queryShifts(ctx, where, args...)
}

func (c conn) queryShifts(ctx context.Context, where string, args ...any) ([]earnings.Shift, error) {
	var rows []shiftRow
	query := `SELECT ` + shiftColumns + ` FROM shifts` + where + ` ORDER BY start_time ASC, id ASC`
	if err := sqlx.SelectContext(ctx, c.q, &rows, c.q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	links, err := c.bonusLinks(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]earnings.Shift, 0, len(rows))
	for _, r := range rows {
		s, err := r.toShift()
		if err != nil {
			return nil, err
		}
		s.BonusIDs = links[r.ID]
		out = append(out, s)
	}
	return out, nil
}

// linkBatch stays well under SQLite's bound-parameter limit.
const linkBatch = 500

func (c conn) bonusLinks(ctx context.Context, shiftIDs []string) (map[string][]earnings.BonusID, error) {
	type link struct {
		ShiftID string `db:"shift_id"`
		BonusID string `db:"bonus_id"`
	}

	out := make(map[string][]earnings.BonusID)
	for start := 0; start < len(shiftIDs); start += linkBatch {
		end := min(start+linkBatch, len(shiftIDs))
		query, args, err := sqlx.In(
			`SELECT shift_id, bonus_id FROM shift_bonuses WHERE shift_id IN (?) ORDER BY shift_id, position`,
			shiftIDs[start:end],
		)
		if err != nil {
			return nil, fmt.Errorf("failed to build bonus link query: %w", err)
		}
		var links []link
		if err := sqlx.SelectContext(ctx, c.q, &links, c.q.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("failed to query bonus links: %w", err)
		}
		for _, l := range links {
			out[l.ShiftID] = append(out[l.ShiftID], earnings.BonusID(l.BonusID))
		}
	}
	return out, nil
}

func (c conn) deleteShift(ctx context.Context, id earnings.ShiftID) error {
	res, err := c.exec(ctx, `DELETE FROM shifts WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return earnings.NotFound("shift", string(id))
	}
	if _, err := c.exec(ctx, `DELETE FROM shift_bonuses WHERE shift_id = ?`, string(id)); err != nil {
		return fmt.Errorf("failed to delete shift bonuses: %w", err)
	}
	return nil
}

// --- bonuses ---

type bonusRow struct {
	ID        string          `db:"id"`
	JobID     string          `db:"job_id"`
	Name      string          `db:"name"`
	Amount    decimal.Decimal `db:"amount"`
	CreatedAt string          `db:"created_at"`
}

func (r bonusRow) toBonus() (earnings.Bonus, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return earnings.Bonus{}, err
	}
	return earnings.Bonus{
		ID:        earnings.BonusID(r.ID),
		JobID:     earnings.JobID(r.JobID),
		Name:      r.Name,
		Amount:    r.Amount,
		CreatedAt: created,
	}, nil
}

const bonusColumns = `id, job_id, name, amount, created_at`

func (c conn) saveBonus(ctx context.Context, b earnings.Bonus) error {
	_, err := c.exec(ctx, `
		INSERT INTO bonuses (`+bonusColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			job_id = excluded.job_id,
			name = excluded.name,
			amount = excluded.amount,
			created_at = excluded.created_at
	`, string(b.ID), string(b.JobID), b.Name, b.Amount.String(), formatTime(b.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save bonus: %w", err)
	}
	return nil
}

func (c conn) getBonus(ctx context.Context, id earnings.BonusID) (earnings.Bonus, error) {
	var row bonusRow
	err := sqlx.GetContext(ctx, c.q, &row, c.q.Rebind(`SELECT `+bonusColumns+` FROM bonuses WHERE id = ?`), string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return earnings.Bonus{}, earnings.NotFound("bonus", string(id))
	}
	if err != nil {
		return earnings.Bonus{}, fmt.Errorf("failed to get bonus: %w", err)
	}
	return row.toBonus()
}

func (c conn) listBonuses(ctx context.Context, jobID earnings.JobID) ([]earnings.Bonus, error) {
	query := `SELECT ` + bonusColumns + ` FROM bonuses`
	var args []any
	if jobID != "" {
		query += ` WHERE job_id = ?`
		args = append(args, string(jobID))
	}
	query += ` ORDER BY created_at ASC, id ASC`

	var rows []bonusRow
	if err := sqlx.SelectContext(ctx, c.q, &rows, c.q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list bonuses: %w", err)
	}
	var out []earnings.Bonus
	for _, r := range rows {
		b, err := r.toBonus()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (c conn) deleteBonus(ctx context.Context, id earnings.BonusID) error {
	res, err := c.exec(ctx, `DELETE FROM bonuses WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("failed to delete bonus: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return earnings.NotFound("bonus", string(id))
	}
	if _, err := c.exec(ctx, `DELETE FROM shift_bonuses WHERE bonus_id = ?`, string(id)); err != nil {
		return fmt.Errorf("failed to detach bonus: %w", err)
	}
	return nil
}

// --- achievements ---

type achievementRow struct {
	ID          string          `db:"id"`
	Key         string          `db:"achievement_key"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Icon        string          `db:"icon"`
	Category    string          `db:"category"`
	Points      int             `db:"points"`
	Metric      string          `db:"metric"`
	MaxProgress decimal.Decimal `db:"max_progress"`
	Progress    decimal.Decimal `db:"progress"`
	IsUnlocked  int             `db:"is_unlocked"`
	UnlockedAt  sql.NullString  `db:"unlocked_at"`
}

func (r achievementRow) toAchievement() (achievements.Achievement, error) {
	a := achievements.Achievement{
		ID:          achievements.ID(r.ID),
		Key:         r.Key,
		Name:        r.Name,
		Description: r.Description,
		Icon:        r.Icon,
		Category:    achievements.Category(r.Category),
		Points:      r.Points,
		Metric:      achievements.MetricKind(r.Metric),
		MaxProgress: r.MaxProgress,
		Progress:    r.Progress,
		IsUnlocked:  r.IsUnlocked != 0,
	}
	if r.UnlockedAt.Valid {
		at, err := parseTime(r.UnlockedAt.String)
		if err != nil {
			return achievements.Achievement{}, err
		}
		a.UnlockedAt = &at
	}
	return a, nil
}

const achievementColumns = `id, achievement_key, name, description, icon, category, points, metric,
	max_progress, progress, is_unlocked, unlocked_at`

func (c conn) saveAchievement(ctx context.Context, a achievements.Achievement) error {
	var unlockedAt sql.NullString
	if a.UnlockedAt != nil {
		unlockedAt = sql.NullString{String: formatTime(*a.UnlockedAt), Valid: true}
	}
	// seq is assigned on first insert and never changes.
	_, err := c.exec(ctx, `
		INSERT INTO achievements (seq, `+achievementColumns+`)
		VALUES ((SELECT COALESCE(MAX(seq), 0) + 1 FROM achievements), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			achievement_key = excluded.achievement_key,
			name = excluded.name,
			description = excluded.description,
			icon = excluded.icon,
			category = excluded.category,
			points = excluded.points,
			metric = excluded.metric,
			max_progress = excluded.max_progress,
			progress = excluded.progress,
			is_unlocked = excluded.is_unlocked,
			unlocked_at = excluded.unlocked_at
	`,
		string(a.ID), a.Key, a.Name, a.Description, a.Icon, string(a.Category), a.Points,
		string(a.Metric), a.MaxProgress.String(), a.Progress.String(), boolInt(a.IsUnlocked), unlockedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save achievement: %w", err)
	}
	return nil
}

func (c conn) listAchievements(ctx context.Context) ([]achievements.Achievement, error) {
	var rows []achievementRow
	if err := sqlx.SelectContext(ctx, c.q, &rows, `SELECT `+achievementColumns+` FROM achievements ORDER BY seq ASC`); err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	out := make([]achievements.Achievement, 0, len(rows))
	for _, r := range rows {
		a, err := r.toAchievement()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (c conn) getAchievement(ctx context.Context, id achievements.ID) (achievements.Achievement, error) {
	var row achievementRow
	err := sqlx.GetContext(ctx, c.q, &row, c.q.Rebind(`SELECT `+achievementColumns+` FROM achievements WHERE id = ?`), string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return achievements.Achievement{}, earnings.NotFound("achievement", string(id))
	}
	if err != nil {
		return achievements.Achievement{}, fmt.Errorf("failed to get achievement: %w", err)
	}
	return row.toAchievement()
}

// =============================================================================
// EARNINGS STORE (earnings.Store interface)
// =============================================================================

func (s *Store) conn() conn { return conn{q: s.db} }

func (s *Store) SaveJob(ctx context.Context, job earnings.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().saveJob(ctx, job)
}

func (s *Store) GetJob(ctx context.Context, id earnings.JobID) (earnings.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().getJob(ctx, id)
}

func (s *Store) ListJobs(ctx context.Context) ([]earnings.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().listJobs(ctx)
}

// DeleteJob removes the job with its shifts and bonuses atomically.
func (s *Store) DeleteJob(ctx context.Context, id earnings.JobID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.atomic(ctx, func(c conn) error { return c.deleteJob(ctx, id) })
}

// SaveShift upserts the shift row and replaces its bonus links atomically.
func (s *Store) SaveShift(ctx context.Context, shift earnings.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.atomic(ctx, func(c conn) error { return c.saveShift(ctx, shift) })
}

func (s *Store) GetShift(ctx context.Context, id earnings.ShiftID) (earnings.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().getShift(ctx, id)
}

func (s *Store) ListShifts(ctx context.Context, filter earnings.ShiftFilter) ([]earnings.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().listShifts(ctx, filter)
}

func (s *Store) ActiveShifts(ctx context.Context) ([]earnings.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().queryShifts(ctx, ` WHERE is_active = 1`)
}

func (s *Store) DeleteShift(ctx context.Context, id earnings.ShiftID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.atomic(ctx, func(c conn) error { return c.deleteShift(ctx, id) })
}

func (s *Store) SaveBonus(ctx context.Context, bonus earnings.Bonus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().saveBonus(ctx, bonus)
}

func (s *Store) GetBonus(ctx context.Context, id earnings.BonusID) (earnings.Bonus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().getBonus(ctx, id)
}

func (s *Store) ListBonuses(ctx context.Context, jobID earnings.JobID) ([]earnings.Bonus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().listBonuses(ctx, jobID)
}

// DeleteBonus removes the bonus and detaches it from every shift atomically.
func (s *Store) DeleteBonus(ctx context.Context, id earnings.BonusID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.atomic(ctx, func(c conn) error { return c.deleteBonus(ctx, id) })
}

// =============================================================================
// TRANSACTIONAL STORE (earnings.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store earnings.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.atomic(ctx, func(c conn) error { return fn(&txStore{c: c}) })
}

// txStore routes every call through the open transaction. It takes no lock;
// the parent holds it for the whole of WithTx.
type txStore struct {
	c conn
}

func (ts *txStore) SaveJob(ctx context.Context, job earnings.Job) error {
	return ts.c.saveJob(ctx, job)
}

func (ts *txStore) GetJob(ctx context.Context, id earnings.JobID) (earnings.Job, error) {
	return ts.c.getJob(ctx, id)
}

func (ts *txStore) ListJobs(ctx context.Context) ([]earnings.Job, error) {
	return ts.c.listJobs(ctx)
}

func (ts *txStore) DeleteJob(ctx context.Context, id earnings.JobID) error {
	return ts.c.deleteJob(ctx, id)
}

func (ts *txStore) SaveShift(ctx context.Context, shift earnings.Shift) error {
	return ts.c.saveShift(ctx, shift)
}

func (ts *txStore) GetShift(ctx context.Context, id earnings.ShiftID) (earnings.Shift, error) {
	return ts.c.getShift(ctx, id)
}

func (ts *txStore) ListShifts(ctx context.Context, filter earnings.ShiftFilter) ([]earnings.Shift, error) {
	return ts.c.listShifts(ctx, filter)
}

func (ts *txStore) ActiveShifts(ctx context.Context) ([]earnings.Shift, error) {
	return ts.c.queryShifts(ctx, ` WHERE is_active = 1`)
}

func (ts *txStore) DeleteShift(ctx context.Context, id earnings.ShiftID) error {
	return ts.c.deleteShift(ctx, id)
}

func (ts *txStore) SaveBonus(ctx context.Context, bonus earnings.Bonus) error {
	return ts.c.saveBonus(ctx, bonus)
}

func (ts *txStore) GetBonus(ctx context.Context, id earnings.BonusID) (earnings.Bonus, error) {
	return ts.c.getBonus(ctx, id)
}

func (ts *txStore) ListBonuses(ctx context.Context, jobID earnings.JobID) ([]earnings.Bonus, error) {
	return ts.c.listBonuses(ctx, jobID)
}

func (ts *txStore) DeleteBonus(ctx context.Context, id earnings.BonusID) error {
	return ts.c.deleteBonus(ctx, id)
}

// =============================================================================
// ACHIEVEMENT STORE (achievements.Store interface)
// =============================================================================

func (s *Store) ListAchievements(ctx context.Context) ([]achievements.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().listAchievements(ctx)
}

func (s *Store) GetAchievement(ctx context.Context, id achievements.ID) (achievements.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().getAchievement(ctx, id)
}

func (s *Store) SaveAchievement(ctx context.Context, a achievements.Achievement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().saveAchievement(ctx, a)
}

var (
	_ earnings.TxStore   = (*Store)(nil)
	_ earnings.Store     = (*txStore)(nil)
	_ achievements.Store = (*Store)(nil)
)

// =============================================================================
// HELPERS
// =============================================================================

// timeLayout is fixed width so lexical order matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
