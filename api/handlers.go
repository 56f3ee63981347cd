/*
handlers.go - HTTP API handlers for the shift earnings tracker

PURPOSE:
  Exposes jobs, shifts, live tracking, achievements, reports and backups
  via REST. Handles HTTP request/response and JSON, and delegates to the
  earnings, tracking, achievements and backup packages.

ENDPOINTS:
  Jobs:
    GET    /api/jobs                   List jobs
    POST   /api/jobs                   Create job
    GET    /api/jobs/{id}              Job with bonuses and totals
    DELETE /api/jobs/{id}              Delete job, its shifts and bonuses
    POST   /api/jobs/{id}/bonuses      Create bonus template

  Shifts:
    GET    /api/shifts                 List shifts with earnings
    POST   /api/shifts                 Record a completed shift
    GET    /api/shifts/{id}            Shift with breakdown
    PATCH  /api/shifts/{id}            Corrective edit
    DELETE /api/shifts/{id}            Delete shift

  Tracker:
    GET    /api/tracker                State and live readout
    POST   /api/tracker/start          Start tracking a job
    POST   /api/tracker/end            End the current shift
    GET    /api/tracker/live           WebSocket tick stream (ws.go)

  Achievements:
    GET    /api/achievements           Catalog, progress and points
    POST   /api/achievements/evaluate  Re-evaluate now
    GET    /api/achievements/recent    Unseen unlocks
    POST   /api/achievements/recent/ack

  Reports:
    GET    /api/summary?period=        day, week, month or all
    GET    /api/goals                  Earnings goal progress
    GET    /api/templates              Shift presets
    POST   /api/templates/apply        Record a shift from a preset

  Backup:
    GET    /api/export/backup          JSON snapshot
    POST   /api/import/backup          Restore a snapshot
    GET    /api/export/shifts.csv      Completed shifts as CSV

ARCHITECTURE:
  Handler holds its collaborators; cmd/server constructs and injects them.
  Every write that can move achievement progress triggers a refresh.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, unknown references, wrong shift state
  - 404: Resource not found
  - 409: Invariant conflicts (e.g. restoring while tracking)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - ws.go: Live tracker stream
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shopspring/decimal"
	"github.com/warp/shift-earnings/achievements"
	"github.com/warp/shift-earnings/backup"
	"github.com/warp/shift-earnings/earnings"
	"github.com/warp/shift-earnings/factory"
	"github.com/warp/shift-earnings/tracking"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Deps are the collaborators a Handler needs.
type Deps struct {
	Store        earnings.TxStore
	Tracker      *tracking.Tracker
	Achievements *achievements.Service
	Backup       *backup.Service
	Goals        earnings.Goals
	Templates    []earnings.Template
	Clock        earnings.Clock
	Location     *time.Location
	Logger       *slog.Logger
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store        earnings.TxStore
	Tracker      *tracking.Tracker
	Achievements *achievements.Service
	Backup       *backup.Service
	Factory      *factory.CatalogFactory
	Goals        earnings.Goals
	Templates    []earnings.Template

	clock      earnings.Clock
	loc        *time.Location
	calc       *earnings.Calculator
	validate   *validator.Validate
	translator ut.Translator
	logger     *slog.Logger
}

// NewHandler wires the handler and registers English validation messages.
func NewHandler(d Deps) (*Handler, error) {
	if d.Clock == nil {
		d.Clock = earnings.SystemClock{}
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Templates == nil {
		d.Templates = earnings.DefaultTemplates
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("register translations: %w", err)
	}

	return &Handler{
		Store:        d.Store,
		Tracker:      d.Tracker,
		Achievements: d.Achievements,
		Backup:       d.Backup,
		Factory:      factory.NewCatalogFactory(),
		Goals:        d.Goals,
		Templates:    d.Templates,
		clock:        d.Clock,
		loc:          d.Location,
		calc:         earnings.NewCalculator(d.Clock),
		validate:     validate,
		translator:   trans,
		logger:       d.Logger.With("component", "api"),
	}, nil
}

// jsonFieldName makes validation messages use the JSON field names.
func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

func (h *Handler) now() time.Time { return h.clock.Now().In(h.loc) }

func (h *Handler) history(ctx context.Context) (*earnings.History, error) {
	return earnings.LoadHistory(ctx, h.Store)
}

// refreshAchievements runs after writes that can move progress. Failures are
// logged; the write itself already succeeded.
func (h *Handler) refreshAchievements(ctx context.Context) {
	if h.Achievements == nil {
		return
	}
	if _, err := h.Achievements.Refresh(ctx); err != nil {
		h.logger.ErrorContext(ctx, "achievement refresh failed", "error", err)
	}
}

// =============================================================================
// JOB HANDLERS
// =============================================================================

// ListJobs returns all jobs.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.Store.ListJobs(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list jobs", err)
		return
	}
	if jobs == nil {
		jobs = []earnings.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

// CreateJob creates a job.
// POST /api/jobs
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if !h.decode(w, r, &req) {
		return
	}

	job, err := earnings.NewJob(req.Name, req.HourlyRate, h.now())
	if err != nil {
		h.writeDomainError(w, r, "Invalid job", err)
		return
	}
	if err := h.Store.SaveJob(r.Context(), job); err != nil {
		h.writeDomainError(w, r, "Failed to create job", err)
		return
	}
	h.refreshAchievements(r.Context())

	writeJSON(w, http.StatusCreated, job)
}

// GetJob returns a job with its bonus templates and totals.
// GET /api/jobs/{id}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := earnings.JobID(chi.URLParam(r, "id"))

	job, err := h.Store.GetJob(ctx, id)
	if err != nil {
		h.writeDomainError(w, r, "Job not found", err)
		return
	}
	hist, err := h.history(ctx)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load history", err)
		return
	}

	dto := JobDTO{Job: job, Bonuses: []earnings.Bonus{}, Hours: decimal.Zero, Earnings: decimal.Zero}
	for _, b := range hist.Bonuses {
		if b.JobID == id {
			dto.Bonuses = append(dto.Bonuses, b)
		}
	}
	for _, s := range hist.ShiftsForJob(id) {
		if !s.IsCompleted() {
			continue
		}
		b := h.calc.ShiftEarnings(hist, s)
		dto.ShiftCount++
		dto.Hours = dto.Hours.Add(b.Hours)
		dto.Earnings = dto.Earnings.Add(b.Total())
	}

	writeJSON(w, http.StatusOK, dto)
}

// DeleteJob removes a job with its shifts and bonuses. A shift being tracked
// for the job is ended first.
// DELETE /api/jobs/{id}
func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := earnings.JobID(chi.URLParam(r, "id"))

	if _, err := h.Store.GetJob(ctx, id); err != nil {
		h.writeDomainError(w, r, "Job not found", err)
		return
	}
	if cur, ok := h.Tracker.Current(); ok && cur.JobID == id {
		if _, err := h.Tracker.EndTracking(ctx); err != nil && !errors.Is(err, earnings.ErrNotTracking) {
			h.writeDomainError(w, r, "Failed to end current shift", err)
			return
		}
	}
	if err := h.Store.DeleteJob(ctx, id); err != nil {
		h.writeDomainError(w, r, "Failed to delete job", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateBonus adds a bonus template to a job.
// POST /api/jobs/{id}/bonuses
func (h *Handler) CreateBonus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := earnings.JobID(chi.URLParam(r, "id"))

	var req CreateBonusRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := h.Store.GetJob(ctx, id); err != nil {
		h.writeDomainError(w, r, "Job not found", err)
		return
	}

	bonus, err := earnings.NewBonus(id, req.Name, req.Amount, h.now())
	if err != nil {
		h.writeDomainError(w, r, "Invalid bonus", err)
		return
	}
	if err := h.Store.SaveBonus(ctx, bonus); err != nil {
		h.writeDomainError(w, r, "Failed to create bonus", err)
		return
	}

	writeJSON(w, http.StatusCreated, bonus)
}

// =============================================================================
// SHIFT HANDLERS
// =============================================================================

// ListShifts returns shifts with their earnings, oldest first.
// GET /api/shifts?jobId=&from=&to=
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := earnings.ShiftFilter{JobID: earnings.JobID(q.Get("jobId"))}
	var err error
	if filter.From, err = h.parseDateParam(q.Get("from")); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from (use YYYY-MM-DD or RFC3339)", err)
		return
	}
	if filter.To, err = h.parseDateParam(q.Get("to")); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to (use YYYY-MM-DD or RFC3339)", err)
		return
	}

	hist, err := h.history(ctx)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load history", err)
		return
	}

	dtos := make([]ShiftDTO, 0, len(hist.Shifts))
	for _, s := range hist.Shifts {
		if filter.Match(s) {
			dtos = append(dtos, h.toShiftDTO(hist, s))
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateShift records a completed shift entered after the fact.
// POST /api/shifts
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateShiftRequest
	if !h.decode(w, r, &req) {
		return
	}

	// Classified in local time whatever offset the client sent.
	in := earnings.ManualShiftInput{
		JobID:       earnings.JobID(req.JobID),
		StartTime:   req.StartTime.In(h.loc),
		EndTime:     req.EndTime.In(h.loc),
		Notes:       req.Notes,
		BonusAmount: decimal.Zero,
		Location:    h.loc,
	}
	if req.BonusAmount != nil {
		in.BonusAmount = *req.BonusAmount
	}
	if req.ShiftType != "" {
		st, err := earnings.ParseShiftType(req.ShiftType)
		if err != nil {
			h.writeDomainError(w, r, "Invalid shift type", err)
			return
		}
		in.ShiftType = st
	}
	for _, id := range req.BonusIDs {
		in.BonusIDs = append(in.BonusIDs, earnings.BonusID(id))
	}

	if err := h.checkReferences(ctx, in.JobID, in.BonusIDs); err != nil {
		h.writeDomainError(w, r, "Invalid shift", err)
		return
	}
	shift, err := earnings.NewManualShift(in)
	if err != nil {
		h.writeDomainError(w, r, "Invalid shift", err)
		return
	}
	h.saveAndRespond(w, r, shift, http.StatusCreated)
}

// GetShift returns a shift with its breakdown.
// GET /api/shifts/{id}
func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	shift, err := h.Store.GetShift(ctx, earnings.ShiftID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, r, "Shift not found", err)
		return
	}
	hist, err := h.history(ctx)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load history", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toShiftDTO(hist, shift))
}

// UpdateShift applies a corrective edit to a completed shift.
// PATCH /api/shifts/{id}
func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UpdateShiftRequest
	if !h.decode(w, r, &req) {
		return
	}
	shift, err := h.Store.GetShift(ctx, earnings.ShiftID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, r, "Shift not found", err)
		return
	}

	a := earnings.Amendment{Notes: req.Notes, BonusAmount: req.BonusAmount}
	if req.ShiftType != nil {
		st, err := earnings.ParseShiftType(*req.ShiftType)
		if err != nil {
			h.writeDomainError(w, r, "Invalid shift type", err)
			return
		}
		a.ShiftType = &st
	}
	if req.BonusIDs != nil {
		ids := make([]earnings.BonusID, 0, len(*req.BonusIDs))
		for _, id := range *req.BonusIDs {
			ids = append(ids, earnings.BonusID(id))
		}
		if err := h.checkReferences(ctx, shift.JobID, ids); err != nil {
			h.writeDomainError(w, r, "Invalid shift", err)
			return
		}
		a.BonusIDs = &ids
	}

	if err := shift.Amend(a); err != nil {
		h.writeDomainError(w, r, "Invalid edit", err)
		return
	}
	h.saveAndRespond(w, r, shift, http.StatusOK)
}

// DeleteShift removes a shift. The shift being tracked cannot be deleted.
// DELETE /api/shifts/{id}
func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := earnings.ShiftID(chi.URLParam(r, "id"))

	if cur, ok := h.Tracker.Current(); ok && cur.ID == id {
		writeError(w, http.StatusConflict, "Shift is being tracked; end it first", nil)
		return
	}
	if err := h.Store.DeleteShift(ctx, id); err != nil {
		h.writeDomainError(w, r, "Failed to delete shift", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) saveAndRespond(w http.ResponseWriter, r *http.Request, shift earnings.Shift, status int) {
	ctx := r.Context()
	if err := h.Store.SaveShift(ctx, shift); err != nil {
		h.writeDomainError(w, r, "Failed to save shift", err)
		return
	}
	h.refreshAchievements(ctx)

	hist, err := h.history(ctx)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load history", err)
		return
	}
	writeJSON(w, status, h.toShiftDTO(hist, shift))
}

// checkReferences requires the job to exist and every bonus to belong to it.
func (h *Handler) checkReferences(ctx context.Context, jobID earnings.JobID, bonusIDs []earnings.BonusID) error {
	if jobID == "" {
		return &earnings.ValidationError{Field: "jobId", Reason: "is required"}
	}
	if _, err := h.Store.GetJob(ctx, jobID); err != nil {
		if earnings.IsNotFound(err) {
			return &earnings.MissingReferenceError{Kind: "job", ID: string(jobID)}
		}
		return err
	}
	for _, id := range bonusIDs {
		b, err := h.Store.GetBonus(ctx, id)
		if err != nil {
			if earnings.IsNotFound(err) {
				return &earnings.MissingReferenceError{Kind: "bonus", ID: string(id)}
			}
			return err
		}
		if b.JobID != jobID {
			return &earnings.ValidationError{Field: "bonusIds", Reason: fmt.Sprintf("bonus %s belongs to another job", id)}
		}
	}
	return nil
}

func (h *Handler) toShiftDTO(hist *earnings.History, s earnings.Shift) ShiftDTO {
	b := h.calc.ShiftEarnings(hist, s)
	dto := ShiftDTO{Shift: s, Breakdown: b, Total: b.Total()}
	if job, ok := hist.Job(s.JobID); ok {
		dto.JobName = job.Name
	}
	return dto
}

// =============================================================================
// TRACKER HANDLERS
// =============================================================================

// GetTracker returns the tracker state and live readout.
// GET /api/tracker
func (h *Handler) GetTracker(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toTrackerDTO(h.Tracker.Status()))
}

// StartTracking starts a shift for the job, ending any current one first.
// POST /api/tracker/start
func (h *Handler) StartTracking(w http.ResponseWriter, r *http.Request) {
	var req StartTrackingRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := h.Tracker.StartTracking(r.Context(), earnings.JobID(req.JobID)); err != nil {
		h.writeDomainError(w, r, "Failed to start tracking", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTrackerDTO(h.Tracker.Status()))
}

// EndTracking ends the current shift and returns it priced.
// POST /api/tracker/end
func (h *Handler) EndTracking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	shift, err := h.Tracker.EndTracking(ctx)
	if err != nil {
		h.writeDomainError(w, r, "Failed to end tracking", err)
		return
	}
	hist, err := h.history(ctx)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load history", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toShiftDTO(hist, shift))
}

// =============================================================================
// ACHIEVEMENT HANDLERS
// =============================================================================

// ListAchievements returns the catalog with progress, points and rarity.
// GET /api/achievements
func (h *Handler) ListAchievements(w http.ResponseWriter, r *http.Request) {
	ov, err := h.Achievements.Overview(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list achievements", err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

// EvaluateAchievements re-evaluates every achievement now.
// POST /api/achievements/evaluate
func (h *Handler) EvaluateAchievements(w http.ResponseWriter, r *http.Request) {
	res, err := h.Achievements.Refresh(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to evaluate achievements", err)
		return
	}
	unlocked := res.Unlocked
	if unlocked == nil {
		unlocked = []achievements.Achievement{}
	}
	writeJSON(w, http.StatusOK, EvaluateResponse{Changed: len(res.Changed), Unlocked: unlocked})
}

// RecentAchievements returns unlocks the user has not acknowledged.
// GET /api/achievements/recent
func (h *Handler) RecentAchievements(w http.ResponseWriter, r *http.Request) {
	recent, err := h.Achievements.Recent(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to load recent achievements", err)
		return
	}
	if recent == nil {
		recent = []achievements.Achievement{}
	}
	writeJSON(w, http.StatusOK, recent)
}

// AcknowledgeAchievements clears the given unlocks, or all when ids is empty.
// POST /api/achievements/recent/ack
func (h *Handler) AcknowledgeAchievements(w http.ResponseWriter, r *http.Request) {
	var req AckRequest
	if !h.decode(w, r, &req) {
		return
	}
	ids := make([]achievements.ID, 0, len(req.IDs))
	for _, id := range req.IDs {
		ids = append(ids, achievements.ID(id))
	}
	if err := h.Achievements.Acknowledge(r.Context(), ids); err != nil {
		h.writeDomainError(w, r, "Failed to acknowledge achievements", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetSummary returns totals for the period containing now, with the
// previous period for comparison.
// GET /api/summary?period=day|week|month|all
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	pt, err := earnings.ParsePeriodType(r.URL.Query().Get("period"))
	if err != nil {
		h.writeDomainError(w, r, "Invalid period", err)
		return
	}
	hist, err := h.history(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to load history", err)
		return
	}

	p := earnings.PeriodFor(pt, h.now())
	resp := SummaryResponse{Current: earnings.Summarize(hist, h.calc, p)}
	if pt != earnings.PeriodAll {
		prev := earnings.Summarize(hist, h.calc, p.Previous())
		resp.Previous = &prev
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetGoals returns progress toward the daily, weekly and monthly goals.
// GET /api/goals
func (h *Handler) GetGoals(w http.ResponseWriter, r *http.Request) {
	hist, err := h.history(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to load history", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Goals.Progress(hist, h.calc, h.now()))
}

// ListTemplates returns the shift presets.
// GET /api/templates
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	dtos := make([]factory.TemplateJSON, 0, len(h.Templates))
	for _, t := range h.Templates {
		dtos = append(dtos, h.Factory.TemplateToJSON(t))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ApplyTemplate records a completed shift from a preset on the given date.
// POST /api/templates/apply
func (h *Handler) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	var req ApplyTemplateRequest
	if !h.decode(w, r, &req) {
		return
	}
	tmpl, ok := earnings.FindTemplate(h.Templates, req.Template)
	if !ok {
		writeError(w, http.StatusNotFound, "Template not found", nil)
		return
	}
	day, err := time.ParseInLocation(time.DateOnly, req.Date, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	jobID := earnings.JobID(req.JobID)
	if err := h.checkReferences(r.Context(), jobID, nil); err != nil {
		h.writeDomainError(w, r, "Invalid job", err)
		return
	}
	shift, err := tmpl.Instantiate(jobID, day)
	if err != nil {
		h.writeDomainError(w, r, "Invalid template", err)
		return
	}
	h.saveAndRespond(w, r, shift, http.StatusCreated)
}

// =============================================================================
// BACKUP HANDLERS
// =============================================================================

// ExportBackup streams a JSON snapshot as a download.
// GET /api/export/backup
func (h *Handler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Backup.Export(r.Context()).Wait()
	if err != nil {
		h.writeDomainError(w, r, "Failed to export backup", err)
		return
	}
	name := fmt.Sprintf("shift-earnings-%s.json", h.now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := backup.WriteJSON(w, snap); err != nil {
		h.logger.ErrorContext(r.Context(), "writing backup", "error", err)
	}
}

// ImportBackup replaces all data with a snapshot. Refused while tracking.
// POST /api/import/backup
func (h *Handler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Tracker.State() == tracking.StateTracking {
		writeError(w, http.StatusConflict, "End the current shift before restoring a backup", nil)
		return
	}

	snap, err := backup.ReadJSON(r.Body)
	if err != nil {
		h.writeDomainError(w, r, "Invalid backup file", err)
		return
	}
	res, err := h.Backup.Restore(ctx, snap).Wait()
	if err != nil {
		h.writeDomainError(w, r, "Failed to restore backup", err)
		return
	}

	if err := h.Tracker.Restore(ctx); err != nil {
		h.logger.WarnContext(ctx, "resuming tracker after restore", "error", err)
	}
	h.refreshAchievements(ctx)
	h.logger.InfoContext(ctx, "backup restored",
		"jobs", res.Jobs, "shifts", res.Shifts, "bonuses", res.Bonuses, "achievements", res.Achievements)

	writeJSON(w, http.StatusOK, res)
}

// ExportShiftsCSV writes completed shifts as CSV.
// GET /api/export/shifts.csv
func (h *Handler) ExportShiftsCSV(w http.ResponseWriter, r *http.Request) {
	hist, err := h.history(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to load history", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="shifts.csv"`)
	if err := backup.WriteShiftsCSV(w, hist, h.calc); err != nil {
		h.logger.ErrorContext(r.Context(), "writing csv", "error", err)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// decode reads and validates a JSON body. It writes the 400 itself and
// reports false when the request should stop.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err, h.translator), nil)
		return false
	}
	return true
}

// parseDateParam accepts YYYY-MM-DD (midnight, local) or RFC3339.
func (h *Handler) parseDateParam(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, h.loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// writeDomainError maps domain errors to HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case earnings.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, earnings.ErrInvariant):
		writeError(w, http.StatusConflict, message, err)
	case earnings.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.logger.ErrorContext(r.Context(), message, "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
