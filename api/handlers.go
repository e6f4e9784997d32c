/*
handlers.go - HTTP API handlers for the projection engine

PURPOSE:
  Exposes plans, editing sessions and stateless projections via REST.
  Handles HTTP request/response, JSON serialization, and delegates to
  the projection package.

ENDPOINTS:
  Plans:
    GET    /api/plans                  List saved plans
    POST   /api/plans                  Create or update a plan (PlanJSON)
    GET    /api/plans/{id}             Get plan
    DELETE /api/plans/{id}             Delete plan
    POST   /api/plans/{id}/sessions    Open a session on a saved plan
    GET    /api/plans/{id}/events      Session audit log for a plan

  Sessions: see session_handlers.go

  Stateless:
    POST   /api/validate               Validate a PlanJSON
    POST   /api/project                Ledger + summary for a PlanJSON
    POST   /api/schedule               Contribution due days

  Presets: see presets.go

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Plans:    saved plan persistence (sqlite in production)
  - Events:   session audit log (optional)
  - Factory:  PlanJSON <-> engine inputs
  - Sessions: open editing sessions and their shared cache

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, bad day, negative contribution
  - 404: Plan or session not found
  - 409: Nothing to undo/redo
  - 422: Configuration fails validation (errors listed)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - session_handlers.go: Editing session endpoints
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wheelplan/projection-engine/factory"
	"github.com/wheelplan/projection-engine/metrics"
	"github.com/wheelplan/projection-engine/projection"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Plans    projection.PlanStore
	Events   projection.EventLog
	Factory  *factory.PlanFactory
	Sessions *SessionRegistry

	// Today is the clock used for preset start dates and schedules.
	Today func() projection.Date
}

// NewHandler creates a new handler. events may be nil.
func NewHandler(plans projection.PlanStore, events projection.EventLog, sessions *SessionRegistry) *Handler {
	return &Handler{
		Plans:    plans,
		Events:   events,
		Factory:  factory.NewPlanFactory(),
		Sessions: sessions,
		Today:    projection.Today,
	}
}

// =============================================================================
// PLAN HANDLERS
// =============================================================================

// ListPlans returns all saved plans.
// GET /api/plans
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	records, err := h.Plans.ListPlans(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list plans", err)
		return
	}

	dtos := make([]PlanDTO, 0, len(records))
	for _, rec := range records {
		dto, err := recordToDTO(rec)
		if err != nil {
			log.Printf("[Plans] Skipping unreadable plan %s: %v", rec.ID, err)
			continue
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePlan saves a PlanJSON. An existing ID is updated (version bump).
// POST /api/plans
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	pj, ok := decodePlan(w, r)
	if !ok {
		return
	}

	cfg, ov, err := h.Factory.FromJSON(pj)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if res := projection.Validate(cfg); !res.IsValid {
		metrics.ValidationFailures.Inc()
		writeDomainError(w, res.Err())
		return
	}

	rec, err := h.savePlan(r.Context(), pj.ID, pj.Name, projection.Snapshot{Configuration: cfg, Overrides: ov})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save plan", err)
		return
	}

	status := http.StatusCreated
	if rec.Version > 1 {
		status = http.StatusOK
	}
	dto, _ := recordToDTO(rec)
	writeJSON(w, status, dto)
}

// GetPlan returns one plan.
// GET /api/plans/{id}
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Plans.GetPlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dto, err := recordToDTO(rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Stored plan is unreadable", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// DeletePlan removes a plan. Open sessions on it keep working.
// DELETE /api/plans/{id}
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := h.Plans.DeletePlan(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OpenPlanSession starts an editing session on a saved plan.
// POST /api/plans/{id}/sessions
func (h *Handler) OpenPlanSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := h.Plans.GetPlan(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	snap, err := h.snapshotFromRecord(rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Stored plan is unreadable", err)
		return
	}

	s := h.Sessions.Open(rec.ID, rec.Name, snap)
	h.recordEvent(ctx, s, projection.EventSessionOpened, fmt.Sprintf("version %d", rec.Version))
	writeJSON(w, http.StatusCreated, h.sessionDTO(s))
}

// ListPlanEvents returns the session audit log of a plan, oldest first.
// Events outlive the plan, so a deleted plan still has its history.
// GET /api/plans/{id}/events
func (h *Handler) ListPlanEvents(w http.ResponseWriter, r *http.Request) {
	dtos := []EventDTO{}
	if h.Events == nil {
		writeJSON(w, http.StatusOK, dtos)
		return
	}

	events, err := h.Events.ListEvents(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	for _, e := range events {
		dtos = append(dtos, toEventDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// STATELESS HANDLERS
// =============================================================================

// ValidatePlan validates a PlanJSON without storing anything.
// Shape problems and rule violations are both reported as errors.
// POST /api/validate
func (h *Handler) ValidatePlan(w http.ResponseWriter, r *http.Request) {
	pj, ok := decodePlan(w, r)
	if !ok {
		return
	}

	cfg, _, err := h.Factory.FromJSON(pj)
	if err != nil {
		var verr *projection.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusOK, ValidationDTO{IsValid: false, Errors: verr.Violations})
			return
		}
		writeDomainError(w, err)
		return
	}

	res := projection.Validate(cfg)
	if !res.IsValid {
		metrics.ValidationFailures.Inc()
	}
	writeJSON(w, http.StatusOK, toValidationDTO(res))
}

// ProjectPlan returns the ledger for a PlanJSON.
// Query: from, to (1-based inclusive day window for entries)
// POST /api/project
func (h *Handler) ProjectPlan(w http.ResponseWriter, r *http.Request) {
	pj, ok := decodePlan(w, r)
	if !ok {
		return
	}

	cfg, ov, err := h.Factory.FromJSON(pj)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if res := projection.Validate(cfg); !res.IsValid {
		metrics.ValidationFailures.Inc()
		writeDomainError(w, res.Err())
		return
	}

	start := time.Now()
	ledger, hit, err := h.Sessions.Cache().GetOrProject(cfg, ov)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	observeProjection(hit, start)

	resp, err := ledgerResponse(r, cfg, ledger)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid day window", err)
		return
	}
	resp.Cached = hit
	resp.Key = projection.CacheKey(cfg, ov)
	writeJSON(w, http.StatusOK, resp)
}

// Schedule returns the contribution due days of a PlanJSON.
// POST /api/schedule
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	pj, ok := decodePlan(w, r)
	if !ok {
		return
	}

	cfg, _, err := h.Factory.FromJSON(pj)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if res := projection.Validate(cfg); !res.IsValid {
		writeDomainError(w, res.Err())
		return
	}

	due := projection.DueDates(cfg.ContributionPlan, cfg.TimeHorizonDays)
	dto := ScheduleDTO{DueDays: make([]DueDateDTO, len(due))}
	for i, d := range due {
		dto.DueDays[i] = DueDateDTO{Day: d.Day, Date: d.Date.String()}
	}
	if next, ok := projection.NextDueDate(cfg.ContributionPlan, cfg.TimeHorizonDays, h.Today()); ok {
		dto.Next = &DueDateDTO{Day: next.Day, Date: next.Date.String()}
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// HELPERS
// =============================================================================

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

// writeDomainError maps projection errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var verr *projection.ValidationError
	var cerr *projection.InvalidConfigurationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error: "Invalid configuration", Errors: verr.Violations,
		})
	case errors.As(err, &cerr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error: "Invalid configuration", Errors: cerr.Violations,
		})
	case errors.Is(err, projection.ErrNothingToUndo), errors.Is(err, projection.ErrNothingToRedo):
		writeError(w, http.StatusConflict, "History exhausted", err)
	case projection.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case projection.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func decodePlan(w http.ResponseWriter, r *http.Request) (factory.PlanJSON, bool) {
	var pj factory.PlanJSON
	if err := json.NewDecoder(r.Body).Decode(&pj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return factory.PlanJSON{}, false
	}
	return pj, true
}

func recordToDTO(rec projection.PlanRecord) (PlanDTO, error) {
	var pj factory.PlanJSON
	if err := json.Unmarshal([]byte(rec.ConfigJSON), &pj); err != nil {
		return PlanDTO{}, fmt.Errorf("plan %s: %w", rec.ID, err)
	}
	return toPlanDTO(rec, pj), nil
}

func (h *Handler) snapshotFromRecord(rec projection.PlanRecord) (projection.Snapshot, error) {
	cfg, ov, err := h.Factory.ParsePlan(rec.ConfigJSON)
	if err != nil {
		return projection.Snapshot{}, err
	}
	return projection.Snapshot{Configuration: cfg, Overrides: ov}, nil
}

func (h *Handler) planJSON(snap projection.Snapshot, id, name string) factory.PlanJSON {
	pj := h.Factory.ToJSON(snap.Configuration, snap.Overrides)
	pj.ID = id
	pj.Name = name
	return pj
}

// savePlan persists snap under id (new uuid if empty).
func (h *Handler) savePlan(ctx context.Context, id, name string, snap projection.Snapshot) (projection.PlanRecord, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if name == "" {
		name = "Untitled plan"
	}

	doc, err := h.planJSON(snap, id, name).Encode()
	if err != nil {
		return projection.PlanRecord{}, err
	}
	return h.Plans.SavePlan(ctx, projection.PlanRecord{
		ID:         id,
		Name:       name,
		Currency:   snap.Configuration.Currency,
		ConfigJSON: doc,
	})
}

func (h *Handler) recordEvent(ctx context.Context, s *OpenSession, typ projection.EventType, detail string) {
	if h.Events == nil {
		return
	}
	planID, _ := s.Plan()
	err := h.Events.AppendEvent(ctx, projection.SessionEvent{
		SessionID: s.ID,
		PlanID:    planID,
		Type:      typ,
		Detail:    detail,
	})
	if err != nil {
		log.Printf("[Sessions] Failed to record %s for %s: %v", typ, s.ID, err)
	}
}

func observeProjection(cached bool, start time.Time) {
	if cached {
		metrics.Projections.WithLabelValues(metrics.SourceCache).Inc()
		return
	}
	metrics.Projections.WithLabelValues(metrics.SourceEngine).Inc()
	metrics.ProjectionDuration.Observe(time.Since(start).Seconds())
}

// ledgerResponse renders ledger entries in the ?from=&to= window along
// with the full-horizon summary.
func ledgerResponse(r *http.Request, cfg projection.Configuration, ledger projection.Ledger) (LedgerResponse, error) {
	from, err := queryDay(r, "from", 1)
	if err != nil {
		return LedgerResponse{}, err
	}
	to, err := queryDay(r, "to", ledger.Len())
	if err != nil {
		return LedgerResponse{}, err
	}
	if to > ledger.Len() {
		to = ledger.Len()
	}

	entries := make([]LedgerEntryDTO, 0)
	for day := from; day <= to; day++ {
		e, _ := ledger.At(day)
		entries = append(entries, toLedgerEntryDTO(e))
	}

	return LedgerResponse{
		Entries: entries,
		Summary: toSummaryDTO(cfg, projection.Summarize(cfg, ledger)),
	}, nil
}

func queryDay(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a day number >= 1, got %q", key, raw)
	}
	return n, nil
}

func dayParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "day")
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("day %q is not a number: %w", raw, projection.ErrDayOutOfRange)
	}
	return n, nil
}
