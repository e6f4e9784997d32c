package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/wheelplan/projection-engine/metrics"
	"github.com/wheelplan/projection-engine/projection"
)

// =============================================================================
// SESSION HANDLERS
// =============================================================================
//
//   POST   /api/sessions                          open from PlanJSON body
//   GET    /api/sessions/{id}                     state
//   DELETE /api/sessions/{id}                     close
//   GET    /api/sessions/{id}/ledger              ledger + summary
//   PUT    /api/sessions/{id}/configuration       replace configuration
//   PUT    /api/sessions/{id}/returns/{day}       {"value": "1.5"}
//   DELETE /api/sessions/{id}/returns/{day}
//   PUT    /api/sessions/{id}/contributions/{day} {"value": "0"}
//   DELETE /api/sessions/{id}/contributions/{day}
//   DELETE /api/sessions/{id}/overrides            clear both kinds
//   POST   /api/sessions/{id}/undo
//   POST   /api/sessions/{id}/redo
//   POST   /api/sessions/{id}/save
//
// Every edit responds with the new SessionDTO.

// OpenSession starts a session from a PlanJSON body. The configuration
// does not need to be valid yet; the ledger endpoint reports what's wrong.
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	pj, ok := decodePlan(w, r)
	if !ok {
		return
	}
	cfg, ov, err := h.Factory.FromJSON(pj)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s := h.Sessions.Open(pj.ID, pj.Name, projection.Snapshot{Configuration: cfg, Overrides: ov})
	h.recordEvent(r.Context(), s, projection.EventSessionOpened, "from document")
	writeJSON(w, http.StatusCreated, h.sessionDTO(s))
}

// GetSession returns the current session state.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.sessionDTO(s))
}

// CloseSession discards a session and its history.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.Close(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.recordEvent(r.Context(), s, projection.EventSessionClosed, "")
	w.WriteHeader(http.StatusNoContent)
}

// GetSessionLedger projects the session's current state.
// Query: from, to (1-based inclusive day window for entries)
func (h *Handler) GetSessionLedger(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	start := time.Now()
	p, err := s.Project()
	if err != nil {
		if errors.Is(err, projection.ErrInvalidConfiguration) {
			metrics.ValidationFailures.Inc()
		}
		writeDomainError(w, err)
		return
	}
	observeProjection(p.Cached, start)

	resp, err := ledgerResponse(r, s.Snapshot().Configuration, p.Ledger)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid day window", err)
		return
	}
	resp.Cached = p.Cached
	resp.Key = p.Key
	writeJSON(w, http.StatusOK, resp)
}

// PutConfiguration replaces the configuration. Override maps in the body
// are ignored; overrides are edited per day.
func (h *Handler) PutConfiguration(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	pj, ok := decodePlan(w, r)
	if !ok {
		return
	}
	pj.CustomReturns, pj.CustomContributions = nil, nil

	cfg, _, err := h.Factory.FromJSON(pj)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.SetConfiguration(cfg)
	metrics.HistoryOps.WithLabelValues(metrics.OpPush).Inc()
	writeJSON(w, http.StatusOK, h.sessionDTO(s))
}

// PutReturn overrides one day's return percent.
func (h *Handler) PutReturn(w http.ResponseWriter, r *http.Request) {
	h.putOverride(w, r, func(s *OpenSession, day int, v decimal.Decimal) error {
		return s.SetCustomReturn(day, v)
	})
}

// DeleteReturn clears one day's return override.
func (h *Handler) DeleteReturn(w http.ResponseWriter, r *http.Request) {
	h.clearOverride(w, r, func(s *OpenSession, day int) { s.ClearCustomReturn(day) })
}

// PutContribution overrides one day's contribution. "0" skips a due day.
func (h *Handler) PutContribution(w http.ResponseWriter, r *http.Request) {
	h.putOverride(w, r, func(s *OpenSession, day int, v decimal.Decimal) error {
		return s.SetCustomContribution(day, v)
	})
}

// DeleteContribution clears one day's contribution override.
func (h *Handler) DeleteContribution(w http.ResponseWriter, r *http.Request) {
	h.clearOverride(w, r, func(s *OpenSession, day int) { s.ClearCustomContribution(day) })
}

// ClearOverrides removes every return and contribution override.
func (h *Handler) ClearOverrides(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	before, _ := s.HistoryDepth()
	s.Session.ClearOverrides()
	if after, _ := s.HistoryDepth(); after != before {
		metrics.HistoryOps.WithLabelValues(metrics.OpPush).Inc()
	}
	writeJSON(w, http.StatusOK, h.sessionDTO(s))
}

// Undo steps the session back one edit.
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, metrics.OpUndo, (*projection.Session).Undo)
}

// Redo re-applies the last undone edit.
func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, metrics.OpRedo, (*projection.Session).Redo)
}

// SaveSession persists the session's current state as a plan and clears
// its history. Invalid configurations are not saved.
func (h *Handler) SaveSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	// The body is optional.
	var req SaveSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	snap := s.Snapshot()
	if res := projection.Validate(snap.Configuration); !res.IsValid {
		metrics.ValidationFailures.Inc()
		writeDomainError(w, res.Err())
		return
	}

	planID, name := s.Plan()
	if req.PlanID != "" {
		planID = req.PlanID
	}
	if req.Name != "" {
		name = req.Name
	}

	rec, err := h.savePlan(r.Context(), planID, name, snap)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save plan", err)
		return
	}
	s.SetPlan(rec.ID, rec.Name)
	s.MarkSaved()
	h.recordEvent(r.Context(), s, projection.EventPlanSaved, fmt.Sprintf("version %d", rec.Version))

	dto, _ := recordToDTO(rec)
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*OpenSession, bool) {
	s, err := h.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) sessionDTO(s *OpenSession) SessionDTO {
	snap := s.Snapshot()
	planID, name := s.Plan()
	undo, redo := s.HistoryDepth()
	return SessionDTO{
		ID:         s.ID,
		PlanID:     planID,
		Name:       name,
		Plan:       h.planJSON(snap, planID, name),
		CanUndo:    undo > 0,
		CanRedo:    redo > 0,
		UndoDepth:  undo,
		RedoDepth:  redo,
		Validation: toValidationDTO(projection.Validate(snap.Configuration)),
	}
}

func (h *Handler) putOverride(w http.ResponseWriter, r *http.Request, set func(*OpenSession, int, decimal.Decimal) error) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	day, err := dayParam(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	v, err := decimal.NewFromString(req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "value must be a decimal string", err)
		return
	}

	if err := set(s, day, v); err != nil {
		writeDomainError(w, err)
		return
	}
	metrics.HistoryOps.WithLabelValues(metrics.OpPush).Inc()
	writeJSON(w, http.StatusOK, h.sessionDTO(s))
}

func (h *Handler) clearOverride(w http.ResponseWriter, r *http.Request, clear func(*OpenSession, int)) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	day, err := dayParam(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	before, _ := s.HistoryDepth()
	clear(s, day)
	if after, _ := s.HistoryDepth(); after != before {
		metrics.HistoryOps.WithLabelValues(metrics.OpPush).Inc()
	}
	writeJSON(w, http.StatusOK, h.sessionDTO(s))
}

func (h *Handler) step(w http.ResponseWriter, r *http.Request, op string, fn func(*projection.Session) (projection.Snapshot, error)) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if _, err := fn(s.Session); err != nil {
		writeDomainError(w, err)
		return
	}
	metrics.HistoryOps.WithLabelValues(op).Inc()
	writeJSON(w, http.StatusOK, h.sessionDTO(s))
}
