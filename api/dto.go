/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's model from the external API contract.

PRESENTATION ROUNDING:
  The engine keeps full precision. DTOs are the only place values are
  rounded: money to 2 decimal places, percentages to 4. The raw ledger is
  never rounded in place, so chaining across days stays exact.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Plans:    PlanDTO (wraps factory.PlanJSON)
  Sessions: SessionDTO, OverrideRequest, SaveSessionRequest
  Ledger:   LedgerEntryDTO, SummaryDTO, LedgerResponse
  Schedule: ScheduleDTO
  Presets:  PresetDTO, LoadPresetRequest

SEE ALSO:
  - handlers.go: Uses these types
  - factory/plan.go: PlanJSON type
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wheelplan/projection-engine/factory"
	"github.com/wheelplan/projection-engine/projection"
)

const (
	moneyPlaces   = 2
	percentPlaces = 4
)

func money(d decimal.Decimal) string   { return d.StringFixed(moneyPlaces) }
func percent(d decimal.Decimal) string { return d.StringFixed(percentPlaces) }

// =============================================================================
// PLANS
// =============================================================================

// PlanDTO represents a saved plan in API responses.
type PlanDTO struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Currency  string           `json:"currency"`
	Version   int              `json:"version"`
	Plan      factory.PlanJSON `json:"plan"`
	CreatedAt string           `json:"created_at,omitempty"`
	UpdatedAt string           `json:"updated_at,omitempty"`
}

// =============================================================================
// SESSIONS
// =============================================================================

// SessionDTO is the state of an editing session.
type SessionDTO struct {
	ID         string           `json:"id"`
	PlanID     string           `json:"plan_id,omitempty"`
	Name       string           `json:"name,omitempty"`
	Plan       factory.PlanJSON `json:"plan"`
	CanUndo    bool             `json:"can_undo"`
	CanRedo    bool             `json:"can_redo"`
	UndoDepth  int              `json:"undo_depth"`
	RedoDepth  int              `json:"redo_depth"`
	Validation ValidationDTO    `json:"validation"`
}

// OverrideRequest sets one day's override.
type OverrideRequest struct {
	Value string `json:"value"`
}

// SaveSessionRequest persists a session. Both fields are optional: the
// session's plan ID (or a new one) and name are used otherwise.
type SaveSessionRequest struct {
	PlanID string `json:"plan_id,omitempty"`
	Name   string `json:"name,omitempty"`
}

// ValidationDTO mirrors projection.ValidationResult.
type ValidationDTO struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// OpenSessionResponse is returned when loading a preset.
type OpenSessionResponse struct {
	Plan    PlanDTO    `json:"plan"`
	Session SessionDTO `json:"session"`
}

// =============================================================================
// LEDGER
// =============================================================================

// LedgerEntryDTO is one ledger row, rounded for display.
type LedgerEntryDTO struct {
	Day                       int    `json:"day"`
	Date                      string `json:"date,omitempty"`
	CapitalBeforeContribution string `json:"capital_before_contribution"`
	ContributionAmount        string `json:"contribution_amount"`
	IsCustomContribution      bool   `json:"is_custom_contribution"`
	CapitalAfterContribution  string `json:"capital_after_contribution"`
	DailyReturnPercent        string `json:"daily_return_percent"`
	IsCustomReturn            bool   `json:"is_custom_return"`
	InterestEarned            string `json:"interest_earned"`
	FinalCapital              string `json:"final_capital"`
	TotalContributedToDate    string `json:"total_contributed_to_date"`
}

// SummaryDTO is the rounded headline of a ledger.
type SummaryDTO struct {
	Days                   int    `json:"days"`
	Currency               string `json:"currency"`
	InitialCapital         string `json:"initial_capital"`
	FinalCapital           string `json:"final_capital"`
	TotalContributed       string `json:"total_contributed"`
	TotalInvested          string `json:"total_invested"`
	TotalInterest          string `json:"total_interest"`
	NetGain                string `json:"net_gain"`
	ROIPercent             string `json:"roi_percent"`
	MinFinalCapital        string `json:"min_final_capital"`
	MaxFinalCapital        string `json:"max_final_capital"`
	CustomReturnDays       int    `json:"custom_return_days"`
	CustomContributionDays int    `json:"custom_contribution_days"`
	ContributionDays       int    `json:"contribution_days"`
	RuinDay                int    `json:"ruin_day,omitempty"`
}

// LedgerResponse wraps a (possibly windowed) ledger with its summary.
// The summary always covers the full horizon.
type LedgerResponse struct {
	Entries []LedgerEntryDTO `json:"entries"`
	Summary SummaryDTO       `json:"summary"`
	Cached  bool             `json:"cached"`
	Key     string           `json:"key"`
}

// =============================================================================
// SCHEDULE
// =============================================================================

// DueDateDTO is one contribution due day.
type DueDateDTO struct {
	Day  int    `json:"day"`
	Date string `json:"date"`
}

// ScheduleDTO lists contribution due days for a plan.
type ScheduleDTO struct {
	DueDays []DueDateDTO `json:"due_days"`
	Next    *DueDateDTO  `json:"next,omitempty"`
}

// =============================================================================
// EVENTS
// =============================================================================

// EventDTO is one entry of a plan's session audit log.
type EventDTO struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	PlanID    string `json:"plan_id"`
	Type      string `json:"type"`
	Detail    string `json:"detail,omitempty"`
	At        string `json:"at"`
}

// =============================================================================
// PRESETS
// =============================================================================

// PresetDTO describes a ready-made plan.
type PresetDTO struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadPresetRequest saves a preset as a plan and opens a session on it.
type LoadPresetRequest struct {
	Preset    string `json:"preset"`
	StartDate string `json:"start_date,omitempty"` // default: today
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details string   `json:"details,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toPlanDTO(rec projection.PlanRecord, pj factory.PlanJSON) PlanDTO {
	dto := PlanDTO{
		ID:       rec.ID,
		Name:     rec.Name,
		Currency: string(rec.Currency),
		Version:  rec.Version,
		Plan:     pj,
	}
	if !rec.CreatedAt.IsZero() {
		dto.CreatedAt = rec.CreatedAt.Format(time.RFC3339)
	}
	if !rec.UpdatedAt.IsZero() {
		dto.UpdatedAt = rec.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

func toLedgerEntryDTO(e projection.LedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		Day:                       e.Day,
		Date:                      e.Date.String(),
		CapitalBeforeContribution: money(e.CapitalBeforeContribution),
		ContributionAmount:        money(e.ContributionAmount),
		IsCustomContribution:      e.IsCustomContribution,
		CapitalAfterContribution:  money(e.CapitalAfterContribution),
		DailyReturnPercent:        percent(e.DailyReturnPercent),
		IsCustomReturn:            e.IsCustomReturn,
		InterestEarned:            money(e.InterestEarned),
		FinalCapital:              money(e.FinalCapital),
		TotalContributedToDate:    money(e.TotalContributedToDate),
	}
}

func toSummaryDTO(cfg projection.Configuration, s projection.Summary) SummaryDTO {
	return SummaryDTO{
		Days:                   s.Days,
		Currency:               string(cfg.Currency),
		InitialCapital:         money(s.InitialCapital),
		FinalCapital:           money(s.FinalCapital),
		TotalContributed:       money(s.TotalContributed),
		TotalInvested:          money(s.TotalInvested),
		TotalInterest:          money(s.TotalInterest),
		NetGain:                money(s.NetGain),
		ROIPercent:             percent(s.ROIPercent),
		MinFinalCapital:        money(s.MinFinalCapital),
		MaxFinalCapital:        money(s.MaxFinalCapital),
		CustomReturnDays:       s.CustomReturnDays,
		CustomContributionDays: s.CustomContributionDays,
		ContributionDays:       s.ContributionDays,
		RuinDay:                s.RuinDay,
	}
}

func toEventDTO(e projection.SessionEvent) EventDTO {
	return EventDTO{
		ID:        e.ID,
		SessionID: e.SessionID,
		PlanID:    e.PlanID,
		Type:      string(e.Type),
		Detail:    e.Detail,
		At:        e.At.UTC().Format(time.RFC3339),
	}
}

func toValidationDTO(r projection.ValidationResult) ValidationDTO {
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	return ValidationDTO{IsValid: r.IsValid, Errors: errs}
}

// Present renders a whole ledger and its summary, rounded for display.
func Present(cfg projection.Configuration, ledger projection.Ledger) LedgerResponse {
	entries := make([]LedgerEntryDTO, 0, ledger.Len())
	for _, e := range ledger.Entries() {
		entries = append(entries, toLedgerEntryDTO(e))
	}
	return LedgerResponse{
		Entries: entries,
		Summary: toSummaryDTO(cfg, projection.Summarize(cfg, ledger)),
	}
}
