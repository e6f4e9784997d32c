/*
store.go - Persistence collaborator interfaces

PURPOSE:
  The engine never performs I/O. Plans cross the persistence boundary as
  plain records: the ConfigJSON payload is a factory.PlanJSON document
  (numbers as decimal strings, dates as YYYY-MM-DD, override maps keyed by
  day). Implementations decide where the bytes live.

IMPLEMENTATIONS:
  - projection/store/memory.go: In-memory for testing/dev
  - store/sqlite/sqlite.go: SQLite

SEE ALSO:
  - factory/plan.go: PlanJSON <-> Configuration + Overrides
*/
package projection

import (
	"context"
	"time"
)

// PlanRecord is a saved plan.
type PlanRecord struct {
	ID         string
	Name       string
	Currency   Currency
	ConfigJSON string
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PlanStore persists plans. Save is an upsert that bumps Version.
// GetPlan returns ErrPlanNotFound for unknown IDs.
type PlanStore interface {
	SavePlan(ctx context.Context, plan PlanRecord) (PlanRecord, error)
	GetPlan(ctx context.Context, id string) (PlanRecord, error)
	ListPlans(ctx context.Context) ([]PlanRecord, error)
	DeletePlan(ctx context.Context, id string) error
}

// =============================================================================
// SESSION EVENTS - Append-only audit of save/load actions
// =============================================================================

type EventType string

const (
	EventSessionOpened EventType = "session_opened"
	EventPlanSaved     EventType = "plan_saved"
	EventSessionClosed EventType = "session_closed"
)

// SessionEvent records who did what to which plan.
type SessionEvent struct {
	ID        string
	SessionID string
	PlanID    string
	Type      EventType
	Detail    string
	At        time.Time
}

// EventLog is append-only.
type EventLog interface {
	AppendEvent(ctx context.Context, e SessionEvent) error
	ListEvents(ctx context.Context, planID string) ([]SessionEvent, error)
}
