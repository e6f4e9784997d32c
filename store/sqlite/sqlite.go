/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists saved plans and the session event log so plans survive a
  restart. The engine itself never touches this package; the api layer
  hands it PlanRecords whose ConfigJSON is a factory.PlanJSON document.

INTERFACES IMPLEMENTED:
  projection.PlanStore: Saved plans (versioned upsert)
  projection.EventLog:  Append-only session events

KEY TABLES:
  plans:          One row per plan, version bumped on every save
  session_events: Append-only audit of open/save/close actions

INDEXES:
  - idx_plans_name: ListPlans ordering
  - idx_session_events_plan: Event lookups per plan

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of database/sql.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./wheelplan.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - projection/store.go: Interface definitions
  - projection/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/wheelplan/projection-engine/projection"
)

// Store implements PlanStore and EventLog using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ projection.PlanStore = (*Store)(nil)
	_ projection.EventLog  = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

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

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Saved plans
	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		currency TEXT NOT NULL,
		config_json TEXT NOT NULL,
		version INTEGER DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plans_name
		ON plans(name, id);

	-- Session events (append-only)
	CREATE TABLE IF NOT EXISTS session_events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		session_id TEXT NOT NULL,
		plan_id TEXT NOT NULL DEFAULT '',
		event_type TEXT NOT NULL,
		detail TEXT,
		at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_session_events_plan
		ON session_events(plan_id, seq);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PLAN STORE
// =============================================================================

// SavePlan upserts a plan. Inserts start at version 1; updates bump the
// version and keep created_at.
func (s *Store) SavePlan(ctx context.Context, plan projection.PlanRecord) (projection.PlanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO plans (id, name, currency, config_json, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			currency = excluded.currency,
			config_json = excluded.config_json,
			version = plans.version + 1,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, query,
		plan.ID, plan.Name, string(plan.Currency), plan.ConfigJSON, now, now,
	); err != nil {
		return projection.PlanRecord{}, fmt.Errorf("save plan %s: %w", plan.ID, err)
	}
	return s.getPlan(ctx, plan.ID)
}

// GetPlan retrieves a plan by ID.
func (s *Store) GetPlan(ctx context.Context, id string) (projection.PlanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getPlan(ctx, id)
}

func (s *Store) getPlan(ctx context.Context, id string) (projection.PlanRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, currency, config_json, version, created_at, updated_at FROM plans WHERE id = ?",
		id,
	)
	p, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return projection.PlanRecord{}, projection.ErrPlanNotFound
	}
	return p, err
}

// ListPlans returns all plans ordered by name, then ID.
func (s *Store) ListPlans(ctx context.Context) ([]projection.PlanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, currency, config_json, version, created_at, updated_at FROM plans ORDER BY name, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := []projection.PlanRecord{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// DeletePlan removes a plan. Its events are kept.
func (s *Store) DeletePlan(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM plans WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return projection.ErrPlanNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(row scanner) (projection.PlanRecord, error) {
	var p projection.PlanRecord
	var currency, createdAt, updatedAt string
	if err := row.Scan(&p.ID, &p.Name, &currency, &p.ConfigJSON, &p.Version, &createdAt, &updatedAt); err != nil {
		return projection.PlanRecord{}, err
	}
	p.Currency = projection.Currency(currency)
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return p, nil
}

// =============================================================================
// EVENT LOG
// =============================================================================

// AppendEvent records e. A missing ID or timestamp is filled in.
func (s *Store) AppendEvent(ctx context.Context, e projection.SessionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_events (id, session_id, plan_id, event_type, detail, at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.PlanID, string(e.Type), e.Detail, e.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// ListEvents returns events for planID in append order.
// An empty planID returns every event.
func (s *Store) ListEvents(ctx context.Context, planID string) ([]projection.SessionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, session_id, plan_id, event_type, detail, at FROM session_events"
	var args []any
	if planID != "" {
		query += " WHERE plan_id = ?"
		args = append(args, planID)
	}
	query += " ORDER BY seq"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []projection.SessionEvent
	for rows.Next() {
		var e projection.SessionEvent
		var eventType, at string
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.SessionID, &e.PlanID, &eventType, &detail, &at); err != nil {
			return nil, err
		}
		e.Type = projection.EventType(eventType)
		e.Detail = detail.String
		e.At, _ = time.Parse(time.RFC3339Nano, at)
		events = append(events, e)
	}
	return events, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"session_events", "plans"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
