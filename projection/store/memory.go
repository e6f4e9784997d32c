// Package store provides in-memory PlanStore and EventLog implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wheelplan/projection-engine/projection"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	plans  map[string]projection.PlanRecord
	events []projection.SessionEvent

	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		plans: make(map[string]projection.PlanRecord),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SavePlan upserts a plan, bumping Version on update.
func (m *Memory) SavePlan(_ context.Context, plan projection.PlanRecord) (projection.PlanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if existing, ok := m.plans[plan.ID]; ok {
		plan.Version = existing.Version + 1
		plan.CreatedAt = existing.CreatedAt
	} else {
		plan.Version = 1
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now
	m.plans[plan.ID] = plan
	return plan, nil
}

func (m *Memory) GetPlan(_ context.Context, id string) (projection.PlanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plans[id]
	if !ok {
		return projection.PlanRecord{}, projection.ErrPlanNotFound
	}
	return p, nil
}

// ListPlans returns plans ordered by name, then ID.
func (m *Memory) ListPlans(_ context.Context) ([]projection.PlanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]projection.PlanRecord, 0, len(m.plans))
	for _, p := range m.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) DeletePlan(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.plans[id]; !ok {
		return projection.ErrPlanNotFound
	}
	delete(m.plans, id)
	return nil
}

// =============================================================================
// EVENT LOG
// =============================================================================

func (m *Memory) AppendEvent(_ context.Context, e projection.SessionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = m.now()
	}
	m.events = append(m.events, e)
	return nil
}

// ListEvents returns events for planID in append order.
// An empty planID returns every event.
func (m *Memory) ListEvents(_ context.Context, planID string) ([]projection.SessionEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []projection.SessionEvent
	for _, e := range m.events {
		if planID == "" || e.PlanID == planID {
			out = append(out, e)
		}
	}
	return out, nil
}
