// Package store provides an in-memory compensation.Store.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/nadeemz7/tracktowin-sub002/compensation"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	people      map[string]compensation.Person
	plans       map[string]compensation.Plan
	assignments map[scopeKey][]compensation.Assignment
	records     map[string][]compensation.SoldRecord
	activities  map[string][]compensation.ActivityCount
}

type scopeKey struct {
	Level   compensation.ScopeLevel
	ScopeID string
}

var _ compensation.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		people:      make(map[string]compensation.Person),
		plans:       make(map[string]compensation.Plan),
		assignments: make(map[scopeKey][]compensation.Assignment),
		records:     make(map[string][]compensation.SoldRecord),
		activities:  make(map[string][]compensation.ActivityCount),
	}
}

// =============================================================================
// PEOPLE
// =============================================================================

func (m *Memory) SavePerson(_ context.Context, p compensation.Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.people[p.ID] = p
	return nil
}

func (m *Memory) GetPerson(_ context.Context, id string) (*compensation.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.people[id]
	if !ok {
		return nil, eris.Wrapf(compensation.ErrPersonNotFound, "person %s", id)
	}
	return &p, nil
}

func (m *Memory) ListPeople(_ context.Context) ([]compensation.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]compensation.Person, 0, len(m.people))
	for _, p := range m.people {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// PLANS + ASSIGNMENTS
// =============================================================================

func (m *Memory) SavePlan(_ context.Context, p compensation.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[p.ID] = p
	return nil
}

func (m *Memory) GetPlan(_ context.Context, id string) (*compensation.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, eris.Wrapf(compensation.ErrPlanNotFound, "plan %s", id)
	}
	return &p, nil
}

func (m *Memory) ListPlans(_ context.Context) ([]compensation.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]compensation.Plan, 0, len(m.plans))
	for _, p := range m.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveAssignment stores a, replacing any assignment with the same ID. An ID
// saved under a new scope moves there. The embedded Plan is not kept; plans
// resolve through GetPlan.
func (m *Memory) SaveAssignment(_ context.Context, a compensation.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a.Plan = nil
	for k, list := range m.assignments {
		kept := list[:0]
		for _, existing := range list {
			if existing.ID != a.ID {
				kept = append(kept, existing)
			}
		}
		if len(kept) == 0 {
			delete(m.assignments, k)
			continue
		}
		m.assignments[k] = kept
	}

	k := scopeKey{Level: a.ScopeType, ScopeID: a.ScopeID}
	list := append(m.assignments[k], a)
	sortAssignments(list)
	m.assignments[k] = list
	return nil
}

// AssignmentsFor returns the assignments of one scope, most recent effective
// start first. Assignments without a start sort last.
func (m *Memory) AssignmentsFor(_ context.Context, level compensation.ScopeLevel, scopeID string) ([]compensation.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.assignments[scopeKey{Level: level, ScopeID: scopeID}]
	result := make([]compensation.Assignment, len(list))
	copy(result, list)
	return result, nil
}

func sortAssignments(list []compensation.Assignment) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].EffectiveStart, list[j].EffectiveStart
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return list[i].ID < list[j].ID
	})
}

// =============================================================================
// RECORDS + ACTIVITY
// =============================================================================

// AddRecords appends records. Empty IDs get a UUID.
func (m *Memory) AddRecords(_ context.Context, records ...compensation.SoldRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		m.records[r.PersonID] = append(m.records[r.PersonID], r)
	}
	return nil
}

// SoldRecords returns the person's records sold within [From, To] (whole
// days) with a status in q.Statuses, ordered by date sold.
func (m *Memory) SoldRecords(_ context.Context, q compensation.RecordQuery) ([]compensation.SoldRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []compensation.SoldRecord
	for _, r := range m.records[q.PersonID] {
		if !withinDays(r.DateSold, q.From, q.To) {
			continue
		}
		if len(q.Statuses) > 0 && !q.Statuses.Contains(r.Status) {
			continue
		}
		result = append(result, r)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].DateSold.Before(result[j].DateSold) })
	return result, nil
}

func (m *Memory) AddActivities(_ context.Context, counts ...compensation.ActivityCount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range counts {
		m.activities[c.PersonID] = append(m.activities[c.PersonID], c)
	}
	return nil
}

// ActivityCounts returns the person's activity rows dated within [from, to].
// Undated rows always count.
func (m *Memory) ActivityCounts(_ context.Context, personID string, from, to time.Time) ([]compensation.ActivityCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []compensation.ActivityCount
	for _, c := range m.activities[personID] {
		if c.Date.IsZero() || withinDays(c.Date, from, to) {
			result = append(result, c)
		}
	}
	return result, nil
}

func withinDays(t, from, to time.Time) bool {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(from) && !d.After(to)
}
