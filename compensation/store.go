package compensation

import (
	"context"
	"time"
)

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================
// The engine never persists anything. Everything it reads comes through
// these interfaces; compensation/store and store/sqlstore implement them.

// PersonStore returns the identity keys of a person.
type PersonStore interface {
	// GetPerson returns ErrPersonNotFound when id is unknown.
	GetPerson(ctx context.Context, id string) (*Person, error)
}

// PlanStore returns authored plans.
type PlanStore interface {
	// GetPlan returns ErrPlanNotFound when id is unknown.
	GetPlan(ctx context.Context, id string) (*Plan, error)
}

// AssignmentStore returns plan assignments for one scope level and key,
// in the order the resolver should consider them.
type AssignmentStore interface {
	AssignmentsFor(ctx context.Context, scope ScopeLevel, scopeID string) ([]Assignment, error)
}

// RecordQuery filters sold records. From and To are inclusive days.
type RecordQuery struct {
	PersonID string
	From     time.Time
	To       time.Time
	Statuses StatusFilter
}

// RecordStore returns sold records.
type RecordStore interface {
	SoldRecords(ctx context.Context, q RecordQuery) ([]SoldRecord, error)
}

// ActivityStore returns activity counts for a person and date range.
type ActivityStore interface {
	ActivityCounts(ctx context.Context, personID string, from, to time.Time) ([]ActivityCount, error)
}

// Store is the full persistence surface used by the API and CLI: every
// collaborator the Calculator reads plus the writes that feed them.
type Store interface {
	PersonStore
	PlanStore
	AssignmentStore
	RecordStore
	ActivityStore

	SavePerson(ctx context.Context, p Person) error
	ListPeople(ctx context.Context) ([]Person, error)
	SavePlan(ctx context.Context, p Plan) error
	ListPlans(ctx context.Context) ([]Plan, error)
	SaveAssignment(ctx context.Context, a Assignment) error
	AddRecords(ctx context.Context, records ...SoldRecord) error
	AddActivities(ctx context.Context, counts ...ActivityCount) error
}
