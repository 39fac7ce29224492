/*
resolver.go - Plan resolution by assignment priority

PURPOSE:
  A plan can be assigned to a person directly, or inherited from the person's
  role, team or agency. Exactly one plan applies per person and period: the
  first usable assignment found walking the levels in priority order.

PRIORITY ORDERING:
  PERSON -> ROLE -> TEAM -> AGENCY

  An assignment is usable when:
  - it is active
  - its effective start is unset, or on or before the last day of the period
  - its plan has status ACTIVE

  Within a level, assignments are taken in the order the store returns them.

NO PLAN:
  A nil result is not an error. It means "no plan assigned" and produces a
  zero Breakdown with NoPlan set.

SEE ALSO:
  - store.go: AssignmentStore, PlanStore
  - calculator.go: Calls Resolver.Resolve before evaluating
*/
package compensation

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
)

// ScopeLevel is the organizational level an assignment targets.
type ScopeLevel string

const (
	LevelPerson ScopeLevel = "PERSON"
	LevelRole   ScopeLevel = "ROLE"
	LevelTeam   ScopeLevel = "TEAM"
	LevelAgency ScopeLevel = "AGENCY"
)

// ResolutionOrder is the fixed priority of assignment levels.
var ResolutionOrder = []ScopeLevel{LevelPerson, LevelRole, LevelTeam, LevelAgency}

// Valid reports whether l is a known level.
func (l ScopeLevel) Valid() bool {
	for _, known := range ResolutionOrder {
		if l == known {
			return true
		}
	}
	return false
}

// key returns the identity key for a level.
func (id Identity) key(level ScopeLevel) string {
	switch level {
	case LevelPerson:
		return id.PersonID
	case LevelRole:
		return id.RoleID
	case LevelTeam:
		return id.TeamID
	case LevelAgency:
		return id.AgencyID
	}
	return ""
}

// =============================================================================
// ASSIGNMENT
// =============================================================================

// Assignment links a plan to a scope level and key.
type Assignment struct {
	ID             string     `json:"id"`
	ScopeType      ScopeLevel `json:"scope_type"`
	ScopeID        string     `json:"scope_id"`
	PlanID         string     `json:"plan_id"`
	Active         bool       `json:"active"`
	EffectiveStart *time.Time `json:"effective_start,omitempty"` // nil = always

	// Plan is optional. When nil the Resolver loads it from its PlanStore.
	Plan *Plan `json:"-"`
}

// AppliesTo returns true if the assignment is active and has started by the
// end of the period.
func (a Assignment) AppliesTo(period Period) bool {
	if !a.Active {
		return false
	}
	return a.EffectiveStart == nil || !a.EffectiveStart.After(period.End)
}

// =============================================================================
// PURE RESOLUTION
// =============================================================================

// ResolvePlan walks the levels in priority order over pre-loaded assignments.
// Assignments must carry their Plan. Returns nil when nothing applies.
func ResolvePlan(identity Identity, period Period, lookup func(level ScopeLevel, scopeID string) []Assignment) *ResolvedPlan {
	for _, level := range ResolutionOrder {
		scopeID := identity.key(level)
		if scopeID == "" {
			continue
		}
		for _, a := range lookup(level, scopeID) {
			if !a.AppliesTo(period) || a.Plan == nil || a.Plan.Status != PlanActive {
				continue
			}
			return newResolvedPlan(a, *a.Plan, level)
		}
	}
	return nil
}

func newResolvedPlan(a Assignment, plan Plan, level ScopeLevel) *ResolvedPlan {
	return &ResolvedPlan{
		PlanID:         plan.ID,
		PlanName:       plan.Name,
		Version:        plan.CurrentVersion.Version,
		AssignmentID:   a.ID,
		Scope:          level,
		PlanDefinition: plan.CurrentVersion.Definition,
	}
}

// =============================================================================
// RESOLVER - Store-backed resolution
// =============================================================================

// Resolver resolves plans through the assignment and plan collaborators.
type Resolver struct {
	Assignments AssignmentStore
	Plans       PlanStore
}

// Resolve returns the plan that applies to identity in period, or nil.
// Assignments pointing at a missing plan are skipped.
func (r *Resolver) Resolve(ctx context.Context, identity Identity, period Period) (*ResolvedPlan, error) {
	for _, level := range ResolutionOrder {
		scopeID := identity.key(level)
		if scopeID == "" {
			continue
		}

		assignments, err := r.Assignments.AssignmentsFor(ctx, level, scopeID)
		if err != nil {
			return nil, eris.Wrapf(err, "compensation: load %s assignments", level)
		}

		for _, a := range assignments {
			if !a.AppliesTo(period) {
				continue
			}
			plan := a.Plan
			if plan == nil {
				plan, err = r.Plans.GetPlan(ctx, a.PlanID)
				if errors.Is(err, ErrPlanNotFound) {
					continue
				}
				if err != nil {
					return nil, eris.Wrapf(err, "compensation: load plan %s", a.PlanID)
				}
			}
			if plan.Status != PlanActive {
				continue
			}
			return newResolvedPlan(a, *plan, level), nil
		}
	}
	return nil, nil
}
