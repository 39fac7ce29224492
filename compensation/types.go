/*
Package compensation provides the compensation rule evaluation engine.

PURPOSE:
  Computes a person's periodic commission and bonus from sold-product
  records and activity counts, evaluated against the compensation plan
  assigned to that person. The engine is a pure function: given a resolved
  plan and the period's records it produces a payout Breakdown and never
  touches persisted state.

KEY CONCEPTS IN THIS FILE (types.go):
  - SoldRecord: One sold product (premium, category, status, seller)
  - ActivityCount: How many times a person performed an activity type
  - StatusFilter: Which policy statuses count toward the period
  - Identity: The keys used to resolve a plan (person, role, team, agency)

EVALUATION PIPELINE:
  1. Plan Resolver picks the plan (Person -> Role -> Team -> Agency)
  2. Gate Evaluator checks minimum thresholds
  3. Rule Block Evaluator computes commission per rule
  4. Bonus Evaluator computes activity and scorecard bonuses
  5. Payout Aggregator combines everything into a Breakdown

DESIGN PRINCIPLES:
  1. Purity: No I/O, no shared mutable state, safe to run in parallel
  2. Precision: decimal.Decimal for every amount; rates are fractions (0.10)
  3. Graceful degradation: malformed plan config contributes zero, never panics
  4. Ordering: rule blocks and scorecard tiers keep their configured order

USAGE:
  breakdown := compensation.Evaluate(compensation.Input{
      PersonID: "p-1",
      Period:   compensation.MustParsePeriod("2025-03"),
      Plan:     resolved,
      Records:  records,
      Statuses: compensation.DefaultStatuses(false),
  })

SEE ALSO:
  - plan.go: Plan, RuleBlock, Gate, BonusModule definitions
  - resolver.go: Plan resolution by assignment priority
  - payout.go: Breakdown aggregation
  - calculator.go: Resolve + fetch + evaluate against collaborators
*/
package compensation

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RECORD ENUMS
// =============================================================================

// PremiumCategory is the premium bucket a product belongs to.
type PremiumCategory string

const (
	CategoryPC  PremiumCategory = "PC"  // Property & casualty
	CategoryFS  PremiumCategory = "FS"  // Financial services
	CategoryIPS PremiumCategory = "IPS" // Insurance premium services
)

// ProductType distinguishes personal from business lines.
type ProductType string

const (
	ProductPersonal ProductType = "PERSONAL"
	ProductBusiness ProductType = "BUSINESS"
)

// PolicyStatus is the lifecycle status of a sold product.
type PolicyStatus string

const (
	StatusWritten     PolicyStatus = "WRITTEN"
	StatusIssued      PolicyStatus = "ISSUED"
	StatusPaid        PolicyStatus = "PAID"
	StatusStatusCheck PolicyStatus = "STATUS_CHECK"
	StatusCancelled   PolicyStatus = "CANCELLED"
)

// AllStatuses lists every known status in display order.
var AllStatuses = []PolicyStatus{
	StatusWritten, StatusIssued, StatusPaid, StatusStatusCheck, StatusCancelled,
}

// Valid reports whether s is a known status.
func (s PolicyStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// =============================================================================
// SOLD RECORD - Immutable input owned by the persistence collaborator
// =============================================================================

// SoldRecord is one sold product instance.
type SoldRecord struct {
	ID              string          `json:"id"`
	PersonID        string          `json:"person_id"`
	ProductID       string          `json:"product_id"`
	LOBID           string          `json:"lob_id"`
	PremiumCategory PremiumCategory `json:"premium_category"`
	ProductType     ProductType     `json:"product_type"`
	Premium         decimal.Decimal `json:"premium"`
	DateSold        time.Time       `json:"date_sold"`
	Status          PolicyStatus    `json:"status"`
}

// ActivityCount is the number of occurrences of an activity type for a person.
type ActivityCount struct {
	PersonID       string    `json:"person_id"`
	ActivityTypeID string    `json:"activity_type_id"`
	Count          int64     `json:"count"`
	Date           time.Time `json:"date,omitempty"`
}

// =============================================================================
// STATUS FILTER
// =============================================================================

// StatusFilter is the set of statuses eligible for a period or a rule.
// Order is preserved for display; membership is what matters.
type StatusFilter []PolicyStatus

// DefaultStatuses returns {ISSUED, PAID}, or {WRITTEN, ISSUED, PAID} when
// written business should count.
func DefaultStatuses(includeWritten bool) StatusFilter {
	if includeWritten {
		return StatusFilter{StatusWritten, StatusIssued, StatusPaid}
	}
	return StatusFilter{StatusIssued, StatusPaid}
}

// Contains reports whether status is in the filter.
func (f StatusFilter) Contains(status PolicyStatus) bool {
	for _, s := range f {
		if s == status {
			return true
		}
	}
	return false
}

// Filter returns the records whose status is in the filter.
func (f StatusFilter) Filter(records []SoldRecord) []SoldRecord {
	var out []SoldRecord
	for _, r := range records {
		if f.Contains(r.Status) {
			out = append(out, r)
		}
	}
	return out
}

// Union returns a filter containing the statuses of f and other, without
// duplicates, in first-seen order.
func (f StatusFilter) Union(other StatusFilter) StatusFilter {
	out := make(StatusFilter, 0, len(f)+len(other))
	for _, s := range append(append(StatusFilter{}, f...), other...) {
		if !out.Contains(s) {
			out = append(out, s)
		}
	}
	return out
}

// =============================================================================
// IDENTITY - Keys used by the plan resolver
// =============================================================================

// Identity holds the organization keys of a person. Empty keys are skipped
// during plan resolution.
type Identity struct {
	PersonID string `json:"person_id"`
	RoleID   string `json:"role_id,omitempty"`
	TeamID   string `json:"team_id,omitempty"`
	AgencyID string `json:"agency_id,omitempty"`
}

// Person is a seller known to the person directory.
type Person struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RoleID   string `json:"role_id,omitempty"`
	TeamID   string `json:"team_id,omitempty"`
	AgencyID string `json:"agency_id,omitempty"`
}

// Identity returns the plan-resolution keys of the person.
func (p Person) Identity() Identity {
	return Identity{PersonID: p.ID, RoleID: p.RoleID, TeamID: p.TeamID, AgencyID: p.AgencyID}
}
