/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Populates a store with realistic people, plans, assignments, sold records
  and activity counts for one period, so the API and CLI can be exercised
  without an upstream system.

AVAILABLE SCENARIOS:
  agency-standard: Two producers under the agency plan, one without a plan
  scorecard:       One producer with a person-level scorecard plan override

HOW SCENARIOS WORK:
 1. Save plans built from the presets
 2. Save people with their identity keys
 3. Assign plans at agency or person scope
 4. Add sold records dated inside the period
 5. Add activity counts

NOTE:
  Loaders append records; loading the same scenario twice doubles them.
  Only use in development/demo environments.

SEE ALSO:
  - plans.go: Plan definitions used here
  - cmd/server/seed.go: `comp seed`
*/
package presets

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/nadeemz7/tracktowin-sub002/compensation"
)

// Scenario describes a loadable demo data set.
type Scenario struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Plan and person IDs created by the scenarios.
const (
	AgencyPlanID    = "agency-standard"
	ScorecardPlanID = "scorecard"
	DemoAgencyID    = "agency-1"
)

// Scenarios lists every scenario Load accepts.
var Scenarios = []Scenario{
	{
		ID:          "agency-standard",
		Name:        "Agency Standard",
		Description: "Agency-wide plan with flat, tiered and lump-sum rules, a 5-app gate and a call bonus",
	},
	{
		ID:          "scorecard",
		Name:        "Scorecard Override",
		Description: "Person-level scorecard plan overriding the agency plan",
	},
}

// Load seeds scenario id for period into st.
func Load(ctx context.Context, st compensation.Store, id string, period compensation.Period) error {
	var err error
	switch id {
	case "agency-standard":
		err = loadAgencyStandard(ctx, st, period)
	case "scorecard":
		err = loadScorecard(ctx, st, period)
	default:
		return eris.Wrapf(compensation.ErrInvalidInput, "unknown scenario %q", id)
	}
	return eris.Wrapf(err, "load scenario %s", id)
}

// LoadAll seeds every scenario.
func LoadAll(ctx context.Context, st compensation.Store, period compensation.Period) error {
	for _, s := range Scenarios {
		if err := Load(ctx, st, s.ID, period); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadAgencyStandard(ctx context.Context, st compensation.Store, period compensation.Period) error {
	plan, err := AgencyStandardPlan(AgencyPlanID)
	if err != nil {
		return err
	}
	if err := st.SavePlan(ctx, *plan); err != nil {
		return err
	}

	people := []compensation.Person{
		{ID: "avery", Name: "Avery Producer", RoleID: "producer", TeamID: "north", AgencyID: DemoAgencyID},
		{ID: "casey", Name: "Casey Unassigned", RoleID: "producer", AgencyID: "agency-2"},
	}
	for _, p := range people {
		if err := st.SavePerson(ctx, p); err != nil {
			return err
		}
	}

	if err := st.SaveAssignment(ctx, compensation.Assignment{
		ID:        "assign-agency-standard",
		ScopeType: compensation.LevelAgency,
		ScopeID:   DemoAgencyID,
		PlanID:    AgencyPlanID,
		Active:    true,
	}); err != nil {
		return err
	}

	// Avery: 6 auto, 2 fire, 1 life, 1 written auto that only counts when
	// written business is included.
	var records []compensation.SoldRecord
	records = append(records, sales(period, "avery", "Auto Raw New", "auto", compensation.CategoryPC, 6, "1200", compensation.StatusIssued)...)
	records = append(records, sales(period, "avery", "Homeowners", "fire", compensation.CategoryPC, 2, "900", compensation.StatusIssued)...)
	records = append(records, sales(period, "avery", "Term Life", "life", compensation.CategoryFS, 1, "6000", compensation.StatusPaid)...)
	records = append(records, sales(period, "avery", "Auto Raw New", "auto", compensation.CategoryPC, 1, "1200", compensation.StatusWritten)...)
	records = append(records, sales(period, "casey", "Auto Raw New", "auto", compensation.CategoryPC, 3, "1000", compensation.StatusIssued)...)
	if err := st.AddRecords(ctx, records...); err != nil {
		return err
	}

	return st.AddActivities(ctx, compensation.ActivityCount{
		PersonID: "avery", ActivityTypeID: OutboundCall, Count: 120, Date: period.Start,
	})
}

func loadScorecard(ctx context.Context, st compensation.Store, period compensation.Period) error {
	plan, err := ScorecardPlan(ScorecardPlanID)
	if err != nil {
		return err
	}
	if err := st.SavePlan(ctx, *plan); err != nil {
		return err
	}
	if err := st.SavePerson(ctx, compensation.Person{
		ID: "blake", Name: "Blake Scorecard", RoleID: "producer", AgencyID: DemoAgencyID,
	}); err != nil {
		return err
	}
	if err := st.SaveAssignment(ctx, compensation.Assignment{
		ID:        "assign-blake-scorecard",
		ScopeType: compensation.LevelPerson,
		ScopeID:   "blake",
		PlanID:    ScorecardPlanID,
		Active:    true,
	}); err != nil {
		return err
	}
	return st.AddRecords(ctx,
		sales(period, "blake", "Auto Raw New", "auto", compensation.CategoryPC, 12, "1000", compensation.StatusIssued)...)
}

// sales builds n identical records sold on consecutive days from the start
// of period.
func sales(period compensation.Period, personID, product, lob string, cat compensation.PremiumCategory,
	n int, premium string, status compensation.PolicyStatus) []compensation.SoldRecord {
	out := make([]compensation.SoldRecord, n)
	for i := range out {
		out[i] = compensation.SoldRecord{
			PersonID:        personID,
			ProductID:       product,
			LOBID:           lob,
			PremiumCategory: cat,
			ProductType:     compensation.ProductPersonal,
			Premium:         decimal.RequireFromString(premium),
			DateSold:        period.Start.AddDate(0, 0, i),
			Status:          status,
		}
	}
	return out
}
