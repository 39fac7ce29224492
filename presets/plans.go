/*
plans.go - Pre-built compensation plan definitions

PURPOSE:
  Provides ready-to-use plan definitions for common agency pay structures.
  Plans are emitted as YAML and parsed through the factory, so presets go
  through exactly the same validation as hand-authored plan files.

AVAILABLE PLANS:
  AgencyStandard: Flat per-app auto and fire, tiered life percentage,
                  business lump sum, 5-app gate, outbound call bonus
  Scorecard:      Flat per-app auto plus a highest-tier-wins scorecard

CUSTOMIZATION:
  These are starting points. Write the YAML out, edit it, and load it with
  `comp evaluate --plan` or POST /api/plans.

EXAMPLE:
  plan, err := presets.AgencyStandardPlan("agency-standard")

  // Or start from the YAML
  yamlStr := presets.AgencyStandardYAML("agency-2025", "Agency 2025")
  plan, err := factory.NewPlanFactory().ParsePlanYAML([]byte(yamlStr))

SEE ALSO:
  - factory/plan.go: Plan file parsing
  - scenarios.go: Demo data using these plans
*/
package presets

import (
	"gopkg.in/yaml.v3"

	"github.com/nadeemz7/tracktowin-sub002/compensation"
	"github.com/nadeemz7/tracktowin-sub002/factory"
)

// Activity type used by the call bonus presets.
const OutboundCall = "outbound-call"

// =============================================================================
// YAML DEFINITIONS
// =============================================================================

// AgencyStandardYAML returns YAML for the agency standard plan.
func AgencyStandardYAML(id, name string) string {
	pj := map[string]any{
		"id":   id,
		"name": name,
		"rule_blocks": []map[string]any{
			{
				"name":        "Auto Raw New",
				"apply_scope": "product",
				"filters":     []string{"Auto Raw New"},
				"payout_type": "flat_per_app",
				"base_payout": 10,
			},
			{
				"name":        "Fire",
				"apply_scope": "product",
				"filters":     []string{"Homeowners", "Renters"},
				"payout_type": "flat_per_app",
				"base_payout": 8,
			},
			{
				"name":        "Life",
				"apply_scope": "premium_category",
				"filters":     []string{"FS"},
				"payout_type": "percent_of_premium",
				"tier_basis":  "premium_sum",
				"tiers": []map[string]any{
					{"min": 0, "max": 5000, "payout": 0.05},
					{"min": 5000, "payout": 0.1},
				},
			},
			{
				"name":          "Commercial",
				"apply_scope":   "product_type",
				"filters":       []string{"BUSINESS"},
				"payout_type":   "flat_lump_sum",
				"base_payout":   150,
				"min_threshold": 2,
			},
		},
		"gates": []map[string]any{
			{"name": "Minimum apps", "type": "min_apps", "threshold": 5},
		},
		"bonus_modules": []map[string]any{
			{
				"name": "Outbound calls",
				"type": "activity_bonus",
				"activity": map[string]any{
					"activity_type_id": OutboundCall,
					"threshold":        100,
					"payout":           50,
				},
			},
		},
	}
	return mustYAML(pj)
}

// ScorecardYAML returns YAML for a plan paid mostly through a scorecard.
func ScorecardYAML(id, name string) string {
	pj := map[string]any{
		"id":   id,
		"name": name,
		"rule_blocks": []map[string]any{
			{
				"name":        "Auto Raw New",
				"apply_scope": "product",
				"filters":     []string{"Auto Raw New"},
				"payout_type": "flat_per_app",
				"base_payout": 10,
			},
		},
		"bonus_modules": []map[string]any{
			{
				"name": "Monthly scorecard",
				"type": "scorecard_tier",
				"scorecard": map[string]any{
					"highest_tier_wins": true,
					"tiers": []map[string]any{
						{
							"name":         "Bronze",
							"order_index":  1,
							"requires_all": true,
							"conditions": []map[string]any{
								{"metric": "apps_count", "operator": "gte", "target": 10},
							},
							"rewards": []map[string]any{
								{"type": "add_flat_dollars", "dollars": 100},
							},
						},
						{
							"name":         "Silver",
							"order_index":  2,
							"requires_all": true,
							"conditions": []map[string]any{
								{"metric": "apps_count", "operator": "gte", "target": 15},
								{"metric": "premium_category", "operator": "gte", "target": 15000, "premium_category": "PC"},
							},
							"rewards": []map[string]any{
								{"type": "add_flat_dollars", "dollars": 250},
								{"type": "add_percent_of_bucket", "percent": 0.01, "bucket": "PC"},
							},
						},
					},
				},
			},
		},
	}
	return mustYAML(pj)
}

func mustYAML(v any) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// =============================================================================
// PARSED PLANS
// =============================================================================

// AgencyStandardPlan returns the agency standard plan with the given ID.
func AgencyStandardPlan(id string) (*compensation.Plan, error) {
	return factory.NewPlanFactory().ParsePlanYAML([]byte(AgencyStandardYAML(id, "Agency Standard")))
}

// ScorecardPlan returns the scorecard plan with the given ID.
func ScorecardPlan(id string) (*compensation.Plan, error) {
	return factory.NewPlanFactory().ParsePlanYAML([]byte(ScorecardYAML(id, "Scorecard")))
}
