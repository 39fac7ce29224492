package compensation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BOUNDARY VALIDATION
// =============================================================================
// Malformed caller input fails here, before the pure core. Plan defects that
// the core tolerates (unknown enums, missing tiers) are not rejected.

// Validate checks the period key, plan thresholds, record premiums and
// activity counts.
func (in Input) Validate() error {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if _, err := ParsePeriod(in.Period.Key); err != nil {
		add("period", "%q is not YYYY-MM", in.Period.Key)
	}
	for _, s := range in.Statuses {
		if !s.Valid() {
			add("statuses", "unknown status %q", s)
		}
	}
	for i, r := range in.Records {
		if r.Premium.IsNegative() {
			add(fmt.Sprintf("records[%d].premium", i), "must be >= 0, got %s", r.Premium)
		}
	}
	for i, a := range in.Activities {
		if a.Count < 0 {
			add(fmt.Sprintf("activities[%d].count", i), "must be >= 0, got %d", a.Count)
		}
	}
	if in.Plan != nil {
		errs = append(errs, ValidateDefinition(in.Plan.PlanDefinition)...)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateDefinition reports negative thresholds and tier minimums.
func ValidateDefinition(def PlanDefinition) ValidationErrors {
	var errs ValidationErrors
	negative := func(field string, d decimal.Decimal) {
		if d.IsNegative() {
			errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf("must be >= 0, got %s", d)})
		}
	}

	for i, g := range def.Gates {
		negative(fmt.Sprintf("gates[%d].threshold", i), g.Threshold)
	}
	for i, rb := range def.RuleBlocks {
		if rb.MinThreshold != nil {
			negative(fmt.Sprintf("rule_blocks[%d].min_threshold", i), *rb.MinThreshold)
		}
		for j, t := range rb.Tiers {
			negative(fmt.Sprintf("rule_blocks[%d].tiers[%d].min", i, j), t.Min)
		}
	}
	for i, bm := range def.BonusModules {
		if bm.Activity != nil && bm.Activity.Threshold < 0 {
			errs = append(errs, &ValidationError{
				Field:   fmt.Sprintf("bonus_modules[%d].activity.threshold", i),
				Message: fmt.Sprintf("must be >= 0, got %d", bm.Activity.Threshold),
			})
		}
	}
	return errs
}
