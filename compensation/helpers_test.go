package compensation_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/nadeemz7/tracktowin-sub002/compensation"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// assertMoney compares decimals by value, so "30" equals "30.00".
func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}

func march2025() compensation.Period {
	return compensation.MustParsePeriod("2025-03")
}

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 10, 0, 0, 0, time.UTC)
}

// record builds a PC personal record sold by p-1 on March 10.
func record(id, product string, premium string, status compensation.PolicyStatus) compensation.SoldRecord {
	return compensation.SoldRecord{
		ID:              id,
		PersonID:        "p-1",
		ProductID:       product,
		LOBID:           "lob-auto",
		PremiumCategory: compensation.CategoryPC,
		ProductType:     compensation.ProductPersonal,
		Premium:         dec(premium),
		DateSold:        day(10),
		Status:          status,
	}
}

// issued returns n ISSUED records of product with the given premium each.
func issued(n int, product, premium string) []compensation.SoldRecord {
	out := make([]compensation.SoldRecord, n)
	for i := range out {
		out[i] = record(fmt.Sprintf("%s-%d", product, i+1), product, premium, compensation.StatusIssued)
	}
	return out
}

func autoFlatRule() compensation.RuleBlock {
	return compensation.RuleBlock{
		Name:       "Auto flat",
		Enabled:    true,
		ApplyScope: compensation.ScopeProduct,
		Filters:    []string{"Auto Raw New"},
		PayoutType: compensation.PayoutFlatPerApp,
		BasePayout: dec("10"),
		TierMode:   compensation.TierModeNone,
	}
}

func planWith(def compensation.PlanDefinition) *compensation.ResolvedPlan {
	return &compensation.ResolvedPlan{
		PlanID:         "plan-1",
		PlanName:       "Standard",
		Version:        1,
		PlanDefinition: def,
	}
}

func flatTier(min string, max *decimal.Decimal, payout string) compensation.TierRow {
	return compensation.TierRow{Min: dec(min), Max: max, Payout: dec(payout)}
}
