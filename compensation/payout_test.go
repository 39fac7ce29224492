package compensation_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadeemz7/tracktowin-sub002/compensation"
)

func fullDefinition() compensation.PlanDefinition {
	pct := compensation.RuleBlock{
		Name:       "Life percent",
		Enabled:    true,
		ApplyScope: compensation.ScopePremiumCategory,
		Filters:    []string{"FS"},
		PayoutType: compensation.PayoutPercentOfPremium,
		BasePayout: dec("0.10"),
	}
	return compensation.PlanDefinition{
		RuleBlocks: []compensation.RuleBlock{autoFlatRule(), pct},
		Gates: []compensation.Gate{
			{Name: "Five apps", Type: compensation.GateMinApps, Threshold: dec("5")},
		},
		BonusModules: []compensation.BonusModule{
			activityModule(10, "25", false),
			twoTierScorecard(true, true),
		},
	}
}

func fullRecords() []compensation.SoldRecord {
	records := issued(3, "Auto Raw New", "500")
	life := record("life-1", "Term Life", "2000", compensation.StatusPaid)
	life.PremiumCategory = compensation.CategoryFS
	return append(records, life)
}

func TestEvaluate_NoPlan(t *testing.T) {
	b := compensation.Evaluate(compensation.Input{PersonID: "p-1", Period: march2025(), Records: fullRecords()})

	assert.True(t, b.NoPlan)
	assert.Equal(t, compensation.NoPlanMessage, b.Message)
	assert.True(t, b.Total.IsZero())
	assert.Empty(t, b.Rules)
}

func TestEvaluate_GateBlocksButKeepsDetail(t *testing.T) {
	// GIVEN: MIN_APPS 5 with only 4 eligible records
	in := compensation.Input{
		PersonID:   "p-1",
		Period:     march2025(),
		Plan:       planWith(fullDefinition()),
		Records:    fullRecords(),
		Activities: []compensation.ActivityCount{{PersonID: "p-1", ActivityTypeID: "outbound-call", Count: 12}},
	}

	// WHEN: Evaluating
	b := compensation.Evaluate(in)

	// THEN: Blocked, totals zero, detail and potentials computed
	assert.True(t, b.Blocked)
	require.Len(t, b.BlockReasons, 1)
	assert.Contains(t, b.BlockReasons[0], "1 short")

	assert.True(t, b.Commission.IsZero())
	assert.True(t, b.Bonus.IsZero())
	assert.True(t, b.Total.IsZero())

	require.Len(t, b.Rules, 2)
	assertMoney(t, "30", b.Rules[0].Amount)
	assertMoney(t, "200", b.Rules[1].Amount)
	assertMoney(t, "230", b.CommissionPotential)

	// Activity 25 (12 >= 10); scorecard needs 3 and 5 apps, only T1 (100) met
	assertMoney(t, "125", b.BonusPotential)
	assertMoney(t, "30", b.ByProduct["Auto Raw New"])
	assertMoney(t, "200", b.ByProduct["Term Life"])
}

func TestEvaluate_Unblocked(t *testing.T) {
	records := append(fullRecords(), issued(2, "Home", "100")...)
	in := compensation.Input{
		PersonID:   "p-1",
		Period:     march2025(),
		Plan:       planWith(fullDefinition()),
		Records:    records,
		Activities: []compensation.ActivityCount{{ActivityTypeID: "outbound-call", Count: 3}},
	}

	b := compensation.Evaluate(in)

	assert.False(t, b.Blocked)
	require.Len(t, b.PassTraces, 1)
	assertMoney(t, "230", b.Commission)
	// Activity not achieved; scorecard stacks T1 + T2 with 6 apps
	assertMoney(t, "300", b.Bonus)
	assertMoney(t, "530", b.Total)
	assert.Equal(t, "plan-1", b.PlanID)
	assert.Equal(t, 1, b.PlanVersion)
}

func TestEvaluate_EmptyInputsAreZero(t *testing.T) {
	b := compensation.Evaluate(compensation.Input{
		PersonID: "p-1",
		Period:   march2025(),
		Plan:     planWith(compensation.PlanDefinition{}),
	})

	assert.False(t, b.Blocked)
	assert.False(t, b.NoPlan)
	assert.True(t, b.Total.IsZero())
	assert.NotNil(t, b.Rules)
	assert.NotNil(t, b.Bonuses)
}

func TestEvaluate_Idempotent(t *testing.T) {
	in := compensation.Input{
		PersonID:   "p-1",
		Period:     march2025(),
		Plan:       planWith(fullDefinition()),
		Records:    append(fullRecords(), issued(4, "Home", "333.33")...),
		Activities: []compensation.ActivityCount{{PersonID: "p-1", ActivityTypeID: "outbound-call", Count: 11}},
		Statuses:   compensation.DefaultStatuses(true),
	}

	first, err := json.Marshal(compensation.Evaluate(in))
	require.NoError(t, err)
	second, err := json.Marshal(compensation.Evaluate(in))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestEvaluateChecked_RejectsInvalidInput(t *testing.T) {
	def := fullDefinition()
	def.Gates[0].Threshold = dec("-1")
	records := fullRecords()
	records[0].Premium = dec("-5")

	_, err := compensation.EvaluateChecked(compensation.Input{
		PersonID: "p-1",
		Period:   compensation.Period{Key: "2025-13"},
		Plan:     planWith(def),
		Records:  records,
		Activities: []compensation.ActivityCount{
			{PersonID: "p-1", ActivityTypeID: "call", Count: 4},
			{PersonID: "p-1", ActivityTypeID: "call", Count: -3},
		},
	})

	require.Error(t, err)
	assert.True(t, compensation.IsClientError(err))

	var verrs compensation.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := make([]string, 0, len(verrs))
	for _, v := range verrs {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{"period", "records[0].premium", "activities[1].count", "gates[0].threshold"}, fields)
}

func TestEvaluateChecked_Valid(t *testing.T) {
	b, err := compensation.EvaluateChecked(compensation.Input{
		PersonID: "p-1",
		Period:   march2025(),
		Plan:     planWith(fullDefinition()),
		Records:  fullRecords(),
	})

	require.NoError(t, err)
	assert.True(t, b.Blocked)
}
