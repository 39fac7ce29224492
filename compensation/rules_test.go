package compensation_test

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadeemz7/tracktowin-sub002/compensation"
)

// =============================================================================
// SCOPE FILTER + METRICS
// =============================================================================

func TestFilterRecords_ByScope(t *testing.T) {
	records := []compensation.SoldRecord{
		record("r1", "Auto Raw New", "100", compensation.StatusIssued),
		record("r2", "Home", "200", compensation.StatusIssued),
		record("r3", "Auto Raw New", "300", compensation.StatusWritten),
	}
	records[1].PremiumCategory = compensation.CategoryFS
	records[1].ProductType = compensation.ProductBusiness
	records[1].LOBID = "lob-home"

	issuedOnly := compensation.DefaultStatuses(false)

	tests := []struct {
		name    string
		scope   compensation.ApplyScope
		filters []string
		want    []string
	}{
		{"product", compensation.ScopeProduct, []string{"Auto Raw New"}, []string{"r1"}},
		{"lob", compensation.ScopeLOB, []string{"lob-home"}, []string{"r2"}},
		{"product type", compensation.ScopeProductType, []string{"BUSINESS"}, []string{"r2"}},
		{"premium category", compensation.ScopePremiumCategory, []string{"PC", "FS"}, []string{"r1", "r2"}},
		{"empty filters", compensation.ScopeProduct, nil, nil},
		{"unknown scope", compensation.ApplyScope("CARRIER"), []string{"Auto Raw New"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compensation.FilterRecords(records, tt.scope, tt.filters, issuedOnly)
			var ids []string
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFilterRecords_IncludeWritten(t *testing.T) {
	records := []compensation.SoldRecord{
		record("r1", "Auto Raw New", "100", compensation.StatusWritten),
		record("r2", "Auto Raw New", "100", compensation.StatusCancelled),
	}

	got := compensation.FilterRecords(records, compensation.ScopeProduct, []string{"Auto Raw New"},
		compensation.DefaultStatuses(true))

	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].ID)
}

func TestAggregate(t *testing.T) {
	records := []compensation.SoldRecord{
		record("r1", "Auto", "100.50", compensation.StatusIssued),
		record("r2", "Auto", "200", compensation.StatusIssued),
		record("r3", "Life", "50", compensation.StatusIssued),
	}
	records[2].PremiumCategory = compensation.CategoryFS

	m := compensation.Aggregate(records)

	assert.Equal(t, int64(3), m.Apps)
	assertMoney(t, "350.50", m.Premium)
	assertMoney(t, "300.50", m.Bucket(compensation.CategoryPC))
	assertMoney(t, "50", m.Bucket(compensation.CategoryFS))
	assertMoney(t, "0", m.Bucket(compensation.CategoryIPS))
	assertMoney(t, "350.50", m.Bucket(""))
	assert.Equal(t, int64(1), m.AppsIn(compensation.CategoryFS))
	assert.Equal(t, int64(3), m.AppsIn(""))
}

// =============================================================================
// PAYOUT TYPES
// =============================================================================

func TestEvaluateRule_AutoFlatPerApp(t *testing.T) {
	// GIVEN: 3 ISSUED "Auto Raw New" records and a $10/app rule
	records := issued(3, "Auto Raw New", "500")

	// WHEN: Evaluating the rule
	res, skip := compensation.EvaluateRule(autoFlatRule(), records, compensation.DefaultStatuses(false))

	// THEN: $30 total, $10 attributed to each record
	require.Nil(t, skip)
	assertMoney(t, "30", res.Amount)
	require.Len(t, res.Allocations, 3)
	for _, a := range res.Allocations {
		assertMoney(t, "10", a.Amount)
	}
	assertMoney(t, "30", res.ByProduct["Auto Raw New"])
	assert.Equal(t, -1, res.SelectedTier)
	assert.Contains(t, res.Trace, "$30.00")
}

func TestEvaluateRule_PercentOfPremium(t *testing.T) {
	// GIVEN: $5,000 premium across records of unequal size, 10% rule
	records := []compensation.SoldRecord{
		record("r1", "Auto", "1000", compensation.StatusIssued),
		record("r2", "Auto", "1500", compensation.StatusPaid),
		record("r3", "Home", "2500", compensation.StatusIssued),
	}
	rule := compensation.RuleBlock{
		Name:       "Ten percent",
		Enabled:    true,
		ApplyScope: compensation.ScopePremiumCategory,
		Filters:    []string{"PC"},
		PayoutType: compensation.PayoutPercentOfPremium,
		BasePayout: dec("0.10"),
	}

	res, skip := compensation.EvaluateRule(rule, records, compensation.DefaultStatuses(false))

	// THEN: $500, distributed by premium share
	require.Nil(t, skip)
	assertMoney(t, "500", res.Amount)
	assertMoney(t, "100", res.Allocations[0].Amount)
	assertMoney(t, "150", res.Allocations[1].Amount)
	assertMoney(t, "250", res.Allocations[2].Amount)
	assertMoney(t, "250", res.ByProduct["Auto"])
	assertMoney(t, "250", res.ByProduct["Home"])
}

func TestEvaluateRule_LumpSumSplitsToCents(t *testing.T) {
	// GIVEN: A $100 lump sum over 3 records
	rule := autoFlatRule()
	rule.PayoutType = compensation.PayoutFlatLumpSum
	rule.BasePayout = dec("100")

	res, skip := compensation.EvaluateRule(rule, issued(3, "Auto Raw New", "10"), compensation.DefaultStatuses(false))

	// THEN: 33.33 + 33.33 + 33.34, summing exactly to 100
	require.Nil(t, skip)
	assertMoney(t, "100", res.Amount)
	assertMoney(t, "33.33", res.Allocations[0].Amount)
	assertMoney(t, "33.33", res.Allocations[1].Amount)
	assertMoney(t, "33.34", res.Allocations[2].Amount)

	sum := decimal.Zero
	for _, a := range res.Allocations {
		sum = sum.Add(a.Amount)
	}
	assertMoney(t, "100", sum)
}

func TestEvaluateRule_NoneModeIndependentOfOrder(t *testing.T) {
	records := []compensation.SoldRecord{
		record("r1", "Auto Raw New", "120", compensation.StatusIssued),
		record("r2", "Auto Raw New", "80", compensation.StatusPaid),
		record("r3", "Auto Raw New", "300", compensation.StatusIssued),
		record("r4", "Auto Raw New", "45", compensation.StatusIssued),
		record("r5", "Auto Raw New", "10", compensation.StatusPaid),
	}
	rule := autoFlatRule()
	rule.BasePayout = dec("12.5")
	statuses := compensation.DefaultStatuses(false)

	want, _ := compensation.EvaluateRule(rule, records, statuses)
	assertMoney(t, "62.5", want.Amount) // base x apps

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]compensation.SoldRecord(nil), records...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, skip := compensation.EvaluateRule(rule, shuffled, statuses)
		require.Nil(t, skip)
		assertMoney(t, want.Amount.String(), got.Amount)
		assertMoney(t, want.ByProduct["Auto Raw New"].String(), got.ByProduct["Auto Raw New"])
	}
}

// =============================================================================
// SKIPS
// =============================================================================

func TestEvaluateRule_Skips(t *testing.T) {
	statuses := compensation.DefaultStatuses(false)
	records := issued(3, "Auto Raw New", "100")

	disabled := autoFlatRule()
	disabled.Enabled = false

	noMatch := autoFlatRule()
	noMatch.Filters = []string{"Boat"}

	belowMin := autoFlatRule()
	belowMin.MinThreshold = decPtr("5")

	noTiers := autoFlatRule()
	noTiers.TierMode = compensation.TierModeTiers

	unknownPayout := autoFlatRule()
	unknownPayout.PayoutType = compensation.PayoutType("PER_POINT")

	unknownMode := autoFlatRule()
	unknownMode.TierMode = compensation.TierMode("BOGUS")
	unknownMode.Tiers = []compensation.TierRow{flatTier("0", nil, "99")}

	unknownBasis := autoFlatRule()
	unknownBasis.TierBasis = compensation.TierBasis("BOGUS")

	tests := []struct {
		name   string
		rule   compensation.RuleBlock
		reason string
	}{
		{"disabled", disabled, compensation.SkipDisabled},
		{"no matching records", noMatch, compensation.SkipNoRecords},
		{"below minimum", belowMin, compensation.SkipBelowMinimum},
		{"tiers missing", noTiers, compensation.SkipNoTiers},
		{"unknown payout", unknownPayout, compensation.SkipUnknownPayout},
		{"unknown tier mode", unknownMode, compensation.SkipUnknownMode},
		{"unknown tier basis", unknownBasis, compensation.SkipUnknownBasis},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, skip := compensation.EvaluateRule(tt.rule, records, statuses)
			require.NotNil(t, skip)
			assert.Contains(t, skip.Reason, tt.reason)
			assert.Equal(t, tt.rule.Name, skip.Name)
			assert.True(t, res.Amount.IsZero())
		})
	}
}

func TestEvaluateRule_MinThresholdOnPremiumBasis(t *testing.T) {
	rule := autoFlatRule()
	rule.TierBasis = compensation.BasisPremiumSum
	rule.MinThreshold = decPtr("1000")

	_, skip := compensation.EvaluateRule(rule, issued(2, "Auto Raw New", "400"), compensation.DefaultStatuses(false))
	require.NotNil(t, skip)

	res, skip := compensation.EvaluateRule(rule, issued(3, "Auto Raw New", "400"), compensation.DefaultStatuses(false))
	require.Nil(t, skip)
	assertMoney(t, "30", res.Amount)
}

func TestEvaluateRule_StatusOverrideWidensEligibility(t *testing.T) {
	records := []compensation.SoldRecord{
		record("r1", "Auto Raw New", "100", compensation.StatusWritten),
		record("r2", "Auto Raw New", "100", compensation.StatusIssued),
	}
	rule := autoFlatRule()
	rule.StatusOverride = compensation.StatusFilter{compensation.StatusWritten, compensation.StatusIssued}

	res, skip := compensation.EvaluateRule(rule, records, compensation.DefaultStatuses(false))

	require.Nil(t, skip)
	assert.Equal(t, int64(2), res.Apps)
	assertMoney(t, "20", res.Amount)
}

func TestEvaluateRules_KeepsOrder(t *testing.T) {
	first := autoFlatRule()
	first.Name = "first"
	skipped := autoFlatRule()
	skipped.Name = "skipped"
	skipped.Filters = []string{"Boat"}
	second := autoFlatRule()
	second.Name = "second"
	second.BasePayout = dec("1")

	results, skips := compensation.EvaluateRules(
		[]compensation.RuleBlock{first, skipped, second},
		issued(2, "Auto Raw New", "100"),
		compensation.DefaultStatuses(false),
	)

	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Name)
	assert.Equal(t, "second", results[1].Name)
	require.Len(t, skips, 1)
	assert.Equal(t, "skipped", skips[0].Name)
}

// =============================================================================
// TIERS
// =============================================================================

func ladderRule() compensation.RuleBlock {
	rule := autoFlatRule()
	rule.TierMode = compensation.TierModeTiers
	rule.TierBasis = compensation.BasisAppCount
	rule.Tiers = []compensation.TierRow{
		flatTier("0", decPtr("5"), "5"),
		flatTier("5", decPtr("10"), "10"),
		flatTier("10", nil, "15"),
	}
	return rule
}

func TestSelectTier_SortedLadderSelectsExactlyOne(t *testing.T) {
	tiers := ladderRule().Tiers

	for basis := int64(0); basis <= 50; basis++ {
		b := decimal.NewFromInt(basis)
		containing := 0
		for _, tier := range tiers {
			if tier.Contains(b) {
				containing++
			}
		}
		assert.Equal(t, 1, containing, "basis %d", basis)

		idx, fellBack := compensation.SelectTier(tiers, b)
		assert.False(t, fellBack, "basis %d", basis)
		assert.True(t, tiers[idx].Contains(b), "basis %d", basis)
	}
}

func TestEvaluateRule_TierBoundaries(t *testing.T) {
	tests := []struct {
		apps   int
		tier   int
		amount string
	}{
		{4, 0, "20"},
		{5, 1, "50"}, // min is inclusive
		{9, 1, "90"},
		{10, 2, "150"}, // max is exclusive
		{40, 2, "600"},
	}
	for _, tt := range tests {
		res, skip := compensation.EvaluateRule(ladderRule(), issued(tt.apps, "Auto Raw New", "10"),
			compensation.DefaultStatuses(false))
		require.Nil(t, skip)
		assert.Equal(t, tt.tier, res.SelectedTier, "apps %d", tt.apps)
		assert.False(t, res.TierFallback)
		assertMoney(t, tt.amount, res.Amount, "apps", tt.apps)
	}
}

func TestEvaluateRule_TierGapFallsBackToLastTier(t *testing.T) {
	// GIVEN: A ladder that starts at 5 apps, with a gap between 8 and 10
	rule := autoFlatRule()
	rule.TierMode = compensation.TierModeTiers
	rule.Tiers = []compensation.TierRow{
		flatTier("5", decPtr("8"), "10"),
		flatTier("10", decPtr("20"), "20"),
		flatTier("20", decPtr("30"), "30"),
	}

	// WHEN: The basis is below the first tier (2 apps)
	below, skip := compensation.EvaluateRule(rule, issued(2, "Auto Raw New", "10"), compensation.DefaultStatuses(false))
	require.Nil(t, skip)

	// THEN: The LAST tier pays
	assert.True(t, below.TierFallback)
	assert.Equal(t, 2, below.SelectedTier)
	assertMoney(t, "60", below.Amount)
	assert.Contains(t, below.Trace, "no tier contains basis 2")

	// WHEN: The basis falls in the gap (9 apps)
	gap, skip := compensation.EvaluateRule(rule, issued(9, "Auto Raw New", "10"), compensation.DefaultStatuses(false))
	require.Nil(t, skip)

	// THEN: Still the last tier
	assert.True(t, gap.TierFallback)
	assert.Equal(t, 2, gap.SelectedTier)
	assertMoney(t, "270", gap.Amount)

	// WHEN: The basis is above the bounded top tier (35 apps)
	above, _ := compensation.EvaluateRule(rule, issued(35, "Auto Raw New", "10"), compensation.DefaultStatuses(false))
	assert.True(t, above.TierFallback)
	assert.Equal(t, 2, above.SelectedTier)
}

func TestEvaluateRule_Ladder(t *testing.T) {
	res, skip := compensation.EvaluateRule(ladderRule(), issued(7, "Auto Raw New", "10"), compensation.DefaultStatuses(false))
	require.Nil(t, skip)

	require.Len(t, res.Ladder, 3)

	assert.True(t, res.Ladder[0].Achieved)
	assert.False(t, res.Ladder[0].Selected)

	assert.True(t, res.Ladder[1].Achieved)
	assert.True(t, res.Ladder[1].Selected)
	assert.Equal(t, "[5, 10) $10.00/app", res.Ladder[1].Label)

	assert.False(t, res.Ladder[2].Achieved)
	assertMoney(t, "3", res.Ladder[2].Remaining)
	assert.Equal(t, "[10, +) $15.00/app", res.Ladder[2].Label)
}

func TestEvaluateRule_BucketBasis(t *testing.T) {
	records := []compensation.SoldRecord{
		record("r1", "Auto", "3000", compensation.StatusIssued),
		record("r2", "Life", "8000", compensation.StatusIssued),
	}
	records[1].PremiumCategory = compensation.CategoryFS

	rule := compensation.RuleBlock{
		Name:        "PC ladder",
		Enabled:     true,
		ApplyScope:  compensation.ScopeProductType,
		Filters:     []string{"PERSONAL"},
		PayoutType:  compensation.PayoutPercentOfPremium,
		TierMode:    compensation.TierModeTiers,
		TierBasis:   compensation.BasisBucketValue,
		BasisBucket: compensation.CategoryPC,
		Tiers: []compensation.TierRow{
			flatTier("0", decPtr("5000"), "0.01"),
			flatTier("5000", nil, "0.02"),
		},
	}

	res, skip := compensation.EvaluateRule(rule, records, compensation.DefaultStatuses(false))

	// THEN: Basis is the PC bucket (3,000), tier 1 rate applies to all premium
	require.Nil(t, skip)
	assertMoney(t, "3000", res.Basis)
	assert.Equal(t, 0, res.SelectedTier)
	assertMoney(t, "110", res.Amount)
}

func TestMetricsBasis(t *testing.T) {
	m := compensation.Aggregate(issued(3, "Auto Raw New", "100"))

	tests := []struct {
		name  string
		basis compensation.TierBasis
		want  string
		ok    bool
	}{
		{"unset means app count", "", "3", true},
		{"app count", compensation.BasisAppCount, "3", true},
		{"premium sum", compensation.BasisPremiumSum, "300", true},
		{"unknown", compensation.TierBasis("POINTS"), "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Basis(tt.basis, "")
			assert.Equal(t, tt.ok, ok)
			assertMoney(t, tt.want, got)
		})
	}
}
