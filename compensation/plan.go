/*
plan.go - Plan definitions: rule blocks, gates, bonus modules

PURPOSE:
  A compensation plan is pure data authored elsewhere. It is modelled as
  tagged variants: every configurable kind (payout type, gate type, bonus
  type, metric source, operator, reward type) is a typed string enum, and the
  evaluators dispatch on it with a switch. Unknown values fall through to a
  zero contribution instead of an error.

KEY CONCEPTS:
  - Plan: Authored plan with status and current version
  - PlanDefinition: The ordered rule blocks, gates and bonus modules
  - ResolvedPlan: The definition selected for one person and period
  - RuleBlock: One commission unit scoped to a subset of records
  - Gate: A minimum threshold that blocks monetary payout when unmet
  - BonusModule: ACTIVITY_BONUS or SCORECARD_TIER, one variant set per type

EXAMPLE:
  block := RuleBlock{
      Name:       "Auto flat",
      Enabled:    true,
      ApplyScope: ScopeProduct,
      Filters:    []string{"Auto Raw New"},
      PayoutType: PayoutFlatPerApp,
      BasePayout: decimal.NewFromInt(10),
  }
*/
package compensation

import "github.com/shopspring/decimal"

// =============================================================================
// PLAN - Authored plan with versioning
// =============================================================================

// PlanStatus is the lifecycle status of a plan.
type PlanStatus string

const (
	PlanActive   PlanStatus = "ACTIVE"
	PlanDraft    PlanStatus = "DRAFT"
	PlanArchived PlanStatus = "ARCHIVED"
)

// Plan is an authored compensation plan. Only CurrentVersion is evaluated.
type Plan struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Status         PlanStatus  `json:"status"`
	CurrentVersion PlanVersion `json:"current_version"`
}

// PlanVersion is one published revision of a plan.
type PlanVersion struct {
	Version    int            `json:"version"`
	Definition PlanDefinition `json:"definition"`
}

// PlanDefinition holds the evaluable content of a plan version.
type PlanDefinition struct {
	RuleBlocks   []RuleBlock   `json:"rule_blocks"`
	Gates        []Gate        `json:"gates"`
	BonusModules []BonusModule `json:"bonus_modules"`
}

// ResolvedPlan is the plan applicable to one person for one period.
// It is resolved fresh per evaluation and never mutated.
type ResolvedPlan struct {
	PlanID       string     `json:"plan_id"`
	PlanName     string     `json:"plan_name"`
	Version      int        `json:"version"`
	AssignmentID string     `json:"assignment_id,omitempty"`
	Scope        ScopeLevel `json:"scope,omitempty"`
	PlanDefinition
}

// =============================================================================
// RULE BLOCK
// =============================================================================

// ApplyScope selects which record field a rule's filters match against.
type ApplyScope string

const (
	ScopeProduct         ApplyScope = "PRODUCT"
	ScopeLOB             ApplyScope = "LOB"
	ScopeProductType     ApplyScope = "PRODUCT_TYPE"
	ScopePremiumCategory ApplyScope = "PREMIUM_CATEGORY"
)

// PayoutType determines how a payout value turns into money.
type PayoutType string

const (
	PayoutFlatPerApp       PayoutType = "FLAT_PER_APP"       // value × apps
	PayoutPercentOfPremium PayoutType = "PERCENT_OF_PREMIUM" // value (fraction) × premium
	PayoutFlatLumpSum      PayoutType = "FLAT_LUMP_SUM"      // value once
)

// TierMode toggles tiered payout selection.
type TierMode string

const (
	TierModeNone  TierMode = "NONE"
	TierModeTiers TierMode = "TIERS"
)

// TierBasis is the scalar compared against tier ranges and min thresholds.
type TierBasis string

const (
	BasisAppCount    TierBasis = "APP_COUNT"
	BasisPremiumSum  TierBasis = "PREMIUM_SUM"
	BasisBucketValue TierBasis = "BUCKET_VALUE"
)

// RuleBlock is one commission-calculation unit within a plan.
type RuleBlock struct {
	Name           string           `json:"name"`
	Enabled        bool             `json:"enabled"`
	ApplyScope     ApplyScope       `json:"apply_scope"`
	Filters        []string         `json:"filters"`
	StatusOverride StatusFilter     `json:"status_override,omitempty"`
	PayoutType     PayoutType       `json:"payout_type"`
	BasePayout     decimal.Decimal  `json:"base_payout"`
	TierMode       TierMode         `json:"tier_mode"`
	TierBasis      TierBasis        `json:"tier_basis,omitempty"`
	BasisBucket    PremiumCategory  `json:"basis_bucket,omitempty"`
	MinThreshold   *decimal.Decimal `json:"min_threshold,omitempty"`
	Tiers          []TierRow        `json:"tiers,omitempty"`
}

// TierRow is one rung of a tier ladder: [Min, Max) pays Payout.
// A nil Max is unbounded.
type TierRow struct {
	Min    decimal.Decimal  `json:"min"`
	Max    *decimal.Decimal `json:"max,omitempty"`
	Payout decimal.Decimal  `json:"payout"`
}

// Contains reports whether basis falls in [Min, Max).
func (t TierRow) Contains(basis decimal.Decimal) bool {
	if basis.LessThan(t.Min) {
		return false
	}
	return t.Max == nil || basis.LessThan(*t.Max)
}

// =============================================================================
// GATE
// =============================================================================

// GateType selects the aggregate a gate compares to its threshold.
type GateType string

const (
	GateMinApps    GateType = "MIN_APPS"
	GateMinPremium GateType = "MIN_PREMIUM"
	GateMinBucket  GateType = "MIN_BUCKET"
)

// Gate is a minimum-threshold precondition for monetary payout.
type Gate struct {
	Name      string          `json:"name"`
	Type      GateType        `json:"type"`
	Threshold decimal.Decimal `json:"threshold"`
	// Bucket names the intended bucket for MIN_BUCKET. The evaluator still
	// compares total premium.
	Bucket PremiumCategory `json:"bucket,omitempty"`
}

// =============================================================================
// BONUS MODULES
// =============================================================================

// BonusType tags which variant of BonusModule is populated.
type BonusType string

const (
	BonusActivity  BonusType = "ACTIVITY_BONUS"
	BonusScorecard BonusType = "SCORECARD_TIER"
)

// BonusModule is a tagged variant: Activity is set for ACTIVITY_BONUS,
// Scorecard for SCORECARD_TIER.
type BonusModule struct {
	Name      string         `json:"name"`
	Type      BonusType      `json:"type"`
	Activity  *ActivityBonus `json:"activity,omitempty"`
	Scorecard *Scorecard     `json:"scorecard,omitempty"`
}

// ActivityBonus pays when an activity count reaches a threshold.
type ActivityBonus struct {
	ActivityTypeID string          `json:"activity_type_id"`
	Threshold      int64           `json:"threshold"`
	Payout         decimal.Decimal `json:"payout"`
	PerUnit        bool            `json:"per_unit"`
}

// Scorecard is an ordered ladder of multi-condition tiers.
type Scorecard struct {
	HighestTierWins bool            `json:"highest_tier_wins"`
	StackTiers      bool            `json:"stack_tiers"`
	Tiers           []ScorecardTier `json:"tiers"`
}

// ScorecardTier is satisfied when all (RequiresAll) or any of its
// conditions hold.
type ScorecardTier struct {
	Name        string      `json:"name"`
	OrderIndex  int         `json:"order_index"`
	RequiresAll bool        `json:"requires_all"`
	Conditions  []Condition `json:"conditions"`
	Rewards     []Reward    `json:"rewards"`
}

// MetricSource selects the value a condition reads.
type MetricSource string

const (
	MetricPremiumCategory MetricSource = "PREMIUM_CATEGORY"
	MetricBucket          MetricSource = "BUCKET"
	MetricAppsCount       MetricSource = "APPS_COUNT"
	MetricActivity        MetricSource = "ACTIVITY"
)

// Operator compares a metric to a target.
type Operator string

const (
	OpGTE Operator = "GTE"
	OpGT  Operator = "GT"
	OpLTE Operator = "LTE"
	OpLT  Operator = "LT"
	OpEQ  Operator = "EQ"
)

// Condition is one requirement of a scorecard tier.
type Condition struct {
	Metric          MetricSource    `json:"metric"`
	Operator        Operator        `json:"operator"`
	Target          decimal.Decimal `json:"target"`
	PremiumCategory PremiumCategory `json:"premium_category,omitempty"`
	ActivityTypeID  string          `json:"activity_type_id,omitempty"`
}

// RewardType determines how a reward is valued.
type RewardType string

const (
	RewardFlatDollars     RewardType = "ADD_FLAT_DOLLARS"
	RewardPercentOfBucket RewardType = "ADD_PERCENT_OF_BUCKET"
)

// Reward is paid when its tier is selected (or stacked).
type Reward struct {
	Type    RewardType      `json:"type"`
	Dollars decimal.Decimal `json:"dollars,omitempty"`
	Percent decimal.Decimal `json:"percent,omitempty"` // fraction: 0.02 == 2%
	Bucket  PremiumCategory `json:"bucket,omitempty"`
}
