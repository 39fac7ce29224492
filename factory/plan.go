/*
Package factory provides JSON/YAML to Go plan conversion.

PURPOSE:
  Converts authored plan definitions into compensation.Plan values. Plans are
  configuration, not code: an admin tool or a checked-in YAML file defines
  rule blocks, gates and bonus modules, and the factory builds the structs the
  engine evaluates.

STRICTNESS:
  The engine tolerates unknown enum values (they contribute zero). Authoring
  does not: the factory reports every unknown payout type, gate type, metric
  or operator as a compensation.ValidationError so mistakes surface before a
  plan is stored. Negative thresholds are reported the same way.

SCHEMA (YAML shown, JSON uses the same keys):
  id: agency-standard
  name: Agency Standard
  rule_blocks:
    - name: Auto flat
      apply_scope: product
      filters: [Auto Raw New]
      payout_type: flat_per_app
      base_payout: 10
  gates:
    - name: Minimum apps
      type: min_apps
      threshold: 5
  bonus_modules:
    - name: Calls
      type: activity_bonus
      activity: {activity_type_id: outbound-call, threshold: 100, payout: 50}

DEFAULTS:
  - status ACTIVE, version 1
  - rule blocks are enabled unless "enabled: false"
  - tier_mode is TIERS when tiers are listed, NONE otherwise
  - tier_basis APP_COUNT
  - enum values are case-insensitive

USAGE:
  f := factory.NewPlanFactory()
  plan, err := f.ParsePlanFile("plans/standard.yaml")

SEE ALSO:
  - compensation/plan.go: Plan type definitions
  - presets/plans.go: Ready-made plan definitions
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/nadeemz7/tracktowin-sub002/compensation"
)

// =============================================================================
// SCHEMA TYPES
// =============================================================================

// PlanJSON is the authored representation of a plan.
type PlanJSON struct {
	ID           string            `json:"id" yaml:"id"`
	Name         string            `json:"name" yaml:"name"`
	Status       string            `json:"status,omitempty" yaml:"status,omitempty"`
	Version      int               `json:"version,omitempty" yaml:"version,omitempty"`
	RuleBlocks   []RuleBlockJSON   `json:"rule_blocks,omitempty" yaml:"rule_blocks,omitempty"`
	Gates        []GateJSON        `json:"gates,omitempty" yaml:"gates,omitempty"`
	BonusModules []BonusModuleJSON `json:"bonus_modules,omitempty" yaml:"bonus_modules,omitempty"`
}

// RuleBlockJSON represents one commission rule block.
type RuleBlockJSON struct {
	Name           string           `json:"name" yaml:"name"`
	Enabled        *bool            `json:"enabled,omitempty" yaml:"enabled,omitempty"` // default true
	ApplyScope     string           `json:"apply_scope" yaml:"apply_scope"`
	Filters        []string         `json:"filters" yaml:"filters"`
	StatusOverride []string         `json:"status_override,omitempty" yaml:"status_override,omitempty"`
	PayoutType     string           `json:"payout_type" yaml:"payout_type"`
	BasePayout     decimal.Decimal  `json:"base_payout" yaml:"base_payout"`
	TierMode       string           `json:"tier_mode,omitempty" yaml:"tier_mode,omitempty"`
	TierBasis      string           `json:"tier_basis,omitempty" yaml:"tier_basis,omitempty"`
	BasisBucket    string           `json:"basis_bucket,omitempty" yaml:"basis_bucket,omitempty"`
	MinThreshold   *decimal.Decimal `json:"min_threshold,omitempty" yaml:"min_threshold,omitempty"`
	Tiers          []TierJSON       `json:"tiers,omitempty" yaml:"tiers,omitempty"`
}

// TierJSON is one tier row. Omit max for an unbounded top tier.
type TierJSON struct {
	Min    decimal.Decimal  `json:"min" yaml:"min"`
	Max    *decimal.Decimal `json:"max,omitempty" yaml:"max,omitempty"`
	Payout decimal.Decimal  `json:"payout" yaml:"payout"`
}

// GateJSON represents a minimum-threshold gate.
type GateJSON struct {
	Name      string          `json:"name" yaml:"name"`
	Type      string          `json:"type" yaml:"type"`
	Threshold decimal.Decimal `json:"threshold" yaml:"threshold"`
	Bucket    string          `json:"bucket,omitempty" yaml:"bucket,omitempty"`
}

// BonusModuleJSON represents an activity bonus or a scorecard.
type BonusModuleJSON struct {
	Name      string         `json:"name" yaml:"name"`
	Type      string         `json:"type" yaml:"type"`
	Activity  *ActivityJSON  `json:"activity,omitempty" yaml:"activity,omitempty"`
	Scorecard *ScorecardJSON `json:"scorecard,omitempty" yaml:"scorecard,omitempty"`
}

// ActivityJSON configures an activity bonus.
type ActivityJSON struct {
	ActivityTypeID string          `json:"activity_type_id" yaml:"activity_type_id"`
	Threshold      int64           `json:"threshold" yaml:"threshold"`
	Payout         decimal.Decimal `json:"payout" yaml:"payout"`
	PerUnit        bool            `json:"per_unit,omitempty" yaml:"per_unit,omitempty"`
}

// ScorecardJSON configures a scorecard ladder.
type ScorecardJSON struct {
	HighestTierWins bool                `json:"highest_tier_wins,omitempty" yaml:"highest_tier_wins,omitempty"`
	StackTiers      bool                `json:"stack_tiers,omitempty" yaml:"stack_tiers,omitempty"`
	Tiers           []ScorecardTierJSON `json:"tiers" yaml:"tiers"`
}

// ScorecardTierJSON is one scorecard tier.
type ScorecardTierJSON struct {
	Name        string          `json:"name" yaml:"name"`
	OrderIndex  int             `json:"order_index" yaml:"order_index"`
	RequiresAll bool            `json:"requires_all,omitempty" yaml:"requires_all,omitempty"`
	Conditions  []ConditionJSON `json:"conditions" yaml:"conditions"`
	Rewards     []RewardJSON    `json:"rewards" yaml:"rewards"`
}

// ConditionJSON is one scorecard condition.
type ConditionJSON struct {
	Metric          string          `json:"metric" yaml:"metric"`
	Operator        string          `json:"operator" yaml:"operator"`
	Target          decimal.Decimal `json:"target" yaml:"target"`
	PremiumCategory string          `json:"premium_category,omitempty" yaml:"premium_category,omitempty"`
	ActivityTypeID  string          `json:"activity_type_id,omitempty" yaml:"activity_type_id,omitempty"`
}

// RewardJSON is one scorecard reward. Percent is a fraction (0.02 == 2%).
type RewardJSON struct {
	Type    string          `json:"type" yaml:"type"`
	Dollars decimal.Decimal `json:"dollars,omitempty" yaml:"dollars,omitempty"`
	Percent decimal.Decimal `json:"percent,omitempty" yaml:"percent,omitempty"`
	Bucket  string          `json:"bucket,omitempty" yaml:"bucket,omitempty"`
}

// =============================================================================
// PLAN FACTORY
// =============================================================================

// PlanFactory converts authored plans to compensation.Plan.
type PlanFactory struct{}

// NewPlanFactory creates a new plan factory.
func NewPlanFactory() *PlanFactory {
	return &PlanFactory{}
}

// ParsePlanJSON parses a JSON plan definition.
func (f *PlanFactory) ParsePlanJSON(data []byte) (*compensation.Plan, error) {
	var pj PlanJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return nil, eris.Wrapf(compensation.ErrInvalidInput, "parse plan JSON: %v", err)
	}
	return f.FromJSON(pj)
}

// ParsePlanYAML parses a YAML plan definition.
func (f *PlanFactory) ParsePlanYAML(data []byte) (*compensation.Plan, error) {
	var pj PlanJSON
	if err := yaml.Unmarshal(data, &pj); err != nil {
		return nil, eris.Wrapf(compensation.ErrInvalidInput, "parse plan YAML: %v", err)
	}
	return f.FromJSON(pj)
}

// ParsePlanFile reads a plan from disk, choosing the format by extension
// (.yaml/.yml, anything else is JSON).
func (f *PlanFactory) ParsePlanFile(path string) (*compensation.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read plan %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return f.ParsePlanYAML(data)
	default:
		return f.ParsePlanJSON(data)
	}
}

// FromJSON converts PlanJSON to a compensation.Plan, reporting every
// authoring error at once.
func (f *PlanFactory) FromJSON(pj PlanJSON) (*compensation.Plan, error) {
	b := &builder{}

	if strings.TrimSpace(pj.ID) == "" {
		b.fail("id", "is required")
	}
	status := compensation.PlanActive
	if pj.Status != "" {
		status = compensation.PlanStatus(b.enum("status", pj.Status, planStatuses))
	}
	version := pj.Version
	if version == 0 {
		version = 1
	}

	def := compensation.PlanDefinition{
		RuleBlocks:   make([]compensation.RuleBlock, 0, len(pj.RuleBlocks)),
		Gates:        make([]compensation.Gate, 0, len(pj.Gates)),
		BonusModules: make([]compensation.BonusModule, 0, len(pj.BonusModules)),
	}
	for i, rj := range pj.RuleBlocks {
		def.RuleBlocks = append(def.RuleBlocks, b.ruleBlock(fmt.Sprintf("rule_blocks[%d]", i), rj))
	}
	for i, gj := range pj.Gates {
		def.Gates = append(def.Gates, b.gate(fmt.Sprintf("gates[%d]", i), gj))
	}
	for i, mj := range pj.BonusModules {
		def.BonusModules = append(def.BonusModules, b.bonusModule(fmt.Sprintf("bonus_modules[%d]", i), mj))
	}

	b.errs = append(b.errs, compensation.ValidateDefinition(def)...)
	if len(b.errs) > 0 {
		return nil, b.errs
	}

	return &compensation.Plan{
		ID:     pj.ID,
		Name:   pj.Name,
		Status: status,
		CurrentVersion: compensation.PlanVersion{
			Version:    version,
			Definition: def,
		},
	}, nil
}

// ToJSON converts a Plan back to its authored form.
func (f *PlanFactory) ToJSON(p compensation.Plan) PlanJSON {
	def := p.CurrentVersion.Definition
	pj := PlanJSON{
		ID:      p.ID,
		Name:    p.Name,
		Status:  string(p.Status),
		Version: p.CurrentVersion.Version,
	}

	for _, rb := range def.RuleBlocks {
		enabled := rb.Enabled
		rj := RuleBlockJSON{
			Name:         rb.Name,
			Enabled:      &enabled,
			ApplyScope:   string(rb.ApplyScope),
			Filters:      rb.Filters,
			PayoutType:   string(rb.PayoutType),
			BasePayout:   rb.BasePayout,
			TierMode:     string(rb.TierMode),
			TierBasis:    string(rb.TierBasis),
			BasisBucket:  string(rb.BasisBucket),
			MinThreshold: rb.MinThreshold,
		}
		for _, s := range rb.StatusOverride {
			rj.StatusOverride = append(rj.StatusOverride, string(s))
		}
		for _, t := range rb.Tiers {
			rj.Tiers = append(rj.Tiers, TierJSON{Min: t.Min, Max: t.Max, Payout: t.Payout})
		}
		pj.RuleBlocks = append(pj.RuleBlocks, rj)
	}

	for _, g := range def.Gates {
		pj.Gates = append(pj.Gates, GateJSON{
			Name: g.Name, Type: string(g.Type), Threshold: g.Threshold, Bucket: string(g.Bucket),
		})
	}

	for _, bm := range def.BonusModules {
		mj := BonusModuleJSON{Name: bm.Name, Type: string(bm.Type)}
		if a := bm.Activity; a != nil {
			mj.Activity = &ActivityJSON{
				ActivityTypeID: a.ActivityTypeID, Threshold: a.Threshold, Payout: a.Payout, PerUnit: a.PerUnit,
			}
		}
		if sc := bm.Scorecard; sc != nil {
			sj := &ScorecardJSON{HighestTierWins: sc.HighestTierWins, StackTiers: sc.StackTiers}
			for _, t := range sc.Tiers {
				tj := ScorecardTierJSON{Name: t.Name, OrderIndex: t.OrderIndex, RequiresAll: t.RequiresAll}
				for _, c := range t.Conditions {
					tj.Conditions = append(tj.Conditions, ConditionJSON{
						Metric: string(c.Metric), Operator: string(c.Operator), Target: c.Target,
						PremiumCategory: string(c.PremiumCategory), ActivityTypeID: c.ActivityTypeID,
					})
				}
				for _, r := range t.Rewards {
					tj.Rewards = append(tj.Rewards, RewardJSON{
						Type: string(r.Type), Dollars: r.Dollars, Percent: r.Percent, Bucket: string(r.Bucket),
					})
				}
				sj.Tiers = append(sj.Tiers, tj)
			}
			mj.Scorecard = sj
		}
		pj.BonusModules = append(pj.BonusModules, mj)
	}

	return pj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

var (
	planStatuses = []string{string(compensation.PlanActive), string(compensation.PlanDraft), string(compensation.PlanArchived)}
	applyScopes  = []string{
		string(compensation.ScopeProduct), string(compensation.ScopeLOB),
		string(compensation.ScopeProductType), string(compensation.ScopePremiumCategory),
	}
	payoutTypes = []string{
		string(compensation.PayoutFlatPerApp), string(compensation.PayoutPercentOfPremium), string(compensation.PayoutFlatLumpSum),
	}
	tierModes  = []string{string(compensation.TierModeNone), string(compensation.TierModeTiers)}
	tierBases  = []string{string(compensation.BasisAppCount), string(compensation.BasisPremiumSum), string(compensation.BasisBucketValue)}
	categories = []string{string(compensation.CategoryPC), string(compensation.CategoryFS), string(compensation.CategoryIPS)}
	gateTypes  = []string{string(compensation.GateMinApps), string(compensation.GateMinPremium), string(compensation.GateMinBucket)}
	bonusTypes = []string{string(compensation.BonusActivity), string(compensation.BonusScorecard)}
	metrics    = []string{
		string(compensation.MetricPremiumCategory), string(compensation.MetricBucket),
		string(compensation.MetricAppsCount), string(compensation.MetricActivity),
	}
	operators = []string{
		string(compensation.OpGTE), string(compensation.OpGT), string(compensation.OpLTE),
		string(compensation.OpLT), string(compensation.OpEQ),
	}
	rewardTypes = []string{string(compensation.RewardFlatDollars), string(compensation.RewardPercentOfBucket)}
)

// builder accumulates validation errors while converting.
type builder struct {
	errs compensation.ValidationErrors
}

func (b *builder) fail(field, format string, args ...any) {
	b.errs = append(b.errs, &compensation.ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// enum normalizes s to upper case and reports it when not in allowed.
func (b *builder) enum(field, s string, allowed []string) string {
	v := strings.ToUpper(strings.TrimSpace(s))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	b.fail(field, "unknown value %q (want one of %s)", s, strings.Join(allowed, ", "))
	return v
}

// optionalEnum is enum for fields where empty means "unset".
func (b *builder) optionalEnum(field, s string, allowed []string) string {
	if s == "" {
		return ""
	}
	return b.enum(field, s, allowed)
}

func (b *builder) ruleBlock(path string, rj RuleBlockJSON) compensation.RuleBlock {
	rb := compensation.RuleBlock{
		Name:         rj.Name,
		Enabled:      rj.Enabled == nil || *rj.Enabled,
		ApplyScope:   compensation.ApplyScope(b.enum(path+".apply_scope", rj.ApplyScope, applyScopes)),
		Filters:      rj.Filters,
		PayoutType:   compensation.PayoutType(b.enum(path+".payout_type", rj.PayoutType, payoutTypes)),
		BasePayout:   rj.BasePayout,
		BasisBucket:  compensation.PremiumCategory(b.optionalEnum(path+".basis_bucket", rj.BasisBucket, categories)),
		MinThreshold: rj.MinThreshold,
	}
	if len(rb.Filters) == 0 {
		b.fail(path+".filters", "at least one filter is required")
	}
	for i, s := range rj.StatusOverride {
		status := compensation.PolicyStatus(strings.ToUpper(s))
		if !status.Valid() {
			b.fail(fmt.Sprintf("%s.status_override[%d]", path, i), "unknown status %q", s)
		}
		rb.StatusOverride = append(rb.StatusOverride, status)
	}

	switch {
	case rj.TierMode != "":
		rb.TierMode = compensation.TierMode(b.enum(path+".tier_mode", rj.TierMode, tierModes))
	case len(rj.Tiers) > 0:
		rb.TierMode = compensation.TierModeTiers
	default:
		rb.TierMode = compensation.TierModeNone
	}
	rb.TierBasis = compensation.BasisAppCount
	if rj.TierBasis != "" {
		rb.TierBasis = compensation.TierBasis(b.enum(path+".tier_basis", rj.TierBasis, tierBases))
	}
	if rb.TierBasis == compensation.BasisBucketValue && rb.BasisBucket == "" {
		b.fail(path+".basis_bucket", "is required for BUCKET_VALUE basis")
	}

	for j, tj := range rj.Tiers {
		if tj.Max != nil && !tj.Max.GreaterThan(tj.Min) {
			b.fail(fmt.Sprintf("%s.tiers[%d].max", path, j), "must be greater than min %s", tj.Min)
		}
		rb.Tiers = append(rb.Tiers, compensation.TierRow{Min: tj.Min, Max: tj.Max, Payout: tj.Payout})
	}
	return rb
}

func (b *builder) gate(path string, gj GateJSON) compensation.Gate {
	return compensation.Gate{
		Name:      gj.Name,
		Type:      compensation.GateType(b.enum(path+".type", gj.Type, gateTypes)),
		Threshold: gj.Threshold,
		Bucket:    compensation.PremiumCategory(b.optionalEnum(path+".bucket", gj.Bucket, categories)),
	}
}

func (b *builder) bonusModule(path string, mj BonusModuleJSON) compensation.BonusModule {
	bm := compensation.BonusModule{
		Name: mj.Name,
		Type: compensation.BonusType(b.enum(path+".type", mj.Type, bonusTypes)),
	}

	switch bm.Type {
	case compensation.BonusActivity:
		if mj.Activity == nil {
			b.fail(path+".activity", "is required for ACTIVITY_BONUS")
			return bm
		}
		bm.Activity = &compensation.ActivityBonus{
			ActivityTypeID: mj.Activity.ActivityTypeID,
			Threshold:      mj.Activity.Threshold,
			Payout:         mj.Activity.Payout,
			PerUnit:        mj.Activity.PerUnit,
		}
	case compensation.BonusScorecard:
		if mj.Scorecard == nil {
			b.fail(path+".scorecard", "is required for SCORECARD_TIER")
			return bm
		}
		bm.Scorecard = b.scorecard(path+".scorecard", *mj.Scorecard)
	}
	return bm
}

func (b *builder) scorecard(path string, sj ScorecardJSON) *compensation.Scorecard {
	sc := &compensation.Scorecard{HighestTierWins: sj.HighestTierWins, StackTiers: sj.StackTiers}
	for i, tj := range sj.Tiers {
		tp := fmt.Sprintf("%s.tiers[%d]", path, i)
		tier := compensation.ScorecardTier{
			Name:        tj.Name,
			OrderIndex:  tj.OrderIndex,
			RequiresAll: tj.RequiresAll,
		}
		for j, cj := range tj.Conditions {
			cp := fmt.Sprintf("%s.conditions[%d]", tp, j)
			tier.Conditions = append(tier.Conditions, compensation.Condition{
				Metric:          compensation.MetricSource(b.enum(cp+".metric", cj.Metric, metrics)),
				Operator:        compensation.Operator(b.enum(cp+".operator", cj.Operator, operators)),
				Target:          cj.Target,
				PremiumCategory: compensation.PremiumCategory(b.optionalEnum(cp+".premium_category", cj.PremiumCategory, categories)),
				ActivityTypeID:  cj.ActivityTypeID,
			})
		}
		for j, rj := range tj.Rewards {
			rp := fmt.Sprintf("%s.rewards[%d]", tp, j)
			tier.Rewards = append(tier.Rewards, compensation.Reward{
				Type:    compensation.RewardType(b.enum(rp+".type", rj.Type, rewardTypes)),
				Dollars: rj.Dollars,
				Percent: rj.Percent,
				Bucket:  compensation.PremiumCategory(b.optionalEnum(rp+".bucket", rj.Bucket, categories)),
			})
		}
		sc.Tiers = append(sc.Tiers, tier)
	}
	return sc
}
