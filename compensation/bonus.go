/*
bonus.go - Activity bonuses and scorecard tiers

PURPOSE:
  Bonus modules pay on top of commission. Every module emits a card, achieved
  or not, so a caller can render progress and the path to the next level.

ACTIVITY_BONUS:
  achieved = count >= threshold
  amount   = achieved ? (perUnit ? payout x count : payout) : 0

SCORECARD_TIER:
  Tiers are evaluated in OrderIndex order. A tier is satisfied when all
  (RequiresAll) or any of its conditions hold.

  Selection:  highestTierWins ? last satisfied : first satisfied
  Amount:     stackTiers ? sum of every satisfied tier : selected tier

  Conditions are evaluated through two lookup tables, one keyed by metric
  source and one by operator. Anything not in a table is false.

SEE ALSO:
  - scope.go: Metrics read by conditions
  - payout.go: Combines cards into the Breakdown
*/
package compensation

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// BonusCard is the outcome of one bonus module.
type BonusCard struct {
	Name      string            `json:"name"`
	Type      BonusType         `json:"type"`
	Amount    decimal.Decimal   `json:"amount"`
	Potential decimal.Decimal   `json:"potential"`
	Achieved  bool              `json:"achieved"`
	Activity  *ActivityProgress `json:"activity,omitempty"`
	Tiers     []TierCard        `json:"tiers,omitempty"`
	Note      string            `json:"note,omitempty"`
}

// ActivityProgress tracks an activity count toward its threshold.
type ActivityProgress struct {
	ActivityTypeID string          `json:"activity_type_id"`
	Current        int64           `json:"current"`
	Target         int64           `json:"target"`
	Percent        decimal.Decimal `json:"percent"`
	Remaining      int64           `json:"remaining"`
}

// TierCard is the progress of one scorecard tier.
type TierCard struct {
	Name        string              `json:"name"`
	OrderIndex  int                 `json:"order_index"`
	RequiresAll bool                `json:"requires_all"`
	Satisfied   bool                `json:"satisfied"`
	Selected    bool                `json:"selected"`
	Reward      decimal.Decimal     `json:"reward"`
	Conditions  []ConditionProgress `json:"conditions"`
}

// ConditionProgress is the state of one scorecard condition.
type ConditionProgress struct {
	Metric    MetricSource    `json:"metric"`
	Operator  Operator        `json:"operator"`
	Qualifier string          `json:"qualifier,omitempty"`
	Current   decimal.Decimal `json:"current"`
	Target    decimal.Decimal `json:"target"`
	Percent   decimal.Decimal `json:"percent"`
	Remaining decimal.Decimal `json:"remaining"`
	Met       bool            `json:"met"`
}

// =============================================================================
// BONUS EVALUATION
// =============================================================================

// ActivityTotals sums activity counts per type for one person. Rows without
// a PersonID are counted as the person's.
func ActivityTotals(personID string, activities []ActivityCount) map[string]int64 {
	totals := make(map[string]int64)
	for _, a := range activities {
		if a.PersonID != "" && a.PersonID != personID {
			continue
		}
		totals[a.ActivityTypeID] += a.Count
	}
	return totals
}

// EvaluateBonuses evaluates modules in order against the period metrics and
// activity totals.
func EvaluateBonuses(modules []BonusModule, m Metrics, activity map[string]int64) []BonusCard {
	cards := make([]BonusCard, 0, len(modules))
	for _, mod := range modules {
		cards = append(cards, EvaluateBonus(mod, m, activity))
	}
	return cards
}

// EvaluateBonus evaluates one module. A module whose variant does not match
// its type contributes zero.
func EvaluateBonus(mod BonusModule, m Metrics, activity map[string]int64) BonusCard {
	switch {
	case mod.Type == BonusActivity && mod.Activity != nil:
		return evaluateActivity(mod.Name, *mod.Activity, activity)
	case mod.Type == BonusScorecard && mod.Scorecard != nil:
		return evaluateScorecard(mod.Name, *mod.Scorecard, m, activity)
	}
	return BonusCard{
		Name:      mod.Name,
		Type:      mod.Type,
		Amount:    decimal.Zero,
		Potential: decimal.Zero,
		Note:      fmt.Sprintf("bonus module %q is not configured for type %q", mod.Name, mod.Type),
	}
}

// =============================================================================
// ACTIVITY BONUS
// =============================================================================

func evaluateActivity(name string, cfg ActivityBonus, activity map[string]int64) BonusCard {
	count := activity[cfg.ActivityTypeID]
	achieved := count >= cfg.Threshold

	card := BonusCard{
		Name:      name,
		Type:      BonusActivity,
		Amount:    decimal.Zero,
		Potential: cfg.Payout,
		Achieved:  achieved,
		Activity: &ActivityProgress{
			ActivityTypeID: cfg.ActivityTypeID,
			Current:        count,
			Target:         cfg.Threshold,
			Percent:        progressPercent(decimal.NewFromInt(count), decimal.NewFromInt(cfg.Threshold)),
			Remaining:      max(cfg.Threshold-count, 0),
		},
	}
	if cfg.PerUnit {
		card.Potential = cfg.Payout.Mul(decimal.NewFromInt(max(count, cfg.Threshold)))
	}
	if achieved {
		card.Amount = cfg.Payout
		if cfg.PerUnit {
			card.Amount = cfg.Payout.Mul(decimal.NewFromInt(count))
		}
	}
	return card
}

// =============================================================================
// SCORECARD
// =============================================================================

func evaluateScorecard(name string, sc Scorecard, m Metrics, activity map[string]int64) BonusCard {
	tiers := append([]ScorecardTier(nil), sc.Tiers...)
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].OrderIndex < tiers[j].OrderIndex })

	card := BonusCard{
		Name:      name,
		Type:      BonusScorecard,
		Amount:    decimal.Zero,
		Potential: decimal.Zero,
		Tiers:     make([]TierCard, len(tiers)),
	}

	selected := -1
	stacked := decimal.Zero
	for i, t := range tiers {
		tc := TierCard{
			Name:        t.Name,
			OrderIndex:  t.OrderIndex,
			RequiresAll: t.RequiresAll,
			Reward:      tierReward(t.Rewards, m),
			Conditions:  make([]ConditionProgress, len(t.Conditions)),
		}
		met := 0
		for j, c := range t.Conditions {
			tc.Conditions[j] = evaluateCondition(c, m, activity)
			if tc.Conditions[j].Met {
				met++
			}
		}
		switch {
		case len(t.Conditions) == 0:
			tc.Satisfied = false
		case t.RequiresAll:
			tc.Satisfied = met == len(t.Conditions)
		default:
			tc.Satisfied = met > 0
		}

		if tc.Satisfied {
			stacked = stacked.Add(tc.Reward)
			if selected < 0 || sc.HighestTierWins {
				selected = i
			}
		}
		if sc.StackTiers {
			card.Potential = card.Potential.Add(tc.Reward)
		} else if tc.Reward.GreaterThan(card.Potential) {
			card.Potential = tc.Reward
		}
		card.Tiers[i] = tc
	}

	if selected >= 0 {
		card.Achieved = true
		card.Tiers[selected].Selected = true
		card.Amount = card.Tiers[selected].Reward
		if sc.StackTiers {
			card.Amount = stacked
		}
	}
	return card
}

// tierReward is the sum of a tier's rewards.
func tierReward(rewards []Reward, m Metrics) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rewards {
		switch r.Type {
		case RewardFlatDollars:
			total = total.Add(r.Dollars)
		case RewardPercentOfBucket:
			total = total.Add(r.Percent.Mul(m.Bucket(r.Bucket)))
		}
	}
	return total
}

// =============================================================================
// CONDITIONS - Dispatch tables
// =============================================================================

type metricReader func(c Condition, m Metrics, activity map[string]int64) decimal.Decimal

var metricReaders = map[MetricSource]metricReader{
	MetricPremiumCategory: func(c Condition, m Metrics, _ map[string]int64) decimal.Decimal {
		return m.Bucket(c.PremiumCategory)
	},
	MetricBucket: func(c Condition, m Metrics, _ map[string]int64) decimal.Decimal {
		return m.Bucket(c.PremiumCategory)
	},
	MetricAppsCount: func(c Condition, m Metrics, _ map[string]int64) decimal.Decimal {
		return decimal.NewFromInt(m.AppsIn(c.PremiumCategory))
	},
	MetricActivity: func(c Condition, _ Metrics, activity map[string]int64) decimal.Decimal {
		return decimal.NewFromInt(activity[c.ActivityTypeID])
	},
}

var operators = map[Operator]func(current, target decimal.Decimal) bool{
	OpGTE: func(a, b decimal.Decimal) bool { return a.GreaterThanOrEqual(b) },
	OpGT:  func(a, b decimal.Decimal) bool { return a.GreaterThan(b) },
	OpLTE: func(a, b decimal.Decimal) bool { return a.LessThanOrEqual(b) },
	OpLT:  func(a, b decimal.Decimal) bool { return a.LessThan(b) },
	OpEQ:  func(a, b decimal.Decimal) bool { return a.Equal(b) },
}

func evaluateCondition(c Condition, m Metrics, activity map[string]int64) ConditionProgress {
	p := ConditionProgress{
		Metric:    c.Metric,
		Operator:  c.Operator,
		Qualifier: c.qualifier(),
		Current:   decimal.Zero,
		Target:    c.Target,
		Percent:   decimal.Zero,
		Remaining: decimal.Zero,
	}
	read, okMetric := metricReaders[c.Metric]
	compare, okOp := operators[c.Operator]
	if !okMetric || !okOp {
		return p
	}

	p.Current = read(c, m, activity)
	p.Met = compare(p.Current, c.Target)

	switch c.Operator {
	case OpLT, OpLTE:
		if p.Met {
			p.Percent = hundred
		} else {
			p.Remaining = p.Current.Sub(c.Target)
		}
	default:
		p.Percent = progressPercent(p.Current, c.Target)
		if p.Met {
			p.Percent = hundred
		} else if p.Current.LessThan(c.Target) {
			p.Remaining = c.Target.Sub(p.Current)
		}
	}
	return p
}

func (c Condition) qualifier() string {
	if c.Metric == MetricActivity {
		return c.ActivityTypeID
	}
	return string(c.PremiumCategory)
}

// progressPercent is current/target as a percentage capped at 100.
// A non-positive target counts as complete.
func progressPercent(current, target decimal.Decimal) decimal.Decimal {
	if !target.IsPositive() {
		return hundred
	}
	pct := current.Div(target).Mul(hundred).Round(2)
	if pct.GreaterThan(hundred) {
		return hundred
	}
	if pct.IsNegative() {
		return decimal.Zero
	}
	return pct
}
