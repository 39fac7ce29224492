/*
rules.go - Rule block evaluation: scope, threshold, tier selection, payout

PURPOSE:
  Each enabled rule block turns a scoped subset of the period's records into
  a commission amount and attributes that amount back to individual records
  and products.

EVALUATION STEPS (per rule, in list order):
  1. Scope filter with the rule's status override, else the period default
  2. Apps and premium of the filtered records
  3. Skip when the basis is below MinThreshold
  4. Pick the payout value: BasePayout (NONE) or the selected tier (TIERS)
  5. Amount and allocations by payout type

TIER SELECTION:
  The first tier whose [Min, Max) contains the basis wins. When none does,
  the LAST tier is used. A basis below the first tier's minimum therefore
  pays the top tier. This is the established behavior and is kept as is.

SKIPPED RULES:
  A rule that matches nothing, falls below its threshold, is tiered without
  tiers, or has an unknown payout type contributes nothing and is reported in
  SkippedRules with the reason. Nothing here returns an error.
*/
package compensation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// Allocation is the share of a rule amount attributed to one record.
type Allocation struct {
	RecordID  string          `json:"record_id"`
	ProductID string          `json:"product_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// TierStatus is one rung of a rendered tier ladder.
type TierStatus struct {
	Index     int              `json:"index"`
	Min       decimal.Decimal  `json:"min"`
	Max       *decimal.Decimal `json:"max,omitempty"`
	Label     string           `json:"label"`
	Achieved  bool             `json:"achieved"`
	Selected  bool             `json:"selected"`
	Remaining decimal.Decimal  `json:"remaining"`
}

// RuleResult is the outcome of one evaluated rule block.
type RuleResult struct {
	Name         string                     `json:"name"`
	PayoutType   PayoutType                 `json:"payout_type"`
	Amount       decimal.Decimal            `json:"amount"`
	Trace        string                     `json:"trace"`
	Apps         int64                      `json:"apps"`
	Premium      decimal.Decimal            `json:"premium"`
	Basis        decimal.Decimal            `json:"basis"`
	PayoutValue  decimal.Decimal            `json:"payout_value"`
	SelectedTier int                        `json:"selected_tier"` // -1 when not tiered
	TierFallback bool                       `json:"tier_fallback"`
	Allocations  []Allocation               `json:"allocations"`
	ByProduct    map[string]decimal.Decimal `json:"by_product"`
	Ladder       []TierStatus               `json:"ladder,omitempty"`
}

// SkippedRule names a rule that contributed nothing and why.
type SkippedRule struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Skip reasons.
const (
	SkipDisabled      = "disabled"
	SkipNoRecords     = "no matching records"
	SkipBelowMinimum  = "below minimum threshold"
	SkipNoTiers       = "tiered rule has no tiers"
	SkipUnknownPayout = "unknown payout type"
	SkipUnknownMode   = "unknown tier mode"
	SkipUnknownBasis  = "unknown tier basis"
)

// =============================================================================
// RULE EVALUATION
// =============================================================================

// EvaluateRules evaluates blocks in order. statuses is the period default,
// used by rules without an override.
func EvaluateRules(blocks []RuleBlock, records []SoldRecord, statuses StatusFilter) ([]RuleResult, []SkippedRule) {
	results := []RuleResult{}
	skipped := []SkippedRule{}
	for _, b := range blocks {
		res, skip := EvaluateRule(b, records, statuses)
		if skip != nil {
			skipped = append(skipped, *skip)
			continue
		}
		results = append(results, res)
	}
	return results, skipped
}

// EvaluateRule evaluates one block. A non-nil SkippedRule means the rule
// contributed nothing and the RuleResult is empty.
func EvaluateRule(block RuleBlock, records []SoldRecord, statuses StatusFilter) (RuleResult, *SkippedRule) {
	skip := func(reason string) (RuleResult, *SkippedRule) {
		return RuleResult{}, &SkippedRule{Name: block.Name, Reason: reason}
	}
	if !block.Enabled {
		return skip(SkipDisabled)
	}

	eligible := statuses
	if len(block.StatusOverride) > 0 {
		eligible = block.StatusOverride
	}
	matched := FilterRecords(records, block.ApplyScope, block.Filters, eligible)
	if len(matched) == 0 {
		return skip(SkipNoRecords)
	}

	m := Aggregate(matched)
	basis, ok := m.Basis(block.TierBasis, block.BasisBucket)
	if !ok {
		return skip(fmt.Sprintf("%s %q", SkipUnknownBasis, block.TierBasis))
	}
	if block.MinThreshold != nil && basis.LessThan(*block.MinThreshold) {
		return skip(fmt.Sprintf("%s: basis %s < %s", SkipBelowMinimum,
			FormatNumber(basis), FormatNumber(*block.MinThreshold)))
	}
	if !block.PayoutType.known() {
		return skip(fmt.Sprintf("%s %q", SkipUnknownPayout, block.PayoutType))
	}
	switch block.TierMode {
	case TierModeNone, "", TierModeTiers:
	default:
		return skip(fmt.Sprintf("%s %q", SkipUnknownMode, block.TierMode))
	}

	res := RuleResult{
		Name:         block.Name,
		PayoutType:   block.PayoutType,
		Apps:         m.Apps,
		Premium:      m.Premium,
		Basis:        basis,
		PayoutValue:  block.BasePayout,
		SelectedTier: -1,
	}

	var tierNote string
	if block.TierMode == TierModeTiers {
		if len(block.Tiers) == 0 {
			return skip(SkipNoTiers)
		}
		idx, fellBack := SelectTier(block.Tiers, basis)
		res.SelectedTier = idx
		res.TierFallback = fellBack
		res.PayoutValue = block.Tiers[idx].Payout
		res.Ladder = buildLadder(block, basis, idx)
		tierNote = fmt.Sprintf("tier %d %s on basis %s", idx+1,
			rangeLabel(block.Tiers[idx]), FormatNumber(basis))
		if fellBack {
			tierNote = fmt.Sprintf("no tier contains basis %s, using last tier %s",
				FormatNumber(basis), rangeLabel(block.Tiers[idx]))
		}
	}

	res.Amount, res.Allocations = allocate(block.PayoutType, res.PayoutValue, matched, m)
	res.ByProduct = make(map[string]decimal.Decimal)
	for _, a := range res.Allocations {
		res.ByProduct[a.ProductID] = res.ByProduct[a.ProductID].Add(a.Amount)
	}
	res.Trace = ruleTrace(res, tierNote)
	return res, nil
}

// SelectTier returns the index of the first tier containing basis. When no
// tier contains it, the last tier is returned with fellBack set.
// tiers must be non-empty.
func SelectTier(tiers []TierRow, basis decimal.Decimal) (index int, fellBack bool) {
	for i, t := range tiers {
		if t.Contains(basis) {
			return i, false
		}
	}
	return len(tiers) - 1, true
}

// =============================================================================
// PAYOUT + ALLOCATION
// =============================================================================

func (p PayoutType) known() bool {
	switch p {
	case PayoutFlatPerApp, PayoutPercentOfPremium, PayoutFlatLumpSum:
		return true
	}
	return false
}

// allocate computes the rule amount and its per-record attribution.
// Allocations always sum exactly to the amount.
func allocate(p PayoutType, value decimal.Decimal, records []SoldRecord, m Metrics) (decimal.Decimal, []Allocation) {
	allocs := make([]Allocation, len(records))
	for i, r := range records {
		allocs[i] = Allocation{RecordID: r.ID, ProductID: r.ProductID, Amount: decimal.Zero}
	}

	switch p {
	case PayoutFlatPerApp:
		for i := range allocs {
			allocs[i].Amount = value
		}
		return value.Mul(decimal.NewFromInt(m.Apps)), allocs

	case PayoutPercentOfPremium:
		for i, r := range records {
			allocs[i].Amount = value.Mul(r.Premium)
		}
		return value.Mul(m.Premium), allocs

	case PayoutFlatLumpSum:
		n := int64(len(records))
		share := value.Div(decimal.NewFromInt(n)).Truncate(2)
		for i := range allocs {
			allocs[i].Amount = share
		}
		allocs[n-1].Amount = value.Sub(share.Mul(decimal.NewFromInt(n - 1)))
		return value, allocs
	}
	return decimal.Zero, allocs
}

// payoutLabel describes a payout value for ladders and traces.
func payoutLabel(p PayoutType, value decimal.Decimal) string {
	switch p {
	case PayoutFlatPerApp:
		return FormatMoney(value) + "/app"
	case PayoutPercentOfPremium:
		return FormatRate(value) + " of premium"
	case PayoutFlatLumpSum:
		return FormatMoney(value) + " flat"
	}
	return value.String()
}

func rangeLabel(t TierRow) string {
	if t.Max == nil {
		return fmt.Sprintf("[%s, +)", FormatNumber(t.Min))
	}
	return fmt.Sprintf("[%s, %s)", FormatNumber(t.Min), FormatNumber(*t.Max))
}

// =============================================================================
// LADDER + TRACE
// =============================================================================

func buildLadder(block RuleBlock, basis decimal.Decimal, selected int) []TierStatus {
	ladder := make([]TierStatus, len(block.Tiers))
	for i, t := range block.Tiers {
		achieved := basis.GreaterThanOrEqual(t.Min)
		remaining := decimal.Zero
		if !achieved {
			remaining = t.Min.Sub(basis)
		}
		ladder[i] = TierStatus{
			Index:     i,
			Min:       t.Min,
			Max:       t.Max,
			Label:     rangeLabel(t) + " " + payoutLabel(block.PayoutType, t.Payout),
			Achieved:  achieved,
			Selected:  i == selected,
			Remaining: remaining,
		}
	}
	return ladder
}

func ruleTrace(res RuleResult, tierNote string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s apps, %s premium", res.Name,
		FormatNumber(decimal.NewFromInt(res.Apps)), FormatMoney(res.Premium))
	if tierNote != "" {
		b.WriteString("; " + tierNote)
	}
	switch res.PayoutType {
	case PayoutFlatPerApp:
		fmt.Fprintf(&b, "; %s x %d apps", FormatMoney(res.PayoutValue), res.Apps)
	case PayoutPercentOfPremium:
		fmt.Fprintf(&b, "; %s x %s", FormatRate(res.PayoutValue), FormatMoney(res.Premium))
	case PayoutFlatLumpSum:
		fmt.Fprintf(&b, "; lump sum split over %d records", len(res.Allocations))
	}
	fmt.Fprintf(&b, " = %s", FormatMoney(res.Amount))
	return b.String()
}
