package compensation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// GATE EVALUATOR
// =============================================================================
// A gate compares one aggregate of the period's eligible records to a
// threshold. An unmet gate blocks monetary payout; it is an output state,
// not an error. MIN_BUCKET compares total premium, not the bucket named on
// the gate.

// GateResult is the outcome of one gate.
type GateResult struct {
	Name      string          `json:"name"`
	Type      GateType        `json:"type"`
	Actual    decimal.Decimal `json:"actual"`
	Threshold decimal.Decimal `json:"threshold"`
	Shortfall decimal.Decimal `json:"shortfall"`
	Passed    bool            `json:"passed"`
	Message   string          `json:"message"`
}

// GateStatus summarizes every gate of a plan.
type GateStatus struct {
	Blocked bool         `json:"blocked"`
	Reasons []string     `json:"reasons"`
	Passes  []string     `json:"passes"`
	Results []GateResult `json:"results"`
}

// EvaluateGates checks gates against the records eligible under statuses.
func EvaluateGates(gates []Gate, records []SoldRecord, statuses StatusFilter) GateStatus {
	return evaluateGates(gates, Aggregate(statuses.Filter(records)))
}

func evaluateGates(gates []Gate, m Metrics) GateStatus {
	status := GateStatus{Reasons: []string{}, Passes: []string{}, Results: []GateResult{}}

	for _, g := range gates {
		actual, unit, known := gateActual(g.Type, m)
		if !known {
			status.Passes = append(status.Passes,
				fmt.Sprintf("gate %q: unknown type %q ignored", g.Name, g.Type))
			continue
		}

		res := GateResult{
			Name:      g.Name,
			Type:      g.Type,
			Actual:    actual,
			Threshold: g.Threshold,
			Shortfall: decimal.Zero,
			Passed:    actual.GreaterThanOrEqual(g.Threshold),
		}
		if res.Passed {
			res.Message = fmt.Sprintf("gate %q met: %s %s (minimum %s)",
				g.Name, unit(actual), g.Type.noun(), unit(g.Threshold))
			status.Passes = append(status.Passes, res.Message)
		} else {
			res.Shortfall = g.Threshold.Sub(actual)
			res.Message = fmt.Sprintf("gate %q not met: %s of %s %s, %s short",
				g.Name, unit(actual), unit(g.Threshold), g.Type.noun(), unit(res.Shortfall))
			status.Reasons = append(status.Reasons, res.Message)
			status.Blocked = true
		}
		status.Results = append(status.Results, res)
	}
	return status
}

// gateActual returns the aggregate a gate type reads and how to render it.
func gateActual(t GateType, m Metrics) (decimal.Decimal, func(decimal.Decimal) string, bool) {
	switch t {
	case GateMinApps:
		return decimal.NewFromInt(m.Apps), FormatNumber, true
	case GateMinPremium, GateMinBucket:
		return m.Premium, FormatMoney, true
	default:
		return decimal.Zero, nil, false
	}
}

func (t GateType) noun() string {
	switch t {
	case GateMinApps:
		return "apps"
	case GateMinBucket:
		return "premium (all buckets)"
	default:
		return "premium"
	}
}
