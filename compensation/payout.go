package compensation

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// PAYOUT AGGREGATOR
// =============================================================================

// NoPlanMessage is shown when no assignment resolves to a plan.
const NoPlanMessage = "no plan assigned"

// Input is everything one evaluation reads. It must be validated at the
// boundary (see Validate); Evaluate assumes it is well formed.
type Input struct {
	PersonID   string
	Period     Period
	Plan       *ResolvedPlan // nil = no plan assigned
	Records    []SoldRecord
	Activities []ActivityCount
	Statuses   StatusFilter // empty = DefaultStatuses(false)
}

// Breakdown is the full result of one evaluation.
// When Blocked, Commission, Bonus and Total are zero while every detail and
// both potentials are still populated.
type Breakdown struct {
	PersonID    string `json:"person_id"`
	Period      string `json:"period"`
	PlanID      string `json:"plan_id,omitempty"`
	PlanName    string `json:"plan_name,omitempty"`
	PlanVersion int    `json:"plan_version,omitempty"`
	NoPlan      bool   `json:"no_plan"`
	Message     string `json:"message,omitempty"`

	Blocked      bool         `json:"blocked"`
	BlockReasons []string     `json:"block_reasons"`
	PassTraces   []string     `json:"pass_traces"`
	GateResults  []GateResult `json:"gate_results"`

	Rules        []RuleResult  `json:"rules"`
	SkippedRules []SkippedRule `json:"skipped_rules"`
	Bonuses      []BonusCard   `json:"bonuses"`

	CommissionPotential decimal.Decimal `json:"commission_potential"`
	BonusPotential      decimal.Decimal `json:"bonus_potential"`
	Commission          decimal.Decimal `json:"commission"`
	Bonus               decimal.Decimal `json:"bonus"`
	Total               decimal.Decimal `json:"total"`

	ByProduct map[string]decimal.Decimal `json:"by_product"`
}

// Evaluate runs gates, rules and bonuses and aggregates the payout.
// It performs no I/O and never fails.
func Evaluate(in Input) Breakdown {
	b := Breakdown{
		PersonID:            in.PersonID,
		Period:              in.Period.Key,
		BlockReasons:        []string{},
		PassTraces:          []string{},
		GateResults:         []GateResult{},
		Rules:               []RuleResult{},
		SkippedRules:        []SkippedRule{},
		Bonuses:             []BonusCard{},
		CommissionPotential: decimal.Zero,
		BonusPotential:      decimal.Zero,
		Commission:          decimal.Zero,
		Bonus:               decimal.Zero,
		Total:               decimal.Zero,
		ByProduct:           map[string]decimal.Decimal{},
	}
	if in.Plan == nil {
		b.NoPlan = true
		b.Message = NoPlanMessage
		return b
	}
	b.PlanID = in.Plan.PlanID
	b.PlanName = in.Plan.PlanName
	b.PlanVersion = in.Plan.Version

	statuses := in.Statuses
	if len(statuses) == 0 {
		statuses = DefaultStatuses(false)
	}
	metrics := Aggregate(statuses.Filter(in.Records))

	gates := evaluateGates(in.Plan.Gates, metrics)
	b.Blocked = gates.Blocked
	b.BlockReasons = gates.Reasons
	b.PassTraces = gates.Passes
	b.GateResults = gates.Results

	b.Rules, b.SkippedRules = EvaluateRules(in.Plan.RuleBlocks, in.Records, statuses)
	for _, r := range b.Rules {
		b.CommissionPotential = b.CommissionPotential.Add(r.Amount)
		for product, amt := range r.ByProduct {
			b.ByProduct[product] = b.ByProduct[product].Add(amt)
		}
	}

	b.Bonuses = EvaluateBonuses(in.Plan.BonusModules, metrics, ActivityTotals(in.PersonID, in.Activities))
	for _, c := range b.Bonuses {
		if c.Achieved {
			b.BonusPotential = b.BonusPotential.Add(c.Amount)
		}
	}

	if !b.Blocked {
		b.Commission = b.CommissionPotential
		b.Bonus = b.BonusPotential
		b.Total = b.Commission.Add(b.Bonus)
	}
	return b
}

// EvaluateChecked validates in and then evaluates it.
func EvaluateChecked(in Input) (Breakdown, error) {
	if err := in.Validate(); err != nil {
		return Breakdown{}, err
	}
	return Evaluate(in), nil
}
