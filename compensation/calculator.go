/*
calculator.go - Resolve, fetch and evaluate against collaborators

PURPOSE:
  Evaluate is pure. Calculator is the thin shell around it that talks to the
  stores: it looks up the person, resolves the plan, loads the period's
  records and activity counts and hands everything to Evaluate.

RECORD QUERY:
  Rules may widen the eligible statuses with an override. The record query
  therefore asks for the union of the period filter and every override; the
  evaluator narrows again per rule and for gates.

BATCH:
  CalculateBatch runs one Calculate per request with bounded concurrency.
  A failure for one person is kept in that person's BatchResult and does not
  stop the others. Results keep the request order.

SEE ALSO:
  - resolver.go: Plan resolution
  - payout.go: Evaluate
*/
package compensation

import (
	"context"

	"github.com/rotisserie/eris"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("compensation")

// DefaultBatchConcurrency is used when CalculateBatch gets a limit below 1.
const DefaultBatchConcurrency = 8

// Request asks for one person's payout in one period.
// Identity takes precedence; when it is empty PersonID is looked up.
type Request struct {
	PersonID       string       `json:"person_id"`
	Identity       *Identity    `json:"identity,omitempty"`
	PeriodKey      string       `json:"period"`
	IncludeWritten bool         `json:"include_written"`
	Statuses       StatusFilter `json:"statuses,omitempty"` // overrides IncludeWritten
}

// statuses returns the period status filter for the request.
func (r Request) statuses() StatusFilter {
	if len(r.Statuses) > 0 {
		return r.Statuses
	}
	return DefaultStatuses(r.IncludeWritten)
}

// BatchResult pairs a request with its breakdown or error.
type BatchResult struct {
	Request   Request    `json:"request"`
	Breakdown *Breakdown `json:"breakdown,omitempty"`
	Err       error      `json:"-"`
}

// Calculator evaluates payouts through the collaborator stores.
// Activities may be nil; evaluation then sees no activity.
type Calculator struct {
	Resolver   *Resolver
	People     PersonStore
	Records    RecordStore
	Activities ActivityStore
}

// NewCalculator wires every collaborator to one Store.
func NewCalculator(st Store) *Calculator {
	return &Calculator{
		Resolver:   &Resolver{Assignments: st, Plans: st},
		People:     st,
		Records:    st,
		Activities: st,
	}
}

// Calculate evaluates one request.
func (c *Calculator) Calculate(ctx context.Context, req Request) (*Breakdown, error) {
	ctx, span := tracer.Start(ctx, "compensation.Calculate",
		trace.WithAttributes(
			attribute.String("person.id", req.PersonID),
			attribute.String("period", req.PeriodKey),
		),
	)
	defer span.End()

	b, err := c.calculate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Bool("blocked", b.Blocked),
		attribute.Bool("no_plan", b.NoPlan),
		attribute.String("total", b.Total.String()),
	)
	return b, nil
}

func (c *Calculator) calculate(ctx context.Context, req Request) (*Breakdown, error) {
	period, err := ParsePeriod(req.PeriodKey)
	if err != nil {
		return nil, err
	}
	statuses := req.statuses()
	for _, s := range statuses {
		if !s.Valid() {
			return nil, &ValidationError{Field: "statuses", Message: "unknown status " + string(s)}
		}
	}

	identity, err := c.identity(ctx, req)
	if err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("person", identity.PersonID), zap.String("period", period.Key))

	plan, err := c.Resolver.Resolve(ctx, identity, period)
	if err != nil {
		return nil, eris.Wrapf(err, "compensation: resolve plan for %s", identity.PersonID)
	}

	in := Input{PersonID: identity.PersonID, Period: period, Plan: plan, Statuses: statuses}
	if plan == nil {
		log.Debug("no plan assigned")
		b := Evaluate(in)
		return &b, nil
	}

	query := statuses
	for _, rb := range plan.RuleBlocks {
		query = query.Union(rb.StatusOverride)
	}
	in.Records, err = c.Records.SoldRecords(ctx, RecordQuery{
		PersonID: identity.PersonID,
		From:     period.Start,
		To:       period.End,
		Statuses: query,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "compensation: load records for %s", identity.PersonID)
	}
	if c.Activities != nil {
		in.Activities, err = c.Activities.ActivityCounts(ctx, identity.PersonID, period.Start, period.End)
		if err != nil {
			return nil, eris.Wrapf(err, "compensation: load activities for %s", identity.PersonID)
		}
	}

	if err := in.Validate(); err != nil {
		return nil, err
	}
	b := Evaluate(in)
	log.Debug("evaluated payout",
		zap.String("plan", plan.PlanID),
		zap.Int("records", len(in.Records)),
		zap.Bool("blocked", b.Blocked),
		zap.String("total", b.Total.String()),
	)
	return &b, nil
}

func (c *Calculator) identity(ctx context.Context, req Request) (Identity, error) {
	if req.Identity != nil && req.Identity.PersonID != "" {
		return *req.Identity, nil
	}
	if req.PersonID == "" {
		return Identity{}, &ValidationError{Field: "person_id", Message: "required"}
	}
	if c.People == nil {
		return Identity{PersonID: req.PersonID}, nil
	}
	p, err := c.People.GetPerson(ctx, req.PersonID)
	if err != nil {
		return Identity{}, eris.Wrapf(err, "compensation: load person %s", req.PersonID)
	}
	return p.Identity(), nil
}

// CalculateBatch evaluates every request with at most concurrency in flight.
func (c *Calculator) CalculateBatch(ctx context.Context, reqs []Request, concurrency int) []BatchResult {
	if concurrency < 1 {
		concurrency = DefaultBatchConcurrency
	}
	results := make([]BatchResult, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			b, err := c.Calculate(gctx, req)
			results[i] = BatchResult{Request: req, Breakdown: b, Err: err}
			if err != nil {
				zap.L().Warn("payout calculation failed",
					zap.String("person", req.PersonID),
					zap.String("period", req.PeriodKey),
					zap.Error(err),
				)
			}
			return nil // one person failing must not cancel the rest
		})
	}
	_ = g.Wait()
	return results
}
