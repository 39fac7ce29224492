/*
handlers_test.go - HTTP tests for the API handlers

Each test drives the real router over an in-memory store.
*/
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadeemz7/tracktowin-sub002/compensation"
	"github.com/nadeemz7/tracktowin-sub002/compensation/store"
	"github.com/nadeemz7/tracktowin-sub002/factory"
)

func newTestServer(t *testing.T) (*Handler, http.Handler) {
	t.Helper()
	h := NewHandler(store.NewMemory())
	return h, NewRouter(h, nil)
}

func do(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func loadAgencyScenario(t *testing.T, srv http.Handler) {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "agency-standard", Period: "2025-03"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func autoPlan() *factory.PlanJSON {
	return &factory.PlanJSON{
		ID:   "inline",
		Name: "Inline",
		RuleBlocks: []factory.RuleBlockJSON{{
			Name:       "Auto",
			ApplyScope: "PRODUCT",
			Filters:    []string{"auto"},
			PayoutType: "FLAT_PER_APP",
			BasePayout: decimal.NewFromInt(10),
		}},
	}
}

func autoRecord(status string) RecordRequest {
	return RecordRequest{
		ProductID:       "auto",
		PremiumCategory: "PC",
		ProductType:     "PERSONAL",
		Premium:         decimal.NewFromInt(1000),
		DateSold:        "2025-03-05",
		Status:          status,
	}
}

// =============================================================================
// EVALUATE
// =============================================================================

func TestEvaluate_InlinePlan(t *testing.T) {
	_, srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/evaluate", EvaluateRequest{
		PersonID: "p-1",
		Period:   "2025-03",
		Plan:     autoPlan(),
		Records:  []RecordRequest{autoRecord("ISSUED"), autoRecord("ISSUED"), autoRecord("WRITTEN")},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	b := decode[compensation.Breakdown](t, rec)
	assert.Equal(t, "inline", b.PlanID)
	assert.True(t, b.Total.Equal(decimal.NewFromInt(20)), b.Total.String())
}

func TestEvaluate_IncludeWritten(t *testing.T) {
	_, srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/evaluate", EvaluateRequest{
		PersonID:       "p-1",
		Period:         "2025-03",
		Plan:           autoPlan(),
		Records:        []RecordRequest{autoRecord("ISSUED"), autoRecord("WRITTEN")},
		IncludeWritten: true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	b := decode[compensation.Breakdown](t, rec)
	assert.True(t, b.Total.Equal(decimal.NewFromInt(20)), b.Total.String())
}

func TestEvaluate_NoPlan(t *testing.T) {
	_, srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/evaluate", EvaluateRequest{
		PersonID: "p-1",
		Period:   "2025-03",
		Records:  []RecordRequest{autoRecord("ISSUED")},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	b := decode[compensation.Breakdown](t, rec)
	assert.True(t, b.NoPlan)
	assert.Equal(t, compensation.NoPlanMessage, b.Message)
	assert.True(t, b.Total.IsZero())
}

func TestEvaluate_BadInput(t *testing.T) {
	_, srv := newTestServer(t)

	tests := []struct {
		name string
		req  EvaluateRequest
	}{
		{"bad period", EvaluateRequest{PersonID: "p-1", Period: "2025-13"}},
		{"bad status filter", EvaluateRequest{PersonID: "p-1", Period: "2025-03", Statuses: []string{"LAPSED"}}},
		{"bad record date", EvaluateRequest{PersonID: "p-1", Period: "2025-03",
			Records: []RecordRequest{{ProductID: "auto", DateSold: "03/05/2025", Status: "ISSUED"}}}},
		{"negative premium", EvaluateRequest{PersonID: "p-1", Period: "2025-03", Plan: autoPlan(),
			Records: []RecordRequest{{ProductID: "auto", Premium: decimal.NewFromInt(-1), DateSold: "2025-03-01", Status: "ISSUED"}}}},
		{"invalid plan", EvaluateRequest{PersonID: "p-1", Period: "2025-03", Plan: &factory.PlanJSON{Name: "no id"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/evaluate", tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, "invalid_input", resp.Code)
		})
	}
}

func TestEvaluate_MalformedBody(t *testing.T) {
	_, srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/evaluate", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// STORED DATA
// =============================================================================

func TestScenarioPayout(t *testing.T) {
	_, srv := newTestServer(t)
	loadAgencyScenario(t, srv)

	rec := do(t, srv, http.MethodGet, "/api/people/avery/payout?period=2025-03", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	b := decode[compensation.Breakdown](t, rec)
	assert.True(t, b.Total.Equal(decimal.NewFromInt(726)), b.Total.String())

	rec = do(t, srv, http.MethodGet, "/api/people/avery/payout?period=2025-03&include_written=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	b = decode[compensation.Breakdown](t, rec)
	assert.True(t, b.Total.Equal(decimal.NewFromInt(736)), b.Total.String())

	rec = do(t, srv, http.MethodGet, "/api/people/avery/payout?period=2025-03&include_written=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPayout_Errors(t *testing.T) {
	_, srv := newTestServer(t)
	loadAgencyScenario(t, srv)

	rec := do(t, srv, http.MethodGet, "/api/people/nobody/payout?period=2025-03", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/people/avery/payout?period=March", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetResolvedPlan(t *testing.T) {
	_, srv := newTestServer(t)
	loadAgencyScenario(t, srv)

	rec := do(t, srv, http.MethodGet, "/api/people/avery/plan?period=2025-03", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	plan := decode[compensation.ResolvedPlan](t, rec)
	assert.Equal(t, "agency-standard", plan.PlanID)
	assert.Equal(t, compensation.LevelAgency, plan.Scope)

	rec = do(t, srv, http.MethodGet, "/api/people/casey/plan?period=2025-03", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no_plan", decode[ErrorResponse](t, rec).Code)
}

func TestPeopleRecordsAndAssignments(t *testing.T) {
	_, srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/people", CreatePersonRequest{ID: "dana", Name: "Dana", TeamID: "east"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/plans", autoPlan())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/assignments", CreateAssignmentRequest{
		ScopeType: "team", ScopeID: "east", PlanID: "inline", EffectiveStart: "2025-01-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	a := decode[AssignmentDTO](t, rec)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "TEAM", a.ScopeType)
	assert.True(t, a.Active)

	rec = do(t, srv, http.MethodPost, "/api/people/dana/records", AddRecordsRequest{
		Records: []RecordRequest{autoRecord("ISSUED"), autoRecord("PAID"), autoRecord("ISSUED")},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/people/dana/payout?period=2025-03", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	b := decode[compensation.Breakdown](t, rec)
	assert.True(t, b.Total.Equal(decimal.NewFromInt(30)), b.Total.String())

	// Effective start after the period end.
	rec = do(t, srv, http.MethodGet, "/api/people/dana/payout?period=2024-12", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[compensation.Breakdown](t, rec).NoPlan)

	people := decode[[]PersonDTO](t, do(t, srv, http.MethodGet, "/api/people", nil))
	require.Len(t, people, 1)
	assert.Equal(t, "east", people[0].TeamID)
}

func TestAddRecords_Validation(t *testing.T) {
	_, srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/people/ghost/records", AddRecordsRequest{Records: []RecordRequest{autoRecord("ISSUED")}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	do(t, srv, http.MethodPost, "/api/people", CreatePersonRequest{ID: "dana"})
	rec = do(t, srv, http.MethodPost, "/api/people/dana/records", AddRecordsRequest{Records: []RecordRequest{autoRecord("LAPSED")}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/people/dana/activities", AddActivitiesRequest{
		Activities: []ActivityRequest{{ActivityTypeID: "call", Count: 5, Date: "yesterday"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/people/dana/activities", AddActivitiesRequest{
		Activities: []ActivityRequest{{ActivityTypeID: "call", Count: -5}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/people/dana/activities", AddActivitiesRequest{
		Activities: []ActivityRequest{{ActivityTypeID: "call", Count: 5}},
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateAssignment_Validation(t *testing.T) {
	_, srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/assignments", CreateAssignmentRequest{ScopeType: "region", EffectiveStart: "soon"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[struct {
		Details []fieldError `json:"details"`
	}](t, rec)
	assert.Len(t, resp.Details, 4)

	rec = do(t, srv, http.MethodPost, "/api/assignments", CreateAssignmentRequest{ScopeType: "PERSON", ScopeID: "x", PlanID: "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlans(t *testing.T) {
	_, srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/plans", &factory.PlanJSON{
		ID: "bad",
		RuleBlocks: []factory.RuleBlockJSON{{
			Name: "x", ApplyScope: "PLANET", PayoutType: "FLAT_PER_APP",
		}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/plans", autoPlan())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/plans/inline", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pj := decode[factory.PlanJSON](t, rec)
	assert.Equal(t, "ACTIVE", pj.Status)
	require.Len(t, pj.RuleBlocks, 1)

	plans := decode[[]factory.PlanJSON](t, do(t, srv, http.MethodGet, "/api/plans", nil))
	assert.Len(t, plans, 1)

	rec = do(t, srv, http.MethodGet, "/api/plans/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// BATCH + SCENARIOS
// =============================================================================

func TestBatch(t *testing.T) {
	_, srv := newTestServer(t)
	loadAgencyScenario(t, srv)

	rec := do(t, srv, http.MethodPost, "/api/batch", BatchRequest{Period: "2025-03"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[BatchResponse](t, rec)
	assert.NotEmpty(t, resp.RunID)
	require.Len(t, resp.Results, 2)

	byID := map[string]BatchItemDTO{}
	for _, item := range resp.Results {
		byID[item.PersonID] = item
	}
	require.NotNil(t, byID["avery"].Breakdown)
	assert.True(t, byID["avery"].Breakdown.Total.Equal(decimal.NewFromInt(726)))
	require.NotNil(t, byID["casey"].Breakdown)
	assert.True(t, byID["casey"].Breakdown.NoPlan)

	rec = do(t, srv, http.MethodPost, "/api/batch", BatchRequest{Period: "2025-03", People: []string{"avery", "ghost"}})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[BatchResponse](t, rec)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "avery", resp.Results[0].PersonID)
	assert.Empty(t, resp.Results[0].Error)
	assert.Equal(t, "ghost", resp.Results[1].PersonID)
	assert.NotEmpty(t, resp.Results[1].Error)
	assert.Nil(t, resp.Results[1].Breakdown)
}

func TestBatch_IncludeWrittenOverride(t *testing.T) {
	h, srv := newTestServer(t)
	h.IncludeWritten = true
	loadAgencyScenario(t, srv)

	averyTotal := func(req BatchRequest) decimal.Decimal {
		t.Helper()
		rec := do(t, srv, http.MethodPost, "/api/batch", req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[BatchResponse](t, rec)
		require.Len(t, resp.Results, 1)
		require.NotNil(t, resp.Results[0].Breakdown)
		return resp.Results[0].Breakdown.Total
	}

	off, on := false, true
	tests := []struct {
		name     string
		override *bool
		want     int64
	}{
		{"server default", nil, 736},
		{"request turns written off", &off, 726},
		{"request turns written on", &on, 736},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := averyTotal(BatchRequest{Period: "2025-03", People: []string{"avery"}, IncludeWritten: tt.override})
			assert.True(t, got.Equal(decimal.NewFromInt(tt.want)), got.String())
		})
	}
}

func TestScenarios(t *testing.T) {
	_, srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "agency-standard")

	rec = do(t, srv, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTracingHeaders(t *testing.T) {
	_, srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
	// No tracer provider is installed, so the trace ID falls back to the request ID.
	assert.Equal(t, "req-123", rec.Header().Get(TraceIDHeader))
}
