/*
handlers.go - HTTP API handlers for the compensation engine

PURPOSE:
  Exposes payout evaluation and its inputs via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the compensation
  package for everything else.

ENDPOINTS:
  Evaluation:
    POST   /api/evaluate                      Evaluate an inline plan and records
    POST   /api/batch                         Evaluate many people for one period

  People:
    GET    /api/people                        List people
    POST   /api/people                        Create or update a person
    GET    /api/people/{id}/payout?period=    Payout breakdown for a period
    GET    /api/people/{id}/plan?period=      Plan that applies in a period
    POST   /api/people/{id}/records           Add sold records
    POST   /api/people/{id}/activities        Add activity counts

  Plans:
    GET    /api/plans                         List plans
    POST   /api/plans                         Create or update a plan
    GET    /api/plans/{id}                    Get one plan
    POST   /api/assignments                   Assign a plan to a scope

  Scenarios:
    GET    /api/scenarios                     List demo scenarios
    POST   /api/scenarios/load                Load a demo scenario

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, bad period, malformed plan
  - 404: Person or plan not found
  - 500: Internal errors (logged)

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nadeemz7/tracktowin-sub002/compensation"
	"github.com/nadeemz7/tracktowin-sub002/factory"
	"github.com/nadeemz7/tracktowin-sub002/presets"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       compensation.Store
	Calculator  *compensation.Calculator
	PlanFactory *factory.PlanFactory

	// Concurrency bounds POST /api/batch.
	Concurrency int
	// IncludeWritten is the default when a request does not say.
	IncludeWritten bool
}

// NewHandler creates a handler whose calculator reads from st.
func NewHandler(st compensation.Store) *Handler {
	return &Handler{
		Store:       st,
		Calculator:  compensation.NewCalculator(st),
		PlanFactory: factory.NewPlanFactory(),
		Concurrency: compensation.DefaultBatchConcurrency,
	}
}

// =============================================================================
// EVALUATION
// =============================================================================

// Evaluate runs the engine over an inline plan and inline records. Nothing
// is read from or written to the store; records sold outside the period are
// ignored.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	period, err := compensation.ParsePeriod(req.Period)
	if err != nil {
		writeError(w, "Invalid period", err)
		return
	}
	statuses, err := parseStatuses(req.Statuses, req.IncludeWritten)
	if err != nil {
		writeError(w, "Invalid statuses", err)
		return
	}

	var resolved *compensation.ResolvedPlan
	if req.Plan != nil {
		plan, err := h.PlanFactory.FromJSON(*req.Plan)
		if err != nil {
			writeError(w, "Invalid plan", err)
			return
		}
		resolved = &compensation.ResolvedPlan{
			PlanID:         plan.ID,
			PlanName:       plan.Name,
			Version:        plan.CurrentVersion.Version,
			PlanDefinition: plan.CurrentVersion.Definition,
		}
	}

	records, err := ToRecords(req.PersonID, req.Records)
	if err != nil {
		writeError(w, "Invalid records", err)
		return
	}
	activities, err := ToActivities(req.PersonID, req.Activities)
	if err != nil {
		writeError(w, "Invalid activities", err)
		return
	}

	b, err := compensation.EvaluateChecked(compensation.Input{
		PersonID:   req.PersonID,
		Period:     period,
		Plan:       resolved,
		Records:    period.Select(records),
		Activities: activities,
		Statuses:   statuses,
	})
	if err != nil {
		writeError(w, "Evaluation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Batch evaluates every requested person (or everyone) for one period.
// Per-person failures are reported inline.
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := compensation.ParsePeriod(req.Period); err != nil {
		writeError(w, "Invalid period", err)
		return
	}

	ids := req.People
	if len(ids) == 0 {
		people, err := h.Store.ListPeople(r.Context())
		if err != nil {
			writeError(w, "Failed to list people", err)
			return
		}
		for _, p := range people {
			ids = append(ids, p.ID)
		}
	}

	includeWritten := h.IncludeWritten
	if req.IncludeWritten != nil {
		includeWritten = *req.IncludeWritten
	}

	reqs := make([]compensation.Request, len(ids))
	for i, id := range ids {
		reqs[i] = compensation.Request{
			PersonID:       id,
			PeriodKey:      req.Period,
			IncludeWritten: includeWritten,
		}
	}

	results := h.Calculator.CalculateBatch(r.Context(), reqs, h.Concurrency)
	resp := BatchResponse{
		RunID:   uuid.NewString(),
		Period:  req.Period,
		Results: make([]BatchItemDTO, len(results)),
	}
	for i, res := range results {
		item := BatchItemDTO{PersonID: res.Request.PersonID, Breakdown: res.Breakdown}
		if res.Err != nil {
			item.Error = res.Err.Error()
		}
		resp.Results[i] = item
	}
	zap.L().Info("batch evaluated",
		zap.String("run_id", resp.RunID),
		zap.String("period", req.Period),
		zap.Int("people", len(reqs)),
	)
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// PEOPLE
// =============================================================================

// ListPeople returns every person in the directory.
func (h *Handler) ListPeople(w http.ResponseWriter, r *http.Request) {
	people, err := h.Store.ListPeople(r.Context())
	if err != nil {
		writeError(w, "Failed to list people", err)
		return
	}
	dtos := make([]PersonDTO, len(people))
	for i, p := range people {
		dtos[i] = toPersonDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePerson creates or replaces a person.
func (h *Handler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req CreatePersonRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		writeError(w, "Invalid person", &compensation.ValidationError{Field: "id", Message: "required"})
		return
	}

	p := compensation.Person{ID: req.ID, Name: req.Name, RoleID: req.RoleID, TeamID: req.TeamID, AgencyID: req.AgencyID}
	if err := h.Store.SavePerson(r.Context(), p); err != nil {
		writeError(w, "Failed to save person", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPersonDTO(p))
}

// GetPayout evaluates one person's payout from stored data.
func (h *Handler) GetPayout(w http.ResponseWriter, r *http.Request) {
	includeWritten := h.IncludeWritten
	if raw := r.URL.Query().Get("include_written"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, "Invalid include_written", &compensation.ValidationError{Field: "include_written", Message: "must be true or false"})
			return
		}
		includeWritten = v
	}

	b, err := h.Calculator.Calculate(r.Context(), compensation.Request{
		PersonID:       chi.URLParam(r, "id"),
		PeriodKey:      r.URL.Query().Get("period"),
		IncludeWritten: includeWritten,
	})
	if err != nil {
		writeError(w, "Failed to calculate payout", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// GetResolvedPlan returns the plan that applies to a person in a period.
func (h *Handler) GetResolvedPlan(w http.ResponseWriter, r *http.Request) {
	period, err := compensation.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, "Invalid period", err)
		return
	}
	person, err := h.Store.GetPerson(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "Person not found", err)
		return
	}

	plan, err := h.Calculator.Resolver.Resolve(r.Context(), person.Identity(), period)
	if err != nil {
		writeError(w, "Failed to resolve plan", err)
		return
	}
	if plan == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: compensation.NoPlanMessage, Code: "no_plan"})
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// AddRecords appends sold records to a person.
func (h *Handler) AddRecords(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "id")
	var req AddRecordsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := h.Store.GetPerson(r.Context(), personID); err != nil {
		writeError(w, "Person not found", err)
		return
	}

	records, err := ToRecords(personID, req.Records)
	if err != nil {
		writeError(w, "Invalid records", err)
		return
	}
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
	}
	if err := h.Store.AddRecords(r.Context(), records...); err != nil {
		writeError(w, "Failed to add records", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"added": len(records)})
}

// AddActivities appends activity counts to a person.
func (h *Handler) AddActivities(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "id")
	var req AddActivitiesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := h.Store.GetPerson(r.Context(), personID); err != nil {
		writeError(w, "Person not found", err)
		return
	}

	counts, err := ToActivities(personID, req.Activities)
	if err != nil {
		writeError(w, "Invalid activities", err)
		return
	}
	if err := h.Store.AddActivities(r.Context(), counts...); err != nil {
		writeError(w, "Failed to add activities", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"added": len(counts)})
}

// =============================================================================
// PLANS + ASSIGNMENTS
// =============================================================================

// ListPlans returns every plan in its authoring form.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.Store.ListPlans(r.Context())
	if err != nil {
		writeError(w, "Failed to list plans", err)
		return
	}
	out := make([]factory.PlanJSON, len(plans))
	for i, p := range plans {
		out[i] = h.PlanFactory.ToJSON(p)
	}
	writeJSON(w, http.StatusOK, out)
}

// CreatePlan validates and stores a plan.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req factory.PlanJSON
	if !decodeBody(w, r, &req) {
		return
	}
	plan, err := h.PlanFactory.FromJSON(req)
	if err != nil {
		writeError(w, "Invalid plan", err)
		return
	}
	if err := h.Store.SavePlan(r.Context(), *plan); err != nil {
		writeError(w, "Failed to save plan", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.PlanFactory.ToJSON(*plan))
}

// GetPlan returns one plan.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.Store.GetPlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "Plan not found", err)
		return
	}
	writeJSON(w, http.StatusOK, h.PlanFactory.ToJSON(*plan))
}

// CreateAssignment links a plan to a person, role, team or agency.
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req CreateAssignmentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var errs compensation.ValidationErrors
	level := compensation.ScopeLevel(strings.ToUpper(req.ScopeType))
	if !level.Valid() {
		errs = append(errs, &compensation.ValidationError{Field: "scope_type", Message: "must be PERSON, ROLE, TEAM or AGENCY"})
	}
	if req.ScopeID == "" {
		errs = append(errs, &compensation.ValidationError{Field: "scope_id", Message: "required"})
	}
	if req.PlanID == "" {
		errs = append(errs, &compensation.ValidationError{Field: "plan_id", Message: "required"})
	}
	var start *time.Time
	if req.EffectiveStart != "" {
		t, err := time.Parse(dateLayout, req.EffectiveStart)
		if err != nil {
			errs = append(errs, &compensation.ValidationError{Field: "effective_start", Message: "must be YYYY-MM-DD"})
		} else {
			start = &t
		}
	}
	if len(errs) > 0 {
		writeError(w, "Invalid assignment", errs)
		return
	}
	if _, err := h.Store.GetPlan(r.Context(), req.PlanID); err != nil {
		writeError(w, "Plan not found", err)
		return
	}

	a := compensation.Assignment{
		ID:             req.ID,
		ScopeType:      level,
		ScopeID:        req.ScopeID,
		PlanID:         req.PlanID,
		Active:         req.Active == nil || *req.Active,
		EffectiveStart: start,
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if err := h.Store.SaveAssignment(r.Context(), a); err != nil {
		writeError(w, "Failed to save assignment", err)
		return
	}

	dto := AssignmentDTO{ID: a.ID, ScopeType: string(a.ScopeType), ScopeID: a.ScopeID, PlanID: a.PlanID, Active: a.Active}
	if start != nil {
		dto.EffectiveStart = start.Format(dateLayout)
	}
	writeJSON(w, http.StatusCreated, dto)
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, presets.Scenarios)
}

// LoadScenario seeds the store with a demo scenario. Period defaults to the
// current month.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}
	period := compensation.PeriodFor(time.Now())
	if req.Period != "" {
		p, err := compensation.ParsePeriod(req.Period)
		if err != nil {
			writeError(w, "Invalid period", err)
			return
		}
		period = p
	}

	if err := presets.Load(r.Context(), h.Store, req.ScenarioID, period); err != nil {
		writeError(w, "Failed to load scenario", err)
		return
	}
	zap.L().Info("scenario loaded", zap.String("scenario", req.ScenarioID), zap.String("period", period.Key))
	writeJSON(w, http.StatusOK, map[string]string{"scenario_id": req.ScenarioID, "period": period.Key})
}

// =============================================================================
// HELPERS
// =============================================================================

func parseStatuses(raw []string, includeWritten bool) (compensation.StatusFilter, error) {
	if len(raw) == 0 {
		return compensation.DefaultStatuses(includeWritten), nil
	}
	out := make(compensation.StatusFilter, 0, len(raw))
	for _, s := range raw {
		status := compensation.PolicyStatus(strings.ToUpper(s))
		if !status.Valid() {
			return nil, &compensation.ValidationError{Field: "statuses", Message: "unknown status " + strconv.Quote(s)}
		}
		out = append(out, status)
	}
	return out, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Code: "bad_request", Details: err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps err onto a status and writes an ErrorResponse. Validation
// failures carry every field error in Details.
func writeError(w http.ResponseWriter, message string, err error) {
	status, code := errorStatus(err)
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
		var verrs compensation.ValidationErrors
		if errors.As(err, &verrs) {
			resp.Details = fieldErrors(verrs)
		}
	}
	if status == http.StatusInternalServerError {
		zap.L().Error(message, zap.Error(err))
	}
	writeJSON(w, status, resp)
}

func errorStatus(err error) (int, string) {
	switch {
	case compensation.IsClientError(err):
		return http.StatusBadRequest, "invalid_input"
	case compensation.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func fieldErrors(errs compensation.ValidationErrors) []fieldError {
	out := make([]fieldError, len(errs))
	for i, e := range errs {
		out[i] = fieldError{Field: e.Field, Message: e.Message}
	}
	return out
}
