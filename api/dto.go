/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Request types carry
  dates as YYYY-MM-DD strings and enums as plain strings; handlers convert
  them to compensation types and report bad values as 400s.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  People:      PersonDTO, CreatePersonRequest
  Records:     RecordRequest, AddRecordsRequest
  Activities:  ActivityRequest, AddActivitiesRequest
  Plans:       factory.PlanJSON (request and response)
  Assignments: CreateAssignmentRequest, AssignmentDTO
  Evaluation:  EvaluateRequest, compensation.Breakdown
  Batch:       BatchRequest, BatchResponse, BatchItemDTO
  Scenarios:   presets.Scenario, LoadScenarioRequest

SEE ALSO:
  - handlers.go: Uses these types
  - factory/plan.go: PlanJSON type
*/
package api

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nadeemz7/tracktowin-sub002/compensation"
	"github.com/nadeemz7/tracktowin-sub002/factory"
)

const dateLayout = "2006-01-02"

// =============================================================================
// PEOPLE
// =============================================================================

// PersonDTO represents a person in API responses.
type PersonDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RoleID   string `json:"role_id,omitempty"`
	TeamID   string `json:"team_id,omitempty"`
	AgencyID string `json:"agency_id,omitempty"`
}

// CreatePersonRequest is the body for creating a person.
type CreatePersonRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RoleID   string `json:"role_id,omitempty"`
	TeamID   string `json:"team_id,omitempty"`
	AgencyID string `json:"agency_id,omitempty"`
}

func toPersonDTO(p compensation.Person) PersonDTO {
	return PersonDTO{ID: p.ID, Name: p.Name, RoleID: p.RoleID, TeamID: p.TeamID, AgencyID: p.AgencyID}
}

// =============================================================================
// RECORDS + ACTIVITY
// =============================================================================

// RecordRequest is one sold record in a request body.
type RecordRequest struct {
	ID              string          `json:"id,omitempty"`
	ProductID       string          `json:"product_id"`
	LOBID           string          `json:"lob_id,omitempty"`
	PremiumCategory string          `json:"premium_category"`
	ProductType     string          `json:"product_type"`
	Premium         decimal.Decimal `json:"premium"`
	DateSold        string          `json:"date_sold"` // YYYY-MM-DD
	Status          string          `json:"status"`
}

// AddRecordsRequest is the body for adding sold records to a person.
type AddRecordsRequest struct {
	Records []RecordRequest `json:"records"`
}

// ActivityRequest is one activity count in a request body.
type ActivityRequest struct {
	ActivityTypeID string `json:"activity_type_id"`
	Count          int64  `json:"count"`
	Date           string `json:"date,omitempty"` // YYYY-MM-DD, empty counts in every period
}

// AddActivitiesRequest is the body for adding activity counts to a person.
type AddActivitiesRequest struct {
	Activities []ActivityRequest `json:"activities"`
}

func (rr RecordRequest) toRecord(personID string, i int) (compensation.SoldRecord, error) {
	sold, err := time.Parse(dateLayout, rr.DateSold)
	if err != nil {
		return compensation.SoldRecord{}, &compensation.ValidationError{
			Field:   fmt.Sprintf("records[%d].date_sold", i),
			Message: fmt.Sprintf("%q is not YYYY-MM-DD", rr.DateSold),
		}
	}
	status := compensation.PolicyStatus(rr.Status)
	if !status.Valid() {
		return compensation.SoldRecord{}, &compensation.ValidationError{
			Field:   fmt.Sprintf("records[%d].status", i),
			Message: fmt.Sprintf("unknown status %q", rr.Status),
		}
	}
	return compensation.SoldRecord{
		ID:              rr.ID,
		PersonID:        personID,
		ProductID:       rr.ProductID,
		LOBID:           rr.LOBID,
		PremiumCategory: compensation.PremiumCategory(rr.PremiumCategory),
		ProductType:     compensation.ProductType(rr.ProductType),
		Premium:         rr.Premium,
		DateSold:        sold,
		Status:          status,
	}, nil
}

// ToRecords converts request records for personID. The first bad record
// fails with a ValidationError naming its index.
func ToRecords(personID string, reqs []RecordRequest) ([]compensation.SoldRecord, error) {
	records := make([]compensation.SoldRecord, 0, len(reqs))
	for i, rr := range reqs {
		r, err := rr.toRecord(personID, i)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// ToActivities converts request activity counts for personID.
func ToActivities(personID string, reqs []ActivityRequest) ([]compensation.ActivityCount, error) {
	counts := make([]compensation.ActivityCount, 0, len(reqs))
	for i, ar := range reqs {
		if ar.Count < 0 {
			return nil, &compensation.ValidationError{
				Field:   fmt.Sprintf("activities[%d].count", i),
				Message: fmt.Sprintf("must be >= 0, got %d", ar.Count),
			}
		}
		c := compensation.ActivityCount{PersonID: personID, ActivityTypeID: ar.ActivityTypeID, Count: ar.Count}
		if ar.Date != "" {
			d, err := time.Parse(dateLayout, ar.Date)
			if err != nil {
				return nil, &compensation.ValidationError{
					Field:   fmt.Sprintf("activities[%d].date", i),
					Message: fmt.Sprintf("%q is not YYYY-MM-DD", ar.Date),
				}
			}
			c.Date = d
		}
		counts = append(counts, c)
	}
	return counts, nil
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

// CreateAssignmentRequest is the body for assigning a plan to a scope.
type CreateAssignmentRequest struct {
	ID             string `json:"id,omitempty"`
	ScopeType      string `json:"scope_type"`
	ScopeID        string `json:"scope_id"`
	PlanID         string `json:"plan_id"`
	Active         *bool  `json:"active,omitempty"`          // default true
	EffectiveStart string `json:"effective_start,omitempty"` // YYYY-MM-DD
}

// AssignmentDTO represents an assignment in API responses.
type AssignmentDTO struct {
	ID             string `json:"id"`
	ScopeType      string `json:"scope_type"`
	ScopeID        string `json:"scope_id"`
	PlanID         string `json:"plan_id"`
	Active         bool   `json:"active"`
	EffectiveStart string `json:"effective_start,omitempty"`
}

// =============================================================================
// EVALUATION
// =============================================================================

// EvaluateRequest evaluates an inline plan against inline records without
// touching the store.
type EvaluateRequest struct {
	PersonID       string            `json:"person_id"`
	Period         string            `json:"period"`
	Plan           *factory.PlanJSON `json:"plan,omitempty"` // nil evaluates as "no plan"
	Records        []RecordRequest   `json:"records"`
	Activities     []ActivityRequest `json:"activities,omitempty"`
	IncludeWritten bool              `json:"include_written,omitempty"`
	Statuses       []string          `json:"statuses,omitempty"`
}

// BatchRequest evaluates many people for one period. Empty People means
// everyone in the directory.
type BatchRequest struct {
	Period         string   `json:"period"`
	People         []string `json:"people,omitempty"`
	// IncludeWritten overrides the server default when set.
	IncludeWritten *bool `json:"include_written,omitempty"`
}

// BatchItemDTO is one person's batch outcome.
type BatchItemDTO struct {
	PersonID  string                  `json:"person_id"`
	Breakdown *compensation.Breakdown `json:"breakdown,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

// BatchResponse wraps a batch run.
type BatchResponse struct {
	RunID   string         `json:"run_id"`
	Period  string         `json:"period"`
	Results []BatchItemDTO `json:"results"`
}

// =============================================================================
// SCENARIOS + ERRORS
// =============================================================================

// LoadScenarioRequest is the body for loading demo data.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
	Period     string `json:"period"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
