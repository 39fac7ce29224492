/*
errors.go - Centralized error types for the compensation engine

PURPOSE:
  The evaluation core never returns errors: absence (no plan, no gates, no
  records) and configuration defects degrade to zero. Errors only exist at
  the boundaries:
  1. Validation errors - caller-supplied input that is malformed
  2. Lookup errors - collaborators that cannot find a person or plan

USAGE:
  if errors.Is(err, compensation.ErrInvalidInput) {
      // 400 Bad Request
  }

SEE ALSO:
  - validate.go: Produces ValidationError
  - calculator.go: Wraps collaborator failures
*/
package compensation

import (
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned when caller-supplied input fails validation.
	ErrInvalidInput = eris.New("invalid input")

	// ErrInvalidPeriod is returned when a period key is not "YYYY-MM".
	ErrInvalidPeriod = eris.New("invalid period key")

	// ErrPersonNotFound is returned when the person directory has no entry.
	ErrPersonNotFound = eris.New("person not found")

	// ErrPlanNotFound is returned when an assignment references a missing plan.
	ErrPlanNotFound = eris.New("plan not found")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// ValidationErrors collects every violation found in one pass.
type ValidationErrors []*ValidationError

func (es ValidationErrors) Error() string {
	if len(es) == 1 {
		return es[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", es[0].Error(), len(es)-1)
}

func (es ValidationErrors) Unwrap() error {
	return ErrInvalidInput
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrInvalidPeriod)
}

// IsNotFound returns true if the error indicates a missing person or plan.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPersonNotFound) || errors.Is(err, ErrPlanNotFound)
}
