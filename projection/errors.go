/*
errors.go - Centralized error types for the projection engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Outer layers (api, factory, store) wrap these with context.

ERROR CATEGORIES:
  1. Validation errors - user input that fails a sanity rule (returned)
  2. Contract errors   - Project called with an invalid configuration
  3. Edit errors       - overrides outside the horizon, negative amounts,
                         decimals with too many digits
  4. Store errors      - missing plans/sessions

USAGE:
  if errors.Is(err, projection.ErrInvalidConfiguration) {
      var verr *projection.ValidationError
      if errors.As(err, &verr) { render(verr.Violations) }
  }

SEE ALSO:
  - validate.go: Produces ValidationError
  - engine.go: Produces InvalidConfigurationError
*/
package projection

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidConfiguration is the root of both ValidationError and
	// InvalidConfigurationError.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrDayOutOfRange is returned when an override targets a day outside
	// 1..TimeHorizonDays.
	ErrDayOutOfRange = errors.New("day out of range")

	// ErrNegativeContribution is returned when a contribution override is < 0.
	ErrNegativeContribution = errors.New("contribution override must be >= 0")

	// ErrPrecision is returned for decimals whose scale or magnitude is
	// outside the shape limits (see CheckPrecision).
	ErrPrecision = errors.New("unsupported precision")

	ErrPlanNotFound    = errors.New("plan not found")
	ErrSessionNotFound = errors.New("session not found")

	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError lists every rule a Configuration violates.
// It is a value the Validator hands back, never a panic.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Violations, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidConfiguration }

// InvalidConfigurationError is returned by Project when it is handed a
// configuration that does not pass Validate. This is a caller bug.
type InvalidConfigurationError struct {
	Violations []string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("projection requires a valid configuration (%d violations): %s",
		len(e.Violations), strings.Join(e.Violations, "; "))
}

func (e *InvalidConfigurationError) Unwrap() error { return ErrInvalidConfiguration }

// DayOutOfRangeError reports an override day outside the horizon.
type DayOutOfRangeError struct {
	Day     int
	Horizon int
}

func (e *DayOutOfRangeError) Error() string {
	return fmt.Sprintf("day %d out of range 1..%d", e.Day, e.Horizon)
}

func (e *DayOutOfRangeError) Unwrap() error { return ErrDayOutOfRange }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrDayOutOfRange) ||
		errors.Is(err, ErrNegativeContribution) ||
		errors.Is(err, ErrPrecision) ||
		errors.Is(err, ErrNothingToUndo) ||
		errors.Is(err, ErrNothingToRedo)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlanNotFound) || errors.Is(err, ErrSessionNotFound)
}
