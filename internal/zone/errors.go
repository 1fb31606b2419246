package zone

import (
	"errors"
	"fmt"
)

var (
	ErrMissingID     = errors.New("zone id is required")
	ErrInvalidSpec   = errors.New("invalid zone specification")
	ErrDuplicateZone = errors.New("zone already registered")

	ErrInvalidInterval = errors.New("step interval must be positive")
)

// StepError locates a failed step.
type StepError struct {
	Zone string
	Hour int
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("zone %s hour %d: %v", e.Zone, e.Hour, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
