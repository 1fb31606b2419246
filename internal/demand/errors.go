package demand

import "errors"

var (
	ErrMissingSetpoint   = errors.New("missing heating or cooling setpoint")
	ErrMissingCapacity   = errors.New("missing heating or cooling capacity")
	ErrInvalidSetpoints  = errors.New("heating setpoint must not exceed cooling setpoint")
	ErrInvalidCapacity   = errors.New("heating capacity must be >= 0 and cooling capacity <= 0")
	ErrInvalidProbePower = errors.New("probe power must be finite and strictly positive")
	ErrDegenerateNetwork = errors.New("air temperature does not respond to injected power")
	ErrNoDemand          = errors.New("no heating or cooling demand to satisfy")
)
