package provider

import "errors"

var (
	ErrUnknownZone   = errors.New("no thermal properties for zone")
	ErrEmptyTable    = errors.New("hourly table has no rows")
	ErrDuplicateZone = errors.New("zone already registered")
	ErrDuplicateHour = errors.New("hourly table repeats an hour")
	ErrMissingHour   = errors.New("hourly table skips an hour")
)
