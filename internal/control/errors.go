package control

import "errors"

var (
	ErrInvalidSystemType     = errors.New("invalid system type")
	ErrInvalidHour           = errors.New("schedule hours must be within 0..24")
	ErrSystemNotImplemented  = errors.New("air-conditioning system model is not implemented")
	ErrUnknownSystem         = errors.New("unknown heating/cooling system type")
	ErrDuplicateZoneSchedule = errors.New("duplicate zone schedule")
)
