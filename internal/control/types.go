package control

import "fmt"

// SystemType is an integer enum. SystemAirConditioning is recognised but has
// no model yet: zones served by it fail with ErrSystemNotImplemented.
type SystemType int

const (
	SystemUnknown SystemType = iota
	SystemRadiative
	SystemAirConditioning
)

func (s SystemType) Valid() bool {
	return s == SystemRadiative || s == SystemAirConditioning
}

func (s SystemType) Implemented() bool {
	return s == SystemRadiative
}

func (s SystemType) String() string {
	switch s {
	case SystemRadiative:
		return "radiative"
	case SystemAirConditioning:
		return "ac"
	default:
		return "unknown"
	}
}

func ParseSystemType(s string) (SystemType, error) {
	switch s {
	case "radiative":
		return SystemRadiative, nil
	case "ac":
		return SystemAirConditioning, nil
	default:
		return SystemUnknown, fmt.Errorf("%w: %q", ErrInvalidSystemType, s)
	}
}
