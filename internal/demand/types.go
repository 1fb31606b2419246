package demand

import (
	"fmt"
	"math"

	"github.com/Agrid-Dev/thermozone/internal/rcmodel"
)

// Demand is an integer enum.
type Demand int

const (
	DemandNone Demand = iota
	DemandHeating
	DemandCooling
)

func (d Demand) Valid() bool {
	return d == DemandNone || d == DemandHeating || d == DemandCooling
}

func (d Demand) String() string {
	switch d {
	case DemandNone:
		return "none"
	case DemandHeating:
		return "heating"
	case DemandCooling:
		return "cooling"
	default:
		return "unknown"
	}
}

func ParseDemand(s string) (Demand, error) {
	switch s {
	case "none":
		return DemandNone, nil
	case "heating":
		return DemandHeating, nil
	case "cooling":
		return DemandCooling, nil
	default:
		return DemandNone, fmt.Errorf("invalid demand: %q", s)
	}
}

// Setpoints are the air temperature bounds, °C. A nil field means the
// setpoint was never configured.
type Setpoints struct {
	Heating *float64
	Cooling *float64
}

func NewSetpoints(heating, cooling float64) Setpoints {
	return Setpoints{Heating: &heating, Cooling: &cooling}
}

func (s *Setpoints) Validate() error {
	if s.Heating == nil || s.Cooling == nil {
		return ErrMissingSetpoint
	}
	if !finite(*s.Heating) || !finite(*s.Cooling) || *s.Heating > *s.Cooling {
		return ErrInvalidSetpoints
	}
	return nil
}

// Capacity bounds the delivered power, W. By convention CoolingMax <= 0 <= HeatingMax.
type Capacity struct {
	HeatingMax *float64
	CoolingMax *float64
}

func NewCapacity(heatingMax, coolingMax float64) Capacity {
	return Capacity{HeatingMax: &heatingMax, CoolingMax: &coolingMax}
}

func (c *Capacity) Validate() error {
	if c.HeatingMax == nil || c.CoolingMax == nil {
		return ErrMissingCapacity
	}
	if !finite(*c.HeatingMax) || !finite(*c.CoolingMax) || *c.HeatingMax < 0 || *c.CoolingMax > 0 {
		return ErrInvalidCapacity
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SystemState is the outcome of one resolved step.
type SystemState struct {
	PhiHCNd float64 // delivered power, + heating, - cooling
	Result  rcmodel.Result

	Demand       Demand
	Unrestricted float64 // power needed to reach the setpoint, 0 without demand
	Limited      bool    // capacity reached before the setpoint
	Evaluations  int
}
