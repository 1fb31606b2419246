package zone

import (
	"github.com/Agrid-Dev/thermozone/internal/control"
	"github.com/Agrid-Dev/thermozone/internal/demand"
	"github.com/Agrid-Dev/thermozone/internal/rcmodel"
)

// Outcome is the state of a zone at the end of one hour.
type Outcome struct {
	Zone   string
	Hour   int
	ThetaE float64

	Demand       demand.Demand
	Active       bool // a system ran to answer the demand
	PhiHCNd      float64
	Unrestricted float64
	Limited      bool
	Result       rcmodel.Result
}

// HeatingLoad is the delivered heating power, W.
func (o Outcome) HeatingLoad() float64 {
	return max(o.PhiHCNd, 0)
}

// CoolingLoad is the extracted cooling power as a positive number, W.
func (o Outcome) CoolingLoad() float64 {
	return max(-o.PhiHCNd, 0)
}

// Stepper runs the hourly procedure: check demand on the free-floating zone,
// ask Control whether the matching system is on and which kind it is, then
// let the resolver size the radiative system.
type Stepper struct {
	ctl control.Control
	res *demand.Resolver
}

func NewStepper(ctl control.Control, res *demand.Resolver) *Stepper {
	return &Stepper{ctl: ctl, res: res}
}

func (s *Stepper) Step(zone string, hour int, params rcmodel.Parameters, sp demand.Setpoints, c demand.Capacity) (Outcome, error) {
	out, err := s.step(zone, hour, params, sp, c)
	if err != nil {
		return Outcome{}, &StepError{Zone: zone, Hour: hour, Err: err}
	}
	return out, nil
}

func (s *Stepper) step(zone string, hour int, params rcmodel.Parameters, sp demand.Setpoints, c demand.Capacity) (Outcome, error) {
	if err := c.Validate(); err != nil {
		return Outcome{}, err
	}
	n, err := rcmodel.NewNetwork(params)
	if err != nil {
		return Outcome{}, err
	}
	d, free, err := s.res.Detect(n, sp)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{Zone: zone, Hour: hour, ThetaE: params.ThetaE, Demand: d, Result: free}

	var system control.SystemType
	switch d {
	case demand.DemandNone:
		return out, nil
	case demand.DemandHeating:
		if !s.ctl.IsHeatingActive(hour, zone) {
			return out, nil
		}
		system = s.ctl.HeatingSystem(zone)
	case demand.DemandCooling:
		if !s.ctl.IsCoolingActive(hour, zone) {
			return out, nil
		}
		system = s.ctl.CoolingSystem(zone)
	}

	switch system {
	case control.SystemRadiative:
	case control.SystemAirConditioning:
		return Outcome{}, control.ErrSystemNotImplemented
	default:
		return Outcome{}, control.ErrUnknownSystem
	}

	st, err := s.res.Satisfy(n, sp, c, d, free)
	if err != nil {
		return Outcome{}, err
	}
	out.Active = true
	out.PhiHCNd = st.PhiHCNd
	out.Unrestricted = st.Unrestricted
	out.Limited = st.Limited
	out.Result = st.Result
	return out, nil
}
