package demand

import (
	"math"

	"github.com/Agrid-Dev/thermozone/internal/rcmodel"
)

// DefaultProbePower is 10 W/m² over a 100 m² reference floor area.
const DefaultProbePower = 1000.0

// sensitivityTolerance is the relative change of air temperature below which
// the probe is considered to have no effect.
const sensitivityTolerance = 1e-12

// ProbePowerForArea returns the usual 10 W/m² probe for a conditioned floor area.
func ProbePowerForArea(floorArea float64) float64 {
	return 10 * floorArea
}

type ResolverParams struct {
	ProbePower float64 // magnitude, W; the sign follows the demand
}

func (params *ResolverParams) Validate() error {
	if !finite(params.ProbePower) || params.ProbePower <= 0 {
		return ErrInvalidProbePower
	}
	return nil
}

type Resolver struct {
	params ResolverParams
}

func NewResolver(params ResolverParams) (*Resolver, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Resolver{params: params}, nil
}

var defaultResolver = &Resolver{params: ResolverParams{ProbePower: DefaultProbePower}}

// Resolve uses a resolver probing with DefaultProbePower.
func Resolve(params rcmodel.Parameters, sp Setpoints, c Capacity) (SystemState, error) {
	return defaultResolver.Resolve(params, sp, c)
}

// Resolve finds the power delivered to the zone for one step: none when the
// free-floating air temperature lies within the setpoints, otherwise the power
// reaching the violated setpoint, clamped to the capacity.
func (r *Resolver) Resolve(params rcmodel.Parameters, sp Setpoints, c Capacity) (SystemState, error) {
	if err := c.Validate(); err != nil {
		return SystemState{}, err
	}
	n, err := rcmodel.NewNetwork(params)
	if err != nil {
		return SystemState{}, err
	}
	d, free, err := r.Detect(n, sp)
	if err != nil {
		return SystemState{}, err
	}
	if d == DemandNone {
		return SystemState{Result: free, Demand: DemandNone, Evaluations: 1}, nil
	}
	return r.Satisfy(n, sp, c, d, free)
}

// Detect evaluates the free-floating network once and compares the air
// temperature against the setpoints.
func (r *Resolver) Detect(n *rcmodel.Network, sp Setpoints) (Demand, rcmodel.Result, error) {
	if err := sp.Validate(); err != nil {
		return DemandNone, rcmodel.Result{}, err
	}
	free, err := n.Solve(0)
	if err != nil {
		return DemandNone, rcmodel.Result{}, err
	}
	switch {
	case free.ThetaAir < *sp.Heating:
		return DemandHeating, free, nil
	case free.ThetaAir > *sp.Cooling:
		return DemandCooling, free, nil
	default:
		return DemandNone, free, nil
	}
}

// Satisfy performs the probe and the clamped evaluation for a detected
// demand. free must be the result of n.Solve(0).
func (r *Resolver) Satisfy(n *rcmodel.Network, sp Setpoints, c Capacity, d Demand, free rcmodel.Result) (SystemState, error) {
	if err := sp.Validate(); err != nil {
		return SystemState{}, err
	}
	if err := c.Validate(); err != nil {
		return SystemState{}, err
	}

	var setpoint, probe float64
	switch d {
	case DemandHeating:
		setpoint, probe = *sp.Heating, r.params.ProbePower
	case DemandCooling:
		setpoint, probe = *sp.Cooling, -r.params.ProbePower
	default:
		return SystemState{}, ErrNoDemand
	}

	probed, err := n.Solve(probe)
	if err != nil {
		return SystemState{}, err
	}
	delta := probed.ThetaAir - free.ThetaAir
	if math.Abs(delta) <= sensitivityTolerance*math.Max(1, math.Abs(free.ThetaAir)) {
		return SystemState{}, ErrDegenerateNetwork
	}

	// C.13: theta_air is affine in the injected power
	unrestricted := probe * (setpoint - free.ThetaAir) / delta

	delivered, limited := unrestricted, false
	switch {
	case unrestricted > *c.HeatingMax:
		delivered, limited = *c.HeatingMax, true
	case unrestricted < *c.CoolingMax:
		delivered, limited = *c.CoolingMax, true
	}

	result, err := n.Solve(delivered)
	if err != nil {
		return SystemState{}, err
	}
	return SystemState{
		PhiHCNd:      delivered,
		Result:       result,
		Demand:       d,
		Unrestricted: unrestricted,
		Limited:      limited,
		Evaluations:  3,
	}, nil
}
