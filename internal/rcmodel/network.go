package rcmodel

// Result holds the node temperatures at the end of one step.
type Result struct {
	ThetaMT  float64 // mass temperature, carried into the next step
	ThetaAir float64
	ThetaOp  float64
}

// Network is a validated parameter snapshot with its combined conductances
// cached. Solve may be called any number of times with different powers.
type Network struct {
	p Parameters
	h Conductances
}

func NewNetwork(params Parameters) (*Network, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Network{p: params, h: params.Conductances()}, nil
}

func (n *Network) Parameters() Parameters {
	return n.p
}

func (n *Network) Conductances() Conductances {
	return n.h
}

// Solve runs one Crank-Nicholson step with phiHCNd injected at the air node
// (positive heats, negative cools).
func (n *Network) Solve(phiHCNd float64) (Result, error) {
	if !finite(phiHCNd) {
		return Result{}, ErrInvalidPower
	}
	p, h := &n.p, &n.h

	// C.5, with h_ve = h_ve_adj and theta_sup = theta_e
	phiMTot := p.PhiM + p.HTrEm*p.ThetaE +
		h.H3*(p.PhiSt+p.HTrW*p.ThetaE+h.H1*((p.PhiIa+phiHCNd)/p.HVeAdj+p.ThetaE))/h.H2

	// C.4
	cm := p.Cm / 3600
	loss := 0.5 * (h.H3 + p.HTrEm)
	thetaMT := (p.ThetaMPrev*(cm-loss) + phiMTot) / (cm + loss)

	// C.9
	thetaM := (thetaMT + p.ThetaMPrev) / 2

	// C.10
	thetaS := (p.HTrMs*thetaM + p.PhiSt + p.HTrW*p.ThetaE + h.H1*(p.ThetaE+(p.PhiIa+phiHCNd)/p.HVeAdj)) /
		(p.HTrMs + p.HTrW + h.H1)

	// C.11
	thetaAir := (p.HTrIs*thetaS + p.HVeAdj*p.ThetaE + p.PhiIa + phiHCNd) / (p.HTrIs + p.HVeAdj)

	// C.12
	thetaOp := 0.3*thetaAir + 0.7*thetaS

	return Result{ThetaMT: thetaMT, ThetaAir: thetaAir, ThetaOp: thetaOp}, nil
}

// Solve validates params and evaluates the network once.
func Solve(params Parameters, phiHCNd float64) (Result, error) {
	n, err := NewNetwork(params)
	if err != nil {
		return Result{}, err
	}
	return n.Solve(phiHCNd)
}
