package rcmodel

import "math"

// Parameters is the per-timestep input of the 5R1C network (ISO 13790 Annex C).
// Temperatures in °C, capacitance in J/K, conductances in W/K, heat flows in W.
type Parameters struct {
	ThetaMPrev float64 // mass temperature at the end of the previous step
	ThetaE     float64 // outdoor air temperature

	Cm float64

	HTrEm  float64 // opaque envelope to outside
	HTrW   float64 // windows to outside
	HVeAdj float64 // ventilation
	HTrMs  float64 // surface to mass
	HTrIs  float64 // air to surface

	PhiM  float64 // gains at the mass node
	PhiSt float64 // gains at the surface node
	PhiIa float64 // gains at the air node
}

func (p *Parameters) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"c_m", p.Cm},
		{"h_tr_em", p.HTrEm},
		{"h_tr_w", p.HTrW},
		{"h_ve_adj", p.HVeAdj},
		{"h_tr_ms", p.HTrMs},
		{"h_tr_is", p.HTrIs},
	}
	for _, f := range positive {
		if !finite(f.value) || f.value <= 0 {
			return &ParameterError{Field: f.name, Value: f.value}
		}
	}

	bounded := []struct {
		name  string
		value float64
	}{
		{"theta_m_prev", p.ThetaMPrev},
		{"theta_e", p.ThetaE},
		{"phi_m", p.PhiM},
		{"phi_st", p.PhiSt},
		{"phi_ia", p.PhiIa},
	}
	for _, f := range bounded {
		if !finite(f.value) {
			return &ParameterError{Field: f.name, Value: f.value}
		}
	}
	return nil
}

// Conductances are the combined conductances of eq. C.6 to C.8. They only
// depend on the base conductances, so a Network computes them once per step.
type Conductances struct {
	H1 float64
	H2 float64
	H3 float64
}

func (p *Parameters) Conductances() Conductances {
	h1 := 1 / (1/p.HVeAdj + 1/p.HTrIs)
	h2 := h1 + p.HTrW
	h3 := 1 / (1/h2 + 1/p.HTrMs)
	return Conductances{H1: h1, H2: h2, H3: h3}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
