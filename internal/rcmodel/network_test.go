package rcmodel

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats/scalar"
)

func newTestParameters(opts ...func(*Parameters)) Parameters {
	p := Parameters{
		ThetaMPrev: 20,
		ThetaE:     5,
		Cm:         18_000_000,
		HTrEm:      20,
		HTrW:       10,
		HVeAdj:     15,
		HTrMs:      25,
		HTrIs:      30,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func newTestNetwork(t *testing.T, opts ...func(*Parameters)) *Network {
	t.Helper()
	n, err := NewNetwork(newTestParameters(opts...))
	require.NoError(t, err)
	return n
}

func TestConductances(t *testing.T) {
	p := newTestParameters()
	h := p.Conductances()

	assert.InDelta(t, 10.0, h.H1, 1e-12)
	assert.InDelta(t, 20.0, h.H2, 1e-12)
	assert.InDelta(t, 100.0/9.0, h.H3, 1e-12)
}

func TestSolveFreeFloat(t *testing.T) {
	n := newTestNetwork(t)

	got, err := n.Solve(0)
	require.NoError(t, err)

	assert.InDelta(t, 19.906956136464334, got.ThetaMT, 1e-9)
	assert.InDelta(t, 10.538325210456359, got.ThetaAir, 1e-9)
	assert.InDelta(t, 12.476739034116083, got.ThetaOp, 1e-9)

	// no gains: bounded by outdoor and previous mass temperature
	assert.Greater(t, got.ThetaAir, 5.0)
	assert.Less(t, got.ThetaAir, 20.0)
}

func TestSolveWithGains(t *testing.T) {
	n := newTestNetwork(t, func(p *Parameters) {
		p.ThetaMPrev = 24
		p.ThetaE = 30
		p.PhiM = 300
		p.PhiSt = 400
		p.PhiIa = 500
	})

	got, err := n.Solve(0)
	require.NoError(t, err)

	assert.InDelta(t, 24.178260227440553, got.ThetaMT, 1e-9)
	assert.InDelta(t, 49.786097572982825, got.ThetaAir, 1e-9)
	assert.InDelta(t, 45.04456505686014, got.ThetaOp, 1e-9)
}

func TestSolveSteadyState(t *testing.T) {
	got, err := Solve(newTestParameters(func(p *Parameters) { p.ThetaE = 20 }), 0)
	require.NoError(t, err)

	assert.InDelta(t, 20.0, got.ThetaMT, 1e-12)
	assert.InDelta(t, 20.0, got.ThetaAir, 1e-12)
	assert.InDelta(t, 20.0, got.ThetaOp, 1e-12)
}

// C.4 divides the whole numerator by (Cm/3600 + loss). Dividing only the
// mass gains instead leaves theta_m,prev scaled by roughly Cm/3600, which
// is thousands of degrees for any real building.
func TestSolveMassTemperatureDividesWholeNumerator(t *testing.T) {
	p := newTestParameters()
	h := p.Conductances()
	phiMTot := p.PhiM + p.HTrEm*p.ThetaE +
		h.H3*(p.PhiSt+p.HTrW*p.ThetaE+h.H1*(p.PhiIa/p.HVeAdj+p.ThetaE))/h.H2
	cm := p.Cm / 3600
	loss := 0.5 * (h.H3 + p.HTrEm)

	wholeNumerator := (p.ThetaMPrev*(cm-loss) + phiMTot) / (cm + loss)
	gainsOnly := p.ThetaMPrev*(cm-loss) + phiMTot/(cm+loss)
	assert.Greater(t, gainsOnly, 1000.0)

	got, err := Solve(p, 0)
	require.NoError(t, err)
	assert.InDelta(t, wholeNumerator, got.ThetaMT, 1e-9)
	assert.Greater(t, got.ThetaMT, p.ThetaE)
	assert.Less(t, got.ThetaMT, p.ThetaMPrev)
	assert.Less(t, math.Abs(got.ThetaAir), 100.0)
}

func TestSolveIsPure(t *testing.T) {
	n := newTestNetwork(t)

	first, err := n.Solve(0)
	require.NoError(t, err)
	_, err = n.Solve(2500)
	require.NoError(t, err)
	second, err := n.Solve(0)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSolveAirTemperatureIsAffineInPower(t *testing.T) {
	n := newTestNetwork(t, func(p *Parameters) {
		p.PhiIa = 150
		p.PhiSt = 80
	})

	powers := []float64{-3000, 400, 5200}
	air := make([]float64, len(powers))
	for i, phi := range powers {
		r, err := n.Solve(phi)
		require.NoError(t, err)
		air[i] = r.ThetaAir
	}

	s01 := (air[1] - air[0]) / (powers[1] - powers[0])
	s12 := (air[2] - air[1]) / (powers[2] - powers[1])
	s02 := (air[2] - air[0]) / (powers[2] - powers[0])

	assert.True(t, scalar.EqualWithinRel(s01, s12, 1e-9), "slopes %v and %v differ", s01, s12)
	assert.True(t, scalar.EqualWithinRel(s01, s02, 1e-9), "slopes %v and %v differ", s01, s02)
	assert.Greater(t, s01, 0.0)
}

func TestSolveHeatingRaisesAllTemperatures(t *testing.T) {
	n := newTestNetwork(t)

	free, err := n.Solve(0)
	require.NoError(t, err)
	heated, err := n.Solve(1000)
	require.NoError(t, err)

	assert.Greater(t, heated.ThetaAir, free.ThetaAir)
	assert.Greater(t, heated.ThetaOp, free.ThetaOp)
	assert.Greater(t, heated.ThetaMT, free.ThetaMT)
}

func TestValidateParameters(t *testing.T) {
	tests := []struct {
		name  string
		opt   func(*Parameters)
		field string
	}{
		{"zero capacitance", func(p *Parameters) { p.Cm = 0 }, "c_m"},
		{"negative h_tr_em", func(p *Parameters) { p.HTrEm = -1 }, "h_tr_em"},
		{"zero h_tr_w", func(p *Parameters) { p.HTrW = 0 }, "h_tr_w"},
		{"infinite h_ve_adj", func(p *Parameters) { p.HVeAdj = math.Inf(1) }, "h_ve_adj"},
		{"NaN h_tr_ms", func(p *Parameters) { p.HTrMs = math.NaN() }, "h_tr_ms"},
		{"zero h_tr_is", func(p *Parameters) { p.HTrIs = 0 }, "h_tr_is"},
		{"NaN outdoor temperature", func(p *Parameters) { p.ThetaE = math.NaN() }, "theta_e"},
		{"infinite mass temperature", func(p *Parameters) { p.ThetaMPrev = math.Inf(-1) }, "theta_m_prev"},
		{"NaN air gains", func(p *Parameters) { p.PhiIa = math.NaN() }, "phi_ia"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNetwork(newTestParameters(tt.opt))
			require.ErrorIs(t, err, ErrInvalidParameters)

			var perr *ParameterError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.field, perr.Field)
		})
	}
}

func TestSolveRejectsNonFinitePower(t *testing.T) {
	n := newTestNetwork(t)

	for _, phi := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := n.Solve(phi)
		assert.ErrorIs(t, err, ErrInvalidPower)
	}
}

func TestSolveRejectsInvalidParameters(t *testing.T) {
	_, err := Solve(newTestParameters(func(p *Parameters) { p.HTrIs = -3 }), 0)
	assert.ErrorIs(t, err, ErrInvalidParameters)
}
