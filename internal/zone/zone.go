package zone

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/Agrid-Dev/thermozone/internal/demand"
	"github.com/Agrid-Dev/thermozone/internal/provider"
)

// Spec is the static description of a zone. Setpoints and capacity have no
// defaults: a nil value is rejected.
type Spec struct {
	ID                     string
	FloorArea              float64 // m², informative
	InitialMassTemperature float64
	Setpoints              demand.Setpoints
	Capacity               demand.Capacity
}

func (s *Spec) Validate() error {
	if s.ID == "" {
		return ErrMissingID
	}
	if math.IsNaN(s.InitialMassTemperature) || math.IsInf(s.InitialMassTemperature, 0) || s.FloorArea < 0 {
		return ErrInvalidSpec
	}
	if err := s.Setpoints.Validate(); err != nil {
		return err
	}
	return s.Capacity.Validate()
}

type Snapshot struct {
	ID   string
	Hour int // next hour to simulate

	HeatingSetpoint float64
	CoolingSetpoint float64
	HeatingMax      float64
	CoolingMax      float64

	ThetaM   float64
	ThetaAir float64
	ThetaOp  float64
	PhiHCNd  float64
	Demand   demand.Demand
	Limited  bool
}

// Zone is a live zone advanced one simulated hour at a time.
type Zone struct {
	mu sync.RWMutex
	s  Snapshot

	stepMu   sync.Mutex
	provider provider.Provider
	stepper  *Stepper
	log      *slog.Logger

	observers []func(Outcome)
}

func New(spec Spec, p provider.Provider, st *Stepper, log *slog.Logger) (*Zone, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	z := &Zone{provider: p, stepper: st, log: log.With("zone", spec.ID)}
	z.s = Snapshot{
		ID:              spec.ID,
		HeatingSetpoint: *spec.Setpoints.Heating,
		CoolingSetpoint: *spec.Setpoints.Cooling,
		HeatingMax:      *spec.Capacity.HeatingMax,
		CoolingMax:      *spec.Capacity.CoolingMax,
		ThetaM:          spec.InitialMassTemperature,
		ThetaAir:        spec.InitialMassTemperature,
		ThetaOp:         spec.InitialMassTemperature,
	}
	return z, nil
}

func (z *Zone) ID() string {
	return z.s.ID
}

func (z *Zone) Get() Snapshot {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.s
}

// OnAdvance registers fn to be called after every successful step.
func (z *Zone) OnAdvance(fn func(Outcome)) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.observers = append(z.observers, fn)
}

func (z *Zone) SetSetpoints(heating, cooling float64) error {
	sp := demand.NewSetpoints(heating, cooling)
	if err := sp.Validate(); err != nil {
		return err
	}
	z.mu.Lock()
	defer z.mu.Unlock()
	z.s.HeatingSetpoint = heating
	z.s.CoolingSetpoint = cooling
	return nil
}

func (z *Zone) SetHeatingSetpoint(v float64) error {
	z.mu.Lock()
	defer z.mu.Unlock()
	sp := demand.NewSetpoints(v, z.s.CoolingSetpoint)
	if err := sp.Validate(); err != nil {
		return err
	}
	z.s.HeatingSetpoint = v
	return nil
}

func (z *Zone) SetCoolingSetpoint(v float64) error {
	z.mu.Lock()
	defer z.mu.Unlock()
	sp := demand.NewSetpoints(z.s.HeatingSetpoint, v)
	if err := sp.Validate(); err != nil {
		return err
	}
	z.s.CoolingSetpoint = v
	return nil
}

func (z *Zone) SetCapacity(heatingMax, coolingMax float64) error {
	c := demand.NewCapacity(heatingMax, coolingMax)
	if err := c.Validate(); err != nil {
		return err
	}
	z.mu.Lock()
	defer z.mu.Unlock()
	z.s.HeatingMax = heatingMax
	z.s.CoolingMax = coolingMax
	return nil
}

func (z *Zone) SetHeatingMax(v float64) error {
	z.mu.Lock()
	defer z.mu.Unlock()
	c := demand.NewCapacity(v, z.s.CoolingMax)
	if err := c.Validate(); err != nil {
		return err
	}
	z.s.HeatingMax = v
	return nil
}

func (z *Zone) SetCoolingMax(v float64) error {
	z.mu.Lock()
	defer z.mu.Unlock()
	c := demand.NewCapacity(z.s.HeatingMax, v)
	if err := c.Validate(); err != nil {
		return err
	}
	z.s.CoolingMax = v
	return nil
}

// Advance simulates the next hour. On error the zone state is left as is.
func (z *Zone) Advance() (Outcome, error) {
	z.stepMu.Lock()
	defer z.stepMu.Unlock()

	cur := z.Get()
	params, err := z.provider.Parameters(cur.ID, cur.Hour, cur.ThetaM)
	if err != nil {
		return Outcome{}, &StepError{Zone: cur.ID, Hour: cur.Hour, Err: err}
	}
	out, err := z.stepper.Step(cur.ID, cur.Hour,
		params,
		demand.NewSetpoints(cur.HeatingSetpoint, cur.CoolingSetpoint),
		demand.NewCapacity(cur.HeatingMax, cur.CoolingMax),
	)
	if err != nil {
		return Outcome{}, err
	}

	z.mu.Lock()
	z.s.Hour = cur.Hour + 1
	z.s.ThetaM = out.Result.ThetaMT
	z.s.ThetaAir = out.Result.ThetaAir
	z.s.ThetaOp = out.Result.ThetaOp
	z.s.PhiHCNd = out.PhiHCNd
	z.s.Demand = out.Demand
	z.s.Limited = out.Limited
	observers := append([]func(Outcome){}, z.observers...)
	z.mu.Unlock()

	for _, fn := range observers {
		fn(out)
	}
	return out, nil
}

// skip moves to the next hour without touching the thermal state.
func (z *Zone) skip() {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.s.Hour++
}

// Run advances one simulated hour per interval until ctx is done. Failed
// hours are logged and skipped.
func (z *Zone) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInterval, interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			out, err := z.Advance()
			if err != nil {
				z.log.Error("step failed, skipping hour", "err", err)
				z.skip()
				continue
			}
			z.log.Debug("step",
				"hour", out.Hour,
				"demand", out.Demand.String(),
				"phi_hc_nd", out.PhiHCNd,
				"theta_air", out.Result.ThetaAir,
				"limited", out.Limited,
			)
		}
	}
}
