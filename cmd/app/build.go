package app

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Agrid-Dev/thermozone/internal/control"
	"github.com/Agrid-Dev/thermozone/internal/demand"
	"github.com/Agrid-Dev/thermozone/internal/provider"
	"github.com/Agrid-Dev/thermozone/internal/zone"
)

var ErrNoZones = errors.New("config: no zones configured")

// defaultInitialMassTemperature seeds θm when a zone does not set one.
const defaultInitialMassTemperature = 20.0

// Specs converts zone configs into zone specs. Missing setpoints or capacity
// surface as errors from zone.Spec.Validate.
func (c Config) Specs() ([]zone.Spec, error) {
	if len(c.Zones) == 0 {
		return nil, ErrNoZones
	}
	specs := make([]zone.Spec, 0, len(c.Zones))
	for i, zc := range c.Zones {
		s := zone.Spec{
			ID:                     zc.ID,
			FloorArea:              zc.FloorArea,
			InitialMassTemperature: defaultInitialMassTemperature,
			Setpoints:              demand.Setpoints{Heating: zc.Setpoints.Heating, Cooling: zc.Setpoints.Cooling},
			Capacity:               demand.Capacity{HeatingMax: zc.Capacity.HeatingMax, CoolingMax: zc.Capacity.CoolingMax},
		}
		if zc.InitialMassTemperature != nil {
			s.InitialMassTemperature = *zc.InitialMassTemperature
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("zones[%d] %q: %w", i, zc.ID, err)
		}
		specs = append(specs, s)
	}
	return specs, nil
}

// Schedule builds the control schedule for every zone.
func (c Config) Schedule() (*control.Schedule, error) {
	s := control.NewSchedule()
	for _, zc := range c.Zones {
		zs, err := zc.Control.zoneSchedule()
		if err != nil {
			return nil, fmt.Errorf("zone %q control: %w", zc.ID, err)
		}
		if err := s.Add(zc.ID, zs); err != nil {
			return nil, fmt.Errorf("zone %q control: %w", zc.ID, err)
		}
	}
	return s, nil
}

func (cc ControlConfig) zoneSchedule() (control.ZoneSchedule, error) {
	var zs control.ZoneSchedule
	if cc.Heating != nil {
		sys, err := control.ParseSystemType(cc.HeatingSystem)
		if err != nil {
			return zs, err
		}
		zs.Heating = &control.Window{Start: cc.Heating.StartHour, End: cc.Heating.EndHour}
		zs.HeatingSystem = sys
	}
	if cc.Cooling != nil {
		sys, err := control.ParseSystemType(cc.CoolingSystem)
		if err != nil {
			return zs, err
		}
		zs.Cooling = &control.Window{Start: cc.Cooling.StartHour, End: cc.Cooling.EndHour}
		zs.CoolingSystem = sys
	}
	return zs, nil
}

// Provider loads boundary conditions for every zone. CSV paths are relative
// to baseDir.
func (c Config) Provider(baseDir string) (*provider.TableProvider, error) {
	p := provider.NewTableProvider()
	for _, zc := range c.Zones {
		rows, err := zc.Boundary.rows(baseDir)
		if err != nil {
			return nil, fmt.Errorf("zone %q boundary: %w", zc.ID, err)
		}
		if err := p.Add(zc.ID, zc.Envelope, rows); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (b BoundaryConfig) rows(baseDir string) ([]provider.Hourly, error) {
	if b.CSV == "" {
		return []provider.Hourly{{ThetaE: b.ThetaE, PhiM: b.PhiM, PhiSt: b.PhiSt, PhiIa: b.PhiIa}}, nil
	}
	path := b.CSV
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	return provider.LoadHourly(path)
}

// BuildRegistry wires providers, schedule and resolvers into live zones. The
// probe power of each zone follows its floor area when one is given.
func (c Config) BuildRegistry(baseDir string, log *slog.Logger) (*zone.Registry, error) {
	specs, err := c.Specs()
	if err != nil {
		return nil, err
	}
	sched, err := c.Schedule()
	if err != nil {
		return nil, err
	}
	prov, err := c.Provider(baseDir)
	if err != nil {
		return nil, err
	}

	reg := zone.NewRegistry()
	for _, s := range specs {
		probe := demand.DefaultProbePower
		if s.FloorArea > 0 {
			probe = demand.ProbePowerForArea(s.FloorArea)
		}
		res, err := demand.NewResolver(demand.ResolverParams{ProbePower: probe})
		if err != nil {
			return nil, fmt.Errorf("zone %q: %w", s.ID, err)
		}
		z, err := zone.New(s, prov, zone.NewStepper(sched, res), log)
		if err != nil {
			return nil, fmt.Errorf("zone %q: %w", s.ID, err)
		}
		if err := reg.Add(z); err != nil {
			return nil, fmt.Errorf("zone %q: %w", s.ID, err)
		}
	}
	return reg, nil
}
