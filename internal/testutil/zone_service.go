package testutil

import (
	"sort"

	"github.com/Agrid-Dev/thermozone/internal/demand"
	"github.com/Agrid-Dev/thermozone/internal/ports"
	"github.com/Agrid-Dev/thermozone/internal/zone"
)

// FakeZoneService is a reusable fake implementing ports.ZoneService.
// Put ONLY what multiple test packages need here.
type FakeZoneService struct {
	S zone.Snapshot

	SetHeatingSetpointCalled bool
	SetHeatingSetpointArg    float64
	SetHeatingSetpointErr    error

	SetCoolingSetpointCalled bool
	SetCoolingSetpointArg    float64
	SetCoolingSetpointErr    error

	SetHeatingMaxCalled bool
	SetHeatingMaxArg    float64
	SetHeatingMaxErr    error

	SetCoolingMaxCalled bool
	SetCoolingMaxArg    float64
	SetCoolingMaxErr    error
}

func NewFakeZoneService(id string) *FakeZoneService {
	return &FakeZoneService{
		S: zone.Snapshot{
			ID:              id,
			Hour:            12,
			HeatingSetpoint: 20,
			CoolingSetpoint: 26,
			HeatingMax:      10000,
			CoolingMax:      -8000,
			ThetaM:          19.5,
			ThetaAir:        20,
			ThetaOp:         19.25,
			PhiHCNd:         1234.5,
			Demand:          demand.DemandHeating,
		},
	}
}

func (f *FakeZoneService) Get() zone.Snapshot { return f.S }

func (f *FakeZoneService) SetHeatingSetpoint(v float64) error {
	f.SetHeatingSetpointCalled = true
	f.SetHeatingSetpointArg = v
	if f.SetHeatingSetpointErr != nil {
		return f.SetHeatingSetpointErr
	}
	f.S.HeatingSetpoint = v
	return nil
}

func (f *FakeZoneService) SetCoolingSetpoint(v float64) error {
	f.SetCoolingSetpointCalled = true
	f.SetCoolingSetpointArg = v
	if f.SetCoolingSetpointErr != nil {
		return f.SetCoolingSetpointErr
	}
	f.S.CoolingSetpoint = v
	return nil
}

func (f *FakeZoneService) SetHeatingMax(v float64) error {
	f.SetHeatingMaxCalled = true
	f.SetHeatingMaxArg = v
	if f.SetHeatingMaxErr != nil {
		return f.SetHeatingMaxErr
	}
	f.S.HeatingMax = v
	return nil
}

func (f *FakeZoneService) SetCoolingMax(v float64) error {
	f.SetCoolingMaxCalled = true
	f.SetCoolingMaxArg = v
	if f.SetCoolingMaxErr != nil {
		return f.SetCoolingMaxErr
	}
	f.S.CoolingMax = v
	return nil
}

// FakeDirectory serves a fixed set of fake zones.
type FakeDirectory map[string]*FakeZoneService

func NewFakeDirectory(ids ...string) FakeDirectory {
	d := FakeDirectory{}
	for _, id := range ids {
		d[id] = NewFakeZoneService(id)
	}
	return d
}

func (d FakeDirectory) IDs() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (d FakeDirectory) Lookup(id string) (ports.ZoneService, bool) {
	z, ok := d[id]
	if !ok {
		return nil, false
	}
	return z, true
}
