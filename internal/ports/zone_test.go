package ports

import (
	"testing"

	"github.com/Agrid-Dev/thermozone/internal/control"
	"github.com/Agrid-Dev/thermozone/internal/demand"
	"github.com/Agrid-Dev/thermozone/internal/provider"
	"github.com/Agrid-Dev/thermozone/internal/zone"
)

func TestFromRegistry(t *testing.T) {
	res, err := demand.NewResolver(demand.ResolverParams{ProbePower: demand.DefaultProbePower})
	if err != nil {
		t.Fatal(err)
	}
	z, err := zone.New(zone.Spec{
		ID:                     "office",
		InitialMassTemperature: 20,
		Setpoints:              demand.NewSetpoints(20, 26),
		Capacity:               demand.NewCapacity(1000, -1000),
	}, provider.Constant{}, zone.NewStepper(control.Always{}, res), nil)
	if err != nil {
		t.Fatal(err)
	}
	reg := zone.NewRegistry()
	if err := reg.Add(z); err != nil {
		t.Fatal(err)
	}

	dir := FromRegistry(reg)
	if ids := dir.IDs(); len(ids) != 1 || ids[0] != "office" {
		t.Fatalf("unexpected ids %v", ids)
	}

	svc, ok := dir.Lookup("office")
	if !ok {
		t.Fatal("expected office")
	}
	if err := svc.SetHeatingSetpoint(21); err != nil {
		t.Fatal(err)
	}
	if z.Get().HeatingSetpoint != 21 {
		t.Fatalf("write did not reach the zone")
	}

	if svc, ok := dir.Lookup("attic"); ok || svc != nil {
		t.Fatalf("expected no service for unknown zone, got %v", svc)
	}
}
