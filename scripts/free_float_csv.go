package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/Agrid-Dev/thermozone/internal/control"
	"github.com/Agrid-Dev/thermozone/internal/demand"
	"github.com/Agrid-Dev/thermozone/internal/provider"
	"github.com/Agrid-Dev/thermozone/internal/report"
	"github.com/Agrid-Dev/thermozone/internal/simulation"
	"github.com/Agrid-Dev/thermozone/internal/zone"
)

// sinusoidalDays builds a daily outdoor cycle around mean with the minimum at
// 04:00, plus internal gains during office hours.
func sinusoidalDays(days int, mean, amplitude float64) []provider.Hourly {
	rows := make([]provider.Hourly, 0, days*24)
	for h := range days * 24 {
		hod := h % 24
		row := provider.Hourly{
			Hour:   h,
			ThetaE: mean - amplitude*math.Cos(2*math.Pi*float64(hod-4)/24),
		}
		if hod >= 8 && hod < 18 {
			row.PhiIa = 300
			row.PhiSt = 200
		}
		rows = append(rows, row)
	}
	return rows
}

func SimulateZone(days int, filename string, withHeating bool) error {
	envelope := provider.Envelope{
		Cm:     18_000_000,
		HTrEm:  20,
		HTrW:   10,
		HVeAdj: 15,
		HTrMs:  25,
		HTrIs:  30,
	}
	p := provider.NewTableProvider()
	if err := p.Add("office", envelope, sinusoidalDays(days, 8, 6)); err != nil {
		return err
	}

	res, err := demand.NewResolver(demand.ResolverParams{ProbePower: demand.ProbePowerForArea(100)})
	if err != nil {
		return err
	}
	sched := control.NewSchedule()
	zs := control.ZoneSchedule{}
	if withHeating {
		zs.Heating = &control.Window{Start: 6, End: 20}
		zs.HeatingSystem = control.SystemRadiative
	}
	if err := sched.Add("office", zs); err != nil {
		return err
	}

	z, err := zone.New(zone.Spec{
		ID:                     "office",
		FloorArea:              100,
		InitialMassTemperature: 18,
		Setpoints:              demand.NewSetpoints(20, 26),
		Capacity:               demand.NewCapacity(3000, -3000),
	}, p, zone.NewStepper(sched, res), nil)
	if err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	sink := report.NewCSVSink(file)

	r := simulation.NewRunner(simulation.Params{
		Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Sink:  sink,
	})
	sum, err := r.Run(context.Background(), []*zone.Zone{z}, days*24)
	if cerr := sink.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	s := sum.Zones["office"]
	fmt.Printf("%s: heating %.1f kWh, air %.2f..%.2f °C (mean %.2f)\n", filename, s.HeatingKWh, s.MinAir, s.MaxAir, s.MeanAir)
	return nil
}

func main() {
	if err := SimulateZone(7, "free_float.csv", false); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := SimulateZone(7, "heated.csv", true); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
