package report

import (
	"time"

	"github.com/Agrid-Dev/thermozone/internal/zone"
)

// Record is one zone-hour as written to reports.
type Record struct {
	RunID       string    `csv:"run_id" json:"runId"`
	Zone        string    `csv:"zone" json:"zoneId"`
	Hour        int       `csv:"hour" json:"hour"`
	Time        time.Time `csv:"time" json:"timestamp"`
	ThetaE      float64   `csv:"theta_e" json:"thetaE"`
	ThetaAir    float64   `csv:"theta_air" json:"thetaAir"`
	ThetaOp     float64   `csv:"theta_op" json:"thetaOp"`
	ThetaM      float64   `csv:"theta_m" json:"thetaM"`
	PhiHCNd     float64   `csv:"phi_hc_nd" json:"phiHcNd"`
	HeatingLoad float64   `csv:"heating_load" json:"heatingLoadW"`
	CoolingLoad float64   `csv:"cooling_load" json:"coolingLoadW"`
	Demand      string    `csv:"demand" json:"demand"`
	Active      bool      `csv:"active" json:"active"`
	Limited     bool      `csv:"limited" json:"limited"`
}

// FromOutcome labels an outcome with its run and wall-clock time. start is
// the timestamp of hour 0.
func FromOutcome(runID string, start time.Time, o zone.Outcome) Record {
	return Record{
		RunID:       runID,
		Zone:        o.Zone,
		Hour:        o.Hour,
		Time:        start.Add(time.Duration(o.Hour) * time.Hour),
		ThetaE:      o.ThetaE,
		ThetaAir:    o.Result.ThetaAir,
		ThetaOp:     o.Result.ThetaOp,
		ThetaM:      o.Result.ThetaMT,
		PhiHCNd:     o.PhiHCNd,
		HeatingLoad: o.HeatingLoad(),
		CoolingLoad: o.CoolingLoad(),
		Demand:      o.Demand.String(),
		Active:      o.Active,
		Limited:     o.Limited,
	}
}
