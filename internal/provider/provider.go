package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Agrid-Dev/thermozone/internal/rcmodel"
)

// Provider supplies a fresh parameter snapshot per zone and hour. The mass
// temperature is owned by the caller and passed through unchanged.
type Provider interface {
	Parameters(zone string, hour int, thetaMPrev float64) (rcmodel.Parameters, error)
}

// Envelope holds the time-invariant part of a zone's network.
type Envelope struct {
	Cm     float64 `json:"c_m" yaml:"c_m" koanf:"c_m"`
	HTrEm  float64 `json:"h_tr_em" yaml:"h_tr_em" koanf:"h_tr_em"`
	HTrW   float64 `json:"h_tr_w" yaml:"h_tr_w" koanf:"h_tr_w"`
	HVeAdj float64 `json:"h_ve_adj" yaml:"h_ve_adj" koanf:"h_ve_adj"`
	HTrMs  float64 `json:"h_tr_ms" yaml:"h_tr_ms" koanf:"h_tr_ms"`
	HTrIs  float64 `json:"h_tr_is" yaml:"h_tr_is" koanf:"h_tr_is"`
}

func (e Envelope) Validate() error {
	p := e.Parameters(Hourly{}, 0)
	return p.Validate()
}

// Parameters combines the envelope with one hour of boundary conditions.
func (e Envelope) Parameters(h Hourly, thetaMPrev float64) rcmodel.Parameters {
	return rcmodel.Parameters{
		ThetaMPrev: thetaMPrev,
		ThetaE:     h.ThetaE,
		Cm:         e.Cm,
		HTrEm:      e.HTrEm,
		HTrW:       e.HTrW,
		HVeAdj:     e.HVeAdj,
		HTrMs:      e.HTrMs,
		HTrIs:      e.HTrIs,
		PhiM:       h.PhiM,
		PhiSt:      h.PhiSt,
		PhiIa:      h.PhiIa,
	}
}

type zoneTable struct {
	envelope Envelope
	rows     []Hourly
}

// TableProvider serves registered zones from hourly tables. A table must
// cover hours 0..n-1 without gaps. Tables shorter than the simulated period
// repeat: hour h reads the row for hour h mod n.
type TableProvider struct {
	mu    sync.RWMutex
	zones map[string]zoneTable
}

func NewTableProvider() *TableProvider {
	return &TableProvider{zones: map[string]zoneTable{}}
}

func (t *TableProvider) Add(zone string, envelope Envelope, rows []Hourly) error {
	if err := envelope.Validate(); err != nil {
		return fmt.Errorf("zone %s: %w", zone, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("zone %s: %w", zone, ErrEmptyTable)
	}
	sorted := append([]Hourly(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Hour < sorted[j].Hour })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Hour == sorted[i-1].Hour {
			return fmt.Errorf("zone %s hour %d: %w", zone, sorted[i].Hour, ErrDuplicateHour)
		}
	}
	for i, r := range sorted {
		if r.Hour != i {
			return fmt.Errorf("zone %s hour %d: %w", zone, i, ErrMissingHour)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.zones[zone]; ok {
		return fmt.Errorf("zone %s: %w", zone, ErrDuplicateZone)
	}
	t.zones[zone] = zoneTable{envelope: envelope, rows: sorted}
	return nil
}

func (t *TableProvider) Parameters(zone string, hour int, thetaMPrev float64) (rcmodel.Parameters, error) {
	t.mu.RLock()
	zt, ok := t.zones[zone]
	t.mu.RUnlock()
	if !ok {
		return rcmodel.Parameters{}, fmt.Errorf("%w: %s", ErrUnknownZone, zone)
	}
	i := hour % len(zt.rows)
	if i < 0 {
		i += len(zt.rows)
	}
	return zt.envelope.Parameters(zt.rows[i], thetaMPrev), nil
}

// Constant serves the same boundary conditions for every zone and hour.
type Constant struct {
	Envelope Envelope
	Hourly   Hourly
}

func (c Constant) Parameters(_ string, _ int, thetaMPrev float64) (rcmodel.Parameters, error) {
	return c.Envelope.Parameters(c.Hourly, thetaMPrev), nil
}
