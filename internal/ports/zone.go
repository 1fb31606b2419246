package ports

import "github.com/Agrid-Dev/thermozone/internal/zone"

// ZoneService is the control-plane port used by controllers (HTTP/MQTT/etc).
type ZoneService interface {
	Get() zone.Snapshot
	SetHeatingSetpoint(float64) error
	SetCoolingSetpoint(float64) error
	SetHeatingMax(float64) error
	SetCoolingMax(float64) error
}

// ZoneDirectory resolves zone ids to services.
type ZoneDirectory interface {
	IDs() []string
	Lookup(id string) (ZoneService, bool)
}

type registryDirectory struct {
	r *zone.Registry
}

// FromRegistry exposes a zone registry as a ZoneDirectory.
func FromRegistry(r *zone.Registry) ZoneDirectory {
	return registryDirectory{r: r}
}

func (d registryDirectory) IDs() []string {
	return d.r.IDs()
}

func (d registryDirectory) Lookup(id string) (ZoneService, bool) {
	z, ok := d.r.Zone(id)
	if !ok {
		return nil, false
	}
	return z, true
}
