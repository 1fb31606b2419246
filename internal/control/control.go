package control

// Control tells the orchestration whether heating or cooling may run at a
// given hour of the year, and which system serves each zone.
type Control interface {
	IsHeatingActive(hour int, zone string) bool
	IsCoolingActive(hour int, zone string) bool
	HeatingSystem(zone string) SystemType
	CoolingSystem(zone string) SystemType
}

func HeatingSystemIsRadiative(c Control, zone string) bool {
	return c.HeatingSystem(zone) == SystemRadiative
}

func HeatingSystemIsAC(c Control, zone string) bool {
	return c.HeatingSystem(zone) == SystemAirConditioning
}

func CoolingSystemIsRadiative(c Control, zone string) bool {
	return c.CoolingSystem(zone) == SystemRadiative
}

func CoolingSystemIsAC(c Control, zone string) bool {
	return c.CoolingSystem(zone) == SystemAirConditioning
}

// Always is a Control with both systems permanently available.
type Always struct {
	Heating SystemType
	Cooling SystemType
}

func (a Always) IsHeatingActive(int, string) bool { return true }
func (a Always) IsCoolingActive(int, string) bool { return true }
func (a Always) HeatingSystem(string) SystemType  { return a.Heating }
func (a Always) CoolingSystem(string) SystemType  { return a.Cooling }
