package control

import "sync"

// Window is a daily operating period in hours of day. End is exclusive; a
// window with Start > End wraps past midnight and Start == End means all day.
type Window struct {
	Start int
	End   int
}

func (w Window) Validate() error {
	if w.Start < 0 || w.Start > 24 || w.End < 0 || w.End > 24 {
		return ErrInvalidHour
	}
	return nil
}

// Contains reports whether the hour of the year falls inside the window.
func (w Window) Contains(hour int) bool {
	h := hour % 24
	if h < 0 {
		h += 24
	}
	start, end := w.Start%24, w.End%24
	switch {
	case start == end:
		return true
	case start < end:
		return h >= start && h < end
	default:
		return h >= start || h < end
	}
}

// ZoneSchedule configures one zone. A nil window disables that service.
type ZoneSchedule struct {
	Heating       *Window
	Cooling       *Window
	HeatingSystem SystemType
	CoolingSystem SystemType
}

func (z *ZoneSchedule) Validate() error {
	for _, w := range []*Window{z.Heating, z.Cooling} {
		if w == nil {
			continue
		}
		if err := w.Validate(); err != nil {
			return err
		}
	}
	if z.Heating != nil && !z.HeatingSystem.Valid() {
		return ErrInvalidSystemType
	}
	if z.Cooling != nil && !z.CoolingSystem.Valid() {
		return ErrInvalidSystemType
	}
	return nil
}

// Schedule is a Control backed by per-zone daily windows. Zones without a
// schedule never heat or cool.
type Schedule struct {
	mu    sync.RWMutex
	zones map[string]ZoneSchedule
}

func NewSchedule() *Schedule {
	return &Schedule{zones: map[string]ZoneSchedule{}}
}

func (s *Schedule) Add(zone string, z ZoneSchedule) error {
	if err := z.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.zones[zone]; ok {
		return ErrDuplicateZoneSchedule
	}
	s.zones[zone] = z
	return nil
}

func (s *Schedule) get(zone string) (ZoneSchedule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	z, ok := s.zones[zone]
	return z, ok
}

func (s *Schedule) IsHeatingActive(hour int, zone string) bool {
	z, ok := s.get(zone)
	return ok && z.Heating != nil && z.Heating.Contains(hour)
}

func (s *Schedule) IsCoolingActive(hour int, zone string) bool {
	z, ok := s.get(zone)
	return ok && z.Cooling != nil && z.Cooling.Contains(hour)
}

func (s *Schedule) HeatingSystem(zone string) SystemType {
	z, _ := s.get(zone)
	return z.HeatingSystem
}

func (s *Schedule) CoolingSystem(zone string) SystemType {
	z, _ := s.get(zone)
	return z.CoolingSystem
}
